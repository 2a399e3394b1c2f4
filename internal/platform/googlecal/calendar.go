// Package googlecal wraps the Google Calendar v3 API for per-user calendars.
// Every call is made with the requesting user's own OAuth token source.
package googlecal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/botvine/huddle/internal/logger"
	"github.com/botvine/huddle/internal/observability"
)

type EventInput struct {
	Title           string
	Description     string
	Start           time.Time
	DurationMinutes int
	Attendees       []string
	Location        string
}

type CreatedEvent struct {
	ID       string
	HTMLLink string
	// VideoLink is the Meet entry point when conference creation succeeded.
	VideoLink string
}

type UpcomingEvent struct {
	Summary   string
	Start     string
	HTMLLink  string
	Attendees []string
}

type Service struct {
	log *logger.Logger
}

func New(log *logger.Logger) *Service {
	return &Service{log: log.With("service", "GoogleCalendar")}
}

func (s *Service) service(ctx context.Context, ts oauth2.TokenSource) (*calendar.Service, error) {
	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}
	return svc, nil
}

func (s *Service) CreateEvent(ctx context.Context, ts oauth2.TokenSource, in EventInput) (*CreatedEvent, error) {
	svc, err := s.service(ctx, ts)
	if err != nil {
		return nil, err
	}

	start := in.Start.UTC()
	end := start.Add(time.Duration(in.DurationMinutes) * time.Minute)

	attendees := make([]*calendar.EventAttendee, 0, len(in.Attendees))
	for _, email := range in.Attendees {
		attendees = append(attendees, &calendar.EventAttendee{Email: email})
	}

	event := &calendar.Event{
		Summary:     in.Title,
		Description: in.Description,
		Location:    in.Location,
		Start: &calendar.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: "UTC",
		},
		End: &calendar.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: "UTC",
		},
		Attendees: attendees,
		Reminders: &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: "email", Minutes: 24 * 60},
				{Method: "popup", Minutes: 15},
			},
			ForceSendFields: []string{"UseDefault"},
		},
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: "huddle-" + uuid.NewString(),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: "hangoutsMeet",
				},
			},
		},
	}

	started := time.Now()
	created, err := svc.Events.Insert("primary", event).
		Context(ctx).
		ConferenceDataVersion(1).
		SendUpdates("all").
		Do()
	if metrics := observability.Current(); metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.ObserveCalendarCall("events.insert", status, time.Since(started))
	}
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	out := &CreatedEvent{
		ID:       created.Id,
		HTMLLink: created.HtmlLink,
	}
	if created.ConferenceData != nil {
		for _, ep := range created.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" && ep.Uri != "" {
				out.VideoLink = ep.Uri
				break
			}
		}
	}
	return out, nil
}

func (s *Service) ListUpcoming(ctx context.Context, ts oauth2.TokenSource, maxResults int) ([]UpcomingEvent, error) {
	svc, err := s.service(ctx, ts)
	if err != nil {
		return nil, err
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	started := time.Now()
	resp, err := svc.Events.List("primary").
		Context(ctx).
		TimeMin(time.Now().UTC().Format(time.RFC3339)).
		MaxResults(int64(maxResults)).
		SingleEvents(true).
		OrderBy("startTime").
		Do()
	if metrics := observability.Current(); metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.ObserveCalendarCall("events.list", status, time.Since(started))
	}
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	out := make([]UpcomingEvent, 0, len(resp.Items))
	for _, item := range resp.Items {
		start := ""
		if item.Start != nil {
			start = item.Start.DateTime
			if start == "" {
				start = item.Start.Date
			}
		}
		ev := UpcomingEvent{
			Summary:  item.Summary,
			Start:    start,
			HTMLLink: item.HtmlLink,
		}
		if ev.Summary == "" {
			ev.Summary = "No title"
		}
		for _, a := range item.Attendees {
			if a != nil && a.Email != "" {
				ev.Attendees = append(ev.Attendees, a.Email)
			}
		}
		out = append(out, ev)
	}
	return out, nil
}
