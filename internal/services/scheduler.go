package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"gorm.io/datatypes"

	"github.com/botvine/huddle/internal/logger"
	"github.com/botvine/huddle/internal/parse"
	"github.com/botvine/huddle/internal/platform/googlecal"
	"github.com/botvine/huddle/internal/repos"
	"github.com/botvine/huddle/internal/types"
	"github.com/botvine/huddle/internal/utils"
)

// CalendarClient is the slice of the calendar platform the scheduler
// needs. *googlecal.Service satisfies it.
type CalendarClient interface {
	CreateEvent(ctx context.Context, ts oauth2.TokenSource, in googlecal.EventInput) (*googlecal.CreatedEvent, error)
	ListUpcoming(ctx context.Context, ts oauth2.TokenSource, maxResults int) ([]googlecal.UpcomingEvent, error)
}

type SchedulerService interface {
	// Schedule parses a meeting request out of text and creates the
	// calendar event. The returned string is the reply to post back to
	// Slack. ErrNotLinked is returned when the user must authorize
	// first.
	Schedule(ctx context.Context, slackUserID, channelID, text string) (string, error)
	// Upcoming lists the user's next calendar events as a Slack reply.
	Upcoming(ctx context.Context, slackUserID string) (string, error)
}

type schedulerService struct {
	log      *logger.Logger
	auth     GoogleAuthService
	calendar CalendarClient
	meetings repos.MeetingRepo
	loc      *time.Location
}

func NewSchedulerService(log *logger.Logger, auth GoogleAuthService, calendar CalendarClient, meetings repos.MeetingRepo) (SchedulerService, error) {
	tz := utils.GetEnv("DEFAULT_TIMEZONE", "America/New_York", log)
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return &schedulerService{
		log:      log.With("service", "Scheduler"),
		auth:     auth,
		calendar: calendar,
		meetings: meetings,
		loc:      loc,
	}, nil
}

// classifyCalendarErr surfaces revoked or expired grants as
// ErrCredentialsExpired so the caller can send the user back through
// consent instead of a dead-end apology. The token source refresh and
// the API call itself can both report revocation.
func classifyCalendarErr(op string, err error) error {
	if errors.Is(err, ErrCredentialsExpired) {
		return err
	}
	if credentialsRevoked(err) {
		return fmt.Errorf("%w: %v", ErrCredentialsExpired, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

const usageHint = "I couldn't pick out the meeting details. I need at least one attendee email, for example:\n" +
	"> schedule a meeting with alice@example.com tomorrow at 2pm for 45 minutes about \"roadmap review\""

func (s *schedulerService) Schedule(ctx context.Context, slackUserID, channelID, text string) (string, error) {
	ts, err := s.auth.TokenSource(ctx, slackUserID)
	if err != nil {
		return "", err
	}

	details := parse.ParseMeetingRequest(parse.CleanMessage(text), time.Now().In(s.loc), s.loc)
	if details == nil {
		return usageHint, nil
	}

	created, err := s.calendar.CreateEvent(ctx, ts, googlecal.EventInput{
		Title: details.Title,
		Description: fmt.Sprintf("Meeting scheduled via Slack by <@%s>.\nOriginal request: %s",
			slackUserID, details.OriginalText),
		Start:           details.Start,
		DurationMinutes: details.DurationMinutes,
		Attendees:       details.Attendees,
	})
	if err != nil {
		return "", classifyCalendarErr("create calendar event", err)
	}

	s.recordMeeting(ctx, slackUserID, channelID, details, created)

	return formatScheduledReply(details, created, s.loc), nil
}

func (s *schedulerService) recordMeeting(ctx context.Context, slackUserID, channelID string, details *parse.MeetingDetails, created *googlecal.CreatedEvent) {
	attendees, err := json.Marshal(details.Attendees)
	if err != nil {
		attendees = []byte("[]")
	}
	_, err = s.meetings.Create(ctx, nil, &types.Meeting{
		SlackUserID:     slackUserID,
		ChannelID:       channelID,
		Title:           details.Title,
		StartTime:       details.Start.UTC(),
		DurationMinutes: details.DurationMinutes,
		Attendees:       datatypes.JSON(attendees),
		CalendarEventID: created.ID,
		CalendarLink:    created.HTMLLink,
		VideoLink:       created.VideoLink,
	})
	if err != nil {
		// The calendar event exists; losing the local record is not
		// worth failing the whole request over.
		s.log.Warn("failed to record meeting", "slack_user", slackUserID, "error", err)
	}
}

func formatScheduledReply(details *parse.MeetingDetails, created *googlecal.CreatedEvent, loc *time.Location) string {
	var b strings.Builder
	b.WriteString("✅ Meeting scheduled!\n\n")
	fmt.Fprintf(&b, "📅 *%s*\n", details.Title)
	fmt.Fprintf(&b, "🕐 %s\n", details.Start.In(loc).Format("Monday, January 2 at 3:04 PM MST"))
	fmt.Fprintf(&b, "⏱️ %d minutes\n", details.DurationMinutes)
	fmt.Fprintf(&b, "👥 %s\n", strings.Join(details.Attendees, ", "))
	if created.HTMLLink != "" {
		fmt.Fprintf(&b, "🔗 <%s|View in Google Calendar>\n", created.HTMLLink)
	}
	if created.VideoLink != "" {
		fmt.Fprintf(&b, "📹 <%s|Join Google Meet>\n", created.VideoLink)
	}
	b.WriteString("\nInvites are on their way to everyone.")
	return b.String()
}

func (s *schedulerService) Upcoming(ctx context.Context, slackUserID string) (string, error) {
	ts, err := s.auth.TokenSource(ctx, slackUserID)
	if err != nil {
		return "", err
	}
	events, err := s.calendar.ListUpcoming(ctx, ts, 10)
	if err != nil {
		return "", classifyCalendarErr("list upcoming events", err)
	}
	return formatUpcomingReply(events, s.loc), nil
}

func formatUpcomingReply(events []googlecal.UpcomingEvent, loc *time.Location) string {
	if len(events) == 0 {
		return "📅 Your calendar is clear, no upcoming events."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📅 Your next %d event(s):\n", len(events))
	for i, ev := range events {
		start := ev.Start
		if t, err := time.Parse(time.RFC3339, ev.Start); err == nil {
			start = t.In(loc).Format("Mon, Jan 2 at 3:04 PM")
		}
		if ev.HTMLLink != "" {
			fmt.Fprintf(&b, "%d. <%s|*%s*> at %s\n", i+1, ev.HTMLLink, ev.Summary, start)
		} else {
			fmt.Fprintf(&b, "%d. *%s* at %s\n", i+1, ev.Summary, start)
		}
	}
	return b.String()
}
