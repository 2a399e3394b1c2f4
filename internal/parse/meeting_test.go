package parse

import (
	"testing"
	"time"
)

func TestIsMeetingRequest(t *testing.T) {
	cases := []struct {
		name string
		msg  string
		want bool
	}{
		{
			name: "schedule_a_meeting",
			msg:  "can you schedule a meeting with bob@example.com at 2pm",
			want: true,
		},
		{
			name: "set_up_call",
			msg:  "set up a call with the design team tomorrow",
			want: true,
		},
		{
			name: "please_book",
			msg:  "please book something with ann@corp.io",
			want: true,
		},
		{
			name: "calendar_invite",
			msg:  "send a calendar invite to the team",
			want: true,
		},
		{
			name: "mixed_case",
			msg:  "Schedule A Meeting with sam@example.com",
			want: true,
		},
		{
			name: "plain_chat",
			msg:  "what's the weather like today",
			want: false,
		},
		{
			name: "mentions_meeting_noun_only",
			msg:  "that meeting yesterday was rough",
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsMeetingRequest(tc.msg); got != tc.want {
				t.Fatalf("IsMeetingRequest(%q)=%v, want %v", tc.msg, got, tc.want)
			}
		})
	}
}

func TestIsUpcomingQuery(t *testing.T) {
	cases := []struct {
		name string
		msg  string
		want bool
	}{
		{name: "upcoming_meetings", msg: "show my upcoming meetings", want: true},
		{name: "whats_on_calendar", msg: "what's on my calendar", want: true},
		{name: "list_meetings", msg: "list meetings please", want: true},
		{name: "chat", msg: "tell me a joke", want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUpcomingQuery(tc.msg); got != tc.want {
				t.Fatalf("IsUpcomingQuery(%q)=%v, want %v", tc.msg, got, tc.want)
			}
		})
	}
}

func TestParseMeetingRequest(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// Wednesday, 10:00 local.
	now := time.Date(2024, 3, 13, 10, 0, 0, 0, loc)

	t.Run("no_email_returns_nil", func(t *testing.T) {
		if got := ParseMeetingRequest("schedule a meeting at 2pm", now, loc); got != nil {
			t.Fatalf("expected nil, got %+v", got)
		}
	})

	t.Run("full_request", func(t *testing.T) {
		got := ParseMeetingRequest(`schedule a meeting with bob@example.com tomorrow at 2:30pm for 45 minutes about "Roadmap Review"`, now, loc)
		if got == nil {
			t.Fatal("expected details, got nil")
		}
		if len(got.Attendees) != 1 || got.Attendees[0] != "bob@example.com" {
			t.Fatalf("attendees=%v", got.Attendees)
		}
		want := time.Date(2024, 3, 14, 14, 30, 0, 0, loc)
		if !got.Start.Equal(want) {
			t.Fatalf("start=%v, want %v", got.Start, want)
		}
		if got.DurationMinutes != 45 {
			t.Fatalf("duration=%d, want 45", got.DurationMinutes)
		}
		if got.Title != "Roadmap Review" {
			t.Fatalf("title=%q", got.Title)
		}
	})

	t.Run("multiple_attendees", func(t *testing.T) {
		got := ParseMeetingRequest("set up a call with a@x.com and b.smith@y.co.uk at 3pm", now, loc)
		if got == nil {
			t.Fatal("expected details, got nil")
		}
		if len(got.Attendees) != 2 {
			t.Fatalf("attendees=%v", got.Attendees)
		}
	})

	t.Run("past_time_rolls_to_tomorrow", func(t *testing.T) {
		got := ParseMeetingRequest("schedule a meeting with bob@example.com at 9am", now, loc)
		if got == nil {
			t.Fatal("expected details, got nil")
		}
		want := time.Date(2024, 3, 14, 9, 0, 0, 0, loc)
		if !got.Start.Equal(want) {
			t.Fatalf("start=%v, want %v", got.Start, want)
		}
	})

	t.Run("future_time_stays_today", func(t *testing.T) {
		got := ParseMeetingRequest("schedule a meeting with bob@example.com at 4pm", now, loc)
		if got == nil {
			t.Fatal("expected details, got nil")
		}
		want := time.Date(2024, 3, 13, 16, 0, 0, 0, loc)
		if !got.Start.Equal(want) {
			t.Fatalf("start=%v, want %v", got.Start, want)
		}
	})

	t.Run("next_weekday", func(t *testing.T) {
		got := ParseMeetingRequest("book a meeting with bob@example.com next friday at 11am", now, loc)
		if got == nil {
			t.Fatal("expected details, got nil")
		}
		want := time.Date(2024, 3, 15, 11, 0, 0, 0, loc)
		if !got.Start.Equal(want) {
			t.Fatalf("start=%v, want %v", got.Start, want)
		}
	})

	t.Run("next_same_weekday_is_a_week_out", func(t *testing.T) {
		got := ParseMeetingRequest("book a meeting with bob@example.com next wednesday at 11am", now, loc)
		if got == nil {
			t.Fatal("expected details, got nil")
		}
		want := time.Date(2024, 3, 20, 11, 0, 0, 0, loc)
		if !got.Start.Equal(want) {
			t.Fatalf("start=%v, want %v", got.Start, want)
		}
	})

	t.Run("no_time_defaults_hour_from_now", func(t *testing.T) {
		got := ParseMeetingRequest("schedule a meeting with bob@example.com", now, loc)
		if got == nil {
			t.Fatal("expected details, got nil")
		}
		if !got.Start.Equal(now.Add(time.Hour)) {
			t.Fatalf("start=%v, want %v", got.Start, now.Add(time.Hour))
		}
	})

	t.Run("hour_duration", func(t *testing.T) {
		got := ParseMeetingRequest("schedule a meeting with bob@example.com at 2pm for 2 hours", now, loc)
		if got == nil {
			t.Fatal("expected details, got nil")
		}
		if got.DurationMinutes != 120 {
			t.Fatalf("duration=%d, want 120", got.DurationMinutes)
		}
	})

	t.Run("noon_and_midnight", func(t *testing.T) {
		got := ParseMeetingRequest("schedule a meeting with bob@example.com at 12pm", now, loc)
		if got == nil {
			t.Fatal("expected details, got nil")
		}
		want := time.Date(2024, 3, 13, 12, 0, 0, 0, loc)
		if !got.Start.Equal(want) {
			t.Fatalf("start=%v, want %v", got.Start, want)
		}
	})
}

func TestCleanMessage(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "user_mention",
			in:   "<@U12345> hello there",
			want: "hello there",
		},
		{
			name: "channel_mention",
			in:   "see <#C999|general> for details",
			want: "see  for details",
		},
		{
			name: "url_markup",
			in:   "docs at <https://example.com/doc|the doc>",
			want: "docs at https://example.com/doc",
		},
		{
			name: "plain",
			in:   "nothing to strip",
			want: "nothing to strip",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanMessage(tc.in); got != tc.want {
				t.Fatalf("CleanMessage(%q)=%q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
