// Package parse classifies inbound Slack messages and extracts meeting
// details from free-form scheduling requests.
package parse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

type MeetingDetails struct {
	Title           string
	Attendees       []string
	Start           time.Time
	DurationMinutes int
	OriginalText    string
}

var meetingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)schedule\s+(?:a\s+)?meeting`),
	regexp.MustCompile(`(?i)set\s+up\s+(?:a\s+)?meeting`),
	regexp.MustCompile(`(?i)book\s+(?:a\s+)?meeting`),
	regexp.MustCompile(`(?i)organize\s+(?:a\s+)?meeting`),
	regexp.MustCompile(`(?i)plan\s+(?:a\s+)?meeting`),
	regexp.MustCompile(`(?i)calendar\s+invite`),
	regexp.MustCompile(`(?i)schedule\s+(?:a\s+)?call`),
	regexp.MustCompile(`(?i)set\s+up\s+(?:a\s+)?call`),
	regexp.MustCompile(`(?i)can you book`),
	regexp.MustCompile(`(?i)please book`),
}

var upcomingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)upcoming\s+(?:meetings?|events?|calls?)`),
	regexp.MustCompile(`(?i)what(?:'s| is| are)?\s+(?:on\s+)?my\s+(?:calendar|schedule)`),
	regexp.MustCompile(`(?i)list\s+(?:my\s+)?meetings`),
	regexp.MustCompile(`(?i)my\s+next\s+meetings?`),
}

var (
	emailRe    = regexp.MustCompile(`[\w.\-]+@[\w.\-]+\.\w+`)
	timeRe     = regexp.MustCompile(`(?i)(?:at\s+)?(\d{1,2})(?::(\d{2}))?\s*(am|pm)`)
	durationRe = regexp.MustCompile(`(?i)for\s+(\d+)\s*(min(?:ute)?s?|hours?|hrs?)?`)
	titleRes   = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:subject|title|about|regarding)\s+["'](.+?)["']`),
		regexp.MustCompile(`["'](.+?)["']`),
	}

	mentionRe = regexp.MustCompile(`<@[^>]+>`)
	channelRe = regexp.MustCompile(`<#[^>]+>`)
	urlRe     = regexp.MustCompile(`<(https?://[^|>]+)[^>]*>`)
)

func IsMeetingRequest(text string) bool {
	for _, re := range meetingPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func IsUpcomingQuery(text string) bool {
	for _, re := range upcomingPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// parseFutureDate resolves relative date references ("today", "tomorrow",
// "next friday") against now. Returns the zero time when none is present.
func parseFutureDate(text string, now time.Time) time.Time {
	lower := strings.ToLower(text)

	for name, wd := range weekdays {
		if strings.Contains(lower, "next "+name) {
			ahead := (int(wd) - int(now.Weekday()) + 7) % 7
			// "next friday" on a Friday means a week out, not today.
			if ahead == 0 {
				ahead = 7
			}
			return now.AddDate(0, 0, ahead)
		}
	}
	if strings.Contains(lower, "tomorrow") {
		return now.AddDate(0, 0, 1)
	}
	if strings.Contains(lower, "today") {
		return now
	}
	return time.Time{}
}

// parseClockTime extracts an "h[:mm] am/pm" reference. ok is false when the
// text carries no recognizable time.
func parseClockTime(text string) (hour, minute int, ok bool) {
	m := timeRe.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil || hour < 1 || hour > 12 {
		return 0, 0, false
	}
	if m[2] != "" {
		minute, err = strconv.Atoi(m[2])
		if err != nil || minute > 59 {
			return 0, 0, false
		}
	}
	if hour == 12 {
		hour = 0
	}
	if strings.EqualFold(m[3], "pm") {
		hour += 12
	}
	return hour, minute, true
}

func parseDuration(text string) int {
	m := durationRe.FindStringSubmatch(text)
	if m == nil {
		return 30
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 30
	}
	unit := strings.ToLower(m[2])
	if strings.HasPrefix(unit, "hour") || strings.HasPrefix(unit, "hr") {
		return n * 60
	}
	return n
}

func parseTitle(text string) string {
	for _, re := range titleRes {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return "Meeting"
}

// ParseMeetingRequest extracts attendees, start time, duration and title
// from a scheduling message. Returns nil when no attendee email is present.
// Naive times are interpreted in loc; a time of day already past rolls to
// tomorrow when the text names no explicit date.
func ParseMeetingRequest(text string, now time.Time, loc *time.Location) *MeetingDetails {
	if loc == nil {
		loc = time.Local
	}
	emails := emailRe.FindAllString(text, -1)
	if len(emails) == 0 {
		return nil
	}
	now = now.In(loc)

	baseDate := parseFutureDate(text, now)

	var start time.Time
	if hour, minute, ok := parseClockTime(text); ok {
		day := baseDate
		if day.IsZero() {
			day = now
			candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc)
			if candidate.Before(now) {
				day = now.AddDate(0, 0, 1)
			}
		}
		start = time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
	} else {
		// No time named: default to an hour from now.
		start = now.Add(time.Hour)
	}

	return &MeetingDetails{
		Title:           parseTitle(text),
		Attendees:       emails,
		Start:           start,
		DurationMinutes: parseDuration(text),
		OriginalText:    text,
	}
}

// CleanMessage strips Slack mention, channel and URL markup so the text can
// be handed to the model as plain prose.
func CleanMessage(text string) string {
	text = mentionRe.ReplaceAllString(text, "")
	text = channelRe.ReplaceAllString(text, "")
	text = urlRe.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}
