package slack

import (
	"testing"

	"github.com/slack-go/slack/slackevents"
)

const botID = "U0BOT"

func callbackEvent(inner any) slackevents.EventsAPIEvent {
	return slackevents.EventsAPIEvent{
		Type: slackevents.CallbackEvent,
		Data: &slackevents.EventsAPICallbackEvent{EventID: "Ev123"},
		InnerEvent: slackevents.EventsAPIInnerEvent{
			Data: inner,
		},
	}
}

func TestNormalizeAppMention(t *testing.T) {
	evt := callbackEvent(&slackevents.AppMentionEvent{
		User:            "U1",
		Channel:         "C1",
		Text:            "<@U0BOT> schedule a meeting",
		TimeStamp:       "1700000000.000100",
		ThreadTimeStamp: "1700000000.000001",
	})

	in, ok := Normalize(evt, botID)
	if !ok {
		t.Fatal("expected event to normalize")
	}
	if in.Type != "app_mention" {
		t.Errorf("Type = %q, want app_mention", in.Type)
	}
	if in.EventID != "Ev123" {
		t.Errorf("EventID = %q, want Ev123", in.EventID)
	}
	if in.UserID != "U1" || in.ChannelID != "C1" {
		t.Errorf("user/channel = %q/%q", in.UserID, in.ChannelID)
	}
	if in.ThreadTS != "1700000000.000001" {
		t.Errorf("ThreadTS = %q", in.ThreadTS)
	}
	if in.IsDM {
		t.Error("app_mention should not be marked as DM")
	}
}

func TestNormalizeDirectMessage(t *testing.T) {
	evt := callbackEvent(&slackevents.MessageEvent{
		User:        "U2",
		Channel:     "D1",
		ChannelType: "im",
		Text:        "what's on my calendar",
		TimeStamp:   "1700000001.000100",
	})

	in, ok := Normalize(evt, botID)
	if !ok {
		t.Fatal("expected DM to normalize")
	}
	if in.Type != "message" || !in.IsDM {
		t.Errorf("got type %q isDM %v", in.Type, in.IsDM)
	}
}

func TestNormalizeSkips(t *testing.T) {
	cases := []struct {
		name string
		evt  slackevents.EventsAPIEvent
	}{
		{
			name: "url verification payload",
			evt:  slackevents.EventsAPIEvent{Type: slackevents.URLVerification},
		},
		{
			name: "message subtype",
			evt: callbackEvent(&slackevents.MessageEvent{
				User: "U2", Channel: "D1", ChannelType: "im", SubType: "message_changed",
			}),
		},
		{
			name: "bot message",
			evt: callbackEvent(&slackevents.MessageEvent{
				BotID: "B1", Channel: "D1", ChannelType: "im",
			}),
		},
		{
			name: "own message",
			evt: callbackEvent(&slackevents.MessageEvent{
				User: botID, Channel: "D1", ChannelType: "im",
			}),
		},
		{
			// Slack delivers this same message as an app_mention under a
			// separate event ID, so the message delivery must be dropped
			// or the user gets two replies.
			name: "dm that duplicates a mention",
			evt: callbackEvent(&slackevents.MessageEvent{
				User: "U2", Channel: "D1", ChannelType: "im",
				Text: "<@U0BOT> schedule a meeting with bob@example.com",
			}),
		},
		{
			name: "channel message without mention",
			evt: callbackEvent(&slackevents.MessageEvent{
				User: "U2", Channel: "C1", ChannelType: "channel", Text: "hi all",
			}),
		},
		{
			name: "self mention",
			evt: callbackEvent(&slackevents.AppMentionEvent{
				User: botID, Channel: "C1",
			}),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := Normalize(tc.evt, botID); ok {
				t.Error("expected event to be skipped")
			}
		})
	}
}
