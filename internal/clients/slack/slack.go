// Package slack owns the socket mode connection to Slack. Envelopes are
// acked as soon as they arrive; normalized events are handed to the
// registered handler on their own goroutine.
package slack

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/botvine/huddle/internal/logger"
	"github.com/botvine/huddle/internal/utils"
)

// Inbound is a normalized Slack event the assistant knows how to handle.
type Inbound struct {
	Type      string
	EventID   string
	UserID    string
	ChannelID string
	Text      string
	TS        string
	ThreadTS  string
	IsDM      bool
}

// Handler processes one inbound event. The envelope is already acked by
// the time the handler runs.
type Handler func(ctx context.Context, in Inbound)

type Client struct {
	api       *slack.Client
	sock      *socketmode.Client
	log       *logger.Logger
	botUserID string
}

func New(log *logger.Logger) (*Client, error) {
	botToken := utils.GetEnv("SLACK_BOT_TOKEN", "", log)
	appToken := utils.GetEnv("SLACK_APP_TOKEN", "", log)
	if botToken == "" {
		return nil, errors.New("SLACK_BOT_TOKEN is required")
	}
	if appToken == "" {
		return nil, errors.New("SLACK_APP_TOKEN is required")
	}
	if !strings.HasPrefix(appToken, "xapp-") {
		return nil, errors.New("SLACK_APP_TOKEN must be an app-level token (xapp-...)")
	}

	api := slack.New(botToken, slack.OptionAppLevelToken(appToken))
	auth, err := api.AuthTest()
	if err != nil {
		return nil, fmt.Errorf("slack auth test: %w", err)
	}
	clog := log.With("client", "Slack")
	clog.Info("slack authenticated", "bot_user", auth.UserID, "team", auth.Team)

	return &Client{
		api:       api,
		sock:      socketmode.New(api),
		log:       clog,
		botUserID: auth.UserID,
	}, nil
}

// BotUserID returns the authed bot user, used to drop our own messages.
func (c *Client) BotUserID() string { return c.botUserID }

// Run drives the socket mode connection until ctx is canceled. Each
// events API envelope is acked immediately and dispatched to handler.
func (c *Client) Run(ctx context.Context, handler Handler) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-c.sock.Events:
				if !ok {
					return
				}
				c.handleEvent(ctx, evt, handler)
			}
		}
	}()
	return c.sock.RunContext(ctx)
}

func (c *Client) handleEvent(ctx context.Context, evt socketmode.Event, handler Handler) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		c.log.Info("connecting to slack")
	case socketmode.EventTypeConnectionError:
		c.log.Warn("slack connection error", "error", evt.Data)
	case socketmode.EventTypeConnected:
		c.log.Info("connected to slack")
	case socketmode.EventTypeEventsAPI:
		apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		if evt.Request != nil {
			c.sock.Ack(*evt.Request)
		}
		in, ok := Normalize(apiEvent, c.botUserID)
		if !ok {
			return
		}
		go handler(ctx, in)
	}
}

// Normalize maps an events API payload onto an Inbound. The second
// return is false for events the bot does not act on: non-callback
// payloads, message subtypes, bot messages, channel messages that do
// not mention the bot, and IM messages that duplicate a mention.
func Normalize(evt slackevents.EventsAPIEvent, botUserID string) (Inbound, bool) {
	if evt.Type != slackevents.CallbackEvent {
		return Inbound{}, false
	}
	eventID := ""
	if cb, ok := evt.Data.(*slackevents.EventsAPICallbackEvent); ok && cb != nil {
		eventID = cb.EventID
	}

	switch inner := evt.InnerEvent.Data.(type) {
	case *slackevents.AppMentionEvent:
		if inner.User == "" || inner.User == botUserID {
			return Inbound{}, false
		}
		return Inbound{
			Type:      "app_mention",
			EventID:   eventID,
			UserID:    inner.User,
			ChannelID: inner.Channel,
			Text:      inner.Text,
			TS:        inner.TimeStamp,
			ThreadTS:  inner.ThreadTimeStamp,
		}, true
	case *slackevents.MessageEvent:
		if inner.SubType != "" || inner.BotID != "" {
			return Inbound{}, false
		}
		if inner.User == "" || inner.User == botUserID {
			return Inbound{}, false
		}
		if inner.ChannelType != "im" {
			return Inbound{}, false
		}
		// A DM that mentions the bot is also delivered as an app_mention
		// with its own event ID. That delivery handles it.
		if botUserID != "" && strings.Contains(inner.Text, "<@"+botUserID+">") {
			return Inbound{}, false
		}
		return Inbound{
			Type:      "message",
			EventID:   eventID,
			UserID:    inner.User,
			ChannelID: inner.Channel,
			Text:      inner.Text,
			TS:        inner.TimeStamp,
			ThreadTS:  inner.ThreadTimeStamp,
			IsDM:      true,
		}, true
	}
	return Inbound{}, false
}

// Say posts text to a channel, retrying once when Slack rate limits.
func (c *Client) Say(ctx context.Context, channelID, text string) error {
	return c.post(ctx, channelID, "", text)
}

// SayThread posts text as a reply in a thread.
func (c *Client) SayThread(ctx context.Context, channelID, threadTS, text string) error {
	return c.post(ctx, channelID, threadTS, text)
}

func (c *Client) post(ctx context.Context, channelID, threadTS, text string) error {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}
	_, _, err := c.api.PostMessageContext(ctx, channelID, opts...)
	var rl *slack.RateLimitedError
	if errors.As(err, &rl) {
		wait := rl.RetryAfter
		if wait <= 0 {
			wait = time.Second
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		_, _, err = c.api.PostMessageContext(ctx, channelID, opts...)
	}
	if err != nil {
		return fmt.Errorf("post message: %w", err)
	}
	return nil
}
