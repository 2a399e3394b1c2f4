package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/botvine/huddle/internal/clients/redis"
	"github.com/botvine/huddle/internal/clients/slack"
	"github.com/botvine/huddle/internal/logger"
	"github.com/botvine/huddle/internal/observability"
	"github.com/botvine/huddle/internal/parse"
	"github.com/botvine/huddle/internal/platform/openai"
	"github.com/botvine/huddle/internal/prompts"
	"github.com/botvine/huddle/internal/repos"
	"github.com/botvine/huddle/internal/types"
)

// Responder posts replies back to Slack. *slack.Client satisfies it.
type Responder interface {
	Say(ctx context.Context, channelID, text string) error
	SayThread(ctx context.Context, channelID, threadTS, text string) error
}

type AssistantService interface {
	// Handle routes one inbound Slack event. It never returns an error:
	// failures turn into apology replies and log lines.
	Handle(ctx context.Context, in slack.Inbound)
}

type assistantService struct {
	log       *logger.Logger
	responder Responder
	dedupe    redis.Deduper
	scheduler SchedulerService
	auth      GoogleAuthService
	llm       openai.Client
	threads   repos.ConversationThreadRepo
	aiLogs    repos.AICallLogRepo
	prompts   *prompts.Config
}

func NewAssistantService(
	log *logger.Logger,
	responder Responder,
	dedupe redis.Deduper,
	scheduler SchedulerService,
	auth GoogleAuthService,
	llm openai.Client,
	threads repos.ConversationThreadRepo,
	aiLogs repos.AICallLogRepo,
	promptCfg *prompts.Config,
) AssistantService {
	return &assistantService{
		log:       log.With("service", "Assistant"),
		responder: responder,
		dedupe:    dedupe,
		scheduler: scheduler,
		auth:      auth,
		llm:       llm,
		threads:   threads,
		aiLogs:    aiLogs,
		prompts:   promptCfg,
	}
}

const apologyReply = "😔 Sorry, something went wrong on my end. Please try again in a moment."

func (s *assistantService) Handle(ctx context.Context, in slack.Inbound) {
	started := time.Now()
	outcome := "ok"
	defer func() {
		if r := recover(); r != nil {
			outcome = "panic"
			s.log.Error("panic while handling event", "event_id", in.EventID, "panic", fmt.Sprint(r))
			s.reply(ctx, in, apologyReply)
		}
		if m := observability.Current(); m != nil {
			m.ObserveSlackEvent(in.Type, outcome, time.Since(started))
		}
	}()

	if !s.dedupe.FirstSeen(ctx, in.EventID) {
		outcome = "duplicate"
		return
	}

	text := parse.CleanMessage(in.Text)
	s.log.Info("handling event", "type", in.Type, "slack_user", in.UserID, "channel", in.ChannelID)

	switch {
	case parse.IsMeetingRequest(text):
		s.handleSchedule(ctx, in, &outcome)
	case parse.IsUpcomingQuery(text):
		s.handleUpcoming(ctx, in, &outcome)
	default:
		s.handleChat(ctx, in, text, &outcome)
	}
}

func (s *assistantService) handleSchedule(ctx context.Context, in slack.Inbound, outcome *string) {
	reply, err := s.scheduler.Schedule(ctx, in.UserID, in.ChannelID, in.Text)
	switch {
	case errors.Is(err, ErrNotLinked), errors.Is(err, ErrCredentialsExpired):
		*outcome = "needs_auth"
		s.replyAuthPrompt(ctx, in)
	case err != nil:
		*outcome = "error"
		s.log.Error("schedule failed", "slack_user", in.UserID, "error", err)
		s.reply(ctx, in, apologyReply)
	default:
		s.reply(ctx, in, reply)
	}
}

func (s *assistantService) handleUpcoming(ctx context.Context, in slack.Inbound, outcome *string) {
	reply, err := s.scheduler.Upcoming(ctx, in.UserID)
	switch {
	case errors.Is(err, ErrNotLinked), errors.Is(err, ErrCredentialsExpired):
		*outcome = "needs_auth"
		s.replyAuthPrompt(ctx, in)
	case err != nil:
		*outcome = "error"
		s.log.Error("upcoming lookup failed", "slack_user", in.UserID, "error", err)
		s.reply(ctx, in, apologyReply)
	default:
		s.reply(ctx, in, reply)
	}
}

func (s *assistantService) replyAuthPrompt(ctx context.Context, in slack.Inbound) {
	url, err := s.auth.AuthURL(in.UserID)
	if err != nil {
		s.log.Error("failed to build auth url", "slack_user", in.UserID, "error", err)
		s.reply(ctx, in, apologyReply)
		return
	}
	s.reply(ctx, in, fmt.Sprintf(
		"🔗 I need access to your Google Calendar first. <%s|Connect Google Calendar>, then ask me again.", url))
}

func (s *assistantService) handleChat(ctx context.Context, in slack.Inbound, text string, outcome *string) {
	convID, err := s.conversationFor(ctx, in)
	if err != nil {
		s.log.Warn("conversation lookup failed, continuing without history", "error", err)
	}

	system := prompts.ApplySystem(s.prompts.ChatSystem, "chat")
	var (
		answer string
		usage  openai.Usage
	)
	if convID != "" {
		answer, usage, err = s.llm.GenerateTextInConversation(ctx, convID, system, text)
	} else {
		answer, usage, err = s.llm.GenerateText(ctx, system, text)
	}
	s.logAICall(ctx, in.UserID, "chat", text, answer, usage, err)
	if err != nil {
		*outcome = "error"
		s.log.Error("chat generation failed", "slack_user", in.UserID, "error", err)
		s.reply(ctx, in, apologyReply)
		return
	}
	s.reply(ctx, in, answer)
}

// conversationFor returns the OpenAI conversation carrying this
// thread's context, creating one on first contact. DMs share a single
// conversation per channel; channel mentions get one per thread.
func (s *assistantService) conversationFor(ctx context.Context, in slack.Inbound) (string, error) {
	threadTS := in.ThreadTS
	if threadTS == "" && !in.IsDM {
		threadTS = in.TS
	}

	existing, err := s.threads.Get(ctx, nil, in.ChannelID, threadTS)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.ConversationID, nil
	}

	convID, err := s.llm.CreateConversation(ctx)
	if err != nil {
		return "", err
	}
	_, err = s.threads.Upsert(ctx, nil, &types.ConversationThread{
		ChannelID:      in.ChannelID,
		ThreadTS:       threadTS,
		ConversationID: convID,
	})
	if err != nil {
		return "", err
	}
	return convID, nil
}

func (s *assistantService) logAICall(ctx context.Context, slackUserID, callType, prompt, response string, usage openai.Usage, callErr error) {
	entry := &types.AICallLog{
		SlackUserID: slackUserID,
		CallType:    callType,
		Model:       s.llm.Model(),
		Prompt:      prompt,
		Response:    response,
		Success:     callErr == nil,
	}
	if callErr != nil {
		entry.Error = callErr.Error()
	}
	if raw, err := json.Marshal(usage); err == nil {
		entry.Usage = datatypes.JSON(raw)
	}
	if err := s.aiLogs.Create(ctx, nil, entry); err != nil {
		s.log.Warn("failed to write ai call log", "error", err)
	}
}

// reply addresses the user in channels and threads the response where
// the question was asked. DMs get plain replies.
func (s *assistantService) reply(ctx context.Context, in slack.Inbound, text string) {
	if !in.IsDM {
		text = fmt.Sprintf("<@%s> %s", in.UserID, text)
	}
	threadTS := in.ThreadTS
	var err error
	if threadTS != "" {
		err = s.responder.SayThread(ctx, in.ChannelID, threadTS, text)
	} else {
		err = s.responder.Say(ctx, in.ChannelID, text)
	}
	if err != nil {
		s.log.Error("failed to post reply", "channel", in.ChannelID, "error", err)
	}
}
