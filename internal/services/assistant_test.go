package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/botvine/huddle/internal/clients/slack"
	"github.com/botvine/huddle/internal/logger"
	"github.com/botvine/huddle/internal/platform/openai"
	"github.com/botvine/huddle/internal/prompts"
	"github.com/botvine/huddle/internal/types"
)

type fakeResponder struct {
	channelID string
	threadTS  string
	text      string
	calls     int
}

func (f *fakeResponder) Say(_ context.Context, channelID, text string) error {
	f.calls++
	f.channelID, f.threadTS, f.text = channelID, "", text
	return nil
}

func (f *fakeResponder) SayThread(_ context.Context, channelID, threadTS, text string) error {
	f.calls++
	f.channelID, f.threadTS, f.text = channelID, threadTS, text
	return nil
}

type fakeDeduper struct {
	duplicate bool
}

func (f *fakeDeduper) FirstSeen(context.Context, string) bool { return !f.duplicate }
func (f *fakeDeduper) FirstSeenFor(context.Context, string, time.Duration) bool {
	return !f.duplicate
}
func (f *fakeDeduper) Close() error { return nil }

type fakeScheduler struct {
	scheduleReply string
	scheduleErr   error
	upcomingReply string
	upcomingErr   error
	scheduled     int
	listed        int
}

func (f *fakeScheduler) Schedule(context.Context, string, string, string) (string, error) {
	f.scheduled++
	return f.scheduleReply, f.scheduleErr
}

func (f *fakeScheduler) Upcoming(context.Context, string) (string, error) {
	f.listed++
	return f.upcomingReply, f.upcomingErr
}

type fakeAuth struct {
	url string
}

func (f *fakeAuth) AuthURL(string) (string, error) { return f.url, nil }
func (f *fakeAuth) VerifyState(context.Context, string) (string, error) {
	return "", errors.New("not implemented")
}
func (f *fakeAuth) CompleteFlow(context.Context, string, string) (*types.UserLink, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeAuth) TokenSource(context.Context, string) (oauth2.TokenSource, error) {
	return nil, ErrNotLinked
}

type fakeLLM struct {
	answer        string
	conversations int
}

func (f *fakeLLM) GenerateText(context.Context, string, string) (string, openai.Usage, error) {
	return f.answer, openai.Usage{InputTokens: 5, OutputTokens: 2}, nil
}

func (f *fakeLLM) GenerateJSON(context.Context, string, string, string, map[string]any) (map[string]any, openai.Usage, error) {
	return nil, openai.Usage{}, errors.New("not implemented")
}

func (f *fakeLLM) CreateConversation(context.Context) (string, error) {
	f.conversations++
	return "conv_1", nil
}

func (f *fakeLLM) GenerateTextInConversation(context.Context, string, string, string) (string, openai.Usage, error) {
	return f.answer, openai.Usage{InputTokens: 5, OutputTokens: 2}, nil
}

func (f *fakeLLM) Model() string { return "test-model" }

type fakeThreadRepo struct {
	byKey map[string]*types.ConversationThread
}

func (f *fakeThreadRepo) Get(_ context.Context, _ *gorm.DB, channelID, threadTS string) (*types.ConversationThread, error) {
	return f.byKey[channelID+"|"+threadTS], nil
}

func (f *fakeThreadRepo) Upsert(_ context.Context, _ *gorm.DB, t *types.ConversationThread) (*types.ConversationThread, error) {
	if f.byKey == nil {
		f.byKey = map[string]*types.ConversationThread{}
	}
	f.byKey[t.ChannelID+"|"+t.ThreadTS] = t
	return t, nil
}

type fakeAILogRepo struct {
	entries []*types.AICallLog
}

func (f *fakeAILogRepo) Create(_ context.Context, _ *gorm.DB, entry *types.AICallLog) error {
	f.entries = append(f.entries, entry)
	return nil
}

type assistantFixture struct {
	svc       AssistantService
	responder *fakeResponder
	scheduler *fakeScheduler
	llm       *fakeLLM
	aiLogs    *fakeAILogRepo
	threads   *fakeThreadRepo
	dedupe    *fakeDeduper
}

func newAssistantFixture(t *testing.T) *assistantFixture {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	f := &assistantFixture{
		responder: &fakeResponder{},
		scheduler: &fakeScheduler{scheduleReply: "scheduled", upcomingReply: "upcoming"},
		llm:       &fakeLLM{answer: "hello there"},
		aiLogs:    &fakeAILogRepo{},
		threads:   &fakeThreadRepo{},
		dedupe:    &fakeDeduper{},
	}
	f.svc = NewAssistantService(
		log,
		f.responder,
		f.dedupe,
		f.scheduler,
		&fakeAuth{url: "https://accounts.example/auth"},
		f.llm,
		f.threads,
		f.aiLogs,
		&prompts.Config{ChatSystem: "You are a helpful assistant."},
	)
	return f
}

func TestHandleRoutesMeetingRequest(t *testing.T) {
	f := newAssistantFixture(t)
	f.svc.Handle(context.Background(), slack.Inbound{
		Type:      "app_mention",
		EventID:   "Ev1",
		UserID:    "U1",
		ChannelID: "C1",
		Text:      "<@U0BOT> schedule a meeting with bob@example.com tomorrow at 3pm",
	})

	if f.scheduler.scheduled != 1 {
		t.Fatalf("scheduled = %d, want 1", f.scheduler.scheduled)
	}
	if !strings.Contains(f.responder.text, "scheduled") {
		t.Errorf("reply = %q", f.responder.text)
	}
	if !strings.HasPrefix(f.responder.text, "<@U1>") {
		t.Errorf("channel reply should mention the user, got %q", f.responder.text)
	}
}

func TestHandleRoutesUpcomingQuery(t *testing.T) {
	f := newAssistantFixture(t)
	f.svc.Handle(context.Background(), slack.Inbound{
		Type:      "message",
		EventID:   "Ev2",
		UserID:    "U1",
		ChannelID: "D1",
		IsDM:      true,
		Text:      "what's on my calendar this week?",
	})

	if f.scheduler.listed != 1 {
		t.Fatalf("listed = %d, want 1", f.scheduler.listed)
	}
	if f.responder.text != "upcoming" {
		t.Errorf("DM reply should not carry a mention, got %q", f.responder.text)
	}
}

func TestHandleUnlinkedUserGetsAuthPrompt(t *testing.T) {
	f := newAssistantFixture(t)
	f.scheduler.scheduleErr = ErrNotLinked
	f.svc.Handle(context.Background(), slack.Inbound{
		Type:      "app_mention",
		EventID:   "Ev3",
		UserID:    "U1",
		ChannelID: "C1",
		Text:      "set up a meeting with bob@example.com",
	})

	if !strings.Contains(f.responder.text, "https://accounts.example/auth") {
		t.Errorf("expected auth link in reply, got %q", f.responder.text)
	}
}

func TestHandleExpiredCredentialsReturnsAuthPrompt(t *testing.T) {
	f := newAssistantFixture(t)
	f.scheduler.scheduleErr = ErrCredentialsExpired
	f.svc.Handle(context.Background(), slack.Inbound{
		Type:      "app_mention",
		EventID:   "Ev8",
		UserID:    "U1",
		ChannelID: "C1",
		Text:      "schedule a meeting with bob@example.com",
	})

	if strings.Contains(f.responder.text, "something went wrong") {
		t.Fatalf("expired credentials should not apologize, got %q", f.responder.text)
	}
	if !strings.Contains(f.responder.text, "https://accounts.example/auth") {
		t.Errorf("expected auth link in reply, got %q", f.responder.text)
	}
}

func TestHandleChatLogsCallAndReusesConversation(t *testing.T) {
	f := newAssistantFixture(t)
	in := slack.Inbound{
		Type:      "message",
		EventID:   "Ev4",
		UserID:    "U1",
		ChannelID: "D1",
		IsDM:      true,
		Text:      "tell me a joke",
	}
	f.svc.Handle(context.Background(), in)
	in.EventID = "Ev5"
	f.svc.Handle(context.Background(), in)

	if f.llm.conversations != 1 {
		t.Errorf("conversations created = %d, want 1", f.llm.conversations)
	}
	if len(f.aiLogs.entries) != 2 {
		t.Fatalf("ai call logs = %d, want 2", len(f.aiLogs.entries))
	}
	entry := f.aiLogs.entries[0]
	if entry.CallType != "chat" || !entry.Success || entry.Model != "test-model" {
		t.Errorf("unexpected log entry: %+v", entry)
	}
	if f.responder.text != "hello there" {
		t.Errorf("reply = %q", f.responder.text)
	}
}

func TestHandleDropsDuplicateEvents(t *testing.T) {
	f := newAssistantFixture(t)
	f.dedupe.duplicate = true
	f.svc.Handle(context.Background(), slack.Inbound{
		Type:      "message",
		EventID:   "Ev6",
		UserID:    "U1",
		ChannelID: "D1",
		IsDM:      true,
		Text:      "hello",
	})

	if f.responder.calls != 0 {
		t.Errorf("duplicate event should not produce a reply, got %d calls", f.responder.calls)
	}
}

func TestHandleSchedulerErrorApologizes(t *testing.T) {
	f := newAssistantFixture(t)
	f.scheduler.scheduleErr = errors.New("calendar exploded")
	f.svc.Handle(context.Background(), slack.Inbound{
		Type:      "app_mention",
		EventID:   "Ev7",
		UserID:    "U1",
		ChannelID: "C1",
		Text:      "schedule a meeting with bob@example.com",
	})

	if !strings.Contains(f.responder.text, "something went wrong") {
		t.Errorf("expected apology, got %q", f.responder.text)
	}
}
