package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/botvine/huddle/internal/clients/redis"
	"github.com/botvine/huddle/internal/logger"
)

func newAuthService(t *testing.T) GoogleAuthService {
	t.Helper()
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")
	t.Setenv("GOOGLE_REDIRECT_URL", "https://huddle.example/oauth2/callback")
	t.Setenv("OAUTH_STATE_SECRET", "test-state-secret")
	t.Setenv("REDIS_ADDR", "")

	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	svc, err := NewGoogleAuthService(log, nil, redis.New(context.Background(), log))
	if err != nil {
		t.Fatalf("NewGoogleAuthService: %v", err)
	}
	return svc
}

func TestAuthURLStateRoundTrip(t *testing.T) {
	svc := newAuthService(t)

	authURL, err := svc.AuthURL("U123")
	if err != nil {
		t.Fatalf("AuthURL: %v", err)
	}

	parsed, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("parse auth url: %v", err)
	}
	q := parsed.Query()
	if q.Get("access_type") != "offline" {
		t.Errorf("access_type = %q, want offline", q.Get("access_type"))
	}
	if q.Get("prompt") != "consent" {
		t.Errorf("prompt = %q, want consent", q.Get("prompt"))
	}
	if !strings.Contains(q.Get("scope"), "auth/calendar") {
		t.Errorf("scope = %q, want calendar scope", q.Get("scope"))
	}

	userID, err := svc.VerifyState(context.Background(), q.Get("state"))
	if err != nil {
		t.Fatalf("VerifyState: %v", err)
	}
	if userID != "U123" {
		t.Errorf("VerifyState user = %q, want U123", userID)
	}
}

func TestVerifyStateRejectsGarbage(t *testing.T) {
	svc := newAuthService(t)

	if _, err := svc.VerifyState(context.Background(), "not-a-token"); err == nil {
		t.Error("expected error for malformed state")
	}
}

func TestVerifyStateIsSingleUse(t *testing.T) {
	svc := newAuthService(t)
	authURL, err := svc.AuthURL("U123")
	if err != nil {
		t.Fatalf("AuthURL: %v", err)
	}
	parsed, _ := url.Parse(authURL)
	state := parsed.Query().Get("state")

	ctx := context.Background()
	if _, err := svc.VerifyState(ctx, state); err != nil {
		t.Fatalf("first VerifyState: %v", err)
	}
	if _, err := svc.VerifyState(ctx, state); err == nil {
		t.Error("expected replayed state to be rejected")
	}
}

func TestCredentialsRevoked(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "invalid_grant on refresh",
			err:  fmt.Errorf("refresh: %w", &oauth2.RetrieveError{ErrorCode: "invalid_grant"}),
			want: true,
		},
		{
			name: "unauthorized api call",
			err:  fmt.Errorf("insert event: %w", &googleapi.Error{Code: 401}),
			want: true,
		},
		{
			name: "server error",
			err:  &googleapi.Error{Code: 500},
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := credentialsRevoked(tc.err); got != tc.want {
				t.Errorf("credentialsRevoked = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestVerifyStateRejectsWrongKey(t *testing.T) {
	svc := newAuthService(t)
	authURL, err := svc.AuthURL("U123")
	if err != nil {
		t.Fatalf("AuthURL: %v", err)
	}
	parsed, _ := url.Parse(authURL)
	state := parsed.Query().Get("state")

	t.Setenv("OAUTH_STATE_SECRET", "different-secret")
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	other, err := NewGoogleAuthService(log, nil, redis.New(context.Background(), log))
	if err != nil {
		t.Fatalf("NewGoogleAuthService: %v", err)
	}
	if _, err := other.VerifyState(context.Background(), state); err == nil {
		t.Error("expected state signed with another key to be rejected")
	}
}
