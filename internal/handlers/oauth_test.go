package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"github.com/botvine/huddle/internal/logger"
	"github.com/botvine/huddle/internal/types"
)

type fakeAuth struct {
	stateErr    error
	completeErr error
	email       string
}

func (f *fakeAuth) AuthURL(string) (string, error) { return "", nil }

func (f *fakeAuth) VerifyState(_ context.Context, state string) (string, error) {
	if f.stateErr != nil {
		return "", f.stateErr
	}
	return "U1", nil
}

func (f *fakeAuth) CompleteFlow(context.Context, string, string) (*types.UserLink, error) {
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	return &types.UserLink{SlackUserID: "U1", GoogleEmail: f.email}, nil
}

func (f *fakeAuth) TokenSource(context.Context, string) (oauth2.TokenSource, error) {
	return nil, errors.New("not implemented")
}

func newCallbackRecorder(t *testing.T, auth *fakeAuth, target string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	router := gin.New()
	router.GET("/oauth2/callback", NewOAuthHandler(auth, log).Callback)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestCallbackSuccess(t *testing.T) {
	w := newCallbackRecorder(t, &fakeAuth{email: "user@example.com"},
		"/oauth2/callback?code=abc&state=signed")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "user@example.com") {
		t.Errorf("body should mention the linked account:\n%s", w.Body.String())
	}
}

func TestCallbackMissingParams(t *testing.T) {
	w := newCallbackRecorder(t, &fakeAuth{}, "/oauth2/callback")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCallbackConsentDenied(t *testing.T) {
	w := newCallbackRecorder(t, &fakeAuth{}, "/oauth2/callback?error=access_denied")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "cancelled") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestCallbackBadState(t *testing.T) {
	w := newCallbackRecorder(t, &fakeAuth{stateErr: errors.New("expired")},
		"/oauth2/callback?code=abc&state=stale")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "expired") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestCallbackExchangeFailure(t *testing.T) {
	w := newCallbackRecorder(t, &fakeAuth{completeErr: errors.New("boom")},
		"/oauth2/callback?code=abc&state=signed")

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
