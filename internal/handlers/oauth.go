package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/botvine/huddle/internal/logger"
	"github.com/botvine/huddle/internal/observability"
	"github.com/botvine/huddle/internal/services"
)

type OAuthHandler struct {
	auth services.GoogleAuthService
	log  *logger.Logger
}

func NewOAuthHandler(auth services.GoogleAuthService, log *logger.Logger) *OAuthHandler {
	return &OAuthHandler{auth: auth, log: log.With("handler", "OAuth")}
}

// Callback completes the Google consent flow. Google redirects here
// with either an auth code plus our signed state, or an error.
func (h *OAuthHandler) Callback(c *gin.Context) {
	observe := func(status string) {
		if m := observability.Current(); m != nil {
			m.ObserveOAuthCallback(status)
		}
	}

	if errParam := c.Query("error"); errParam != "" {
		h.log.Warn("oauth consent denied", "reason", errParam)
		observe("denied")
		h.renderPage(c, http.StatusBadRequest, "Authorization was cancelled",
			"You can close this tab. Ask the bot again whenever you want to connect your calendar.")
		return
	}

	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		observe("bad_request")
		h.renderPage(c, http.StatusBadRequest, "Missing parameters",
			"This link is incomplete. Ask the bot for a fresh authorization link.")
		return
	}

	slackUserID, err := h.auth.VerifyState(c.Request.Context(), state)
	if err != nil {
		h.log.Warn("oauth state rejected", "error", err)
		observe("bad_state")
		h.renderPage(c, http.StatusBadRequest, "Link expired",
			"This authorization link is invalid or has expired. Ask the bot for a new one.")
		return
	}

	link, err := h.auth.CompleteFlow(c.Request.Context(), slackUserID, code)
	if err != nil {
		h.log.Error("oauth exchange failed", "slack_user", slackUserID, "error", err)
		observe("error")
		h.renderPage(c, http.StatusInternalServerError, "Something went wrong",
			"We couldn't finish connecting your Google account. Please try again.")
		return
	}

	observe("ok")
	detail := "Your Google Calendar is connected. Head back to Slack and ask the bot to schedule something."
	if link != nil && link.GoogleEmail != "" {
		detail = fmt.Sprintf("Connected as %s. Head back to Slack and ask the bot to schedule something.", link.GoogleEmail)
	}
	h.renderPage(c, http.StatusOK, "All set! ✅", detail)
}

func (h *OAuthHandler) renderPage(c *gin.Context, status int, title, detail string) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(status, `<!DOCTYPE html>
<html>
<head><title>Huddle</title></head>
<body style="font-family: sans-serif; max-width: 32rem; margin: 4rem auto;">
<h1>%s</h1>
<p>%s</p>
</body>
</html>`, title, detail)
}
