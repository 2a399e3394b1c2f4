package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
	"gorm.io/datatypes"

	"github.com/botvine/huddle/internal/clients/redis"
	"github.com/botvine/huddle/internal/logger"
	"github.com/botvine/huddle/internal/repos"
	"github.com/botvine/huddle/internal/types"
	"github.com/botvine/huddle/internal/utils"
)

// ErrNotLinked is returned when a Slack user has not completed the
// Google OAuth flow yet.
var ErrNotLinked = errors.New("google account not linked")

// ErrCredentialsExpired is returned when a stored grant has been
// revoked or can no longer be refreshed. The user has to run the
// consent flow again.
var ErrCredentialsExpired = errors.New("google credentials expired")

const (
	calendarScope = "https://www.googleapis.com/auth/calendar"
	emailScope    = "https://www.googleapis.com/auth/userinfo.email"

	stateTTL = 15 * time.Minute
)

type GoogleAuthService interface {
	// AuthURL builds the consent URL for a Slack user. The state
	// parameter is a signed token binding the flow to that user.
	AuthURL(slackUserID string) (string, error)
	// VerifyState checks the state token and returns the Slack user it
	// was issued for. A state verifies at most once; replays fail.
	VerifyState(ctx context.Context, state string) (string, error)
	// CompleteFlow exchanges the auth code, resolves the Google account
	// email, and persists the link.
	CompleteFlow(ctx context.Context, slackUserID, code string) (*types.UserLink, error)
	// TokenSource returns an auto-refreshing token source for a linked
	// user. Refreshed tokens are written back to storage.
	TokenSource(ctx context.Context, slackUserID string) (oauth2.TokenSource, error)
}

type googleAuthService struct {
	cfg         *oauth2.Config
	stateSecret []byte
	log         *logger.Logger
	userLinks   repos.UserLinkRepo
	states      redis.Deduper
}

func NewGoogleAuthService(log *logger.Logger, userLinks repos.UserLinkRepo, states redis.Deduper) (GoogleAuthService, error) {
	clientID := utils.GetEnv("GOOGLE_CLIENT_ID", "", log)
	clientSecret := utils.GetEnv("GOOGLE_CLIENT_SECRET", "", log)
	redirectURL := utils.GetEnv("GOOGLE_REDIRECT_URL", "", log)
	stateSecret := utils.GetEnv("OAUTH_STATE_SECRET", "", log)
	if clientID == "" || clientSecret == "" {
		return nil, errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required")
	}
	if redirectURL == "" {
		return nil, errors.New("GOOGLE_REDIRECT_URL is required")
	}
	if stateSecret == "" {
		return nil, errors.New("OAUTH_STATE_SECRET is required")
	}

	return &googleAuthService{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{calendarScope, emailScope},
			Endpoint:     google.Endpoint,
		},
		stateSecret: []byte(stateSecret),
		log:         log.With("service", "GoogleAuth"),
		userLinks:   userLinks,
		states:      states,
	}, nil
}

type stateClaims struct {
	SlackUserID string `json:"slack_user_id"`
	jwt.RegisteredClaims
}

func (s *googleAuthService) AuthURL(slackUserID string) (string, error) {
	now := time.Now()
	claims := stateClaims{
		SlackUserID: slackUserID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
		},
	}
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.stateSecret)
	if err != nil {
		return "", fmt.Errorf("sign state: %w", err)
	}
	return s.cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}

func (s *googleAuthService) VerifyState(ctx context.Context, state string) (string, error) {
	var claims stateClaims
	token, err := jwt.ParseWithClaims(state, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.stateSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse state: %w", err)
	}
	if !token.Valid || claims.SlackUserID == "" || claims.ID == "" {
		return "", errors.New("invalid state token")
	}
	// A leaked state must not let a second callback relink the user.
	if !s.states.FirstSeenFor(ctx, "oauthstate:"+claims.ID, stateTTL) {
		return "", errors.New("state token already used")
	}
	return claims.SlackUserID, nil
}

// credentialsRevoked reports whether err means the stored grant is no
// longer usable. Google answers refresh attempts against a revoked or
// stale grant with invalid_grant, and API calls with 401.
func credentialsRevoked(err error) bool {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		if rErr.ErrorCode == "invalid_grant" {
			return true
		}
		if rErr.Response != nil &&
			(rErr.Response.StatusCode == http.StatusBadRequest || rErr.Response.StatusCode == http.StatusUnauthorized) {
			return true
		}
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code == http.StatusUnauthorized
	}
	return false
}

func (s *googleAuthService) CompleteFlow(ctx context.Context, slackUserID, code string) (*types.UserLink, error) {
	tok, err := s.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	email, err := s.accountEmail(ctx, tok)
	if err != nil {
		s.log.Warn("could not resolve google account email", "slack_user", slackUserID, "error", err)
	}

	link, err := s.saveToken(ctx, slackUserID, email, tok)
	if err != nil {
		return nil, err
	}
	s.log.Info("google account linked", "slack_user", slackUserID)
	return link, nil
}

func (s *googleAuthService) accountEmail(ctx context.Context, tok *oauth2.Token) (string, error) {
	svc, err := oauth2api.NewService(ctx, option.WithTokenSource(s.cfg.TokenSource(ctx, tok)))
	if err != nil {
		return "", err
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return info.Email, nil
}

func (s *googleAuthService) saveToken(ctx context.Context, slackUserID, email string, tok *oauth2.Token) (*types.UserLink, error) {
	raw, err := json.Marshal(tok)
	if err != nil {
		return nil, fmt.Errorf("marshal token: %w", err)
	}
	link := &types.UserLink{
		SlackUserID: slackUserID,
		GoogleEmail: email,
		Token:       datatypes.JSON(raw),
		TokenExpiry: tok.Expiry,
	}
	return s.userLinks.Upsert(ctx, nil, link)
}

func (s *googleAuthService) TokenSource(ctx context.Context, slackUserID string) (oauth2.TokenSource, error) {
	link, err := s.userLinks.GetBySlackUserID(ctx, nil, slackUserID)
	if err != nil {
		return nil, err
	}
	if link == nil || len(link.Token) == 0 {
		return nil, ErrNotLinked
	}
	var tok oauth2.Token
	if err := json.Unmarshal(link.Token, &tok); err != nil {
		return nil, fmt.Errorf("unmarshal stored token: %w", err)
	}
	return &persistingTokenSource{
		ctx:         ctx,
		svc:         s,
		slackUserID: slackUserID,
		email:       link.GoogleEmail,
		last:        &tok,
		src:         s.cfg.TokenSource(ctx, &tok),
	}, nil
}

// persistingTokenSource writes refreshed tokens back to the store so
// the next process start does not need a fresh consent.
type persistingTokenSource struct {
	ctx         context.Context
	svc         *googleAuthService
	slackUserID string
	email       string
	last        *oauth2.Token
	src         oauth2.TokenSource
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.src.Token()
	if err != nil {
		if credentialsRevoked(err) {
			return nil, fmt.Errorf("%w: %v", ErrCredentialsExpired, err)
		}
		return nil, err
	}
	if tok.AccessToken != p.last.AccessToken {
		if _, err := p.svc.saveToken(p.ctx, p.slackUserID, p.email, tok); err != nil {
			p.svc.log.Warn("failed to persist refreshed token", "slack_user", p.slackUserID, "error", err)
		} else {
			p.last = tok
		}
	}
	return tok, nil
}
