// Package tokens manages per-user Google OAuth credentials: code exchange,
// storage, and refresh with write-back of rotated tokens.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"taskboard/internal/backend/googlecalendar"
	"taskboard/internal/config"
	"taskboard/internal/service"
)

const (
	// fallbackLifetime replaces an unusable expiry from the token endpoint.
	fallbackLifetime = time.Hour

	// maxLifetime bounds a plausible expiry; anything later is treated as bogus.
	maxLifetime = 365 * 24 * time.Hour
)

// ErrNoOAuthClient is returned when no OAuth client credentials are configured.
var ErrNoOAuthClient = errors.New("no oauth client configured")

// CalendarFactory builds a calendar client on top of an authenticated HTTP client.
type CalendarFactory func(ctx context.Context, httpClient *http.Client) (service.Calendar, error)

// DefaultCalendarFactory builds a Google Calendar client.
func DefaultCalendarFactory(ctx context.Context, httpClient *http.Client) (service.Calendar, error) {
	return googlecalendar.NewWithHTTPClient(ctx, httpClient)
}

// Manager hands out calendar clients bound to a user's stored credentials.
type Manager struct {
	oauth       *oauth2.Config
	store       service.TokenStore
	newCalendar CalendarFactory
	now         func() time.Time
}

// New creates a Manager. A nil factory uses DefaultCalendarFactory. A nil
// oauthCfg yields a manager that can read stored tokens but never connects.
func New(oauthCfg *oauth2.Config, store service.TokenStore, factory CalendarFactory) *Manager {
	if factory == nil {
		factory = DefaultCalendarFactory
	}
	return &Manager{
		oauth:       oauthCfg,
		store:       store,
		newCalendar: factory,
		now:         time.Now,
	}
}

// LoadOAuthConfig reads OAuth client credentials from oauth_client.json in the
// config dir, or from the google.* settings when the file is absent.
func LoadOAuthConfig(cfg *config.Config) (*oauth2.Config, error) {
	var oauthCfg *oauth2.Config
	if cfg.HasOAuthClient() {
		clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
		if err != nil {
			return nil, fmt.Errorf("failed to read oauth_client.json: %w", err)
		}
		oauthCfg, err = google.ConfigFromJSON(clientJSON, googlecalendar.Scopes...)
		if err != nil {
			return nil, fmt.Errorf("invalid oauth_client.json: %w", err)
		}
	} else if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		oauthCfg = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       googlecalendar.Scopes,
		}
	} else {
		return nil, ErrNoOAuthClient
	}
	if cfg.GoogleRedirectURL != "" {
		oauthCfg.RedirectURL = cfg.GoogleRedirectURL
	}
	return oauthCfg, nil
}

// Configured reports whether OAuth client credentials are available.
func (m *Manager) Configured() bool { return m.oauth != nil }

// WithRedirectURL returns a copy of the manager that uses a different callback URL.
func (m *Manager) WithRedirectURL(url string) *Manager {
	cp := *m
	if m.oauth == nil {
		return &cp
	}
	oauthCfg := *m.oauth
	oauthCfg.RedirectURL = url
	cp.oauth = &oauthCfg
	return &cp
}

// AuthCodeURL returns the consent page URL. Offline access and forced consent
// make Google issue a refresh token every time.
func (m *Manager) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	opts = append([]oauth2.AuthCodeOption{oauth2.AccessTypeOffline, oauth2.ApprovalForce}, opts...)
	return m.oauth.AuthCodeURL(state, opts...)
}

// ExchangeCode trades an authorization code for tokens. An expiry that is
// missing, already past or more than a year out is replaced with now + 1h.
func (m *Manager) ExchangeCode(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	if m.oauth == nil {
		return nil, ErrNoOAuthClient
	}
	tok, err := m.oauth.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}
	now := m.now()
	if tok.Expiry.IsZero() || !tok.Expiry.After(now) || tok.Expiry.After(now.Add(maxLifetime)) {
		tok.Expiry = now.Add(fallbackLifetime)
	}
	return tok, nil
}

// StoreTokens upserts the user's credentials. An empty refresh token keeps
// the one already stored.
func (m *Manager) StoreTokens(ctx context.Context, userID string, tok *oauth2.Token) error {
	refresh := tok.RefreshToken
	if refresh == "" {
		existing, err := m.store.GetGoogleTokens(ctx, userID)
		if err != nil && !errors.Is(err, service.ErrNotFound) {
			return fmt.Errorf("failed to read stored tokens: %w", err)
		}
		refresh = existing.RefreshToken
	}
	return m.store.UpsertGoogleTokens(ctx, service.GoogleTokens{
		UserID:       userID,
		AccessToken:  tok.AccessToken,
		RefreshToken: refresh,
		ExpiresAt:    tok.Expiry,
	})
}

// Connected reports whether the user has stored credentials.
func (m *Manager) Connected(ctx context.Context, userID string) bool {
	if userID == "" {
		return false
	}
	t, err := m.store.GetGoogleTokens(ctx, userID)
	return err == nil && t.AccessToken != ""
}

// Client returns a calendar client for the user. ok is false, with a nil
// error, when the user has never connected Google Calendar.
func (m *Manager) Client(ctx context.Context, userID string) (service.Calendar, bool, error) {
	if userID == "" {
		return nil, false, nil
	}
	stored, err := m.store.GetGoogleTokens(ctx, userID)
	if errors.Is(err, service.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load google tokens: %w", err)
	}
	if m.oauth == nil {
		return nil, false, ErrNoOAuthClient
	}

	tok := &oauth2.Token{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       stored.ExpiresAt,
	}
	src := &persistingSource{
		ctx:     context.WithoutCancel(ctx),
		base:    m.oauth.TokenSource(ctx, tok),
		manager: m,
		userID:  userID,
		last:    tok.AccessToken,
	}
	httpClient := oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src))

	cal, err := m.newCalendar(ctx, httpClient)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create calendar client: %w", err)
	}
	return cal, true, nil
}

// persistingSource writes refreshed tokens back to the store. Persistence is
// best-effort: a failed write is logged and the fresh token is still used.
type persistingSource struct {
	ctx     context.Context
	base    oauth2.TokenSource
	manager *Manager
	userID  string

	mu   sync.Mutex
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		log.WithFields(log.Fields{"user": s.userID}).WithError(err).Warn("google token refresh failed")
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken == s.last {
		return tok, nil
	}
	s.last = tok.AccessToken
	if err := s.manager.StoreTokens(s.ctx, s.userID, tok); err != nil {
		log.WithFields(log.Fields{"user": s.userID}).WithError(err).Error("failed to persist refreshed google tokens")
	} else {
		log.WithFields(log.Fields{"user": s.userID, "expires": tok.Expiry}).Debug("persisted refreshed google tokens")
	}
	return tok, nil
}
