package oauth

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/saveole/timecal/internal/httpx"
	"github.com/saveole/timecal/internal/preferences"
	"github.com/saveole/timecal/internal/profile"
)

// Provider exchanges authorization codes and loads user profiles from
// the identity provider.
type Provider interface {
	ExchangeCode(ctx context.Context, code, verifier string) (string, error)
	FetchUser(ctx context.Context, accessToken string) (GitHubUser, error)
}

// ProfileStore persists user profiles keyed by provider identity.
type ProfileStore interface {
	UpsertGitHub(ctx context.Context, data profile.GitHubData) (profile.Profile, error)
	Get(ctx context.Context, userID string) (profile.Profile, error)
}

// PreferencesStore materializes per-user preferences.
type PreferencesStore interface {
	Ensure(ctx context.Context, userID string) (preferences.Preferences, error)
}

// Server handles the GitHub OAuth flow and session endpoints.
type Server struct {
	config    Config
	codec     *Codec
	exchanges *ExchangeStore
	provider  Provider
	profiles  ProfileStore
	prefs     PreferencesStore
	logger    *log.Logger
	clock     func() time.Time
}

// NewServer assembles the OAuth server. Profiles and prefs may be nil;
// the callback then issues tokens without persisting anything, which
// keeps the flow usable in tests and storage-less deployments.
func NewServer(config Config, profiles ProfileStore, prefs PreferencesStore, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		config:    config,
		codec:     NewCodec(config.JWTSecret),
		exchanges: NewExchangeStore(config.ExchangeTTL),
		provider:  NewGitHubClient(config),
		profiles:  profiles,
		prefs:     prefs,
		logger:    logger,
		clock:     time.Now,
	}
}

// Codec exposes the token codec so the route guard and web layer can
// verify sessions against the same secret.
func (s *Server) Codec() *Codec { return s.codec }

// RegisterRoutes mounts the auth API endpoints on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/api/auth/github", httpx.Chain(
		http.HandlerFunc(s.handleStart),
		httpx.RequireMethod(http.MethodGet),
	))
	mux.Handle("/api/auth/callback", httpx.Chain(
		http.HandlerFunc(s.handleCallback),
		httpx.RequireMethod(http.MethodGet),
	))
	mux.Handle("/api/auth/me", httpx.Chain(
		http.HandlerFunc(s.handleMe),
		httpx.RequireMethod(http.MethodGet),
	))
	mux.Handle("/api/auth/logout", http.HandlerFunc(s.handleLogout))
}

// StartSweep launches the exchange store's expiry sweeper bound to ctx.
func (s *Server) StartSweep(ctx context.Context) {
	s.exchanges.StartSweep(ctx, s.config.SweepInterval)
}
