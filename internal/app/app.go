// Package app composes the HTTP surface: OAuth endpoints, the
// authenticated JSON API, and the browser pages.
package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/saveole/timecal/internal/api"
	"github.com/saveole/timecal/internal/auth/oauth"
	"github.com/saveole/timecal/internal/httpx"
	"github.com/saveole/timecal/internal/storage/sqlite"
	"github.com/saveole/timecal/internal/web"
)

// Config carries everything the app needs to serve.
type Config struct {
	OAuth    oauth.Config
	HTTPAddr string
	DBPath   string
}

// App is the composed service.
type App struct {
	config  Config
	store   *sqlite.Store
	auth    *oauth.Server
	handler http.Handler
	logger  *log.Logger
}

// Compose opens storage and wires the handlers together.
func Compose(config Config, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.Default()
	}
	if config.OAuth.GitHubClientID == "" || config.OAuth.GitHubClientSecret == "" {
		logger.Printf("warning: GitHub OAuth credentials are not configured; sign-in will fail")
	}
	if config.OAuth.JWTSecret == "" {
		logger.Printf("warning: JWT secret is not configured; sessions cannot be issued")
	}

	store, err := sqlite.Open(config.DBPath)
	if err != nil {
		return nil, err
	}

	authServer := oauth.NewServer(config.OAuth, store, store, logger)
	apiServer := api.NewServer(store, logger)
	webServer, err := web.NewServer(authServer.Codec(), config.OAuth.IsProduction(), logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	mux := http.NewServeMux()
	authServer.RegisterRoutes(mux)
	apiServer.RegisterRoutes(mux, authServer.RequireIdentity)
	webServer.RegisterRoutes(mux)

	handler := httpx.Chain(
		webServer.Guard(mux),
		httpx.RequestID(),
		httpx.RecoverPanic(),
	)

	return &App{
		config:  config,
		store:   store,
		auth:    authServer,
		handler: handler,
		logger:  logger,
	}, nil
}

// Handler exposes the composed HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Run serves HTTP until ctx is cancelled, then drains connections.
func (a *App) Run(ctx context.Context) error {
	a.auth.StartSweep(ctx)

	server := &http.Server{
		Addr:              a.config.HTTPAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Printf("listening on %s", a.config.HTTPAddr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		a.store.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := server.Shutdown(shutdownCtx)
	if closeErr := a.store.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
