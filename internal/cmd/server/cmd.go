// Package server loads configuration and runs the timecal service.
package server

import (
	"context"
	"flag"
	"log"

	"github.com/saveole/timecal/internal/app"
	"github.com/saveole/timecal/internal/auth/oauth"
	"github.com/saveole/timecal/internal/platform/config"
)

type serverEnv struct {
	HTTPAddr string `env:"TIMECAL_HTTP_ADDR" envDefault:":3000"`
	DBPath   string `env:"TIMECAL_DB_PATH"   envDefault:"data/timecal.db"`
}

// ParseConfig loads the app configuration from the environment, then
// applies command-line flags on top. Flags win over environment variables.
func ParseConfig(args []string) (app.Config, error) {
	oauthConfig, err := oauth.LoadConfigFromEnv()
	if err != nil {
		return app.Config{}, err
	}

	var raw serverEnv
	if err := config.ParseEnv(&raw); err != nil {
		return app.Config{}, err
	}

	fs := flag.NewFlagSet("timecal-server", flag.ContinueOnError)
	addr := fs.String("addr", raw.HTTPAddr, "HTTP listen address")
	dbPath := fs.String("db", raw.DBPath, "SQLite database path")
	if err := fs.Parse(args); err != nil {
		return app.Config{}, err
	}

	return app.Config{
		OAuth:    oauthConfig,
		HTTPAddr: *addr,
		DBPath:   *dbPath,
	}, nil
}

// Run composes the app and serves until ctx is cancelled.
func Run(ctx context.Context, args []string, logger *log.Logger) error {
	cfg, err := ParseConfig(args)
	if err != nil {
		return err
	}

	composed, err := app.Compose(cfg, logger)
	if err != nil {
		return err
	}
	return composed.Run(ctx)
}
