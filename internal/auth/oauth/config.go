package oauth

import (
	"strings"
	"time"

	"github.com/saveole/timecal/internal/platform/config"
)

// GitHub endpoint defaults. Overridable for tests.
const (
	defaultAuthorizeURL = "https://github.com/login/oauth/authorize"
	defaultTokenURL     = "https://github.com/login/oauth/access_token"
	defaultUserURL      = "https://api.github.com/user"
	defaultEmailsURL    = "https://api.github.com/user/emails"
)

// Config describes the OAuth and token configuration.
type Config struct {
	GitHubClientID     string
	GitHubClientSecret string
	JWTSecret          string
	BaseURL            string
	Environment        string
	Scopes             []string
	TokenTTL           time.Duration
	ExchangeTTL        time.Duration
	SweepInterval      time.Duration

	AuthorizeURL string
	TokenURL     string
	UserURL      string
	EmailsURL    string
}

// oauthEnv holds raw env values for OAuth configuration.
type oauthEnv struct {
	GitHubClientID     string        `env:"TIMECAL_GITHUB_CLIENT_ID"`
	GitHubClientSecret string        `env:"TIMECAL_GITHUB_CLIENT_SECRET"`
	JWTSecret          string        `env:"TIMECAL_JWT_SECRET"`
	BaseURL            string        `env:"TIMECAL_BASE_URL"      envDefault:"http://localhost:3000"`
	Environment        string        `env:"TIMECAL_ENV"           envDefault:"development"`
	Scopes             []string      `env:"TIMECAL_GITHUB_SCOPES" envSeparator:","`
	TokenTTL           time.Duration `env:"TIMECAL_TOKEN_TTL"     envDefault:"24h"`
	ExchangeTTL        time.Duration `env:"TIMECAL_EXCHANGE_TTL"  envDefault:"10m"`
	SweepInterval      time.Duration `env:"TIMECAL_SWEEP_INTERVAL" envDefault:"1m"`
}

// LoadConfigFromEnv loads OAuth configuration from environment variables.
func LoadConfigFromEnv() (Config, error) {
	var raw oauthEnv
	if err := config.ParseEnv(&raw); err != nil {
		return Config{}, err
	}

	scopes := trimCSV(raw.Scopes)
	if len(scopes) == 0 {
		scopes = []string{"read:user", "user:email"}
	}

	return Config{
		GitHubClientID:     strings.TrimSpace(raw.GitHubClientID),
		GitHubClientSecret: strings.TrimSpace(raw.GitHubClientSecret),
		JWTSecret:          strings.TrimSpace(raw.JWTSecret),
		BaseURL:            strings.TrimRight(strings.TrimSpace(raw.BaseURL), "/"),
		Environment:        strings.TrimSpace(raw.Environment),
		Scopes:             scopes,
		TokenTTL:           raw.TokenTTL,
		ExchangeTTL:        raw.ExchangeTTL,
		SweepInterval:      raw.SweepInterval,
		AuthorizeURL:       defaultAuthorizeURL,
		TokenURL:           defaultTokenURL,
		UserURL:            defaultUserURL,
		EmailsURL:          defaultEmailsURL,
	}, nil
}

// IsProduction reports whether cookies must carry the Secure attribute.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// RedirectURI returns the callback endpoint registered with GitHub.
func (c Config) RedirectURI() string {
	return c.BaseURL + "/api/auth/callback"
}

// trimCSV removes empty entries from a string slice.
func trimCSV(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			result = append(result, v)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
