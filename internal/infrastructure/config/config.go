package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/editais-pncp/portal-client/internal/core/domain"
)

type Config struct {
	APIURL      string        `env:"EDITAIS_API_URL,      default=http://localhost:5000"`
	HTTPTimeout time.Duration `env:"EDITAIS_HTTP_TIMEOUT, default=30s"`
	Username    string        `env:"EDITAIS_USERNAME"`
	Password    string        `env:"EDITAIS_PASSWORD"`

	LogLevel    string `env:"LOG_LEVEL,  default=info"`
	LogPretty   bool   `env:"LOG_PRETTY, default=false"`
	MetricsAddr string `env:"METRICS_ADDR"`

	Clerk ClerkConfig
}

type ClerkConfig struct {
	SessionToken string `env:"CLERK_SESSION_TOKEN"`
	TokenFile    string `env:"CLERK_TOKEN_FILE"`
	StatusPath   string `env:"CLERK_STATUS_PATH,   default=/api/clerk/status"`
	RegisterPath string `env:"CLERK_REGISTER_PATH, default=/api/clerk/register"`
}

// Enabled reports whether an identity provider token source is configured.
func (c ClerkConfig) Enabled() bool {
	return c.SessionToken != "" || c.TokenFile != ""
}

// HasCredentials reports whether unattended login is possible.
func (c *Config) HasCredentials() bool {
	return c.Username != "" && c.Password != ""
}

// Credentials returns the configured login form.
func (c *Config) Credentials() domain.Credentials {
	return domain.Credentials{Username: c.Username, Password: c.Password}
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	return &cfg, nil
}
