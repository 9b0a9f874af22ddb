// Package config handles application settings parsed from the process environment.
//
// Configuration is loaded once at startup and passed to components via their
// constructors; there is no global state.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration for the Libris API server.
type Config struct {
	// Server settings
	Port        string `env:"PORT"        envDefault:"4000"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	// Badger database directory
	DataPath string `env:"DATA_PATH" envDefault:"./data/libris"`

	// Shared secret for signing and verifying bearer tokens
	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Additional allowed CORS origins, comma separated
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`
}

// Load parses environment variables into a Config.
// It fails when a required variable is missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	return cfg, nil
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// ListenAddr returns the address the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return ":" + c.Port
}
