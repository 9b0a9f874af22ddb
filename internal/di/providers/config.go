// Package providers contains dependency injection providers for the Libris server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/librisapp/libris-server/internal/config"
	"github.com/librisapp/libris-server/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.Load()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.LogLevel),
		AddSource:   cfg.IsDevelopment(),
		Environment: cfg.Environment,
	})

	log.Info("Starting Libris Server",
		"environment", cfg.Environment,
		"log_level", cfg.LogLevel,
		"data_path", cfg.DataPath,
	)

	return log, nil
}
