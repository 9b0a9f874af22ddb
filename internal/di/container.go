// Package di provides dependency injection configuration for the Libris server.
package di

import (
	"fmt"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/samber/do/v2"

	"github.com/librisapp/libris-server/internal/auth"
	"github.com/librisapp/libris-server/internal/config"
	"github.com/librisapp/libris-server/internal/di/providers"
	"github.com/librisapp/libris-server/internal/logger"
	"github.com/librisapp/libris-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Database and messaging
	do.Provide(injector, providers.ProvideBroker)
	do.Provide(injector, providers.ProvideStore)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideCatalogService)

	// GraphQL schema
	do.Provide(injector, providers.ProvideSchema)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	if _, err := do.Invoke[*providers.BrokerHandle](injector); err != nil {
		return fmt.Errorf("broker: %w", err)
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if _, err := do.Invoke[*auth.TokenService](injector); err != nil {
		return fmt.Errorf("token service: %w", err)
	}
	if _, err := do.Invoke[*service.AuthService](injector); err != nil {
		return fmt.Errorf("auth service: %w", err)
	}
	if _, err := do.Invoke[*service.CatalogService](injector); err != nil {
		return fmt.Errorf("catalog service: %w", err)
	}
	if _, err := do.Invoke[*graphql.Schema](injector); err != nil {
		return fmt.Errorf("graphql schema: %w", err)
	}
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return fmt.Errorf("http server: %w", err)
	}

	return nil
}
