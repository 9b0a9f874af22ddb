package providers

import (
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/samber/do/v2"

	"github.com/librisapp/libris-server/internal/auth"
	"github.com/librisapp/libris-server/internal/config"
	"github.com/librisapp/libris-server/internal/graph"
	"github.com/librisapp/libris-server/internal/logger"
	"github.com/librisapp/libris-server/internal/service"
)

// ProvideTokenService provides the bearer token signer/verifier.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return auth.NewTokenService(cfg.JWTSecret)
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokens, log.Logger), nil
}

// ProvideCatalogService provides the book and author catalog service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	brokerHandle := do.MustInvoke[*BrokerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCatalogService(storeHandle.Store, brokerHandle.Broker, log.Logger), nil
}

// ProvideSchema provides the parsed GraphQL schema with its resolvers.
func ProvideSchema(i do.Injector) (*graphql.Schema, error) {
	catalog := do.MustInvoke[*service.CatalogService](i)
	authService := do.MustInvoke[*service.AuthService](i)
	brokerHandle := do.MustInvoke[*BrokerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	resolver := graph.NewResolver(catalog, authService, brokerHandle.Broker, log.Logger)
	return graph.NewSchema(resolver), nil
}
