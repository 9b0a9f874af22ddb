// Package api provides the HTTP server fronting the GraphQL schema.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/graph-gophers/graphql-transport-ws/graphqlws"

	"github.com/librisapp/libris-server/internal/service"
	"github.com/librisapp/libris-server/internal/store"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store       *store.Store
	authService *service.AuthService
	schema      *graphql.Schema
	corsOrigins []string
	router      *chi.Mux
	logger      *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(store *store.Store, authService *service.AuthService, schema *graphql.Schema, corsOrigins []string, logger *slog.Logger) *Server {
	s := &Server{
		store:       store,
		authService: authService,
		schema:      schema,
		corsOrigins: corsOrigins,
		router:      chi.NewRouter(),
		logger:      logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealthCheck)

	// One endpoint serves queries and mutations over HTTP and
	// subscriptions over the graphql-transport-ws upgrade.
	graphqlHandler := graphqlws.NewHandlerFunc(s.schema, &relay.Handler{Schema: s.schema})
	s.router.Handle("/graphql", s.bearerContext(graphqlHandler))
}
