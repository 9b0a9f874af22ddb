package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/librisapp/libris-server/internal/auth"
	"github.com/librisapp/libris-server/internal/broker"
	"github.com/librisapp/libris-server/internal/domain"
	"github.com/librisapp/libris-server/internal/store"
)

type testEnv struct {
	Auth    *AuthService
	Catalog *CatalogService
	Store   *store.Store
	Broker  *broker.Broker
	Tokens  *auth.TokenService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir, err := os.MkdirTemp("", "libris-test-*")
	require.NoError(t, err)

	st, err := store.New(filepath.Join(dir, "db"), nil)
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	b := broker.New(logger)
	ctx, cancel := context.WithCancel(context.Background())
	go b.Start(ctx)

	tokens, err := auth.NewTokenService("test-secret")
	require.NoError(t, err)

	t.Cleanup(func() {
		cancel()
		st.Close()
		os.RemoveAll(dir)
	})

	return &testEnv{
		Auth:    NewAuthService(st, tokens, logger),
		Catalog: NewCatalogService(st, b, logger),
		Store:   st,
		Broker:  b,
		Tokens:  tokens,
	}
}

// authedContext returns a context carrying a freshly created user.
func authedContext(t *testing.T, env *testEnv) (context.Context, *domain.User) {
	t.Helper()

	user, err := env.Auth.CreateUser(context.Background(), CreateUserRequest{
		Username:      "mellon",
		FavoriteGenre: "fantasy",
	})
	require.NoError(t, err)

	return auth.WithUser(context.Background(), user), user
}
