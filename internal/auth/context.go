package auth

import (
	"context"

	"github.com/librisapp/libris-server/internal/domain"
	"github.com/librisapp/libris-server/internal/errors"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// userKey is the context key for the authenticated user.
const userKey ctxKey = "user"

// WithUser returns a context carrying the resolved identity.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFrom returns the identity attached to the context, if any.
func UserFrom(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userKey).(*domain.User)
	return user, ok && user != nil
}

// Require is the capability check run before any mutation that needs an
// identity. It returns the authenticated user, or a typed not-authenticated
// error when the context carries none.
func Require(ctx context.Context) (*domain.User, error) {
	user, ok := UserFrom(ctx)
	if !ok {
		return nil, errors.Unauthenticated("not authenticated")
	}
	return user, nil
}
