package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/librisapp/libris-server/internal/auth"
	"github.com/librisapp/libris-server/internal/domain"
	domainerrors "github.com/librisapp/libris-server/internal/errors"
	"github.com/librisapp/libris-server/internal/id"
	"github.com/librisapp/libris-server/internal/store"
)

// sharedPassword is the only password accepted at login. Accounts carry no
// credentials of their own; access control rests entirely on tokens.
const sharedPassword = "secret"

// AuthService handles account creation, login, and token resolution.
type AuthService struct {
	store  *store.Store
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(store *store.Store, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:  store,
		tokens: tokens,
		logger: logger,
	}
}

// CreateUserRequest contains new account data.
type CreateUserRequest struct {
	Username      string `json:"username" validate:"required"`
	FavoriteGenre string `json:"favoriteGenre" validate:"required"`
}

// LoginRequest contains login credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult contains the signed token and the account it authenticates.
type LoginResult struct {
	Token string
	User  *domain.User
}

// CreateUser registers a new account. Usernames are unique; a duplicate
// surfaces as a validation error carrying the offending input.
func (s *AuthService) CreateUser(ctx context.Context, req CreateUserRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		ID:            userID,
		Username:      req.Username,
		FavoriteGenre: req.FavoriteGenre,
	}

	if err := s.store.Users.Create(ctx, user.ID, user); err != nil {
		if domainerrors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Validation("Creating the user failed").
				WithInvalidArgs(map[string]any{"username": req.Username}).
				WithCause(err)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user created",
		slog.String("user_id", userID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login authenticates an account and issues a signed token. An unknown
// username and a wrong password produce the same error, so callers cannot
// probe which usernames exist.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	user, err := s.store.Users.GetByIndex(ctx, "username", req.Username)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.WrongCredentials()
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if req.Password != sharedPassword {
		return nil, domainerrors.WrongCredentials()
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))

	return &LoginResult{Token: token, User: user}, nil
}

// ResolveToken verifies a token and returns the account it names. A token
// that fails verification is an error; a valid token whose account no
// longer exists resolves to nil without error, leaving the request
// anonymous.
func (s *AuthService) ResolveToken(ctx context.Context, raw string) (*domain.User, error) {
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return nil, domainerrors.TokenInvalid("invalid token").WithCause(err)
	}

	user, err := s.store.Users.Get(ctx, claims.UserID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}
