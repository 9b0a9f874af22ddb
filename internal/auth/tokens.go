// Package auth provides bearer token handling and request-scoped identity.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/librisapp/libris-server/internal/domain"
)

// TokenService signs and verifies bearer tokens with a process-wide shared
// secret (HMAC-SHA256).
type TokenService struct {
	secret []byte
}

// NewTokenService creates a new token service with the given signing secret.
func NewTokenService(secret string) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("token signing secret must not be empty")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// Issue creates a signed token for the user. No expiration claim is set; a
// token stays valid as long as the signing secret does.
func (s *TokenService) Issue(user *domain.User) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
		UserID:   user.ID,
		Username: user.Username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a signed token.
// Any failure (bad signature, malformed payload, wrong algorithm) is returned
// as an error; callers treat it as a hard failure for context construction.
func (s *TokenService) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("verify token: token is not valid")
	}
	return claims, nil
}
