package auth

import "github.com/golang-jwt/jwt/v5"

// Claims represents the payload embedded inside a bearer token.
// Only the user id and username are carried; everything else about the user
// is looked up in the store when the request context is built.
type Claims struct {
	jwt.RegisteredClaims

	UserID   string `json:"id"`
	Username string `json:"username"`
}
