package api

import (
	"net/http"
	"strings"

	"github.com/librisapp/libris-server/internal/auth"
	"github.com/librisapp/libris-server/internal/http/response"
)

// bearerPrefix is matched as-is: only a lowercase "bearer " marker carries
// a token.
const bearerPrefix = "bearer "

// bearerContext resolves the Authorization header into a request identity.
// An absent or unmarked header continues anonymously; a marked token that
// fails verification aborts the request. A valid token whose account no
// longer exists also continues anonymously.
func (s *Server) bearerContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			next.ServeHTTP(w, r)
			return
		}

		user, err := s.authService.ResolveToken(r.Context(), header[len(bearerPrefix):])
		if err != nil {
			response.Unauthorized(w, "invalid token", s.logger)
			return
		}
		if user == nil {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
	})
}
