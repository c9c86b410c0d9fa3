package middleware

import (
	"context"
	"net/http"

	"github.com/ums-dashboard/bff/internal/domain"
	"github.com/ums-dashboard/bff/internal/infrastructure/sealer"
)

type contextKey string

const tokenKey contextKey = "bearer-token"

// Session returns middleware that unseals the ums_token cookie and injects
// the backend bearer token into the request context. Requests with a missing
// or unsealable cookie are rejected here, before any backend call is made;
// decryption failure is indistinguishable from an absent session on purpose.
func Session(s *sealer.Sealer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(domain.CookieSession)
			if err != nil {
				writeMessage(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			var claims domain.SessionClaims
			if err := s.Unseal(c.Value, &claims); err != nil {
				writeMessage(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			if claims.Token == "" {
				writeMessage(w, http.StatusUnauthorized, "Invalid session")
				return
			}
			ctx := context.WithValue(r.Context(), tokenKey, claims.Token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromContext extracts the bearer token injected by Session.
func TokenFromContext(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(tokenKey).(string)
	return tok, ok
}
