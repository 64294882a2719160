package middleware

import (
	"context"
	"net/http"
	"strings"

	"calgrid/internal/auth"
	"calgrid/internal/transport"
)

// Principal is the authenticated caller plus the raw token, which is
// forwarded as-is to the appointment store.
type Principal struct {
	UserID string
	Name   string
	Token  string
}

type principalKey struct{}

func UserAuth(manager *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				transport.WriteError(w, http.StatusServiceUnavailable, "auth not configured", nil)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				transport.WriteError(w, http.StatusUnauthorized, "missing bearer token", nil)
				return
			}

			claims, err := manager.Parse(token)
			if err != nil {
				transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}

			principal := Principal{UserID: claims.UserID(), Name: claims.Name, Token: token}
			ctx := context.WithValue(r.Context(), principalKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
