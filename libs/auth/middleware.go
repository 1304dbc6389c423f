package auth

import (
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/openhours/libs/httpx"
)

const RoleHeader = "X-Role"

// RequireToken verifies the bearer token and replaces the tenant headers with
// its claims. With an empty secret the headers set by an upstream gateway are
// trusted as-is.
func RequireToken(secret []byte) httpx.Middleware {
	if len(secret) == 0 {
		return nil
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
				return
			}
			claims, err := Parse(secret, strings.TrimSpace(raw))
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			r.Header.Set(httpx.BusinessIDHeader, claims.BusinessID)
			r.Header.Set(RoleHeader, claims.Role)
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole rejects requests whose role is not listed.
func RequireRole(next http.Handler, roles ...string) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := allowed[r.Header.Get(RoleHeader)]; !ok {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
