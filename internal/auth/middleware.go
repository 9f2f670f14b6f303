package auth

import (
	"net/http"
	"strings"

	"github.com/nextlearn/nextlearn-lms/internal/rbac"
)

// Middleware validates the bearer token and puts the caller's subject and
// resolved role into the request context for the rbac layer.
func Middleware(s *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			claims, err := s.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := rbac.WithSubject(r.Context(), claims.Sub)
			ctx = rbac.WithRole(ctx, s.ResolveRole(ctx, claims.Sub, claims.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
