// Package middleware provides HTTP middleware for the roster API.
package middleware

import (
	"net/http"
	"strings"

	"github.com/amara/rosterd/internal/auth"
)

// Auth creates a middleware that requires a valid bearer JWT. devMode skips
// validation entirely so local tooling can talk to the API unauthenticated.
func Auth(jwtManager *auth.JWTManager, devMode bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if devMode {
				next.ServeHTTP(w, r)
				return
			}

			tokenString := extractTokenFromHeader(r)
			if tokenString == "" {
				http.Error(w, `{"error": "unauthorized", "message": "missing authentication token"}`, http.StatusUnauthorized)
				return
			}

			claims, err := jwtManager.Validate(tokenString)
			if err != nil {
				http.Error(w, `{"error": "unauthorized", "message": "`+err.Error()+`"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.ContextWithClaims(r.Context(), claims)))
		})
	}
}

func extractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return parts[1]
}
