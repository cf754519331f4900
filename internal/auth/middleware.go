package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type contextKey string

const platformKey contextKey = "auth_platform"

// PlatformFromContext extracts the authenticated platform ID, or "" when
// the request is unauthenticated.
func PlatformFromContext(ctx context.Context) string {
	id, _ := ctx.Value(platformKey).(string)
	return id
}

// AuthenticatePlatform returns middleware that validates platform bearer
// tokens and injects the platform ID into the request context.
func AuthenticatePlatform(mgr *TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := extractAndValidate(r, mgr)
			if err != nil {
				http.Error(w, `{"code":"UNAUTHORIZED","message":"`+err.Error()+`"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), platformKey, claims.PlatformID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractAndValidate(r *http.Request, mgr *TokenManager) (*PlatformClaims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, fmt.Errorf("missing Authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, fmt.Errorf("invalid Authorization format")
	}
	return mgr.Validate(parts[1])
}
