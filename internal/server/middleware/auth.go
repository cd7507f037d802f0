// Package middleware provides HTTP middleware for authentication and authorization.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// adminIDKey is the context key for the authenticated admin's Telegram ID.
const adminIDKey ContextKey = "adminID"

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (AdminIDGetter, error)
}

// AdminIDGetter extracts the admin's Telegram ID from token claims.
type AdminIDGetter interface {
	GetAdminID() int64
}

// AdminChecker confirms the token holder still has admin rights.
type AdminChecker func(ctx context.Context, adminID int64) (bool, error)

// AuthMiddleware validates the bearer token, checks the holder is still an
// admin and stores the admin ID in the request context.
func AuthMiddleware(validator TokenValidator, isAdmin AdminChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := validator.ValidateToken(tokenString)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			adminID := claims.GetAdminID()

			if isAdmin != nil {
				allowed, err := isAdmin(r.Context(), adminID)
				if err != nil {
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
				if !allowed {
					http.Error(w, "Forbidden", http.StatusForbidden)
					return
				}
			}

			ctx := context.WithValue(r.Context(), adminIDKey, adminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken parses "Authorization: Bearer <token>", case-insensitive prefix
func bearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], parts[1] != ""
}

// GetAdminID extracts the authenticated admin ID from the request context.
func GetAdminID(r *http.Request) (int64, error) {
	adminID, ok := r.Context().Value(adminIDKey).(int64)
	if !ok {
		return 0, fmt.Errorf("admin ID not found in request context")
	}
	return adminID, nil
}
