package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/Akram409/leafora-web-server/internal/identity"
	"github.com/Akram409/leafora-web-server/internal/models"
	"github.com/Akram409/leafora-web-server/internal/services"
)

type contextKey string

const (
	uidContextKey   contextKey = "uid"
	tokenContextKey contextKey = "token"
)

// BearerToken extracts the bearer credential from the Authorization header,
// falling back to the token query parameter for WebSocket clients.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

// UID returns the authenticated caller's uid placed by RequireUser/RequireAdmin.
func UID(ctx context.Context) string {
	uid, _ := ctx.Value(uidContextKey).(string)
	return uid
}

// Token returns the raw bearer token for the authenticated request.
func Token(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

func authFailure(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message})
}

// RequireUser verifies the bearer token against the gateway and puts the uid
// into the request context. Revocation checks fail open when Redis is down,
// matching the rate limiter.
func RequireUser(gateway identity.Gateway, revoker *services.RevocationService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				authFailure(w, http.StatusUnauthorized, "No token provided")
				return
			}

			uid, err := gateway.VerifyToken(r.Context(), token)
			if err != nil {
				authFailure(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			if revoker != nil {
				revoked, err := revoker.IsRevoked(r.Context(), token)
				if err != nil {
					log.Printf("token revocation check failed: %v", err)
				} else if revoked {
					authFailure(w, http.StatusUnauthorized, "Invalid token")
					return
				}
			}

			ctx := context.WithValue(r.Context(), uidContextKey, uid)
			ctx = context.WithValue(ctx, tokenContextKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin is RequireUser plus a role check against the caller's stored
// record; there is no separate authorization subsystem.
func RequireAdmin(gateway identity.Gateway, revoker *services.RevocationService, users *services.UserService) func(http.Handler) http.Handler {
	requireUser := RequireUser(gateway, revoker)
	return func(next http.Handler) http.Handler {
		return requireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			record, err := users.GetUser(r.Context(), UID(r.Context()))
			if err != nil {
				authFailure(w, http.StatusForbidden, "User not found")
				return
			}
			if record.Role != models.RoleAdmin {
				authFailure(w, http.StatusForbidden, "Admin access required")
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}
