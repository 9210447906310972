package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Akram409/leafora-web-server/internal/identity"
	"github.com/Akram409/leafora-web-server/internal/middleware"
	"github.com/Akram409/leafora-web-server/internal/services"
)

// AuthHandler serves token issuance and the admin login/logout pair.
type AuthHandler struct {
	users    *services.UserService
	gateway  identity.Gateway
	revoker  *services.RevocationService
	tokenTTL time.Duration
}

func NewAuthHandler(users *services.UserService, gateway identity.Gateway, revoker *services.RevocationService, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{users: users, gateway: gateway, revoker: revoker, tokenTTL: tokenTTL}
}

// TokenRequest is the credential exchange payload.
type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Token exchanges an email/password pair for a bearer token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	token, err := h.gateway.IssueToken(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err, "Failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
	})
}

// AdminLoginRequest carries the gateway-issued ID token.
type AdminLoginRequest struct {
	IDToken string `json:"idToken"`
}

// AdminLogin verifies the ID token, requires the admin role and marks the
// admin online. The verified record is returned in full.
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.IDToken == "" {
		writeMessage(w, http.StatusBadRequest, "ID token is required")
		return
	}

	record, err := h.users.AdminLogin(r.Context(), req.IDToken)
	if err != nil {
		writeServiceError(w, err, "Login failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Admin login successful",
		"user":    record,
	})
}

// AdminLogout marks the admin offline and revokes the presented token for
// the remainder of its lifetime.
func (h *AuthHandler) AdminLogout(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	if err := h.users.Logout(r.Context(), uid); err != nil {
		writeServiceError(w, err, "Logout failed")
		return
	}
	if h.revoker != nil {
		if token := middleware.Token(r.Context()); token != "" {
			h.revoker.Revoke(r.Context(), token, h.tokenTTL)
		}
	}
	writeMessage(w, http.StatusOK, "Logout successful")
}
