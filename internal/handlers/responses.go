package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/Akram409/leafora-web-server/internal/identity"
	"github.com/Akram409/leafora-web-server/internal/services"
	"github.com/Akram409/leafora-web-server/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": status < 400,
		"message": message,
	})
}

// writeServiceError maps service-layer failures onto HTTP statuses. Anything
// unrecognized is a store/provider failure and surfaces as the fallback.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"errors":  verr.Messages,
		})
	case errors.Is(err, store.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "User not found")
	case errors.Is(err, identity.ErrInvalidToken):
		writeMessage(w, http.StatusUnauthorized, "Invalid token")
	case errors.Is(err, identity.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, identity.ErrEmailExists):
		writeMessage(w, http.StatusConflict, "Account with this email already exists")
	case errors.Is(err, services.ErrAdminRequired):
		writeMessage(w, http.StatusForbidden, "Admin access required")
	case errors.Is(err, services.ErrInvalidAction):
		writeMessage(w, http.StatusBadRequest, "Invalid action")
	default:
		log.Printf("%s: %v", fallback, err)
		writeMessage(w, http.StatusInternalServerError, fallback)
	}
}
