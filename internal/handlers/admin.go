package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Akram409/leafora-web-server/internal/services"
)

// AdminHandler serves the administrative user CRUD, subscription transitions
// and dashboard analytics.
type AdminHandler struct {
	users     *services.UserService
	analytics *services.AnalyticsService
}

func NewAdminHandler(users *services.UserService, analytics *services.AnalyticsService) *AdminHandler {
	return &AdminHandler{users: users, analytics: analytics}
}

// ListUsers returns a filtered, searched and paginated user listing.
// Query parameters: page, limit, search, role, status, plan.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := h.users.ListUsers(r.Context(), services.ListParams{
		Page:   page,
		Limit:  limit,
		Search: q.Get("search"),
		Role:   q.Get("role"),
		Status: q.Get("status"),
		Plan:   q.Get("plan"),
	})
	if err != nil {
		writeServiceError(w, err, "Failed to fetch users")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetUser returns one user record in full.
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	record, err := h.users.GetUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeServiceError(w, err, "Failed to fetch user")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// CreateUser validates the payload, provisions a gateway account and stores
// the record. The optional password field feeds the gateway account only.
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	password, _ := fields["password"].(string)
	delete(fields, "password")

	record, err := h.users.CreateUser(r.Context(), fields, password)
	if err != nil {
		writeServiceError(w, err, "Failed to create user")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "User created successfully",
		"user":    record,
	})
}

// UpdateUser merges an unrestricted field mapping into the record.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := h.users.UpdateUser(r.Context(), chi.URLParam(r, "userId"), fields)
	if err != nil {
		writeServiceError(w, err, "Failed to update user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "User updated successfully",
		"user":    record,
	})
}

// DeleteUser removes the gateway account and the stored record.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.DeleteUser(r.Context(), chi.URLParam(r, "userId")); err != nil {
		writeServiceError(w, err, "Failed to delete user")
		return
	}
	writeMessage(w, http.StatusOK, "User deleted successfully")
}

// UpdateSubscription applies an activate/cancel/extend transition.
func (h *AdminHandler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	var change services.SubscriptionChange
	if err := json.NewDecoder(r.Body).Decode(&change); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := h.users.UpdateSubscription(r.Context(), chi.URLParam(r, "userId"), change)
	if err != nil {
		writeServiceError(w, err, "Failed to update subscription")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Subscription updated successfully",
		"user":    record,
	})
}

// Analytics returns the dashboard snapshot.
func (h *AdminHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	report, err := h.analytics.Report(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to fetch analytics")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
