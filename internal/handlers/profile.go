package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Akram409/leafora-web-server/internal/middleware"
	"github.com/Akram409/leafora-web-server/internal/services"
)

// ProfileHandler serves the self-service profile routes. The caller identity
// always comes from the verified token, never from the request body.
type ProfileHandler struct {
	users   *services.UserService
	uploads *services.CloudinaryService
}

func NewProfileHandler(users *services.UserService, uploads *services.CloudinaryService) *ProfileHandler {
	return &ProfileHandler{users: users, uploads: uploads}
}

// GetProfile returns the caller's record, resolving any lapsed subscription
// on the way out.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	record, err := h.users.GetProfile(r.Context(), middleware.UID(r.Context()))
	if err != nil {
		writeServiceError(w, err, "Failed to fetch profile")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// UpdateProfile merges the allow-listed subset of the payload into the
// caller's record. Fields outside the allow list are silently dropped.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := h.users.UpdateProfile(r.Context(), middleware.UID(r.Context()), fields)
	if err != nil {
		writeServiceError(w, err, "Failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Profile updated successfully",
		"user":    record,
	})
}

// UploadProfileImage pushes the uploaded file to Cloudinary and records the
// resulting URL under the given label in the caller's userImage map.
func (h *ProfileHandler) UploadProfileImage(w http.ResponseWriter, r *http.Request) {
	if h.uploads == nil {
		writeMessage(w, http.StatusServiceUnavailable, "Image uploads are not configured")
		return
	}

	// 10MB cap, same as the media library limit.
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeMessage(w, http.StatusBadRequest, "Failed to parse form")
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	label := r.FormValue("label")
	if label == "" {
		label = "avatar"
	}

	url, err := h.uploads.UploadImage(r.Context(), fileHeader, r.FormValue("folder"))
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to upload image")
		return
	}

	uid := middleware.UID(r.Context())
	record, err := h.users.GetProfile(r.Context(), uid)
	if err != nil {
		writeServiceError(w, err, "Failed to fetch profile")
		return
	}

	images := map[string]string{}
	for k, v := range record.UserImage {
		images[k] = v
	}
	images[label] = url

	record, err = h.users.UpdateProfile(r.Context(), uid, map[string]any{"userImage": images})
	if err != nil {
		writeServiceError(w, err, "Failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Image uploaded successfully",
		"url":     url,
		"user":    record,
	})
}
