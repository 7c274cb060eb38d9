package handlers

import (
	"context"
	"net/http"

	"aponte/internal/middleware"
	"aponte/internal/models"
)

// Profiles is the profile service as seen by the handlers
type Profiles interface {
	Get(ctx context.Context, userID int64) (*models.Profile, error)
	Update(ctx context.Context, userID int64, update models.ProfileUpdate) (*models.Profile, error)
}

// ProfileHandler serves /api/profiles
type ProfileHandler struct {
	profiles Profiles
}

func NewProfileHandler(profiles Profiles) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Get handles GET /api/profiles/user/{userId}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(w, r, "userId")
	if !ok {
		return
	}

	profile, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err, "load profile")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// Update handles PUT /api/profiles/user/{userId}. Only the owner may write.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(w, r, "userId")
	if !ok {
		return
	}
	if userID != middleware.GetUserID(r.Context()) {
		respondError(w, "Forbidden", http.StatusForbidden)
		return
	}

	var update models.ProfileUpdate
	if !decodeJSON(w, r, &update) {
		return
	}

	profile, err := h.profiles.Update(r.Context(), userID, update)
	if err != nil {
		respondServiceError(w, r, err, "save profile")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}
