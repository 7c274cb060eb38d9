package handlers

import (
	"context"
	"net/http"
	"strconv"

	"aponte/internal/middleware"
	"aponte/internal/models"
	"aponte/internal/services"

	"github.com/rs/zerolog/log"
)

// Photos is the photo service as seen by the handlers
type Photos interface {
	Upload(ctx context.Context, userID, profileID int64, upload models.PhotoUpload) (string, error)
	Location(ctx context.Context, profileID int64) (string, error)
	Delete(ctx context.Context, userID, profileID int64) error
}

// PhotoHandler handles photo-related HTTP requests
type PhotoHandler struct {
	photos Photos
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(photos Photos) *PhotoHandler {
	return &PhotoHandler{photos: photos}
}

// multipart overhead allowed on top of the photo itself
const formOverhead = 1 << 20

// Upload handles POST /photos/upload (multipart: profileId, file)
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxPhotoBytes+formOverhead)
	if err := r.ParseMultipartForm(services.MaxPhotoBytes + formOverhead); err != nil {
		respondError(w, "Invalid multipart body", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	profileID, err := strconv.ParseInt(r.FormValue("profileId"), 10, 64)
	if err != nil || profileID <= 0 {
		respondError(w, "profileId is required", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	userID := middleware.GetUserID(r.Context())
	url, err := h.photos.Upload(r.Context(), userID, profileID, models.PhotoUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		respondServiceError(w, r, err, "upload photo")
		return
	}

	log.Info().Int64("user_id", userID).Int64("profile_id", profileID).Msg("Profile photo replaced")
	respondJSON(w, http.StatusOK, map[string]string{"photoUrl": url})
}

// Fetch handles GET /photos/{profileId} by redirecting to storage
func (h *PhotoHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	profileID, ok := idParam(w, r, "profileId")
	if !ok {
		return
	}

	location, err := h.photos.Location(r.Context(), profileID)
	if err != nil {
		respondServiceError(w, r, err, "load photo")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, location, http.StatusFound)
}

// Delete handles DELETE /photos/{profileId}
func (h *PhotoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	profileID, ok := idParam(w, r, "profileId")
	if !ok {
		return
	}

	if err := h.photos.Delete(r.Context(), middleware.GetUserID(r.Context()), profileID); err != nil {
		respondServiceError(w, r, err, "delete photo")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
