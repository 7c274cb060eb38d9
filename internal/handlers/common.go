package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"aponte/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

func respondJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondServiceError maps a service error to a status. Unexpected errors
// are logged and reported as 500 without detail.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var rateErr *services.RateLimitError
	switch {
	case errors.As(err, &rateErr):
		w.Header().Set("Retry-After", strconv.FormatInt(rateErr.RetryAfterSec, 10))
		respondError(w, "Too many messages, slow down", http.StatusTooManyRequests)
	case errors.Is(err, services.ErrInvalidInput):
		respondError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(w, "Invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, services.ErrInvalidToken):
		respondError(w, "Invalid token", http.StatusUnauthorized)
	case errors.Is(err, services.ErrForbidden):
		respondError(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, services.ErrNotFound):
		respondError(w, "Not found", http.StatusNotFound)
	case errors.Is(err, services.ErrEmailTaken):
		respondError(w, "Email already registered", http.StatusConflict)
	case errors.Is(err, services.ErrMatchExpired):
		respondError(w, "Match has expired", http.StatusGone)
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Failed to " + action)
		respondError(w, "Failed to "+action, http.StatusInternalServerError)
	}
}

// decodeJSON reads a JSON body, answering 400 itself on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// idParam parses a positive int64 URL parameter, answering 400 itself on failure
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, "Invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
