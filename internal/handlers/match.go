package handlers

import (
	"context"
	"net/http"

	"aponte/internal/middleware"
	"aponte/internal/models"

	"github.com/rs/zerolog/log"
)

// Matches is the match service as seen by the handlers
type Matches interface {
	Today(ctx context.Context, userID int64) (*models.MatchOfTheDay, error)
}

// Messages is the message service as seen by the handlers
type Messages interface {
	List(ctx context.Context, userID, matchID int64) ([]models.Message, error)
	Send(ctx context.Context, userID, matchID int64, text string) (*models.Message, error)
}

// MatchHandler serves /api/matches
type MatchHandler struct {
	matches  Matches
	messages Messages
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matches Matches, messages Messages) *MatchHandler {
	return &MatchHandler{matches: matches, messages: messages}
}

// Today handles GET /api/matches/today. 204 means nobody is available.
func (h *MatchHandler) Today(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	match, err := h.matches.Today(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err, "load today's match")
		return
	}
	if match == nil {
		log.Debug().Int64("user_id", userID).Msg("No match available")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, match)
}

// ListMessages handles GET /api/matches/{matchId}/messages
func (h *MatchHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	matchID, ok := idParam(w, r, "matchId")
	if !ok {
		return
	}

	messages, err := h.messages.List(r.Context(), middleware.GetUserID(r.Context()), matchID)
	if err != nil {
		respondServiceError(w, r, err, "load messages")
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	respondJSON(w, http.StatusOK, messages)
}

// SendMessage handles POST /api/matches/{matchId}/messages
func (h *MatchHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	matchID, ok := idParam(w, r, "matchId")
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.messages.Send(r.Context(), middleware.GetUserID(r.Context()), matchID, req.Text)
	if err != nil {
		respondServiceError(w, r, err, "send message")
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}
