package handlers

import (
	"context"
	"net/http"

	"aponte/internal/middleware"
	"aponte/internal/models"

	"github.com/rs/zerolog/log"
)

// Accounts is the user service as seen by the handlers
type Accounts interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.Session, error)
	SetPushToken(ctx context.Context, userID int64, pushToken string) error
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	accounts Accounts
}

// NewUserHandler creates a new user handler
func NewUserHandler(accounts Accounts) *UserHandler {
	return &UserHandler{accounts: accounts}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// Register handles POST /api/auth/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.accounts.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, r, err, "register")
		return
	}

	log.Info().Int64("user_id", user.ID).Msg("User registered")
	respondJSON(w, http.StatusCreated, registerResponse{ID: user.ID, Email: user.Email})
}

// Login handles POST /api/auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, r, err, "log in")
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

// SetPushToken handles PUT /api/users/me/push-token
func (h *UserHandler) SetPushToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PushToken string `json:"pushToken"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	userID := middleware.GetUserID(r.Context())
	if err := h.accounts.SetPushToken(r.Context(), userID, req.PushToken); err != nil {
		respondServiceError(w, r, err, "store push token")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
