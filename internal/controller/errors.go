package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"aponte/internal/apiclient"
	"aponte/internal/models"
	"aponte/internal/validate"
)

// API is the backend capability the controllers depend on
type API interface {
	SetToken(token string)
	Token() string
	Register(ctx context.Context, email, password string) (*apiclient.RegisterResult, error)
	Login(ctx context.Context, email, password string) (*models.Session, error)
	GetProfile(ctx context.Context, userID int64) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID int64, update models.ProfileUpdate) (*models.Profile, error)
	TodayMatch(ctx context.Context) (*models.MatchOfTheDay, error)
	ListMessages(ctx context.Context, matchID int64) ([]models.Message, error)
	SendMessage(ctx context.Context, matchID int64, text string) (*models.Message, error)
	UploadPhoto(ctx context.Context, profileID int64, photo models.PhotoUpload) (string, error)
	DeletePhoto(ctx context.Context, profileID int64) error
	PhotoURL(profileID int64, cacheBust string) string
}

var (
	// ErrInFlight rejects a submit while the same operation is still running
	ErrInFlight = errors.New("operation already in progress")
	// ErrUnauthenticated is returned when an action needs a stored session
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrProfileNotLoaded is returned when editing before the profile arrived
	ErrProfileNotLoaded = errors.New("profile is still loading")
	// ErrNoMatch is returned when chatting without a match
	ErrNoMatch = errors.New("no match today")
)

// Stage names one call of the registration sequence
type Stage string

const (
	StageRegister     Stage = "create account"
	StageLogin        Stage = "authenticate"
	StageWriteProfile Stage = "write profile"
	StageReadProfile  Stage = "read profile"
	StageUploadPhoto  Stage = "upload photo"
	StageStoreSession Stage = "store session"
)

// StageError reports which stage of a multi-call sequence failed. Earlier
// stages are not rolled back.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// UserMessage turns an error into the text shown to the user
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var vErr *validate.Error
	if errors.As(err, &vErr) {
		return vErr.Message
	}

	switch {
	case errors.Is(err, ErrInFlight):
		return "Please wait, still working on it."
	case errors.Is(err, ErrUnauthenticated):
		return "Please log in again."
	case errors.Is(err, ErrProfileNotLoaded):
		return "Your profile is still loading."
	case errors.Is(err, ErrNoMatch):
		return "No match today."
	case apiclient.IsTransport(err):
		return "Could not reach the server. Check your connection."
	}

	switch apiclient.StatusCode(err) {
	case 0:
		return "Something went wrong."
	case http.StatusUnauthorized:
		return "Invalid credentials."
	case http.StatusTooManyRequests:
		return "Too many attempts. Try again in a moment."
	default:
		return "Could not save. Please try again."
	}
}

// Guard is the local "already in flight" flag for submit actions
type Guard struct {
	busy atomic.Bool
}

// Do runs fn unless another call is still running, in which case it
// returns ErrInFlight without calling fn.
func (g *Guard) Do(fn func() error) error {
	if !g.busy.CompareAndSwap(false, true) {
		return ErrInFlight
	}
	defer g.busy.Store(false)
	return fn()
}

// Busy reports whether an operation is running
func (g *Guard) Busy() bool {
	return g.busy.Load()
}
