package controller

import (
	"context"
	"strings"
	"time"

	"aponte/internal/models"
	"aponte/internal/navigation"
	"aponte/internal/validate"

	"github.com/rs/zerolog"
)

// DefaultLastLocation is written to new profiles until the user edits it
const DefaultLastLocation = "Brasil"

// Step is one screen of the registration flow
type Step int

const (
	StepCredentials Step = iota
	StepIdentity
	StepPhoto
	StepBio
	StepInterests
)

func (s Step) String() string {
	switch s {
	case StepCredentials:
		return "credentials"
	case StepIdentity:
		return "identity"
	case StepPhoto:
		return "photo"
	case StepBio:
		return "bio"
	case StepInterests:
		return "interests"
	default:
		return "unknown"
	}
}

// RegistrationForm is the data collected across the steps
type RegistrationForm struct {
	Email     string
	Password  string
	Name      string
	BirthDate string
	Photo     *models.PhotoUpload
	Bio       string
	Interests []string
}

// Registration walks the user through account creation
type Registration struct {
	api     API
	session *SessionController
	nav     navigation.Navigator
	logger  zerolog.Logger
	now     func() time.Time
	guard   Guard

	steps []Step
	index int
	Form  RegistrationForm
}

// NewRegistration creates a registration flow. withInterests adds the
// interests step after bio.
func NewRegistration(api API, session *SessionController, nav navigation.Navigator, logger zerolog.Logger, withInterests bool) *Registration {
	steps := []Step{StepCredentials, StepIdentity, StepPhoto, StepBio}
	if withInterests {
		steps = append(steps, StepInterests)
	}
	return &Registration{
		api:     api,
		session: session,
		nav:     nav,
		logger:  logger,
		now:     time.Now,
		steps:   steps,
	}
}

// Current returns the active step
func (r *Registration) Current() Step {
	return r.steps[r.index]
}

// Progress returns the 1-based position of the active step and the step count
func (r *Registration) Progress() (int, int) {
	return r.index + 1, len(r.steps)
}

// Steps returns the steps of this flow in order
func (r *Registration) Steps() []Step {
	return append([]Step(nil), r.steps...)
}

// Next validates the active step and advances. On the last step it runs the
// finish sequence and reports finished once the session is established.
func (r *Registration) Next(ctx context.Context) (bool, error) {
	if err := r.validateStep(r.Current()); err != nil {
		return false, err
	}
	if r.index < len(r.steps)-1 {
		r.index++
		return false, nil
	}
	if err := r.finish(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Back returns to the previous step. From the first step it leaves the flow
// for the welcome screen and reports false.
func (r *Registration) Back() bool {
	if r.index == 0 {
		r.nav.Reset(navigation.Welcome{})
		return false
	}
	r.index--
	return true
}

// Busy reports whether the finish sequence is running
func (r *Registration) Busy() bool {
	return r.guard.Busy()
}

func (r *Registration) validateStep(step Step) error {
	f := &r.Form
	switch step {
	case StepCredentials:
		if err := validate.Email(f.Email); err != nil {
			return err
		}
		return validate.Password(f.Password)
	case StepIdentity:
		if err := validate.NonEmpty("name", f.Name); err != nil {
			return err
		}
		return validate.BirthDate(f.BirthDate, r.now())
	case StepBio:
		return validate.NonEmpty("bio", f.Bio)
	}
	// photo and interests are optional
	return nil
}

func (r *Registration) finish(ctx context.Context) error {
	return r.guard.Do(func() error {
		f := r.Form
		logger := r.logger.With().Str("email", f.Email).Logger()

		if _, err := r.api.Register(ctx, f.Email, f.Password); err != nil {
			logger.Error().Err(err).Msg("Registration failed")
			return &StageError{Stage: StageRegister, Err: err}
		}

		sess, err := r.api.Login(ctx, f.Email, f.Password)
		if err != nil {
			logger.Error().Err(err).Msg("Login after registration failed")
			return &StageError{Stage: StageLogin, Err: err}
		}

		previous := r.api.Token()
		r.api.SetToken(sess.Token)
		restore := func() { r.api.SetToken(previous) }

		update := models.ProfileUpdate{
			Name:         strings.TrimSpace(f.Name),
			BirthDate:    f.BirthDate,
			Bio:          strings.TrimSpace(f.Bio),
			LastLocation: DefaultLastLocation,
			Interests:    f.Interests,
		}
		if _, err := r.api.UpdateProfile(ctx, sess.UserID, update); err != nil {
			restore()
			logger.Error().Err(err).Int64("user_id", sess.UserID).Msg("Failed to write profile")
			return &StageError{Stage: StageWriteProfile, Err: err}
		}

		profile, err := r.api.GetProfile(ctx, sess.UserID)
		if err != nil {
			restore()
			logger.Error().Err(err).Int64("user_id", sess.UserID).Msg("Failed to read profile")
			return &StageError{Stage: StageReadProfile, Err: err}
		}

		if f.Photo != nil && f.Photo.Body != nil {
			if _, err := r.api.UploadPhoto(ctx, profile.ID, *f.Photo); err != nil {
				restore()
				logger.Error().Err(err).Int64("profile_id", profile.ID).Msg("Failed to upload photo")
				return &StageError{Stage: StageUploadPhoto, Err: err}
			}
		}

		if err := r.session.Establish(ctx, *sess); err != nil {
			restore()
			return &StageError{Stage: StageStoreSession, Err: err}
		}

		logger.Info().Int64("user_id", sess.UserID).Msg("Registration complete")
		return nil
	})
}
