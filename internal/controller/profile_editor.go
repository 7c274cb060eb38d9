package controller

import (
	"context"
	"fmt"
	"strings"

	"aponte/internal/models"
	"aponte/internal/validate"

	"github.com/rs/zerolog"
)

// ProfileDraft holds the editable fields. Photo is set by user action only.
type ProfileDraft struct {
	Name         string
	Bio          string
	LastLocation string
	Interests    []string
	Photo        models.PhotoChange
}

// ProfileEditor edits the signed-in user's profile
type ProfileEditor struct {
	api     API
	session *SessionController
	logger  zerolog.Logger
	guard   Guard
}

// NewProfileEditor creates a profile editor
func NewProfileEditor(api API, session *SessionController, logger zerolog.Logger) *ProfileEditor {
	return &ProfileEditor{api: api, session: session, logger: logger}
}

// Open returns a draft prefilled from the loaded profile
func (e *ProfileEditor) Open() (ProfileDraft, error) {
	snap := e.session.Snapshot()
	if !snap.Authenticated {
		return ProfileDraft{}, ErrUnauthenticated
	}
	if snap.Profile == nil {
		return ProfileDraft{}, ErrProfileNotLoaded
	}
	p := snap.Profile
	return ProfileDraft{
		Name:         p.Name,
		Bio:          p.Bio,
		LastLocation: p.LastLocation,
		Interests:    append([]string(nil), p.Interests...),
		Photo:        models.KeepPhoto(),
	}, nil
}

// Save writes the text fields, then applies the photo change as a separate
// request. The birth date is carried over unchanged. On success the session
// data is reloaded and the image cache token rotated.
func (e *ProfileEditor) Save(ctx context.Context, draft ProfileDraft) (*models.Profile, error) {
	snap := e.session.Snapshot()
	if !snap.Authenticated {
		return nil, ErrUnauthenticated
	}
	if snap.Profile == nil {
		return nil, ErrProfileNotLoaded
	}
	if err := validate.NonEmpty("name", draft.Name); err != nil {
		return nil, err
	}
	if draft.Photo.Kind == models.PhotoReplaced && (draft.Photo.Upload == nil || draft.Photo.Upload.Body == nil) {
		return nil, &validate.Error{Field: "photo", Message: "no photo selected"}
	}

	original := snap.Profile
	userID := snap.Session.UserID

	var saved *models.Profile
	err := e.guard.Do(func() error {
		update := models.ProfileUpdate{
			Name:         strings.TrimSpace(draft.Name),
			BirthDate:    original.BirthDate,
			Bio:          strings.TrimSpace(draft.Bio),
			LastLocation: strings.TrimSpace(draft.LastLocation),
			Interests:    draft.Interests,
		}

		profile, err := e.api.UpdateProfile(ctx, userID, update)
		if err != nil {
			e.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to save profile")
			return err
		}
		saved = profile

		switch draft.Photo.Kind {
		case models.PhotoReplaced:
			photoURL, err := e.api.UploadPhoto(ctx, original.ID, *draft.Photo.Upload)
			if err != nil {
				e.logger.Error().Err(err).Int64("profile_id", original.ID).Msg("Failed to upload photo")
				return fmt.Errorf("profile saved but photo upload failed: %w", err)
			}
			saved.PhotoURL = photoURL
		case models.PhotoCleared:
			if err := e.api.DeletePhoto(ctx, original.ID); err != nil {
				e.logger.Error().Err(err).Int64("profile_id", original.ID).Msg("Failed to remove photo")
				return fmt.Errorf("profile saved but photo removal failed: %w", err)
			}
			saved.PhotoURL = ""
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.session.Reload(ctx)
	e.session.BustImageCache()

	e.logger.Info().Int64("user_id", userID).Msg("Profile saved")
	return saved, nil
}
