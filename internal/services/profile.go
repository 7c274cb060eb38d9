package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"aponte/internal/models"
	"aponte/internal/validate"
)

// ProfileStore is the persistence the profile and photo services need
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID int64) (*models.Profile, error)
	GetByID(ctx context.Context, id int64) (*models.Profile, error)
	Upsert(ctx context.Context, userID int64, update models.ProfileUpdate) (*models.Profile, error)
	SetPhotoKey(ctx context.Context, profileID int64, key *string) error
}

// ProfileService handles profile reads and writes
type ProfileService struct {
	profiles ProfileStore
	now      func() time.Time
}

// NewProfileService creates a new profile service
func NewProfileService(profiles ProfileStore) *ProfileService {
	return &ProfileService{profiles: profiles, now: time.Now}
}

// Get returns the profile owned by userID
func (s *ProfileService) Get(ctx context.Context, userID int64) (*models.Profile, error) {
	p, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return withPhotoURL(p), nil
}

// Update writes the text fields of userID's profile
func (s *ProfileService) Update(ctx context.Context, userID int64, update models.ProfileUpdate) (*models.Profile, error) {
	update.Name = strings.TrimSpace(update.Name)
	update.Bio = strings.TrimSpace(update.Bio)
	update.LastLocation = strings.TrimSpace(update.LastLocation)

	if err := validate.NonEmpty("name", update.Name); err != nil {
		return nil, invalid("%v", err)
	}
	if err := validate.BirthDate(update.BirthDate, s.now().UTC()); err != nil {
		return nil, invalid("%v", err)
	}

	p, err := s.profiles.Upsert(ctx, userID, update)
	if err != nil {
		return nil, err
	}
	return withPhotoURL(p), nil
}

// withPhotoURL fills the public photo path when a photo is stored
func withPhotoURL(p *models.Profile) *models.Profile {
	if p == nil {
		return nil
	}
	if p.PhotoKey != "" {
		p.PhotoURL = photoPath(p.ID)
	} else {
		p.PhotoURL = ""
	}
	return p
}

func photoPath(profileID int64) string {
	return "/photos/" + strconv.FormatInt(profileID, 10)
}
