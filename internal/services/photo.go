package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"aponte/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// MaxPhotoBytes caps an uploaded profile photo
	MaxPhotoBytes = 10 << 20
	presignTTL    = 5 * time.Minute
)

// PhotoService stores profile photos in object storage
type PhotoService struct {
	profiles ProfileStore
	objects  ObjectStore
}

// NewPhotoService creates a new photo service
func NewPhotoService(profiles ProfileStore, objects ObjectStore) *PhotoService {
	return &PhotoService{profiles: profiles, objects: objects}
}

// Upload replaces the photo of profileID, which must belong to userID, and
// returns the photo's public path.
func (s *PhotoService) Upload(ctx context.Context, userID, profileID int64, upload models.PhotoUpload) (string, error) {
	profile, err := s.owned(ctx, userID, profileID)
	if err != nil {
		return "", err
	}

	contentType := upload.ContentType
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", invalid("photo must be an image, got %q", upload.ContentType)
	}

	body, err := io.ReadAll(io.LimitReader(upload.Body, MaxPhotoBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read photo: %w", err)
	}
	if len(body) == 0 {
		return "", invalid("photo is empty")
	}
	if len(body) > MaxPhotoBytes {
		return "", invalid("photo is larger than %d bytes", MaxPhotoBytes)
	}

	key := fmt.Sprintf("profiles/%d/%s%s", profileID, uuid.New().String(), path.Ext(upload.Filename))
	if err := s.objects.Put(ctx, key, contentType, body); err != nil {
		return "", err
	}
	if err := s.profiles.SetPhotoKey(ctx, profileID, &key); err != nil {
		return "", err
	}

	if profile.PhotoKey != "" {
		if err := s.objects.Delete(ctx, profile.PhotoKey); err != nil {
			log.Warn().Err(err).Str("key", profile.PhotoKey).Msg("Failed to delete replaced photo")
		}
	}

	log.Info().Int64("profile_id", profileID).Str("key", key).Int("bytes", len(body)).Msg("Photo uploaded")
	return photoPath(profileID), nil
}

// Location returns a short-lived URL of profileID's photo
func (s *PhotoService) Location(ctx context.Context, profileID int64) (string, error) {
	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return "", err
	}
	if profile.PhotoKey == "" {
		return "", fmt.Errorf("photo of profile %d: %w", profileID, ErrNotFound)
	}
	return s.objects.PresignGet(ctx, profile.PhotoKey, presignTTL)
}

// Delete removes the photo of profileID, which must belong to userID
func (s *PhotoService) Delete(ctx context.Context, userID, profileID int64) error {
	profile, err := s.owned(ctx, userID, profileID)
	if err != nil {
		return err
	}
	if profile.PhotoKey == "" {
		return nil
	}

	if err := s.profiles.SetPhotoKey(ctx, profileID, nil); err != nil {
		return err
	}
	if err := s.objects.Delete(ctx, profile.PhotoKey); err != nil {
		log.Warn().Err(err).Str("key", profile.PhotoKey).Msg("Failed to delete photo object")
	}
	return nil
}

func (s *PhotoService) owned(ctx context.Context, userID, profileID int64) (*models.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if profile.UserID != userID {
		return nil, ErrForbidden
	}
	return profile, nil
}
