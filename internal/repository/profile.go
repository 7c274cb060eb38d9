package repository

import (
	"context"
	"fmt"

	"aponte/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

const profileColumns = `id, user_id, name, birth_date, bio, last_location, interests, COALESCE(photo_key, '')`

// ProfileRepository handles database operations for profiles
type ProfileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (*models.Profile, error) {
	var p models.Profile
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.BirthDate, &p.Bio, &p.LastLocation, &p.Interests, &p.PhotoKey); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByUserID retrieves the profile owned by userID
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	p, err := scanProfile(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if nf := notFound(err, "profile"); nf != nil {
			return nil, nf
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// GetByID retrieves a profile by its own id
func (r *ProfileRepository) GetByID(ctx context.Context, id int64) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	p, err := scanProfile(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if nf := notFound(err, "profile"); nf != nil {
			return nil, nf
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// Upsert writes the text fields of userID's profile, creating it on first write
func (r *ProfileRepository) Upsert(ctx context.Context, userID int64, update models.ProfileUpdate) (*models.Profile, error) {
	interests := update.Interests
	if interests == nil {
		interests = []string{}
	}
	query := `
		INSERT INTO profiles (user_id, name, birth_date, bio, last_location, interests)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			birth_date = EXCLUDED.birth_date,
			bio = EXCLUDED.bio,
			last_location = EXCLUDED.last_location,
			interests = EXCLUDED.interests
		RETURNING ` + profileColumns
	p, err := scanProfile(r.db.QueryRow(ctx, query,
		userID, update.Name, update.BirthDate, update.Bio, update.LastLocation, interests,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return p, nil
}

// SetPhotoKey stores the storage key of the profile photo; nil clears it
func (r *ProfileRepository) SetPhotoKey(ctx context.Context, profileID int64, key *string) error {
	query := `UPDATE profiles SET photo_key = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, key, profileID)
	if err != nil {
		return fmt.Errorf("failed to update photo key: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("profile %d: %w", profileID, ErrNotFound)
	}
	return nil
}
