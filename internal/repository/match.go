package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aponte/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// assignLockKey serializes daily assignment across backend instances
const assignLockKey = 0x41706f6e7465

// MatchRepository handles database operations for matches
type MatchRepository struct {
	db *pgxpool.Pool
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func activeForUser(ctx context.Context, q queryRower, userID int64, now time.Time) (*models.Match, error) {
	query := `
		SELECT id, user_a_id, user_b_id, created_at, expires_at
		FROM matches
		WHERE (user_a_id = $1 OR user_b_id = $1) AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	var m models.Match
	err := q.QueryRow(ctx, query, userID, now).Scan(&m.ID, &m.UserAID, &m.UserBID, &m.CreatedAt, &m.ExpiresAt)
	if err != nil {
		if nf := notFound(err, "match"); nf != nil {
			return nil, nf
		}
		return nil, fmt.Errorf("failed to get active match: %w", err)
	}
	return &m, nil
}

// ActiveForUser returns the user's match that has not expired at now
func (r *MatchRepository) ActiveForUser(ctx context.Context, userID int64, now time.Time) (*models.Match, error) {
	return activeForUser(ctx, r.db, userID, now)
}

// GetByID retrieves a match by ID
func (r *MatchRepository) GetByID(ctx context.Context, id int64) (*models.Match, error) {
	query := `
		SELECT id, user_a_id, user_b_id, created_at, expires_at
		FROM matches
		WHERE id = $1
	`
	var m models.Match
	err := r.db.QueryRow(ctx, query, id).Scan(&m.ID, &m.UserAID, &m.UserBID, &m.CreatedAt, &m.ExpiresAt)
	if err != nil {
		if nf := notFound(err, "match"); nf != nil {
			return nil, nf
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return &m, nil
}

// AssignDaily pairs userID with a random user who has a profile, has no
// active match and was never matched with userID before. It returns the
// existing match if one is already active, created=false in that case, and
// ErrNotFound when userID has no profile or nobody is available.
func (r *MatchRepository) AssignDaily(ctx context.Context, userID int64, now, expiresAt time.Time) (match *models.Match, created bool, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(assignLockKey)); err != nil {
		return nil, false, fmt.Errorf("failed to lock assignment: %w", err)
	}

	existing, err := activeForUser(ctx, tx, userID, now)
	if err == nil {
		return existing, false, tx.Commit(ctx)
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	var hasProfile bool
	if err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM profiles WHERE user_id = $1)`, userID).Scan(&hasProfile); err != nil {
		return nil, false, fmt.Errorf("failed to check profile: %w", err)
	}
	if !hasProfile {
		return nil, false, fmt.Errorf("requester profile: %w", ErrNotFound)
	}

	candidateQuery := `
		SELECT u.id
		FROM users u
		JOIN profiles p ON p.user_id = u.id
		WHERE u.id <> $1
		  AND NOT EXISTS (
			SELECT 1 FROM matches m
			WHERE (m.user_a_id = u.id OR m.user_b_id = u.id) AND m.expires_at > $2
		  )
		  AND NOT EXISTS (
			SELECT 1 FROM matches m
			WHERE m.user_a_id = LEAST(u.id, $1) AND m.user_b_id = GREATEST(u.id, $1)
		  )
		ORDER BY random()
		LIMIT 1
	`
	var partnerID int64
	if err = tx.QueryRow(ctx, candidateQuery, userID, now).Scan(&partnerID); err != nil {
		if nf := notFound(err, "match candidate"); nf != nil {
			return nil, false, nf
		}
		return nil, false, fmt.Errorf("failed to find match candidate: %w", err)
	}

	a, b := userID, partnerID
	if a > b {
		a, b = b, a
	}

	m := models.Match{UserAID: a, UserBID: b, CreatedAt: now, ExpiresAt: expiresAt}
	insert := `
		INSERT INTO matches (user_a_id, user_b_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	if err = tx.QueryRow(ctx, insert, m.UserAID, m.UserBID, m.CreatedAt, m.ExpiresAt).Scan(&m.ID); err != nil {
		return nil, false, fmt.Errorf("failed to create match: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to commit match: %w", err)
	}
	return &m, true, nil
}
