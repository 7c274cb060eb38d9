package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	push_token    TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS profiles (
	id            BIGSERIAL PRIMARY KEY,
	user_id       BIGINT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
	name          TEXT NOT NULL DEFAULT '',
	birth_date    TEXT NOT NULL DEFAULT '',
	bio           TEXT NOT NULL DEFAULT '',
	last_location TEXT NOT NULL DEFAULT '',
	interests     TEXT[] NOT NULL DEFAULT '{}',
	photo_key     TEXT
);

CREATE TABLE IF NOT EXISTS matches (
	id         BIGSERIAL PRIMARY KEY,
	user_a_id  BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	user_b_id  BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL,
	CHECK (user_a_id < user_b_id)
);
CREATE INDEX IF NOT EXISTS matches_user_a_idx ON matches (user_a_id, expires_at);
CREATE INDEX IF NOT EXISTS matches_user_b_idx ON matches (user_b_id, expires_at);

CREATE TABLE IF NOT EXISTS messages (
	id          BIGSERIAL PRIMARY KEY,
	match_id    BIGINT NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
	sender_id   BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	receiver_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	text        TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS messages_match_idx ON messages (match_id, created_at, id);
`

// EnsureSchema creates the tables used by the development backend
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
