package repository

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"aponte/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDSNEnv = "APONTE_TEST_DATABASE_DSN"

var (
	day1 = time.Date(2024, 3, 1, 21, 30, 0, 0, time.UTC)
	day2 = day1.Add(24 * time.Hour)
)

func midnightAfter(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, time.UTC)
}

// testDB connects to the database named by APONTE_TEST_DATABASE_DSN and
// applies the schema inside a throwaway Postgres schema dropped on cleanup.
func testDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s is not set", testDSNEnv)
	}
	ctx := context.Background()

	admin, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(admin.Close)

	name := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+name)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+name+" CASCADE")
	})

	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = name
	db, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, EnsureSchema(ctx, db))
	return db
}

func createUser(t *testing.T, db *pgxpool.Pool, withProfile bool) int64 {
	t.Helper()
	ctx := context.Background()

	u := &models.User{Email: uuid.NewString() + "@example.com", PasswordHash: "x"}
	require.NoError(t, NewUserRepository(db).Create(ctx, u))
	if withProfile {
		_, err := NewProfileRepository(db).Upsert(ctx, u.ID, models.ProfileUpdate{Name: fmt.Sprintf("user %d", u.ID)})
		require.NoError(t, err)
	}
	return u.ID
}

func TestAssignDailyNeverPairsUserWithThemselves(t *testing.T) {
	db := testDB(t)
	repo := NewMatchRepository(db)
	lone := createUser(t, db, true)

	_, _, err := repo.AssignDaily(context.Background(), lone, day1, midnightAfter(day1))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssignDailyStoresOrderedPair(t *testing.T) {
	db := testDB(t)
	repo := NewMatchRepository(db)
	low := createUser(t, db, true)
	high := createUser(t, db, true)

	m, created, err := repo.AssignDaily(context.Background(), high, day1, midnightAfter(day1))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, low, m.UserAID)
	assert.Equal(t, high, m.UserBID)
	assert.Equal(t, midnightAfter(day1), m.ExpiresAt.UTC())
}

func TestAssignDailyReturnsExistingActiveMatch(t *testing.T) {
	db := testDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()
	rita := createUser(t, db, true)
	bruno := createUser(t, db, true)

	first, created, err := repo.AssignDaily(ctx, rita, day1, midnightAfter(day1))
	require.NoError(t, err)
	require.True(t, created)

	again, created, err := repo.AssignDaily(ctx, bruno, day1.Add(time.Hour), midnightAfter(day1))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
}

func TestAssignDailySkipsUsersAlreadyMatchedToday(t *testing.T) {
	db := testDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()
	rita := createUser(t, db, true)
	bruno := createUser(t, db, true)

	_, _, err := repo.AssignDaily(ctx, rita, day1, midnightAfter(day1))
	require.NoError(t, err)

	carla := createUser(t, db, true)
	_, _, err = repo.AssignDaily(ctx, carla, day1, midnightAfter(day1))
	assert.ErrorIs(t, err, ErrNotFound)

	active, err := repo.ActiveForUser(ctx, bruno, day1)
	require.NoError(t, err)
	assert.Equal(t, rita, active.PartnerOf(bruno))
}

func TestAssignDailyNeverRepeatsPastPartner(t *testing.T) {
	db := testDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()
	rita := createUser(t, db, true)
	_ = createUser(t, db, true) // bruno, rita's day-1 partner

	_, created, err := repo.AssignDaily(ctx, rita, day1, midnightAfter(day1))
	require.NoError(t, err)
	require.True(t, created)

	_, _, err = repo.AssignDaily(ctx, rita, day2, midnightAfter(day2))
	assert.ErrorIs(t, err, ErrNotFound)

	carla := createUser(t, db, true)
	m, created, err := repo.AssignDaily(ctx, rita, day2, midnightAfter(day2))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, carla, m.PartnerOf(rita))
}

func TestAssignDailyIgnoresUsersWithoutProfile(t *testing.T) {
	db := testDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()
	bare := createUser(t, db, false)
	rita := createUser(t, db, true)

	_, _, err := repo.AssignDaily(ctx, bare, day1, midnightAfter(day1))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.ActiveForUser(ctx, rita, day1)
	assert.ErrorIs(t, err, ErrNotFound, "a requester without a profile must not consume a partner")

	_, _, err = repo.AssignDaily(ctx, rita, day1, midnightAfter(day1))
	assert.ErrorIs(t, err, ErrNotFound, "users without a profile are never candidates")
}
