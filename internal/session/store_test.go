package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"aponte/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	store := NewFileStore(path)

	sess, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)

	require.NoError(t, store.Save(ctx, models.Session{Token: "tok", UserID: 42}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	sess, err = store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "tok", sess.Token)
	assert.Equal(t, int64(42), sess.UserID)

	require.NoError(t, store.Clear(ctx))
	sess, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)

	require.NoError(t, store.Clear(ctx))
}

func TestFileStorePartialStateIsAbsent(t *testing.T) {
	ctx := context.Background()
	testCases := map[string]string{
		"token only":   "token: abc\n",
		"user only":    "user_id: \"7\"\n",
		"bad user id":  "token: abc\nuser_id: seven\n",
		"zero user id": "token: abc\nuser_id: \"0\"\n",
	}

	for name, body := range testCases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "session.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

			sess, err := NewFileStore(path).Load(ctx)
			require.NoError(t, err)
			assert.Nil(t, sess)
		})
	}
}

func TestSaveRejectsIncompleteSession(t *testing.T) {
	ctx := context.Background()
	assert.Error(t, NewFileStore(filepath.Join(t.TempDir(), "s.yaml")).Save(ctx, models.Session{Token: "x"}))
	assert.Error(t, NewMemoryStore().Save(ctx, models.Session{UserID: 3}))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	store.SetRaw("tok", "")
	sess, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)

	require.NoError(t, store.Save(ctx, models.Session{Token: "tok", UserID: 5}))
	sess, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, &models.Session{Token: "tok", UserID: 5}, sess)

	require.NoError(t, store.Clear(ctx))
	sess, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)
}
