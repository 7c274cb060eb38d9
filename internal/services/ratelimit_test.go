package services

import (
	"context"
	"testing"
	"time"

	"aponte/internal/repository"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestLimiterBlocksOn10SecondWindow(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	limiter := NewLimiter(repository.NewRateRepository(client), 100, 2)

	ctx := context.Background()
	userID := int64(42)

	for i := 0; i < 2; i++ {
		retryAfter, allowed, err := limiter.AllowMessage(ctx, userID)
		require.NoError(t, err)
		assert.True(t, allowed, "send #%d", i+1)
		assert.Zero(t, retryAfter)
	}

	retryAfter, allowed, err := limiter.AllowMessage(ctx, userID)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Positive(t, retryAfter)

	current, err := limiter.RetryAfter(ctx, userID)
	require.NoError(t, err)
	assert.Positive(t, current)

	mr.FastForward(11 * time.Second)

	retryAfter, allowed, err = limiter.AllowMessage(ctx, userID)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Zero(t, retryAfter)
}

func TestLimiterBlocksOnMinuteWindow(t *testing.T) {
	_, client := newMiniRedisClient(t)
	limiter := NewLimiter(repository.NewRateRepository(client), 3, 0)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, allowed, err := limiter.AllowMessage(ctx, 77)
		require.NoError(t, err)
		require.True(t, allowed)
	}

	retryAfter, allowed, err := limiter.AllowMessage(ctx, 77)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, int64(10))

	// other users have their own windows
	_, allowed, err = limiter.AllowMessage(ctx, 78)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestLimiterRejectsInvalidUser(t *testing.T) {
	_, client := newMiniRedisClient(t)
	limiter := NewLimiter(repository.NewRateRepository(client), 1, 1)

	_, _, err := limiter.AllowMessage(context.Background(), 0)
	assert.Error(t, err)
}

func TestCeilSeconds(t *testing.T) {
	assert.Equal(t, int64(0), ceilSeconds(0))
	assert.Equal(t, int64(1), ceilSeconds(200*time.Millisecond))
	assert.Equal(t, int64(2), ceilSeconds(1500*time.Millisecond))
	assert.Equal(t, int64(10), ceilSeconds(10*time.Second))
}
