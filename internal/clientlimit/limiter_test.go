package clientlimit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMemoryLimiter_AllowsWithinLimit(t *testing.T) {
	limiter := NewMemoryLimiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := limiter.Check(ctx, "client:allows", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}
}

func TestMemoryLimiter_BlocksWhenExceeded(t *testing.T) {
	limiter := NewMemoryLimiter()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.Check(ctx, "client:blocks", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	result, err := limiter.Check(ctx, "client:blocks", 2, time.Minute)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.False(t, result.Allowed)
	assert.Zero(t, result.Remaining)
}

func TestMemoryLimiter_KeysIndependent(t *testing.T) {
	limiter := NewMemoryLimiter()
	ctx := context.Background()

	_, err := limiter.Check(ctx, "client:a", 1, time.Minute)
	require.NoError(t, err)

	result, err := limiter.Check(ctx, "client:b", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestMemoryLimiter_SlidingWindow(t *testing.T) {
	limiter := NewMemoryLimiter()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.Check(ctx, "client:window", 2, 50*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	time.Sleep(60 * time.Millisecond)

	result, err := limiter.Check(ctx, "client:window", 2, 50*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestMemoryLimiter_Cleanup(t *testing.T) {
	limiter := NewMemoryLimiter()
	ctx := context.Background()

	_, err := limiter.Check(ctx, "client:stale", 5, time.Minute)
	require.NoError(t, err)

	limiter.Cleanup(time.Nanosecond)

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.Empty(t, limiter.buckets)
}

func TestRedisLimiter_AllowsWithinLimit(t *testing.T) {
	limiter := NewRedisLimiter(setupTestRedis(t), testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := limiter.Check(ctx, "client:allows", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}
}

func TestRedisLimiter_BlocksWhenExceeded(t *testing.T) {
	limiter := NewRedisLimiter(setupTestRedis(t), testLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.Check(ctx, "client:blocks", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	result, err := limiter.Check(ctx, "client:blocks", 2, time.Minute)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.False(t, result.Allowed)
}

func TestRedisLimiter_SlidingWindow(t *testing.T) {
	limiter := NewRedisLimiter(setupTestRedis(t), testLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.Check(ctx, "client:window", 2, time.Second)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	time.Sleep(1100 * time.Millisecond)

	result, err := limiter.Check(ctx, "client:window", 2, time.Second)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}
