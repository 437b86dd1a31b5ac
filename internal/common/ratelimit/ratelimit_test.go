package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedWindowAllowsUpToMax(t *testing.T) {
	limiter := NewFixedWindow(10*time.Minute, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := limiter.Allow(ctx, "+628111")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d should be allowed", i+1)
	}

	res, err := limiter.Allow(ctx, "+628111")
	require.NoError(t, err)
	assert.False(t, res.Allowed, "4th request in the window should be denied")
	assert.Greater(t, res.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, res.RetryAfter, 10*time.Minute)
}

func TestFixedWindowResetsAfterWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewFixedWindow(10*time.Minute, 3).WithClock(func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := limiter.Allow(ctx, "+628111")
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}

	res, err := limiter.Allow(ctx, "+628111")
	require.NoError(t, err)
	require.False(t, res.Allowed)
	assert.Equal(t, 10*time.Minute, res.RetryAfter)

	// Window elapses: the counter restarts.
	now = now.Add(10 * time.Minute)

	res, err = limiter.Allow(ctx, "+628111")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	// And the fresh window again permits two more.
	for i := 0; i < 2; i++ {
		res, err = limiter.Allow(ctx, "+628111")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err = limiter.Allow(ctx, "+628111")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}

func TestFixedWindowKeysAreIndependent(t *testing.T) {
	limiter := NewFixedWindow(10*time.Minute, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := limiter.Allow(ctx, "+628111")
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}

	res, err := limiter.Allow(ctx, "+628222")
	require.NoError(t, err)
	assert.True(t, res.Allowed, "a different phone number has its own window")
}

func TestFixedWindowRetryAfterShrinks(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewFixedWindow(10*time.Minute, 1).WithClock(func() time.Time { return now })
	ctx := context.Background()

	res, err := limiter.Allow(ctx, "+628111")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	now = now.Add(4 * time.Minute)

	res, err = limiter.Allow(ctx, "+628111")
	require.NoError(t, err)
	require.False(t, res.Allowed)
	assert.Equal(t, 6*time.Minute, res.RetryAfter)
}
