package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(t *testing.T, cfg Config) (*MemoryLimiter, *fakeClock) {
	t.Helper()
	require.NoError(t, cfg.Validate())
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	return newMemoryLimiter(cfg, clock.Now), clock
}

func TestMemoryLimiter_ThirteenthAttemptDenied(t *testing.T) {
	lim, _ := newTestLimiter(t, DefaultInterviewConfig())
	ctx := context.Background()

	for i := 1; i <= 12; i++ {
		d, err := lim.Protect(ctx, "user_1", 1)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "attempt %d should be allowed", i)
		assert.Equal(t, 12-i, d.Remaining)
	}

	d, err := lim.Protect(ctx, "user_1", 1)
	require.NoError(t, err)
	assert.True(t, d.IsDenied())
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 6*time.Hour, d.RetryAfter)
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	lim, _ := newTestLimiter(t, Config{Capacity: 1, Refill: 1, Interval: time.Hour})
	ctx := context.Background()

	d, err := lim.Protect(ctx, "a", 1)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = lim.Protect(ctx, "a", 1)
	require.NoError(t, err)
	assert.True(t, d.IsDenied())

	d, err = lim.Protect(ctx, "b", 1)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "another key has its own bucket")
}

func TestMemoryLimiter_Refills(t *testing.T) {
	lim, clock := newTestLimiter(t, DefaultInterviewConfig())
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := lim.Protect(ctx, "user_1", 1)
		require.NoError(t, err)
	}

	clock.Advance(6 * time.Hour)
	d, err := lim.Protect(ctx, "user_1", 1)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "one token back after a quarter day")

	d, err = lim.Protect(ctx, "user_1", 1)
	require.NoError(t, err)
	assert.True(t, d.IsDenied())

	clock.Advance(24 * time.Hour)
	for i := 0; i < 4; i++ {
		d, err = lim.Protect(ctx, "user_1", 1)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
}

func TestMemoryLimiter_DeniedRequestDoesNotConsume(t *testing.T) {
	lim, _ := newTestLimiter(t, Config{Capacity: 2, Refill: 1, Interval: time.Hour})
	ctx := context.Background()

	d, err := lim.Protect(ctx, "k", 3)
	require.NoError(t, err)
	assert.True(t, d.IsDenied())

	d, err = lim.Protect(ctx, "k", 2)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestMemoryLimiter_Cleanup(t *testing.T) {
	lim, clock := newTestLimiter(t, Config{Capacity: 2, Refill: 1, Interval: time.Hour})
	ctx := context.Background()

	_, err := lim.Protect(ctx, "k", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, lim.Len())

	clock.Advance(time.Hour)
	lim.cleanup()
	assert.Equal(t, 1, lim.Len(), "bucket not yet refilled must be kept")

	clock.Advance(2 * time.Hour)
	lim.cleanup()
	assert.Equal(t, 0, lim.Len())
}

func TestMemoryLimiter_RejectsBadInput(t *testing.T) {
	lim, _ := newTestLimiter(t, DefaultInterviewConfig())

	_, err := lim.Protect(context.Background(), "k", 0)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = lim.Protect(ctx, "k", 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultInterviewConfig().Validate())
	assert.Error(t, Config{Capacity: 0, Refill: 1, Interval: time.Hour}.Validate())
	assert.Error(t, Config{Capacity: 1, Refill: 0, Interval: time.Hour}.Validate())
	assert.Error(t, Config{Capacity: 1, Refill: 1}.Validate())

	_, err := NewMemoryLimiter(Config{})
	assert.Error(t, err)
}

func TestDecision_IsDenied(t *testing.T) {
	assert.False(t, Decision{Allowed: true}.IsDenied())
	assert.True(t, Decision{}.IsDenied())
}
