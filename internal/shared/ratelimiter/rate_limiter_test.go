package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock は手動で進める時計です。
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

// recordingSleeper は待機時間を記録し、時計を進めます。
type recordingSleeper struct {
	clock *fakeClock
	waits []time.Duration
	err   error
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	if s.err != nil {
		return s.err
	}
	s.clock.t = s.clock.t.Add(d)
	return nil
}

func newTestLimiter(limit int, interval time.Duration) (*RateLimiter, *fakeClock, *recordingSleeper) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
	sl := &recordingSleeper{clock: clock}
	rl := NewRateLimiter(limit, interval, WithClock(clock.Now), WithSleeper(sl))
	return rl, clock, sl
}

func TestRateLimiter_WithinLimitDoesNotWait(t *testing.T) {
	t.Parallel()

	rl, _, sl := newTestLimiter(3, time.Minute)

	for range 3 {
		require.NoError(t, rl.WaitIfNeeded(context.Background()))
	}
	assert.Empty(t, sl.waits)
}

func TestRateLimiter_WaitsForNextWindow(t *testing.T) {
	t.Parallel()

	rl, clock, sl := newTestLimiter(2, time.Minute)

	require.NoError(t, rl.WaitIfNeeded(context.Background()))
	clock.t = clock.t.Add(20 * time.Second)
	require.NoError(t, rl.WaitIfNeeded(context.Background()))
	require.NoError(t, rl.WaitIfNeeded(context.Background()))

	require.Len(t, sl.waits, 1)
	assert.Equal(t, 40*time.Second, sl.waits[0])

	// 新しいウィンドウでは1回消費済み
	require.NoError(t, rl.WaitIfNeeded(context.Background()))
	assert.Len(t, sl.waits, 1)
}

func TestRateLimiter_ResetsAfterInterval(t *testing.T) {
	t.Parallel()

	rl, clock, sl := newTestLimiter(1, time.Minute)

	require.NoError(t, rl.WaitIfNeeded(context.Background()))
	clock.t = clock.t.Add(time.Minute)
	require.NoError(t, rl.WaitIfNeeded(context.Background()))

	assert.Empty(t, sl.waits)
}

func TestRateLimiter_ContextCancelledWhileWaiting(t *testing.T) {
	t.Parallel()

	rl, _, sl := newTestLimiter(1, time.Minute)
	sl.err = context.Canceled

	require.NoError(t, rl.WaitIfNeeded(context.Background()))
	err := rl.WaitIfNeeded(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRateLimiter_Unlimited(t *testing.T) {
	t.Parallel()

	rl, _, sl := newTestLimiter(0, time.Minute)
	for range 100 {
		require.NoError(t, rl.WaitIfNeeded(context.Background()))
	}
	assert.Empty(t, sl.waits)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, rl.WaitIfNeeded(ctx), context.Canceled)
}

func TestContextSleeper(t *testing.T) {
	t.Parallel()

	t.Run("returns after duration", func(t *testing.T) {
		t.Parallel()
		start := time.Now()
		require.NoError(t, ContextSleeper{}.Sleep(context.Background(), 10*time.Millisecond))
		assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	})

	t.Run("cancelled context returns early", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		start := time.Now()
		err := ContextSleeper{}.Sleep(ctx, time.Hour)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("non-positive duration does not block", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, ContextSleeper{}.Sleep(context.Background(), 0))
	})
}
