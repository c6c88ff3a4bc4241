// Package ratelimiter paces calls against rate-limited services.
package ratelimiter

import (
	"context"
	"time"
)

// Sleeper suspends the caller for a fixed duration.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// ContextSleeper waits on a timer and gives up early when ctx is done.
type ContextSleeper struct{}

// Sleep blocks for d or until ctx is cancelled, whichever comes first.
func (ContextSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
