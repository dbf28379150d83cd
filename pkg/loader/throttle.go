package loader

import (
	"context"
	"time"
)

// Throttle paces the loader between batches. Implementations decide the
// policy; the loader only calls Wait after each batch except the last.
type Throttle interface {
	Wait(ctx context.Context) error
}

// FixedDelay is a Throttle that pauses a constant duration between batches.
type FixedDelay struct {
	Delay time.Duration
}

// Wait sleeps for the configured delay or until the context is cancelled.
func (f FixedDelay) Wait(ctx context.Context) error {
	timer := time.NewTimer(f.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NopThrottle is a Throttle that never waits. Useful in tests.
type NopThrottle struct{}

// Wait returns immediately.
func (NopThrottle) Wait(_ context.Context) error {
	return nil
}
