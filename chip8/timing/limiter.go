package timing

import (
	"context"
	"time"
)

// Limiter paces the execution loop at a clock frequency.
type Limiter interface {
	// Wait blocks until it's time for the next cycle, or until ctx is done.
	// Returns immediately if timing is behind schedule.
	Wait(ctx context.Context) error

	// SetFrequency changes the amount of cycles per second, values <= 0 are ignored.
	SetFrequency(hz int)

	// Reset resets the timing state, useful after pauses.
	Reset()
}

const (
	// DefaultFrequency is the default clock, in cycles per second.
	DefaultFrequency = 500
	// DisplayRate is how often hosts refresh the screen, in frames per second.
	DisplayRate = 60
)

// Period returns the duration of a single cycle at hz, hz must be positive.
func Period(hz int) time.Duration {
	return time.Second / time.Duration(hz)
}

// NewNoOpLimiter returns a limiter that doesn't limit (for headless mode).
func NewNoOpLimiter() Limiter {
	return &noOpLimiter{}
}

type noOpLimiter struct{}

func (n *noOpLimiter) Wait(ctx context.Context) error { return ctx.Err() }
func (n *noOpLimiter) SetFrequency(int)               {}
func (n *noOpLimiter) Reset()                         {}
