package timing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// maxLag is how many periods the limiter may fall behind before it stops catching up.
const maxLag = 5

// AdaptiveLimiter sleeps until an absolute deadline that advances by one period per cycle,
// so oversleeping in one cycle is paid back in the next ones.
type AdaptiveLimiter struct {
	mu           sync.Mutex
	period       time.Duration
	nextDeadline time.Time
	cycleCounter int64
	resyncs      int64
}

func NewAdaptiveLimiter(hz int) *AdaptiveLimiter {
	if hz <= 0 {
		hz = DefaultFrequency
	}
	return &AdaptiveLimiter{
		period:       Period(hz),
		nextDeadline: time.Now(),
	}
}

func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	a.mu.Lock()
	now := time.Now()
	if lag := now.Sub(a.nextDeadline); lag > maxLag*a.period {
		a.resyncs++
		if a.resyncs%100 == 1 {
			slog.Debug("Cycle timing behind schedule, resyncing", "lag_ms", lag.Milliseconds(), "resyncs", a.resyncs)
		}
		a.nextDeadline = now
	}
	deadline := a.nextDeadline
	a.nextDeadline = a.nextDeadline.Add(a.period)
	a.cycleCounter++
	a.mu.Unlock()

	sleepTime := time.Until(deadline)
	if sleepTime <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(sleepTime)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *AdaptiveLimiter) SetFrequency(hz int) {
	if hz <= 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.period = Period(hz)
	a.nextDeadline = time.Now()
}

func (a *AdaptiveLimiter) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextDeadline = time.Now()
	a.cycleCounter = 0
}

// Period returns the current cycle duration.
func (a *AdaptiveLimiter) Period() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.period
}
