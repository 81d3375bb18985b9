package timing

import (
	"context"
	"sync"
	"time"
)

// TickerLimiter uses time.Ticker for simple, consistent cycle timing.
// Less accurate than AdaptiveLimiter at high frequencies but simpler.
type TickerLimiter struct {
	mu     sync.Mutex
	ticker *time.Ticker
	period time.Duration
}

func NewTickerLimiter(hz int) *TickerLimiter {
	if hz <= 0 {
		hz = DefaultFrequency
	}
	period := Period(hz)
	return &TickerLimiter{
		ticker: time.NewTicker(period),
		period: period,
	}
}

func (t *TickerLimiter) Wait(ctx context.Context) error {
	select {
	case <-t.ticker.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *TickerLimiter) SetFrequency(hz int) {
	if hz <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.period = Period(hz)
	t.ticker.Reset(t.period)
}

func (t *TickerLimiter) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ticker.Reset(t.period)
}

func (t *TickerLimiter) Stop() {
	t.ticker.Stop()
}
