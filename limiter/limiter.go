package limiter

import (
	"context"
	"sync"
	"time"

	"github.com/amonks/taggraph/metrics"
)

// New creates a Limiter that lets at most n acquisitions through per window.
func New(n int, window time.Duration) *Limiter {
	if n < 1 {
		n = 1
	}
	return &Limiter{
		n:           n,
		window:      window,
		windowStart: time.Now(),
	}
}

// A Limiter is a blocking fixed-window counter. It is not a sliding window:
// bursts straddling a window boundary can briefly exceed n.
type Limiter struct {
	mu sync.Mutex

	n      int
	window time.Duration

	count       int
	windowStart time.Time
	nextAt      time.Time
}

// Acquire blocks until the caller may dispatch one request. Callers are
// serialized, so a waiting caller holds up everyone behind it.
func (lim *Limiter) Acquire(ctx context.Context) error {
	lim.mu.Lock()
	defer lim.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if !lim.nextAt.IsZero() {
		if err := lim.sleep(ctx, time.Until(lim.nextAt)); err != nil {
			return err
		}
		lim.nextAt = time.Time{}
		lim.count = 0
		lim.windowStart = time.Now()
	}

	lim.count++
	if lim.count < lim.n {
		return nil
	}

	if elapsed := time.Since(lim.windowStart); elapsed < lim.window {
		if err := lim.sleep(ctx, lim.window-elapsed); err != nil {
			return err
		}
	}
	lim.count = 0
	lim.windowStart = time.Now()
	return nil
}

// Backoff holds off the next acquisition until d from now. It's how a 429's
// Retry-After gets applied to every caller sharing the limiter.
func (lim *Limiter) Backoff(d time.Duration) {
	lim.mu.Lock()
	defer lim.mu.Unlock()

	at := time.Now().Add(d)
	if at.After(lim.nextAt) {
		lim.nextAt = at
	}
}

func (lim *Limiter) sleep(ctx context.Context, dur time.Duration) error {
	if dur <= 0 {
		return nil
	}
	metrics.LimiterWaitSeconds.Observe(dur.Seconds())

	timer := time.NewTimer(dur)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
