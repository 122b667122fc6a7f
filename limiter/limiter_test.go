package limiter_test

import (
	"context"
	"testing"
	"time"

	"github.com/amonks/taggraph/limiter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireBound(t *testing.T) {
	const n, calls = 4, 20
	window := 20 * time.Millisecond
	lim := limiter.New(n, window)

	start := time.Now()
	for i := 0; i < calls; i++ {
		require.NoError(t, lim.Acquire(context.Background()))
	}
	elapsed := time.Since(start)

	// ceil(calls/n)-1 full windows, at minimum
	minimum := time.Duration((calls+n-1)/n-1) * window
	assert.GreaterOrEqual(t, elapsed, minimum)
}

func TestAcquireUnderLimitDoesNotBlock(t *testing.T) {
	lim := limiter.New(4, time.Hour)

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, lim.Acquire(context.Background()))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestAcquireCanceled(t *testing.T) {
	lim := limiter.New(1, time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// the first acquisition fills the window, so it waits out the hour
	err := lim.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBackoff(t *testing.T) {
	lim := limiter.New(100, time.Second)
	lim.Backoff(30 * time.Millisecond)

	start := time.Now()
	require.NoError(t, lim.Acquire(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

	start = time.Now()
	require.NoError(t, lim.Acquire(context.Background()))
	assert.Less(t, time.Since(start), 30*time.Millisecond)
}
