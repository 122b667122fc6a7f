package readthrough_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amonks/taggraph/readthrough"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrComputeCaches(t *testing.T) {
	rt := readthrough.New(readthrough.NewMemoryStore())
	var calls int

	compute := func(context.Context) ([]byte, error) {
		calls++
		return []byte("rock"), nil
	}
	for i := 0; i < 3; i++ {
		bs, err := rt.GetOrCompute(context.Background(), "k", time.Hour, compute)
		require.NoError(t, err)
		assert.Equal(t, "rock", string(bs))
	}
	assert.Equal(t, 1, calls)
}

func TestGetOrComputeSingleFlight(t *testing.T) {
	rt := readthrough.New(readthrough.NewMemoryStore())
	var calls atomic.Int32
	release := make(chan struct{})

	compute := func(context.Context) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("queen"), nil
	}

	var wg sync.WaitGroup
	results := make([]string, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bs, err := rt.GetOrCompute(context.Background(), readthrough.Key("artist.getTopTags", "Queen"), time.Hour, compute)
			assert.NoError(t, err)
			results[i] = string(bs)
		}(i)
	}

	// give both callers a chance to reach the flight before it lands
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []string{"queen", "queen"}, results)
}

func TestGetOrComputeOutlivesCanceledCaller(t *testing.T) {
	rt := readthrough.New(readthrough.NewMemoryStore())
	var calls atomic.Int32
	started := make(chan struct{})

	compute := func(ctx context.Context) ([]byte, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return []byte("queen"), nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := rt.GetOrCompute(ctx, "k", time.Hour, compute)
		leaderErr <- err
	}()
	<-started

	var bs []byte
	var err error
	done := make(chan struct{})
	go func() {
		defer close(done)
		bs, err = rt.GetOrCompute(context.Background(), "k", time.Hour, compute)
	}()

	// let the second caller join the flight before the first one leaves
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	assert.ErrorIs(t, <-leaderErr, context.Canceled)
	require.NoError(t, err)
	assert.Equal(t, "queen", string(bs))
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetOrComputeDoesNotCacheErrors(t *testing.T) {
	rt := readthrough.New(readthrough.NewMemoryStore())
	boom := errors.New("boom")
	var calls int

	_, err := rt.GetOrCompute(context.Background(), "k", time.Hour, func(context.Context) ([]byte, error) {
		calls++
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	bs, err := rt.GetOrCompute(context.Background(), "k", time.Hour, func(context.Context) ([]byte, error) {
		calls++
		return []byte("ok"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(bs))
	assert.Equal(t, 2, calls)
}

func TestGetOrComputeExpires(t *testing.T) {
	rt := readthrough.New(readthrough.NewMemoryStore())
	var calls int
	compute := func(context.Context) ([]byte, error) {
		calls++
		return []byte("x"), nil
	}

	_, err := rt.GetOrCompute(context.Background(), "k", 10*time.Millisecond, compute)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	_, err = rt.GetOrCompute(context.Background(), "k", 10*time.Millisecond, compute)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestFetch(t *testing.T) {
	rt := readthrough.New(readthrough.NewMemoryStore())
	type tag struct{ Name string }

	compute := func(context.Context) ([]tag, error) {
		return []tag{{"rock"}, {"pop"}}, nil
	}
	got, err := readthrough.Fetch(context.Background(), rt, "tags", time.Hour, compute)
	require.NoError(t, err)
	assert.Equal(t, []tag{{"rock"}, {"pop"}}, got)

	got, err = readthrough.Fetch(context.Background(), rt, "tags", time.Hour, func(context.Context) ([]tag, error) {
		t.Fatal("should have been cached")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestForget(t *testing.T) {
	rt := readthrough.New(readthrough.NewMemoryStore())
	var calls int
	compute := func(context.Context) ([]byte, error) {
		calls++
		return []byte("x"), nil
	}

	_, _ = rt.GetOrCompute(context.Background(), "k", time.Hour, compute)
	require.NoError(t, rt.Forget("k"))
	_, _ = rt.GetOrCompute(context.Background(), "k", time.Hour, compute)
	assert.Equal(t, 2, calls)
}

func TestKey(t *testing.T) {
	assert.Equal(t, readthrough.Key("op", "Queen"), readthrough.Key("op", " queen "))
	assert.NotEqual(t, readthrough.Key("op", "a", "b"), readthrough.Key("op", "ab"))
	assert.NotEqual(t, readthrough.Key("op1", "a"), readthrough.Key("op2", "a"))
}

func TestBadgerStore(t *testing.T) {
	store, err := readthrough.OpenBadgerStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Get("missing")
	assert.ErrorIs(t, err, readthrough.ErrMiss)

	require.NoError(t, store.Set("k", []byte("v"), time.Hour))
	bs, err := store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(bs))

	require.NoError(t, store.Delete("k"))
	_, err = store.Get("k")
	assert.ErrorIs(t, err, readthrough.ErrMiss)
}
