package readthrough

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"github.com/amonks/taggraph/metrics"
)

const (
	// DefaultTTL applies to per-entity lookups.
	DefaultTTL = time.Hour

	// AggregateTTL applies to AggregateKey.
	AggregateTTL = 24 * time.Hour

	// AggregateKey holds the result of a whole tag collection run.
	AggregateKey = "collect_all_tags"
)

var ErrMiss = errors.New("cache miss")

// A Store holds cached bytes with an expiry. Get returns ErrMiss for absent
// or expired keys.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Close() error
}

func New(store Store) *ReadThrough {
	return &ReadThrough{store: store}
}

// ReadThrough memoizes expensive computations by key. Concurrent callers
// asking for the same missing key share a single computation.
type ReadThrough struct {
	store Store
	group singleflight.Group
}

// GetOrCompute returns the cached value for key, or runs compute and caches
// its result for ttl. Errors from compute are returned and not cached.
// Concurrent callers for the same key share one compute.
func (rt *ReadThrough) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) ([]byte, error)) ([]byte, error) {
	if bs, err := rt.store.Get(key); err == nil {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return bs, nil
	} else if !errors.Is(err, ErrMiss) {
		return nil, fmt.Errorf("error reading cache key '%s': %w", key, err)
	}

	for {
		v, err, shared := rt.group.Do(key, func() (interface{}, error) {
			// someone may have filled it between our Get and Do
			if bs, err := rt.store.Get(key); err == nil {
				return bs, nil
			}
			metrics.CacheLookups.WithLabelValues("miss").Inc()
			bs, err := compute(ctx)
			if err != nil {
				return nil, err
			}
			if err := rt.store.Set(key, bs, ttl); err != nil {
				return nil, fmt.Errorf("error writing cache key '%s': %w", key, err)
			}
			return bs, nil
		})
		if shared {
			metrics.CacheLookups.WithLabelValues("shared").Inc()
		}
		// the flight ran on whichever caller got there first; if that
		// caller went away, the rest of us try again with our own context
		if shared && errors.Is(err, context.Canceled) && ctx.Err() == nil {
			continue
		}
		if err != nil {
			return nil, err
		}
		return v.([]byte), nil
	}
}

// Forget drops key from the store.
func (rt *ReadThrough) Forget(key string) error {
	return rt.store.Delete(key)
}

func (rt *ReadThrough) Close() error {
	return rt.store.Close()
}

// Fetch is GetOrCompute for JSON-encodable values.
func Fetch[T any](ctx context.Context, rt *ReadThrough, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	var out T
	bs, err := rt.GetOrCompute(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(bs, &out); err != nil {
		return out, fmt.Errorf("error decoding cache key '%s': %w", key, err)
	}
	return out, nil
}

// Key hashes an operation name and its arguments into a cache key. Arguments
// are trimmed and lowercased, so "Queen" and " queen" share an entry.
func Key(op string, args ...string) string {
	hasher := sha256.New()
	hasher.Write([]byte(op))
	for _, arg := range args {
		hasher.Write([]byte{0})
		hasher.Write([]byte(strings.ToLower(strings.TrimSpace(arg))))
	}
	return op + "_" + hex.EncodeToString(hasher.Sum(nil))
}
