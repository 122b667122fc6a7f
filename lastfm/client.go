// Package lastfm is a client for the parts of the Last.fm 2.0 API that
// describe how artists, tags, and tracks relate.
//
// No method returns an error. Last.fm is flaky enough that a crawl has to
// carry on through failed calls, so failures are logged along with the
// query that caused them and reported as an empty result.
package lastfm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/amonks/taggraph/limiter"
	"github.com/amonks/taggraph/metrics"
	"github.com/amonks/taggraph/readthrough"
	"github.com/amonks/taggraph/request"
	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

const (
	DefaultBaseURL = "https://ws.audioscrobbler.com/2.0/"
	DefaultTimeout = 10 * time.Second

	// DefaultPageCap bounds how many pages of a search we'll read, no matter
	// how many results Last.fm claims to have.
	DefaultPageCap = 5

	maxAttempts = 3
)

// ErrAPI is returned (internally) when Last.fm answers with an error
// envelope rather than a payload.
var ErrAPI = errors.New("last.fm error")

type Options struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	PageCap int

	// Defaults to 4 requests per second.
	Limiter *limiter.Limiter

	// Defaults to an in-memory cache.
	Cache *readthrough.ReadThrough

	Logger zerolog.Logger
}

type Client struct {
	apiKey  string
	pageCap int

	http    *resty.Client
	limiter *limiter.Limiter
	cache   *readthrough.ReadThrough
	breaker *gobreaker.CircuitBreaker[[]byte]
	log     zerolog.Logger
}

// New creates a new Last.fm client.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.PageCap == 0 {
		opts.PageCap = DefaultPageCap
	}
	if opts.Limiter == nil {
		opts.Limiter = limiter.New(4, time.Second)
	}
	if opts.Cache == nil {
		opts.Cache = readthrough.New(readthrough.NewMemoryStore())
	}

	log := opts.Logger.With().Str("component", "lastfm").Logger()

	c := &Client{
		apiKey:  opts.APIKey,
		pageCap: opts.PageCap,
		http: resty.New().
			SetBaseURL(opts.BaseURL).
			SetTimeout(opts.Timeout).
			SetHeader("User-Agent", "taggraph"),
		limiter: opts.Limiter,
		cache:   opts.Cache,
		log:     log,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "lastfm",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// being told to slow down, or giving up, isn't Last.fm's fault
		IsSuccessful: func(err error) bool {
			var throttled *throttledError
			return err == nil ||
				errors.As(err, &throttled) ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	return c
}

type throttledError struct {
	retryAfter time.Duration
}

func (err *throttledError) Error() string {
	return fmt.Sprintf("429; retry after %s", err.retryAfter)
}

// cached is get, through the response cache. Only successful responses are
// cached, and cache hits don't count against the rate limit.
func (c *Client) cached(ctx context.Context, method string, params map[string]string) ([]byte, error) {
	return c.cache.GetOrCompute(ctx, cacheKey(method, params), readthrough.DefaultTTL, func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, method, params)
	})
}

func cacheKey(method string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, len(keys))
	for i, k := range keys {
		args[i] = k + "=" + params[k]
	}
	return readthrough.Key(method, args...)
}

// get calls the given API method, waiting for the rate limiter first, and
// retrying when Last.fm asks us to back off.
func (c *Client) get(ctx context.Context, method string, params map[string]string) ([]byte, error) {
	query := map[string]string{
		"method":  method,
		"api_key": c.apiKey,
		"format":  "json",
	}
	for k, v := range params {
		query[k] = v
	}

	for attempt := 1; ; attempt++ {
		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, fmt.Errorf("canceled: %w", err)
		}

		start := time.Now()
		body, err := c.breaker.Execute(func() ([]byte, error) {
			return c.do(ctx, query)
		})
		metrics.CatalogRequestSeconds.WithLabelValues(method).Observe(time.Since(start).Seconds())

		var throttled *throttledError
		switch {
		case err == nil:
		case errors.As(err, &throttled):
			metrics.CatalogRequests.WithLabelValues(method, "throttled").Inc()
			if attempt >= maxAttempts {
				return nil, fmt.Errorf("giving up after %d attempts: %w", attempt, err)
			}
			c.log.Warn().Str("method", method).Dur("retry_after", throttled.retryAfter).Msg("throttled")
			c.limiter.Backoff(throttled.retryAfter)
			continue
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			metrics.CatalogRequests.WithLabelValues(method, "rejected").Inc()
			return nil, err
		default:
			metrics.CatalogRequests.WithLabelValues(method, "error").Inc()
			return nil, err
		}

		// a garbled body mustn't reach the cache
		var envelope errorEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			metrics.CatalogRequests.WithLabelValues(method, "error").Inc()
			return nil, fmt.Errorf("decode error: %w", err)
		}
		if envelope.Error != 0 {
			metrics.CatalogRequests.WithLabelValues(method, "error").Inc()
			return nil, fmt.Errorf("%w %d: %s", ErrAPI, envelope.Error, envelope.Message)
		}

		metrics.CatalogRequests.WithLabelValues(method, "ok").Inc()
		return body, nil
	}
}

func (c *Client) do(ctx context.Context, query map[string]string) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get("/")
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return nil, &throttledError{retryAfter: retryAfter(resp.Header().Get("Retry-After"))}
	}
	if err := request.Error(resp.RawResponse, resp.Body()); err != nil {
		return nil, fmt.Errorf("fetch error: %w", err)
	}
	return resp.Body(), nil
}

// retryAfter parses a Retry-After header, which is either a number of
// seconds or an http date. With no usable header we wait a minute.
func retryAfter(header string) time.Duration {
	if header == "" {
		return time.Minute
	}
	if seconds, err := strconv.ParseInt(header, 10, 64); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		return time.Until(at)
	}
	return time.Minute
}

// call fetches a single-shot method and decodes it into v, logging and
// returning false if anything goes wrong.
func (c *Client) call(ctx context.Context, method string, params map[string]string, v any) bool {
	body, err := c.cached(ctx, method, params)
	if err != nil {
		c.logError(method, params, err)
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		c.logError(method, params, fmt.Errorf("decode error: %w", err))
		return false
	}
	return true
}

// paginate reads pages of a search, starting from page 1, until it has read
// every page Last.fm says there is or hits the page cap. consume decodes a
// page and returns the total number of results. An error ends the search
// early; whatever was consumed before it stands.
func (c *Client) paginate(ctx context.Context, method string, params map[string]string, limit int, consume func(body []byte) (total int64, err error)) {
	if limit <= 0 {
		limit = 50
	}
	totalPages := 1
	for page := 1; page <= totalPages && page <= c.pageCap; page++ {
		query := make(map[string]string, len(params)+2)
		for k, v := range params {
			query[k] = v
		}
		query["limit"] = strconv.Itoa(limit)
		query["page"] = strconv.Itoa(page)

		body, err := c.cached(ctx, method, query)
		if err != nil {
			c.logError(method, query, err)
			return
		}
		total, err := consume(body)
		if err != nil {
			c.logError(method, query, fmt.Errorf("decode error: %w", err))
			return
		}
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
}

func (c *Client) logError(method string, params map[string]string, err error) {
	c.log.Error().
		Err(err).
		Str("method", method).
		Interface("params", params).
		Msg("last.fm request failed")
}
