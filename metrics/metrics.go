// Package metrics holds the prometheus collectors shared by the crawler's
// components. They register with the default registry; server.Run exposes
// them at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taggraph_catalog_requests_total",
			Help: "Last.fm requests by method and outcome",
		},
		[]string{"method", "outcome"}, // "ok", "error", "rejected", "throttled"
	)

	CatalogRequestSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taggraph_catalog_request_duration_seconds",
			Help:    "Duration of Last.fm requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taggraph_response_cache_lookups_total",
			Help: "Response cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss", "shared"
	)

	StoreCreates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taggraph_store_creates_total",
			Help: "Entities staged for creation, by kind",
		},
		[]string{"kind"}, // "artist", "genre", "track", "edge"
	)

	StoreLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taggraph_store_lookups_total",
			Help: "Entities found by the graph store without creating them, by kind and source",
		},
		[]string{"kind", "source"}, // source is "memory" or "db"
	)

	StoreFlushes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taggraph_store_flushes_total",
			Help: "Batched commits to the graph store",
		},
	)

	LimiterWaitSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "taggraph_limiter_wait_seconds",
			Help:    "Time spent blocked in the rate limiter",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 30, 60},
		},
	)

	CrawlItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taggraph_crawl_items_total",
			Help: "Source items processed by crawl stage",
		},
		[]string{"stage"}, // "letters", "countries", "similar", "tracks"
	)
)
