// Package metrics registers the prometheus collectors shared by the cache,
// upstream client, resolver and HTTP layers.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheLookups counts cache reads by cache name and result.
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movielog_cache_lookups_total",
			Help: "Cache lookups partitioned by result (hit, miss, expired)",
		},
		[]string{"cache", "result"},
	)

	// CacheEntries tracks the stored entry count per cache.
	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "movielog_cache_entries",
			Help: "Entries currently held by the cache, including expired entries not yet read",
		},
		[]string{"cache"},
	)

	// UpstreamRequests counts upstream calls by endpoint and outcome.
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movielog_upstream_requests_total",
			Help: "Requests issued to the upstream metadata API",
		},
		[]string{"endpoint", "outcome"},
	)

	// UpstreamDuration observes upstream call latency.
	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movielog_upstream_request_duration_seconds",
			Help:    "Latency of upstream metadata API requests",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	// Resolutions counts movie resolutions by outcome.
	Resolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movielog_resolver_resolutions_total",
			Help: "Movie resolutions partitioned by outcome",
		},
		[]string{"outcome"},
	)

	// HTTPRequests counts served requests by matched route.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movielog_http_requests_total",
			Help: "HTTP requests served, by route pattern and status",
		},
		[]string{"method", "route", "status"},
	)

	// DBConnections reports the pgx pool by connection state.
	DBConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "movielog_db_connections",
			Help: "Database pool connections by state (acquired, idle, total)",
		},
		[]string{"state"},
	)
)

// Cache lookup results.
const (
	CacheHit     = "hit"
	CacheMiss    = "miss"
	CacheExpired = "expired"
)

// RecordUpstream records the outcome and latency of one upstream call.
func RecordUpstream(endpoint, outcome string, elapsed time.Duration) {
	UpstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	UpstreamDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// RecordHTTP records a served request.
func RecordHTTP(method, route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// RecordPool publishes a snapshot of the database pool.
func RecordPool(acquired, idle, total int32) {
	DBConnections.WithLabelValues("acquired").Set(float64(acquired))
	DBConnections.WithLabelValues("idle").Set(float64(idle))
	DBConnections.WithLabelValues("total").Set(float64(total))
}
