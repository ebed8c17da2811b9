// Package metrics provides the Prometheus registry used by the SWAPI client.
// All metrics are defined in their respective packages (client, cache,
// ratelimit, coordinator) to maintain modularity and avoid circular
// dependencies.
//
// This package provides the scrape handler and the metric catalogue.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the SWAPI client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer scraped by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Catalogue lists every metric name exported by the module.
var Catalogue = []string{
	// pkg/ratelimit
	"swapi_rate_limit_blocks_total",
	"swapi_rate_limit_cooldowns_total",
	"swapi_rate_limit_wait_seconds",

	// pkg/cache
	"swapi_cache_hits_total",
	"swapi_cache_misses_total",
	"swapi_cache_size_bytes",
	"swapi_304_responses_total",
	"swapi_conditional_requests_total",
	"swapi_cache_errors_total",

	// pkg/client
	"swapi_requests_total",
	"swapi_request_duration_seconds",
	"swapi_errors_total",

	// pkg/coordinator
	"swapi_category_switches_total",
	"swapi_fetches_total",
	"swapi_fetch_duration_seconds",
	"swapi_items_displayed",
}

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - swapi_rate_limit_blocks_total (Counter): Requests blocked by an active 429 cooldown
//   - swapi_rate_limit_cooldowns_total (Counter): Cooldowns started by 429 responses
//   - swapi_rate_limit_wait_seconds (Histogram): Time spent waiting for the token bucket
//
// Cache Metrics (pkg/cache):
//   - swapi_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - swapi_cache_misses_total (Counter): Cache misses
//   - swapi_cache_size_bytes{layer="redis"} (Gauge): Bytes written to the cache
//   - swapi_304_responses_total (Counter): 304 Not Modified responses
//   - swapi_conditional_requests_total (Counter): Conditional requests sent with If-None-Match
//   - swapi_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - swapi_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - swapi_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - swapi_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Browser Metrics (pkg/coordinator):
//   - swapi_category_switches_total{category, source} (Counter): Switches by how the view was filled
//   - swapi_fetches_total{category, kind, status} (Counter): Initial and page fetches by outcome
//   - swapi_fetch_duration_seconds{kind} (Histogram): Provider call duration
//   - swapi_items_displayed (Gauge): Length of the displayed item list
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(swapi_cache_hits_total[5m])) /
//   (sum(rate(swapi_cache_hits_total[5m])) + sum(rate(swapi_cache_misses_total[5m])))
//
//   # Failed page loads
//   sum by (category) (rate(swapi_fetches_total{kind="page", status="failure"}[5m]))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(swapi_request_duration_seconds_bucket[5m]))
//
//   # 304 Response Rate
//   rate(swapi_304_responses_total[5m]) / rate(swapi_requests_total[5m])
