package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for coordinator transitions.
var (
	categorySwitchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapi_category_switches_total",
		Help: "Total category switches by target category and how the view was filled",
	}, []string{"category", "source"}) // source: "fetch", "cache", "loading", "failure"

	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapi_fetches_total",
		Help: "Total provider fetches by category, kind and outcome",
	}, []string{"category", "kind", "status"}) // kind: "initial", "page"; status: "success", "failure", "stale"

	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "swapi_fetch_duration_seconds",
		Help:    "Provider fetch duration in seconds by kind",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"kind"})

	itemsDisplayed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swapi_items_displayed",
		Help: "Number of items in the aggregated view",
	})
)
