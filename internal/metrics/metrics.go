package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Counter: moderation requests by profile and outcome.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_requests_total",
			Help: "Total number of moderation requests.",
		},
		[]string{"sensitivity", "verdict"},
	)

	// Histogram: time spent producing a decision, in seconds.
	ProcessingSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "moderation_processing_seconds",
			Help:    "Time spent producing a moderation decision in seconds.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	// Counters: decision cache outcomes.
	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "moderation_cache_hits_total",
			Help: "Total number of decision cache hits.",
		},
	)
	CacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "moderation_cache_misses_total",
			Help: "Total number of decision cache misses.",
		},
	)
)

// Register is called once in main() to register metrics.
func Register() {
	prometheus.MustRegister(
		RequestsTotal,
		ProcessingSeconds,
		CacheHitsTotal,
		CacheMissesTotal,
	)
}

// Handler exposes the /metrics endpoint for Prometheus to scrape.
func Handler() http.Handler {
	return promhttp.Handler()
}
