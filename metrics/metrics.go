// Package metrics provides Prometheus metrics collection for the profile
// generator. Besides the usual HTTP request metrics it tracks the pipeline
// itself: profiles generated per mode, fetch failures, documents built and
// the size of the loaded procedure catalogue.
//
// All metrics are automatically registered with the Prometheus default
// registry during package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (client IPs currently tracked)",
		},
	)

	// ProfilesGeneratedTotal counts finished generation requests by mode:
	// "automated" (direct API call) or "manual" (prompt returned to operator).
	ProfilesGeneratedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profiles_generated_total",
			Help: "Total generated doctor profiles by mode",
		},
		[]string{"mode"},
	)

	FetchFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fetch_failures_total",
			Help: "Total failed page fetches",
		},
	)

	DocumentsBuiltTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "documents_built_total",
			Help: "Total profile documents built",
		},
	)

	CatalogEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_entries",
			Help: "Number of procedure entries currently loaded",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(ProfilesGeneratedTotal)
	prometheus.MustRegister(FetchFailuresTotal)
	prometheus.MustRegister(DocumentsBuiltTotal)
	prometheus.MustRegister(CatalogEntries)
}
