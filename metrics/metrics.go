package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Inference
	InferenceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "skin_inference_duration_seconds",
			Help:    "Duration of face detection, preprocessing and model inference",
			Buckets: prometheus.DefBuckets,
		},
	)

	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skin_analyses_total",
			Help: "Total number of image analyses by outcome",
		},
		[]string{"status"}, // "success", "invalid_image", "no_face", "error"
	)

	DetectedLabels = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skin_detected_labels_total",
			Help: "Number of times each label was reported",
		},
		[]string{"label"},
	)

	// Product cache
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "product_cache_requests_total",
			Help: "Product cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss", "expired"
	)

	// Scraper
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_search_requests_total",
			Help: "Search API calls by outcome",
		},
		[]string{"outcome"}, // "ok", "empty", "error", "rejected"
	)

	PageFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_page_fetches_total",
			Help: "Product page fetches by outcome",
		},
		[]string{"outcome"}, // "ok", "error"
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scraper_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// HTTP
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// RecordAnalysis records the outcome and latency of one analysis.
func RecordAnalysis(status string, duration time.Duration) {
	AnalysesTotal.WithLabelValues(status).Inc()
	InferenceDuration.Observe(duration.Seconds())
}
