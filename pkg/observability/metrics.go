package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Interpretation metrics
	interpretRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intentgate_interpret_requests_total",
			Help: "Total number of interpretation requests",
		},
		[]string{"status"},
	)

	interpretDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intentgate_interpret_duration_seconds",
			Help:    "Interpretation request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	intentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intentgate_intents_total",
			Help: "Total number of detected intents",
		},
		[]string{"intent"},
	)

	// Cache metrics
	cacheEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intentgate_cache_events_total",
			Help: "Total number of response cache events",
		},
		[]string{"event"},
	)

	// Conversation store metrics
	storeFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intentgate_store_failures_total",
			Help: "Total number of conversation store failures",
		},
		[]string{"operation"},
	)

	// Inference metrics
	inferenceDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "intentgate_inference_duration_seconds",
			Help:    "Model inference duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// gRPC metrics
	grpcRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intentgate_grpc_requests_total",
			Help: "Total number of gRPC requests",
		},
		[]string{"method", "status"},
	)

	grpcRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intentgate_grpc_request_duration_seconds",
			Help:    "gRPC request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// System metrics
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "intentgate_active_sessions",
			Help: "Number of tracked conversation sessions",
		},
	)

	cacheSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "intentgate_cache_size",
			Help: "Number of entries in the response cache",
		},
	)

	initOnce sync.Once
)

// InitMetrics initializes Prometheus metrics
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			interpretRequestsTotal,
			interpretDuration,
			intentsTotal,
			cacheEventsTotal,
			storeFailuresTotal,
			inferenceDuration,
			grpcRequestsTotal,
			grpcRequestDuration,
			activeSessions,
			cacheSize,
		)
	})
}

// MetricsHandler returns an HTTP handler for Prometheus metrics
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordInterpretRequest records interpretation request metrics
func RecordInterpretRequest(status string, duration time.Duration) {
	interpretRequestsTotal.WithLabelValues(status).Inc()
	interpretDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordIntent records a detected intent
func RecordIntent(intent string) {
	intentsTotal.WithLabelValues(intent).Inc()
}

// RecordCacheEvent records a response cache event (hit, miss, store)
func RecordCacheEvent(event string) {
	cacheEventsTotal.WithLabelValues(event).Inc()
}

// RecordStoreFailure records a conversation store failure
func RecordStoreFailure(operation string) {
	storeFailuresTotal.WithLabelValues(operation).Inc()
}

// RecordInference records model inference duration
func RecordInference(duration time.Duration) {
	inferenceDuration.Observe(duration.Seconds())
}

// RecordGRPCRequest records gRPC request metrics
func RecordGRPCRequest(method, status string, duration time.Duration) {
	grpcRequestsTotal.WithLabelValues(method, status).Inc()
	grpcRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// SetActiveSessions sets the active sessions gauge
func SetActiveSessions(count int) {
	activeSessions.Set(float64(count))
}

// SetCacheSize sets the response cache size gauge
func SetCacheSize(count int) {
	cacheSize.Set(float64(count))
}
