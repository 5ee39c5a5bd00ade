// Package observability provides the Prometheus metrics surface
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "secondbrain"

// Metrics aggregates the service's Prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	aiRequests   *prometheus.CounterVec
	aiLatency    *prometheus.HistogramVec
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
	suggestions  *prometheus.CounterVec
	dbOperations *prometheus.HistogramVec
	ingestions   *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors on a fresh registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		aiRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "requests_total",
			Help:      "AI provider requests by operation and outcome",
		}, []string{"operation", "outcome"}),
		aiLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "request_duration_seconds",
			Help:      "AI provider request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "cache_hits_total",
			Help:      "Snapshot cache hits",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "cache_misses_total",
			Help:      "Snapshot cache misses",
		}),
		suggestions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "suggestions",
			Name:      "outcomes_total",
			Help:      "Suggestion lifecycle outcomes",
		}, []string{"outcome"}),
		dbOperations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "persistence",
			Name:      "operation_duration_seconds",
			Help:      "Persistence operation latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		ingestions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "documents_total",
			Help:      "Ingestion pipeline results",
		}, []string{"result"}),
	}
}

// RecordAIRequest counts one AI provider call
func (m *Metrics) RecordAIRequest(operation, outcome string, duration time.Duration) {
	m.aiRequests.WithLabelValues(operation, outcome).Inc()
	m.aiLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCacheHit counts a snapshot cache hit
func (m *Metrics) RecordCacheHit() { m.cacheHits.Inc() }

// RecordCacheMiss counts a snapshot cache miss
func (m *Metrics) RecordCacheMiss() { m.cacheMisses.Inc() }

// RecordSuggestion counts a suggestion outcome (proposed, accepted, rejected, failed)
func (m *Metrics) RecordSuggestion(outcome string) {
	m.suggestions.WithLabelValues(outcome).Inc()
}

// RecordDBOperation observes one persistence operation
func (m *Metrics) RecordDBOperation(operation string, duration time.Duration) {
	m.dbOperations.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordIngestion counts one ingestion pipeline result (completed, failed)
func (m *Metrics) RecordIngestion(result string) {
	m.ingestions.WithLabelValues(result).Inc()
}

// Handler exposes the registry for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
