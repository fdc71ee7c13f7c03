// Package metrics implements the process-wide pipeline recorder: prometheus
// series for scraping plus atomic counters backing the read-back snapshot.
package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/biaslab/bias-engine/internal/core/domain"
)

// PipelineMetrics is constructed once at process start. All increments are
// atomic and never block the pipeline; prometheus counters are write-only
// from Go, so the snapshot reads its own atomics.
type PipelineMetrics struct {
	registry *prometheus.Registry

	events        *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	inFlight      prometheus.Gauge

	articlesProcessed atomic.Int64
	failures          atomic.Int64
	totalLatencyUs    atomic.Int64
	latencySamples    atomic.Int64
	cacheHits         atomic.Int64
	cacheLookups      atomic.Int64
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "biaslab",
			Subsystem: "pipeline",
			Name:      "events_total",
			Help:      "Pipeline events by name (analysis outcomes, cache hits, model call outcomes).",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"event"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "biaslab",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Stage durations in seconds (whole analyses, model calls).",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"stage"},
	)
	inFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "biaslab",
			Subsystem: "pipeline",
			Name:      "analyses_in_flight",
			Help:      "Number of analysis computations currently running.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(events, stageDuration, inFlight)

	return &PipelineMetrics{
		registry:      registry,
		events:        events,
		stageDuration: stageDuration,
		inFlight:      inFlight,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) Increment(name string) {
	m.events.WithLabelValues(name).Inc()

	switch name {
	case "analysis.begin":
		m.inFlight.Inc()
	case "analysis.end":
		m.inFlight.Dec()
	case "analysis.success", "analysis.partial":
		m.articlesProcessed.Add(1)
	case "analysis.failure":
		m.failures.Add(1)
	case "cache.hit":
		m.cacheHits.Add(1)
		m.cacheLookups.Add(1)
	case "cache.miss":
		m.cacheLookups.Add(1)
	}
}

func (m *PipelineMetrics) RecordDuration(name string, ms float64) {
	m.stageDuration.WithLabelValues(name).Observe(ms / 1000.0)
	if name == "analysis" {
		m.totalLatencyUs.Add(int64(ms * 1000))
		m.latencySamples.Add(1)
	}
}

// Snapshot is the read-only counter view served to the operations surface.
func (m *PipelineMetrics) Snapshot() domain.MetricsSnapshot {
	processed := m.articlesProcessed.Load()
	failures := m.failures.Load()
	samples := m.latencySamples.Load()
	lookups := m.cacheLookups.Load()

	snapshot := domain.MetricsSnapshot{ArticlesProcessed: processed}
	if samples > 0 {
		snapshot.AvgLatencyMs = float64(m.totalLatencyUs.Load()) / float64(samples) / 1000.0
	}
	if attempts := processed + failures; attempts > 0 {
		snapshot.SuccessRate = float64(processed) / float64(attempts)
	}
	if lookups > 0 {
		snapshot.CacheHitRate = float64(m.cacheHits.Load()) / float64(lookups)
	}
	return snapshot
}
