// Package metrics provides Prometheus metrics for the unhype client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector the client registers.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Framing and parsing
	linesFramed    prometheus.Counter
	malformedLines prometheus.Counter

	// Event dispatch
	eventsByType prometheus.CounterVec
	chunkBytes   prometheus.Counter

	// Session lifecycle
	sessionOutcomes prometheus.CounterVec
	stageDuration   prometheus.HistogramVec

	// Transport
	requestDuration prometheus.HistogramVec

	// History persistence
	historyAppends prometheus.Counter
	historyErrors  prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager()
}

// NewManager creates a manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "unhype",
		subsystem:        "client",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.enabled {
		m.initializeMetrics()
	}
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.linesFramed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "lines_framed_total",
		Help:      "Complete lines produced by the frame decoder.",
	})
	m.malformedLines = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "malformed_lines_total",
		Help:      "Framed lines dropped because they failed to parse as events.",
	})
	m.eventsByType = *factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_total",
		Help:      "Parsed events dispatched to sessions, labeled by type.",
	}, []string{"type"})
	m.chunkBytes = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "chunk_bytes_total",
		Help:      "Bytes of output text accumulated from chunk events.",
	})
	m.sessionOutcomes = *factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "session_outcomes_total",
		Help:      "Terminal session outcomes, labeled done or failed.",
	}, []string{"outcome"})
	m.stageDuration = *factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stage_duration_seconds",
		Help:      "Time between a stage announcement and the next lifecycle event, labeled by step.",
		Buckets:   m.histogramBuckets,
	}, []string{"step"})
	m.requestDuration = *factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "request_duration_seconds",
		Help:      "Wall time of service requests, labeled by action and outcome.",
		Buckets:   m.histogramBuckets,
	}, []string{"action", "outcome"})
	m.historyAppends = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "history_appends_total",
		Help:      "History entries persisted.",
	})
	m.historyErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "history_errors_total",
		Help:      "History persistence failures.",
	})
}

// Package-level helpers operate on the global manager so call sites stay
// one-liners. All are no-ops when metrics are disabled.

// RecordLineFramed counts one complete framed line.
func RecordLineFramed() {
	if globalManager.enabled {
		globalManager.linesFramed.Inc()
	}
}

// RecordMalformedLine counts a framed line dropped by the event parser.
func RecordMalformedLine() {
	if globalManager.enabled {
		globalManager.malformedLines.Inc()
	}
}

// RecordEvent counts a dispatched event by type tag.
func RecordEvent(eventType string) {
	if globalManager.enabled {
		globalManager.eventsByType.WithLabelValues(eventType).Inc()
	}
}

// RecordChunkBytes counts bytes appended from a chunk event.
func RecordChunkBytes(n int) {
	if globalManager.enabled {
		globalManager.chunkBytes.Add(float64(n))
	}
}

// RecordStageDuration observes how long a pipeline stage ran before the next
// lifecycle event arrived.
func RecordStageDuration(step string, seconds float64) {
	if globalManager.enabled {
		globalManager.stageDuration.WithLabelValues(step).Observe(seconds)
	}
}

// RecordSessionOutcome counts a terminal session transition.
func RecordSessionOutcome(outcome string) {
	if globalManager.enabled {
		globalManager.sessionOutcomes.WithLabelValues(outcome).Inc()
	}
}

// RecordRequestDuration observes the wall time of one service request.
func RecordRequestDuration(action, outcome string, seconds float64) {
	if globalManager.enabled {
		globalManager.requestDuration.WithLabelValues(action, outcome).Observe(seconds)
	}
}

// RecordHistoryAppend counts a persisted history entry.
func RecordHistoryAppend() {
	if globalManager.enabled {
		globalManager.historyAppends.Inc()
	}
}

// RecordHistoryError counts a history persistence failure.
func RecordHistoryError() {
	if globalManager.enabled {
		globalManager.historyErrors.Inc()
	}
}
