// Package metrics exposes Prometheus instrumentation for the ingestion
// pipeline. A nil *Metrics is valid and records nothing, so components can
// be built without a registry in tests and library use.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "serialmon"

// Metrics holds the pipeline's collectors.
type Metrics struct {
	bytesReceived  prometheus.Counter
	linesReceived  prometheus.Counter
	recordsDecoded prometheus.Counter
	parseErrors    prometheus.Counter
	readErrors     prometheus.Counter
	connects       *prometheus.CounterVec
	disconnects    prometheus.Counter
	closeErrors    prometheus.Counter
	state          prometheus.Gauge
	lastActivity   prometheus.Gauge
	teardown       prometheus.Histogram
}

// NewRegistry returns a registry pre-loaded with Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// New creates and registers the pipeline metrics. It returns nil when reg is
// nil, which disables instrumentation.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}

	m := &Metrics{
		bytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_received_total",
			Help:      "Bytes read from the serial transport.",
		}),
		linesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_received_total",
			Help:      "Complete lines emitted by the framer.",
		}),
		recordsDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_decoded_total",
			Help:      "Lines promoted to sensor records.",
		}),
		parseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_errors_total",
			Help:      "Structured-looking lines that failed to decode.",
		}),
		readErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_errors_total",
			Help:      "Read loops terminated by a non-cancellation error.",
		}),
		connects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_attempts_total",
			Help:      "Connection attempts by outcome.",
		}, []string{"result"}),
		disconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "disconnects_total",
			Help:      "Completed teardowns.",
		}),
		closeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "close_errors_total",
			Help:      "Transport close failures during teardown.",
		}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_state",
			Help:      "Connection state (0 disconnected, 1 connecting, 2 reading, 3 disconnecting).",
		}),
		lastActivity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_activity_timestamp_seconds",
			Help:      "Unix time of the last chunk received.",
		}),
		teardown: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "teardown_duration_seconds",
			Help:      "Time from disconnect request to Disconnected.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5},
		}),
	}

	reg.MustRegister(
		m.bytesReceived,
		m.linesReceived,
		m.recordsDecoded,
		m.parseErrors,
		m.readErrors,
		m.connects,
		m.disconnects,
		m.closeErrors,
		m.state,
		m.lastActivity,
		m.teardown,
	)
	return m
}

// ChunkReceived records n bytes arriving at t.
func (m *Metrics) ChunkReceived(n int, t time.Time) {
	if m == nil {
		return
	}
	m.bytesReceived.Add(float64(n))
	m.lastActivity.Set(float64(t.Unix()))
}

// LineReceived counts one framed line.
func (m *Metrics) LineReceived() {
	if m == nil {
		return
	}
	m.linesReceived.Inc()
}

// RecordDecoded counts one sensor record.
func (m *Metrics) RecordDecoded() {
	if m == nil {
		return
	}
	m.recordsDecoded.Inc()
}

// ParseFailed counts one rejected structured line.
func (m *Metrics) ParseFailed() {
	if m == nil {
		return
	}
	m.parseErrors.Inc()
}

// ReadFailed counts one read loop ending in error.
func (m *Metrics) ReadFailed() {
	if m == nil {
		return
	}
	m.readErrors.Inc()
}

// ConnectAttempt counts a connection attempt; ok selects the result label.
func (m *Metrics) ConnectAttempt(ok bool) {
	if m == nil {
		return
	}
	result := "error"
	if ok {
		result = "ok"
	}
	m.connects.WithLabelValues(result).Inc()
}

// Disconnected records a completed teardown that took d.
func (m *Metrics) Disconnected(d time.Duration) {
	if m == nil {
		return
	}
	m.disconnects.Inc()
	m.teardown.Observe(d.Seconds())
}

// CloseFailed counts a transport close error.
func (m *Metrics) CloseFailed() {
	if m == nil {
		return
	}
	m.closeErrors.Inc()
}

// SetState publishes the numeric connection state.
func (m *Metrics) SetState(state int) {
	if m == nil {
		return
	}
	m.state.Set(float64(state))
}
