// Package metrics owns calclog's Prometheus registry and collectors. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "calclog"

// Submission paths.
const (
	PathHTTP = "http"
	PathPush = "push"
)

// Submission outcomes.
const (
	OutcomeValid      = "valid"
	OutcomeInvalid    = "invalid"
	OutcomeEmpty      = "empty"
	OutcomeSuppressed = "suppressed"
	OutcomeRejected   = "rejected"
	OutcomeError      = "error"
)

// Metrics holds every collector exported by the process.
type Metrics struct {
	registry *prometheus.Registry

	submissions        *prometheus.CounterVec
	deliveries         *prometheus.CounterVec
	observers          prometheus.Gauge
	longPollActive     prometheus.Gauge
	longPollRecords    prometheus.Counter
	storeCommitSeconds prometheus.Histogram
	storeReadSeconds   prometheus.Histogram
	storeCommitBytes   prometheus.Counter
}

// New creates a registry with process/Go collectors and calclog metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Expression submissions by path and outcome",
		}, []string{"path", "outcome"}), // outcome: valid, invalid, empty, suppressed, rejected, error
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "deliveries_total",
			Help:      "new-log deliveries to observers by result",
		}, []string{"result"}), // result: sent, dropped
		observers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "observers",
			Help:      "Currently subscribed observers",
		}),
		longPollActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "longpoll",
			Name:      "active_streams",
			Help:      "Long-poll responses currently streaming",
		}),
		longPollRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "longpoll",
			Name:      "records_total",
			Help:      "Records written to long-poll responses",
		}),
		storeCommitSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "commit_duration_seconds",
			Help:      "Pebble batch commit latency",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		storeReadSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "read_duration_seconds",
			Help:      "Pebble point read latency",
			Buckets:   []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),
		storeCommitBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "commit_bytes_total",
			Help:      "Bytes committed to Pebble",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.submissions,
		m.deliveries,
		m.observers,
		m.longPollActive,
		m.longPollRecords,
		m.storeCommitSeconds,
		m.storeReadSeconds,
		m.storeCommitBytes,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (m *Metrics) Submission(path, outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(path, outcome).Inc()
}

func (m *Metrics) DeliverySent() {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues("sent").Inc()
}

func (m *Metrics) DeliveryDropped() {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues("dropped").Inc()
}

// ObserverAdded moves the observer gauge by delta.
func (m *Metrics) ObserverAdded(delta int) {
	if m == nil {
		return
	}
	m.observers.Add(float64(delta))
}

// LongPollStarted marks a stream as active and returns its completion func.
func (m *Metrics) LongPollStarted() func() {
	if m == nil {
		return func() {}
	}
	m.longPollActive.Inc()
	return m.longPollActive.Dec
}

func (m *Metrics) LongPollRecord() {
	if m == nil {
		return
	}
	m.longPollRecords.Inc()
}

// StoreHook adapts the store collectors to the Pebble metrics hook.
func (m *Metrics) StoreHook() StoreHook { return StoreHook{m: m} }

// StoreHook satisfies pebblestore.MetricsHook.
type StoreHook struct{ m *Metrics }

func (h StoreHook) ObserveRead(elapsed time.Duration, bytes int) {
	if h.m == nil {
		return
	}
	h.m.storeReadSeconds.Observe(elapsed.Seconds())
}

func (h StoreHook) ObserveBatchCommit(elapsed time.Duration, numOps int, bytes int) {
	if h.m == nil {
		return
	}
	h.m.storeCommitSeconds.Observe(elapsed.Seconds())
	h.m.storeCommitBytes.Add(float64(bytes))
}
