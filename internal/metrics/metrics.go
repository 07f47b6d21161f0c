// Package metrics provides Prometheus metrics for the feed manager and the
// engine facade.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names.
const (
	MetricBatches          = "feedsync_batches_total"
	MetricDocumentsAdded   = "feedsync_documents_added_total"
	MetricDocumentsClosed  = "feedsync_documents_closed_total"
	MetricFailures         = "feedsync_failures_total"
	MetricRollbacks        = "feedsync_rollbacks_total"
	MetricEngineCallLength = "feedsync_engine_call_seconds"
)

// Metrics contains the feedsync collectors. All methods are safe for
// concurrent use and are no-ops on a nil *Metrics.
type Metrics struct {
	batches         prometheus.Counter
	documentsAdded  prometheus.Counter
	documentsClosed prometheus.Counter
	failures        *prometheus.CounterVec
	rollbacks       prometheus.Counter
	engineCalls     *prometheus.HistogramVec
}

// NewMetrics creates the collectors. They are not registered; call Register.
func NewMetrics() *Metrics {
	return &Metrics{
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricBatches,
			Help: "Total number of feed batches persisted",
		}),
		documentsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricDocumentsAdded,
			Help: "Total number of documents added to the store",
		}),
		documentsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricDocumentsClosed,
			Help: "Total number of documents closed by the user",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricFailures,
			Help: "Total number of failed client events by reason",
		}, []string{"reason"}),
		rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRollbacks,
			Help: "Total number of batch writes rolled back",
		}),
		engineCalls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricEngineCallLength,
			Help:    "Histogram of engine call latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.batches,
		m.documentsAdded,
		m.documentsClosed,
		m.failures,
		m.rollbacks,
		m.engineCalls,
	}
}

// RecordBatch counts a persisted batch of n documents.
func (m *Metrics) RecordBatch(n int) {
	if m == nil {
		return
	}
	m.batches.Inc()
	m.documentsAdded.Add(float64(n))
}

// AddDocumentsClosed counts closed documents.
func (m *Metrics) AddDocumentsClosed(n int) {
	if m == nil {
		return
	}
	m.documentsClosed.Add(float64(n))
}

// IncFailure counts a failed event.
func (m *Metrics) IncFailure(reason string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(reason).Inc()
}

// IncRollbacks counts a rolled back batch write.
func (m *Metrics) IncRollbacks() {
	if m == nil {
		return
	}
	m.rollbacks.Inc()
}

// ObserveEngineCall records the latency of one engine operation.
func (m *Metrics) ObserveEngineCall(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.engineCalls.WithLabelValues(operation).Observe(d.Seconds())
}
