package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "uikit"

// Fetch and transform outcome labels.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	ResultChanged   = "changed"
	ResultUnchanged = "unchanged"
	ResultFailed    = "failed"
)

// Metrics holds the counters recorded during one command run.
type Metrics struct {
	fetchTotal      *prometheus.CounterVec
	fetchDuration   prometheus.Histogram
	itemsTotal      prometheus.Counter
	transformsTotal *prometheus.CounterVec
}

// NewMetrics registers the uikit collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		fetchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "registry_fetch_total",
			Help:      "Total number of registry fetches by status",
		}, []string{"status"}),

		fetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Registry fetch duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		itemsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "registry_items_total",
			Help:      "Total number of registry items merged",
		}),

		transformsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "transform_files_total",
			Help:      "Total number of transformed files by result",
		}, []string{"result"}),
	}
}

// RecordFetch records one registry fetch.
func (m *Metrics) RecordFetch(err error, d time.Duration) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.fetchTotal.WithLabelValues(status).Inc()
	m.fetchDuration.Observe(d.Seconds())
}

// RecordItems adds n merged items.
func (m *Metrics) RecordItems(n int) {
	if m == nil {
		return
	}
	m.itemsTotal.Add(float64(n))
}

// RecordTransform records one file outcome (changed, unchanged, failed).
func (m *Metrics) RecordTransform(result string) {
	if m == nil {
		return
	}
	m.transformsTotal.WithLabelValues(result).Inc()
}

// WriteFile writes every metric gathered by g to path in the text
// exposition format.
func WriteFile(g prometheus.Gatherer, path string) error {
	return prometheus.WriteToTextfile(path, g)
}
