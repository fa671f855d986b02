package assetstore

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments adapter operations. All methods are nil-safe so the
// adapter can run without a registry.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	bytes      *prometheus.HistogramVec
	variants   *prometheus.CounterVec
}

// NewMetrics registers the adapter's collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "assetstore_operations_total",
			Help: "Total number of storage adapter operations",
		}, []string{"operation", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assetstore_operation_duration_seconds",
			Help:    "Storage adapter operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		bytes: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assetstore_operation_bytes",
			Help:    "Payload size of storage adapter operations in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 10, 7),
		}, []string{"operation"}),
		variants: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "assetstore_variants_total",
			Help: "Total number of derivative generation attempts",
		}, []string{"status"}),
	}
}

func (m *Metrics) observe(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.operations.WithLabelValues(operation, status).Inc()
	m.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeBytes(operation string, n int64) {
	if m == nil || n < 0 {
		return
	}
	m.bytes.WithLabelValues(operation).Observe(float64(n))
}

func (m *Metrics) observeVariant(err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.variants.WithLabelValues(status).Inc()
}
