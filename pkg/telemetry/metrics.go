// Package telemetry exposes Prometheus metrics for metric learning operations.
//
// All recording methods are nil-safe, so models built without telemetry can
// call them unconditionally.
package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Derivation kinds.
const (
	KindMetric      = "metric"
	KindTransformer = "transformer"
)

// Projection kinds.
const (
	ProjectionLinear = "linear"
	ProjectionKernel = "kernel"
)

// Metrics holds the collectors for one registry.
type Metrics struct {
	// Lazy conversions between metric and transformer
	DerivationsTotal *prometheus.CounterVec

	// Factorization path taken for metric -> transformer
	FactorizationsTotal *prometheus.CounterVec
	ClippedEigenvalues  prometheus.Counter

	// Projection metrics
	TransformsTotal   *prometheus.CounterVec
	TransformDuration *prometheus.HistogramVec
	TransformErrors   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		DerivationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dml_derivations_total",
				Help: "Total number of lazy metric/transformer derivations by model and kind",
			},
			[]string{"model", "kind"},
		),
		FactorizationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dml_factorizations_total",
				Help: "Total number of metric factorizations by method",
			},
			[]string{"method"},
		),
		ClippedEigenvalues: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dml_clipped_eigenvalues_total",
				Help: "Total number of negative eigenvalues clipped to zero",
			},
		),
		TransformsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dml_transforms_total",
				Help: "Total number of projections by model and kind",
			},
			[]string{"model", "kind"},
		),
		TransformDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dml_transform_duration_seconds",
				Help:    "Projection duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"model", "kind"},
		),
		TransformErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dml_transform_errors_total",
				Help: "Total number of failed projections by model and error type",
			},
			[]string{"model", "error_type"},
		),
	}
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns metrics registered with prometheus.DefaultRegisterer. The
// collectors are created on first use.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// RecordDerivation records a lazy derivation of kind for model.
func (m *Metrics) RecordDerivation(model, kind string) {
	if m == nil {
		return
	}
	m.DerivationsTotal.WithLabelValues(model, kind).Inc()
}

// RecordFactorization records the path taken and how many eigenvalues were clipped.
func (m *Metrics) RecordFactorization(method string, clipped int) {
	if m == nil {
		return
	}
	m.FactorizationsTotal.WithLabelValues(method).Inc()
	if clipped > 0 {
		m.ClippedEigenvalues.Add(float64(clipped))
	}
}

// RecordTransform records a successful projection.
func (m *Metrics) RecordTransform(model, kind string, duration time.Duration) {
	if m == nil {
		return
	}
	m.TransformsTotal.WithLabelValues(model, kind).Inc()
	m.TransformDuration.WithLabelValues(model, kind).Observe(duration.Seconds())
}

// RecordTransformError records a failed projection.
func (m *Metrics) RecordTransformError(model, errorType string) {
	if m == nil {
		return
	}
	m.TransformErrors.WithLabelValues(model, errorType).Inc()
}
