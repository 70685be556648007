package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	t.Run("RecordDerivation", func(t *testing.T) {
		m.RecordDerivation("Fixed", KindTransformer)
		m.RecordDerivation("Fixed", KindTransformer)
		m.RecordDerivation("Euclidean", KindMetric)

		assert.Equal(t, 2.0, testutil.ToFloat64(m.DerivationsTotal.WithLabelValues("Fixed", KindTransformer)))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.DerivationsTotal.WithLabelValues("Euclidean", KindMetric)))
	})

	t.Run("RecordFactorization", func(t *testing.T) {
		m.RecordFactorization("cholesky", 0)
		m.RecordFactorization("eigen", 2)

		assert.Equal(t, 1.0, testutil.ToFloat64(m.FactorizationsTotal.WithLabelValues("cholesky")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.FactorizationsTotal.WithLabelValues("eigen")))
		assert.Equal(t, 2.0, testutil.ToFloat64(m.ClippedEigenvalues))
	})

	t.Run("RecordTransform", func(t *testing.T) {
		m.RecordTransform("KernelFixed", ProjectionKernel, 3*time.Millisecond)
		m.RecordTransformError("KernelFixed", "INVALID_INPUT")

		assert.Equal(t, 1.0, testutil.ToFloat64(m.TransformsTotal.WithLabelValues("KernelFixed", ProjectionKernel)))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.TransformErrors.WithLabelValues("KernelFixed", "INVALID_INPUT")))
		assert.Equal(t, 1, testutil.CollectAndCount(m.TransformDuration))
	})

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Greater(t, n, 0)
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordDerivation("Fixed", KindMetric)
		m.RecordFactorization("eigen", 1)
		m.RecordTransform("Fixed", ProjectionLinear, time.Millisecond)
		m.RecordTransformError("Fixed", "NOT_FITTED")
	})
}

func TestDefaultIsSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
}
