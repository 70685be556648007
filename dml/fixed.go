package dml

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-dml/core/model"
	"github.com/YuminosukeSato/scigo-dml/pkg/errors"
)

var (
	_ model.MetricLearner  = (*Fixed)(nil)
	_ model.WeightExporter = (*Fixed)(nil)
)

// Fixed wraps a metric or transformer learned elsewhere. Fit records the
// given geometry together with the training data.
type Fixed struct {
	Base

	initMetric      mat.Matrix
	initTransformer mat.Matrix
}

// NewFixedMetric creates a model that fits to the metric M.
func NewFixedMetric(M mat.Matrix, opts ...Option) *Fixed {
	f := &Fixed{initMetric: M}
	f.Init("Fixed", opts...)
	return f
}

// NewFixedTransformer creates a model that fits to the transformer L.
func NewFixedTransformer(L mat.Matrix, opts ...Option) *Fixed {
	f := &Fixed{initTransformer: L}
	f.Init("Fixed", opts...)
	return f
}

// Fit records the configured geometry. X may be nil, in which case
// Transform(nil) is unavailable. y is ignored.
func (f *Fixed) Fit(X, _ mat.Matrix) (err error) {
	defer errors.Recover(&err, "Fixed.Fit")

	if f.initMetric != nil {
		return f.SetMetric(f.initMetric, X)
	}
	return f.SetTransformer(f.initTransformer, X)
}
