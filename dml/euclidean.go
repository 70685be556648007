package dml

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-dml/core/model"
	"github.com/YuminosukeSato/scigo-dml/core/validation"
	"github.com/YuminosukeSato/scigo-dml/pkg/errors"
	"github.com/YuminosukeSato/scigo-dml/pkg/log"
)

var (
	_ model.MetricLearner  = (*Euclidean)(nil)
	_ model.WeightExporter = (*Euclidean)(nil)
)

// Euclidean is the identity transformation. It is the baseline against which
// learned metrics are compared.
type Euclidean struct {
	Base
}

// NewEuclidean creates an unfitted Euclidean model.
func NewEuclidean(opts ...Option) *Euclidean {
	e := &Euclidean{}
	e.Init("Euclidean", opts...)
	return e
}

// Fit records L = I_d for the d features of X. y is ignored.
func (e *Euclidean) Fit(X, _ mat.Matrix) (err error) {
	defer errors.Recover(&err, "Euclidean.Fit")

	data, err := validation.CheckArray("Euclidean.Fit", X)
	if err != nil {
		return err
	}
	r, d := data.Dims()
	if e.logger != nil {
		e.logger.Info("fit started",
			log.OperationKey, log.OperationFit,
			log.SamplesKey, r,
			log.FeaturesKey, d,
		)
	}
	return e.SetTransformer(identity(d), data)
}
