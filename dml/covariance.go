package dml

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/scigo-dml/core/model"
	"github.com/YuminosukeSato/scigo-dml/core/validation"
	"github.com/YuminosukeSato/scigo-dml/linalg"
	"github.com/YuminosukeSato/scigo-dml/pkg/errors"
	"github.com/YuminosukeSato/scigo-dml/pkg/log"
)

var (
	_ model.MetricLearner  = (*Covariance)(nil)
	_ model.WeightExporter = (*Covariance)(nil)
)

// Covariance learns the inverse of the sample covariance matrix, M = Σ⁺.
// Projecting with the resulting transformer whitens the training data.
//
// Singular covariance matrices are handled with the Moore-Penrose
// pseudo-inverse. Such a metric is only semi-definite, so its transformer
// usually comes from the eigen fallback of the factorization.
type Covariance struct {
	Base

	rank     int
	nSamples int
}

// NewCovariance creates an unfitted Covariance model.
func NewCovariance(opts ...Option) *Covariance {
	c := &Covariance{}
	c.Init("Covariance", opts...)
	return c
}

// Fit computes M = pinv(cov(X)). y is ignored. At least two samples are needed.
func (c *Covariance) Fit(X, _ mat.Matrix) (err error) {
	const op = "Covariance.Fit"
	defer errors.Recover(&err, op)

	data, err := validation.CheckArray(op, X)
	if err != nil {
		return err
	}
	n, d := data.Dims()
	if n < 2 {
		return errors.NewInvalidInputError(op, "at least two samples are required",
			errors.NewDimensionError(op, 2, n, 0))
	}
	if c.logger != nil {
		c.logger.Info("fit started",
			log.OperationKey, log.OperationFit,
			log.SamplesKey, n,
			log.FeaturesKey, d,
		)
	}

	cov := mat.NewSymDense(d, nil)
	stat.CovarianceMatrix(cov, data, nil)

	pinv, rank, err := linalg.PseudoInverse(cov)
	if err != nil {
		return err
	}
	M := symmetricPart(pinv)

	if err := c.SetMetric(M, data); err != nil {
		return err
	}

	c.mu.Lock()
	c.rank = rank
	c.nSamples = n
	c.mu.Unlock()

	if c.logger != nil && rank < d {
		c.logger.Info("covariance is singular, using pseudo-inverse",
			log.FeaturesKey, d,
			"rank", rank,
		)
	}
	return nil
}

// Metadata reports the numerical rank of the covariance matrix and the
// number of training samples.
func (c *Covariance) Metadata() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.IsFitted() {
		return map[string]any{}
	}
	return map[string]any{
		"rank":      c.rank,
		"n_samples": c.nSamples,
	}
}

// symmetricPart returns (A + Aᵀ)/2.
func symmetricPart(A mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Add(A, A.T())
	out.Scale(0.5, &out)
	return &out
}

// ExportWeights includes the fit metadata alongside the metric.
func (c *Covariance) ExportWeights() (*model.MetricWeights, error) {
	w, err := c.Base.ExportWeights()
	if err != nil {
		return nil, err
	}
	w.Metadata = c.Metadata()
	return w, nil
}

// ImportWeights restores the metric and, when present, the fit metadata.
func (c *Covariance) ImportWeights(w *model.MetricWeights) error {
	if err := c.Base.ImportWeights(w); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.rank = intValue(w.Metadata["rank"])
	c.nSamples = intValue(w.Metadata["n_samples"])
	return nil
}

// intValue accepts both int and the float64 produced by JSON decoding.
func intValue(v any) int {
	switch x := v.(type) {
	case int:
		return x
	case float64:
		return int(x)
	}
	return 0
}
