package dml

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-dml/core/model"
	"github.com/YuminosukeSato/scigo-dml/kernel"
	"github.com/YuminosukeSato/scigo-dml/pkg/errors"
	"github.com/YuminosukeSato/scigo-dml/pkg/log"
)

var (
	_ model.KernelMetricLearner = (*KernelFixed)(nil)
	_ model.WeightExporter      = (*KernelFixed)(nil)
)

// KernelFixed wraps a kernel-space transformer learned elsewhere. L is
// d'×n_train and Fit must be given the n_train training samples it was
// learned on.
type KernelFixed struct {
	KernelBase

	initTransformer mat.Matrix
}

// NewKernelFixed creates a model with kernel cfg that fits to L. The kernel
// configuration is validated here.
func NewKernelFixed(cfg kernel.Config, L mat.Matrix, opts ...Option) (*KernelFixed, error) {
	k := &KernelFixed{initTransformer: L}
	k.Init("KernelFixed", opts...)
	if err := k.SetKernel(cfg); err != nil {
		return nil, err
	}
	return k, nil
}

// Fit records L with X as the training data. y is ignored.
func (k *KernelFixed) Fit(X, _ mat.Matrix) (err error) {
	defer errors.Recover(&err, "KernelFixed.Fit")

	if err := k.SetTransformer(k.initTransformer, X); err != nil {
		return err
	}
	if k.logger != nil {
		k.logger.Info("fit completed",
			log.OperationKey, log.OperationFit,
			log.KernelKey, k.Kernel().KernelName(),
			log.FeaturesKey, k.NFeatures(),
			log.ComponentsKey, k.NComponents(),
		)
	}
	return nil
}
