package dml

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-dml/core/model"
	"github.com/YuminosukeSato/scigo-dml/core/validation"
	"github.com/YuminosukeSato/scigo-dml/kernel"
	"github.com/YuminosukeSato/scigo-dml/linalg"
	"github.com/YuminosukeSato/scigo-dml/pkg/errors"
	"github.com/YuminosukeSato/scigo-dml/pkg/log"
	"github.com/YuminosukeSato/scigo-dml/pkg/telemetry"
)

// KernelBase is the kernelized variant of Base. The transformer L is
// d'×n_train and acts on Gram matrices against the training data, so the
// training snapshot is mandatory.
//
// A kernel must be configured with SetKernel before SetMetric or
// SetTransformer.
type KernelBase struct {
	Base

	kernel kernel.Config
}

// SetKernel validates cfg and makes it the kernel used by Transform. The
// learned geometry belongs to the previous kernel, so a fitted model is reset
// and must be fitted again.
func (k *KernelBase) SetKernel(cfg kernel.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	k.mu.Lock()
	wasFitted := k.state.IsFitted()
	k.kernel = cfg
	if wasFitted {
		k.clearLocked()
	}
	k.mu.Unlock()

	if k.logger != nil {
		k.logger.Debug("kernel configured", log.KernelKey, cfg.KernelName(), "reset", wasFitted)
	}
	return nil
}

// Kernel returns the configured kernel.
func (k *KernelBase) Kernel() kernel.Config {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.kernel
}

// Pairwise reports whether inputs are precomputed Gram matrices.
func (k *KernelBase) Pairwise() bool {
	return k.Kernel().Precomputed()
}

// SetMetric records an n_train×n_train metric on the kernel space and the
// training data X. X is required.
func (k *KernelBase) SetMetric(M, X mat.Matrix) error {
	op := k.op("SetMetric")

	if _, err := linalg.Symmetrize(op, M); err != nil {
		return err
	}
	n, _ := M.Dims()
	snapshot, err := k.kernelSnapshot(op, X, n)
	if err != nil {
		return err
	}

	_, d := snapshot.Dims()
	k.replace(model.HasMetric, mat.DenseCopyOf(M), nil, snapshot, d)
	return nil
}

// SetTransformer records a d'×n_train transformer and the training data X
// (n_train×d). X is required.
func (k *KernelBase) SetTransformer(L, X mat.Matrix) error {
	op := k.op("SetTransformer")

	_, n, err := checkTransformer(op, L)
	if err != nil {
		return err
	}
	snapshot, err := k.kernelSnapshot(op, X, n)
	if err != nil {
		return err
	}

	_, d := snapshot.Dims()
	k.replace(model.HasTransform, nil, mat.DenseCopyOf(L), snapshot, d)
	return nil
}

// kernelSnapshot validates the training data against an inner dimension of n
// (the column count of L).
func (k *KernelBase) kernelSnapshot(op string, X mat.Matrix, n int) (*mat.Dense, error) {
	cfg := k.Kernel()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if X == nil {
		return nil, errors.NewInvalidInputError(op, "kernel models require their training data", nil)
	}
	data, err := validation.CheckArray(op, X)
	if err != nil {
		return nil, err
	}

	rows, cols := data.Dims()
	if rows != n {
		return nil, errors.NewInvalidInputError(op, "training data must have one row per transformer column",
			errors.NewDimensionError(op, n, rows, 0))
	}
	if cfg.Precomputed() && rows != cols {
		return nil, errors.NewInvalidInputError(op, "precomputed training kernel must be square",
			errors.NewDimensionError(op, rows, cols, 1))
	}
	return mat.DenseCopyOf(data), nil
}

// Transform projects X into the learned space, returning K(X, X_train)·Lᵀ
// (n×d'). A nil X projects the training data. With a precomputed kernel, X
// is already the n×n_train Gram matrix.
func (k *KernelBase) Transform(X mat.Matrix) (projected *mat.Dense, err error) {
	start := time.Now()
	defer func() { k.recordTransform(telemetry.ProjectionKernel, start, projected, err) }()
	defer errors.Recover(&err, k.op("Transform"))

	L, snapshot, err := k.geometry("Transform")
	if err != nil {
		return nil, err
	}
	data, err := k.input("Transform", X, snapshot)
	if err != nil {
		return nil, err
	}

	K, err := k.Kernel().Compute(data, snapshot)
	if err != nil {
		if errors.Is(err, errors.ErrInvalidInput) {
			return nil, err
		}
		return nil, errors.NewInvalidInputError(k.op("Transform"), "kernel computation failed", err)
	}

	var out mat.Dense
	out.Mul(K, L.T())
	return &out, nil
}

// PairwiseDistances returns the learned distances between the rows of X and
// the rows of Y in the kernel space.
func (k *KernelBase) PairwiseDistances(X, Y mat.Matrix) (*mat.Dense, error) {
	return pairwiseDistances(k.Transform, X, Y)
}

// Distance returns the learned distance between two samples, ‖L·k(x) - L·k(y)‖.
// With a precomputed kernel, x and y are rows of a Gram matrix.
func (k *KernelBase) Distance(x, y []float64) (float64, error) {
	if len(x) != len(y) || len(x) == 0 {
		return 0, errors.NewInvalidInputError(k.op("Distance"), "vector length mismatch",
			errors.NewDimensionError(k.op("Distance"), len(x), len(y), 0))
	}
	rows := mat.NewDense(2, len(x), nil)
	rows.SetRow(0, x)
	rows.SetRow(1, y)

	p, err := k.Transform(rows)
	if err != nil {
		return 0, err
	}
	var sum float64
	_, c := p.Dims()
	for j := 0; j < c; j++ {
		diff := p.At(0, j) - p.At(1, j)
		sum += diff * diff
	}
	return math.Sqrt(sum), nil
}

// ExportWeights returns a copy of the recorded geometry, the training data
// and the kernel configuration. Callable kernels cannot be exported.
func (k *KernelBase) ExportWeights() (*model.MetricWeights, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.kernel.IsCallable() {
		return nil, errors.NewValidationError("kernel", "callable kernels cannot be exported", kernel.CallableName)
	}
	w, err := k.exportLocked("ExportWeights")
	if err != nil {
		return nil, err
	}
	w.Kernel = string(k.kernel.Name)
	w.Hyperparameters = map[string]interface{}{
		kernel.ParamDegree: k.kernel.Degree,
		kernel.ParamCoef0:  k.kernel.Coef0,
	}
	if k.kernel.Gamma != nil {
		w.Hyperparameters[kernel.ParamGamma] = *k.kernel.Gamma
	}
	return w, nil
}

// ImportWeights restores geometry and kernel configuration exported by a
// model of the same type. The weights are checked completely before the
// kernel or the geometry is replaced; on error the model is unchanged.
func (k *KernelBase) ImportWeights(w *model.MetricWeights) error {
	if w == nil {
		return errors.NewValidationError("weights", "is nil", nil)
	}
	if err := w.Validate(); err != nil {
		return err
	}
	if w.IsFitted && w.Kernel == "" {
		return errors.NewValidationError("kernel", "kernel model needs kernel weights", w.Kernel)
	}

	var cfg *kernel.Config
	if w.Kernel != "" {
		c, err := kernelFromWeights(w)
		if err != nil {
			return err
		}
		if c.Precomputed() && w.IsFitted && len(w.Reference) != w.NFeatures {
			return errors.NewValidationError("reference", "precomputed training kernel must be square", w.NFeatures)
		}
		cfg = &c
	}
	g, err := k.decodeGeometry(w)
	if err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if cfg != nil {
		k.kernel = *cfg
	}
	g.installLocked(&k.Base)
	return nil
}

func kernelFromWeights(w *model.MetricWeights) (kernel.Config, error) {
	var opts []kernel.Option
	for key, v := range w.Hyperparameters {
		f, ok := v.(float64)
		if !ok {
			return kernel.Config{}, errors.NewValidationError(key, "kernel parameter must be numeric", v)
		}
		switch key {
		case kernel.ParamGamma:
			opts = append(opts, kernel.WithGamma(f))
		case kernel.ParamDegree:
			opts = append(opts, kernel.WithDegree(f))
		case kernel.ParamCoef0:
			opts = append(opts, kernel.WithCoef0(f))
		}
	}
	return kernel.NewConfig(kernel.Name(w.Kernel), opts...)
}
