package kernel

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-dml/core/parallel"
	"github.com/YuminosukeSato/scigo-dml/pkg/errors"
)

// parallelThreshold is the row count below which Gram matrices are built on
// the calling goroutine.
const parallelThreshold = 64

// Pairwise computes the Gram matrix K[i,j] = k(X[i], Y[j]) for a named
// kernel. Y == nil means Y = X. params is filtered with FilterParams first.
//
// For Precomputed, X is returned as a copy after checking that its column
// count matches the row count of Y (or that X is square when Y is nil).
func Pairwise(X, Y mat.Matrix, name Name, params map[string]any) (*mat.Dense, error) {
	const op = "kernel.Pairwise"

	if _, ok := acceptedParams[name]; !ok {
		return nil, errors.NewValidationError("kernel", "unknown kernel name", string(name))
	}
	if Y == nil {
		Y = X
	}

	if name == Precomputed {
		_, xc := X.Dims()
		yr, _ := Y.Dims()
		if xc != yr {
			return nil, errors.NewInvalidInputError(op,
				"precomputed kernel must have one column per reference sample",
				errors.NewDimensionError(op, yr, xc, 1))
		}
		return mat.DenseCopyOf(X), nil
	}

	_, xc := X.Dims()
	_, yc := Y.Dims()
	if xc != yc {
		return nil, errors.NewInvalidInputError(op, "feature count mismatch",
			errors.NewDimensionError(op, yc, xc, 1))
	}
	if name == Chi2 || name == AdditiveChi2 {
		if err := checkNonNegative(op, X); err != nil {
			return nil, err
		}
		if err := checkNonNegative(op, Y); err != nil {
			return nil, err
		}
	}

	fn, err := resolve(name, FilterParams(name, params), xc)
	if err != nil {
		return nil, err
	}
	return gram(X, Y, fn), nil
}

// PairwiseFunc computes the Gram matrix of a user-supplied kernel. params is
// passed to fn unchanged.
func PairwiseFunc(X, Y mat.Matrix, fn Func, params map[string]any) (*mat.Dense, error) {
	const op = "kernel.PairwiseFunc"

	if fn == nil {
		return nil, errors.NewValidationError("kernel", "callable kernel is nil", nil)
	}
	if Y == nil {
		Y = X
	}
	_, xc := X.Dims()
	_, yc := Y.Dims()
	if xc != yc {
		return nil, errors.NewInvalidInputError(op, "feature count mismatch",
			errors.NewDimensionError(op, yc, xc, 1))
	}

	K := gram(X, Y, func(x, y []float64) float64 { return fn(x, y, params) })
	r, c := K.Dims()
	if err := errors.CheckMatrix(op, K, r, c); err != nil {
		return nil, errors.NewInvalidInputError(op, "callable kernel returned non-finite values", err)
	}
	return K, nil
}

// gram evaluates fn over every row pair. Rows of X are split across
// goroutines; each goroutine writes only its own rows of K.
func gram(X, Y mat.Matrix, fn pairFunc) *mat.Dense {
	xRows := rows(X)
	yRows := rows(Y)
	K := mat.NewDense(len(xRows), len(yRows), nil)

	parallel.ParallelizeWithThreshold(len(xRows), parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			out := K.RawRowView(i)
			for j, y := range yRows {
				out[j] = fn(xRows[i], y)
			}
		}
	})
	return K
}

func rows(m mat.Matrix) [][]float64 {
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}

func checkNonNegative(op string, m mat.Matrix) error {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if m.At(i, j) < 0 {
				return errors.NewInvalidInputError(op, "chi2 kernels require non-negative input", nil)
			}
		}
	}
	return nil
}
