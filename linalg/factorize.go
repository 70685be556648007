package linalg

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-dml/core/validation"
	"github.com/YuminosukeSato/scigo-dml/pkg/errors"
)

// SymmetryTol is the relative tolerance used to accept a matrix as symmetric.
const SymmetryTol = 1e-8

// clipTol is the relative magnitude below which a negative eigenvalue is
// treated as rounding noise of a PSD matrix rather than true indefiniteness.
const clipTol = 1e-8

// Method identifies which factorization produced a transformer.
type Method int

const (
	// MethodCholesky is the primary path, valid for positive definite input.
	MethodCholesky Method = iota
	// MethodEigen is the eigendecomposition fallback.
	MethodEigen
)

func (m Method) String() string {
	switch m {
	case MethodCholesky:
		return "cholesky"
	case MethodEigen:
		return "eigen"
	default:
		return "unknown"
	}
}

// Factor is the result of Factorize.
type Factor struct {
	// L satisfies LᵀL ≈ M. It is d×d on both paths.
	L *mat.Dense

	// Method is the path that produced L.
	Method Method

	// Clipped counts eigenvalues that were clearly negative (not rounding
	// noise) and were set to zero. Always 0 for MethodCholesky.
	Clipped int

	// MinEigenvalue is the smallest eigenvalue of M. Only set for MethodEigen.
	MinEigenvalue float64
}

// Factorize returns a transformer L with LᵀL ≈ M.
//
// For positive definite M the result is the upper Cholesky factor U
// (M = UᵀU). Otherwise L = diag(√λ⁺)·Vᵀ where M = V·diag(λ)·Vᵀ and
// λ⁺ = max(λ, 0); rows are ordered by decreasing eigenvalue, so zero rows of
// a rank-deficient M come last. M is not modified.
func Factorize(M mat.Matrix) (*Factor, error) {
	const op = "linalg.Factorize"

	sym, err := Symmetrize(op, M)
	if err != nil {
		return nil, err
	}

	var chol mat.Cholesky
	if chol.Factorize(sym) {
		var u mat.TriDense
		chol.UTo(&u)
		return &Factor{L: mat.DenseCopyOf(&u), Method: MethodCholesky}, nil
	}

	return eigenFactor(op, sym)
}

// MetricToTransformer is Factorize without the diagnostics.
func MetricToTransformer(M mat.Matrix) (*mat.Dense, error) {
	f, err := Factorize(M)
	if err != nil {
		return nil, err
	}
	return f.L, nil
}

func eigenFactor(op string, sym *mat.SymDense) (*Factor, error) {
	values, vectors, err := eigenSym(op, sym)
	if err != nil {
		return nil, err
	}
	n := len(values)

	maxAbs := 0.0
	for _, v := range values {
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] > values[order[b]] })

	f := &Factor{
		L:             mat.NewDense(n, n, nil),
		Method:        MethodEigen,
		MinEigenvalue: values[order[n-1]],
	}
	for row, k := range order {
		lambda := values[k]
		if lambda <= 0 {
			if lambda < -clipTol*maxAbs {
				f.Clipped++
			}
			continue
		}
		s := math.Sqrt(lambda)
		for j := 0; j < n; j++ {
			f.L.Set(row, j, s*vectors.At(j, k))
		}
	}
	return f, nil
}

func eigenSym(op string, sym *mat.SymDense) ([]float64, *mat.Dense, error) {
	var es mat.EigenSym
	if !es.Factorize(sym, true) {
		n := sym.SymmetricDim()
		return nil, nil, errors.Wrapf(errors.ErrFactorization, "%s: eigendecomposition of %dx%d matrix did not converge", op, n, n)
	}
	var vectors mat.Dense
	es.VectorsTo(&vectors)
	return es.Values(nil), &vectors, nil
}

// TransformerToMetric returns M = LᵀL. The result is exactly symmetric.
func TransformerToMetric(L mat.Matrix) *mat.Dense {
	var m mat.Dense
	m.Mul(L.T(), L)

	n, _ := m.Dims()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := 0.5 * (m.At(i, j) + m.At(j, i))
			m.Set(i, j, v)
			m.Set(j, i, v)
		}
	}
	return &m
}

// Consistent reports whether LᵀL equals M up to a relative tolerance of
// SymmetryTol scaled by the largest entry of M. Shape mismatches are
// inconsistent.
func Consistent(M, L mat.Matrix) bool {
	r, c := M.Dims()
	_, lc := L.Dims()
	if r != c || lc != r {
		return false
	}
	scale := 1.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			scale = math.Max(scale, math.Abs(M.At(i, j)))
		}
	}
	return mat.EqualApprox(TransformerToMetric(L), M, SymmetryTol*scale)
}

// ProjectPSD returns the nearest positive semi-definite matrix to M in
// Frobenius norm, V·diag(max(λ, 0))·Vᵀ. Iterative metric learners call it
// after each gradient step to stay inside the PSD cone.
func ProjectPSD(M mat.Matrix) (*mat.Dense, error) {
	const op = "linalg.ProjectPSD"

	sym, err := Symmetrize(op, M)
	if err != nil {
		return nil, err
	}
	values, vectors, err := eigenSym(op, sym)
	if err != nil {
		return nil, err
	}

	n := len(values)
	scaled := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for k := 0; k < n; k++ {
			scaled.Set(i, k, vectors.At(i, k)*math.Max(values[k], 0))
		}
	}

	var out mat.Dense
	out.Mul(scaled, vectors.T())
	return &out, nil
}

// Symmetrize validates M as a finite square symmetric matrix and returns a
// SymDense copy holding (M + Mᵀ)/2.
func Symmetrize(op string, M mat.Matrix) (*mat.SymDense, error) {
	if validation.IsNil(M) {
		return nil, errors.NewMalformedMatrixError(op, 0, 0, "matrix is nil")
	}
	if d, ok := M.(*mat.Dense); ok && (d == nil || d.IsEmpty()) {
		return nil, errors.NewMalformedMatrixError(op, 0, 0, "matrix is empty")
	}
	r, c := M.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewMalformedMatrixError(op, r, c, "matrix is empty")
	}
	if r != c {
		return nil, errors.NewMalformedMatrixError(op, r, c, "matrix is not square")
	}
	if err := errors.CheckMatrix(op, M, r, c); err != nil {
		return nil, errors.NewMalformedMatrixError(op, r, c, "matrix contains NaN or Inf")
	}

	sym := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		sym.SetSym(i, i, M.At(i, i))
		for j := i + 1; j < r; j++ {
			a, b := M.At(i, j), M.At(j, i)
			scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
			if math.Abs(a-b) > SymmetryTol*scale {
				return nil, errors.NewMalformedMatrixError(op, r, c, "matrix is not symmetric")
			}
			sym.SetSym(i, j, 0.5*(a+b))
		}
	}
	return sym, nil
}
