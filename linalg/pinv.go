package linalg

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-dml/pkg/errors"
)

// PseudoInverse returns the Moore-Penrose pseudo-inverse of A and its
// numerical rank. Singular values below 1e-12·max(r, c)·σmax are treated as
// zero.
func PseudoInverse(A mat.Matrix) (*mat.Dense, int, error) {
	const op = "linalg.PseudoInverse"

	r, c := A.Dims()
	if r == 0 || c == 0 {
		return nil, 0, errors.NewMalformedMatrixError(op, r, c, "empty matrix")
	}
	if err := errors.CheckMatrix(op, A, r, c); err != nil {
		return nil, 0, err
	}

	var svd mat.SVD
	if ok := svd.Factorize(A, mat.SVDThin); !ok {
		return nil, 0, errors.Wrapf(errors.ErrFactorization, "%s: SVD did not converge", op)
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	s := svd.Values(nil)

	maxS := 0.0
	for _, si := range s {
		maxS = math.Max(maxS, si)
	}
	eps := 1e-12 * math.Max(float64(r), float64(c)) * maxS

	rank := 0
	sp := mat.NewDiagDense(len(s), nil)
	for i, si := range s {
		if si > eps {
			sp.SetDiag(i, 1/si)
			rank++
		}
	}

	var vSp, pinv mat.Dense
	vSp.Mul(&v, sp)
	pinv.Mul(&vSp, u.T())
	return &pinv, rank, nil
}
