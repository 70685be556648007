package linalg

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-dml/pkg/errors"
)

func TestPseudoInverseInvertible(t *testing.T) {
	A := mat.NewDense(2, 2, []float64{4, 1, 1, 3})

	pinv, rank, err := PseudoInverse(A)
	require.NoError(t, err)
	assert.Equal(t, 2, rank)

	var want mat.Dense
	require.NoError(t, want.Inverse(A))
	assert.True(t, mat.EqualApprox(&want, pinv, 1e-12))
}

func TestPseudoInverseSingular(t *testing.T) {
	// rank one: A = v vᵀ with v = (1, 1)
	A := mat.NewDense(2, 2, []float64{1, 1, 1, 1})

	pinv, rank, err := PseudoInverse(A)
	require.NoError(t, err)
	assert.Equal(t, 1, rank)

	// A⁺ = A / 4 for this matrix
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, 0.25, pinv.At(i, j), 1e-12)
		}
	}

	// Penrose condition A·A⁺·A = A
	var tmp, back mat.Dense
	tmp.Mul(A, pinv)
	back.Mul(&tmp, A)
	assert.True(t, mat.EqualApprox(A, &back, 1e-12))
}

func TestPseudoInverseRectangular(t *testing.T) {
	A := mat.NewDense(3, 2, []float64{1, 0, 0, 1, 0, 0})

	pinv, rank, err := PseudoInverse(A)
	require.NoError(t, err)
	assert.Equal(t, 2, rank)

	r, c := pinv.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
	assert.True(t, mat.EqualApprox(mat.NewDense(2, 3, []float64{1, 0, 0, 0, 1, 0}), pinv, 1e-12))
}

func TestPseudoInverseRejectsNaN(t *testing.T) {
	A := mat.NewDense(1, 1, []float64{math.NaN()})
	_, _, err := PseudoInverse(A)
	var numErr *errors.NumericalInstabilityError
	assert.True(t, errors.As(err, &numErr))
}
