// Package metrics は学習済み空間での距離計算を提供する
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-dml/core/parallel"
	"github.com/YuminosukeSato/scigo-dml/pkg/errors"
)

// 行数がこの値以下の場合は逐次処理する
const parallelThreshold = 256

// SquaredEuclidean は二乗ユークリッド距離 ‖x - y‖² を計算する
func SquaredEuclidean(x, y []float64) float64 {
	var sum float64
	for i := range x {
		diff := x[i] - y[i]
		sum += diff * diff
	}
	return sum
}

// EuclideanDistances は X の各行と Y の各行の間のユークリッド距離行列を計算する
//
// Y が nil の場合は Y = X とする。結果は (X の行数)×(Y の行数)
func EuclideanDistances(X, Y mat.Matrix) (*mat.Dense, error) {
	if X == nil {
		return nil, errors.NewInvalidInputError("EuclideanDistances", "nil input", nil)
	}
	if Y == nil {
		Y = X
	}

	rx, cx := X.Dims()
	ry, cy := Y.Dims()
	if rx == 0 || cx == 0 || ry == 0 || cy == 0 {
		return nil, errors.NewInvalidInputError("EuclideanDistances", "empty matrix", errors.ErrEmptyData)
	}
	if cx != cy {
		return nil, errors.NewInvalidInputError("EuclideanDistances", "feature count mismatch",
			errors.NewDimensionError("EuclideanDistances", cx, cy, 1))
	}

	yRows := make([][]float64, ry)
	for j := range yRows {
		yRows[j] = mat.Row(nil, j, Y)
	}

	D := mat.NewDense(rx, ry, nil)
	parallel.ParallelizeWithThreshold(rx, parallelThreshold, func(start, end int) {
		x := make([]float64, cx)
		for i := start; i < end; i++ {
			mat.Row(x, i, X)
			out := D.RawRowView(i)
			for j, y := range yRows {
				out[j] = floats.Distance(x, y, 2)
			}
		}
	})
	return D, nil
}

// Mahalanobis は計量 M の下での距離 √((x-y)ᵀ M (x-y)) を計算する
//
// M は半正定値であることを前提とする。丸め誤差による負の二次形式は 0 とする
func Mahalanobis(x, y []float64, M mat.Matrix) (float64, error) {
	if len(x) != len(y) {
		return 0, errors.NewInvalidInputError("Mahalanobis", "vector length mismatch",
			errors.NewDimensionError("Mahalanobis", len(x), len(y), 0))
	}
	r, c := M.Dims()
	if r != c || r != len(x) {
		return 0, errors.NewInvalidInputError("Mahalanobis", "metric does not match vector length",
			errors.NewDimensionError("Mahalanobis", len(x), r, 0))
	}

	diff := make([]float64, len(x))
	floats.SubTo(diff, x, y)
	dv := mat.NewVecDense(len(diff), diff)

	q := mat.Inner(dv, M, dv)
	if err := errors.CheckScalar("Mahalanobis", q); err != nil {
		return 0, errors.NewInvalidInputError("Mahalanobis", "non-finite distance", err)
	}
	return math.Sqrt(math.Max(q, 0)), nil
}
