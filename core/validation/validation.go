// Package validation coerces caller data into 2-D matrices and rejects
// malformed input before it reaches the numerical code.
package validation

import (
	"reflect"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-dml/pkg/errors"
)

// CheckArray validates X as a finite, non-empty 2-D numeric array.
//
// Accepted inputs are any mat.Matrix implementation (dense or sparse types
// that satisfy the interface are used as-is, without copying) and
// [][]float64, which is copied into a *mat.Dense. Every failure is an
// *errors.InvalidInputError.
func CheckArray(op string, X interface{}) (mat.Matrix, error) {
	if IsNil(X) {
		return nil, errors.NewInvalidInputError(op, "nil input", nil)
	}

	var m mat.Matrix
	switch v := X.(type) {
	case *mat.Dense:
		if v == nil || v.IsEmpty() {
			return nil, errors.NewInvalidInputError(op, "empty matrix", errors.ErrEmptyData)
		}
		m = v
	case mat.Matrix:
		m = v
	case [][]float64:
		dense, err := fromRows(op, v)
		if err != nil {
			return nil, err
		}
		m = dense
	case []float64:
		return nil, errors.NewInvalidInputError(op,
			"expected 2-D array, got 1-D; reshape to a single row or column", nil)
	default:
		return nil, errors.NewInvalidInputError(op, "unsupported input type", errors.Newf("%T", X))
	}

	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewInvalidInputError(op, "empty matrix", errors.ErrEmptyData)
	}
	if err := errors.CheckMatrix(op, m, r, c); err != nil {
		return nil, errors.NewInvalidInputError(op, "input contains NaN or Inf", err)
	}
	return m, nil
}

// IsNil reports whether v is nil or a nil pointer, map, slice or interface
// held in a non-nil interface (for example a (*mat.VecDense)(nil) passed as
// mat.Matrix).
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func fromRows(op string, rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.NewInvalidInputError(op, "empty matrix", errors.ErrEmptyData)
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for _, row := range rows {
		if len(row) != cols {
			return nil, errors.NewInvalidInputError(op, "ragged rows",
				errors.NewDimensionError(op, cols, len(row), 1))
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

// CheckFeatures returns an InvalidInputError when X does not have the
// expected number of columns.
func CheckFeatures(op string, X mat.Matrix, expected int) error {
	_, c := X.Dims()
	if c != expected {
		return errors.NewInvalidInputError(op, "feature count mismatch",
			errors.NewDimensionError(op, expected, c, 1))
	}
	return nil
}
