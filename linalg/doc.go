// Package linalg factorizes Mahalanobis metric matrices.
//
// Factorize turns a symmetric metric M into a transformer L with LᵀL = M.
// It tries a Cholesky decomposition first and, when M is only positive
// semi-definite or slightly indefinite from rounding, falls back to a
// symmetric eigendecomposition with negative eigenvalues clipped to zero.
// The fallback is an expected outcome, not an error: only precondition
// violations (non-square, non-symmetric, non-finite, empty input) fail, with
// *errors.MalformedMatrixError.
//
//	f, err := linalg.Factorize(M)
//	if err != nil {
//	    return err // caller bug: M was malformed
//	}
//	L := f.L // d×d, f.Method reports which path produced it
package linalg
