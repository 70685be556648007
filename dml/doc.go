// Package dml provides the shared core of distance metric learning algorithms.
//
// A distance metric learner produces either a positive semi-definite
// Mahalanobis matrix M or a linear transformation L of the input space; the
// two are interchangeable through M = LᵀL, and the learned distance is
//
//	d(x, y) = √((x-y)ᵀ M (x-y)) = ‖Lx - Ly‖
//
// Base stores whichever of the two a fitting procedure produced and derives
// the other lazily, at most once per fit:
//
//   - Metric() computes LᵀL from a stored transformer.
//   - Transformer() factorizes a stored metric, using a Cholesky
//     decomposition when M is positive definite and an eigendecomposition
//     (negative eigenvalues clipped to zero) otherwise.
//   - Transform(X) projects data as X·Lᵀ.
//
// KernelBase is the kernelized variant: L acts on the Gram matrix of the
// data against the training set, and Transform(X) returns K(X, X_train)·Lᵀ.
//
// Base and KernelBase do not implement Fit and so are not usable on their
// own. Concrete algorithms embed one of them and set the learned geometry
// through SetMetric or SetTransformer. The package ships closed-form
// algorithms that work this way:
//
//	alg := dml.NewCovariance()
//	if err := alg.Fit(X, nil); err != nil {
//		log.Fatal(err)
//	}
//	projected, err := alg.Transform(nil) // training data, whitened
//
// All methods are safe for concurrent use.
package dml
