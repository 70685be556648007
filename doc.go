// Package scigodml is the core of a distance metric learning library for Go.
//
// A learned distance is described either by a positive semi-definite
// Mahalanobis matrix M or by a linear map L with M = LᵀL. Algorithms record
// whichever they learn, and the other is derived on demand. Learned models
// project data into a space where plain Euclidean distance equals the
// learned distance, so they can feed any distance-based method downstream.
//
// # Packages
//
//   - dml: metric learner base types (linear and kernelized) and the
//     closed-form Euclidean, Covariance and Fixed algorithms
//   - kernel: named and callable kernels with parameter filtering
//   - linalg: metric/transformer conversion, factorization, pseudo-inverse
//   - metrics: Euclidean and Mahalanobis distances
//   - core/model: lifecycle interfaces, fit state and weight persistence
//   - plot: scatter plots of projected data
//   - pkg/errors, pkg/log, pkg/telemetry: error types, structured logging
//     and Prometheus metrics
//
// # Installation
//
//	go get github.com/YuminosukeSato/scigo-dml
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/scigo-dml/dml"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(4, 2, []float64{
//	        1, 2,
//	        2, 4.1,
//	        3, 5.9,
//	        4, 8.2,
//	    })
//
//	    alg := dml.NewCovariance()
//	    if err := alg.Fit(X, nil); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    L, err := alg.Transformer()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(mat.Formatted(L))
//
//	    d, _ := alg.Distance(X.RawRowView(0), X.RawRowView(3))
//	    fmt.Printf("learned distance: %.3f\n", d)
//	}
//
// # Error Handling
//
// Errors are built on github.com/cockroachdb/errors and carry stack traces:
//
//	if _, err := alg.Transform(X); err != nil {
//	    var nf *errors.NotFittedError
//	    if errors.As(err, &nf) {
//	        // fit first
//	    }
//	    log.Printf("%+v", err)
//	}
//
// Metrics that are not positive semi-definite are factorized with their
// negative eigenvalues clipped, and an IndefiniteMetricWarning is logged.
//
// # Observability
//
// Logging goes through pkg/log (zerolog JSON lines, warn level by default).
// Prometheus counters and histograms are enabled per model with
// dml.WithTelemetry(telemetry.Default()).
package scigodml
