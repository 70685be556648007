// Package model defines the lifecycle contract shared by distance metric
// learning algorithms, their fitted state and the exported geometry format.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Geometry exposes the learned metric and its equivalent linear transformation.
type Geometry interface {
	// Metric returns the d×d positive semi-definite matrix M.
	Metric() (*mat.Dense, error)

	// Transformer returns the d'×d matrix L with M = LᵀL.
	Transformer() (*mat.Dense, error)

	// Metadata returns algorithm-specific information about the fit.
	Metadata() map[string]any
}

// MetricLearner is a complete distance metric learning algorithm.
//
// The shared base types in package dml provide everything except Fit, so
// only concrete algorithms satisfy this interface.
type MetricLearner interface {
	Fitter
	Projector
	Geometry

	// IsFitted reports whether Fit has completed successfully.
	IsFitted() bool
}

// KernelMetricLearner is a MetricLearner that projects in a kernel-induced space.
type KernelMetricLearner interface {
	MetricLearner

	// Pairwise reports whether inputs are precomputed Gram matrices.
	Pairwise() bool
}

// WeightExporter is the interface for models whose geometry can be exported.
type WeightExporter interface {
	// ExportWeights returns a serializable copy of the learned geometry.
	ExportWeights() (*MetricWeights, error)

	// ImportWeights restores the learned geometry.
	ImportWeights(weights *MetricWeights) error
}
