package log

// Keys follow a dotted hierarchy ("model.name", "data.samples") so records
// from different components can be filtered the same way.

// Model and operation context.
const (
	// ModelNameKey identifies the algorithm type, e.g. "Covariance".
	ModelNameKey = "model.name"

	// OperationKey is the operation being performed, see the Operation* values.
	OperationKey = "ml.operation"

	// ComponentKey identifies the package emitting the record.
	ComponentKey = "ml.component"
)

// Data shape.
const (
	SamplesKey    = "data.samples"
	FeaturesKey   = "data.features"
	ComponentsKey = "data.components"
)

// Linear algebra and kernel context.
const (
	// FactorizationKey records which path produced a transformer: "cholesky" or "eigen".
	FactorizationKey = "linalg.factorization"

	// ClippedKey is the number of negative eigenvalues clipped to zero.
	ClippedKey = "linalg.clipped"

	// MinEigenvalueKey is the smallest eigenvalue seen during factorization.
	MinEigenvalueKey = "linalg.min_eigenvalue"

	// KernelKey is the configured kernel name ("rbf", "poly", "callable", ...).
	KernelKey = "kernel.name"
)

// Performance and errors.
const (
	DurationMsKey = "perf.duration_ms"
	ErrorCodeKey  = "error.code"
)

// Standard attribute values.
const (
	OperationFit         = "fit"
	OperationMetric      = "metric"
	OperationTransformer = "transformer"
	OperationTransform   = "transform"

	ErrorNotFitted    = "NOT_FITTED"
	ErrorInvalidInput = "INVALID_INPUT"
	ErrorPanic        = "PANIC"
	ErrorInternal     = "INTERNAL"
)
