package dml

import (
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-dml/core/model"
	"github.com/YuminosukeSato/scigo-dml/core/validation"
	"github.com/YuminosukeSato/scigo-dml/linalg"
	"github.com/YuminosukeSato/scigo-dml/metrics"
	"github.com/YuminosukeSato/scigo-dml/pkg/errors"
	"github.com/YuminosukeSato/scigo-dml/pkg/log"
	"github.com/YuminosukeSato/scigo-dml/pkg/telemetry"
)

const defaultName = "DML"

// Base holds the learned geometry of a distance metric learner: the metric
// M, the transformer L, or both, together with a snapshot of the training
// data.
//
// Base has no Fit method. Algorithms embed it, call Init from their
// constructor and record their result with SetMetric or SetTransformer.
// Derived values are cached until the next SetMetric, SetTransformer,
// ImportWeights or Reset. Returned matrices are shared with the cache and
// must not be modified.
type Base struct {
	mu sync.Mutex

	name  string
	state model.State

	metric      *mat.Dense
	transformer *mat.Dense
	snapshot    *mat.Dense
	nFeatures   int

	// clipped is set when the cached transformer came from an indefinite
	// metric, so LᵀL differs from M.
	clipped bool

	logger    log.Logger
	telemetry *telemetry.Metrics
}

// Init sets the algorithm name used in errors, logs and metrics, and applies
// opts. It must be called before the value is shared between goroutines.
func (b *Base) Init(name string, opts ...Option) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.name = name
	b.logger = log.GetLoggerWithName("dml").With(log.ModelNameKey, name)
	for _, opt := range opts {
		opt(b)
	}
}

// Name returns the algorithm name.
func (b *Base) Name() string {
	if b.name == "" {
		return defaultName
	}
	return b.name
}

func (b *Base) op(method string) string {
	return b.Name() + "." + method
}

// SetMetric records a learned d×d metric M and the training data X (n×d).
// X may be nil when no training data is kept; Transform(nil) then reports
// NotFitted. Any previous state is discarded.
func (b *Base) SetMetric(M, X mat.Matrix) error {
	op := b.op("SetMetric")

	if _, err := linalg.Symmetrize(op, M); err != nil {
		return err
	}
	d, _ := M.Dims()
	snapshot, err := linearSnapshot(op, X, d)
	if err != nil {
		return err
	}

	b.replace(model.HasMetric, mat.DenseCopyOf(M), nil, snapshot, d)
	return nil
}

// SetTransformer records a learned d'×d transformer L and the training data
// X (n×d). X may be nil. Any previous state is discarded.
func (b *Base) SetTransformer(L, X mat.Matrix) error {
	op := b.op("SetTransformer")

	_, d, err := checkTransformer(op, L)
	if err != nil {
		return err
	}
	snapshot, err := linearSnapshot(op, X, d)
	if err != nil {
		return err
	}

	b.replace(model.HasTransform, nil, mat.DenseCopyOf(L), snapshot, d)
	return nil
}

func checkTransformer(op string, L mat.Matrix) (rows, cols int, err error) {
	if validation.IsNil(L) {
		return 0, 0, errors.NewMalformedMatrixError(op, 0, 0, "transformer is nil")
	}
	if d, ok := L.(*mat.Dense); ok && (d == nil || d.IsEmpty()) {
		return 0, 0, errors.NewMalformedMatrixError(op, 0, 0, "transformer is empty")
	}
	rows, cols = L.Dims()
	if rows == 0 || cols == 0 {
		return 0, 0, errors.NewMalformedMatrixError(op, rows, cols, "transformer is empty")
	}
	if err := errors.CheckMatrix(op, L, rows, cols); err != nil {
		return 0, 0, errors.NewMalformedMatrixError(op, rows, cols, "transformer contains NaN or Inf")
	}
	return rows, cols, nil
}

func linearSnapshot(op string, X mat.Matrix, d int) (*mat.Dense, error) {
	if X == nil {
		return nil, nil
	}
	data, err := validation.CheckArray(op, X)
	if err != nil {
		return nil, err
	}
	if err := validation.CheckFeatures(op, data, d); err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(data), nil
}

func (b *Base) replace(state model.State, M, L, snapshot *mat.Dense, nFeatures int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replaceLocked(state, M, L, snapshot, nFeatures)
}

func (b *Base) replaceLocked(state model.State, M, L, snapshot *mat.Dense, nFeatures int) {
	b.clipped = false
	b.state = state
	b.metric = M
	b.transformer = L
	b.snapshot = snapshot
	b.nFeatures = nFeatures

	if b.logger != nil {
		fields := []any{
			log.OperationKey, log.OperationFit,
			log.FeaturesKey, nFeatures,
			"state", state.String(),
		}
		if snapshot != nil {
			n, _ := snapshot.Dims()
			fields = append(fields, log.SamplesKey, n)
		}
		b.logger.Debug("geometry recorded", fields...)
	}
}

// Reset discards the learned geometry and the training snapshot.
func (b *Base) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearLocked()
}

func (b *Base) clearLocked() {
	b.clipped = false
	b.state = model.Unfit
	b.metric = nil
	b.transformer = nil
	b.snapshot = nil
	b.nFeatures = 0
}

// State returns the current lifecycle state.
func (b *Base) State() model.State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// IsFitted reports whether a metric or transformer has been recorded.
func (b *Base) IsFitted() bool {
	return b.State().IsFitted()
}

// NFeatures returns the number of input features seen at fit time, or 0.
func (b *Base) NFeatures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nFeatures
}

// NComponents returns the dimension of the projected space, or 0 when unfit.
func (b *Base) NComponents() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.state.HasTransform():
		r, _ := b.transformer.Dims()
		return r
	case b.state.HasMetric():
		// linalg.Factorize returns a d×d factor on both paths (clipped
		// directions are zero rows), so the count is known before deriving
		r, _ := b.metric.Dims()
		return r
	}
	return 0
}

// Metric returns M. When only L is known, M = LᵀL is computed and cached.
func (b *Base) Metric() (*mat.Dense, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.state.HasMetric():
		return b.metric, nil
	case b.state.HasTransform():
		b.metric = linalg.TransformerToMetric(b.transformer)
		b.state = model.Both

		b.telemetry.RecordDerivation(b.Name(), telemetry.KindMetric)
		if b.logger != nil {
			b.logger.Debug("metric derived",
				log.OperationKey, log.OperationMetric,
				log.FeaturesKey, b.nFeatures,
			)
		}
		return b.metric, nil
	}
	return nil, errors.NewNotFittedError(b.Name(), "Metric")
}

// Transformer returns L. When only M is known, L is obtained from
// linalg.Factorize and cached whichever factorization path produced it. An
// IndefiniteMetricWarning is issued when the metric had clearly negative
// eigenvalues that were clipped.
func (b *Base) Transformer() (*mat.Dense, error) {
	b.mu.Lock()
	L, warning, err := b.transformerLocked("Transformer")
	b.mu.Unlock()

	if warning != nil {
		errors.Warn(warning)
	}
	return L, err
}

func (b *Base) transformerLocked(method string) (*mat.Dense, *errors.IndefiniteMetricWarning, error) {
	switch {
	case b.state.HasTransform():
		return b.transformer, nil, nil
	case b.state.HasMetric():
	default:
		return nil, nil, errors.NewNotFittedError(b.Name(), method)
	}

	f, err := linalg.Factorize(b.metric)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "%s: derive transformer", b.Name())
	}
	b.transformer = f.L
	b.clipped = f.Clipped > 0
	b.state = model.Both

	b.telemetry.RecordDerivation(b.Name(), telemetry.KindTransformer)
	b.telemetry.RecordFactorization(f.Method.String(), f.Clipped)
	if b.logger != nil {
		b.logger.Debug("transformer derived",
			log.OperationKey, log.OperationTransformer,
			log.FactorizationKey, f.Method.String(),
			log.ClippedKey, f.Clipped,
		)
	}

	var warning *errors.IndefiniteMetricWarning
	if f.Clipped > 0 {
		warning = errors.NewIndefiniteMetricWarning(b.op(method), f.Clipped, f.MinEigenvalue)
	}
	return f.L, warning, nil
}

// geometry returns L and the training snapshot under a single lock.
func (b *Base) geometry(method string) (L, snapshot *mat.Dense, err error) {
	b.mu.Lock()
	L, warning, err := b.transformerLocked(method)
	snapshot = b.snapshot
	b.mu.Unlock()

	if warning != nil {
		errors.Warn(warning)
	}
	return L, snapshot, err
}

// input returns the training snapshot for X == nil and the validated X otherwise.
func (b *Base) input(method string, X mat.Matrix, snapshot *mat.Dense) (mat.Matrix, error) {
	if X == nil {
		if snapshot == nil {
			return nil, errors.NewNotFittedError(b.Name(), method)
		}
		return snapshot, nil
	}
	return validation.CheckArray(b.op(method), X)
}

// Transform projects X into the learned space, returning X·Lᵀ (n×d'). A nil
// X projects the training data.
func (b *Base) Transform(X mat.Matrix) (projected *mat.Dense, err error) {
	start := time.Now()
	defer func() { b.recordTransform(telemetry.ProjectionLinear, start, projected, err) }()
	defer errors.Recover(&err, b.op("Transform"))

	L, snapshot, err := b.geometry("Transform")
	if err != nil {
		return nil, err
	}
	data, err := b.input("Transform", X, snapshot)
	if err != nil {
		return nil, err
	}
	_, d := L.Dims()
	if err := validation.CheckFeatures(b.op("Transform"), data, d); err != nil {
		return nil, err
	}

	var out mat.Dense
	out.Mul(data, L.T())
	return &out, nil
}

func (b *Base) recordTransform(kind string, start time.Time, projected *mat.Dense, err error) {
	if err != nil {
		code := errorCode(err)
		b.telemetry.RecordTransformError(b.Name(), code)
		if b.logger != nil {
			b.logger.Info("transform failed", err,
				log.OperationKey, log.OperationTransform,
				log.ErrorCodeKey, code,
			)
		}
		return
	}

	elapsed := time.Since(start)
	b.telemetry.RecordTransform(b.Name(), kind, elapsed)
	if b.logger != nil && projected != nil {
		n, c := projected.Dims()
		b.logger.Debug("transform completed",
			log.OperationKey, log.OperationTransform,
			log.SamplesKey, n,
			log.ComponentsKey, c,
			log.DurationMsKey, float64(elapsed.Microseconds())/1000,
		)
	}
}

func errorCode(err error) string {
	var notFitted *errors.NotFittedError
	var panicErr *errors.PanicError
	switch {
	case errors.As(err, &notFitted):
		return log.ErrorNotFitted
	case errors.Is(err, errors.ErrInvalidInput):
		return log.ErrorInvalidInput
	case errors.As(err, &panicErr):
		return log.ErrorPanic
	default:
		return log.ErrorInternal
	}
}

// Metadata returns algorithm-specific information about the fit. The base
// implementation returns an empty map.
func (b *Base) Metadata() map[string]any {
	return map[string]any{}
}

// PairwiseDistances returns the learned distances between the rows of X and
// the rows of Y (Y == nil means X; X == nil means the training data).
func (b *Base) PairwiseDistances(X, Y mat.Matrix) (*mat.Dense, error) {
	return pairwiseDistances(b.Transform, X, Y)
}

func pairwiseDistances(project func(mat.Matrix) (*mat.Dense, error), X, Y mat.Matrix) (*mat.Dense, error) {
	px, err := project(X)
	if err != nil {
		return nil, err
	}
	py := px
	if Y != nil {
		if py, err = project(Y); err != nil {
			return nil, err
		}
	}
	return metrics.EuclideanDistances(px, py)
}

// Distance returns the learned distance √((x-y)ᵀM(x-y)) between two samples.
func (b *Base) Distance(x, y []float64) (float64, error) {
	M, err := b.Metric()
	if err != nil {
		return 0, err
	}
	return metrics.Mahalanobis(x, y, M)
}

// ExportWeights returns a copy of the recorded geometry. Only values already
// computed are included; nothing is derived.
func (b *Base) ExportWeights() (*model.MetricWeights, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exportLocked("ExportWeights")
}

func (b *Base) exportLocked(method string) (*model.MetricWeights, error) {
	if !b.state.IsFitted() {
		return nil, errors.NewNotFittedError(b.Name(), method)
	}

	w := &model.MetricWeights{
		ModelType: b.Name(),
		Version:   model.WeightsVersion,
		NFeatures: b.nFeatures,
		IsFitted:  true,
	}
	if b.state.HasMetric() {
		w.Metric = model.MatrixToRows(b.metric)
	}
	// a clipped transformer is re-derived on import instead
	if b.state.HasTransform() && !b.clipped {
		w.Transformer = model.MatrixToRows(b.transformer)
	}
	if b.snapshot != nil {
		w.Reference = model.MatrixToRows(b.snapshot)
	}
	return w, nil
}

// ImportWeights restores geometry exported by a model of the same type.
// Nothing is changed when the weights are rejected.
func (b *Base) ImportWeights(w *model.MetricWeights) error {
	if w != nil && w.Kernel != "" {
		return errors.NewValidationError("kernel", "linear model cannot import kernel weights", w.Kernel)
	}
	g, err := b.decodeGeometry(w)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	g.installLocked(b)
	return nil
}

// importedGeometry is validated geometry waiting to be installed.
type importedGeometry struct {
	fitted    bool
	state     model.State
	metric    *mat.Dense
	transform *mat.Dense
	snapshot  *mat.Dense
	nFeatures int
}

func (g *importedGeometry) installLocked(b *Base) {
	if !g.fitted {
		b.clearLocked()
		return
	}
	b.replaceLocked(g.state, g.metric, g.transform, g.snapshot, g.nFeatures)
}

// decodeGeometry checks w completely without touching b. When both M and L
// are present they must satisfy M = LᵀL.
func (b *Base) decodeGeometry(w *model.MetricWeights) (*importedGeometry, error) {
	op := b.op("ImportWeights")

	if w == nil {
		return nil, errors.NewValidationError("weights", "is nil", nil)
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if w.ModelType != b.Name() {
		return nil, errors.NewValidationError("model_type", "does not match "+b.Name(), w.ModelType)
	}
	if !w.IsFitted {
		return &importedGeometry{}, nil
	}

	M := model.RowsToDense(w.Metric)
	L := model.RowsToDense(w.Transformer)
	if L != nil {
		if _, _, err := checkTransformer(op, L); err != nil {
			return nil, err
		}
	}
	state := model.HasTransform
	if M != nil {
		if _, err := linalg.Symmetrize(op, M); err != nil {
			return nil, err
		}
		state = model.HasMetric
		if L != nil {
			if !linalg.Consistent(M, L) {
				return nil, errors.NewValidationError("transformer", "metric and transformer disagree: M != LᵀL", nil)
			}
			state = model.Both
		}
	}

	return &importedGeometry{
		fitted:    true,
		state:     state,
		metric:    M,
		transform: L,
		snapshot:  model.RowsToDense(w.Reference),
		nFeatures: w.NFeatures,
	}, nil
}

func identity(d int) *mat.Dense {
	I := mat.NewDense(d, d, nil)
	for i := 0; i < d; i++ {
		I.Set(i, i, 1)
	}
	return I
}
