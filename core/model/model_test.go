package model

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-dml/pkg/errors"
)

func TestState(t *testing.T) {
	tests := []struct {
		state        State
		fitted       bool
		hasMetric    bool
		hasTransform bool
		name         string
	}{
		{Unfit, false, false, false, "unfit"},
		{HasMetric, true, true, false, "has_metric"},
		{HasTransform, true, false, true, "has_transform"},
		{Both, true, true, true, "both"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fitted, tt.state.IsFitted())
			assert.Equal(t, tt.hasMetric, tt.state.HasMetric())
			assert.Equal(t, tt.hasTransform, tt.state.HasTransform())
			assert.Equal(t, tt.name, tt.state.String())
		})
	}
	assert.Equal(t, "unknown", State(42).String())
}

func validWeights() *MetricWeights {
	return &MetricWeights{
		ModelType:   "Fixed",
		Version:     WeightsVersion,
		NFeatures:   2,
		Transformer: [][]float64{{1, 0}, {0, 2}},
		Metric:      [][]float64{{1, 0}, {0, 4}},
		Reference:   [][]float64{{1, 1}, {2, 2}, {3, 3}},
		Metadata:    map[string]interface{}{"note": "x"},
		IsFitted:    true,
	}
}

func TestMetricWeightsValidate(t *testing.T) {
	require.NoError(t, validWeights().Validate())

	tests := []struct {
		name   string
		mutate func(*MetricWeights)
		param  string
	}{
		{"missing type", func(w *MetricWeights) { w.ModelType = "" }, "model_type"},
		{"bad version", func(w *MetricWeights) { w.Version = "0" }, "version"},
		{"fitted without geometry", func(w *MetricWeights) { w.Metric, w.Transformer = nil, nil }, "is_fitted"},
		{"unfitted with geometry", func(w *MetricWeights) { w.IsFitted = false }, "is_fitted"},
		{"zero features", func(w *MetricWeights) { w.NFeatures = 0 }, "n_features"},
		{"ragged transformer", func(w *MetricWeights) { w.Transformer[1] = []float64{1} }, "transformer"},
		{"non-square metric", func(w *MetricWeights) { w.Metric = w.Metric[:1] }, "metric"},
		{"ragged reference", func(w *MetricWeights) { w.Reference[2] = []float64{1, 2, 3} }, "reference"},
		{"kernel without reference", func(w *MetricWeights) { w.Kernel = "rbf"; w.Reference = nil }, "reference"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := validWeights()
			tt.mutate(w)
			var verr *errors.ValidationError
			require.True(t, errors.As(w.Validate(), &verr))
			assert.Equal(t, tt.param, verr.ParamName)
		})
	}

	t.Run("kernel transformer spans reference rows", func(t *testing.T) {
		w := validWeights()
		w.Kernel = "rbf"
		w.Metric = nil
		w.Transformer = [][]float64{{1, 0, 0}}
		assert.NoError(t, w.Validate())
	})

	t.Run("unfitted empty", func(t *testing.T) {
		w := &MetricWeights{ModelType: "Euclidean", Version: WeightsVersion}
		assert.NoError(t, w.Validate())
	})
}

func TestMetricWeightsCloneIsDeep(t *testing.T) {
	w := validWeights()
	clone := w.Clone()
	assert.Equal(t, w, clone)

	clone.Transformer[0][0] = 99
	clone.Reference[0][0] = 99
	clone.Metadata["note"] = "changed"
	assert.Equal(t, 1.0, w.Transformer[0][0])
	assert.Equal(t, 1.0, w.Reference[0][0])
	assert.Equal(t, "x", w.Metadata["note"])
}

func TestMetricWeightsJSON(t *testing.T) {
	w := validWeights()
	data, err := w.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"model_type": "Fixed"`)

	var decoded MetricWeights
	require.NoError(t, decoded.FromJSON(data))
	assert.Equal(t, w.Transformer, decoded.Transformer)
	assert.Equal(t, w.Reference, decoded.Reference)

	assert.Error(t, decoded.FromJSON([]byte("{")))
}

func TestRowsConversion(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	rows := MatrixToRows(m)
	assert.Equal(t, [][]float64{{1, 2, 3}, {4, 5, 6}}, rows)
	assert.True(t, mat.Equal(m, RowsToDense(rows)))

	assert.Nil(t, MatrixToRows(nil))
	assert.Nil(t, RowsToDense(nil))
}

// weightsHolder is a minimal WeightExporter.
type weightsHolder struct {
	weights *MetricWeights
}

func (h *weightsHolder) ExportWeights() (*MetricWeights, error) {
	if h.weights == nil {
		return nil, errors.NewNotFittedError("weightsHolder", "ExportWeights")
	}
	return h.weights.Clone(), nil
}

func (h *weightsHolder) ImportWeights(w *MetricWeights) error {
	h.weights = w.Clone()
	return nil
}

func TestSaveLoadWeights(t *testing.T) {
	src := &weightsHolder{weights: validWeights()}

	var buf bytes.Buffer
	require.NoError(t, SaveWeights(&buf, src))

	dst := &weightsHolder{}
	require.NoError(t, LoadWeights(&buf, dst))
	assert.Equal(t, src.weights.Transformer, dst.weights.Transformer)
	assert.Equal(t, src.weights.Metric, dst.weights.Metric)
	assert.Equal(t, "Fixed", dst.weights.ModelType)
}

func TestSaveWeightsErrors(t *testing.T) {
	var buf bytes.Buffer
	err := SaveWeights(&buf, &weightsHolder{})
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	bad := validWeights()
	bad.Version = ""
	assert.Error(t, SaveWeights(&buf, &weightsHolder{weights: bad}))

	assert.Error(t, LoadWeights(bytes.NewBufferString("not json"), &weightsHolder{}))
}

func TestSaveLoadWeightsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.json")
	require.NoError(t, SaveWeightsFile(&weightsHolder{weights: validWeights()}, path))

	dst := &weightsHolder{}
	require.NoError(t, LoadWeightsFile(dst, path))
	assert.Equal(t, 2, dst.weights.NFeatures)

	assert.Error(t, LoadWeightsFile(dst, filepath.Join(t.TempDir(), "missing.json")))
}
