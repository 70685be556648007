package model

import (
	"encoding/json"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-dml/pkg/errors"
)

// WeightsVersion は現在のエクスポート形式のバージョン
const WeightsVersion = "1"

// MetricWeights は学習済み幾何（計量・変換・訓練データ）を表す構造体（シリアライゼーション用）
type MetricWeights struct {
	// ModelType はモデルの種類（Euclidean, Covariance, KernelFixed等）
	ModelType string `json:"model_type"`

	// Version は形式のバージョン（互換性チェック用）
	Version string `json:"version"`

	// NFeatures は入力特徴量の数
	NFeatures int `json:"n_features"`

	// Metric は計量行列 M（行ごと）。導出前は省略される
	Metric [][]float64 `json:"metric,omitempty"`

	// Transformer は変換行列 L（行ごと）。導出前は省略される
	Transformer [][]float64 `json:"transformer,omitempty"`

	// Reference は訓練データのスナップショット。カーネル手法では必須
	Reference [][]float64 `json:"reference,omitempty"`

	// Kernel はカーネル名（線形手法では空）
	Kernel string `json:"kernel,omitempty"`

	// Hyperparameters はモデルのハイパーパラメータ
	Hyperparameters map[string]interface{} `json:"hyperparameters,omitempty"`

	// Metadata は追加のメタデータ
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// IsFitted はモデルが学習済みかどうか
	IsFitted bool `json:"is_fitted"`
}

// ToJSON はMetricWeightsをJSON形式にシリアライズ
func (mw *MetricWeights) ToJSON() ([]byte, error) {
	return json.MarshalIndent(mw, "", "  ")
}

// FromJSON はJSON形式からMetricWeightsをデシリアライズ
func (mw *MetricWeights) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, mw); err != nil {
		return errors.Wrap(err, "decode metric weights")
	}
	return nil
}

// Validate はMetricWeightsの妥当性を検証
func (mw *MetricWeights) Validate() error {
	if mw.ModelType == "" {
		return errors.NewValidationError("model_type", "is required", mw.ModelType)
	}
	if mw.Version != WeightsVersion {
		return errors.NewValidationError("version", "unsupported weights version", mw.Version)
	}

	hasGeometry := len(mw.Metric) > 0 || len(mw.Transformer) > 0
	if !mw.IsFitted {
		if hasGeometry {
			return errors.NewValidationError("is_fitted", "unfitted model should not carry a metric or transformer", false)
		}
		return nil
	}
	if !hasGeometry {
		return errors.NewValidationError("is_fitted", "fitted model must carry a metric or transformer", true)
	}
	if mw.NFeatures <= 0 {
		return errors.NewValidationError("n_features", "must be positive", mw.NFeatures)
	}

	// 線形手法では L の列数は特徴量数、カーネル手法では訓練サンプル数
	inner := mw.NFeatures
	if mw.Kernel != "" {
		if len(mw.Reference) == 0 {
			return errors.NewValidationError("reference", "kernel model must carry its training data", nil)
		}
		inner = len(mw.Reference)
	}

	if len(mw.Metric) > 0 {
		if err := checkRows("metric", mw.Metric, inner); err != nil {
			return err
		}
		if len(mw.Metric) != inner {
			return errors.NewValidationError("metric", "must be square", len(mw.Metric))
		}
	}
	if len(mw.Transformer) > 0 {
		if err := checkRows("transformer", mw.Transformer, inner); err != nil {
			return err
		}
	}
	if len(mw.Reference) > 0 {
		if err := checkRows("reference", mw.Reference, mw.NFeatures); err != nil {
			return err
		}
	}
	return nil
}

func checkRows(field string, rows [][]float64, cols int) error {
	for _, row := range rows {
		if len(row) != cols {
			return errors.NewValidationError(field, "unexpected row length",
				errors.NewDimensionError("model.MetricWeights", cols, len(row), 1))
		}
	}
	return nil
}

// Clone はMetricWeightsのディープコピーを作成
func (mw *MetricWeights) Clone() *MetricWeights {
	clone := &MetricWeights{
		ModelType:       mw.ModelType,
		Version:         mw.Version,
		NFeatures:       mw.NFeatures,
		Kernel:          mw.Kernel,
		IsFitted:        mw.IsFitted,
		Metric:          cloneRows(mw.Metric),
		Transformer:     cloneRows(mw.Transformer),
		Reference:       cloneRows(mw.Reference),
		Hyperparameters: cloneMap(mw.Hyperparameters),
		Metadata:        cloneMap(mw.Metadata),
	}
	return clone
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneRows(rows [][]float64) [][]float64 {
	if rows == nil {
		return nil
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// MatrixToRows は行列を行ごとのスライスに変換する。nil は nil を返す
func MatrixToRows(m mat.Matrix) [][]float64 {
	if m == nil {
		return nil
	}
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}

// RowsToDense は行ごとのスライスから *mat.Dense を作成する。空の場合は nil を返す
func RowsToDense(rows [][]float64) *mat.Dense {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for _, row := range rows {
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data)
}
