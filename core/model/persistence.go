package model

import (
	"encoding/json"
	"io"
	"os"

	"github.com/YuminosukeSato/scigo-dml/pkg/errors"
)

// SaveWeights はモデルの幾何をJSONとしてio.Writerに書き出す
//
// 使用例:
//
//	var buf bytes.Buffer
//	err := model.SaveWeights(&buf, fitted)
func SaveWeights(w io.Writer, exporter WeightExporter) error {
	weights, err := exporter.ExportWeights()
	if err != nil {
		return err
	}
	if err := weights.Validate(); err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(weights); err != nil {
		return errors.Wrap(err, "failed to encode weights")
	}
	return nil
}

// LoadWeights はio.Readerから幾何を読み込み、importerに復元する
func LoadWeights(r io.Reader, importer WeightExporter) error {
	var weights MetricWeights
	if err := json.NewDecoder(r).Decode(&weights); err != nil {
		return errors.Wrap(err, "failed to decode weights")
	}
	if err := weights.Validate(); err != nil {
		return err
	}
	return importer.ImportWeights(&weights)
}

// SaveWeightsFile はモデルの幾何をファイルに保存する
func SaveWeightsFile(exporter WeightExporter, filename string) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", filename)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = errors.Wrapf(cerr, "failed to close %s", filename)
		}
	}()
	return SaveWeights(file, exporter)
}

// LoadWeightsFile はファイルから幾何を読み込み、importerに復元する
func LoadWeightsFile(importer WeightExporter, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", filename)
	}
	defer file.Close()
	return LoadWeights(file, importer)
}
