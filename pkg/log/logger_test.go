package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/scigo-dml/pkg/errors"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestZerologProviderWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologProvider(&buf, LevelDebug)

	logger := provider.GetLoggerWithName("dml").With(ModelNameKey, "Covariance")
	logger.Debug("transformer derived",
		OperationKey, OperationTransformer,
		FactorizationKey, "cholesky",
		FeaturesKey, 3,
	)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "transformer derived", entry["message"])
	assert.Equal(t, "dml", entry[ComponentKey])
	assert.Equal(t, "Covariance", entry[ModelNameKey])
	assert.Equal(t, "cholesky", entry[FactorizationKey])
	assert.Equal(t, 3.0, entry[FeaturesKey])
}

func TestZerologProviderLevelIsShared(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologProvider(&buf, LevelInfo)
	logger := provider.GetLogger()

	logger.Debug("hidden")
	assert.Empty(t, buf.String())
	assert.False(t, logger.Enabled(context.Background(), LevelDebug))

	// loggers handed out before SetLevel follow the new level
	provider.SetLevel(LevelDebug)
	logger.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
	assert.True(t, logger.Enabled(context.Background(), LevelDebug))
}

func TestZerologLoggerErrorFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologProvider(&buf, LevelDebug).GetLogger()

	err := errors.NewNotFittedError("Euclidean", "Metric")
	logger.Error("metric unavailable", err, ErrorCodeKey, ErrorNotFitted)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, err.Error(), entry["error"])
	assert.Equal(t, ErrorNotFitted, entry[ErrorCodeKey])

	detail, ok := entry["error_detail"].(map[string]interface{})
	require.True(t, ok, "structured error detail expected, got %v", entry)
	assert.Equal(t, "NotFittedError", detail["type"])
	assert.Equal(t, "Metric", detail["method"])
}

func TestWarningsRouteThroughGlobalProvider(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, LevelWarn)
	defer SetOutput(&bytes.Buffer{}, LevelWarn)

	errors.Warn(errors.NewIndefiniteMetricWarning("linalg.Factorize", 1, -0.25))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "warn", entries[0]["level"])
	assert.Equal(t, "warnings", entries[0][ComponentKey])
	detail, ok := entries[0]["warning_detail"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "IndefiniteMetricWarning", detail["type"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.NotEqual(t, "UNKNOWN", got.String())
	}

	_, err := ParseLevel("verbose")
	var validation *errors.ValidationError
	assert.True(t, errors.As(err, &validation))
}

func TestTestLoggerCapturesRecords(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelInfo)

	testLogger.Debug("not captured")
	contextLogger := testLogger.With(ModelNameKey, "Fixed")
	contextLogger.Info("metric derived", OperationKey, OperationMetric, SamplesKey, 10)
	testLogger.Error("failed", fmt.Errorf("boom"))

	assert.NotEmpty(t, buffer.String())
	assert.False(t, testLogger.ContainsMessage("not captured"))
	assert.True(t, testLogger.ContainsField(ModelNameKey, "Fixed"))
	assert.True(t, testLogger.ContainsField(OperationKey, OperationMetric))
	assert.True(t, testLogger.ContainsField(SamplesKey, 10.0))
	assert.True(t, testLogger.ContainsField("error", "boom"))

	entries, err := testLogger.GetLogEntries()
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	testLogger.Clear()
	assert.Empty(t, buffer.String())
}

func TestTestLoggerProvider(t *testing.T) {
	provider, buffer := NewTestLoggerProvider(LevelDebug)

	provider.GetLoggerWithName("kernel").Info("named logger message")
	provider.GetLogger().Debug("default logger message")

	assert.Contains(t, buffer.String(), "named logger message")
	assert.True(t, provider.Logger().ContainsField(ComponentKey, "kernel"))

	provider.SetLevel(LevelError)
	provider.GetLogger().Info("dropped")
	assert.NotContains(t, buffer.String(), "dropped")
}
