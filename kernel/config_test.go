package kernel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-dml/pkg/errors"
)

func TestConfigResolvedParams(t *testing.T) {
	tests := []struct {
		name Name
		want map[string]any
	}{
		{Poly, map[string]any{"gamma": 2.0, "degree": 3.0, "coef0": 1.0}},
		{RBF, map[string]any{"gamma": 2.0}},
		{Sigmoid, map[string]any{"gamma": 2.0, "coef0": 1.0}},
		{Linear, map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			c, err := NewConfig(tt.name, WithGamma(2), WithDegree(3), WithCoef0(1))
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.ResolvedParams())
		})
	}
}

func TestConfigUnsetGammaOmitted(t *testing.T) {
	c, err := NewConfig(RBF)
	require.NoError(t, err)
	assert.Empty(t, c.ResolvedParams())

	c, err = NewConfig(Poly)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"degree": 3.0, "coef0": 1.0}, c.ResolvedParams())
}

func TestConfigCallablePassesParamsUnfiltered(t *testing.T) {
	params := map[string]any{"gamma": 5.0, "custom": "value"}
	var seen map[string]any
	fn := func(x, y []float64, p map[string]any) float64 {
		seen = p
		return x[0] * y[0]
	}

	c, err := NewFuncConfig(fn, params)
	require.NoError(t, err)
	assert.True(t, c.IsCallable())
	assert.False(t, c.Precomputed())
	assert.Equal(t, CallableName, c.KernelName())
	assert.Equal(t, params, c.ResolvedParams())

	X := mat.NewDense(1, 1, []float64{2})
	K, err := c.Compute(X, nil)
	require.NoError(t, err)
	assert.Equal(t, 4.0, K.At(0, 0))
	assert.Equal(t, params, seen)
}

func TestConfigPrecomputed(t *testing.T) {
	c, err := NewConfig(Precomputed)
	require.NoError(t, err)
	assert.True(t, c.Precomputed())
	assert.Equal(t, "precomputed", c.KernelName())

	c, err = NewConfig(RBF)
	require.NoError(t, err)
	assert.False(t, c.Precomputed())
}

func TestConfigValidate(t *testing.T) {
	fn := func(x, y []float64, _ map[string]any) float64 { return 0 }
	gamma := func(g float64) *float64 { return &g }

	tests := []struct {
		name  string
		cfg   Config
		param string
	}{
		{"empty", Config{}, "kernel"},
		{"both name and func", Config{Name: RBF, Func: fn}, "kernel"},
		{"unknown name", Config{Name: "bogus", Degree: 3}, "kernel"},
		{"zero gamma", Config{Name: RBF, Gamma: gamma(0)}, "gamma"},
		{"nan gamma", Config{Name: RBF, Gamma: gamma(math.NaN())}, "gamma"},
		{"fractional degree", Config{Name: Poly, Degree: 2.5}, "degree"},
		{"negative degree", Config{Name: Poly, Degree: -1}, "degree"},
		{"infinite coef0", Config{Name: Sigmoid, Coef0: math.Inf(1)}, "coef0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			var verr *errors.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.param, verr.ParamName)
		})
	}

	_, err := NewConfig(RBF, WithGamma(-1))
	assert.Error(t, err)
}

func TestConfigCompute(t *testing.T) {
	c, err := NewConfig(Poly, WithGamma(1), WithDegree(2), WithCoef0(0))
	require.NoError(t, err)

	X := mat.NewDense(2, 2, []float64{1, 0, 1, 1})
	K, err := c.Compute(X, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, K.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0, K.At(0, 1), 1e-12)
	assert.InDelta(t, 4.0, K.At(1, 1), 1e-12)
}
