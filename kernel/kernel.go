// Package kernel computes pairwise kernel (Gram) matrices.
//
// A kernel is either one of the named kernels below or a user-supplied Func.
// Named kernels read only the parameters they recognise (see
// AcceptedParams); anything else in the parameter map is silently dropped,
// so a single {gamma, degree, coef0} mapping can be passed to any of them.
package kernel

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/scigo-dml/pkg/errors"
)

// Name identifies a built-in kernel.
type Name string

// Built-in kernels.
const (
	Linear       Name = "linear"
	Poly         Name = "poly"
	Polynomial   Name = "polynomial"
	RBF          Name = "rbf"
	Laplacian    Name = "laplacian"
	Sigmoid      Name = "sigmoid"
	Cosine       Name = "cosine"
	Chi2         Name = "chi2"
	AdditiveChi2 Name = "additive_chi2"

	// Precomputed means inputs already are Gram matrices against the
	// reference set and are used without further kernelization.
	Precomputed Name = "precomputed"
)

// Recognised parameter names.
const (
	ParamGamma  = "gamma"
	ParamDegree = "degree"
	ParamCoef0  = "coef0"
)

// Func is a user-supplied kernel evaluated on a pair of rows. params is the
// configured free-form mapping, passed through unfiltered.
type Func func(x, y []float64, params map[string]any) float64

var acceptedParams = map[Name][]string{
	Linear:       {},
	Poly:         {ParamGamma, ParamDegree, ParamCoef0},
	Polynomial:   {ParamGamma, ParamDegree, ParamCoef0},
	RBF:          {ParamGamma},
	Laplacian:    {ParamGamma},
	Sigmoid:      {ParamGamma, ParamCoef0},
	Cosine:       {},
	Chi2:         {ParamGamma},
	AdditiveChi2: {},
	Precomputed:  {},
}

// AcceptedParams returns the parameter names a named kernel reads, and
// whether the name is known.
func AcceptedParams(name Name) ([]string, bool) {
	p, ok := acceptedParams[name]
	if !ok {
		return nil, false
	}
	out := make([]string, len(p))
	copy(out, p)
	return out, true
}

// Names returns all built-in kernel names in sorted order.
func Names() []Name {
	out := make([]Name, 0, len(acceptedParams))
	for n := range acceptedParams {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FilterParams keeps only the entries of params that name accepts.
func FilterParams(name Name, params map[string]any) map[string]any {
	out := make(map[string]any)
	for _, key := range acceptedParams[name] {
		if v, ok := params[key]; ok {
			out[key] = v
		}
	}
	return out
}

// pairFunc evaluates a resolved named kernel on two rows.
type pairFunc func(x, y []float64) float64

// resolve binds a named kernel to its parameters. nFeatures drives the
// default gamma of 1/n_features.
func resolve(name Name, params map[string]any, nFeatures int) (pairFunc, error) {
	defaultGamma := 1.0 / float64(nFeatures)

	switch name {
	case Linear:
		return floats.Dot, nil

	case Poly, Polynomial:
		gamma, degree, coef0, err := polyParams(params, defaultGamma)
		if err != nil {
			return nil, err
		}
		return func(x, y []float64) float64 {
			return math.Pow(gamma*floats.Dot(x, y)+coef0, degree)
		}, nil

	case RBF:
		gamma, err := floatParam(params, ParamGamma, defaultGamma)
		if err != nil {
			return nil, err
		}
		return func(x, y []float64) float64 {
			d := floats.Distance(x, y, 2)
			return math.Exp(-gamma * d * d)
		}, nil

	case Laplacian:
		gamma, err := floatParam(params, ParamGamma, defaultGamma)
		if err != nil {
			return nil, err
		}
		return func(x, y []float64) float64 {
			return math.Exp(-gamma * floats.Distance(x, y, 1))
		}, nil

	case Sigmoid:
		gamma, err := floatParam(params, ParamGamma, defaultGamma)
		if err != nil {
			return nil, err
		}
		coef0, err := floatParam(params, ParamCoef0, 1)
		if err != nil {
			return nil, err
		}
		return func(x, y []float64) float64 {
			return math.Tanh(gamma*floats.Dot(x, y) + coef0)
		}, nil

	case Cosine:
		return func(x, y []float64) float64 {
			nx, ny := floats.Norm(x, 2), floats.Norm(y, 2)
			if nx == 0 || ny == 0 {
				return 0
			}
			return floats.Dot(x, y) / (nx * ny)
		}, nil

	case Chi2:
		gamma, err := floatParam(params, ParamGamma, 1)
		if err != nil {
			return nil, err
		}
		return func(x, y []float64) float64 {
			return math.Exp(gamma * additiveChi2(x, y))
		}, nil

	case AdditiveChi2:
		return additiveChi2, nil

	default:
		return nil, errors.NewValidationError("kernel", "unknown kernel name", string(name))
	}
}

// additiveChi2 is -Σ (x-y)²/(x+y), skipping coordinates where x+y = 0.
func additiveChi2(x, y []float64) float64 {
	var sum float64
	for i := range x {
		denom := x[i] + y[i]
		if denom == 0 {
			continue
		}
		diff := x[i] - y[i]
		sum += diff * diff / denom
	}
	return -sum
}

func polyParams(params map[string]any, defaultGamma float64) (gamma, degree, coef0 float64, err error) {
	if gamma, err = floatParam(params, ParamGamma, defaultGamma); err != nil {
		return
	}
	if degree, err = floatParam(params, ParamDegree, 3); err != nil {
		return
	}
	coef0, err = floatParam(params, ParamCoef0, 1)
	return
}

// floatParam reads a numeric parameter. Missing or nil entries yield def.
func floatParam(params map[string]any, key string, def float64) (float64, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case *float64:
		if n == nil {
			return def, nil
		}
		return *n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, errors.NewValidationError(key, "kernel parameter must be numeric", v)
	}
}
