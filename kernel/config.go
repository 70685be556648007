package kernel

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-dml/pkg/errors"
)

// CallableName is reported by Config.KernelName for user-supplied kernels.
const CallableName = "callable"

// Config describes the kernel of a kernelized metric learner. Exactly one of
// Name and Func is set.
//
// Gamma, Degree and Coef0 apply to named kernels only; a nil Gamma leaves the
// kernel default in place. Params applies to Func only.
type Config struct {
	Name   Name
	Func   Func
	Gamma  *float64
	Degree float64
	Coef0  float64
	Params map[string]any
}

// Option configures a named kernel.
type Option func(*Config)

// WithGamma sets the kernel coefficient of rbf, laplacian, poly, sigmoid and chi2.
func WithGamma(gamma float64) Option {
	return func(c *Config) {
		c.Gamma = &gamma
	}
}

// WithDegree sets the polynomial degree. Default 3.
func WithDegree(degree float64) Option {
	return func(c *Config) {
		c.Degree = degree
	}
}

// WithCoef0 sets the independent term of poly and sigmoid. Default 1.
func WithCoef0(coef0 float64) Option {
	return func(c *Config) {
		c.Coef0 = coef0
	}
}

// NewConfig returns a validated configuration for a named kernel.
func NewConfig(name Name, opts ...Option) (Config, error) {
	c := Config{
		Name:   name,
		Degree: 3,
		Coef0:  1,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// NewFuncConfig returns a validated configuration for a user-supplied kernel.
func NewFuncConfig(fn Func, params map[string]any) (Config, error) {
	c := Config{Func: fn, Params: params}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports a *errors.ValidationError for an unusable configuration.
func (c Config) Validate() error {
	switch {
	case c.Func != nil && c.Name != "":
		return errors.NewValidationError("kernel", "set either a kernel name or a callable, not both", string(c.Name))
	case c.Func == nil && c.Name == "":
		return errors.NewValidationError("kernel", "no kernel configured", nil)
	case c.Func != nil:
		return nil
	}

	if _, ok := acceptedParams[c.Name]; !ok {
		return errors.NewValidationError("kernel", "unknown kernel name", string(c.Name))
	}
	if c.Gamma != nil && (*c.Gamma <= 0 || math.IsInf(*c.Gamma, 0) || math.IsNaN(*c.Gamma)) {
		return errors.NewValidationError("gamma", "must be positive and finite", *c.Gamma)
	}
	if c.Degree < 0 || math.IsInf(c.Degree, 0) || math.Trunc(c.Degree) != c.Degree {
		return errors.NewValidationError("degree", "must be a non-negative integer", c.Degree)
	}
	if math.IsInf(c.Coef0, 0) || math.IsNaN(c.Coef0) {
		return errors.NewValidationError("coef0", "must be finite", c.Coef0)
	}
	return nil
}

// IsCallable reports whether the kernel is user-supplied.
func (c Config) IsCallable() bool {
	return c.Func != nil
}

// Precomputed reports whether inputs are already Gram matrices.
func (c Config) Precomputed() bool {
	return c.Func == nil && c.Name == Precomputed
}

// KernelName returns the kernel name, or CallableName for a Func.
func (c Config) KernelName() string {
	if c.Func != nil {
		return CallableName
	}
	return string(c.Name)
}

// ResolvedParams returns the parameters the kernel computation receives.
// For a callable this is Params unchanged; for a named kernel it is
// {gamma, degree, coef0} restricted to the names that kernel accepts, with
// gamma omitted when unset.
func (c Config) ResolvedParams() map[string]any {
	if c.Func != nil {
		return c.Params
	}
	all := map[string]any{
		ParamDegree: c.Degree,
		ParamCoef0:  c.Coef0,
	}
	if c.Gamma != nil {
		all[ParamGamma] = *c.Gamma
	}
	return FilterParams(c.Name, all)
}

// Compute returns the Gram matrix between X and Y (Y == nil means X).
func (c Config) Compute(X, Y mat.Matrix) (*mat.Dense, error) {
	if c.Func != nil {
		return PairwiseFunc(X, Y, c.Func, c.Params)
	}
	return Pairwise(X, Y, c.Name, c.ResolvedParams())
}
