package dml

import (
	"github.com/YuminosukeSato/scigo-dml/pkg/log"
	"github.com/YuminosukeSato/scigo-dml/pkg/telemetry"
)

// Option configures the shared base of an algorithm.
type Option func(*Base)

// WithLogger replaces the default component logger.
func WithLogger(logger log.Logger) Option {
	return func(b *Base) {
		b.logger = logger
	}
}

// WithTelemetry records derivations and projections in m.
func WithTelemetry(m *telemetry.Metrics) Option {
	return func(b *Base) {
		b.telemetry = m
	}
}
