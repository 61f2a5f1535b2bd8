package msgbus

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// DefaultRegistryName is used when no name is given.
var DefaultRegistryName = "msgbus"

// options holds configuration for a registry (unexported)
type options struct {
	name           string
	logger         *slog.Logger
	tracingEnabled bool
	metricsEnabled bool
	lazy           bool
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
}

// Option configures a Registry
type Option func(*options)

// WithName sets the registry name used in logs, spans and metrics
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger sets a custom logger for the registry
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTracing enables/disables publish spans
func WithTracing(enabled bool) Option {
	return func(o *options) {
		o.tracingEnabled = enabled
	}
}

// WithMetrics enables/disables OpenTelemetry metrics
func WithMetrics(enabled bool) Option {
	return func(o *options) {
		o.metricsEnabled = enabled
	}
}

// WithLazyBuses selects how buses are resolved.
// When enabled (default) a bus is created on first reference to its type.
// When disabled, only types found by Initialize have a bus and lookups
// before Initialize fail with ErrNotInitialized.
func WithLazyBuses(enabled bool) Option {
	return func(o *options) {
		o.lazy = enabled
	}
}

// WithMeterProvider overrides the global OpenTelemetry meter provider
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		if mp != nil {
			o.meterProvider = mp
		}
	}
}

// WithTracerProvider overrides the global OpenTelemetry tracer provider
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		if tp != nil {
			o.tracerProvider = tp
		}
	}
}

// newOptions creates options with defaults and applies provided options
func newOptions(opts ...Option) *options {
	o := &options{
		name:           DefaultRegistryName,
		logger:         slog.Default(),
		tracingEnabled: true,
		metricsEnabled: true,
		lazy:           true,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.meterProvider == nil {
		o.meterProvider = otel.GetMeterProvider()
	}
	if o.tracerProvider == nil {
		o.tracerProvider = otel.GetTracerProvider()
	}
	return o
}
