package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Telemetry owns the tracer and meter providers of the process and shuts them down
type Telemetry struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	metricsHandler http.Handler
	shutdowns      []func(context.Context) error
}

// Option configures New
type Option func(*options)

type options struct {
	config  *Config
	version string
}

// WithTelemetryConfig sets the telemetry section of the configuration file
func WithTelemetryConfig(cfg *Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithServiceVersion sets the version reported when the configuration names none
func WithServiceVersion(version string) Option {
	return func(o *options) {
		o.version = version
	}
}

// New builds the providers selected by the configuration. Anything disabled gets a no-op
// provider, so callers never check for nil. Shutdown must be called on exit.
func New(ctx context.Context, opts ...Option) (*Telemetry, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	cfg := o.config

	tel := &Telemetry{
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
	}
	if cfg == nil || !cfg.Enabled {
		slog.Debug("Telemetry disabled")
		return tel, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry configuration: %w", err)
	}

	target := cfg.target(o.version)
	slog.Info("Initializing telemetry",
		"service_name", target.serviceName,
		"service_version", target.serviceVersion,
	)

	if !cfg.tracingOn() && !cfg.metricsOn() {
		return tel, nil
	}

	res, err := newResource(ctx, target)
	if err != nil {
		return nil, err
	}

	if cfg.tracingOn() {
		tp, err := newTracerProvider(ctx, target, res, cfg.Tracing)
		if err != nil {
			return nil, fmt.Errorf("failed to create tracer provider: %w", err)
		}
		tel.tracerProvider = tp
		tel.shutdowns = append(tel.shutdowns, tp.Shutdown)
	}

	if cfg.metricsOn() {
		// A dedicated registry keeps the scrape output to this process
		registry := prometheus.NewRegistry()
		mp, err := newMeterProvider(ctx, target, res, cfg.Metrics, registry)
		if err != nil {
			_ = tel.Shutdown(ctx)
			return nil, fmt.Errorf("failed to create meter provider: %w", err)
		}
		tel.meterProvider = mp
		tel.shutdowns = append(tel.shutdowns, mp.Shutdown)

		if cfg.Metrics.Prometheus {
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			tel.metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
		}
	}

	slog.Info("Telemetry initialized successfully")
	return tel, nil
}

// TracerProvider returns the span provider, a no-op one when tracing is off
func (t *Telemetry) TracerProvider() trace.TracerProvider {
	return t.tracerProvider
}

// MeterProvider returns the metric provider, a no-op one when metrics are off
func (t *Telemetry) MeterProvider() metric.MeterProvider {
	return t.meterProvider
}

// MetricsHandler returns the Prometheus scrape handler, or nil when Prometheus export is off
func (t *Telemetry) MetricsHandler() http.Handler {
	return t.metricsHandler
}

// TracesProbes reports whether health, readiness and scrape requests are traced
func TracesProbes(cfg *Config) bool {
	return cfg.tracingOn() && cfg.Tracing.TraceProbes
}

// Shutdown flushes and stops the providers. Calling it again is a no-op.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if len(t.shutdowns) == 0 {
		return nil
	}
	slog.Info("Shutting down telemetry")

	var errs []error
	for _, shutdown := range t.shutdowns {
		if err := shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	t.shutdowns = nil

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to shut down telemetry: %w", err)
	}
	slog.Info("Telemetry shutdown complete")
	return nil
}
