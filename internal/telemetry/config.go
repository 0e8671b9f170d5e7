// Package telemetry wires OpenTelemetry into the mosaic wall: spans around provider runs,
// mosaic cycles and API requests, and metrics pushed over OTLP or scraped by Prometheus.
package telemetry

import (
	"errors"
	"fmt"
)

const (
	// DefaultServiceName identifies the wall when the configuration names no service
	DefaultServiceName = "mosaic-wall"

	// DefaultEndpoint is the OTLP HTTP collector used when none is configured
	DefaultEndpoint = "localhost:4318"

	// DefaultSampling is the trace ratio applied when tracing is enabled without one.
	// A wall runs one cycle every few tens of seconds, so a low ratio still yields traces.
	DefaultSampling = 0.05

	unknownVersion = "unknown"
)

// Config is the telemetry section of the configuration file
type Config struct {
	// Enabled switches every exporter on or off
	Enabled bool `yaml:"enabled"`

	ServiceName    string `yaml:"serviceName,omitempty"`
	ServiceVersion string `yaml:"serviceVersion,omitempty"`

	// Endpoint is the OTLP HTTP collector as "host:port"; /v1/traces and /v1/metrics are appended
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure exports over plain HTTP
	Insecure bool `yaml:"insecure,omitempty"`

	Tracing *TracingConfig `yaml:"tracing,omitempty"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig configures span export
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Sampling is the ratio of traces kept, from 0 to 1. Zero means DefaultSampling.
	Sampling float64 `yaml:"sampling,omitempty"`

	// TraceProbes also traces /health, /readiness and /metrics requests
	TraceProbes bool `yaml:"traceProbes,omitempty"`
}

// MetricsConfig configures metric export. At least one exporter must be on.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`

	// Prometheus serves the metrics on /metrics
	Prometheus bool `yaml:"prometheus,omitempty"`

	// OTLP pushes the metrics to the collector every DefaultMetricsInterval
	OTLP bool `yaml:"otlp,omitempty"`
}

// exportTarget is what every exporter needs to know about the service and the collector
type exportTarget struct {
	serviceName    string
	serviceVersion string
	endpoint       string
	insecure       bool
}

// target resolves the configured service identity and collector, applying defaults.
// fallbackVersion is used when the file names no version.
func (c *Config) target(fallbackVersion string) exportTarget {
	t := exportTarget{
		serviceName:    DefaultServiceName,
		serviceVersion: fallbackVersion,
		endpoint:       DefaultEndpoint,
	}
	if t.serviceVersion == "" {
		t.serviceVersion = unknownVersion
	}
	if c == nil {
		return t
	}
	if c.ServiceName != "" {
		t.serviceName = c.ServiceName
	}
	if c.ServiceVersion != "" {
		t.serviceVersion = c.ServiceVersion
	}
	if c.Endpoint != "" {
		t.endpoint = c.Endpoint
	}
	t.insecure = c.Insecure
	return t
}

// tracingOn reports whether spans are exported
func (c *Config) tracingOn() bool {
	return c != nil && c.Enabled && c.Tracing != nil && c.Tracing.Enabled
}

// metricsOn reports whether metrics are exported
func (c *Config) metricsOn() bool {
	return c != nil && c.Enabled && c.Metrics != nil && c.Metrics.Enabled
}

// ratio returns the configured sampling ratio or DefaultSampling
func (c *TracingConfig) ratio() float64 {
	if c == nil || c.Sampling == 0 {
		return DefaultSampling
	}
	return c.Sampling
}

// Validate checks the nested sections. A nil or disabled configuration is valid.
func (c *Config) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	var errs []error
	if c.Tracing != nil && c.Tracing.Enabled {
		if c.Tracing.Sampling < 0 || c.Tracing.Sampling > 1 {
			errs = append(errs, fmt.Errorf("tracing: sampling must be between 0.0 and 1.0, got %g", c.Tracing.Sampling))
		}
	}
	if c.Metrics != nil && c.Metrics.Enabled && !c.Metrics.Prometheus && !c.Metrics.OTLP {
		errs = append(errs, fmt.Errorf("metrics: at least one of prometheus or otlp must be enabled"))
	}
	return errors.Join(errs...)
}
