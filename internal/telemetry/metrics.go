package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// ProviderMetricsMeterName is the name used for the collection provider meter
	ProviderMetricsMeterName = "github.com/stacklok/mosaic-wall/provider"

	// MosaicMetricsMeterName is the name used for the mosaic step meter
	MosaicMetricsMeterName = "github.com/stacklok/mosaic-wall/mosaic"
)

// Cycle outcomes recorded by MosaicMetrics
const (
	CycleOutcomeCompleted = "completed"
	CycleOutcomeSkipped   = "skipped"
	CycleOutcomeFailed    = "failed"
	CycleOutcomeCancelled = "cancelled"
)

// ProviderMetrics holds the OpenTelemetry instruments for the scheduled collection provider
type ProviderMetrics struct {
	tickDuration metric.Float64Histogram
	cachedItems  metric.Int64Gauge
}

// NewProviderMetrics creates a new ProviderMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewProviderMetrics(provider metric.MeterProvider) (*ProviderMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(ProviderMetricsMeterName)

	tickDuration, err := meter.Float64Histogram(
		"mosaic_provider_tick_duration_seconds",
		metric.WithDescription("Duration of scheduled collection refreshes in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600),
	)
	if err != nil {
		return nil, err
	}

	cachedItems, err := meter.Int64Gauge(
		"mosaic_cache_items",
		metric.WithDescription("Number of media items held in the content cache"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, err
	}

	return &ProviderMetrics{
		tickDuration: tickDuration,
		cachedItems:  cachedItems,
	}, nil
}

// RecordTick records the duration and outcome of one provider run
func (m *ProviderMetrics) RecordTick(ctx context.Context, duration time.Duration, success bool) {
	if m == nil || m.tickDuration == nil {
		return
	}

	m.tickDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.Bool("success", success),
	))
}

// RecordCachedItems records the current number of cached media items
func (m *ProviderMetrics) RecordCachedItems(ctx context.Context, count int64) {
	if m == nil || m.cachedItems == nil {
		return
	}

	m.cachedItems.Record(ctx, count)
}

// MosaicMetrics holds the OpenTelemetry instruments for mosaic display cycles
type MosaicMetrics struct {
	cyclesTotal   metric.Int64Counter
	cycleDuration metric.Float64Histogram
}

// NewMosaicMetrics creates a new MosaicMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewMosaicMetrics(provider metric.MeterProvider) (*MosaicMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(MosaicMetricsMeterName)

	cyclesTotal, err := meter.Int64Counter(
		"mosaic_cycles_total",
		metric.WithDescription("Number of mosaic cycles by outcome"),
		metric.WithUnit("{cycle}"),
	)
	if err != nil {
		return nil, err
	}

	cycleDuration, err := meter.Float64Histogram(
		"mosaic_cycle_duration_seconds",
		metric.WithDescription("Wall-clock duration of executed mosaic cycles in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 20, 30, 45, 60, 90, 120),
	)
	if err != nil {
		return nil, err
	}

	return &MosaicMetrics{
		cyclesTotal:   cyclesTotal,
		cycleDuration: cycleDuration,
	}, nil
}

// RecordCycle records one mosaic cycle. Skipped cycles carry a zero duration and only
// increment the counter.
func (m *MosaicMetrics) RecordCycle(ctx context.Context, outcome string, duration time.Duration) {
	if m == nil || m.cyclesTotal == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.cyclesTotal.Add(ctx, 1, attrs)
	if outcome != CycleOutcomeSkipped {
		m.cycleDuration.Record(ctx, duration.Seconds(), attrs)
	}
}
