package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// collectMetricNames returns the names of all metrics recorded under the given scope
func collectMetricNames(t *testing.T, reader *sdkmetric.ManualReader, scope string) []string {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var names []string
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != scope {
			continue
		}
		for _, m := range sm.Metrics {
			names = append(names, m.Name)
		}
	}
	return names
}

func TestNewProviderMetrics(t *testing.T) {
	t.Parallel()

	t.Run("returns nil when provider is nil", func(t *testing.T) {
		t.Parallel()

		metrics, err := NewProviderMetrics(nil)
		require.NoError(t, err)
		assert.Nil(t, metrics)
	})

	t.Run("creates metrics with SDK provider", func(t *testing.T) {
		t.Parallel()

		mp := sdkmetric.NewMeterProvider()
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewProviderMetrics(mp)
		require.NoError(t, err)
		require.NotNil(t, metrics)
		assert.NotNil(t, metrics.tickDuration)
		assert.NotNil(t, metrics.cachedItems)
	})
}

func TestProviderMetrics_Record(t *testing.T) {
	t.Parallel()

	t.Run("no-op when metrics is nil", func(t *testing.T) {
		t.Parallel()

		var metrics *ProviderMetrics
		// Should not panic
		metrics.RecordTick(context.Background(), time.Second, true)
		metrics.RecordCachedItems(context.Background(), 10)
	})

	t.Run("records tick duration and cache size", func(t *testing.T) {
		t.Parallel()

		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewProviderMetrics(mp)
		require.NoError(t, err)

		metrics.RecordTick(context.Background(), 3*time.Second, true)
		metrics.RecordTick(context.Background(), time.Second, false)
		metrics.RecordCachedItems(context.Background(), 42)

		names := collectMetricNames(t, reader, ProviderMetricsMeterName)
		assert.ElementsMatch(t, []string{"mosaic_provider_tick_duration_seconds", "mosaic_cache_items"}, names)
	})
}

func TestMosaicMetrics_RecordCycle(t *testing.T) {
	t.Parallel()

	t.Run("no-op when metrics is nil", func(t *testing.T) {
		t.Parallel()

		var metrics *MosaicMetrics
		metrics.RecordCycle(context.Background(), CycleOutcomeCompleted, time.Second)
	})

	t.Run("returns nil when provider is nil", func(t *testing.T) {
		t.Parallel()

		metrics, err := NewMosaicMetrics(nil)
		require.NoError(t, err)
		assert.Nil(t, metrics)
	})

	t.Run("skipped cycles only count", func(t *testing.T) {
		t.Parallel()

		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewMosaicMetrics(mp)
		require.NoError(t, err)

		metrics.RecordCycle(context.Background(), CycleOutcomeSkipped, 0)

		names := collectMetricNames(t, reader, MosaicMetricsMeterName)
		assert.Equal(t, []string{"mosaic_cycles_total"}, names)
	})

	t.Run("completed cycles record duration", func(t *testing.T) {
		t.Parallel()

		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewMosaicMetrics(mp)
		require.NoError(t, err)

		metrics.RecordCycle(context.Background(), CycleOutcomeCompleted, 40*time.Second)

		names := collectMetricNames(t, reader, MosaicMetricsMeterName)
		assert.ElementsMatch(t, []string{"mosaic_cycles_total", "mosaic_cycle_duration_seconds"}, names)
	})
}
