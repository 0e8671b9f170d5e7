package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/stacklok/mosaic-wall/internal/canvas"
	"github.com/stacklok/mosaic-wall/internal/config"
)

func TestBaseConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults come from the configuration", func(t *testing.T) {
		t.Parallel()
		cfg := createTestAppConfig()
		cfg.Server.Address = ":7070"
		cfg.DataDir = "/var/lib/mosaic"

		built, err := baseConfig(WithConfig(cfg))
		require.NoError(t, err)
		assert.Equal(t, ":7070", built.address)
		assert.Equal(t, "/var/lib/mosaic", built.dataDir)
		assert.Equal(t, defaultRequestTimeout, built.requestTimeout)
	})

	t.Run("options override the configuration", func(t *testing.T) {
		t.Parallel()
		built, err := baseConfig(
			WithConfig(createTestAppConfig()),
			WithAddress(":8888"),
			WithDataDirectory("/tmp/test-data"),
		)
		require.NoError(t, err)
		assert.Equal(t, ":8888", built.address)
		assert.Equal(t, "/tmp/test-data", built.dataDir)
	})

	t.Run("config is required", func(t *testing.T) {
		t.Parallel()
		built, err := baseConfig(WithAddress(":9090"))
		require.Error(t, err)
		assert.Nil(t, built)
	})

	t.Run("option errors are returned", func(t *testing.T) {
		t.Parallel()
		built, err := baseConfig(WithConfig(createTestAppConfig()), WithAddress(":"))
		require.Error(t, err)
		assert.Nil(t, built)
	})
}

func TestWithAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{name: "port only", addr: ":8080"},
		{name: "localhost", addr: "localhost:8080"},
		{name: "ipv4", addr: "127.0.0.1:9000"},
		{name: "empty", addr: "", wantErr: true},
		{name: "missing port", addr: "127.0.0.1:", wantErr: true},
		{name: "no separator", addr: "8080", wantErr: true},
		{name: "port out of range", addr: ":70000", wantErr: true},
		{name: "hostname", addr: "example.com:80", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &mosaicAppConfig{}
			err := WithAddress(tt.addr)(cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.addr, cfg.address)
		})
	}
}

func TestWithMiddlewares(t *testing.T) {
	t.Parallel()
	cfg := &mosaicAppConfig{}

	mw := func(next http.Handler) http.Handler { return next }
	require.NoError(t, WithMiddlewares(mw, mw)(cfg))
	assert.Len(t, cfg.middlewares, 2)
}

func TestBuildHTTPServer(t *testing.T) {
	t.Parallel()

	t.Run("default middlewares and routes", func(t *testing.T) {
		t.Parallel()
		app := createTestApp(t, ":0")

		rr := httptest.NewRecorder()
		app.GetHTTPServer().Handler.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, defaultReadTimeout, app.GetHTTPServer().ReadTimeout)
		assert.Equal(t, defaultWriteTimeout, app.GetHTTPServer().WriteTimeout)
		assert.Equal(t, defaultIdleTimeout, app.GetHTTPServer().IdleTimeout)
	})

	t.Run("metrics handler and meter provider", func(t *testing.T) {
		t.Parallel()

		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

		metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("ok"))
		})

		b, err := baseConfig(
			WithConfig(createTestAppConfig()),
			WithMeterProvider(mp),
			WithMetricsHandler(metrics),
		)
		require.NoError(t, err)

		server, err := buildHTTPServer(context.Background(), b, &displayService{})
		require.NoError(t, err)

		rr := httptest.NewRecorder()
		server.Handler.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "ok", rr.Body.String())
		// metrics middleware is prepended to the defaults
		assert.Len(t, b.middlewares, 6)
	})
}

func TestBuildDisplayComponents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		modify        func(*config.Config)
		wantErr       bool
		expectedSteps int
	}{
		{
			name:          "mosaic only",
			modify:        func(*config.Config) {},
			expectedSteps: 1,
		},
		{
			name: "with background switcher",
			modify: func(c *config.Config) {
				c.Engine.Backgrounds = []string{"night"}
			},
			expectedSteps: 2,
		},
		{
			name: "invalid mosaic configuration",
			modify: func(c *config.Config) {
				c.Mosaic.NumberOfHighlights = 9
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := createTestAppConfig()
			tt.modify(cfg)

			b, err := baseConfig(WithConfig(cfg), WithAnimator(&canvas.InstantAnimator{}))
			require.NoError(t, err)

			memCanvas, engine, err := buildDisplayComponents(context.Background(), b, nil)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, engine)
			assert.Equal(t, canvas.Rect{Width: 1920, Height: 1080}, memCanvas.Bounds())
		})
	}
}

func TestNewMosaicApp(t *testing.T) {
	t.Parallel()

	t.Run("file source is built from the configuration", func(t *testing.T) {
		t.Parallel()
		cfg := createTestAppConfig()
		cfg.Remote.ManifestPath = writeManifest(t, 1)

		app, err := NewMosaicApp(context.Background(),
			WithConfig(cfg),
			WithDataDirectory(t.TempDir()),
		)
		require.NoError(t, err)
		require.NotNil(t, app)
		assert.Equal(t, config.DefaultServerAddress, app.GetHTTPServer().Addr)
	})

	t.Run("unsupported source type", func(t *testing.T) {
		t.Parallel()
		cfg := createTestAppConfig()
		cfg.Remote.Type = "carrier-pigeon"

		_, err := NewMosaicApp(context.Background(), WithConfig(cfg))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported source type")
	})

	t.Run("invalid title filter", func(t *testing.T) {
		t.Parallel()
		cfg := createTestAppConfig()
		cfg.Provider.PhotosetTitleFilters = []string{"Devoxx [2025"}

		_, err := NewMosaicApp(context.Background(), WithConfig(cfg))
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrInvalidConfiguration)
	})
}
