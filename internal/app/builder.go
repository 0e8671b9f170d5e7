package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/mosaic-wall/internal/api"
	"github.com/stacklok/mosaic-wall/internal/cache"
	"github.com/stacklok/mosaic-wall/internal/canvas"
	"github.com/stacklok/mosaic-wall/internal/config"
	"github.com/stacklok/mosaic-wall/internal/mosaic"
	"github.com/stacklok/mosaic-wall/internal/provider"
	"github.com/stacklok/mosaic-wall/internal/sources"
	"github.com/stacklok/mosaic-wall/internal/status"
	"github.com/stacklok/mosaic-wall/internal/stepengine"
	"github.com/stacklok/mosaic-wall/internal/telemetry"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second
)

// MosaicAppOptions is a function that configures the mosaic app builder
type MosaicAppOptions func(*mosaicAppConfig) error

// mosaicAppConfig collects everything needed to build a MosaicApp.
// Component overrides are primarily for testing.
type mosaicAppConfig struct {
	config *config.Config

	source   sources.CollectionSource
	animator canvas.Animator

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	dataDir string

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	metricsHandler http.Handler
}

func baseConfig(opts ...MosaicAppOptions) (*mosaicAppConfig, error) {
	cfg := &mosaicAppConfig{
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.address == "" {
		cfg.address = cfg.config.Server.Address
	}
	if cfg.dataDir == "" {
		cfg.dataDir = cfg.config.DataDir
	}

	return cfg, nil
}

// NewMosaicApp builds the application from the given options
func NewMosaicApp(
	ctx context.Context,
	opts ...MosaicAppOptions,
) (*MosaicApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	prov, scheduler, err := buildContentComponents(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build content components: %w", err)
	}

	memCanvas, engine, err := buildDisplayComponents(ctx, cfg, prov)
	if err != nil {
		return nil, fmt.Errorf("failed to build display components: %w", err)
	}

	svc := &displayService{
		provider:  prov,
		scheduler: scheduler,
		canvas:    memCanvas,
	}
	httpServer, err := buildHTTPServer(ctx, cfg, svc)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)

	return &MosaicApp{
		config: cfg.config,
		components: &AppComponents{
			Source:    cfg.source,
			Scheduler: scheduler,
			Provider:  prov,
			Canvas:    memCanvas,
			Engine:    engine,
		},
		httpServer: httpServer,
		ctx:        appCtx,
		cancelFunc: cancel,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) MosaicAppOptions {
	return func(cfg *mosaicAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address, overriding the configured one
func WithAddress(addr string) MosaicAppOptions {
	return func(cfg *mosaicAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		parts := strings.SplitN(addr, ":", 2)
		if len(parts) != 2 || parts[1] == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		host, port := parts[0], parts[1]
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) MosaicAppOptions {
	return func(cfg *mosaicAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithDataDirectory sets the directory the provider status is persisted in
func WithDataDirectory(dir string) MosaicAppOptions {
	return func(cfg *mosaicAppConfig) error {
		cfg.dataDir = dir
		return nil
	}
}

// WithCollectionSource allows injecting a custom collection source (for testing)
func WithCollectionSource(s sources.CollectionSource) MosaicAppOptions {
	return func(cfg *mosaicAppConfig) error {
		cfg.source = s
		return nil
	}
}

// WithAnimator allows injecting a custom animator (for testing)
func WithAnimator(a canvas.Animator) MosaicAppOptions {
	return func(cfg *mosaicAppConfig) error {
		cfg.animator = a
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for component and HTTP metrics
func WithMeterProvider(mp metric.MeterProvider) MosaicAppOptions {
	return func(cfg *mosaicAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider
func WithTracerProvider(tp trace.TracerProvider) MosaicAppOptions {
	return func(cfg *mosaicAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// WithMetricsHandler sets the handler served at /metrics
func WithMetricsHandler(h http.Handler) MosaicAppOptions {
	return func(cfg *mosaicAppConfig) error {
		cfg.metricsHandler = h
		return nil
	}
}

// buildContentComponents builds the collection source, cache, provider and scheduler
//
//nolint:unparam // we prefer having a similar interface
func buildContentComponents(
	_ context.Context,
	b *mosaicAppConfig,
) (*provider.Provider, provider.Scheduler, error) {
	slog.Info("Initializing content components")

	if b.source == nil {
		source, err := sources.NewSource(&b.config.Remote)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create collection source: %w", err)
		}
		b.source = source
	}

	contentCache, err := cache.New(b.config.Provider.CacheSize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create content cache: %w", err)
	}

	prov, err := provider.New(b.source, contentCache,
		provider.WithTitleFilters(b.config.Provider.PhotosetTitleFilters),
		provider.WithTracerProvider(b.tracerProvider),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create provider: %w", err)
	}

	schedOpts := []provider.SchedulerOption{
		provider.WithItemCounter(prov.Count),
	}
	if b.dataDir != "" {
		statusDir := filepath.Join(b.dataDir, "status")
		schedOpts = append(schedOpts, provider.WithStatusPersistence(status.NewFileStatusPersistence(statusDir)))
	}
	if b.meterProvider != nil {
		providerMetrics, err := telemetry.NewProviderMetrics(b.meterProvider)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create provider metrics: %w", err)
		}
		if providerMetrics != nil {
			schedOpts = append(schedOpts, provider.WithProviderMetrics(providerMetrics))
			slog.Info("Provider metrics enabled")
		}
	}

	scheduler, err := provider.NewScheduler(prov, provider.ScheduleFromConfig(&b.config.Provider), schedOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	slog.Info("Content components initialized successfully")
	return prov, scheduler, nil
}

// buildDisplayComponents builds the canvas, the display steps and the engine running them
//
//nolint:unparam // we prefer having a similar interface
func buildDisplayComponents(
	_ context.Context,
	b *mosaicAppConfig,
	content mosaic.ContentSource,
) (*canvas.MemoryCanvas, *stepengine.Engine, error) {
	slog.Info("Initializing display components")

	engineCfg := b.config.Engine
	memCanvas := canvas.NewMemoryCanvas(engineCfg.CanvasWidth, engineCfg.CanvasHeight)

	if b.animator == nil {
		animator, err := canvas.NewTweenAnimator(canvas.WithFrameRate(engineCfg.FrameRate))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create animator: %w", err)
		}
		b.animator = animator
	}

	mosaicOpts := []mosaic.Option{
		mosaic.WithTracerProvider(b.tracerProvider),
	}
	if b.meterProvider != nil {
		mosaicMetrics, err := telemetry.NewMosaicMetrics(b.meterProvider)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create mosaic metrics: %w", err)
		}
		if mosaicMetrics != nil {
			mosaicOpts = append(mosaicOpts, mosaic.WithMetrics(mosaicMetrics))
			slog.Info("Mosaic metrics enabled")
		}
	}

	mosaicStep, err := mosaic.New(&b.config.Mosaic, b.animator, mosaicOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create mosaic step: %w", err)
	}

	var steps []stepengine.Step
	if len(engineCfg.Backgrounds) > 0 {
		switcher, err := stepengine.NewBackgroundSwitcher(engineCfg.Backgrounds)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create background switcher: %w", err)
		}
		steps = append(steps, switcher)
	}
	steps = append(steps, mosaicStep)

	store := stepengine.NewStore(memCanvas)
	store.RegisterDataProvider(mosaic.DataProviderName, content)

	engine, err := stepengine.New(store, steps)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create step engine: %w", err)
	}

	slog.Info("Display components initialized successfully", "step_count", len(steps))
	return memCanvas, engine, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
//
//nolint:unparam // we prefer having a similar interface
func buildHTTPServer(
	_ context.Context,
	b *mosaicAppConfig,
	svc *displayService,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	// Use default middlewares if not provided
	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	if b.tracerProvider != nil {
		b.middlewares = append([]func(http.Handler) http.Handler{telemetry.TracingMiddleware(
			b.tracerProvider, telemetry.WithProbeTracing(telemetry.TracesProbes(b.config.Telemetry)))}, b.middlewares...)
	}

	// Prepend metrics middleware to capture all requests
	if b.meterProvider != nil {
		metricsMiddleware, err := telemetry.MetricsMiddleware(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		if metricsMiddleware != nil {
			b.middlewares = append([]func(http.Handler) http.Handler{metricsMiddleware}, b.middlewares...)
			slog.Info("HTTP metrics middleware enabled")
		}
	}

	serverOpts := []api.ServerOption{
		api.WithMiddlewares(b.middlewares...),
	}
	if b.metricsHandler != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(b.metricsHandler))
	}
	router := api.NewServer(svc, serverOpts...)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
