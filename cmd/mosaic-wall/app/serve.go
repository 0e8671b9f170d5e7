package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/mosaic-wall/internal/app"
	"github.com/stacklok/mosaic-wall/internal/config"
	"github.com/stacklok/mosaic-wall/internal/telemetry"
	"github.com/stacklok/mosaic-wall/internal/versions"
)

const defaultGracefulTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the mosaic wall",
		Long: `Start the collection provider, the display engine and the status API.

The configuration file (--config) specifies:
- the remote photo service or a local manifest to read collections from
- the refresh schedule and collection title filters
- the mosaic grid, highlight and timing settings

See the examples directory for a sample configuration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v)
		},
	}

	cmd.Flags().String("address", "", "Address to listen on, overrides server.address")
	cmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")

	if err := v.BindPFlag("address", cmd.Flags().Lookup("address")); err != nil {
		slog.Error("Failed to bind address flag", "error", err)
	}
	if err := v.BindPFlag("config", cmd.Flags().Lookup("config")); err != nil {
		slog.Error("Failed to bind config flag", "error", err)
	}
	if err := cmd.MarkFlagRequired("config"); err != nil {
		slog.Error("Failed to mark config flag as required", "error", err)
	}

	return cmd
}

func runServe(ctx context.Context, v *viper.Viper) error {
	if ctx == nil {
		ctx = context.Background()
	}

	configPath := v.GetString("config")
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath), config.WithEnvOverrides())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Info("Loaded configuration",
		"path", configPath,
		"source", cfg.Remote.Type,
		"schedule", cfg.Provider.ScheduleType,
		"grid", fmt.Sprintf("%dx%d", cfg.Mosaic.Columns, cfg.Mosaic.Rows))

	tel, err := telemetry.New(ctx,
		telemetry.WithTelemetryConfig(cfg.Telemetry),
		telemetry.WithServiceVersion(versions.GetVersionInfo().Version),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown telemetry", "error", err)
		}
	}()

	opts := []app.MosaicAppOptions{
		app.WithConfig(cfg),
		app.WithMeterProvider(tel.MeterProvider()),
		app.WithTracerProvider(tel.TracerProvider()),
		app.WithMetricsHandler(tel.MetricsHandler()),
	}
	if address := v.GetString("address"); address != "" {
		opts = append(opts, app.WithAddress(address))
	}

	mosaicApp, err := app.NewMosaicApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- mosaicApp.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errChan:
		_ = mosaicApp.Stop(defaultGracefulTimeout)
		return err
	case sig := <-quit:
		slog.Info("Received signal, shutting down", "signal", sig.String())
	}

	if err := mosaicApp.Stop(defaultGracefulTimeout); err != nil {
		return fmt.Errorf("failed to stop application: %w", err)
	}
	return nil
}
