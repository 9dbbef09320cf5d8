package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	registryapp "github.com/mergington/activity-registry/internal/app"
	"github.com/mergington/activity-registry/internal/config"
	"github.com/mergington/activity-registry/internal/telemetry"
	"github.com/mergington/activity-registry/internal/versions"
)

const defaultGracefulTimeout = 30 * time.Second

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the activity registry API server",
		Long: `Start the activity registry API server.

Without --config the built-in Mergington High School catalog is served with
capacity enforcement on and telemetry off. See examples/ for sample configurations.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, v)
		},
	}

	cmd.Flags().String("address", ":8080", "Address to listen on")
	cmd.Flags().String("config", "", "Path to configuration file (YAML format)")
	cmd.Flags().Duration("shutdown-timeout", defaultGracefulTimeout, "Time allowed for in-flight requests on shutdown")

	for _, name := range []string{"address", "config", "shutdown-timeout"} {
		if err := v.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			slog.Error("Failed to bind flag", "flag", name, "error", err)
		}
	}

	return cmd
}

// loadConfig returns the configuration at path, or the defaults when path is empty
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		slog.Info("No configuration file given, using the built-in catalog")
		return config.Default(), nil
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("Loaded configuration",
		"path", path,
		"registry", cfg.GetRegistryName(),
		"activities", len(cfg.Catalog()),
		"enforce_capacity", cfg.CapacityEnforced(),
	)
	return cfg, nil
}

func runServe(ctx context.Context, v *viper.Viper) error {
	address := v.GetString("address")

	cfg, err := loadConfig(v.GetString("config"))
	if err != nil {
		return err
	}

	build := versions.Get()
	if !build.Release {
		slog.Warn("Running a development build", "version", build.Version, "build_type", build.BuildType)
	}
	if cfg.Telemetry != nil && cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = build.Version
	}

	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	activityApp, err := registryapp.NewActivityApp(ctx,
		registryapp.WithConfig(cfg),
		registryapp.WithAddress(address),
		registryapp.WithTelemetry(tel),
	)
	if err != nil {
		if shutdownErr := tel.Shutdown(context.Background()); shutdownErr != nil {
			slog.Error("Failed to shut down telemetry", "error", shutdownErr)
		}
		return fmt.Errorf("failed to create activity registry: %w", err)
	}

	slog.Info("Starting activity registry API server", "address", address, "registry", cfg.GetRegistryName())
	return activityApp.Run(ctx, v.GetDuration("shutdown-timeout"))
}
