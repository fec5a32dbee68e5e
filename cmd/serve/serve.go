// Package serve implements the long-running API server command.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/quakepredict/quakepredict-go/internal/api"
	"github.com/quakepredict/quakepredict-go/internal/conf"
	"github.com/quakepredict/quakepredict-go/internal/logging"
	"github.com/quakepredict/quakepredict-go/internal/runtime"
	"github.com/quakepredict/quakepredict-go/internal/security"
)

// Command returns the serve subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings)
		},
	}
}

func run(settings *conf.Settings) error {
	if err := conf.ValidateSettings(settings); err != nil {
		return err
	}

	// Generate and persist a signing secret on first start.
	if settings.EnsureJWTSecret() {
		configPaths, err := conf.GetDefaultConfigPaths()
		if err == nil && len(configPaths) > 0 {
			if err := conf.SaveYAMLConfig(filepath.Join(configPaths[0], "config.yaml"), settings); err != nil {
				logging.Warn("Failed to persist generated JWT secret", "error", err)
			}
		}
	}

	services, err := runtime.Bootstrap(settings)
	if err != nil {
		return err
	}
	defer func() {
		if err := services.Close(); err != nil {
			logging.Error("Failed to close datastore", "error", err)
		}
	}()

	tokens, err := security.NewTokenManager(&settings.Security)
	if err != nil {
		return err
	}

	controller := api.New(settings, services.DS, services.Registry,
		services.Risk, tokens, services.Metrics)

	scheduler := startScheduler(settings, services)
	if scheduler != nil {
		defer scheduler.Stop()
	}

	errChan := make(chan error, 1)
	go func() {
		if err := controller.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("HTTP server failed: %w", err)
	case sig := <-quit:
		logging.Info("Shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return controller.Shutdown(ctx)
}

// startScheduler sets up the optional daily cache warm job so the first
// request of the day does not pay the full compute latency.
func startScheduler(settings *conf.Settings, services *runtime.Services) *cron.Cron {
	if !settings.Scheduler.Enabled {
		return nil
	}

	scheduler := cron.New()
	_, err := scheduler.AddFunc(settings.Scheduler.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := services.Risk.GetOrCompute(ctx); err != nil {
			logging.Error("Scheduled snapshot warm failed", "error", err)
		}
	})
	if err != nil {
		logging.Error("Invalid scheduler expression, warm job disabled",
			"schedule", settings.Scheduler.Schedule, "error", err)
		return nil
	}

	scheduler.Start()
	logging.Info("Daily snapshot warm job scheduled", "schedule", settings.Scheduler.Schedule)
	return scheduler
}
