// Package report implements the one-shot snapshot command.
package report

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/quakepredict/quakepredict-go/internal/conf"
	"github.com/quakepredict/quakepredict-go/internal/logging"
	"github.com/quakepredict/quakepredict-go/internal/runtime"
)

// Command returns the report subcommand, which computes (or reuses) today's
// snapshot and prints it to stdout as JSON.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Compute today's risk snapshot and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings)
		},
	}
}

func run(settings *conf.Settings) error {
	if err := conf.ValidateSettings(settings); err != nil {
		return err
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	records, err := services.Risk.GetOrCompute(ctx)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(records)
}
