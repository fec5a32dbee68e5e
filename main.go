package main

import (
	"fmt"
	"os"

	"github.com/quakepredict/quakepredict-go/cmd"
	"github.com/quakepredict/quakepredict-go/internal/conf"
	"github.com/quakepredict/quakepredict-go/internal/logging"
)

// version and buildDate are populated at link time.
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		logging.Fatal("Failed to load configuration", "error", err)
	}

	logging.Info("Starting quakepredict", "version", version, "build_date", buildDate)

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
