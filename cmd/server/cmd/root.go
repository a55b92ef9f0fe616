// Package cmd implements the kabumemo command line.
package cmd

import (
	"fmt"

	"github.com/kabumemo/kabumemo/internal/config"
	"github.com/kabumemo/kabumemo/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kabumemo",
	Short: "Single-user bookkeeping for JP and US equity trades",
	Long: `kabumemo records trades, funding groups, capital additions, FX conversions
and tax settlements, and derives positions, fund snapshots and round-trip yields.

Data lives in JSON files mirrored to SQLite. Configuration comes from the
environment or an optional .env file.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads configuration and builds the process logger.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)
	return cfg, log, nil
}
