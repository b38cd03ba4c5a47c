// frontsim hosts and drives deterministic territorial-conquest simulations.
//
// Usage:
//
//	frontsim serve                      - Host simulations over gRPC
//	frontsim simulate --turns N         - Run a local bot game and print a summary
//	frontsim replay --db path --game id - Re-run an archived game and check its hashes
//
// Global flags:
//
//	--config <path>     - Config file (default: ./frontsim.yaml if present)
//	--log-level <level> - debug, info, warn or error
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/config"
)

var (
	flagConfig   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "frontsim",
	Short: "Deterministic lock-step territorial simulation",
	Long: `frontsim runs the lock-step territorial-conquest simulation.

Available commands:
  serve     - Host simulations over gRPC
  simulate  - Run a local bot game
  replay    - Verify an archived game against its recorded hashes

Examples:
  frontsim serve --port 50061
  frontsim simulate --turns 500 --bots 8 --seed 42
  frontsim replay --db ./archive.db --game 3f0c...`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := config.Init(flagConfig); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		cfg := config.Get()
		level := cfg.Log.Level
		if flagLogLevel != "" {
			level = flagLogLevel
		}
		setupLogging(level, cfg.Log.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(replayCmd)
}

func setupLogging(level, format string) {
	logLevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if os.Getenv("APP_ENV") == "production" || format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	})
}

// runtimeConfig returns the runtime settings, with lifecycle event details
// switched on when running at debug level.
func runtimeConfig(cfg *config.Config) config.RuntimeConfig {
	rc := cfg.Runtime
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		rc.EventDetails = true
	}
	return rc
}

// expandPath resolves a leading ~ to the home directory.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
