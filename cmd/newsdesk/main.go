package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"NewsDesk/internal/config"
	"NewsDesk/internal/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "newsdesk",
	Short: "Scheduled news ingestion and publishing pipeline",
	Long: `newsdesk fetches articles from configured sources, rewrites them with an AI
provider when available, stores them, refreshes the homepage zones and rotates
the breaking-news banner.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config file (overrides NEWSDESK_CONFIG)")
	rootCmd.AddCommand(serveCmd, runCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and builds the logger shared by all commands.
func setup() (config.Config, *zap.Logger, error) {
	if configPath != "" {
		if err := os.Setenv("NEWSDESK_CONFIG", configPath); err != nil {
			return config.Config{}, nil, fmt.Errorf("set config path: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.New(cfg.Logging.Level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, logger, nil
}
