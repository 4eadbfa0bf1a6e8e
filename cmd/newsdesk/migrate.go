package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"NewsDesk/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		if err := app.Migrate(cmd.Context(), cfg); err != nil {
			logger.Error("migration failed", zap.Error(err))
			return err
		}
		logger.Info("migrations applied", zap.String("driver", cfg.Database.Driver))
		return nil
	},
}
