package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"NewsDesk/internal/app"
	"NewsDesk/internal/domain"
)

var runCategory string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one ingestion batch and print its summary as JSON",
	RunE:  runOnce,
}

func init() {
	runCmd.Flags().StringVar(&runCategory, "category", "", "run the per-category job for this category instead of the homepage job")
}

func runOnce(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return err
	}
	defer func() { _ = application.Close() }()

	result, err := application.RunOnce(ctx, domain.Scope{Category: runCategory})
	if err != nil {
		logger.Error("ingestion run failed", zap.String("category", runCategory), zap.Error(err))
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
