package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"NewsDesk/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP trigger endpoints and the optional in-process cron",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
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
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close storage", zap.Error(err))
		}
	}()

	logger.Info("newsdesk serving",
		zap.String("addr", cfg.HTTP.Addr),
		zap.Bool("scheduler", cfg.Scheduler.Enabled),
		zap.String("cron", cfg.Scheduler.CronExpression))

	if err := application.Serve(ctx); err != nil && ctx.Err() == nil {
		logger.Error("application stopped", zap.Error(err))
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
