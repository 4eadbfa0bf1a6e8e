package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"NewsDesk/internal/domain"
	"NewsDesk/internal/ports"
)

// Scheduler wires the cron driver with the pipeline use case.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *zap.Logger
}

// NewScheduler returns a helper to start/stop recurring general-feed runs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{driver: driver, pipeline: pipeline, logger: logger}
}

// Start registers the pipeline with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		result, err := s.pipeline.Run(ctx, domain.Scope{})
		if err != nil {
			s.logger.Error("scheduled run failed", zap.Time("trigger", trigger), zap.Error(err))
			return
		}
		s.logger.Info("scheduled run done", zap.Time("trigger", trigger), zap.Int("imported", result.Imported))
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
