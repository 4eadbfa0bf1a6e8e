package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"NewsDesk/internal/ports"
)

// CronScheduler runs a job on a standard five-field cron expression.
type CronScheduler struct {
	spec     string
	location *time.Location
	logger   *zap.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	stopped chan struct{}
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler configured via cron expression string.
func NewCronScheduler(spec string, loc *time.Location, logger *zap.Logger) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CronScheduler{spec: spec, location: loc, logger: logger.With(zap.String("component", "cron"))}
}

// Validate parses the expression without scheduling anything.
func Validate(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return nil
}

// Start registers the job and begins dispatching. Overlapping runs are
// skipped. The scheduler stops when ctx is cancelled.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	sched := cron.New(
		cron.WithLocation(c.location),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := sched.AddFunc(c.spec, func() { job(time.Now().In(c.location)) }); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", c.spec, err)
	}
	sched.Start()
	stopped := make(chan struct{})
	c.cron = sched
	c.stopped = stopped
	c.logger.Info("scheduler started", zap.String("spec", c.spec), zap.String("timezone", c.location.String()))

	go func() {
		select {
		case <-ctx.Done():
			_ = c.stop(context.Background(), stopped)
		case <-stopped:
		}
	}()
	return nil
}

// Stop halts dispatching and waits for a running job until ctx expires.
func (c *CronScheduler) Stop(ctx context.Context) error {
	return c.stop(ctx, nil)
}

// stop tears down the running cron. A non-nil owner only stops the run that
// created it, so a stale ctx watcher cannot stop a later Start.
func (c *CronScheduler) stop(ctx context.Context, owner chan struct{}) error {
	c.mu.Lock()
	if owner != nil && c.stopped != owner {
		c.mu.Unlock()
		return nil
	}
	sched := c.cron
	c.cron = nil
	if c.stopped != nil {
		close(c.stopped)
		c.stopped = nil
	}
	c.mu.Unlock()

	if sched == nil {
		return nil
	}

	done := sched.Stop()
	select {
	case <-done.Done():
		c.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
