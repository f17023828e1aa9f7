// Package scheduler runs the snapshot refresh on a cron schedule.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/keystonemortgage/backend/internal/service"
)

// Config holds the scheduler configuration
type Config struct {
	// Schedule is a standard 5-field cron expression (e.g., "0 6 * * *" for daily at 06:00)
	Schedule string
	// Timeout is the maximum duration for a complete refresh cycle
	Timeout time.Duration
	// Enabled determines if the scheduler should run
	Enabled bool
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Schedule: "0 6 * * *",
		Timeout:  5 * time.Minute,
		Enabled:  true,
	}
}

// Refresher is the job the scheduler runs
type Refresher interface {
	Refresh(ctx context.Context) (*service.RefreshSummary, error)
}

// Scheduler manages the scheduled refresh job
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	config    Config
	logger    *slog.Logger
	entryID   cron.EntryID
}

// New creates a new Scheduler instance
func New(cfg Config, refresher Refresher, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		refresher: refresher,
		config:    cfg,
		logger:    logger,
	}
}

// Start begins the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		s.logger.Info("Scheduler is disabled, skipping start")
		return nil
	}

	// robfig/cron runs with a seconds field; prepend "0" to the 5-field spec
	schedule := "0 " + s.config.Schedule

	entryID, err := s.cron.AddFunc(schedule, s.runRefreshJob)
	if err != nil {
		return err
	}

	s.entryID = entryID
	s.cron.Start()

	s.logger.Info("Scheduler started",
		slog.String("schedule", s.config.Schedule),
		slog.Duration("timeout", s.config.Timeout),
	)

	return nil
}

// Stop stops scheduling and returns a context that is done once a running
// refresh has finished.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("Stopping scheduler...")
	return s.cron.Stop()
}

// runRefreshJob executes one refresh cycle
func (s *Scheduler) runRefreshJob() {
	timeout := s.config.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	startTime := time.Now()
	s.logger.Info("Starting scheduled refresh job",
		slog.Time("start_time", startTime),
	)

	summary, err := s.refresher.Refresh(ctx)
	duration := time.Since(startTime)

	if err != nil {
		attrs := []any{
			slog.String("error", err.Error()),
			slog.Duration("duration", duration),
		}
		if summary != nil {
			attrs = append(attrs, slog.Int("published", len(summary.Published)), slog.Int("failed", len(summary.Failed)))
		}
		s.logger.Error("Refresh job failed", attrs...)
		return
	}

	s.logger.Info("Refresh job completed successfully",
		slog.Int("published", len(summary.Published)),
		slog.Int("failed", len(summary.Failed)),
		slog.Duration("duration", duration),
	)
}

// GetNextRunTime returns the next scheduled run time
func (s *Scheduler) GetNextRunTime() time.Time {
	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}
