package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/keystonemortgage/backend/internal/apperror"
	"github.com/keystonemortgage/backend/internal/model"
	"github.com/keystonemortgage/backend/internal/scraper"
)

// ErrRefreshInProgress is returned when a refresh overlaps a running one
var ErrRefreshInProgress = errors.New("snapshot refresh already running")

// SnapshotOrchestrator runs the configured snapshot producers
type SnapshotOrchestrator interface {
	RunAll(ctx context.Context) ([]scraper.JobResult, error)
	RunRegion(ctx context.Context, region string) ([]scraper.JobResult, error)
	GetHealthStatus(nextRunTime time.Time) scraper.HealthStatus
}

// SnapshotPublisher stores a produced snapshot as the region's current one
type SnapshotPublisher interface {
	Publish(ctx context.Context, region string, snapshot *model.RateSnapshot) (int64, error)
}

// PublishedSnapshot describes one region updated by a refresh
type PublishedSnapshot struct {
	Region   string `json:"region"`
	Producer string `json:"producer"`
	Version  int64  `json:"version"`
	Rates    int    `json:"rates"`
}

// FailedJob describes a producer that did not yield a publishable snapshot
type FailedJob struct {
	Producer string `json:"producer"`
	Region   string `json:"region"`
	Error    string `json:"error"`
}

// RefreshSummary is the outcome of one refresh cycle
type RefreshSummary struct {
	StartedAt time.Time           `json:"startedAt"`
	Duration  string              `json:"duration"`
	Published []PublishedSnapshot `json:"published"`
	Failed    []FailedJob         `json:"failed"`
}

// RefreshService runs the producers and publishes what they return. Only one
// refresh runs at a time.
type RefreshService struct {
	orchestrator SnapshotOrchestrator
	publisher    SnapshotPublisher
	logger       *slog.Logger
	running      sync.Mutex
}

// NewRefreshService creates a new refresh service
func NewRefreshService(orchestrator SnapshotOrchestrator, publisher SnapshotPublisher, logger *slog.Logger) *RefreshService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshService{
		orchestrator: orchestrator,
		publisher:    publisher,
		logger:       logger,
	}
}

// Refresh runs every producer and publishes each successful snapshot
func (s *RefreshService) Refresh(ctx context.Context) (*RefreshSummary, error) {
	return s.refresh(ctx, func(ctx context.Context) ([]scraper.JobResult, error) {
		return s.orchestrator.RunAll(ctx)
	})
}

// RefreshRegion runs only the producers for region
func (s *RefreshService) RefreshRegion(ctx context.Context, region string) (*RefreshSummary, error) {
	return s.refresh(ctx, func(ctx context.Context) ([]scraper.JobResult, error) {
		results, err := s.orchestrator.RunRegion(ctx, region)
		if err != nil && len(results) == 0 && ctx.Err() == nil {
			return nil, apperror.NotFound("producer for region " + region)
		}
		return results, err
	})
}

func (s *RefreshService) refresh(ctx context.Context, run func(context.Context) ([]scraper.JobResult, error)) (*RefreshSummary, error) {
	if !s.running.TryLock() {
		return nil, apperror.Unavailable("A rate refresh is already running.", ErrRefreshInProgress)
	}
	defer s.running.Unlock()

	summary := &RefreshSummary{
		StartedAt: time.Now().UTC(),
		Published: []PublishedSnapshot{},
		Failed:    []FailedJob{},
	}

	results, runErr := run(ctx)
	var appErr *apperror.AppError
	if errors.As(runErr, &appErr) {
		return nil, runErr
	}

	for _, r := range results {
		if !r.Success {
			summary.Failed = append(summary.Failed, FailedJob{
				Producer: r.Producer,
				Region:   r.Region,
				Error:    errString(r.Error),
			})
			continue
		}

		version, err := s.publisher.Publish(ctx, r.Region, r.Snapshot)
		if err != nil {
			s.logger.Error("Failed to publish snapshot",
				slog.String("producer", r.Producer),
				slog.String("region", r.Region),
				slog.String("error", err.Error()),
			)
			summary.Failed = append(summary.Failed, FailedJob{
				Producer: r.Producer,
				Region:   r.Region,
				Error:    "publish: " + apperror.GetMessage(err),
			})
			continue
		}

		summary.Published = append(summary.Published, PublishedSnapshot{
			Region:   r.Region,
			Producer: r.Producer,
			Version:  version,
			Rates:    len(r.Snapshot.Rates),
		})
	}

	summary.Duration = time.Since(summary.StartedAt).Round(time.Millisecond).String()

	s.logger.Info("Snapshot refresh finished",
		slog.Int("published", len(summary.Published)),
		slog.Int("failed", len(summary.Failed)),
		slog.String("duration", summary.Duration),
	)

	if runErr != nil {
		return summary, fmt.Errorf("refresh interrupted: %w", runErr)
	}
	if len(summary.Published) == 0 && len(summary.Failed) > 0 {
		return summary, errors.New("no snapshots published")
	}
	return summary, nil
}

// Health reports producer health for the admin dashboard
func (s *RefreshService) Health(nextRunTime time.Time) scraper.HealthStatus {
	return s.orchestrator.GetHealthStatus(nextRunTime)
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
