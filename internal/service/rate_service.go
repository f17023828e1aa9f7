package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/keystonemortgage/backend/internal/apperror"
	"github.com/keystonemortgage/backend/internal/logger"
	"github.com/keystonemortgage/backend/internal/model"
	"github.com/keystonemortgage/backend/internal/repository"
)

// RateServiceConfig carries the explicit freshness policy for reads.
type RateServiceConfig struct {
	DefaultRegion string
	StaleAfter    time.Duration // Age past which a snapshot is flagged stale
	ContactPhone  string        // Shown to visitors when rates are unavailable
	HistoryKeep   int           // Revisions kept per region; 0 keeps all
}

// DefaultRateServiceConfig returns the production read policy
func DefaultRateServiceConfig() RateServiceConfig {
	return RateServiceConfig{
		DefaultRegion: "toronto",
		StaleAfter:    96 * time.Hour,
		ContactPhone:  "1-800-555-0199",
		HistoryKeep:   30,
	}
}

// RateService serves and publishes regional rate snapshots
type RateService struct {
	repo repository.SnapshotRepository
	cfg  RateServiceConfig
	now  func() time.Time
}

// NewRateService creates a new rate service
func NewRateService(repo repository.SnapshotRepository, cfg RateServiceConfig) *RateService {
	return &RateService{
		repo: repo,
		cfg:  cfg,
		now:  time.Now,
	}
}

// UnavailableMessage tells visitors how to get rates when none can be served.
func (s *RateService) UnavailableMessage() string {
	return fmt.Sprintf("Live rates are temporarily unavailable. Please call us at %s for today's rates.", s.cfg.ContactPhone)
}

func (s *RateService) region(raw string) (string, error) {
	region := strings.ToLower(strings.TrimSpace(raw))
	if region == "" {
		region = s.cfg.DefaultRegion
	}
	if !repository.ValidRegion(region) {
		return "", apperror.ValidationError("region", "invalid region")
	}
	return region, nil
}

// GetRates loads the region's snapshot and reshapes it for the client. It
// never substitutes rates: a missing or unreadable snapshot is reported as
// unavailable.
func (s *RateService) GetRates(ctx context.Context, rawRegion string) (*model.RatesResponse, error) {
	region, err := s.region(rawRegion)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithRegion(ctx, region)
	log := logger.FromContext(ctx)

	snapshot, err := s.repo.Get(ctx, region)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSnapshotNotFound):
			log.Warn("rate snapshot unavailable", "reason", "missing", "error", err)
		case errors.Is(err, repository.ErrSnapshotMalformed):
			log.Error("rate snapshot unavailable", "reason", "malformed", "error", err)
		default:
			log.Error("rate snapshot unavailable", "reason", "read_failed", "error", err)
		}
		return nil, apperror.Unavailable(s.UnavailableMessage(), err)
	}

	now := s.now()
	age := snapshot.Age(now)
	stale := s.cfg.StaleAfter > 0 && age > s.cfg.StaleAfter
	if stale {
		log.Warn("rate snapshot is stale",
			slog.Duration("age", age),
			slog.Duration("stale_after", s.cfg.StaleAfter),
			slog.Time("scraped_at", snapshot.ScrapedAt),
		)
	}

	return &model.RatesResponse{
		Rates: []model.ProviderRates{{
			Provider: snapshot.Source,
			Rates:    model.NewDisplayRates(snapshot.Rates),
		}},
		LastUpdated: snapshot.ScrapedAt,
		Source:      snapshot.Source,
		DataAge:     snapshot.DataAgeHours(now),
		Stale:       stale,
		Region:      region,
		Version:     snapshot.Version,
	}, nil
}

// Publish validates a producer's snapshot and atomically replaces the region's
// current one. It returns the new version.
func (s *RateService) Publish(ctx context.Context, rawRegion string, snapshot *model.RateSnapshot) (int64, error) {
	region, err := s.region(rawRegion)
	if err != nil {
		return 0, err
	}
	if err := s.validateSnapshot(snapshot); err != nil {
		return 0, err
	}

	version, err := s.repo.Replace(ctx, region, snapshot)
	if err != nil {
		return 0, apperror.Wrap(fmt.Errorf("publish snapshot: %w", err), "failed to store rate snapshot")
	}

	log := logger.FromContext(logger.WithRegion(ctx, region))
	log.Info("rate snapshot published",
		"version", version,
		"source", snapshot.Source,
		"rates", len(snapshot.Rates),
	)

	if pruner, ok := s.repo.(repository.HistoryPruner); ok && s.cfg.HistoryKeep > 0 {
		if pruned, err := pruner.PruneHistory(ctx, s.cfg.HistoryKeep); err != nil {
			log.Warn("prune snapshot history failed", "error", err)
		} else if pruned > 0 {
			log.Debug("pruned snapshot history", "removed", pruned)
		}
	}

	return version, nil
}

func (s *RateService) validateSnapshot(snapshot *model.RateSnapshot) error {
	if snapshot == nil {
		return apperror.BadRequest("snapshot is required")
	}
	if strings.TrimSpace(snapshot.Source) == "" {
		return apperror.ValidationError("source", "source is required")
	}
	if snapshot.ScrapedAt.IsZero() {
		return apperror.ValidationError("scrapedAt", "scrapedAt is required")
	}
	if snapshot.ScrapedAt.After(s.now().Add(time.Hour)) {
		return apperror.ValidationError("scrapedAt", "scrapedAt is in the future")
	}
	if len(snapshot.Rates) == 0 {
		return apperror.ValidationError("rates", "at least one rate is required")
	}

	for i, r := range snapshot.Rates {
		field := fmt.Sprintf("rates[%d]", i)
		switch {
		case strings.TrimSpace(r.Term) == "":
			return apperror.ValidationError(field+".term", "term is required")
		case strings.TrimSpace(r.Rate) == "":
			return apperror.ValidationError(field+".rate", "rate is required")
		case !r.Type.Valid():
			return apperror.ValidationError(field+".type", "type must be Fixed, Variable or Open")
		}
	}
	return nil
}

// Regions lists regions with a published snapshot
func (s *RateService) Regions(ctx context.Context) ([]string, error) {
	regions, err := s.repo.Regions(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return regions, nil
}

// History returns recent revisions for a region
func (s *RateService) History(ctx context.Context, rawRegion string, limit int) ([]model.SnapshotVersion, error) {
	region, err := s.region(rawRegion)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	history, err := s.repo.History(ctx, region, limit)
	if errors.Is(err, repository.ErrSnapshotNotFound) || errors.Is(err, repository.ErrSnapshotMalformed) {
		return nil, apperror.NotFound("rate snapshot")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return history, nil
}
