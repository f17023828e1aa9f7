package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/keystonemortgage/backend/internal/model"
)

var (
	ErrSnapshotNotFound  = errors.New("rate snapshot not found")
	ErrSnapshotMalformed = errors.New("rate snapshot malformed")
	ErrInvalidRegion     = errors.New("invalid region")
)

var regionPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,62}$`)

// ValidRegion reports whether region is usable as a store key.
func ValidRegion(region string) bool {
	return regionPattern.MatchString(region)
}

// SnapshotRepository stores one current rate snapshot per region. Replace is
// atomic: readers observe either the previous or the new snapshot.
type SnapshotRepository interface {
	Get(ctx context.Context, region string) (*model.RateSnapshot, error)
	Replace(ctx context.Context, region string, snapshot *model.RateSnapshot) (int64, error)
	Regions(ctx context.Context) ([]string, error)
	History(ctx context.Context, region string, limit int) ([]model.SnapshotVersion, error)
}

// HistoryPruner is implemented by stores that keep past revisions.
type HistoryPruner interface {
	PruneHistory(ctx context.Context, keep int) (int64, error)
}

// DecodeSnapshot parses a stored snapshot document. Anything that does not
// yield a timestamp and at least one rate is reported as ErrSnapshotMalformed.
func DecodeSnapshot(data []byte) (*model.RateSnapshot, error) {
	var snapshot model.RateSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotMalformed, err)
	}
	if err := checkSnapshot(&snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func checkSnapshot(s *model.RateSnapshot) error {
	if s.ScrapedAt.IsZero() {
		return fmt.Errorf("%w: missing scrapedAt", ErrSnapshotMalformed)
	}
	if len(s.Rates) == 0 {
		return fmt.Errorf("%w: no rates", ErrSnapshotMalformed)
	}
	return nil
}
