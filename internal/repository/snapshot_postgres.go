package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/keystonemortgage/backend/internal/model"
)

type snapshotRow struct {
	Region    string    `db:"region"`
	Version   int64     `db:"version"`
	Source    string    `db:"source"`
	URL       string    `db:"url"`
	ScrapedAt time.Time `db:"scraped_at"`
	Rates     []byte    `db:"rates"`
}

type postgresSnapshotRepository struct {
	db *sqlx.DB
}

// NewPostgresSnapshotRepository stores every published revision and tracks the
// current one per region in rate_snapshot_heads.
func NewPostgresSnapshotRepository(db *sqlx.DB) SnapshotRepository {
	return &postgresSnapshotRepository{db: db}
}

// Get returns the head revision for region
func (r *postgresSnapshotRepository) Get(ctx context.Context, region string) (*model.RateSnapshot, error) {
	query := `
		SELECT s.region, s.version, s.source, s.url, s.scraped_at, s.rates
		FROM rate_snapshot_heads h
		JOIN rate_snapshots s ON s.region = h.region AND s.version = h.version
		WHERE h.region = $1
	`

	var row snapshotRow
	err := r.db.GetContext(ctx, &row, query, region)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get snapshot %s: %w", region, ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", region, err)
	}

	snapshot := &model.RateSnapshot{
		Source:    row.Source,
		URL:       row.URL,
		ScrapedAt: row.ScrapedAt,
		Region:    row.Region,
		Version:   row.Version,
	}
	if err := json.Unmarshal(row.Rates, &snapshot.Rates); err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w: %w", region, ErrSnapshotMalformed, err)
	}
	if err := checkSnapshot(snapshot); err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", region, err)
	}

	return snapshot, nil
}

// Replace bumps the region head and inserts the new revision in one transaction.
func (r *postgresSnapshotRepository) Replace(ctx context.Context, region string, snapshot *model.RateSnapshot) (int64, error) {
	if !ValidRegion(region) {
		return 0, fmt.Errorf("replace snapshot %q: %w", region, ErrInvalidRegion)
	}
	if err := checkSnapshot(snapshot); err != nil {
		return 0, fmt.Errorf("replace snapshot %s: %w", region, err)
	}

	rates, err := json.Marshal(snapshot.Rates)
	if err != nil {
		return 0, fmt.Errorf("encode rates: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var version int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO rate_snapshot_heads (region, version)
		VALUES ($1, 1)
		ON CONFLICT (region)
		DO UPDATE SET
			version = rate_snapshot_heads.version + 1,
			updated_at = CURRENT_TIMESTAMP
		RETURNING version
	`, region).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("bump snapshot version: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO rate_snapshots (region, version, source, url, scraped_at, rates)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, region, version, snapshot.Source, snapshot.URL, snapshot.ScrapedAt.UTC(), string(rates))
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit replace: %w", err)
	}

	snapshot.Region = region
	snapshot.Version = version
	return version, nil
}

// Regions lists regions with a current snapshot
func (r *postgresSnapshotRepository) Regions(ctx context.Context) ([]string, error) {
	var regions []string
	if err := r.db.SelectContext(ctx, &regions, `SELECT region FROM rate_snapshot_heads ORDER BY region`); err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	return regions, nil
}

// History returns the most recent revisions, newest first
func (r *postgresSnapshotRepository) History(ctx context.Context, region string, limit int) ([]model.SnapshotVersion, error) {
	query := `
		SELECT region, version, source, scraped_at, published_at, jsonb_array_length(rates) AS rate_count
		FROM rate_snapshots
		WHERE region = $1
		ORDER BY version DESC
		LIMIT $2
	`

	var history []model.SnapshotVersion
	if err := r.db.SelectContext(ctx, &history, query, region, limit); err != nil {
		return nil, fmt.Errorf("snapshot history: %w", err)
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("snapshot history %s: %w", region, ErrSnapshotNotFound)
	}

	return history, nil
}

// PruneHistory drops revisions older than the newest keep per region.
func (r *postgresSnapshotRepository) PruneHistory(ctx context.Context, keep int) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM rate_snapshots s
		USING rate_snapshot_heads h
		WHERE s.region = h.region AND s.version <= h.version - $1
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshot history: %w", err)
	}
	return result.RowsAffected()
}
