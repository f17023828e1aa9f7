package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/keystonemortgage/backend/internal/model"
)

const (
	snapshotExt   = ".json"
	lockFile      = ".lock"
	lockRetryWait = 25 * time.Millisecond
)

// fileSnapshotRepository serializes writers in this process with mu and
// writers in other processes (cmd/snapshot next to cmd/api) with an advisory
// lock on <dir>/.lock.
type fileSnapshotRepository struct {
	dir  string
	mu   sync.Mutex
	lock *flock.Flock
}

// NewFileSnapshotRepository keeps each region's snapshot as <dir>/<region>.json.
func NewFileSnapshotRepository(dir string) (SnapshotRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &fileSnapshotRepository{dir: dir, lock: flock.New(filepath.Join(dir, lockFile))}, nil
}

func (r *fileSnapshotRepository) path(region string) string {
	return filepath.Join(r.dir, region+snapshotExt)
}

// Get reads the current snapshot for region
func (r *fileSnapshotRepository) Get(ctx context.Context, region string) (*model.RateSnapshot, error) {
	if !ValidRegion(region) {
		return nil, fmt.Errorf("get snapshot %q: %w", region, ErrInvalidRegion)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path(region))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("get snapshot %s: %w", region, ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", region, err)
	}

	snapshot, err := DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", region, err)
	}
	if snapshot.Region == "" {
		snapshot.Region = region
	}
	return snapshot, nil
}

// Replace writes the snapshot to a temp file in the same directory and renames
// it over the current one.
func (r *fileSnapshotRepository) Replace(ctx context.Context, region string, snapshot *model.RateSnapshot) (int64, error) {
	if !ValidRegion(region) {
		return 0, fmt.Errorf("replace snapshot %q: %w", region, ErrInvalidRegion)
	}
	if err := checkSnapshot(snapshot); err != nil {
		return 0, fmt.Errorf("replace snapshot %s: %w", region, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	locked, err := r.lock.TryLockContext(ctx, lockRetryWait)
	if err != nil {
		return 0, fmt.Errorf("lock snapshot dir: %w", err)
	}
	if !locked {
		return 0, fmt.Errorf("lock snapshot dir: %w", ctx.Err())
	}
	defer func() { _ = r.lock.Unlock() }()

	stored := *snapshot
	stored.Region = region
	stored.Version = r.currentVersion(region) + 1

	data, err := json.MarshalIndent(&stored, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode snapshot: %w", err)
	}

	if err := writeFileAtomic(r.dir, r.path(region), data); err != nil {
		return 0, fmt.Errorf("replace snapshot %s: %w", region, err)
	}

	snapshot.Region = stored.Region
	snapshot.Version = stored.Version
	return stored.Version, nil
}

// currentVersion reads only the version field so a malformed document does
// not reset the counter.
func (r *fileSnapshotRepository) currentVersion(region string) int64 {
	data, err := os.ReadFile(r.path(region))
	if err != nil {
		return 0
	}
	var head struct {
		Version int64 `json:"version"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return 0
	}
	return head.Version
}

// Regions lists regions that have a snapshot file
func (r *fileSnapshotRepository) Regions(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}

	regions := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), snapshotExt) {
			continue
		}
		region := strings.TrimSuffix(e.Name(), snapshotExt)
		if ValidRegion(region) {
			regions = append(regions, region)
		}
	}
	sort.Strings(regions)
	return regions, nil
}

// History has only the current revision on disk.
func (r *fileSnapshotRepository) History(ctx context.Context, region string, limit int) ([]model.SnapshotVersion, error) {
	snapshot, err := r.Get(ctx, region)
	if err != nil {
		return nil, err
	}

	var publishedAt time.Time
	if info, statErr := os.Stat(r.path(region)); statErr == nil {
		publishedAt = info.ModTime().UTC()
	}

	if limit == 0 {
		return []model.SnapshotVersion{}, nil
	}
	return []model.SnapshotVersion{{
		Region:      region,
		Version:     snapshot.Version,
		Source:      snapshot.Source,
		ScrapedAt:   snapshot.ScrapedAt,
		PublishedAt: publishedAt,
		RateCount:   len(snapshot.Rates),
	}}, nil
}

func writeFileAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
