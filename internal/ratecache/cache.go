// Package ratecache keeps fetched rate payloads in a local SQLite file so
// pre-rendering does not call the rate API on every build.
package ratecache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS rate_payloads (
	cache_key TEXT NOT NULL PRIMARY KEY,
	payload   BLOB NOT NULL,
	stored_at INTEGER NOT NULL
)`

// Cache is a key/value store of JSON payloads stamped with their write time.
// Freshness is decided by the caller on every read.
type Cache struct {
	db  *sqlx.DB
	now func() time.Time
}

// Open creates the database file and its directory if needed. Use ":memory:"
// for a throwaway cache.
func Open(path string) (*Cache, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}

	return &Cache{db: db, now: time.Now}, nil
}

// Get returns the payload for key if it was stored less than maxAge ago.
func (c *Cache) Get(ctx context.Context, key string, maxAge time.Duration) ([]byte, bool, error) {
	var row struct {
		Payload  []byte `db:"payload"`
		StoredAt int64  `db:"stored_at"`
	}
	err := c.db.GetContext(ctx, &row, `SELECT payload, stored_at FROM rate_payloads WHERE cache_key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache %s: %w", key, err)
	}

	if c.now().Sub(time.UnixMilli(row.StoredAt)) >= maxAge {
		return nil, false, nil
	}
	return row.Payload, true, nil
}

// Set stores payload under key, replacing any previous value.
func (c *Cache) Set(ctx context.Context, key string, payload []byte) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO rate_payloads (cache_key, payload, stored_at)
		VALUES (?, ?, ?)
		ON CONFLICT(cache_key)
		DO UPDATE SET payload = excluded.payload, stored_at = excluded.stored_at`,
		key, payload, c.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("write cache %s: %w", key, err)
	}
	return nil
}

// Purge deletes entries older than maxAge and returns how many were removed.
func (c *Cache) Purge(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := c.now().Add(-maxAge).UnixMilli()
	res, err := c.db.ExecContext(ctx, `DELETE FROM rate_payloads WHERE stored_at <= ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}
