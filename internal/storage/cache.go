/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "beadloom/internal/log"
	"beadloom/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	CacheFileName = "previews.sqlite"

	// schemaVersion tracks the cache schema. Bump it together with a new
	// step in runMigrations.
	schemaVersion = 2

	// DefaultMaxBytes is the cache budget when none is configured.
	DefaultMaxBytes int64 = 64 * 1024 * 1024

	// EnvMaxBytes overrides the configured budget.
	EnvMaxBytes = "BEADLOOM_PREVIEWS_MAX_BYTES"
)

// Cache is an open render cache. It is safe for concurrent use.
type Cache struct {
	db       *sql.DB
	path     string
	maxBytes int64
	log      *slog.Logger
	now      func() time.Time
}

// CachePath returns the cache database path inside dir.
func CachePath(dir string) string { return filepath.Join(dir, CacheFileName) }

// OpenCache creates or opens the cache database in dir. maxBytes <= 0 selects
// DefaultMaxBytes; the BEADLOOM_PREVIEWS_MAX_BYTES variable overrides both.
func OpenCache(ctx context.Context, dir string, maxBytes int64) (*Cache, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "cache_open").With(slog.String("dir", dir))
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("cache directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		l.Error("create cache dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	path := CachePath(dir)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	c := &Cache{db: db, path: path, maxBytes: MaxBytesFromEnv(maxBytes), log: applog.WithComponent("storage"), now: time.Now}
	l.Debug("cache ready", slog.String("path", path), slog.Int64("max_bytes", c.maxBytes))
	return c, nil
}

// Path returns the database file path.
func (c *Cache) Path() string { return c.path }

// MaxBytes returns the eviction budget.
func (c *Cache) MaxBytes() int64 { return c.maxBytes }

// Close closes the database.
func (c *Cache) Close() error { return c.db.Close() }

// SchemaVersion reads the schema version stored in the database.
func (c *Cache) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := c.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v)
	return v, err
}

// language=SQL
const (
	createMeta = `CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`
	createVersion = `CREATE TABLE IF NOT EXISTS version (
		id          INTEGER PRIMARY KEY CHECK(id=1),
		schema      INTEGER NOT NULL,
		app         TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);`
	// Version 1 layout; later columns are added by migrations.
	createPreviews = `CREATE TABLE IF NOT EXISTS previews (
		id          INTEGER PRIMARY KEY,
		digest      TEXT    NOT NULL,
		kind        TEXT    NOT NULL,
		w           INTEGER NOT NULL DEFAULT 0,
		h           INTEGER NOT NULL DEFAULT 0,
		blob        BLOB    NOT NULL,
		size        INTEGER NOT NULL DEFAULT 0,
		updated_at  TEXT    NOT NULL
	);`
	createPreviewsKey = `CREATE UNIQUE INDEX IF NOT EXISTS ux_previews_key ON previews(digest, kind, w, h);`
)

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	for _, q := range []string{createMeta, createVersion} {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// a fresh database starts at version 1 and is migrated forward
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	for _, q := range []string{createPreviews, createPreviewsKey} {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure previews schema: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema steps up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			// LRU tracking
			stmts = []string{
				`ALTER TABLE previews ADD COLUMN last_access TEXT;`,
				`CREATE INDEX IF NOT EXISTS idx_previews_access ON previews(last_access);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}
