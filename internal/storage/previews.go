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
	"strconv"
	"strings"
	"time"
)

// Kinds of cached renders.
const (
	KindPNG     = "png"
	KindPNGRows = "png_rows" // PNG with a row-number gutter
	KindSVG     = "svg"
	KindPDF     = "pdf"
)

// Key identifies one cached render.
type Key struct {
	Digest string // content digest of the pattern
	Kind   string
	W, H   int
}

func (k Key) valid() error {
	if strings.TrimSpace(k.Digest) == "" {
		return errors.New("empty digest")
	}
	switch k.Kind {
	case KindPNG, KindPNGRows, KindSVG, KindPDF:
		return nil
	default:
		return fmt.Errorf("invalid kind: %s", k.Kind)
	}
}

func (c *Cache) stamp() string { return c.now().UTC().Format(time.RFC3339Nano) }

// Get returns the cached bytes and marks the entry as recently used.
// A miss returns nil, nil.
func (c *Cache) Get(ctx context.Context, k Key) ([]byte, error) {
	if err := k.valid(); err != nil {
		return nil, err
	}
	var blob []byte
	err := c.db.QueryRowContext(ctx, `SELECT blob FROM previews WHERE digest=? AND kind=? AND w=? AND h=?`,
		k.Digest, k.Kind, k.W, k.H).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query preview: %w", err)
	}
	_, _ = c.db.ExecContext(ctx, `UPDATE previews SET last_access=? WHERE digest=? AND kind=? AND w=? AND h=?`,
		c.stamp(), k.Digest, k.Kind, k.W, k.H)
	return blob, nil
}

// Put stores bytes under the key and evicts old entries to stay within budget.
func (c *Cache) Put(ctx context.Context, k Key, blob []byte) error {
	if err := k.valid(); err != nil {
		return err
	}
	now := c.stamp()
	_, err := c.db.ExecContext(ctx, `INSERT INTO previews(digest,kind,w,h,blob,size,updated_at,last_access)
		VALUES(?,?,?,?,?,?,?,?)
		ON CONFLICT(digest,kind,w,h) DO UPDATE SET blob=excluded.blob, size=excluded.size, updated_at=excluded.updated_at, last_access=excluded.last_access`,
		k.Digest, k.Kind, k.W, k.H, blob, len(blob), now, now)
	if err != nil {
		return fmt.Errorf("upsert preview: %w", err)
	}
	return c.EvictToFit(ctx, c.maxBytes)
}

// GetOrCreate returns the cached bytes or generates, stores and returns them.
func (c *Cache) GetOrCreate(ctx context.Context, k Key, gen func(context.Context) ([]byte, error)) ([]byte, bool, error) {
	if b, err := c.Get(ctx, k); err != nil {
		return nil, false, err
	} else if b != nil {
		return b, true, nil
	}
	data, err := gen(ctx)
	if err != nil {
		return nil, false, err
	}
	if err := c.Put(ctx, k, data); err != nil {
		return nil, false, err
	}
	return data, false, nil
}

// EvictToFit deletes least-recently-used rows until the total size is at most capBytes.
func (c *Cache) EvictToFit(ctx context.Context, capBytes int64) error {
	if capBytes <= 0 {
		return nil
	}
	total, err := c.TotalBytes(ctx)
	if err != nil {
		return err
	}
	if total <= capBytes {
		return nil
	}
	rows, err := c.db.QueryContext(ctx, `SELECT id, size FROM previews ORDER BY
		CASE WHEN last_access IS NULL THEN 0 ELSE 1 END ASC, last_access ASC, id ASC`)
	if err != nil {
		return fmt.Errorf("select victims: %w", err)
	}
	var victims []any
	cur := total
	for rows.Next() && cur > capBytes {
		var id, sz int64
		if err := rows.Scan(&id, &sz); err != nil {
			_ = rows.Close()
			return err
		}
		victims = append(victims, id)
		cur -= sz
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	// close the cursor before writing
	if err := rows.Close(); err != nil {
		return err
	}
	if len(victims) == 0 {
		return nil
	}
	q := `DELETE FROM previews WHERE id IN (?` + strings.Repeat(",?", len(victims)-1) + `)`
	if _, err := c.db.ExecContext(ctx, q, victims...); err != nil {
		return fmt.Errorf("evict delete: %w", err)
	}
	c.log.Debug("previews evicted", slog.Int("rows", len(victims)), slog.Int64("bytes_before", total), slog.Int64("bytes_after", cur))
	return nil
}

// TotalBytes returns the total size of cached blobs.
func (c *Cache) TotalBytes(ctx context.Context) (int64, error) {
	var total int64
	if err := c.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM previews`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum previews size: %w", err)
	}
	return total, nil
}

// Purge removes every cached entry.
func (c *Cache) Purge(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM previews`); err != nil {
		return fmt.Errorf("purge previews: %w", err)
	}
	return nil
}

// MaxBytesFromEnv returns BEADLOOM_PREVIEWS_MAX_BYTES when set to a positive
// number, else configured, else DefaultMaxBytes.
func MaxBytesFromEnv(configured int64) int64 {
	if v := os.Getenv(EnvMaxBytes); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	if configured > 0 {
		return configured
	}
	return DefaultMaxBytes
}
