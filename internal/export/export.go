/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes bead patterns to PNG, SVG and PDF files.
package export

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"beadloom/internal/domain"
	"beadloom/internal/paint"
)

// Pattern is what the exporters draw: the visible beads of one canvas.
type Pattern struct {
	Title      string
	Grid       domain.GridSize
	Background domain.Color
	Beads      []domain.Bead
}

// FromCanvas builds a pattern from a canvas snapshot, keeping only the beads
// that pass the filter.
func FromCanvas(c domain.CanvasItem, f paint.Filter) Pattern {
	return Pattern{Title: c.Title, Grid: c.Grid, Background: c.Background, Beads: f.Apply(c.Beads)}
}

// FileName returns a file name for the pattern with the given extension.
func (p Pattern) FileName(ext string) string {
	name := strings.TrimSpace(p.Title)
	if name == "" {
		name = "pattern"
	}
	return name + "." + strings.TrimPrefix(ext, ".")
}

// Digest returns a hex content digest over everything the exporters draw.
// The title and bead ids are not part of it.
func (p Pattern) Digest() string {
	h := sha256.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}
	put(uint64(p.Grid.Width))
	put(uint64(p.Grid.Height))
	_, _ = h.Write([]byte{p.Background.R, p.Background.G, p.Background.B, p.Background.A})
	put(uint64(len(p.Beads)))
	for _, b := range p.Beads {
		put(math.Float64bits(b.Center.X))
		put(math.Float64bits(b.Center.Y))
		put(math.Float64bits(b.Radii.RX))
		put(math.Float64bits(b.Radii.RY))
		_, _ = h.Write([]byte{b.Color.R, b.Color.G, b.Color.B, b.Color.A})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// writeFile renders into memory and replaces path atomically.
func writeFile(path string, render func(w io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
