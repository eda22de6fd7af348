/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"beadloom/internal/config"
	"beadloom/internal/domain"
	"beadloom/internal/gallery"
	"beadloom/internal/storage"
	"beadloom/internal/vector"
)

func testEditor(t *testing.T) *editor {
	t.Helper()
	cfg := config.Defaults()
	cfg.Grid = domain.GridSize{Width: 2, Height: 2}
	cfg.Canvas.Width = 24
	cfg.Export.Dir = t.TempDir()
	e, err := newEditor(Options{Config: cfg})
	if err != nil {
		t.Fatalf("newEditor: %v", err)
	}
	return e
}

func TestZoomClamp(t *testing.T) {
	tests := []struct {
		cur  float64
		dy   float32
		want float64
	}{
		{1, 0, 1},
		{1, 10, 1.1},
		{1, -10, 0.9},
		{0.3, -100, MinZoom},
		{3.9, 100, MaxZoom},
	}
	for _, tc := range tests {
		if got := nextZoom(tc.cur, tc.dy); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("nextZoom(%v, %v) = %v, want %v", tc.cur, tc.dy, got, tc.want)
		}
	}
	if clampZoom(math.NaN()) != 1 {
		t.Fatalf("NaN zoom should reset to 1")
	}
}

func TestEditorCreateMessages(t *testing.T) {
	e := testEditor(t)
	if _, err := e.create("  !! "); err == nil || err.Error() != "Cannot be empty!" {
		t.Fatalf("empty title error = %v", err)
	}
	if _, err := e.create("Rose"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := e.create("Ro se"); err == nil || err.Error() != "Canvas exists!" {
		t.Fatalf("duplicate title error = %v", err)
	}
}

func TestEditorOpenPaintExport(t *testing.T) {
	e := testEditor(t)
	if got := e.status(); got != "No canvas open" {
		t.Fatalf("status without session = %q", got)
	}
	c, _ := e.create("Tulip")
	s, err := e.open(c.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if n, _ := s.Handle().Len(); n != 16 {
		t.Fatalf("beads after open = %d", n)
	}
	if _, _, err := s.OnTap(vector.P(8, 3)); err != nil {
		t.Fatalf("tap: %v", err)
	}
	if got := e.status(); !strings.Contains(got, "1/16 beads filled") || !strings.Contains(got, "undo 1") {
		t.Fatalf("status = %q", got)
	}
	paths, err := e.exportActive()
	if err != nil || len(paths) != 2 {
		t.Fatalf("export: %v %v", paths, err)
	}
	for _, p := range paths {
		if filepath.Dir(p) != filepath.Join(e.cfg.Export.Dir, "web") {
			t.Fatalf("export path %s", p)
		}
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("missing %s", p)
		}
	}
}

func TestEditorReopenKeepsZoomAndColor(t *testing.T) {
	e := testEditor(t)
	a, _ := e.create("A")
	b, _ := e.create("B")
	s, _ := e.open(a.ID)
	_ = s.SetZoom(2)
	s.SetPaintColor(domain.Black)
	s2, err := e.open(b.ID)
	if err != nil {
		t.Fatalf("open b: %v", err)
	}
	if s2.Zoom() != 2 || s2.PaintColor() != domain.Black {
		t.Fatalf("session settings not carried over: zoom %v color %v", s2.Zoom(), s2.PaintColor())
	}
}

func TestDeletingActiveCanvasClosesSession(t *testing.T) {
	e := testEditor(t)
	c, _ := e.create("Gone")
	if _, err := e.open(c.ID); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := e.store.DeleteCanvas(c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if e.session != nil {
		t.Fatalf("session should be closed")
	}
	if _, err := e.exportActive(); err == nil {
		t.Fatalf("export without session should fail")
	}
	if _, err := e.open(c.ID); !errors.Is(err, gallery.ErrNotFound) {
		t.Fatalf("open deleted canvas: %v", err)
	}
}

func TestThumbnailUsesCache(t *testing.T) {
	t.Setenv(storage.EnvMaxBytes, "")
	e := testEditor(t)
	cache, err := storage.OpenCache(context.Background(), t.TempDir(), 0)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer cache.Close()
	e.cache = cache
	c, _ := e.create("Thumb")
	if img, err := e.thumbnail(context.Background(), c.ID); err != nil || img != nil {
		t.Fatalf("unpopulated canvas should have no thumbnail: %v %v", img, err)
	}
	if _, err := e.open(c.ID); err != nil {
		t.Fatalf("open: %v", err)
	}
	img, err := e.thumbnail(context.Background(), c.ID)
	if err != nil || img == nil {
		t.Fatalf("thumbnail: %v", err)
	}
	if total, _ := cache.TotalBytes(context.Background()); total == 0 {
		t.Fatalf("thumbnail was not cached")
	}
}

func TestImportImageSnapsToPalette(t *testing.T) {
	t.Setenv(config.EnvConfigDir, t.TempDir())
	e := testEditor(t)
	e.cfg.Paint.Palette = "mono"
	if _, err := e.importImage(image.NewUniform(color.NRGBA{R: 250, G: 240, B: 230, A: 255})); err == nil {
		t.Fatalf("import without an open canvas should fail")
	}
	c, _ := e.create("Pic")
	if _, err := e.open(c.ID); err != nil {
		t.Fatalf("open: %v", err)
	}
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = 240
	}
	n, err := e.importImage(src)
	if err != nil || n != 16 {
		t.Fatalf("import: n=%d err=%v", n, err)
	}
	b, _ := e.session.Handle().Bead(3)
	if b.Color != domain.White || !b.IsSelected {
		t.Fatalf("bead after import: %+v", b)
	}
	e.cfg.Paint.Palette = "missing"
	if _, err := e.importImage(src); err == nil {
		t.Fatalf("unknown palette should fail")
	}
}
