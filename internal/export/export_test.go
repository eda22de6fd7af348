/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"beadloom/internal/beadgrid"
	"beadloom/internal/domain"
	"beadloom/internal/paint"
	"beadloom/internal/storage"
)

func samplePattern(t *testing.T) Pattern {
	t.Helper()
	beads, err := beadgrid.Generate(2, 2, 24, domain.Gray)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	beads[0].Color, beads[0].IsSelected = domain.White, true
	beads[5].Color, beads[5].IsSelected = domain.Color{R: 200, G: 10, B: 10, A: 255}, true
	return Pattern{Title: "Sample", Grid: domain.GridSize{Width: 2, Height: 2}, Background: domain.Gray, Beads: beads}
}

func TestFromCanvasFilters(t *testing.T) {
	p := samplePattern(t)
	c := domain.CanvasItem{Title: "T", Beads: p.Beads, Background: domain.Black}
	if got := FromCanvas(c, paint.FilterSelected); len(got.Beads) != 2 || got.Background != domain.Black {
		t.Fatalf("filtered pattern: %d beads", len(got.Beads))
	}
	if got := FromCanvas(c, paint.FilterAll); len(got.Beads) != 16 {
		t.Fatalf("unfiltered pattern: %d beads", len(got.Beads))
	}
}

func TestPNGFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "sample.png")
	if err := PNG(samplePattern(t), out, PNGOptions{Scale: 2}); err != nil {
		t.Fatalf("png: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 44 || img.Bounds().Dy() != 84 {
		t.Fatalf("unexpected size: %v", img.Bounds())
	}
	left, _ := filepath.Glob(filepath.Join(filepath.Dir(out), ".export-*"))
	if len(left) != 0 {
		t.Fatalf("temp files left behind: %v", left)
	}
}

func TestWriteSVG(t *testing.T) {
	var buf bytes.Buffer
	p := samplePattern(t)
	p.Title = "A&B"
	if err := WriteSVG(&buf, p, SVGOptions{}); err != nil {
		t.Fatalf("svg: %v", err)
	}
	s := buf.String()
	if n := strings.Count(s, "<ellipse "); n != 16 {
		t.Fatalf("ellipse count %d", n)
	}
	for _, want := range []string{`viewBox="0 0 22 42"`, `<title>A&amp;B</title>`, `fill="#c80a0a"`, `stroke="#000000" stroke-width="1"`, `cx="8" cy="3" rx="3" ry="2"`} {
		if !strings.Contains(s, want) {
			t.Fatalf("svg missing %q:\n%s", want, s)
		}
	}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, samplePattern(t), PDFOptions{IncludeLegend: true}); err != nil {
		t.Fatalf("pdf: %v", err)
	}
	b := buf.Bytes()
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatalf("not a pdf: %q", b[:min(len(b), 16)])
	}
	if n := bytes.Count(b, []byte("/Type /Page")) - bytes.Count(b, []byte("/Type /Pages")); n != 2 {
		t.Fatalf("expected 2 pages, found %d", n)
	}
}

func TestBatchExport(t *testing.T) {
	dir := t.TempDir()
	paths, err := BatchExport(samplePattern(t), BatchOptions{Preset: PresetPrint, OutDir: dir})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	want := []string{filepath.Join(dir, "print", "Sample.pdf"), filepath.Join(dir, "print", "Sample.png")}
	if len(paths) != len(want) {
		t.Fatalf("paths: %v", paths)
	}
	for i, p := range want {
		if paths[i] != p {
			t.Fatalf("path %d = %s, want %s", i, paths[i], p)
		}
		if st, err := os.Stat(p); err != nil || st.Size() == 0 {
			t.Fatalf("missing output %s: %v", p, err)
		}
	}
	if _, err := BatchExport(samplePattern(t), BatchOptions{OutDir: dir, Formats: []string{"tiff"}}); err == nil {
		t.Fatalf("unknown format should fail")
	}
	if _, err := BatchExport(samplePattern(t), BatchOptions{}); err == nil {
		t.Fatalf("empty out dir should fail")
	}
}

func TestDigest(t *testing.T) {
	a := samplePattern(t)
	b := samplePattern(t)
	b.Title = "Other"
	if a.Digest() != b.Digest() {
		t.Fatalf("digest should ignore title and bead ids")
	}
	b.Beads[3].Color = domain.Black
	if a.Digest() == b.Digest() {
		t.Fatalf("digest should change with bead colors")
	}
	c := samplePattern(t)
	c.Background = domain.White
	if a.Digest() == c.Digest() {
		t.Fatalf("digest should change with background")
	}
}

func TestCachedPNG(t *testing.T) {
	t.Setenv(storage.EnvMaxBytes, "")
	ctx := context.Background()
	cache, err := storage.OpenCache(ctx, t.TempDir(), 0)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer cache.Close()
	p := samplePattern(t)
	first, hit, err := CachedPNG(ctx, cache, p, PNGOptions{})
	if err != nil || hit {
		t.Fatalf("first render: hit=%v err=%v", hit, err)
	}
	second, hit, err := CachedPNG(ctx, cache, p, PNGOptions{})
	if err != nil || !hit || !bytes.Equal(first, second) {
		t.Fatalf("second render: hit=%v err=%v", hit, err)
	}
	if _, hit, _ := CachedPNG(ctx, cache, p, PNGOptions{Scale: 2}); hit {
		t.Fatalf("a different size must not hit")
	}
	if b, hit, err := CachedPNG(ctx, nil, p, PNGOptions{}); err != nil || hit || len(b) == 0 {
		t.Fatalf("uncached render: hit=%v err=%v", hit, err)
	}
}

func TestPNGRowLabelsWidenImage(t *testing.T) {
	p := samplePattern(t)
	var plain, rows bytes.Buffer
	if err := WritePNG(&plain, p, PNGOptions{Scale: 2}); err != nil {
		t.Fatalf("plain: %v", err)
	}
	if err := WritePNG(&rows, p, PNGOptions{Scale: 2, RowLabels: true}); err != nil {
		t.Fatalf("rows: %v", err)
	}
	a, _ := png.Decode(&plain)
	b, _ := png.Decode(&rows)
	if b.Bounds().Dx() <= a.Bounds().Dx() || b.Bounds().Dy() != a.Bounds().Dy() {
		t.Fatalf("labelled %v vs plain %v", b.Bounds(), a.Bounds())
	}
}
