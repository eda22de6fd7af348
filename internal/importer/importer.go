/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package importer turns a picture into bead colors: the image is scaled onto
// the pattern and sampled at every bead center.
package importer

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"math"
	"os"

	"golang.org/x/image/draw"

	// extra decoders
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"beadloom/internal/domain"
	"beadloom/internal/gallery"
	applog "beadloom/internal/log"
	"beadloom/internal/paint"
	"beadloom/internal/render"
)

// ErrNoBeads is returned when there is nothing to sample onto.
var ErrNoBeads = errors.New("no beads to import onto")

// Options controls how sampled pixels become bead colors.
type Options struct {
	// Grayscale converts samples by Rec. 709 luminance.
	Grayscale bool
	// Palette snaps every sample to its closest entry when non-empty.
	Palette []domain.Color
	// Smooth selects Catmull-Rom scaling instead of nearest neighbor.
	Smooth bool
}

// Decode reads a PNG, JPEG, BMP, TIFF or WebP image.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// Load decodes the image file at path.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, format, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	applog.WithComponent("importer").Debug("image loaded", slog.String("path", path), slog.String("format", format),
		slog.Int("w", img.Bounds().Dx()), slog.Int("h", img.Bounds().Dy()))
	return img, nil
}

// Fit scales img to the canvas area the beads cover, anchored at the origin.
func Fit(img image.Image, beads []domain.Bead, smooth bool) (*image.NRGBA, error) {
	if len(beads) == 0 {
		return nil, ErrNoBeads
	}
	ext := render.Extent(beads)
	w := max(int(math.Ceil(ext.X+ext.W)), 1)
	h := max(int(math.Ceil(ext.Y+ext.H)), 1)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	var s draw.Scaler = draw.NearestNeighbor
	if smooth {
		s = draw.CatmullRom
	}
	s.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst, nil
}

// Sample returns the color under each bead center. Fully transparent pixels
// yield ok=false for that bead.
func Sample(img image.Image, beads []domain.Bead, opt Options) ([]domain.Color, []bool, error) {
	fit, err := Fit(img, beads, opt.Smooth)
	if err != nil {
		return nil, nil, err
	}
	b := fit.Bounds()
	colors := make([]domain.Color, len(beads))
	ok := make([]bool, len(beads))
	for i, bd := range beads {
		x := clamp(int(math.Floor(bd.Center.X)), b.Min.X, b.Max.X-1)
		y := clamp(int(math.Floor(bd.Center.Y)), b.Min.Y, b.Max.Y-1)
		c := fit.NRGBAAt(x, y)
		if c.A == 0 {
			continue
		}
		colors[i], ok[i] = convert(c, opt), true
	}
	return colors, ok, nil
}

func convert(c color.NRGBA, opt Options) domain.Color {
	out := domain.Color{R: c.R, G: c.G, B: c.B, A: 255}
	if opt.Grayscale {
		out = out.Gray()
	}
	if len(opt.Palette) > 0 {
		out = Nearest(opt.Palette, out)
	}
	return out
}

// Nearest returns the palette entry closest to c in RGB space. The first entry
// wins ties. An empty palette returns c.
func Nearest(palette []domain.Color, c domain.Color) domain.Color {
	if len(palette) == 0 {
		return c
	}
	best, bestD := palette[0], math.MaxInt
	for _, p := range palette {
		dr, dg, db := int(p.R)-int(c.R), int(p.G)-int(c.G), int(p.B)-int(c.B)
		if d := dr*dr + dg*dg + db*db; d < bestD {
			best, bestD = p, d
		}
	}
	return best
}

// Updates computes the bead states an import produces. Every sampled bead is
// marked selected; beads whose state would not change are left out.
func Updates(img image.Image, beads []domain.Bead, opt Options) ([]gallery.Update, error) {
	colors, ok, err := Sample(img, beads, opt)
	if err != nil {
		return nil, err
	}
	var ups []gallery.Update
	for i, b := range beads {
		if !ok[i] {
			continue
		}
		st := domain.BeadState{Color: colors[i], Selected: true}
		if st == b.State() {
			continue
		}
		ups = append(ups, gallery.Update{Index: i, State: st})
	}
	return ups, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Apply imports img onto the session's canvas as one undoable step and
// returns the number of beads it changed.
func Apply(s *paint.Session, img image.Image, opt Options) (int, error) {
	beads, err := s.Handle().Beads()
	if err != nil {
		return 0, err
	}
	ups, err := Updates(img, beads, opt)
	if err != nil {
		return 0, err
	}
	if len(ups) == 0 {
		return 0, nil
	}
	if err := s.Apply("import", ups); err != nil {
		return 0, err
	}
	return len(ups), nil
}
