/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render rasterizes bead collections: every bead is a filled ellipse
// in its own color with a thin outline, drawn over a solid background.
package render

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"beadloom/internal/domain"
	"beadloom/internal/vector"

	"github.com/gogpu/gg"
)

// Options controls the raster output. Zero values fall back to defaults.
type Options struct {
	// Width and Height of the output in pixels. When zero the pattern
	// extent times Scale plus margins is used.
	Width, Height int
	// Scale maps canvas units to pixels (default 1).
	Scale float64
	// Margin in canvas units around the pattern.
	Margin float64

	Background  domain.Color
	Stroke      domain.Color // default black
	StrokeWidth float64      // in canvas units, default 1; negative disables
}

func (o Options) withDefaults() Options {
	if o.Scale <= 0 {
		o.Scale = 1
	}
	if o.Stroke == (domain.Color{}) {
		o.Stroke = domain.Black
	}
	if o.StrokeWidth == 0 {
		o.StrokeWidth = 1
	}
	return o
}

// Extent returns the union of all bead bounds.
func Extent(beads []domain.Bead) vector.Rect {
	var r vector.Rect
	for _, b := range beads {
		r = r.Union(b.Bounds())
	}
	return r
}

// Size returns the pixel size Beads produces for the given options.
func Size(beads []domain.Bead, opt Options) (int, int) {
	opt = opt.withDefaults()
	if opt.Width > 0 && opt.Height > 0 {
		return opt.Width, opt.Height
	}
	ext := Extent(beads)
	pad := opt.StrokeWidth
	if pad < 0 {
		pad = 0
	}
	w := int(math.Ceil((ext.X + ext.W + 2*opt.Margin + pad) * opt.Scale))
	h := int(math.Ceil((ext.Y + ext.H + 2*opt.Margin + pad) * opt.Scale))
	return max(w, 1), max(h, 1)
}

// Beads draws the beads in collection order and returns the raster.
func Beads(beads []domain.Bead, opt Options) (image.Image, error) {
	opt = opt.withDefaults()
	w, h := Size(beads, opt)
	dc := gg.NewContext(w, h)
	defer func() { _ = dc.Close() }()

	if opt.Background != (domain.Color{}) {
		dc.ClearWithColor(gg.FromColor(opt.Background))
	}
	dc.Scale(opt.Scale, opt.Scale)
	dc.Translate(opt.Margin, opt.Margin)
	dc.SetLineWidth(opt.StrokeWidth)

	for i, b := range beads {
		dc.DrawEllipse(b.Center.X, b.Center.Y, b.Radii.RX, b.Radii.RY)
		dc.SetColor(b.Color)
		if opt.StrokeWidth < 0 {
			if err := dc.Fill(); err != nil {
				return nil, fmt.Errorf("fill bead %d: %w", i, err)
			}
			continue
		}
		if err := dc.FillPreserve(); err != nil {
			return nil, fmt.Errorf("fill bead %d: %w", i, err)
		}
		dc.SetColor(opt.Stroke)
		if err := dc.Stroke(); err != nil {
			return nil, fmt.Errorf("stroke bead %d: %w", i, err)
		}
	}
	if err := dc.FlushGPU(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}
	return dc.Image(), nil
}

// EncodePNG renders the beads and writes them as PNG.
func EncodePNG(w io.Writer, beads []domain.Bead, opt Options) error {
	img, err := Beads(beads, opt)
	if err != nil {
		return err
	}
	return Encode(w, img)
}

// Encode writes img as PNG.
func Encode(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, img)
}
