/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"image"
	"math"
	"sort"
	"strconv"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"beadloom/internal/domain"
)

// RowCenters returns the distinct y coordinates of the horizontal beads in
// ascending order; each one is a weaving row.
func RowCenters(beads []domain.Bead) []float64 {
	seen := make(map[float64]bool)
	var ys []float64
	for _, b := range beads {
		if b.Horizontal() && !seen[b.Center.Y] {
			seen[b.Center.Y] = true
			ys = append(ys, b.Center.Y)
		}
	}
	sort.Float64s(ys)
	return ys
}

// WithRowLabels returns img widened on the left by a gutter that numbers the
// rows from 1. opt must be the options img was drawn with.
func WithRowLabels(img image.Image, beads []domain.Bead, opt Options) *image.RGBA {
	opt = opt.withDefaults()
	ys := RowCenters(beads)
	face := basicfont.Face7x13
	d := &font.Drawer{Face: face}
	gutter := d.MeasureString(strconv.Itoa(max(len(ys), 1))).Ceil() + 6

	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx()+gutter, b.Dy()))
	bg := opt.Background
	if bg == (domain.Color{}) {
		bg = domain.White
	}
	draw.Draw(out, out.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(out, image.Rect(gutter, 0, gutter+b.Dx(), b.Dy()), img, b.Min, draw.Over)

	d.Dst = out
	d.Src = image.NewUniform(opt.Stroke)
	m := face.Metrics()
	for i, y := range ys {
		label := strconv.Itoa(i + 1)
		py := int(math.Round((y + opt.Margin) * opt.Scale))
		d.Dot = fixed.Point26_6{
			X: fixed.I(gutter-3) - d.MeasureString(label),
			Y: fixed.I(py) + (m.Ascent-m.Descent)/2,
		}
		d.DrawString(label)
	}
	return out
}
