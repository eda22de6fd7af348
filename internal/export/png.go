/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"io"

	"beadloom/internal/render"
)

// PNGOptions controls PNG export. Zero values use the render defaults.
type PNGOptions struct {
	Scale       float64
	Margin      float64
	StrokeWidth float64
	// RowLabels adds a gutter numbering the weaving rows.
	RowLabels bool
}

func (o PNGOptions) renderOptions(p Pattern) render.Options {
	return render.Options{Scale: o.Scale, Margin: o.Margin, StrokeWidth: o.StrokeWidth, Background: p.Background}
}

// WritePNG renders the pattern as PNG to w.
func WritePNG(w io.Writer, p Pattern, opt PNGOptions) error {
	ro := opt.renderOptions(p)
	if !opt.RowLabels {
		return render.EncodePNG(w, p.Beads, ro)
	}
	img, err := render.Beads(p.Beads, ro)
	if err != nil {
		return err
	}
	return render.Encode(w, render.WithRowLabels(img, p.Beads, ro))
}

// PNG writes the pattern as a PNG file.
func PNG(p Pattern, outPath string, opt PNGOptions) error {
	return writeFile(outPath, func(w io.Writer) error { return WritePNG(w, p, opt) })
}
