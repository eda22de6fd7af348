/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bufio"
	"fmt"
	"html"
	"io"

	"beadloom/internal/domain"
	"beadloom/internal/render"
)

// SVGOptions controls SVG export.
type SVGOptions struct {
	// Scale sets the width/height attributes relative to the viewBox (default 1).
	Scale       float64
	Margin      float64
	StrokeWidth float64 // default 1; negative disables the outline
}

// WriteSVG writes the pattern as an SVG document. Coordinates are canvas units.
func WriteSVG(w io.Writer, p Pattern, opt SVGOptions) error {
	if opt.Scale <= 0 {
		opt.Scale = 1
	}
	if opt.StrokeWidth == 0 {
		opt.StrokeWidth = 1
	}
	ext := render.Extent(p.Beads)
	vw := ext.X + ext.W + 2*opt.Margin + max(opt.StrokeWidth, 0)
	vh := ext.Y + ext.H + 2*opt.Margin + max(opt.StrokeWidth, 0)

	bw := bufio.NewWriter(w)
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(bw, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%g\" height=\"%g\" viewBox=\"0 0 %g %g\">\n",
		vw*opt.Scale, vh*opt.Scale, vw, vh)
	if p.Title != "" {
		wf("  <title>%s</title>\n", html.EscapeString(p.Title))
	}
	if p.Background != (domain.Color{}) {
		wf("  <rect x=\"0\" y=\"0\" width=\"%g\" height=\"%g\" fill=\"%s\"%s/>\n", vw, vh, svgColor(p.Background), svgOpacity("fill", p.Background))
	}
	stroke := ""
	if opt.StrokeWidth > 0 {
		stroke = fmt.Sprintf(" stroke=\"#000000\" stroke-width=\"%g\"", opt.StrokeWidth)
	}
	wf("  <g transform=\"translate(%g %g)\"%s>\n", opt.Margin, opt.Margin, stroke)
	for _, b := range p.Beads {
		wf("    <ellipse cx=\"%g\" cy=\"%g\" rx=\"%g\" ry=\"%g\" fill=\"%s\"%s/>\n",
			b.Center.X, b.Center.Y, b.Radii.RX, b.Radii.RY, svgColor(b.Color), svgOpacity("fill", b.Color))
	}
	wf("  </g>\n</svg>\n")
	if werr != nil {
		return werr
	}
	return bw.Flush()
}

// SVG writes the pattern as an SVG file.
func SVG(p Pattern, outPath string, opt SVGOptions) error {
	return writeFile(outPath, func(w io.Writer) error { return WriteSVG(w, p, opt) })
}

func svgColor(c domain.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func svgOpacity(attr string, c domain.Color) string {
	if c.A == 255 {
		return ""
	}
	return fmt.Sprintf(" %s-opacity=\"%.3g\"", attr, float64(c.A)/255)
}
