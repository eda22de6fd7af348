/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"io"
	"math"

	"beadloom/internal/domain"
	"beadloom/internal/paint"
	"beadloom/internal/render"

	"github.com/jung-kurt/gofpdf"
)

// PDFOptions controls PDF export. Units are points.
//
// The first page holds the pattern scaled to fit inside the page margins. With
// IncludeLegend a second page lists every bead color with its count.
type PDFOptions struct {
	PageWidth, PageHeight float64 // default A4 portrait
	Margin                float64 // default 36pt
	IncludeLegend         bool
	Author                string
}

const (
	a4W = 595.28
	a4H = 841.89
)

// WritePDF writes the pattern as PDF to w.
func WritePDF(w io.Writer, p Pattern, opt PDFOptions) error {
	if opt.PageWidth <= 0 || opt.PageHeight <= 0 {
		opt.PageWidth, opt.PageHeight = a4W, a4H
	}
	if opt.Margin <= 0 {
		opt.Margin = 36
	}
	if opt.Author == "" {
		opt.Author = "beadloom"
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: opt.PageWidth, Ht: opt.PageHeight},
	})
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(p.Title, true)
	pdf.SetAuthor(opt.Author, true)
	pdf.SetAutoPageBreak(false, 0)

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(opt.Margin, opt.Margin, tr(p.Title))
	pdf.SetFont("Helvetica", "", 9)
	pdf.Text(opt.Margin, opt.Margin+14, fmt.Sprintf("%d x %d cells, %d beads", p.Grid.Width, p.Grid.Height, len(p.Beads)))

	top := opt.Margin + 28
	boxW := opt.PageWidth - 2*opt.Margin
	boxH := opt.PageHeight - top - opt.Margin
	ext := render.Extent(p.Beads)
	scale := 1.0
	if ext.W > 0 && ext.H > 0 {
		scale = math.Min(boxW/(ext.X+ext.W), boxH/(ext.Y+ext.H))
	}

	if p.Background != (domain.Color{}) {
		setFillColor(pdf, p.Background)
		pdf.Rect(opt.Margin, top, (ext.X+ext.W)*scale, (ext.Y+ext.H)*scale, "F")
	}
	setDrawColor(pdf, domain.Black)
	pdf.SetLineWidth(math.Max(0.1, scale*0.5))
	for _, b := range p.Beads {
		setFillColor(pdf, b.Color)
		pdf.Ellipse(opt.Margin+b.Center.X*scale, top+b.Center.Y*scale, b.Radii.RX*scale, b.Radii.RY*scale, 0, "FD")
	}

	if opt.IncludeLegend {
		writeLegend(pdf, opt, paint.Count(p.Beads))
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	return pdf.Output(w)
}

func writeLegend(pdf *gofpdf.Fpdf, opt PDFOptions, counts []paint.ColorCount) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(opt.Margin, opt.Margin, "Colors")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetLineWidth(0.5)
	setDrawColor(pdf, domain.Black)

	const row = 18.0
	y := opt.Margin + row
	for _, c := range counts {
		if y+row > opt.PageHeight-opt.Margin {
			pdf.AddPage()
			y = opt.Margin
		}
		setFillColor(pdf, c.Color)
		pdf.Rect(opt.Margin, y-10, 24, 12, "FD")
		pdf.Text(opt.Margin+32, y, c.Color.Hex())
		pdf.Text(opt.Margin+110, y, fmt.Sprintf("%d", c.Count))
		y += row
	}
}

// PDF writes the pattern as a PDF file.
func PDF(p Pattern, outPath string, opt PDFOptions) error {
	return writeFile(outPath, func(w io.Writer) error { return WritePDF(w, p, opt) })
}

func setDrawColor(pdf *gofpdf.Fpdf, c domain.Color) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c domain.Color) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}
