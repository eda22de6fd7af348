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
	"log/slog"
	"path/filepath"
	"strings"

	applog "beadloom/internal/log"
)

// PresetName represents a named export preset.
type PresetName string

const (
	// PresetWeb writes a screen-sized PNG and an SVG.
	PresetWeb PresetName = "web"
	// PresetPrint writes a PDF with color legend and a 3x PNG with row numbers.
	PresetPrint PresetName = "print"
)

// BatchOptions controls exporting one pattern in several formats.
//
// Files are written to <OutDir>/<preset>/<title>.<ext>.
type BatchOptions struct {
	Preset  PresetName
	Formats []string // png, svg, pdf; empty means preset defaults
	OutDir  string
	// Scale overrides the preset's raster scale when > 0.
	Scale float64
}

// BatchExport runs the exports and returns the written paths in format order.
func BatchExport(p Pattern, opt BatchOptions) ([]string, error) {
	if opt.OutDir == "" {
		return nil, fmt.Errorf("output directory is empty")
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	preset := opt.Preset
	if preset == "" {
		preset = PresetWeb
	}
	base := filepath.Join(opt.OutDir, string(preset))
	scale := presetScale(preset)
	if opt.Scale > 0 {
		scale = opt.Scale
	}

	var written []string
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		out := filepath.Join(base, p.FileName(f))
		var err error
		switch f {
		case "png":
			err = PNG(p, out, PNGOptions{Scale: scale, Margin: 4, RowLabels: preset == PresetPrint})
		case "svg":
			err = SVG(p, out, SVGOptions{Scale: scale, Margin: 4})
		case "pdf":
			err = PDF(p, out, PDFOptions{IncludeLegend: preset == PresetPrint})
		default:
			return written, fmt.Errorf("unknown format: %s", f)
		}
		if err != nil {
			return written, fmt.Errorf("%s: %w", f, err)
		}
		written = append(written, out)
	}
	applog.WithOperation(applog.WithComponent("export"), "batch").Debug("pattern exported",
		slog.String("title", p.Title), slog.String("preset", string(preset)), slog.Int("files", len(written)))
	return written, nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetPrint:
		return []string{"pdf", "png"}
	default:
		return []string{"png", "svg"}
	}
}

func presetScale(p PresetName) float64 {
	if p == PresetPrint {
		return 3
	}
	return 1
}
