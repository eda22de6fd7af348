//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image"
	"image/color"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"beadloom/internal/domain"
	"beadloom/internal/paint"
	"beadloom/internal/render"
	"beadloom/internal/vector"
)

// BeadCanvas draws the open canvas and feeds pointer events to the session.
// Tap toggles one bead, drag paints, the scroll wheel zooms.
type BeadCanvas struct {
	widget.BaseWidget

	session *paint.Session
	raster  *canvas.Raster
	// OnChange runs after every edit or zoom change.
	OnChange func()
	// OnError reports failures of the session.
	OnError func(error)
}

func NewBeadCanvas() *BeadCanvas {
	bc := &BeadCanvas{}
	bc.raster = canvas.NewRaster(bc.draw)
	bc.ExtendBaseWidget(bc)
	return bc
}

// SetSession switches the canvas shown; nil shows nothing.
func (bc *BeadCanvas) SetSession(s *paint.Session) {
	bc.session = s
	bc.Refresh()
}

func (bc *BeadCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(bc.raster)
}

func (bc *BeadCanvas) MinSize() fyne.Size {
	if bc.session == nil {
		return fyne.NewSize(200, 200)
	}
	beads, err := bc.session.Handle().Beads()
	if err != nil || len(beads) == 0 {
		return fyne.NewSize(200, 200)
	}
	ext := render.Extent(beads)
	z := bc.session.Zoom()
	return fyne.NewSize(float32((ext.X+ext.W+1)*z), float32((ext.Y+ext.H+1)*z))
}

// draw renders at device pixels; w/Size().Width is the output scale.
func (bc *BeadCanvas) draw(w, h int) image.Image {
	blank := image.NewUniform(color.Transparent)
	if bc.session == nil || w <= 0 || h <= 0 {
		return blank
	}
	beads, err := bc.session.VisibleBeads()
	if err != nil {
		return blank
	}
	snap, err := bc.session.Handle().Snapshot()
	if err != nil {
		return blank
	}
	px := 1.0
	if sz := bc.Size(); sz.Width > 0 {
		px = float64(w) / float64(sz.Width)
	}
	img, err := render.Beads(beads, render.Options{
		Width:      w,
		Height:     h,
		Scale:      bc.session.Zoom() * px,
		Background: snap.Background,
	})
	if err != nil {
		slog.Default().Error("render canvas failed", slog.Any("err", err))
		return blank
	}
	return img
}

func (bc *BeadCanvas) point(pos fyne.Position) vector.Pt {
	return vector.P(float64(pos.X), float64(pos.Y))
}

func (bc *BeadCanvas) changed(hit bool, err error) {
	if err != nil {
		if bc.OnError != nil {
			bc.OnError(err)
		}
		return
	}
	if !hit {
		return
	}
	bc.Refresh()
	if bc.OnChange != nil {
		bc.OnChange()
	}
}

func (bc *BeadCanvas) Tapped(e *fyne.PointEvent) {
	if bc.session == nil {
		return
	}
	_, hit, err := bc.session.OnTap(bc.point(e.Position))
	bc.changed(hit, err)
}

func (bc *BeadCanvas) Dragged(e *fyne.DragEvent) {
	if bc.session == nil {
		return
	}
	_, hit, err := bc.session.OnDragChanged(bc.point(e.Position))
	bc.changed(hit, err)
}

func (bc *BeadCanvas) DragEnd() {
	if bc.session != nil {
		bc.session.OnDragEnded()
	}
}

func (bc *BeadCanvas) Scrolled(e *fyne.ScrollEvent) {
	if bc.session == nil {
		return
	}
	if err := bc.session.SetZoom(nextZoom(bc.session.Zoom(), e.Scrolled.DY)); err != nil {
		bc.changed(false, err)
		return
	}
	bc.Refresh()
	if bc.OnChange != nil {
		bc.OnChange()
	}
}

// SetPaintColor changes the color new toggles paint with.
func (bc *BeadCanvas) SetPaintColor(c color.Color) {
	if bc.session != nil {
		bc.session.SetPaintColor(domain.FromColor(c))
	}
}
