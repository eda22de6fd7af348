//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests exercise the bead canvas widget. They are gated behind the
// "fyne" build tag so headless CI does not need Fyne or a display.
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"

	"beadloom/internal/domain"
)

func testCanvas(t *testing.T) (*BeadCanvas, *editor) {
	t.Helper()
	test.NewApp()
	e := testEditor(t)
	c, _ := e.create("Widget")
	s, err := e.open(c.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	bc := NewBeadCanvas()
	bc.SetSession(s)
	bc.Resize(bc.MinSize())
	return bc, e
}

func TestBeadCanvasTapToggles(t *testing.T) {
	bc, e := testCanvas(t)
	changes := 0
	bc.OnChange = func() { changes++ }
	bc.Tapped(&fyne.PointEvent{Position: fyne.NewPos(8, 3)})
	b, _ := e.session.Handle().Bead(0)
	if !b.IsSelected || b.Color != domain.White {
		t.Fatalf("bead 0 after tap: %+v", b)
	}
	if changes != 1 {
		t.Fatalf("OnChange calls = %d", changes)
	}
}

func TestBeadCanvasDragPaintsOnce(t *testing.T) {
	bc, e := testCanvas(t)
	for i := 0; i < 3; i++ {
		bc.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(8, 3)}})
	}
	bc.DragEnd()
	if d := e.session.UndoDepth(); d != 1 {
		t.Fatalf("undo depth after drag = %d", d)
	}
}

func TestBeadCanvasScrollZoomClamped(t *testing.T) {
	bc, e := testCanvas(t)
	for i := 0; i < 50; i++ {
		bc.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.Delta{DY: 100}})
	}
	if z := e.session.Zoom(); z != MaxZoom {
		t.Fatalf("zoom = %v, want %v", z, MaxZoom)
	}
	for i := 0; i < 50; i++ {
		bc.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.Delta{DY: -100}})
	}
	if z := e.session.Zoom(); z != MinZoom {
		t.Fatalf("zoom = %v, want %v", z, MinZoom)
	}
}

func TestBeadCanvasDrawsWithoutSession(t *testing.T) {
	test.NewApp()
	bc := NewBeadCanvas()
	if img := bc.draw(10, 10); img == nil {
		t.Fatalf("draw returned nil")
	}
	bc.Tapped(&fyne.PointEvent{Position: fyne.NewPos(1, 1)})
}
