/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the bead pattern data model shared by the generator, the
// hit-tester, the paint session and the gallery store.

import (
	"time"

	"beadloom/internal/vector"

	"github.com/google/uuid"
)

// Bead is a single paintable ellipse on the grid.
type Bead struct {
	ID         uuid.UUID    `json:"id"`
	Center     vector.Pt    `json:"center"`
	Radii      vector.Radii `json:"radii"`
	Color      Color        `json:"color"`
	IsSelected bool         `json:"isSelected,omitempty"`
}

// BeadState is the mutable part of a bead.
type BeadState struct {
	Color    Color `json:"color"`
	Selected bool  `json:"selected,omitempty"`
}

// State returns the bead's color and selection flag.
func (b Bead) State() BeadState { return BeadState{Color: b.Color, Selected: b.IsSelected} }

// Horizontal reports whether the bead is wider than tall.
func (b Bead) Horizontal() bool { return b.Radii.RX > b.Radii.RY }

// Bounds returns the bead's bounding rectangle.
func (b Bead) Bounds() vector.Rect { return vector.EllipseBounds(b.Center, b.Radii) }

// GridSize is the number of cell columns and rows of a canvas.
type GridSize struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Valid reports whether both dimensions are positive.
func (g GridSize) Valid() bool { return g.Width > 0 && g.Height > 0 }

// CanvasItem is a named bead pattern owned by the gallery.
type CanvasItem struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Grid       GridSize  `json:"grid"`
	Beads      []Bead    `json:"beads"`
	Background Color     `json:"background"`
	Revision   uint64    `json:"revision"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Clone returns a deep copy of the canvas.
func (c CanvasItem) Clone() CanvasItem {
	out := c
	if c.Beads != nil {
		out.Beads = append([]Bead(nil), c.Beads...)
	}
	return out
}
