/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package paint turns pointer gestures into bead color changes.
//
// A Session binds one canvas handle to the undo history. Pointer coordinates
// come from the view in zoomed space and are divided by the zoom factor before
// hit-testing. During a drag, a bead is toggled only when the pointer moves on
// to a different bead; the tracker resets when the gesture ends.
package paint

import (
	"cmp"
	"slices"

	"beadloom/internal/domain"
)

// Toggle returns the next state of a bead: a bead not showing the paint color
// takes it, any other bead falls back to the default color. The selection flag
// always flips.
func Toggle(cur domain.BeadState, paintColor, defaultColor domain.Color) domain.BeadState {
	next := domain.BeadState{Color: paintColor, Selected: !cur.Selected}
	if cur.Color == paintColor {
		next.Color = defaultColor
	}
	return next
}

// Filter selects which beads are handed to the renderer.
type Filter int

const (
	// FilterAll shows every bead.
	FilterAll Filter = iota
	// FilterSelected hides beads that were never painted (or painted back).
	FilterSelected
)

func (f Filter) String() string {
	if f == FilterSelected {
		return "selected"
	}
	return "all"
}

// ParseFilter accepts "all" and "selected"; anything else is FilterAll.
func ParseFilter(s string) Filter {
	if s == "selected" || s == "hide-unfilled" {
		return FilterSelected
	}
	return FilterAll
}

// Apply returns the beads passing the filter, in collection order.
func (f Filter) Apply(beads []domain.Bead) []domain.Bead {
	if f != FilterSelected {
		return beads
	}
	out := make([]domain.Bead, 0, len(beads))
	for _, b := range beads {
		if b.IsSelected {
			out = append(out, b)
		}
	}
	return out
}

// ColorCount is the number of beads of one color.
type ColorCount struct {
	Color domain.Color
	Count int
}

// Count returns a color histogram sorted by descending count, then by hex.
func Count(beads []domain.Bead) []ColorCount {
	m := make(map[domain.Color]int)
	for _, b := range beads {
		m[b.Color]++
	}
	out := make([]ColorCount, 0, len(m))
	for c, n := range m {
		out = append(out, ColorCount{Color: c, Count: n})
	}
	slices.SortFunc(out, func(a, b ColorCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Color.Hex(), b.Color.Hex())
	})
	return out
}
