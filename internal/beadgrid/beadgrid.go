/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package beadgrid derives bead placements from a grid size and a canvas width.
//
// Each grid cell holds one horizontal and one vertical bead arranged in an
// offset brick pattern. Rows are driven by the grid width (doubled) and
// columns by the grid height; the naming is counter-intuitive but the
// resulting pattern shape depends on it, so it is kept as is.
package beadgrid

import (
	"errors"
	"fmt"

	"beadloom/internal/domain"
	"beadloom/internal/vector"

	"github.com/google/uuid"
)

// ErrInvalidGrid is returned for non-positive grid dimensions or canvas width.
var ErrInvalidGrid = errors.New("invalid grid dimensions")

// Layout holds the integer metrics derived from the grid width and canvas width.
type Layout struct {
	Step        int // canvas pixels per grid column
	RadiusSmall int
	RadiusLarge int
	Shift       int // pitch between cells

	HorRadii   vector.Radii
	VertRadii  vector.Radii
	HorOffset  vector.Pt // (x-seed, y-seed), consumed transposed
	VertOffset vector.Pt
}

// Compute returns the layout metrics. Integer truncation of the step and the
// small radius determines the bead scale.
func Compute(gridWidth, canvasPixelWidth int) (Layout, error) {
	if gridWidth <= 0 || canvasPixelWidth <= 0 {
		return Layout{}, fmt.Errorf("%w: grid width %d, canvas width %d", ErrInvalidGrid, gridWidth, canvasPixelWidth)
	}
	step := canvasPixelWidth / gridWidth
	s := step / 6
	l := s * 3 / 2
	fs, fl := float64(s), float64(l)
	return Layout{
		Step:        step,
		RadiusSmall: s,
		RadiusLarge: l,
		Shift:       2*s + 2*l,
		HorRadii:    vector.Radii{RX: fl, RY: fs},
		VertRadii:   vector.Radii{RX: fs, RY: fl},
		HorOffset:   vector.P(fl, 2*fl+fs),
		VertOffset:  vector.P(2*fl+fs, fl),
	}, nil
}

// Size returns the extent of the pattern generated for the grid.
func (l Layout) Size(grid domain.GridSize) vector.Size {
	edge := 3*l.RadiusLarge + l.RadiusSmall
	return vector.Size{
		W: float64(edge + l.Shift*(grid.Height-1)),
		H: float64(edge + l.Shift*(2*grid.Width-1)),
	}
}

// Count returns the number of beads Generate produces for the grid.
func Count(grid domain.GridSize) int { return 2 * (2 * grid.Width) * grid.Height }

// Generate lays out 2*(2*gridWidth)*gridHeight beads in row-major order,
// emitting a (horizontal, vertical) pair per column. Every bead gets a fresh
// id and the default color. Generate does not check whether the caller
// already holds beads for the canvas.
func Generate(gridWidth, gridHeight, canvasPixelWidth int, def domain.Color) ([]domain.Bead, error) {
	if gridHeight <= 0 {
		return nil, fmt.Errorf("%w: grid height %d", ErrInvalidGrid, gridHeight)
	}
	l, err := Compute(gridWidth, canvasPixelWidth)
	if err != nil {
		return nil, err
	}
	pairs := [2]struct {
		off   vector.Pt
		radii vector.Radii
	}{
		{l.HorOffset, l.HorRadii},
		{l.VertOffset, l.VertRadii},
	}
	shift := float64(l.Shift)
	beads := make([]domain.Bead, 0, Count(domain.GridSize{Width: gridWidth, Height: gridHeight}))
	for row := 0; row < 2*gridWidth; row++ {
		for col := 0; col < gridHeight; col++ {
			for _, p := range pairs {
				beads = append(beads, domain.Bead{
					ID:     uuid.New(),
					Center: vector.P(p.off.Y+shift*float64(col), p.off.X+shift*float64(row)),
					Radii:  p.radii,
					Color:  def,
				})
			}
		}
	}
	return beads, nil
}
