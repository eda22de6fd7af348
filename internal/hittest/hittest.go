/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package hittest maps pointer positions to beads.
//
// Nearest means minimum Euclidean distance between the query point and a bead
// center. Ties resolve to the bead that comes first in collection order, for
// the linear scan and the k-d tree alike.
package hittest

import (
	"beadloom/internal/domain"
	"beadloom/internal/vector"

	"github.com/google/uuid"
)

// FindNearest returns the bead whose center is closest to p.
// ok is false when beads is empty.
func FindNearest(beads []domain.Bead, p vector.Pt) (domain.Bead, bool) {
	i := nearestIndex(beads, p)
	if i < 0 {
		return domain.Bead{}, false
	}
	return beads[i], true
}

// IndexOf returns the position of the bead with the given id.
func IndexOf(beads []domain.Bead, id uuid.UUID) (int, bool) {
	for i := range beads {
		if beads[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

func nearestIndex(beads []domain.Bead, p vector.Pt) int {
	best, bestD := -1, 0.0
	for i := range beads {
		d := vector.Dist2(beads[i].Center, p)
		if best < 0 || d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

// Locator answers nearest-bead queries over a fixed set of bead centers.
type Locator interface {
	// Nearest returns the index of the nearest bead, or false when empty.
	Nearest(p vector.Pt) (int, bool)
	Len() int
}

// New returns a k-d tree locator when len(beads) >= kdThreshold and
// kdThreshold > 0, and a linear scan otherwise.
func New(beads []domain.Bead, kdThreshold int) Locator {
	if kdThreshold > 0 && len(beads) >= kdThreshold {
		return NewKDTree(beads)
	}
	return NewLinear(beads)
}

// Linear is an O(n) scan over a snapshot of the beads.
type Linear struct {
	beads []domain.Bead
}

// NewLinear copies the beads' identities and centers.
func NewLinear(beads []domain.Bead) *Linear {
	snap := make([]domain.Bead, len(beads))
	for i, b := range beads {
		snap[i] = domain.Bead{ID: b.ID, Center: b.Center, Radii: b.Radii}
	}
	return &Linear{beads: snap}
}

func (l *Linear) Len() int { return len(l.beads) }

// Nearest resolves the nearest bead and maps it back to its position by id.
func (l *Linear) Nearest(p vector.Pt) (int, bool) {
	b, ok := FindNearest(l.beads, p)
	if !ok {
		return -1, false
	}
	return IndexOf(l.beads, b.ID)
}
