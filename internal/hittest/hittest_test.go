/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package hittest

import (
	"math/rand"
	"testing"

	"beadloom/internal/beadgrid"
	"beadloom/internal/domain"
	"beadloom/internal/vector"

	"github.com/google/uuid"
)

func bead(x, y float64) domain.Bead {
	return domain.Bead{ID: uuid.New(), Center: vector.P(x, y), Radii: vector.Radii{RX: 1, RY: 1}}
}

func TestFindNearestEmpty(t *testing.T) {
	if _, ok := FindNearest(nil, vector.P(1, 1)); ok {
		t.Fatalf("expected no bead for empty collection")
	}
	for _, loc := range []Locator{NewLinear(nil), NewKDTree(nil)} {
		if _, ok := loc.Nearest(vector.P(0, 0)); ok {
			t.Fatalf("%T: expected miss on empty locator", loc)
		}
	}
}

func TestFindNearestSingleBead(t *testing.T) {
	b := bead(5, 5)
	for _, p := range []vector.Pt{{X: 5, Y: 5}, {X: -1000, Y: 3}, {X: 1e6, Y: 1e6}} {
		got, ok := FindNearest([]domain.Bead{b}, p)
		if !ok || got.ID != b.ID {
			t.Fatalf("FindNearest(%v) = %v, %v", p, got.ID, ok)
		}
	}
}

func TestFindNearestPicksMinimumDistance(t *testing.T) {
	beads := []domain.Bead{bead(0, 0), bead(10, 0), bead(10, 10), bead(0, 10)}
	got, ok := FindNearest(beads, vector.P(8, 9))
	if !ok || got.ID != beads[2].ID {
		t.Fatalf("expected bead 2, got %v", got.Center)
	}
}

func TestTieBreaksToFirst(t *testing.T) {
	// (5,0) is equidistant from (0,0) and (10,0).
	beads := []domain.Bead{bead(10, 0), bead(0, 0), bead(50, 50)}
	got, _ := FindNearest(beads, vector.P(5, 0))
	if got.ID != beads[0].ID {
		t.Fatalf("tie should resolve to first bead, got %v", got.Center)
	}
	if i, ok := NewKDTree(beads).Nearest(vector.P(5, 0)); !ok || i != 0 {
		t.Fatalf("kdtree tie: got %d", i)
	}
	// duplicate centers resolve to the lower index as well
	dup := []domain.Bead{bead(3, 3), bead(1, 1), bead(1, 1)}
	if i, _ := NewKDTree(dup).Nearest(vector.P(0, 0)); i != 1 {
		t.Fatalf("kdtree duplicate centers: got %d", i)
	}
}

func TestIndexOf(t *testing.T) {
	beads := []domain.Bead{bead(0, 0), bead(1, 1)}
	if i, ok := IndexOf(beads, beads[1].ID); !ok || i != 1 {
		t.Fatalf("IndexOf = %d, %v", i, ok)
	}
	if _, ok := IndexOf(beads, uuid.New()); ok {
		t.Fatalf("unknown id should miss")
	}
}

func TestKDTreeMatchesLinearOnGrid(t *testing.T) {
	beads, err := beadgrid.Generate(12, 20, 400, domain.Gray)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	lin, kd := NewLinear(beads), NewKDTree(beads)
	if lin.Len() != len(beads) || kd.Len() != len(beads) {
		t.Fatalf("locator sizes: %d %d", lin.Len(), kd.Len())
	}
	rng := rand.New(rand.NewSource(7))
	for n := 0; n < 2000; n++ {
		p := vector.P(rng.Float64()*450-25, rng.Float64()*900-25)
		if n%10 == 0 {
			// integer points hit exact ties between neighbouring centers
			p = vector.P(float64(rng.Intn(400)), float64(rng.Intn(800)))
		}
		a, _ := lin.Nearest(p)
		b, _ := kd.Nearest(p)
		if a != b {
			t.Fatalf("query %v: linear %d, kdtree %d", p, a, b)
		}
	}
}

func TestNewChoosesByThreshold(t *testing.T) {
	beads := []domain.Bead{bead(0, 0), bead(1, 0), bead(2, 0)}
	if _, ok := New(beads, 3).(*KDTree); !ok {
		t.Fatalf("expected kdtree at threshold")
	}
	if _, ok := New(beads, 4).(*Linear); !ok {
		t.Fatalf("expected linear below threshold")
	}
	if _, ok := New(beads, 0).(*Linear); !ok {
		t.Fatalf("threshold 0 should disable the tree")
	}
}
