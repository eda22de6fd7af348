/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package hittest

import (
	"beadloom/internal/domain"
	"beadloom/internal/vector"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// KDTree indexes bead centers in a gonum k-d tree.
type KDTree struct {
	tree *kdtree.Tree
	n    int
}

// NewKDTree builds the tree from the bead centers.
func NewKDTree(beads []domain.Bead) *KDTree {
	pts := make(centers, len(beads))
	for i, b := range beads {
		pts[i] = center{p: b.Center, idx: i}
	}
	t := &KDTree{n: len(pts)}
	if len(pts) > 0 {
		t.tree = kdtree.New(pts, false)
	}
	return t
}

func (t *KDTree) Len() int { return t.n }

// Nearest finds the best distance first, then collects every center at that
// distance and returns the lowest index among them.
func (t *KDTree) Nearest(p vector.Pt) (int, bool) {
	if t.n == 0 {
		return -1, false
	}
	q := center{p: p, idx: -1}
	_, d := t.tree.Nearest(q)
	keep := kdtree.NewDistKeeper(d)
	t.tree.NearestSet(keep, q)
	best := -1
	for _, cd := range keep.Heap {
		c, ok := cd.Comparable.(center)
		if !ok {
			continue
		}
		if best < 0 || c.idx < best {
			best = c.idx
		}
	}
	return best, best >= 0
}

// center is a bead center tagged with its collection index.
type center struct {
	p   vector.Pt
	idx int
}

func (c center) coord(d kdtree.Dim) float64 {
	if d == 0 {
		return c.p.X
	}
	return c.p.Y
}

func (c center) Compare(o kdtree.Comparable, d kdtree.Dim) float64 {
	return c.coord(d) - o.(center).coord(d)
}

func (c center) Dims() int { return 2 }

// Distance is squared, as kdtree expects.
func (c center) Distance(o kdtree.Comparable) float64 {
	return vector.Dist2(c.p, o.(center).p)
}

type centers []center

func (c centers) Index(i int) kdtree.Comparable         { return c[i] }
func (c centers) Len() int                              { return len(c) }
func (c centers) Pivot(d kdtree.Dim) int                { return plane{centers: c, Dim: d}.Pivot() }
func (c centers) Slice(start, end int) kdtree.Interface { return c[start:end] }

// plane sorts centers along one dimension for median partitioning.
type plane struct {
	kdtree.Dim
	centers
}

func (p plane) Less(i, j int) bool {
	return p.centers[i].coord(p.Dim) < p.centers[j].coord(p.Dim)
}
func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.centers = p.centers[start:end]
	return p
}
func (p plane) Swap(i, j int) {
	p.centers[i], p.centers[j] = p.centers[j], p.centers[i]
}
