/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"math"
	"testing"
)

func TestRectContainsAndInset(t *testing.T) {
	r := R(10, 20, 100, 50)
	if !r.Contains(Pt{10, 20}) || !r.Contains(Pt{110, 70}) {
		t.Fatalf("expected edge points to be contained")
	}
	in := r.Inset(5, 5)
	if in.X != 15 || in.Y != 25 || in.W != 90 || in.H != 40 {
		t.Fatalf("unexpected inset: %+v", in)
	}
}

func TestUnionTreatsZeroAsEmpty(t *testing.T) {
	u := Rect{}.Union(R(5, 5, 10, 10))
	if u != R(5, 5, 10, 10) {
		t.Fatalf("union with empty: %+v", u)
	}
	u = u.Union(R(0, 10, 2, 20))
	if u != R(0, 5, 15, 25) {
		t.Fatalf("union: %+v", u)
	}
}

func TestDistances(t *testing.T) {
	p, q := P(1, 2), P(4, 6)
	if d := Dist(p, q); d != 5 {
		t.Fatalf("Dist = %v, want 5", d)
	}
	if d := Dist2(p, q); d != 25 {
		t.Fatalf("Dist2 = %v, want 25", d)
	}
}

func TestEllipseHelpers(t *testing.T) {
	c, rd := P(10, 10), Radii{RX: 3, RY: 2}
	if b := EllipseBounds(c, rd); b != R(7, 8, 6, 4) {
		t.Fatalf("bounds: %+v", b)
	}
	if !InEllipse(c, rd, P(12.9, 10)) || InEllipse(c, rd, P(10, 12.5)) {
		t.Fatalf("InEllipse mismatch")
	}
}

func TestAffineInvertRoundTrip(t *testing.T) {
	m := Translate(10, 5).Mul(Scale(2, 3))
	p := m.Apply(Pt{1, 1})
	if p.X != 12 || p.Y != 8 {
		t.Fatalf("unexpected transform result: %+v", p)
	}
	inv, ok := m.Invert()
	if !ok {
		t.Fatalf("expected invertible")
	}
	back := inv.Apply(p)
	if math.Abs(back.X-1) > 1e-9 || math.Abs(back.Y-1) > 1e-9 {
		t.Fatalf("round trip: %+v", back)
	}
	if _, ok := Scale(0, 1).Invert(); ok {
		t.Fatalf("singular matrix inverted")
	}
}
