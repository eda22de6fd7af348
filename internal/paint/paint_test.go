/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package paint

import (
	"errors"
	"testing"

	"beadloom/internal/domain"
	"beadloom/internal/gallery"
	"beadloom/internal/undo"
	"beadloom/internal/vector"
)

var (
	red  = domain.Color{R: 255, A: 255}
	blue = domain.Color{B: 255, A: 255}
)

// newSession returns a session on a populated 2x2 canvas (16 beads, canvas width 24).
func newSession(t *testing.T, opts Options) (*Session, *gallery.Store, *undo.Manager) {
	t.Helper()
	store := gallery.NewStore()
	c, err := store.CreateCanvas("Test", domain.GridSize{Width: 2, Height: 2})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	h, err := store.GetMutable(c.ID)
	if err != nil {
		t.Fatalf("GetMutable: %v", err)
	}
	if _, err := h.EnsureBeads(24, domain.Gray); err != nil {
		t.Fatalf("EnsureBeads: %v", err)
	}
	if opts.PaintColor == (domain.Color{}) {
		opts.PaintColor = domain.White
	}
	if opts.DefaultColor == (domain.Color{}) {
		opts.DefaultColor = domain.Gray
	}
	hist := undo.NewManager(undo.Config{})
	s, err := NewSession(h, hist, opts)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s, store, hist
}

func bead(t *testing.T, s *Session, i int) domain.Bead {
	t.Helper()
	b, err := s.Handle().Bead(i)
	if err != nil {
		t.Fatalf("Bead(%d): %v", i, err)
	}
	return b
}

func TestToggleRule(t *testing.T) {
	cases := []struct {
		name string
		cur  domain.BeadState
		want domain.BeadState
	}{
		{"default to paint", domain.BeadState{Color: domain.Gray}, domain.BeadState{Color: red, Selected: true}},
		{"paint to default", domain.BeadState{Color: red, Selected: true}, domain.BeadState{Color: domain.Gray}},
		{"third color to paint", domain.BeadState{Color: blue, Selected: true}, domain.BeadState{Color: red}},
	}
	for _, tc := range cases {
		if got := Toggle(tc.cur, red, domain.Gray); got != tc.want {
			t.Fatalf("%s: got %+v, want %+v", tc.name, got, tc.want)
		}
	}
}

func TestToggleTwiceRestores(t *testing.T) {
	for _, start := range []domain.BeadState{{Color: domain.Gray}, {Color: red, Selected: true}, {Color: domain.Gray, Selected: true}} {
		got := Toggle(Toggle(start, red, domain.Gray), red, domain.Gray)
		if got != start {
			t.Fatalf("double toggle of %+v gave %+v", start, got)
		}
	}
}

func TestTapTogglesNearest(t *testing.T) {
	s, _, _ := newSession(t, Options{})
	// (3,8) is the center of bead 1 (vertical bead of row 0, column 0)
	i, ok, err := s.OnTap(vector.P(3.4, 8.2))
	if err != nil || !ok || i != 1 {
		t.Fatalf("OnTap = %d %v %v", i, ok, err)
	}
	if b := bead(t, s, 1); b.Color != domain.White || !b.IsSelected {
		t.Fatalf("bead 1 not painted: %+v", b)
	}
	if s.UndoDepth() != 1 {
		t.Fatalf("undo depth %d", s.UndoDepth())
	}
}

func TestUndoReversesLastToggle(t *testing.T) {
	s, _, _ := newSession(t, Options{})
	before := bead(t, s, 4).State()
	if _, err := s.Toggle(4); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if _, err := s.Toggle(5); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	depth := s.UndoDepth()
	ok, err := s.Undo()
	if err != nil || !ok {
		t.Fatalf("undo: %v %v", ok, err)
	}
	if s.UndoDepth() != depth-1 {
		t.Fatalf("undo depth %d, want %d", s.UndoDepth(), depth-1)
	}
	if b := bead(t, s, 5); b.State() != (domain.BeadState{Color: domain.Gray}) {
		t.Fatalf("bead 5 not restored: %+v", b)
	}
	if b := bead(t, s, 4); b.State() == before {
		t.Fatalf("bead 4 should stay toggled")
	}
}

func TestUndoOnEmptyStackIsNoop(t *testing.T) {
	s, _, _ := newSession(t, Options{})
	rev, _ := s.Handle().Revision()
	ok, err := s.Undo()
	if ok || err != nil {
		t.Fatalf("undo on empty stack: %v %v", ok, err)
	}
	if r, _ := s.Handle().Revision(); r != rev {
		t.Fatalf("state changed by empty undo")
	}
}

func TestRedo(t *testing.T) {
	s, _, _ := newSession(t, Options{PaintColor: red})
	_, _ = s.Toggle(2)
	_, _ = s.Undo()
	ok, err := s.Redo()
	if !ok || err != nil {
		t.Fatalf("redo: %v %v", ok, err)
	}
	if b := bead(t, s, 2); b.Color != red || !b.IsSelected {
		t.Fatalf("redo did not reapply: %+v", b)
	}
	if ok, _ := s.Redo(); ok {
		t.Fatalf("second redo should be empty")
	}
}

func TestDragSuppressesRepeats(t *testing.T) {
	s, _, _ := newSession(t, Options{})
	// both points resolve to bead 0 centered at (8,3)
	if _, ok, _ := s.OnDragChanged(vector.P(8, 3)); !ok {
		t.Fatalf("first drag event should toggle")
	}
	if _, ok, _ := s.OnDragChanged(vector.P(8.5, 3.2)); ok {
		t.Fatalf("second drag event on the same bead toggled")
	}
	if s.UndoDepth() != 1 {
		t.Fatalf("expected exactly one toggle, undo depth %d", s.UndoDepth())
	}
	if b := bead(t, s, 0); b.Color != domain.White {
		t.Fatalf("bead 0 should be painted once: %+v", b)
	}

	// moving to another bead and back toggles again
	if i, ok, _ := s.OnDragChanged(vector.P(18, 3)); !ok || i != 2 {
		t.Fatalf("drag to bead 2: %d %v", i, ok)
	}
	if _, ok, _ := s.OnDragChanged(vector.P(8, 3)); !ok {
		t.Fatalf("returning to bead 0 should toggle")
	}
}

func TestDragEndResetsTracker(t *testing.T) {
	s, _, _ := newSession(t, Options{})
	_, _, _ = s.OnDragChanged(vector.P(8, 3))
	s.OnDragEnded()
	if _, ok, _ := s.OnDragChanged(vector.P(8, 3)); !ok {
		t.Fatalf("new gesture on the same bead should toggle")
	}
	if b := bead(t, s, 0); b.Color != domain.Gray || b.IsSelected {
		t.Fatalf("bead 0 should be back to default: %+v", b)
	}
}

func TestZoomScalesPointer(t *testing.T) {
	s, _, _ := newSession(t, Options{Zoom: 2})
	// view (36,6) is canvas (18,3): bead 2
	if i, ok, _ := s.OnTap(vector.P(36, 6)); !ok || i != 2 {
		t.Fatalf("zoomed tap hit %d", i)
	}
	if err := s.SetZoom(0); !errors.Is(err, ErrInvalidZoom) {
		t.Fatalf("SetZoom(0) err = %v", err)
	}
	if err := s.SetZoom(-1); !errors.Is(err, ErrInvalidZoom) {
		t.Fatalf("SetZoom(-1) err = %v", err)
	}
	if s.Zoom() != 2 {
		t.Fatalf("invalid zoom was applied: %v", s.Zoom())
	}
}

func TestTapOnEmptyCanvas(t *testing.T) {
	store := gallery.NewStore()
	c, _ := store.CreateCanvas("Empty", domain.GridSize{Width: 2, Height: 2})
	h, _ := store.GetMutable(c.ID)
	s, err := NewSession(h, undo.NewManager(undo.Config{}), Options{PaintColor: red, DefaultColor: domain.Gray})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if _, ok, err := s.OnTap(vector.P(1, 1)); ok || err != nil {
		t.Fatalf("tap on unpopulated canvas: %v %v", ok, err)
	}
	// populating later makes the session pick up the beads
	if _, err := h.EnsureBeads(24, domain.Gray); err != nil {
		t.Fatalf("EnsureBeads: %v", err)
	}
	if _, ok, _ := s.OnTap(vector.P(8, 3)); !ok {
		t.Fatalf("tap after populate missed")
	}
}

func TestClearIsOneUndoableStep(t *testing.T) {
	s, _, _ := newSession(t, Options{PaintColor: red})
	for _, i := range []int{0, 3, 7} {
		_, _ = s.Toggle(i)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	beads, _ := s.Handle().Beads()
	for i, b := range beads {
		if b.Color != domain.Gray || b.IsSelected {
			t.Fatalf("bead %d not cleared: %+v", i, b)
		}
	}
	if ok, _ := s.Undo(); !ok {
		t.Fatalf("undo clear")
	}
	if b := bead(t, s, 3); b.Color != red || !b.IsSelected {
		t.Fatalf("clear not reverted: %+v", b)
	}
}

func TestVisibleBeadsFilter(t *testing.T) {
	s, _, _ := newSession(t, Options{Filter: FilterSelected})
	_, _ = s.Toggle(6)
	vis, err := s.VisibleBeads()
	if err != nil || len(vis) != 1 {
		t.Fatalf("visible beads: %d %v", len(vis), err)
	}
	s.SetFilter(FilterAll)
	if vis, _ := s.VisibleBeads(); len(vis) != 16 {
		t.Fatalf("unfiltered: %d", len(vis))
	}
	if ParseFilter("hide-unfilled") != FilterSelected || ParseFilter("x") != FilterAll {
		t.Fatalf("ParseFilter mismatch")
	}
}

func TestCount(t *testing.T) {
	beads := []domain.Bead{{Color: red}, {Color: domain.Gray}, {Color: red}, {Color: blue}}
	got := Count(beads)
	if len(got) != 3 || got[0].Color != red || got[0].Count != 2 {
		t.Fatalf("count: %+v", got)
	}
	// equal counts are ordered by hex: #0000ff before #8e8e93
	if got[1].Color != blue || got[2].Color != domain.Gray {
		t.Fatalf("tie order: %+v", got)
	}
}

func TestBindHistoryClearsOnDelete(t *testing.T) {
	s, store, hist := newSession(t, Options{})
	BindHistory(store, hist)
	_, _ = s.Toggle(0)
	if err := store.DeleteCanvas(s.Handle().ID()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if u, _ := hist.Depth(s.Handle().ID()); u != 0 {
		t.Fatalf("history kept after delete: %d", u)
	}
}

func TestKDTreeSessionMatchesLinear(t *testing.T) {
	lin, _, _ := newSession(t, Options{})
	kd, _, _ := newSession(t, Options{KDTreeThreshold: 1})
	for _, p := range []vector.Pt{{X: 0, Y: 0}, {X: 5.5, Y: 5.5}, {X: 13, Y: 13}, {X: 100, Y: 100}} {
		a, _, _ := lin.Nearest(p)
		b, _, _ := kd.Nearest(p)
		if a != b {
			t.Fatalf("point %v: linear %d kdtree %d", p, a, b)
		}
	}
}
