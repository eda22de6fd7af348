/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package paint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"beadloom/internal/domain"
	"beadloom/internal/gallery"
	"beadloom/internal/hittest"
	applog "beadloom/internal/log"
	"beadloom/internal/undo"
	"beadloom/internal/vector"
)

// ErrInvalidZoom is returned for zoom factors that are not finite and positive.
var ErrInvalidZoom = errors.New("zoom must be a positive number")

// Options configures a Session.
type Options struct {
	PaintColor   domain.Color
	DefaultColor domain.Color
	Zoom         float64 // 0 means 1
	Filter       Filter
	// KDTreeThreshold selects the k-d tree locator for canvases with at
	// least this many beads; 0 always uses the linear scan.
	KDTreeThreshold int
}

// Session handles the pointer events of one open canvas.
type Session struct {
	h    *gallery.Handle
	hist *undo.Manager

	paint, def domain.Color
	zoom       float64
	filter     Filter
	threshold  int

	loc  hittest.Locator
	last int // bead index touched by the current drag, -1 for none

	ctx context.Context
	log *slog.Logger
}

func NewSession(h *gallery.Handle, hist *undo.Manager, opts Options) (*Session, error) {
	if h == nil || hist == nil {
		return nil, errors.New("paint: nil handle or history")
	}
	s := &Session{
		h:         h,
		hist:      hist,
		paint:     opts.PaintColor,
		def:       opts.DefaultColor,
		zoom:      1,
		filter:    opts.Filter,
		threshold: opts.KDTreeThreshold,
		last:      -1,
		ctx:       applog.ContextWithCanvas(context.Background(), h.ID().String()),
		log:       applog.WithComponent("paint"),
	}
	if opts.Zoom != 0 {
		if err := s.SetZoom(opts.Zoom); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Session) Handle() *gallery.Handle { return s.h }

func (s *Session) PaintColor() domain.Color { return s.paint }
func (s *Session) SetPaintColor(c domain.Color) { s.paint = c }
func (s *Session) DefaultColor() domain.Color { return s.def }
func (s *Session) SetDefaultColor(c domain.Color) { s.def = c }
func (s *Session) Filter() Filter { return s.filter }
func (s *Session) SetFilter(f Filter) { s.filter = f }
func (s *Session) Zoom() float64 { return s.zoom }

// SetZoom sets the factor between view and canvas coordinates.
func (s *Session) SetZoom(z float64) error {
	if !(z > 0) || math.IsInf(z, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidZoom, z)
	}
	s.zoom = z
	return nil
}

// ToCanvas converts a view point to canvas coordinates.
func (s *Session) ToCanvas(p vector.Pt) vector.Pt { return p.Div(s.zoom) }

// locator returns the hit-test index, building it on first use. Bead centers
// never move after generation, so the index stays valid as long as the count
// does.
func (s *Session) locator() (hittest.Locator, error) {
	n, err := s.h.Len()
	if err != nil {
		return nil, err
	}
	if s.loc != nil && s.loc.Len() == n {
		return s.loc, nil
	}
	beads, err := s.h.Beads()
	if err != nil {
		return nil, err
	}
	s.loc = hittest.New(beads, s.threshold)
	return s.loc, nil
}

// Nearest returns the index of the bead under the view point p.
func (s *Session) Nearest(p vector.Pt) (int, bool, error) {
	loc, err := s.locator()
	if err != nil {
		return -1, false, err
	}
	i, ok := loc.Nearest(s.ToCanvas(p))
	return i, ok, nil
}

// OnTap toggles the bead nearest to p. It returns the toggled index, or false
// when the canvas has no beads.
func (s *Session) OnTap(p vector.Pt) (int, bool, error) {
	i, ok, err := s.Nearest(p)
	if err != nil || !ok {
		return -1, false, err
	}
	if _, err := s.Toggle(i); err != nil {
		return -1, false, err
	}
	return i, true, nil
}

// OnDragChanged toggles the bead nearest to p unless it is the bead this drag
// touched last. It reports whether a toggle happened.
func (s *Session) OnDragChanged(p vector.Pt) (int, bool, error) {
	i, ok, err := s.Nearest(p)
	if err != nil || !ok {
		return -1, false, err
	}
	if i == s.last {
		return i, false, nil
	}
	if _, err := s.Toggle(i); err != nil {
		return -1, false, err
	}
	s.last = i
	return i, true, nil
}

// OnDragEnded resets the drag tracker.
func (s *Session) OnDragEnded() { s.last = -1 }

// Toggle flips the bead at index i and records the change for undo.
func (s *Session) Toggle(i int) (domain.BeadState, error) {
	b, err := s.h.Bead(i)
	if err != nil {
		return domain.BeadState{}, err
	}
	next := Toggle(b.State(), s.paint, s.def)
	prev, err := s.h.SetState(i, next)
	if err != nil {
		return domain.BeadState{}, err
	}
	s.hist.Push(s.h.ID(), undo.Entry{Label: "toggle", Changes: []undo.Change{{Index: i, Before: prev, After: next}}})
	s.log.DebugContext(s.ctx, "bead toggled", slog.Int("index", i), slog.String("color", next.Color.Hex()), slog.Bool("selected", next.Selected))
	return next, nil
}

// Apply sets many bead states as one undoable step.
func (s *Session) Apply(label string, updates []gallery.Update) error {
	prev, err := s.h.Apply(updates)
	if err != nil {
		return err
	}
	changes := make([]undo.Change, 0, len(updates))
	for k, u := range updates {
		if prev[k] == u.State {
			continue
		}
		changes = append(changes, undo.Change{Index: u.Index, Before: prev[k], After: u.State})
	}
	s.hist.Push(s.h.ID(), undo.Entry{Label: label, Changes: changes})
	s.log.DebugContext(s.ctx, "beads updated", slog.String("op", label), slog.Int("changed", len(changes)))
	return nil
}

// Clear resets every bead to the default color and unselected.
func (s *Session) Clear() error {
	beads, err := s.h.Beads()
	if err != nil {
		return err
	}
	blank := domain.BeadState{Color: s.def}
	var updates []gallery.Update
	for i, b := range beads {
		if b.State() != blank {
			updates = append(updates, gallery.Update{Index: i, State: blank})
		}
	}
	if len(updates) == 0 {
		return nil
	}
	return s.Apply("clear", updates)
}

// Undo reverts the most recent step. It reports false when there is nothing
// to undo.
func (s *Session) Undo() (bool, error) {
	e, ok := s.hist.Undo(s.h.ID())
	if !ok {
		return false, nil
	}
	updates := make([]gallery.Update, 0, len(e.Changes))
	for k := len(e.Changes) - 1; k >= 0; k-- {
		c := e.Changes[k]
		updates = append(updates, gallery.Update{Index: c.Index, State: c.Before})
	}
	if _, err := s.h.Apply(updates); err != nil {
		return false, err
	}
	s.log.DebugContext(s.ctx, "undo", slog.String("op", e.Label), slog.Int("changes", len(e.Changes)))
	return true, nil
}

// Redo reapplies the most recently undone step.
func (s *Session) Redo() (bool, error) {
	e, ok := s.hist.Redo(s.h.ID())
	if !ok {
		return false, nil
	}
	updates := make([]gallery.Update, len(e.Changes))
	for k, c := range e.Changes {
		updates[k] = gallery.Update{Index: c.Index, State: c.After}
	}
	if _, err := s.h.Apply(updates); err != nil {
		return false, err
	}
	s.log.DebugContext(s.ctx, "redo", slog.String("op", e.Label), slog.Int("changes", len(e.Changes)))
	return true, nil
}

// BindHistory drops the undo history of canvases deleted from the store.
func BindHistory(store *gallery.Store, hist *undo.Manager) {
	store.On(gallery.EventCanvasDeleted, func(e gallery.Event) { hist.Clear(e.CanvasID) })
}

// UndoDepth returns the number of undoable steps.
func (s *Session) UndoDepth() int {
	n, _ := s.hist.Depth(s.h.ID())
	return n
}

// RedoDepth returns the number of redoable steps.
func (s *Session) RedoDepth() int {
	_, n := s.hist.Depth(s.h.ID())
	return n
}

// VisibleBeads returns the beads passing the current filter, for redraws and export.
func (s *Session) VisibleBeads() ([]domain.Bead, error) {
	beads, err := s.h.Beads()
	if err != nil {
		return nil, err
	}
	return s.filter.Apply(beads), nil
}
