/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package gallery

import (
	"fmt"
	"log/slog"

	"beadloom/internal/beadgrid"
	"beadloom/internal/domain"

	"github.com/google/uuid"
)

// Handle gives mutable access to one canvas. It stores only the canvas id and
// resolves it on every call, so a handle outliving its canvas reports
// ErrNotFound instead of touching freed state.
type Handle struct {
	s  *Store
	id uuid.UUID
}

// Update sets the state of the bead at Index.
type Update struct {
	Index int
	State domain.BeadState
}

func (h *Handle) ID() uuid.UUID { return h.id }

// with runs fn on the canvas under the write lock.
func (h *Handle) with(fn func(c *domain.CanvasItem) error) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	i := h.s.indexLocked(h.id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, h.id)
	}
	return fn(h.s.canvases[i])
}

func (h *Handle) read(fn func(c *domain.CanvasItem)) error {
	h.s.mu.RLock()
	defer h.s.mu.RUnlock()
	i := h.s.indexLocked(h.id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, h.id)
	}
	fn(h.s.canvases[i])
	return nil
}

// Snapshot returns a deep copy of the canvas.
func (h *Handle) Snapshot() (domain.CanvasItem, error) {
	var out domain.CanvasItem
	err := h.read(func(c *domain.CanvasItem) { out = c.Clone() })
	return out, err
}

// Revision returns the canvas revision, bumped by every mutation.
func (h *Handle) Revision() (uint64, error) {
	var rev uint64
	err := h.read(func(c *domain.CanvasItem) { rev = c.Revision })
	return rev, err
}

// EnsureBeads generates the canvas beads if the collection is still empty.
// It reports whether beads were generated by this call.
func (h *Handle) EnsureBeads(canvasPixelWidth int, def domain.Color) (bool, error) {
	var (
		generated bool
		rev       uint64
		n         int
	)
	err := h.with(func(c *domain.CanvasItem) error {
		if len(c.Beads) > 0 {
			return nil
		}
		beads, err := beadgrid.Generate(c.Grid.Width, c.Grid.Height, canvasPixelWidth, def)
		if err != nil {
			return err
		}
		c.Beads = beads
		c.Revision++
		generated, rev, n = true, c.Revision, len(beads)
		return nil
	})
	if err != nil || !generated {
		return false, err
	}
	h.s.log.Debug("beads populated", slog.String("id", h.id.String()), slog.Int("count", n))
	h.s.emit(Event{Type: EventBeadsPopulated, CanvasID: h.id, Revision: rev})
	return true, nil
}

// Len returns the number of beads.
func (h *Handle) Len() (int, error) {
	var n int
	err := h.read(func(c *domain.CanvasItem) { n = len(c.Beads) })
	return n, err
}

// Beads returns a copy of the bead collection.
func (h *Handle) Beads() ([]domain.Bead, error) {
	var out []domain.Bead
	err := h.read(func(c *domain.CanvasItem) { out = append([]domain.Bead(nil), c.Beads...) })
	return out, err
}

// Bead returns the bead at index i.
func (h *Handle) Bead(i int) (domain.Bead, error) {
	var (
		b   domain.Bead
		bad bool
	)
	err := h.read(func(c *domain.CanvasItem) {
		if i < 0 || i >= len(c.Beads) {
			bad = true
			return
		}
		b = c.Beads[i]
	})
	if err == nil && bad {
		err = fmt.Errorf("%w: bead %d", ErrIndexOutOfRange, i)
	}
	return b, err
}

// SetState sets one bead's color and selection flag and returns its previous state.
func (h *Handle) SetState(i int, st domain.BeadState) (domain.BeadState, error) {
	prev, err := h.Apply([]Update{{Index: i, State: st}})
	if err != nil {
		return domain.BeadState{}, err
	}
	return prev[0], nil
}

// Apply sets several bead states at once. Either all updates are applied or,
// if any index is out of range, none is. It returns the previous states in
// update order.
func (h *Handle) Apply(updates []Update) ([]domain.BeadState, error) {
	if len(updates) == 0 {
		return nil, nil
	}
	prev := make([]domain.BeadState, len(updates))
	idx := make([]int, len(updates))
	var rev uint64
	err := h.with(func(c *domain.CanvasItem) error {
		for _, u := range updates {
			if u.Index < 0 || u.Index >= len(c.Beads) {
				return fmt.Errorf("%w: bead %d (len %d)", ErrIndexOutOfRange, u.Index, len(c.Beads))
			}
		}
		for k, u := range updates {
			b := &c.Beads[u.Index]
			prev[k] = b.State()
			b.Color, b.IsSelected = u.State.Color, u.State.Selected
			idx[k] = u.Index
		}
		c.Revision++
		rev = c.Revision
		return nil
	})
	if err != nil {
		return nil, err
	}
	h.s.emit(Event{Type: EventBeadsChanged, CanvasID: h.id, Indexes: idx, Revision: rev})
	return prev, nil
}

// SetBackground changes the canvas background color.
func (h *Handle) SetBackground(bg domain.Color) error {
	var rev uint64
	err := h.with(func(c *domain.CanvasItem) error {
		c.Background = bg
		c.Revision++
		rev = c.Revision
		return nil
	})
	if err != nil {
		return err
	}
	h.s.emit(Event{Type: EventCanvasUpdated, CanvasID: h.id, Revision: rev})
	return nil
}
