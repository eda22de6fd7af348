/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package gallery owns the list of canvases and is the only place where bead
// state is mutated. Readers get copies; writers go through a Handle obtained
// from GetMutable. Every mutation bumps the canvas revision and is published
// to listeners registered with On.
package gallery

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"beadloom/internal/beadgrid"
	"beadloom/internal/domain"
	applog "beadloom/internal/log"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrNotFound        = errors.New("canvas not found")
	ErrIndexOutOfRange = errors.New("index out of range")
)

// EmptyTitleError is returned when a title is empty after sanitizing.
type EmptyTitleError struct{}

func (*EmptyTitleError) Error() string { return "Cannot be empty!" }

// DuplicateTitleError is returned when another canvas already uses the title.
type DuplicateTitleError struct{ Title string }

func (*DuplicateTitleError) Error() string { return "Canvas exists!" }

// nonWord matches everything a title may not contain: anything that is not a
// letter, mark, decimal digit or connector punctuation.
var nonWord = regexp.MustCompile(`[^\p{L}\p{M}\p{Nd}\p{Pc}]+`)

// SanitizeTitle normalizes s to NFC and strips non-word characters. The UI
// applies it while the user types; CreateCanvas applies it again.
func SanitizeTitle(s string) string {
	return nonWord.ReplaceAllString(norm.NFC.String(s), "")
}

// Summary is a light listing entry.
type Summary struct {
	ID        uuid.UUID
	Title     string
	Grid      domain.GridSize
	Beads     int
	Revision  uint64
	CreatedAt time.Time
}

// Store is the gallery: an ordered list of canvases, insertion order being
// display order. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	canvases []*domain.CanvasItem

	lmu       sync.RWMutex
	listeners map[EventType][]Listener

	background domain.Color
	log        *slog.Logger
	now        func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithBackground sets the background color given to new canvases.
func WithBackground(c domain.Color) Option { return func(s *Store) { s.background = c } }

// WithClock overrides time.Now for CreatedAt stamps.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

func NewStore(opts ...Option) *Store {
	s := &Store{
		listeners:  make(map[EventType][]Listener),
		background: domain.Gray,
		log:        applog.WithComponent("gallery"),
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// CreateCanvas appends a canvas with an empty bead collection and returns a copy.
// The grid dimensions are fixed for the lifetime of the canvas.
func (s *Store) CreateCanvas(title string, grid domain.GridSize) (domain.CanvasItem, error) {
	title = SanitizeTitle(title)
	if strings.TrimSpace(title) == "" {
		return domain.CanvasItem{}, &EmptyTitleError{}
	}
	if !grid.Valid() {
		return domain.CanvasItem{}, fmt.Errorf("%w: %dx%d", beadgrid.ErrInvalidGrid, grid.Width, grid.Height)
	}

	s.mu.Lock()
	for _, c := range s.canvases {
		if c.Title == title {
			s.mu.Unlock()
			return domain.CanvasItem{}, &DuplicateTitleError{Title: title}
		}
	}
	c := &domain.CanvasItem{
		ID:         uuid.New(),
		Title:      title,
		Grid:       grid,
		Background: s.background,
		CreatedAt:  s.now(),
	}
	s.canvases = append(s.canvases, c)
	out := c.Clone()
	s.mu.Unlock()

	s.log.Debug("canvas created", slog.String("id", out.ID.String()), slog.String("title", title),
		slog.Int("grid_w", grid.Width), slog.Int("grid_h", grid.Height))
	s.emit(Event{Type: EventCanvasCreated, CanvasID: out.ID})
	return out, nil
}

// DeleteCanvas removes the canvas with the given id.
func (s *Store) DeleteCanvas(id uuid.UUID) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.removeLocked(i)
	s.mu.Unlock()

	s.log.Debug("canvas deleted", slog.String("id", id.String()))
	s.emit(Event{Type: EventCanvasDeleted, CanvasID: id})
	return nil
}

// DeleteAt removes the canvas at display position i.
func (s *Store) DeleteAt(i int) error {
	s.mu.Lock()
	if i < 0 || i >= len(s.canvases) {
		n := len(s.canvases)
		s.mu.Unlock()
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, n)
	}
	id := s.canvases[i].ID
	s.removeLocked(i)
	s.mu.Unlock()

	s.log.Debug("canvas deleted", slog.String("id", id.String()), slog.Int("index", i))
	s.emit(Event{Type: EventCanvasDeleted, CanvasID: id})
	return nil
}

func (s *Store) removeLocked(i int) {
	copy(s.canvases[i:], s.canvases[i+1:])
	s.canvases[len(s.canvases)-1] = nil
	s.canvases = s.canvases[:len(s.canvases)-1]
}

// ByID returns a deep copy of the canvas.
func (s *Store) ByID(id uuid.UUID) (domain.CanvasItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.canvases[i].Clone(), true
	}
	return domain.CanvasItem{}, false
}

// At returns a deep copy of the canvas at display position i.
func (s *Store) At(i int) (domain.CanvasItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.canvases) {
		return domain.CanvasItem{}, false
	}
	return s.canvases[i].Clone(), true
}

// Len returns the number of canvases.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.canvases)
}

// List returns summaries in display order.
func (s *Store) List() []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Summary, len(s.canvases))
	for i, c := range s.canvases {
		out[i] = Summary{ID: c.ID, Title: c.Title, Grid: c.Grid, Beads: len(c.Beads), Revision: c.Revision, CreatedAt: c.CreatedAt}
	}
	return out
}

// GetMutable returns a handle for mutating the canvas.
func (s *Store) GetMutable(id uuid.UUID) (*Handle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.indexLocked(id) < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &Handle{s: s, id: id}, nil
}

func (s *Store) indexLocked(id uuid.UUID) int {
	for i, c := range s.canvases {
		if c.ID == id {
			return i
		}
	}
	return -1
}
