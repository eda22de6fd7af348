/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package undo keeps per-canvas undo/redo history of bead state changes.
package undo

import (
	"sync"
	"time"

	"beadloom/internal/domain"

	"github.com/google/uuid"
)

// Change records one bead's state before and after a mutation.
type Change struct {
	Index  int
	Before domain.BeadState
	After  domain.BeadState
}

// Entry is one undoable step. A toggle produces a single change; clearing a
// canvas or importing an image produces one entry with many changes.
type Entry struct {
	Label   string
	Changes []Change
	TS      time.Time
}

func (e Entry) weight() int { return len(e.Changes) }

// Config controls depth and size caps. Zero values mean unlimited.
type Config struct {
	// MaxPerCanvas limits the number of entries kept per canvas.
	MaxPerCanvas int
	// MaxChanges is a soft cap on bead changes held across all canvases;
	// the oldest entries are pruned first when exceeded.
	MaxChanges int
}

// Manager provides an in-memory undo/redo stack per canvas.
// It is safe for concurrent use.
type Manager struct {
	cfg  Config
	mu   sync.Mutex
	undo map[uuid.UUID][]Entry
	redo map[uuid.UUID][]Entry
	// changes held in undo stacks
	total int
}

func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg, undo: make(map[uuid.UUID][]Entry), redo: make(map[uuid.UUID][]Entry)}
}

// Push records an entry for a canvas and clears that canvas's redo stack.
func (m *Manager) Push(canvas uuid.UUID, e Entry) {
	if len(e.Changes) == 0 {
		return
	}
	if e.TS.IsZero() {
		e.TS = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo[canvas] = append(m.undo[canvas], e)
	m.total += e.weight()
	delete(m.redo, canvas)
	m.enforceCapsLocked(canvas)
}

// Undo pops the latest entry of a canvas and moves it to the redo stack.
func (m *Manager) Undo(canvas uuid.UUID) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[canvas]
	if len(stack) == 0 {
		return Entry{}, false
	}
	e := stack[len(stack)-1]
	m.undo[canvas] = stack[:len(stack)-1]
	m.total -= e.weight()
	m.redo[canvas] = append(m.redo[canvas], e)
	return e, true
}

// Redo pops from redo and pushes back to undo.
func (m *Manager) Redo(canvas uuid.UUID) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.redo[canvas]
	if len(r) == 0 {
		return Entry{}, false
	}
	e := r[len(r)-1]
	m.redo[canvas] = r[:len(r)-1]
	m.undo[canvas] = append(m.undo[canvas], e)
	m.total += e.weight()
	m.enforceCapsLocked(canvas)
	return e, true
}

// Depth returns the undo and redo stack lengths of a canvas.
func (m *Manager) Depth(canvas uuid.UUID) (undo, redo int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo[canvas]), len(m.redo[canvas])
}

// Clear drops all history of a canvas.
func (m *Manager) Clear(canvas uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.undo[canvas] {
		m.total -= e.weight()
	}
	delete(m.undo, canvas)
	delete(m.redo, canvas)
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (changes int, canvases int, entries int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.undo {
		if len(v) > 0 {
			canvases++
		}
		entries += len(v)
	}
	return m.total, canvases, entries
}

func (m *Manager) enforceCapsLocked(canvas uuid.UUID) {
	if m.cfg.MaxPerCanvas > 0 {
		stack := m.undo[canvas]
		if drop := len(stack) - m.cfg.MaxPerCanvas; drop > 0 {
			for _, e := range stack[:drop] {
				m.total -= e.weight()
			}
			m.undo[canvas] = append([]Entry(nil), stack[drop:]...)
		}
	}
	for m.cfg.MaxChanges > 0 && m.total > m.cfg.MaxChanges {
		var oldest uuid.UUID
		found := false
		var oldestTS time.Time
		for id, stack := range m.undo {
			if len(stack) == 0 {
				continue
			}
			if !found || stack[0].TS.Before(oldestTS) {
				oldest, oldestTS, found = id, stack[0].TS, true
			}
		}
		if !found {
			break
		}
		stack := m.undo[oldest]
		m.total -= stack[0].weight()
		if len(stack) == 1 {
			delete(m.undo, oldest)
		} else {
			m.undo[oldest] = stack[1:]
		}
	}
}
