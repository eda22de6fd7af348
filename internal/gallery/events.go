/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package gallery

import "github.com/google/uuid"

// EventType identifies gallery change notifications.
type EventType int

const (
	EventCanvasCreated EventType = iota
	EventCanvasDeleted
	// EventBeadsPopulated fires once per canvas when its beads are generated.
	EventBeadsPopulated
	// EventBeadsChanged carries the indexes of the beads whose state changed.
	EventBeadsChanged
	// EventCanvasUpdated fires for canvas-level changes such as the background.
	EventCanvasUpdated
)

func (t EventType) String() string {
	switch t {
	case EventCanvasCreated:
		return "canvas_created"
	case EventCanvasDeleted:
		return "canvas_deleted"
	case EventBeadsPopulated:
		return "beads_populated"
	case EventBeadsChanged:
		return "beads_changed"
	case EventCanvasUpdated:
		return "canvas_updated"
	default:
		return "unknown"
	}
}

// Event describes one change.
type Event struct {
	Type     EventType
	CanvasID uuid.UUID
	Indexes  []int
	Revision uint64
}

// Listener receives events synchronously, after the store lock is released.
type Listener func(Event)

// On registers a listener for an event type.
func (s *Store) On(t EventType, l Listener) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.listeners[t] = append(s.listeners[t], l)
}

// OnAny registers a listener for every event type.
func (s *Store) OnAny(l Listener) {
	for _, t := range []EventType{EventCanvasCreated, EventCanvasDeleted, EventBeadsPopulated, EventBeadsChanged, EventCanvasUpdated} {
		s.On(t, l)
	}
}

func (s *Store) emit(e Event) {
	s.lmu.RLock()
	ls := append([]Listener(nil), s.listeners[e.Type]...)
	s.lmu.RUnlock()
	for _, l := range ls {
		l(e)
	}
}
