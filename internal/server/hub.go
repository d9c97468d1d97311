// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"sync"
	"time"

	"github.com/jeranaias/agentroom/internal/model"
)

// DefaultThoughtCapacity is how many thoughts the hub retains.
const DefaultThoughtCapacity = 100

// ThoughtHub buffers thought events for stream subscribers. Each event has
// a sequence number; subscribers keep their own cursor, so a slow reader
// never blocks the broker and a cleared hub does not replay old events.
type ThoughtHub struct {
	capacity int
	now      func() time.Time

	mu     sync.Mutex
	events []model.ThoughtEvent
	base   uint64 // sequence number of events[0]
	notify chan struct{}
}

// NewThoughtHub creates a hub retaining capacity events. Zero means 100.
func NewThoughtHub(capacity int) *ThoughtHub {
	if capacity <= 0 {
		capacity = DefaultThoughtCapacity
	}
	return &ThoughtHub{
		capacity: capacity,
		now:      time.Now,
		notify:   make(chan struct{}),
	}
}

// Add appends an event and wakes every waiting subscriber.
func (h *ThoughtHub) Add(kind, message string, agentID *string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.events = append(h.events, model.ThoughtEvent{
		Timestamp: h.now(),
		Type:      kind,
		Message:   message,
		AgentID:   agentID,
	})
	if over := len(h.events) - h.capacity; over > 0 {
		h.events = append(h.events[:0:0], h.events[over:]...)
		h.base += uint64(over)
	}
	close(h.notify)
	h.notify = make(chan struct{})
}

// Clear drops every retained event. Cursors stay valid.
func (h *ThoughtHub) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.base += uint64(len(h.events))
	h.events = nil
}

// Oldest returns the cursor of the oldest retained event.
func (h *ThoughtHub) Oldest() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.base
}

// Since returns the events at or after cursor, the cursor to use next, and
// a channel closed on the next Add. A cursor older than the retained
// window starts at the oldest event.
func (h *ThoughtHub) Since(cursor uint64) ([]model.ThoughtEvent, uint64, <-chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	end := h.base + uint64(len(h.events))
	cursor = max(cursor, h.base)
	if cursor >= end {
		return nil, end, h.notify
	}
	out := append([]model.ThoughtEvent(nil), h.events[cursor-h.base:]...)
	return out, end, h.notify
}

// Snapshot returns the retained events.
func (h *ThoughtHub) Snapshot() []model.ThoughtEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]model.ThoughtEvent(nil), h.events...)
}

// Len returns the number of retained events.
func (h *ThoughtHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}
