// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "sync"

// DefaultConversationCapacity bounds the conversation log when no capacity
// is configured.
const DefaultConversationCapacity = 500

// =============================================================================
// CONVERSATION LOG
// =============================================================================

// ConversationLog is the append-only message log behind the conversation
// view. Entries are only ever appended; the only removal is Clear. Once the
// ring is full the oldest entries fall off, so the log always shows the most
// recent activity.
type ConversationLog struct {
	mu      sync.RWMutex
	ring    *Ring[Message]
	version uint64
}

// NewConversationLog creates a log holding at most capacity messages.
func NewConversationLog(capacity int) *ConversationLog {
	if capacity <= 0 {
		capacity = DefaultConversationCapacity
	}
	return &ConversationLog{ring: NewRing[Message](capacity)}
}

// Append adds msg to the end of the log and returns it.
func (l *ConversationLog) Append(msg Message) Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ring.Push(msg)
	l.version++
	return msg
}

// AppendAll appends msgs in order under a single lock so no other writer
// can interleave.
func (l *ConversationLog) AppendAll(msgs []Message) {
	if len(msgs) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range msgs {
		l.ring.Push(m)
	}
	l.version++
}

// Messages returns a snapshot of the log, oldest first.
func (l *ConversationLog) Messages() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ring.Items()
}

// Last returns the newest message.
func (l *ConversationLog) Last() (Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ring.Last()
}

// LastFrom returns the newest message from one of the given senders.
func (l *ConversationLog) LastFrom(senders ...Sender) (Message, bool) {
	items := l.Messages()
	for i := len(items) - 1; i >= 0; i-- {
		for _, s := range senders {
			if items[i].Sender == s {
				return items[i], true
			}
		}
	}
	return Message{}, false
}

// Len returns the number of messages currently held.
func (l *ConversationLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ring.Len()
}

// Version increments on every change. Views compare it to decide when to
// re-render and scroll to the bottom.
func (l *ConversationLog) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

// Clear empties the log. This is the reset action.
func (l *ConversationLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ring.Clear()
	l.version++
}
