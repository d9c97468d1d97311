// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
	SenderBroker    Sender = "broker"
	SenderSystem    Sender = "system"
)

// String returns the string representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// DisplayName returns a human-readable label for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderAssistant:
		return "Assistant"
	case SenderBroker:
		return "Broker"
	case SenderSystem:
		return "System"
	default:
		return string(s)
	}
}

// IsValid reports whether s is one of the known senders.
func (s Sender) IsValid() bool {
	switch s {
	case SenderUser, SenderAssistant, SenderBroker, SenderSystem:
		return true
	}
	return false
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is one entry of the conversation log. Messages are values and are
// never modified after they are appended.
type Message struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Title     string    `json:"title,omitempty"` // agent role or broker heading
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message stamped with a fresh ID and the current time.
func NewMessage(sender Sender, text string) Message {
	return Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// NewTitledMessage creates a message with a heading, used for per-agent
// turns ("Senior Developer") and broker summaries.
func NewTitledMessage(sender Sender, title, text string) Message {
	m := NewMessage(sender, text)
	m.Title = title
	return m
}

// Label returns the title when set, otherwise the sender's display name.
func (m Message) Label() string {
	if m.Title != "" {
		return m.Title
	}
	return m.Sender.DisplayName()
}
