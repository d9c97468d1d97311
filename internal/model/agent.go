// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// AGENT
// =============================================================================

// Agent is a persona defined by the backend. Unknown fields in the wire
// record are ignored.
type Agent struct {
	ID          string `json:"id"`
	Role        string `json:"role"`
	Expertise   string `json:"expertise"`
	Personality string `json:"personality"`
}

// =============================================================================
// THOUGHT EVENT
// =============================================================================

// ThoughtEvent is one record pushed on the thought stream. It carries no
// control information.
type ThoughtEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	AgentID   *string   `json:"agent_id,omitempty"`
}

// timestampLayouts are tried in order. The demo backend emits naive local
// timestamps without an offset.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses an ISO-8601 timestamp with or without a zone.
// Zone-less values are interpreted in local time.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if layout == time.RFC3339Nano {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// UnmarshalJSON accepts any timestamp ParseTimestamp understands. A missing
// or empty timestamp is stamped with the receive time.
func (e *ThoughtEvent) UnmarshalJSON(data []byte) error {
	var raw struct {
		Timestamp string  `json:"timestamp"`
		Type      string  `json:"type"`
		Message   string  `json:"message"`
		AgentID   *string `json:"agent_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ts := time.Now()
	if raw.Timestamp != "" {
		parsed, err := ParseTimestamp(raw.Timestamp)
		if err != nil {
			return err
		}
		ts = parsed
	}
	*e = ThoughtEvent{
		Timestamp: ts,
		Type:      raw.Type,
		Message:   raw.Message,
		AgentID:   raw.AgentID,
	}
	return nil
}

// HasAgent reports whether the event is attributed to an agent.
func (e ThoughtEvent) HasAgent() bool {
	return e.AgentID != nil && *e.AgentID != ""
}

// StringPtr returns a pointer to s. Handy for optional agent IDs.
func StringPtr(s string) *string {
	return &s
}
