// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "fmt"

// =============================================================================
// SESSION
// =============================================================================

// Session is the per-run conversation state. It lives for one process and
// is reset to defaults by the reset action.
//
// Invariant: ExchangeCount never exceeds MaxExchanges. Once they are equal
// the session is concluded and no further exchanges may be requested.
type Session struct {
	Topic   string `json:"topic"`
	Context string `json:"context"`

	ExchangeCount int `json:"exchange_count"`
	MaxExchanges  int `json:"max_exchanges"`

	// WaitingForAgentSpec routes the next submission to agent creation.
	WaitingForAgentSpec bool `json:"waiting_for_agent_spec"`

	Concluded bool `json:"concluded"`

	// BackendAvailable is the result of the most recent status check.
	BackendAvailable bool `json:"backend_available"`
}

// NewSession returns a fresh session with the given exchange cap.
func NewSession(maxExchanges int) Session {
	if maxExchanges < 1 {
		maxExchanges = 1
	}
	return Session{MaxExchanges: maxExchanges}
}

// CanExchange reports whether another exchange may be requested.
func (s *Session) CanExchange() bool {
	return !s.Concluded && s.ExchangeCount < s.MaxExchanges
}

// CanRunFull reports whether the run-full-conversation control is enabled.
func (s *Session) CanRunFull() bool {
	return s.CanExchange()
}

// Remaining returns how many exchanges are left before the cap.
func (s *Session) Remaining() int {
	if s.Concluded {
		return 0
	}
	return s.MaxExchanges - s.ExchangeCount
}

// RecordExchanges adds n completed exchanges, clamped to the cap. It
// reports whether the session concluded as a result.
func (s *Session) RecordExchanges(n int) (concluded bool) {
	if n <= 0 || s.Concluded {
		return false
	}
	s.ExchangeCount += n
	if s.ExchangeCount >= s.MaxExchanges {
		s.ExchangeCount = s.MaxExchanges
		s.Concluded = true
		return true
	}
	return false
}

// Conclude ends the conversation without further exchanges.
func (s *Session) Conclude() {
	s.Concluded = true
}

// SetMaxExchanges changes the cap. The cap never drops below the number of
// exchanges already completed.
func (s *Session) SetMaxExchanges(n int) {
	if n < s.ExchangeCount {
		n = s.ExchangeCount
	}
	if n < 1 {
		n = 1
	}
	s.MaxExchanges = n
	if s.ExchangeCount >= s.MaxExchanges && s.ExchangeCount > 0 {
		s.Concluded = true
	}
}

// Reset returns the session to its initial state with a new cap.
// BackendAvailable survives because it describes the backend, not the
// conversation.
func (s *Session) Reset(maxExchanges int) {
	available := s.BackendAvailable
	*s = NewSession(maxExchanges)
	s.BackendAvailable = available
}

// Progress returns the completed share of exchanges in [0, 1].
func (s *Session) Progress() float64 {
	if s.MaxExchanges == 0 {
		return 0
	}
	return float64(s.ExchangeCount) / float64(s.MaxExchanges)
}

// ProgressLabel renders "Exchange n of m".
func (s *Session) ProgressLabel() string {
	return fmt.Sprintf("Exchange %d of %d", s.ExchangeCount, s.MaxExchanges)
}

// Status returns Idle, Active or Completed for the header.
func (s *Session) Status() string {
	switch {
	case s.Concluded:
		return "Completed"
	case s.ExchangeCount > 0 || s.Topic != "":
		return "Active"
	default:
		return "Idle"
	}
}
