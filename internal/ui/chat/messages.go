// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/agentroom/internal/backend"
	"github.com/jeranaias/agentroom/internal/config"
	"github.com/jeranaias/agentroom/internal/dispatch"
	"github.com/jeranaias/agentroom/internal/model"
	"github.com/jeranaias/agentroom/internal/scenario"
)

// =============================================================================
// DISPATCHER MESSAGES
// =============================================================================

// SubmitResultMsg carries the result of a Submit or Trigger call.
type SubmitResultMsg struct {
	Outcome *dispatch.Outcome
	Err     error
}

// ResetDoneMsg signals that a conversation reset finished. Err is the
// backend's error; the local reset has happened either way.
type ResetDoneMsg struct {
	Err error
}

// StatusCheckedMsg carries the API status label.
type StatusCheckedMsg struct {
	Label string
}

// AgentsRefreshedMsg carries the backend's agent list.
type AgentsRefreshedMsg struct {
	Agents []model.Agent
	Err    error
}

// ScenarioFetchedMsg carries a demo preset requested with /demo.
type ScenarioFetchedMsg struct {
	Name     string
	Scenario scenario.Scenario
	Err      error
}

// SuggestionsPostedMsg signals the end of a /suggest request. The
// suggestion itself is already in the conversation log.
type SuggestionsPostedMsg struct {
	Err error
}

// =============================================================================
// THOUGHT STREAM MESSAGES
// =============================================================================

// StreamUpdateMsg wraps one thought stream update.
type StreamUpdateMsg struct {
	Update backend.StreamUpdate
}

// StreamClosedMsg signals that the stream's Run returned.
type StreamClosedMsg struct {
	Err error
}

// ThoughtsClearedMsg signals the end of a clear-thoughts request.
type ThoughtsClearedMsg struct {
	Err error
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg delivers a config reloaded from disk. A non-nil Err
// means the file could not be loaded and nothing changes.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}

// noticeExpiredMsg clears the transient status bar notice it was sent for.
type noticeExpiredMsg struct {
	id int
}
