// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by every agentroom
// component: conversation messages, agents, thought events, the session
// counters, and the bounded ring buffer that backs every log.
//
// # Key Types
//
//   - Message: Immutable log entry with sender, optional title, text and timestamp
//   - Sender: user, assistant, broker or system
//   - Agent: Server-defined persona record; rendered, never constructed by the UI
//   - ThoughtEvent: One record from the server-pushed thought stream
//   - Session: Topic, context and the exchange counter with its cap
//   - ConversationLog: Append-only, ring-bounded message log
//   - Ring: Generic fixed-capacity ring buffer
//   - Capabilities: Flag set of enabled demo features
//
// # Usage
//
//	log := model.NewConversationLog(500)
//	log.Append(model.NewMessage(model.SenderUser, "create a team"))
//
//	s := model.NewSession(4)
//	if s.CanExchange() {
//	    s.RecordExchanges(1)
//	}
package model
