// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"strings"

	"github.com/jeranaias/agentroom/internal/intent"
	"github.com/jeranaias/agentroom/internal/model"
)

// Intents produced by the client-side classifier.
const (
	IntentCreateAgents     intent.Intent = "create-agents"
	IntentFullConversation intent.Intent = "request-full-conversation"
	IntentExchange         intent.Intent = "request-exchange"
	IntentHelp             intent.Intent = "request-help"
	IntentStatus           intent.Intent = "request-status"
	IntentStart            intent.Intent = "start-conversation"
	IntentEcho             intent.Intent = "echo"
)

// DefaultRules returns the default classifier table. Full-conversation
// phrases are checked before the single-exchange words they contain.
func DefaultRules() intent.Table {
	return intent.NewTable(IntentEcho,
		intent.Rule{Intent: IntentCreateAgents, AnyOf: []string{
			"create", "hire", "assemble", "build a team", "employees", "agents", "team",
		}},
		intent.Rule{Intent: IntentFullConversation, AnyOf: []string{
			"full conversation", "run full", "entire conversation", "run all", "all exchanges",
		}},
		intent.Rule{Intent: IntentExchange, AnyOf: []string{
			"exchange", "next", "continue", "proceed",
		}},
		intent.Rule{Intent: IntentHelp, AnyOf: []string{
			"help", "what can you do", "how do", "guide", "assist",
		}},
		intent.Rule{Intent: IntentStatus, AnyOf: []string{
			"status", "system", "health", "check", "learning", "stats",
		}},
		intent.Rule{Intent: IntentStart, AnyOf: []string{
			"start", "begin", "new", "project", "discuss", "talk",
		}},
	)
}

// learningWords refine a status request into a learning-stats request.
var learningWords = []string{"learning", "neural", "stats", "brain"}

func mentionsLearning(text string) bool {
	n := intent.Normalize(text)
	for _, w := range learningWords {
		if strings.Contains(n, w) {
			return true
		}
	}
	return false
}

// hasSpecification reports whether an agent-creation prompt already
// describes the team ("3 agents: PM, Developer, and Designer", "create 4
// agents") rather than just asking for one ("create a team").
func hasSpecification(text string) bool {
	n := intent.Normalize(text)
	return strings.ContainsAny(n, ":,0123456789") ||
		strings.Contains(n, " and ") ||
		strings.Contains(n, " with ")
}

// requestsExchange reports whether an exchange or full-conversation rule
// in t matches text, wherever those rules sit in the evaluation order.
func requestsExchange(t intent.Table, text string) bool {
	n := intent.Normalize(text)
	for _, r := range t.Rules() {
		if r.Intent != IntentExchange && r.Intent != IntentFullConversation {
			continue
		}
		if r.Matches(n) {
			return true
		}
	}
	return false
}

// forwardsToProcess reports whether handle sends intent in to the backend's
// general process endpoint.
func forwardsToProcess(in intent.Intent, caps model.Capabilities) bool {
	switch in {
	case IntentCreateAgents, IntentExchange, IntentStatus, IntentHelp:
		return false
	case IntentFullConversation:
		return !caps.Has(model.CapFullConversation)
	default:
		return true
	}
}
