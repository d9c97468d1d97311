// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jeranaias/agentroom/internal/backend"
	"github.com/jeranaias/agentroom/internal/model"
	"github.com/jeranaias/agentroom/internal/scenario"
)

// =============================================================================
// CANNED REPLIES
// =============================================================================

// FailureText is the single message shown for any transport or parse error.
const FailureText = "Sorry, I couldn't reach the agent system. Please try again."

// ConclusionText is posted by the broker when the exchange cap is reached.
const ConclusionText = "The conversation has reached a successful conclusion. " +
	"Both parties have achieved mutual understanding and identified a path forward. " +
	"Key decisions and next steps have been established."

// ConcludedNotice answers exchange requests after the conversation ended.
const ConcludedNotice = "This conversation has concluded. Reset to start a new one."

// TopicHint answers a run-full request without a topic.
const TopicHint = "Please set a conversation topic first (/topic <text>), or load a demo scenario."

// LearningDisabledText answers learning requests when the feature is off.
const LearningDisabledText = "Learning statistics are disabled in this configuration."

// AgentSpecPrompt asks for the team when a create request names no roles.
const AgentSpecPrompt = `Happy to build a team. **How many agents would you like, and in which roles?**

**Examples:**
- "Create 3 agents: Product Manager, Developer, and Designer"
- "I want 2 agents: one for strategy and one for technical implementation"
- "Just create 4 agents for this discussion"`

// HelpText is the local help reply.
const HelpText = `**Agent Conversation System**

**Getting started:**
1. **Create agents**: "Create 3 agents: Project Manager, Developer, Designer"
2. **Start a conversation**: "I need help with a marketing strategy"
3. **Run exchanges**: "next exchange" or "continue the conversation"
4. **Finish**: "run the full conversation"

**Other requests:**
- "status" checks the backend
- "show learning stats" reports what the system has learned
- "help" shows this message

Flow: create agents, start the conversation, run exchanges, read the conclusion.`

// =============================================================================
// RENDERING
// =============================================================================

// StatusLabel turns a status check into the header label: Connected when
// the backend answered as available, Not Connected when it answered
// otherwise, and Demo Mode when it could not be reached.
func StatusLabel(resp *backend.StatusResponse, err error) string {
	var apiErr *backend.APIError
	switch {
	case err == nil && resp.Available():
		return "Connected"
	case err == nil, errors.As(err, &apiErr):
		return "Not Connected"
	default:
		return "Demo Mode"
	}
}

func statusText(resp *backend.StatusResponse, err error) string {
	label := StatusLabel(resp, err)
	var b strings.Builder
	fmt.Fprintf(&b, "**API status:** %s", label)
	if err == nil && resp.Message != "" {
		fmt.Fprintf(&b, "\n\n%s", resp.Message)
	}
	if err == nil && len(resp.Features) > 0 {
		b.WriteString("\n")
		for _, f := range resp.Features {
			fmt.Fprintf(&b, "\n- %s", f)
		}
	}
	if label == "Demo Mode" {
		b.WriteString("\n\nThe backend could not be reached. Start one with `agentroom serve`.")
	}
	return b.String()
}

func teamSummary(agents []model.Agent) string {
	if len(agents) == 0 {
		return "No agents were created."
	}
	roles := make([]string, len(agents))
	for i, a := range agents {
		roles[i] = a.Role
	}
	noun := "agents"
	if len(agents) == 1 {
		noun = "agent"
	}
	return fmt.Sprintf("Created %d %s: %s. Say \"next exchange\" to begin.", len(agents), noun, strings.Join(roles, ", "))
}

func fullSummary(resp *backend.FullResponse) string {
	summary := fmt.Sprintf("Full conversation completed: %d exchanges with %d agents.", resp.TotalExchanges, len(resp.Agents))
	if resp.Topic != "" {
		summary += fmt.Sprintf("\n\n**Topic:** %s", resp.Topic)
	}
	return summary
}

func learningText(stats *backend.LearningStats) string {
	if stats.Error != "" {
		return "Learning statistics are unavailable: " + stats.Error
	}

	var b strings.Builder
	b.WriteString("**Neural Learning Statistics**\n\n")
	fmt.Fprintf(&b, "- Total interactions: %d\n", stats.TotalInteractions)
	fmt.Fprintf(&b, "- Successful patterns: %d\n", stats.SuccessfulPatterns)
	fmt.Fprintf(&b, "- Average success rate: %.1f%%\n", stats.AverageSuccessRate*100)
	fmt.Fprintf(&b, "- Neural networks: %s\n", onOff(stats.NeuralNetworksAvailable, "available", "unavailable"))
	fmt.Fprintf(&b, "- Training: %s", onOff(stats.IsTraining, "in progress", "idle"))

	if len(stats.PreferredAgents) > 0 {
		roles := make([]string, 0, len(stats.PreferredAgents))
		for role := range stats.PreferredAgents {
			roles = append(roles, role)
		}
		sort.Slice(roles, func(i, j int) bool {
			ci, cj := stats.PreferredAgents[roles[i]], stats.PreferredAgents[roles[j]]
			if ci != cj {
				return ci > cj
			}
			return roles[i] < roles[j]
		})
		b.WriteString("\n- Preferred agents: ")
		for i, role := range roles {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s (%d)", role, stats.PreferredAgents[role])
		}
	}
	return b.String()
}

func onOff(v bool, yes, no string) string {
	if v {
		return yes
	}
	return no
}

func scenarioText(sc scenario.Scenario) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Topic:** %s\n**Context:** %s", sc.Topic, sc.Context)
	if len(sc.Roles) > 0 {
		b.WriteString("\n\n**Suggested roles:**")
		for _, r := range sc.Roles {
			fmt.Fprintf(&b, "\n- %s: %s", r.Role, r.Expertise)
		}
	}
	if sc.Suggestion != "" {
		fmt.Fprintf(&b, "\n\nTry: \"%s\"", sc.Suggestion)
	}
	return b.String()
}

func suggestionsText(suggestions []backend.RoleSuggestion) string {
	if len(suggestions) == 0 {
		return "No role suggestions for this topic yet."
	}
	var b strings.Builder
	b.WriteString("**Suggested roles:**")
	for _, r := range suggestions {
		fmt.Fprintf(&b, "\n- **%s**: %s", r.Role, r.Expertise)
		if r.Reasoning != "" {
			fmt.Fprintf(&b, " (%s)", r.Reasoning)
		}
	}
	roles := make([]string, len(suggestions))
	for i, r := range suggestions {
		roles[i] = r.Role
	}
	fmt.Fprintf(&b, "\n\nTry: \"Create %d agents: %s\"", len(roles), strings.Join(roles, ", "))
	return b.String()
}
