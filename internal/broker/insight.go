// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package broker

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/jeranaias/agentroom/internal/backend"
	"github.com/jeranaias/agentroom/internal/intent"
	"github.com/jeranaias/agentroom/internal/model"
)

// =============================================================================
// ROLE SUGGESTIONS
// =============================================================================

// MaxSuggestions caps SuggestRoles.
const MaxSuggestions = 5

// fallbackSuggestions pad a topic that names fewer than two known roles.
var fallbackSuggestions = []backend.RoleSuggestion{
	{Role: "Project Manager", Expertise: "Project planning and coordination", Reasoning: "To oversee the overall discussion and ensure objectives are met"},
	{Role: "Technical Specialist", Expertise: "Technical implementation and feasibility", Reasoning: "To provide technical insights and address implementation concerns"},
}

// SuggestRoles proposes a team for topic. Roles whose keywords appear in
// the topic or context come first; generic roles fill the rest.
func (b *Broker) SuggestRoles(topic, convContext string) ([]backend.RoleSuggestion, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrTopicRequired
	}
	n := intent.Normalize(topic + " " + convContext)

	var out []backend.RoleSuggestion
	for _, r := range roleRules {
		if len(out) == MaxSuggestions {
			break
		}
		if r.rule.Matches(n) {
			out = append(out, backend.RoleSuggestion{
				Role:      r.spec.Role,
				Expertise: r.spec.Expertise,
				Reasoning: "The topic calls for " + strings.ToLower(r.spec.Expertise),
			})
		}
	}
	for _, f := range fallbackSuggestions {
		if len(out) >= 2 {
			break
		}
		if !slices.ContainsFunc(out, func(s backend.RoleSuggestion) bool { return s.Role == f.Role }) {
			out = append(out, f)
		}
	}

	b.say(fmt.Sprintf("Suggested %d roles for %q", len(out), preview(topic, 50)))
	return out, nil
}

// =============================================================================
// CONVERSATION STATUS
// =============================================================================

// ConversationStatus summarizes the current conversation.
func (b *Broker) ConversationStatus() backend.ConversationStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conversationID == "" {
		return backend.ConversationStatus{Status: backend.StatusNoConversation}
	}
	status := backend.StatusActive
	if b.exchanges >= b.maxExchanges {
		status = backend.StatusConcluded
	}
	return backend.ConversationStatus{
		Status:             status,
		ConversationID:     b.conversationID,
		Topic:              b.topic,
		AgentsCount:        len(b.agents),
		ExchangesCompleted: b.exchanges,
		MaxExchanges:       b.maxExchanges,
		Agents:             append([]model.Agent(nil), b.agents...),
	}
}

// =============================================================================
// LEARNED PREFERENCES
// =============================================================================

// topicWords map prompt keywords to a topic label.
var topicWords = []struct {
	topic string
	rule  intent.Rule
}{
	{"fitness", intent.Rule{AnyOf: []string{"fitness", "workout"}}},
	{"nutrition", intent.Rule{AnyOf: []string{"nutrition", "diet"}}},
	{"business", intent.Rule{AnyOf: []string{"business", "project"}}},
	{"technology", intent.Rule{AnyOf: []string{"technology", "development"}}},
}

// Preferences derives what the user seems to favor from the interaction
// history. The zero value is returned before any interaction.
func (b *Broker) Preferences() backend.LearningPreferences {
	b.mu.Lock()
	items := b.history.Items()
	preferred := make(map[string]int, len(b.preferred))
	for role, n := range b.preferred {
		preferred[role] = n
	}
	b.mu.Unlock()

	if len(items) == 0 {
		return backend.LearningPreferences{}
	}

	prefs := backend.LearningPreferences{
		PreferredAgents: preferred,
		ResponseStyle:   make(map[string]float64),
	}
	seen := make(map[string]bool)
	for _, it := range items {
		prefs.ResponseStyle[string(it.Type)] += 1 / float64(len(items))
		n := intent.Normalize(it.Prompt)
		for _, tw := range topicWords {
			if !seen[tw.topic] && tw.rule.Matches(n) {
				seen[tw.topic] = true
				prefs.CommonTopics = append(prefs.CommonTopics, tw.topic)
			}
		}
	}
	if len(items) >= 2 {
		prefs.InteractionPatterns = patterns(items)
	}
	return prefs
}

func patterns(items []interaction) *backend.InteractionPatterns {
	var promptLen, score float64
	var teams, members int
	for _, it := range items {
		promptLen += float64(utf8.RuneCountInString(it.Prompt))
		score += it.Score
		if len(it.Agents) > 0 {
			teams++
			members += len(it.Agents)
		}
	}
	p := &backend.InteractionPatterns{
		AvgPromptLength: promptLen / float64(len(items)),
		SuccessRate:     score / float64(len(items)),
	}
	if teams > 0 {
		p.PreferredAgentCount = float64(members) / float64(teams)
	}
	return p
}
