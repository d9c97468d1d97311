// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package broker

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jeranaias/agentroom/internal/backend"
	"github.com/jeranaias/agentroom/internal/intent"
)

// =============================================================================
// CLASSIFIER
// =============================================================================

func typeIntent(t backend.ResponseType) intent.Intent { return intent.Intent(t) }

// Rules is the server-side classifier. Agent creation is checked first,
// so "create a team for the next project" builds a team.
func Rules() intent.Table {
	return intent.NewTable(typeIntent(backend.TypeGeneral),
		intent.Rule{Intent: typeIntent(backend.TypeAgentCreation), AnyOf: []string{
			"create", "agent", "team", "employees", "hire", "build", "assemble",
		}},
		intent.Rule{Intent: typeIntent(backend.TypeExchange), AnyOf: []string{
			"exchange", "next", "continue", "proceed",
		}},
		intent.Rule{Intent: typeIntent(backend.TypeHelp), AnyOf: []string{
			"help", "what can you do", "how", "guide", "assist",
		}},
		intent.Rule{Intent: typeIntent(backend.TypeStatus), AnyOf: []string{
			"status", "system", "health", "check",
		}},
		intent.Rule{Intent: typeIntent(backend.TypeConversationStarter), AnyOf: []string{
			"start", "begin", "new", "project", "discuss", "talk",
		}},
	)
}

// learningRule refines a status request.
var learningRule = intent.Rule{AnyOf: []string{"learning", "neural", "stats", "brain"}}

// LearningStatsRequest is the response body of a refined status request.
// The client follows up with GET /api/learning/stats.
const LearningStatsRequest = "learning_stats_request"

// Process answers a free-form prompt.
func (b *Broker) Process(ctx context.Context, message string, pctx backend.ProcessContext) backend.ProcessResponse {
	message = strings.TrimSpace(message)
	b.thoughts.Clear()
	b.say("Processing user message...")
	b.say(fmt.Sprintf("Analyzing: %q", preview(message, 100)))
	b.say("Analyzing user intent and context...")

	if err := b.pause(ctx); err != nil {
		return backend.ProcessResponse{Status: backend.StatusError, Type: backend.TypeError, Response: err.Error()}
	}

	var resp backend.ProcessResponse
	if pctx.WaitingForAgentSpecification {
		resp = b.processCreate(ctx, message, pctx)
	} else {
		resp = b.route(ctx, message, pctx)
	}

	b.say("Response generated successfully")
	if resp.Status == backend.StatusSuccess {
		var roles []string
		for _, a := range resp.Agents {
			roles = append(roles, a.Role)
		}
		b.learn(message, resp.Type, roles)
		b.say("Learning from interaction completed")
	}
	return resp
}

func (b *Broker) route(ctx context.Context, message string, pctx backend.ProcessContext) backend.ProcessResponse {
	n := intent.Normalize(message)
	switch backend.ResponseType(Rules().Classify(message)) {
	case backend.TypeAgentCreation:
		return b.processCreate(ctx, message, pctx)

	case backend.TypeExchange:
		b.say("Detected conversation management request")
		ex := b.Exchange(ctx)
		if ex.Status != backend.StatusExchangeCompleted {
			b.say("No active conversation to exchange")
			return backend.ProcessResponse{
				Type:     backend.TypeExchange,
				Status:   backend.StatusError,
				Response: "No active conversation found. Please create agents first.",
			}
		}
		return backend.ProcessResponse{
			Type:         backend.TypeExchange,
			Status:       backend.StatusSuccess,
			Response:     exchangeMarkdown(&ex),
			ExchangeData: &ex,
		}

	case backend.TypeHelp:
		b.say("Detected help request")
		return success(backend.TypeHelp, HelpResponse)

	case backend.TypeStatus:
		b.say("Detected system status request")
		if learningRule.Matches(n) {
			b.say("User requesting neural learning statistics")
			return success(backend.TypeLearningStats, LearningStatsRequest)
		}
		return success(backend.TypeStatus, StatusResponse)

	case backend.TypeConversationStarter:
		b.say("Detected conversation starter")
		b.say("Suggesting agent creation for better discussion...")
		return success(backend.TypeConversationStarter, fmt.Sprintf(starterTemplate, message))

	default:
		b.say("Processing general conversation")
		return success(backend.TypeGeneral, fmt.Sprintf(generalTemplate, message))
	}
}

func (b *Broker) processCreate(ctx context.Context, message string, pctx backend.ProcessContext) backend.ProcessResponse {
	b.say("Detected agent creation request")
	created, err := b.CreateFromSpecification(ctx, message, pctx.CurrentTopic, pctx.CurrentContext)
	if err != nil {
		b.say("Error creating agents: " + err.Error())
		return backend.ProcessResponse{
			Type:     backend.TypeError,
			Status:   backend.StatusError,
			Response: "Sorry, I couldn't create the agents: " + err.Error(),
		}
	}
	return backend.ProcessResponse{
		Type:          backend.TypeAgentCreation,
		Status:        backend.StatusSuccess,
		Response:      created.BrokerMessage,
		Agents:        created.Agents,
		AgentsCreated: created.AgentsCreated,
	}
}

func success(t backend.ResponseType, text string) backend.ProcessResponse {
	return backend.ProcessResponse{Type: t, Status: backend.StatusSuccess, Response: text}
}

func exchangeMarkdown(ex *backend.ExchangeResponse) string {
	var b strings.Builder
	b.WriteString("**Agent Exchange Results:**\n\n")
	for _, r := range ex.AgentResponses {
		fmt.Fprintf(&b, "**%s:** %s\n\n", r.AgentRole, r.Message)
	}
	if ex.BrokerAnalysis != "" {
		fmt.Fprintf(&b, "**Broker Analysis:** %s\n\n", ex.BrokerAnalysis)
	}
	return strings.TrimRight(b.String(), "\n")
}

// =============================================================================
// LEARNING
// =============================================================================

// SuccessThreshold is the score at which an interaction counts as a
// successful pattern.
const SuccessThreshold = 0.7

type interaction struct {
	Prompt string
	Type   backend.ResponseType
	Score  float64
	Agents []string
	At     time.Time
}

// successScore rates an interaction by what it achieved.
func successScore(t backend.ResponseType) float64 {
	switch t {
	case backend.TypeAgentCreation:
		return 0.7
	case backend.TypeExchange:
		return 0.8
	case backend.TypeHelp:
		return 0.6
	default:
		return 0.5
	}
}

func (b *Broker) learn(prompt string, t backend.ResponseType, agents []string) {
	rec := interaction{Prompt: prompt, Type: t, Score: successScore(t), Agents: agents, At: b.now()}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.history.Push(rec)
	for _, role := range agents {
		b.preferred[role]++
	}
	log.Printf("BROKER_LEARN | type=%s score=%.2f history=%d", t, rec.Score, b.history.Len())
}

// LearningStats summarizes the interaction history.
func (b *Broker) LearningStats() backend.LearningStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := b.history.Items()
	stats := backend.LearningStats{
		TotalInteractions: len(items),
		PreferredAgents:   make(map[string]int, len(b.preferred)),
	}
	var sum float64
	for _, it := range items {
		sum += it.Score
		if it.Score >= SuccessThreshold {
			stats.SuccessfulPatterns++
		}
	}
	if len(items) > 0 {
		stats.AverageSuccessRate = sum / float64(len(items))
	}
	for role, n := range b.preferred {
		stats.PreferredAgents[role] = n
	}
	return stats
}

// =============================================================================
// CANNED REPLIES
// =============================================================================

// HelpResponse answers help requests.
const HelpResponse = `🤖 **Agent Conversation System - What I Can Do**

**🎯 Main features:**
- **Create dynamic agents**: build a custom team for any project
- **Multi-agent conversations**: run discussions between agents
- **Real-time processing**: watch the system think in the thought stream

**💡 Getting started:**
1. **Create agents**: "Create 3 agents: Project Manager, Developer, Designer"
2. **Start a conversation**: "I need help with a marketing strategy"
3. **Run exchanges**: "Conduct the next exchange" or "Continue the conversation"

**🔄 Flow:** create agents, start the conversation, run exchanges, read the results.

What would you like to do today?`

// StatusResponse answers system status requests.
const StatusResponse = `✅ **System Status Report**

**🛡️ Guardian System:** active and monitoring
**🤖 Agent Orchestrator:** ready for agent creation
**💬 Conversation Manager:** available for exchanges
**📊 Real-Time Processing:** enabled with thought streaming
**🧠 Learning:** recording interactions

**📈 System Health:** all systems operational.`

const starterTemplate = `Great! I'd love to help you with "%s".

To make this conversation productive, I recommend creating a team of specialized agents with different perspectives.

**🤔 What kind of agents would help with this topic?**

- **Specify your own**: "Create 3 agents: [roles you want]"
- **Quick start**: "Just create 4 agents for this"

What would you prefer?`

const generalTemplate = `I understand you're asking about: "%s"

I'm an agent conversation system. I can:
- create custom agent teams for any project or discussion
- run multi-agent conversations with different perspectives
- show my reasoning live in the thought stream

Try "Create agents for [your topic]", "What can you do?" or "Show me system status".`
