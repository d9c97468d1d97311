// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package broker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/agentroom/internal/backend"
	"github.com/jeranaias/agentroom/internal/model"
	"github.com/jeranaias/agentroom/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrSpecRequired is returned when an agent specification is empty.
	ErrSpecRequired = errors.New("agent specification is required")

	// ErrTopicRequired is returned when a full run has no topic.
	ErrTopicRequired = errors.New("topic is required")
)

// =============================================================================
// THOUGHT SINK
// =============================================================================

// Thought kinds.
const (
	ThoughtSystem        = "system"
	ThoughtAgentCreated  = "agent_created"
	ThoughtAgentResponse = "agent_response"
)

// ThoughtSink receives narration. The server's thought hub implements it.
type ThoughtSink interface {
	Add(kind, message string, agentID *string)
	Clear()
}

type nopSink struct{}

func (nopSink) Add(string, string, *string) {}
func (nopSink) Clear()                      {}

// =============================================================================
// BROKER
// =============================================================================

// DefaultMaxExchanges is the cap before the broker forces a conclusion.
const DefaultMaxExchanges = 6

// Options configures a Broker.
type Options struct {
	// MaxExchanges caps a conversation. Zero means 6.
	MaxExchanges int

	// Latency adds a 0.5s-1.5s pause between narrated steps so the thought
	// stream has something to show. Tests leave it off.
	Latency bool

	// Rand drives latency jitter. Nil seeds from the clock.
	Rand *rand.Rand

	// HistoryCapacity bounds the learning history. Zero means 1000.
	HistoryCapacity int
}

// Broker is safe for concurrent use.
type Broker struct {
	thoughts ThoughtSink
	latency  bool
	now      func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand

	mu             sync.Mutex
	agents         []model.Agent
	agentCounter   int
	conversationID string
	topic          string
	context        string
	exchanges      int
	maxExchanges   int
	defaultMax     int
	history        *model.Ring[interaction]
	preferred      map[string]int
}

// New creates a broker narrating to thoughts. A nil sink discards.
func New(thoughts ThoughtSink, opts Options) *Broker {
	if thoughts == nil {
		thoughts = nopSink{}
	}
	if opts.MaxExchanges <= 0 {
		opts.MaxExchanges = DefaultMaxExchanges
	}
	if opts.HistoryCapacity <= 0 {
		opts.HistoryCapacity = 1000
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Broker{
		thoughts:     thoughts,
		latency:      opts.Latency,
		now:          time.Now,
		rng:          rng,
		maxExchanges: opts.MaxExchanges,
		defaultMax:   opts.MaxExchanges,
		history:      model.NewRing[interaction](opts.HistoryCapacity),
		preferred:    make(map[string]int),
	}
}

// Status describes the demo system.
func (b *Broker) Status() backend.StatusResponse {
	return backend.StatusResponse{
		Status:  backend.StatusAvailable,
		Message: "Dynamic Agent System is ready",
		Features: []string{
			"Dynamic agent creation",
			"Multi-agent conversations",
			"Keyword-driven suggestions",
			"Flexible conversation management",
		},
	}
}

// Agents returns the active team.
func (b *Broker) Agents() []model.Agent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Agent(nil), b.agents...)
}

// Reset ends the conversation and dismisses the team. Learning history is
// kept.
func (b *Broker) Reset() backend.AckResponse {
	b.mu.Lock()
	b.agents = nil
	b.conversationID = ""
	b.topic, b.context = "", ""
	b.exchanges = 0
	b.maxExchanges = b.defaultMax
	b.mu.Unlock()

	log.Printf("BROKER_RESET")
	return backend.AckResponse{Status: backend.StatusReset, Message: "Conversation reset successfully"}
}

// =============================================================================
// AGENT CREATION
// =============================================================================

// CreateFromSpecification builds a team from spec and starts a new
// conversation on topic.
func (b *Broker) CreateFromSpecification(ctx context.Context, spec, topic, convContext string) (backend.CreateAgentsResponse, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return backend.CreateAgentsResponse{}, ErrSpecRequired
	}

	b.thoughts.Clear()
	b.say("Starting agent creation process...")
	b.say(fmt.Sprintf("Analyzing user specification: %q", preview(spec, 100)))
	if topic != "" {
		b.say("Topic: " + preview(topic, 50))
	}
	if convContext != "" {
		b.say("Context: " + preview(convContext, 50))
	}

	steps := []string{
		"Parsing user agent specification...",
		"Generating agent roles and expertise based on specification...",
		"Creating unique personalities for each agent...",
		"Initializing agent systems and memory...",
	}
	for _, s := range steps {
		if err := b.pause(ctx); err != nil {
			return backend.CreateAgentsResponse{}, err
		}
		b.say(s)
	}

	specs := ParseSpecification(spec)

	b.mu.Lock()
	agents := make([]model.Agent, len(specs))
	for i, s := range specs {
		agents[i] = model.Agent{
			ID:          fmt.Sprintf("agent_%d", b.agentCounter),
			Role:        s.Role,
			Expertise:   s.Expertise,
			Personality: Personality(s.Role, s.Expertise),
		}
		b.agentCounter++
	}
	b.agents = agents
	b.conversationID = uuid.NewString()
	b.topic, b.context = topic, convContext
	b.exchanges = 0
	b.maxExchanges = b.defaultMax
	convID := b.conversationID
	b.mu.Unlock()

	b.say(fmt.Sprintf("Successfully created %d agents", len(agents)))
	for _, a := range agents {
		id := model.StringPtr(a.ID)
		b.thoughts.Add(ThoughtAgentCreated, fmt.Sprintf("Agent %s initialized with expertise in %s", a.Role, a.Expertise), id)
		b.thoughts.Add(ThoughtAgentCreated, "Loading personality: "+preview(a.Personality, 100), id)
		b.thoughts.Add(ThoughtAgentCreated, fmt.Sprintf("Agent %s ready for conversation", a.Role), id)
	}
	b.say("Conversation system ready!")
	log.Printf("BROKER_CREATE | conversation=%s agents=%d", convID, len(agents))

	return backend.CreateAgentsResponse{
		Status:         backend.StatusStarted,
		ConversationID: convID,
		Agents:         agents,
		BrokerMessage:  openingMessage(topic, convContext, agents),
		AgentsCreated:  len(agents),
	}, nil
}

// =============================================================================
// EXCHANGES
// =============================================================================

// Exchange runs one round: every agent speaks once and the broker
// comments. At the cap it returns the conclusion instead.
func (b *Broker) Exchange(ctx context.Context) backend.ExchangeResponse {
	b.mu.Lock()
	if len(b.agents) == 0 {
		b.mu.Unlock()
		return backend.ExchangeResponse{Status: backend.StatusError, Message: "No active agents. Please create agents first."}
	}
	if b.exchanges >= b.maxExchanges {
		resp := b.concludeLocked()
		b.mu.Unlock()
		b.say("Maximum exchanges reached; concluding conversation")
		return resp
	}
	b.exchanges++
	n, maxN := b.exchanges, b.maxExchanges
	agents := append([]model.Agent(nil), b.agents...)
	topic := b.topic
	b.mu.Unlock()

	b.say(fmt.Sprintf("Conducting exchange %d of %d...", n, maxN))
	responses := make([]backend.AgentResponse, 0, len(agents))
	for _, a := range agents {
		if err := b.pause(ctx); err != nil {
			return backend.ExchangeResponse{Status: backend.StatusError, Message: err.Error()}
		}
		msg := agentReply(a, topic)
		b.thoughts.Add(ThoughtAgentResponse, a.Role+" is responding...", model.StringPtr(a.ID))
		responses = append(responses, backend.AgentResponse{
			AgentID:   a.ID,
			AgentRole: a.Role,
			Message:   msg,
			Timestamp: b.now().Format(time.RFC3339),
		})
	}
	b.say("Exchange completed successfully")

	return backend.ExchangeResponse{
		Status:         backend.StatusExchangeCompleted,
		ExchangeNumber: n,
		AgentResponses: responses,
		BrokerAnalysis: exchangeAnalysis(responses),
		Progress: &backend.Progress{
			ExchangesCompleted: n,
			MaxExchanges:       maxN,
			ProgressPercentage: float64(n) / float64(maxN) * 100,
			RemainingExchanges: maxN - n,
		},
	}
}

func (b *Broker) concludeLocked() backend.ExchangeResponse {
	topic := b.topic
	if topic == "" {
		topic = "this topic"
	}
	return backend.ExchangeResponse{
		Status: backend.StatusConcluded,
		Conclusion: fmt.Sprintf("Conversation concluded after %d exchanges on %s. "+
			"Thank you all for your participation.", b.exchanges, topic),
		TotalExchanges:     b.exchanges,
		AgentsParticipated: len(b.agents),
	}
}

// RunFull restarts the conversation on topic with the current team and
// runs maxExchanges rounds. Zero means the configured cap.
func (b *Broker) RunFull(ctx context.Context, topic, convContext string, maxExchanges int) (backend.FullResponse, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return backend.FullResponse{}, ErrTopicRequired
	}
	if maxExchanges <= 0 {
		maxExchanges = b.defaultMax
	}

	b.mu.Lock()
	if len(b.agents) == 0 {
		b.mu.Unlock()
		return backend.FullResponse{Status: backend.StatusError, Message: "No active agents. Please create agents first."}, nil
	}
	b.topic, b.context = topic, convContext
	b.exchanges = 0
	b.maxExchanges = maxExchanges
	b.mu.Unlock()

	b.say(fmt.Sprintf("Running full conversation: %d exchanges on %q", maxExchanges, preview(topic, 50)))

	var exchanges []backend.ExchangeResponse
run:
	for range maxExchanges {
		ex := b.Exchange(ctx)
		switch ex.Status {
		case backend.StatusExchangeCompleted:
			exchanges = append(exchanges, ex)
		case backend.StatusConcluded:
			exchanges = append(exchanges, ex)
			break run
		default:
			return backend.FullResponse{Status: backend.StatusError, Message: ex.Message}, nil
		}
	}

	b.mu.Lock()
	total := b.exchanges
	agents := append([]model.Agent(nil), b.agents...)
	b.mu.Unlock()

	b.say("Full conversation completed")
	return backend.FullResponse{
		Status:         backend.StatusCompleted,
		Topic:          topic,
		Context:        convContext,
		TotalExchanges: total,
		Exchanges:      exchanges,
		Agents:         agents,
	}, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (b *Broker) say(msg string) {
	b.thoughts.Add(ThoughtSystem, msg, nil)
}

// pause sleeps for one simulated step when latency is on.
func (b *Broker) pause(ctx context.Context) error {
	if !b.latency {
		return ctx.Err()
	}
	b.rngMu.Lock()
	d := 500*time.Millisecond + time.Duration(b.rng.Int63n(int64(time.Second)))
	b.rngMu.Unlock()

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func preview(s string, n int) string {
	return util.TruncateRunes(strings.TrimSpace(s), n)
}
