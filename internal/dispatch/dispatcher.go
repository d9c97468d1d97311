// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/jeranaias/agentroom/internal/backend"
	"github.com/jeranaias/agentroom/internal/intent"
	"github.com/jeranaias/agentroom/internal/model"
	"github.com/jeranaias/agentroom/internal/scenario"
	"github.com/jeranaias/agentroom/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyMessage is returned for empty or whitespace-only input.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrBusy is returned when a request is already in flight.
	ErrBusy = errors.New("a request is already in progress")

	// ErrStale is returned when a reset happened while the request was in
	// flight. Its result was discarded.
	ErrStale = errors.New("response discarded: conversation was reset")

	// ErrNoTopic is returned when role suggestions have no topic to go on.
	ErrNoTopic = errors.New("no topic set")
)

// =============================================================================
// BACKEND
// =============================================================================

// Backend is the subset of the backend client the dispatcher calls.
// *backend.Client satisfies it.
type Backend interface {
	Status(ctx context.Context) (*backend.StatusResponse, error)
	Process(ctx context.Context, req backend.ProcessRequest) (*backend.ProcessResponse, error)
	CreateAgents(ctx context.Context, req backend.CreateAgentsRequest) (*backend.CreateAgentsResponse, error)
	ListAgents(ctx context.Context) (*backend.AgentListResponse, error)
	Exchange(ctx context.Context) (*backend.ExchangeResponse, error)
	RunFull(ctx context.Context, req backend.FullRequest) (*backend.FullResponse, error)
	ResetConversation(ctx context.Context) (*backend.AckResponse, error)
	LearningStats(ctx context.Context) (*backend.LearningStats, error)
	SuggestAgents(ctx context.Context, req backend.SuggestionsRequest) (*backend.SuggestionsResponse, error)
	Demo(ctx context.Context, name string) (*backend.DemoScenario, error)
}

var _ Backend = (*backend.Client)(nil)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a Dispatcher.
type Options struct {
	// MaxExchanges caps the conversation. Values below 1 become 4.
	MaxExchanges int

	// Capabilities selects the enabled demo features. Full-conversation and
	// learning-stats requests degrade to a plain Process call when their
	// flag is missing.
	Capabilities model.Capabilities

	// Rules is the classifier. A table with no rules means DefaultRules.
	Rules intent.Table

	// Precedence moves the listed intents to the front of Rules.
	Precedence []intent.Intent

	// LogCapacity bounds the conversation log. Zero means 500.
	LogCapacity int
}

// DefaultMaxExchanges is the exchange cap when none is configured.
const DefaultMaxExchanges = 4

// DefaultOptions returns options with every capability enabled.
func DefaultOptions() Options {
	return Options{
		MaxExchanges: DefaultMaxExchanges,
		Capabilities: model.AllCapabilities,
		Rules:        DefaultRules(),
	}
}

// =============================================================================
// DISPATCHER
// =============================================================================

// Outcome describes what one request added to the conversation.
type Outcome struct {
	Seq           uint64
	Intent        intent.Intent
	Messages      []model.Message
	Agents        []model.Agent
	AgentsChanged bool
	Session       model.Session
}

// Dispatcher is the conversation controller. It is safe for concurrent
// use; at most one request runs at a time.
type Dispatcher struct {
	backend Backend
	log     *model.ConversationLog

	mu           sync.Mutex
	session      model.Session
	maxExchanges int
	rules        intent.Table
	caps         model.Capabilities
	agents       []model.Agent

	processing bool
	seq        uint64 // current request generation
	owner      uint64 // seq of the request holding processing
}

// New creates a dispatcher over b.
func New(b Backend, opts Options) (*Dispatcher, error) {
	if b == nil {
		return nil, errors.New("dispatch: backend is nil")
	}
	if opts.MaxExchanges < 1 {
		opts.MaxExchanges = DefaultMaxExchanges
	}
	rules := opts.Rules
	if len(rules.Rules()) == 0 {
		rules = DefaultRules()
	}
	if len(opts.Precedence) > 0 {
		var err error
		rules, err = rules.WithPrecedence(opts.Precedence)
		if err != nil {
			return nil, fmt.Errorf("dispatch: %w", err)
		}
	}

	return &Dispatcher{
		backend:      b,
		log:          model.NewConversationLog(opts.LogCapacity),
		session:      model.NewSession(opts.MaxExchanges),
		maxExchanges: opts.MaxExchanges,
		rules:        rules,
		caps:         opts.Capabilities,
	}, nil
}

// result is what a handler produces before it is committed.
type result struct {
	intent        intent.Intent
	messages      []model.Message
	agents        []model.Agent
	agentsChanged bool

	// apply mutates the live session at commit time and may return
	// messages that depend on the new state (the conclusion notice).
	apply func(s *model.Session) []model.Message
}

// Submit handles one line of user input.
func (d *Dispatcher) Submit(ctx context.Context, text string) (*Outcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	d.mu.Lock()
	if d.processing {
		d.mu.Unlock()
		return nil, ErrBusy
	}
	seq := d.begin()
	d.log.Append(model.NewMessage(model.SenderUser, util.SanitizeText(text)))
	sess, rules, caps := d.session, d.rules, d.caps
	d.mu.Unlock()
	defer d.finish(seq)

	var res result
	in := rules.Classify(text)
	switch {
	case sess.WaitingForAgentSpec:
		res = d.createAgents(ctx, sess, text)
	case !sess.CanExchange() && forwardsToProcess(in, caps) && requestsExchange(rules, text):
		// The backend would run an exchange the session has no room for.
		log.Printf("DISPATCH_CAPPED | intent=%s count=%d max=%d", in, sess.ExchangeCount, sess.MaxExchanges)
		res = reply(in, model.SenderAssistant, ConcludedNotice)
	default:
		res = d.handle(ctx, in, text, sess, caps)
	}
	return d.commit(seq, res)
}

// Trigger runs an intent directly, as the next-exchange and run-full
// controls do. No user message is appended.
func (d *Dispatcher) Trigger(ctx context.Context, in intent.Intent) (*Outcome, error) {
	d.mu.Lock()
	if d.processing {
		d.mu.Unlock()
		return nil, ErrBusy
	}
	seq := d.begin()
	sess, caps := d.session, d.caps
	d.mu.Unlock()
	defer d.finish(seq)

	return d.commit(seq, d.handle(ctx, in, "", sess, caps))
}

// begin claims the processing flag. Callers hold d.mu.
func (d *Dispatcher) begin() uint64 {
	d.seq++
	d.processing = true
	d.owner = d.seq
	return d.seq
}

// finish releases the processing flag if seq still owns it.
func (d *Dispatcher) finish(seq uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.owner == seq {
		d.processing = false
		d.owner = 0
	}
}

// commit applies res if seq is still current.
func (d *Dispatcher) commit(seq uint64, res result) (*Outcome, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if seq != d.seq {
		log.Printf("DISPATCH_STALE | seq=%d current=%d intent=%s", seq, d.seq, res.intent)
		return nil, ErrStale
	}

	msgs := res.messages
	if res.apply != nil {
		msgs = append(msgs, res.apply(&d.session)...)
	}
	if res.agentsChanged {
		d.agents = append([]model.Agent(nil), res.agents...)
	}
	for i := range msgs {
		msgs[i].Title = util.SanitizeText(msgs[i].Title)
		msgs[i].Text = util.SanitizeText(msgs[i].Text)
	}
	d.log.AppendAll(msgs)

	return &Outcome{
		Seq:           seq,
		Intent:        res.intent,
		Messages:      msgs,
		Agents:        res.agents,
		AgentsChanged: res.agentsChanged,
		Session:       d.session,
	}, nil
}

// =============================================================================
// CONTROLS
// =============================================================================

// Reset clears the log and session and invalidates any in-flight request.
// The backend conversation is reset best-effort; its error is returned but
// the local reset has already happened.
func (d *Dispatcher) Reset(ctx context.Context) error {
	return d.BeginReset()(ctx)
}

// BeginReset performs the local part of Reset immediately and returns the
// backend part. New requests get ErrBusy until the returned function has
// run, so a team created meanwhile cannot be wiped by the late backend
// reset.
func (d *Dispatcher) BeginReset() func(ctx context.Context) error {
	d.mu.Lock()
	seq := d.begin()
	d.session.Reset(d.maxExchanges)
	d.agents = nil
	d.log.Clear()
	d.mu.Unlock()

	return func(ctx context.Context) error {
		defer d.finish(seq)
		if _, err := d.backend.ResetConversation(ctx); err != nil {
			log.Printf("DISPATCH_RESET | backend_err=%v", err)
			return fmt.Errorf("reset backend conversation: %w", err)
		}
		return nil
	}
}

// CheckStatus queries the backend and records whether it is available. It
// returns the header label: Connected, Not Connected or Demo Mode.
func (d *Dispatcher) CheckStatus(ctx context.Context) string {
	resp, err := d.backend.Status(ctx)
	label := StatusLabel(resp, err)

	d.mu.Lock()
	d.session.BackendAvailable = err == nil && resp.Available()
	d.mu.Unlock()
	return label
}

// RefreshAgents replaces the roster with the backend's agent list.
func (d *Dispatcher) RefreshAgents(ctx context.Context) ([]model.Agent, error) {
	d.mu.Lock()
	seq := d.seq
	d.mu.Unlock()

	resp, err := d.backend.ListAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if seq != d.seq {
		return nil, ErrStale
	}
	d.agents = append([]model.Agent(nil), resp.Agents...)
	return d.agentsLocked(), nil
}

// SuggestRoles asks the backend which roles suit topic, or the session
// topic when topic is empty, and posts the answer as a broker message.
func (d *Dispatcher) SuggestRoles(ctx context.Context, topic string) (model.Message, error) {
	d.mu.Lock()
	seq := d.seq
	if topic = strings.TrimSpace(topic); topic == "" {
		topic = d.session.Topic
	}
	convContext := d.session.Context
	d.mu.Unlock()

	if topic == "" {
		return model.Message{}, ErrNoTopic
	}
	resp, err := d.backend.SuggestAgents(ctx, backend.SuggestionsRequest{Topic: topic, Context: convContext})
	if err != nil {
		return model.Message{}, fmt.Errorf("suggest agents: %w", err)
	}

	msg := model.NewTitledMessage(model.SenderBroker, "Suggested Team", util.SanitizeText(suggestionsText(resp.Suggestions)))
	d.mu.Lock()
	defer d.mu.Unlock()
	if seq != d.seq {
		return model.Message{}, ErrStale
	}
	return d.log.Append(msg), nil
}

// FetchScenario asks the backend for a demo preset. When the backend does
// not answer, the local preset of the same name is used. Roles come from
// the local preset either way; the backend does not serve them.
func (d *Dispatcher) FetchScenario(ctx context.Context, name string, local scenario.Set) (scenario.Scenario, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	preset, localErr := local.Get(name)

	demo, err := d.backend.Demo(ctx, name)
	if err != nil {
		log.Printf("DISPATCH_DEMO | name=%s backend_err=%v local=%t", name, err, localErr == nil)
		return preset, localErr
	}
	return scenario.Scenario{
		Name:       name,
		Topic:      util.SanitizeText(demo.Topic),
		Context:    util.SanitizeText(demo.Context),
		Suggestion: util.SanitizeText(demo.Suggestion),
		Roles:      preset.Roles,
	}, nil
}

// LoadScenario fills topic and context from a preset and posts its
// suggestion as a broker message.
func (d *Dispatcher) LoadScenario(sc scenario.Scenario) model.Message {
	msg := model.NewTitledMessage(model.SenderBroker, "Demo Scenario", scenarioText(sc))

	d.mu.Lock()
	defer d.mu.Unlock()
	d.session.Topic = sc.Topic
	d.session.Context = sc.Context
	return d.log.Append(msg)
}

// SetTopic sets the conversation topic.
func (d *Dispatcher) SetTopic(topic string) {
	d.mu.Lock()
	d.session.Topic = strings.TrimSpace(topic)
	d.mu.Unlock()
}

// SetContext sets the conversation context.
func (d *Dispatcher) SetContext(text string) {
	d.mu.Lock()
	d.session.Context = strings.TrimSpace(text)
	d.mu.Unlock()
}

// SetRules replaces the classifier.
func (d *Dispatcher) SetRules(t intent.Table) {
	d.mu.Lock()
	d.rules = t
	d.mu.Unlock()
}

// SetPrecedence reorders the default rules. An empty order restores them.
func (d *Dispatcher) SetPrecedence(order []intent.Intent) error {
	t, err := DefaultRules().WithPrecedence(order)
	if err != nil {
		return err
	}
	d.SetRules(t)
	return nil
}

// SetMaxExchanges changes the cap for this and later conversations. The
// current cap never drops below the exchanges already completed.
func (d *Dispatcher) SetMaxExchanges(n int) {
	if n < 1 {
		return
	}
	d.mu.Lock()
	d.maxExchanges = n
	d.session.SetMaxExchanges(n)
	d.mu.Unlock()
}

// SetCapabilities replaces the capability set.
func (d *Dispatcher) SetCapabilities(c model.Capabilities) {
	d.mu.Lock()
	d.caps = c
	d.mu.Unlock()
}

// Capabilities returns the enabled capability set.
func (d *Dispatcher) Capabilities() model.Capabilities {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.caps
}

// Rules returns the active classifier.
func (d *Dispatcher) Rules() intent.Table {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rules
}

// Session returns a snapshot of the session.
func (d *Dispatcher) Session() model.Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.session
}

// Agents returns a copy of the current roster.
func (d *Dispatcher) Agents() []model.Agent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.agentsLocked()
}

func (d *Dispatcher) agentsLocked() []model.Agent {
	return append([]model.Agent(nil), d.agents...)
}

// Processing reports whether a request is in flight.
func (d *Dispatcher) Processing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.processing
}

// Log returns the conversation log.
func (d *Dispatcher) Log() *model.ConversationLog {
	return d.log
}
