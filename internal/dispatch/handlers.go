// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"context"
	"log"
	"strings"

	"github.com/jeranaias/agentroom/internal/backend"
	"github.com/jeranaias/agentroom/internal/intent"
	"github.com/jeranaias/agentroom/internal/model"
)

// handle routes a classified request. It never touches d's locked state;
// everything it needs is passed in as a snapshot.
func (d *Dispatcher) handle(ctx context.Context, in intent.Intent, text string, sess model.Session, caps model.Capabilities) result {
	switch in {
	case IntentCreateAgents:
		if !hasSpecification(text) {
			return result{
				intent:   in,
				messages: []model.Message{model.NewMessage(model.SenderAssistant, AgentSpecPrompt)},
				apply: func(s *model.Session) []model.Message {
					s.WaitingForAgentSpec = true
					return nil
				},
			}
		}
		return d.createAgents(ctx, sess, text)

	case IntentExchange:
		return d.exchange(ctx, sess)

	case IntentFullConversation:
		if !caps.Has(model.CapFullConversation) {
			return d.process(ctx, in, text, sess, caps)
		}
		return d.runFull(ctx, sess)

	case IntentStatus:
		if caps.Has(model.CapLearningStats) && mentionsLearning(text) {
			return d.learningStats(ctx, in)
		}
		return d.status(ctx)

	case IntentHelp:
		return reply(in, model.SenderAssistant, HelpText)

	case IntentStart:
		if sess.Topic == "" {
			sess.Topic = text
		}
		res := d.process(ctx, in, text, sess, caps)
		topic := sess.Topic
		prev := res.apply
		res.apply = func(s *model.Session) []model.Message {
			if s.Topic == "" {
				s.Topic = topic
			}
			if prev != nil {
				return prev(s)
			}
			return nil
		}
		return res

	default:
		return d.process(ctx, in, text, sess, caps)
	}
}

// createAgents sends an agent specification. The waiting flag is cleared
// whatever the outcome so a failed creation does not trap the next prompt.
func (d *Dispatcher) createAgents(ctx context.Context, sess model.Session, spec string) result {
	clearWaiting := func(s *model.Session) []model.Message {
		s.WaitingForAgentSpec = false
		return nil
	}

	resp, err := d.backend.CreateAgents(ctx, backend.CreateAgentsRequest{
		Specification: spec,
		Topic:         sess.Topic,
		Context:       sess.Context,
	})
	if err != nil {
		res := failure(IntentCreateAgents, "create_agents", err)
		res.apply = clearWaiting
		return res
	}
	if resp.Status != backend.StatusStarted {
		res := reply(IntentCreateAgents, model.SenderAssistant, orFailure(resp.Message))
		res.apply = clearWaiting
		return res
	}

	var msgs []model.Message
	if resp.BrokerMessage != "" {
		msgs = append(msgs, model.NewTitledMessage(model.SenderBroker, "Broker", resp.BrokerMessage))
	}
	msgs = append(msgs, model.NewMessage(model.SenderAssistant, teamSummary(resp.Agents)))

	return result{
		intent:        IntentCreateAgents,
		messages:      msgs,
		agents:        resp.Agents,
		agentsChanged: true,
		apply:         clearWaiting,
	}
}

// exchange requests one exchange unless the cap has been reached, in which
// case no request is sent.
func (d *Dispatcher) exchange(ctx context.Context, sess model.Session) result {
	if !sess.CanExchange() {
		return reply(IntentExchange, model.SenderAssistant, ConcludedNotice)
	}

	resp, err := d.backend.Exchange(ctx)
	if err != nil {
		return failure(IntentExchange, "exchange", err)
	}
	return exchangeResult(resp)
}

func exchangeResult(resp *backend.ExchangeResponse) result {
	switch resp.Status {
	case backend.StatusExchangeCompleted:
		return result{
			intent:   IntentExchange,
			messages: exchangeMessages(resp),
			apply:    recordExchanges(1),
		}
	case backend.StatusConcluded:
		text := resp.Conclusion
		if text == "" {
			text = ConclusionText
		}
		return result{
			intent:   IntentExchange,
			messages: []model.Message{model.NewTitledMessage(model.SenderBroker, "Conversation Conclusion", text)},
			apply: func(s *model.Session) []model.Message {
				s.Conclude()
				return nil
			},
		}
	default:
		return reply(IntentExchange, model.SenderAssistant, orFailure(resp.Message))
	}
}

// recordExchanges returns an apply step that counts n exchanges and posts
// the conclusion when the cap is reached.
func recordExchanges(n int) func(*model.Session) []model.Message {
	return func(s *model.Session) []model.Message {
		if s.RecordExchanges(n) {
			return []model.Message{conclusionMessage()}
		}
		return nil
	}
}

// runFull asks the backend for every remaining exchange at once.
func (d *Dispatcher) runFull(ctx context.Context, sess model.Session) result {
	if !sess.CanRunFull() {
		return reply(IntentFullConversation, model.SenderAssistant, ConcludedNotice)
	}
	if strings.TrimSpace(sess.Topic) == "" {
		return reply(IntentFullConversation, model.SenderAssistant, TopicHint)
	}

	resp, err := d.backend.RunFull(ctx, backend.FullRequest{
		Topic:        sess.Topic,
		Context:      sess.Context,
		MaxExchanges: sess.Remaining(),
	})
	if err != nil {
		return failure(IntentFullConversation, "run_full", err)
	}
	if resp.Status != backend.StatusCompleted {
		return reply(IntentFullConversation, model.SenderAssistant, orFailure(resp.Message))
	}

	var msgs []model.Message
	for i := range resp.Exchanges {
		if resp.Exchanges[i].Status == backend.StatusExchangeCompleted {
			msgs = append(msgs, exchangeMessages(&resp.Exchanges[i])...)
		}
	}
	msgs = append(msgs, model.NewTitledMessage(model.SenderBroker, "Conversation Summary", fullSummary(resp)))

	total := resp.TotalExchanges
	return result{
		intent:        IntentFullConversation,
		messages:      msgs,
		agents:        resp.Agents,
		agentsChanged: len(resp.Agents) > 0,
		apply: func(s *model.Session) []model.Message {
			if s.Concluded {
				return nil
			}
			s.RecordExchanges(total)
			s.Conclude()
			return []model.Message{conclusionMessage()}
		},
	}
}

// status reports backend availability.
func (d *Dispatcher) status(ctx context.Context) result {
	resp, err := d.backend.Status(ctx)
	available := err == nil && resp.Available()
	if err != nil {
		log.Printf("DISPATCH_STATUS | err=%v", err)
	}

	res := reply(IntentStatus, model.SenderAssistant, statusText(resp, err))
	res.apply = func(s *model.Session) []model.Message {
		s.BackendAvailable = available
		return nil
	}
	return res
}

func (d *Dispatcher) learningStats(ctx context.Context, in intent.Intent) result {
	stats, err := d.backend.LearningStats(ctx)
	if err != nil {
		return failure(in, "learning_stats", err)
	}
	return reply(in, model.SenderAssistant, learningText(stats))
}

// process forwards free text to the backend's own classifier and renders
// the reply by its type tag.
func (d *Dispatcher) process(ctx context.Context, in intent.Intent, text string, sess model.Session, caps model.Capabilities) result {
	resp, err := d.backend.Process(ctx, backend.ProcessRequest{
		Message: text,
		Context: backend.ProcessContext{
			CurrentTopic:                 sess.Topic,
			CurrentContext:               sess.Context,
			WaitingForAgentSpecification: sess.WaitingForAgentSpec,
		},
	})
	if err != nil {
		return failure(in, "process", err)
	}

	if resp.Status == backend.StatusError {
		return reply(in, model.SenderAssistant, orFailure(resp.Response))
	}

	switch resp.Type {
	case backend.TypeAgentCreation:
		return result{
			intent:        in,
			messages:      []model.Message{model.NewMessage(model.SenderAssistant, resp.Response)},
			agents:        resp.Agents,
			agentsChanged: true,
			apply: func(s *model.Session) []model.Message {
				s.WaitingForAgentSpec = false
				return nil
			},
		}

	case backend.TypeExchange:
		res := reply(in, model.SenderAssistant, resp.Response)
		if resp.ExchangeData != nil && resp.ExchangeData.Status == backend.StatusExchangeCompleted {
			res.apply = recordExchanges(1)
		}
		return res

	case backend.TypeLearningStats:
		if !caps.Has(model.CapLearningStats) {
			return reply(in, model.SenderAssistant, LearningDisabledText)
		}
		return d.learningStats(ctx, in)

	default:
		return reply(in, model.SenderAssistant, orFailure(resp.Response))
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func reply(in intent.Intent, sender model.Sender, text string) result {
	return result{intent: in, messages: []model.Message{model.NewMessage(sender, text)}}
}

// failure is the one message a transport or parse error produces.
func failure(in intent.Intent, op string, err error) result {
	log.Printf("DISPATCH_FAILED | intent=%s op=%s err=%v", in, op, err)
	return reply(in, model.SenderAssistant, FailureText)
}

func orFailure(text string) string {
	if strings.TrimSpace(text) == "" {
		return FailureText
	}
	return text
}

func conclusionMessage() model.Message {
	return model.NewTitledMessage(model.SenderBroker, "Conversation Conclusion", ConclusionText)
}

func exchangeMessages(resp *backend.ExchangeResponse) []model.Message {
	msgs := make([]model.Message, 0, len(resp.AgentResponses)+1)
	for _, ar := range resp.AgentResponses {
		msgs = append(msgs, model.NewTitledMessage(model.SenderAssistant, ar.AgentRole, ar.Message))
	}
	if resp.BrokerAnalysis != "" {
		msgs = append(msgs, model.NewTitledMessage(model.SenderBroker, "Broker Analysis", resp.BrokerAnalysis))
	}
	return msgs
}
