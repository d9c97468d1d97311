// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import "github.com/jeranaias/agentroom/internal/model"

// =============================================================================
// DISCRIMINATORS
// =============================================================================

// Status is the envelope status discriminator.
type Status string

const (
	StatusSuccess           Status = "success"
	StatusStarted           Status = "started"
	StatusExchangeCompleted Status = "exchange_completed"
	StatusConcluded         Status = "concluded"
	StatusCompleted         Status = "completed"
	StatusError             Status = "error"
	StatusAvailable         Status = "available"
	StatusUnavailable       Status = "unavailable"
	StatusCleared           Status = "cleared"
	StatusReset             Status = "reset"
	StatusActive            Status = "active"
	StatusNoConversation    Status = "no_conversation"
)

// ResponseType tags successful /api/conversation/process responses.
type ResponseType string

const (
	TypeAgentCreation       ResponseType = "agent_creation"
	TypeExchange            ResponseType = "exchange"
	TypeLearningStats       ResponseType = "learning_stats"
	TypeHelp                ResponseType = "help"
	TypeStatus              ResponseType = "status"
	TypeConversationStarter ResponseType = "conversation_starter"
	TypeGeneral             ResponseType = "general"
	TypeError               ResponseType = "error"
)

// =============================================================================
// REQUESTS
// =============================================================================

// ProcessContext is the conversation context sent with each prompt.
type ProcessContext struct {
	CurrentTopic                 string `json:"currentTopic"`
	CurrentContext               string `json:"currentContext"`
	WaitingForAgentSpecification bool   `json:"waitingForAgentSpecification"`
}

// ProcessRequest is the body of POST /api/conversation/process.
type ProcessRequest struct {
	Message string         `json:"message"`
	Context ProcessContext `json:"context"`
}

// CreateAgentsRequest is the body of POST /api/agents/create.
type CreateAgentsRequest struct {
	Specification string `json:"specification"`
	Topic         string `json:"topic"`
	Context       string `json:"context"`
}

// FullRequest is the body of POST /api/conversation/full.
type FullRequest struct {
	Topic        string `json:"topic"`
	Context      string `json:"context"`
	MaxExchanges int    `json:"max_exchanges"`
}

// =============================================================================
// RESPONSES
// =============================================================================

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	Status   Status   `json:"status"`
	Message  string   `json:"message,omitempty"`
	Features []string `json:"features,omitempty"`
}

// Available reports whether the backend declared itself available.
func (s *StatusResponse) Available() bool {
	return s != nil && s.Status == StatusAvailable
}

// AgentResponse is one agent's turn within an exchange.
type AgentResponse struct {
	AgentID   string `json:"agent_id"`
	AgentRole string `json:"agent_role"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Progress reports how far the backend conversation has advanced.
type Progress struct {
	ExchangesCompleted int     `json:"exchanges_completed"`
	MaxExchanges       int     `json:"max_exchanges"`
	ProgressPercentage float64 `json:"progress_percentage"`
	RemainingExchanges int     `json:"remaining_exchanges"`
}

// ExchangeResponse is returned by POST /api/conversation/exchange. A
// concluded conversation carries Conclusion instead of agent responses.
type ExchangeResponse struct {
	Status             Status          `json:"status"`
	ExchangeNumber     int             `json:"exchange_number,omitempty"`
	AgentResponses     []AgentResponse `json:"agent_responses,omitempty"`
	BrokerAnalysis     string          `json:"broker_analysis,omitempty"`
	Progress           *Progress       `json:"progress,omitempty"`
	Conclusion         string          `json:"conclusion,omitempty"`
	TotalExchanges     int             `json:"total_exchanges,omitempty"`
	AgentsParticipated int             `json:"agents_participated,omitempty"`
	Message            string          `json:"message,omitempty"`
}

// ProcessResponse is returned by POST /api/conversation/process.
type ProcessResponse struct {
	Status        Status            `json:"status"`
	Type          ResponseType      `json:"type,omitempty"`
	Response      string            `json:"response"`
	Agents        []model.Agent     `json:"agents,omitempty"`
	AgentsCreated int               `json:"agents_created,omitempty"`
	ExchangeData  *ExchangeResponse `json:"exchange_data,omitempty"`
}

// CreateAgentsResponse is returned by POST /api/agents/create.
type CreateAgentsResponse struct {
	Status         Status        `json:"status"`
	ConversationID string        `json:"conversation_id,omitempty"`
	Agents         []model.Agent `json:"agents"`
	BrokerMessage  string        `json:"broker_message"`
	AgentsCreated  int           `json:"agents_created"`
	Message        string        `json:"message,omitempty"`
}

// AgentListResponse is returned by GET /api/agents/list.
type AgentListResponse struct {
	Agents []model.Agent `json:"agents"`
	Count  int           `json:"count"`
}

// FullResponse is returned by POST /api/conversation/full.
type FullResponse struct {
	Status         Status             `json:"status"`
	Topic          string             `json:"topic,omitempty"`
	Context        string             `json:"context,omitempty"`
	TotalExchanges int                `json:"total_exchanges"`
	Exchanges      []ExchangeResponse `json:"exchanges,omitempty"`
	Agents         []model.Agent      `json:"agents"`
	Message        string             `json:"message,omitempty"`
}

// AckResponse acknowledges clear and reset calls.
type AckResponse struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// LearningStats is returned by GET /api/learning/stats. When the backend
// has no learning system, only Error is set.
type LearningStats struct {
	TotalInteractions       int            `json:"total_interactions"`
	SuccessfulPatterns      int            `json:"successful_patterns"`
	AverageSuccessRate      float64        `json:"average_success_rate"`
	PreferredAgents         map[string]int `json:"preferred_agents"`
	NeuralNetworksAvailable bool           `json:"neural_networks_available"`
	IsTraining              bool           `json:"is_training"`
	Error                   string         `json:"error,omitempty"`
}

// DemoScenario is returned by GET /api/demo/{scenario}.
type DemoScenario struct {
	Topic      string `json:"topic"`
	Context    string `json:"context"`
	Suggestion string `json:"suggestion"`
}

// SuggestionsRequest is the body of POST /api/agents/suggestions.
type SuggestionsRequest struct {
	Topic   string `json:"topic"`
	Context string `json:"context,omitempty"`
}

// RoleSuggestion is one proposed team member.
type RoleSuggestion struct {
	Role      string `json:"role"`
	Expertise string `json:"expertise"`
	Reasoning string `json:"reasoning"`
}

// SuggestionsResponse is returned by POST /api/agents/suggestions.
type SuggestionsResponse struct {
	Suggestions []RoleSuggestion `json:"suggestions"`
}

// ConversationStatus is returned by GET /api/conversation/status. Only
// Status is set when no conversation has started.
type ConversationStatus struct {
	Status             Status        `json:"status"`
	ConversationID     string        `json:"conversation_id,omitempty"`
	Topic              string        `json:"topic,omitempty"`
	AgentsCount        int           `json:"agents_count,omitempty"`
	ExchangesCompleted int           `json:"exchanges_completed,omitempty"`
	MaxExchanges       int           `json:"max_exchanges,omitempty"`
	Agents             []model.Agent `json:"agents,omitempty"`
}

// LearningPreferences is returned by GET /api/learning/preferences. It is
// empty until the backend has seen an interaction.
type LearningPreferences struct {
	PreferredAgents     map[string]int       `json:"preferred_agents,omitempty"`
	ResponseStyle       map[string]float64   `json:"response_style,omitempty"`
	CommonTopics        []string             `json:"common_topics,omitempty"`
	InteractionPatterns *InteractionPatterns `json:"interaction_patterns,omitempty"`
}

// InteractionPatterns needs at least two interactions.
type InteractionPatterns struct {
	AvgPromptLength     float64 `json:"avg_prompt_length"`
	PreferredAgentCount float64 `json:"preferred_agent_count"`
	SuccessRate         float64 `json:"success_rate"`
}

// errorResponse is the body of non-2xx responses.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
