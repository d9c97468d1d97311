// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/agentroom/internal/backend"
	"github.com/jeranaias/agentroom/internal/config"
	"github.com/jeranaias/agentroom/internal/model"
	"github.com/jeranaias/agentroom/internal/scenario"
)

func testConfig() config.ServerConfig {
	cfg := config.Default().Server
	cfg.SimulateLatency = false
	cfg.RateLimitRPS = 1000
	cfg.RateLimitBurst = 1000
	return cfg
}

func newTestServer(t *testing.T, cfg config.ServerConfig) (*Server, *backend.Client) {
	t.Helper()
	s := NewServer(cfg)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, backend.NewClient(ts.URL)
}

// =============================================================================
// SERVER TESTS
// =============================================================================

func TestNewServer_Defaults(t *testing.T) {
	s := NewServer(config.ServerConfig{})
	assert.Equal(t, "127.0.0.1:5001", s.Addr())
	assert.NotNil(t, s.Hub())
	assert.NotNil(t, s.Broker())
}

func TestHandleStatus(t *testing.T) {
	_, c := newTestServer(t, testConfig())

	resp, err := c.Status(t.Context())
	require.NoError(t, err)
	assert.True(t, resp.Available())
	assert.Len(t, resp.Features, 4)
}

func TestConversationFlow(t *testing.T) {
	cfg := testConfig()
	cfg.MaxExchanges = 2
	_, c := newTestServer(t, cfg)
	ctx := t.Context()

	created, err := c.CreateAgents(ctx, backend.CreateAgentsRequest{
		Specification: "Create 2 agents: Product Manager and Developer",
		Topic:         "Launch plan",
	})
	require.NoError(t, err)
	assert.Equal(t, backend.StatusStarted, created.Status)
	require.Len(t, created.Agents, 2)
	assert.Equal(t, "agent_0", created.Agents[0].ID)

	list, err := c.ListAgents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Count)

	for i := range 2 {
		ex, err := c.Exchange(ctx)
		require.NoError(t, err)
		assert.Equal(t, backend.StatusExchangeCompleted, ex.Status, "exchange %d", i+1)
		assert.Len(t, ex.AgentResponses, 2)
	}

	ex, err := c.Exchange(ctx)
	require.NoError(t, err)
	assert.Equal(t, backend.StatusConcluded, ex.Status)

	ack, err := c.ResetConversation(ctx)
	require.NoError(t, err)
	assert.Equal(t, backend.StatusReset, ack.Status)

	list, err = c.ListAgents(ctx)
	require.NoError(t, err)
	assert.Zero(t, list.Count)
	assert.NotNil(t, list.Agents)
}

func TestExchange_NoAgents(t *testing.T) {
	_, c := newTestServer(t, testConfig())

	ex, err := c.Exchange(t.Context())
	require.NoError(t, err)
	assert.Equal(t, backend.StatusError, ex.Status)
	assert.Contains(t, ex.Message, "No active agents")
}

func TestRunFull(t *testing.T) {
	_, c := newTestServer(t, testConfig())
	ctx := t.Context()

	_, err := c.CreateAgents(ctx, backend.CreateAgentsRequest{Specification: "3 agents: designer, developer, marketing"})
	require.NoError(t, err)

	full, err := c.RunFull(ctx, backend.FullRequest{Topic: "Rebrand", MaxExchanges: 3})
	require.NoError(t, err)
	assert.Equal(t, backend.StatusCompleted, full.Status)
	assert.Equal(t, 3, full.TotalExchanges)
	assert.Len(t, full.Agents, 3)
}

func TestBadRequests(t *testing.T) {
	_, c := newTestServer(t, testConfig())

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"empty message", backend.PathProcess, `{"message":""}`, http.StatusBadRequest},
		{"invalid json", backend.PathProcess, `{`, http.StatusBadRequest},
		{"missing spec", backend.PathCreateAgents, `{"specification":"  "}`, http.StatusBadRequest},
		{"missing topic", backend.PathFull, `{"topic":""}`, http.StatusBadRequest},
		{"suggestions without topic", backend.PathSuggestions, `{"context":"budget"}`, http.StatusBadRequest},
		{"body too large", backend.PathProcess, `{"message":"` + strings.Repeat("a", MaxRequestBodySize) + `"}`, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body, err := c.Raw(t.Context(), http.MethodPost, tt.path, []byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.status, status)

			var out map[string]string
			require.NoError(t, json.Unmarshal(body, &out))
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestProcess_Help(t *testing.T) {
	_, c := newTestServer(t, testConfig())

	resp, err := c.Process(t.Context(), backend.ProcessRequest{Message: "help me please"})
	require.NoError(t, err)
	assert.Equal(t, backend.StatusSuccess, resp.Status)
	assert.Equal(t, backend.TypeHelp, resp.Type)
}

func TestMethodNotAllowed(t *testing.T) {
	_, c := newTestServer(t, testConfig())

	status, _, err := c.Raw(t.Context(), http.MethodGet, backend.PathExchange, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestDemoScenario(t *testing.T) {
	s, c := newTestServer(t, testConfig())
	ctx := t.Context()

	demo, err := c.Demo(ctx, "project")
	require.NoError(t, err)
	assert.NotEmpty(t, demo.Topic)
	assert.NotEmpty(t, demo.Suggestion)

	_, err = c.Demo(ctx, "nonexistent")
	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	s.WithScenarios(scenario.Set{"custom": {Topic: "Custom topic", Context: "ctx"}})
	demo, err = c.Demo(ctx, "custom")
	require.NoError(t, err)
	assert.Equal(t, "Custom topic", demo.Topic)
}

func TestLearningStats(t *testing.T) {
	s, c := newTestServer(t, testConfig())
	ctx := t.Context()

	_, err := c.Process(ctx, backend.ProcessRequest{Message: "help"})
	require.NoError(t, err)

	stats, err := c.LearningStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalInteractions)

	s.WithLearning(false)
	_, err = c.LearningStats(ctx)
	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

func TestAgentSuggestions(t *testing.T) {
	_, c := newTestServer(t, testConfig())

	resp, err := c.SuggestAgents(t.Context(), backend.SuggestionsRequest{
		Topic:   "Q4 Marketing Campaign Strategy",
		Context: "$100K budget, data analyst support",
	})
	require.NoError(t, err)
	require.Len(t, resp.Suggestions, 2)
	assert.Equal(t, "Marketing Manager", resp.Suggestions[0].Role)
	assert.Equal(t, "Data Analyst", resp.Suggestions[1].Role)

	_, err = c.SuggestAgents(t.Context(), backend.SuggestionsRequest{})
	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Topic is required", apiErr.Message)
}

func TestConversationStatus(t *testing.T) {
	_, c := newTestServer(t, testConfig())
	ctx := t.Context()

	st, err := c.ConversationStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, backend.StatusNoConversation, st.Status)
	assert.Empty(t, st.ConversationID)

	_, err = c.CreateAgents(ctx, backend.CreateAgentsRequest{Specification: "developer and designer", Topic: "Launch"})
	require.NoError(t, err)
	_, err = c.Exchange(ctx)
	require.NoError(t, err)

	st, err = c.ConversationStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, backend.StatusActive, st.Status)
	assert.Equal(t, "Launch", st.Topic)
	assert.Equal(t, 2, st.AgentsCount)
	assert.Equal(t, 1, st.ExchangesCompleted)
}

func TestLearningPreferences(t *testing.T) {
	s, c := newTestServer(t, testConfig())
	ctx := t.Context()

	prefs, err := c.LearningPreferences(ctx)
	require.NoError(t, err)
	assert.Empty(t, prefs.PreferredAgents)
	assert.Nil(t, prefs.InteractionPatterns)

	_, err = c.Process(ctx, backend.ProcessRequest{Message: "create 2 agents: developer, designer"})
	require.NoError(t, err)
	prefs, err = c.LearningPreferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Developer": 1, "Designer": 1}, prefs.PreferredAgents)

	s.WithLearning(false)
	_, err = c.LearningPreferences(ctx)
	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

func TestHandleHealth(t *testing.T) {
	s := NewServer(testConfig())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var out HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "ok", out.Status)
	assert.Equal(t, Version, out.Version)
}

func TestClearThoughts(t *testing.T) {
	s, c := newTestServer(t, testConfig())
	s.Hub().Add("system", "hello", nil)

	ack, err := c.ClearThoughts(t.Context())
	require.NoError(t, err)
	assert.Equal(t, backend.StatusCleared, ack.Status)
	assert.Zero(t, s.Hub().Len())
}

// =============================================================================
// THOUGHT STREAM TESTS
// =============================================================================

func TestThoughtStream_DeliversEvents(t *testing.T) {
	s := NewServer(testConfig())
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	s.Hub().Add("system", "before connect", nil)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, ts.URL+backend.PathThoughtStream, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := backend.NewSSEReader(resp.Body)
	read := func() model.ThoughtEvent {
		_, data, err := r.ReadEvent()
		require.NoError(t, err)
		var ev model.ThoughtEvent
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	}

	assert.Equal(t, "before connect", read().Message)

	id := "agent_0"
	s.Hub().Add("agent_created", "after connect", &id)
	ev := read()
	assert.Equal(t, "after connect", ev.Message)
	require.True(t, ev.HasAgent())
	assert.Equal(t, "agent_0", *ev.AgentID)
}

func TestThoughtStream_ThroughClient(t *testing.T) {
	s := NewServer(testConfig())
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	opts := backend.DefaultStreamOptions()
	stream := backend.NewThoughtStream(backend.NewClient(ts.URL), opts)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go func() { _ = stream.Run(ctx) }()

	s.Hub().Add("system", "streamed", nil)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case u, ok := <-stream.Updates():
			require.True(t, ok, "updates closed early")
			if u.Thought != nil && u.Thought.Message == "streamed" {
				return
			}
		case <-deadline:
			t.Fatal("thought never arrived")
		}
	}
}

// =============================================================================
// HUB TESTS
// =============================================================================

func TestThoughtHub_Capacity(t *testing.T) {
	h := NewThoughtHub(3)
	for i := range 5 {
		h.Add("system", string(rune('a'+i)), nil)
	}

	events := h.Snapshot()
	require.Len(t, events, 3)
	assert.Equal(t, "c", events[0].Message)
	assert.Equal(t, uint64(2), h.Oldest())

	// A stale cursor starts at the oldest retained event.
	got, next, _ := h.Since(0)
	assert.Len(t, got, 3)
	assert.Equal(t, uint64(5), next)
}

func TestThoughtHub_SinceAndNotify(t *testing.T) {
	h := NewThoughtHub(10)
	got, cursor, wait := h.Since(h.Oldest())
	assert.Empty(t, got)

	h.Add("system", "one", nil)
	select {
	case <-wait:
	default:
		t.Fatal("Add did not notify waiters")
	}

	got, cursor, _ = h.Since(cursor)
	require.Len(t, got, 1)
	assert.Equal(t, "one", got[0].Message)

	got, _, _ = h.Since(cursor)
	assert.Empty(t, got)
}

func TestThoughtHub_ClearDoesNotReplay(t *testing.T) {
	h := NewThoughtHub(10)
	h.Add("system", "old", nil)
	_, cursor, _ := h.Since(0)

	h.Clear()
	assert.Zero(t, h.Len())

	h.Add("system", "new", nil)
	got, _, _ := h.Since(cursor)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Message)
}

// =============================================================================
// MIDDLEWARE TESTS
// =============================================================================

func TestCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	t.Run("wildcard", func(t *testing.T) {
		h := CORSMiddleware(DefaultCORSConfig())(ok)
		req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
		req.Header.Set("Origin", "http://example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("allow list", func(t *testing.T) {
		h := CORSMiddleware(NewCORSConfig([]string{"http://localhost:3000"}))(ok)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://evil.example")
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		h := CORSMiddleware(DefaultCORSConfig())(ok)
		req := httptest.NewRequest(http.MethodOptions, "/api/conversation/process", nil)
		req.Header.Set("Origin", "http://example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	h := RateLimitMiddleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 3)
	for i := range codes {
		req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
		req.RemoteAddr = "203.0.113.9:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes[i] = rec.Code
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 1, rl.Clients())
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal Server Error")
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	s := NewServer(testConfig())
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	const id = "5f0c6f1e-7f55-4c39-9b1a-2f1a8d2d9c11"
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("X-Request-Id", id)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get("X-Request-Id"))

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("X-Request-Id", "not\r\na-uuid")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "not\r\na-uuid", rec.Header().Get("X-Request-Id"))
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"direct", "203.0.113.5:1234", "", "203.0.113.5"},
		{"untrusted proxy ignored", "203.0.113.5:1234", "198.51.100.1", "203.0.113.5"},
		{"trusted proxy honored", "127.0.0.1:1234", "198.51.100.1", "198.51.100.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, GetClientIP(req))
		})
	}
}
