// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jeranaias/agentroom/internal/backend"
	"github.com/jeranaias/agentroom/internal/broker"
	"github.com/jeranaias/agentroom/internal/config"
	"github.com/jeranaias/agentroom/internal/model"
	"github.com/jeranaias/agentroom/internal/scenario"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// MaxRequestBodySize caps request bodies (64KB).
	MaxRequestBodySize = 64 * 1024

	// KeepaliveInterval spaces SSE comment lines on an idle stream.
	KeepaliveInterval = 15 * time.Second

	// Version is the demo backend version.
	Version = "0.3.0"
)

// ============================================================================
// SERVER
// ============================================================================

// Server is the demo backend.
type Server struct {
	cfg     config.ServerConfig
	router  *http.ServeMux
	server  *http.Server
	hub     *ThoughtHub
	broker  *broker.Broker
	limiter *RateLimiter
	started time.Time

	mu        sync.RWMutex
	scenarios scenario.Set
	learning  bool
	listener  net.Listener
}

// NewServer creates a server from cfg. Zero fields take the defaults of
// config.Default.
func NewServer(cfg config.ServerConfig) *Server {
	d := config.Default().Server
	if cfg.Host == "" {
		cfg.Host = d.Host
	}
	if cfg.Port == 0 {
		cfg.Port = d.Port
	}
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = d.RateLimitRPS
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = d.RateLimitBurst
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = d.CORSOrigins
	}

	hub := NewThoughtHub(cfg.ThoughtCapacity)
	s := &Server{
		cfg:       cfg,
		router:    http.NewServeMux(),
		hub:       hub,
		broker:    broker.New(hub, broker.Options{MaxExchanges: cfg.MaxExchanges, Latency: cfg.SimulateLatency}),
		limiter:   NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		started:   time.Now(),
		scenarios: scenario.Builtin(),
		learning:  true,
	}
	s.setupRoutes()
	return s
}

// WithScenarios replaces the demo presets.
func (s *Server) WithScenarios(set scenario.Set) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenarios = set
	return s
}

// WithLearning turns the learning statistics endpoint on or off.
func (s *Server) WithLearning(on bool) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.learning = on
	return s
}

// Hub returns the thought hub.
func (s *Server) Hub() *ThoughtHub { return s.hub }

// Broker returns the conversation broker.
func (s *Server) Broker() *broker.Broker { return s.broker }

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.cfg.ListenAddr() }

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /api/status", s.handleStatus)
	s.router.HandleFunc("POST /api/conversation/process", s.handleProcess)
	s.router.HandleFunc("POST /api/agents/create", s.handleCreateAgents)
	s.router.HandleFunc("GET /api/agents/list", s.handleListAgents)
	s.router.HandleFunc("POST /api/agents/suggestions", s.handleSuggestions)
	s.router.HandleFunc("GET /api/conversation/status", s.handleConversationStatus)
	s.router.HandleFunc("POST /api/conversation/exchange", s.handleExchange)
	s.router.HandleFunc("POST /api/conversation/full", s.handleFull)
	s.router.HandleFunc("POST /api/conversation/reset", s.handleReset)
	s.router.HandleFunc("POST /api/thoughts/clear", s.handleClearThoughts)
	s.router.HandleFunc("GET /api/thoughts/stream", s.handleThoughtStream)
	s.router.HandleFunc("GET /api/learning/stats", s.handleLearningStats)
	s.router.HandleFunc("GET /api/learning/preferences", s.handlePreferences)
	s.router.HandleFunc("GET /api/demo/{scenario}", s.handleDemo)
	s.router.HandleFunc("GET /health", s.handleHealth)
}

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(log.Default()),
		CORSMiddleware(NewCORSConfig(s.cfg.CORSOrigins)),
		RateLimitMiddleware(s.limiter),
	)(s.router)
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.broker.Status())
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req backend.ProcessRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}
	writeJSON(w, http.StatusOK, s.broker.Process(r.Context(), req.Message, req.Context))
}

func (s *Server) handleCreateAgents(w http.ResponseWriter, r *http.Request) {
	var req backend.CreateAgentsRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := s.broker.CreateFromSpecification(r.Context(), req.Specification, req.Topic, req.Context)
	switch {
	case errors.Is(err, broker.ErrSpecRequired):
		writeError(w, http.StatusBadRequest, "Agent specification is required")
	case err != nil:
		s.internalError(w, "create_agents", err)
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	agents := s.broker.Agents()
	if agents == nil {
		agents = []model.Agent{}
	}
	writeJSON(w, http.StatusOK, backend.AgentListResponse{Agents: agents, Count: len(agents)})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	var req backend.SuggestionsRequest
	if !decode(w, r, &req) {
		return
	}
	suggestions, err := s.broker.SuggestRoles(req.Topic, req.Context)
	switch {
	case errors.Is(err, broker.ErrTopicRequired):
		writeError(w, http.StatusBadRequest, "Topic is required")
	case err != nil:
		s.internalError(w, "suggestions", err)
	default:
		writeJSON(w, http.StatusOK, backend.SuggestionsResponse{Suggestions: suggestions})
	}
}

func (s *Server) handleConversationStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.broker.ConversationStatus())
}

func (s *Server) handleExchange(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.broker.Exchange(r.Context()))
}

func (s *Server) handleFull(w http.ResponseWriter, r *http.Request) {
	var req backend.FullRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := s.broker.RunFull(r.Context(), req.Topic, req.Context, req.MaxExchanges)
	switch {
	case errors.Is(err, broker.ErrTopicRequired):
		writeError(w, http.StatusBadRequest, "Topic is required")
	case err != nil:
		s.internalError(w, "run_full", err)
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.broker.Reset())
}

func (s *Server) handleClearThoughts(w http.ResponseWriter, r *http.Request) {
	s.hub.Clear()
	writeJSON(w, http.StatusOK, backend.AckResponse{Status: backend.StatusCleared})
}

func (s *Server) handleLearningStats(w http.ResponseWriter, r *http.Request) {
	if !s.learningOn() {
		writeError(w, http.StatusInternalServerError, "Neural learning system not available")
		return
	}
	writeJSON(w, http.StatusOK, s.broker.LearningStats())
}

func (s *Server) handlePreferences(w http.ResponseWriter, r *http.Request) {
	if !s.learningOn() {
		writeError(w, http.StatusInternalServerError, "Neural learning system not available")
		return
	}
	writeJSON(w, http.StatusOK, s.broker.Preferences())
}

func (s *Server) learningOn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.learning
}

func (s *Server) handleDemo(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	set := s.scenarios
	s.mu.RUnlock()

	sc, err := set.Get(r.PathValue("scenario"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Demo scenario not found")
		return
	}
	writeJSON(w, http.StatusOK, backend.DemoScenario{
		Topic:      sc.Topic,
		Context:    sc.Context,
		Suggestion: sc.Suggestion,
	})
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Thoughts      int    `json:"thoughts"`
	Agents        int    `json:"agents"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Version:       Version,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Thoughts:      s.hub.Len(),
		Agents:        len(s.broker.Agents()),
	})
}

// handleThoughtStream writes hub events as SSE until the client leaves.
func (s *Server) handleThoughtStream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	// RELIABILITY: the stream outlives the server's WriteTimeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		log.Printf("SSE_DEADLINE | err=%v", err)
	}
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		log.Printf("SSE_UNSUPPORTED | err=%v", err)
		return
	}

	keepalive := time.NewTicker(KeepaliveInterval)
	defer keepalive.Stop()

	cursor := s.hub.Oldest()
	for {
		events, next, wait := s.hub.Since(cursor)
		cursor = next
		for _, e := range events {
			data, err := json.Marshal(e)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
		}
		if len(events) > 0 {
			if err := rc.Flush(); err != nil {
				return
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-wait:
		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

// ============================================================================
// LIFECYCLE
// ============================================================================

// Start listens on the configured address and serves until Shutdown. It
// returns nil after a graceful shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.ListenAddr(), err)
	}
	return s.Serve(ln)
}

// Serve serves on ln. Tests pass a listener on port 0.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	log.Printf("SERVER_START | addr=%s version=%s latency=%t", ln.Addr(), Version, s.cfg.SimulateLatency)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAddr returns the bound address once serving, else the configured
// one.
func (s *Server) ListenAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.ListenAddr()
}

// Shutdown stops accepting requests and waits for in-flight ones. Open
// thought streams end when ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}

	log.Printf("SERVER_SHUTDOWN | starting graceful shutdown")
	return srv.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// decode reads a JSON body into v, answering 400 or 413 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds maximum size of %d bytes", MaxRequestBodySize))
			return false
		}
		log.Printf("INVALID_BODY | path=%s err=%v", r.URL.Path, err)
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return false
	}
	return true
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	log.Printf("HANDLER_FAILED | op=%s err=%v", op, err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("WRITE_FAILED | err=%v", err)
	}
}

// writeError writes {"error": message}.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
