// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server is the demo backend behind `agentroom serve`.
//
// It answers every endpoint the front end calls, backed by the keyword
// broker, and publishes the broker's narration as a server-sent event
// stream.
//
// # Endpoints
//
//   - GET  /api/status                - availability and feature list
//   - POST /api/conversation/process  - free-form prompt
//   - POST /api/agents/create         - build a team from a specification
//   - GET  /api/agents/list           - the active team
//   - POST /api/agents/suggestions    - roles suited to a topic
//   - GET  /api/conversation/status   - progress of the current conversation
//   - POST /api/conversation/exchange - one round of agent turns
//   - POST /api/conversation/full     - every remaining round at once
//   - POST /api/conversation/reset    - dismiss the team
//   - POST /api/thoughts/clear        - empty the thought hub
//   - GET  /api/thoughts/stream       - thought events as SSE
//   - GET  /api/learning/stats        - interaction statistics
//   - GET  /api/learning/preferences  - roles, topics and styles the user favors
//   - GET  /api/demo/{scenario}       - a preset topic and suggestion
//   - GET  /health                    - liveness
//
// # Middleware
//
// Requests pass Recovery, SecurityHeaders, Logging, CORS and RateLimit in
// that order. The rate limiter is a token bucket per client IP.
//
// # Usage
//
//	srv := server.NewServer(cfg.Server).WithScenarios(set)
//	go srv.Start()
//	defer srv.Shutdown(ctx)
package server
