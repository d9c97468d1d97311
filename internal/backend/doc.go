// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend is the HTTP client for the multi-agent conversation
// backend.
//
// It provides one method per backend endpoint, typed response envelopes
// with their status and type discriminators, an SSE reader, and the thought
// stream consumer with bounded exponential backoff.
//
// # Key Types
//
//   - Client: Endpoint methods (Status, Process, CreateAgents, Exchange, ...)
//   - APIError: Non-2xx response with the backend's error message
//   - SSEReader: Server-Sent Events parser
//   - ThoughtStream: Reconnecting consumer of /api/thoughts/stream
//   - StreamState: disconnected, connecting, streaming, reconnecting, offline
//
// # Thought Stream States
//
//	disconnected -> connecting -> streaming
//	                    ^             |
//	                    |          (error)
//	                    |             v
//	                    +------- reconnecting --(retries exhausted)--> offline
//
// Each transport error schedules exactly one reconnect, after
// min(initial * multiplier^(n-1), max). A valid event resets the counter.
// Malformed events are dropped without closing the connection.
//
// # Usage
//
//	client := backend.NewClient("http://127.0.0.1:5001").WithTimeout(30 * time.Second)
//	status, err := client.Status(ctx)
//
//	stream := backend.NewThoughtStream(client, backend.DefaultStreamOptions())
//	go stream.Run(ctx)
//	for update := range stream.Updates() {
//	    ...
//	}
package backend
