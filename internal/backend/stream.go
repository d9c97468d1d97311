// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/jeranaias/agentroom/internal/model"
)

// ErrStreamOffline is reported once reconnect attempts are exhausted.
var ErrStreamOffline = errors.New("thought stream offline")

// =============================================================================
// STATE MACHINE
// =============================================================================

// StreamState is the thought stream connection state.
type StreamState int

const (
	StateDisconnected StreamState = iota
	StateConnecting
	StateStreaming
	StateReconnecting
	StateOffline
)

func (s StreamState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateReconnecting:
		return "reconnecting"
	case StateOffline:
		return "offline"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// StreamOptions configures reconnect behavior.
type StreamOptions struct {
	Path           string
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64

	// MaxRetries is how many reconnects are attempted after consecutive
	// failures before the stream goes offline.
	MaxRetries int

	// Capacity bounds the local thought log.
	Capacity int
}

// DefaultStreamOptions returns the standard reconnect policy.
func DefaultStreamOptions() StreamOptions {
	return StreamOptions{
		Path:           PathThoughtStream,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2,
		MaxRetries:     6,
		Capacity:       200,
	}
}

// Backoff returns the delay before reconnect attempt n (1-based):
// min(InitialBackoff * Multiplier^(n-1), MaxBackoff).
func (o StreamOptions) Backoff(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	d := float64(o.InitialBackoff) * math.Pow(o.Multiplier, float64(n-1))
	if d > float64(o.MaxBackoff) || math.IsInf(d, 0) {
		return o.MaxBackoff
	}
	return time.Duration(d)
}

// StreamUpdate is published for every state change and every accepted
// thought. Exactly one of Thought or a state transition is meaningful per
// update; State always carries the current state.
type StreamUpdate struct {
	State   StreamState
	Thought *model.ThoughtEvent

	// Attempt and Delay describe a scheduled reconnect.
	Attempt int
	Delay   time.Duration

	// Err is the failure that caused a reconnect or the offline state.
	Err error

	// Cleared is set after the local log was cleared.
	Cleared bool
}

// =============================================================================
// THOUGHT STREAM
// =============================================================================

// ThoughtStream consumes the server-pushed thought stream. One instance
// owns one connection.
type ThoughtStream struct {
	client  *Client
	opts    StreamOptions
	updates chan StreamUpdate
	retry   chan struct{}

	// sleep waits for d or until ctx is done. Replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error

	// pubMu serializes sends with the final close of updates.
	pubMu  sync.Mutex
	closed bool

	mu       sync.Mutex
	state    StreamState
	thoughts *model.Ring[model.ThoughtEvent]
	failures int
	dropped  int
}

// NewThoughtStream creates a consumer. Zero option fields take defaults.
func NewThoughtStream(client *Client, opts StreamOptions) *ThoughtStream {
	d := DefaultStreamOptions()
	if opts.Path == "" {
		opts.Path = d.Path
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = d.InitialBackoff
	}
	if opts.MaxBackoff < opts.InitialBackoff {
		opts.MaxBackoff = opts.InitialBackoff
	}
	if opts.Multiplier < 1 {
		opts.Multiplier = d.Multiplier
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = d.MaxRetries
	}
	if opts.Capacity <= 0 {
		opts.Capacity = d.Capacity
	}
	return &ThoughtStream{
		client:   client,
		opts:     opts,
		updates:  make(chan StreamUpdate, 256),
		retry:    make(chan struct{}, 1),
		sleep:    sleepContext,
		thoughts: model.NewRing[model.ThoughtEvent](opts.Capacity),
	}
}

// Updates delivers state changes and thoughts in order. The channel is
// closed when Run returns.
func (s *ThoughtStream) Updates() <-chan StreamUpdate {
	return s.updates
}

// State returns the current connection state.
func (s *ThoughtStream) State() StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Thoughts returns the bounded thought log, oldest first.
func (s *ThoughtStream) Thoughts() []model.ThoughtEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.thoughts.Items()
}

// Dropped returns how many malformed events were discarded.
func (s *ThoughtStream) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Options returns the effective options.
func (s *ThoughtStream) Options() StreamOptions {
	return s.opts
}

// Retry leaves the offline state and starts a fresh round of attempts.
// It has no effect in any other state.
func (s *ThoughtStream) Retry() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateOffline {
		return
	}
	select {
	case s.retry <- struct{}{}:
	default:
	}
}

// Clear asks the backend to drop its thought history, then clears the
// local log. The connection is left open.
func (s *ThoughtStream) Clear(ctx context.Context) error {
	if _, err := s.client.ClearThoughts(ctx); err != nil {
		return fmt.Errorf("clear thoughts: %w", err)
	}
	s.mu.Lock()
	s.thoughts.Clear()
	state := s.state
	s.mu.Unlock()

	s.publish(ctx, StreamUpdate{State: state, Cleared: true})
	return nil
}

// Run connects and keeps the stream alive until ctx is done. In the
// offline state it parks until Retry is called.
func (s *ThoughtStream) Run(ctx context.Context) error {
	defer s.closeUpdates()
	defer s.setState(ctx, StateDisconnected, nil)

	for {
		s.setState(ctx, StateConnecting, nil)
		err := s.consume(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			err = io.ErrUnexpectedEOF
		}

		s.mu.Lock()
		s.failures++
		attempt := s.failures
		s.mu.Unlock()

		if attempt > s.opts.MaxRetries {
			log.Printf("STREAM_OFFLINE | attempts=%d err=%v", attempt-1, err)
			// A token left from the previous offline period must not skip this one.
			select {
			case <-s.retry:
			default:
			}
			s.transition(ctx, StreamUpdate{State: StateOffline, Err: fmt.Errorf("%w: %v", ErrStreamOffline, err)})
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.retry:
				s.mu.Lock()
				s.failures = 0
				s.mu.Unlock()
				log.Printf("STREAM_RETRY | manual")
				continue
			}
		}

		delay := s.opts.Backoff(attempt)
		log.Printf("STREAM_RECONNECT | attempt=%d delay=%v err=%v", attempt, delay, err)
		s.transition(ctx, StreamUpdate{State: StateReconnecting, Attempt: attempt, Delay: delay, Err: err})
		if err := s.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// consume runs one connection until it fails or ends.
func (s *ThoughtStream) consume(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.client.URL(s.opts.Path), nil)
	if err != nil {
		return fmt.Errorf("failed to create stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	logRequest(req)
	resp, err := s.client.streamClient.Do(req)
	if err != nil {
		return fmt.Errorf("stream connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return newAPIError(req.Method, s.opts.Path, resp.StatusCode, body)
	}

	reader := NewSSEReader(resp.Body)
	for {
		_, data, err := reader.ReadEvent()
		if errors.Is(err, ErrEventTooLarge) {
			s.drop(err)
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			return fmt.Errorf("stream read: %w", err)
		}

		var ev model.ThoughtEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			s.drop(err)
			continue
		}
		s.accept(ctx, ev)
	}
}

func (s *ThoughtStream) accept(ctx context.Context, ev model.ThoughtEvent) {
	s.mu.Lock()
	s.thoughts.Push(ev)
	s.failures = 0
	promote := s.state != StateStreaming
	if promote {
		s.state = StateStreaming
	}
	s.mu.Unlock()

	if promote {
		log.Printf("STREAM_STATE | to=%s", StateStreaming)
		s.publish(ctx, StreamUpdate{State: StateStreaming})
	}
	s.publish(ctx, StreamUpdate{State: StateStreaming, Thought: &ev})
}

func (s *ThoughtStream) drop(err error) {
	s.mu.Lock()
	s.dropped++
	s.mu.Unlock()
	log.Printf("THOUGHT_DROPPED | err=%v", err)
}

func (s *ThoughtStream) setState(ctx context.Context, state StreamState, err error) {
	s.transition(ctx, StreamUpdate{State: state, Err: err})
}

// transition records and publishes a state change. Repeated states are
// not republished.
func (s *ThoughtStream) transition(ctx context.Context, u StreamUpdate) {
	s.mu.Lock()
	changed := s.state != u.State
	s.state = u.State
	s.mu.Unlock()

	if !changed && u.Attempt == 0 {
		return
	}
	s.publish(ctx, u)
}

// publish delivers u unless ctx ends first. Terminal updates after
// cancellation are dropped.
func (s *ThoughtStream) publish(ctx context.Context, u StreamUpdate) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.updates <- u:
	case <-ctx.Done():
		select {
		case s.updates <- u:
		default:
		}
	}
}

func (s *ThoughtStream) closeUpdates() {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.closed = true
	close(s.updates)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
