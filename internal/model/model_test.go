// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// RING TESTS
// =============================================================================

func TestRing_EvictsOldest(t *testing.T) {
	r := NewRing[int](3)
	for i := 1; i <= 3; i++ {
		assert.False(t, r.Push(i))
	}
	assert.True(t, r.Push(4))
	assert.True(t, r.Push(5))

	assert.Equal(t, []int{3, 4, 5}, r.Items())
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 3, r.Cap())

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, 5, last)
}

func TestRing_ClearAndZeroCapacity(t *testing.T) {
	r := NewRing[string](0)
	assert.Equal(t, 1, r.Cap())
	r.Push("a")
	r.Push("b")
	assert.Equal(t, []string{"b"}, r.Items())

	r.Clear()
	assert.Equal(t, 0, r.Len())
	_, ok := r.Last()
	assert.False(t, ok)
	assert.Empty(t, r.Items())
}

// =============================================================================
// CONVERSATION LOG TESTS
// =============================================================================

func TestConversationLog_AppendOrderAndBound(t *testing.T) {
	log := NewConversationLog(3)
	for _, text := range []string{"one", "two", "three", "four"} {
		log.Append(NewMessage(SenderUser, text))
	}

	msgs := log.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "two", msgs[0].Text)
	assert.Equal(t, "four", msgs[2].Text)
}

func TestConversationLog_VersionAndClear(t *testing.T) {
	log := NewConversationLog(10)
	v0 := log.Version()
	log.Append(NewMessage(SenderAssistant, "hi"))
	log.AppendAll([]Message{NewMessage(SenderBroker, "a"), NewMessage(SenderBroker, "b")})
	assert.Greater(t, log.Version(), v0)
	assert.Equal(t, 3, log.Len())

	last, ok := log.LastFrom(SenderAssistant)
	require.True(t, ok)
	assert.Equal(t, "hi", last.Text)

	v1 := log.Version()
	log.Clear()
	assert.Equal(t, 0, log.Len())
	assert.Greater(t, log.Version(), v1)
}

func TestConversationLog_ConcurrentAppend(t *testing.T) {
	log := NewConversationLog(1000)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				log.Append(NewMessage(SenderSystem, "x"))
				_ = log.Messages()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 200, log.Len())
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewMessage(t *testing.T) {
	m := NewTitledMessage(SenderAssistant, "Senior Developer", "Let's ship it")
	assert.NotEmpty(t, m.ID)
	assert.False(t, m.Timestamp.IsZero())
	assert.Equal(t, "Senior Developer", m.Label())

	plain := NewMessage(SenderBroker, "summary")
	assert.Equal(t, "Broker", plain.Label())
	assert.NotEqual(t, m.ID, plain.ID)
}

func TestSender_IsValid(t *testing.T) {
	assert.True(t, SenderUser.IsValid())
	assert.True(t, SenderBroker.IsValid())
	assert.False(t, Sender("robot").IsValid())
}

// =============================================================================
// THOUGHT EVENT TESTS
// =============================================================================

func TestThoughtEvent_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantAgent bool
		wantErr   bool
	}{
		{"naive isoformat", `{"timestamp":"2025-03-01T10:20:30.123456","type":"system","message":"ready"}`, false, false},
		{"rfc3339", `{"timestamp":"2025-03-01T10:20:30Z","type":"agent_created","message":"hi","agent_id":"agent_1"}`, true, false},
		{"null agent", `{"timestamp":"2025-03-01T10:20:30","type":"system","message":"x","agent_id":null}`, false, false},
		{"missing timestamp", `{"type":"system","message":"x"}`, false, false},
		{"bad timestamp", `{"timestamp":"yesterday","type":"system","message":"x"}`, false, true},
		{"not json", `{"timestamp":`, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ev ThoughtEvent
			err := json.Unmarshal([]byte(tt.input), &ev)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.False(t, ev.Timestamp.IsZero())
			assert.Equal(t, tt.wantAgent, ev.HasAgent())
		})
	}
}

func TestParseTimestamp_NaiveIsLocal(t *testing.T) {
	ts, err := ParseTimestamp("2025-03-01T10:20:30")
	require.NoError(t, err)
	assert.Equal(t, time.Local, ts.Location())
	assert.Equal(t, 10, ts.Hour())
}

// =============================================================================
// SESSION TESTS
// =============================================================================

func TestSession_ExchangeCountNeverExceedsMax(t *testing.T) {
	s := NewSession(4)
	assert.True(t, s.CanExchange())
	assert.True(t, s.CanRunFull())

	assert.False(t, s.RecordExchanges(3))
	assert.Equal(t, 1, s.Remaining())

	assert.True(t, s.RecordExchanges(5))
	assert.Equal(t, 4, s.ExchangeCount)
	assert.True(t, s.Concluded)
	assert.False(t, s.CanExchange())
	assert.False(t, s.CanRunFull())
	assert.Equal(t, "Exchange 4 of 4", s.ProgressLabel())
	assert.Equal(t, 1.0, s.Progress())

	assert.False(t, s.RecordExchanges(1))
	assert.Equal(t, 4, s.ExchangeCount)
}

func TestSession_SetMaxExchangesNeverBelowCount(t *testing.T) {
	s := NewSession(6)
	s.RecordExchanges(3)
	s.SetMaxExchanges(2)
	assert.Equal(t, 3, s.MaxExchanges)
	assert.True(t, s.Concluded)
}

func TestSession_Reset(t *testing.T) {
	s := NewSession(4)
	s.Topic = "Launch"
	s.BackendAvailable = true
	s.WaitingForAgentSpec = true
	s.RecordExchanges(4)

	s.Reset(5)
	assert.Equal(t, "", s.Topic)
	assert.Equal(t, 0, s.ExchangeCount)
	assert.Equal(t, 5, s.MaxExchanges)
	assert.False(t, s.Concluded)
	assert.False(t, s.WaitingForAgentSpec)
	assert.True(t, s.BackendAvailable)
	assert.Equal(t, "Idle", s.Status())
}

// =============================================================================
// CAPABILITY TESTS
// =============================================================================

func TestParseCapabilities(t *testing.T) {
	caps, err := ParseCapabilities("agents, Thought-Stream,video")
	require.NoError(t, err)
	assert.True(t, caps.Has(CapAgents|CapThoughtStream|CapVideo))
	assert.False(t, caps.Has(CapHealth))
	assert.Equal(t, "agents,video,thought_stream", caps.String())

	all, err := ParseCapabilities("all")
	require.NoError(t, err)
	assert.Equal(t, AllCapabilities, all)

	_, err = ParseCapabilities("agents,teleport")
	assert.ErrorIs(t, err, ErrUnknownCapability)
}

func TestCapabilities_WithWithout(t *testing.T) {
	c := AllCapabilities.Without(CapNeural)
	assert.False(t, c.Has(CapNeural))
	assert.True(t, c.With(CapNeural).Has(AllCapabilities))
	assert.Equal(t, "none", Capabilities(0).String())
}
