// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable() Table {
	return NewTable("echo",
		Rule{Intent: "create", AnyOf: []string{"create", "hire"}},
		Rule{Intent: "full", AnyOf: []string{"full conversation"}},
		Rule{Intent: "exchange", AnyOf: []string{"exchange", "next"}},
		Rule{Intent: "pm", AllOf: []string{"product", "manager"}},
	)
}

func TestClassify_FirstMatchWins(t *testing.T) {
	table := testTable()

	tests := []struct {
		name     string
		query    string
		expected Intent
	}{
		{"single keyword", "Please create a team", "create"},
		{"overlap resolves by order", "create the next exchange", "create"},
		{"full before exchange", "run the full conversation exchange", "full"},
		{"exchange", "next please", "exchange"},
		{"all-of rule", "we need a product manager", "pm"},
		{"all-of rule partial", "product owner", "echo"},
		{"no match", "hello there", "echo"},
		{"empty", "   ", "echo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, table.Classify(tt.query))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "create agents", Normalize("  CREATE\t\nAgents "))
	// Full-width latin folds to ASCII under NFKC.
	assert.Equal(t, "exchange", Normalize("ＥＸＣＨＡＮＧＥ"))
	// German sharp s case-folds to "ss".
	assert.Equal(t, "strasse", Normalize("STRAßE"))
}

func TestClassify_NormalizesInput(t *testing.T) {
	assert.Equal(t, Intent("exchange"), testTable().Classify("ＮＥＸＴ round"))
}

func TestWithPrecedence(t *testing.T) {
	table, err := testTable().WithPrecedence([]Intent{"exchange", "full"})
	require.NoError(t, err)

	assert.Equal(t, []Intent{"exchange", "full", "create", "pm"}, table.Order())
	assert.Equal(t, Intent("exchange"), table.Classify("run the full conversation exchange"))
	assert.Equal(t, Intent("echo"), table.Fallback())

	// original table untouched
	assert.Equal(t, []Intent{"create", "full", "exchange", "pm"}, testTable().Order())
}

func TestWithPrecedence_UnknownIntent(t *testing.T) {
	_, err := testTable().WithPrecedence([]Intent{"teleport"})
	assert.ErrorIs(t, err, ErrUnknownIntent)
}

func TestWithPrecedence_GroupsMultipleRules(t *testing.T) {
	table := NewTable("none",
		Rule{Intent: "a", AnyOf: []string{"alpha"}},
		Rule{Intent: "b", AnyOf: []string{"beta"}},
		Rule{Intent: "a", AnyOf: []string{"aleph"}},
	)
	reordered, err := table.WithPrecedence([]Intent{"b", "b"})
	require.NoError(t, err)
	assert.Equal(t, []Intent{"b", "a", "a"}, reordered.Order())
}

func TestRule_EmptyNeverMatches(t *testing.T) {
	assert.False(t, Rule{Intent: "x"}.Matches("anything"))
}

func TestParseIntents(t *testing.T) {
	assert.Equal(t, []Intent{"a", "b"}, ParseIntents([]string{" a ", "", "b"}))
}
