// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package roster

import (
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/agentroom/internal/model"
	"github.com/jeranaias/agentroom/internal/ui/styles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIconFor(t *testing.T) {
	tests := []struct {
		role string
		want string
	}{
		{"Senior Developer", "💻"},
		{"Marketing Manager", "📢"},
		{"Unknown Role", DefaultIcon},
		{"", DefaultIcon},
		{"Workout Specialist", "💪"},
		{"Nutrition Specialist", "🥗"},
		{"Fitness Coordinator", "💪"},
		{"UX Designer", "🎨"},
		{"Product Manager", "📋"},
		{"Data Analyst", "📊"},
		{"HR Manager", "🎯"},
		{"Project Coordinator", "🎯"},
		{"TECHNICAL LEAD", "💻"},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			assert.Equal(t, tt.want, IconFor(tt.role))
		})
	}
}

func testAgents() []model.Agent {
	return []model.Agent{
		{ID: "agent_1", Role: "Project Manager", Expertise: "Planning", Personality: "Calm and organized."},
		{ID: "agent_2", Role: "Senior Developer", Expertise: "Architecture", Personality: strings.Repeat("x", 150)},
		{ID: "agent_3", Role: "Client Representative", Expertise: "Requirements"},
	}
}

func TestRenderEmptyShowsPlaceholder(t *testing.T) {
	theme := styles.NewTheme()
	for _, agents := range [][]model.Agent{nil, {}} {
		v := NewView(Options{})
		v.Render(agents)
		assert.True(t, v.Empty())
		assert.Empty(t, v.Cards())
		assert.Contains(t, v.String(theme, 80), Placeholder)
	}
}

func TestRenderOneCardPerAgentInOrder(t *testing.T) {
	v := NewView(Options{})
	agents := testAgents()
	v.Render(agents)

	cards := v.Cards()
	require.Len(t, cards, len(agents))
	for i, c := range cards {
		assert.Equal(t, agents[i], c.Agent)
		assert.Equal(t, IconFor(agents[i].Role), c.Icon)
	}

	out := v.String(styles.NewTheme(), 200)
	assert.NotContains(t, out, Placeholder)
	last := -1
	for _, a := range agents {
		idx := strings.Index(out, a.Role)
		require.GreaterOrEqual(t, idx, 0, a.Role)
		assert.Greater(t, idx, last, "cards must keep input order")
		last = idx
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	v := NewView(Options{})
	v.Render(testAgents())
	v.Tick()
	first := v.Cards()

	v.Render(testAgents())
	assert.Equal(t, first, v.Cards())

	v.Render(testAgents()[:1])
	assert.Len(t, v.Cards(), 1)

	v.Render(nil)
	assert.True(t, v.Empty())
}

func TestPersonalityPreviewIsTruncated(t *testing.T) {
	v := NewView(Options{PersonalityPreview: 100})
	v.Render(testAgents())
	cards := v.Cards()

	assert.Equal(t, "Calm and organized.", cards[0].Preview)
	assert.Equal(t, strings.Repeat("x", 100)+"...", cards[1].Preview)
	assert.Empty(t, cards[2].Preview)
}

func TestCosmeticThoughtsAdvanceOnTick(t *testing.T) {
	v := NewView(Options{})
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	v.now = func() time.Time { return fixed }
	v.Render(testAgents()[:1])

	texts := func() []string {
		var out []string
		for _, th := range v.Cards()[0].Thoughts {
			out = append(out, th.Text)
		}
		return out
	}

	assert.Equal(t, []string{"Initializing agent systems..."}, texts())
	assert.True(t, v.Tick())
	assert.True(t, v.Tick())
	assert.Equal(t, []string{
		"Initializing agent systems...",
		"Loading expertise: Planning",
		"Ready for conversation",
	}, texts())

	// guardian has one more line than a card
	assert.True(t, v.Tick())
	assert.False(t, v.Pending())
	assert.False(t, v.Tick())
	assert.Len(t, v.Guardian(), len(GuardianScript))
}

func TestThoughtLogIsBounded(t *testing.T) {
	v := NewView(Options{ThoughtCapacity: 2})
	v.Render(testAgents())

	for i := 0; i < 5; i++ {
		require.True(t, v.AddThought("agent_2", "thinking"))
	}
	assert.Len(t, v.Cards()[1].Thoughts, 2)
	assert.False(t, v.AddThought("agent_99", "lost"))
}

func TestRenderStripsEscapesFromAgentFields(t *testing.T) {
	v := NewView(Options{PersonalityPreview: 100})
	v.Render([]model.Agent{{
		ID:          "agent_1",
		Role:        "\x1b]0;pwned\x07\x1b[2JDeveloper",
		Expertise:   "Go\x1b[31m",
		Personality: "Calm\x1b[?25l and \x07steady",
	}})
	require.Len(t, v.Cards(), 1)
	require.True(t, v.AddThought("agent_1", "\x1b[Hmoved"))

	c := v.Cards()[0]
	assert.Equal(t, "Developer", c.Agent.Role)
	assert.Equal(t, "Go", c.Agent.Expertise)
	assert.Equal(t, "Calm and steady", c.Preview)
	for _, th := range c.Thoughts {
		assert.NotContains(t, th.Text, "\x1b")
	}
	assert.Equal(t, IconFor("Developer"), c.Icon)
}
