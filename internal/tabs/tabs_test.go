// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tabs

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/agentroom/internal/model"
	"github.com/jeranaias/agentroom/internal/roster"
	"github.com/jeranaias/agentroom/internal/ui/styles"
)

type stubPanel struct {
	id      string
	updates int
}

func (s *stubPanel) ID() string                    { return s.id }
func (s *stubPanel) Title() string                 { return strings.ToUpper(s.id) }
func (s *stubPanel) Icon() string                  { return "*" }
func (s *stubPanel) Init() tea.Cmd                 { return nil }
func (s *stubPanel) View(width, height int) string { return "body of " + s.id }

func (s *stubPanel) Update(tea.Msg) tea.Cmd {
	s.updates++
	return nil
}

func newStubManager() *Manager {
	return NewManager(&stubPanel{id: "a"}, &stubPanel{id: "b"}, &stubPanel{id: "c"})
}

func seeded() *rand.Rand { return rand.New(rand.NewSource(7)) }

// =============================================================================
// MANAGER
// =============================================================================

func TestManager_FirstPanelVisible(t *testing.T) {
	m := newStubManager()
	assert.Equal(t, []string{"a"}, m.Visible())
	assert.Equal(t, "a", m.ActiveID())
}

func TestManager_SwitchShowsOnlyTarget(t *testing.T) {
	m := newStubManager()
	require.True(t, m.SwitchTo("b"))
	assert.Equal(t, []string{"b"}, m.Visible())
	assert.False(t, m.IsVisible("a"))

	require.True(t, m.SwitchTo("c"))
	assert.Equal(t, []string{"c"}, m.Visible())
}

func TestManager_UnknownIDIsNoOp(t *testing.T) {
	m := newStubManager()
	m.SwitchTo("b")
	assert.False(t, m.SwitchTo("nope"))
	assert.Equal(t, []string{"b"}, m.Visible())
	assert.Equal(t, "b", m.ActiveID())
}

func TestManager_SwitchToCurrent(t *testing.T) {
	m := newStubManager()
	m.SwitchTo("b")
	assert.True(t, m.SwitchTo("b"))
	assert.Equal(t, []string{"b"}, m.Visible())
}

func TestManager_NextPrevWrap(t *testing.T) {
	m := newStubManager()
	m.Prev()
	assert.Equal(t, "c", m.ActiveID())
	m.Next()
	assert.Equal(t, "a", m.ActiveID())
	m.Next()
	assert.Equal(t, []string{"b"}, m.Visible())
}

func TestManager_DuplicateIDsIgnored(t *testing.T) {
	m := NewManager(&stubPanel{id: "a"}, &stubPanel{id: "a"}, nil, &stubPanel{id: "b"})
	assert.Equal(t, []string{"a", "b"}, m.IDs())
}

func TestManager_Empty(t *testing.T) {
	m := NewManager()
	assert.Nil(t, m.Active())
	assert.Empty(t, m.Visible())
	assert.False(t, m.SwitchTo("a"))
	assert.Empty(t, m.View(styles.NewTheme(), 80, 20))
}

func TestManager_UpdateReachesHiddenPanels(t *testing.T) {
	a, b := &stubPanel{id: "a"}, &stubPanel{id: "b"}
	m := NewManager(a, b)
	m.Update(struct{}{})
	assert.Equal(t, 1, a.updates)
	assert.Equal(t, 1, b.updates)
}

func TestManager_ViewRendersActive(t *testing.T) {
	m := newStubManager()
	m.SwitchTo("c")
	out := m.View(styles.NewTheme(), 80, 10)
	assert.Contains(t, out, "body of c")
	assert.NotContains(t, out, "body of a")
}

func TestBuild_FollowsCapabilities(t *testing.T) {
	m := Build(model.CapAgents.With(model.CapVideo), BuildOptions{Rand: seeded()})
	assert.Equal(t, []string{IDAgents, IDVideo}, m.IDs())
	_, ok := m.Health()
	assert.False(t, ok)
	_, ok = m.Video()
	assert.True(t, ok)
}

func TestBuild_DefaultTab(t *testing.T) {
	m := Build(model.AllCapabilities, BuildOptions{Rand: seeded(), Default: IDNeural})
	assert.Equal(t, IDNeural, m.ActiveID())

	m = Build(model.AllCapabilities, BuildOptions{Rand: seeded(), Default: "bogus"})
	assert.Equal(t, IDAgents, m.ActiveID())
}

// =============================================================================
// PANELS
// =============================================================================

func TestRandomVitals_Ranges(t *testing.T) {
	rng := seeded()
	for range 500 {
		v := RandomVitals(rng)
		assert.GreaterOrEqual(t, v.HeartRate, 60)
		assert.LessOrEqual(t, v.HeartRate, 100)
		assert.GreaterOrEqual(t, v.Respiratory, 12)
		assert.LessOrEqual(t, v.Respiratory, 18)
		assert.GreaterOrEqual(t, v.SpO2, 95)
		assert.LessOrEqual(t, v.SpO2, 100)
		assert.GreaterOrEqual(t, v.Temperature, 97.5)
		assert.LessOrEqual(t, v.Temperature, 99.5)
		for _, r := range []float64{v.Move, v.Exercise, v.Stand} {
			assert.GreaterOrEqual(t, r, 0.0)
			assert.Less(t, r, 1.0)
		}
	}
}

func TestVitals_HeartRateClass(t *testing.T) {
	tests := []struct {
		hr   int
		want string
	}{
		{60, "low"}, {69, "low"}, {70, "normal"}, {80, "normal"}, {81, "high"}, {100, "high"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Vitals{HeartRate: tt.hr}.HeartRateClass(), "hr=%d", tt.hr)
	}
}

func TestHealthPanel_TickRandomizes(t *testing.T) {
	p := NewHealthPanel(styles.NewTheme(), seeded())
	assert.Nil(t, p.Update(trainingTickMsg{}))
	cmd := p.Update(healthTickMsg{})
	assert.NotNil(t, cmd)

	assert.False(t, p.Connected())
	assert.Equal(t, "Not connected to Apple Watch", p.ConnectionLabel())
	assert.True(t, p.ToggleConnection())
	assert.Equal(t, "Connected to Apple Watch", p.ConnectionLabel())
	assert.Contains(t, p.View(100, 40), "7h 23m")
}

func TestNeuralPanel_TrainingReachesHundred(t *testing.T) {
	p := NewNeuralPanel(styles.NewTheme(), seeded())
	assert.Nil(t, p.Update(trainingTickMsg{}), "idle panel ignores ticks")

	require.NotNil(t, p.StartTraining())
	assert.Nil(t, p.StartTraining(), "second start is a no-op")

	last := 0.0
	for i := 0; p.Training(); i++ {
		require.Less(t, i, 10000)
		p.Update(trainingTickMsg{})
		assert.GreaterOrEqual(t, p.Progress(), last)
		last = p.Progress()
	}
	assert.Equal(t, 100.0, p.Progress())
	assert.Equal(t, "Training Complete", p.StatusLabel())
}

func TestVideoPanel_Lifecycle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "squat.mp4")
	require.NoError(t, os.WriteFile(path, make([]byte, 2048), 0o600))

	p := NewVideoPanel(styles.NewTheme(), seeded())
	assert.Contains(t, p.View(100, 20), "No files uploaded yet")

	f, cmd, err := p.AddFile(path)
	require.NoError(t, err)
	require.NotNil(t, cmd)
	assert.Equal(t, FileUploaded, f.Status)
	assert.Equal(t, "🎥", FileIcon(f.MIME))
	assert.Equal(t, int64(2048), f.Size)

	p.Update(analysisDoneMsg{id: f.ID})
	require.Len(t, p.Results(), 1)
	assert.Contains(t, Analyses, p.Results()[0].Text)
	assert.Equal(t, FileAnalyzed, p.Files()[0].Status)

	cmd, err = p.Analyze(f.ID)
	require.NoError(t, err)
	assert.NotNil(t, cmd)
	assert.Equal(t, FileAnalyzing, p.Files()[0].Status)

	require.NoError(t, p.Delete(f.ID))
	assert.Nil(t, p.Update(analysisDoneMsg{id: f.ID}))
	assert.Len(t, p.Results(), 1, "analysis of a deleted file is dropped")
	assert.ErrorIs(t, p.Delete(f.ID), ErrNoFile)
}

func TestVideoPanel_AddFileErrors(t *testing.T) {
	p := NewVideoPanel(styles.NewTheme(), seeded())
	_, _, err := p.AddFile("")
	assert.Error(t, err)
	_, _, err = p.AddFile(t.TempDir())
	assert.Error(t, err)
	_, _, err = p.AddFile(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
	_, err = p.Analyze(42)
	assert.ErrorIs(t, err, ErrNoFile)
}

func TestFileIcon(t *testing.T) {
	assert.Equal(t, "🎥", FileIcon("video/mp4"))
	assert.Equal(t, "📸", FileIcon("image/png"))
	assert.Equal(t, "📄", FileIcon("application/pdf"))
}

func TestAgentsPanel_RendersRoster(t *testing.T) {
	p := NewAgentsPanel(styles.NewTheme(), roster.NewView(roster.Options{}))
	assert.Contains(t, p.View(100, 30), roster.Placeholder)

	p.RenderAgents([]model.Agent{{ID: "a1", Role: "Developer", Expertise: "Go"}})
	p.SetStreamState("open")
	p.SetThoughts([]model.ThoughtEvent{{Type: "thinking", Message: "weighing options"}})
	out := p.View(120, 60)
	assert.Contains(t, out, "Developer")
	assert.Contains(t, out, "Thought Stream (open)")
	assert.Contains(t, out, "weighing options")
}

func TestAgentsPanel_StripsEscapesFromThoughtMetadata(t *testing.T) {
	p := NewAgentsPanel(styles.NewTheme(), roster.NewView(roster.Options{}))
	agent := "\x1b]0;pwned\x07agent_1"
	p.SetThoughts([]model.ThoughtEvent{{
		Type:    "\x1b[2Jthinking",
		Message: "weighing options",
		AgentID: &agent,
	}})

	line := p.thoughtLine(p.thoughts[0], 120)
	assert.NotContains(t, line, "\x1b]")
	assert.NotContains(t, line, "\x1b[2J")
	assert.NotContains(t, line, "\x07")
	assert.Contains(t, line, "thinking")
	assert.Contains(t, line, "agent_1")
}
