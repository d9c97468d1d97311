// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tabs

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jeranaias/agentroom/internal/model"
	"github.com/jeranaias/agentroom/internal/roster"
	"github.com/jeranaias/agentroom/internal/ui/styles"
	"github.com/jeranaias/agentroom/internal/util"
)

// RosterTickInterval paces the cosmetic thought lines on roster cards.
const RosterTickInterval = 2 * time.Second

type rosterTickMsg struct{}

// AgentsPanel shows the roster, the guardian lines and the thought log.
type AgentsPanel struct {
	theme  *styles.Theme
	roster *roster.View

	thoughts    []model.ThoughtEvent
	streamState string
	ticking     bool
}

// NewAgentsPanel wraps v. A nil view gets a default one.
func NewAgentsPanel(theme *styles.Theme, v *roster.View) *AgentsPanel {
	if v == nil {
		v = roster.NewView(roster.Options{})
	}
	return &AgentsPanel{theme: theme, roster: v, streamState: "connecting"}
}

func (p *AgentsPanel) ID() string    { return IDAgents }
func (p *AgentsPanel) Title() string { return "Agents & Guardian" }
func (p *AgentsPanel) Icon() string  { return "🤖" }

// Roster returns the wrapped roster view.
func (p *AgentsPanel) Roster() *roster.View { return p.roster }

func (p *AgentsPanel) Init() tea.Cmd {
	return p.startTicking()
}

// RenderAgents replaces the roster and restarts the cosmetic ticker if it
// had stopped.
func (p *AgentsPanel) RenderAgents(agents []model.Agent) tea.Cmd {
	p.roster.Render(agents)
	return p.startTicking()
}

// SetThoughts replaces the thought log shown under the roster.
func (p *AgentsPanel) SetThoughts(events []model.ThoughtEvent) {
	p.thoughts = events
}

// SetStreamState records the thought stream's connection state.
func (p *AgentsPanel) SetStreamState(state string) {
	p.streamState = state
}

func (p *AgentsPanel) startTicking() tea.Cmd {
	if p.ticking || !p.roster.Pending() {
		return nil
	}
	p.ticking = true
	return rosterTick()
}

func rosterTick() tea.Cmd {
	return tea.Tick(RosterTickInterval, func(time.Time) tea.Msg { return rosterTickMsg{} })
}

func (p *AgentsPanel) Update(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(rosterTickMsg); !ok {
		return nil
	}
	p.roster.Tick()
	if !p.roster.Pending() {
		p.ticking = false
		return nil
	}
	return rosterTick()
}

func (p *AgentsPanel) View(width, height int) string {
	var sections []string
	sections = append(sections, p.theme.PanelTitle.Render("Agent Roster"))
	sections = append(sections, p.roster.String(p.theme, width))

	sections = append(sections, "", p.theme.PanelTitle.Render("🛡️ Guardian"))
	for _, t := range p.roster.Guardian() {
		sections = append(sections, p.theme.Timestamp.Render(t.At.Format("15:04:05"))+" "+p.theme.CardThought.Render(t.Text))
	}

	sections = append(sections, "", p.theme.PanelTitle.Render(fmt.Sprintf("Thought Stream (%s)", p.streamState)))
	if len(p.thoughts) == 0 {
		sections = append(sections, p.theme.Placeholder.Render("No thoughts yet."))
	}
	// Newest last; only what fits below the roster.
	used := lipgloss.Height(strings.Join(sections, "\n"))
	room := max(1, height-used)
	start := max(0, len(p.thoughts)-room)
	for _, e := range p.thoughts[start:] {
		sections = append(sections, p.thoughtLine(e, width))
	}
	return fitLines(strings.Join(sections, "\n"), width, height)
}

func (p *AgentsPanel) thoughtLine(e model.ThoughtEvent, width int) string {
	var b strings.Builder
	b.WriteString(p.theme.Timestamp.Render(e.Timestamp.Format("15:04:05")))
	b.WriteString(" ")
	b.WriteString(p.theme.ThoughtType.Render("[" + util.SanitizeText(e.Type) + "]"))
	if e.HasAgent() {
		b.WriteString(" ")
		b.WriteString(p.theme.ThoughtAgent.Render(util.SanitizeText(*e.AgentID)))
	}
	prefix := b.String()
	room := max(8, width-lipgloss.Width(prefix)-1)
	return prefix + " " + p.theme.ThoughtText.Render(util.TruncateWidth(util.SanitizeText(e.Message), room))
}
