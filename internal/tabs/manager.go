// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tabs

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jeranaias/agentroom/internal/ui/styles"
	"github.com/jeranaias/agentroom/internal/util"
)

// Panel IDs.
const (
	IDAgents = "agents"
	IDHealth = "health"
	IDNeural = "neural"
	IDVideo  = "video"
)

// Panel is one tab's content.
type Panel interface {
	ID() string
	Title() string
	Icon() string
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View(width, height int) string
}

// Manager owns the panels and which one is visible.
type Manager struct {
	panels  []Panel
	visible map[string]bool
	active  int
}

// NewManager registers panels in tab order. The first panel starts
// visible. A panel whose ID is already registered is ignored.
func NewManager(panels ...Panel) *Manager {
	m := &Manager{visible: make(map[string]bool, len(panels))}
	for _, p := range panels {
		if p == nil {
			continue
		}
		if _, dup := m.visible[p.ID()]; dup {
			continue
		}
		m.panels = append(m.panels, p)
		m.visible[p.ID()] = false
	}
	if len(m.panels) > 0 {
		m.visible[m.panels[0].ID()] = true
	}
	return m
}

// SwitchTo hides every panel and shows id. It reports false, and changes
// nothing, when id is not registered.
func (m *Manager) SwitchTo(id string) bool {
	idx := m.index(id)
	if idx < 0 {
		return false
	}
	for _, p := range m.panels {
		m.visible[p.ID()] = false
	}
	m.visible[id] = true
	m.active = idx
	return true
}

func (m *Manager) index(id string) int {
	for i, p := range m.panels {
		if p.ID() == id {
			return i
		}
	}
	return -1
}

// Next shows the panel after the active one, wrapping around.
func (m *Manager) Next() {
	if len(m.panels) > 0 {
		m.SwitchTo(m.panels[(m.active+1)%len(m.panels)].ID())
	}
}

// Prev shows the panel before the active one, wrapping around.
func (m *Manager) Prev() {
	if n := len(m.panels); n > 0 {
		m.SwitchTo(m.panels[(m.active-1+n)%n].ID())
	}
}

// Active returns the visible panel, or nil when none is registered.
func (m *Manager) Active() Panel {
	if len(m.panels) == 0 {
		return nil
	}
	return m.panels[m.active]
}

// ActiveID returns the visible panel's ID.
func (m *Manager) ActiveID() string {
	if p := m.Active(); p != nil {
		return p.ID()
	}
	return ""
}

// Visible returns the IDs of visible panels.
func (m *Manager) Visible() []string {
	var ids []string
	for _, p := range m.panels {
		if m.visible[p.ID()] {
			ids = append(ids, p.ID())
		}
	}
	return ids
}

// IsVisible reports whether id is the visible panel.
func (m *Manager) IsVisible(id string) bool {
	return m.visible[id]
}

// Panels returns the panels in tab order.
func (m *Manager) Panels() []Panel {
	return append([]Panel(nil), m.panels...)
}

// Panel looks up a panel by ID.
func (m *Manager) Panel(id string) (Panel, bool) {
	if idx := m.index(id); idx >= 0 {
		return m.panels[idx], true
	}
	return nil, false
}

// IDs returns the panel IDs in tab order.
func (m *Manager) IDs() []string {
	ids := make([]string, len(m.panels))
	for i, p := range m.panels {
		ids[i] = p.ID()
	}
	return ids
}

// Init starts every panel's timers.
func (m *Manager) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.panels))
	for _, p := range m.panels {
		cmds = append(cmds, p.Init())
	}
	return tea.Batch(cmds...)
}

// Update forwards msg to every panel. Panels keep animating while hidden,
// as each owns its own timer.
func (m *Manager) Update(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.panels))
	for _, p := range m.panels {
		cmds = append(cmds, p.Update(msg))
	}
	return tea.Batch(cmds...)
}

// TabBar renders the tab strip.
func (m *Manager) TabBar(theme *styles.Theme, width int) string {
	parts := make([]string, 0, len(m.panels))
	for _, p := range m.panels {
		label := p.Icon() + " " + p.Title()
		if m.visible[p.ID()] {
			parts = append(parts, theme.TabActive.Render(label))
		} else {
			parts = append(parts, theme.TabInactive.Render(label))
		}
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	if lipgloss.Width(bar) > width && width > 0 {
		// UNICODE: fall back to icons only when titles do not fit
		parts = parts[:0]
		for _, p := range m.panels {
			st := theme.TabInactive
			if m.visible[p.ID()] {
				st = theme.TabActive
			}
			parts = append(parts, st.Render(p.Icon()))
		}
		bar = lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	}
	return theme.TabBar.Width(width).Render(bar)
}

// View renders the tab bar above the visible panel.
func (m *Manager) View(theme *styles.Theme, width, height int) string {
	p := m.Active()
	if p == nil {
		return ""
	}
	bar := m.TabBar(theme, width)
	body := p.View(width, max(1, height-lipgloss.Height(bar)))
	return bar + "\n" + body
}

// fitLines trims s to at most height lines of at most width cells.
func fitLines(s string, width, height int) string {
	lines := strings.Split(s, "\n")
	if height > 0 && len(lines) > height {
		lines = lines[:height]
	}
	for i, l := range lines {
		if lipgloss.Width(l) > width && width > 0 {
			lines[i] = util.TruncateWidth(l, width)
		}
	}
	return strings.Join(lines, "\n")
}
