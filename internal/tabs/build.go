// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tabs

import (
	"math/rand"
	"time"

	"github.com/jeranaias/agentroom/internal/model"
	"github.com/jeranaias/agentroom/internal/roster"
	"github.com/jeranaias/agentroom/internal/ui/styles"
)

// BuildOptions configures Build.
type BuildOptions struct {
	Theme  *styles.Theme
	Roster *roster.View
	// Rand drives every mocked value. Nil seeds from the clock.
	Rand *rand.Rand
	// Default is the tab shown first. Unknown or empty means agents.
	Default string
}

// Build creates a manager holding the panels caps enables. The agents
// panel is present whenever CapAgents is set; the others follow their own
// flags.
func Build(caps model.Capabilities, opts BuildOptions) *Manager {
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	var panels []Panel
	if caps.Has(model.CapAgents) {
		panels = append(panels, NewAgentsPanel(opts.Theme, opts.Roster))
	}
	if caps.Has(model.CapHealth) {
		panels = append(panels, NewHealthPanel(opts.Theme, rng))
	}
	if caps.Has(model.CapNeural) {
		panels = append(panels, NewNeuralPanel(opts.Theme, rng))
	}
	if caps.Has(model.CapVideo) {
		panels = append(panels, NewVideoPanel(opts.Theme, rng))
	}

	m := NewManager(panels...)
	if opts.Default != "" {
		m.SwitchTo(opts.Default)
	}
	return m
}

// Agents returns the agents panel, if registered.
func (m *Manager) Agents() (*AgentsPanel, bool) {
	p, ok := m.Panel(IDAgents)
	if !ok {
		return nil, false
	}
	ap, ok := p.(*AgentsPanel)
	return ap, ok
}

// Health returns the health panel, if registered.
func (m *Manager) Health() (*HealthPanel, bool) {
	p, ok := m.Panel(IDHealth)
	if !ok {
		return nil, false
	}
	hp, ok := p.(*HealthPanel)
	return hp, ok
}

// Neural returns the neural panel, if registered.
func (m *Manager) Neural() (*NeuralPanel, bool) {
	p, ok := m.Panel(IDNeural)
	if !ok {
		return nil, false
	}
	np, ok := p.(*NeuralPanel)
	return np, ok
}

// Video returns the video panel, if registered.
func (m *Manager) Video() (*VideoPanel, bool) {
	p, ok := m.Panel(IDVideo)
	if !ok {
		return nil, false
	}
	vp, ok := p.(*VideoPanel)
	return vp, ok
}
