// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the application.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	// Header
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderLabel lipgloss.Style
	HeaderValue lipgloss.Style

	// Tabs
	TabBar      lipgloss.Style
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style

	// Conversation
	MessageTitle lipgloss.Style
	Timestamp    lipgloss.Style
	bubbles      map[string]lipgloss.Style

	// Roster cards and panels
	Card          lipgloss.Style
	CardTitle     lipgloss.Style
	CardSubtitle  lipgloss.Style
	CardThought   lipgloss.Style
	PanelTitle    lipgloss.Style
	Placeholder   lipgloss.Style
	MetricLabel   lipgloss.Style
	MetricValue   lipgloss.Style
	ThoughtType   lipgloss.Style
	ThoughtAgent  lipgloss.Style
	ThoughtText   lipgloss.Style

	// Input and status bar
	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	StatusBar      lipgloss.Style
	ShortcutKey    lipgloss.Style
	ShortcutDesc   lipgloss.Style
	Spinner        lipgloss.Style

	// States
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Muted    lipgloss.Style
	Disabled lipgloss.Style
}

// NewTheme creates a theme for the current terminal.
func NewTheme() *Theme {
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.HeaderLabel = lipgloss.NewStyle().Foreground(TextMuted)
	t.HeaderValue = lipgloss.NewStyle().Foreground(TextPrimary).Bold(true)

	t.TabBar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay)
	t.TabActive = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(Cyan).
		Padding(0, 1)
	t.TabInactive = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Padding(0, 1)

	t.MessageTitle = lipgloss.NewStyle().Bold(true)
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted)
	t.bubbles = make(map[string]lipgloss.Style, len(SenderColors))
	for sender, c := range SenderColors {
		t.bubbles[sender] = lipgloss.NewStyle().
			Foreground(c.Fg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(c.Border).
			Padding(0, 1)
	}

	t.Card = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(OverlayDim).
		Padding(0, 1)
	t.CardTitle = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.CardSubtitle = lipgloss.NewStyle().Foreground(TextSecondary)
	t.CardThought = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)
	t.PanelTitle = lipgloss.NewStyle().Bold(true).Foreground(Cyan).MarginBottom(1)
	t.Placeholder = lipgloss.NewStyle().Foreground(TextMuted).Italic(true).Padding(1, 2)
	t.MetricLabel = lipgloss.NewStyle().Foreground(TextSecondary).Width(18)
	t.MetricValue = lipgloss.NewStyle().Foreground(TextPrimary).Bold(true)
	t.ThoughtType = lipgloss.NewStyle().Foreground(Amber)
	t.ThoughtAgent = lipgloss.NewStyle().Foreground(Purple)
	t.ThoughtText = lipgloss.NewStyle().Foreground(TextPrimary)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.ShortcutKey = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(TextMuted)
	t.Spinner = lipgloss.NewStyle().Foreground(Purple)

	t.Success = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	t.Warning = lipgloss.NewStyle().Foreground(Amber).Bold(true)
	t.Error = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)
	t.Disabled = lipgloss.NewStyle().Foreground(TextMuted).Strikethrough(true)
}

// Bubble returns the message style for a sender name.
func (t *Theme) Bubble(sender string) lipgloss.Style {
	if s, ok := t.bubbles[sender]; ok {
		return s
	}
	return t.bubbles["system"]
}

// StatusStyle picks the style for a header status value: Connected and
// Completed are good news, Demo Mode is a warning, anything "Not" or
// "offline" is an error.
func (t *Theme) StatusStyle(value string) lipgloss.Style {
	switch value {
	case "Connected", "Completed", "streaming":
		return t.Success
	case "Demo Mode", "reconnecting", "connecting", "Active":
		return t.Warning
	case "Not Connected", "offline":
		return t.Error
	default:
		return t.HeaderValue
	}
}
