// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/agentroom/internal/backend"
	"github.com/jeranaias/agentroom/internal/model"
	"github.com/jeranaias/agentroom/internal/util"
)

// =============================================================================
// MAIN RENDER
// =============================================================================

func (m Model) render() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}

	sections := []string{
		m.renderHeader(),
		m.renderBody(),
		m.renderProgress(),
		m.renderInput(),
		m.renderStatusBar(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// =============================================================================
// HEADER
// =============================================================================

// renderHeader shows the topic, the API status and the conversation status.
func (m Model) renderHeader() string {
	t := m.theme
	sess := m.dispatcher.Session()

	topic := sess.Topic
	if topic == "" {
		topic = "No topic"
	}
	convStatus := sess.Status()

	right := t.HeaderLabel.Render("API: ") + t.StatusStyle(m.apiStatus).Render(m.apiStatus) +
		t.HeaderLabel.Render("  Conversation: ") + t.StatusStyle(convStatus).Render(convStatus)
	title := t.HeaderTitle.Render("🤝 agentroom")

	inner := max(10, m.width-4)
	room := max(8, inner-lipgloss.Width(title)-lipgloss.Width(right)-12)
	left := title + t.HeaderLabel.Render("  Topic: ") + t.HeaderValue.Render(util.TruncateWidth(topic, room))

	gap := max(1, inner-lipgloss.Width(left)-lipgloss.Width(right))
	return t.Header.Width(max(10, m.width-2)).Render(left + strings.Repeat(" ", gap) + right)
}

// =============================================================================
// BODY
// =============================================================================

func (m Model) renderBody() string {
	chat := lipgloss.NewStyle().
		Width(m.layout.chatWidth).
		Height(m.layout.chatHeight).
		Render(m.viewport.View())
	if m.layout.panelWidth == 0 {
		return chat
	}

	panel := m.tabs.View(m.theme, m.layout.panelWidth, m.layout.panelHeight)
	if m.layout.sideBySide {
		return lipgloss.JoinHorizontal(lipgloss.Top, chat, " ", panel)
	}
	return lipgloss.JoinVertical(lipgloss.Left, chat, panel)
}

// renderMessages renders the whole log for the viewport.
func (m *Model) renderMessages(width int) string {
	msgs := m.dispatcher.Log().Messages()
	if len(msgs) == 0 {
		return m.renderEmptyState(width)
	}

	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		parts = append(parts, m.renderMessage(msg, width))
	}
	return strings.Join(parts, "\n")
}

func (m *Model) renderMessage(msg model.Message, width int) string {
	t := m.theme
	bubbleWidth := max(10, width-2)
	// Border and padding take four cells.
	textWidth := max(6, bubbleWidth-4)

	header := t.MessageTitle.Render(msg.Label())
	if m.ui.ShowTimestamps {
		header += " " + t.Timestamp.Render(msg.Timestamp.Format("15:04:05"))
	}

	// SECURITY: user text is shown as typed, never interpreted as markdown.
	body := msg.Text
	if msg.Sender != model.SenderUser && m.ui.RenderMarkdown {
		body = m.md.render(msg.ID, msg.Text, textWidth)
	}

	bubble := t.Bubble(msg.Sender.String()).Width(bubbleWidth).Render(header + "\n" + body)
	if msg.Sender == model.SenderUser {
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble)
	}
	return bubble
}

func (m Model) renderEmptyState(width int) string {
	lines := []string{
		m.theme.HeaderTitle.Render("Welcome to the agent conversation room"),
		"",
		"Describe a project to start a conversation, or ask for a team:",
		m.theme.Muted.Render(`  "Create 3 agents: Product Manager, Developer, and Designer"`),
		"",
		"Load a ready-made scenario with " + m.theme.ShortcutKey.Render("/demo project") +
			", or type " + m.theme.ShortcutKey.Render("/help") + " for all commands.",
	}
	return lipgloss.NewStyle().Width(width).Padding(1, 2).Render(strings.Join(lines, "\n"))
}

// =============================================================================
// PROGRESS, INPUT, STATUS BAR
// =============================================================================

// renderProgress shows "Exchange n of m" and the run-full affordance.
func (m Model) renderProgress() string {
	t := m.theme
	sess := m.dispatcher.Session()

	line := t.MetricValue.Render(sess.ProgressLabel()) + " " + m.progress.ViewAs(sess.Progress())
	switch {
	case sess.Concluded:
		line += "  " + t.Disabled.Render("run full") + " " + t.Muted.Render("conversation completed, /reset to start over")
	case m.dispatcher.Capabilities().Has(model.CapFullConversation):
		line += "  " + t.ShortcutKey.Render("C-f") + " " + t.ShortcutDesc.Render("run full")
	}
	return util.TruncateWidth(line, max(10, m.width))
}

func (m Model) renderInput() string {
	content := m.input.View()
	if m.dispatcher.Processing() {
		content = m.spinner.View() + " " + m.theme.Muted.Render("Processing...")
	}
	return m.theme.InputContainer.Width(max(10, m.width-2)).Render(content)
}

func (m Model) renderStatusBar() string {
	t := m.theme

	var stream string
	switch {
	case m.stream == nil:
		stream = t.Muted.Render("thoughts: disabled")
	default:
		state := m.streamState.String()
		stream = "thoughts: " + t.StatusStyle(state).Render(state)
		switch m.streamState {
		case backend.StateReconnecting:
			stream += t.Muted.Render(fmt.Sprintf(" (attempt %d, retry in %s)", m.retryAttempt, retryCountdown(m.retryAt)))
		case backend.StateOffline:
			stream += " " + t.Error.Render("ctrl+r to retry")
		}
	}

	left := stream
	if m.notice != "" {
		left += "  " + t.Warning.Render(m.notice)
	}
	right := m.help.ShortHelpView(m.keys.ShortHelp())

	inner := max(10, m.width-2)
	if lipgloss.Width(left)+lipgloss.Width(right)+1 > inner {
		right = t.ShortcutKey.Render("?") + " " + t.ShortcutDesc.Render("help")
	}
	gap := max(1, inner-lipgloss.Width(left)-lipgloss.Width(right))
	return t.StatusBar.Width(inner + 2).Render(left + strings.Repeat(" ", gap) + right)
}

// retryCountdown formats the time left until a scheduled reconnect.
func retryCountdown(at time.Time) string {
	return max(0, time.Until(at).Round(time.Second)).String()
}

func (m Model) renderHelpOverlay() string {
	t := m.theme
	body := t.HeaderTitle.Render("Keyboard Shortcuts") + "\n\n" +
		m.help.FullHelpView(m.keys.FullHelp()) + "\n\n" +
		t.Muted.Render("Type /help in the prompt for slash commands. Press any key to close.")
	box := t.Card.Padding(1, 2).Render(body)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// =============================================================================
// MARKDOWN
// =============================================================================

// markdown renders backend text with glamour. Output is cached per message
// ID and dropped when the wrap width changes.
type markdown struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
	cache    map[string]string
}

func newMarkdown(dark bool) *markdown {
	style := "light"
	if dark {
		style = "dark"
	}
	return &markdown{style: style, cache: make(map[string]string)}
}

// render returns text rendered at width. It falls back to the raw text if
// glamour cannot render it.
func (md *markdown) render(id, text string, width int) string {
	if width != md.width || md.renderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(md.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return text
		}
		md.renderer = r
		md.width = width
		clear(md.cache)
	}
	if out, ok := md.cache[id]; ok {
		return out
	}
	out, err := md.renderer.Render(text)
	if err != nil {
		return text
	}
	out = strings.Trim(out, "\n")
	md.cache[id] = out
	return out
}
