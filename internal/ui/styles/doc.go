// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the agentroom TUI and
CLI.

All colors use Lip Gloss AdaptiveColor so light and dark terminals both get
readable output. Theme detects the terminal's color profile with termenv.

# Color System (colors.go)

  - Purple: assistant turns and selections
  - Cyan: brand, user turns, the active tab
  - Amber: broker turns, warnings, demo mode
  - Emerald: success, connected, streaming
  - Rose: errors and the offline stream state

Each conversation sender has its own bubble palette (SenderColors).

# Theme (theme.go)

	theme := styles.NewTheme()
	theme.Bubble(model.SenderBroker).Render(text)
	theme.TabActive.Render("Agents & Guardian")

# Accessibility

Status helpers (RenderSuccess, RenderError, RenderWarning) prefix an ASCII
shape so state never depends on color alone.
*/
package styles
