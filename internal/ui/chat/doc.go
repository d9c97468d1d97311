// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen agentroom TUI.

The Model wires the conversation controller (dispatch.Dispatcher), the tab
manager and the thought stream into one Bubble Tea program.

# Key Components

## Model (model.go)

Owns the dispatcher, the tabs, the stream and the bubbles widgets
(viewport, textinput, spinner, progress, help). Dispatcher calls run in
tea.Cmds and come back as SubmitResultMsg; the stream is pumped through
waitForStream, which re-arms after every update.

## Commands (commands.go)

Slash commands: /topic, /context, /demo, /reset, /clear-thoughts, /agents,
/tab, /upload, /analyze, /delete, /train, /connect, /help and /quit.

## View Rendering (view.go)

Header with topic, API status and conversation status; the conversation
log in sender bubbles (markdown through glamour for everything but user
text); the active panel; exchange progress; input; status bar.

# Usage

	m := chat.New(chat.Options{Dispatcher: d, Tabs: tabs, Stream: stream})
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
*/
package chat
