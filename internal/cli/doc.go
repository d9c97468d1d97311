// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI commands of
// agentroom.
//
// # Key Types
//
//   - Command: Enumeration of the available commands
//   - Args: Parsed global flags and command-specific values
//   - ArgParser: Reusable flag and positional parser for subcommands
//   - ChatCLI: liner-backed line editor with persistent history
//
// # Usage
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdChat:
//	    err = cli.HandleChat(args)
//	case cli.CmdServe:
//	    err = cli.HandleServe(args)
//	// ...
//	}
//
// # Commands Overview
//
//   - tui: full-screen interface (default on a terminal)
//   - chat: line-oriented REPL over the same dispatcher
//   - serve: demo conversation backend
//   - status: backend status check
//   - api: raw endpoint call with highlighted JSON output
//   - scenarios: demo scenario presets
//   - config: show, locate, initialize, get or set configuration
package cli
