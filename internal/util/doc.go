// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across agentroom.
//
// # Key Functions
//
// Display Width:
//   - TruncateWidth: display-width safe truncation with ellipsis (emoji, CJK)
//   - StringWidth: terminal cell width of a string
//   - TruncateRunes: rune-count truncation with ellipsis
//
// Plain Text:
//   - SanitizeText: strips terminal escape sequences and control characters
//     from user supplied text, keeping line breaks
//
// Files:
//   - AtomicWriteFile: crash-safe file writing with fsync
//   - FormatFileSize: human readable byte counts (base 1024)
//
// # Usage
//
//	card := util.TruncateWidth(agent.Personality, 100)
//	safe := util.SanitizeText(userInput)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
