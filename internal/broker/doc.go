// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package broker is the demo backend's conversation brain.
//
// It creates agent teams from free-text specifications using keyword
// rules, runs canned multi-agent exchanges, forces a conclusion at the
// exchange cap, and classifies free prompts the way the real backend
// does. Every step narrates itself to a ThoughtSink, which the HTTP
// server exposes as the thought stream.
//
// Nothing here calls a language model. Replies are templated by role so
// the front end can be exercised end to end without credentials.
package broker
