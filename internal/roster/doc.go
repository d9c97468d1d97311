// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package roster is the agent roster view: one card per agent, an icon
// chosen from the agent's role, and a short cosmetic thought sequence per
// card.
//
// The roster is replaced wholesale on every Render. Cosmetic thoughts
// advance on Tick, which the caller drives from a timer; rendering never
// waits for them.
package roster
