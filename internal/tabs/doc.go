// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tabs is the tab manager and the demo panels shown beside the
// conversation.
//
// A Manager is constructed by its owner and passed where it is needed;
// there is no package-level instance. Exactly one registered panel is
// visible at a time. SwitchTo with an unknown ID changes nothing.
//
// # Panels
//
//   - agents: roster cards, guardian lines and the live thought log
//   - health: mocked vitals and activity rings, re-randomized on a timer
//   - neural: mocked cognitive components and a simulated training run
//   - video: a mocked upload list with canned analyses
//
// Panels only simulate; nothing here reads a device or runs a model. All
// randomness comes from the *rand.Rand passed in, so tests are seeded.
package tabs
