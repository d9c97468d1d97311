// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package scenario provides the demo conversation presets.
//
// Four presets are built in (project, design, marketing, hr). Users may add
// or override presets with a YAML file:
//
//	- name: launch
//	  topic: Product Launch Readiness
//	  context: Launch is in two weeks, QA backlog is growing
//	  roles:
//	    - role: Release Manager
//	      expertise: Release coordination
//	  suggestion: "Create 2 agents: Release Manager and QA Lead"
package scenario
