// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCapability is returned by ParseCapabilities for unknown names.
var ErrUnknownCapability = errors.New("unknown capability")

// Capabilities is the set of demo features enabled on the controller.
type Capabilities uint16

const (
	CapAgents Capabilities = 1 << iota
	CapHealth
	CapNeural
	CapVideo
	CapThoughtStream
	CapFullConversation
	CapLearningStats
)

// AllCapabilities enables every feature.
const AllCapabilities = CapAgents | CapHealth | CapNeural | CapVideo |
	CapThoughtStream | CapFullConversation | CapLearningStats

var capabilityNames = []struct {
	cap  Capabilities
	name string
}{
	{CapAgents, "agents"},
	{CapHealth, "health"},
	{CapNeural, "neural"},
	{CapVideo, "video"},
	{CapThoughtStream, "thought_stream"},
	{CapFullConversation, "full_conversation"},
	{CapLearningStats, "learning_stats"},
}

// Has reports whether every flag in c2 is set.
func (c Capabilities) Has(c2 Capabilities) bool {
	return c&c2 == c2
}

// With returns c with c2 added.
func (c Capabilities) With(c2 Capabilities) Capabilities {
	return c | c2
}

// Without returns c with c2 removed.
func (c Capabilities) Without(c2 Capabilities) Capabilities {
	return c &^ c2
}

// Names returns the enabled capability names in declaration order.
func (c Capabilities) Names() []string {
	var names []string
	for _, cn := range capabilityNames {
		if c.Has(cn.cap) {
			names = append(names, cn.name)
		}
	}
	return names
}

func (c Capabilities) String() string {
	if c == 0 {
		return "none"
	}
	return strings.Join(c.Names(), ",")
}

// ParseCapabilities parses a comma separated list such as
// "agents,health,thought_stream". Names are case-insensitive and "all"
// enables everything. Hyphens are accepted in place of underscores.
func ParseCapabilities(s string) (Capabilities, error) {
	var caps Capabilities
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		name = strings.ReplaceAll(name, "-", "_")
		if name == "" {
			continue
		}
		if name == "all" {
			caps = caps.With(AllCapabilities)
			continue
		}
		found := false
		for _, cn := range capabilityNames {
			if cn.name == name {
				caps = caps.With(cn.cap)
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: %q", ErrUnknownCapability, part)
		}
	}
	return caps, nil
}
