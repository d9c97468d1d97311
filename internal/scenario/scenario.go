// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package scenario

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when a scenario name is not known.
var ErrNotFound = errors.New("demo scenario not found")

// Role is a persona suggested by a scenario.
type Role struct {
	Role      string `yaml:"role" json:"role"`
	Expertise string `yaml:"expertise" json:"expertise"`
}

// Scenario is a demo preset: a topic, its context, and the team to create.
type Scenario struct {
	Name       string `yaml:"name" json:"name"`
	Topic      string `yaml:"topic" json:"topic"`
	Context    string `yaml:"context" json:"context"`
	Roles      []Role `yaml:"roles,omitempty" json:"roles,omitempty"`
	Suggestion string `yaml:"suggestion" json:"suggestion"`
}

// Set is a collection of scenarios keyed by name.
type Set map[string]Scenario

// =============================================================================
// BUILT-IN PRESETS
// =============================================================================

// Builtin returns a fresh copy of the built-in presets.
func Builtin() Set {
	return Set{
		"project": {
			Name:    "project",
			Topic:   "Project Timeline Adjustment",
			Context: "Client needs delivery by Friday, team estimates 2 more weeks",
			Roles: []Role{
				{Role: "Project Manager", Expertise: "Project planning and coordination"},
				{Role: "Senior Developer", Expertise: "Technical implementation and system architecture"},
			},
			Suggestion: "Create 3 agents: Project Manager, Senior Developer, and Client Representative",
		},
		"design": {
			Name:    "design",
			Topic:   "Redesigning User Onboarding Flow",
			Context: "40% drop-off rate, need to improve retention",
			Roles: []Role{
				{Role: "Product Manager", Expertise: "Product strategy and user experience"},
				{Role: "UX Designer", Expertise: "User interface design and user research"},
			},
			Suggestion: "Create 4 agents: Product Manager, UX Designer, Data Analyst, and Marketing Manager",
		},
		"marketing": {
			Name:    "marketing",
			Topic:   "Q4 Marketing Campaign Strategy",
			Context: "$100K budget across different channels",
			Roles: []Role{
				{Role: "Marketing Manager", Expertise: "Marketing strategy and campaign management"},
				{Role: "Data Analyst", Expertise: "Data analysis and performance optimization"},
			},
			Suggestion: "Create 3 agents: Marketing Manager, Data Analyst, and Creative Director",
		},
		"hr": {
			Name:    "hr",
			Topic:   "Employee Performance Management System",
			Context: "Replace paper-based system with digital solution",
			Roles: []Role{
				{Role: "HR Manager", Expertise: "Human resources and employee relations"},
				{Role: "IT Manager", Expertise: "Information technology and system implementation"},
			},
			Suggestion: "Create 3 agents: HR Manager, IT Manager, and Employee Representative",
		},
	}
}

// Get looks up a scenario by name, case-insensitively.
func (s Set) Get(name string) (Scenario, error) {
	sc, ok := s[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Scenario{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return sc, nil
}

// Names returns the scenario names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge returns a new set holding s overlaid with other. Entries in other
// replace entries of the same name.
func (s Set) Merge(other Set) Set {
	out := make(Set, len(s)+len(other))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Get looks up a built-in scenario.
func Get(name string) (Scenario, error) {
	return Builtin().Get(name)
}

// Names returns the built-in scenario names.
func Names() []string {
	return Builtin().Names()
}

// =============================================================================
// FILE LOADING
// =============================================================================

// LoadFile reads a YAML list of scenarios. Names are lower-cased; entries
// without a name or topic are rejected.
func LoadFile(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenarios: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML list of scenarios.
func Parse(data []byte) (Set, error) {
	var list []Scenario
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse scenarios: %w", err)
	}

	out := make(Set, len(list))
	for i, sc := range list {
		sc.Name = strings.ToLower(strings.TrimSpace(sc.Name))
		if sc.Name == "" {
			return nil, fmt.Errorf("scenario %d: name is required", i+1)
		}
		if strings.TrimSpace(sc.Topic) == "" {
			return nil, fmt.Errorf("scenario %q: topic is required", sc.Name)
		}
		out[sc.Name] = sc
	}
	return out, nil
}

// Load returns the built-in presets merged with the optional file at path.
// An empty path returns the presets alone.
func Load(path string) (Set, error) {
	set := Builtin()
	if path == "" {
		return set, nil
	}
	extra, err := LoadFile(path)
	if err != nil {
		return set, err
	}
	return set.Merge(extra), nil
}
