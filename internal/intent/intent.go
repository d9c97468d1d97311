// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package intent

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// ErrUnknownIntent is returned when a precedence list names an intent that
// has no rule in the table.
var ErrUnknownIntent = errors.New("unknown intent")

// Intent tags the outcome of classification.
type Intent string

// =============================================================================
// RULES
// =============================================================================

// Rule matches a message when every AllOf term is present and, if AnyOf is
// non-empty, at least one AnyOf term is present. Terms are compared against
// normalized text, so they should be written in lower case.
type Rule struct {
	Intent Intent
	AnyOf  []string
	AllOf  []string
}

// Matches reports whether the rule applies to already normalized text.
func (r Rule) Matches(normalized string) bool {
	if len(r.AnyOf) == 0 && len(r.AllOf) == 0 {
		return false
	}
	for _, term := range r.AllOf {
		if !strings.Contains(normalized, term) {
			return false
		}
	}
	if len(r.AnyOf) == 0 {
		return true
	}
	for _, term := range r.AnyOf {
		if strings.Contains(normalized, term) {
			return true
		}
	}
	return false
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// Normalize prepares text for matching: NFKC compatibility folding (so
// full-width and ligature forms match their ASCII keywords), Unicode case
// folding, and whitespace runs collapsed to single spaces.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s) // Casers are stateful; one per call
	return strings.Join(strings.Fields(s), " ")
}

// =============================================================================
// TABLE
// =============================================================================

// Table is an ordered rule list with a fallback intent. Tables are
// immutable; WithPrecedence returns a new table.
type Table struct {
	rules    []Rule
	fallback Intent
}

// NewTable builds a table that returns fallback when no rule matches.
func NewTable(fallback Intent, rules ...Rule) Table {
	return Table{rules: append([]Rule(nil), rules...), fallback: fallback}
}

// Classify returns the intent of the first matching rule, or the fallback.
func (t Table) Classify(text string) Intent {
	if r, ok := t.Match(text); ok {
		return r.Intent
	}
	return t.fallback
}

// Match returns the first rule that matches text.
func (t Table) Match(text string) (Rule, bool) {
	n := Normalize(text)
	if n == "" {
		return Rule{}, false
	}
	for _, r := range t.rules {
		if r.Matches(n) {
			return r, true
		}
	}
	return Rule{}, false
}

// Fallback returns the intent used when nothing matches.
func (t Table) Fallback() Intent { return t.fallback }

// Rules returns a copy of the rules in evaluation order.
func (t Table) Rules() []Rule {
	return append([]Rule(nil), t.rules...)
}

// Order returns the intents in evaluation order, one entry per rule.
func (t Table) Order() []Intent {
	out := make([]Intent, len(t.rules))
	for i, r := range t.rules {
		out[i] = r.Intent
	}
	return out
}

// Has reports whether any rule produces intent.
func (t Table) Has(intent Intent) bool {
	for _, r := range t.rules {
		if r.Intent == intent {
			return true
		}
	}
	return false
}

// WithPrecedence returns a table whose rules for the listed intents come
// first, in the listed order. Rules for unlisted intents follow in their
// original relative order. An intent may own several rules; they move as a
// group. Naming an intent with no rules is an error.
func (t Table) WithPrecedence(order []Intent) (Table, error) {
	placed := make(map[Intent]bool, len(order))
	out := make([]Rule, 0, len(t.rules))

	for _, want := range order {
		if placed[want] {
			continue
		}
		if !t.Has(want) {
			return Table{}, fmt.Errorf("%w: %q", ErrUnknownIntent, want)
		}
		for _, r := range t.rules {
			if r.Intent == want {
				out = append(out, r)
			}
		}
		placed[want] = true
	}
	for _, r := range t.rules {
		if !placed[r.Intent] {
			out = append(out, r)
		}
	}
	return Table{rules: out, fallback: t.fallback}, nil
}

// ParseIntents converts configuration strings to intents.
func ParseIntents(names []string) []Intent {
	out := make([]Intent, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, Intent(n))
		}
	}
	return out
}
