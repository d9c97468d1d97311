// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package roster

import "strings"

// DefaultIcon is used when no role keyword matches.
const DefaultIcon = "🤖"

// IconRule maps role keywords to a glyph.
type IconRule struct {
	Keywords []string
	Glyph    string
}

// IconRules is checked in order; the first rule with a keyword contained
// in the lower-cased role wins. Specific disciplines come before the
// generic "manager" so "Marketing Manager" is a marketer.
var IconRules = []IconRule{
	{Keywords: []string{"workout", "fitness"}, Glyph: "💪"},
	{Keywords: []string{"nutrition", "diet"}, Glyph: "🥗"},
	{Keywords: []string{"marketing"}, Glyph: "📢"},
	{Keywords: []string{"developer", "technical", "engineer"}, Glyph: "💻"},
	{Keywords: []string{"designer", "ux"}, Glyph: "🎨"},
	{Keywords: []string{"product"}, Glyph: "📋"},
	{Keywords: []string{"data", "analyst"}, Glyph: "📊"},
	{Keywords: []string{"coordinator", "manager"}, Glyph: "🎯"},
}

// IconFor returns the display glyph for a role.
func IconFor(role string) string {
	lower := strings.ToLower(role)
	for _, rule := range IconRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Glyph
			}
		}
	}
	return DefaultIcon
}
