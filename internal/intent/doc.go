// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package intent implements the ordered keyword rule table used to classify
// free-text prompts.
//
// This is deliberately crude pattern matching, not language understanding:
// a rule matches when its keywords appear as substrings of the normalized
// message, and the first matching rule in table order wins. Because the
// order is fixed, two rules can never tie.
//
// Precedence between overlapping rules is policy, not a hidden property of
// the code. Table.WithPrecedence moves named intents to the front so that
// deployments can decide, for example, whether "run the full conversation
// exchange" is a full-conversation request or a single exchange.
//
// # Usage
//
//	table := intent.NewTable("echo",
//	    intent.Rule{Intent: "create-agents", AnyOf: []string{"create", "hire"}},
//	    intent.Rule{Intent: "request-exchange", AnyOf: []string{"exchange", "next"}},
//	)
//	table, err := table.WithPrecedence([]intent.Intent{"request-exchange"})
//	got := table.Classify("Create three agents")
package intent
