// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dispatch is the prompt dispatcher: the single controller that
// turns user input into backend calls or canned replies and appends the
// results to the conversation log.
//
// # Guarantees
//
//   - Empty or whitespace-only input is rejected with ErrEmptyMessage and
//     changes nothing.
//   - At most one request is in flight. A second Submit while processing is
//     rejected with ErrBusy and appends nothing.
//   - The processing flag is cleared on every exit path.
//   - Every request carries a sequence number. Reset advances the sequence,
//     so a response that arrives after a reset is discarded (ErrStale).
//   - The exchange count never exceeds the cap; once it is reached no
//     exchange or full-conversation request is sent.
//   - A network or parse failure yields exactly one generic assistant
//     message. There is no retry.
//
// # Classification
//
// Input is classified with an ordered intent.Table (see DefaultRules).
// Deployments reorder it with Options.Precedence.
//
// # Usage
//
//	d, err := dispatch.New(client, dispatch.Options{MaxExchanges: 4})
//	out, err := d.Submit(ctx, "Create 3 agents: PM, Developer, and Designer")
//	for _, m := range d.Log().Messages() {
//	    fmt.Println(m.Label(), m.Text)
//	}
package dispatch
