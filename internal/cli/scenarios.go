// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// scenarios.go - Demo scenario listing.
//
// Command: scenarios [name]
// Aliases: scenario, demo

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/jeranaias/agentroom/internal/roster"
	"github.com/jeranaias/agentroom/internal/scenario"
)

// HandleScenarios handles the "scenarios" command.
func HandleScenarios(args Args) error {
	cfg, err := ResolveConfig(args)
	if err != nil {
		return err
	}
	return runScenarios(os.Stdout, LoadScenarios(cfg), args.Subcommand)
}

func runScenarios(w io.Writer, set scenario.Set, name string) error {
	if name == "" {
		fmt.Fprintln(w, TitleStyle.Render("Demo scenarios"))
		fmt.Fprintln(w, RenderSeparator(40))
		for _, n := range set.Names() {
			sc, _ := set.Get(n)
			fmt.Fprintln(w, RenderLabel(n)+ValueStyle.Render(sc.Topic))
		}
		fmt.Fprintln(w, DimStyle.Render("\nShow one with: agentroom scenarios NAME"))
		return nil
	}

	sc, err := set.Get(name)
	if err != nil {
		return fmt.Errorf("%w (available: %v)", err, set.Names())
	}
	fmt.Fprintln(w, TitleStyle.Render(sc.Topic))
	fmt.Fprintln(w, RenderLabel("Context")+ValueStyle.Render(sc.Context))
	if len(sc.Roles) > 0 {
		fmt.Fprintln(w, SectionStyle.Render("Roles"))
		for _, r := range sc.Roles {
			fmt.Fprintf(w, "  %s %s %s\n", roster.IconFor(r.Role), ValueStyle.Render(r.Role), DimStyle.Render("("+r.Expertise+")"))
		}
	}
	fmt.Fprintln(w, SectionStyle.Render("Try"))
	fmt.Fprintf(w, "  %s\n", sc.Suggestion)
	return nil
}
