// agentroom - A terminal front end for multi-agent conversation demos.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/agentroom/internal/cli"
	"github.com/jeranaias/agentroom/internal/config"
	"github.com/jeranaias/agentroom/internal/roster"
	"github.com/jeranaias/agentroom/internal/tabs"
	"github.com/jeranaias/agentroom/internal/ui/chat"
	"github.com/jeranaias/agentroom/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.3.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	// Piped input gets the line REPL instead of a TUI it cannot drive.
	if cmd == cli.CmdTUI && !cli.IsTTY() {
		cmd = cli.CmdChat
	}

	var err error
	switch cmd {
	case cli.CmdTUI:
		err = runTUI(args)
	case cli.CmdChat:
		err = cli.HandleChat(args)
	case cli.CmdServe:
		err = cli.HandleServe(args)
	case cli.CmdStatus:
		err = cli.HandleStatus(args)
	case cli.CmdAPI:
		err = cli.HandleAPI(args)
	case cli.CmdScenarios:
		err = cli.HandleScenarios(args)
	case cli.CmdConfig:
		err = cli.HandleConfig(args)
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout)
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
	case cli.CmdUnknown:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args.Unknown)
		if s := cli.SuggestCommand(args.Unknown); s != "" {
			fmt.Fprintf(os.Stderr, "Did you mean: agentroom %s\n", s)
		}
		fmt.Fprintln(os.Stderr, "Run 'agentroom help' for usage.")
		os.Exit(cli.ExitUsageError)
	}
	cli.HandleErrorAndExit(err)
}

// runTUI starts the TUI interface.
func runTUI(args cli.Args) error {
	cfg, err := cli.ResolveConfig(args)
	if err != nil {
		return err
	}

	// The alt screen owns stdout, so log lines go to a file.
	if err := config.EnsureConfigDir(); err == nil {
		if dir, err := config.ConfigDir(); err == nil {
			if f, err := tea.LogToFile(filepath.Join(dir, "agentroom.log"), "agentroom"); err == nil {
				defer f.Close()
			}
		}
	}

	client := cli.NewClient(cfg)
	d, err := cli.NewDispatcher(cfg, client)
	if err != nil {
		return err
	}

	theme := styles.NewTheme()
	caps := cfg.Features.Capabilities()
	view := roster.NewView(roster.Options{
		PersonalityPreview: cfg.UI.PersonalityPreview,
		ThoughtCapacity:    cfg.UI.AgentThoughtCapacity,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := chat.New(chat.Options{
		Dispatcher: d,
		Tabs:       tabs.Build(caps, tabs.BuildOptions{Theme: theme, Roster: view, Default: cfg.UI.DefaultTab}),
		Stream:     cli.NewStream(cfg, client),
		Theme:      theme,
		Scenarios:  cli.LoadScenarios(cfg),
		UI:         cfg.UI,
		Context:    ctx,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())

	// Hot reload applies only to the file the config was read from.
	watchPath := args.ConfigPath
	if watchPath == "" {
		watchPath, _ = config.ActivePath()
	}
	if watchPath != "" {
		w, err := config.NewWatcher(watchPath, config.DefaultReloadDebounce, func(c *config.Config, err error) {
			p.Send(chat.ConfigReloadedMsg{Config: c, Err: err})
		})
		if err == nil {
			if err := w.Start(ctx); err != nil {
				log.Printf("CONFIG_WATCH | path=%s err=%v", watchPath, err)
			}
			defer w.Close()
		} else {
			log.Printf("CONFIG_WATCH | path=%s err=%v", watchPath, err)
		}
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}
