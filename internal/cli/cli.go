// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing for agentroom.
//
// CLI: Comprehensive help and examples for all commands
package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.3.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdServe
	CmdStatus
	CmdAPI
	CmdScenarios
	CmdConfig
	CmdVersion
	CmdHelp
	CmdUnknown
)

var commandNames = map[Command]string{
	CmdTUI:       "tui",
	CmdChat:      "chat",
	CmdServe:     "serve",
	CmdStatus:    "status",
	CmdAPI:       "api",
	CmdScenarios: "scenarios",
	CmdConfig:    "config",
	CmdVersion:   "version",
	CmdHelp:      "help",
	CmdUnknown:   "unknown",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Backend    string // --backend URL
	ConfigPath string // --config PATH
	Verbose    bool
	Quiet      bool
	NoStream   bool   // --no-stream
	Features   string // --features LIST

	// Command-specific
	Subcommand string
	Method     string // api
	Path       string // api
	Body       string // api; "-" reads stdin
	Host       string // serve
	Port       int    // serve
	Force      bool   // config init

	// Unknown is the unrecognized command word, kept for suggestions.
	Unknown string

	// Raw args (remaining after the command word)
	Raw []string
}

const usageText = `agentroom - multi-agent conversation room for the terminal

Talk to a team of AI agents brokered by a conversation backend. Ask for a
team, let them exchange ideas, and watch their thoughts stream in.

Usage:
  agentroom                        Start the TUI (default on a terminal)
  agentroom chat                   Line-oriented chat (default when piped)
  agentroom serve [--port N]       Run the demo backend
  agentroom status, s              Check the backend
  agentroom api METHOD PATH [JSON] Call an endpoint and print the reply
  agentroom scenarios [name]       List or show demo scenarios
  agentroom config [subcommand]    Configuration
  agentroom version                Version information

Config Commands:
  agentroom config show            Print the effective configuration
  agentroom config path            Print the config file location
  agentroom config init [--force]  Write a default config file
  agentroom config get KEY         Print one value (e.g. stream.max_retries)
  agentroom config set KEY VALUE   Change one value in the config file
  agentroom config keys            List every key

Serve Flags:
  --host HOST      Listen address (default from [server].host)
  --port N         Listen port (default from [server].port)

Global Flags:
  --backend URL    Backend base URL (overrides backend.base_url)
  --config PATH    Use a specific config file
  --features LIST  Enabled capabilities, e.g. agents,health,thought_stream
  --no-stream      Disable the thought stream
  -q, --quiet      Minimal output
  -v, --verbose    Debug output

Examples:
  agentroom serve --port 5001 &
  agentroom --backend http://127.0.0.1:5001
  agentroom chat --features agents,full_conversation
  agentroom api GET /api/agents
  agentroom api POST /api/conversation/process '{"message":"help"}'
  echo "Create 3 agents: PM, Developer, Designer" | agentroom

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "agentroom version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go version: %s\n", runtime.Version())
}

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses argv (without the program name) and returns the command
// and its arguments. Global flags may appear anywhere.
func ParseArgs(argv []string) (Command, Args) {
	remaining, args := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, args
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	args.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, args

	case "chat", "repl":
		return CmdChat, args

	case "serve", "server":
		parseServeArgs(&args, remaining)
		return CmdServe, args

	case "status", "s":
		return CmdStatus, args

	case "api":
		parseAPIArgs(&args, remaining)
		return CmdAPI, args

	case "scenarios", "scenario", "demo":
		if len(remaining) > 0 {
			args.Subcommand = strings.ToLower(remaining[0])
		}
		return CmdScenarios, args

	case "config":
		parseConfigArgs(&args, remaining)
		return CmdConfig, args

	case "version", "--version":
		return CmdVersion, args

	case "help", "-h", "--help":
		return CmdHelp, args

	default:
		args.Unknown = cmd
		return CmdUnknown, args
	}
}

// parseGlobalFlags extracts global flags from args and returns the rest.
func parseGlobalFlags(argv []string) ([]string, Args) {
	var remaining []string
	var args Args

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		name, value, hasValue := strings.Cut(arg, "=")

		switch name {
		case "-q", "--quiet":
			args.Quiet = true
		case "-v", "--verbose":
			args.Verbose = true
		case "--no-stream":
			args.NoStream = true
		case "--backend", "--config", "--features":
			if !hasValue {
				if i+1 >= len(argv) {
					remaining = append(remaining, arg)
					continue
				}
				i++
				value = argv[i]
			}
			switch name {
			case "--backend":
				args.Backend = value
			case "--config":
				args.ConfigPath = value
			case "--features":
				args.Features = value
			}
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, args
}

func parseServeArgs(args *Args, remaining []string) {
	p := NewArgParser(remaining)
	args.Host = p.Flag("host")
	args.Port = p.FlagIntOrDefault("port", 0)
}

// parseAPIArgs reads "METHOD PATH [JSON...]". A lone path means GET.
func parseAPIArgs(args *Args, remaining []string) {
	switch len(remaining) {
	case 0:
		return
	case 1:
		args.Method = "GET"
		args.Path = remaining[0]
		return
	}
	args.Method = strings.ToUpper(remaining[0])
	args.Path = remaining[1]
	args.Body = strings.Join(remaining[2:], " ")
}

func parseConfigArgs(args *Args, remaining []string) {
	p := NewArgParser(remaining)
	args.Subcommand = strings.ToLower(p.Subcommand())
	args.Force = p.BoolFlag("force")
}
