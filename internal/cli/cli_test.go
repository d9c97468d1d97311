// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line interface parsing and execution.
//
// This test file covers argument parsing and the command handlers that can
// run without a terminal: api, status, scenarios, config and chat.
package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeranaias/agentroom/internal/backend"
	"github.com/jeranaias/agentroom/internal/config"
	"github.com/jeranaias/agentroom/internal/dispatch"
	"github.com/jeranaias/agentroom/internal/model"
	"github.com/jeranaias/agentroom/internal/scenario"
	"github.com/jeranaias/agentroom/internal/server"
)

func TestMain(m *testing.M) {
	ForceColorsEnabled(false)
	os.Exit(m.Run())
}

// newTestBackend starts a demo backend and returns a client for it.
func newTestBackend(t *testing.T) *backend.Client {
	t.Helper()
	cfg := config.Default().Server
	cfg.SimulateLatency = false
	cfg.RateLimitRPS = 1000
	cfg.RateLimitBurst = 1000
	ts := httptest.NewServer(server.NewServer(cfg).Handler())
	t.Cleanup(ts.Close)
	return backend.NewClient(ts.URL)
}

// =============================================================================
// PARSE TESTS (cli.go)
// =============================================================================

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name     string
		argv     []string
		wantCmd  Command
		validate func(*testing.T, Args)
	}{
		{name: "no args is tui", argv: nil, wantCmd: CmdTUI},
		{name: "chat", argv: []string{"chat"}, wantCmd: CmdChat},
		{name: "repl alias", argv: []string{"repl"}, wantCmd: CmdChat},
		{name: "status alias", argv: []string{"s"}, wantCmd: CmdStatus},
		{name: "version flag", argv: []string{"--version"}, wantCmd: CmdVersion},
		{name: "help flag", argv: []string{"-h"}, wantCmd: CmdHelp},
		{
			name:    "serve with host and port",
			argv:    []string{"serve", "--host", "0.0.0.0", "--port=6000"},
			wantCmd: CmdServe,
			validate: func(t *testing.T, a Args) {
				if a.Host != "0.0.0.0" || a.Port != 6000 {
					t.Errorf("host/port = %q/%d, want 0.0.0.0/6000", a.Host, a.Port)
				}
			},
		},
		{
			name:    "api lone path is GET",
			argv:    []string{"api", "/api/agents"},
			wantCmd: CmdAPI,
			validate: func(t *testing.T, a Args) {
				if a.Method != "GET" || a.Path != "/api/agents" {
					t.Errorf("method/path = %q %q", a.Method, a.Path)
				}
			},
		},
		{
			name:    "api with body",
			argv:    []string{"api", "post", "/api/conversation/process", `{"message":"help"}`},
			wantCmd: CmdAPI,
			validate: func(t *testing.T, a Args) {
				if a.Method != "POST" {
					t.Errorf("Method = %q, want POST", a.Method)
				}
				if a.Body != `{"message":"help"}` {
					t.Errorf("Body = %q", a.Body)
				}
			},
		},
		{
			name:    "scenarios with name",
			argv:    []string{"demo", "Design"},
			wantCmd: CmdScenarios,
			validate: func(t *testing.T, a Args) {
				if a.Subcommand != "design" {
					t.Errorf("Subcommand = %q, want design", a.Subcommand)
				}
			},
		},
		{
			name:    "config init force",
			argv:    []string{"config", "init", "--force"},
			wantCmd: CmdConfig,
			validate: func(t *testing.T, a Args) {
				if a.Subcommand != "init" || !a.Force {
					t.Errorf("Subcommand/Force = %q/%v", a.Subcommand, a.Force)
				}
			},
		},
		{
			name:    "global flags anywhere",
			argv:    []string{"--backend", "http://x:1", "status", "-q", "--features=agents,health", "--config=/tmp/a.toml", "--no-stream"},
			wantCmd: CmdStatus,
			validate: func(t *testing.T, a Args) {
				if a.Backend != "http://x:1" {
					t.Errorf("Backend = %q", a.Backend)
				}
				if !a.Quiet || !a.NoStream {
					t.Errorf("Quiet/NoStream = %v/%v", a.Quiet, a.NoStream)
				}
				if a.Features != "agents,health" || a.ConfigPath != "/tmp/a.toml" {
					t.Errorf("Features/ConfigPath = %q/%q", a.Features, a.ConfigPath)
				}
			},
		},
		{
			name:    "unknown command",
			argv:    []string{"stauts"},
			wantCmd: CmdUnknown,
			validate: func(t *testing.T, a Args) {
				if a.Unknown != "stauts" {
					t.Errorf("Unknown = %q", a.Unknown)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := ParseArgs(tt.argv)
			if cmd != tt.wantCmd {
				t.Fatalf("ParseArgs(%v) cmd = %v, want %v", tt.argv, cmd, tt.wantCmd)
			}
			if tt.validate != nil {
				tt.validate(t, args)
			}
		})
	}
}

// =============================================================================
// ARG PARSER TESTS (args.go)
// =============================================================================

func TestArgParser(t *testing.T) {
	p := NewArgParser([]string{"set", "stream.max_retries", "9", "--port", "8080", "--force", "--dry=false", "-"})

	if got := p.Subcommand(); got != "set" {
		t.Errorf("Subcommand() = %q, want set", got)
	}
	if got := p.Positional(1); got != "stream.max_retries" {
		t.Errorf("Positional(1) = %q", got)
	}
	if got := p.PositionalCount(); got != 4 {
		t.Errorf("PositionalCount() = %d, want 4", got)
	}
	if got := p.Positional(3); got != "-" {
		t.Errorf("Positional(3) = %q, want -", got)
	}
	if got := p.PositionalFrom(9); got != nil {
		t.Errorf("PositionalFrom(9) = %v, want nil", got)
	}
	if n, err := p.FlagInt("port"); err != nil || n != 8080 {
		t.Errorf("FlagInt(port) = %d, %v", n, err)
	}
	if !p.BoolFlag("force") {
		t.Error("BoolFlag(force) should be true")
	}
	if p.BoolFlag("dry") {
		t.Error("BoolFlag(dry) should be false")
	}
	if got := p.FlagOrDefault("host", "localhost"); got != "localhost" {
		t.Errorf("FlagOrDefault(host) = %q", got)
	}
}

// =============================================================================
// SUGGEST TESTS (suggest.go)
// =============================================================================

func TestSuggestCommand(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"stauts", "status"},
		{"serv", "serve"},
		{"chatt", "chat"},
		{"CONFG", "config"},
		{"chat", ""},
		{"x", ""},
		{"xylophone", ""},
	}
	for _, tt := range tests {
		if got := SuggestCommand(tt.input); got != tt.want {
			t.Errorf("SuggestCommand(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// =============================================================================
// ERROR TESTS (errors.go)
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"usage", NewUsageError("api", "bad", ""), ExitUsageError},
		{"validation", fmt.Errorf("invalid config: %w", config.ValidateErrors{{Field: "server.port", Message: "bad"}}), ExitConfigError},
		{"timeout", fmt.Errorf("status: %w", context.DeadlineExceeded), ExitTimeoutError},
		{"not found", &backend.APIError{Status: 404}, ExitNotFoundError},
		{"server error", &backend.APIError{Status: 500}, ExitNetworkError},
		{"empty base url", backend.ErrEmptyBaseURL, ExitConfigError},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// =============================================================================
// SETUP TESTS (setup.go)
// =============================================================================

func TestApplyFlagOverrides(t *testing.T) {
	cfg := config.Default()
	err := applyFlagOverrides(cfg, Args{Backend: " http://demo.local:5001/ ", Features: "agents,thought_stream", NoStream: true})
	if err != nil {
		t.Fatalf("applyFlagOverrides: %v", err)
	}
	if cfg.Backend.BaseURL != "http://demo.local:5001" {
		t.Errorf("BaseURL = %q", cfg.Backend.BaseURL)
	}
	caps := cfg.Features.Capabilities()
	if !caps.Has(model.CapAgents) {
		t.Error("agents capability should be on")
	}
	if caps.Has(model.CapThoughtStream) {
		t.Error("--no-stream should remove thought_stream")
	}
	if caps.Has(model.CapVideo) {
		t.Error("video was not requested")
	}

	err = applyFlagOverrides(config.Default(), Args{Features: "agents,telepathy"})
	var usage *UsageError
	if !errors.As(err, &usage) {
		t.Errorf("unknown feature: err = %v, want UsageError", err)
	}
}

// =============================================================================
// API TESTS (api.go)
// =============================================================================

func TestRunAPI(t *testing.T) {
	client := newTestBackend(t)
	ctx := context.Background()

	var out bytes.Buffer
	if err := runAPI(ctx, &out, client, "GET", "api/status", "", true); err != nil {
		t.Fatalf("runAPI GET: %v", err)
	}
	if !strings.Contains(out.String(), "GET /api/status -> 200") {
		t.Errorf("verbose line missing: %q", out.String())
	}
	if !strings.Contains(out.String(), `"status"`) {
		t.Errorf("status body missing: %q", out.String())
	}

	out.Reset()
	if err := runAPI(ctx, &out, client, "POST", "/api/conversation/process", `{"message":"help"}`, false); err != nil {
		t.Fatalf("runAPI POST: %v", err)
	}
	if !strings.Contains(out.String(), "\n  ") {
		t.Errorf("response should be indented: %q", out.String())
	}

	if err := runAPI(ctx, io.Discard, client, "GET", "/api/nowhere", "", false); err == nil || !strings.Contains(err.Error(), "HTTP 404") {
		t.Errorf("missing route: err = %v, want HTTP 404", err)
	}

	usageCases := []struct {
		method, path, body string
	}{
		{"", "/api/status", ""},
		{"PATCH", "/api/status", ""},
		{"POST", "/api/conversation/process", "{not json"},
	}
	for _, c := range usageCases {
		var usage *UsageError
		if err := runAPI(ctx, io.Discard, client, c.method, c.path, c.body, false); !errors.As(err, &usage) {
			t.Errorf("runAPI(%q, %q, %q) err = %v, want UsageError", c.method, c.path, c.body, err)
		}
	}
}

func TestHighlight_PlainWhenColorsOff(t *testing.T) {
	var out bytes.Buffer
	if err := highlight(&out, "[server]\nport = 5001\n\n", "toml"); err != nil {
		t.Fatal(err)
	}
	if out.String() != "[server]\nport = 5001\n" {
		t.Errorf("highlight = %q", out.String())
	}
}

// =============================================================================
// STATUS TESTS (status.go)
// =============================================================================

func TestRunStatus(t *testing.T) {
	client := newTestBackend(t)

	var out bytes.Buffer
	if err := runStatus(context.Background(), &out, client, Args{}); err != nil {
		t.Fatalf("runStatus: %v", err)
	}
	for _, want := range []string{"agentroom status", client.BaseURL(), "Connected"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("status output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunStatus_VerboseShowsConversation(t *testing.T) {
	client := newTestBackend(t)
	ctx := context.Background()

	var out bytes.Buffer
	if err := runStatus(ctx, &out, client, Args{Verbose: true}); err != nil {
		t.Fatalf("runStatus: %v", err)
	}
	if !strings.Contains(out.String(), "none") {
		t.Errorf("no conversation should print none:\n%s", out.String())
	}

	if _, err := client.Process(ctx, backend.ProcessRequest{Message: "create 2 agents: developer, designer"}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	out.Reset()
	if err := runStatus(ctx, &out, client, Args{Verbose: true}); err != nil {
		t.Fatalf("runStatus: %v", err)
	}
	for _, want := range []string{"active, exchange 0 of 6", "Developer, Designer", "Designer, Developer"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("verbose status missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunStatus_DemoModeWhenUnreachable(t *testing.T) {
	ts := httptest.NewServer(nil)
	url := ts.URL
	ts.Close()

	var out bytes.Buffer
	err := runStatus(context.Background(), &out, backend.NewClient(url), Args{Quiet: true})
	if err != nil {
		t.Fatalf("unreachable backend should not be an error: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "Demo Mode" {
		t.Errorf("quiet status = %q, want Demo Mode", got)
	}
}

// =============================================================================
// SCENARIO TESTS (scenarios.go)
// =============================================================================

func TestRunScenarios(t *testing.T) {
	set := scenario.Builtin()

	var out bytes.Buffer
	if err := runScenarios(&out, set, ""); err != nil {
		t.Fatal(err)
	}
	for _, name := range set.Names() {
		if !strings.Contains(out.String(), name) {
			t.Errorf("listing missing %q", name)
		}
	}

	out.Reset()
	if err := runScenarios(&out, set, "project"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Project Timeline Adjustment") {
		t.Errorf("scenario detail missing topic:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Create 3 agents") {
		t.Errorf("scenario detail missing suggestion:\n%s", out.String())
	}

	if err := runScenarios(io.Discard, set, "nope"); err == nil {
		t.Error("unknown scenario should fail")
	}
}

// =============================================================================
// CONFIG TESTS (config.go)
// =============================================================================

func TestRunConfig_InitGetSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentroom.toml")
	args := func(raw ...string) Args {
		a := Args{ConfigPath: path, Raw: raw, Quiet: true}
		if len(raw) > 0 {
			a.Subcommand = raw[0]
		}
		for _, r := range raw {
			if r == "--force" {
				a.Force = true
			}
		}
		return a
	}

	var out bytes.Buffer
	if err := runConfig(&out, args("init")); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	var usage *UsageError
	if err := runConfig(io.Discard, args("init")); !errors.As(err, &usage) {
		t.Errorf("second init: err = %v, want UsageError", err)
	}
	if err := runConfig(io.Discard, args("init", "--force")); err != nil {
		t.Errorf("init --force: %v", err)
	}

	out.Reset()
	if err := runConfig(&out, args("set", "stream.max_retries", "9")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !strings.Contains(out.String(), "stream.max_retries = 9") {
		t.Errorf("set output = %q", out.String())
	}

	out.Reset()
	if err := runConfig(&out, args("get", "stream.max_retries")); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "9" {
		t.Errorf("get = %q, want 9", got)
	}

	if err := runConfig(io.Discard, args("set", "bogus.key", "1")); !errors.As(err, &usage) {
		t.Errorf("unknown key: err = %v, want UsageError", err)
	}
	if err := runConfig(io.Discard, args("set", "stream.path", "relative")); err == nil {
		t.Error("invalid value should fail validation")
	}
	if err := runConfig(io.Discard, args("get")); !errors.As(err, &usage) {
		t.Errorf("get without key: err = %v, want UsageError", err)
	}
	if err := runConfig(io.Discard, args("frobnicate")); !errors.As(err, &usage) {
		t.Errorf("unknown subcommand: err = %v, want UsageError", err)
	}

	out.Reset()
	if err := runConfig(&out, args("path")); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != path {
		t.Errorf("path = %q, want %q", out.String(), path)
	}
}

// =============================================================================
// CHAT TESTS (chat.go)
// =============================================================================

// scriptReader replays lines, then reports EOF.
type scriptReader struct {
	lines []string
}

func (r *scriptReader) ReadInput(string) (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func newTestChat(t *testing.T, maxExchanges int) (*ChatSession, *dispatch.Dispatcher, *bytes.Buffer) {
	t.Helper()
	opts := dispatch.DefaultOptions()
	opts.MaxExchanges = maxExchanges
	d, err := dispatch.New(newTestBackend(t), opts)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	return NewChatSession(d, scenario.Builtin(), &out, false, 0), d, &out
}

func TestChatSession_Conversation(t *testing.T) {
	s, d, out := newTestChat(t, 2)

	in := &scriptReader{lines: []string{
		"/topic Launch plan",
		"Create 3 agents: Product Manager, Developer, and Designer",
		"/agents",
		"/next",
		"/full",
		"quit",
		"never read",
	}}
	if err := s.Run(t.Context(), in, ""); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := out.String()
	for _, want := range []string{"Topic: Launch plan", "You:", "Product Manager", "Team (Exchange 0 of 2)", "Session summary"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if len(in.lines) != 1 {
		t.Errorf("quit should stop reading, %d lines left", len(in.lines))
	}

	sess := d.Session()
	if sess.Topic != "Launch plan" {
		t.Errorf("Topic = %q", sess.Topic)
	}
	if !sess.Concluded {
		t.Errorf("session should be concluded after /full, count=%d", sess.ExchangeCount)
	}
}

func TestChatSession_Commands(t *testing.T) {
	s, d, out := newTestChat(t, 4)

	in := &scriptReader{lines: []string{
		"/demo",
		"/demo design",
		"/demo atlantis",
		"/help",
		"/bogus",
		"/reset",
	}}
	if err := s.Run(t.Context(), in, ""); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := out.String()
	for _, want := range []string{"Scenarios: ", "Demo Scenario:", "[Error]", "/full, /f", "unknown command /bogus", "Conversation reset."} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if d.Log().Len() != 0 {
		t.Errorf("log should be empty after /reset, has %d", d.Log().Len())
	}
	if sess := d.Session(); sess.Topic != "" {
		t.Errorf("reset should clear the topic, got %q", sess.Topic)
	}
}

func TestChatSession_SuggestAndServedDemo(t *testing.T) {
	cfg := config.Default().Server
	cfg.SimulateLatency = false
	srv := server.NewServer(cfg).WithScenarios(scenario.Set{"launch": {Topic: "Served launch", Context: "Served context"}})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	d, err := dispatch.New(backend.NewClient(ts.URL), dispatch.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	s := NewChatSession(d, scenario.Builtin(), &out, true, 0)

	in := &scriptReader{lines: []string{
		"/suggest",
		"/demo launch",
		"/suggest",
		"/demo design",
	}}
	if err := s.Run(t.Context(), in, ""); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := out.String()
	for _, want := range []string{"no topic set", "Served launch", "Suggested Team", "Try: \"Create 2 agents: Project Manager, Technical Specialist\""} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	design, _ := scenario.Get("design")
	if sess := d.Session(); sess.Topic != design.Topic {
		t.Errorf("unserved preset should load locally, topic = %q", sess.Topic)
	}
}

func TestChatSession_QuietSkipsSummary(t *testing.T) {
	s, _, out := newTestChat(t, 4)
	s.quiet = true

	if err := s.Run(t.Context(), &scriptReader{lines: []string{"/q"}}, ""); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "Session summary") {
		t.Errorf("quiet mode printed a summary:\n%s", out.String())
	}
}

func TestChatSession_CancelCurrent(t *testing.T) {
	s, _, _ := newTestChat(t, 4)
	if s.cancelCurrent() {
		t.Error("nothing in flight, cancelCurrent should report false")
	}

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	if !s.cancelCurrent() {
		t.Error("cancelCurrent should report true with a request in flight")
	}
	if ctx.Err() == nil {
		t.Error("request context should be cancelled")
	}
}
