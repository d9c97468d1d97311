// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode conversation REPL.
//
// USABILITY: Markdown rendering and history for the non-TUI path
//
// Command: chat
// Aliases: repl
//
// Examples:
//   agentroom chat
//   agentroom chat --backend http://demo.local:5001
//   printf 'Create 3 agents: PM, Dev, QA\nnext\n' | agentroom chat -q
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /topic TEXT         Set the conversation topic
//   /context TEXT       Set the conversation context
//   /demo [name]        Load a demo scenario
//   /suggest [topic]    Suggest roles for the topic
//   /next, /n           Run one exchange
//   /full, /f           Run the full conversation
//   /agents             Show the team
//   /status, /s         Check the backend
//   /reset              Reset the conversation
//   /quit, /q           Exit chat
//   Ctrl+C              Cancel the current request
//   Ctrl+D              Exit chat

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/jeranaias/agentroom/internal/config"
	"github.com/jeranaias/agentroom/internal/dispatch"
	"github.com/jeranaias/agentroom/internal/model"
	"github.com/jeranaias/agentroom/internal/roster"
	"github.com/jeranaias/agentroom/internal/scenario"
	"github.com/jeranaias/agentroom/internal/ui/styles"
	"github.com/jeranaias/agentroom/internal/util"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	senderStyles = map[model.Sender]lipgloss.Style{
		model.SenderUser:      lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true),
		model.SenderAssistant: lipgloss.NewStyle().Foreground(styles.Purple).Bold(true),
		model.SenderBroker:    lipgloss.NewStyle().Foreground(styles.Amber).Bold(true),
	}
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineReader is where the REPL reads input from.
type lineReader interface {
	ReadInput(prompt string) (string, error)
}

// ChatCLI provides input history and line editing for the REPL.
// USABILITY: Supports arrow keys for history navigation and line editing.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI and loads the saved history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	c := &ChatCLI{line: line, historyFile: filepath.Join(dir, "chat_history")}
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
	return c
}

// ReadInput reads one line. Non-empty input is added to the history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves the history and restores the terminal.
func (c *ChatCLI) Close() {
	// SECURITY: history may contain conversation text, owner-only
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			c.line.WriteHistory(f)
			f.Close()
		}
	}
	c.line.Close()
}

// =============================================================================
// SESSION STATE
// =============================================================================

// ChatSession is one REPL run over a dispatcher.
type ChatSession struct {
	d         *dispatch.Dispatcher
	scenarios scenario.Set
	out       io.Writer
	quiet     bool
	markdown  *glamour.TermRenderer

	start    time.Time
	requests int

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewChatSession creates a session writing to out. Markdown rendering is
// used only when wrap is positive.
func NewChatSession(d *dispatch.Dispatcher, set scenario.Set, out io.Writer, quiet bool, wrap int) *ChatSession {
	s := &ChatSession{d: d, scenarios: set, out: out, quiet: quiet, start: time.Now()}
	if wrap > 0 {
		if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(wrap)); err == nil {
			s.markdown = r
		}
	}
	return s
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat handles the "chat" command.
func HandleChat(args Args) error {
	cfg, err := ResolveConfig(args)
	if err != nil {
		return err
	}
	client := NewClient(cfg)
	d, err := NewDispatcher(cfg, client)
	if err != nil {
		return err
	}

	tty := IsTTY() && IsStdoutTTY()
	wrap := 0
	if tty && ColorsEnabled() {
		wrap = GetTerminalWidth() - 4
	}
	sess := NewChatSession(d, LoadScenarios(cfg), os.Stdout, args.Quiet, wrap)

	if !args.Quiet {
		ctx, cancel := context.WithTimeout(context.Background(), StatusTimeout)
		label := d.CheckStatus(ctx)
		cancel()
		sess.printWelcome(client.BaseURL(), label)
	}

	in := NewChatCLI()
	defer in.Close()

	// First Ctrl+C during a request cancels it. At the prompt liner turns
	// Ctrl+C into ErrPromptAborted instead.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	go func() {
		for range sigs {
			if sess.cancelCurrent() {
				fmt.Fprintln(os.Stderr, "\n"+WarningStyle.Render("[Cancelled]"))
			}
		}
	}()

	prompt := ""
	if tty {
		prompt = "agentroom> "
	}
	return sess.Run(context.Background(), in, prompt)
}

// Run reads lines until EOF or a quit command.
func (s *ChatSession) Run(ctx context.Context, in lineReader, prompt string) error {
	for {
		input, err := in.ReadInput(prompt)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, liner.ErrPromptAborted) {
				return fmt.Errorf("read input: %w", err)
			}
			s.printExitSummary()
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			s.printExitSummary()
			return nil
		}

		if strings.HasPrefix(input, "/") {
			if !s.handleSlashCommand(ctx, input) {
				s.printExitSummary()
				return nil
			}
			continue
		}

		s.request(ctx, func(ctx context.Context) (*dispatch.Outcome, error) {
			return s.d.Submit(ctx, input)
		})
	}
}

// request runs one dispatcher call under a cancellable context and
// prints what it produced.
func (s *ChatSession) request(ctx context.Context, call func(context.Context) (*dispatch.Outcome, error)) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
		cancel()
	}()

	s.requests++
	out, err := call(ctx)
	if err != nil {
		s.printError(err)
		return
	}
	s.printMessages(out.Messages)
}

// cancelCurrent cancels the in-flight request, if any.
func (s *ChatSession) cancelCurrent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return false
	}
	s.cancel()
	s.cancel = nil
	return true
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand runs one command and reports whether the REPL should
// keep going.
func (s *ChatSession) handleSlashCommand(ctx context.Context, input string) bool {
	name, arg, _ := strings.Cut(strings.TrimPrefix(input, "/"), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "quit", "q", "exit":
		return false

	case "help", "h", "?":
		s.printHelp()

	case "topic":
		s.d.SetTopic(arg)
		fmt.Fprintln(s.out, DimStyle.Render("Topic: "+orNone(arg)))

	case "context":
		s.d.SetContext(arg)
		fmt.Fprintln(s.out, DimStyle.Render("Context: "+orNone(arg)))

	case "demo":
		if arg == "" {
			fmt.Fprintln(s.out, DimStyle.Render("Scenarios: "+strings.Join(s.scenarios.Names(), ", ")))
			return true
		}
		sc, err := s.d.FetchScenario(ctx, arg, s.scenarios)
		if err != nil {
			s.printError(err)
			return true
		}
		s.printMessages([]model.Message{s.d.LoadScenario(sc)})

	case "suggest":
		msg, err := s.d.SuggestRoles(ctx, arg)
		if errors.Is(err, dispatch.ErrNoTopic) {
			s.printError(errors.New("no topic set (use /suggest TOPIC or /topic TEXT)"))
			return true
		}
		if err != nil {
			s.printError(err)
			return true
		}
		s.printMessages([]model.Message{msg})

	case "next", "n":
		s.request(ctx, func(ctx context.Context) (*dispatch.Outcome, error) {
			return s.d.Trigger(ctx, dispatch.IntentExchange)
		})

	case "full", "f":
		s.request(ctx, func(ctx context.Context) (*dispatch.Outcome, error) {
			return s.d.Trigger(ctx, dispatch.IntentFullConversation)
		})

	case "agents":
		s.printAgents()

	case "status", "s":
		s.request(ctx, func(ctx context.Context) (*dispatch.Outcome, error) {
			return s.d.Trigger(ctx, dispatch.IntentStatus)
		})

	case "reset":
		if err := s.d.Reset(ctx); err != nil {
			s.printError(err)
		}
		fmt.Fprintln(s.out, DimStyle.Render("Conversation reset."))

	default:
		s.printError(fmt.Errorf("unknown command /%s (try /help)", name))
	}
	return true
}

// =============================================================================
// OUTPUT
// =============================================================================

func (s *ChatSession) printMessages(msgs []model.Message) {
	for _, m := range msgs {
		style, ok := senderStyles[m.Sender]
		if !ok {
			style = senderStyles[model.SenderAssistant]
		}
		fmt.Fprintln(s.out, RenderConditional(style, m.Label()+":"))

		text := m.Text
		if s.markdown != nil && m.Sender != model.SenderUser {
			if rendered, err := s.markdown.Render(text); err == nil {
				fmt.Fprint(s.out, rendered)
				continue
			}
		}
		fmt.Fprintln(s.out, text)
		fmt.Fprintln(s.out)
	}
}

func (s *ChatSession) printError(err error) {
	fmt.Fprintf(s.out, "%s %v\n", RenderConditional(ErrorStyle, "[Error]"), err)
}

func (s *ChatSession) printAgents() {
	agents := s.d.Agents()
	if len(agents) == 0 {
		fmt.Fprintln(s.out, DimStyle.Render("No agents yet. Try: Create 3 agents: Product Manager, Developer, and Designer"))
		return
	}
	sess := s.d.Session()
	fmt.Fprintln(s.out, SectionStyle.Render(fmt.Sprintf("Team (%s)", sess.ProgressLabel())))
	for _, a := range agents {
		fmt.Fprintf(s.out, "  %s %s %s\n", roster.IconFor(a.Role), ValueStyle.Render(a.Role), DimStyle.Render("("+a.Expertise+")"))
	}
}

func (s *ChatSession) printWelcome(backendURL, label string) {
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, RenderConditional(welcomeStyle, "agentroom chat"))
	fmt.Fprintln(s.out, RenderSeparator(30))
	fmt.Fprintln(s.out, RenderLabel("Backend")+ValueStyle.Render(backendURL))
	fmt.Fprintln(s.out, RenderLabel("API")+RenderStatus(label))
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, DimStyle.Render("Type a message and press Enter. Commands: /help, /quit"))
	fmt.Fprintln(s.out)
}

func (s *ChatSession) printHelp() {
	cmds := [][2]string{
		{"/topic TEXT", "Set the conversation topic"},
		{"/context TEXT", "Set the conversation context"},
		{"/demo [name]", "Load a demo scenario"},
		{"/suggest [topic]", "Suggest roles for the topic"},
		{"/next, /n", "Run one exchange"},
		{"/full, /f", "Run the full conversation"},
		{"/agents", "Show the team"},
		{"/status, /s", "Check the backend"},
		{"/reset", "Reset the conversation"},
		{"/quit, /q", "Exit chat"},
	}
	width := 0
	for _, c := range cmds {
		width = max(width, util.StringWidth(c[0]))
	}
	fmt.Fprintln(s.out, SectionStyle.Render("Commands"))
	for _, c := range cmds {
		fmt.Fprintf(s.out, "  %s  %s\n", RenderConditional(commandStyle, util.PadRight(c[0], width)), c[1])
	}
	fmt.Fprintln(s.out, DimStyle.Render("Anything else is sent to the conversation, e.g. \"help\" or \"start\"."))
}

func (s *ChatSession) printExitSummary() {
	if s.quiet {
		return
	}
	sess := s.d.Session()
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, SectionStyle.Render("Session summary"))
	fmt.Fprintln(s.out, RenderLabel("Requests")+ValueStyle.Render(fmt.Sprint(s.requests)))
	fmt.Fprintln(s.out, RenderLabel("Messages")+ValueStyle.Render(fmt.Sprint(s.d.Log().Len())))
	fmt.Fprintln(s.out, RenderLabel("Progress")+ValueStyle.Render(sess.ProgressLabel()))
	fmt.Fprintln(s.out, RenderLabel("Duration")+ValueStyle.Render(time.Since(s.start).Round(time.Second).String()))
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
