// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/agentroom/internal/backend"
	"github.com/jeranaias/agentroom/internal/config"
	"github.com/jeranaias/agentroom/internal/dispatch"
	"github.com/jeranaias/agentroom/internal/intent"
	"github.com/jeranaias/agentroom/internal/model"
	"github.com/jeranaias/agentroom/internal/scenario"
	"github.com/jeranaias/agentroom/internal/tabs"
	"github.com/jeranaias/agentroom/internal/ui/styles"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// StatusCheckTimeout bounds the startup API status check.
	StatusCheckTimeout = 5 * time.Second

	// NoticeDuration is how long a status bar notice stays up.
	NoticeDuration = 4 * time.Second

	// InputCharLimit caps a single prompt.
	InputCharLimit = 4096
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// =============================================================================
// CHAT MODEL
// =============================================================================

// Options wires a Model.
type Options struct {
	Dispatcher *dispatch.Dispatcher

	// Tabs is the panel manager. Nil builds one from the dispatcher's
	// capabilities.
	Tabs *tabs.Manager

	// Stream is the thought stream consumer, nil when the capability is off.
	// The model runs it from Init until the program context ends.
	Stream *backend.ThoughtStream

	Theme     *styles.Theme
	Scenarios scenario.Set
	UI        config.UIConfig

	// Context bounds every backend call. Nil means Background.
	Context context.Context
}

// Model is the Bubble Tea model for the agentroom TUI.
type Model struct {
	dispatcher *dispatch.Dispatcher
	tabs       *tabs.Manager
	stream     *backend.ThoughtStream
	scenarios  scenario.Set
	theme      *styles.Theme
	ui         config.UIConfig
	md         *markdown

	ctx    context.Context
	cancel context.CancelFunc

	// Dimensions
	width  int
	height int
	layout layout
	ready  bool

	// UI Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	progress progress.Model
	help     help.Model
	keys     KeyMap

	// Conversation view state
	logVersion uint64
	dirty      bool
	pending    int // dispatcher calls not yet answered

	// Status
	apiStatus    string
	streamState  backend.StreamState
	streamOn     bool
	retryAt      time.Time
	retryAttempt int
	notice       string
	noticeID     int
	showHelp     bool
	quitting     bool
}

// New creates the model.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)

	manager := opts.Tabs
	if manager == nil {
		manager = tabs.Build(opts.Dispatcher.Capabilities(), tabs.BuildOptions{Theme: theme, Default: opts.UI.DefaultTab})
	}
	scenarios := opts.Scenarios
	if scenarios == nil {
		scenarios = scenario.Builtin()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Describe a project, ask for agents, or type /help"
	ti.CharLimit = InputCharLimit
	ti.PromptStyle = theme.InputPrompt
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())

	h := help.New()
	h.Styles.ShortKey = theme.ShortcutKey
	h.Styles.ShortDesc = theme.ShortcutDesc
	h.Styles.FullKey = theme.ShortcutKey
	h.Styles.FullDesc = theme.ShortcutDesc

	return Model{
		dispatcher: opts.Dispatcher,
		tabs:       manager,
		stream:     opts.Stream,
		scenarios:  scenarios,
		theme:      theme,
		ui:         opts.UI,
		md:         newMarkdown(theme.IsDark),
		ctx:        ctx,
		cancel:     cancel,
		input:      ti,
		spinner:    sp,
		progress:   bar,
		help:       h,
		keys:       DefaultKeyMap(),
		apiStatus:  "Checking...",
		streamOn:   opts.Stream != nil,
		dirty:      true,
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the status check, the panel timers and the thought stream.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		checkStatusCmd(m.ctx, m.dispatcher),
		m.tabs.Init(),
	}
	if m.stream != nil {
		cmds = append(cmds, runStream(m.ctx, m.stream), waitForStream(m.stream.Updates()))
	}
	return tea.Batch(cmds...)
}

// Update handles messages and refreshes the conversation viewport when the
// log changed.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := m.update(msg)
	m.syncViewport()
	return m, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SubmitResultMsg:
		return m.handleSubmitResult(msg)

	case ResetDoneMsg:
		return m.handleResetDone(msg)

	case StatusCheckedMsg:
		m.apiStatus = msg.Label
		return m, nil

	case ScenarioFetchedMsg:
		return m.handleScenarioFetched(msg)

	case SuggestionsPostedMsg:
		return m.handleSuggestionsPosted(msg)

	case AgentsRefreshedMsg:
		if msg.Err != nil {
			if errors.Is(msg.Err, dispatch.ErrStale) {
				return m, nil
			}
			log.Printf("TUI_AGENTS_REFRESH | err=%v", msg.Err)
			return m.setNotice("Could not refresh agents")
		}
		return m, m.renderAgents(msg.Agents)

	case StreamUpdateMsg:
		return m.handleStreamUpdate(msg)

	case StreamClosedMsg:
		m.streamOn = false
		if msg.Err != nil && !errors.Is(msg.Err, context.Canceled) {
			log.Printf("TUI_STREAM_CLOSED | err=%v", msg.Err)
		}
		return m, nil

	case retryTickMsg:
		if m.streamState == backend.StateReconnecting && time.Now().Before(m.retryAt) {
			return m, retryTick()
		}
		return m, nil

	case ThoughtsClearedMsg:
		if msg.Err != nil {
			log.Printf("TUI_CLEAR_THOUGHTS | err=%v", msg.Err)
			return m.setNotice("Could not clear thoughts")
		}
		return m.setNotice("Thoughts cleared")

	case ConfigReloadedMsg:
		return m.handleConfigReload(msg)

	case noticeExpiredMsg:
		if msg.id == m.noticeID {
			m.notice = ""
		}
		return m, nil

	case spinner.TickMsg:
		if m.pending == 0 && !m.dispatcher.Processing() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	default:
		// Panel timers and input blink.
		var cmds []tea.Cmd
		cmds = append(cmds, m.tabs.Update(msg))
		var inputCmd tea.Cmd
		m.input, inputCmd = m.input.Update(msg)
		cmds = append(cmds, inputCmd)
		return m, tea.Batch(cmds...)
	}
}

// View renders the TUI.
func (m Model) View() string {
	return m.render()
}

// =============================================================================
// LAYOUT
// =============================================================================

// layout is the size of each region, computed on resize.
type layout struct {
	chatWidth   int
	chatHeight  int
	panelWidth  int
	panelHeight int
	sideBySide  bool
}

// Fixed rows around the body: header (3, bordered), progress (1), input
// (2, top border) and status bar (1).
const chromeHeight = 7

// sideBySideMinWidth is the narrowest terminal that shows the active panel
// beside the conversation instead of below it.
const sideBySideMinWidth = 100

func computeLayout(width, height int, hasPanels bool) layout {
	body := max(4, height-chromeHeight)
	if !hasPanels {
		return layout{chatWidth: width, chatHeight: body}
	}
	if width >= sideBySideMinWidth {
		chat := width * 3 / 5
		return layout{
			chatWidth:   chat,
			chatHeight:  body,
			panelWidth:  width - chat - 1,
			panelHeight: body,
			sideBySide:  true,
		}
	}
	panel := body / 3
	return layout{
		chatWidth:   width,
		chatHeight:  body - panel,
		panelWidth:  width,
		panelHeight: panel,
	}
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.layout = computeLayout(msg.Width, msg.Height, len(m.tabs.Panels()) > 0)

	if !m.ready {
		m.viewport = viewport.New(m.layout.chatWidth, m.layout.chatHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.layout.chatWidth
		m.viewport.Height = m.layout.chatHeight
	}
	m.input.Width = max(10, msg.Width-6)
	m.progress.Width = max(10, min(40, msg.Width/3))
	m.help.Width = msg.Width
	m.dirty = true
	return m, nil
}

// syncViewport re-renders the log after it changed and scrolls to the
// newest message.
func (m *Model) syncViewport() {
	if !m.ready {
		return
	}
	version := m.dispatcher.Log().Version()
	if version == m.logVersion && !m.dirty {
		return
	}
	m.viewport.SetContent(m.renderMessages(m.layout.chatWidth))
	if version != m.logVersion {
		m.viewport.GotoBottom()
	}
	m.logVersion = version
	m.dirty = false
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.showHelp {
		if key.Matches(msg, m.keys.Quit) {
			return m.quit()
		}
		// Any key closes the overlay.
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Help) && m.input.Value() == "":
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.NextTab):
		m.tabs.Next()
		return m, nil

	case key.Matches(msg, m.keys.PrevTab):
		m.tabs.Prev()
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Exchange):
		return m.trigger(dispatch.IntentExchange)

	case key.Matches(msg, m.keys.RunFull):
		if !m.dispatcher.Capabilities().Has(model.CapFullConversation) {
			return m.setNotice("Full conversation is disabled")
		}
		if sess := m.dispatcher.Session(); !sess.CanRunFull() {
			return m.setNotice("Conversation completed. Reset to start a new one.")
		}
		return m.trigger(dispatch.IntentFullConversation)

	case key.Matches(msg, m.keys.Retry):
		if m.stream == nil || m.stream.State() != backend.StateOffline {
			return m, nil
		}
		m.stream.Retry()
		return m.setNotice("Reconnecting thought stream...")

	case key.Matches(msg, m.keys.Copy):
		return m.copyLastResponse()

	case key.Matches(msg, m.keys.Reset):
		return m.reset()

	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// ACTIONS
// =============================================================================

// submit sends the input line, or runs it as a slash command. Enter is
// ignored while a request is in flight.
func (m Model) submit() (Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.dispatcher.Processing() {
		return m, nil
	}
	m.input.Reset()

	if strings.HasPrefix(text, "/") {
		return m.runCommand(text)
	}

	m.pending++
	// The user message is appended inside Submit; the spinner ticks keep
	// syncViewport polling until it shows.
	return m, tea.Batch(submitCmd(m.ctx, m.dispatcher, text), m.spinner.Tick)
}

func (m Model) trigger(in intent.Intent) (Model, tea.Cmd) {
	if m.dispatcher.Processing() {
		return m, nil
	}
	m.pending++
	return m, tea.Batch(triggerCmd(m.ctx, m.dispatcher, in), m.spinner.Tick)
}

func (m Model) reset() (Model, tea.Cmd) {
	finish := m.dispatcher.BeginReset()
	m.dirty = true
	return m, tea.Batch(m.renderAgents(nil), resetCmd(m.ctx, finish))
}

func (m Model) quit() (Model, tea.Cmd) {
	m.quitting = true
	m.cancel()
	return m, tea.Quit
}

func (m Model) copyLastResponse() (Model, tea.Cmd) {
	msg, ok := m.dispatcher.Log().LastFrom(model.SenderAssistant)
	if !ok {
		return m.setNotice("Nothing to copy yet")
	}
	if err := writeClipboard(msg.Text); err != nil {
		log.Printf("TUI_CLIPBOARD | err=%v", err)
		return m.setNotice("Clipboard unavailable")
	}
	return m.setNotice("Copied last response")
}

// setNotice shows text in the status bar until NoticeDuration passes or a
// newer notice replaces it.
func (m Model) setNotice(text string) (Model, tea.Cmd) {
	m.noticeID++
	m.notice = text
	id := m.noticeID
	return m, tea.Tick(NoticeDuration, func(time.Time) tea.Msg { return noticeExpiredMsg{id: id} })
}

// postSystem appends a local system message to the conversation.
func (m Model) postSystem(text string) {
	m.dispatcher.Log().Append(model.NewMessage(model.SenderSystem, text))
}

func (m Model) renderAgents(agents []model.Agent) tea.Cmd {
	ap, ok := m.tabs.Agents()
	if !ok {
		return nil
	}
	return ap.RenderAgents(agents)
}

// =============================================================================
// RESULT HANDLERS
// =============================================================================

func (m Model) handleSubmitResult(msg SubmitResultMsg) (Model, tea.Cmd) {
	m.pending = max(0, m.pending-1)

	switch {
	case errors.Is(msg.Err, dispatch.ErrStale), errors.Is(msg.Err, dispatch.ErrEmptyMessage):
		return m, nil
	case errors.Is(msg.Err, dispatch.ErrBusy):
		return m.setNotice("Still working on the previous request")
	case msg.Err != nil:
		log.Printf("TUI_SUBMIT | err=%v", msg.Err)
		return m.setNotice("Request failed")
	}

	if out := msg.Outcome; out != nil && out.AgentsChanged {
		return m, m.renderAgents(out.Agents)
	}
	return m, nil
}

// handleResetDone only reports; the roster was cleared when the reset began.
func (m Model) handleResetDone(msg ResetDoneMsg) (Model, tea.Cmd) {
	m.dirty = true
	text := "Conversation reset"
	if msg.Err != nil {
		text = "Conversation reset locally; backend reset failed"
	}
	return m.setNotice(text)
}

func (m Model) handleStreamUpdate(msg StreamUpdateMsg) (Model, tea.Cmd) {
	u := msg.Update
	m.streamState = u.State
	cmds := []tea.Cmd{waitForStream(m.stream.Updates())}

	ap, hasAgents := m.tabs.Agents()
	switch {
	case u.Thought != nil:
		if hasAgents {
			ap.SetThoughts(m.stream.Thoughts())
			if u.Thought.HasAgent() {
				ap.Roster().AddThought(*u.Thought.AgentID, u.Thought.Message)
			}
		}
	case u.Cleared:
		if hasAgents {
			ap.SetThoughts(nil)
		}
	case u.State == backend.StateReconnecting:
		m.retryAt = time.Now().Add(u.Delay)
		m.retryAttempt = u.Attempt
		cmds = append(cmds, retryTick())
	}
	if hasAgents {
		ap.SetStreamState(u.State.String())
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleConfigReload(msg ConfigReloadedMsg) (Model, tea.Cmd) {
	if msg.Err != nil {
		log.Printf("TUI_CONFIG_RELOAD | err=%v", msg.Err)
		return m.setNotice("Config reload failed; keeping current settings")
	}
	cfg := msg.Config
	m.dispatcher.SetMaxExchanges(cfg.Conversation.MaxExchanges)
	m.ui.RenderMarkdown = cfg.UI.RenderMarkdown
	m.ui.ShowTimestamps = cfg.UI.ShowTimestamps
	m.dirty = true
	if err := m.dispatcher.SetPrecedence(intent.ParseIntents(cfg.Conversation.Precedence)); err != nil {
		log.Printf("TUI_CONFIG_RELOAD | precedence_err=%v", err)
		return m.setNotice(fmt.Sprintf("Config reloaded; precedence ignored: %v", err))
	}
	log.Printf("TUI_CONFIG_RELOAD | max_exchanges=%d markdown=%t", cfg.Conversation.MaxExchanges, cfg.UI.RenderMarkdown)
	return m.setNotice("Configuration reloaded")
}

// =============================================================================
// COMMANDS
// =============================================================================

func submitCmd(ctx context.Context, d *dispatch.Dispatcher, text string) tea.Cmd {
	return func() tea.Msg {
		out, err := d.Submit(ctx, text)
		return SubmitResultMsg{Outcome: out, Err: err}
	}
}

func triggerCmd(ctx context.Context, d *dispatch.Dispatcher, in intent.Intent) tea.Cmd {
	return func() tea.Msg {
		out, err := d.Trigger(ctx, in)
		return SubmitResultMsg{Outcome: out, Err: err}
	}
}

func resetCmd(ctx context.Context, finish func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return ResetDoneMsg{Err: finish(ctx)}
	}
}

func fetchScenarioCmd(ctx context.Context, d *dispatch.Dispatcher, name string, local scenario.Set) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, StatusCheckTimeout)
		defer cancel()
		sc, err := d.FetchScenario(ctx, name, local)
		return ScenarioFetchedMsg{Name: name, Scenario: sc, Err: err}
	}
}

func suggestCmd(ctx context.Context, d *dispatch.Dispatcher, topic string) tea.Cmd {
	return func() tea.Msg {
		_, err := d.SuggestRoles(ctx, topic)
		return SuggestionsPostedMsg{Err: err}
	}
}

func checkStatusCmd(ctx context.Context, d *dispatch.Dispatcher) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, StatusCheckTimeout)
		defer cancel()
		return StatusCheckedMsg{Label: d.CheckStatus(ctx)}
	}
}

func refreshAgentsCmd(ctx context.Context, d *dispatch.Dispatcher) tea.Cmd {
	return func() tea.Msg {
		agents, err := d.RefreshAgents(ctx)
		return AgentsRefreshedMsg{Agents: agents, Err: err}
	}
}

func clearThoughtsCmd(ctx context.Context, s *backend.ThoughtStream) tea.Cmd {
	return func() tea.Msg {
		return ThoughtsClearedMsg{Err: s.Clear(ctx)}
	}
}

// runStream blocks in Run for the life of the program.
func runStream(ctx context.Context, s *backend.ThoughtStream) tea.Cmd {
	return func() tea.Msg {
		return StreamClosedMsg{Err: s.Run(ctx)}
	}
}

// waitForStream delivers the next stream update. It is re-armed after each
// StreamUpdateMsg.
func waitForStream(ch <-chan backend.StreamUpdate) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return nil
		}
		return StreamUpdateMsg{Update: u}
	}
}

type retryTickMsg struct{}

// retryTick refreshes the reconnect countdown once a second.
func retryTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return retryTickMsg{} })
}
