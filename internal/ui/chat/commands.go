// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/agentroom/internal/dispatch"
	"github.com/jeranaias/agentroom/internal/tabs"
	"github.com/jeranaias/agentroom/internal/util"
)

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// slashCommand documents one command for /help.
type slashCommand struct {
	Name string
	Args string
	Desc string
}

var slashCommands = []slashCommand{
	{"/topic", "<text>", "set the conversation topic"},
	{"/context", "<text>", "set the conversation context"},
	{"/demo", "[name]", "load a demo scenario, or list them"},
	{"/suggest", "[topic]", "ask the backend which roles suit the topic"},
	{"/reset", "", "reset the conversation"},
	{"/clear-thoughts", "", "clear the thought stream"},
	{"/agents", "", "refresh the agent roster from the backend"},
	{"/tab", "<id>", "switch panel (agents, health, neural, video)"},
	{"/upload", "<path>", "add a video or photo to the analysis panel"},
	{"/analyze", "<id>", "analyze an uploaded file"},
	{"/delete", "<id>", "remove an uploaded file"},
	{"/train", "", "start neural network training"},
	{"/connect", "", "toggle the watch connection on the health panel"},
	{"/help", "", "show this list"},
	{"/quit", "", "exit"},
}

// commandHelp renders the command list as markdown.
func commandHelp() string {
	var b strings.Builder
	b.WriteString("**Commands**\n")
	for _, c := range slashCommands {
		usage := c.Name
		if c.Args != "" {
			usage += " " + c.Args
		}
		fmt.Fprintf(&b, "\n- `%s` %s", usage, c.Desc)
	}
	b.WriteString("\n\nAnything else is sent to the agent system.")
	return b.String()
}

// runCommand executes a line starting with "/".
func (m Model) runCommand(line string) (Model, tea.Cmd) {
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "topic":
		if arg == "" {
			return m.setNotice("Usage: /topic <text>")
		}
		m.dispatcher.SetTopic(arg)
		m.dirty = true
		return m.setNotice("Topic set")

	case "context":
		if arg == "" {
			return m.setNotice("Usage: /context <text>")
		}
		m.dispatcher.SetContext(arg)
		return m.setNotice("Context set")

	case "demo":
		return m.loadDemo(arg)

	case "suggest":
		return m, suggestCmd(m.ctx, m.dispatcher, arg)

	case "reset":
		return m.reset()

	case "clear-thoughts":
		if m.stream == nil {
			return m.setNotice("The thought stream is disabled")
		}
		return m, clearThoughtsCmd(m.ctx, m.stream)

	case "agents":
		return m, refreshAgentsCmd(m.ctx, m.dispatcher)

	case "tab":
		if !m.tabs.SwitchTo(strings.ToLower(arg)) {
			return m.setNotice(fmt.Sprintf("Unknown panel %q (available: %s)", arg, strings.Join(m.tabs.IDs(), ", ")))
		}
		return m, nil

	case "upload":
		return m.upload(arg)

	case "analyze":
		return m.videoAction(arg, "analyze")

	case "delete":
		return m.videoAction(arg, "delete")

	case "train":
		np, ok := m.tabs.Neural()
		if !ok {
			return m.setNotice("The neural panel is disabled")
		}
		m.tabs.SwitchTo(tabs.IDNeural)
		if np.Training() {
			return m.setNotice("Training already in progress")
		}
		return m, np.StartTraining()

	case "connect":
		hp, ok := m.tabs.Health()
		if !ok {
			return m.setNotice("The health panel is disabled")
		}
		m.tabs.SwitchTo(tabs.IDHealth)
		hp.ToggleConnection()
		return m.setNotice(hp.ConnectionLabel())

	case "help":
		m.postSystem(commandHelp())
		return m, nil

	case "quit", "exit":
		return m.quit()

	default:
		return m.setNotice(fmt.Sprintf("Unknown command /%s. Type /help for the list.", name))
	}
}

func (m Model) loadDemo(name string) (Model, tea.Cmd) {
	if name == "" {
		m.postSystem("**Demo scenarios:** " + strings.Join(m.scenarios.Names(), ", ") + "\n\nLoad one with `/demo <name>`.")
		return m, nil
	}
	return m, fetchScenarioCmd(m.ctx, m.dispatcher, name, m.scenarios)
}

func (m Model) handleScenarioFetched(msg ScenarioFetchedMsg) (Model, tea.Cmd) {
	if msg.Err != nil {
		return m.setNotice(fmt.Sprintf("Unknown scenario %q", msg.Name))
	}
	m.dispatcher.LoadScenario(msg.Scenario)
	m.dirty = true
	return m.setNotice("Loaded scenario " + msg.Name)
}

func (m Model) handleSuggestionsPosted(msg SuggestionsPostedMsg) (Model, tea.Cmd) {
	switch {
	case errors.Is(msg.Err, dispatch.ErrNoTopic):
		return m.setNotice("Set a topic first: /suggest <topic> or /topic <text>")
	case errors.Is(msg.Err, dispatch.ErrStale):
		return m, nil
	case msg.Err != nil:
		log.Printf("TUI_SUGGEST | err=%v", msg.Err)
		return m.setNotice("Could not fetch role suggestions")
	}
	m.dirty = true
	return m, nil
}

func (m Model) upload(path string) (Model, tea.Cmd) {
	vp, ok := m.tabs.Video()
	if !ok {
		return m.setNotice("The video panel is disabled")
	}
	if path == "" {
		return m.setNotice("Usage: /upload <path>")
	}
	m.tabs.SwitchTo(tabs.IDVideo)

	f, cmd, err := vp.AddFile(path)
	if err != nil {
		return m.setNotice(fmt.Sprintf("Upload failed: %v", err))
	}
	m, notice := m.setNotice(fmt.Sprintf("Uploaded %s (%s), analyzing...", f.Name, util.FormatFileSize(f.Size)))
	return m, tea.Batch(cmd, notice)
}

func (m Model) videoAction(arg, action string) (Model, tea.Cmd) {
	vp, ok := m.tabs.Video()
	if !ok {
		return m.setNotice("The video panel is disabled")
	}
	id, err := strconv.Atoi(arg)
	if err != nil {
		return m.setNotice(fmt.Sprintf("Usage: /%s <id>", action))
	}
	m.tabs.SwitchTo(tabs.IDVideo)

	if action == "delete" {
		if err := vp.Delete(id); err != nil {
			return m.setNotice(err.Error())
		}
		return m.setNotice(fmt.Sprintf("Deleted file %d", id))
	}
	cmd, err := vp.Analyze(id)
	if err != nil {
		return m.setNotice(err.Error())
	}
	return m, cmd
}
