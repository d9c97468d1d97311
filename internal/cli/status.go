// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status command handler for agentroom CLI.
//
// Command: status
// Short:   Check the conversation backend
// Aliases: s
//
// Prints Connected or Demo Mode plus the backend's own status fields.

package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/agentroom/internal/backend"
	"github.com/jeranaias/agentroom/internal/dispatch"
)

// StatusTimeout bounds the status check.
const StatusTimeout = 5 * time.Second

// HandleStatus handles the "status" command. An unreachable backend is
// reported as Demo Mode and is not an error.
func HandleStatus(args Args) error {
	cfg, err := ResolveConfig(args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), StatusTimeout)
	defer cancel()
	return runStatus(ctx, os.Stdout, NewClient(cfg), args)
}

// statusClient is the part of backend.Client runStatus needs.
type statusClient interface {
	Status(ctx context.Context) (*backend.StatusResponse, error)
	ConversationStatus(ctx context.Context) (*backend.ConversationStatus, error)
	LearningPreferences(ctx context.Context) (*backend.LearningPreferences, error)
	BaseURL() string
}

func runStatus(ctx context.Context, w io.Writer, c statusClient, args Args) error {
	resp, err := c.Status(ctx)
	label := dispatch.StatusLabel(resp, err)

	if args.Quiet {
		fmt.Fprintln(w, label)
		return nil
	}

	fmt.Fprintln(w, TitleStyle.Render("agentroom status"))
	fmt.Fprintln(w, RenderSeparator(40))
	fmt.Fprintln(w, RenderLabel("Backend")+ValueStyle.Render(c.BaseURL()))
	fmt.Fprintln(w, RenderLabel("API")+RenderStatus(label))

	if err != nil {
		fmt.Fprintln(w, RenderLabel("Error")+DimStyle.Render(err.Error()))
		fmt.Fprintln(w, DimStyle.Render("Start a demo backend with: agentroom serve"))
		return nil
	}

	fmt.Fprintln(w, RenderLabel("Status")+ValueStyle.Render(string(resp.Status)))
	if resp.Message != "" {
		fmt.Fprintln(w, RenderLabel("Message")+ValueStyle.Render(resp.Message))
	}
	if len(resp.Features) > 0 {
		fmt.Fprintln(w, RenderLabel("Features")+ValueStyle.Render(strings.Join(resp.Features, ", ")))
	}

	if args.Verbose {
		printConversation(ctx, w, c)
	}
	return nil
}

// printConversation adds the backend's conversation and learned
// preferences. Either endpoint may be missing on older backends.
func printConversation(ctx context.Context, w io.Writer, c statusClient) {
	if conv, err := c.ConversationStatus(ctx); err == nil {
		if conv.Status == backend.StatusNoConversation {
			fmt.Fprintln(w, RenderLabel("Conversation")+DimStyle.Render("none"))
		} else {
			fmt.Fprintln(w, RenderLabel("Conversation")+ValueStyle.Render(fmt.Sprintf("%s, exchange %d of %d",
				conv.Status, conv.ExchangesCompleted, conv.MaxExchanges)))
			if conv.Topic != "" {
				fmt.Fprintln(w, RenderLabel("Topic")+ValueStyle.Render(conv.Topic))
			}
		}
		if len(conv.Agents) > 0 {
			names := make([]string, 0, len(conv.Agents))
			for _, a := range conv.Agents {
				names = append(names, a.Role)
			}
			fmt.Fprintln(w, RenderLabel("Team")+ValueStyle.Render(strings.Join(names, ", ")))
		}
	} else {
		log.Printf("STATUS_CONVERSATION | err=%v", err)
	}

	prefs, err := c.LearningPreferences(ctx)
	if err != nil || len(prefs.PreferredAgents) == 0 {
		return
	}
	roles := make([]string, 0, len(prefs.PreferredAgents))
	for role := range prefs.PreferredAgents {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool {
		ni, nj := prefs.PreferredAgents[roles[i]], prefs.PreferredAgents[roles[j]]
		if ni != nj {
			return ni > nj
		}
		return roles[i] < roles[j]
	})
	fmt.Fprintln(w, RenderLabel("Preferred")+ValueStyle.Render(strings.Join(roles, ", ")))
}
