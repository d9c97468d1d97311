// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// setup.go - Configuration resolution and component wiring shared by the
// TUI, the chat REPL and the other commands.

package cli

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jeranaias/agentroom/internal/backend"
	"github.com/jeranaias/agentroom/internal/config"
	"github.com/jeranaias/agentroom/internal/dispatch"
	"github.com/jeranaias/agentroom/internal/intent"
	"github.com/jeranaias/agentroom/internal/model"
	"github.com/jeranaias/agentroom/internal/scenario"
)

// ResolveConfig loads the configuration for args and applies the global
// flag overrides. The result is also installed as the global config.
//
// A config file that fails to decode is reported as a warning and the
// defaults are used; a file that decodes but fails validation is an error.
func ResolveConfig(args Args) (*config.Config, error) {
	var cfg *config.Config
	if args.ConfigPath != "" {
		c, err := config.LoadFromPath(args.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		c, err := config.Load()
		if c == nil {
			return nil, err
		}
		if err != nil && !args.Quiet {
			fmt.Fprintf(os.Stderr, "%s %v (using defaults)\n", RenderConditional(WarningStyle, "Warning:"), err)
		}
		cfg = c
	}

	if err := applyFlagOverrides(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	config.SetGlobal(cfg)
	return cfg, nil
}

// applyFlagOverrides layers the global flags over the loaded config. Flags
// win over the file and the environment.
func applyFlagOverrides(cfg *config.Config, args Args) error {
	if args.Backend != "" {
		cfg.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(args.Backend), "/")
	}
	if args.Features != "" {
		caps, err := model.ParseCapabilities(args.Features)
		if err != nil {
			return NewUsageError("--features", err.Error(), "--features agents,health,neural,video,thought_stream,full_conversation,learning_stats")
		}
		cfg.Features.SetCapabilities(caps)
	}
	if args.NoStream {
		cfg.Features.SetCapabilities(cfg.Features.Capabilities().Without(model.CapThoughtStream))
	}
	return nil
}

// NewClient creates a backend client for cfg.
func NewClient(cfg *config.Config) *backend.Client {
	return backend.NewClient(cfg.Backend.BaseURL).
		WithTimeout(cfg.Backend.Timeout()).
		WithMaxResponseSize(cfg.Backend.MaxResponseBytes)
}

// NewDispatcher creates the conversation controller for cfg.
func NewDispatcher(cfg *config.Config, b dispatch.Backend) (*dispatch.Dispatcher, error) {
	return dispatch.New(b, dispatch.Options{
		MaxExchanges: cfg.Conversation.MaxExchanges,
		Capabilities: cfg.Features.Capabilities(),
		Rules:        dispatch.DefaultRules(),
		Precedence:   intent.ParseIntents(cfg.Conversation.Precedence),
		LogCapacity:  cfg.Conversation.LogCapacity,
	})
}

// NewStream creates the thought stream consumer for cfg, or nil when the
// capability is off.
func NewStream(cfg *config.Config, client *backend.Client) *backend.ThoughtStream {
	if !cfg.Features.Capabilities().Has(model.CapThoughtStream) {
		return nil
	}
	return backend.NewThoughtStream(client, StreamOptions(cfg.Stream))
}

// StreamOptions converts the [stream] section.
func StreamOptions(sc config.StreamConfig) backend.StreamOptions {
	return backend.StreamOptions{
		Path:           sc.Path,
		InitialBackoff: sc.InitialBackoff(),
		MaxBackoff:     sc.MaxBackoff(),
		Multiplier:     sc.BackoffMultiplier,
		MaxRetries:     sc.MaxRetries,
		Capacity:       sc.LogCapacity,
	}
}

// LoadScenarios returns the built-in presets merged with the configured
// scenario file. A broken file is logged and the presets are kept.
func LoadScenarios(cfg *config.Config) scenario.Set {
	set, err := scenario.Load(cfg.Scenarios.File)
	if err != nil {
		log.Printf("SCENARIOS_LOAD | file=%s err=%v", cfg.Scenarios.File, err)
	}
	return set
}
