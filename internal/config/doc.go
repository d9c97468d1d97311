// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for agentroom.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, validation, and live reload.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - BackendConfig: Where the conversation backend lives and how to talk to it
//   - StreamConfig: Thought stream reconnect policy (bounded exponential backoff)
//   - ConversationConfig: Exchange cap and classifier precedence
//   - FeaturesConfig: The capability flag set (which demo panels are enabled)
//   - ServerConfig: Settings for the built-in demo backend
//   - Watcher: fsnotify based reload of the config file
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (AGENTROOM_*)
//   - ~/.agentroom/config.toml
//   - ~/.agentroom/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := backend.NewClient(cfg.Backend.BaseURL)
package config
