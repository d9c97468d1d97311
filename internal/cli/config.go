// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command handler for agentroom CLI.
//
// Command: config [subcommand]
// Short:   Show and edit configuration
//
// Subcommands:
//   show (default)     Print the effective configuration as TOML
//   path               Print the config file location
//   init [--force]     Write a default config file
//   get KEY            Print one value (e.g. stream.max_retries)
//   set KEY VALUE      Change one value in the config file
//   keys               List every key

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/agentroom/internal/config"
)

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	return runConfig(os.Stdout, args)
}

func runConfig(w io.Writer, args Args) error {
	p := NewArgParser(args.Raw)

	switch args.Subcommand {
	case "", "show":
		cfg, err := ResolveConfig(args)
		if err != nil {
			return err
		}
		path, _ := configPath(args)
		fmt.Fprintln(w, DimStyle.Render("# "+path))
		return highlight(w, cfg.String(), "toml")

	case "path":
		path, err := configPath(args)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, path)
		return nil

	case "init":
		return configInit(w, args)

	case "get":
		key := p.Positional(1)
		if key == "" {
			return NewUsageError("config get", "missing key", "agentroom config get KEY")
		}
		cfg, err := ResolveConfig(args)
		if err != nil {
			return err
		}
		v, err := cfg.Get(key)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, formatValue(v))
		return nil

	case "set":
		key, value := p.Positional(1), strings.Join(p.PositionalFrom(2), " ")
		if key == "" || p.PositionalCount() < 3 {
			return NewUsageError("config set", "missing key or value", "agentroom config set KEY VALUE")
		}
		return configSet(w, args, key, value)

	case "keys":
		for _, k := range config.Keys() {
			fmt.Fprintln(w, k)
		}
		return nil

	default:
		return NewUsageError("config", fmt.Sprintf("unknown subcommand %q", args.Subcommand),
			"agentroom config [show|path|init|get|set|keys]")
	}
}

// configPath is --config when given, else the file Load would read.
func configPath(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	return config.ActivePath()
}

func configInit(w io.Writer, args Args) error {
	path, err := configPath(args)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !args.Force {
		return NewUsageError("config init", path+" already exists", "agentroom config init --force")
	}
	if args.ConfigPath == "" {
		if err := config.EnsureConfigDir(); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	cfg := config.Default()
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		err = config.SaveJSON(cfg, path)
	} else {
		err = config.SaveTOML(cfg, path)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s wrote %s\n", RenderConditional(SuccessStyle, "✓"), path)
	return nil
}

// configSet edits the config file itself, not the environment-adjusted
// view, so AGENTROOM_* overrides are never persisted.
func configSet(w io.Writer, args Args, key, value string) error {
	path, err := configPath(args)
	if err != nil {
		return err
	}

	cfg := config.Default()
	if _, statErr := os.Stat(path); statErr == nil {
		if strings.HasSuffix(strings.ToLower(path), ".json") {
			err = config.LoadJSON(cfg, path)
		} else {
			err = config.LoadTOML(cfg, path)
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
	} else if args.ConfigPath == "" {
		if err := config.EnsureConfigDir(); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := cfg.Set(key, value); err != nil {
		if errors.Is(err, config.ErrUnknownKey) {
			return NewUsageError("config set", err.Error(), "agentroom config keys")
		}
		return err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if strings.HasSuffix(strings.ToLower(path), ".json") {
		err = config.SaveJSON(cfg, path)
	} else {
		err = config.SaveTOML(cfg, path)
	}
	if err != nil {
		return err
	}
	got, _ := cfg.Get(key)
	fmt.Fprintf(w, "%s %s = %s\n", RenderConditional(SuccessStyle, "✓"), key, formatValue(got))
	return nil
}

func formatValue(v interface{}) string {
	if list, ok := v.([]string); ok {
		return strings.Join(list, ",")
	}
	return fmt.Sprint(v)
}
