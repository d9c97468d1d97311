// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - Demo backend command.
//
// Command: serve [--host HOST] [--port N]
// Aliases: server
//
// Runs every conversation endpoint plus the SSE thought stream until
// SIGINT or SIGTERM, then shuts down gracefully.

package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeranaias/agentroom/internal/config"
	"github.com/jeranaias/agentroom/internal/model"
	"github.com/jeranaias/agentroom/internal/server"
)

// ShutdownTimeout bounds graceful shutdown of the demo backend.
const ShutdownTimeout = 10 * time.Second

// HandleServe handles the "serve" command.
func HandleServe(args Args) error {
	cfg, err := ResolveConfig(args)
	if err != nil {
		return err
	}
	sc := serverConfig(cfg, args)
	if sc.Port < 1 || sc.Port > 65535 {
		return NewUsageError("serve", fmt.Sprintf("invalid port %d", sc.Port), "agentroom serve --port 5001")
	}

	srv := server.NewServer(sc).
		WithScenarios(LoadScenarios(cfg)).
		WithLearning(cfg.Features.Capabilities().Has(model.CapLearningStats))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	if !args.Quiet {
		fmt.Fprintf(os.Stderr, "%s demo backend on http://%s (Ctrl+C to stop)\n",
			RenderConditional(SuccessStyle, "agentroom"), sc.ListenAddr())
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil {
		return err
	}
	log.Printf("SERVER_STOPPED | addr=%s", sc.ListenAddr())
	return nil
}

// serverConfig is the [server] section with --host and --port applied.
func serverConfig(cfg *config.Config, args Args) config.ServerConfig {
	sc := cfg.Server
	if args.Host != "" {
		sc.Host = args.Host
	}
	if args.Port != 0 {
		sc.Port = args.Port
	}
	return sc
}
