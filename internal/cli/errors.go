// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit codes for CLI commands.
//
// Handlers return errors; main decides how to show them and which exit
// code to use.
//
// ERROR HANDLING: Errors must not be silently ignored

package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/jeranaias/agentroom/internal/backend"
	"github.com/jeranaias/agentroom/internal/config"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2
	ExitConfigError   = 3
	ExitNetworkError  = 5
	ExitNotFoundError = 7
	ExitTimeoutError  = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError reports a command invoked with bad arguments.
type UsageError struct {
	Command string
	Reason  string
	Usage   string // e.g. "agentroom api METHOD PATH [JSON]"
}

func (e *UsageError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Command, e.Reason)
	if e.Usage != "" {
		msg += "\nUsage: " + e.Usage
	}
	return msg
}

// NewUsageError creates a UsageError.
func NewUsageError(command, reason, usage string) error {
	return &UsageError{Command: command, Reason: reason, Usage: usage}
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError prints err to stderr.
func DisplayError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, RenderConditional(ErrorStyle, "Error:")+" "+err.Error())

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) || isNetworkError(err) {
		fmt.Fprintln(os.Stderr, DimStyle.Render("Is the backend running? Start one with: agentroom serve"))
	}
}

// HandleErrorAndExit displays err and exits with its code. A nil err
// returns without exiting.
func HandleErrorAndExit(err error) {
	if err == nil {
		return
	}
	DisplayError(err)
	os.Exit(GetExitCode(err))
}

// GetExitCode maps err to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usage *UsageError
	if errors.As(err, &usage) {
		return ExitUsageError
	}

	var verrs config.ValidateErrors
	var verr config.ValidationError
	if errors.As(err, &verrs) || errors.As(err, &verr) {
		return ExitConfigError
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ExitTimeoutError
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == http.StatusNotFound {
			return ExitNotFoundError
		}
		return ExitNetworkError
	}
	if errors.Is(err, backend.ErrEmptyBaseURL) {
		return ExitConfigError
	}
	if isNetworkError(err) {
		return ExitNetworkError
	}
	return ExitGeneralError
}

func isNetworkError(err error) bool {
	var netErr net.Error
	var opErr *net.OpError
	return errors.As(err, &netErr) || errors.As(err, &opErr)
}
