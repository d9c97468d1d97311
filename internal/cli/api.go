// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// api.go - Raw endpoint calls for debugging a backend.
//
// Command: api METHOD PATH [JSON]
//
// Examples:
//   agentroom api GET /api/status
//   agentroom api /api/agents                  (GET is implied)
//   agentroom api POST /api/conversation/process '{"message":"help"}'
//   echo '{"message":"hi"}' | agentroom api POST /api/conversation/process -

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
)

const apiUsage = "agentroom api METHOD PATH [JSON|-]"

// HandleAPI handles the "api" command.
func HandleAPI(args Args) error {
	cfg, err := ResolveConfig(args)
	if err != nil {
		return err
	}
	body := args.Body
	if body == "-" {
		data, err := io.ReadAll(io.LimitReader(os.Stdin, 1<<20))
		if err != nil {
			return fmt.Errorf("read request body: %w", err)
		}
		body = string(data)
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.Timeout())
	defer cancel()
	return runAPI(ctx, os.Stdout, NewClient(cfg), args.Method, args.Path, body, args.Verbose)
}

// rawCaller is the part of backend.Client runAPI needs.
type rawCaller interface {
	Raw(ctx context.Context, method, path string, body []byte) (int, []byte, error)
}

func runAPI(ctx context.Context, w io.Writer, c rawCaller, method, path, body string, verbose bool) error {
	if method == "" || path == "" {
		return NewUsageError("api", "missing method or path", apiUsage)
	}
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodDelete:
	default:
		return NewUsageError("api", "unsupported method "+method, apiUsage)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var payload []byte
	if body = strings.TrimSpace(body); body != "" {
		if !json.Valid([]byte(body)) {
			return NewUsageError("api", "request body is not valid JSON", apiUsage)
		}
		payload = []byte(body)
	}

	status, data, err := c.Raw(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if verbose {
		fmt.Fprintln(w, DimStyle.Render(fmt.Sprintf("%s %s -> %d %s", method, path, status, http.StatusText(status))))
	}

	if err := highlight(w, prettyJSON(data), "json"); err != nil {
		return err
	}
	if status >= 400 {
		return fmt.Errorf("%s %s: HTTP %d", method, path, status)
	}
	return nil
}

// prettyJSON indents data, or returns it unchanged when it is not JSON.
func prettyJSON(data []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return string(data)
	}
	return buf.String()
}

// highlight writes source with syntax highlighting when colors are on,
// plain otherwise. A trailing newline is always written.
func highlight(w io.Writer, source, language string) error {
	source = strings.TrimRight(source, "\n")
	if !ColorsEnabled() {
		_, err := fmt.Fprintln(w, source)
		return err
	}

	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		_, err = fmt.Fprintln(w, source)
		return err
	}
	if err := formatter.Format(w, style, iterator); err != nil {
		return fmt.Errorf("highlight: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
