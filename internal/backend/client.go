// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is where `agentroom serve` listens by default.
	DefaultBaseURL = "http://127.0.0.1:5001"

	// DefaultTimeout is the default timeout for request/response calls.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize bounds response bodies.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024
)

// Endpoint paths.
const (
	PathStatus        = "/api/status"
	PathProcess       = "/api/conversation/process"
	PathCreateAgents  = "/api/agents/create"
	PathListAgents    = "/api/agents/list"
	PathExchange      = "/api/conversation/exchange"
	PathFull          = "/api/conversation/full"
	PathReset         = "/api/conversation/reset"
	PathClearThoughts = "/api/thoughts/clear"
	PathThoughtStream = "/api/thoughts/stream"
	PathLearningStats = "/api/learning/stats"
	PathDemo          = "/api/demo/"
	PathSuggestions   = "/api/agents/suggestions"
	PathConvStatus    = "/api/conversation/status"
	PathPreferences   = "/api/learning/preferences"
)

// Error variables for common backend failures.
var (
	// ErrEmptyBaseURL indicates the client has no backend configured.
	ErrEmptyBaseURL = errors.New("backend base URL not configured")

	// ErrUnexpectedStatus is wrapped by every APIError.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrResponseTooLarge indicates the body exceeded the size limit.
	ErrResponseTooLarge = errors.New("response too large")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.Status)
}

// Unwrap lets callers match with errors.Is(err, ErrUnexpectedStatus).
func (e *APIError) Unwrap() error {
	return ErrUnexpectedStatus
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the conversation backend. It is safe for concurrent use.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	streamClient    *http.Client
	maxResponseSize int64
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:         strings.TrimSuffix(baseURL, "/"),
		httpClient:      &http.Client{Timeout: DefaultTimeout},
		streamClient:    &http.Client{}, // no timeout; the stream is context-controlled
		maxResponseSize: MaxResponseSize,
	}
}

// WithBaseURL sets the backend base URL.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

// WithTimeout sets the timeout for request/response calls. The thought
// stream is not affected.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithHTTPClient replaces the request/response HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithMaxResponseSize sets the response body limit.
func (c *Client) WithMaxResponseSize(n int64) *Client {
	if n > 0 {
		c.maxResponseSize = n
	}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL joins the base URL and an endpoint path.
func (c *Client) URL(path string) string {
	return c.baseURL + path
}

// =============================================================================
// ENDPOINTS
// =============================================================================

// Status calls GET /api/status.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var out StatusResponse
	if err := c.do(ctx, http.MethodGet, PathStatus, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Process sends a free-text prompt to POST /api/conversation/process.
func (c *Client) Process(ctx context.Context, req ProcessRequest) (*ProcessResponse, error) {
	var out ProcessResponse
	if err := c.do(ctx, http.MethodPost, PathProcess, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateAgents calls POST /api/agents/create.
func (c *Client) CreateAgents(ctx context.Context, req CreateAgentsRequest) (*CreateAgentsResponse, error) {
	var out CreateAgentsResponse
	if err := c.do(ctx, http.MethodPost, PathCreateAgents, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAgents calls GET /api/agents/list.
func (c *Client) ListAgents(ctx context.Context) (*AgentListResponse, error) {
	var out AgentListResponse
	if err := c.do(ctx, http.MethodGet, PathListAgents, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Exchange requests one round of agent dialogue.
func (c *Client) Exchange(ctx context.Context) (*ExchangeResponse, error) {
	var out ExchangeResponse
	if err := c.do(ctx, http.MethodPost, PathExchange, struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RunFull runs a complete conversation of up to req.MaxExchanges rounds.
func (c *Client) RunFull(ctx context.Context, req FullRequest) (*FullResponse, error) {
	var out FullResponse
	if err := c.do(ctx, http.MethodPost, PathFull, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetConversation calls POST /api/conversation/reset.
func (c *Client) ResetConversation(ctx context.Context) (*AckResponse, error) {
	var out AckResponse
	if err := c.do(ctx, http.MethodPost, PathReset, struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearThoughts asks the backend to drop its thought history.
func (c *Client) ClearThoughts(ctx context.Context) (*AckResponse, error) {
	var out AckResponse
	if err := c.do(ctx, http.MethodPost, PathClearThoughts, struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LearningStats calls GET /api/learning/stats. A backend without a
// learning system answers with only an error field; that is returned as
// stats with Error set, not as a Go error.
func (c *Client) LearningStats(ctx context.Context) (*LearningStats, error) {
	var out LearningStats
	if err := c.do(ctx, http.MethodGet, PathLearningStats, nil, &out); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" && apiErr.Status < 500 {
			return &LearningStats{Error: apiErr.Message}, nil
		}
		return nil, err
	}
	return &out, nil
}

// Demo fetches a demo scenario suggestion by name.
func (c *Client) Demo(ctx context.Context, name string) (*DemoScenario, error) {
	var out DemoScenario
	if err := c.do(ctx, http.MethodGet, PathDemo+url.PathEscape(name), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SuggestAgents asks for team roles suited to a topic.
func (c *Client) SuggestAgents(ctx context.Context, req SuggestionsRequest) (*SuggestionsResponse, error) {
	var out SuggestionsResponse
	if err := c.do(ctx, http.MethodPost, PathSuggestions, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConversationStatus calls GET /api/conversation/status.
func (c *Client) ConversationStatus(ctx context.Context) (*ConversationStatus, error) {
	var out ConversationStatus
	if err := c.do(ctx, http.MethodGet, PathConvStatus, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LearningPreferences calls GET /api/learning/preferences.
func (c *Client) LearningPreferences(ctx context.Context) (*LearningPreferences, error) {
	var out LearningPreferences
	if err := c.do(ctx, http.MethodGet, PathPreferences, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Raw performs a request and returns the undecoded response body. Used by
// the `agentroom api` debugging command.
func (c *Client) Raw(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	if c.baseURL == "" {
		return 0, nil, ErrEmptyBaseURL
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	var rdr io.Reader
	if len(body) > 0 {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), rdr)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.send(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	data, err := c.readBody(resp)
	return resp.StatusCode, data, err
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// do performs one JSON round trip. There is no retry: callers surface a
// single failure message and move on.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	if c.baseURL == "" {
		return ErrEmptyBaseURL
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := c.readBody(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(method, path, resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", path, err)
	}
	return nil
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	logRequest(req)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	logResponse(resp, time.Since(start))
	return resp, nil
}

// readBody reads at most maxResponseSize bytes.
func (c *Client) readBody(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(data)) > c.maxResponseSize {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrResponseTooLarge, c.maxResponseSize)
	}
	return data, nil
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{Method: method, Path: path, Status: status}
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil {
		apiErr.Message = er.Error
		if apiErr.Message == "" {
			apiErr.Message = er.Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
		if len(apiErr.Message) > 200 {
			apiErr.Message = apiErr.Message[:200]
		}
	}
	return apiErr
}

// =============================================================================
// LOGGING (method, path, status and timing only; never bodies)
// =============================================================================

func logRequest(req *http.Request) {
	log.Printf("API Request: %s %s", req.Method, req.URL.Path)
}

func logResponse(resp *http.Response, d time.Duration) {
	log.Printf("API Response: %d %s (%v)", resp.StatusCode, resp.Request.URL.Path, d.Round(time.Millisecond))
}
