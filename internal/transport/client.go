// Package transport implements the streamable HTTP JSON-RPC transport used to
// talk to an MCP gateway: initialize handshake, request/response correlation
// by id, SSE response reassembly, tools/list and tools/call.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mcpgate/mcpgate/internal/schema"
)

const (
	protocolVersion = "2024-11-05"

	sessionHeader = "Mcp-Session-Id"

	defaultTimeoutConnection = 10 * time.Second
	defaultTimeoutExecution  = 60 * time.Second
)

// Config holds the connection parameters for one gateway endpoint.
type Config struct {
	URL           string
	AuthToken     string
	ClientName    string
	ClientVersion string

	// TimeoutConnection bounds the handshake and catalog requests;
	// TimeoutExecution bounds tool calls. Both fall back to defaults when zero.
	TimeoutConnection time.Duration
	TimeoutExecution  time.Duration

	// HTTPClient overrides the underlying client, mainly for tests.
	HTTPClient *http.Client
}

// Client manages JSON-RPC communication with a single MCP gateway over
// streamable HTTP. Concurrent calls are safe: each carries its own
// correlation id and its own HTTP round trip.
type Client struct {
	cfg        Config
	httpClient *http.Client

	nextID       atomic.Int64
	lastActivity atomic.Int64 // unix nanos

	mu        sync.Mutex
	sessionID string
	connected bool
}

// NewClient returns an unconnected client for the given gateway.
func NewClient(cfg Config) *Client {
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	if cfg.TimeoutConnection <= 0 {
		cfg.TimeoutConnection = defaultTimeoutConnection
	}
	if cfg.TimeoutExecution <= 0 {
		cfg.TimeoutExecution = defaultTimeoutExecution
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

// Connect performs the initialize handshake and stores the server-issued
// session id. On any failure the client stays disconnected. Reconnecting
// starts a fresh correlation id sequence.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	c.sessionID = ""
	c.connected = false
	c.mu.Unlock()
	c.nextID.Store(0)

	params := map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]any{},
		"clientInfo": map[string]any{
			"name":    c.cfg.ClientName,
			"version": c.cfg.ClientVersion,
		},
	}
	resp, headers, err := c.roundTrip(ctx, "initialize", params, c.cfg.TimeoutConnection)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: handshake timed out after %s", ErrConnection, c.cfg.TimeoutConnection)
		}
		return err
	}
	if resp.Error != nil {
		return &ProtocolError{Reason: fmt.Sprintf("initialize rejected (code %d): %s", resp.Error.Code, resp.Error.Message)}
	}

	var capabilities struct {
		ProtocolVersion string `json:"protocolVersion"`
	}
	if err := json.Unmarshal(resp.Result, &capabilities); err != nil || capabilities.ProtocolVersion == "" {
		return &ProtocolError{Reason: "incomplete handshake response", Fragment: string(resp.Result)}
	}

	sessionID := headers.Get(sessionHeader)
	if sessionID == "" {
		return &ProtocolError{Reason: "handshake response missing " + sessionHeader + " header"}
	}

	c.mu.Lock()
	c.sessionID = sessionID
	c.connected = true
	c.mu.Unlock()

	// The initialized notification is fire-and-forget; the session is already live.
	if err := c.notify(ctx, "notifications/initialized"); err != nil {
		slog.Debug("mcp: initialized notification failed", "err", err)
	}

	slog.Debug("mcp: session initialized", "session", sessionID)
	return nil
}

// Connected reports whether a handshake has completed since the last Disconnect.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// SessionID returns the server-issued session identifier, or "".
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// LastActivity returns the time of the last successful wire exchange.
func (c *Client) LastActivity() time.Time {
	n := c.lastActivity.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// ListTools returns the gateway's tool catalog in declared order.
func (c *Client) ListTools(ctx context.Context) ([]schema.ToolDescriptor, error) {
	if !c.Connected() {
		return nil, ErrNotConnected
	}
	resp, _, err := c.roundTrip(ctx, "tools/list", nil, c.cfg.TimeoutConnection)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: tools/list timed out", ErrConnection)
		}
		return nil, err
	}
	if resp.Error != nil {
		return nil, &RemoteToolError{Code: resp.Error.Code, Message: resp.Error.Message}
	}
	var result struct {
		Tools []schema.ToolDescriptor `json:"tools"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, &ProtocolError{Reason: "malformed tools/list result", Fragment: string(resp.Result)}
	}
	return result.Tools, nil
}

// CallTool invokes a named tool on the gateway and returns its normalized
// text output. The execution timeout is independent of the connection timeout.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	if !c.Connected() {
		return "", ErrNotConnected
	}
	if args == nil {
		args = map[string]any{}
	}
	params := map[string]any{
		"name":      name,
		"arguments": args,
	}
	resp, _, err := c.roundTrip(ctx, "tools/call", params, c.cfg.TimeoutExecution)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %q exceeded %s", ErrToolTimeout, name, c.cfg.TimeoutExecution)
		}
		return "", err
	}
	if resp.Error != nil {
		return "", &RemoteToolError{Code: resp.Error.Code, Message: resp.Error.Message}
	}
	return normalizeResult(resp.Result)
}

// Disconnect sends a best-effort session termination notice and releases the
// session. Idempotent: safe to call repeatedly and before a successful
// Connect; at most one termination notice reaches the wire per session.
func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	sessionID := c.sessionID
	c.sessionID = ""
	c.connected = false
	c.mu.Unlock()

	if sessionID == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.cfg.URL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set(sessionHeader, sessionID)
	if c.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AuthToken)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("mcp: session termination notice failed", "err", err)
		return nil
	}
	io.Copy(io.Discard, resp.Body) //nolint:errcheck
	resp.Body.Close()
	slog.Debug("mcp: session terminated", "session", sessionID)
	return nil
}

// ---------------------------------------------------------------------------
// JSON-RPC plumbing
// ---------------------------------------------------------------------------

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

// roundTrip posts one JSON-RPC request and returns the reply correlated to
// its id, reassembling SSE bodies when the gateway streams the response.
func (c *Client) roundTrip(ctx context.Context, method string, params any, timeout time.Duration) (*rpcResponse, http.Header, error) {
	id := c.nextID.Add(1)
	envelope := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
	}
	if params != nil {
		envelope["params"] = params
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal %s request: %w", method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpResp, err := c.post(ctx, body)
	if err != nil {
		return nil, nil, err
	}
	defer httpResp.Body.Close()

	if err := c.checkStatus(httpResp); err != nil {
		return nil, nil, err
	}

	var resp *rpcResponse
	if strings.Contains(httpResp.Header.Get("Content-Type"), "text/event-stream") {
		resp, err = readStreamed(httpResp.Body, id)
	} else {
		resp, err = readSingle(httpResp.Body, id)
	}
	if err != nil {
		return nil, nil, err
	}

	c.lastActivity.Store(time.Now().UnixNano())
	return resp, httpResp.Header, nil
}

// notify posts a JSON-RPC notification (no id, no reply expected).
func (c *Client) notify(ctx context.Context, method string) error {
	body, err := json.Marshal(map[string]any{"jsonrpc": "2.0", "method": method})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.TimeoutConnection)
	defer cancel()

	httpResp, err := c.post(ctx, body)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, httpResp.Body) //nolint:errcheck
	httpResp.Body.Close()
	return nil
}

func (c *Client) post(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	if c.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AuthToken)
	}
	c.mu.Lock()
	if c.sessionID != "" {
		req.Header.Set(sessionHeader, c.sessionID)
	}
	c.mu.Unlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("gateway request: %w", context.DeadlineExceeded)
		}
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return resp, nil
}

func (c *Client) checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w (HTTP %d)", ErrAuth, resp.StatusCode)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: gateway returned HTTP %d", ErrConnection, resp.StatusCode)
	case resp.StatusCode >= 300:
		return &ProtocolError{Reason: fmt.Sprintf("unexpected HTTP status %d", resp.StatusCode)}
	}
	return nil
}

// readSingle parses a plain JSON response body and checks its correlation id.
func readSingle(r io.Reader, id int64) (*rpcResponse, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", ErrConnection, err)
	}
	var resp rpcResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &ProtocolError{Reason: "unparsable response body", Fragment: string(data)}
	}
	if resp.ID == nil || *resp.ID != id {
		return nil, &ProtocolError{Reason: fmt.Sprintf("response id does not match request id %d", id), Fragment: string(data)}
	}
	return &resp, nil
}

// readStreamed reassembles SSE events and returns the one matching the
// request id. Interleaved server notifications are skipped.
func readStreamed(r io.Reader, id int64) (*rpcResponse, error) {
	events := newSSEReader(r)
	for {
		payload, err := events.Next()
		if err == io.EOF {
			return nil, &ProtocolError{Reason: fmt.Sprintf("stream ended without a response for id %d", id)}
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read event stream: %v", ErrConnection, err)
		}
		var resp rpcResponse
		if err := json.Unmarshal([]byte(payload), &resp); err != nil {
			return nil, &ProtocolError{Reason: "unparsable event payload", Fragment: payload}
		}
		if resp.ID == nil || *resp.ID != id {
			continue
		}
		return &resp, nil
	}
}

// normalizeResult flattens a tools/call result into a single text value.
// Text content blocks are joined with newlines; results without text fall
// back to the raw JSON rendering.
func normalizeResult(raw json.RawMessage) (string, error) {
	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return string(raw), nil
	}

	var parts []string
	for _, block := range result.Content {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	text := strings.Join(parts, "\n")
	if text == "" {
		text = string(raw)
	}
	if result.IsError {
		return "", &RemoteToolError{Message: text}
	}
	return text, nil
}
