package transport

import (
	"errors"
	"fmt"
)

// Sentinel errors for failures classified at the transport boundary.
// Callers match with errors.Is; the wrapped chain keeps the cause.
var (
	// ErrConnection covers network, DNS and TLS failures reaching the gateway.
	ErrConnection = errors.New("gateway unreachable")

	// ErrAuth is returned when the gateway rejects the bearer credential.
	ErrAuth = errors.New("gateway rejected credentials")

	// ErrToolTimeout is returned when a tool execution exceeds its deadline.
	ErrToolTimeout = errors.New("tool execution timed out")

	// ErrNotConnected is returned when a request is attempted before Connect.
	ErrNotConnected = errors.New("transport not connected")
)

// ProtocolError reports a malformed or incomplete frame from the gateway.
// Fragment carries the offending payload so a raw parse failure never
// propagates unclassified.
type ProtocolError struct {
	Reason   string
	Fragment string
}

func (e *ProtocolError) Error() string {
	if e.Fragment == "" {
		return "protocol error: " + e.Reason
	}
	return fmt.Sprintf("protocol error: %s: %s", e.Reason, truncate(e.Fragment, 200))
}

// RemoteToolError is a tool failure reported by the gateway itself, either as
// a JSON-RPC error object or as an isError tool result.
type RemoteToolError struct {
	Code    int
	Message string
}

func (e *RemoteToolError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("gateway error %d: %s", e.Code, e.Message)
	}
	return "gateway error: " + e.Message
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
