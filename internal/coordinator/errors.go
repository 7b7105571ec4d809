package coordinator

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcpgate/mcpgate/internal/transport"
)

// ErrClosed is returned by operations on a coordinator after Close.
var ErrClosed = errors.New("coordinator closed")

// ToolNotFoundError is returned for names absent from the published catalog,
// whether unknown to the gateway or excluded by the allow-list. Such calls
// fail before any network traffic.
type ToolNotFoundError struct {
	Name string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool %q is not available", e.Name)
}

// CallErrorKind classifies a failed tool call at the coordinator boundary.
type CallErrorKind int

const (
	// KindUnreachable covers network, DNS, TLS and protocol-level failures.
	KindUnreachable CallErrorKind = iota
	// KindAuthFailed means the gateway rejected the configured credential.
	KindAuthFailed
	// KindTimeout means the execution deadline expired.
	KindTimeout
	// KindRemote is a failure the gateway itself reported for the tool.
	KindRemote
)

func (k CallErrorKind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindAuthFailed:
		return "auth_failed"
	case KindTimeout:
		return "timeout"
	case KindRemote:
		return "remote_error"
	}
	return "unknown"
}

// CallError wraps a transport failure reclassified for the host framework.
// No transport error crosses the coordinator boundary unclassified.
type CallError struct {
	Kind CallErrorKind
	Tool string
	Err  error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("tool %q failed (%s): %v", e.Tool, e.Kind, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// classify maps a transport-level error onto a coordinator CallError.
func classify(tool string, err error) *CallError {
	kind := KindUnreachable
	var remote *transport.RemoteToolError
	switch {
	case errors.Is(err, transport.ErrToolTimeout) || errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.Is(err, transport.ErrAuth):
		kind = KindAuthFailed
	case errors.As(err, &remote):
		kind = KindRemote
	}
	return &CallError{Kind: kind, Tool: tool, Err: err}
}
