// Package schema contains the core contracts shared across mcpgate packages.
// Concrete implementations live in their respective packages; this package is
// the single canonical source of truth for every cross-package type.
package schema

import (
	"context"
	"encoding/json"
)

// Tool is the interface all host-callable tools must satisfy.
// Every tool published from the gateway catalog implements this interface.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON Schema (as raw JSON bytes) for this tool's parameters.
	Parameters() json.RawMessage
	Execute(ctx context.Context, params map[string]any) (string, error)
}

// ToolDescriptor is one catalog entry as declared by the gateway's
// tools/list response.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}
