// Package tools publishes the coordinator's tool catalog to the host LLM
// framework. It is the seam between the protocol core and the host: each
// published tool is a (name, description, validated-call) triple and performs
// no protocol logic of its own.
package tools

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mcpgate/mcpgate/internal/schema"
	"github.com/mcpgate/mcpgate/internal/toolschema"
)

// Gateway is the subset of the coordinator the published tools depend on.
type Gateway interface {
	Tools() []schema.ToolDescriptor
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
}

// GatewayTool wraps one catalog descriptor as a host-callable tool.
// Arguments are validated against the declared schema before any dispatch.
type GatewayTool struct {
	gateway     Gateway
	name        string
	description string
	parameters  json.RawMessage
	validator   *toolschema.Schema
}

func (t *GatewayTool) Name() string                { return t.name }
func (t *GatewayTool) Description() string         { return t.description }
func (t *GatewayTool) Parameters() json.RawMessage { return t.parameters }

func (t *GatewayTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	normalized, err := t.validator.Validate(params)
	if err != nil {
		return "", err
	}
	return t.gateway.CallTool(ctx, t.name, normalized)
}

var _ schema.Tool = (*GatewayTool)(nil)

// Publish converts the gateway's current catalog into a ToolList. Tools whose
// schemas fail to compile are published with a permissive validator rather
// than dropped, so one malformed descriptor cannot hide a working tool.
func Publish(g Gateway) *ToolList {
	list := NewToolList()
	for _, desc := range g.Tools() {
		validator, err := toolschema.Compile(desc.InputSchema)
		if err != nil {
			slog.Warn("tools: schema rejected, publishing permissive", "tool", desc.Name, "err", err)
			validator, _ = toolschema.Compile(nil)
		}
		parameters := desc.InputSchema
		if len(parameters) == 0 {
			parameters = json.RawMessage(`{"type":"object","properties":{}}`)
		}
		list.Add(&GatewayTool{
			gateway:     g,
			name:        desc.Name,
			description: desc.Description,
			parameters:  parameters,
			validator:   validator,
		})
	}
	return list
}
