package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mcpgate/mcpgate/internal/schema"
	"github.com/mcpgate/mcpgate/internal/toolschema"
)

// fakeGateway implements Gateway over a static catalog.
type fakeGateway struct {
	tools    []schema.ToolDescriptor
	calls    []string
	lastArgs map[string]any
	result   string
	err      error
}

func (g *fakeGateway) Tools() []schema.ToolDescriptor { return g.tools }

func (g *fakeGateway) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	g.calls = append(g.calls, name)
	g.lastArgs = args
	if g.err != nil {
		return "", g.err
	}
	return g.result, nil
}

func TestPublish_BuildsCatalog(t *testing.T) {
	g := &fakeGateway{tools: []schema.ToolDescriptor{
		{Name: "ping", Description: "liveness"},
		{Name: "echo", Description: "repeat", InputSchema: json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"}},"required":["text"]}`)},
	}}

	list := Publish(g)
	if list.Len() != 2 {
		t.Fatalf("expected 2 published tools, got %d", list.Len())
	}
	echo := list.Get("echo")
	if echo == nil {
		t.Fatal("echo not published")
	}
	if echo.Description() != "repeat" {
		t.Errorf("description lost: %q", echo.Description())
	}
	if len(echo.Parameters()) == 0 {
		t.Error("parameters lost")
	}
}

func TestGatewayTool_ValidatesBeforeDispatch(t *testing.T) {
	g := &fakeGateway{tools: []schema.ToolDescriptor{{
		Name:        "get_forecast",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"location":{"type":"string"}},"required":["location"]}`),
	}}, result: "sunny"}

	list := Publish(g)
	tool := list.Get("get_forecast")

	_, err := tool.Execute(context.Background(), map[string]any{})
	var verr *toolschema.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(g.calls) != 0 {
		t.Error("invalid arguments must not be dispatched")
	}

	out, err := tool.Execute(context.Background(), map[string]any{"location": "Brooklin, ME"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "sunny" {
		t.Errorf("expected sunny, got %q", out)
	}
	if g.lastArgs["location"] != "Brooklin, ME" {
		t.Errorf("arguments not forwarded: %v", g.lastArgs)
	}
}

func TestPublish_MalformedSchemaFallsBackPermissive(t *testing.T) {
	g := &fakeGateway{tools: []schema.ToolDescriptor{{
		Name:        "odd",
		InputSchema: json.RawMessage(`{"type":"tuple"}`),
	}}, result: "ok"}

	list := Publish(g)
	tool := list.Get("odd")
	if tool == nil {
		t.Fatal("tool with malformed schema must still be published")
	}
	if _, err := tool.Execute(context.Background(), map[string]any{"anything": 1}); err != nil {
		t.Errorf("permissive fallback rejected arguments: %v", err)
	}
}

func TestToolList_Definitions(t *testing.T) {
	g := &fakeGateway{tools: []schema.ToolDescriptor{
		{Name: "b", Description: "second"},
		{Name: "a", Description: "first"},
	}}

	defs := Publish(g).Definitions()
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
	first := defs[0]["function"].(map[string]any)
	if first["name"] != "a" {
		t.Errorf("definitions not sorted by name: %v", first["name"])
	}
}
