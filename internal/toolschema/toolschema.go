// Package toolschema compiles the JSON Schema fragments declared by MCP tools
// into argument validators. The supported subset matches what gateways emit
// for tool parameters: the six primitive/compound types, required/optional
// properties, enums, nested objects, typed array items and anyOf/oneOf unions.
package toolschema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
)

// ValidationError reports every constraint an argument set violated, not just
// the first, so callers can surface a complete diagnostic.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "invalid tool arguments: " + strings.Join(e.Violations, "; ")
}

// Schema is a compiled validator for one tool's input schema.
type Schema struct {
	root *node
	raw  json.RawMessage
}

// node is one compiled schema vertex. A nil node accepts anything.
type node struct {
	types       []string
	enum        []any
	properties  map[string]*node
	required    []string
	items       *node
	anyOf       []*node
	description string
}

// Compile parses a raw inputSchema document into a Schema. An empty or absent
// document compiles to an accept-all object schema.
func Compile(raw json.RawMessage) (*Schema, error) {
	if len(raw) == 0 {
		return &Schema{root: &node{types: []string{"object"}}, raw: json.RawMessage(`{"type":"object","properties":{}}`)}, nil
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse input schema: %w", err)
	}
	root, err := compileNode(doc)
	if err != nil {
		return nil, err
	}
	return &Schema{root: root, raw: raw}, nil
}

// Raw returns the original schema document this validator was compiled from.
func (s *Schema) Raw() json.RawMessage { return s.raw }

// Validate checks args against the schema and returns the normalized
// arguments (integer-typed values coerced to int64). On failure it returns a
// ValidationError enumerating every violated constraint.
func (s *Schema) Validate(args map[string]any) (map[string]any, error) {
	if args == nil {
		args = map[string]any{}
	}
	var violations []string
	normalized := validate(s.root, args, "", &violations)
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	out, ok := normalized.(map[string]any)
	if !ok {
		out = args
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Compilation
// ---------------------------------------------------------------------------

func compileNode(v any) (*node, error) {
	doc, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("schema fragment must be an object, got %T", v)
	}
	n := &node{}

	switch t := doc["type"].(type) {
	case string:
		n.types = []string{t}
	case []any:
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("type list must contain strings, got %T", item)
			}
			n.types = append(n.types, s)
		}
	case nil:
	default:
		return nil, fmt.Errorf("unsupported type declaration %T", t)
	}
	for _, t := range n.types {
		switch t {
		case "string", "integer", "number", "boolean", "array", "object", "null":
		default:
			return nil, fmt.Errorf("unsupported schema type %q", t)
		}
	}

	if desc, ok := doc["description"].(string); ok {
		n.description = desc
	}
	if enum, ok := doc["enum"].([]any); ok {
		n.enum = enum
	}

	if props, ok := doc["properties"].(map[string]any); ok {
		n.properties = make(map[string]*node, len(props))
		for name, sub := range props {
			compiled, err := compileNode(sub)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", name, err)
			}
			n.properties[name] = compiled
		}
	}
	if req, ok := doc["required"].([]any); ok {
		for _, item := range req {
			if s, ok := item.(string); ok {
				n.required = append(n.required, s)
			}
		}
	}
	if items, ok := doc["items"]; ok {
		compiled, err := compileNode(items)
		if err != nil {
			return nil, fmt.Errorf("array items: %w", err)
		}
		n.items = compiled
	}

	alternatives, _ := doc["anyOf"].([]any)
	if alternatives == nil {
		alternatives, _ = doc["oneOf"].([]any)
	}
	for i, alt := range alternatives {
		compiled, err := compileNode(alt)
		if err != nil {
			return nil, fmt.Errorf("alternative %d: %w", i+1, err)
		}
		n.anyOf = append(n.anyOf, compiled)
	}

	return n, nil
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// validate checks value against n, appending violations, and returns the
// normalized value. The returned value is only meaningful when no violations
// were appended.
func validate(n *node, value any, path string, out *[]string) any {
	if n == nil {
		return value
	}

	if len(n.anyOf) > 0 {
		return validateUnion(n, value, path, out)
	}

	if len(n.enum) > 0 && !enumContains(n.enum, value) {
		*out = append(*out, fmt.Sprintf("%s: value %s is not one of %s",
			displayPath(path), renderValue(value), renderEnum(n.enum)))
		return value
	}

	if len(n.types) == 0 {
		return value
	}

	for _, t := range n.types {
		if matchesType(t, value) {
			return validateTyped(n, t, value, path, out)
		}
	}
	*out = append(*out, fmt.Sprintf("%s: expected %s, got %s",
		displayPath(path), strings.Join(n.types, " or "), typeName(value)))
	return value
}

// validateUnion tries each alternative in declared order; the first one that
// validates wins. Failure names every alternative and why it failed.
func validateUnion(n *node, value any, path string, out *[]string) any {
	var attempts []string
	for i, alt := range n.anyOf {
		var sub []string
		normalized := validate(alt, value, path, &sub)
		if len(sub) == 0 {
			return normalized
		}
		attempts = append(attempts, fmt.Sprintf("alternative %d: %s", i+1, strings.Join(sub, "; ")))
	}
	*out = append(*out, fmt.Sprintf("%s: value matches none of %d alternatives (%s)",
		displayPath(path), len(n.anyOf), strings.Join(attempts, " | ")))
	return value
}

func validateTyped(n *node, typ string, value any, path string, out *[]string) any {
	switch typ {
	case "object":
		obj := value.(map[string]any)
		for _, name := range n.required {
			if _, present := obj[name]; !present {
				*out = append(*out, fmt.Sprintf("%s: required", childPath(path, name)))
			}
		}
		normalized := make(map[string]any, len(obj))
		for name, v := range obj {
			if sub, declared := n.properties[name]; declared {
				normalized[name] = validate(sub, v, childPath(path, name), out)
			} else {
				normalized[name] = v
			}
		}
		return normalized
	case "array":
		arr := value.([]any)
		if n.items == nil {
			return arr
		}
		normalized := make([]any, len(arr))
		for i, v := range arr {
			normalized[i] = validate(n.items, v, fmt.Sprintf("%s[%d]", displayPath(path), i), out)
		}
		return normalized
	case "integer":
		return asInt64(value)
	default:
		return value
	}
}

func matchesType(typ string, value any) bool {
	switch typ {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int32, int64:
			return true
		case float64:
			return v == math.Trunc(v)
		case json.Number:
			_, err := v.Int64()
			return err == nil
		}
		return false
	case "number":
		switch value.(type) {
		case int, int32, int64, float64, json.Number:
			return true
		}
		return false
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	case "null":
		return value == nil
	}
	return false
}

func asInt64(value any) int64 {
	switch v := value.(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	}
	return 0
}

func enumContains(enum []any, value any) bool {
	for _, allowed := range enum {
		if reflect.DeepEqual(canonical(allowed), canonical(value)) {
			return true
		}
	}
	return false
}

// canonical maps all numeric representations to float64 so enum comparison is
// independent of how the value was decoded.
func canonical(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	}
	return v
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, int, int32, int64, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

func renderValue(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func renderEnum(enum []any) string {
	parts := make([]string, len(enum))
	for i, v := range enum {
		parts[i] = renderValue(v)
	}
	sort.Strings(parts)
	return "[" + strings.Join(parts, ", ") + "]"
}

func displayPath(path string) string {
	if path == "" {
		return "arguments"
	}
	return path
}

func childPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
