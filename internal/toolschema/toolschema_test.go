package toolschema

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func compile(t *testing.T, doc string) *Schema {
	t.Helper()
	s, err := Compile(json.RawMessage(doc))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	return s
}

func violations(t *testing.T, err error) []string {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	return verr.Violations
}

const forecastSchema = `{
	"type": "object",
	"properties": {
		"location": {"type": "string", "description": "City or town"},
		"days": {"type": "integer"}
	},
	"required": ["location"]
}`

func TestValidate_ForecastRoundTrip(t *testing.T) {
	s := compile(t, forecastSchema)

	out, err := s.Validate(map[string]any{"location": "Brooklin, ME"})
	if err != nil {
		t.Fatalf("valid arguments rejected: %v", err)
	}
	if out["location"] != "Brooklin, ME" {
		t.Errorf("normalized value lost: %v", out)
	}
}

func TestValidate_MissingRequiredNamesProperty(t *testing.T) {
	s := compile(t, forecastSchema)

	_, err := s.Validate(map[string]any{"days": 1})
	vs := violations(t, err)
	if len(vs) != 1 {
		t.Fatalf("expected 1 violation, got %v", vs)
	}
	if !strings.Contains(vs[0], "location") {
		t.Errorf("violation must name the missing property: %q", vs[0])
	}
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	s := compile(t, `{
		"type": "object",
		"properties": {
			"a": {"type": "string"},
			"b": {"type": "integer"}
		},
		"required": ["a", "b", "c"]
	}`)

	_, err := s.Validate(map[string]any{"b": "not a number"})
	vs := violations(t, err)
	// a missing, c missing, b wrong type.
	if len(vs) != 3 {
		t.Fatalf("expected 3 violations, got %d: %v", len(vs), vs)
	}
	joined := strings.Join(vs, "\n")
	for _, want := range []string{"a", "b", "c"} {
		if !strings.Contains(joined, want) {
			t.Errorf("violations missing %q: %v", want, vs)
		}
	}
}

func TestValidate_Enum(t *testing.T) {
	s := compile(t, `{
		"type": "object",
		"properties": {
			"unit": {"type": "string", "enum": ["celsius", "fahrenheit"]}
		}
	}`)

	if _, err := s.Validate(map[string]any{"unit": "celsius"}); err != nil {
		t.Fatalf("allowed enum value rejected: %v", err)
	}

	_, err := s.Validate(map[string]any{"unit": "kelvin"})
	vs := violations(t, err)
	if len(vs) != 1 || !strings.Contains(vs[0], "celsius") {
		t.Errorf("enum violation should list the closed set: %v", vs)
	}
}

func TestValidate_NestedObject(t *testing.T) {
	s := compile(t, `{
		"type": "object",
		"properties": {
			"config": {
				"type": "object",
				"properties": {
					"retries": {"type": "integer"}
				},
				"required": ["retries"]
			}
		},
		"required": ["config"]
	}`)

	if _, err := s.Validate(map[string]any{"config": map[string]any{"retries": float64(3)}}); err != nil {
		t.Fatalf("valid nested object rejected: %v", err)
	}

	_, err := s.Validate(map[string]any{"config": map[string]any{"retries": "three"}})
	vs := violations(t, err)
	if len(vs) != 1 || !strings.Contains(vs[0], "config.retries") {
		t.Errorf("nested violation should carry the full path: %v", vs)
	}
}

func TestValidate_TypedArray(t *testing.T) {
	s := compile(t, `{
		"type": "object",
		"properties": {
			"tags": {"type": "array", "items": {"type": "string"}}
		}
	}`)

	if _, err := s.Validate(map[string]any{"tags": []any{"a", "b"}}); err != nil {
		t.Fatalf("valid array rejected: %v", err)
	}

	_, err := s.Validate(map[string]any{"tags": []any{"a", float64(2)}})
	vs := violations(t, err)
	if len(vs) != 1 || !strings.Contains(vs[0], "tags[1]") {
		t.Errorf("array violation should name the index: %v", vs)
	}
}

func TestValidate_UnionTriesAlternativesInOrder(t *testing.T) {
	s := compile(t, `{
		"type": "object",
		"properties": {
			"target": {
				"anyOf": [
					{"type": "string"},
					{"type": "object", "properties": {"id": {"type": "integer"}}, "required": ["id"]}
				]
			}
		}
	}`)

	if _, err := s.Validate(map[string]any{"target": "host-1"}); err != nil {
		t.Fatalf("first alternative rejected: %v", err)
	}
	if _, err := s.Validate(map[string]any{"target": map[string]any{"id": float64(7)}}); err != nil {
		t.Fatalf("second alternative rejected: %v", err)
	}

	_, err := s.Validate(map[string]any{"target": true})
	vs := violations(t, err)
	if len(vs) != 1 {
		t.Fatalf("expected 1 violation, got %v", vs)
	}
	if !strings.Contains(vs[0], "alternative 1") || !strings.Contains(vs[0], "alternative 2") {
		t.Errorf("union failure must name every alternative tried: %q", vs[0])
	}
}

func TestValidate_IntegerConstraint(t *testing.T) {
	s := compile(t, `{
		"type": "object",
		"properties": {"days": {"type": "integer"}}
	}`)

	out, err := s.Validate(map[string]any{"days": float64(2)})
	if err != nil {
		t.Fatalf("integral float rejected: %v", err)
	}
	if v, ok := out["days"].(int64); !ok || v != 2 {
		t.Errorf("expected normalized int64(2), got %T %v", out["days"], out["days"])
	}

	if _, err := s.Validate(map[string]any{"days": 1.5}); err == nil {
		t.Error("fractional value accepted for integer property")
	}
}

func TestValidate_EmptySchemaAcceptsAnything(t *testing.T) {
	s, err := Compile(nil)
	if err != nil {
		t.Fatalf("Compile(nil) failed: %v", err)
	}
	if _, err := s.Validate(map[string]any{"whatever": []any{1, "two"}}); err != nil {
		t.Errorf("empty schema rejected arguments: %v", err)
	}
}

func TestValidate_UndeclaredPropertiesPass(t *testing.T) {
	s := compile(t, forecastSchema)
	if _, err := s.Validate(map[string]any{"location": "x", "extra": true}); err != nil {
		t.Errorf("undeclared property rejected: %v", err)
	}
}

func TestCompile_RejectsUnsupportedType(t *testing.T) {
	_, err := Compile(json.RawMessage(`{"type": "tuple"}`))
	if err == nil {
		t.Error("expected error for unsupported schema type")
	}
}

func TestCompile_RejectsGarbage(t *testing.T) {
	_, err := Compile(json.RawMessage(`{nope`))
	if err == nil {
		t.Error("expected error for unparsable schema")
	}
}
