package orchestrator

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/conductor/internal/state"
)

// validateArgs checks args against the tool's declared input schema:
// required fields, unknown fields, JSON types and enums. A nil argument
// counts as absent. ArgConfirm is always allowed.
func validateArgs(def mcp.Tool, args map[string]any) error {
	var problems []string

	for _, name := range def.InputSchema.Required {
		if v, ok := args[name]; !ok || v == nil {
			problems = append(problems, fmt.Sprintf("%q is required", name))
		}
	}

	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v := args[name]
		raw, declared := def.InputSchema.Properties[name]
		if !declared {
			if name == ArgConfirm {
				continue
			}
			problems = append(problems, fmt.Sprintf("%q is not a known argument", name))
			continue
		}
		if v == nil {
			continue
		}
		prop, _ := raw.(map[string]any)
		if want, _ := prop["type"].(string); want != "" && !hasType(v, want) {
			problems = append(problems, fmt.Sprintf("%q must be of type %s, got %s", name, want, jsonType(v)))
			continue
		}
		if allowed := enumValues(prop["enum"]); len(allowed) > 0 {
			s, _ := v.(string)
			if !contains(allowed, s) {
				problems = append(problems, fmt.Sprintf("%q must be one of %v, got %q", name, allowed, s))
			}
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Tool: def.Name, Problems: problems}
	}
	return nil
}

func hasType(v any, want string) bool {
	got := jsonType(v)
	if want == "number" && got == "integer" {
		return true
	}
	if want == "integer" && got == "number" {
		f, _ := v.(float64)
		return f == float64(int64(f))
	}
	return got == want
}

func jsonType(v any) string {
	switch t := v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "integer"
	case float32, float64:
		return "number"
	case json.Number:
		if _, err := t.Int64(); err == nil {
			return "integer"
		}
		return "number"
	case map[string]any, state.Fields:
		return "object"
	case []any, []string, []map[string]any:
		return "array"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func enumValues(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
