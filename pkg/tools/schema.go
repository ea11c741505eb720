package tools

import (
	"fmt"
	"strconv"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/prasann/table-talks/pkg/apperrors"
)

// Property describes one tool parameter in JSON Schema terms.
type Property struct {
	Type        string // "string", "integer", "number" or "boolean"
	Description string
	Enum        []string
	Default     any // applied when the argument is absent; nil means no default
}

// ParameterSchema is the JSON-Schema object shape the function-calling
// API expects: a properties map plus a required list.
type ParameterSchema struct {
	Properties map[string]Property
	Required   []string
}

// manifest renders the schema in go-openai's jsonschema form. The
// required array is always present, possibly empty.
func (s ParameterSchema) manifest() *jsonschema.Definition {
	props := make(map[string]jsonschema.Definition, len(s.Properties))
	for name, p := range s.Properties {
		props[name] = jsonschema.Definition{
			Type:        jsonschema.DataType(p.Type),
			Description: p.Description,
			Enum:        p.Enum,
		}
	}
	required := s.Required
	if required == nil {
		required = []string{}
	}
	return &jsonschema.Definition{
		Type:       jsonschema.Object,
		Properties: props,
		Required:   required,
	}
}

// validate checks args against the schema: unknown keys are rejected,
// primitives are coerced, enums enforced, defaults filled in and
// required parameters verified. Returns a cleaned copy.
func (s ParameterSchema) validate(tool string, args map[string]any) (map[string]any, error) {
	cleaned := make(map[string]any, len(s.Properties))

	for key, raw := range args {
		prop, ok := s.Properties[key]
		if !ok {
			return nil, &apperrors.InvalidParameterError{
				Tool:      tool,
				Parameter: key,
				Reason:    "unknown parameter",
			}
		}
		value, err := coerce(raw, prop.Type)
		if err != nil {
			return nil, &apperrors.InvalidParameterError{
				Tool:      tool,
				Parameter: key,
				Reason:    err.Error(),
			}
		}
		if len(prop.Enum) > 0 {
			if err := checkEnum(value, prop.Enum); err != nil {
				return nil, &apperrors.InvalidParameterError{
					Tool:      tool,
					Parameter: key,
					Reason:    err.Error(),
				}
			}
		}
		cleaned[key] = value
	}

	for name, prop := range s.Properties {
		if _, ok := cleaned[name]; !ok && prop.Default != nil {
			cleaned[name] = prop.Default
		}
	}

	for _, name := range s.Required {
		if _, ok := cleaned[name]; !ok {
			return nil, &apperrors.MissingParameterError{Tool: tool, Parameter: name}
		}
	}
	return cleaned, nil
}

// coerce normalizes a JSON-decoded value to the declared primitive
// type, tolerating the loose typing LLMs produce (numbers as strings,
// integers as floats).
func coerce(value any, typ string) (any, error) {
	switch typ {
	case "string":
		switch v := value.(type) {
		case string:
			return v, nil
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		case bool:
			return strconv.FormatBool(v), nil
		}
	case "integer":
		switch v := value.(type) {
		case float64:
			if v != float64(int64(v)) {
				return nil, fmt.Errorf("expected integer, got %v", v)
			}
			return int(v), nil
		case int:
			return v, nil
		case string:
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("expected integer, got %q", v)
			}
			return n, nil
		}
	case "number":
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("expected number, got %q", v)
			}
			return f, nil
		}
	case "boolean":
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("expected boolean, got %q", v)
			}
			return b, nil
		}
	}
	return nil, fmt.Errorf("expected %s, got %T", typ, value)
}

func checkEnum(value any, allowed []string) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("enum parameters must be strings")
	}
	for _, a := range allowed {
		if s == a {
			return nil
		}
	}
	return fmt.Errorf("must be one of: %s", joinComma(allowed))
}

func joinComma(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += ", "
		}
		out += item
	}
	return out
}

// typed accessors for validated argument maps

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func intArg(args map[string]any, key string) int {
	if v, ok := args[key].(int); ok {
		return v
	}
	return 0
}

func floatArg(args map[string]any, key string) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func boolArg(args map[string]any, key string) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return false
}

func hasArg(args map[string]any, key string) bool {
	_, ok := args[key]
	return ok
}

// openaiTool packages a name, description and schema as the wire-level
// tool entry sent to the chat API.
func openaiTool(name, description string, schema ParameterSchema) openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters:  schema.manifest(),
		},
	}
}
