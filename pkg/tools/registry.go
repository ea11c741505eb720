// Package tools exposes the schema-analysis operations to the LLM
// function-calling interface. The Registry is the single dispatch point
// and the error boundary: a failing tool call is logged and returned as
// a readable error string, never allowed to crash the chat session.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/prasann/table-talks/pkg/apperrors"
)

// Tool is one named, schema-described analysis operation.
type Tool struct {
	Name        string
	Description string
	Schema      ParameterSchema

	// Run receives arguments already validated against Schema.
	Run func(ctx context.Context, args map[string]any) (string, error)

	// bind, if set, hands the tool its owning registry at registration
	// time so it can dispatch to sibling tools.
	bind func(*Registry)
}

// Registry maps stable tool names to operations. Built once at startup;
// never mutated afterwards, so every LLM turn sees an identical
// manifest.
type Registry struct {
	tools  map[string]*Tool
	order  []string
	logger *zap.Logger
}

func newRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]*Tool),
		logger: logger.Named("tools"),
	}
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(t *Tool) error {
	if _, exists := r.tools[t.Name]; exists {
		return &apperrors.DuplicateToolError{Name: t.Name}
	}
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
	if t.bind != nil {
		t.bind(r)
	}
	return nil
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Describe builds the function-calling manifest in registration order.
// Deterministic across calls.
func (r *Registry) Describe() []openai.Tool {
	manifest := make([]openai.Tool, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		manifest = append(manifest, openaiTool(t.Name, t.Description, t.Schema))
	}
	return manifest
}

// Execute dispatches a tool call. Unknown names and argument validation
// failures come back as typed errors so the caller can relay actionable
// text to the LLM. Errors (and panics) raised by the tool itself are
// caught here, logged, and converted to a user-facing error string.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		available := append([]string(nil), r.order...)
		sort.Strings(available)
		return "", &apperrors.UnknownToolError{Name: name, Available: available}
	}

	validated, err := t.Schema.validate(name, args)
	if err != nil {
		return "", err
	}

	result, runErr := r.run(ctx, t, validated)
	if runErr != nil {
		r.logger.Error("Tool execution failed",
			zap.String("tool", name),
			zap.Any("arguments", validated),
			zap.Error(runErr))
		return fmt.Sprintf("Error executing %s: %v", name, runErr), nil
	}
	return result, nil
}

// ExecuteJSON parses a raw JSON argument string (as delivered by the
// chat API) and dispatches it. Malformed JSON is a validation error.
func (r *Registry) ExecuteJSON(ctx context.Context, name string, arguments string) (string, error) {
	args := make(map[string]any)
	if arguments != "" {
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return "", &apperrors.InvalidParameterError{
				Tool:      name,
				Parameter: "arguments",
				Reason:    fmt.Sprintf("malformed JSON: %v", err),
			}
		}
	}
	return r.Execute(ctx, name, args)
}

// run executes a tool with panic recovery.
func (r *Registry) run(ctx context.Context, t *Tool, args map[string]any) (result string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("internal error: %v", p)
		}
	}()
	return t.Run(ctx, args)
}
