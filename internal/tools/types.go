// Package tools provides the pluggable capability registry. Each tool
// binds one directive tag to an executable implementation plus the
// parameter-binding rules the validator applies to spans with that tag.
package tools

import (
	"context"
	"time"

	"dirigent/internal/directive"
)

// ExecuteFunc is the signature for tool execution.
// Returns the result payload and any error.
type ExecuteFunc func(ctx context.Context, args map[string]any) (string, error)

// Tool binds a directive tag to an executable capability.
type Tool struct {
	// Tag is the directive name, unique across the registry.
	Tag string

	// Description explains what the tool does.
	Description string

	// Bindings are the validation rules for the tag's parameters.
	Bindings []directive.ParamBinding

	// Execute runs the capability with validated arguments.
	Execute ExecuteFunc

	// Timeout overrides the dispatcher's default when positive.
	Timeout time.Duration
}

// Schema returns the directive schema derived from the tool definition.
func (t *Tool) Schema() *directive.ToolSchema {
	return &directive.ToolSchema{
		Tag:         t.Tag,
		Description: t.Description,
		Bindings:    t.Bindings,
	}
}

// Validate checks the tool definition.
func (t *Tool) Validate() error {
	if t.Tag == "" {
		return ErrToolTagEmpty
	}
	if t.Execute == nil {
		return ErrToolExecuteNil
	}
	return t.Schema().Validate()
}

// StringArg reads a string argument, with "" for absent.
func StringArg(args map[string]any, name string) string {
	v, _ := args[name].(string)
	return v
}

// IntArg reads an int argument with a default.
func IntArg(args map[string]any, name string, def int) int {
	if v, ok := args[name].(int); ok {
		return v
	}
	return def
}

// BoolArg reads a bool argument with a default.
func BoolArg(args map[string]any, name string, def bool) bool {
	if v, ok := args[name].(bool); ok {
		return v
	}
	return def
}

// ListArg reads a string-list argument, with nil for absent.
func ListArg(args map[string]any, name string) []string {
	v, _ := args[name].([]string)
	return v
}
