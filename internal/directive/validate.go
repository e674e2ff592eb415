package directive

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Validate applies a schema's bindings to a raw invocation and produces
// a typed call. It is pure: no side effects, no registry access.
// Attributes and children not covered by any binding are ignored for
// forward compatibility.
func Validate(schema *ToolSchema, inv *Invocation) (*ValidatedCall, *ValidationError) {
	if schema.Tag != inv.Tag {
		return nil, &ValidationError{
			Tag:     inv.Tag,
			Binding: "",
			Reason:  fmt.Sprintf("schema is for <%s>", schema.Tag),
		}
	}

	args := make(map[string]any, len(schema.Bindings))
	for _, b := range schema.Bindings {
		raw, present := extract(b, inv)
		if !present {
			if b.Required {
				return nil, &ValidationError{
					Tag:     inv.Tag,
					Binding: b.Name,
					Reason:  "required value missing",
				}
			}
			continue
		}

		value, err := coerce(raw, b.Type)
		if err != nil {
			return nil, &ValidationError{
				Tag:     inv.Tag,
				Binding: b.Name,
				Reason:  err.Error(),
			}
		}
		args[b.Name] = value
	}

	return &ValidatedCall{Tag: inv.Tag, Args: args}, nil
}

// extract pulls the raw string for a binding out of the invocation.
func extract(b ParamBinding, inv *Invocation) (string, bool) {
	switch b.Source {
	case SourceContent:
		if inv.Body == "" {
			return "", false
		}
		return inv.Body, true

	case SourceAttribute:
		v, ok := inv.Attrs[b.resolvedPath()]
		return v, ok

	case SourceElement:
		child, ok := inv.Child(b.resolvedPath())
		if !ok {
			return "", false
		}
		return child.Value, true
	}
	return "", false
}

// coerce converts a raw string to the binding's value type. A failed
// coercion is a validation failure, never a panic.
func coerce(raw string, t ValueType) (any, error) {
	switch t {
	case TypeString, "":
		return raw, nil

	case TypeInt:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to int", raw)
		}
		return n, nil

	case TypeBool:
		v, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(raw)))
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to bool", raw)
		}
		return v, nil

	case TypeList:
		return coerceList(raw)
	}
	return nil, fmt.Errorf("unknown value type %q", t)
}

// coerceList accepts a JSON array of strings or a newline/comma
// separated list, with markdown bullets stripped.
func coerceList(raw string) ([]string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return []string{}, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var items []string
		if err := json.Unmarshal([]byte(trimmed), &items); err == nil {
			return items, nil
		}
		// A JSON-looking payload that does not parse is malformed
		// rather than a plain-text list.
		return nil, fmt.Errorf("cannot coerce %q to list", truncate(trimmed, 80))
	}

	sep := "\n"
	if !strings.Contains(trimmed, "\n") {
		sep = ","
	}

	var items []string
	for _, part := range strings.Split(trimmed, sep) {
		item := strings.TrimSpace(part)
		item = strings.TrimPrefix(item, "- ")
		item = strings.TrimPrefix(item, "* ")
		if item != "" {
			items = append(items, item)
		}
	}
	return items, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// splitPath splits a dotted child element path into segments.
func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}
