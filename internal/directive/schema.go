// Package directive implements the tag-delimited directive protocol:
// schemas describing how a tool's parameters bind to a directive span,
// a prose-tolerant parser producing invocation records, a pure
// validator coercing those records into typed calls, and the encoder
// that folds tool results back into a transcript.
package directive

import "fmt"

// BindingSource says where in a directive span a parameter's value lives.
type BindingSource string

const (
	// SourceContent binds the whole body text of the directive.
	SourceContent BindingSource = "content"

	// SourceAttribute binds a quoted attribute on the opening tag.
	SourceAttribute BindingSource = "attribute"

	// SourceElement binds the text of a child element, addressed by a
	// dotted segment path for nested children.
	SourceElement BindingSource = "element"
)

// ValueType is the coercion target for a bound parameter.
type ValueType string

const (
	TypeString ValueType = "string"
	TypeInt    ValueType = "int"
	TypeBool   ValueType = "bool"
	TypeList   ValueType = "list"
)

// ParamBinding maps one tool parameter to a location within a directive.
type ParamBinding struct {
	// Name is the argument name the validator produces.
	Name string

	// Source selects content, attribute, or child element.
	Source BindingSource

	// Path locates the value: the attribute name, a dotted child
	// element path, or empty/"." for the binding's own name (attributes)
	// and the whole body (content).
	Path string

	// Required bindings fail validation when absent.
	Required bool

	// Type is the coercion target. Empty means string.
	Type ValueType
}

// resolvedPath returns the effective lookup path for the binding.
func (b ParamBinding) resolvedPath() string {
	if b.Path == "" || b.Path == "." {
		return b.Name
	}
	return b.Path
}

// ToolSchema describes the binding rules for one directive tag.
type ToolSchema struct {
	// Tag is the directive name, unique across the registry.
	Tag string

	// Description is surfaced to the model in the tool listing.
	Description string

	// Bindings are applied in order during validation.
	Bindings []ParamBinding
}

// Validate checks the schema definition itself.
func (s *ToolSchema) Validate() error {
	if s.Tag == "" {
		return ErrEmptyTag
	}
	seen := make(map[string]bool, len(s.Bindings))
	for _, b := range s.Bindings {
		if b.Name == "" {
			return fmt.Errorf("%w: schema %q has a binding with no name", ErrInvalidSchema, s.Tag)
		}
		if seen[b.Name] {
			return fmt.Errorf("%w: schema %q binds %q twice", ErrInvalidSchema, s.Tag, b.Name)
		}
		seen[b.Name] = true
		switch b.Source {
		case SourceContent, SourceAttribute, SourceElement:
		default:
			return fmt.Errorf("%w: schema %q binding %q has unknown source %q", ErrInvalidSchema, s.Tag, b.Name, b.Source)
		}
	}
	return nil
}

// ChildElement is one parsed child element of a directive, possibly nested.
type ChildElement struct {
	Name     string
	Value    string
	Children []ChildElement
}

// Invocation is the raw parse result for one directive span, before
// validation. Attribute order is not preserved; child order is.
type Invocation struct {
	Tag      string
	Attrs    map[string]string
	Body     string
	Children []ChildElement

	// Offset is the byte offset of the opening tag in the scanned text.
	Offset int
}

// Child returns the child element at a dotted segment path, or false.
func (inv *Invocation) Child(path string) (ChildElement, bool) {
	return findChild(inv.Children, splitPath(path))
}

func findChild(children []ChildElement, segments []string) (ChildElement, bool) {
	if len(segments) == 0 {
		return ChildElement{}, false
	}
	for _, c := range children {
		if c.Name != segments[0] {
			continue
		}
		if len(segments) == 1 {
			return c, true
		}
		return findChild(c.Children, segments[1:])
	}
	return ChildElement{}, false
}

// SpanError reports a malformed directive span. Scanning continues past
// it; model output may be truncated mid-generation and the directives
// before the break still have to come through.
type SpanError struct {
	// Offset is the byte offset of the offending span.
	Offset int

	// Tag is the opening tag name when one was recognized.
	Tag string

	// Reason is a human-readable description.
	Reason string
}

func (e *SpanError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("malformed directive <%s> at offset %d: %s", e.Tag, e.Offset, e.Reason)
	}
	return fmt.Sprintf("malformed directive at offset %d: %s", e.Offset, e.Reason)
}

// ValidatedCall is a fully-bound, typed invocation ready for dispatch.
type ValidatedCall struct {
	Tag  string
	Args map[string]any
}

// ValidationError reports a binding that could not be satisfied.
type ValidationError struct {
	Tag     string
	Binding string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("directive <%s>: binding %q: %s", e.Tag, e.Binding, e.Reason)
}
