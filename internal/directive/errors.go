package directive

import "errors"

// Sentinel errors for the directive protocol layer.
var (
	// ErrEmptyTag indicates a schema with no tag name.
	ErrEmptyTag = errors.New("schema tag must not be empty")

	// ErrInvalidSchema indicates a malformed schema definition.
	ErrInvalidSchema = errors.New("invalid schema")

	// ErrDuplicateTag indicates a tag registered twice.
	ErrDuplicateTag = errors.New("tag already registered")

	// ErrUnknownTag indicates an invocation whose tag has no schema.
	ErrUnknownTag = errors.New("unknown directive tag")
)
