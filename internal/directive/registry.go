package directive

import (
	"fmt"
	"sort"
	"sync"

	"dirigent/internal/logging"
)

// Registry maps a directive tag to its schema. It is built once at
// startup and read-only afterwards; registration after that point is a
// programming error surfaced as a duplicate-tag failure.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*ToolSchema
}

// NewRegistry creates an empty schema registry.
func NewRegistry() *Registry {
	return &Registry{
		schemas: make(map[string]*ToolSchema),
	}
}

// Register adds a schema. Returns an error if the tag is already taken
// or the schema itself is malformed.
func (r *Registry) Register(schema *ToolSchema) error {
	if err := schema.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[schema.Tag]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTag, schema.Tag)
	}
	r.schemas[schema.Tag] = schema

	logging.DirectiveDebug("Registered schema: %s (%d bindings)", schema.Tag, len(schema.Bindings))
	return nil
}

// MustRegister registers a schema and panics on error. For static
// registration at startup.
func (r *Registry) MustRegister(schema *ToolSchema) {
	if err := r.Register(schema); err != nil {
		panic(fmt.Sprintf("failed to register schema %s: %v", schema.Tag, err))
	}
}

// Lookup returns the schema for a tag, or nil.
func (r *Registry) Lookup(tag string) *ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.schemas[tag]
}

// Has returns true if a schema is registered for the tag.
func (r *Registry) Has(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.schemas[tag]
	return ok
}

// Tags returns all registered tags, sorted.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.schemas))
	for tag := range r.schemas {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Count returns the number of registered schemas.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.schemas)
}
