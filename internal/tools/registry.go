package tools

import (
	"fmt"
	"sort"
	"sync"

	"dirigent/internal/directive"
	"dirigent/internal/logging"
)

// Registry holds all available tools and their directive schemas.
// It is built at startup and safe for concurrent reads afterwards.
// Each tag resolves to exactly one executable implementation.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]*Tool
	schemas *directive.Registry
}

// NewRegistry creates a new empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:   make(map[string]*Tool),
		schemas: directive.NewRegistry(),
	}
}

// Register adds a tool and its schema to the registry.
// Returns an error if a tool with the same tag already exists.
func (r *Registry) Register(tool *Tool) error {
	if err := tool.Validate(); err != nil {
		return fmt.Errorf("invalid tool: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Tag]; exists {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, tool.Tag)
	}
	if err := r.schemas.Register(tool.Schema()); err != nil {
		return err
	}
	r.tools[tool.Tag] = tool

	logging.ToolsDebug("Registered tool: %s (%d bindings)", tool.Tag, len(tool.Bindings))
	return nil
}

// MustRegister registers a tool and panics on error.
// Use this for static tool registration at startup.
func (r *Registry) MustRegister(tool *Tool) {
	if err := r.Register(tool); err != nil {
		panic(fmt.Sprintf("failed to register tool %s: %v", tool.Tag, err))
	}
}

// Get returns a tool by tag, or nil if not found.
func (r *Registry) Get(tag string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[tag]
}

// Has returns true if a tool with the given tag is registered.
func (r *Registry) Has(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[tag]
	return ok
}

// Schema returns the directive schema for a tag, or nil.
func (r *Registry) Schema(tag string) *directive.ToolSchema {
	return r.schemas.Lookup(tag)
}

// Tags returns all registered tags, sorted.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.tools))
	for tag := range r.tools {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// All returns all registered tools.
func (r *Registry) All() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		result = append(result, tool)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Tag < result[j].Tag })
	return result
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
