package todo

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"dirigent/internal/logging"
)

// Manager owns one session's checklist file. All access goes through
// its mutex: the merge invariant only holds under a single writer, and
// the file is rewritten whole on every change.
type Manager struct {
	mu   sync.Mutex
	path string
	doc  *Document
}

// NewManager creates a manager for the todo file at path. The file is
// loaded lazily on first use.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Path returns the backing file path.
func (m *Manager) Path() string {
	return m.path
}

// Exists reports whether the checklist file is present on disk.
func (m *Manager) Exists() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc != nil {
		return true
	}
	_, err := os.Stat(m.path)
	return err == nil
}

// Ensure creates the checklist if absent. When it already exists and
// overwrite is false this is a no-op; with overwrite it is replaced
// wholesale from the template for description.
func (m *Manager) Ensure(description string, overwrite bool) (created bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.loadLocked(); err != nil {
		return false, err
	}
	if m.doc != nil && !overwrite {
		logging.TodoDebug("Ensure: document already present at %s", m.path)
		return false, nil
	}

	replaced := m.doc != nil
	m.doc = Generate(description)
	if err := m.saveLocked(); err != nil {
		return false, err
	}
	logging.Todo("Checklist %s at %s", map[bool]string{true: "replaced", false: "created"}[replaced], m.path)
	return !replaced, nil
}

// Update merges completed and new tasks into the named section and
// persists the result. Fails if the document has never been created.
func (m *Manager) Update(section string, completed, newTasks []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.loadLocked(); err != nil {
		return err
	}
	if m.doc == nil {
		return fmt.Errorf("todo document does not exist, create it first")
	}

	m.doc.Update(section, completed, newTasks)
	if err := m.saveLocked(); err != nil {
		return err
	}

	done, pending := m.doc.TaskCounts()
	logging.TodoDebug("Updated section %q: %d completed, %d pending", section, done, pending)
	return nil
}

// Snapshot returns a deep copy of the current document, or nil if it
// has never been created.
func (m *Manager) Snapshot() *Document {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.loadLocked(); err != nil || m.doc == nil {
		return nil
	}
	// Round-tripping through the text form is a cheap deep copy.
	return ParseDocument(m.doc.Serialize())
}

// loadLocked populates m.doc from disk if it is not in memory yet.
// A missing file is not an error, it just means state absent.
func (m *Manager) loadLocked() error {
	if m.doc != nil {
		return nil
	}
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", m.path, err)
	}
	m.doc = ParseDocument(string(data))
	return nil
}

func (m *Manager) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create todo directory: %w", err)
	}
	if err := os.WriteFile(m.path, []byte(m.doc.Serialize()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", m.path, err)
	}
	return nil
}
