// Package todo maintains the per-session checklist document: ordered
// sections of completed and pending tasks. All mutation flows through
// an idempotent merge, so the model can re-emit the same update after
// a retry without corrupting the list.
package todo

import (
	"fmt"
	"strings"
)

// Section is one named block of tasks. Task order within each state is
// insertion-stable and each task string appears at most once.
type Section struct {
	Name      string
	Completed []string
	Pending   []string
}

// has reports whether the task string exists in either state.
func (s *Section) has(task string) bool {
	for _, t := range s.Completed {
		if t == task {
			return true
		}
	}
	for _, t := range s.Pending {
		if t == task {
			return true
		}
	}
	return false
}

// complete moves a pending task to completed. Unknown and
// already-completed tasks are no-ops, which is what makes repeated
// updates converge.
func (s *Section) complete(task string) {
	for i, t := range s.Pending {
		if t == task {
			s.Pending = append(s.Pending[:i], s.Pending[i+1:]...)
			s.Completed = append(s.Completed, task)
			return
		}
	}
}

// Document is a checklist with ordered sections.
type Document struct {
	Title    string
	Sections []*Section
}

// NewDocument creates an empty document with the given title.
func NewDocument(title string) *Document {
	return &Document{Title: title}
}

// Section returns the named section, or nil.
func (d *Document) Section(name string) *Section {
	for _, s := range d.Sections {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// EnsureSection returns the named section, appending an empty one if
// it does not exist yet.
func (d *Document) EnsureSection(name string) *Section {
	if s := d.Section(name); s != nil {
		return s
	}
	s := &Section{Name: name}
	d.Sections = append(d.Sections, s)
	return s
}

// Update merges an update into the named section, creating it if
// missing. Tasks named in completed move from pending to completed;
// tasks in newTasks are appended to pending unless already present in
// either state. Applying the same update twice yields the same
// document as applying it once, and a completed task is never demoted.
func (d *Document) Update(section string, completed, newTasks []string) {
	s := d.EnsureSection(section)

	for _, task := range completed {
		task = strings.TrimSpace(task)
		if task == "" {
			continue
		}
		s.complete(task)
	}

	for _, task := range newTasks {
		task = strings.TrimSpace(task)
		if task == "" || s.has(task) {
			continue
		}
		s.Pending = append(s.Pending, task)
	}
}

// TaskCounts returns the total completed and pending task counts.
func (d *Document) TaskCounts() (completed, pending int) {
	for _, s := range d.Sections {
		completed += len(s.Completed)
		pending += len(s.Pending)
	}
	return completed, pending
}

// Serialize renders the document in its canonical checklist form:
// an H1 title, H2 section headers, and one checkbox line per task.
func (d *Document) Serialize() string {
	var b strings.Builder
	if d.Title != "" {
		fmt.Fprintf(&b, "# %s\n", d.Title)
	}
	for _, s := range d.Sections {
		fmt.Fprintf(&b, "\n## %s\n", s.Name)
		for _, t := range s.Completed {
			fmt.Fprintf(&b, "- [x] %s\n", t)
		}
		for _, t := range s.Pending {
			fmt.Fprintf(&b, "- [ ] %s\n", t)
		}
	}
	return b.String()
}

// ParseDocument rebuilds a Document from its checklist text form.
// Lines that are neither headers nor checkboxes are ignored, so the
// parse tolerates blank lines and stray prose. Checkbox lines before
// any section header go into an implicit "Tasks" section.
func ParseDocument(text string) *Document {
	d := &Document{}
	var current *Section

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "## "):
			current = d.EnsureSection(strings.TrimSpace(trimmed[3:]))

		case strings.HasPrefix(trimmed, "# "):
			if d.Title == "" {
				d.Title = strings.TrimSpace(trimmed[2:])
			}

		case strings.HasPrefix(trimmed, "- [x] "), strings.HasPrefix(trimmed, "- [X] "):
			if current == nil {
				current = d.EnsureSection("Tasks")
			}
			task := strings.TrimSpace(trimmed[6:])
			if task != "" && !current.has(task) {
				current.Completed = append(current.Completed, task)
			}

		case strings.HasPrefix(trimmed, "- [ ] "):
			if current == nil {
				current = d.EnsureSection("Tasks")
			}
			task := strings.TrimSpace(trimmed[6:])
			if task != "" && !current.has(task) {
				current.Pending = append(current.Pending, task)
			}
		}
	}
	return d
}
