package todo

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateIdempotentMerge(t *testing.T) {
	once := NewDocument("Task: demo")
	once.EnsureSection("Implementation").Pending = []string{"A"}
	once.Update("Implementation", []string{"A"}, []string{"B"})

	twice := NewDocument("Task: demo")
	twice.EnsureSection("Implementation").Pending = []string{"A"}
	twice.Update("Implementation", []string{"A"}, []string{"B"})
	twice.Update("Implementation", []string{"A"}, []string{"B"})

	assert.Equal(t, once.Serialize(), twice.Serialize())

	s := twice.Section("Implementation")
	require.NotNil(t, s)
	assert.Equal(t, []string{"A"}, s.Completed)
	assert.Equal(t, []string{"B"}, s.Pending)
}

func TestUpdateCreatesMissingSection(t *testing.T) {
	d := NewDocument("Task: demo")
	d.Update("Follow-up", nil, []string{"ship it"})

	s := d.Section("Follow-up")
	require.NotNil(t, s)
	assert.Equal(t, []string{"ship it"}, s.Pending)
}

func TestUpdateNeverDemotesCompleted(t *testing.T) {
	d := NewDocument("Task: demo")
	d.Update("Tasks", nil, []string{"A"})
	d.Update("Tasks", []string{"A"}, nil)

	// Re-adding a completed task must not resurrect it as pending.
	d.Update("Tasks", nil, []string{"A"})

	s := d.Section("Tasks")
	assert.Equal(t, []string{"A"}, s.Completed)
	assert.Empty(t, s.Pending)
}

func TestUpdatePreservesOrder(t *testing.T) {
	d := NewDocument("Task: demo")
	d.Update("Tasks", nil, []string{"one", "two", "three"})
	d.Update("Tasks", []string{"two"}, []string{"four"})

	s := d.Section("Tasks")
	assert.Equal(t, []string{"two"}, s.Completed)
	assert.Equal(t, []string{"one", "three", "four"}, s.Pending)
}

func TestSerializeParseRoundTrip(t *testing.T) {
	d := NewDocument("Task: build a parser")
	d.Update("Initial Research", nil, []string{"read the grammar", "survey libraries"})
	d.Update("Initial Research", []string{"read the grammar"}, nil)
	d.Update("Implementation", nil, []string{"write the scanner"})

	text := d.Serialize()
	assert.Contains(t, text, "# Task: build a parser")
	assert.Contains(t, text, "## Initial Research")
	assert.Contains(t, text, "- [x] read the grammar")
	assert.Contains(t, text, "- [ ] survey libraries")

	parsed := ParseDocument(text)
	if diff := cmp.Diff(d, parsed); diff != "" {
		t.Errorf("document changed across round trip (-want +got):\n%s", diff)
	}
	assert.Equal(t, text, parsed.Serialize())
}

func TestParseTolerantOfProse(t *testing.T) {
	text := strings.Join([]string{
		"# My Plan",
		"",
		"Some explanatory prose the model added.",
		"## Phase One",
		"- [x] done thing",
		"- [ ] next thing",
		"random trailing note",
	}, "\n")

	d := ParseDocument(text)
	assert.Equal(t, "My Plan", d.Title)
	require.Len(t, d.Sections, 1)
	assert.Equal(t, []string{"done thing"}, d.Sections[0].Completed)
	assert.Equal(t, []string{"next thing"}, d.Sections[0].Pending)
}

func TestGenerateDefaultTemplate(t *testing.T) {
	d := Generate("Create a React application")
	assert.Equal(t, "Task: Create a React application", d.Title)
	require.NotNil(t, d.Section("Implementation"))
	require.NotNil(t, d.Section("Delivery"))
	_, pending := d.TaskCounts()
	assert.Greater(t, pending, 0)
}

func TestGenerateMarketResearchTemplate(t *testing.T) {
	d := Generate("market research for electric vehicles")
	assert.Equal(t, "electric vehicles Market Analysis", d.Title)
	require.NotNil(t, d.Section("Detailed Analysis"))
	assert.Nil(t, d.Section("Implementation"))
}

func TestManagerEnsureIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.md")
	m := NewManager(path)

	created, err := m.Ensure("build a widget", false)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = m.Ensure("a totally different task", false)
	require.NoError(t, err)
	assert.False(t, created, "second ensure without overwrite is a no-op")

	doc := m.Snapshot()
	require.NotNil(t, doc)
	assert.Equal(t, "Task: build a widget", doc.Title)

	_, err = m.Ensure("a totally different task", true)
	require.NoError(t, err)
	assert.Equal(t, "Task: a totally different task", m.Snapshot().Title)
}

func TestManagerUpdateRequiresDocument(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "todo.md"))
	err := m.Update("Tasks", nil, []string{"X"})
	require.Error(t, err)
}

func TestManagerPersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.md")

	m1 := NewManager(path)
	_, err := m1.Ensure("persist me", false)
	require.NoError(t, err)
	require.NoError(t, m1.Update("Implementation", []string{"Set up project structure"}, []string{"wire the store"}))

	m2 := NewManager(path)
	doc := m2.Snapshot()
	require.NotNil(t, doc)
	s := doc.Section("Implementation")
	require.NotNil(t, s)
	assert.Contains(t, s.Completed, "Set up project structure")
	assert.Contains(t, s.Pending, "wire the store")
}
