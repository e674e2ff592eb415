package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirigent/internal/router"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "dirigent.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "dirigent.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()
}

func TestRecordAndQueryAudit(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.RecordAudit(AuditRecord{
		SessionID: "sess-1",
		TurnID:    "turn-1",
		Tag:       "create-file",
		Args:      map[string]any{"file_path": "main.go"},
		Status:    "ok",
	}))
	require.NoError(t, s.RecordAudit(AuditRecord{
		SessionID:  "sess-1",
		TurnID:     "turn-1",
		Tag:        "execute-command",
		Status:     "error",
		Message:    "timeout",
		DurationMs: 60000,
	}))
	require.NoError(t, s.RecordAudit(AuditRecord{
		SessionID: "sess-2",
		Tag:       "web-search",
		Status:    "ok",
	}))

	recs, err := s.AuditsForSession("sess-1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "create-file", recs[0].Tag)
	assert.Equal(t, "main.go", recs[0].Args["file_path"])
	assert.Equal(t, "timeout", recs[1].Message)
}

func TestTodoRoundTrip(t *testing.T) {
	s := openTestStore(t)

	_, found, err := s.LoadTodo("sess-1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.SaveTodo("sess-1", "# Task\n\n## Tasks\n- [ ] first\n"))
	require.NoError(t, s.SaveTodo("sess-1", "# Task\n\n## Tasks\n- [x] first\n"))

	content, found, err := s.LoadTodo("sess-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, content, "- [x] first")
}

func TestRecordSelection(t *testing.T) {
	s := openTestStore(t)

	s.RecordSelection("debug this function", router.Classification{
		TaskType:      router.TaskCoding,
		Confidence:    0.2,
		SelectedModel: "qwen2.5-coder:32b-instruct-q8_0",
	})
	s.RecordSelection("how do I make pasta", router.Classification{
		TaskType:      router.TaskGeneral,
		Confidence:    0.0,
		SelectedModel: "qwen3:32b",
	})

	n, err := s.SelectionCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
