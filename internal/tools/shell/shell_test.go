package shell

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirigent/internal/tools"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("sh is not available on windows")
	}
}

func TestExecuteCommand(t *testing.T) {
	skipOnWindows(t)
	r := NewRunner(t.TempDir())

	out, err := r.execute(context.Background(), map[string]any{
		"command": "echo hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
}

func TestExecuteCommandStderr(t *testing.T) {
	skipOnWindows(t)
	r := NewRunner(t.TempDir())

	out, err := r.execute(context.Background(), map[string]any{
		"command": "echo out; echo err >&2",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "out")
	assert.Contains(t, out, "--- stderr ---")
	assert.Contains(t, out, "err")
}

func TestExecuteCommandFailure(t *testing.T) {
	skipOnWindows(t)
	r := NewRunner(t.TempDir())

	_, err := r.execute(context.Background(), map[string]any{
		"command": "exit 3",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command failed")
}

func TestExecuteCommandTimeout(t *testing.T) {
	skipOnWindows(t)
	r := NewRunner(t.TempDir())

	_, err := r.execute(context.Background(), map[string]any{
		"command": "sleep 5",
		"timeout": 1,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestSessionWorkingDirPersists(t *testing.T) {
	skipOnWindows(t)
	ws := t.TempDir()
	r := NewRunner(ws)
	ctx := context.Background()

	// First command pins the session to a subfolder.
	_, err := r.execute(ctx, map[string]any{
		"command":      "touch marker.txt",
		"folder":       "project",
		"session_name": "build",
	})
	require.NoError(t, err)

	// Later commands in the same session run in the same directory.
	out, err := r.execute(ctx, map[string]any{
		"command":      "ls",
		"session_name": "build",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "marker.txt")

	// A different session starts back at the workspace root.
	_, err = r.execute(ctx, map[string]any{
		"command":      "touch root-marker.txt",
		"session_name": "other",
	})
	require.NoError(t, err)
	_, statErr := os.Stat(filepath.Join(ws, "root-marker.txt"))
	assert.NoError(t, statErr)
}

func TestFolderEscapeRejected(t *testing.T) {
	skipOnWindows(t)
	r := NewRunner(t.TempDir())

	_, err := r.execute(context.Background(), map[string]any{
		"command": "true",
		"folder":  "../elsewhere",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes workspace")
}

func TestRegister(t *testing.T) {
	reg := tools.NewRegistry()
	Register(reg, t.TempDir())
	assert.True(t, reg.Has("execute-command"))
}
