// Package shell provides the execute-command tool. Commands run under
// sh -c inside the workspace; a session_name attribute gives the model
// named working directories that persist across directives, standing
// in for real sandbox sessions.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"dirigent/internal/directive"
	"dirigent/internal/logging"
	"dirigent/internal/tools"
)

const defaultTimeoutSeconds = 60

// Runner tracks per-session working directories for execute-command.
type Runner struct {
	workspace string

	mu       sync.Mutex
	sessions map[string]string
}

// NewRunner creates a runner rooted at workspace.
func NewRunner(workspace string) *Runner {
	return &Runner{
		workspace: workspace,
		sessions:  make(map[string]string),
	}
}

// Register adds the execute-command tool to the registry.
func Register(reg *tools.Registry, workspace string) *Runner {
	r := NewRunner(workspace)
	reg.MustRegister(r.ExecuteCommandTool())
	return r
}

// ExecuteCommandTool returns the execute-command tool definition.
func (r *Runner) ExecuteCommandTool() *tools.Tool {
	return &tools.Tool{
		Tag:         "execute-command",
		Description: "Execute a shell command in the workspace",
		// The dispatcher budget must outlast the command's own
		// timeout attribute, which callers may raise.
		Timeout: 10 * time.Minute,
		Bindings: []directive.ParamBinding{
			{Name: "command", Source: directive.SourceContent, Required: true},
			{Name: "folder", Source: directive.SourceAttribute},
			{Name: "session_name", Source: directive.SourceAttribute},
			{Name: "timeout", Source: directive.SourceAttribute, Type: directive.TypeInt},
		},
		Execute: r.execute,
	}
}

func (r *Runner) execute(ctx context.Context, args map[string]any) (string, error) {
	command := tools.StringArg(args, "command")

	dir, err := r.workingDir(tools.StringArg(args, "session_name"), tools.StringArg(args, "folder"))
	if err != nil {
		return "", err
	}

	timeout := tools.IntArg(args, "timeout", defaultTimeoutSeconds)
	if timeout <= 0 {
		timeout = defaultTimeoutSeconds
	}
	execCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	logging.ToolsDebug("execute-command: dir=%s timeout=%ds cmd=%s", dir, timeout, command)

	cmd := exec.CommandContext(execCtx, "sh", "-c", command)
	cmd.Dir = dir
	cmd.Env = os.Environ()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	output := stdout.String()
	if stderr.Len() > 0 {
		if output != "" {
			output += "\n--- stderr ---\n"
		}
		output += stderr.String()
	}

	if runErr != nil {
		if execCtx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("timeout: command exceeded %d seconds", timeout)
		}
		return "", fmt.Errorf("command failed: %v\nOutput:\n%s", runErr, output)
	}

	logging.Tools("execute-command completed (%d bytes output)", len(output))
	return output, nil
}

// workingDir resolves where the command runs. A session_name maps to a
// remembered directory; folder moves that session (or, without a
// session, runs one-off in the named workspace subdirectory).
func (r *Runner) workingDir(session, folder string) (string, error) {
	var dir string

	if folder != "" {
		folder = strings.TrimPrefix(folder, "/")
		candidate := filepath.Join(r.workspace, folder)
		rel, err := filepath.Rel(r.workspace, candidate)
		if err != nil || strings.HasPrefix(rel, "..") {
			return "", fmt.Errorf("folder escapes workspace: %s", folder)
		}
		if err := os.MkdirAll(candidate, 0o755); err != nil {
			return "", fmt.Errorf("failed to create folder: %w", err)
		}
		dir = candidate
	}

	if session == "" {
		if dir == "" {
			dir = r.workspace
		}
		return dir, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if dir != "" {
		r.sessions[session] = dir
		return dir, nil
	}
	if remembered, ok := r.sessions[session]; ok {
		return remembered, nil
	}
	r.sessions[session] = r.workspace
	return r.workspace, nil
}
