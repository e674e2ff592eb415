// Package file provides the workspace file-mutation tools. All paths
// are resolved inside the workspace root; a directive can never reach
// outside it.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dirigent/internal/directive"
	"dirigent/internal/logging"
	"dirigent/internal/tools"
)

// Register adds all file tools to the registry, rooted at workspace.
func Register(reg *tools.Registry, workspace string) {
	reg.MustRegister(CreateFileTool(workspace))
	reg.MustRegister(FullFileRewriteTool(workspace))
	reg.MustRegister(StrReplaceTool(workspace))
	reg.MustRegister(DeleteFileTool(workspace))
	reg.MustRegister(ReadFileTool(workspace))
}

// resolve joins a directive-supplied path onto the workspace root and
// rejects traversal outside it.
func resolve(workspace, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("file_path is required")
	}
	if filepath.IsAbs(path) {
		path = strings.TrimPrefix(path, string(filepath.Separator))
	}
	full := filepath.Join(workspace, path)

	rel, err := filepath.Rel(workspace, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes workspace: %s", path)
	}
	return full, nil
}

// CreateFileTool writes a new file. Fails if the file already exists,
// so an accidental re-emit cannot clobber prior work.
func CreateFileTool(workspace string) *tools.Tool {
	return &tools.Tool{
		Tag:         "create-file",
		Description: "Create a new file with the given contents",
		Bindings: []directive.ParamBinding{
			{Name: "file_path", Source: directive.SourceAttribute, Required: true},
			{Name: "body", Source: directive.SourceContent, Required: true},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			path, err := resolve(workspace, tools.StringArg(args, "file_path"))
			if err != nil {
				return "", err
			}
			if _, err := os.Stat(path); err == nil {
				return "", fmt.Errorf("file already exists: %s (use full-file-rewrite to replace it)", tools.StringArg(args, "file_path"))
			}
			if err := writeFile(path, tools.StringArg(args, "body")); err != nil {
				return "", err
			}
			logging.Tools("create-file: %s", path)
			return fmt.Sprintf("Created %s", tools.StringArg(args, "file_path")), nil
		},
	}
}

// FullFileRewriteTool replaces a file's contents wholesale, creating
// it if absent.
func FullFileRewriteTool(workspace string) *tools.Tool {
	return &tools.Tool{
		Tag:         "full-file-rewrite",
		Description: "Replace a file's entire contents",
		Bindings: []directive.ParamBinding{
			{Name: "file_path", Source: directive.SourceAttribute, Required: true},
			{Name: "body", Source: directive.SourceContent, Required: true},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			path, err := resolve(workspace, tools.StringArg(args, "file_path"))
			if err != nil {
				return "", err
			}
			if err := writeFile(path, tools.StringArg(args, "body")); err != nil {
				return "", err
			}
			logging.Tools("full-file-rewrite: %s", path)
			return fmt.Sprintf("Rewrote %s", tools.StringArg(args, "file_path")), nil
		},
	}
}

// StrReplaceTool replaces one occurrence of old_str in the file. The
// old string must match exactly once so the edit is unambiguous.
func StrReplaceTool(workspace string) *tools.Tool {
	return &tools.Tool{
		Tag:         "str-replace",
		Description: "Replace a unique string in a file",
		Bindings: []directive.ParamBinding{
			{Name: "file_path", Source: directive.SourceAttribute, Required: true},
			{Name: "old_str", Source: directive.SourceElement, Required: true},
			{Name: "new_str", Source: directive.SourceElement, Required: true},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			path, err := resolve(workspace, tools.StringArg(args, "file_path"))
			if err != nil {
				return "", err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return "", fmt.Errorf("failed to read file: %w", err)
			}

			content := string(data)
			oldStr := tools.StringArg(args, "old_str")
			switch n := strings.Count(content, oldStr); {
			case oldStr == "":
				return "", fmt.Errorf("old_str must not be empty")
			case n == 0:
				return "", fmt.Errorf("old_str not found in %s", tools.StringArg(args, "file_path"))
			case n > 1:
				return "", fmt.Errorf("old_str occurs %d times in %s, must be unique", n, tools.StringArg(args, "file_path"))
			}

			content = strings.Replace(content, oldStr, tools.StringArg(args, "new_str"), 1)
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return "", fmt.Errorf("failed to write file: %w", err)
			}
			logging.Tools("str-replace: %s", path)
			return fmt.Sprintf("Replaced string in %s", tools.StringArg(args, "file_path")), nil
		},
	}
}

// DeleteFileTool removes a file.
func DeleteFileTool(workspace string) *tools.Tool {
	return &tools.Tool{
		Tag:         "delete-file",
		Description: "Delete a file",
		Bindings: []directive.ParamBinding{
			{Name: "file_path", Source: directive.SourceAttribute, Required: true},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			path, err := resolve(workspace, tools.StringArg(args, "file_path"))
			if err != nil {
				return "", err
			}
			if err := os.Remove(path); err != nil {
				return "", fmt.Errorf("failed to delete file: %w", err)
			}
			logging.Tools("delete-file: %s", path)
			return fmt.Sprintf("Deleted %s", tools.StringArg(args, "file_path")), nil
		},
	}
}

// ReadFileTool returns a file's contents, optionally a line range.
func ReadFileTool(workspace string) *tools.Tool {
	return &tools.Tool{
		Tag:         "read-file",
		Description: "Read the contents of a file",
		Bindings: []directive.ParamBinding{
			{Name: "file_path", Source: directive.SourceAttribute, Required: true},
			{Name: "start_line", Source: directive.SourceAttribute, Type: directive.TypeInt},
			{Name: "end_line", Source: directive.SourceAttribute, Type: directive.TypeInt},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			path, err := resolve(workspace, tools.StringArg(args, "file_path"))
			if err != nil {
				return "", err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return "", fmt.Errorf("failed to read file: %w", err)
			}

			content := string(data)
			start := tools.IntArg(args, "start_line", 0)
			end := tools.IntArg(args, "end_line", 0)
			if start > 0 || end > 0 {
				lines := strings.Split(content, "\n")
				if start < 1 {
					start = 1
				}
				if end < 1 || end > len(lines) {
					end = len(lines)
				}
				if start > len(lines) {
					start = len(lines)
				}
				content = strings.Join(lines[start-1:end], "\n")
			}
			return content, nil
		},
	}
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
