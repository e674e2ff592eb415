// Package todo binds the checklist state machine to its two directive
// tags, ensure-todo and update-todo.
package todo

import (
	"context"
	"fmt"

	"dirigent/internal/directive"
	state "dirigent/internal/todo"
	"dirigent/internal/tools"
)

// Register adds the todo tools to the registry, operating on the
// manager's document.
func Register(reg *tools.Registry, mgr *state.Manager) {
	reg.MustRegister(EnsureTodoTool(mgr))
	reg.MustRegister(UpdateTodoTool(mgr))
}

// EnsureTodoTool returns the ensure-todo tool definition.
func EnsureTodoTool(mgr *state.Manager) *tools.Tool {
	return &tools.Tool{
		Tag:         "ensure-todo",
		Description: "Ensure the task checklist exists",
		Bindings: []directive.ParamBinding{
			{Name: "overwrite", Source: directive.SourceAttribute, Required: true, Type: directive.TypeBool},
			{Name: "task_description", Source: directive.SourceContent, Required: true},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			created, err := mgr.Ensure(
				tools.StringArg(args, "task_description"),
				tools.BoolArg(args, "overwrite", false),
			)
			if err != nil {
				return "", err
			}
			if created {
				return "todo.md created successfully.", nil
			}
			if tools.BoolArg(args, "overwrite", false) {
				return "todo.md updated successfully.", nil
			}
			return "todo.md already exists. Use update-todo to modify it.", nil
		},
	}
}

// UpdateTodoTool returns the update-todo tool definition.
func UpdateTodoTool(mgr *state.Manager) *tools.Tool {
	return &tools.Tool{
		Tag:         "update-todo",
		Description: "Merge completed and new tasks into a checklist section",
		Bindings: []directive.ParamBinding{
			{Name: "section", Source: directive.SourceAttribute, Required: true},
			{Name: "completed_tasks", Source: directive.SourceElement, Required: true, Type: directive.TypeList},
			{Name: "new_tasks", Source: directive.SourceElement, Required: true, Type: directive.TypeList},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			err := mgr.Update(
				tools.StringArg(args, "section"),
				tools.ListArg(args, "completed_tasks"),
				tools.ListArg(args, "new_tasks"),
			)
			if err != nil {
				return "", fmt.Errorf("failed to update todo: %w", err)
			}
			return "todo.md updated successfully.", nil
		},
	}
}
