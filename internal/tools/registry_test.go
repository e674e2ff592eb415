package tools

import (
	"context"
	"errors"
	"testing"

	"dirigent/internal/directive"
)

func testTool(tag string) *Tool {
	return &Tool{
		Tag:         tag,
		Description: "A test tool",
		Bindings: []directive.ParamBinding{
			{Name: "body", Source: directive.SourceContent, Required: true},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return "done", nil
		},
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("NewRegistry returned nil")
	}
	if reg.Count() != 0 {
		t.Errorf("new registry should be empty, got %d tools", reg.Count())
	}
}

func TestRegisterAndGet(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(testTool("create-file")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got := reg.Get("create-file")
	if got == nil {
		t.Fatal("Get returned nil for registered tool")
	}
	if got.Tag != "create-file" {
		t.Errorf("got tag %q, want %q", got.Tag, "create-file")
	}
	if reg.Schema("create-file") == nil {
		t.Error("schema was not registered alongside the tool")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(testTool("dupe")); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	err := reg.Register(testTool("dupe"))
	if err == nil {
		t.Fatal("expected error for duplicate registration")
	}
	if !errors.Is(err, ErrToolAlreadyRegistered) {
		t.Errorf("got %v, want ErrToolAlreadyRegistered", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name    string
		tool    *Tool
		wantErr error
	}{
		{
			name:    "empty tag",
			tool:    &Tool{Tag: "", Execute: func(ctx context.Context, args map[string]any) (string, error) { return "", nil }},
			wantErr: ErrToolTagEmpty,
		},
		{
			name:    "nil execute",
			tool:    &Tool{Tag: "no-exec"},
			wantErr: ErrToolExecuteNil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.Register(tt.tool)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTagsSorted(t *testing.T) {
	reg := NewRegistry()
	for _, tag := range []string{"web-search", "create-file", "str-replace"} {
		if err := reg.Register(testTool(tag)); err != nil {
			t.Fatalf("Register(%s) failed: %v", tag, err)
		}
	}

	tags := reg.Tags()
	want := []string{"create-file", "str-replace", "web-search"}
	if len(tags) != len(want) {
		t.Fatalf("got %d tags, want %d", len(tags), len(want))
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("tags[%d] = %q, want %q", i, tags[i], want[i])
		}
	}
}

func TestArgHelpers(t *testing.T) {
	args := map[string]any{
		"name":  "todo.md",
		"count": 3,
		"force": true,
		"items": []string{"a"},
	}

	if got := StringArg(args, "name"); got != "todo.md" {
		t.Errorf("StringArg = %q", got)
	}
	if got := IntArg(args, "count", 0); got != 3 {
		t.Errorf("IntArg = %d", got)
	}
	if got := IntArg(args, "missing", 7); got != 7 {
		t.Errorf("IntArg default = %d", got)
	}
	if !BoolArg(args, "force", false) {
		t.Error("BoolArg = false")
	}
	if got := ListArg(args, "items"); len(got) != 1 || got[0] != "a" {
		t.Errorf("ListArg = %v", got)
	}
}
