package directive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func updateTodoSchema() *ToolSchema {
	return &ToolSchema{
		Tag: "update-todo",
		Bindings: []ParamBinding{
			{Name: "section", Source: SourceAttribute, Required: true},
			{Name: "completed_tasks", Source: SourceElement, Required: true, Type: TypeList},
			{Name: "new_tasks", Source: SourceElement, Required: true, Type: TypeList},
		},
	}
}

func TestValidateRoundTrip(t *testing.T) {
	// Synthetic directive exercising every binding kind.
	schema := &ToolSchema{
		Tag: "demo",
		Bindings: []ParamBinding{
			{Name: "count", Source: SourceAttribute, Path: "count", Required: true, Type: TypeInt},
			{Name: "force", Source: SourceAttribute, Required: true, Type: TypeBool},
			{Name: "body", Source: SourceContent, Required: true},
			{Name: "items", Source: SourceElement, Path: "items", Required: true, Type: TypeList},
		},
	}

	text := `<demo count="3" force="true">payload text<items>["a","b"]</items></demo>`
	items := Parse(text)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Invocation)

	call, verr := Validate(schema, items[0].Invocation)
	require.Nil(t, verr)
	assert.Equal(t, "demo", call.Tag)
	assert.Equal(t, 3, call.Args["count"])
	assert.Equal(t, true, call.Args["force"])
	assert.Equal(t, []string{"a", "b"}, call.Args["items"])
	// Body keeps child markup out of scope for content bindings but the
	// full body text is what was parsed.
	assert.Contains(t, call.Args["body"], "payload text")
}

func TestValidateMissingRequired(t *testing.T) {
	inv := &Invocation{
		Tag:   "update-todo",
		Attrs: map[string]string{"section": "Implementation"},
		Children: []ChildElement{
			{Name: "completed_tasks", Value: `["A"]`},
		},
	}

	call, verr := Validate(updateTodoSchema(), inv)
	assert.Nil(t, call)
	require.NotNil(t, verr)
	assert.Equal(t, "new_tasks", verr.Binding)
	assert.Contains(t, verr.Error(), "new_tasks")
}

func TestValidateCoercionFailure(t *testing.T) {
	schema := &ToolSchema{
		Tag: "web-search",
		Bindings: []ParamBinding{
			{Name: "query", Source: SourceAttribute, Required: true},
			{Name: "num_results", Source: SourceAttribute, Type: TypeInt},
		},
	}
	inv := &Invocation{
		Tag:   "web-search",
		Attrs: map[string]string{"query": "go", "num_results": "lots"},
	}

	call, verr := Validate(schema, inv)
	assert.Nil(t, call)
	require.NotNil(t, verr)
	assert.Equal(t, "num_results", verr.Binding)
}

func TestValidateIgnoresUnknownAttrs(t *testing.T) {
	schema := &ToolSchema{
		Tag: "web-search",
		Bindings: []ParamBinding{
			{Name: "query", Source: SourceAttribute, Required: true},
		},
	}
	inv := &Invocation{
		Tag:   "web-search",
		Attrs: map[string]string{"query": "go", "experimental_flag": "yes"},
	}

	call, verr := Validate(schema, inv)
	require.Nil(t, verr)
	assert.Equal(t, map[string]any{"query": "go"}, call.Args)
}

func TestValidateOptionalAbsent(t *testing.T) {
	schema := &ToolSchema{
		Tag: "execute-command",
		Bindings: []ParamBinding{
			{Name: "command", Source: SourceContent, Required: true},
			{Name: "folder", Source: SourceAttribute},
			{Name: "timeout", Source: SourceAttribute, Type: TypeInt},
		},
	}
	inv := &Invocation{Tag: "execute-command", Body: "ls -la", Attrs: map[string]string{}}

	call, verr := Validate(schema, inv)
	require.Nil(t, verr)
	assert.Equal(t, "ls -la", call.Args["command"])
	_, hasFolder := call.Args["folder"]
	assert.False(t, hasFolder)
}

func TestCoerceListForms(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"json array", `["a", "b"]`, []string{"a", "b"}},
		{"newlines", "a\nb", []string{"a", "b"}},
		{"bullets", "- a\n- b", []string{"a", "b"}},
		{"commas", "a, b", []string{"a", "b"}},
		{"empty", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coerceList(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceListMalformedJSON(t *testing.T) {
	_, err := coerceList(`["unterminated`)
	assert.Error(t, err)
}

func TestRegistryDuplicateTag(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(updateTodoSchema()))

	err := reg.Register(updateTodoSchema())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateTag)
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(updateTodoSchema()))

	assert.NotNil(t, reg.Lookup("update-todo"))
	assert.Nil(t, reg.Lookup("frobnicate"))
	assert.Equal(t, []string{"update-todo"}, reg.Tags())
}
