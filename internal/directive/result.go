package directive

import (
	"fmt"
	"strings"
)

// Status is the outcome of a tool execution.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// ToolResult is the always-produced outcome of dispatching one
// directive. Failures are values, never unhandled faults.
type ToolResult struct {
	Tag     string
	Status  Status
	Payload string
	Message string

	// Args and DurationMs describe the execution for the audit trail.
	// Neither appears in the encoded wire form.
	Args       map[string]any
	DurationMs int64
}

// OK builds a success result.
func OK(tag, payload string) ToolResult {
	return ToolResult{Tag: tag, Status: StatusOK, Payload: payload}
}

// Errorf builds an error result with a formatted message.
func Errorf(tag, format string, args ...any) ToolResult {
	return ToolResult{Tag: tag, Status: StatusError, Message: fmt.Sprintf(format, args...)}
}

// IsError reports whether the result carries a failure.
func (r ToolResult) IsError() bool {
	return r.Status == StatusError
}

// Encode serializes the result into the transcript-insertable unit the
// next model turn consumes.
func (r ToolResult) Encode() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<tool_result tool="%s" status="%s">`, r.Tag, r.Status))
	if r.Status == StatusOK {
		sb.WriteString(escapeBody(r.Payload))
	} else {
		sb.WriteString(escapeBody(r.Message))
	}
	sb.WriteString("</tool_result>")
	return sb.String()
}

// escapeBody escapes the few characters that would make the result
// span itself parse as a directive.
func escapeBody(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// DecodeBody reverses escapeBody for callers that need the raw payload.
func DecodeBody(s string) string {
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&amp;", "&")
	return s
}
