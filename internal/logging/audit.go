// Audit logging for tool dispatch. Every directive execution emits one
// structured event so a conversation's side effects can be reconstructed
// after the fact.
package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// AuditEventType defines the type of audit event.
type AuditEventType string

const (
	// Tool execution events
	AuditToolInvoke   AuditEventType = "tool_invoke"
	AuditToolComplete AuditEventType = "tool_complete"
	AuditToolError    AuditEventType = "tool_error"
	AuditToolTimeout  AuditEventType = "tool_timeout"

	// Directive protocol events
	AuditParseError      AuditEventType = "parse_error"
	AuditValidationError AuditEventType = "validation_error"
	AuditUnknownTool     AuditEventType = "unknown_tool"

	// Session events
	AuditSessionStart AuditEventType = "session_start"
	AuditSessionEnd   AuditEventType = "session_end"
	AuditTurnStart    AuditEventType = "turn_start"
	AuditTurnEnd      AuditEventType = "turn_end"

	// Routing events
	AuditModelSelected AuditEventType = "model_selected"
)

// AuditEvent is one structured audit log entry.
type AuditEvent struct {
	Timestamp  int64                  `json:"ts"`      // Unix milliseconds
	EventType  AuditEventType         `json:"event"`   //
	SessionID  string                 `json:"session"` // Session correlation
	TurnID     string                 `json:"turn"`    // Turn correlation
	Tag        string                 `json:"tag"`     // Directive tag if applicable
	Args       map[string]interface{} `json:"args,omitempty"`
	Success    bool                   `json:"success"`
	DurationMs int64                  `json:"dur_ms"`
	Error      string                 `json:"error,omitempty"`
	Message    string                 `json:"msg,omitempty"`
}

var (
	auditFile   *os.File
	auditMu     sync.Mutex
	auditLogger = &AuditLogger{}
)

// AuditLogger writes structured audit events, optionally scoped to a session.
type AuditLogger struct {
	sessionID string
}

// InitAudit opens the audit trail file. A no-op outside debug mode and
// when already open.
func InitAudit() error {
	if !IsDebugMode() {
		return nil
	}

	auditMu.Lock()
	defer auditMu.Unlock()
	if auditFile != nil {
		return nil
	}

	name := fmt.Sprintf("%s_audit.log", time.Now().Format("2006-01-02"))
	file, err := os.OpenFile(filepath.Join(logsDir(), name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	auditFile = file
	fmt.Fprintf(auditFile, "# Audit log started at %s\n", time.Now().Format(time.RFC3339))
	return nil
}

// CloseAudit closes the audit log file.
func CloseAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		auditFile.Close()
		auditFile = nil
	}
}

// Audit returns the unscoped audit logger.
func Audit() *AuditLogger {
	return auditLogger
}

// AuditWithSession creates an audit logger scoped to a session.
func AuditWithSession(sessionID string) *AuditLogger {
	return &AuditLogger{sessionID: sessionID}
}

// Log writes one event as a JSONL line. Events are dropped silently
// when the trail is not open.
func (a *AuditLogger) Log(event AuditEvent) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	if event.SessionID == "" && a.sessionID != "" {
		event.SessionID = a.sessionID
	}

	auditMu.Lock()
	defer auditMu.Unlock()
	if auditFile == nil {
		return
	}
	if data, err := json.Marshal(event); err == nil {
		auditFile.Write(append(data, '\n'))
	}
}

// ToolInvoked records the start of a tool execution.
func (a *AuditLogger) ToolInvoked(turnID, tag string, args map[string]interface{}) {
	a.Log(AuditEvent{
		EventType: AuditToolInvoke,
		TurnID:    turnID,
		Tag:       tag,
		Args:      args,
		Success:   true,
	})
}

// ToolCompleted records the outcome of a tool execution.
func (a *AuditLogger) ToolCompleted(turnID, tag string, args map[string]interface{}, success bool, durMs int64, errMsg string) {
	eventType := AuditToolComplete
	if !success {
		eventType = AuditToolError
		if strings.Contains(errMsg, "timeout") {
			eventType = AuditToolTimeout
		}
	}
	a.Log(AuditEvent{
		EventType:  eventType,
		TurnID:     turnID,
		Tag:        tag,
		Args:       args,
		Success:    success,
		DurationMs: durMs,
		Error:      errMsg,
	})
}

// ModelSelected records a routing decision.
func (a *AuditLogger) ModelSelected(taskType, model string, confidence float64, overrideReason string) {
	a.Log(AuditEvent{
		EventType: AuditModelSelected,
		Success:   true,
		Message:   fmt.Sprintf("task=%s model=%s confidence=%.2f override=%s", taskType, model, confidence, overrideReason),
	})
}
