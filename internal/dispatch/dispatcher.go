// Package dispatch executes validated directive calls against the tool
// registry. Calls within a turn run sequentially in document order so
// each tool observes the side effects of the ones before it. Every
// execution is bounded by a timeout and shielded against panics; the
// dispatcher itself never fails a turn, it only produces error results.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"dirigent/internal/config"
	"dirigent/internal/directive"
	"dirigent/internal/logging"
	"dirigent/internal/tools"
)

// Dispatcher routes validated calls to registered tools.
type Dispatcher struct {
	registry *tools.Registry
	cfg      config.DispatchConfig
	audit    *logging.AuditLogger
}

// New creates a dispatcher over the given registry.
func New(registry *tools.Registry, cfg config.DispatchConfig) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		cfg:      cfg,
		audit:    logging.Audit(),
	}
}

// WithAudit returns a view of the dispatcher that routes audit events
// through the given logger, typically one carrying a session ID. The
// underlying registry and config are shared.
func (d *Dispatcher) WithAudit(audit *logging.AuditLogger) *Dispatcher {
	clone := *d
	clone.audit = audit
	return &clone
}

// Registry returns the underlying tool registry.
func (d *Dispatcher) Registry() *tools.Registry {
	return d.registry
}

// Execute runs a single validated call and returns its result. Unknown
// tags, tool errors, timeouts, and panics all surface as error results;
// Execute never returns a Go error.
func (d *Dispatcher) Execute(ctx context.Context, turnID string, call *directive.ValidatedCall) directive.ToolResult {
	tool := d.registry.Get(call.Tag)
	if tool == nil {
		logging.Dispatch("Unknown tool tag: %s", call.Tag)
		d.audit.Log(logging.AuditEvent{
			EventType: logging.AuditUnknownTool,
			TurnID:    turnID,
			Tag:       call.Tag,
			Success:   false,
			Error:     "no tool registered",
		})
		return directive.Errorf(call.Tag, "unknown tool: no tool registered for tag %q", call.Tag)
	}

	timeout := d.timeoutFor(tool)
	d.audit.ToolInvoked(turnID, call.Tag, call.Args)
	logging.DispatchDebug("Executing %s (timeout %s)", call.Tag, timeout)

	start := time.Now()
	result := d.run(ctx, tool, call, timeout)
	durMs := time.Since(start).Milliseconds()
	result.Args = call.Args
	result.DurationMs = durMs

	d.audit.ToolCompleted(turnID, call.Tag, call.Args, !result.IsError(), durMs, result.Message)
	if result.IsError() {
		logging.Dispatch("Tool %s failed after %dms: %s", call.Tag, durMs, result.Message)
	} else {
		logging.DispatchDebug("Tool %s completed in %dms", call.Tag, durMs)
	}
	return result
}

// run executes the tool body in its own goroutine so a hung tool cannot
// wedge the turn past its deadline. The goroutine is left to finish in
// the background on timeout; its result is discarded.
func (d *Dispatcher) run(ctx context.Context, tool *tools.Tool, call *directive.ValidatedCall, timeout time.Duration) directive.ToolResult {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan directive.ToolResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.Dispatch("Tool %s panicked: %v", tool.Tag, r)
				done <- directive.Errorf(tool.Tag, "internal error: tool %s aborted", tool.Tag)
			}
		}()

		payload, err := tool.Execute(ctx, call.Args)
		if err != nil {
			done <- directive.Errorf(tool.Tag, "%s", err.Error())
			return
		}
		done <- directive.OK(tool.Tag, d.clamp(payload))
	}()

	select {
	case result := <-done:
		return result
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return directive.Errorf(tool.Tag, "timeout: %s exceeded %s", tool.Tag, timeout)
		}
		return directive.Errorf(tool.Tag, "canceled: %v", ctx.Err())
	}
}

// ExecuteTurn processes every parsed item of one model turn, in order.
// Span errors and validation failures become error results in the same
// positions their directives occupied, so the caller can feed the full
// sequence back to the model.
func (d *Dispatcher) ExecuteTurn(ctx context.Context, turnID string, items []directive.Item) []directive.ToolResult {
	results := make([]directive.ToolResult, 0, len(items))
	for _, item := range items {
		if item.Err != nil {
			d.audit.Log(logging.AuditEvent{
				EventType: logging.AuditParseError,
				TurnID:    turnID,
				Tag:       item.Err.Tag,
				Success:   false,
				Error:     item.Err.Reason,
			})
			results = append(results, directive.Errorf(item.Err.Tag, "malformed directive: %s", item.Err.Reason))
			continue
		}

		inv := item.Invocation
		schema := d.registry.Schema(inv.Tag)
		if schema == nil {
			// Unknown tag: report through Execute so the result
			// carries the standard unknown-tool message.
			results = append(results, d.Execute(ctx, turnID, &directive.ValidatedCall{Tag: inv.Tag, Args: map[string]any{}}))
			continue
		}

		call, verr := directive.Validate(schema, inv)
		if verr != nil {
			d.audit.Log(logging.AuditEvent{
				EventType: logging.AuditValidationError,
				TurnID:    turnID,
				Tag:       inv.Tag,
				Success:   false,
				Error:     verr.Error(),
			})
			results = append(results, directive.Errorf(inv.Tag, "invalid arguments: %s", verr.Error()))
			continue
		}

		results = append(results, d.Execute(ctx, turnID, call))
	}
	return results
}

// EncodeResults renders a result sequence back into the wire form the
// model reads on its next turn.
func EncodeResults(results []directive.ToolResult) string {
	out := ""
	for i, r := range results {
		if i > 0 {
			out += "\n"
		}
		out += r.Encode()
	}
	return out
}

func (d *Dispatcher) timeoutFor(tool *tools.Tool) time.Duration {
	if tool.Timeout > 0 {
		return tool.Timeout
	}
	return time.Duration(d.cfg.TimeoutMsFor(tool.Tag)) * time.Millisecond
}

// clamp truncates oversized payloads so one tool cannot flood the
// model's context on the next turn.
func (d *Dispatcher) clamp(payload string) string {
	max := d.cfg.MaxOutputBytes
	if max <= 0 || len(payload) <= max {
		return payload
	}
	return payload[:max] + fmt.Sprintf("\n... [truncated %d bytes]", len(payload)-max)
}
