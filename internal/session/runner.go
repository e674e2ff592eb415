// Package session drives the per-turn pipeline: model output goes
// through the directive parser, validator, and dispatcher, and the
// encoded results come back as a transcript insertion for the next
// model call. Turns from independent sessions may run concurrently;
// directives inside one turn never do.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"dirigent/internal/directive"
	"dirigent/internal/dispatch"
	"dirigent/internal/logging"
	"dirigent/internal/router"
	"dirigent/internal/store"
	"dirigent/internal/todo"
)

// TurnReport is the outcome of processing one model turn.
type TurnReport struct {
	SessionID string
	TurnID    string

	// Results holds one entry per directive found, in parse order,
	// including error results for malformed or unknown directives.
	Results []directive.ToolResult

	// Transcript is the encoded result sequence to feed back to the
	// model. Empty when the turn contained no directives.
	Transcript string
}

// DirectiveCount returns how many directives the turn contained.
func (r TurnReport) DirectiveCount() int {
	return len(r.Results)
}

// Errors returns only the failed results.
func (r TurnReport) Errors() []directive.ToolResult {
	var out []directive.ToolResult
	for _, res := range r.Results {
		if res.IsError() {
			out = append(out, res)
		}
	}
	return out
}

// Runner processes turns for one session.
type Runner struct {
	sessionID  string
	dispatcher *dispatch.Dispatcher
	router     *router.Router
	db         *store.Store
	todos      *todo.Manager
}

// NewRunner creates a runner. Router and store are optional; without a
// router SelectModel returns "", and without a store nothing persists
// beyond the audit log.
func NewRunner(sessionID string, d *dispatch.Dispatcher) *Runner {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return &Runner{
		sessionID:  sessionID,
		dispatcher: d.WithAudit(logging.AuditWithSession(sessionID)),
	}
}

// WithRouter attaches a model router.
func (r *Runner) WithRouter(rt *router.Router) *Runner {
	r.router = rt
	return r
}

// WithStore attaches the persistence layer.
func (r *Runner) WithStore(db *store.Store) *Runner {
	r.db = db
	return r
}

// WithTodos attaches the checklist manager so its state is mirrored
// into the store after each turn.
func (r *Runner) WithTodos(mgr *todo.Manager) *Runner {
	r.todos = mgr
	return r
}

// SessionID returns the session identifier.
func (r *Runner) SessionID() string {
	return r.sessionID
}

// SelectModel routes a prompt to a backend model, if a router is
// attached.
func (r *Runner) SelectModel(ctx context.Context, prompt string) string {
	if r.router == nil {
		return ""
	}
	return r.router.SelectModel(ctx, prompt)
}

// ProcessTurn scans one piece of model output for directives, executes
// them in order, and returns the encoded results.
func (r *Runner) ProcessTurn(ctx context.Context, modelOutput string) TurnReport {
	turnID := uuid.NewString()
	audit := logging.AuditWithSession(r.sessionID)
	audit.Log(logging.AuditEvent{EventType: logging.AuditTurnStart, TurnID: turnID})

	timer := logging.StartTimer(logging.CategorySession, "ProcessTurn")
	items := directive.Parse(modelOutput)
	results := r.dispatcher.ExecuteTurn(ctx, turnID, items)
	timer.Stop()

	report := TurnReport{
		SessionID: r.sessionID,
		TurnID:    turnID,
		Results:   results,
	}
	if len(results) > 0 {
		report.Transcript = dispatch.EncodeResults(results)
	}

	r.persist(report)

	audit.Log(logging.AuditEvent{
		EventType: logging.AuditTurnEnd,
		TurnID:    turnID,
		Success:   len(report.Errors()) == 0,
		Message:   fmt.Sprintf("%d directives, %d failed", len(results), len(report.Errors())),
	})
	logging.Session("Turn %s: %d directives, %d failed", turnID, len(results), len(report.Errors()))
	return report
}

// persist writes the turn's results to the store, best-effort.
func (r *Runner) persist(report TurnReport) {
	if r.db == nil {
		return
	}
	for _, res := range report.Results {
		err := r.db.RecordAudit(store.AuditRecord{
			SessionID:  report.SessionID,
			TurnID:     report.TurnID,
			Tag:        res.Tag,
			Args:       res.Args,
			Status:     string(res.Status),
			Message:    res.Message,
			DurationMs: res.DurationMs,
		})
		if err != nil {
			logging.Get(logging.CategorySession).Warn("Failed to persist audit record: %v", err)
		}
	}
	if r.todos != nil {
		if doc := r.todos.Snapshot(); doc != nil {
			if err := r.db.SaveTodo(report.SessionID, doc.Serialize()); err != nil {
				logging.Get(logging.CategorySession).Warn("Failed to persist checklist: %v", err)
			}
		}
	}
}

// RunTurns processes independent model outputs concurrently, one
// runner each, and returns the reports in input order. A single shared
// dispatcher is safe: ordering is only guaranteed within a turn.
func RunTurns(ctx context.Context, d *dispatch.Dispatcher, outputs []string) ([]TurnReport, error) {
	reports := make([]TurnReport, len(outputs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, output := range outputs {
		i, output := i, output
		g.Go(func() error {
			report := NewRunner("", d).ProcessTurn(gctx, output)
			mu.Lock()
			reports[i] = report
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
