// Package store persists audit records, todo documents, and model
// selection decisions in SQLite. Opening or migrating the database is
// fatal; individual record writes are best-effort and reported to the
// caller to log, never to abort a turn.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"dirigent/internal/logging"
	"dirigent/internal/router"
)

// Store wraps the SQLite database.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
}

// Open initializes the SQLite database at the given path.
func Open(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	logging.Store("Initializing store at path: %s", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logging.StoreDebug("Database schema initialized")
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS audit_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL DEFAULT '',
		turn_id TEXT NOT NULL DEFAULT '',
		tag TEXT NOT NULL,
		args TEXT NOT NULL DEFAULT '{}',
		status TEXT NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_session ON audit_records(session_id, created_at);

	CREATE TABLE IF NOT EXISTS todo_documents (
		session_id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS model_selections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		prompt TEXT NOT NULL,
		task_type TEXT NOT NULL,
		confidence REAL NOT NULL,
		selected_model TEXT NOT NULL,
		override_reason TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_selections_time ON model_selections(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AuditRecord is one persisted tool call.
type AuditRecord struct {
	SessionID  string
	TurnID     string
	Tag        string
	Args       map[string]any
	Status     string
	Message    string
	DurationMs int64
	CreatedAt  time.Time
}

// RecordAudit persists one tool-call record.
func (s *Store) RecordAudit(rec AuditRecord) error {
	args, err := json.Marshal(rec.Args)
	if err != nil {
		args = []byte("{}")
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(
		`INSERT INTO audit_records (session_id, turn_id, tag, args, status, message, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.TurnID, rec.Tag, string(args), rec.Status, rec.Message, rec.DurationMs, created.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record audit: %w", err)
	}
	return nil
}

// AuditsForSession returns a session's tool calls, oldest first.
func (s *Store) AuditsForSession(sessionID string) ([]AuditRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT session_id, turn_id, tag, args, status, message, duration_ms, created_at
		 FROM audit_records WHERE session_id = ? ORDER BY created_at, id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query audits: %w", err)
	}
	defer rows.Close()

	var out []AuditRecord
	for rows.Next() {
		var rec AuditRecord
		var args string
		var createdMs int64
		if err := rows.Scan(&rec.SessionID, &rec.TurnID, &rec.Tag, &args, &rec.Status, &rec.Message, &rec.DurationMs, &createdMs); err != nil {
			return nil, err
		}
		json.Unmarshal([]byte(args), &rec.Args)
		rec.CreatedAt = time.UnixMilli(createdMs)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SaveTodo upserts a session's serialized checklist.
func (s *Store) SaveTodo(sessionID, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT INTO todo_documents (session_id, content, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
		sessionID, content, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save todo: %w", err)
	}
	return nil
}

// LoadTodo returns a session's serialized checklist, or "" and false
// if none has been saved.
func (s *Store) LoadTodo(sessionID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var content string
	err := s.db.QueryRow(`SELECT content FROM todo_documents WHERE session_id = ?`, sessionID).Scan(&content)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load todo: %w", err)
	}
	return content, true, nil
}

// RecordSelection persists one routing decision. Implements
// router.SelectionRecorder; failures are logged, never surfaced, so a
// broken store cannot break routing.
func (s *Store) RecordSelection(prompt string, c router.Classification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT INTO model_selections (prompt, task_type, confidence, selected_model, override_reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		prompt, string(c.TaskType), c.Confidence, c.SelectedModel, c.OverrideReason, time.Now().UnixMilli(),
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Warn("Failed to record model selection: %v", err)
	}
}

// SelectionCount returns the number of recorded routing decisions.
func (s *Store) SelectionCount() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM model_selections`).Scan(&n)
	return n, err
}
