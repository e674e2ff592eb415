// Package logging writes per-category log files under
// <workspace>/.dirigent/logs/. Logging is off unless debug_mode is set
// in the configuration; every call is an inert no-op in production.
package logging

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"dirigent/internal/config"
)

// Category names one log stream. Each enabled category gets its own
// date-prefixed file.
type Category string

const (
	CategoryBoot      Category = "boot"
	CategorySession   Category = "session"
	CategoryDirective Category = "directive"
	CategoryDispatch  Category = "dispatch"
	CategoryRouting   Category = "routing"
	CategoryEmbedding Category = "embedding"
	CategoryTodo      Category = "todo"
	CategoryStore     Category = "store"
	CategoryTools     Category = "tools"
	CategoryBrowser   Category = "browser"
)

type level int8

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
)

var levelNames = [...]string{"debug", "info", "warn", "error"}

func parseLevel(s string) level {
	switch s {
	case "debug":
		return levelDebug
	case "warn", "warning":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// state is all mutable package state, guarded by its own mutex.
var state struct {
	mu      sync.RWMutex
	dir     string
	cfg     config.LoggingConfig
	min     level
	json    bool
	loggers map[Category]*Logger
}

// Initialize points the package at the workspace and applies the
// logging section of the configuration. With debug_mode off this does
// nothing and every later call stays silent.
func Initialize(ws string, cfg config.LoggingConfig) error {
	if ws == "" {
		return fmt.Errorf("workspace path required")
	}

	min := parseLevel(cfg.Level)
	state.mu.Lock()
	state.cfg = cfg
	state.min = min
	state.json = cfg.Format == "json"
	state.dir = filepath.Join(ws, ".dirigent", "logs")
	state.loggers = make(map[Category]*Logger)
	state.mu.Unlock()

	if !cfg.DebugMode {
		return nil
	}
	if err := os.MkdirAll(state.dir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	boot := Get(CategoryBoot)
	boot.Info("logging initialized, workspace=%s level=%s", ws, levelNames[min])
	return nil
}

// IsDebugMode reports whether logging is active at all.
func IsDebugMode() bool {
	state.mu.RLock()
	defer state.mu.RUnlock()
	return state.cfg.DebugMode
}

// logsDir returns the active log directory, empty before Initialize.
func logsDir() string {
	state.mu.RLock()
	defer state.mu.RUnlock()
	return state.dir
}

// Logger writes to one category's file. A Logger with no sink is inert.
type Logger struct {
	category Category
	out      *log.Logger
	file     *os.File
}

// Get returns the logger for a category, opening its file on first
// use. Disabled categories get an inert logger.
func Get(category Category) *Logger {
	state.mu.RLock()
	enabled := state.cfg.DebugMode && state.cfg.IsCategoryEnabled(string(category)) && state.dir != ""
	if !enabled {
		state.mu.RUnlock()
		return &Logger{category: category}
	}
	if l, ok := state.loggers[category]; ok {
		state.mu.RUnlock()
		return l
	}
	state.mu.RUnlock()

	state.mu.Lock()
	defer state.mu.Unlock()
	if l, ok := state.loggers[category]; ok {
		return l
	}

	name := fmt.Sprintf("%s_%s.log", time.Now().Format("2006-01-02"), category)
	file, err := os.OpenFile(filepath.Join(state.dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] could not open %s: %v\n", name, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		out:      log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	state.loggers[category] = l
	return l
}

// emit is the single write path for all levels.
func (l *Logger) emit(lv level, format string, args ...interface{}) {
	if l.out == nil {
		return
	}
	state.mu.RLock()
	min, asJSON := state.min, state.json
	state.mu.RUnlock()
	if lv < min {
		return
	}

	msg := fmt.Sprintf(format, args...)
	if !asJSON {
		l.out.Printf("[%s] %s", levelNames[lv], msg)
		return
	}
	line, err := json.Marshal(struct {
		Timestamp int64  `json:"ts"`
		Category  string `json:"cat"`
		Level     string `json:"lvl"`
		Message   string `json:"msg"`
	}{time.Now().UnixMilli(), string(l.category), levelNames[lv], msg})
	if err != nil {
		l.out.Printf("[%s] %s", levelNames[lv], msg)
		return
	}
	l.out.Printf("%s", line)
}

func (l *Logger) Debug(format string, args ...interface{}) { l.emit(levelDebug, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.emit(levelInfo, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.emit(levelWarn, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.emit(levelError, format, args...) }

// CloseAll closes every open log file. Call at shutdown.
func CloseAll() {
	state.mu.Lock()
	defer state.mu.Unlock()
	for _, l := range state.loggers {
		if l.file != nil {
			l.file.Close()
		}
	}
	state.loggers = make(map[Category]*Logger)
}

// Per-category shorthands. Inert when the category is disabled.

func Boot(format string, args ...interface{})           { Get(CategoryBoot).Info(format, args...) }
func Session(format string, args ...interface{})        { Get(CategorySession).Info(format, args...) }
func SessionDebug(format string, args ...interface{})   { Get(CategorySession).Debug(format, args...) }
func Directive(format string, args ...interface{})      { Get(CategoryDirective).Info(format, args...) }
func DirectiveDebug(format string, args ...interface{}) { Get(CategoryDirective).Debug(format, args...) }
func Dispatch(format string, args ...interface{})       { Get(CategoryDispatch).Info(format, args...) }
func DispatchDebug(format string, args ...interface{})  { Get(CategoryDispatch).Debug(format, args...) }
func Routing(format string, args ...interface{})        { Get(CategoryRouting).Info(format, args...) }
func RoutingDebug(format string, args ...interface{})   { Get(CategoryRouting).Debug(format, args...) }
func Embedding(format string, args ...interface{})      { Get(CategoryEmbedding).Info(format, args...) }
func EmbeddingDebug(format string, args ...interface{}) { Get(CategoryEmbedding).Debug(format, args...) }
func Todo(format string, args ...interface{})           { Get(CategoryTodo).Info(format, args...) }
func TodoDebug(format string, args ...interface{})      { Get(CategoryTodo).Debug(format, args...) }
func Store(format string, args ...interface{})          { Get(CategoryStore).Info(format, args...) }
func StoreDebug(format string, args ...interface{})     { Get(CategoryStore).Debug(format, args...) }
func Tools(format string, args ...interface{})          { Get(CategoryTools).Info(format, args...) }
func ToolsDebug(format string, args ...interface{})     { Get(CategoryTools).Debug(format, args...) }
func Browser(format string, args ...interface{})        { Get(CategoryBrowser).Info(format, args...) }
func BrowserDebug(format string, args ...interface{})   { Get(CategoryBrowser).Debug(format, args...) }

// Timer logs how long an operation took when stopped.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop logs the elapsed time at debug level and returns it.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold warns when the operation exceeded threshold.
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
