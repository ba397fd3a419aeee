// Package debuglog writes opt-in JSONL diagnostics for the render
// pipeline: orphaned placeholders, math fallbacks, compiler failures.
// Disabled (and free) unless CHATMARK_DEBUG_LOG names a file.
package debuglog

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// Entry is one logged event.
type Entry struct {
	Timestamp time.Time      `json:"ts"`
	Event     string         `json:"event"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Logger appends entries to a writer. The zero value and nil loggers
// are no-ops, so callers never guard log sites.
type Logger struct {
	mu   sync.Mutex
	w    io.Writer
	seen map[string]bool
}

// New returns a logger writing JSONL entries to w.
func New(w io.Writer) *Logger {
	return &Logger{w: w, seen: make(map[string]bool)}
}

var (
	defaultOnce sync.Once
	defaultLog  *Logger
)

// Default returns the process-wide logger, enabled by the
// CHATMARK_DEBUG_LOG environment variable. Returns nil when disabled.
func Default() *Logger {
	defaultOnce.Do(func() {
		path := os.Getenv("CHATMARK_DEBUG_LOG")
		if path == "" {
			return
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return
		}
		defaultLog = New(f)
	})
	return defaultLog
}

// Event logs one entry.
func (l *Logger) Event(event string, fields map[string]any) {
	if l == nil || l.w == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.write(event, fields)
}

// Once logs an entry at most once per key for the lifetime of the
// logger. Used where a malformed message would otherwise spam a line
// per render cycle.
func (l *Logger) Once(key, event string, fields map[string]any) {
	if l == nil || l.w == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen[key] {
		return
	}
	l.seen[key] = true
	l.write(event, fields)
}

func (l *Logger) write(event string, fields map[string]any) {
	e := Entry{Timestamp: time.Now(), Event: event, Fields: fields}
	b, err := json.Marshal(e)
	if err != nil {
		return
	}
	l.w.Write(append(b, '\n'))
}
