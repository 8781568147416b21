// Package audit appends one JSON line per collection attempt to a project's
// run ledger.
package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// FileName is the ledger file kept at the root of a project's outputs.
const FileName = "audit.log"

// Status values recorded on events.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

type Logger struct {
	path string
	now  func() time.Time
}

type Event struct {
	Timestamp string            `json:"timestamp"`
	Operation string            `json:"operation"`
	Project   string            `json:"project,omitempty"`
	Token     string            `json:"token,omitempty"`
	Status    string            `json:"status"`
	Code      string            `json:"code,omitempty"`
	Message   string            `json:"message,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// New returns a ledger writing to path. An empty path disables logging.
func New(path string) *Logger {
	return &Logger{path: path, now: time.Now}
}

// ForOutputs returns the ledger of the project whose outputs live at root.
func ForOutputs(root string) *Logger {
	return New(filepath.Join(root, FileName))
}

func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Log stamps ev with the current UTC time and appends it.
func (l *Logger) Log(ev Event) error {
	if l == nil || l.path == "" {
		return nil
	}
	ev.Timestamp = l.now().UTC().Format(time.RFC3339Nano)
	blob, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(blob, '\n')); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
