// Package audit keeps an append-only trail of gated writes: what was
// proposed, who resolved it, and what actually executed.
package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/natefinch/atomic"
)

type Event struct {
	Time        time.Time `json:"time"`
	Type        string    `json:"type"`
	User        string    `json:"user"`
	Kind        string    `json:"kind,omitempty"`
	Description string    `json:"description,omitempty"`
	Outcome     string    `json:"outcome,omitempty"`
	Error       string    `json:"error,omitempty"`
}

const (
	TypeConfirmationCreated  = "confirmation_created"
	TypeConfirmationResolved = "confirmation_resolved"
	TypeWriteExecuted        = "write_executed"
)

// Log is a JSON-lines audit file. Every append rewrites the file atomically
// so a crash never leaves a torn line behind.
type Log struct {
	mu   sync.Mutex
	path string
	buf  bytes.Buffer
}

// Open loads an existing audit file (or starts a fresh one) at path.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	l := &Log{path: path}
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	l.buf.Write(existing)
	return l, nil
}

// Append records one event.
func (l *Log) Append(ev Event) error {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf.Write(line)
	l.buf.WriteByte('\n')
	return atomic.WriteFile(l.path, bytes.NewReader(l.buf.Bytes()))
}

// Events parses the log back into memory, oldest first.
func (l *Log) Events() ([]Event, error) {
	l.mu.Lock()
	data := append([]byte(nil), l.buf.Bytes()...)
	l.mu.Unlock()

	var events []Event
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var ev Event
		if err := dec.Decode(&ev); err != nil {
			return nil, fmt.Errorf("decode audit event: %w", err)
		}
		events = append(events, ev)
	}
	return events, nil
}
