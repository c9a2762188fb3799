// Package auditlog appends timestamped lines to two append-only log files
// (never rotated): red.log for critical breaches, non_red.log for everything
// else.
// This runs alongside structured slog output, not instead of it.
package auditlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Log is a mutex-guarded append-only writer for one file.
type Log struct {
	mu   sync.Mutex
	path string
}

// New creates a Log appending to path, creating parent directories as
// needed.
func New(path string) *Log {
	if path == "" {
		path = "default.log"
	}
	return &Log{path: path}
}

// Append writes one "[YYYY-MM-DD HH:MM:SS] <message>" line.
func (l *Log) Append(message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] %s\n", time.Now().Format("2006-01-02 15:04:05"), message)
	_, err = f.WriteString(line)
	return err
}

// Logs bundles the two channel-specific log files and routes by severity.
type Logs struct {
	Red    *Log
	NonRed *Log
}

// NewLogs creates both logs at the given paths.
func NewLogs(redPath, nonRedPath string) *Logs {
	return &Logs{Red: New(redPath), NonRed: New(nonRedPath)}
}

// AppendBreach writes a per-breach debug line to the channel appropriate for
// the breach's severity.
func (l *Logs) AppendBreach(channel string, message string) error {
	if channel == "red" {
		return l.Red.Append(message)
	}
	return l.NonRed.Append(message)
}
