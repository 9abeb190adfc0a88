package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ResponseEntry is one tool invocation recorded in a SessionLog.
type ResponseEntry struct {
	Tool      string
	Arguments json.RawMessage
	Text      string
	IsError   bool
	Images    int
}

// SessionLog appends a markdown record of every tool invocation of one
// browser context to <dir>/session-<id>.md.
//
// All methods are safe on a nil receiver, which records nothing.
type SessionLog struct {
	mu        sync.Mutex
	file      *os.File
	path      string
	closeOnce sync.Once
}

// NewSessionLog creates the log directory if needed and opens a fresh log file.
func NewSessionLog(dir string) (*SessionLog, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create session log directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("session-%s.md", uuid.New().String()))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open session log: %w", err)
	}

	return &SessionLog{file: file, path: path}, nil
}

// LogResponse appends one tool invocation.
func (s *SessionLog) LogResponse(entry ResponseEntry) error {
	if s == nil {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "### Tool: %s\n\n", entry.Tool)
	fmt.Fprintf(&b, "- Time: %s\n", time.Now().Format(timeFormat))
	if len(entry.Arguments) > 0 {
		fmt.Fprintf(&b, "- Args:\n```json\n%s\n```\n", string(entry.Arguments))
	}
	if entry.IsError {
		b.WriteString("- Error: true\n")
	}
	if entry.Images > 0 {
		fmt.Fprintf(&b, "- Images: %d\n", entry.Images)
	}
	if entry.Text != "" {
		fmt.Fprintf(&b, "- Result:\n\n%s\n", entry.Text)
	}
	b.WriteString("\n")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return fmt.Errorf("session log is closed")
	}
	if _, err := s.file.WriteString(b.String()); err != nil {
		return fmt.Errorf("failed to write session log: %w", err)
	}
	return nil
}

// Path returns the path of the log file.
func (s *SessionLog) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the log file. Safe to call multiple times.
func (s *SessionLog) Close() error {
	if s == nil {
		return nil
	}
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		err = s.file.Close()
		s.file = nil
	})
	return err
}
