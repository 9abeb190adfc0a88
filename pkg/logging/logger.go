// Package logging provides leveled component loggers and the per-session
// markdown log of tool invocations.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const timeFormat = "2006-01-02 15:04:05.000"

// Logger provides leveled logging for a single component.
// All loggers share the process-wide output and level.
type Logger struct {
	component string
	sessionID string
	mu        sync.Mutex
	logger    *log.Logger
}

var (
	// Global session ID for the current process
	sessionID     string
	sessionIDOnce sync.Once

	globalMu sync.Mutex
	output   io.Writer = os.Stderr
	level              = log.WarnLevel
	loggers  []*Logger
)

// getSessionID returns or creates the session ID for this process
func getSessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

// NewLogger creates a logger for a specific component.
func NewLogger(component string) *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()

	l := &Logger{
		component: component,
		sessionID: getSessionID(),
		logger:    newBackend(component, output, level),
	}
	loggers = append(loggers, l)
	return l
}

func newBackend(component string, w io.Writer, lvl log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix:          component,
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      timeFormat,
	})
}

// SetOutput redirects every logger to w.
func SetOutput(w io.Writer) {
	globalMu.Lock()
	defer globalMu.Unlock()

	output = w
	for _, l := range loggers {
		l.mu.Lock()
		l.logger.SetOutput(w)
		l.mu.Unlock()
	}
}

// SetLevel sets the minimum level for every logger.
// Valid values: debug, info, warn, error.
func SetLevel(name string) error {
	lvl, err := log.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}

	globalMu.Lock()
	defer globalMu.Unlock()

	level = lvl
	for _, l := range loggers {
		l.mu.Lock()
		l.logger.SetLevel(lvl)
		l.mu.Unlock()
	}
	return nil
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Debugf(format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Infof(format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Warnf(format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Errorf(format, v...)
}

// DebugEnabled reports whether debug messages would be written.
func (l *Logger) DebugEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.logger.GetLevel() <= log.DebugLevel
}

// SessionID returns the current session ID
func (l *Logger) SessionID() string {
	return l.sessionID
}

// GetSessionID returns the current global session ID
func GetSessionID() string {
	return getSessionID()
}
