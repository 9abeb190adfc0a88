package tool

import (
	"errors"
	"fmt"
)

// ErrToolBusy is returned when a tool could not start because another tool
// was still running and the caller stopped waiting.
var ErrToolBusy = errors.New("another tool is already running")

// ErrUnknownTool is returned when a tool name is not registered.
var ErrUnknownTool = errors.New("unknown tool")

// ValidationError reports arguments that failed the tool's schema. The
// handler is never invoked for such input.
type ValidationError struct {
	Tool string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %v", e.Tool, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ExecutionError reports a handler failure, including a recovered panic.
type ExecutionError struct {
	Tool string
	Err  error
}

func (e *ExecutionError) Error() string {
	return e.Err.Error()
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
