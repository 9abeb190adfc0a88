// Package session implements the browser context that mediates every tool
// call: it owns the tabs, the current-tab pointer, the tool registry and
// the running-tool guard, and releases the browser when closed.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/entrhq/webpilot/pkg/config"
	"github.com/entrhq/webpilot/pkg/driver"
	"github.com/entrhq/webpilot/pkg/logging"
	"github.com/entrhq/webpilot/pkg/security/workspace"
	"github.com/entrhq/webpilot/pkg/tab"
	"github.com/entrhq/webpilot/pkg/tool"
)

var logger = logging.NewLogger("session")

var (
	// ErrClosed is returned by every operation on a closed context.
	ErrClosed = errors.New("browser context is closed")

	// ErrNoCurrentTab is returned when an operation needs a selected tab.
	ErrNoCurrentTab = errors.New("no current tab: navigate to a URL or select a tab first")
)

// Context is one browser session. It borrows drivers from a factory and
// must be released with Close.
type Context struct {
	cfg        *config.Config
	factory    driver.Factory
	registry   *tool.Registry
	policy     *driver.OriginPolicy
	files      *workspace.Guard
	sessionLog *logging.SessionLog

	// guard admits one tool at a time; later callers queue
	guard *semaphore.Weighted

	// launch serializes tab creation without holding mu across the driver
	launch sync.Mutex

	mu          sync.Mutex
	driver      driver.Driver
	generation  int
	tabs        []*tab.Tab
	current     int
	running     string
	closed      bool
	released    bool
	closeReason error
}

var _ tool.Host = (*Context)(nil)

// New creates a context. No browser is started until the first tab is needed.
func New(cfg *config.Config, factory driver.Factory, registry *tool.Registry) (*Context, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if factory == nil {
		return nil, errors.New("driver factory is required")
	}
	if registry == nil {
		return nil, errors.New("tool registry is required")
	}

	policy, err := driver.NewOriginPolicy(cfg.Network.AllowedOrigins, cfg.Network.BlockedOrigins)
	if err != nil {
		return nil, err
	}

	files, err := workspace.NewGuard(cfg.Files.UploadRoots...)
	if err != nil {
		return nil, fmt.Errorf("invalid upload roots: %w", err)
	}

	c := &Context{
		cfg:      cfg,
		factory:  factory,
		registry: registry,
		policy:   policy,
		files:    files,
		guard:    semaphore.NewWeighted(1),
		current:  -1,
	}

	if cfg.SaveSession {
		c.sessionLog, err = logging.NewSessionLog(c.OutputDir())
		if err != nil {
			return nil, err
		}
		logger.Infof("saving session log to %s", c.sessionLog.Path())
	}

	return c, nil
}

// Registry returns the tools available in this context.
func (c *Context) Registry() *tool.Registry {
	return c.registry
}

// Config returns the context configuration.
func (c *Context) Config() *config.Config {
	return c.cfg
}

// SessionLogPath returns the session log file, or "" when disabled.
func (c *Context) SessionLogPath() string {
	return c.sessionLog.Path()
}

// Run executes one tool call. Only one tool runs at a time; a second call
// waits for the first to finish, or fails with tool.ErrToolBusy if ctx ends
// while waiting.
//
// Validation and handler failures are reported in the Response. The
// returned error is reserved for lifecycle problems: a closed context, an
// unknown tool or an abandoned wait.
func (c *Context) Run(ctx context.Context, name string, raw json.RawMessage) (*tool.Response, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	t, err := c.registry.Get(name)
	if err != nil {
		return nil, err
	}

	if err := c.guard.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %w", tool.ErrToolBusy, err)
	}
	defer c.release()

	// Close may have won the race while we were queued
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.running = name
	c.mu.Unlock()

	logger.Debugf("running %s", name)
	resp := tool.Invoke(ctx, c, t, raw)
	if resp.IsError() {
		logger.Debugf("%s finished with error: %v", name, resp.Err())
	}

	if err := c.sessionLog.LogResponse(logging.ResponseEntry{
		Tool:      name,
		Arguments: raw,
		Text:      resp.Text(),
		IsError:   resp.IsError(),
		Images:    len(resp.Images()),
	}); err != nil {
		logger.Warnf("failed to write session log: %v", err)
	}

	return resp, nil
}

func (c *Context) release() {
	c.mu.Lock()
	c.running = ""
	c.mu.Unlock()
	c.guard.Release(1)
}

// RunningTool returns the name of the tool currently executing, or "".
func (c *Context) RunningTool() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Context) checkOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checkOpenLocked()
}

func (c *Context) checkOpenLocked() error {
	if !c.closed {
		return nil
	}
	if c.closeReason != nil {
		return fmt.Errorf("%w: %w", ErrClosed, c.closeReason)
	}
	return ErrClosed
}

// IsClosed reports whether the context was closed or lost its browser.
func (c *Context) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Err returns ErrClosed (wrapping the disconnect cause, if any) once the
// context is closed, and nil before.
func (c *Context) Err() error {
	return c.checkOpen()
}

// Close releases every tab and the browser. It is safe to call more than
// once and after a disconnect.
func (c *Context) Close() error {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.released = true
	tabs := c.tabs
	d := c.driver
	c.tabs = nil
	c.current = -1
	c.driver = nil
	c.generation++
	c.mu.Unlock()

	var errs []error
	if d != nil {
		for _, t := range tabs {
			if err := t.Close(); err != nil {
				logger.Debugf("failed to close tab %s: %v", t.ID(), err)
			}
		}
		if err := d.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}
	if err := c.sessionLog.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close session log: %w", err))
	}

	logger.Debugf("browser context closed")
	return errors.Join(errs...)
}

// onDisconnected handles the browser going away underneath the context.
func (c *Context) onDisconnected(generation int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A driver released on purpose (browser_close, Close) is not a failure
	if generation != c.generation || c.closed {
		return
	}

	logger.Warnf("browser disconnected, closing context")
	c.closed = true
	c.closeReason = driver.ErrDisconnected
	c.tabs = nil
	c.current = -1
}
