package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/entrhq/webpilot/pkg/config"
	"github.com/entrhq/webpilot/pkg/driver"
	"github.com/entrhq/webpilot/pkg/tab"
)

// Tabs returns the open tabs in creation order.
func (c *Context) Tabs() []*tab.Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*tab.Tab(nil), c.tabs...)
}

// CurrentTab returns the selected tab.
func (c *Context) CurrentTab() (*tab.Tab, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpenLocked(); err != nil {
		return nil, err
	}
	if c.current < 0 || c.current >= len(c.tabs) {
		return nil, ErrNoCurrentTab
	}
	return c.tabs[c.current], nil
}

// EnsureTab returns the current tab, opening a new one when none is selected.
func (c *Context) EnsureTab(ctx context.Context) (*tab.Tab, error) {
	t, err := c.CurrentTab()
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, ErrNoCurrentTab) {
		return nil, err
	}
	return c.NewTab(ctx)
}

// NewTab opens a page and makes it the current tab, obtaining a browser
// from the factory first if needed. The state lock is not held while the
// browser launches or the page opens, so Close and disconnects proceed.
func (c *Context) NewTab(ctx context.Context) (*tab.Tab, error) {
	c.launch.Lock()
	defer c.launch.Unlock()

	d, generation, err := c.ensureDriver(ctx)
	if err != nil {
		return nil, err
	}

	page, err := d.NewPage(ctx)
	if err != nil {
		if openErr := c.checkOpen(); openErr != nil {
			return nil, openErr
		}
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpenLocked(); err != nil {
		closePage(page)
		return nil, err
	}
	if generation != c.generation {
		closePage(page)
		return nil, errors.New("browser was released while the tab was opening")
	}

	t := tab.New(page)
	c.tabs = append(c.tabs, t)
	c.current = len(c.tabs) - 1
	logger.Debugf("opened tab %s", t.ID())
	return t, nil
}

// ensureDriver returns the current driver and its generation, launching
// one when there is none. Caller holds c.launch.
func (c *Context) ensureDriver(ctx context.Context) (driver.Driver, int, error) {
	c.mu.Lock()
	if err := c.checkOpenLocked(); err != nil {
		c.mu.Unlock()
		return nil, 0, err
	}
	if c.driver != nil {
		d, generation := c.driver, c.generation
		c.mu.Unlock()
		return d, generation, nil
	}
	c.mu.Unlock()

	d, err := c.factory.NewDriver(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to start browser: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Close may have run during the launch
	if err := c.checkOpenLocked(); err != nil {
		if closeErr := d.Close(); closeErr != nil {
			logger.Debugf("failed to close late browser: %v", closeErr)
		}
		return nil, 0, err
	}

	c.generation++
	generation := c.generation
	d.OnDisconnected(func() {
		c.onDisconnected(generation)
	})
	c.driver = d
	return d, generation, nil
}

func closePage(page driver.Page) {
	if err := page.Close(); err != nil {
		logger.Debugf("failed to close abandoned page: %v", err)
	}
}

// SelectTab makes the tab at index (0-based) current.
func (c *Context) SelectTab(index int) (*tab.Tab, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpenLocked(); err != nil {
		return nil, err
	}
	if index < 0 || index >= len(c.tabs) {
		return nil, fmt.Errorf("tab %d not found", index+1)
	}
	c.current = index
	return c.tabs[index], nil
}

// CloseTab closes the tab at index (0-based). Closing the current tab leaves
// no tab selected.
func (c *Context) CloseTab(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpenLocked(); err != nil {
		return err
	}
	if index < 0 || index >= len(c.tabs) {
		return fmt.Errorf("tab %d not found", index+1)
	}

	t := c.tabs[index]
	c.tabs = append(c.tabs[:index:index], c.tabs[index+1:]...)
	switch {
	case index == c.current:
		c.current = -1
	case index < c.current:
		c.current--
	}

	if err := t.Close(); err != nil {
		return fmt.Errorf("failed to close tab: %w", err)
	}
	return nil
}

// CloseBrowser closes every tab and releases the browser. The context stays
// open; the next tab obtains a fresh browser from the factory.
func (c *Context) CloseBrowser() error {
	c.mu.Lock()
	tabs := c.tabs
	d := c.driver
	c.tabs = nil
	c.current = -1
	c.driver = nil
	// Invalidate the released driver's disconnect callback
	c.generation++
	c.mu.Unlock()

	for _, t := range tabs {
		if err := t.Close(); err != nil {
			logger.Debugf("failed to close tab %s: %v", t.ID(), err)
		}
	}
	if d == nil {
		return nil
	}
	if err := d.Close(); err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}

// OutputDir is where tools write files.
func (c *Context) OutputDir() string {
	if c.cfg.OutputDir == "" {
		return config.DefaultOutputDir
	}
	return c.cfg.OutputDir
}

// CheckURL applies the network origin policy.
func (c *Context) CheckURL(rawURL string) error {
	return c.policy.Check(rawURL)
}

// CheckFile resolves path against the upload roots.
func (c *Context) CheckFile(path string) (string, error) {
	return c.files.Resolve(path)
}
