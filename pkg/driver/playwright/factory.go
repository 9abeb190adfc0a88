// Package playwright implements the driver interfaces on top of
// playwright-go. A Factory launches (or connects to) one browser per driver
// and opens pages in either a fresh or the browser's default context.
package playwright

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/webpilot/pkg/config"
	"github.com/entrhq/webpilot/pkg/driver"
	"github.com/entrhq/webpilot/pkg/logging"
)

var logger = logging.NewLogger("playwright")

// Options configures the factory.
type Options struct {
	// BrowserName is one of chromium, firefox, webkit
	BrowserName string

	// Headless controls whether the browser runs without a visible window
	Headless bool

	// CDPEndpoint connects to a running browser instead of launching one
	CDPEndpoint string

	// Isolated creates a new browser context per driver instead of reusing
	// the browser's default context (connect mode only; launched browsers
	// always get a fresh context)
	Isolated bool

	Viewport config.Viewport

	// TimeoutMs sets the default timeout for page operations
	TimeoutMs int

	// SnapshotMode selects how Page.Snapshot renders the document
	SnapshotMode config.SnapshotMode

	// Policy restricts which origins pages may load
	Policy *driver.OriginPolicy

	// SkipInstall skips downloading the driver and browsers on first use
	SkipInstall bool
}

// OptionsFromConfig derives factory options from the browser context configuration.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	policy, err := driver.NewOriginPolicy(cfg.Network.AllowedOrigins, cfg.Network.BlockedOrigins)
	if err != nil {
		return Options{}, err
	}
	return Options{
		BrowserName:  cfg.Browser.BrowserName,
		Headless:     cfg.Browser.IsHeadless(),
		CDPEndpoint:  cfg.Browser.CDPEndpoint,
		Isolated:     cfg.Browser.Isolated,
		Viewport:     cfg.Browser.Viewport,
		TimeoutMs:    cfg.Browser.TimeoutMs,
		SnapshotMode: cfg.SnapshotMode,
		Policy:       policy,
	}, nil
}

// Factory starts Playwright lazily and hands out drivers.
type Factory struct {
	mu          sync.Mutex
	opts        Options
	playwright  *playwright.Playwright
	initialized bool
}

// NewFactory creates a new factory. Playwright itself is started on the
// first NewDriver call.
func NewFactory(opts Options) *Factory {
	if opts.BrowserName == "" {
		opts.BrowserName = config.DefaultBrowserName
	}
	if opts.Viewport.Width == 0 || opts.Viewport.Height == 0 {
		opts.Viewport = config.Viewport{
			Width:  config.DefaultViewportWidth,
			Height: config.DefaultViewportHeight,
		}
	}
	if opts.TimeoutMs == 0 {
		opts.TimeoutMs = config.DefaultTimeoutMs
	}
	if opts.SnapshotMode == "" {
		opts.SnapshotMode = config.SnapshotAria
	}
	return &Factory{opts: opts}
}

// initialize installs and runs Playwright. Caller holds f.mu.
func (f *Factory) initialize() error {
	if f.initialized {
		return nil
	}

	// Discard driver output so it does not interleave with the host's logs
	runOpts := &playwright.RunOptions{
		Browsers: []string{f.opts.BrowserName},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if !f.opts.SkipInstall {
		if err := playwright.Install(runOpts); err != nil {
			return fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	f.playwright = pw
	f.initialized = true
	return nil
}

func (f *Factory) browserType() (playwright.BrowserType, error) {
	switch f.opts.BrowserName {
	case "chromium":
		return f.playwright.Chromium, nil
	case "firefox":
		return f.playwright.Firefox, nil
	case "webkit":
		return f.playwright.WebKit, nil
	default:
		return nil, fmt.Errorf("unsupported browser: %s", f.opts.BrowserName)
	}
}

// NewDriver launches or connects to a browser and prepares a browser context.
func (f *Factory) NewDriver(ctx context.Context) (driver.Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.initialize(); err != nil {
		return nil, err
	}

	bt, err := f.browserType()
	if err != nil {
		return nil, err
	}

	d := &Driver{
		opts:        f.opts,
		ownsContext: true,
	}

	if f.opts.CDPEndpoint != "" {
		logger.Debugf("connecting over CDP to %s", f.opts.CDPEndpoint)
		d.browser, err = bt.ConnectOverCDP(f.opts.CDPEndpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to browser: %w", err)
		}
		if !f.opts.Isolated && len(d.browser.Contexts()) > 0 {
			d.context = d.browser.Contexts()[0]
			d.ownsContext = false
		}
	} else {
		logger.Debugf("launching %s (headless=%v)", f.opts.BrowserName, f.opts.Headless)
		d.browser, err = bt.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(f.opts.Headless),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		d.ownsBrowser = true
	}

	if d.context == nil {
		d.context, err = d.browser.NewContext(playwright.BrowserNewContextOptions{
			Viewport: &playwright.Size{
				Width:  f.opts.Viewport.Width,
				Height: f.opts.Viewport.Height,
			},
		})
		if err != nil {
			discardBrowser(d.releaseBrowser)
			return nil, fmt.Errorf("failed to create context: %w", err)
		}
	}

	d.context.SetDefaultTimeout(float64(f.opts.TimeoutMs))

	if !f.opts.Policy.Empty() {
		if err := d.context.Route("**/*", d.filterRoute); err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("failed to install origin filter: %w", err)
		}
	}

	d.browser.OnDisconnected(func(playwright.Browser) {
		d.fireDisconnected()
	})

	return d, nil
}

// Shutdown stops Playwright. Drivers created by the factory must be closed first.
func (f *Factory) Shutdown() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.initialized && f.playwright != nil {
		if err := f.playwright.Stop(); err != nil {
			return fmt.Errorf("failed to stop playwright: %w", err)
		}
		f.initialized = false
		f.playwright = nil
	}
	return nil
}
