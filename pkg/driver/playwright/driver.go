package playwright

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/webpilot/pkg/driver"
)

// Driver is one browser context handed out by a Factory.
type Driver struct {
	opts        Options
	browser     playwright.Browser
	context     playwright.BrowserContext
	ownsBrowser bool
	ownsContext bool

	mu             sync.Mutex
	closed         bool
	disconnected   bool
	onDisconnected []func()
}

var _ driver.Driver = (*Driver)(nil)

// NewPage opens a page in the driver's browser context.
func (d *Driver) NewPage(ctx context.Context) (driver.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	closed, disconnected := d.closed, d.disconnected
	d.mu.Unlock()
	if disconnected {
		return nil, driver.ErrDisconnected
	}
	if closed {
		return nil, errors.New("driver is closed")
	}

	p, err := d.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return &Page{page: p, mode: d.opts.SnapshotMode}, nil
}

// OnDisconnected registers fn to run once when the browser goes away.
func (d *Driver) OnDisconnected(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onDisconnected = append(d.onDisconnected, fn)
}

// Close releases the browser context and, for launched browsers, the browser.
func (d *Driver) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	// Callbacks are for unexpected loss only
	d.onDisconnected = nil
	d.mu.Unlock()

	var errs []error
	if d.ownsContext && d.context != nil {
		if err := d.context.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := d.releaseBrowser(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing driver: %w", errors.Join(errs...))
	}
	return nil
}

// discardBrowser runs release for a browser that never reached a caller.
// Its error has nowhere to go but the debug log.
func discardBrowser(release func() error) {
	if err := release(); err != nil {
		logger.Debugf("failed to release browser after setup error: %v", err)
	}
}

// releaseBrowser closes a launched browser or disconnects from a connected one.
func (d *Driver) releaseBrowser() error {
	if d.browser == nil {
		return nil
	}
	return d.browser.Close()
}

func (d *Driver) fireDisconnected() {
	d.mu.Lock()
	if d.disconnected {
		d.mu.Unlock()
		return
	}
	d.disconnected = true
	callbacks := d.onDisconnected
	d.onDisconnected = nil
	d.mu.Unlock()

	logger.Warnf("browser disconnected")
	for _, fn := range callbacks {
		fn()
	}
}

func (d *Driver) filterRoute(route playwright.Route) {
	url := route.Request().URL()
	if d.opts.Policy.Allows(url) {
		if err := route.Continue(); err != nil {
			logger.Debugf("route continue failed for %s: %v", url, err)
		}
		return
	}
	logger.Infof("blocked request to %s", url)
	if err := route.Abort("blockedbyclient"); err != nil {
		logger.Debugf("route abort failed for %s: %v", url, err)
	}
}
