// Package driver defines the boundary between a browser context and the
// engine that actually controls pages.
//
// A Factory produces a Driver on demand. A Driver owns one browser context
// (isolated or shared, depending on how the factory was configured) and
// opens Pages inside it. Everything above this package talks to pages only
// through the Page interface, so tests can substitute in-memory fakes.
package driver

import (
	"context"
	"errors"
)

// ErrDisconnected is returned by page operations after the browser went away.
var ErrDisconnected = errors.New("browser disconnected")

// Factory creates drivers. It is owned by the caller; a browser context
// borrows the drivers it creates and releases them with Driver.Close.
type Factory interface {
	NewDriver(ctx context.Context) (Driver, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(ctx context.Context) (Driver, error)

// NewDriver calls f(ctx).
func (f FactoryFunc) NewDriver(ctx context.Context) (Driver, error) {
	return f(ctx)
}

// Driver is one live browser context.
type Driver interface {
	// NewPage opens a new page (tab) in the browser context.
	NewPage(ctx context.Context) (Page, error)

	// OnDisconnected registers a callback invoked once when the underlying
	// browser connection is lost.
	OnDisconnected(fn func())

	// Close releases the browser context. Calling it more than once is safe.
	Close() error
}

// ScreenshotOptions configures Page.Screenshot.
type ScreenshotOptions struct {
	// JPEG encodes as JPEG at Quality instead of PNG
	JPEG    bool
	Quality int

	// Selector limits the screenshot to one element
	Selector string
}

// Page is a single document handle. Coordinates are CSS pixels relative to
// the viewport.
type Page interface {
	URL() string
	Title(ctx context.Context) (string, error)

	Goto(ctx context.Context, url string) error
	GoBack(ctx context.Context) error
	GoForward(ctx context.Context) error

	// Snapshot returns the structural text of the page (an accessibility
	// tree, cleaned HTML or Markdown depending on the driver's mode).
	Snapshot(ctx context.Context) (string, error)

	WaitForNetworkIdle(ctx context.Context) error

	Click(ctx context.Context, selector string) error
	Hover(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, text string) error
	PressSequentially(ctx context.Context, selector, text string) error
	SelectOption(ctx context.Context, selector string, values []string) ([]string, error)
	SetInputFiles(ctx context.Context, selector string, paths []string) error
	PressKey(ctx context.Context, key string) error

	MouseMove(ctx context.Context, x, y float64) error
	MouseClick(ctx context.Context, x, y float64) error
	MouseDrag(ctx context.Context, startX, startY, endX, endY float64) error
	TypeText(ctx context.Context, text string) error

	Screenshot(ctx context.Context, opts ScreenshotOptions) ([]byte, error)
	PDF(ctx context.Context, path string) error
	SetViewportSize(ctx context.Context, width, height int) error

	Close() error
}
