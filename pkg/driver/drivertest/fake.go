// Package drivertest provides in-memory implementations of the driver
// interfaces for tests.
package drivertest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/entrhq/webpilot/pkg/driver"
)

// Call records one page operation.
type Call struct {
	Method string
	Args   []string
}

func (c Call) String() string {
	return c.Method + "(" + strings.Join(c.Args, ", ") + ")"
}

// Page is a scriptable driver.Page. Navigations update the URL and history;
// Structure is what Snapshot returns. Errors injects a failure per method
// name, and OnCall lets a test mutate the page in response to an action.
type Page struct {
	mu        sync.Mutex
	url       string
	title     string
	structure string
	history   []string
	forward   []string
	calls     []Call
	closed    bool
	width     int
	height    int

	Errors map[string]error
	OnCall func(p *Page, c Call) error

	// PNG is returned by Screenshot
	PNG []byte
}

var _ driver.Page = (*Page)(nil)

// NewPage returns a blank page.
func NewPage() *Page {
	return &Page{
		url:    "about:blank",
		Errors: map[string]error{},
		PNG:    []byte("\x89PNG\r\n\x1a\nfake"),
		width:  1280,
		height: 720,
	}
}

// SetStructure sets the text returned by Snapshot.
func (p *Page) SetStructure(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.structure = s
}

// SetTitle sets the page title.
func (p *Page) SetTitle(title string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.title = title
}

// Calls returns the recorded operations.
func (p *Page) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

// CallCount counts recorded calls of method.
func (p *Page) CallCount(method string) int {
	n := 0
	for _, c := range p.Calls() {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Viewport returns the last size set with SetViewportSize.
func (p *Page) Viewport() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.width, p.height
}

func (p *Page) record(ctx context.Context, method string, args ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return errors.New("page is closed")
	}
	c := Call{Method: method, Args: args}
	p.calls = append(p.calls, c)
	err := p.Errors[method]
	hook := p.OnCall
	p.mu.Unlock()

	if err != nil {
		return err
	}
	if hook != nil {
		return hook(p, c)
	}
	return nil
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Title(ctx context.Context) (string, error) {
	if err := p.record(ctx, "Title"); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title, nil
}

func (p *Page) Goto(ctx context.Context, url string) error {
	if err := p.record(ctx, "Goto", url); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history = append(p.history, p.url)
	p.forward = nil
	p.url = url
	return nil
}

func (p *Page) GoBack(ctx context.Context) error {
	if err := p.record(ctx, "GoBack"); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.history) == 0 {
		return nil
	}
	p.forward = append(p.forward, p.url)
	p.url = p.history[len(p.history)-1]
	p.history = p.history[:len(p.history)-1]
	return nil
}

func (p *Page) GoForward(ctx context.Context) error {
	if err := p.record(ctx, "GoForward"); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.forward) == 0 {
		return nil
	}
	p.history = append(p.history, p.url)
	p.url = p.forward[len(p.forward)-1]
	p.forward = p.forward[:len(p.forward)-1]
	return nil
}

func (p *Page) Snapshot(ctx context.Context) (string, error) {
	if err := p.record(ctx, "Snapshot"); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.structure, nil
}

func (p *Page) WaitForNetworkIdle(ctx context.Context) error {
	return p.record(ctx, "WaitForNetworkIdle")
}

func (p *Page) Click(ctx context.Context, selector string) error {
	return p.record(ctx, "Click", selector)
}

func (p *Page) Hover(ctx context.Context, selector string) error {
	return p.record(ctx, "Hover", selector)
}

func (p *Page) Fill(ctx context.Context, selector, text string) error {
	return p.record(ctx, "Fill", selector, text)
}

func (p *Page) PressSequentially(ctx context.Context, selector, text string) error {
	return p.record(ctx, "PressSequentially", selector, text)
}

func (p *Page) SelectOption(ctx context.Context, selector string, values []string) ([]string, error) {
	if err := p.record(ctx, "SelectOption", append([]string{selector}, values...)...); err != nil {
		return nil, err
	}
	return values, nil
}

func (p *Page) SetInputFiles(ctx context.Context, selector string, paths []string) error {
	return p.record(ctx, "SetInputFiles", append([]string{selector}, paths...)...)
}

func (p *Page) PressKey(ctx context.Context, key string) error {
	return p.record(ctx, "PressKey", key)
}

func (p *Page) MouseMove(ctx context.Context, x, y float64) error {
	return p.record(ctx, "MouseMove", ftoa(x), ftoa(y))
}

func (p *Page) MouseClick(ctx context.Context, x, y float64) error {
	return p.record(ctx, "MouseClick", ftoa(x), ftoa(y))
}

func (p *Page) MouseDrag(ctx context.Context, startX, startY, endX, endY float64) error {
	return p.record(ctx, "MouseDrag", ftoa(startX), ftoa(startY), ftoa(endX), ftoa(endY))
}

func (p *Page) TypeText(ctx context.Context, text string) error {
	return p.record(ctx, "TypeText", text)
}

func (p *Page) Screenshot(ctx context.Context, opts driver.ScreenshotOptions) ([]byte, error) {
	if err := p.record(ctx, "Screenshot", opts.Selector); err != nil {
		return nil, err
	}
	return append([]byte(nil), p.PNG...), nil
}

// PDF writes a one-page PDF document to path.
func (p *Page) PDF(ctx context.Context, path string) error {
	if err := p.record(ctx, "PDF", path); err != nil {
		return err
	}
	return os.WriteFile(path, MinimalPDF(), 0600)
}

func (p *Page) SetViewportSize(ctx context.Context, width, height int) error {
	if err := p.record(ctx, "SetViewportSize", fmt.Sprint(width), fmt.Sprint(height)); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.width, p.height = width, height
	return nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func ftoa(f float64) string {
	return fmt.Sprintf("%g", f)
}

// MinimalPDF returns a valid single-page PDF document.
func MinimalPDF() []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// Driver hands out fake pages.
type Driver struct {
	mu             sync.Mutex
	pages          []*Page
	closed         bool
	closeCount     int
	onDisconnected []func()

	// NewPageFunc customises page creation
	NewPageFunc func() *Page

	// NewPageErr fails every NewPage call
	NewPageErr error
}

var _ driver.Driver = (*Driver)(nil)

func (d *Driver) NewPage(ctx context.Context) (driver.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	if d.NewPageErr != nil {
		d.mu.Unlock()
		return nil, d.NewPageErr
	}
	if d.closed {
		d.mu.Unlock()
		return nil, errors.New("driver is closed")
	}
	newPage := d.NewPageFunc
	d.mu.Unlock()

	// the hook runs unlocked so it may block or disconnect the driver
	var p *Page
	if newPage != nil {
		p = newPage()
	} else {
		p = NewPage()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.pages = append(d.pages, p)
	return p, nil
}

func (d *Driver) OnDisconnected(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onDisconnected = append(d.onDisconnected, fn)
}

// Disconnect simulates losing the browser connection.
func (d *Driver) Disconnect() {
	d.mu.Lock()
	callbacks := d.onDisconnected
	d.onDisconnected = nil
	d.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeCount++
	d.closed = true
	d.onDisconnected = nil
	return nil
}

// Pages returns every page created so far.
func (d *Driver) Pages() []*Page {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Page(nil), d.pages...)
}

// Closed reports whether Close was called.
func (d *Driver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// CloseCount reports how many times Close was called.
func (d *Driver) CloseCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closeCount
}

// Factory creates fake drivers and remembers them.
type Factory struct {
	mu      sync.Mutex
	drivers []*Driver

	// NewDriverFunc customises driver creation
	NewDriverFunc func() *Driver

	// Err fails every NewDriver call
	Err error
}

var _ driver.Factory = (*Factory)(nil)

func (f *Factory) NewDriver(ctx context.Context) (driver.Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	var d *Driver
	if f.NewDriverFunc != nil {
		d = f.NewDriverFunc()
	} else {
		d = &Driver{}
	}
	f.drivers = append(f.drivers, d)
	return d, nil
}

// Drivers returns every driver created so far.
func (f *Factory) Drivers() []*Driver {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Driver(nil), f.drivers...)
}

// LastDriver returns the most recently created driver, or nil.
func (f *Factory) LastDriver() *Driver {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.drivers) == 0 {
		return nil
	}
	return f.drivers[len(f.drivers)-1]
}
