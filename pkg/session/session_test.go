package session

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/entrhq/webpilot/pkg/config"
	"github.com/entrhq/webpilot/pkg/driver"
	"github.com/entrhq/webpilot/pkg/driver/drivertest"
	"github.com/entrhq/webpilot/pkg/tool"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type urlParams struct {
	URL string `json:"url"`
}

// testTools returns a small registry: open (ensures a tab and navigates),
// fail, boom (panics) and block (waits on release).
func testTools(t *testing.T, calls *int, release <-chan struct{}, started chan<- string) *tool.Registry {
	t.Helper()

	open := tool.Define("open", "Open a URL", config.CapabilityCore,
		func(ctx context.Context, host tool.Host, p urlParams, _ *tool.Response) (*tool.Outcome, error) {
			*calls++
			tb, err := host.EnsureTab(ctx)
			if err != nil {
				return nil, err
			}
			if err := tb.Page().Goto(ctx, p.URL); err != nil {
				return nil, err
			}
			return &tool.Outcome{CaptureSnapshot: true}, nil
		})

	fail := tool.Define("fail", "Always fails", config.CapabilityCore,
		func(context.Context, tool.Host, struct{}, *tool.Response) (*tool.Outcome, error) {
			return nil, errors.New("network timeout")
		})

	boom := tool.Define("boom", "Panics", config.CapabilityCore,
		func(context.Context, tool.Host, struct{}, *tool.Response) (*tool.Outcome, error) {
			panic("handler bug")
		})

	block := tool.Define("block", "Blocks until released", config.CapabilityCore,
		func(_ context.Context, _ tool.Host, p urlParams, resp *tool.Response) (*tool.Outcome, error) {
			if started != nil {
				started <- p.URL
			}
			if release != nil {
				<-release
			}
			resp.AddResult("done " + p.URL)
			return nil, nil
		}, tool.ReadOnly())

	registry, err := tool.NewRegistry(open, fail, boom, block)
	require.NoError(t, err)
	return registry
}

func newTestContext(t *testing.T, cfg *config.Config, registry *tool.Registry) (*Context, *drivertest.Factory) {
	t.Helper()
	factory := &drivertest.Factory{}
	c, err := New(cfg, factory, registry)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, factory
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(nil, nil, &tool.Registry{})
	assert.Error(t, err)

	_, err = New(nil, &drivertest.Factory{}, nil)
	assert.Error(t, err)
}

func TestRun_LazyBrowserAndSnapshot(t *testing.T) {
	calls := 0
	c, factory := newTestContext(t, nil, testTools(t, &calls, nil, nil))

	assert.Empty(t, factory.Drivers(), "no browser before the first tab")
	_, err := c.CurrentTab()
	assert.ErrorIs(t, err, ErrNoCurrentTab)

	resp, err := c.Run(context.Background(), "open", json.RawMessage(`{"url":"https://example.com"}`))
	require.NoError(t, err)
	require.False(t, resp.IsError(), resp.Text())

	require.Len(t, factory.Drivers(), 1)
	current, err := c.CurrentTab()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", current.URL())
	assert.True(t, current.HasSnapshot())
}

func TestRun_UnknownTool(t *testing.T) {
	calls := 0
	c, _ := newTestContext(t, nil, testTools(t, &calls, nil, nil))

	_, err := c.Run(context.Background(), "browser_fly", nil)
	assert.ErrorIs(t, err, tool.ErrUnknownTool)
}

func TestRun_ValidationFailureSkipsHandler(t *testing.T) {
	calls := 0
	c, factory := newTestContext(t, nil, testTools(t, &calls, nil, nil))

	resp, err := c.Run(context.Background(), "open", json.RawMessage(`{"url":7}`))
	require.NoError(t, err)

	assert.True(t, resp.IsError())
	assert.Zero(t, calls)
	assert.Empty(t, factory.Drivers())
	var verr *tool.ValidationError
	assert.True(t, errors.As(resp.Err(), &verr))
}

func TestRun_GuardReleasedAfterFailures(t *testing.T) {
	calls := 0
	c, _ := newTestContext(t, nil, testTools(t, &calls, nil, nil))
	ctx := context.Background()

	for _, name := range []string{"fail", "boom", "fail"} {
		resp, err := c.Run(ctx, name, nil)
		require.NoError(t, err)
		assert.True(t, resp.IsError())
		assert.Empty(t, c.RunningTool(), "guard held after %s", name)
	}

	resp, err := c.Run(ctx, "fail", nil)
	require.NoError(t, err)
	assert.Equal(t, "network timeout", resp.Text())

	// The guard is free: an ordinary call still goes through immediately
	shortCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	resp, err = c.Run(shortCtx, "open", json.RawMessage(`{"url":"https://example.com"}`))
	require.NoError(t, err)
	assert.False(t, resp.IsError())
}

func TestRun_SecondCallQueuesBehindFirst(t *testing.T) {
	calls := 0
	release := make(chan struct{})
	started := make(chan string, 2)
	c, _ := newTestContext(t, nil, testTools(t, &calls, release, started))
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan string, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		resp, err := c.Run(ctx, "block", json.RawMessage(`{"url":"first"}`))
		if err == nil {
			results <- resp.Text()
		}
	}()
	require.Equal(t, "first", <-started)
	assert.Equal(t, "block", c.RunningTool())

	wg.Add(1)
	go func() {
		defer wg.Done()
		resp, err := c.Run(ctx, "block", json.RawMessage(`{"url":"second"}`))
		if err == nil {
			results <- resp.Text()
		}
	}()

	// The second call must not start while the first holds the guard
	select {
	case name := <-started:
		t.Fatalf("%s started while first was running", name)
	case <-time.After(50 * time.Millisecond):
	}

	release <- struct{}{}
	require.Equal(t, "second", <-started)
	release <- struct{}{}
	wg.Wait()
	close(results)

	var order []string
	for r := range results {
		order = append(order, r)
	}
	assert.Equal(t, []string{"done first", "done second"}, order)
	assert.Empty(t, c.RunningTool())
}

func TestRun_AbandonedWaitIsToolBusy(t *testing.T) {
	calls := 0
	release := make(chan struct{})
	started := make(chan string, 1)
	c, _ := newTestContext(t, nil, testTools(t, &calls, release, started))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Run(context.Background(), "block", json.RawMessage(`{"url":"first"}`))
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Run(ctx, "fail", nil)
	assert.ErrorIs(t, err, tool.ErrToolBusy)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	<-done
}

func TestClose_Idempotent(t *testing.T) {
	calls := 0
	c, factory := newTestContext(t, nil, testTools(t, &calls, nil, nil))

	_, err := c.Run(context.Background(), "open", json.RawMessage(`{"url":"https://example.com"}`))
	require.NoError(t, err)
	page := factory.LastDriver().Pages()[0]

	require.NoError(t, c.Close())
	assert.NoError(t, c.Close())

	assert.True(t, c.IsClosed())
	assert.Equal(t, 1, factory.LastDriver().CloseCount())
	assert.True(t, page.Closed())

	_, err = c.Run(context.Background(), "open", json.RawMessage(`{"url":"https://example.com"}`))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = c.CurrentTab()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = c.NewTab(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestClose_WithoutBrowser(t *testing.T) {
	calls := 0
	c, factory := newTestContext(t, nil, testTools(t, &calls, nil, nil))

	assert.NoError(t, c.Close())
	assert.Empty(t, factory.Drivers())
}

func TestDisconnect_ClosesContext(t *testing.T) {
	calls := 0
	c, factory := newTestContext(t, nil, testTools(t, &calls, nil, nil))

	_, err := c.Run(context.Background(), "open", json.RawMessage(`{"url":"https://example.com"}`))
	require.NoError(t, err)

	factory.LastDriver().Disconnect()

	assert.True(t, c.IsClosed())
	_, err = c.Run(context.Background(), "open", json.RawMessage(`{"url":"https://example.com"}`))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, err, driver.ErrDisconnected)

	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestCloseBrowser_ReleasesDriverAndStaysOpen(t *testing.T) {
	calls := 0
	c, factory := newTestContext(t, nil, testTools(t, &calls, nil, nil))
	ctx := context.Background()

	_, err := c.Run(ctx, "open", json.RawMessage(`{"url":"https://example.com"}`))
	require.NoError(t, err)
	first := factory.LastDriver()

	require.NoError(t, c.CloseBrowser())
	assert.True(t, first.Closed())
	assert.Empty(t, c.Tabs())
	assert.False(t, c.IsClosed())

	// The released driver's late disconnect must not close the context
	first.Disconnect()
	assert.False(t, c.IsClosed())

	_, err = c.Run(ctx, "open", json.RawMessage(`{"url":"https://example.org"}`))
	require.NoError(t, err)
	assert.Len(t, factory.Drivers(), 2)
}

func TestTabs_SelectAndClose(t *testing.T) {
	calls := 0
	c, _ := newTestContext(t, nil, testTools(t, &calls, nil, nil))
	ctx := context.Background()

	first, err := c.NewTab(ctx)
	require.NoError(t, err)
	second, err := c.NewTab(ctx)
	require.NoError(t, err)
	third, err := c.NewTab(ctx)
	require.NoError(t, err)

	current, err := c.CurrentTab()
	require.NoError(t, err)
	assert.Same(t, third, current)

	selected, err := c.SelectTab(1)
	require.NoError(t, err)
	assert.Same(t, second, selected)

	_, err = c.SelectTab(5)
	assert.Error(t, err)

	// Closing a tab before the current one keeps the selection
	require.NoError(t, c.CloseTab(0))
	current, err = c.CurrentTab()
	require.NoError(t, err)
	assert.Same(t, second, current)
	assert.True(t, first.Page().(*drivertest.Page).Closed())

	// Closing the current tab leaves no tab selected
	require.NoError(t, c.CloseTab(0))
	_, err = c.CurrentTab()
	assert.ErrorIs(t, err, ErrNoCurrentTab)
	assert.Equal(t, []string{third.ID()}, []string{c.Tabs()[0].ID()})

	assert.Error(t, c.CloseTab(3))
}

func TestCheckURL_UsesPolicy(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Network.BlockedOrigins = []string{"https://blocked.test"}
	calls := 0
	c, _ := newTestContext(t, cfg, testTools(t, &calls, nil, nil))

	assert.NoError(t, c.CheckURL("https://fine.test"))
	assert.Error(t, c.CheckURL("https://blocked.test/x"))
}

func TestSessionLog(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SaveSession = true
	cfg.OutputDir = t.TempDir()
	calls := 0
	c, _ := newTestContext(t, cfg, testTools(t, &calls, nil, nil))

	_, err := c.Run(context.Background(), "fail", nil)
	require.NoError(t, err)
	path := c.SessionLogPath()
	require.NotEmpty(t, path)
	require.NoError(t, c.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "### Tool: fail")
	assert.Contains(t, string(data), "network timeout")
}

func TestClose_DuringBrowserLaunch(t *testing.T) {
	launching := make(chan struct{})
	release := make(chan struct{})
	factory := &drivertest.Factory{NewDriverFunc: func() *drivertest.Driver {
		close(launching)
		<-release
		return &drivertest.Driver{}
	}}
	calls := 0
	c, err := New(nil, factory, testTools(t, &calls, nil, nil))
	require.NoError(t, err)

	opened := make(chan error, 1)
	go func() {
		_, err := c.NewTab(context.Background())
		opened <- err
	}()
	<-launching

	closed := make(chan error, 1)
	go func() {
		_, err := c.CurrentTab()
		assert.ErrorIs(t, err, ErrNoCurrentTab)
		closed <- c.Close()
	}()

	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		close(release)
		t.Fatal("Close blocked while the browser was launching")
	}
	assert.ErrorIs(t, c.Err(), ErrClosed)

	close(release)
	require.ErrorIs(t, <-opened, ErrClosed)

	// the browser that finished launching after Close is released
	d := factory.LastDriver()
	require.NotNil(t, d)
	assert.True(t, d.Closed())
	assert.Empty(t, c.Tabs())
}

func TestDisconnect_WhileOpeningPage(t *testing.T) {
	opening := make(chan struct{})
	release := make(chan struct{})
	var page *drivertest.Page
	drv := &drivertest.Driver{NewPageFunc: func() *drivertest.Page {
		close(opening)
		<-release
		page = drivertest.NewPage()
		return page
	}}
	factory := &drivertest.Factory{NewDriverFunc: func() *drivertest.Driver { return drv }}
	calls := 0
	c, err := New(nil, factory, testTools(t, &calls, nil, nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	opened := make(chan error, 1)
	go func() {
		_, err := c.NewTab(context.Background())
		opened <- err
	}()
	<-opening

	disconnected := make(chan struct{})
	go func() {
		drv.Disconnect()
		close(disconnected)
	}()

	select {
	case <-disconnected:
	case <-time.After(2 * time.Second):
		close(release)
		t.Fatal("disconnect callback blocked while a page was opening")
	}
	assert.ErrorIs(t, c.Err(), driver.ErrDisconnected)

	close(release)
	err = <-opened
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, err, driver.ErrDisconnected)
	require.NotNil(t, page)
	assert.True(t, page.Closed())
	assert.Empty(t, c.Tabs())
}
