package playwright

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/webpilot/pkg/config"
	"github.com/entrhq/webpilot/pkg/driver"
	"github.com/entrhq/webpilot/pkg/logging"
)

const todoPage = `<!doctype html>
<html><head><title>todos</title></head>
<body>
  <h1>todos</h1>
  <input class="new-todo" placeholder="What needs to be done?">
  <ul class="todo-list"></ul>
  <script>
    document.querySelector('.new-todo').addEventListener('keydown', e => {
      if (e.key !== 'Enter') return;
      const li = document.createElement('li');
      li.textContent = e.target.value;
      document.querySelector('.todo-list').appendChild(li);
      e.target.value = '';
    });
  </script>
</body></html>`

func newTestDriver(t *testing.T, opts Options) (*Factory, driver.Driver) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}

	opts.Headless = true
	factory := NewFactory(opts)
	d, err := factory.NewDriver(context.Background())
	if err != nil {
		t.Skipf("browser not available: %v", err)
	}
	t.Cleanup(func() {
		assert.NoError(t, d.Close())
		assert.NoError(t, factory.Shutdown())
	})
	return factory, d
}

func TestDriver_AriaSnapshotAfterTyping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(todoPage))
	}))
	defer server.Close()

	_, d := newTestDriver(t, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	page, err := d.NewPage(ctx)
	require.NoError(t, err)

	require.NoError(t, page.Goto(ctx, server.URL))
	title, err := page.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "todos", title)

	require.NoError(t, page.Fill(ctx, `role=textbox[name="What needs to be done?"]`, "buy milk"))
	require.NoError(t, page.PressKey(ctx, "Enter"))

	snapshot, err := page.Snapshot(ctx)
	require.NoError(t, err)
	assert.Contains(t, snapshot, "heading \"todos\"")
	assert.Contains(t, snapshot, "buy milk")

	png, err := page.Screenshot(ctx, driver.ScreenshotOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, png)
}

func TestDriver_OriginPolicyBlocksNavigation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<p>hello</p>"))
	}))
	defer server.Close()

	policy, err := driver.NewOriginPolicy(nil, []string{"127.0.0.1:*"})
	require.NoError(t, err)

	_, d := newTestDriver(t, Options{Policy: policy, SnapshotMode: config.SnapshotMarkdown})

	ctx := context.Background()
	page, err := d.NewPage(ctx)
	require.NoError(t, err)

	assert.Error(t, page.Goto(ctx, server.URL))
}

func TestDriver_CloseIsIdempotent(t *testing.T) {
	_, d := newTestDriver(t, Options{})

	require.NoError(t, d.Close())
	assert.NoError(t, d.Close())

	_, err := d.NewPage(context.Background())
	assert.Error(t, err)
}

func TestDiscardBrowser_LogsReleaseError(t *testing.T) {
	var buf bytes.Buffer
	logging.SetOutput(&buf)
	defer logging.SetOutput(os.Stderr)
	require.NoError(t, logging.SetLevel("debug"))
	defer func() { _ = logging.SetLevel("warn") }()

	released := false
	discardBrowser(func() error {
		released = true
		return errors.New("browser already gone")
	})

	assert.True(t, released)
	assert.Contains(t, buf.String(), "failed to release browser after setup error: browser already gone")

	buf.Reset()
	discardBrowser(func() error { return nil })
	assert.Empty(t, buf.String())
}
