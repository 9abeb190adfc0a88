package tab

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/webpilot/pkg/driver/drivertest"
)

func TestTab_NewHasNoSnapshot(t *testing.T) {
	tb := New(drivertest.NewPage())

	assert.NotEmpty(t, tb.ID())
	assert.False(t, tb.HasSnapshot())
	_, err := tb.SnapshotOrErr()
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestTab_CaptureSnapshot(t *testing.T) {
	page := drivertest.NewPage()
	page.SetTitle("todos")
	page.SetStructure("- heading \"todos\" [level=1]\n- textbox \"What needs to be done?\"")
	require.NoError(t, page.Goto(context.Background(), "https://demo.playwright.dev/todomvc"))

	tb := New(page)
	snapshot, err := tb.CaptureSnapshot(context.Background(), true)
	require.NoError(t, err)

	assert.Contains(t, snapshot.Text, "- Page URL: https://demo.playwright.dev/todomvc")
	assert.Contains(t, snapshot.Text, "- Page Title: todos")
	assert.Contains(t, snapshot.Text, "```yaml\n- heading \"todos\" [level=1]")
	assert.Equal(t, "- heading \"todos\" [level=1]\n- textbox \"What needs to be done?\"", snapshot.Content())
	assert.Equal(t, 1, page.CallCount("WaitForNetworkIdle"))

	cached, err := tb.SnapshotOrErr()
	require.NoError(t, err)
	assert.Same(t, snapshot, cached)
}

func TestTab_CaptureSnapshotReplacesWholesale(t *testing.T) {
	page := drivertest.NewPage()
	tb := New(page)

	page.SetStructure("- list: []")
	first, err := tb.CaptureSnapshot(context.Background(), false)
	require.NoError(t, err)

	page.SetStructure("- listitem: buy milk")
	second, err := tb.CaptureSnapshot(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, "- list: []", first.Content())
	assert.Equal(t, "- listitem: buy milk", second.Content())
	current, _ := tb.Snapshot()
	assert.Same(t, second, current)
	assert.Zero(t, page.CallCount("WaitForNetworkIdle"))
}

func TestTab_CaptureFailureLeavesNoSnapshot(t *testing.T) {
	page := drivertest.NewPage()
	tb := New(page)

	_, err := tb.CaptureSnapshot(context.Background(), false)
	require.NoError(t, err)
	require.True(t, tb.HasSnapshot())

	page.Errors["Snapshot"] = errors.New("target closed")
	_, err = tb.CaptureSnapshot(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target closed")
	assert.False(t, tb.HasSnapshot())
}

func TestTab_NetworkIdleFailureStillCaptures(t *testing.T) {
	page := drivertest.NewPage()
	page.Errors["WaitForNetworkIdle"] = errors.New("timeout")
	tb := New(page)

	_, err := tb.CaptureSnapshot(context.Background(), true)
	assert.NoError(t, err)
	assert.True(t, tb.HasSnapshot())
}

func TestTab_ClearAndClose(t *testing.T) {
	page := drivertest.NewPage()
	tb := New(page)
	_, err := tb.CaptureSnapshot(context.Background(), false)
	require.NoError(t, err)

	tb.ClearSnapshot()
	assert.False(t, tb.HasSnapshot())

	require.NoError(t, tb.Close())
	assert.True(t, page.Closed())
}

func TestSnapshot_Content(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "fenced yaml",
			text: "- Page URL: x\n```yaml\n- button \"Go\"\n```\n",
			want: "- button \"Go\"",
		},
		{
			name: "fence without language",
			text: "header\n```\nbody line\n```",
			want: "body line",
		},
		{
			name: "no fence",
			text: "- button \"Go\"",
			want: "- button \"Go\"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Snapshot{Text: tt.text}
			assert.Equal(t, tt.want, s.Content())
		})
	}
}
