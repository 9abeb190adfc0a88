package toolset

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/webpilot/pkg/config"
	"github.com/entrhq/webpilot/pkg/driver/drivertest"
	"github.com/entrhq/webpilot/pkg/session"
	"github.com/entrhq/webpilot/pkg/tool"
	"github.com/entrhq/webpilot/pkg/tools/browser"
)

type countParams struct {
	N int `json:"n" jsonschema:"How many"`
}

func newSession(t *testing.T) (*session.Context, *int) {
	t.Helper()

	calls := 0
	extra := []*tool.Tool{
		tool.Define("fail", "Always fails", config.CapabilityCore,
			func(context.Context, tool.Host, struct{}, *tool.Response) (*tool.Outcome, error) {
				calls++
				return nil, errors.New("network timeout")
			}),
		tool.Define("boom", "Panics", config.CapabilityCore,
			func(context.Context, tool.Host, struct{}, *tool.Response) (*tool.Outcome, error) {
				calls++
				panic("handler exploded")
			}),
		tool.Define("count", "Counts", config.CapabilityCore,
			func(_ context.Context, _ tool.Host, p countParams, resp *tool.Response) (*tool.Outcome, error) {
				calls++
				resp.AddResult("counted")
				return &tool.Outcome{}, nil
			}, tool.ReadOnly()),
	}

	cfg := config.DefaultConfig()
	cfg.OutputDir = t.TempDir()
	registry, err := tool.NewRegistry(append(browser.Tools(browser.OptionsFromConfig(cfg)), extra...)...)
	require.NoError(t, err)

	sess, err := session.New(cfg, &drivertest.Factory{}, registry)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })
	return sess, &calls
}

func find(t *testing.T, tools []server.ServerTool, name string) server.ServerTool {
	t.Helper()
	for _, st := range tools {
		if st.Tool.Name == name {
			return st
		}
	}
	t.Fatalf("tool %s not found", name)
	return server.ServerTool{}
}

func callTool(t *testing.T, st server.ServerTool, args any) (*mcp.CallToolResult, error) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = st.Tool.Name
	req.Params.Arguments = args
	return st.Handler(context.Background(), req)
}

func TestTools_PassSchemasThrough(t *testing.T) {
	sess, _ := newSession(t)
	tools := Tools(sess)

	require.Len(t, tools, sess.Registry().Len())
	for _, st := range tools {
		registered, err := sess.Registry().Get(st.Tool.Name)
		require.NoError(t, err)
		assert.Equal(t, registered.Description(), st.Tool.Description)
		assert.JSONEq(t, string(registered.Schema()), string(st.Tool.RawInputSchema))
	}
}

func TestHandler_Success(t *testing.T) {
	sess, _ := newSession(t)
	st := find(t, Tools(sess), "browser_navigate")

	result, err := callTool(t, st, map[string]any{"url": "https://demo.playwright.dev/todomvc"})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, `await page.goto("https://demo.playwright.dev/todomvc");`)
	assert.Empty(t, sess.RunningTool())
}

func TestHandler_FailuresReleaseGuard(t *testing.T) {
	sess, calls := newSession(t)
	tools := Tools(sess)

	result, err := callTool(t, find(t, tools, "fail"), nil)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "network timeout", tool.TextOf(result))
	assert.Empty(t, sess.RunningTool())

	result, err = callTool(t, find(t, tools, "boom"), map[string]any{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, tool.TextOf(result), "handler exploded")
	assert.Empty(t, sess.RunningTool())

	result, err = callTool(t, find(t, tools, "count"), map[string]any{"n": 2})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, 3, *calls)
}

func TestHandler_ValidationSkipsHandler(t *testing.T) {
	sess, calls := newSession(t)

	result, err := callTool(t, find(t, Tools(sess), "count"), map[string]any{"n": "two"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, tool.TextOf(result), "invalid arguments for count")
	assert.Zero(t, *calls)
}

func TestHandler_ClosedContext(t *testing.T) {
	sess, _ := newSession(t)
	st := find(t, Tools(sess), "count")
	require.NoError(t, sess.Close())

	_, err := callTool(t, st, map[string]any{"n": 1})
	assert.ErrorIs(t, err, session.ErrClosed)
}

func TestNewServer_ListsTools(t *testing.T) {
	sess, _ := newSession(t)
	s := NewServer(sess, "webpilot", "test")

	reply := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(reply)
	require.NoError(t, err)

	for _, name := range sess.Registry().Names() {
		assert.Contains(t, string(raw), `"`+name+`"`)
	}
}
