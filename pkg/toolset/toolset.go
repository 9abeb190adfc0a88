// Package toolset exposes a browser context's tools as MCP server tools.
//
// Every call goes through session.Context.Run, so arguments are validated
// and the running-tool guard is held and released exactly as for the
// agent. Handler failures come back as error results; only lifecycle
// errors (closed context, abandoned wait) are returned as Go errors.
package toolset

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/entrhq/webpilot/pkg/session"
)

// Tools wraps every registered tool of sess.
func Tools(sess *session.Context) []server.ServerTool {
	registered := sess.Registry().Tools()
	out := make([]server.ServerTool, 0, len(registered))
	for _, t := range registered {
		out = append(out, server.ServerTool{
			Tool:    mcp.NewToolWithRawSchema(t.Name(), t.Description(), t.Schema()),
			Handler: handler(sess, t.Name()),
		})
	}
	return out
}

func handler(sess *session.Context, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args json.RawMessage
		if req.Params.Arguments != nil {
			raw, err := json.Marshal(req.Params.Arguments)
			if err != nil {
				return nil, fmt.Errorf("cannot encode arguments for %s: %w", name, err)
			}
			args = raw
		}

		resp, err := sess.Run(ctx, name, args)
		if err != nil {
			return nil, err
		}
		return resp.Result(), nil
	}
}

// NewServer returns an MCP server offering the tools of sess.
func NewServer(sess *session.Context, name, version string) *server.MCPServer {
	s := server.NewMCPServer(name, version, server.WithToolCapabilities(false))
	s.AddTools(Tools(sess)...)
	return s
}
