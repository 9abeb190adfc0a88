package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/entrhq/webpilot/pkg/config"
	"github.com/entrhq/webpilot/pkg/tab"
	"github.com/entrhq/webpilot/pkg/tool"
)

// describeTabs renders the tab list with 1-based indexes.
func describeTabs(ctx context.Context, host tool.Host) string {
	tabs := host.Tabs()
	if len(tabs) == 0 {
		return "### Open tabs\nNo open tabs. Use the \"browser_navigate\" tool to navigate to a page first."
	}

	current, _ := host.CurrentTab()

	var b strings.Builder
	b.WriteString("### Open tabs")
	for i, t := range tabs {
		title, err := t.Page().Title(ctx)
		if err != nil {
			title = ""
		}
		marker := ""
		if t == current {
			marker = " (current)"
		}
		fmt.Fprintf(&b, "\n- %d:%s [%s] (%s)", i+1, marker, title, t.URL())
	}
	return b.String()
}

func tabListTool() *tool.Tool {
	return tool.Define("browser_tab_list", "List browser tabs", config.CapabilityTabs,
		func(ctx context.Context, host tool.Host, _ struct{}, resp *tool.Response) (*tool.Outcome, error) {
			resp.AddResult(describeTabs(ctx, host))
			return &tool.Outcome{
				Code: []string{"// <internal code to list tabs>"},
			}, nil
		},
		tool.ReadOnly(),
	)
}

type tabNewParams struct {
	URL string `json:"url,omitempty" jsonschema:"The URL to navigate to in the new tab. If not provided, the new tab will be blank."`
}

func tabNewTool(capture bool) *tool.Tool {
	return tool.Define("browser_tab_new", "Open a new tab", config.CapabilityTabs,
		func(ctx context.Context, host tool.Host, params tabNewParams, _ *tool.Response) (*tool.Outcome, error) {
			if params.URL != "" {
				if err := host.CheckURL(params.URL); err != nil {
					return nil, err
				}
			}
			if _, err := host.NewTab(ctx); err != nil {
				return nil, err
			}

			outcome := &tool.Outcome{
				Code:            []string{"// <internal code to open a new tab>"},
				CaptureSnapshot: capture,
			}
			if params.URL != "" {
				outcome.Code = append(outcome.Code, fmt.Sprintf("await page.goto(%s);", quote(params.URL)))
				outcome.Effect = gotoEffect{url: params.URL}
			}
			return outcome, nil
		})
}

type tabSelectParams struct {
	Index int `json:"index" jsonschema:"The index of the tab to select (1-based)"`
}

func tabSelectTool(capture bool) *tool.Tool {
	return tool.Define("browser_tab_select", "Select a tab by index", config.CapabilityTabs,
		func(ctx context.Context, host tool.Host, params tabSelectParams, _ *tool.Response) (*tool.Outcome, error) {
			if _, err := host.SelectTab(params.Index - 1); err != nil {
				return nil, err
			}
			return &tool.Outcome{
				Code:            []string{fmt.Sprintf("// <internal code to select tab %d>", params.Index)},
				CaptureSnapshot: capture,
			}, nil
		},
		// Selecting does not touch any page
		tool.ReadOnly(),
	)
}

type tabCloseParams struct {
	Index int `json:"index,omitempty" jsonschema:"The index of the tab to close (1-based). Closes current tab if not provided."`
}

func tabCloseTool() *tool.Tool {
	return tool.Define("browser_tab_close", "Close a tab", config.CapabilityTabs,
		func(ctx context.Context, host tool.Host, params tabCloseParams, resp *tool.Response) (*tool.Outcome, error) {
			index := params.Index - 1
			if params.Index == 0 {
				current, err := host.CurrentTab()
				if err != nil {
					return nil, err
				}
				index = indexOf(host.Tabs(), current)
			}

			if err := host.CloseTab(index); err != nil {
				return nil, err
			}
			resp.AddResult(describeTabs(ctx, host))

			return &tool.Outcome{
				Code: []string{fmt.Sprintf("// <internal code to close tab %d>", index+1)},
			}, nil
		},
		tool.ReadOnly(),
	)
}

func indexOf(tabs []*tab.Tab, t *tab.Tab) int {
	for i, candidate := range tabs {
		if candidate == t {
			return i
		}
	}
	return -1
}
