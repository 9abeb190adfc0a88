package browser

import (
	"context"
	"fmt"

	"github.com/entrhq/webpilot/pkg/config"
	"github.com/entrhq/webpilot/pkg/tab"
	"github.com/entrhq/webpilot/pkg/tool"
)

type navigateParams struct {
	URL string `json:"url" jsonschema:"The URL to navigate to"`
}

type gotoEffect struct {
	url string
}

func (e gotoEffect) Apply(ctx context.Context, t *tab.Tab) error {
	return t.Page().Goto(ctx, e.url)
}

type historyEffect struct {
	forward bool
}

func (e historyEffect) Apply(ctx context.Context, t *tab.Tab) error {
	if e.forward {
		return t.Page().GoForward(ctx)
	}
	return t.Page().GoBack(ctx)
}

func navigateTool(capture bool) *tool.Tool {
	return tool.Define("browser_navigate", "Navigate to a URL", config.CapabilityCore,
		func(ctx context.Context, host tool.Host, params navigateParams, _ *tool.Response) (*tool.Outcome, error) {
			if err := host.CheckURL(params.URL); err != nil {
				return nil, err
			}
			// Navigation is how a fresh context gets its first tab
			if _, err := host.EnsureTab(ctx); err != nil {
				return nil, err
			}
			return &tool.Outcome{
				Code: []string{
					fmt.Sprintf("// Navigate to %s", params.URL),
					fmt.Sprintf("await page.goto(%s);", quote(params.URL)),
				},
				Effect:          gotoEffect{url: params.URL},
				CaptureSnapshot: capture,
			}, nil
		})
}

func navigateBackTool(capture bool) *tool.Tool {
	return tool.Define("browser_navigate_back", "Go back to the previous page", config.CapabilityHistory,
		func(ctx context.Context, host tool.Host, _ struct{}, _ *tool.Response) (*tool.Outcome, error) {
			if _, err := host.CurrentTab(); err != nil {
				return nil, err
			}
			return &tool.Outcome{
				Code:            []string{"// Navigate back", "await page.goBack();"},
				Effect:          historyEffect{forward: false},
				CaptureSnapshot: capture,
			}, nil
		})
}

func navigateForwardTool(capture bool) *tool.Tool {
	return tool.Define("browser_navigate_forward", "Go forward to the next page", config.CapabilityHistory,
		func(ctx context.Context, host tool.Host, _ struct{}, _ *tool.Response) (*tool.Outcome, error) {
			if _, err := host.CurrentTab(); err != nil {
				return nil, err
			}
			return &tool.Outcome{
				Code:            []string{"// Navigate forward", "await page.goForward();"},
				Effect:          historyEffect{forward: true},
				CaptureSnapshot: capture,
			}, nil
		})
}
