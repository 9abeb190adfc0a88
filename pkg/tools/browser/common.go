package browser

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/entrhq/webpilot/pkg/config"
	"github.com/entrhq/webpilot/pkg/tab"
	"github.com/entrhq/webpilot/pkg/tool"
)

type resizeParams struct {
	Width  int `json:"width" jsonschema:"Width of the browser window"`
	Height int `json:"height" jsonschema:"Height of the browser window"`
}

type resizeEffect struct {
	width, height int
}

func (e resizeEffect) Apply(ctx context.Context, t *tab.Tab) error {
	return t.Page().SetViewportSize(ctx, e.width, e.height)
}

func resizeTool(capture bool) *tool.Tool {
	return tool.Define("browser_resize", "Resize the browser window", config.CapabilityCore,
		func(ctx context.Context, host tool.Host, params resizeParams, _ *tool.Response) (*tool.Outcome, error) {
			if _, err := host.CurrentTab(); err != nil {
				return nil, err
			}
			return &tool.Outcome{
				Code: []string{
					fmt.Sprintf("// Resize browser window to %dx%d", params.Width, params.Height),
					fmt.Sprintf("await page.setViewportSize({ width: %d, height: %d });", params.Width, params.Height),
				},
				Effect:          resizeEffect{width: params.Width, height: params.Height},
				CaptureSnapshot: capture,
				WaitForNetwork:  true,
			}, nil
		},
		tool.WithSchema(func(s *jsonschema.Schema) {
			s.Properties["width"].Minimum = minimum(1.0)
			s.Properties["height"].Minimum = minimum(1.0)
		}),
	)
}

func closeTool() *tool.Tool {
	return tool.Define("browser_close", "Close the page", config.CapabilityCore,
		func(ctx context.Context, host tool.Host, _ struct{}, _ *tool.Response) (*tool.Outcome, error) {
			if err := host.CloseBrowser(); err != nil {
				return nil, err
			}
			return &tool.Outcome{
				Code: []string{"// Internal to close the page"},
			}, nil
		})
}
