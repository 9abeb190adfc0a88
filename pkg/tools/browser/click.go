package browser

import (
	"context"
	"fmt"

	"github.com/entrhq/webpilot/pkg/config"
	"github.com/entrhq/webpilot/pkg/tab"
	"github.com/entrhq/webpilot/pkg/tool"
)

// elementParams identifies one element of the page snapshot.
type elementParams struct {
	Element  string `json:"element" jsonschema:"Human-readable element description used to obtain permission to interact with the element"`
	Selector string `json:"selector" jsonschema:"Exact target element selector from the page snapshot, e.g. role=button[name=\"Submit\"]"`
}

func locator(selector string) string {
	return fmt.Sprintf("page.locator(%s)", quote(selector))
}

type clickEffect struct {
	selector string
}

func (e clickEffect) Apply(ctx context.Context, t *tab.Tab) error {
	return t.Page().Click(ctx, e.selector)
}

type hoverEffect struct {
	selector string
}

func (e hoverEffect) Apply(ctx context.Context, t *tab.Tab) error {
	return t.Page().Hover(ctx, e.selector)
}

func clickTool(capture bool) *tool.Tool {
	return tool.Define("browser_click", "Perform click on a web page", config.CapabilityCore,
		func(ctx context.Context, host tool.Host, params elementParams, _ *tool.Response) (*tool.Outcome, error) {
			if _, err := host.CurrentTab(); err != nil {
				return nil, err
			}
			return &tool.Outcome{
				Code: []string{
					fmt.Sprintf("// Click %s", params.Element),
					fmt.Sprintf("await %s.click();", locator(params.Selector)),
				},
				Effect:          clickEffect{selector: params.Selector},
				CaptureSnapshot: capture,
				WaitForNetwork:  true,
			}, nil
		})
}

func hoverTool(capture bool) *tool.Tool {
	return tool.Define("browser_hover", "Hover over element on page", config.CapabilityCore,
		func(ctx context.Context, host tool.Host, params elementParams, _ *tool.Response) (*tool.Outcome, error) {
			if _, err := host.CurrentTab(); err != nil {
				return nil, err
			}
			return &tool.Outcome{
				Code: []string{
					fmt.Sprintf("// Hover over %s", params.Element),
					fmt.Sprintf("await %s.hover();", locator(params.Selector)),
				},
				Effect:          hoverEffect{selector: params.Selector},
				CaptureSnapshot: capture,
				WaitForNetwork:  true,
			}, nil
		})
}
