package browser

import (
	"context"
	"fmt"

	"github.com/entrhq/webpilot/pkg/config"
	"github.com/entrhq/webpilot/pkg/tab"
	"github.com/entrhq/webpilot/pkg/tool"
)

type pressKeyParams struct {
	Key string `json:"key" jsonschema:"Name of the key to press or a character to generate, such as ArrowLeft or a"`
}

type pressKeyEffect struct {
	key string
}

func (e pressKeyEffect) Apply(ctx context.Context, t *tab.Tab) error {
	return t.Page().PressKey(ctx, e.key)
}

func pressKeyTool(capture bool) *tool.Tool {
	return tool.Define("browser_press_key", "Press a key on the keyboard", config.CapabilityCore,
		func(ctx context.Context, host tool.Host, params pressKeyParams, _ *tool.Response) (*tool.Outcome, error) {
			if _, err := host.CurrentTab(); err != nil {
				return nil, err
			}
			return &tool.Outcome{
				Code: []string{
					fmt.Sprintf("// Press %s", params.Key),
					fmt.Sprintf("await page.keyboard.press(%s);", quote(params.Key)),
				},
				Effect:          pressKeyEffect{key: params.Key},
				CaptureSnapshot: capture,
				WaitForNetwork:  true,
			}, nil
		})
}
