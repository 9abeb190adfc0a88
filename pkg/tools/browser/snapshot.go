package browser

import (
	"context"

	"github.com/entrhq/webpilot/pkg/config"
	"github.com/entrhq/webpilot/pkg/tool"
)

func snapshotTool() *tool.Tool {
	return tool.Define("browser_snapshot",
		"Capture accessibility snapshot of the current page, this is better than screenshot",
		config.CapabilityCore,
		func(ctx context.Context, host tool.Host, _ struct{}, _ *tool.Response) (*tool.Outcome, error) {
			if _, err := host.CurrentTab(); err != nil {
				return nil, err
			}
			return &tool.Outcome{
				Code:            []string{"// <internal code to capture accessibility snapshot>"},
				CaptureSnapshot: true,
			}, nil
		},
		tool.ReadOnly(),
	)
}
