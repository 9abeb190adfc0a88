package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/entrhq/webpilot/pkg/config"
	"github.com/entrhq/webpilot/pkg/tool"
)

// maxWait caps browser_wait regardless of the requested time.
const maxWait = 10 * time.Second

type waitParams struct {
	Time float64 `json:"time" jsonschema:"The time to wait in seconds"`
}

func waitTool(capture bool) *tool.Tool {
	return tool.Define("browser_wait", "Wait for a specified time in seconds", config.CapabilityWait,
		func(ctx context.Context, _ tool.Host, params waitParams, _ *tool.Response) (*tool.Outcome, error) {
			d := time.Duration(params.Time * float64(time.Second))
			if d > maxWait {
				d = maxWait
			}

			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-timer.C:
			}

			return &tool.Outcome{
				Code:            []string{fmt.Sprintf("// Waited for %g seconds", params.Time)},
				CaptureSnapshot: capture,
			}, nil
		},
		tool.ReadOnly(),
		tool.WithSchema(func(s *jsonschema.Schema) {
			s.Properties["time"].Minimum = minimum(0.0)
		}),
	)
}
