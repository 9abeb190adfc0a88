package browser

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/entrhq/webpilot/pkg/config"
	"github.com/entrhq/webpilot/pkg/tab"
	"github.com/entrhq/webpilot/pkg/tool"
)

type fileUploadParams struct {
	Element  string   `json:"element,omitempty" jsonschema:"Human-readable description of the file input"`
	Selector string   `json:"selector" jsonschema:"Selector of the file input element from the page snapshot"`
	Paths    []string `json:"paths" jsonschema:"The absolute paths to the files to upload. Can be a single file or multiple files."`
}

type fileUploadEffect struct {
	selector string
	paths    []string
}

func (e fileUploadEffect) Apply(ctx context.Context, t *tab.Tab) error {
	return t.Page().SetInputFiles(ctx, e.selector, e.paths)
}

func fileUploadTool(capture bool) *tool.Tool {
	return tool.Define("browser_file_upload", "Upload one or multiple files", config.CapabilityFiles,
		func(ctx context.Context, host tool.Host, params fileUploadParams, _ *tool.Response) (*tool.Outcome, error) {
			if _, err := host.CurrentTab(); err != nil {
				return nil, err
			}
			paths := make([]string, len(params.Paths))
			for i, path := range params.Paths {
				resolved, err := host.CheckFile(path)
				if err != nil {
					return nil, fmt.Errorf("cannot upload %s: %w", path, err)
				}
				if _, err := os.Stat(resolved); err != nil {
					return nil, fmt.Errorf("cannot upload %s: %w", path, err)
				}
				paths[i] = resolved
			}

			quoted := make([]string, len(paths))
			for i, p := range paths {
				quoted[i] = quote(p)
			}

			return &tool.Outcome{
				Code: []string{
					fmt.Sprintf("// Upload %d file(s)", len(paths)),
					fmt.Sprintf("await %s.setInputFiles([%s]);", locator(params.Selector), strings.Join(quoted, ", ")),
				},
				Effect:          fileUploadEffect{selector: params.Selector, paths: paths},
				CaptureSnapshot: capture,
			}, nil
		})
}
