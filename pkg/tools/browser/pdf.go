package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/entrhq/webpilot/pkg/config"
	"github.com/entrhq/webpilot/pkg/tool"
)

func pdfSaveTool() *tool.Tool {
	return tool.Define("browser_pdf_save", "Save page as PDF", config.CapabilityPDF,
		func(ctx context.Context, host tool.Host, _ struct{}, resp *tool.Response) (*tool.Outcome, error) {
			current, err := host.CurrentTab()
			if err != nil {
				return nil, err
			}

			dir := host.OutputDir()
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create output directory: %w", err)
			}
			name := fmt.Sprintf("page-%s.pdf", time.Now().UTC().Format("2006-01-02T15-04-05.000Z"))
			path := filepath.Join(dir, name)

			if err := current.Page().PDF(ctx, path); err != nil {
				return nil, err
			}

			pages, err := api.PageCountFile(path)
			if err != nil {
				return nil, fmt.Errorf("saved file is not a readable PDF: %w", err)
			}
			resp.AddResult(fmt.Sprintf("Saved page as %s (%d pages)", path, pages))

			return &tool.Outcome{
				Code: []string{
					fmt.Sprintf("// Save page as %s", path),
					fmt.Sprintf("await page.pdf({ path: %s });", quote(path)),
				},
			}, nil
		},
		tool.ReadOnly(),
	)
}
