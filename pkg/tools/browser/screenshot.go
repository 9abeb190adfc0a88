package browser

import (
	"context"
	"fmt"

	"github.com/entrhq/webpilot/pkg/config"
	"github.com/entrhq/webpilot/pkg/driver"
	"github.com/entrhq/webpilot/pkg/tool"
)

const jpegQuality = 50

type screenshotParams struct {
	Raw      bool   `json:"raw,omitempty" jsonschema:"Whether to return without compression (in PNG format). Default is false, which returns a JPEG image."`
	Element  string `json:"element,omitempty" jsonschema:"Human-readable element description used to obtain permission to screenshot the element. If not provided, the screenshot will be taken of viewport. If element is provided, selector must be provided too."`
	Selector string `json:"selector,omitempty" jsonschema:"Exact target element selector from the page snapshot. If not provided, the screenshot will be taken of viewport. If selector is provided, element must be provided too."`
}

func takeScreenshotTool() *tool.Tool {
	return tool.Define("browser_take_screenshot",
		"Take a screenshot of the current page. You can't perform actions based on the screenshot, use browser_snapshot for actions.",
		config.CapabilityCore,
		func(ctx context.Context, host tool.Host, params screenshotParams, resp *tool.Response) (*tool.Outcome, error) {
			if (params.Element == "") != (params.Selector == "") {
				return nil, fmt.Errorf("both element and selector must be provided or neither")
			}

			current, err := host.CurrentTab()
			if err != nil {
				return nil, err
			}

			opts := driver.ScreenshotOptions{Selector: params.Selector}
			mimeType := "image/png"
			if !params.Raw {
				opts.JPEG = true
				opts.Quality = jpegQuality
				mimeType = "image/jpeg"
			}

			data, err := current.Page().Screenshot(ctx, opts)
			if err != nil {
				return nil, fmt.Errorf("screenshot failed: %w", err)
			}
			resp.AddImage(data, mimeType)

			target := "viewport"
			code := fmt.Sprintf("await page.screenshot({ type: %s });", quote(imageType(opts)))
			if params.Selector != "" {
				target = params.Element
				code = fmt.Sprintf("await %s.screenshot({ type: %s });", locator(params.Selector), quote(imageType(opts)))
			}

			return &tool.Outcome{
				Code: []string{fmt.Sprintf("// Screenshot %s", target), code},
			}, nil
		},
		tool.ReadOnly(),
	)
}

func imageType(opts driver.ScreenshotOptions) string {
	if opts.JPEG {
		return "jpeg"
	}
	return "png"
}
