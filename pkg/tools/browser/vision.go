package browser

import (
	"context"
	"fmt"

	"github.com/entrhq/webpilot/pkg/config"
	"github.com/entrhq/webpilot/pkg/driver"
	"github.com/entrhq/webpilot/pkg/tab"
	"github.com/entrhq/webpilot/pkg/tool"
)

func screenCaptureTool() *tool.Tool {
	return tool.Define("browser_screen_capture", "Take a screenshot of the current page", config.CapabilityCore,
		func(ctx context.Context, host tool.Host, _ struct{}, resp *tool.Response) (*tool.Outcome, error) {
			current, err := host.CurrentTab()
			if err != nil {
				return nil, err
			}
			data, err := current.Page().Screenshot(ctx, driver.ScreenshotOptions{JPEG: true, Quality: jpegQuality})
			if err != nil {
				return nil, fmt.Errorf("screenshot failed: %w", err)
			}
			resp.AddImage(data, "image/jpeg")
			return &tool.Outcome{
				Code: []string{"// Take a screenshot", `await page.screenshot({ type: "jpeg" });`},
			}, nil
		},
		tool.ReadOnly(),
	)
}

type pointParams struct {
	Element string  `json:"element" jsonschema:"Human-readable element description used to obtain permission to interact with the element"`
	X       float64 `json:"x" jsonschema:"X coordinate"`
	Y       float64 `json:"y" jsonschema:"Y coordinate"`
}

type mouseEffect struct {
	x, y  float64
	click bool
}

func (e mouseEffect) Apply(ctx context.Context, t *tab.Tab) error {
	if e.click {
		return t.Page().MouseClick(ctx, e.x, e.y)
	}
	return t.Page().MouseMove(ctx, e.x, e.y)
}

func screenMoveMouseTool() *tool.Tool {
	return tool.Define("browser_screen_move_mouse", "Move mouse to a given position", config.CapabilityCore,
		func(ctx context.Context, host tool.Host, params pointParams, _ *tool.Response) (*tool.Outcome, error) {
			if _, err := host.CurrentTab(); err != nil {
				return nil, err
			}
			return &tool.Outcome{
				Code: []string{
					fmt.Sprintf("// Move mouse to (%g, %g)", params.X, params.Y),
					fmt.Sprintf("await page.mouse.move(%g, %g);", params.X, params.Y),
				},
				Effect: mouseEffect{x: params.X, y: params.Y},
			}, nil
		})
}

func screenClickTool() *tool.Tool {
	return tool.Define("browser_screen_click", "Click left mouse button", config.CapabilityCore,
		func(ctx context.Context, host tool.Host, params pointParams, _ *tool.Response) (*tool.Outcome, error) {
			if _, err := host.CurrentTab(); err != nil {
				return nil, err
			}
			return &tool.Outcome{
				Code: []string{
					fmt.Sprintf("// Click %s at (%g, %g)", params.Element, params.X, params.Y),
					fmt.Sprintf("await page.mouse.click(%g, %g);", params.X, params.Y),
				},
				Effect:         mouseEffect{x: params.X, y: params.Y, click: true},
				WaitForNetwork: true,
			}, nil
		})
}

type dragParams struct {
	StartElement string  `json:"startElement" jsonschema:"Human-readable source element description used to obtain the permission to interact with the element"`
	StartX       float64 `json:"startX" jsonschema:"Start X coordinate"`
	StartY       float64 `json:"startY" jsonschema:"Start Y coordinate"`
	EndElement   string  `json:"endElement" jsonschema:"Human-readable target element description used to obtain the permission to interact with the element"`
	EndX         float64 `json:"endX" jsonschema:"End X coordinate"`
	EndY         float64 `json:"endY" jsonschema:"End Y coordinate"`
}

type dragEffect struct {
	startX, startY, endX, endY float64
}

func (e dragEffect) Apply(ctx context.Context, t *tab.Tab) error {
	return t.Page().MouseDrag(ctx, e.startX, e.startY, e.endX, e.endY)
}

func screenDragTool() *tool.Tool {
	return tool.Define("browser_screen_drag", "Drag left mouse button", config.CapabilityCore,
		func(ctx context.Context, host tool.Host, params dragParams, _ *tool.Response) (*tool.Outcome, error) {
			if _, err := host.CurrentTab(); err != nil {
				return nil, err
			}
			return &tool.Outcome{
				Code: []string{
					fmt.Sprintf("// Drag %s to %s", params.StartElement, params.EndElement),
					fmt.Sprintf("await page.mouse.move(%g, %g);", params.StartX, params.StartY),
					"await page.mouse.down();",
					fmt.Sprintf("await page.mouse.move(%g, %g);", params.EndX, params.EndY),
					"await page.mouse.up();",
				},
				Effect:         dragEffect{startX: params.StartX, startY: params.StartY, endX: params.EndX, endY: params.EndY},
				WaitForNetwork: true,
			}, nil
		})
}

type screenTypeParams struct {
	Text   string `json:"text" jsonschema:"Text to type into the element"`
	Submit bool   `json:"submit,omitempty" jsonschema:"Whether to submit entered text (press Enter after)"`
}

type keyboardTypeEffect struct {
	text   string
	submit bool
}

func (e keyboardTypeEffect) Apply(ctx context.Context, t *tab.Tab) error {
	if err := t.Page().TypeText(ctx, e.text); err != nil {
		return err
	}
	if e.submit {
		return t.Page().PressKey(ctx, "Enter")
	}
	return nil
}

func screenTypeTool() *tool.Tool {
	return tool.Define("browser_screen_type", "Type text", config.CapabilityCore,
		func(ctx context.Context, host tool.Host, params screenTypeParams, _ *tool.Response) (*tool.Outcome, error) {
			if _, err := host.CurrentTab(); err != nil {
				return nil, err
			}
			code := []string{
				fmt.Sprintf("// Type %s", quote(params.Text)),
				fmt.Sprintf("await page.keyboard.type(%s);", quote(params.Text)),
			}
			if params.Submit {
				code = append(code, "// Submit text", `await page.keyboard.press("Enter");`)
			}
			return &tool.Outcome{
				Code:           code,
				Effect:         keyboardTypeEffect{text: params.Text, submit: params.Submit},
				WaitForNetwork: true,
			}, nil
		})
}
