package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/entrhq/webpilot/pkg/config"
	"github.com/entrhq/webpilot/pkg/tab"
	"github.com/entrhq/webpilot/pkg/tool"
)

type typeParams struct {
	Element  string `json:"element" jsonschema:"Human-readable element description used to obtain permission to interact with the element"`
	Selector string `json:"selector" jsonschema:"Exact target element selector from the page snapshot"`
	Text     string `json:"text" jsonschema:"Text to type into the element"`
	Submit   bool   `json:"submit,omitempty" jsonschema:"Whether to submit entered text (press Enter after)"`
	Slowly   bool   `json:"slowly,omitempty" jsonschema:"Whether to type one character at a time. Useful for triggering key handlers in the page. By default entire text is filled in at once."`
}

type typeEffect struct {
	selector string
	text     string
	submit   bool
	slowly   bool
}

func (e typeEffect) Apply(ctx context.Context, t *tab.Tab) error {
	page := t.Page()
	if e.slowly {
		if err := page.PressSequentially(ctx, e.selector, e.text); err != nil {
			return err
		}
	} else if err := page.Fill(ctx, e.selector, e.text); err != nil {
		return err
	}
	if e.submit {
		return page.PressKey(ctx, "Enter")
	}
	return nil
}

func typeTool(capture bool) *tool.Tool {
	return tool.Define("browser_type", "Type text into editable element", config.CapabilityCore,
		func(ctx context.Context, host tool.Host, params typeParams, _ *tool.Response) (*tool.Outcome, error) {
			if _, err := host.CurrentTab(); err != nil {
				return nil, err
			}

			code := []string{fmt.Sprintf("// Type %s into %s", quote(params.Text), params.Element)}
			if params.Slowly {
				code = append(code, fmt.Sprintf("await %s.pressSequentially(%s);", locator(params.Selector), quote(params.Text)))
			} else {
				code = append(code, fmt.Sprintf("await %s.fill(%s);", locator(params.Selector), quote(params.Text)))
			}
			if params.Submit {
				code = append(code, "// Submit text", `await page.keyboard.press("Enter");`)
			}

			return &tool.Outcome{
				Code: code,
				Effect: typeEffect{
					selector: params.Selector,
					text:     params.Text,
					submit:   params.Submit,
					slowly:   params.Slowly,
				},
				CaptureSnapshot: capture,
				WaitForNetwork:  true,
			}, nil
		})
}

type selectOptionParams struct {
	Element  string   `json:"element" jsonschema:"Human-readable element description used to obtain permission to interact with the element"`
	Selector string   `json:"selector" jsonschema:"Exact target element selector from the page snapshot"`
	Values   []string `json:"values" jsonschema:"Array of values to select in the dropdown. This can be a single value or multiple values."`
}

type selectOptionEffect struct {
	selector string
	values   []string
}

func (e selectOptionEffect) Apply(ctx context.Context, t *tab.Tab) error {
	_, err := t.Page().SelectOption(ctx, e.selector, e.values)
	return err
}

func selectOptionTool(capture bool) *tool.Tool {
	return tool.Define("browser_select_option", "Select an option in a dropdown", config.CapabilityCore,
		func(ctx context.Context, host tool.Host, params selectOptionParams, _ *tool.Response) (*tool.Outcome, error) {
			if _, err := host.CurrentTab(); err != nil {
				return nil, err
			}
			if len(params.Values) == 0 {
				return nil, fmt.Errorf("at least one value is required")
			}

			values := make([]string, len(params.Values))
			for i, v := range params.Values {
				values[i] = quote(v)
			}

			return &tool.Outcome{
				Code: []string{
					fmt.Sprintf("// Select options [%s] in %s", strings.Join(values, ", "), params.Element),
					fmt.Sprintf("await %s.selectOption([%s]);", locator(params.Selector), strings.Join(values, ", ")),
				},
				Effect:          selectOptionEffect{selector: params.Selector, values: params.Values},
				CaptureSnapshot: capture,
				WaitForNetwork:  true,
			}, nil
		})
}
