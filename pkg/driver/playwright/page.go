package playwright

import (
	"context"
	"fmt"
	"time"

	htmltomd "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/webpilot/pkg/config"
	"github.com/entrhq/webpilot/pkg/driver"
)

// maxSnapshotLength bounds cleaned HTML snapshots (characters).
const maxSnapshotLength = 50000

// Page adapts a playwright.Page to driver.Page.
type Page struct {
	page playwright.Page
	mode config.SnapshotMode
}

var _ driver.Page = (*Page)(nil)

// timeoutFrom converts the context deadline into a Playwright timeout in
// milliseconds. Nil means the context default applies.
func timeoutFrom(ctx context.Context) *float64 {
	deadline, ok := ctx.Deadline()
	if !ok {
		return nil
	}
	ms := float64(time.Until(deadline).Milliseconds())
	if ms < 1 {
		ms = 1
	}
	return &ms
}

func (p *Page) URL() string {
	return p.page.URL()
}

func (p *Page) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.page.Title()
}

// Goto navigates and waits for the load event.
func (p *Page) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   timeoutFrom(ctx),
	})
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (p *Page) GoBack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.page.GoBack(playwright.PageGoBackOptions{Timeout: timeoutFrom(ctx)}); err != nil {
		return fmt.Errorf("navigate back failed: %w", err)
	}
	return nil
}

func (p *Page) GoForward(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.page.GoForward(playwright.PageGoForwardOptions{Timeout: timeoutFrom(ctx)}); err != nil {
		return fmt.Errorf("navigate forward failed: %w", err)
	}
	return nil
}

// Snapshot renders the page according to the configured snapshot mode.
func (p *Page) Snapshot(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch p.mode {
	case config.SnapshotHTML:
		content, err := p.page.Content()
		if err != nil {
			return "", fmt.Errorf("failed to read page content: %w", err)
		}
		cleaned, err := cleanHTML(content, maxSnapshotLength)
		if err != nil {
			return "", err
		}
		return cleaned.HTML, nil

	case config.SnapshotMarkdown:
		content, err := p.page.Content()
		if err != nil {
			return "", fmt.Errorf("failed to read page content: %w", err)
		}
		markdown, err := htmltomd.ConvertString(content)
		if err != nil {
			return "", fmt.Errorf("failed to convert page to markdown: %w", err)
		}
		return markdown, nil

	default:
		snapshot, err := p.page.Locator("body").AriaSnapshot()
		if err != nil {
			return "", fmt.Errorf("failed to capture accessibility snapshot: %w", err)
		}
		return snapshot, nil
	}
}

func (p *Page) WaitForNetworkIdle(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: timeoutFrom(ctx),
	})
}

func (p *Page) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.page.Locator(selector).Click(playwright.LocatorClickOptions{Timeout: timeoutFrom(ctx)}); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

func (p *Page) Hover(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.page.Locator(selector).Hover(playwright.LocatorHoverOptions{Timeout: timeoutFrom(ctx)}); err != nil {
		return fmt.Errorf("hover failed: %w", err)
	}
	return nil
}

func (p *Page) Fill(ctx context.Context, selector, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.page.Locator(selector).Fill(text, playwright.LocatorFillOptions{Timeout: timeoutFrom(ctx)}); err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}
	return nil
}

func (p *Page) PressSequentially(ctx context.Context, selector, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.page.Locator(selector).PressSequentially(text, playwright.LocatorPressSequentiallyOptions{Timeout: timeoutFrom(ctx)})
	if err != nil {
		return fmt.Errorf("type failed: %w", err)
	}
	return nil
}

func (p *Page) SelectOption(ctx context.Context, selector string, values []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	selected, err := p.page.Locator(selector).SelectOption(
		playwright.SelectOptionValues{Values: &values},
		playwright.LocatorSelectOptionOptions{Timeout: timeoutFrom(ctx)},
	)
	if err != nil {
		return nil, fmt.Errorf("select option failed: %w", err)
	}
	return selected, nil
}

func (p *Page) SetInputFiles(ctx context.Context, selector string, paths []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.page.Locator(selector).SetInputFiles(paths, playwright.LocatorSetInputFilesOptions{Timeout: timeoutFrom(ctx)})
	if err != nil {
		return fmt.Errorf("file upload failed: %w", err)
	}
	return nil
}

func (p *Page) PressKey(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.page.Keyboard().Press(key)
}

func (p *Page) MouseMove(ctx context.Context, x, y float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.page.Mouse().Move(x, y)
}

func (p *Page) MouseClick(ctx context.Context, x, y float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.page.Mouse().Click(x, y)
}

func (p *Page) MouseDrag(ctx context.Context, startX, startY, endX, endY float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mouse := p.page.Mouse()
	if err := mouse.Move(startX, startY); err != nil {
		return err
	}
	if err := mouse.Down(); err != nil {
		return err
	}
	if err := mouse.Move(endX, endY); err != nil {
		return err
	}
	return mouse.Up()
}

func (p *Page) TypeText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.page.Keyboard().Type(text)
}

func (p *Page) Screenshot(ctx context.Context, opts driver.ScreenshotOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	imageType := playwright.ScreenshotTypePng
	var quality *int
	if opts.JPEG {
		imageType = playwright.ScreenshotTypeJpeg
		if opts.Quality > 0 {
			quality = playwright.Int(opts.Quality)
		}
	}

	if opts.Selector != "" {
		return p.page.Locator(opts.Selector).Screenshot(playwright.LocatorScreenshotOptions{
			Type:    imageType,
			Quality: quality,
			Timeout: timeoutFrom(ctx),
		})
	}
	return p.page.Screenshot(playwright.PageScreenshotOptions{
		Type:    imageType,
		Quality: quality,
		Timeout: timeoutFrom(ctx),
	})
}

func (p *Page) PDF(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.page.PDF(playwright.PagePdfOptions{Path: playwright.String(path)}); err != nil {
		return fmt.Errorf("failed to save pdf: %w", err)
	}
	return nil
}

func (p *Page) SetViewportSize(ctx context.Context, width, height int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.page.SetViewportSize(width, height)
}

func (p *Page) Close() error {
	return p.page.Close()
}
