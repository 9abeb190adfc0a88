package browser

import (
	"strconv"

	"github.com/entrhq/webpilot/pkg/config"
	"github.com/entrhq/webpilot/pkg/tool"
)

// Options selects which tools are built and how they behave.
type Options struct {
	// CaptureSnapshot makes interaction tools recapture the page snapshot
	CaptureSnapshot bool

	// Vision selects the coordinate-based tool set
	Vision bool

	// Capabilities enabled for registration; empty enables all
	Capabilities []config.Capability
}

// OptionsFromConfig derives tool options from the context configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		CaptureSnapshot: cfg.ShouldCaptureSnapshot(),
		Vision:          cfg.Vision,
		Capabilities:    cfg.Capabilities,
	}
}

// Tools returns every tool of the selected mode, before capability filtering.
func Tools(opts Options) []*tool.Tool {
	capture := opts.CaptureSnapshot

	if opts.Vision {
		return []*tool.Tool{
			navigateTool(false),
			navigateBackTool(false),
			navigateForwardTool(false),
			fileUploadTool(false),
			screenCaptureTool(),
			screenMoveMouseTool(),
			screenClickTool(),
			screenDragTool(),
			screenTypeTool(),
			pressKeyTool(false),
			waitTool(false),
			resizeTool(false),
			pdfSaveTool(),
			closeTool(),
			tabListTool(),
			tabNewTool(false),
			tabSelectTool(false),
			tabCloseTool(),
		}
	}

	return []*tool.Tool{
		navigateTool(capture),
		navigateBackTool(capture),
		navigateForwardTool(capture),
		fileUploadTool(capture),
		snapshotTool(),
		clickTool(capture),
		hoverTool(capture),
		typeTool(capture),
		selectOptionTool(capture),
		takeScreenshotTool(),
		pressKeyTool(capture),
		waitTool(capture),
		resizeTool(capture),
		pdfSaveTool(),
		closeTool(),
		tabListTool(),
		tabNewTool(capture),
		tabSelectTool(capture),
		tabCloseTool(),
	}
}

// Filter keeps the tools whose capability is enabled. An empty capability
// list enables everything.
func Filter(tools []*tool.Tool, capabilities []config.Capability) []*tool.Tool {
	if len(capabilities) == 0 {
		return tools
	}

	enabled := make(map[config.Capability]bool, len(capabilities))
	for _, c := range capabilities {
		enabled[c] = true
	}

	filtered := make([]*tool.Tool, 0, len(tools))
	for _, t := range tools {
		if enabled[t.Capability()] {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// NewRegistry builds the registry for opts.
func NewRegistry(opts Options) (*tool.Registry, error) {
	return tool.NewRegistry(Filter(Tools(opts), opts.Capabilities)...)
}

// quote renders s as a string literal for the action log.
func quote(s string) string {
	return strconv.Quote(s)
}

func minimum(v float64) *float64 {
	return &v
}
