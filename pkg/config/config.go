// Package config defines the explicit configuration passed to a browser
// context and agent at construction time.
package config

import (
	"fmt"
	"os"

	"dario.cat/mergo"
	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// Capability classifies tools so a configuration can choose which ones are
// registered at all.
type Capability string

const (
	CapabilityCore    Capability = "core"    // CapabilityCore covers navigation, snapshot and element interaction.
	CapabilityTabs    Capability = "tabs"    // CapabilityTabs covers tab listing, creation, selection and closing.
	CapabilityPDF     Capability = "pdf"     // CapabilityPDF covers saving the page as PDF.
	CapabilityHistory Capability = "history" // CapabilityHistory covers back and forward navigation.
	CapabilityWait    Capability = "wait"    // CapabilityWait covers timed waits.
	CapabilityFiles   Capability = "files"   // CapabilityFiles covers file uploads.
)

// AllCapabilities lists every capability in declaration order.
var AllCapabilities = []Capability{
	CapabilityCore,
	CapabilityTabs,
	CapabilityPDF,
	CapabilityHistory,
	CapabilityWait,
	CapabilityFiles,
}

// SnapshotMode selects how the textual page snapshot is produced.
type SnapshotMode string

const (
	// SnapshotAria renders the accessibility tree as YAML (default)
	SnapshotAria SnapshotMode = "aria"

	// SnapshotHTML renders cleaned, semantic HTML
	SnapshotHTML SnapshotMode = "html"

	// SnapshotMarkdown renders the page content as Markdown
	SnapshotMarkdown SnapshotMode = "markdown"
)

// Config is the complete configuration of one browser context and its agent.
type Config struct {
	// Capabilities enabled for tool registration
	Capabilities []Capability `yaml:"capabilities" json:"capabilities"`

	// Vision selects coordinate-based screen tools instead of snapshot tools
	Vision bool `yaml:"vision" json:"vision"`

	// CaptureSnapshot controls whether interaction tools recapture the snapshot (default: true)
	CaptureSnapshot *bool `yaml:"capture_snapshot" json:"capture_snapshot"`

	// SnapshotMode selects the snapshot renderer
	SnapshotMode SnapshotMode `yaml:"snapshot_mode" json:"snapshot_mode"`

	Browser BrowserConfig `yaml:"browser" json:"browser"`
	Network NetworkConfig `yaml:"network" json:"network"`
	Files   FilesConfig   `yaml:"files" json:"files"`

	// OutputDir receives PDFs, screenshots and session logs
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// SaveSession writes a markdown session log to OutputDir
	SaveSession bool `yaml:"save_session" json:"save_session"`

	// Model is the model name passed to the provider
	Model string `yaml:"model" json:"model"`

	// SystemPrompt is the first message of every act conversation
	SystemPrompt string `yaml:"system_prompt" json:"system_prompt"`

	// Verbose logs every tool run and extraction result
	Verbose bool `yaml:"verbose" json:"verbose"`

	History HistoryConfig `yaml:"history" json:"history"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// BrowserConfig configures how the driver obtains a browser context.
type BrowserConfig struct {
	// BrowserName is one of chromium, firefox, webkit
	BrowserName string `yaml:"browser_name" json:"browser_name"`

	// Headless runs without a visible window (default: true)
	Headless *bool `yaml:"headless" json:"headless"`

	// CDPEndpoint connects to an existing browser instead of launching one
	CDPEndpoint string `yaml:"cdp_endpoint" json:"cdp_endpoint"`

	// Isolated creates a fresh browser context instead of reusing the default one
	Isolated bool `yaml:"isolated" json:"isolated"`

	Viewport Viewport `yaml:"viewport" json:"viewport"`

	// TimeoutMs is the default operation timeout in milliseconds
	TimeoutMs int `yaml:"timeout_ms" json:"timeout_ms"`
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// NetworkConfig restricts which origins pages may load. Entries are glob
// patterns matched against the origin, e.g. "https://*.example.com".
type NetworkConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
	BlockedOrigins []string `yaml:"blocked_origins" json:"blocked_origins"`
}

// FilesConfig restricts which local files tools may upload.
type FilesConfig struct {
	// UploadRoots lists the directories uploads may come from. Empty admits any path.
	UploadRoots []string `yaml:"upload_roots" json:"upload_roots"`
}

// HistoryConfig tunes how the act conversation is pruned between turns.
type HistoryConfig struct {
	// KeepPreviousToolMessages retains tool messages of earlier turns.
	// When false (default) they are dropped at the start of every turn.
	KeepPreviousToolMessages bool `yaml:"keep_previous_tool_messages" json:"keep_previous_tool_messages"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level" json:"level"`
}

// Default values
const (
	DefaultBrowserName    = "chromium"
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultTimeoutMs      = 30000
	DefaultModel          = "gpt-4o"
	DefaultSystemPrompt   = "You are a helpful assistant that can control a browser."
	DefaultOutputDir      = ".webpilot"
)

// DefaultConfig returns a default configuration suitable for most use cases
func DefaultConfig() *Config {
	return &Config{
		Capabilities:    append([]Capability(nil), AllCapabilities...),
		CaptureSnapshot: boolPtr(true),
		SnapshotMode:    SnapshotAria,
		Browser: BrowserConfig{
			BrowserName: DefaultBrowserName,
			Headless:    boolPtr(true),
			Viewport: Viewport{
				Width:  DefaultViewportWidth,
				Height: DefaultViewportHeight,
			},
			TimeoutMs: DefaultTimeoutMs,
		},
		OutputDir:    DefaultOutputDir,
		Model:        DefaultModel,
		SystemPrompt: DefaultSystemPrompt,
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// Load reads a YAML configuration file and fills every unset field from
// DefaultConfig. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.ApplyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills zero-valued fields from DefaultConfig.
func (c *Config) ApplyDefaults() error {
	if err := mergo.Merge(c, DefaultConfig()); err != nil {
		return fmt.Errorf("failed to apply config defaults: %w", err)
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	for _, capability := range c.Capabilities {
		if !isKnownCapability(capability) {
			return fmt.Errorf("invalid capability: %s (must be one of core, tabs, pdf, history, wait, files)", capability)
		}
	}

	switch c.SnapshotMode {
	case "", SnapshotAria, SnapshotHTML, SnapshotMarkdown:
	default:
		return fmt.Errorf("invalid snapshot_mode: %s (must be 'aria', 'html', or 'markdown')", c.SnapshotMode)
	}

	switch c.Browser.BrowserName {
	case "", "chromium", "firefox", "webkit":
	default:
		return fmt.Errorf("invalid browser_name: %s (must be 'chromium', 'firefox', or 'webkit')", c.Browser.BrowserName)
	}

	if c.Browser.Viewport.Width < 0 || c.Browser.Viewport.Height < 0 {
		return fmt.Errorf("viewport dimensions cannot be negative")
	}

	if c.Browser.TimeoutMs < 0 {
		return fmt.Errorf("timeout_ms cannot be negative")
	}

	for _, pattern := range append(append([]string(nil), c.Network.AllowedOrigins...), c.Network.BlockedOrigins...) {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("invalid origin pattern %q: %w", pattern, err)
		}
	}

	for _, root := range c.Files.UploadRoots {
		if root == "" {
			return fmt.Errorf("upload_roots cannot contain an empty path")
		}
	}

	validLevels := map[string]bool{
		"":      true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be 'debug', 'info', 'warn', or 'error')", c.Logging.Level)
	}

	return nil
}

// HasCapability reports whether capability is enabled.
func (c *Config) HasCapability(capability Capability) bool {
	for _, enabled := range c.Capabilities {
		if enabled == capability {
			return true
		}
	}
	return false
}

// ShouldCaptureSnapshot returns the capture_snapshot setting.
func (c *Config) ShouldCaptureSnapshot() bool {
	return c.CaptureSnapshot == nil || *c.CaptureSnapshot
}

// IsHeadless returns the headless setting.
func (b BrowserConfig) IsHeadless() bool {
	return b.Headless == nil || *b.Headless
}

func isKnownCapability(capability Capability) bool {
	for _, known := range AllCapabilities {
		if known == capability {
			return true
		}
	}
	return false
}

func boolPtr(b bool) *bool {
	return &b
}
