package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, AllCapabilities, cfg.Capabilities)
	assert.True(t, cfg.ShouldCaptureSnapshot())
	assert.True(t, cfg.Browser.IsHeadless())
	assert.Equal(t, SnapshotAria, cfg.SnapshotMode)
	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Equal(t, DefaultSystemPrompt, cfg.SystemPrompt)
	assert.Equal(t, DefaultViewportWidth, cfg.Browser.Viewport.Width)
	assert.False(t, cfg.History.KeepPreviousToolMessages)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webpilot.yaml")
	content := `
capabilities: [core, tabs]
capture_snapshot: false
snapshot_mode: markdown
model: llama-3.3-70b
browser:
  headless: false
  cdp_endpoint: ws://localhost:9222
  viewport:
    width: 800
network:
  blocked_origins:
    - "https://*.ads.example"
files:
  upload_roots: [/srv/uploads]
history:
  keep_previous_tool_messages: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []Capability{CapabilityCore, CapabilityTabs}, cfg.Capabilities)
	assert.False(t, cfg.ShouldCaptureSnapshot())
	assert.False(t, cfg.Browser.IsHeadless())
	assert.Equal(t, SnapshotMarkdown, cfg.SnapshotMode)
	assert.Equal(t, "llama-3.3-70b", cfg.Model)
	assert.Equal(t, "ws://localhost:9222", cfg.Browser.CDPEndpoint)
	assert.Equal(t, 800, cfg.Browser.Viewport.Width)
	assert.Equal(t, DefaultViewportHeight, cfg.Browser.Viewport.Height)
	assert.Equal(t, DefaultSystemPrompt, cfg.SystemPrompt)
	assert.True(t, cfg.History.KeepPreviousToolMessages)
	assert.Equal(t, []string{"/srv/uploads"}, cfg.Files.UploadRoots)
	assert.True(t, cfg.HasCapability(CapabilityTabs))
	assert.False(t, cfg.HasCapability(CapabilityPDF))
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("capabilities: [core"), 0600))
		_, err := Load(path)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:        "unknown capability",
			mutate:      func(c *Config) { c.Capabilities = []Capability{"vision"} },
			expectError: "invalid capability",
		},
		{
			name:        "unknown snapshot mode",
			mutate:      func(c *Config) { c.SnapshotMode = "pixels" },
			expectError: "invalid snapshot_mode",
		},
		{
			name:        "unknown browser",
			mutate:      func(c *Config) { c.Browser.BrowserName = "netscape" },
			expectError: "invalid browser_name",
		},
		{
			name:        "negative viewport",
			mutate:      func(c *Config) { c.Browser.Viewport.Width = -1 },
			expectError: "viewport dimensions cannot be negative",
		},
		{
			name:        "negative timeout",
			mutate:      func(c *Config) { c.Browser.TimeoutMs = -5 },
			expectError: "timeout_ms cannot be negative",
		},
		{
			name:        "bad glob",
			mutate:      func(c *Config) { c.Network.AllowedOrigins = []string{"https://[a"} },
			expectError: "invalid origin pattern",
		},
		{
			name:        "empty upload root",
			mutate:      func(c *Config) { c.Files.UploadRoots = []string{""} },
			expectError: "upload_roots cannot contain an empty path",
		},
		{
			name:        "bad log level",
			mutate:      func(c *Config) { c.Logging.Level = "chatty" },
			expectError: "invalid logging level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.expectError == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}
