package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "8090", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Empty(t, cfg.Server.PublicURL)

	// Sandbox config
	assert.Equal(t, 10*1024*1024, cfg.Sandbox.MaxDocumentBytes)
	assert.False(t, cfg.Sandbox.PreflightURIList)

	// Height config
	assert.Equal(t, 16, cfg.Height.FrameIntervalMS)
	assert.Equal(t, 64, cfg.Height.QueueSize)

	// Tools config
	assert.Empty(t, cfg.Tools.Endpoint)
	assert.Equal(t, 30, cfg.Tools.TimeoutSeconds)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadOrDefault(t *testing.T) {
	// Should return default when no env vars set
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "8090", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":               "9000",
		"HOST":               "127.0.0.1",
		"PUBLIC_URL":         "https://bridge.example.com",
		"HEIGHT_FRAME_MS":    "32",
		"TOOLS_ENDPOINT":     "http://tools:3100/mcp",
		"LOG_LEVEL":          "debug",
		"LOG_DEV":            "true",
		"RATE_LIMIT_RPS":     "500",
		"RATE_LIMIT_BURST":   "1000",
		"RATE_LIMIT_ENABLED": "false",
	}

	for key, value := range envVars {
		err := os.Setenv(key, value)
		require.NoError(t, err)
		defer os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "https://bridge.example.com", cfg.Server.PublicURL)
	assert.Equal(t, 32, cfg.Height.FrameIntervalMS)
	assert.Equal(t, 32*time.Millisecond, cfg.Height.FrameInterval())
	assert.Equal(t, "http://tools:3100/mcp", cfg.Tools.Endpoint)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestFromFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "easel.yaml")
	body := []byte(`server:
  port: "9100"
height:
  frame_interval_ms: 24
tools:
  endpoint: http://tools:3100/mcp
`)
	require.NoError(t, os.WriteFile(path, body, 0o644))

	cfg := Default()
	require.NoError(t, FromFile(cfg, path))

	// File values applied
	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, 24, cfg.Height.FrameIntervalMS)
	assert.Equal(t, "http://tools:3100/mcp", cfg.Tools.Endpoint)

	// Untouched values keep defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 64, cfg.Height.QueueSize)
}

func TestFromFileTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "easel.toml")
	body := []byte(`[server]
port = "9200"

[rate_limit]
enabled = false
`)
	require.NoError(t, os.WriteFile(path, body, 0o644))

	cfg := Default()
	require.NoError(t, FromFile(cfg, path))

	assert.Equal(t, "9200", cfg.Server.Port)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
}

func TestFromFileUnsupported(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "easel.ini")
	require.NoError(t, os.WriteFile(path, []byte("port=1"), 0o644))

	cfg := Default()
	err := FromFile(cfg, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config format")
}

func TestFromFileMissing(t *testing.T) {
	cfg := Default()
	err := FromFile(cfg, filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
