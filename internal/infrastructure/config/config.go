package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all bridge configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Sandbox   SandboxConfig   `yaml:"sandbox" toml:"sandbox"`
	Height    HeightConfig    `yaml:"height" toml:"height"`
	Tools     ToolsConfig     `yaml:"tools" toml:"tools"`
	Logging   LogConfig       `yaml:"logging" toml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port      string `envconfig:"PORT" default:"8090" yaml:"port" toml:"port"`
	Host      string `envconfig:"HOST" default:"0.0.0.0" yaml:"host" toml:"host"`
	PublicURL string `envconfig:"PUBLIC_URL" default:"" yaml:"public_url" toml:"public_url"`
}

// SandboxConfig holds sandbox host configuration.
type SandboxConfig struct {
	MaxDocumentBytes int  `envconfig:"SANDBOX_MAX_DOC_BYTES" default:"10485760" yaml:"max_document_bytes" toml:"max_document_bytes"`
	PreflightURIList bool `envconfig:"SANDBOX_PREFLIGHT_URILIST" default:"false" yaml:"preflight_urilist" toml:"preflight_urilist"`
}

// HeightConfig holds height negotiation configuration.
type HeightConfig struct {
	FrameIntervalMS int `envconfig:"HEIGHT_FRAME_MS" default:"16" yaml:"frame_interval_ms" toml:"frame_interval_ms"`
	QueueSize       int `envconfig:"HEIGHT_QUEUE_SIZE" default:"64" yaml:"queue_size" toml:"queue_size"`
}

// FrameInterval returns the coalescing window as a duration.
func (h HeightConfig) FrameInterval() time.Duration {
	return time.Duration(h.FrameIntervalMS) * time.Millisecond
}

// ToolsConfig holds outbound tool executor configuration.
// An empty endpoint routes tool calls back through the connected client.
type ToolsConfig struct {
	Endpoint          string `envconfig:"TOOLS_ENDPOINT" default:"" yaml:"endpoint" toml:"endpoint"`
	TimeoutSeconds    int    `envconfig:"TOOLS_TIMEOUT_SECONDS" default:"30" yaml:"timeout_seconds" toml:"timeout_seconds"`
	RetryMax          int    `envconfig:"TOOLS_RETRY_MAX" default:"3" yaml:"retry_max" toml:"retry_max"`
	RequestsPerSecond int    `envconfig:"TOOLS_RPS" default:"10" yaml:"requests_per_second" toml:"requests_per_second"`
}

// Timeout returns the tool call timeout as a duration.
func (t ToolsConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" yaml:"burst" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled" toml:"enabled"`
}

// Load loads configuration from environment variables, overlaying an
// optional config file named by CONFIG_FILE.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := overlayFromEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8090",
			Host: "0.0.0.0",
		},
		Sandbox: SandboxConfig{
			MaxDocumentBytes: 10 * 1024 * 1024,
			PreflightURIList: false,
		},
		Height: HeightConfig{
			FrameIntervalMS: 16,
			QueueSize:       64,
		},
		Tools: ToolsConfig{
			TimeoutSeconds:    30,
			RetryMax:          3,
			RequestsPerSecond: 10,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
