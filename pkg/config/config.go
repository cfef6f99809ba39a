// Package config provides configuration loading and defaults for the
// podman MCP server. Configuration is a JSON file; every field has a
// working default so the server runs with no config at all.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/prometheus/common/model"

	"github.com/rimaleon/podman-mcp/pkg/podman"
)

// JournalConfig controls the SQLite operation journal.
type JournalConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// MetricsConfig controls the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

// Config is the server configuration.
type Config struct {
	// EngineBinary overrides the located podman binary. Empty means locate
	// at startup.
	EngineBinary string `json:"engine_binary,omitempty"`

	// ComposeBinary overrides the located podman-compose binary.
	ComposeBinary string `json:"compose_binary,omitempty"`

	// CommandTimeout bounds each podman or podman-compose invocation.
	// Human-readable in JSON, e.g. "200s" or "5m".
	CommandTimeout model.Duration `json:"command_timeout"`

	// Tools is the allow-list of exposed tools. Empty means all tools.
	Tools []string `json:"tools,omitempty"`

	Journal JournalConfig `json:"journal"`
	Metrics MetricsConfig `json:"metrics"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		CommandTimeout: model.Duration(podman.DefaultCommandTimeout),
		Journal: JournalConfig{
			Enabled: true,
			Path:    "podman-mcp.db",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9090",
		},
	}
}

// Load reads a JSON config file over the defaults. Fields absent from the
// file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("command_timeout must be positive, got %s", c.CommandTimeout)
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return fmt.Errorf("journal.path is required when the journal is enabled")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics are enabled")
	}
	return nil
}
