package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level buildflow service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Browser   BrowserConfig   `yaml:"browser"`
	Preview   PreviewConfig   `yaml:"preview"`
	Auth      AuthConfig      `yaml:"auth"`
	Trace     TraceConfig     `yaml:"trace"`
	Retention RetentionConfig `yaml:"retention"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
}

// DBConfig holds database file paths.
type DBConfig struct {
	DesignsPath string `yaml:"designs_path"`
	TracePath   string `yaml:"trace_path"`
}

// BrowserConfig controls the Chrome lifecycle. Disabled means no live
// preview, no PDF/image export, and HTTP-only web import.
type BrowserConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Remote          string        `yaml:"remote"`
	MemoryLimit     int64         `yaml:"memory_limit"`
	RecycleInterval time.Duration `yaml:"recycle_interval"`
}

// PreviewConfig tunes the live preview.
type PreviewConfig struct {
	DebounceWindow time.Duration `yaml:"debounce_window"`
}

// AuthConfig controls API-key enforcement.
type AuthConfig struct {
	Disabled bool `yaml:"disabled"`
}

// TraceConfig controls transparent SQL tracing.
type TraceConfig struct {
	Enabled bool `yaml:"enabled"`
}

// RetentionConfig controls observability data cleanup.
type RetentionConfig struct {
	EventLogsDays int `yaml:"event_logs_days"`
	MetricsDays   int `yaml:"metrics_days"`
}

// LoadConfigFile reads a YAML configuration file and applies defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8090"
	}
	if c.Server.ReadHeaderTimeout <= 0 {
		c.Server.ReadHeaderTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.IdleTimeout <= 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.DB.DesignsPath == "" {
		c.DB.DesignsPath = "db/designs.db"
	}
	if c.DB.TracePath == "" {
		c.DB.TracePath = "db/traces.db"
	}
	if c.Browser.MemoryLimit <= 0 {
		c.Browser.MemoryLimit = 1 << 30
	}
	if c.Browser.RecycleInterval <= 0 {
		c.Browser.RecycleInterval = 4 * time.Hour
	}
	if c.Preview.DebounceWindow <= 0 {
		c.Preview.DebounceWindow = 100 * time.Millisecond
	}
	if c.Retention.EventLogsDays <= 0 {
		c.Retention.EventLogsDays = 30
	}
	if c.Retention.MetricsDays <= 0 {
		c.Retention.MetricsDays = 7
	}
	// Environment overrides for container deployments.
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Addr = ":" + v
	}
	if v := os.Getenv("DESIGNS_DB"); v != "" {
		c.DB.DesignsPath = v
	}
	if v := os.Getenv("BROWSER_REMOTE"); v != "" {
		c.Browser.Remote = v
		c.Browser.Enabled = true
	}
}
