package config

import (
	"time"

	"github.com/rileyhilliard/serialmon/internal/widget"
)

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete .serialmon.yaml configuration file.
type Config struct {
	Version int `yaml:"version" mapstructure:"version"`

	// Port is the serial device path. Empty means enumerate at connect time.
	Port string `yaml:"port" mapstructure:"port"`

	// ReadTimeout is how long a single transport read may block before the
	// reader checks for cancellation.
	ReadTimeout time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`

	Monitor MonitorConfig `yaml:"monitor" mapstructure:"monitor"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`

	// Widgets are charted at startup.
	Widgets []widget.Spec `yaml:"widgets" mapstructure:"widgets"`
}

// MonitorConfig controls the terminal dashboard.
type MonitorConfig struct {
	// Interval is the dashboard refresh rate.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	// Addr is the listen address, host:port.
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// OutputConfig controls terminal output formatting.
type OutputConfig struct {
	// Color mode: "auto", "always", or "never".
	// "auto" disables color when output is piped.
	Color string `yaml:"color" mapstructure:"color"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:     CurrentConfigVersion,
		ReadTimeout: 100 * time.Millisecond,
		Monitor: MonitorConfig{
			Interval: 250 * time.Millisecond,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8765",
		},
		Output: OutputConfig{
			Color: "auto",
		},
		Widgets: []widget.Spec{},
	}
}
