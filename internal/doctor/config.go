package doctor

import (
	"fmt"
	"path/filepath"

	"github.com/rileyhilliard/serialmon/internal/config"
)

// ConfigFileCheck verifies that a config file exists. Without one serialmon
// still runs on defaults, so a missing file is only a warning.
type ConfigFileCheck struct {
	ConfigPath string // Explicit path, or empty to search
	InitPath   string // Where Fix writes a default config
}

func (c *ConfigFileCheck) Name() string     { return "config_file" }
func (c *ConfigFileCheck) Category() string { return "CONFIG" }

func (c *ConfigFileCheck) Run() CheckResult {
	path, err := config.Find(c.ConfigPath)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Error finding config: %v", err),
			Suggestion: "Check the --config path or run 'serialmon init'",
		}
	}

	if path == "" {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "No config file found, using defaults",
			Suggestion: "Run 'serialmon init' to create a .serialmon.yaml config file",
			Fixable:    c.InitPath != "",
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Config file: %s", filepath.Base(path)),
	}
}

// Fix writes a default config to InitPath.
func (c *ConfigFileCheck) Fix() error {
	if c.InitPath == "" {
		return nil
	}
	return config.WriteDefault(c.InitPath, config.DefaultConfig(), false)
}

// ConfigSchemaCheck loads and validates the config file.
type ConfigSchemaCheck struct {
	ConfigPath string
}

func (c *ConfigSchemaCheck) Name() string     { return "config_schema" }
func (c *ConfigSchemaCheck) Category() string { return "CONFIG" }

func (c *ConfigSchemaCheck) Run() CheckResult {
	path, err := config.Find(c.ConfigPath)
	if err != nil || path == "" {
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusPass,
			Message: "Defaults are valid",
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Failed to load config: %v", err),
			Suggestion: "Check the YAML syntax in your config file",
		}
	}

	if err := config.Validate(cfg); err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Schema error: %v", err),
			Suggestion: "Fix the configuration errors in " + filepath.Base(path),
		}
	}

	n := len(cfg.Widgets)
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Schema valid, %d widget%s configured", n, Pluralize(n)),
	}
}

func (c *ConfigSchemaCheck) Fix() error {
	return nil // Schema issues require manual intervention
}

// NewConfigChecks creates all config-related checks.
func NewConfigChecks(configPath, initPath string) []Check {
	return []Check{
		&ConfigFileCheck{ConfigPath: configPath, InitPath: initPath},
		&ConfigSchemaCheck{ConfigPath: configPath},
	}
}
