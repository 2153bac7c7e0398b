package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/rileyhilliard/serialmon/internal/errors"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".serialmon.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/serialmon"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. SERIALMON_PORT.
	EnvPrefix = "SERIALMON"
)

// Load reads config from the specified path.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'serialmon init' to create a config file, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .serialmon.yaml in current directory
// 3. .serialmon.yaml in parent directories (stops at git root or home)
// 4. ~/.config/serialmon/config.yaml (global defaults)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		explicit = ExpandTilde(explicit)
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	home, _ := os.UserHomeDir()
	dir := cwd
	for !isGitRoot(dir) {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		if home != "" && parent == home {
			// Don't go above home directory
			break
		}
		dir = parent

		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
	}

	if home != "" {
		globalConfig := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// LoadOrDefault loads config from the found path, or returns defaults (with
// environment overrides applied) if no file exists.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}

	if path == "" {
		cfg, err := parseConfig(newViper(), "")
		return cfg, "", err
	}

	cfg, err := Load(path)
	return cfg, path, err
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults registers every key so AutomaticEnv can override it even when
// the file omits it.
func setDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("version", def.Version)
	v.SetDefault("port", def.Port)
	v.SetDefault("read_timeout", def.ReadTimeout)
	v.SetDefault("monitor.interval", def.Monitor.Interval)
	v.SetDefault("server.addr", def.Server.Addr)
	v.SetDefault("output.color", def.Output.Color)
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		hint := "Check the YAML syntax"
		if path != "" {
			hint += " in " + path
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig, "Invalid config format", hint)
	}

	cfg.Port = ExpandTilde(os.ExpandEnv(cfg.Port))
	return cfg, nil
}

// ExpandTilde replaces ~ or ~/path with the user's home directory.
// Does not support ~username syntax - just ~ for the current user.
func ExpandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// isGitRoot checks if a directory is a git repository root.
func isGitRoot(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}
