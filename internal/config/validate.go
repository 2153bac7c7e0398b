package config

import (
	"fmt"
	"net"
	"time"

	"github.com/rileyhilliard/serialmon/internal/errors"
)

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but serialmon only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Grab the latest serialmon release.")
	}

	if err := validateDuration("read_timeout", cfg.ReadTimeout); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check 'read_timeout' in your .serialmon.yaml.")
	}

	if err := validateDuration("monitor.interval", cfg.Monitor.Interval); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'monitor' section in your .serialmon.yaml.")
	}

	if err := validateServer(cfg.Server); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'server' section in your .serialmon.yaml.")
	}

	if err := validateOutput(cfg.Output); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'output' section in your .serialmon.yaml.")
	}

	for i, spec := range cfg.Widgets {
		if err := spec.Validate(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("widgets[%d]: %v", i, err),
				"Each widget needs a type (line or bar) and a data_key.")
		}
	}

	return nil
}

func validateDuration(name string, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %v", name, d)
	}
	return nil
}

// validateServer checks the listen address parses as host:port.
func validateServer(s ServerConfig) error {
	if s.Addr == "" {
		return fmt.Errorf("server.addr is empty - use something like '127.0.0.1:8765'")
	}
	if _, _, err := net.SplitHostPort(s.Addr); err != nil {
		return fmt.Errorf("server.addr '%s' isn't a host:port address", s.Addr)
	}
	return nil
}

// validateOutput checks output configuration.
func validateOutput(out OutputConfig) error {
	validColors := map[string]bool{"auto": true, "always": true, "never": true, "": true}
	if !validColors[out.Color] {
		return fmt.Errorf("output.color '%s' isn't valid - use 'auto', 'always', or 'never'", out.Color)
	}
	return nil
}
