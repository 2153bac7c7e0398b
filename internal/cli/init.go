package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rileyhilliard/serialmon/internal/config"
	"github.com/rileyhilliard/serialmon/internal/errors"
	"github.com/rileyhilliard/serialmon/internal/ui"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Port      string // Pre-specified device path
	Global    bool   // Write the global config instead of ./.serialmon.yaml
	Overwrite bool   // Overwrite an existing file
}

// initCommand writes a default config file.
func initCommand(w io.Writer, opts InitOptions) error {
	path, err := initPath(opts.Global)
	if err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	cfg.Port = opts.Port

	if err := config.WriteDefault(path, cfg, opts.Overwrite); err != nil {
		suggestion := "Check that the directory is writable."
		if _, statErr := os.Stat(path); statErr == nil && !opts.Overwrite {
			suggestion = "Use --force to overwrite it."
		}
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Couldn't write %s", path), suggestion)
	}

	fmt.Fprintf(w, "%s Created %s\n\n", ui.SuccessStyle().Render(ui.SymbolSuccess), path)
	fmt.Fprintln(w, "Next steps:")
	if opts.Port == "" {
		fmt.Fprintln(w, "  serialmon ports use        pick the device to monitor")
	}
	fmt.Fprintln(w, "  serialmon widget add temp  chart a field from the device's JSON lines")
	fmt.Fprintln(w, "  serialmon monitor          open the dashboard")
	return nil
}

func initPath(global bool) (string, error) {
	if !global {
		return filepath.Join(".", config.ConfigFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine home directory",
			"Set $HOME, or run init without --global.")
	}
	return filepath.Join(home, config.GlobalConfigDir, config.GlobalConfigFile), nil
}
