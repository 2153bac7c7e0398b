package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rileyhilliard/serialmon/internal/config"
	"github.com/rileyhilliard/serialmon/internal/errors"
	"github.com/rileyhilliard/serialmon/internal/ui"
)

// portsCommand lists serial ports, marking the configured one.
func portsCommand(w io.Writer, asJSON bool) error {
	cfg, _, err := loadConfig()
	if err != nil {
		if asJSON {
			_ = WriteJSONFromError(w, err)
		}
		return err
	}

	infos, err := listPorts()
	if asJSON {
		if err != nil {
			_ = WriteJSONFromError(w, err)
			return err
		}
		return WriteJSONSuccess(w, infos)
	}
	if err != nil {
		return err
	}

	ui.ConfigureColor(cfg.Output.Color, w)
	if len(infos) == 0 {
		fmt.Fprintln(w, ui.MutedStyle().Render("No serial ports found. Plug in a device and try again."))
		return nil
	}
	fmt.Fprintln(w, ui.RenderPortsTable(infos, cfg.Port))
	return nil
}

// portsUseCommand writes port to the config file. An empty port is picked
// from the connected devices.
func portsUseCommand(ctx context.Context, w io.Writer, port string) error {
	path, err := requireConfigPath()
	if err != nil {
		return err
	}

	if port == "" {
		port, err = pickPort(ctx)
		if err != nil {
			return err
		}
	}

	if err := config.SetPort(path, port); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to save port",
			fmt.Sprintf("Check that %s is writable.", path))
	}
	fmt.Fprintf(w, "%s Saved port %s to %s\n", ui.SuccessStyle().Render(ui.SymbolSuccess), port, path)
	return nil
}
