package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/rileyhilliard/serialmon/internal/config"
	"github.com/rileyhilliard/serialmon/internal/errors"
	"github.com/rileyhilliard/serialmon/internal/ui"
	"github.com/rileyhilliard/serialmon/internal/widget"
)

// widgetAddCommand appends spec to the config file's widgets list.
func widgetAddCommand(w io.Writer, spec widget.Spec) error {
	if err := spec.Validate(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid widget",
			"Use --type line or --type bar with a field name from the device's JSON lines.")
	}

	path, err := requireConfigPath()
	if err != nil {
		return err
	}
	if err := config.AddWidget(path, spec); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to save widget",
			fmt.Sprintf("Check that %s is writable and valid YAML.", path))
	}

	fmt.Fprintf(w, "%s Added %s widget for %q to %s\n",
		ui.SuccessStyle().Render(ui.SymbolSuccess), spec.Type, spec.DataKey, path)
	return nil
}

// widgetListCommand prints the widgets seeded at startup.
func widgetListCommand(w io.Writer) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	ui.ConfigureColor(cfg.Output.Color, w)

	if len(cfg.Widgets) == 0 {
		fmt.Fprintln(w, ui.MutedStyle().Render("No widgets configured. Add one with: serialmon widget add <data-key>"))
		return nil
	}

	columns := []ui.TableColumn{
		{Title: "Type", Width: 6},
		{Title: "Data key", Width: 20},
		{Title: "Title", Width: 24},
	}
	rows := make([][]string, 0, len(cfg.Widgets))
	for _, spec := range cfg.Widgets {
		title := spec.Title
		if title == "" {
			title = strings.ToUpper(spec.DataKey)
		}
		rows = append(rows, []string{string(spec.Type), spec.DataKey, title})
	}
	fmt.Fprintln(w, ui.RenderSimpleTable(columns, rows))
	return nil
}
