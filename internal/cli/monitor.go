package cli

import (
	"context"
	stderrors "errors"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/serialmon/internal/dashboard"
	"github.com/rileyhilliard/serialmon/internal/errors"
	"github.com/rileyhilliard/serialmon/internal/logger"
	"github.com/rileyhilliard/serialmon/internal/session"
	"github.com/rileyhilliard/serialmon/internal/ui"
)

// monitorCommand starts the TUI dashboard. A zero interval keeps the
// configured refresh rate.
func monitorCommand(ctx context.Context, interval time.Duration) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if interval > 0 {
		cfg.Monitor.Interval = interval
	}
	ui.ConfigureColor(cfg.Output.Color, os.Stdout)

	// The picker can't run inside the alt screen, so resolve the port first.
	if cfg.Port == "" {
		port, err := pickPort(ctx)
		if err != nil {
			return err
		}
		cfg.Port = port
	}

	// Log lines on stderr would tear the alt screen.
	s := session.New(cfg, transport, session.WithLogger(logger.Noop()))
	defer closeSession(s, logger.Default())

	model := dashboard.NewModel(s, dashboard.Options{
		Version:     formatVersion(version),
		Interval:    cfg.Monitor.Interval,
		AutoConnect: true,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !stderrors.Is(err, tea.ErrProgramKilled) {
		return errors.WrapWithCode(err, errors.ErrExec,
			"Dashboard exited unexpectedly",
			"Check that the terminal supports full-screen programs, or use 'serialmon tail'.")
	}
	return nil
}

// pickPort enumerates ports and asks the user to choose when there is more
// than one.
func pickPort(ctx context.Context) (string, error) {
	infos, err := listPorts()
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	return ui.PickPort(ctx, names, describePorts())
}
