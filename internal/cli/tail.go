package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rileyhilliard/serialmon/internal/errors"
	"github.com/rileyhilliard/serialmon/internal/logger"
	"github.com/rileyhilliard/serialmon/internal/session"
	"github.com/rileyhilliard/serialmon/internal/store"
	"github.com/rileyhilliard/serialmon/internal/ui"
)

type tailOptions struct {
	// Timestamps prefixes each line with its receive time.
	Timestamps bool
}

// tailCommand connects and copies received lines to w, oldest first, until
// ctx is cancelled or the connection ends. A connection lost to a read
// error is reported as an error; a clean end of stream is not.
func tailCommand(ctx context.Context, w io.Writer, opts tailOptions) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	ui.ConfigureColor(cfg.Output.Color, w)

	log := logger.Default()
	sessionOpts := []session.Option{session.WithLogger(log)}
	if ui.IsTerminal(os.Stdin) {
		sessionOpts = append(sessionOpts, session.WithSelector(ui.PortPicker(describePorts())))
	}
	s := session.New(cfg, transport, sessionOpts...)
	defer closeSession(s, log)

	changes, unsub := s.Subscribe()
	defer unsub()

	if err := s.Connect(ctx); err != nil {
		return err
	}
	done := s.Manager().Done()

	var cursor uint64
	flush := func() {
		var entries []store.LogEntry
		entries, cursor = s.Store().LogsSince(cursor)
		for _, e := range entries {
			writeTailLine(w, e, opts)
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return nil
		case _, ok := <-changes:
			flush()
			if !ok {
				return nil
			}
		case <-done:
			flush()
			if msg := s.Status().Error; msg != "" {
				return errors.New(errors.ErrRead, msg,
					"The device stopped responding. Check the cable and run: serialmon ports")
			}
			return nil
		}
	}
}

func writeTailLine(w io.Writer, e store.LogEntry, opts tailOptions) {
	text := e.Text
	if e.Structured() {
		text = ui.StructuredLineStyle().Render(text)
	}
	if opts.Timestamps {
		text = ui.MutedStyle().Render(e.Time) + "  " + text
	}
	fmt.Fprintln(w, text)
}
