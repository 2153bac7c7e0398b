package cli

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/rileyhilliard/serialmon/internal/config"
	"github.com/rileyhilliard/serialmon/internal/errors"
	"github.com/rileyhilliard/serialmon/internal/logger"
	"github.com/rileyhilliard/serialmon/internal/metrics"
	"github.com/rileyhilliard/serialmon/internal/server"
	"github.com/rileyhilliard/serialmon/internal/session"
	"github.com/rileyhilliard/serialmon/internal/ui"
)

// shutdownTimeout bounds graceful HTTP shutdown and the final disconnect.
const shutdownTimeout = 5 * time.Second

type serveOptions struct {
	// Addr overrides server.addr when set.
	Addr string
	// Connect opens the device before serving.
	Connect bool
}

// serveCommand listens on the configured address and serves until ctx is
// cancelled.
func serveCommand(ctx context.Context, w io.Writer, opts serveOptions) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}
	ui.ConfigureColor(cfg.Output.Color, w)

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrServe,
			fmt.Sprintf("Failed to listen on %s", cfg.Server.Addr),
			"Pick another address with --addr or server.addr in your config.")
	}
	return serve(ctx, w, cfg, ln, opts.Connect)
}

// serve runs the HTTP server on ln. It owns ln and the session it builds.
func serve(ctx context.Context, w io.Writer, cfg *config.Config, ln net.Listener, connect bool) error {
	log := logger.Default()
	reg := metrics.NewRegistry()
	s := session.New(cfg, transport, session.WithLogger(log), session.WithRegistry(reg))

	var requestLog io.Writer
	if verbose {
		requestLog = os.Stderr
	}
	srv := server.New(server.Dependencies{
		Session:    s,
		Gatherer:   reg,
		Logger:     log,
		RequestLog: requestLog,
	})

	fmt.Fprintf(w, "%s Serving on http://%s\n", ui.SuccessStyle().Render(ui.SymbolLive), ln.Addr())
	if connect {
		if err := s.Connect(ctx); err != nil {
			// Not fatal: clients can retry with POST /api/connect.
			fmt.Fprintf(w, "%s %s\n", ui.WarningStyle().Render(ui.SymbolWarning), errors.Summarize(err))
		}
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		closeSession(s, log)
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown: %v", err)
	}
	if err := s.Close(shutdownCtx); err != nil {
		log.Warn("closing session: %s", errors.Summarize(err))
	}
	return <-errCh
}
