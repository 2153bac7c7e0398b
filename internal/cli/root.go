package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/serialmon/internal/config"
	"github.com/rileyhilliard/serialmon/internal/errors"
	"github.com/rileyhilliard/serialmon/internal/logger"
	"github.com/rileyhilliard/serialmon/internal/serialport"
	"github.com/rileyhilliard/serialmon/internal/session"
	"github.com/rileyhilliard/serialmon/internal/ui"
)

// Global flags
var (
	cfgFile  string
	portFlag string
	verbose  bool
	noColor  bool
)

// transport opens serial devices for every command.
var transport serialport.Transport = serialport.Serial{}

var rootCmd = &cobra.Command{
	Use:   "serialmon",
	Short: "Stream, parse and chart a serial device",
	Long: `serialmon reads a serial device at 115200 baud, splits the stream into
lines, and turns lines holding a flat JSON object into sensor records.

The most recent 50 lines and 100 records are kept in memory and shown in a
terminal dashboard, streamed to stdout, or served over HTTP.

Examples:
  serialmon monitor
  serialmon tail --port /dev/ttyUSB0
  serialmon serve --addr :8765`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			os.Setenv(logger.DebugEnv, "1")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .serialmon.yaml, then ~/.config/serialmon/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&portFlag, "port", "p", "", "serial device path, overrides the config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Config returns the --config flag value.
func Config() string {
	return cfgFile
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(handleError(os.Stderr, err))
	}
}

// handleError prints err and returns the process exit code.
func handleError(w io.Writer, err error) int {
	if errors.IsAbort(err) {
		return 130
	}
	var structured *errors.Error
	if stderrors.As(err, &structured) {
		// Already rendered with its own ✗ and suggestion.
		fmt.Fprint(w, err.Error())
		return 1
	}
	fmt.Fprintln(w, ui.ErrorStyle().Render(ui.SymbolFail)+" "+err.Error())
	if isUnknownCommandError(err) {
		fmt.Fprintln(w, "Run 'serialmon --help' to see available commands.")
		return 2
	}
	return 1
}

func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag")
}

// loadConfig finds, loads and validates config, then applies the global
// flag overrides. The returned path is empty when no file was found.
func loadConfig() (*config.Config, string, error) {
	cfg, path, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, "", err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}
	if portFlag != "" {
		cfg.Port = portFlag
	}
	if noColor {
		cfg.Output.Color = ui.ColorModeNever
	}
	return cfg, path, nil
}

// requireConfigPath locates the config file for commands that edit it.
func requireConfigPath() (string, error) {
	path, err := config.Find(cfgFile)
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", errors.New(errors.ErrConfig,
			"No config file found",
			"Run 'serialmon init' to create one.")
	}
	return path, nil
}

// portDetailer is implemented by transports that know USB metadata.
type portDetailer interface {
	Details() ([]serialport.PortInfo, error)
}

// describePorts returns the transport's detail lookup, if it has one.
func describePorts() ui.DescribeFunc {
	if d, ok := transport.(portDetailer); ok {
		return d.Details
	}
	return nil
}

// listPorts enumerates ports with whatever detail the transport offers.
func listPorts() ([]serialport.PortInfo, error) {
	if d, ok := transport.(portDetailer); ok {
		infos, err := d.Details()
		if err == nil {
			return infos, nil
		}
	}
	names, err := transport.List()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrTransport,
			"Failed to list serial ports",
			serialport.Hint(err))
	}
	infos := make([]serialport.PortInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, serialport.PortInfo{Name: name})
	}
	return infos, nil
}

// closeSession disposes of s, logging rather than failing on a close error.
func closeSession(s *session.Session, log logger.Logger) {
	if err := s.Close(context.Background()); err != nil {
		log.Warn("closing session: %s", errors.Summarize(err))
	}
}
