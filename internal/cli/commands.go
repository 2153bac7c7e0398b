package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/serialmon/internal/errors"
	"github.com/rileyhilliard/serialmon/internal/widget"
)

// Command-specific flags
var (
	monitorIntervalFlag string
	tailTimestamps      bool
	serveAddrFlag       string
	serveNoConnect      bool
	portsJSON           bool
	initForce           bool
	doctorJSON          bool
	doctorFix           bool
	initGlobal          bool
	widgetTypeFlag      string
	widgetTitleFlag     string
)

// minMonitorInterval keeps redraws from flooding slow terminals.
const minMonitorInterval = 50 * time.Millisecond

// monitorCmd starts the TUI dashboard
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive dashboard for a serial device",
	Long: `Connect to the serial device and show an interactive dashboard: the
most recent lines, newest first, and one chart per configured widget.

Keyboard shortcuts:
  c           Connect
  d           Disconnect
  x           Clear logs and history
  f           Toggle follow (auto-scroll to newest)
  up/down     Scroll the terminal pane
  ?           Show help
  q / Ctrl+C  Quit

Examples:
  serialmon monitor
  serialmon monitor --port /dev/ttyACM0
  serialmon monitor --interval 500ms`,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, err := parseInterval(monitorIntervalFlag)
		if err != nil {
			return err
		}
		return monitorCommand(cmd.Context(), interval)
	},
}

// tailCmd streams lines to stdout
var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Stream received lines to stdout",
	Long: `Connect to the serial device and print every received line until
interrupted or the device goes away. Lines holding a JSON record are
highlighted when color is enabled.

Examples:
  serialmon tail
  serialmon tail --timestamps
  serialmon tail --port /dev/ttyUSB0 | grep ERROR`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return tailCommand(cmd.Context(), cmd.OutOrStdout(), tailOptions{Timestamps: tailTimestamps})
	},
}

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the device over HTTP and WebSocket",
	Long: `Start an HTTP server exposing the session:

  GET    /api/status            connection state and last error
  GET    /api/snapshot          logs, history and widgets as JSON
  GET    /api/snapshot/msgpack  the same snapshot as MessagePack
  POST   /api/connect           connect ({"port": "..."} optional)
  POST   /api/disconnect        disconnect
  POST   /api/clear             clear logs and history
  GET    /api/widgets           list widgets
  POST   /api/widgets           add a widget ({"type": "line", "data_key": "temp"})
  DELETE /api/widgets/:id       remove a widget
  GET    /api/ports             enumerate serial ports
  GET    /ws                    snapshot pushed on every change
  GET    /metrics               Prometheus metrics

Examples:
  serialmon serve
  serialmon serve --addr 0.0.0.0:8765
  serialmon serve --no-connect`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCommand(cmd.Context(), cmd.OutOrStdout(), serveOptions{
			Addr:    serveAddrFlag,
			Connect: !serveNoConnect,
		})
	},
}

// portsCmd lists serial ports
var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	Long: `List the serial ports on this machine with USB details where available.
The configured port is marked with ●.

Examples:
  serialmon ports
  serialmon ports --json
  serialmon ports use /dev/ttyUSB0`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return portsCommand(cmd.OutOrStdout(), portsJSON)
	},
}

// portsUseCmd saves a port to the config file
var portsUseCmd = &cobra.Command{
	Use:   "use [port]",
	Short: "Save a port to the config file",
	Long: `Write the port to the config file so later commands use it without
--port. With no argument, pick from the connected ports.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port := ""
		if len(args) == 1 {
			port = args[0]
		}
		return portsUseCommand(cmd.Context(), cmd.OutOrStdout(), port)
	},
}

// initCmd creates a new .serialmon.yaml configuration
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create .serialmon.yaml configuration",
	Long: `Create a config file with sensible defaults in the current directory,
or in ~/.config/serialmon with --global.

Examples:
  serialmon init
  serialmon init --port /dev/ttyUSB0
  serialmon init --global --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initCommand(cmd.OutOrStdout(), InitOptions{
			Port:      portFlag,
			Global:    initGlobal,
			Overwrite: initForce,
		})
	},
}

// widgetCmd groups widget subcommands
var widgetCmd = &cobra.Command{
	Use:   "widget",
	Short: "Manage widgets charted at startup",
}

// widgetAddCmd appends a widget to the config file
var widgetAddCmd = &cobra.Command{
	Use:   "add <data-key>",
	Short: "Chart a record field",
	Long: `Add a widget for a record field to the config file. The data key is a
field name from the device's JSON lines, e.g. "temp" for {"temp": 21.5}.

Examples:
  serialmon widget add temp
  serialmon widget add humidity --type bar --title "Humidity %"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return widgetAddCommand(cmd.OutOrStdout(), widget.Spec{
			Type:    widget.Type(widgetTypeFlag),
			DataKey: args[0],
			Title:   widgetTitleFlag,
		})
	},
}

// widgetListCmd prints configured widgets
var widgetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured widgets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return widgetListCommand(cmd.OutOrStdout())
	},
}

// doctorCmd diagnoses config and device problems
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check config and serial device access",
	Long: `Run diagnostic checks: whether a config file exists and validates,
whether serial ports can be listed, and whether the configured port can be
opened at 115200 baud by the current user.

Examples:
  serialmon doctor
  serialmon doctor --port /dev/ttyUSB0
  serialmon doctor --fix
  serialmon doctor --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doctorCommand(cmd.OutOrStdout(), doctorOptions{JSON: doctorJSON, Fix: doctorFix})
	},
}

// completionCmd generates shell completion scripts
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion scripts for serialmon.

Examples:
  # Bash
  serialmon completion bash > /etc/bash_completion.d/serialmon

  # Zsh
  serialmon completion zsh > "${fpath[1]}/_serialmon"

  # Fish
  serialmon completion fish > ~/.config/fish/completions/serialmon.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(out)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(out)
		default:
			return errors.New(errors.ErrExec,
				"Unknown shell: "+args[0],
				"Supported shells: bash, zsh, fish, powershell")
		}
	},
}

// parseInterval parses a --interval flag. Empty means use the config.
func parseInterval(flag string) (time.Duration, error) {
	if flag == "" {
		return 0, nil
	}
	parsed, err := time.ParseDuration(flag)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Invalid interval: %s", flag),
			"Use a valid duration like 250ms, 1s, or 2s")
	}
	if parsed < minMonitorInterval {
		return 0, errors.New(errors.ErrConfig,
			"Interval too short",
			fmt.Sprintf("Minimum interval is %v to keep the terminal responsive", minMonitorInterval))
	}
	return parsed, nil
}

func init() {
	// monitor command flags
	monitorCmd.Flags().StringVar(&monitorIntervalFlag, "interval", "", "dashboard refresh interval (e.g., 250ms, 1s)")

	// tail command flags
	tailCmd.Flags().BoolVarP(&tailTimestamps, "timestamps", "t", false, "prefix each line with its receive time")

	// serve command flags
	serveCmd.Flags().StringVar(&serveAddrFlag, "addr", "", "listen address, overrides server.addr")
	serveCmd.Flags().BoolVar(&serveNoConnect, "no-connect", false, "start disconnected; connect later via POST /api/connect")

	// ports command flags
	portsCmd.Flags().BoolVar(&portsJSON, "json", false, "output in JSON format")

	// init command flags
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing config")
	initCmd.Flags().BoolVar(&initGlobal, "global", false, "write ~/.config/serialmon/config.yaml instead")

	// widget add flags
	widgetAddCmd.Flags().StringVar(&widgetTypeFlag, "type", string(widget.Line), "chart type: line or bar")
	widgetAddCmd.Flags().StringVar(&widgetTitleFlag, "title", "", "card title (default: upper-cased data key)")

	// Register all commands
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output in JSON format")
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "create a default config if none exists")

	portsCmd.AddCommand(portsUseCmd)
	widgetCmd.AddCommand(widgetAddCmd)
	widgetCmd.AddCommand(widgetListCmd)

	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(tailCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(widgetCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(completionCmd)
}
