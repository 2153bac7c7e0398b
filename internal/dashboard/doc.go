// Package dashboard implements the full-screen serial monitor TUI.
//
// The dashboard is a display collaborator of a session: it renders the
// connection status, one card per registered widget, and the terminal view
// of received lines, and it issues the connect, disconnect and clear
// commands.
//
// # Architecture
//
// The package uses the Bubble Tea framework (Model-Update-View):
//
//   - Model: the latest session snapshot plus layout and key state
//   - Update: keystrokes, change signals, ticks and command results
//   - View: header, widget cards, log pane and footer
//
// # Message Flow
//
//  1. NewModel subscribes to the session and takes a snapshot
//  2. waitForChange blocks on the subscription; each signal becomes a
//     changeMsg, which refreshes the snapshot and waits again
//  3. tickMsg fires at Options.Interval so relative times stay current
//  4. connect and disconnect run as commands and report back through
//     actionResultMsg; failures land in the header notice
//
// # Keyboard Shortcuts
//
//	c           - Connect
//	d           - Disconnect
//	x           - Clear logs and history (widgets stay)
//	f           - Toggle follow newest line
//	↑/↓, PgUp   - Scroll the terminal view
//	q, Ctrl+C   - Quit
//	?           - Toggle help overlay
package dashboard
