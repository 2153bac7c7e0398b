// Package cli implements the serialmon command-line interface.
//
// Each Cobra command is a thin shell around a command function that loads
// config, builds a session and hands it to one display: the Bubble Tea
// dashboard, a plain line stream, or the HTTP server.
//
// # Command Structure
//
//	serialmon monitor          - Interactive dashboard (logs + widget charts)
//	serialmon tail             - Stream received lines to stdout
//	serialmon serve            - HTTP API, WebSocket push and /metrics
//	serialmon ports [use]      - List serial ports, or save one to config
//	serialmon widget [add|list] - Manage widgets seeded from config
//	serialmon init             - Create .serialmon.yaml
//	serialmon doctor           - Check config and device access
//	serialmon version          - Print build information
//
// # Flag Handling
//
// Global flags (--config, --port, --verbose, --no-color) are defined on the
// root command. --port overrides the configured device for a single run;
// with neither set, the device is picked from the connected ports at
// connect time (interactively when stdin is a terminal).
//
// The transport package variable is the seam tests use to swap the real
// serial driver for serialport/testing fakes.
package cli
