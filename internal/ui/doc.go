// Package ui provides terminal presentation helpers shared by the serialmon
// commands and the dashboard.
//
// # Components Overview
//
//	Palette      - ANSI semantic colors plus dashboard accents
//	Sparkline    - Block-character series for line widgets
//	Bar          - Horizontal fill for bar widgets
//	Header       - One-line connection status with the error slot below
//	Ports table  - Enumerated serial ports for `serialmon ports`
//	PickPort     - Interactive port selection using Huh forms
//
// # Color Modes
//
// ConfigureColor maps the output.color setting onto the lipgloss renderer:
//
//	auto    color only when writing to a terminal
//	always  256-color output even when piped
//	never   plain text
//
// Lines that carried a sensor record are rendered with StructuredLineStyle
// (green) in every log view.
package ui
