package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "✓"
	SymbolFail     = "✗"
	SymbolWarning  = "⚠"
	SymbolIdle     = "○" // Not connected
	SymbolProgress = "◐" // Connecting or disconnecting
	SymbolLive     = "●" // Streaming
)
