package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Semantic colors for status indication. ANSI codes keep them readable on
// any terminal theme.
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
	ColorInfo    lipgloss.Color = "6" // Cyan
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "7" // White/default
	ColorSecondary lipgloss.Color = "4" // Blue
	ColorMuted     lipgloss.Color = "8" // Gray (bright black)
)

// Dashboard accents.
const (
	ColorAccent  = lipgloss.Color("#FF2E97") // Neon pink
	ColorGraph   = lipgloss.Color("#00FFFF") // Neon cyan
	ColorBarFill = lipgloss.Color("#BF40FF") // Neon purple
	ColorBorder  = lipgloss.Color("#2A2A4A")
)

// Color modes accepted by output.color.
const (
	ColorModeAuto   = "auto"
	ColorModeAlways = "always"
	ColorModeNever  = "never"
)

// SuccessStyle renders green text.
func SuccessStyle() lipgloss.Style { return lipgloss.NewStyle().Foreground(ColorSuccess) }

// ErrorStyle renders red text.
func ErrorStyle() lipgloss.Style { return lipgloss.NewStyle().Foreground(ColorError) }

// WarningStyle renders yellow text.
func WarningStyle() lipgloss.Style { return lipgloss.NewStyle().Foreground(ColorWarning) }

// InfoStyle renders cyan text.
func InfoStyle() lipgloss.Style { return lipgloss.NewStyle().Foreground(ColorInfo) }

// MutedStyle renders gray text.
func MutedStyle() lipgloss.Style { return lipgloss.NewStyle().Foreground(ColorMuted) }

// StructuredLineStyle is how lines that carried a record are shown in log views.
func StructuredLineStyle() lipgloss.Style { return SuccessStyle() }

// ConfigureColor applies an output.color mode to the default lipgloss
// renderer. "auto" keeps color only when out is a terminal.
func ConfigureColor(mode string, out io.Writer) {
	switch mode {
	case ColorModeNever:
		DisableColors()
	case ColorModeAlways:
		lipgloss.SetColorProfile(termenv.ANSI256)
	default:
		if !IsTerminal(out) {
			DisableColors()
			return
		}
		lipgloss.SetColorProfile(termenv.NewOutput(out).EnvColorProfile())
	}
}

// DisableColors switches lipgloss to plain text output.
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w interface{}) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
