package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/serialmon/internal/ui"
)

// HelpBinding represents a single keyboard shortcut entry.
type HelpBinding struct {
	Key  string
	Desc string
}

// helpBindings defines all keyboard shortcuts shown in the help overlay.
var helpBindings = []HelpBinding{
	{Key: "c", Desc: "Connect to the device"},
	{Key: "d", Desc: "Disconnect"},
	{Key: "x", Desc: "Clear logs and history"},
	{Key: "f", Desc: "Toggle follow newest line"},
	{Key: "up / down", Desc: "Scroll the terminal"},
	{Key: "PgUp / PgDn", Desc: "Scroll a page"},
	{Key: "Home", Desc: "Jump to newest line"},
	{Key: "q / Ctrl+C", Desc: "Quit"},
	{Key: "?", Desc: "Toggle this help"},
}

var (
	helpBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ui.ColorAccent).
			Padding(1, 2)

	helpTitleStyle = lipgloss.NewStyle().
			Foreground(ui.ColorAccent).
			Bold(true).
			MarginBottom(1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true).
			Width(14)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)
)

// renderHelpOverlay renders a centered help box with keyboard shortcuts.
func (m Model) renderHelpOverlay() string {
	var lines []string
	lines = append(lines, helpTitleStyle.Render("Keyboard Shortcuts"))
	lines = append(lines, "")

	for _, binding := range helpBindings {
		lines = append(lines, helpKeyStyle.Render(binding.Key)+helpDescStyle.Render(binding.Desc))
	}

	lines = append(lines, "")
	lines = append(lines, LabelStyle.Render("Press ? to close"))

	helpBox := helpBoxStyle.Render(strings.Join(lines, "\n"))
	if m.width == 0 || m.height == 0 {
		return helpBox
	}

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		helpBox,
		lipgloss.WithWhitespaceChars(" "),
	)
}
