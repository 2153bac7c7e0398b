package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/serialmon/internal/ui"
)

// Text colors
const (
	ColorTextPrimary   = lipgloss.Color("#FFFFFF") // Pure white
	ColorTextSecondary = lipgloss.Color("#B4B4D0") // Lavender gray
	ColorTextMuted     = lipgloss.Color("#6B6B8D") // Purple-gray
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true)

	TimeStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(ui.ColorWarning).
			Padding(0, 1)
)

// SectionHeader renders a section header with the title on the left and value on the right.
// Format: ╭─ Title ────────────────────────────────────── Value ╮
func SectionHeader(title, value string, width int) string {
	if width < 10 {
		width = 10
	}

	// Left: "╭─ " + title + " "
	leftWidth := 3 + lipgloss.Width(title) + 1
	// Right: " " + value + " ╮"
	rightWidth := 1 + lipgloss.Width(value) + 2

	fillWidth := width - leftWidth - rightWidth
	if fillWidth < 1 {
		fillWidth = 1
	}

	borderStyle := lipgloss.NewStyle().Foreground(ui.ColorBorder)
	titleStyle := lipgloss.NewStyle().Foreground(ui.ColorAccent).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(ui.ColorGraph).Bold(true)

	return borderStyle.Render("╭─ ") +
		titleStyle.Render(title) +
		borderStyle.Render(" "+strings.Repeat("─", fillWidth)+" ") +
		valueStyle.Render(value) +
		borderStyle.Render(" ╮")
}

// SectionFooter renders the bottom border of a section.
// Format: ╰────────────────────────────────────────────────────╯
func SectionFooter(width int) string {
	if width < 2 {
		width = 2
	}
	borderStyle := lipgloss.NewStyle().Foreground(ui.ColorBorder)
	return borderStyle.Render("╰" + strings.Repeat("─", width-2) + "╯")
}

// SectionContentLine renders a content line with left and right borders, padded to width.
// Format: │ content                                              │
func SectionContentLine(content string, width int) string {
	if width < 4 {
		width = 4
	}

	borderStyle := lipgloss.NewStyle().Foreground(ui.ColorBorder)
	innerWidth := width - 4

	content = lipgloss.NewStyle().MaxWidth(innerWidth).Render(content)
	padding := innerWidth - lipgloss.Width(content)
	if padding < 0 {
		padding = 0
	}

	return borderStyle.Render("│") + " " + content + strings.Repeat(" ", padding) + " " + borderStyle.Render("│")
}
