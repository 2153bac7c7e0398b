package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/serialmon/internal/device"
)

// HeaderInfo contains what the status header shows.
type HeaderInfo struct {
	Version string
	Port    string
	State   device.State
	Error   string
}

// StateLabel is the human wording for a connection state. Reading is shown
// as connected; an idle manager is "Hardware Disconnected".
func StateLabel(st device.State) string {
	switch st {
	case device.Reading:
		return "Connected"
	case device.Connecting:
		return "Connecting"
	case device.Disconnecting:
		return "Disconnecting"
	default:
		return "Hardware Disconnected"
	}
}

// StateIndicator is a colored symbol plus StateLabel.
func StateIndicator(st device.State) string {
	switch st {
	case device.Reading:
		return SuccessStyle().Render(SymbolLive + " " + StateLabel(st))
	case device.Connecting, device.Disconnecting:
		return WarningStyle().Render(SymbolProgress + " " + StateLabel(st))
	default:
		return MutedStyle().Render(SymbolIdle + " " + StateLabel(st))
	}
}

// RenderHeader renders a one-line status header, with the error slot on a
// second line when set.
func RenderHeader(info HeaderInfo) string {
	title := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true).Render("serialmon")

	parts := []string{title}
	if info.Version != "" {
		parts[0] += " " + MutedStyle().Render(info.Version)
	}
	port := info.Port
	if port == "" {
		port = "(auto)"
	}
	parts = append(parts, InfoStyle().Render(port), StateIndicator(info.State))

	line := strings.Join(parts, MutedStyle().Render(" | "))
	if info.Error != "" {
		line += "\n" + ErrorStyle().Render(SymbolFail+" "+info.Error)
	}
	return line
}
