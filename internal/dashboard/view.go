package dashboard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/serialmon/internal/store"
	"github.com/rileyhilliard/serialmon/internal/ui"
	"github.com/rileyhilliard/serialmon/internal/widget"
)

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	if cards := m.renderWidgets(); cards != "" {
		b.WriteString(cards)
		b.WriteString("\n")
	}

	b.WriteString(m.renderLogPane())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

// renderHeader renders the connection status and summary stats.
func (m Model) renderHeader() string {
	st := m.snap.Status
	status := ui.RenderHeader(ui.HeaderInfo{
		Version: m.version,
		Port:    st.Port,
		State:   st.State,
		Error:   st.Error,
	})

	stats := LabelStyle.Render(fmt.Sprintf(" | %d lines | %d records | updated %s",
		len(m.snap.Logs), len(m.snap.History), sinceText(m.lastUpdate)))

	lines := strings.SplitN(status, "\n", 2)
	lines[0] += stats
	out := HeaderStyle.Render(strings.Join(lines, "\n"))

	if m.notice != "" {
		out += "\n" + NoticeStyle.Render(ui.SymbolWarning+" "+m.notice)
	}
	return out
}

// renderWidgets lays out one card per widget, wrapping to the terminal width.
func (m Model) renderWidgets() string {
	if len(m.snap.Widgets) == 0 {
		if len(m.snap.AvailableKeys) == 0 {
			return ""
		}
		return LabelStyle.Render(" No widgets yet. Available keys: " + strings.Join(m.snap.AvailableKeys, ", "))
	}

	cardWidth := m.calculateCardWidth()
	cards := make([]string, 0, len(m.snap.Widgets))
	for _, w := range m.snap.Widgets {
		cards = append(cards, m.renderCard(w, cardWidth))
	}
	return m.layoutCards(cards, cardWidth)
}

// renderCard renders one widget: title and latest value, then the graph.
func (m Model) renderCard(w widget.Widget, width int) string {
	values := m.snap.Values(w.DataKey)
	inner := width - 4

	value := "--"
	var graph, scale string
	if len(values) == 0 {
		graph = LabelStyle.Render("waiting for " + w.DataKey)
	} else {
		latest := values[len(values)-1]
		value = formatValue(latest)
		lo, hi := ui.Bounds(values)
		switch w.Type {
		case widget.Bar:
			graph = ui.RenderBar(latest, lo, hi, inner, ui.ColorBarFill)
		default:
			graph = ui.RenderSparkline(values, inner, ui.ColorGraph)
		}
		scale = TimeStyle.Render(fmt.Sprintf("min %s  max %s  n=%d", formatValue(lo), formatValue(hi), len(values)))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		SectionHeader(w.Title, value, width),
		SectionContentLine(graph, width),
		SectionContentLine(scale, width),
		SectionFooter(width),
	)
}

// calculateCardWidth determines the card width based on terminal width.
func (m Model) calculateCardWidth() int {
	if m.width == 0 {
		return 40
	}
	if m.width >= 80 {
		return 38
	}
	return m.width - 2
}

// layoutCards arranges cards in rows based on terminal width.
func (m Model) layoutCards(cards []string, cardWidth int) string {
	if len(cards) == 0 {
		return ""
	}

	cardsPerRow := m.cardsPerRow(cardWidth)
	var rows []string
	for i := 0; i < len(cards); i += cardsPerRow {
		end := i + cardsPerRow
		if end > len(cards) {
			end = len(cards)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) cardsPerRow(cardWidth int) int {
	if m.width == 0 {
		return 1
	}
	n := m.width / cardWidth
	if n < 1 {
		n = 1
	}
	return n
}

// widgetRows is how many rows of cards the current layout needs.
func (m Model) widgetRows() int {
	n := len(m.snap.Widgets)
	if n == 0 {
		if len(m.snap.AvailableKeys) > 0 {
			return 1
		}
		return 0
	}
	perRow := m.cardsPerRow(m.calculateCardWidth())
	return (n + perRow - 1) / perRow
}

// renderLogPane renders the terminal view, newest line first.
func (m Model) renderLogPane() string {
	width := m.width
	if width == 0 {
		width = m.logs.Width + 4
	}

	follow := "paused"
	if m.follow {
		follow = "live"
	}
	title := fmt.Sprintf("Terminal (%d)", len(m.snap.Logs))

	body := []string{LabelStyle.Render("no data yet")}
	if len(m.snap.Logs) > 0 {
		body = strings.Split(m.logs.View(), "\n")
	}

	var b strings.Builder
	b.WriteString(SectionHeader(title, follow, width))
	b.WriteString("\n")
	for _, line := range body {
		b.WriteString(SectionContentLine(line, width))
		b.WriteString("\n")
	}
	b.WriteString(SectionFooter(width))
	return b.String()
}

// renderFooter renders the keyboard help footer.
func (m Model) renderFooter() string {
	hints := []string{"c connect", "d disconnect", "x clear", "? help", "q quit"}
	if m.busy {
		hints = append([]string{"working..."}, hints...)
	}
	if m.closed {
		hints = append([]string{"session closed"}, hints...)
	}
	return FooterStyle.Render(strings.Join(hints, " | "))
}

// renderLogLines formats entries one per line, clipped to width. Lines that
// carried a record are highlighted.
func renderLogLines(entries []store.LogEntry, width int) string {
	lines := make([]string, 0, len(entries))
	textWidth := width - len(store.TimeLayout) - 2
	if textWidth < 1 {
		textWidth = 1
	}
	clip := lipgloss.NewStyle().MaxWidth(textWidth)

	for _, e := range entries {
		text := clip.Render(e.Text)
		if e.Structured() {
			text = ui.StructuredLineStyle().Render(text)
		}
		lines = append(lines, TimeStyle.Render(e.Time)+"  "+text)
	}
	return strings.Join(lines, "\n")
}

// formatValue renders a sensor reading compactly.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// sinceText renders how long ago t was.
func sinceText(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	secs := int(time.Since(t).Seconds())
	switch secs {
	case 0:
		return "just now"
	case 1:
		return "1s ago"
	default:
		return fmt.Sprintf("%ds ago", secs)
	}
}
