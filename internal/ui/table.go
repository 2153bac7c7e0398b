package ui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/serialmon/internal/serialport"
)

// TableColumn defines a table column with name and width.
type TableColumn struct {
	Title string
	Width int
}

// NewTable creates a new Bubbles table with default styling.
func NewTable(columns []TableColumn, rows []table.Row) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{
			Title: c.Title,
			Width: c.Width,
		}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+1), // +1 for header
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorPrimary)
	s.Cell = s.Cell.
		Foreground(ColorPrimary)
	s.Selected = s.Selected.
		Foreground(ColorPrimary).
		Bold(false)

	t.SetStyles(s)
	return t
}

// RenderSimpleTable renders a non-interactive table string.
func RenderSimpleTable(columns []TableColumn, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}

	return NewTable(columns, tableRows).View()
}

// RenderPortsTable lists enumerated ports. The configured port is marked
// with SymbolLive.
func RenderPortsTable(ports []serialport.PortInfo, configured string) string {
	columns := []TableColumn{
		{Title: " ", Width: 1},
		{Title: "Port", Width: 24},
		{Title: "USB", Width: 11},
		{Title: "Serial", Width: 16},
		{Title: "Product", Width: 28},
	}

	rows := make([][]string, 0, len(ports))
	for _, p := range ports {
		mark := ""
		if p.Name == configured {
			mark = SymbolLive
		}
		usb := ""
		if p.IsUSB {
			usb = p.VID + ":" + p.PID
		}
		rows = append(rows, []string{mark, p.Name, usb, p.SerialNumber, p.Product})
	}
	return RenderSimpleTable(columns, rows)
}
