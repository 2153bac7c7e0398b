package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline block characters representing 8 vertical levels (lowest to highest).
const sparklineBlocks = "▁▂▃▄▅▆▇█"

// sparklineBlockRunes provides indexed access to block characters.
var sparklineBlockRunes = []rune(sparklineBlocks)

// RenderSparkline draws the most recent width values as block characters,
// scaled between the minimum and maximum of those values.
func RenderSparkline(data []float64, width int, color lipgloss.Color) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}

	// Use only the most recent 'width' data points
	if len(data) > width {
		data = data[len(data)-width:]
	}

	minVal, maxVal := bounds(data)

	var sb strings.Builder
	sb.Grow(len(data) * 3)

	numLevels := len(sparklineBlockRunes)
	valueRange := maxVal - minVal

	for _, v := range data {
		var level int
		if valueRange == 0 {
			// Flat series sits in the middle
			level = numLevels / 2
		} else {
			normalized := (v - minVal) / valueRange
			level = clamp(int(normalized*float64(numLevels-1)), 0, numLevels-1)
		}
		sb.WriteRune(sparklineBlockRunes[level])
	}

	return lipgloss.NewStyle().Foreground(color).Render(sb.String())
}

// RenderBar draws value as a horizontal bar of width cells, where lo fills
// nothing and hi fills everything.
func RenderBar(value, lo, hi float64, width int, color lipgloss.Color) string {
	if width <= 0 {
		return ""
	}

	filled := width
	if hi > lo {
		filled = int(math.Round((value - lo) / (hi - lo) * float64(width)))
	}
	filled = clamp(filled, 0, width)

	fill := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("▰", filled))
	empty := lipgloss.NewStyle().Foreground(ColorMuted).Render(strings.Repeat("▱", width-filled))
	return fill + empty
}

// bounds returns the smallest and largest value in a non-empty slice.
func bounds(data []float64) (float64, float64) {
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	return minVal, maxVal
}

// Bounds is bounds for callers that need the scale a sparkline used.
// It returns zeros for an empty slice.
func Bounds(data []float64) (float64, float64) {
	if len(data) == 0 {
		return 0, 0
	}
	return bounds(data)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
