package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"chronomap/internal/timeline"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E8C547"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8A8A"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F56"))
	laneStyle  = lipgloss.NewStyle().Width(labelWidth).MaxWidth(labelWidth).Foreground(lipgloss.Color("#C0C0C0"))
	refStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
)

const (
	glyphPoint = '●'
	glyphBar   = '━'
	glyphRef   = '│'
	glyphTick  = '┴'
	glyphAxis  = '─'
)

type cell struct {
	r     rune
	color string
}

// renderTimeline draws one row per lane plus a tick axis. Columns are
// pixel positions, so the engine must be sized to width.
func renderTimeline(frame timeline.Frame, width int) string {
	if width <= 0 || frame.State == timeline.StateUninitialized {
		return dimStyle.Render("timeline not initialized")
	}

	rows := make([][]cell, len(frame.Lanes))
	for i := range rows {
		rows[i] = blankRow(width)
	}
	for _, item := range frame.Items {
		if item.Lane < 0 || item.Lane >= len(rows) {
			continue
		}
		row := rows[item.Lane]
		start := int(math.Floor(item.X))
		if item.Kind == timeline.ItemPoint {
			if start >= 0 && start < width {
				row[start] = cell{r: glyphPoint, color: item.Color}
			}
			continue
		}
		end := int(math.Ceil(item.X + item.Width))
		for x := max(start, 0); x < min(end, width); x++ {
			row[x] = cell{r: glyphBar, color: item.Color}
		}
	}

	ref := -1
	if frame.Reference.Visible {
		ref = int(math.Floor(frame.Reference.X))
	}

	var b strings.Builder
	for i, lane := range frame.Lanes {
		b.WriteString(laneStyle.Render(truncate(lane.Name, labelWidth-1)))
		b.WriteString(" ")
		b.WriteString(renderRow(rows[i], ref))
		b.WriteString("\n")
	}
	b.WriteString(strings.Repeat(" ", labelWidth+1))
	b.WriteString(renderAxis(frame.Ticks, width, ref))
	return b.String()
}

func blankRow(width int) []cell {
	row := make([]cell, width)
	for i := range row {
		row[i] = cell{r: ' '}
	}
	return row
}

func renderRow(row []cell, ref int) string {
	var b strings.Builder
	for x, c := range row {
		switch {
		case c.color != "":
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c.color)).Render(string(c.r)))
		case x == ref:
			b.WriteString(refStyle.Render(string(glyphRef)))
		default:
			b.WriteRune(c.r)
		}
	}
	return b.String()
}

// renderAxis places tick marks on one line and their labels on the next,
// dropping labels that would overlap the previous one.
func renderAxis(ticks []timeline.Tick, width, ref int) string {
	axis := []rune(strings.Repeat(string(glyphAxis), width))
	labels := []rune(strings.Repeat(" ", width))
	next := 0
	for _, t := range ticks {
		x := int(math.Round(t.X))
		if x < 0 || x >= width {
			continue
		}
		axis[x] = glyphTick
		label := []rune(t.Label)
		if x < next || x+len(label) > width {
			continue
		}
		copy(labels[x:], label)
		next = x + len(label) + 1
	}
	if ref >= 0 && ref < width {
		axis[ref] = glyphRef
	}
	return dimStyle.Render(string(axis)) + "\n" + strings.Repeat(" ", labelWidth+1) + dimStyle.Render(string(labels))
}

func markerStyle(fill, border string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fill)).Background(lipgloss.Color(border))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
