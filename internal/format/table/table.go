// Package table lays out rows of cells in aligned columns for the list view.
package table

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

const gutter = "  "

// Format pads each cell to the widest entry in its column.
func Format(rows [][]string, alignments []Alignment) []string {
	return FormatWidth(rows, alignments, 0, 0)
}

// FormatWidth behaves like Format but shrinks column flex so that no row is
// wider than maxWidth. The flex column is truncated with an ellipsis; other
// columns keep their natural width. A maxWidth of zero disables the limit.
func FormatWidth(rows [][]string, alignments []Alignment, flex, maxWidth int) []string {
	if len(rows) == 0 {
		return nil
	}
	widths := columnWidths(rows)
	if maxWidth > 0 && flex >= 0 && flex < len(widths) {
		total := 0
		for _, w := range widths {
			total += w
		}
		total += len(gutter) * (len(widths) - 1)
		if over := total - maxWidth; over > 0 {
			widths[flex] -= over
			if widths[flex] < 1 {
				widths[flex] = 1
			}
		}
	}
	out := make([]string, len(rows))
	for i, row := range rows {
		var b strings.Builder
		for c, cell := range row {
			if c > 0 {
				b.WriteString(gutter)
			}
			if c >= len(widths) {
				b.WriteString(cell)
				continue
			}
			if lipgloss.Width(cell) > widths[c] {
				cell = fit(cell, widths[c])
			}
			pad := widths[c] - lipgloss.Width(cell)
			if c < len(alignments) && alignments[c] == AlignRight {
				writeSpaces(&b, pad)
				b.WriteString(cell)
			} else {
				b.WriteString(cell)
				if c < len(row)-1 {
					writeSpaces(&b, pad)
				}
			}
		}
		out[i] = b.String()
	}
	return out
}

func columnWidths(rows [][]string) []int {
	var widths []int
	for _, row := range rows {
		for c, cell := range row {
			if c >= len(widths) {
				widths = append(widths, 0)
			}
			if w := lipgloss.Width(cell); w > widths[c] {
				widths[c] = w
			}
		}
	}
	return widths
}

func fit(cell string, width int) string {
	if width <= 1 {
		return truncate.String(cell, uint(width))
	}
	return truncate.StringWithTail(cell, uint(width), "…")
}

func writeSpaces(b *strings.Builder, count int) {
	if count > 0 {
		b.WriteString(strings.Repeat(" ", count))
	}
}
