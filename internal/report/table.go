// Package report renders aligned plain-text tables for CLI output.
package report

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Render builds an aligned text table with a header row and a separator
// line. Column widths follow display width, not byte length, so wide
// characters in event names line up correctly.
func Render(headers []string, rows [][]string) string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	if colCount == 0 {
		return ""
	}

	widths := make([]int, colCount)

	measure := func(row []string) {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	measure(headers)

	for _, row := range rows {
		measure(row)
	}

	var b strings.Builder

	writeRow := func(row []string) {
		for i := 0; i < colCount; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}

			b.WriteString(cell)

			if i < colCount-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)+2))
			}
		}

		b.WriteString("\n")
	}

	writeRow(headers)

	for i := 0; i < colCount; i++ {
		b.WriteString(strings.Repeat("-", widths[i]))

		if i < colCount-1 {
			b.WriteString("  ")
		}
	}

	b.WriteString("\n")

	for _, row := range rows {
		writeRow(row)
	}

	return b.String()
}
