package main

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// maxCell is the display width a cell is truncated to.
const maxCell = 72

// table aligns rows of text in columns by display width, so wide runes in
// document values keep the columns straight.
type table struct {
	headers []string
	rows    [][]string
}

func newTable(headers ...string) *table {
	return &table{headers: headers}
}

func (t *table) add(cells ...string) {
	row := make([]string, len(t.headers))
	for n := range row {
		if n < len(cells) {
			row[n] = cell(cells[n])
		}
	}
	t.rows = append(t.rows, row)
}

func cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, maxCell, "...")
}

func (t *table) render(w io.Writer) error {
	widths := make([]int, len(t.headers))
	for n, h := range t.headers {
		widths[n] = runewidth.StringWidth(h)
	}
	for _, row := range t.rows {
		for n, c := range row {
			widths[n] = max(widths[n], runewidth.StringWidth(c))
		}
	}

	var sb strings.Builder
	line := func(cells []string) {
		for n, c := range cells {
			if n == len(cells)-1 {
				sb.WriteString(c)
				break
			}
			sb.WriteString(runewidth.FillRight(c, widths[n]))
			sb.WriteString("  ")
		}
		sb.WriteByte('\n')
	}

	line(t.headers)
	rule := make([]string, len(widths))
	for n, width := range widths {
		rule[n] = strings.Repeat("-", width)
	}
	line(rule)
	for _, row := range t.rows {
		line(row)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
