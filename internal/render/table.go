package render

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Table is a bordered text table. Column widths follow the widest cell as
// displayed, so wide runes stay aligned.
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable returns an empty table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// AddRow appends a row. Missing cells render empty; extra cells are dropped.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Render writes the table to w.
func (t *Table) Render(w io.Writer) error {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if n := runewidth.StringWidth(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	var b strings.Builder
	border := func(left, mid, right string) {
		b.WriteString(left)
		for i, n := range widths {
			if i > 0 {
				b.WriteString(mid)
			}
			b.WriteString(strings.Repeat("─", n+2))
		}
		b.WriteString(right)
		b.WriteByte('\n')
	}
	line := func(cells []string) {
		b.WriteString("│")
		for i, cell := range cells {
			b.WriteByte(' ')
			b.WriteString(runewidth.FillRight(cell, widths[i]))
			b.WriteString(" │")
		}
		b.WriteByte('\n')
	}

	border("┌", "┬", "┐")
	line(t.headers)
	border("├", "┼", "┤")
	for _, row := range t.rows {
		line(row)
	}
	border("└", "┴", "┘")

	_, err := io.WriteString(w, b.String())
	return err
}
