// Package ui renders colored terminal output for the ormbind commands.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Table renders rows under bold headers with aligned columns
type Table struct {
	w       io.Writer
	headers []string
	rows    [][]string
	noColor bool
}

// NewTable creates a table with the given headers
func NewTable(w io.Writer, noColor bool, headers ...string) *Table {
	return &Table{w: w, headers: headers, noColor: noColor}
}

// AddRow appends a row; missing cells render empty
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// Render writes the table
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	header := painter(t.noColor, color.Bold, color.FgCyan)
	t.line(widths, t.headers, header)

	rule := painter(t.noColor, color.FgHiBlack)
	total := 0
	for _, w := range widths {
		total += w
	}
	total += 2 * (len(widths) - 1)
	rule.Fprintln(t.w, strings.Repeat("─", total))

	for _, row := range t.rows {
		t.line(widths, row, nil)
	}
}

func (t *Table) line(widths []int, cells []string, c *color.Color) {
	parts := make([]string, len(widths))
	for i := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		if i < len(widths)-1 {
			cell = padRight(cell, widths[i])
		}
		parts[i] = cell
	}
	text := strings.Join(parts, "  ")
	if c != nil {
		c.Fprintln(t.w, text)
		return
	}
	fmt.Fprintln(t.w, text)
}

// Details renders "key: value" lines with aligned values
type Details struct {
	w       io.Writer
	keys    []string
	values  []string
	noColor bool
}

// NewDetails creates an empty key/value block
func NewDetails(w io.Writer, noColor bool) *Details {
	return &Details{w: w, noColor: noColor}
}

// Add appends a pair; empty values are skipped
func (d *Details) Add(key, value string) {
	if value == "" {
		return
	}
	d.keys = append(d.keys, key)
	d.values = append(d.values, value)
}

// Render writes the block
func (d *Details) Render() {
	width := 0
	for _, k := range d.keys {
		if len(k) > width {
			width = len(k)
		}
	}
	key := painter(d.noColor, color.FgCyan)
	for i, k := range d.keys {
		key.Fprint(d.w, padRight(k+":", width+1))
		fmt.Fprintf(d.w, " %s\n", d.values[i])
	}
}

// Heading writes a bold title line followed by a blank line
func Heading(w io.Writer, title string, noColor bool) {
	painter(noColor, color.Bold).Fprintln(w, title)
	fmt.Fprintln(w)
}

func painter(noColor bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if noColor {
		c.DisableColor()
	}
	return c
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
