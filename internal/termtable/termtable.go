// Package termtable renders a grid view as a plain-text table for terminals.
package termtable

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	datagrid "github.com/ZihxS/golang-datagrid"
)

const (
	columnGap = "  "
	ellipsis  = "…"
	minCell   = 3
)

// Options controls how a view is drawn.
//
// Fields:
//   - Width: The maximum line width. Zero means unlimited.
//   - Profile: The color profile. termenv.Ascii disables styling.
type Options struct {
	Width   int
	Profile termenv.Profile
}

// Detect returns the options for w: its width and color profile when it is
// a terminal, unlimited width and no styling otherwise. NO_COLOR disables
// styling.
func Detect(w io.Writer) Options {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return Options{Profile: termenv.Ascii}
	}

	opts := Options{Profile: termenv.NewOutput(f).ColorProfile()}
	if os.Getenv("NO_COLOR") != "" {
		opts.Profile = termenv.Ascii
	}
	if width, _, err := term.GetSize(int(f.Fd())); err == nil {
		opts.Width = width
	}
	return opts
}

// Render writes v to w. Loading and errored views are reported in a single
// line. Cells hold the rendered values of the view.
func Render(w io.Writer, v datagrid.View, opts Options) error {
	out := termenv.NewOutput(w, termenv.WithProfile(opts.Profile))

	switch v.Status {
	case datagrid.StatusLoading:
		_, err := fmt.Fprintln(out, out.String("Loading...").Faint())
		return err
	case datagrid.StatusErrored:
		_, err := fmt.Fprintln(out, out.String("Error: "+v.Error).Foreground(termenv.ANSIRed))
		return err
	}

	headers := make([]string, len(v.Columns))
	for i, col := range v.Columns {
		headers[i] = col.Label
		if headers[i] == "" {
			headers[i] = col.Key
		}
		if v.Sort.IsSorted() && v.Sort.Key == col.Key {
			if v.Sort.Direction == datagrid.SortAscending {
				headers[i] += " ▲"
			} else {
				headers[i] += " ▼"
			}
		}
	}

	rows := make([][]string, len(v.Cells))
	for i, cells := range v.Cells {
		row := make([]string, len(cells))
		for j, cell := range cells {
			row[j] = strings.Join(strings.Fields(datagrid.DisplayString(cell)), " ")
		}
		rows[i] = row
	}

	widths := columnWidths(headers, rows, opts.Width)

	line := make([]string, len(headers))
	for i, h := range headers {
		line[i] = out.String(pad(h, widths[i])).Bold().String()
	}
	if _, err := fmt.Fprintln(out, strings.TrimRight(strings.Join(line, columnGap), " ")); err != nil {
		return err
	}

	if len(rows) == 0 {
		_, err := fmt.Fprintln(out, out.String("No data available").Faint())
		return err
	}
	for _, row := range rows {
		for i, cell := range row {
			line[i] = pad(cell, widths[i])
		}
		if _, err := fmt.Fprintln(out, strings.TrimRight(strings.Join(line, columnGap), " ")); err != nil {
			return err
		}
	}

	if v.Summary != "" {
		footer := v.Summary
		if v.Page.TotalPages > 1 {
			footer += fmt.Sprintf(" | page %d of %d", v.Page.CurrentPage, v.Page.TotalPages)
		}
		if _, err := fmt.Fprintln(out, out.String(footer).Faint()); err != nil {
			return err
		}
	}
	return nil
}

// columnWidths sizes each column to its widest cell. When the table is wider
// than maxWidth, the widest columns are narrowed first, down to minCell.
func columnWidths(headers []string, rows [][]string, maxWidth int) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}
	if maxWidth <= 0 || len(widths) == 0 {
		return widths
	}

	total := func() int {
		n := len(columnGap) * (len(widths) - 1)
		for _, w := range widths {
			n += w
		}
		return n
	}
	for total() > maxWidth {
		widest := 0
		for i, w := range widths {
			if w > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= minCell {
			break
		}
		widths[widest]--
	}
	return widths
}

// pad truncates or right-pads s to exactly width runes.
func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n > width {
		r := []rune(s)
		return string(r[:width-1]) + ellipsis
	}
	return s + strings.Repeat(" ", width-n)
}
