// Package table renders view rows as a formatted table.
package table

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"xelis-stats/internal/query"
	"xelis-stats/internal/source"
	"xelis-stats/internal/viewapi"
)

// Header is one table column heading.
type Header struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// Table is a rendered table. Rows keep the fetched order.
type Table struct {
	Headers []Header   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// VisibleColumns returns the table columns allowed by the state, in the
// source's column order. Candle columns never show in tables.
func VisibleColumns(src *source.Source, s query.State) []source.Column {
	if src == nil {
		return nil
	}
	var cols []source.Column
	for _, c := range src.Columns {
		if c.IsCandle() {
			continue
		}
		if s.Columns != nil && !slices.Contains(*s.Columns, c.Key) {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

// Build formats rows for the visible columns.
func Build(src *source.Source, s query.State, rows []viewapi.Row) Table {
	cols := VisibleColumns(src, s)

	t := Table{
		Headers: make([]Header, len(cols)),
		Rows:    make([][]string, len(rows)),
	}
	for i, c := range cols {
		t.Headers[i] = Header{Key: c.Key, Title: c.Title}
	}
	for i, row := range rows {
		cells := make([]string, len(cols))
		for j, c := range cols {
			cells[j] = c.Display(row)
		}
		t.Rows[i] = cells
	}
	return t
}

// WriteText writes the table as aligned plain text.
func WriteText(w io.Writer, t Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	titles := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		titles[i] = h.Title
	}
	if _, err := fmt.Fprintln(tw, strings.Join(titles, "\t")); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}
