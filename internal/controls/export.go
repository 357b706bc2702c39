package controls

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"golang.org/x/text/message"

	"xelis-stats/internal/format"
	"xelis-stats/internal/i18n"
	"xelis-stats/internal/observability"
	"xelis-stats/internal/query"
	"xelis-stats/internal/source"
	"xelis-stats/internal/viewapi"
)

// ExportFileName is the download name of the JSON export.
const ExportFileName = "chart_data.json"

// ExportJSON writes the rows as a pretty-printed JSON array.
func ExportJSON(w io.Writer, rows []viewapi.Row) (err error) {
	defer func() { observability.RecordExport("json", err) }()

	if rows == nil {
		rows = []viewapi.Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("encode rows: %w", err)
	}
	return nil
}

// ExportCSV writes the table columns of the rows as CSV with raw values.
func ExportCSV(w io.Writer, src *source.Source, rows []viewapi.Row) (err error) {
	defer func() { observability.RecordExport("csv", err) }()

	cols := TableColumns(src)
	cw := csv.NewWriter(w)

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Key
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(cols))
	for _, row := range rows {
		for i, c := range cols {
			v, _ := row.Value(c.Key)
			record[i] = format.Raw(v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ShareLink returns the URL that reproduces the view state. Any query in
// base is replaced.
func ShareLink(base string, s query.State) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u.RawQuery = s.String()
	u.Fragment = ""
	return u.String(), nil
}

// LoadOptions returns the dropdown entries of a filter. Dynamic filters
// fetch their options from a view and start with an "All" entry that
// clears the filter.
func LoadOptions(ctx context.Context, f viewapi.Fetcher, p *message.Printer, spec source.FilterSpec) ([]source.Option, error) {
	if !spec.Dynamic() {
		return spec.Options, nil
	}

	result, err := f.FetchView(ctx, spec.OptionsView, viewapi.Params{})
	if err != nil {
		return nil, fmt.Errorf("load %s options: %w", spec.QueryKey, err)
	}

	opts := []source.Option{{Key: "", Text: i18n.T(p, "All")}}
	seen := make(map[string]bool, len(result.Rows))
	for _, row := range result.Rows {
		v := row.String(spec.OptionsField)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		opts = append(opts, source.Option{Key: v, Text: v})
	}
	return opts, nil
}
