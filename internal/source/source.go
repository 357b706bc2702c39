// Package source is the catalog of data sources: named backend views with
// their columns, chart row keys and filter controls.
package source

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"xelis-stats/internal/format"
	"xelis-stats/internal/query"
	"xelis-stats/internal/viewapi"
)

// ErrDuplicateKey is returned by Validate for repeated source or column keys.
var ErrDuplicateKey = errors.New("duplicate key")

// GetDataFunc fetches the rows of a source for a query state.
type GetDataFunc func(ctx context.Context, state query.State) (*viewapi.Result, error)

// RowKey derives the chart x-axis value of a row. It is either a row field
// or a function of the row and its index.
type RowKey struct {
	field string
	fn    func(row viewapi.Row, index int) (float64, bool)
}

// FieldKey reads the x-axis value from a row field.
func FieldKey(name string) RowKey {
	return RowKey{field: name}
}

// FuncKey computes the x-axis value.
func FuncKey(fn func(row viewapi.Row, index int) (float64, bool)) RowKey {
	return RowKey{fn: fn}
}

// TimeKey reads a timestamp field as unix seconds.
func TimeKey(name string) RowKey {
	return FuncKey(func(row viewapi.Row, _ int) (float64, bool) {
		v, ok := row.Value(name)
		if !ok {
			return 0, false
		}
		t, ok := format.ToTime(v)
		if !ok {
			return 0, false
		}
		return float64(t.UnixMilli()) / 1000, true
	})
}

// IsZero reports whether no key was set.
func (k RowKey) IsZero() bool {
	return k.field == "" && k.fn == nil
}

// Field returns the row field name, "" for function keys.
func (k RowKey) Field() string {
	return k.field
}

// Value resolves the key for a row. ok is false when the field is missing
// or not numeric.
func (k RowKey) Value(row viewapi.Row, index int) (float64, bool) {
	switch {
	case k.fn != nil:
		return k.fn(row, index)
	case k.field != "":
		return row.Float(k.field)
	}
	return 0, false
}

// Source describes one data source.
type Source struct {
	Key         string
	Title       string
	Description string
	GetData     GetDataFunc
	RowKey      RowKey
	Columns     []Column
	Filters     []FilterSpec

	// TimeFormatter labels x-axis values. nil means unix-seconds time.
	TimeFormatter func(float64) string
}

// IsEmpty reports whether the source is the inert descriptor returned for
// unknown keys.
func (s *Source) IsEmpty() bool {
	return s == nil || s.Key == ""
}

// Column returns the column with the given key.
func (s *Source) Column(key string) (Column, bool) {
	if s == nil {
		return Column{}, false
	}
	for _, c := range s.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnKeys returns all column keys in display order.
func (s *Source) ColumnKeys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		keys[i] = c.Key
	}
	return keys
}

// Fetch calls GetData. The empty source yields no rows.
func (s *Source) Fetch(ctx context.Context, state query.State) (*viewapi.Result, error) {
	if s == nil || s.GetData == nil {
		return &viewapi.Result{Rows: []viewapi.Row{}}, nil
	}
	return s.GetData(ctx, state)
}

// FormatTime labels an x-axis value.
func (s *Source) FormatTime(v float64) string {
	if s != nil && s.TimeFormatter != nil {
		return s.TimeFormatter(v)
	}
	return format.Unix(v)
}

// Validate checks key uniqueness across sources and within each source.
func Validate(sources []*Source) error {
	seen := make(map[string]bool, len(sources))
	for _, s := range sources {
		if seen[s.Key] {
			return fmt.Errorf("%w: source %q", ErrDuplicateKey, s.Key)
		}
		seen[s.Key] = true

		cols := make([]string, 0, len(s.Columns))
		for _, c := range s.Columns {
			if slices.Contains(cols, c.Key) {
				return fmt.Errorf("%w: column %q in source %q", ErrDuplicateKey, c.Key, s.Key)
			}
			cols = append(cols, c.Key)
		}
	}
	return nil
}
