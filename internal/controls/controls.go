// Package controls edits the query state of a view page. Every function
// returns a modified copy and leaves the caller's state untouched.
package controls

import (
	"slices"
	"strconv"
	"time"

	"golang.org/x/text/message"

	"xelis-stats/internal/i18n"
	"xelis-stats/internal/query"
	"xelis-stats/internal/source"
)

// SourceOptions lists the data source dropdown entries.
func SourceOptions(sources []*source.Source) []source.Option {
	opts := make([]source.Option, len(sources))
	for i, s := range sources {
		opts[i] = source.Option{Key: s.Key, Text: s.Title}
	}
	return opts
}

// ViewTypes lists the display modes.
func ViewTypes(p *message.Printer) []source.Option {
	return []source.Option{
		{Key: string(query.ViewChart), Text: i18n.T(p, "Chart")},
		{Key: string(query.ViewTable), Text: i18n.T(p, "Table")},
	}
}

// ChartTypes lists the chart kinds.
func ChartTypes(p *message.Printer) []source.Option {
	return []source.Option{
		{Key: string(query.ChartArea), Text: i18n.T(p, "Area")},
		{Key: string(query.ChartCandlestick), Text: i18n.T(p, "Candlestick")},
		{Key: string(query.ChartHistogram), Text: i18n.T(p, "Histogram")},
		{Key: string(query.ChartLine), Text: i18n.T(p, "Line")},
	}
}

// ChartColumns returns the columns selectable as chart key. Candlestick
// charts take candle columns only, other chart kinds take the rest.
func ChartColumns(src *source.Source, chartView query.ChartView) []source.Column {
	if src == nil {
		return nil
	}
	var cols []source.Column
	for _, c := range src.Columns {
		if !c.Chartable() {
			continue
		}
		if (chartView == query.ChartCandlestick) != c.IsCandle() {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

// TableColumns returns the columns that can appear in table mode.
func TableColumns(src *source.Source) []source.Column {
	if src == nil {
		return nil
	}
	var cols []source.Column
	for _, c := range src.Columns {
		if !c.IsCandle() {
			cols = append(cols, c)
		}
	}
	return cols
}

// SelectSource navigates to another source. Everything but the source key
// resets.
func SelectSource(key string) query.State {
	return query.State{DataSource: key}
}

// SetView switches between chart and table.
func SetView(s query.State, v query.View) query.State {
	c := s.Clone()
	c.View = v
	return c
}

// SetChartView switches the chart kind.
func SetChartView(s query.State, v query.ChartView) query.State {
	c := s.Clone()
	c.ChartView = v
	return c
}

// SetChartKey selects the charted column.
func SetChartKey(s query.State, key string) query.State {
	c := s.Clone()
	c.ChartKey = key
	return c
}

// SetMinMax toggles the min/max reference lines.
func SetMinMax(s query.State, enabled bool) query.State {
	c := s.Clone()
	c.MinMax = &enabled
	return c
}

// ShowAllColumns clears the column allow-list, or hides every column.
func ShowAllColumns(s query.State, show bool) query.State {
	c := s.Clone()
	if show {
		c.Columns = nil
	} else {
		c.Columns = &[]string{}
	}
	return c
}

// SetColumnVisible shows or hides one table column. With no allow-list
// yet, it starts from every table column. The result keeps the source's
// column order.
func SetColumnVisible(s query.State, src *source.Source, key string, visible bool) query.State {
	c := s.Clone()

	var current []string
	if s.Columns == nil {
		for _, col := range TableColumns(src) {
			current = append(current, col.Key)
		}
	} else {
		current = *c.Columns
	}

	if visible {
		if !slices.Contains(current, key) {
			current = append(current, key)
		}
	} else {
		current = slices.DeleteFunc(current, func(k string) bool { return k == key })
	}

	cols := make([]string, 0, len(current))
	for _, col := range src.Columns {
		if slices.Contains(current, col.Key) {
			cols = append(cols, col.Key)
		}
	}
	for _, k := range current {
		if !slices.Contains(cols, k) {
			cols = append(cols, k)
		}
	}
	c.Columns = &cols
	return c
}

// ColumnVisible reports whether a column is in the allow-list.
func ColumnVisible(s query.State, key string) bool {
	if s.Columns == nil {
		return true
	}
	return slices.Contains(*s.Columns, key)
}

// RefetchToken returns a fresh reload token for now.
func RefetchToken(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}

// SetPeriod sets the bucket width. With refetch, a new token forces a
// reload even when the period does not change.
func SetPeriod(s query.State, period string, refetch bool, now time.Time) query.State {
	return SetFilterValue(s, query.KeyPeriod, period, refetch, now)
}

// SetFilterValue sets a filter key. An empty value clears it.
func SetFilterValue(s query.State, key, value string, refetch bool, now time.Time) query.State {
	c := s.With(key, value)
	if refetch {
		c.Refetch = RefetchToken(now)
	}
	return c
}

// TimePeriods returns the bucket width presets.
func TimePeriods(p *message.Printer) []source.Option {
	return source.TimePeriodOptions(p)
}

// UnitPeriods returns the topoheight range presets.
func UnitPeriods() []source.Option {
	return source.UnitPeriodOptions()
}
