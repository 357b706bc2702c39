package source

import (
	"slices"

	"xelis-stats/internal/format"
	"xelis-stats/internal/viewapi"
)

// Kind tags the column variant.
type Kind int

const (
	// KindPlain displays the raw field value.
	KindPlain Kind = iota
	// KindFormatted displays the field through a format function.
	KindFormatted
	// KindCandle maps four fields into an OHLC tuple. Chart only.
	KindCandle
	// KindWithRowKey reads its chart value through its own row key.
	KindWithRowKey
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindFormatted:
		return "formatted"
	case KindCandle:
		return "candle"
	case KindWithRowKey:
		return "with_row_key"
	}
	return "unknown"
}

// ViewTable restricts a column to table mode.
const ViewTable = "table"

// FormatFunc renders a value of a row for display.
type FormatFunc func(v any, row viewapi.Row) string

// CandleMapping names the row fields of an OHLC tuple.
type CandleMapping struct {
	HighKey  string
	LowKey   string
	OpenKey  string
	CloseKey string
}

// Column describes one field of a source's rows.
type Column struct {
	Key    string
	Title  string
	Kind   Kind
	Format FormatFunc

	// Views is an allow-list of display modes. Empty means everywhere.
	Views []string

	Candle         *CandleMapping
	ValueKey       RowKey
	BottomChartKey string
}

// Plain creates a column displayed as-is.
func Plain(key, title string) Column {
	return Column{Key: key, Title: title, Kind: KindPlain}
}

// Formatted creates a column with a format function.
func Formatted(key, title string, fn FormatFunc) Column {
	return Column{Key: key, Title: title, Kind: KindFormatted, Format: fn}
}

// CandleColumn creates a candlestick column.
func CandleColumn(key, title string, m CandleMapping) Column {
	return Column{Key: key, Title: title, Kind: KindCandle, Candle: &m}
}

// TableOnly restricts the column to table mode.
func (c Column) TableOnly() Column {
	c.Views = []string{ViewTable}
	return c
}

// WithFormat sets the format function without changing the kind.
func (c Column) WithFormat(fn FormatFunc) Column {
	c.Format = fn
	return c
}

// WithBottomChart adds a volume histogram read from key.
func (c Column) WithBottomChart(key string) Column {
	c.BottomChartKey = key
	return c
}

// WithValueKey reads the chart value through k instead of the column key.
func (c Column) WithValueKey(k RowKey) Column {
	c.Kind = KindWithRowKey
	c.ValueKey = k
	return c
}

// IsCandle reports whether the column renders as candlesticks.
func (c Column) IsCandle() bool {
	return c.Kind == KindCandle && c.Candle != nil
}

// AllowedIn reports whether the column may appear in a display mode.
func (c Column) AllowedIn(view string) bool {
	return len(c.Views) == 0 || slices.Contains(c.Views, view)
}

// Chartable reports whether the column can be picked as a chart key.
func (c Column) Chartable() bool {
	return len(c.Views) == 0 || slices.Contains(c.Views, "chart")
}

// Scalar returns the chart value of a row.
func (c Column) Scalar(row viewapi.Row, index int) (float64, bool) {
	if c.Kind == KindWithRowKey && !c.ValueKey.IsZero() {
		return c.ValueKey.Value(row, index)
	}
	return row.Float(c.Key)
}

// Display renders the column value of a row. Missing values pass "" into
// the format function.
func (c Column) Display(row viewapi.Row) string {
	v, ok := row.Value(c.Key)
	if c.Format != nil {
		if !ok {
			v = ""
		}
		return c.Format(v, row)
	}
	if !ok {
		return ""
	}
	return format.Raw(v)
}
