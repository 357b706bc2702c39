// Package query implements the URL-encoded UI state of a view page:
// selected source, view mode, chart settings, visible columns, sort,
// filters, pagination and the refetch token.
package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// View selects between the table and the chart rendering of a source.
type View string

const (
	ViewTable View = "table"
	ViewChart View = "chart"
)

// ChartView selects the chart series type.
type ChartView string

const (
	ChartArea        ChartView = "area"
	ChartCandlestick ChartView = "candlestick"
	ChartHistogram   ChartView = "histogram"
	ChartLine        ChartView = "line"
)

// IsValid checks if the chart view is a supported series type.
func (c ChartView) IsValid() bool {
	switch c {
	case ChartArea, ChartCandlestick, ChartHistogram, ChartLine:
		return true
	}
	return false
}

// Query-string keys.
const (
	KeyDataSource = "data_source"
	KeyView       = "view"
	KeyChartView  = "chart_view"
	KeyChartKey   = "chart_key"
	KeyColumns    = "columns"
	KeyOrder      = "order"
	KeyWhere      = "where"
	KeyPeriod     = "period"
	KeyRange      = "range"
	KeyRefetch    = "refetch"
	KeyMinMax     = "min_max"
	KeyPage       = "page"
	KeySize       = "size"
)

var knownKeys = map[string]bool{
	KeyDataSource: true, KeyView: true, KeyChartView: true, KeyChartKey: true,
	KeyColumns: true, KeyOrder: true, KeyWhere: true, KeyPeriod: true,
	KeyRange: true, KeyRefetch: true, KeyMinMax: true, KeyPage: true, KeySize: true,
}

// State is the flat, URL-serializable state of a view page.
// Every field is optional; zero values mean "use the default".
type State struct {
	DataSource string
	View       View
	ChartView  ChartView
	ChartKey   string

	// Columns is the allow-list of visible table columns.
	// nil means all columns are visible, an empty slice means none.
	Columns *[]string

	Order []Order
	Where []Filter

	Period  string
	Range   string
	Refetch string

	// MinMax toggles the min/max reference lines. nil means enabled.
	MinMax *bool

	Page int
	Size int

	// Extra holds source-specific filter keys (asset, exchange, ...).
	// nil when empty.
	Extra map[string]string
}

// ParseQuery decodes a raw URL query string.
func ParseQuery(raw string) (State, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return State{}, fmt.Errorf("parse query string: %w", err)
	}
	return Decode(values)
}

// Decode builds a State from URL values.
func Decode(values url.Values) (State, error) {
	var s State

	s.DataSource = values.Get(KeyDataSource)
	s.ChartKey = values.Get(KeyChartKey)
	s.Period = values.Get(KeyPeriod)
	s.Range = values.Get(KeyRange)
	s.Refetch = values.Get(KeyRefetch)

	if v := values.Get(KeyView); v != "" {
		view := View(v)
		if view != ViewTable && view != ViewChart {
			return State{}, fmt.Errorf("%w: view %q", ErrInvalidView, v)
		}
		s.View = view
	}

	if v := values.Get(KeyChartView); v != "" {
		cv := ChartView(v)
		if !cv.IsValid() {
			return State{}, fmt.Errorf("%w: chart_view %q", ErrInvalidView, v)
		}
		s.ChartView = cv
	}

	if _, ok := values[KeyColumns]; ok {
		cols := []string{}
		if raw := values.Get(KeyColumns); raw != "" {
			cols = strings.Split(raw, ",")
		}
		s.Columns = &cols
	}

	for _, token := range values[KeyOrder] {
		if token == "" {
			continue
		}
		o, err := ParseOrder(token)
		if err != nil {
			return State{}, err
		}
		s.Order = append(s.Order, o)
	}

	for _, token := range values[KeyWhere] {
		if token == "" {
			continue
		}
		f, err := ParseFilter(token)
		if err != nil {
			return State{}, err
		}
		s.Where = append(s.Where, f)
	}

	if v := values.Get(KeyMinMax); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return State{}, fmt.Errorf("%w: min_max %q", ErrInvalidToken, v)
		}
		s.MinMax = &b
	}

	var err error
	if s.Page, err = parseInt(values, KeyPage); err != nil {
		return State{}, err
	}
	if s.Size, err = parseInt(values, KeySize); err != nil {
		return State{}, err
	}

	for key, vals := range values {
		if knownKeys[key] || len(vals) == 0 {
			continue
		}
		if s.Extra == nil {
			s.Extra = make(map[string]string)
		}
		s.Extra[key] = vals[0]
	}

	return s, nil
}

func parseInt(values url.Values, key string) (int, error) {
	raw := values.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s %q", ErrInvalidNumber, key, raw)
	}
	return n, nil
}

// Encode serializes the state to URL values. Unset fields are omitted.
func (s State) Encode() url.Values {
	values := url.Values{}

	setIf := func(key, value string) {
		if value != "" {
			values.Set(key, value)
		}
	}

	setIf(KeyDataSource, s.DataSource)
	setIf(KeyView, string(s.View))
	setIf(KeyChartView, string(s.ChartView))
	setIf(KeyChartKey, s.ChartKey)
	setIf(KeyPeriod, s.Period)
	setIf(KeyRange, s.Range)
	setIf(KeyRefetch, s.Refetch)

	if s.Columns != nil {
		values.Set(KeyColumns, strings.Join(*s.Columns, ","))
	}
	for _, token := range OrderTokens(s.Order) {
		values.Add(KeyOrder, token)
	}
	for _, token := range FilterTokens(s.Where) {
		values.Add(KeyWhere, token)
	}
	if s.MinMax != nil {
		values.Set(KeyMinMax, strconv.FormatBool(*s.MinMax))
	}
	if s.Page > 0 {
		values.Set(KeyPage, strconv.Itoa(s.Page))
	}
	if s.Size > 0 {
		values.Set(KeySize, strconv.Itoa(s.Size))
	}
	for key, value := range s.Extra {
		if knownKeys[key] {
			continue
		}
		values.Set(key, value)
	}

	return values
}

// String returns the encoded query string with keys in sorted order.
func (s State) String() string {
	return s.Encode().Encode()
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	c := s
	if s.Columns != nil {
		cols := append([]string{}, (*s.Columns)...)
		c.Columns = &cols
	}
	if s.Order != nil {
		c.Order = append([]Order(nil), s.Order...)
	}
	if s.Where != nil {
		c.Where = append([]Filter(nil), s.Where...)
	}
	if s.MinMax != nil {
		b := *s.MinMax
		c.MinMax = &b
	}
	if s.Extra != nil {
		c.Extra = make(map[string]string, len(s.Extra))
		for k, v := range s.Extra {
			c.Extra[k] = v
		}
	}
	return c
}

// ViewOrDefault returns the view mode, defaulting to table.
func (s State) ViewOrDefault() View {
	if s.View == "" {
		return ViewTable
	}
	return s.View
}

// MinMaxEnabled reports whether reference lines should be drawn.
func (s State) MinMaxEnabled() bool {
	return s.MinMax == nil || *s.MinMax
}

// Get returns a filter value by query key: period, range or an extra key.
func (s State) Get(key string) string {
	switch key {
	case KeyPeriod:
		return s.Period
	case KeyRange:
		return s.Range
	}
	return s.Extra[key]
}

// With returns a copy of the state with a filter value set by query key.
// An empty value removes an extra key.
func (s State) With(key, value string) State {
	c := s.Clone()
	switch key {
	case KeyPeriod:
		c.Period = value
	case KeyRange:
		c.Range = value
	default:
		if value == "" {
			delete(c.Extra, key)
			if len(c.Extra) == 0 {
				c.Extra = nil
			}
			return c
		}
		if c.Extra == nil {
			c.Extra = make(map[string]string)
		}
		c.Extra[key] = value
	}
	return c
}

// OrderMap returns the committed sort direction per field.
func (s State) OrderMap() map[string]Direction {
	m := make(map[string]Direction, len(s.Order))
	for _, o := range s.Order {
		m[o.Field] = o.Direction
	}
	return m
}

// WhereMap returns the committed filter per field. Later tokens win.
func (s State) WhereMap() map[string]Filter {
	m := make(map[string]Filter, len(s.Where))
	for _, f := range s.Where {
		m[f.Field] = f
	}
	return m
}

// Offset returns the row offset of the current page.
func (s State) Offset() int {
	if s.Page <= 1 || s.Size <= 0 {
		return 0
	}
	return (s.Page - 1) * s.Size
}

// Limit returns the page size, or 0 when pagination is off.
func (s State) Limit() int {
	return s.Size
}
