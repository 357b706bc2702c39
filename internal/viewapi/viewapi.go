// Package viewapi is the client of the stats backend's REST views.
package viewapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Fetcher fetches rows from a named backend view.
type Fetcher interface {
	// FetchView performs GET {base}/views/{view}?{params}.
	FetchView(ctx context.Context, view string, params Params) (*Result, error)
}

// Params are the query parameters understood by the view endpoint.
type Params struct {
	Count  bool
	Limit  int
	Offset int
	Order  []string
	Where  []string
	Param  []string
}

// Values encodes params as URL values. Slices become repeated keys.
func (p Params) Values() url.Values {
	v := url.Values{}
	if p.Count {
		v.Set("count", "true")
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		v.Set("offset", strconv.Itoa(p.Offset))
	}
	for _, o := range p.Order {
		v.Add("order", o)
	}
	for _, w := range p.Where {
		v.Add("where", w)
	}
	for _, prm := range p.Param {
		v.Add("param", prm)
	}
	return v
}

// ParamsFromValues is the inverse of Params.Values.
func ParamsFromValues(v url.Values) Params {
	p := Params{
		Order: v["order"],
		Where: v["where"],
		Param: v["param"],
	}
	p.Count, _ = strconv.ParseBool(v.Get("count"))
	p.Limit, _ = strconv.Atoi(v.Get("limit"))
	p.Offset, _ = strconv.Atoi(v.Get("offset"))
	return p
}

// Key returns a stable identity of the params, used to detect changes.
func (p Params) Key() string {
	return p.Values().Encode()
}

// Result is the body of a view response.
type Result struct {
	Rows  []Row `json:"rows"`
	Count int   `json:"count"`
}

// Row is a single view row keyed by column name.
type Row map[string]any

// Value returns the raw value of a field.
func (r Row) Value(key string) (any, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Float returns a field as float64. Numeric strings and RFC 3339
// timestamps (as unix seconds) are accepted.
func (r Row) Float(key string) (float64, bool) {
	v, ok := r.Value(key)
	if !ok {
		return 0, false
	}
	return ToFloat(v)
}

// String returns a field formatted as text, or "" when missing.
func (r Row) String(key string) string {
	v, ok := r.Value(key)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}

// ToFloat converts a decoded JSON value to float64.
func ToFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f, true
		}
		if ts, ok := ParseTime(t); ok {
			return float64(ts.UnixMilli()) / 1000, true
		}
	case time.Time:
		return float64(t.UnixMilli()) / 1000, true
	}
	return 0, false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02",
}

// ParseTime parses the timestamp formats returned by the backend.
// Timestamps without a zone are UTC.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
