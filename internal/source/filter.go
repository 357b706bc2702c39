package source

import (
	"golang.org/x/text/message"

	"xelis-stats/internal/i18n"
	"xelis-stats/internal/query"
)

// FilterKind identifies a filter control.
type FilterKind string

const (
	FilterTimePeriod      FilterKind = "time_period"
	FilterUnitPeriod      FilterKind = "unit_period"
	FilterMarketAssets    FilterKind = "market_assets"
	FilterMarketExchanges FilterKind = "market_exchanges"
)

// Option is one entry of a filter dropdown.
type Option struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// FilterSpec describes a filter control bound to a query key.
type FilterSpec struct {
	Kind     FilterKind `json:"kind"`
	QueryKey string     `json:"query_key"`
	Label    string     `json:"label"`

	// Refetch writes a fresh refetch token with every change.
	Refetch bool `json:"refetch"`

	// Options are static presets. Custom values are accepted as well
	// for period filters.
	Options []Option `json:"options,omitempty"`

	// OptionsView and OptionsField load dropdown options from a view.
	OptionsView  string `json:"options_view,omitempty"`
	OptionsField string `json:"options_field,omitempty"`
}

// Dynamic reports whether options are loaded from the backend.
func (f FilterSpec) Dynamic() bool {
	return f.OptionsView != ""
}

// Default periods when the query does not set one.
const (
	DefaultTimePeriod = "86400"
	DefaultUnitPeriod = "1000"
)

// TimePeriodOptions are the bucket width presets in seconds.
func TimePeriodOptions(p *message.Printer) []Option {
	return []Option{
		{Key: "60", Text: i18n.T(p, "1 minute")},
		{Key: "900", Text: i18n.T(p, "15 minutes")},
		{Key: "3600", Text: i18n.T(p, "1 hour")},
		{Key: "14400", Text: i18n.T(p, "4 hours")},
		{Key: "86400", Text: i18n.T(p, "1 day")},
		{Key: "604800", Text: i18n.T(p, "1 week")},
		{Key: "2628000", Text: i18n.T(p, "1 month")},
		{Key: "7884000", Text: i18n.T(p, "3 months")},
		{Key: "15768000", Text: i18n.T(p, "6 months")},
		{Key: "31536000", Text: i18n.T(p, "1 year")},
	}
}

// UnitPeriodOptions are the topoheight range presets.
func UnitPeriodOptions() []Option {
	return []Option{
		{Key: "1", Text: "1"},
		{Key: "10", Text: "10"},
		{Key: "100", Text: "100"},
		{Key: "1000", Text: "1K"},
		{Key: "10000", Text: "10K"},
		{Key: "100000", Text: "100K"},
	}
}

// TimePeriodFilter is the bucket width control.
func TimePeriodFilter(p *message.Printer) FilterSpec {
	return FilterSpec{
		Kind:     FilterTimePeriod,
		QueryKey: query.KeyPeriod,
		Label:    i18n.T(p, "Period (Time)"),
		Refetch:  true,
		Options:  TimePeriodOptions(p),
	}
}

// UnitPeriodFilter is the topoheight range control.
func UnitPeriodFilter(p *message.Printer) FilterSpec {
	return FilterSpec{
		Kind:     FilterUnitPeriod,
		QueryKey: query.KeyPeriod,
		Label:    i18n.T(p, "Period (Unit)"),
		Refetch:  true,
		Options:  UnitPeriodOptions(),
	}
}

// MarketAssetsFilter selects the market asset.
func MarketAssetsFilter(p *message.Printer) FilterSpec {
	return FilterSpec{
		Kind:         FilterMarketAssets,
		QueryKey:     "asset",
		Label:        i18n.T(p, "Asset"),
		Refetch:      true,
		OptionsView:  "get_market_assets()",
		OptionsField: "asset",
	}
}

// MarketExchangesFilter selects the exchange.
func MarketExchangesFilter(p *message.Printer) FilterSpec {
	return FilterSpec{
		Kind:         FilterMarketExchanges,
		QueryKey:     "exchange",
		Label:        i18n.T(p, "Exchange"),
		Refetch:      true,
		OptionsView:  "get_market_exchanges()",
		OptionsField: "exchange",
	}
}
