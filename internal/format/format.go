// Package format renders view values for display: XEL amounts, hash
// rates, sizes, locale numbers, timestamps and durations.
package format

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"xelis-stats/internal/viewapi"
)

// XELDecimals is the number of atomic decimals of a XEL coin.
const XELDecimals = 8

// BlockTimeSeconds is the target block time used to derive hash rate
// from difficulty.
const BlockTimeSeconds = 15

// TimeLayout is used for timestamps in tables and axis labels.
const TimeLayout = "2006-01-02 15:04:05"

// ToDecimal converts a decoded row value to a decimal without going
// through float64 when the source is textual.
func ToDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		return d, err == nil
	case int64:
		return decimal.NewFromInt(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	}
	if f, ok := viewapi.ToFloat(v); ok {
		return decimal.NewFromFloat(f), true
	}
	return decimal.Zero, false
}

// Atomic converts an atomic amount to coins.
func Atomic(v any) (decimal.Decimal, bool) {
	d, ok := ToDecimal(v)
	if !ok {
		return decimal.Zero, false
	}
	return d.Shift(-XELDecimals), true
}

// XEL formats an atomic amount as "1,234.5 XEL". Non-numeric input
// yields "".
func XEL(v any) string {
	s := XELPlain(v)
	if s == "" {
		return ""
	}
	return s + " XEL"
}

// XELPlain formats an atomic amount without the suffix.
func XELPlain(v any) string {
	d, ok := Atomic(v)
	if !ok {
		return ""
	}
	return groupDecimal(d.Round(XELDecimals))
}

func groupDecimal(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	s := d.String()
	intPart, frac, hasFrac := strings.Cut(s, ".")
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err == nil {
		intPart = humanize.Comma(n)
	}
	if hasFrac {
		return sign + intPart + "." + frac
	}
	return sign + intPart
}

// HashRate formats a hash rate in H/s with SI prefixes.
func HashRate(hps float64) string {
	return humanize.SIWithDigits(hps, 2, "H/s")
}

// Difficulty formats a block difficulty as the matching hash rate.
func Difficulty(v any) string {
	f, ok := viewapi.ToFloat(v)
	if !ok {
		return ""
	}
	return HashRate(f / BlockTimeSeconds)
}

// Size formats a byte count.
func Size(v any) string {
	f, ok := viewapi.ToFloat(v)
	if !ok || f < 0 {
		return ""
	}
	return humanize.Bytes(uint64(math.Round(f)))
}

// Number formats a value with locale grouping, at most 3 fraction digits.
func Number(p *message.Printer, v any) string {
	f, ok := viewapi.ToFloat(v)
	if !ok {
		return ""
	}
	if p == nil {
		return humanize.Commaf(math.Round(f*1000) / 1000)
	}
	return p.Sprint(number.Decimal(f, number.MaxFractionDigits(3)))
}

// Time formats a timestamp value (RFC 3339 text, unix seconds or unix
// milliseconds) in UTC.
func Time(v any) string {
	t, ok := ToTime(v)
	if !ok {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}

// ToTime converts a row value to a time.
func ToTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if ts, ok := viewapi.ParseTime(t); ok {
			return ts, true
		}
	}
	f, ok := viewapi.ToFloat(v)
	if !ok {
		return time.Time{}, false
	}
	// Values past year 2286 in seconds are milliseconds.
	if math.Abs(f) >= 1e10 {
		return time.UnixMilli(int64(f)), true
	}
	return time.Unix(int64(f), 0), true
}

// Unix formats unix seconds, used for time-keyed chart axes.
func Unix(sec float64) string {
	return time.Unix(int64(sec), 0).UTC().Format(TimeLayout)
}

// Duration formats milliseconds the compact way: "1d 2h 3m 4.5s".
func Duration(v any) string {
	ms, ok := viewapi.ToFloat(v)
	if !ok {
		return ""
	}
	if ms < 0 {
		return "-" + Duration(-ms)
	}
	if ms < 1000 {
		return strconv.FormatFloat(math.Round(ms), 'f', -1, 64) + "ms"
	}

	total := time.Duration(ms * float64(time.Millisecond))
	days := total / (24 * time.Hour)
	total -= days * 24 * time.Hour
	hours := total / time.Hour
	total -= hours * time.Hour
	minutes := total / time.Minute
	total -= minutes * time.Minute
	seconds := total.Seconds()

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if seconds > 0 {
		s := strconv.FormatFloat(math.Floor(seconds*10)/10, 'f', -1, 64)
		parts = append(parts, s+"s")
	}
	return strings.Join(parts, " ")
}

// Percent appends a percent sign to a value.
func Percent(v any) string {
	f, ok := viewapi.ToFloat(v)
	if !ok {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64) + "%"
}

// Raw displays a value as-is, "" for nil.
func Raw(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
