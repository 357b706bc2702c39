// Package chart maps view rows onto time series and renders them with
// go-echarts.
package chart

import (
	"fmt"
	"math"
	"sort"

	"xelis-stats/internal/query"
	"xelis-stats/internal/source"
	"xelis-stats/internal/viewapi"
)

// Point is one scalar sample.
type Point struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// Candle is one OHLC sample.
type Candle struct {
	Time  float64 `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// SeriesData holds the mapped chart data, sorted by ascending time.
type SeriesData struct {
	Points  []Point  `json:"points,omitempty"`
	Candles []Candle `json:"candles,omitempty"`
	Bottom  []Point  `json:"bottom,omitempty"`

	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	HasRange bool    `json:"has_range"`
}

// Len returns the number of primary samples.
func (d *SeriesData) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Points) + len(d.Candles)
}

// ReferenceLine is a horizontal mark line.
type ReferenceLine struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// ReferenceLines returns the min and max lines, or none when disabled or
// when there is no data.
func (d *SeriesData) ReferenceLines(enabled bool) []ReferenceLine {
	if !enabled || d == nil || !d.HasRange {
		return nil
	}
	return []ReferenceLine{
		{Name: "Max", Value: d.Max},
		{Name: "Min", Value: d.Min},
	}
}

func (d *SeriesData) observe(lo, hi float64) {
	if !d.HasRange {
		d.Min, d.Max, d.HasRange = lo, hi, true
		return
	}
	d.Min = math.Min(d.Min, lo)
	d.Max = math.Max(d.Max, hi)
}

// BuildSeries maps rows to chart data. Every row must resolve a time
// through the source row key. Rows missing the charted value are skipped.
func BuildSeries(src *source.Source, col source.Column, chartView query.ChartView, rows []viewapi.Row) (*SeriesData, error) {
	candle := chartView == query.ChartCandlestick
	if candle != col.IsCandle() {
		return nil, fmt.Errorf("%w: %s as %s", ErrColumnKind, col.Key, chartView)
	}

	data := &SeriesData{}
	for i, row := range rows {
		t, ok := src.RowKey.Value(row, i)
		if !ok {
			return nil, &MappingError{Source: src.Key, Column: col.Key, Index: i}
		}

		if candle {
			c, ok := candleOf(col.Candle, row, t)
			if ok {
				data.Candles = append(data.Candles, c)
				data.observe(c.Low, c.High)
			}
		} else if v, ok := col.Scalar(row, i); ok {
			data.Points = append(data.Points, Point{Time: t, Value: v})
			data.observe(v, v)
		}

		if col.BottomChartKey != "" {
			if v, ok := row.Float(col.BottomChartKey); ok {
				data.Bottom = append(data.Bottom, Point{Time: t, Value: v})
			}
		}
	}

	sort.SliceStable(data.Points, func(i, j int) bool { return data.Points[i].Time < data.Points[j].Time })
	sort.SliceStable(data.Candles, func(i, j int) bool { return data.Candles[i].Time < data.Candles[j].Time })
	sort.SliceStable(data.Bottom, func(i, j int) bool { return data.Bottom[i].Time < data.Bottom[j].Time })
	return data, nil
}

func candleOf(m *source.CandleMapping, row viewapi.Row, t float64) (Candle, bool) {
	high, ok1 := row.Float(m.HighKey)
	low, ok2 := row.Float(m.LowKey)
	open, ok3 := row.Float(m.OpenKey)
	closing, ok4 := row.Float(m.CloseKey)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return Candle{}, false
	}
	return Candle{Time: t, Open: open, High: high, Low: low, Close: closing}, true
}
