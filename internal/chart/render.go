package chart

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"xelis-stats/internal/query"
	"xelis-stats/internal/source"
)

// Options controls rendering.
type Options struct {
	ChartView query.ChartView
	Theme     Theme
	MinMax    bool
	Title     string
}

func (o Options) initOpts() charts.GlobalOpts {
	theme := types.ThemeWesteros
	if o.Theme == ThemeDark {
		theme = types.ThemeChalk
	}
	return charts.WithInitializationOpts(opts.Initialization{
		PageTitle: o.Title,
		Theme:     theme,
		Width:     "100%",
		Height:    "480px",
	})
}

func (o Options) globalOpts(title string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		o.initOpts(),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	}
}

func markLines(data *SeriesData, enabled bool) []charts.SeriesOpts {
	var out []charts.SeriesOpts
	for _, l := range data.ReferenceLines(enabled) {
		out = append(out, charts.WithMarkLineNameYAxisItemOpts(opts.MarkLineNameYAxisItem{
			Name:  l.Name,
			YAxis: l.Value,
		}))
	}
	return out
}

// Render writes an HTML page with the chart of one column. An empty data
// set renders an empty chart.
func Render(w io.Writer, src *source.Source, col source.Column, data *SeriesData, o Options) error {
	if data == nil {
		data = &SeriesData{}
	}
	if o.Title == "" {
		o.Title = src.Title
	}

	page := components.NewPage()
	page.PageTitle = o.Title

	switch o.ChartView {
	case query.ChartCandlestick:
		page.AddCharts(candleChart(src, col, data, o))
	case query.ChartHistogram:
		page.AddCharts(histogramChart(src, col, data, o))
	default:
		page.AddCharts(lineChart(src, col, data, o))
	}

	if len(data.Bottom) > 0 {
		page.AddCharts(bottomChart(src, col, data, o))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render chart %s/%s: %w", src.Key, col.Key, err)
	}
	return nil
}

func xAxis(src *source.Source, times []float64) []string {
	labels := make([]string, len(times))
	for i, t := range times {
		labels[i] = src.FormatTime(t)
	}
	return labels
}

func pointTimes(points []Point) []float64 {
	times := make([]float64, len(points))
	for i, p := range points {
		times[i] = p.Time
	}
	return times
}

func lineChart(src *source.Source, col source.Column, data *SeriesData, o Options) *charts.Line {
	values := make([]opts.LineData, len(data.Points))
	for i, p := range data.Points {
		values[i] = opts.LineData{Value: p.Value}
	}

	series := markLines(data, o.MinMax)
	if o.ChartView == query.ChartArea {
		series = append(series, charts.WithAreaStyleOpts(opts.AreaStyle{}))
	}

	line := charts.NewLine()
	line.SetGlobalOptions(o.globalOpts(col.Title)...)
	line.SetXAxis(xAxis(src, pointTimes(data.Points))).
		AddSeries(col.Title, values, series...)
	return line
}

func histogramChart(src *source.Source, col source.Column, data *SeriesData, o Options) *charts.Bar {
	values := make([]opts.BarData, len(data.Points))
	for i, p := range data.Points {
		values[i] = opts.BarData{Value: p.Value}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(o.globalOpts(col.Title)...)
	bar.SetXAxis(xAxis(src, pointTimes(data.Points))).
		AddSeries(col.Title, values, markLines(data, o.MinMax)...)
	return bar
}

func candleChart(src *source.Source, col source.Column, data *SeriesData, o Options) *charts.Kline {
	times := make([]float64, len(data.Candles))
	values := make([]opts.KlineData, len(data.Candles))
	for i, c := range data.Candles {
		times[i] = c.Time
		values[i] = opts.KlineData{Value: [4]float64{c.Open, c.Close, c.Low, c.High}}
	}

	series := append(markLines(data, o.MinMax), charts.WithItemStyleOpts(opts.ItemStyle{
		Color:        "#26a69a",
		Color0:       "#ef5350",
		BorderColor:  "#26a69a",
		BorderColor0: "#ef5350",
	}))

	kline := charts.NewKLine()
	kline.SetGlobalOptions(o.globalOpts(col.Title)...)
	kline.SetXAxis(xAxis(src, times)).
		AddSeries(col.Title, values, series...)
	return kline
}

func bottomChart(src *source.Source, col source.Column, data *SeriesData, o Options) *charts.Bar {
	values := make([]opts.BarData, len(data.Bottom))
	for i, p := range data.Bottom {
		values[i] = opts.BarData{Value: p.Value}
	}

	title := col.BottomChartKey
	if c, ok := src.Column(col.BottomChartKey); ok {
		title = c.Title
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		o.initOpts(),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)
	bar.SetXAxis(xAxis(src, pointTimes(data.Bottom))).
		AddSeries(title, values, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#e6c200"}))
	return bar
}
