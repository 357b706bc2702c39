// Package view opens a data source with a query state and produces its
// table and chart.
package view

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/text/language"

	"xelis-stats/internal/chart"
	"xelis-stats/internal/fetchstate"
	"xelis-stats/internal/query"
	"xelis-stats/internal/source"
	"xelis-stats/internal/table"
	"xelis-stats/internal/viewapi"
)

// Result is everything a view page displays.
type Result struct {
	Source  *source.Source
	State   query.State
	Rows    []viewapi.Row
	Count   int
	Table   table.Table
	Series  *chart.SeriesData
	Err     error
	Loading bool
}

// ErrorText returns the error message or "".
func (r *Result) ErrorText() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Options configures a Page.
type Options struct {
	Theme  chart.Theme
	Logger *slog.Logger
}

type loaderKey struct {
	lang    string
	source  string
	refetch string
}

// Page keeps the loader and chart session of one open view. A loader is
// keyed by source and refetch token only, so other query changes reuse
// the last fetch until the token changes.
type Page struct {
	registry *source.Registry
	session  *chart.Session
	opts     Options

	mu     sync.Mutex
	key    loaderKey
	loader *fetchstate.Loader
}

// NewPage creates a page over a source registry.
func NewPage(registry *source.Registry, opts Options) *Page {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Theme == "" {
		opts.Theme = chart.ThemeLight
	}
	return &Page{
		registry: registry,
		session:  chart.NewSession(),
		opts:     opts,
	}
}

// Session returns the chart session.
func (p *Page) Session() *chart.Session {
	return p.session
}

// Open resolves the source, fetches when the source or refetch token
// changed, and builds the table and chart. Fetch and mapping errors are
// reported in the result.
func (p *Page) Open(ctx context.Context, lang language.Tag, key string, s query.State) *Result {
	src := p.registry.Resolve(lang, key)
	s = s.Clone()
	s.DataSource = key

	loader, fresh := p.loaderFor(lang, src, s)
	if fresh {
		p.session.BeginUpdate()
		if err := loader.Load(ctx); err != nil {
			p.opts.Logger.Warn("view fetch failed", "source", key, "error", err)
		}
	}
	snap := loader.Snapshot()

	res := &Result{
		Source:  src,
		State:   s,
		Rows:    snap.Rows,
		Count:   snap.Count,
		Table:   table.Build(src, s, snap.Rows),
		Err:     snap.Err,
		Loading: snap.Loading,
	}

	if s.ViewOrDefault() == query.ViewChart && s.ChartKey != "" {
		p.session.Bind(src, s.ChartKey, chartView(s), p.opts.Theme)
		data, err := p.session.SetData(snap.Rows, s.MinMaxEnabled())
		switch {
		case err == nil:
			res.Series = data
		case res.Err == nil && !errors.Is(err, chart.ErrNotBound):
			res.Err = err
		}
	}
	return res
}

func (p *Page) loaderFor(lang language.Tag, src *source.Source, s query.State) (*fetchstate.Loader, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := loaderKey{lang: lang.String(), source: src.Key, refetch: s.Refetch}
	if p.loader != nil && key == p.key {
		return p.loader, false
	}

	p.key = key
	p.loader = fetchstate.New(func(ctx context.Context) (*viewapi.Result, error) {
		return src.Fetch(ctx, s)
	}, fetchstate.Options{ClearOnLoad: true, Logger: p.opts.Logger})
	return p.loader, true
}

func chartView(s query.State) query.ChartView {
	if s.ChartView == "" {
		return query.ChartLine
	}
	return s.ChartView
}

// RenderChart writes the chart page of a result.
func RenderChart(w io.Writer, res *Result, theme chart.Theme) error {
	col, ok := res.Source.Column(res.State.ChartKey)
	if !ok {
		return fmt.Errorf("chart key %q: %w", res.State.ChartKey, chart.ErrNotBound)
	}
	return chart.Render(w, res.Source, col, res.Series, chart.Options{
		ChartView: chartView(res.State),
		Theme:     theme,
		MinMax:    res.State.MinMaxEnabled(),
		Title:     res.Source.Title,
	})
}
