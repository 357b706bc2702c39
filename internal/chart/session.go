package chart

import (
	"sync"

	"xelis-stats/internal/query"
	"xelis-stats/internal/source"
	"xelis-stats/internal/viewapi"
)

// Theme selects chart colors.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Phase is the lifecycle state of a chart session.
type Phase int

const (
	PhaseNoColumn Phase = iota
	PhaseBound
	PhaseLoaded
	PhaseUpdating
)

func (p Phase) String() string {
	switch p {
	case PhaseNoColumn:
		return "no_column"
	case PhaseBound:
		return "bound"
	case PhaseLoaded:
		return "loaded"
	case PhaseUpdating:
		return "updating"
	}
	return "unknown"
}

// BindKey identifies the series a session is bound to. Any change tears
// the series down.
type BindKey struct {
	Source    string
	Column    string
	ChartView query.ChartView
	Theme     Theme
}

// Session keeps one chart's series across data updates. The primary
// series lives as long as its BindKey; the bottom series and reference
// lines are rebuilt with every data update.
type Session struct {
	mu sync.Mutex

	phase  Phase
	key    BindKey
	src    *source.Source
	col    source.Column
	data   *SeriesData
	lines  []ReferenceLine
	bottom bool

	teardowns    int
	lineRemovals int
}

// NewSession creates an unbound session.
func NewSession() *Session {
	return &Session{}
}

// Bind attaches the session to a source column. Binding the same key again
// keeps the current series. A column that is not in the source unbinds.
// Reports whether the series was recreated.
func (s *Session) Bind(src *source.Source, chartKey string, chartView query.ChartView, theme Theme) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := src.Column(chartKey)
	if !ok {
		if s.phase != PhaseNoColumn {
			s.teardownLocked()
		}
		s.phase = PhaseNoColumn
		s.key = BindKey{}
		return false
	}

	key := BindKey{Source: src.Key, Column: col.Key, ChartView: chartView, Theme: theme}
	if s.phase != PhaseNoColumn && key == s.key {
		return false
	}
	if s.phase != PhaseNoColumn {
		s.teardownLocked()
	}

	s.key = key
	s.src = src
	s.col = col
	s.phase = PhaseBound
	return true
}

func (s *Session) teardownLocked() {
	s.teardowns++
	s.data = nil
	s.lines = nil
	s.bottom = false
	s.src = nil
	s.col = source.Column{}
}

// BeginUpdate marks a reload of a loaded chart.
func (s *Session) BeginUpdate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseLoaded {
		s.phase = PhaseUpdating
	}
}

// SetData maps rows onto the bound series. Previous reference lines are
// removed before new ones are added.
func (s *Session) SetData(rows []viewapi.Row, minMax bool) (*SeriesData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseNoColumn {
		return nil, ErrNotBound
	}

	data, err := BuildSeries(s.src, s.col, s.key.ChartView, rows)
	if err != nil {
		return nil, err
	}

	s.lineRemovals += len(s.lines)
	s.lines = data.ReferenceLines(minMax)
	s.bottom = len(data.Bottom) > 0
	s.data = data
	s.phase = PhaseLoaded
	return data, nil
}

// State describes the session for inspection.
type State struct {
	Phase  Phase
	Key    BindKey
	Data   *SeriesData
	Lines  []ReferenceLine
	Bottom bool
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Phase:  s.phase,
		Key:    s.key,
		Data:   s.data,
		Lines:  append([]ReferenceLine(nil), s.lines...),
		Bottom: s.bottom,
	}
}

// Teardowns returns how many times the primary series was destroyed.
func (s *Session) Teardowns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.teardowns
}

// LineRemovals returns how many reference lines were removed.
func (s *Session) LineRemovals() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lineRemovals
}
