package controls

import (
	"sort"
	"time"

	"xelis-stats/internal/query"
	"xelis-stats/internal/source"
)

// ColumnEditor stages the sort and filter of one column until applied.
type ColumnEditor struct {
	Key   string
	Sort  query.Direction // empty means no sort
	Op    query.Operator
	Value string // empty means no filter
}

// NewColumnEditor seeds an editor from the committed state.
func NewColumnEditor(s query.State, key string) ColumnEditor {
	e := ColumnEditor{Key: key, Op: query.OpEq}
	if dir, ok := s.OrderMap()[key]; ok {
		e.Sort = dir
	}
	if f, ok := s.WhereMap()[key]; ok {
		e.Op = f.Op
		e.Value = f.Value
	}
	return e
}

// Apply commits the staged values into the state and writes a new refetch
// token.
func (e ColumnEditor) Apply(s query.State, src *source.Source, now time.Time) query.State {
	orders := s.OrderMap()
	if e.Sort != "" {
		orders[e.Key] = e.Sort
	} else {
		delete(orders, e.Key)
	}

	wheres := s.WhereMap()
	if e.Value != "" {
		op := e.Op
		if op == "" {
			op = query.OpEq
		}
		wheres[e.Key] = query.Filter{Field: e.Key, Op: op, Value: e.Value}
	} else {
		delete(wheres, e.Key)
	}

	c := s.Clone()
	c.Order = nil
	for _, k := range fieldOrder(src, orders) {
		c.Order = append(c.Order, query.Order{Field: k, Direction: orders[k]})
	}
	c.Where = nil
	for _, k := range fieldOrder(src, wheres) {
		c.Where = append(c.Where, wheres[k])
	}
	c.Refetch = RefetchToken(now)
	return c
}

// Reset clears the column's sort and filter and commits.
func (e *ColumnEditor) Reset(s query.State, src *source.Source, now time.Time) query.State {
	e.Sort = ""
	e.Op = query.OpEq
	e.Value = ""
	return e.Apply(s, src, now)
}

// fieldOrder lists map keys in source column order, then unknown keys
// sorted by name.
func fieldOrder[V any](src *source.Source, m map[string]V) []string {
	keys := make([]string, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, k := range src.ColumnKeys() {
		if _, ok := m[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}

	var rest []string
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}
