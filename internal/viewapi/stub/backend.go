// Package stub provides an in-memory view backend for tests and demo mode.
package stub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"xelis-stats/internal/query"
	"xelis-stats/internal/viewapi"
)

// failure is a canned error response for a view.
type failure struct {
	status int
	body   string
}

// Backend serves fixture rows with the same where/order/limit/offset/count
// semantics as the real views endpoint. It implements both http.Handler and
// viewapi.Fetcher.
type Backend struct {
	mu       sync.RWMutex
	views    map[string][]viewapi.Row
	failures map[string]failure
	hits     map[string]int
	last     map[string]viewapi.Params
}

var (
	_ viewapi.Fetcher = (*Backend)(nil)
	_ http.Handler    = (*Backend)(nil)
)

// NewBackend creates an empty stub backend.
func NewBackend() *Backend {
	return &Backend{
		views:    make(map[string][]viewapi.Row),
		failures: make(map[string]failure),
		hits:     make(map[string]int),
		last:     make(map[string]viewapi.Params),
	}
}

// SetView replaces the rows of a view.
func (b *Backend) SetView(name string, rows []viewapi.Row) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.views[name] = rows
	delete(b.failures, name)
}

// Fail makes every request to the view fail with status and body.
func (b *Backend) Fail(name string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[name] = failure{status: status, body: body}
}

// Recover clears a failure set by Fail.
func (b *Backend) Recover(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, name)
}

// Hits returns the number of requests made for a view.
func (b *Backend) Hits(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.hits[name]
}

// LastParams returns the params of the latest request for a view.
func (b *Backend) LastParams(name string) viewapi.Params {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last[name]
}

// FetchView answers in-process without HTTP.
func (b *Backend) FetchView(ctx context.Context, view string, params viewapi.Params) (*viewapi.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, &viewapi.FetchError{View: view, Err: err}
	}
	result, status, body := b.query(view, params)
	if status != http.StatusOK {
		return nil, &viewapi.FetchError{
			View:       view,
			StatusCode: status,
			Body:       body,
			Err:        fmt.Errorf("unexpected status %d", status),
		}
	}
	return result, nil
}

// ServeHTTP handles GET /views/{name}.
func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name, ok := strings.CutPrefix(r.URL.Path, "/views/")
	if !ok || name == "" {
		http.NotFound(w, r)
		return
	}

	result, status, body := b.query(name, viewapi.ParamsFromValues(r.URL.Query()))
	if status != http.StatusOK {
		http.Error(w, body, status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (b *Backend) query(name string, params viewapi.Params) (*viewapi.Result, int, string) {
	b.mu.Lock()
	b.hits[name]++
	b.last[name] = params
	f, failing := b.failures[name]
	source, found := b.views[name]
	b.mu.Unlock()

	if failing {
		return nil, f.status, f.body
	}
	if !found {
		return nil, http.StatusNotFound, fmt.Sprintf("view %s does not exist", name)
	}

	rows, err := filterRows(source, params.Where)
	if err != nil {
		return nil, http.StatusBadRequest, err.Error()
	}
	if err := sortRows(rows, params.Order); err != nil {
		return nil, http.StatusBadRequest, err.Error()
	}

	result := &viewapi.Result{}
	if params.Count {
		result.Count = len(rows)
	}

	if params.Offset > 0 {
		if params.Offset >= len(rows) {
			rows = rows[:0]
		} else {
			rows = rows[params.Offset:]
		}
	}
	if params.Limit > 0 && params.Limit < len(rows) {
		rows = rows[:params.Limit]
	}

	result.Rows = make([]viewapi.Row, len(rows))
	copy(result.Rows, rows)
	return result, http.StatusOK, ""
}

func filterRows(rows []viewapi.Row, tokens []string) ([]viewapi.Row, error) {
	filters := make([]query.Filter, 0, len(tokens))
	for _, token := range tokens {
		f, err := query.ParseFilter(token)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}

	out := make([]viewapi.Row, 0, len(rows))
	for _, row := range rows {
		if matchAll(row, filters) {
			out = append(out, row)
		}
	}
	return out, nil
}

func matchAll(row viewapi.Row, filters []query.Filter) bool {
	for _, f := range filters {
		v, ok := row.Value(f.Field)
		if !ok {
			return false
		}
		if f.Op == query.OpLike {
			if !like(row.String(f.Field), f.Value) {
				return false
			}
			continue
		}
		c := compare(v, f.Value)
		switch f.Op {
		case query.OpEq:
			if c != 0 {
				return false
			}
		case query.OpNeq:
			if c == 0 {
				return false
			}
		case query.OpGt:
			if c <= 0 {
				return false
			}
		case query.OpGte:
			if c < 0 {
				return false
			}
		case query.OpLt:
			if c >= 0 {
				return false
			}
		case query.OpLte:
			if c > 0 {
				return false
			}
		}
	}
	return true
}

// like implements SQL LIKE with % wildcards, case-insensitive.
func like(s, pattern string) bool {
	s = strings.ToLower(s)
	parts := strings.Split(strings.ToLower(pattern), "%")
	if len(parts) == 1 {
		return s == parts[0]
	}
	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]
	last := parts[len(parts)-1]
	for _, p := range parts[1 : len(parts)-1] {
		i := strings.Index(s, p)
		if i < 0 {
			return false
		}
		s = s[i+len(p):]
	}
	return strings.HasSuffix(s, last)
}

// compare orders a row value against a filter operand: numerically when
// both are numbers, chronologically when both are timestamps, otherwise
// lexically.
func compare(v any, operand string) int {
	if a, ok := viewapi.ToFloat(v); ok {
		if b, ok := viewapi.ToFloat(operand); ok {
			switch {
			case a < b:
				return -1
			case a > b:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(v), operand)
}

func compareValues(a, b any) int {
	fa, okA := viewapi.ToFloat(a)
	fb, okB := viewapi.ToFloat(b)
	if okA && okB {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func sortRows(rows []viewapi.Row, tokens []string) error {
	orders := make([]query.Order, 0, len(tokens))
	for _, token := range tokens {
		o, err := query.ParseOrder(token)
		if err != nil {
			return err
		}
		orders = append(orders, o)
	}
	if len(orders) == 0 {
		return nil
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range orders {
			c := compareValues(rows[i][o.Field], rows[j][o.Field])
			if c == 0 {
				continue
			}
			if o.Direction == query.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return nil
}
