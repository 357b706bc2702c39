// Package fetchstate tracks the loading state of a view fetch: rows,
// count, error and loading flags, with manual and token-driven reloads.
package fetchstate

import (
	"context"
	"log/slog"
	"sync"

	"xelis-stats/internal/observability"
	"xelis-stats/internal/viewapi"
)

// LoadFunc performs one fetch.
type LoadFunc func(ctx context.Context) (*viewapi.Result, error)

// State is a snapshot of a loader.
type State struct {
	Loading      bool
	FirstLoading bool
	Err          error
	Rows         []viewapi.Row
	Count        int
}

// ErrorText returns the error message or "".
func (s State) ErrorText() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// Options configures a Loader.
type Options struct {
	// AutoLoad makes Start fetch immediately.
	AutoLoad bool

	// ClearOnLoad empties rows when a load starts. Otherwise rows from the
	// last success stay visible, also after a failure.
	ClearOnLoad bool

	// OnChange is called after every state transition.
	OnChange func(State)

	Logger *slog.Logger
}

// Loader runs fetches and keeps the latest state. Each load takes a
// generation number and only the latest generation may apply its result.
type Loader struct {
	load LoadFunc
	opts Options

	mu     sync.Mutex
	state  State
	gen    uint64
	loaded bool
	token  string
}

// New creates a loader over a fetch function.
func New(load LoadFunc, opts Options) *Loader {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Loader{
		load:  load,
		opts:  opts,
		state: State{Rows: []viewapi.Row{}},
	}
}

// NewLoader creates a loader for a fixed view and params.
func NewLoader(f viewapi.Fetcher, view string, params viewapi.Params, opts Options) *Loader {
	return New(func(ctx context.Context) (*viewapi.Result, error) {
		return f.FetchView(ctx, view, params)
	}, opts)
}

// Start loads once if AutoLoad is set.
func (l *Loader) Start(ctx context.Context) error {
	if !l.opts.AutoLoad {
		return nil
	}
	return l.Load(ctx)
}

// Load fetches and applies the result unless a newer load started in the
// meantime. It returns the fetch error of this call.
func (l *Loader) Load(ctx context.Context) error {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.state.Loading = true
	l.state.Err = nil
	if !l.loaded {
		l.state.FirstLoading = true
	}
	if l.opts.ClearOnLoad {
		l.state.Rows = []viewapi.Row{}
		l.state.Count = 0
	}
	started := l.state
	l.mu.Unlock()
	l.notify(started)

	result, err := l.load(ctx)

	l.mu.Lock()
	if gen != l.gen {
		l.mu.Unlock()
		observability.RecordStaleDrop()
		l.opts.Logger.Debug("dropped stale fetch result", "generation", gen)
		return err
	}

	l.state.Loading = false
	l.state.FirstLoading = false
	if err != nil {
		l.state.Err = err
	} else {
		rows := result.Rows
		if rows == nil {
			rows = []viewapi.Row{}
		}
		l.state.Rows = rows
		l.state.Count = result.Count
		l.loaded = true
	}
	done := l.state
	l.mu.Unlock()
	l.notify(done)

	return err
}

// SetReloadToken loads again when the token differs from the last one.
// The token value itself carries no meaning. Reports whether a load ran.
func (l *Loader) SetReloadToken(ctx context.Context, token string) (bool, error) {
	l.mu.Lock()
	if token == l.token {
		l.mu.Unlock()
		return false, nil
	}
	l.token = token
	l.mu.Unlock()
	return true, l.Load(ctx)
}

// Snapshot returns the current state.
func (l *Loader) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Loader) notify(s State) {
	if l.opts.OnChange != nil {
		l.opts.OnChange(s)
	}
}
