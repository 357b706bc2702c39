package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"xelis-stats/internal/emission"
	"xelis-stats/internal/fetchstate"
	"xelis-stats/internal/observability"
	"xelis-stats/internal/viewapi"
)

// DefaultRefreshInterval matches the page auto update countdown.
const DefaultRefreshInterval = 60 * time.Second

// Options configures a Board.
type Options struct {
	// MaxConcurrent bounds parallel box loads. Zero means one goroutine
	// per box.
	MaxConcurrent int

	// OnUpdate receives a snapshot after every UpdateAll.
	OnUpdate func(Snapshot)

	Logger *slog.Logger
	Now    func() time.Time
}

// BoxState is the JSON view of one box.
type BoxState struct {
	Name         string        `json:"name"`
	Title        string        `json:"title"`
	Link         string        `json:"link,omitempty"`
	Loading      bool          `json:"loading"`
	FirstLoading bool          `json:"first_loading"`
	Error        string        `json:"error,omitempty"`
	Rows         []viewapi.Row `json:"rows"`
	Count        int           `json:"count"`
}

// Snapshot is the state of every box of a board.
type Snapshot struct {
	Board     string     `json:"board"`
	UpdatedAt time.Time  `json:"updated_at"`
	Boxes     []BoxState `json:"boxes"`
}

// Box returns the state of a box by name.
func (s Snapshot) Box(name string) (BoxState, bool) {
	for _, b := range s.Boxes {
		if b.Name == name {
			return b, true
		}
	}
	return BoxState{}, false
}

// Board owns one loader per box. Boxes load independently: a failing box
// keeps its previous rows and never cancels its siblings.
type Board struct {
	name    string
	boxes   []Box
	loaders []*fetchstate.Loader
	opts    Options

	mu        sync.RWMutex
	updatedAt time.Time
}

// NewBoard creates a board over a fetcher.
func NewBoard(name string, f viewapi.Fetcher, boxes []Box, opts Options) *Board {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	b := &Board{name: name, boxes: boxes, opts: opts}
	b.loaders = make([]*fetchstate.Loader, len(boxes))
	for i, box := range boxes {
		b.loaders[i] = fetchstate.New(loadFunc(f, box), fetchstate.Options{
			AutoLoad: true,
			Logger:   opts.Logger.With("board", name, "box", box.Name),
		})
	}
	return b
}

func loadFunc(f viewapi.Fetcher, box Box) fetchstate.LoadFunc {
	switch box.Kind {
	case KindTopMiners:
		return func(ctx context.Context) (*viewapi.Result, error) {
			return CompareMiners(ctx, f, box.Params)
		}
	case KindSupply:
		return func(context.Context) (*viewapi.Result, error) {
			rows := emission.Rows(emission.DefaultYears)
			return &viewapi.Result{Rows: rows, Count: len(rows)}, nil
		}
	}
	return func(ctx context.Context) (*viewapi.Result, error) {
		return f.FetchView(ctx, box.View, box.Params)
	}
}

// Name returns the board name.
func (b *Board) Name() string {
	return b.name
}

// Boxes returns the box definitions.
func (b *Board) Boxes() []Box {
	return b.boxes
}

// UpdateAll reloads every box concurrently and waits for all of them.
func (b *Board) UpdateAll(ctx context.Context) {
	p := pool.New()
	if b.opts.MaxConcurrent > 0 {
		p = p.WithMaxGoroutines(b.opts.MaxConcurrent)
	}
	for i, l := range b.loaders {
		p.Go(func() {
			if err := l.Load(ctx); err != nil {
				b.opts.Logger.Warn("box load failed", "board", b.name, "box", b.boxes[i].Name, "error", err)
			}
		})
	}
	p.Wait()

	now := b.opts.Now()
	b.mu.Lock()
	b.updatedAt = now
	b.mu.Unlock()
	observability.RecordDashboardRefresh(b.name, float64(now.Unix()))

	if b.opts.OnUpdate != nil {
		b.opts.OnUpdate(b.Snapshot())
	}
}

// Run updates immediately and then every interval until ctx is done.
func (b *Board) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	b.UpdateAll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			b.UpdateAll(ctx)
		}
	}
}

// State returns the fetch state of a box.
func (b *Board) State(name string) (fetchstate.State, bool) {
	for i, box := range b.boxes {
		if box.Name == name {
			return b.loaders[i].Snapshot(), true
		}
	}
	return fetchstate.State{}, false
}

// Snapshot returns the state of every box.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	updated := b.updatedAt
	b.mu.RUnlock()

	snap := Snapshot{Board: b.name, UpdatedAt: updated, Boxes: make([]BoxState, len(b.boxes))}
	for i, box := range b.boxes {
		s := b.loaders[i].Snapshot()
		snap.Boxes[i] = BoxState{
			Name:         box.Name,
			Title:        box.Title,
			Link:         box.Link,
			Loading:      s.Loading,
			FirstLoading: s.FirstLoading,
			Error:        s.ErrorText(),
			Rows:         s.Rows,
			Count:        s.Count,
		}
	}
	return snap
}
