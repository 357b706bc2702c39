package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"xelis-stats/internal/chart"
	"xelis-stats/internal/controls"
	"xelis-stats/internal/dashboard"
	"xelis-stats/internal/i18n"
	"xelis-stats/internal/observability"
	"xelis-stats/internal/query"
	"xelis-stats/internal/source"
	"xelis-stats/internal/storage"
	"xelis-stats/internal/table"
	"xelis-stats/internal/view"
	"xelis-stats/internal/viewapi"
)

const defaultSnapshotLimit = 50

// Options configures a Server.
type Options struct {
	Fetcher   viewapi.Fetcher
	Snapshots storage.SnapshotStore // nil disables the archive routes

	// Layout replaces the built-in dashboard boxes when set.
	Layout *dashboard.Layout

	Asset           string
	HashratePeriod  int
	RefreshInterval time.Duration
	StorageBackend  string

	Logger *slog.Logger
	Now    func() time.Time
}

// Server serves the view, dashboard and archive API.
type Server struct {
	opts     Options
	registry *source.Registry
	hub      *dashboard.Hub
	logger   *slog.Logger
	started  time.Time

	mu        sync.RWMutex
	day       string
	dashboard *dashboard.Board
	mining    *dashboard.Board
	refreshes int
}

// NewServer creates a server and its boards. Nothing is fetched before
// the first Refresh.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = dashboard.DefaultRefreshInterval
	}

	s := &Server{
		opts:    opts,
		logger:  opts.Logger,
		started: opts.Now(),
		registry: source.NewRegistry(func(p *message.Printer) []*source.Source {
			return source.Catalog(opts.Fetcher, p)
		}),
	}
	s.hub = dashboard.NewHub(dashboard.HubOptions{
		Initial: func() any { return s.dashboardSnapshot() },
		Logger:  opts.Logger,
	})
	s.rebuildBoards(opts.Now())
	return s
}

// rebuildBoards recreates the boards when the UTC day changes, since box
// filters name the current and previous day.
func (s *Server) rebuildBoards(now time.Time) {
	day := now.UTC().Format(time.DateOnly)

	s.mu.Lock()
	defer s.mu.Unlock()
	if day == s.day && s.dashboard != nil {
		return
	}
	s.day = day

	boxes := dashboard.DashboardBoxes(now, s.opts.Asset)
	if s.opts.Layout != nil {
		boxes = s.opts.Layout.Boxes
	}
	s.dashboard = dashboard.NewBoard("dashboard", s.opts.Fetcher, boxes, dashboard.Options{
		Logger: s.logger,
		Now:    s.opts.Now,
		OnUpdate: func(snap dashboard.Snapshot) {
			if err := s.hub.Broadcast(snap); err != nil {
				s.logger.Warn("broadcast failed", "error", err)
			}
		},
	})
	s.mining = dashboard.NewBoard("mining", s.opts.Fetcher,
		dashboard.MiningBoxes(now, s.opts.HashratePeriod), dashboard.Options{Logger: s.logger, Now: s.opts.Now})
}

func (s *Server) boards() (*dashboard.Board, *dashboard.Board) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dashboard, s.mining
}

func (s *Server) dashboardSnapshot() dashboard.Snapshot {
	board, _ := s.boards()
	return board.Snapshot()
}

// Refresh updates both boards once.
func (s *Server) Refresh(ctx context.Context) {
	s.rebuildBoards(s.opts.Now())
	board, mining := s.boards()
	board.UpdateAll(ctx)
	mining.UpdateAll(ctx)

	s.mu.Lock()
	s.refreshes++
	s.mu.Unlock()
}

// Run refreshes the boards every interval until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting dashboard refresh", "interval", s.opts.RefreshInterval)
	s.Refresh(ctx)

	ticker := time.NewTicker(s.opts.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

// Close disconnects websocket clients.
func (s *Server) Close() {
	s.hub.Close()
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", observability.Handler())
	mux.HandleFunc("GET /status", s.handleStatus)

	mux.HandleFunc("GET /api/sources", s.handleSources)
	mux.HandleFunc("GET /api/views/{source}", s.handleViewData)
	mux.HandleFunc("GET /views/{source}", s.handleView)
	mux.HandleFunc("GET /export/{source}", s.handleExport)
	mux.HandleFunc("GET /api/link/{source}", s.handleLink)
	mux.HandleFunc("GET /api/filters/{source}", s.handleFilters)

	mux.HandleFunc("GET /api/dashboard", s.handleBoard(func() *dashboard.Board { b, _ := s.boards(); return b }))
	mux.HandleFunc("GET /api/mining", s.handleBoard(func() *dashboard.Board { _, m := s.boards(); return m }))
	mux.HandleFunc("GET /api/account/{addr}", s.handleAccount)
	mux.Handle("GET /ws", s.hub)

	mux.HandleFunc("POST /api/snapshots/{source}", s.handleArchive)
	mux.HandleFunc("GET /api/snapshots/{source}", s.handleListSnapshots)
	mux.HandleFunc("GET /api/snapshot/{id}", s.handleGetSnapshot)

	return mux
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status           string    `json:"status"`
	Uptime           string    `json:"uptime"`
	Day              string    `json:"day"`
	DashboardUpdated time.Time `json:"dashboard_updated,omitempty"`
	MiningUpdated    time.Time `json:"mining_updated,omitempty"`
	Refreshes        int       `json:"refreshes"`
	WSClients        int       `json:"ws_clients"`
	Storage          string    `json:"storage"`
	LocaleBuilds     int64     `json:"locale_builds"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	board, mining := s.boards()

	s.mu.RLock()
	resp := StatusResponse{
		Status:           "running",
		Uptime:           s.opts.Now().Sub(s.started).String(),
		Day:              s.day,
		DashboardUpdated: board.Snapshot().UpdatedAt,
		MiningUpdated:    mining.Snapshot().UpdatedAt,
		Refreshes:        s.refreshes,
		WSClients:        s.hub.Clients(),
		Storage:          s.opts.StorageBackend,
		LocaleBuilds:     s.registry.Builds(),
	}
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, resp)
}

type columnInfo struct {
	Key       string `json:"key"`
	Title     string `json:"title"`
	Kind      string `json:"kind"`
	Chartable bool   `json:"chartable"`
}

type sourceInfo struct {
	Key         string              `json:"key"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Columns     []columnInfo        `json:"columns"`
	Filters     []source.FilterSpec `json:"filters"`
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	sources := s.registry.Sources(requestLang(r))
	out := make([]sourceInfo, 0, len(sources))
	for _, src := range sources {
		info := sourceInfo{
			Key:         src.Key,
			Title:       src.Title,
			Description: src.Description,
			Columns:     make([]columnInfo, 0, len(src.Columns)),
			Filters:     src.Filters,
		}
		for _, c := range src.Columns {
			info.Columns = append(info.Columns, columnInfo{
				Key:       c.Key,
				Title:     c.Title,
				Kind:      c.Kind.String(),
				Chartable: c.Chartable(),
			})
		}
		if info.Filters == nil {
			info.Filters = []source.FilterSpec{}
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}

type viewResponse struct {
	Source string        `json:"source"`
	Title  string        `json:"title"`
	Query  string        `json:"query"`
	Rows   []viewapi.Row `json:"rows"`
	Count  int           `json:"count"`
	Table  table.Table   `json:"table"`
	Err    string        `json:"err,omitempty"`
}

// open runs a view page for the request. Each request gets its own page;
// the registry is shared.
func (s *Server) open(r *http.Request, key string) (*view.Result, error) {
	state, err := query.Decode(r.URL.Query())
	if err != nil {
		return nil, err
	}
	page := view.NewPage(s.registry, view.Options{Theme: requestTheme(r), Logger: s.logger})
	return page.Open(r.Context(), requestLang(r), key, state), nil
}

func newViewResponse(res *view.Result) viewResponse {
	rows := res.Rows
	if rows == nil {
		rows = []viewapi.Row{}
	}
	return viewResponse{
		Source: res.Source.Key,
		Title:  res.Source.Title,
		Query:  res.State.String(),
		Rows:   rows,
		Count:  res.Count,
		Table:  res.Table,
		Err:    res.ErrorText(),
	}
}

func (s *Server) handleViewData(w http.ResponseWriter, r *http.Request) {
	res, err := s.open(r, r.PathValue("source"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, newViewResponse(res))
}

// handleView renders the chart page for view=chart with a bound column and
// returns the table JSON otherwise.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	res, err := s.open(r, r.PathValue("source"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if res.State.ViewOrDefault() == query.ViewChart && res.Series != nil {
		var buf bytes.Buffer
		if err := view.RenderChart(&buf, res, requestTheme(r)); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(buf.Bytes())
		return
	}
	writeJSON(w, http.StatusOK, newViewResponse(res))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("source")
	csvFormat := strings.HasSuffix(key, ".csv")
	key = strings.TrimSuffix(key, ".csv")

	res, err := s.open(r, key)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if res.Err != nil {
		writeError(w, http.StatusBadGateway, res.Err)
		return
	}

	var buf bytes.Buffer
	name := controls.ExportFileName
	contentType := "application/json"
	if csvFormat {
		name = strings.TrimSuffix(name, ".json") + ".csv"
		contentType = "text/csv"
		err = controls.ExportCSV(&buf, res.Source, res.Rows)
	} else {
		err = controls.ExportJSON(&buf, res.Rows)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(buf.Bytes())
}

func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	state, err := query.Decode(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	base := fmt.Sprintf("%s://%s/views/%s", scheme, r.Host, r.PathValue("source"))
	link, err := controls.ShareLink(base, state)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(link))
}

type filterResponse struct {
	source.FilterSpec
	Options []source.Option `json:"options"`
	Err     string          `json:"err,omitempty"`
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	lang := requestLang(r)
	src := s.registry.Resolve(lang, r.PathValue("source"))
	p := i18n.Printer(lang)

	out := make([]filterResponse, 0, len(src.Filters))
	for _, spec := range src.Filters {
		resp := filterResponse{FilterSpec: spec}
		opts, err := controls.LoadOptions(r.Context(), s.opts.Fetcher, p, spec)
		if err != nil {
			resp.Err = err.Error()
		}
		resp.Options = opts
		if resp.Options == nil {
			resp.Options = []source.Option{}
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBoard(board func() *dashboard.Board) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, board().Snapshot())
	}
}

// handleAccount loads the account page boxes on demand.
func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	page, err := intParam(r, "page")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	size, err := intParam(r, "size")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	addr := r.PathValue("addr")
	board := dashboard.NewBoard("account", s.opts.Fetcher, dashboard.AccountBoxes(addr, page, size), dashboard.Options{
		Logger: s.logger.With("account", addr),
		Now:    s.opts.Now,
	})
	board.UpdateAll(r.Context())
	writeJSON(w, http.StatusOK, board.Snapshot())
}

// handleArchive fetches the view and stores its rows.
func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if s.opts.Snapshots == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("snapshot storage disabled"))
		return
	}

	key := r.PathValue("source")
	res, err := s.open(r, key)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if res.Source.IsEmpty() {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown source %q", key))
		return
	}
	if res.Err != nil {
		writeError(w, http.StatusBadGateway, res.Err)
		return
	}

	snap, err := storage.NewSnapshot(key, res.State.String(), res.Rows, res.Count, s.opts.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.opts.Snapshots.Insert(r.Context(), snap); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrDuplicateKey) {
			status = http.StatusConflict
		}
		writeError(w, status, err)
		return
	}
	s.logger.Info("snapshot archived", "source", key, "id", snap.SnapshotID, "rows", len(res.Rows))
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.opts.Snapshots == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("snapshot storage disabled"))
		return
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if limit == 0 {
		limit = defaultSnapshotLimit
	}

	list, err := s.opts.Snapshots.ListBySource(r.Context(), r.PathValue("source"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.opts.Snapshots == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("snapshot storage disabled"))
		return
	}
	snap, err := s.opts.Snapshots.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func requestLang(r *http.Request) language.Tag {
	return i18n.Match(r.Header.Get("Accept-Language"))
}

func requestTheme(r *http.Request) chart.Theme {
	if c, err := r.Cookie("theme"); err == nil && c.Value == string(chart.ThemeDark) {
		return chart.ThemeDark
	}
	return chart.ThemeLight
}

func intParam(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
