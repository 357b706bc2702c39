package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xelis-stats/internal/dashboard"
	"xelis-stats/internal/storage"
	"xelis-stats/internal/storage/memory"
	"xelis-stats/internal/viewapi"
	"xelis-stats/internal/viewapi/stub"
)

var testNow = time.Date(2024, 4, 23, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, f viewapi.Fetcher, store storage.SnapshotStore) *httptest.Server {
	t.Helper()
	srv := NewServer(Options{
		Fetcher:   f,
		Snapshots: store,
		Now:       func() time.Time { return testNow },
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return ts
}

func blocksBackend() *stub.Backend {
	b := stub.NewBackend()
	b.SetView("get_blocks_time(*)", []viewapi.Row{
		{"time": "2024-01-03", "block_count": 10.0},
		{"time": "2024-01-02", "block_count": 8.0},
		{"time": "2024-01-01", "block_count": 12.0},
	})
	return b
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, stub.NewBackend(), nil)
	resp, body := get(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestSources(t *testing.T) {
	ts := newTestServer(t, stub.NewBackend(), nil)
	resp, body := get(t, ts.URL+"/api/sources")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sources []sourceInfo
	require.NoError(t, json.Unmarshal(body, &sources))
	require.NotEmpty(t, sources)

	var found bool
	for _, s := range sources {
		if s.Key == "blocks_by_time" {
			found = true
			assert.NotEmpty(t, s.Columns)
			assert.NotEmpty(t, s.Filters)
		}
	}
	assert.True(t, found)
}

func TestViewData(t *testing.T) {
	backend := blocksBackend()
	ts := newTestServer(t, backend, nil)

	resp, body := get(t, ts.URL+"/api/views/blocks_by_time?period=86400&view=table")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got viewResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "blocks_by_time", got.Source)
	assert.Len(t, got.Rows, 3)
	require.Len(t, got.Table.Rows, 3)
	assert.Equal(t, "2024-01-03 00:00:00", got.Table.Rows[0][0])
	assert.Empty(t, got.Err)
	assert.Equal(t, []string{"86400"}, backend.LastParams("get_blocks_time(*)").Param)
}

func TestViewData_BadQuery(t *testing.T) {
	ts := newTestServer(t, blocksBackend(), nil)
	resp, _ := get(t, ts.URL+"/api/views/blocks_by_time?view=pie")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestViewData_FetchError(t *testing.T) {
	backend := blocksBackend()
	backend.Fail("get_blocks_time(*)", http.StatusInternalServerError, "index down")
	ts := newTestServer(t, backend, nil)

	resp, body := get(t, ts.URL+"/api/views/blocks_by_time")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got viewResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Contains(t, got.Err, "index down")
	assert.Empty(t, got.Rows)
}

func TestView_UnknownSourceIsEmpty(t *testing.T) {
	ts := newTestServer(t, blocksBackend(), nil)
	resp, body := get(t, ts.URL+"/views/nope")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got viewResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Empty(t, got.Source)
	assert.Empty(t, got.Rows)
}

func TestView_Chart(t *testing.T) {
	ts := newTestServer(t, blocksBackend(), nil)
	resp, body := get(t, ts.URL+"/views/blocks_by_time?view=chart&chart_key=block_count")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))
	assert.Contains(t, string(body), "echarts")
}

func TestExport(t *testing.T) {
	ts := newTestServer(t, blocksBackend(), nil)

	resp, body := get(t, ts.URL+"/export/blocks_by_time")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "chart_data.json")
	var rows []viewapi.Row
	require.NoError(t, json.Unmarshal(body, &rows))
	assert.Len(t, rows, 3)

	resp, body = get(t, ts.URL+"/export/blocks_by_time.csv")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "chart_data.csv")
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	assert.Len(t, lines, 4)
}

func TestExport_FetchError(t *testing.T) {
	backend := blocksBackend()
	backend.Fail("get_blocks_time(*)", http.StatusServiceUnavailable, "busy")
	ts := newTestServer(t, backend, nil)

	resp, _ := get(t, ts.URL+"/export/blocks_by_time")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestLink(t *testing.T) {
	ts := newTestServer(t, blocksBackend(), nil)
	resp, body := get(t, ts.URL+"/api/link/blocks_by_time?period=3600#top")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, ts.URL+"/views/blocks_by_time?period=3600", string(body))
}

func TestFilters(t *testing.T) {
	ts := newTestServer(t, stub.Fixtures(testNow), nil)
	resp, body := get(t, ts.URL+"/api/filters/market_history")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var filters []filterResponse
	require.NoError(t, json.Unmarshal(body, &filters))
	require.Len(t, filters, 2)
	assets := filters[1]
	assert.Equal(t, "asset", assets.QueryKey)
	require.NotEmpty(t, assets.Options)
	assert.Equal(t, "", assets.Options[0].Key)
	assert.Greater(t, len(assets.Options), 1)
}

func TestDashboardAndStatus(t *testing.T) {
	srv := NewServer(Options{
		Fetcher: stub.Fixtures(testNow),
		Now:     func() time.Time { return testNow },
	})
	defer srv.Close()
	srv.Refresh(context.Background())

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, body := get(t, ts.URL+"/api/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap dashboard.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, "dashboard", snap.Board)
	assert.Len(t, snap.Boxes, len(dashboard.DashboardBoxes(testNow, "")))
	for _, b := range snap.Boxes {
		assert.Empty(t, b.Error, b.Name)
	}

	resp, body = get(t, ts.URL+"/api/mining")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, "mining", snap.Board)

	resp, body = get(t, ts.URL+"/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var status StatusResponse
	require.NoError(t, json.Unmarshal(body, &status))
	assert.Equal(t, 1, status.Refreshes)
	assert.Equal(t, "2024-04-23", status.Day)
	assert.True(t, testNow.Equal(status.DashboardUpdated))
}

func TestAccount(t *testing.T) {
	ts := newTestServer(t, stub.Fixtures(testNow), nil)

	resp, body := get(t, ts.URL+"/api/account/xel:abc?page=1&size=5")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap dashboard.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, "account", snap.Board)
	assert.Len(t, snap.Boxes, 4)

	resp, _ = get(t, ts.URL+"/api/account/xel:abc?page=x")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSnapshots(t *testing.T) {
	store := memory.NewSnapshotStore()
	ts := newTestServer(t, blocksBackend(), store)

	resp, err := http.Post(ts.URL+"/api/snapshots/blocks_by_time?period=86400", "", nil)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var created storage.Snapshot
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, 3, created.Count)
	assert.Equal(t, testNow.UnixMilli(), created.FetchedAt)

	resp, err = http.Post(ts.URL+"/api/snapshots/blocks_by_time?period=86400", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = get(t, ts.URL+"/api/snapshots/blocks_by_time")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []storage.Snapshot
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, created.SnapshotID, list[0].SnapshotID)

	resp, _ = get(t, ts.URL+"/api/snapshot/"+created.SnapshotID)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = get(t, ts.URL+"/api/snapshot/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/api/snapshots/nope", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSnapshots_Disabled(t *testing.T) {
	ts := newTestServer(t, blocksBackend(), nil)
	resp, _ := get(t, ts.URL+"/api/snapshots/blocks_by_time")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
