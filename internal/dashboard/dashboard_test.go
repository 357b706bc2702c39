package dashboard

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xelis-stats/internal/viewapi"
	"xelis-stats/internal/viewapi/stub"
)

var testNow = time.Date(2024, 4, 23, 12, 0, 0, 0, time.UTC)

func boxByName(t *testing.T, boxes []Box, name string) Box {
	t.Helper()
	for _, b := range boxes {
		if b.Name == name {
			return b
		}
	}
	t.Fatalf("box %s not found", name)
	return Box{}
}

func TestDashboardBoxes(t *testing.T) {
	boxes := DashboardBoxes(testNow, "")

	tickers := boxByName(t, boxes, "market_tickers_daily")
	assert.Equal(t, "get_market_tickers_time(*)", tickers.View)
	assert.Equal(t, []string{"86400"}, tickers.Params.Param)
	assert.Equal(t, []string{"asset::eq::USDT"}, tickers.Params.Where)
	assert.Equal(t, 24, tickers.Params.Limit)

	exchanges := boxByName(t, boxes, "market_exchanges_daily")
	assert.Equal(t, []string{"asset::eq::USDT", "time::eq::2024-04-23"}, exchanges.Params.Where)
	assert.Equal(t, []string{"time::desc", "volume::desc"}, exchanges.Params.Order)

	weekly := boxByName(t, boxes, "accounts_weekly")
	assert.Equal(t, []string{"604800"}, weekly.Params.Param)

	recent := boxByName(t, boxes, "recent_blocks")
	assert.Equal(t, "/views/blocks_by_range?period=1&view=table", recent.Link)

	dist := boxByName(t, boxes, "miners_distribution_daily")
	assert.Contains(t, dist.Link, "where=time%3A%3Aeq%3A%3A2024-04-23")

	names := make(map[string]bool)
	for _, b := range boxes {
		assert.False(t, names[b.Name], b.Name)
		names[b.Name] = true
	}
}

func TestMiningBoxes(t *testing.T) {
	boxes := MiningBoxes(testNow, 0)

	assert.Equal(t, []string{"14400"}, boxByName(t, boxes, "hashrate").Params.Param)
	top := boxByName(t, boxes, "top_miners")
	assert.Equal(t, KindTopMiners, top.Kind)
	assert.Equal(t, []string{"time::eq::2024-04-22"}, top.Params.Where)
	assert.Equal(t, 6, top.Params.Limit)

	recent := boxByName(t, boxes, "blocks_recent_days")
	assert.False(t, recent.Params.Count)
	assert.Equal(t, 4, recent.Params.Limit)

	assert.Equal(t, []string{"3600"}, boxByName(t, MiningBoxes(testNow, 3600), "hashrate").Params.Param)
}

func TestAccountBoxes(t *testing.T) {
	boxes := AccountBoxes("xel:abc", 3, 10)

	transfers := boxByName(t, boxes, "transfers")
	assert.Equal(t, 20, transfers.Params.Offset)
	assert.Equal(t, 10, transfers.Params.Limit)
	assert.Equal(t, []string{"to::eq::xel:abc"}, transfers.Params.Where)

	assert.Equal(t, []string{"miner::eq::xel:abc"}, boxByName(t, boxes, "mined_blocks").Params.Where)
	assert.Equal(t, []string{"source::eq::xel:abc"}, boxByName(t, boxes, "transactions").Params.Where)

	first := AccountBoxes("xel:abc", 0, 0)
	assert.Equal(t, 0, boxByName(t, first, "transfers").Params.Offset)
	assert.Equal(t, DefaultPageSize, boxByName(t, first, "transfers").Params.Limit)
}

func TestBoard_UpdateAll(t *testing.T) {
	backend := stub.Fixtures(testNow)
	var updates []Snapshot
	board := NewBoard("dashboard", backend, DashboardBoxes(testNow, "USDT"), Options{
		Now:      func() time.Time { return testNow },
		OnUpdate: func(s Snapshot) { updates = append(updates, s) },
	})

	board.UpdateAll(context.Background())
	require.Len(t, updates, 1)

	snap := board.Snapshot()
	assert.Equal(t, testNow, snap.UpdatedAt)
	for _, b := range snap.Boxes {
		assert.Empty(t, b.Error, b.Name)
		assert.False(t, b.Loading, b.Name)
		assert.NotEmpty(t, b.Rows, b.Name)
	}

	recent, ok := snap.Box("recent_blocks")
	require.True(t, ok)
	assert.Len(t, recent.Rows, 5)

	dist, _ := snap.Box("miners_distribution_daily")
	assert.Len(t, dist.Rows, 4)

	supply, _ := snap.Box("supply_emission")
	assert.Equal(t, 21, supply.Count)
}

func TestBoard_FailureIsolated(t *testing.T) {
	ctx := context.Background()
	backend := stub.Fixtures(testNow)
	board := NewBoard("dashboard", backend, DashboardBoxes(testNow, "USDT"), Options{MaxConcurrent: 2})

	board.UpdateAll(ctx)
	backend.Fail("get_stats()", 500, "db down")
	board.UpdateAll(ctx)

	stats, ok := board.State("stats")
	require.True(t, ok)
	require.Error(t, stats.Err)
	assert.NotEmpty(t, stats.Rows)

	blocks, _ := board.State("recent_blocks")
	assert.NoError(t, blocks.Err)
	assert.Equal(t, 2, backend.Hits("blocks"))

	_, ok = board.State("missing")
	assert.False(t, ok)
}

func TestBoard_Run(t *testing.T) {
	backend := stub.Fixtures(testNow)
	board := NewBoard("mining", backend, MiningBoxes(testNow, 0), Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	err := board.Run(ctx, 50*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, backend.Hits("get_miners_blocks()"), 2)
}

func TestCompareMiners(t *testing.T) {
	backend := stub.Fixtures(testNow)
	leaders := boxByName(t, MiningBoxes(testNow, 0), "top_miners").Params

	res, err := CompareMiners(context.Background(), backend, leaders)
	require.NoError(t, err)
	require.Len(t, res.Rows, 10)

	for i, row := range res.Rows {
		assert.NotNil(t, row["m0_miner"])
		assert.NotNil(t, row["m3_blocks"])
		if i > 0 {
			prev, _ := viewapi.ToFloat(res.Rows[i-1]["time"])
			cur, _ := viewapi.ToFloat(row["time"])
			assert.Less(t, prev, cur)
		}
	}

	backend.Fail("get_miners_blocks_time(*)", 500, "down")
	_, err = CompareMiners(context.Background(), backend, leaders)
	assert.Error(t, err)
}

func TestMergeByTime(t *testing.T) {
	rows := mergeByTime([][]viewapi.Row{
		{{"time": "2024-01-02", "miner": "a", "total_blocks": 3.0}, {"time": "2024-01-01", "miner": "a", "total_blocks": 1.0}},
		{{"time": "2024-01-01", "miner": "b", "total_blocks": 2.0}},
	})
	assert.Equal(t, []viewapi.Row{
		{"time": "2024-01-01", "m0_miner": "a", "m0_blocks": 1.0, "m1_miner": "b", "m1_blocks": 2.0},
		{"time": "2024-01-02", "m0_miner": "a", "m0_blocks": 3.0},
	}, rows)
}

func TestReadLayout(t *testing.T) {
	layout, err := ReadLayout(strings.NewReader(`
boxes:
  - name: blocks_daily
    title: Blocks
    view: get_blocks_time(*)
    params:
      count: true
      limit: 20
      param: ["86400"]
      order: ["time::desc"]
  - name: supply
    kind: supply
`))
	require.NoError(t, err)
	require.Len(t, layout.Boxes, 2)
	assert.Equal(t, 20, layout.Boxes[0].Params.Limit)
	assert.Equal(t, []string{"86400"}, layout.Boxes[0].Params.Param)
	assert.Equal(t, KindSupply, layout.Boxes[1].Kind)

	_, err = ReadLayout(strings.NewReader("boxes:\n  - name: a\n    view: x\n  - name: a\n    view: y\n"))
	assert.ErrorIs(t, err, ErrInvalidLayout)

	_, err = ReadLayout(strings.NewReader("boxes:\n  - name: a\n"))
	assert.ErrorIs(t, err, ErrInvalidLayout)

	_, err = ReadLayout(strings.NewReader("boxes:\n  - name: a\n    view: x\n    colour: red\n"))
	assert.Error(t, err)
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub(HubOptions{Initial: func() any { return map[string]string{"hello": "world"} }})
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"hello":"world"}`, string(msg))

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Broadcast(Snapshot{Board: "dashboard", Boxes: []BoxState{}}))
	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(msg, &snap))
	assert.Equal(t, "dashboard", snap.Board)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 10*time.Millisecond)
}
