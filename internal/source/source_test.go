package source

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"xelis-stats/internal/i18n"
	"xelis-stats/internal/query"
	"xelis-stats/internal/viewapi"
	"xelis-stats/internal/viewapi/stub"
)

func testCatalog(t *testing.T) ([]*Source, *stub.Backend) {
	t.Helper()
	backend := stub.NewBackend()
	return Catalog(backend, i18n.Printer(language.English)), backend
}

func find(t *testing.T, sources []*Source, key string) *Source {
	t.Helper()
	for _, s := range sources {
		if s.Key == key {
			return s
		}
	}
	t.Fatalf("source %s not found", key)
	return nil
}

func TestCatalog_KeysUnique(t *testing.T) {
	sources, _ := testCatalog(t)
	require.NoError(t, Validate(sources))

	want := []string{
		"blocks", "accounts", "transactions", "blocks_by_time", "blocks_by_range",
		"market_history", "supply_emission", "get_market_history_exchange", "get_txs_time",
		"get_miners_count_time", "get_miners_blocks_time", "get_accounts_count_time",
		"get_accounts_active_time", "get_accounts_txs_time", "market_tickers",
	}
	got := make([]string, len(sources))
	for i, s := range sources {
		got[i] = s.Key
	}
	assert.Equal(t, want, got)
}

func TestValidate_Duplicates(t *testing.T) {
	err := Validate([]*Source{{Key: "a"}, {Key: "a"}})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	err = Validate([]*Source{{Key: "a", Columns: []Column{Plain("x", "X"), Plain("x", "X")}}})
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestBlocksByTime_Params(t *testing.T) {
	sources, backend := testCatalog(t)
	backend.SetView("get_blocks_time(*)", []viewapi.Row{{"time": "2024-01-01", "block_count": 12.0}})

	src := find(t, sources, "blocks_by_time")
	result, err := src.Fetch(context.Background(), query.State{Period: "86400"})
	require.NoError(t, err)
	assert.Len(t, result.Rows, 1)

	params := backend.LastParams("get_blocks_time(*)")
	assert.True(t, params.Count)
	assert.Equal(t, []string{"86400"}, params.Param)
	assert.Equal(t, []string{"time::desc"}, params.Order)
	assert.Empty(t, params.Where)
}

func TestViewCall_Overrides(t *testing.T) {
	call := timeSeries("get_market_history_exchange_time(*)", "asset", "exchange")

	p := call.Params(query.State{})
	assert.Equal(t, []string{DefaultTimePeriod}, p.Param)
	assert.Nil(t, p.Where)

	state := query.State{
		Period: "3600",
		Order:  []query.Order{{Field: "avg_price", Direction: query.Asc}},
		Where:  []query.Filter{{Field: "trade_count", Op: query.OpGt, Value: "10"}},
		Extra:  map[string]string{"asset": "USDT", "exchange": "nonkyc"},
		Page:   2,
		Size:   50,
	}
	p = call.Params(state)
	assert.Equal(t, []string{"3600"}, p.Param)
	assert.Equal(t, []string{"avg_price::asc"}, p.Order)
	assert.Equal(t, []string{"trade_count::gt::10", "asset::eq::USDT", "exchange::eq::nonkyc"}, p.Where)
	assert.Equal(t, 50, p.Limit)
	assert.Equal(t, 50, p.Offset)
}

func TestSupplyEmission_Local(t *testing.T) {
	sources, backend := testCatalog(t)
	src := find(t, sources, "supply_emission")

	result, err := src.Fetch(context.Background(), query.State{})
	require.NoError(t, err)
	require.NotEmpty(t, result.Rows)
	assert.Equal(t, len(result.Rows)-1, result.Rows[0]["year"])
	assert.Equal(t, "20y", src.FormatTime(20))
	assert.Equal(t, 0, backend.Hits("supply_emission"))
}

func TestCandleColumns(t *testing.T) {
	sources, _ := testCatalog(t)

	col, ok := find(t, sources, "blocks_by_time").Column("diff_candle")
	require.True(t, ok)
	assert.True(t, col.IsCandle())
	assert.Equal(t, "max_difficulty", col.Candle.HighKey)

	col, ok = find(t, sources, "market_history").Column("price_candle")
	require.True(t, ok)
	assert.Equal(t, "sum_quantity", col.BottomChartKey)
}

func TestColumn_Display(t *testing.T) {
	var seen any
	col := Formatted("fee", "Fee", func(v any, _ viewapi.Row) string {
		seen = v
		return "formatted"
	})

	assert.Equal(t, "formatted", col.Display(viewapi.Row{}))
	assert.Equal(t, "", seen)

	assert.Equal(t, "formatted", col.Display(viewapi.Row{"fee": nil}))
	assert.Equal(t, "", seen)

	plain := Plain("miner", "Miner")
	assert.Equal(t, "", plain.Display(viewapi.Row{}))
	assert.Equal(t, "xel:abc", plain.Display(viewapi.Row{"miner": "xel:abc"}))
}

func TestColumn_Scalar(t *testing.T) {
	row := viewapi.Row{"a": 2.0, "b": 3.0}

	v, ok := Plain("a", "A").Scalar(row, 0)
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)

	sum := Plain("sum", "Sum").WithValueKey(FuncKey(func(r viewapi.Row, _ int) (float64, bool) {
		a, _ := r.Float("a")
		b, _ := r.Float("b")
		return a + b, true
	}))
	assert.Equal(t, KindWithRowKey, sum.Kind)
	v, ok = sum.Scalar(row, 0)
	assert.True(t, ok)
	assert.Equal(t, 5.0, v)
}

func TestRowKey(t *testing.T) {
	row := viewapi.Row{"topoheight": 42.0, "time": "2024-01-02T00:00:00Z"}

	v, ok := FieldKey("topoheight").Value(row, 0)
	assert.True(t, ok)
	assert.Equal(t, 42.0, v)

	v, ok = TimeKey("time").Value(row, 0)
	assert.True(t, ok)
	assert.Equal(t, 1704153600.0, v)

	_, ok = FieldKey("missing").Value(row, 0)
	assert.False(t, ok)
	_, ok = RowKey{}.Value(row, 0)
	assert.False(t, ok)
	assert.True(t, RowKey{}.IsZero())
}

func TestRegistry_BuildOncePerLocale(t *testing.T) {
	backend := stub.NewBackend()
	reg := NewRegistry(func(p *message.Printer) []*Source {
		return Catalog(backend, p)
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.Sources(language.French)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), reg.Builds())

	fr := reg.Resolve(language.French, "blocks")
	assert.Equal(t, "Blocs", fr.Title)

	en := reg.Resolve(language.English, "blocks")
	assert.Equal(t, "Blocks", en.Title)
	assert.Equal(t, int64(2), reg.Builds())
}

func TestRegistry_UnknownSourceIsInert(t *testing.T) {
	reg := NewRegistry(func(p *message.Printer) []*Source { return nil })

	src := reg.Resolve(language.English, "nope")
	require.NotNil(t, src)
	assert.True(t, src.IsEmpty())

	result, err := src.Fetch(context.Background(), query.State{})
	require.NoError(t, err)
	assert.Empty(t, result.Rows)
}
