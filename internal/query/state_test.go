package query

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func colsPtr(cols ...string) *[]string { return &cols }

func TestState_RoundTrip(t *testing.T) {
	states := []State{
		{},
		{DataSource: "blocks"},
		{
			DataSource: "blocks_by_time",
			View:       ViewChart,
			ChartView:  ChartCandlestick,
			ChartKey:   "diff_candle",
			Period:     "86400",
			Refetch:    "1700000000000",
			MinMax:     boolPtr(false),
		},
		{
			DataSource: "accounts",
			Columns:    colsPtr(),
		},
		{
			DataSource: "transactions",
			Columns:    colsPtr("hash", "fee"),
			Order:      []Order{{Field: "block_height", Direction: Desc}, {Field: "fee", Direction: Asc}},
			Where: []Filter{
				{Field: "fee", Op: OpGt, Value: "100"},
				{Field: "hash", Op: OpLike, Value: "ab::cd"},
			},
			Page: 3,
			Size: 20,
		},
		{
			DataSource: "market_history",
			Range:      "100",
			MinMax:     boolPtr(true),
			Extra:      map[string]string{"asset": "XEL", "exchange": "tradeogre"},
		},
	}

	for _, s := range states {
		t.Run(s.String(), func(t *testing.T) {
			decoded, err := Decode(s.Encode())
			require.NoError(t, err)
			assert.Equal(t, s, decoded)

			parsed, err := ParseQuery("?" + s.String())
			require.NoError(t, err)
			assert.Equal(t, s, parsed)
		})
	}
}

func TestState_StringIsStable(t *testing.T) {
	s := State{
		DataSource: "blocks",
		Where:      []Filter{{Field: "miner", Op: OpEq, Value: "xel:abc"}},
		Order:      []Order{{Field: "height", Direction: Desc}},
	}
	assert.Equal(t, s.String(), s.Clone().String())
	assert.Equal(t, "data_source=blocks&order=height%3A%3Adesc&where=miner%3A%3Aeq%3A%3Axel%3Aabc", s.String())
}

func TestDecode_EmptyColumnsMeansNone(t *testing.T) {
	s, err := ParseQuery("columns=")
	require.NoError(t, err)
	require.NotNil(t, s.Columns)
	assert.Empty(t, *s.Columns)

	s, err = ParseQuery("view=table")
	require.NoError(t, err)
	assert.Nil(t, s.Columns)
}

func TestDecode_SkipsEmptyTokens(t *testing.T) {
	s, err := Decode(url.Values{"order": {""}, "where": {"", "fee::gte::1"}})
	require.NoError(t, err)
	assert.Nil(t, s.Order)
	assert.Equal(t, []Filter{{Field: "fee", Op: OpGte, Value: "1"}}, s.Where)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		query string
		want  error
	}{
		{"view=pie", ErrInvalidView},
		{"chart_view=radar", ErrInvalidView},
		{"order=height", ErrInvalidToken},
		{"order=height::up", ErrInvalidDirection},
		{"where=fee::gt", ErrInvalidToken},
		{"where=fee::between::1", ErrInvalidOperator},
		{"page=abc", ErrInvalidNumber},
		{"size=-1", ErrInvalidNumber},
		{"min_max=maybe", ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			_, err := ParseQuery(tt.query)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestState_Clone(t *testing.T) {
	s := State{
		Columns: colsPtr("a"),
		Order:   []Order{{Field: "a", Direction: Asc}},
		Where:   []Filter{{Field: "a", Op: OpEq, Value: "1"}},
		MinMax:  boolPtr(true),
		Extra:   map[string]string{"asset": "XEL"},
	}
	c := s.Clone()
	(*c.Columns)[0] = "b"
	c.Order[0].Direction = Desc
	c.Where[0].Value = "2"
	*c.MinMax = false
	c.Extra["asset"] = "BTC"

	assert.Equal(t, "a", (*s.Columns)[0])
	assert.Equal(t, Asc, s.Order[0].Direction)
	assert.Equal(t, "1", s.Where[0].Value)
	assert.True(t, *s.MinMax)
	assert.Equal(t, "XEL", s.Extra["asset"])
}

func TestState_Maps(t *testing.T) {
	s := State{
		Order: []Order{{Field: "height", Direction: Desc}},
		Where: []Filter{
			{Field: "fee", Op: OpGt, Value: "1"},
			{Field: "fee", Op: OpLt, Value: "9"},
		},
	}
	assert.Equal(t, map[string]Direction{"height": Desc}, s.OrderMap())
	assert.Equal(t, Filter{Field: "fee", Op: OpLt, Value: "9"}, s.WhereMap()["fee"])
}

func TestState_Pagination(t *testing.T) {
	assert.Equal(t, 0, State{}.Offset())
	assert.Equal(t, 0, State{Page: 1, Size: 20}.Offset())
	assert.Equal(t, 40, State{Page: 3, Size: 20}.Offset())
	assert.Equal(t, 20, State{Size: 20}.Limit())
}

func TestState_Defaults(t *testing.T) {
	assert.Equal(t, ViewTable, State{}.ViewOrDefault())
	assert.Equal(t, ViewChart, State{View: ViewChart}.ViewOrDefault())
	assert.True(t, State{}.MinMaxEnabled())
	assert.False(t, State{MinMax: boolPtr(false)}.MinMaxEnabled())
}

func TestState_GetWith(t *testing.T) {
	s := State{}.With(KeyPeriod, "3600").With("asset", "XEL")
	assert.Equal(t, "3600", s.Get(KeyPeriod))
	assert.Equal(t, "XEL", s.Get("asset"))

	s = s.With("asset", "")
	assert.Nil(t, s.Extra)
	assert.Equal(t, "", s.Get("asset"))
}

func TestParseFilter_ValueKeepsDelimiter(t *testing.T) {
	f, err := ParseFilter("hash::like::a::b")
	require.NoError(t, err)
	assert.Equal(t, Filter{Field: "hash", Op: OpLike, Value: "a::b"}, f)
	assert.Equal(t, "hash::like::a::b", f.String())
}

func TestParseOrder(t *testing.T) {
	o, err := ParseOrder("time::desc")
	require.NoError(t, err)
	assert.Equal(t, Order{Field: "time", Direction: Desc}, o)
	assert.Equal(t, "time::desc", o.String())

	_, err = ParseOrder("::asc")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_Empty(t *testing.T) {
	assert.Nil(t, OrderTokens(nil))
	assert.Nil(t, FilterTokens([]Filter{}))
}
