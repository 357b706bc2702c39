package table

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xelis-stats/internal/query"
	"xelis-stats/internal/source"
	"xelis-stats/internal/viewapi"
)

func testSource() *source.Source {
	return &source.Source{
		Key: "blocks_by_time",
		Columns: []source.Column{
			source.Plain("time", "Time"),
			source.Plain("block_count", "Block Count"),
			source.Formatted("total_fees", "Total Fees", func(v any, _ viewapi.Row) string {
				if v == "" {
					return "-"
				}
				return "fee"
			}),
			source.CandleColumn("diff_candle", "Difficulty", source.CandleMapping{}),
		},
	}
}

func keys(cols []source.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Key
	}
	return out
}

func TestVisibleColumns(t *testing.T) {
	src := testSource()

	assert.Equal(t, []string{"time", "block_count", "total_fees"}, keys(VisibleColumns(src, query.State{})))

	allow := []string{"total_fees", "time", "diff_candle"}
	assert.Equal(t, []string{"time", "total_fees"}, keys(VisibleColumns(src, query.State{Columns: &allow})))

	none := []string{}
	assert.Empty(t, VisibleColumns(src, query.State{Columns: &none}))
	assert.Nil(t, VisibleColumns(nil, query.State{}))
}

func TestBuild_KeepsRowOrder(t *testing.T) {
	rows := []viewapi.Row{
		{"time": "2024-01-03", "block_count": 10.0},
		{"time": "2024-01-01", "block_count": 12.0, "total_fees": 1.0},
		{"time": "2024-01-02", "block_count": 8.0},
	}

	tbl := Build(testSource(), query.State{}, rows)
	require.Len(t, tbl.Headers, 3)
	assert.Equal(t, Header{Key: "block_count", Title: "Block Count"}, tbl.Headers[1])
	assert.Equal(t, [][]string{
		{"2024-01-03", "10", "-"},
		{"2024-01-01", "12", "fee"},
		{"2024-01-02", "8", "-"},
	}, tbl.Rows)
}

func TestBuild_Empty(t *testing.T) {
	tbl := Build(testSource(), query.State{}, nil)
	assert.NotNil(t, tbl.Rows)
	assert.Empty(t, tbl.Rows)
}

func TestWriteText(t *testing.T) {
	tbl := Table{
		Headers: []Header{{Key: "a", Title: "A"}, {Key: "b", Title: "Long B"}},
		Rows:    [][]string{{"1", "2"}, {"333", "4"}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, tbl))
	assert.Equal(t, "A    Long B\n1    2\n333  4\n", buf.String())
}
