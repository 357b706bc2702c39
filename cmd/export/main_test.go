package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"xelis-stats/internal/viewapi"
	"xelis-stats/internal/viewapi/stub"
)

func backend() *stub.Backend {
	b := stub.NewBackend()
	b.SetView("get_blocks_time(*)", []viewapi.Row{
		{"time": "2024-01-03", "block_count": 10.0},
		{"time": "2024-01-02", "block_count": 8.0},
		{"time": "2024-01-01", "block_count": 12.0},
	})
	return b
}

func runExport(t *testing.T, ef exportFlags) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	err := export(context.Background(), &buf, backend(), language.English, ef, slog.Default())
	return buf.String(), err
}

func TestExport_JSON(t *testing.T) {
	out, err := runExport(t, exportFlags{source: "blocks_by_time", query: "period=86400", format: FormatJSON})
	require.NoError(t, err)

	var rows []viewapi.Row
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Len(t, rows, 3)
}

func TestExport_CSV(t *testing.T) {
	out, err := runExport(t, exportFlags{source: "blocks_by_time", format: FormatCSV})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "time,"))
}

func TestExport_Table(t *testing.T) {
	out, err := runExport(t, exportFlags{source: "blocks_by_time", format: FormatTable})
	require.NoError(t, err)
	assert.Contains(t, out, "2024-01-03 00:00:00")
}

func TestExport_HTML(t *testing.T) {
	out, err := runExport(t, exportFlags{source: "blocks_by_time", query: "chart_key=block_count", format: FormatHTML, theme: "dark"})
	require.NoError(t, err)
	assert.Contains(t, out, "echarts")

	_, err = runExport(t, exportFlags{source: "blocks_by_time", format: FormatHTML})
	assert.Error(t, err)
}

func TestExport_Errors(t *testing.T) {
	_, err := runExport(t, exportFlags{source: "nope", format: FormatJSON})
	assert.ErrorContains(t, err, "unknown source")

	_, err = runExport(t, exportFlags{source: "blocks_by_time", format: "xml"})
	assert.ErrorContains(t, err, "unknown format")

	_, err = runExport(t, exportFlags{source: "blocks_by_time", query: "view=pie", format: FormatJSON})
	assert.Error(t, err)
}

func TestRun_RequiresSource(t *testing.T) {
	err := run([]string{"--format", "csv"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, errUsage)
}

func TestRun_Fixtures(t *testing.T) {
	var buf bytes.Buffer
	err := run([]string{"--use-fixtures", "--source", "get_txs_time", "--format", "json", "--log-format", "json"}, &buf)
	require.NoError(t, err)

	var rows []viewapi.Row
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	assert.NotEmpty(t, rows)
}
