package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	pg, err := load(PostgresFS, "postgres")
	require.NoError(t, err)
	require.NotEmpty(t, pg)
	assert.Equal(t, "001_view_snapshots.sql", pg[0].name)
	assert.Contains(t, pg[0].sql, "view_snapshots")

	ch, err := load(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	require.NotEmpty(t, ch)
	for _, m := range ch {
		assert.NoError(t, checkSemicolons(m.sql), m.name)
	}
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements(`
-- header
CREATE TABLE a (x String);

-- second
CREATE TABLE b (y String)
ENGINE = MergeTree() ORDER BY y;
`)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x String)", stmts[0])
	assert.Contains(t, stmts[1], "ORDER BY y")
}

func TestCheckSemicolons(t *testing.T) {
	assert.NoError(t, checkSemicolons(`SELECT 'it''s'; SELECT 1;`))
	assert.ErrorIs(t, checkSemicolons(`SELECT 'a;b'`), errSemicolonInString)
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default:@localhost:9000/xstats")
	require.NoError(t, err)
	assert.Equal(t, "xstats", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)
}
