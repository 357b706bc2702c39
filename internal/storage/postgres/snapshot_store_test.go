package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"xelis-stats/internal/storage"
	"xelis-stats/internal/storage/migrations"
	"xelis-stats/internal/storage/postgres"
	"xelis-stats/internal/viewapi"
)

// setupTestDB starts a PostgreSQL container and applies the embedded
// migrations.
func setupTestDB(t *testing.T) *postgres.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, migrations.RunPostgresMigrations(ctx, pool))
	// Idempotent.
	require.NoError(t, migrations.RunPostgresMigrations(ctx, pool))
	return pool
}

func TestSnapshotStore_InsertAndGetByID(t *testing.T) {
	store := postgres.NewSnapshotStore(setupTestDB(t))
	ctx := context.Background()

	snap, err := storage.NewSnapshot("blocks_by_time", "period=86400&view=table",
		[]viewapi.Row{{"time": "2024-04-23", "block_count": 12.0}}, 1, time.UnixMilli(1713873600000))
	require.NoError(t, err)
	require.NoError(t, store.Insert(ctx, snap))

	got, err := store.GetByID(ctx, snap.SnapshotID)
	require.NoError(t, err)
	assert.Equal(t, snap.SourceKey, got.SourceKey)
	assert.Equal(t, snap.Query, got.Query)
	assert.Equal(t, snap.FetchedAt, got.FetchedAt)
	assert.JSONEq(t, string(snap.Rows), string(got.Rows))
	assert.NotZero(t, got.CreatedAt)

	assert.ErrorIs(t, store.Insert(ctx, snap), storage.ErrDuplicateKey)

	_, err = store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSnapshotStore_ListBySource(t *testing.T) {
	store := postgres.NewSnapshotStore(setupTestDB(t))
	ctx := context.Background()
	base := time.UnixMilli(1713873600000)

	for i := range 3 {
		snap, err := storage.NewSnapshot("txs_by_time", "", nil, 0, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
		require.NoError(t, store.Insert(ctx, snap))
	}

	all, err := store.ListBySource(ctx, "txs_by_time", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Greater(t, all[0].FetchedAt, all[2].FetchedAt)

	limited, err := store.ListBySource(ctx, "txs_by_time", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, all[0].SnapshotID, limited[0].SnapshotID)

	none, err := store.ListBySource(ctx, "other", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}
