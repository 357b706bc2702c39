package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"xelis-stats/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

const snapshotColumns = `snapshot_id, source_key, query, rows, row_count, fetched_at, created_at`

// Insert adds a new snapshot. Returns ErrDuplicateKey if snapshot_id exists.
func (s *SnapshotStore) Insert(ctx context.Context, snap *storage.Snapshot) (err error) {
	if err := snap.Validate(); err != nil {
		return err
	}
	defer func(start time.Time) { observe("insert_snapshot", start, err) }(time.Now())

	query := `
		INSERT INTO view_snapshots (
			snapshot_id, source_key, query, rows, row_count, fetched_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = s.pool.Exec(ctx, query,
		snap.SnapshotID,
		snap.SourceKey,
		snap.Query,
		[]byte(snap.Rows),
		snap.Count,
		snap.FetchedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// GetByID retrieves a snapshot by its ID. Returns ErrNotFound if not exists.
func (s *SnapshotStore) GetByID(ctx context.Context, snapshotID string) (_ *storage.Snapshot, err error) {
	defer func(start time.Time) {
		if errors.Is(err, storage.ErrNotFound) {
			observe("get_snapshot", start, nil)
			return
		}
		observe("get_snapshot", start, err)
	}(time.Now())

	query := `SELECT ` + snapshotColumns + ` FROM view_snapshots WHERE snapshot_id = $1`

	snap, err := scanSnapshot(s.pool.QueryRow(ctx, query, snapshotID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot by id: %w", err)
	}
	return snap, nil
}

// ListBySource retrieves snapshots of a source, newest first.
func (s *SnapshotStore) ListBySource(ctx context.Context, sourceKey string, limit int) (_ []*storage.Snapshot, err error) {
	defer func(start time.Time) { observe("list_snapshots", start, err) }(time.Now())

	query := `
		SELECT ` + snapshotColumns + `
		FROM view_snapshots
		WHERE source_key = $1
		ORDER BY fetched_at DESC, snapshot_id ASC
	`
	args := []any{sourceKey}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots by source: %w", err)
	}
	defer rows.Close()

	result := []*storage.Snapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return result, nil
}

func scanSnapshot(row pgx.Row) (*storage.Snapshot, error) {
	var (
		snap      storage.Snapshot
		rows      []byte
		count     int32
		createdAt time.Time
	)
	err := row.Scan(
		&snap.SnapshotID,
		&snap.SourceKey,
		&snap.Query,
		&rows,
		&count,
		&snap.FetchedAt,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	snap.Rows = rows
	snap.Count = int(count)
	snap.CreatedAt = createdAt.UnixMilli()
	return &snap, nil
}
