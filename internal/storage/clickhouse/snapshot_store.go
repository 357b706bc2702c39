package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"xelis-stats/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using ClickHouse.
type SnapshotStore struct {
	conn *Conn
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(conn *Conn) *SnapshotStore {
	return &SnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

const snapshotColumns = `snapshot_id, source_key, query, rows, row_count, fetched_at, created_at`

// Insert adds a new snapshot. Returns ErrDuplicateKey if snapshot_id exists.
// ReplacingMergeTree would collapse duplicates, so existence is checked first.
func (s *SnapshotStore) Insert(ctx context.Context, snap *storage.Snapshot) (err error) {
	if err := snap.Validate(); err != nil {
		return err
	}
	defer func(start time.Time) {
		if errors.Is(err, storage.ErrDuplicateKey) {
			observe("insert_snapshot", start, nil)
			return
		}
		observe("insert_snapshot", start, err)
	}(time.Now())

	exists, err := s.exists(ctx, snap.SourceKey, snap.SnapshotID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO view_snapshots (
			snapshot_id, source_key, query, rows, row_count, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`
	err = s.conn.Exec(ctx, query,
		snap.SnapshotID,
		snap.SourceKey,
		snap.Query,
		string(snap.Rows),
		uint32(snap.Count),
		snap.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// GetByID retrieves a snapshot by its ID. Returns ErrNotFound if not exists.
func (s *SnapshotStore) GetByID(ctx context.Context, snapshotID string) (_ *storage.Snapshot, err error) {
	defer func(start time.Time) { observe("get_snapshot", start, err) }(time.Now())

	query := `SELECT ` + snapshotColumns + ` FROM view_snapshots FINAL WHERE snapshot_id = ? LIMIT 1`
	rows, err := s.conn.Query(ctx, query, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("get snapshot by id: %w", err)
	}
	defer rows.Close()

	list, err := scanSnapshots(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, storage.ErrNotFound
	}
	return list[0], nil
}

// ListBySource retrieves snapshots of a source, newest first.
func (s *SnapshotStore) ListBySource(ctx context.Context, sourceKey string, limit int) (_ []*storage.Snapshot, err error) {
	defer func(start time.Time) { observe("list_snapshots", start, err) }(time.Now())

	query := `
		SELECT ` + snapshotColumns + `
		FROM view_snapshots FINAL
		WHERE source_key = ?
		ORDER BY fetched_at DESC, snapshot_id ASC
	`
	args := []any{sourceKey}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, uint64(limit))
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots by source: %w", err)
	}
	defer rows.Close()
	return scanSnapshots(rows)
}

func (s *SnapshotStore) exists(ctx context.Context, sourceKey, snapshotID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count() FROM view_snapshots WHERE source_key = ? AND snapshot_id = ?`,
		sourceKey, snapshotID,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanSnapshots(rows rowScanner) ([]*storage.Snapshot, error) {
	result := []*storage.Snapshot{}
	for rows.Next() {
		var (
			snap      storage.Snapshot
			data      string
			count     uint32
			createdAt time.Time
		)
		err := rows.Scan(
			&snap.SnapshotID,
			&snap.SourceKey,
			&snap.Query,
			&data,
			&count,
			&snap.FetchedAt,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.Rows = []byte(data)
		snap.Count = int(count)
		snap.CreatedAt = createdAt.UnixMilli()
		result = append(result, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return result, nil
}
