package storage

import (
	"context"
)

// SnapshotStore provides access to view_snapshots storage.
type SnapshotStore interface {
	// Insert adds a new snapshot. Returns ErrDuplicateKey if snapshot_id exists.
	Insert(ctx context.Context, s *Snapshot) error

	// GetByID retrieves a snapshot by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, snapshotID string) (*Snapshot, error)

	// ListBySource retrieves snapshots of a source, newest first.
	// A limit <= 0 returns all of them.
	ListBySource(ctx context.Context, sourceKey string, limit int) ([]*Snapshot, error)
}
