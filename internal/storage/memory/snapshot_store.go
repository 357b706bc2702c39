package memory

import (
	"context"
	"sort"
	"sync"

	"xelis-stats/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*storage.Snapshot // keyed by snapshot_id
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string]*storage.Snapshot),
	}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Insert adds a new snapshot. Returns ErrDuplicateKey if snapshot_id exists.
func (s *SnapshotStore) Insert(_ context.Context, snap *storage.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[snap.SnapshotID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[snap.SnapshotID] = copySnapshot(snap)
	return nil
}

// GetByID retrieves a snapshot by its ID. Returns ErrNotFound if not exists.
func (s *SnapshotStore) GetByID(_ context.Context, snapshotID string) (*storage.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, exists := s.data[snapshotID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copySnapshot(snap), nil
}

// ListBySource retrieves snapshots of a source, newest first.
func (s *SnapshotStore) ListBySource(_ context.Context, sourceKey string, limit int) ([]*storage.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*storage.Snapshot{}
	for _, snap := range s.data {
		if snap.SourceKey == sourceKey {
			result = append(result, copySnapshot(snap))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].FetchedAt != result[j].FetchedAt {
			return result[i].FetchedAt > result[j].FetchedAt
		}
		return result[i].SnapshotID < result[j].SnapshotID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// copySnapshot prevents callers from mutating stored rows.
func copySnapshot(snap *storage.Snapshot) *storage.Snapshot {
	c := *snap
	c.Rows = append([]byte(nil), snap.Rows...)
	return &c
}
