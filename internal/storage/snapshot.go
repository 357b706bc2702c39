package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"xelis-stats/internal/idhash"
	"xelis-stats/internal/viewapi"
)

// Snapshot is an archived fetch of one source.
type Snapshot struct {
	SnapshotID string          `json:"snapshot_id"`
	SourceKey  string          `json:"source_key"`
	Query      string          `json:"query"`
	Rows       json.RawMessage `json:"rows"`
	Count      int             `json:"count"`
	FetchedAt  int64           `json:"fetched_at"` // unix ms
	CreatedAt  int64           `json:"created_at,omitempty"`
}

// NewSnapshot encodes rows and derives the snapshot ID.
func NewSnapshot(sourceKey, query string, rows []viewapi.Row, count int, fetchedAt time.Time) (*Snapshot, error) {
	if sourceKey == "" {
		return nil, fmt.Errorf("%w: empty source key", ErrInvalidInput)
	}
	if rows == nil {
		rows = []viewapi.Row{}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot rows: %w", err)
	}
	ms := fetchedAt.UnixMilli()
	return &Snapshot{
		SnapshotID: idhash.ComputeSnapshotID(sourceKey, query, ms),
		SourceKey:  sourceKey,
		Query:      query,
		Rows:       data,
		Count:      count,
		FetchedAt:  ms,
	}, nil
}

// DecodeRows returns the archived rows.
func (s *Snapshot) DecodeRows() ([]viewapi.Row, error) {
	var rows []viewapi.Row
	if err := json.Unmarshal(s.Rows, &rows); err != nil {
		return nil, fmt.Errorf("decode snapshot %s rows: %w", s.SnapshotID, err)
	}
	return rows, nil
}

// Validate checks the fields every store requires.
func (s *Snapshot) Validate() error {
	if s == nil || s.SnapshotID == "" || s.SourceKey == "" {
		return ErrInvalidInput
	}
	if !json.Valid(s.Rows) {
		return fmt.Errorf("%w: rows are not valid JSON", ErrInvalidInput)
	}
	return nil
}
