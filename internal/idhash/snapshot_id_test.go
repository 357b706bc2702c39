package idhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeSnapshotID(t *testing.T) {
	id := ComputeSnapshotID("blocks_by_time", "period=86400", 1713873600000)
	assert.Len(t, id, 64)
	assert.Equal(t, id, ComputeSnapshotID("blocks_by_time", "period=86400", 1713873600000))
}

func TestComputeSnapshotID_DifferentInputs(t *testing.T) {
	base := ComputeSnapshotID("blocks_by_time", "period=86400", 1)
	tests := []struct {
		name  string
		other string
	}{
		{"source", ComputeSnapshotID("txs_by_time", "period=86400", 1)},
		{"query", ComputeSnapshotID("blocks_by_time", "period=3600", 1)},
		{"fetched_at", ComputeSnapshotID("blocks_by_time", "period=86400", 2)},
		{"separator", ComputeSnapshotID("blocks_by_time|period=86400", "", 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, tt.other)
		})
	}
}
