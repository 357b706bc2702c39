package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeSnapshotID computes a deterministic snapshot_id using SHA256.
// Formula: SHA256(source_key|query|fetched_at)
// Returns hex-encoded hash (64 characters).
func ComputeSnapshotID(sourceKey, query string, fetchedAt int64) string {
	data := fmt.Sprintf("%s|%s|%d", sourceKey, query, fetchedAt)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
