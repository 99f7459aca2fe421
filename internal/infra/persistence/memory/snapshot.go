package memory

import (
	"encoding/json"
	"fmt"
)

// Snapshot buckets persisted by the SQL-backed stores, one JSON payload each.
const (
	BucketSequences  = "sequences"
	BucketAlignments = "alignments"
	BucketBookmarks  = "bookmarks"
)

// Buckets lists every bucket in persistence order.
var Buckets = []string{BucketSequences, BucketAlignments, BucketBookmarks}

// EncodeBucket marshals the list stored under bucket.
func (s Snapshot) EncodeBucket(bucket string) ([]byte, error) {
	switch bucket {
	case BucketSequences:
		return json.Marshal(s.Sequences)
	case BucketAlignments:
		return json.Marshal(s.Alignments)
	case BucketBookmarks:
		return json.Marshal(s.Bookmarks)
	}
	return nil, fmt.Errorf("unknown bucket %q", bucket)
}

// DecodeBucket unmarshals payload into the list stored under bucket. Unknown
// buckets are ignored so older tables with extra rows still load.
func (s *Snapshot) DecodeBucket(bucket string, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	var target any
	switch bucket {
	case BucketSequences:
		target = &s.Sequences
	case BucketAlignments:
		target = &s.Alignments
	case BucketBookmarks:
		target = &s.Bookmarks
	default:
		return nil
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("decode %s: %w", bucket, err)
	}
	return nil
}
