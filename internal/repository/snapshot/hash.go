package snapshot

import (
	"context"
	"fmt"
	"slices"

	"github.com/kailas-cloud/listdex/internal/db"
	"github.com/kailas-cloud/listdex/internal/domain/record"
)

// KeyField carries the source key of hash-loaded records.
const KeyField = "_key"

// pipelineBatch bounds the number of HGETALLs per round-trip.
const pipelineBatch = 500

// hashReader is the consumer interface for hash sources (ISP).
type hashReader interface {
	Scan(ctx context.Context, pattern string) ([]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

var _ hashReader = (db.HashReader)(nil)

// HashLoader reads every hash whose key matches a pattern.
type HashLoader struct {
	store   hashReader
	pattern string
	schema  record.Schema
}

// NewHashLoader creates a hash loader.
func NewHashLoader(store hashReader, pattern string, schema record.Schema) *HashLoader {
	return &HashLoader{store: store, pattern: pattern, schema: schema}
}

// Load scans matching keys and fetches them in pipelined batches. Records
// come back sorted by key so positions are stable across reloads.
func (l *HashLoader) Load(ctx context.Context) ([]record.Record, error) {
	keys, err := l.store.Scan(ctx, l.pattern)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", l.pattern, err)
	}
	slices.Sort(keys)
	keys = slices.Compact(keys)

	out := make([]record.Record, 0, len(keys))
	for batch := range slices.Chunk(keys, pipelineBatch) {
		hashes, err := l.store.HGetAllMulti(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("fetch hashes: %w", err)
		}
		for i, h := range hashes {
			if h == nil {
				continue
			}
			rec := make(record.Record, len(h)+1)
			for k, v := range h {
				rec[k] = record.Text(v)
			}
			rec[KeyField] = record.Text(batch[i])
			out = append(out, l.schema.Apply(rec))
		}
	}
	return out, nil
}
