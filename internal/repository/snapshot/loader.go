// Package snapshot loads dataset records from the configured sources.
package snapshot

import (
	"context"
	"encoding/json"

	"github.com/kailas-cloud/listdex/internal/domain/record"
)

// Loader produces a full snapshot of one dataset.
type Loader interface {
	Load(ctx context.Context) ([]record.Record, error)
}

// toRecord converts a decoded row into a Record, then applies schema.
// Nested objects and arrays are kept as compact JSON text.
func toRecord(m map[string]any, schema record.Schema) record.Record {
	rec := make(record.Record, len(m))
	for k, v := range m {
		switch v.(type) {
		case map[string]any, []any:
			if b, err := json.Marshal(v); err == nil {
				rec[k] = record.Text(string(b))
				continue
			}
		}
		rec[k] = record.FromAny(v)
	}
	return schema.Apply(rec)
}
