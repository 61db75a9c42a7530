package snapshot

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/listdex/internal/domain/record"
)

// FetchFunc returns the raw rows of a snapshot.
type FetchFunc func(ctx context.Context) ([]map[string]any, error)

// FuncLoader adapts a FetchFunc to a Loader. It lets embedders plug in
// sources the service does not know about.
type FuncLoader struct {
	fetch  FetchFunc
	schema record.Schema
}

// NewFuncLoader creates a loader backed by fetch.
func NewFuncLoader(fetch FetchFunc, schema record.Schema) *FuncLoader {
	return &FuncLoader{fetch: fetch, schema: schema}
}

// Load calls fetch and converts every row.
func (l *FuncLoader) Load(ctx context.Context) ([]record.Record, error) {
	if l.fetch == nil {
		return nil, fmt.Errorf("fetch snapshot: no fetch function")
	}
	rows, err := l.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	out := make([]record.Record, 0, len(rows))
	for i, row := range rows {
		if row == nil {
			return nil, fmt.Errorf("fetch snapshot: row %d is nil", i)
		}
		out = append(out, toRecord(row, l.schema))
	}
	return out, nil
}
