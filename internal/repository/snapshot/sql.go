package snapshot

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/listdex/internal/domain/record"
)

// rowReader is the consumer interface for SQL sources (ISP).
type rowReader interface {
	QueryRows(ctx context.Context, query string, args ...any) ([]map[string]any, error)
}

// SQLLoader turns the rows of a query into records, one field per column.
type SQLLoader struct {
	store  rowReader
	query  string
	schema record.Schema
}

// NewSQLLoader creates a SQL loader.
func NewSQLLoader(store rowReader, query string, schema record.Schema) *SQLLoader {
	return &SQLLoader{store: store, query: query, schema: schema}
}

// Load runs the query.
func (l *SQLLoader) Load(ctx context.Context) ([]record.Record, error) {
	rows, err := l.store.QueryRows(ctx, l.query)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	out := make([]record.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, toRecord(row, l.schema))
	}
	return out, nil
}
