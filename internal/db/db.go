package db

import (
	"context"
	"time"
)

// Store is the connection lifecycle every snapshot backend shares.
type Store interface {
	Pinger
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashReader reads hash-shaped records from Redis or Valkey.
type HashReader interface {
	Scan(ctx context.Context, pattern string) ([]string, error)
	// HGetAllMulti returns one map per key, in key order. Keys that vanished
	// or hold a non-hash value come back as nil.
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// RowReader runs read-only SQL queries.
type RowReader interface {
	QueryRows(ctx context.Context, query string, args ...any) ([]map[string]any, error)
}

// HashStore is a Store that serves hashes.
type HashStore interface {
	Store
	HashReader
}

// SQLStore is a Store that serves SQL rows.
type SQLStore interface {
	Store
	RowReader
}
