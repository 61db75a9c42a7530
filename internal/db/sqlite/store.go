package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/kailas-cloud/listdex/internal/db"
)

// Compile-time check: Store implements db.SQLStore.
var _ db.SQLStore = (*Store)(nil)

const memoryPath = ":memory:"

// Config holds the SQLite database location.
type Config struct {
	Path string
}

// Store runs read-only snapshot queries against SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens the database. The connection is lazy; use Ping or
// WaitForReady to verify it.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	// busy_timeout: wait up to 5s on a writer's lock instead of failing
	dsn := cfg.Path
	maxConns := 4
	if dsn == memoryPath {
		// every connection to :memory: is a distinct database
		maxConns = 1
	} else {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", cfg.Path)
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(maxConns)
	conn.SetMaxIdleConns(maxConns)
	if maxConns > 1 {
		conn.SetConnMaxLifetime(2 * time.Hour)
	}

	return &Store{db: conn}, nil
}

// NewStoreFromDB wraps an already opened handle.
func NewStoreFromDB(conn *sql.DB) *Store {
	return &Store{db: conn}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close releases the handle.
func (s *Store) Close() {
	_ = s.db.Close()
}

// WaitForReady polls Ping until the database responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.Ping(ctx); err == nil {
		return nil
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for sqlite: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// QueryRows runs query and returns each row as a column-name keyed map.
// BLOB columns are returned as strings.
func (s *Store) QueryRows(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}

	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("scan: %w", err)}
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return out, nil
}
