package listdex

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Source names where a dataset snapshot is read from.
type Source string

// Snapshot sources.
const (
	// SourceFile reads a JSON array or YAML sequence. Location is the path.
	SourceFile Source = "file"
	// SourceRedis reads hashes. Location is the SCAN key pattern.
	SourceRedis Source = "redis"
	// SourceSQLite runs a query. Location is the SQL text.
	SourceSQLite Source = "sqlite"
	// SourceFunc calls Dataset.Fetch.
	SourceFunc Source = "func"
)

// Dataset declares one dataset served by the Client.
type Dataset struct {
	Name     string
	Source   Source
	Location string
	// Fetch is used with SourceFunc.
	Fetch func(ctx context.Context) ([]map[string]any, error)

	Searchable []string
	// Schema maps field to kind: text, number, bool or date.
	Schema map[string]string
	// Collation is a BCP 47 tag for text ordering. Empty means "und".
	Collation string

	DefaultPageSize int
	MaxPageSize     int
	// RefreshInterval of zero loads the snapshot once. Periodic refresh
	// runs only while Client.Run is active.
	RefreshInterval time.Duration
}

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	redisAddrs    []string
	redisPassword string
	redisDB       int
	sqlitePath    string

	datasets []Dataset

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis connects the client to a Redis or Valkey instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddrs = []string{addr}
		c.redisPassword = password
	})
}

// WithRedisDB selects the logical Redis database.
func WithRedisDB(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisDB = n
	})
}

// WithSQLite opens a SQLite database file. Use ":memory:" for a private
// in-memory database.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.sqlitePath = path
	})
}

// WithDataset registers a dataset. Names must be unique.
func WithDataset(d Dataset) Option {
	return optionFunc(func(c *clientConfig) {
		c.datasets = append(c.datasets, d)
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
