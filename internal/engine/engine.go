// Package engine runs the search, filter, sort and paginate pipeline over an
// index and answers facet queries (distinct values, numeric range).
//
// An Engine holds mutable query state and is meant for a single goroutine.
// Callers sharing data across goroutines build one Engine per reader over a
// shared *index.Index with FromIndex.
package engine

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/listdex/internal/domain/record"
	"github.com/kailas-cloud/listdex/internal/domain/search/filter"
	"github.com/kailas-cloud/listdex/internal/domain/search/result"
	"github.com/kailas-cloud/listdex/internal/domain/search/sorting"
	"github.com/kailas-cloud/listdex/internal/index"
)

// DefaultPageSize applies when Execute receives a page size below 1.
const DefaultPageSize = 20

// Engine composes an index with active filters and an optional sort.
type Engine struct {
	idx             *index.Index
	filters         []filter.Filter
	sort            *sorting.Config
	collation       language.Tag
	defaultPageSize int
}

// Option configures an Engine.
type Option func(*Engine)

// WithCollation sets the locale used to order text values.
func WithCollation(tag language.Tag) Option {
	return func(e *Engine) { e.collation = tag }
}

// WithDefaultPageSize overrides DefaultPageSize. Values below 1 are ignored.
func WithDefaultPageSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.defaultPageSize = n
		}
	}
}

// New builds an index over items and wraps it in an Engine.
func New(items []record.Record, searchable []string, opts ...Option) (*Engine, error) {
	idx, err := index.New(items, searchable)
	if err != nil {
		return nil, err
	}
	return FromIndex(idx, opts...), nil
}

// FromIndex wraps an already built index. The engine never rebuilds idx;
// SetData replaces it with a new one.
func FromIndex(idx *index.Index, opts ...Option) *Engine {
	e := &Engine{
		idx:             idx,
		collation:       language.Und,
		defaultPageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetData replaces the underlying index. Filters and sort are kept.
// On error the engine keeps its previous index.
func (e *Engine) SetData(items []record.Record, searchable []string) error {
	idx, err := index.New(items, searchable)
	if err != nil {
		return err
	}
	e.idx = idx
	return nil
}

// Index returns the underlying index.
func (e *Engine) Index() *index.Index { return e.idx }

// AddFilter registers f, replacing any filter on the same field.
func (e *Engine) AddFilter(f filter.Filter) {
	e.RemoveFilter(f.Field())
	e.filters = append(e.filters, f)
}

// RemoveFilter drops the filter on field, if any.
func (e *Engine) RemoveFilter(field string) {
	e.filters = slices.DeleteFunc(e.filters, func(f filter.Filter) bool {
		return f.Field() == field
	})
}

// ClearFilters drops every filter.
func (e *Engine) ClearFilters() { e.filters = nil }

// SetSort replaces the active sort. nil clears it.
func (e *Engine) SetSort(cfg *sorting.Config) {
	if cfg == nil {
		e.sort = nil
		return
	}
	c := *cfg
	e.sort = &c
}

// Filters returns the active filters in registration order.
func (e *Engine) Filters() []filter.Filter { return slices.Clone(e.filters) }

// Sort returns a copy of the active sort, or nil.
func (e *Engine) Sort() *sorting.Config {
	if e.sort == nil {
		return nil
	}
	c := *e.sort
	return &c
}

// Execute searches, filters, sorts and paginates. page < 1 means 1 and
// pageSize < 1 means the default page size. It never mutates engine state.
func (e *Engine) Execute(query string, page, pageSize int) result.Result {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = e.defaultPageSize
	}

	matched := e.idx.Records(e.idx.Search(query))
	if preds := compile(e.filters); len(preds) > 0 {
		matched = slices.DeleteFunc(matched, func(rec record.Record) bool {
			return !matchAll(preds, rec)
		})
	}
	if e.sort != nil {
		sortRecords(matched, *e.sort, e.collator())
	}
	return paginate(matched, e.idx.Len(), page, pageSize)
}

func paginate(matched []record.Record, total, page, pageSize int) result.Result {
	filtered := len(matched)
	items := []record.Record{}
	if page <= result.TotalPages(filtered, pageSize) {
		start := (page - 1) * pageSize
		end := start + min(pageSize, filtered-start)
		items = matched[start:end:end]
	}
	return result.New(items, total, filtered, page, pageSize)
}

// collator is built per call: collate.Collator is not safe for concurrent use.
func (e *Engine) collator() *collate.Collator {
	return collate.New(e.collation)
}
