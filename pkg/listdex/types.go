package listdex

import (
	"time"

	"github.com/kailas-cloud/listdex/internal/domain/record"
	"github.com/kailas-cloud/listdex/internal/domain/search/filter"
	"github.com/kailas-cloud/listdex/internal/domain/search/sorting"
	listinguc "github.com/kailas-cloud/listdex/internal/usecase/listing"
)

// Query is one listing request. Zero Page and PageSize use the dataset
// defaults.
type Query struct {
	Text     string
	Filters  []Filter
	Sort     *Sort
	Page     int
	PageSize int
}

// Sort orders results by one field.
type Sort struct {
	Field string
	Desc  bool
}

// Filter narrows a query. Build one with Contains, Equals, StartsWith,
// Range, In, Is or Between. Invalid filters are reported by Query.
type Filter struct {
	build func() (filter.Filter, error)
}

// Contains matches records whose normalized field text contains value.
func Contains(field, value string) Filter {
	return textFilter(field, value, filter.OpContains)
}

// Equals matches records whose normalized field text equals value.
func Equals(field, value string) Filter {
	return textFilter(field, value, filter.OpEquals)
}

// StartsWith matches records whose normalized field text starts with value.
func StartsWith(field, value string) Filter {
	return textFilter(field, value, filter.OpStartsWith)
}

func textFilter(field, value string, op filter.Operator) Filter {
	return Filter{build: func() (filter.Filter, error) {
		return filter.NewText(field, value, op)
	}}
}

// Range matches numeric values within [lo, hi]. Either bound may be nil.
func Range(field string, lo, hi *float64) Filter {
	return Filter{build: func() (filter.Filter, error) {
		return filter.NewRange(field, lo, hi)
	}}
}

// In matches records whose field equals any of values.
func In(field string, values ...any) Filter {
	return Filter{build: func() (filter.Filter, error) {
		vs := make([]record.Value, 0, len(values))
		for _, v := range values {
			vs = append(vs, record.FromAny(v))
		}
		return filter.NewList(field, vs)
	}}
}

// Is matches records whose boolean field equals v.
func Is(field string, v bool) Filter {
	return Filter{build: func() (filter.Filter, error) {
		return filter.NewBoolean(field, &v)
	}}
}

// Between matches dates within [from, to]. Either bound may be nil.
func Between(field string, from, to *time.Time) Filter {
	return Filter{build: func() (filter.Filter, error) {
		return filter.NewDate(field, from, to)
	}}
}

// Float returns a pointer to f, for Range bounds.
func Float(f float64) *float64 { return &f }

// Page is one page of query results.
type Page struct {
	Items         []map[string]any
	TotalCount    int
	FilteredCount int
	Page          int
	PageSize      int
	TotalPages    int
	// Generation identifies the snapshot the query ran against.
	Generation uint64
	ETag       string
}

// NumericRange is the numeric extent of a field.
type NumericRange struct {
	Min float64
	Max float64
}

// DatasetInfo describes the loaded state of a dataset.
type DatasetInfo struct {
	Name       string
	Records    int
	Generation uint64
	Loaded     bool
	LoadedAt   time.Time
	LastError  string
}

func (q Query) params() (listinguc.Params, error) {
	p := listinguc.Params{
		Query:    q.Text,
		Page:     q.Page,
		PageSize: q.PageSize,
	}
	for _, f := range q.Filters {
		if f.build == nil {
			continue
		}
		built, err := f.build()
		if err != nil {
			return listinguc.Params{}, err
		}
		p.Filters = append(p.Filters, built)
	}
	if q.Sort != nil {
		dir := sorting.Asc
		if q.Sort.Desc {
			dir = sorting.Desc
		}
		cfg, err := sorting.New(q.Sort.Field, dir)
		if err != nil {
			return listinguc.Params{}, err
		}
		p.Sort = &cfg
	}
	return p, nil
}

func toItems(recs []record.Record) []map[string]any {
	items := make([]map[string]any, 0, len(recs))
	for _, r := range recs {
		items = append(items, r.ToMap())
	}
	return items
}

func toValues(vs []record.Value) []any {
	out := make([]any, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Interface())
	}
	return out
}

func toDatasetInfo(i listinguc.Info) DatasetInfo {
	return DatasetInfo{
		Name:       i.Name,
		Records:    i.Records,
		Generation: i.Generation,
		Loaded:     i.Loaded,
		LoadedAt:   i.LoadedAt,
		LastError:  i.LastError,
	}
}
