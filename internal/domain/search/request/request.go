package request

import (
	"fmt"

	"github.com/kailas-cloud/listdex/internal/domain/search/filter"
	"github.com/kailas-cloud/listdex/internal/domain/search/sorting"
)

// Listing parameter limits.
const (
	// MaxQueryLength is the maximum allowed free-text query length in bytes.
	MaxQueryLength  = 1024
	MaxFilters      = 32
	DefaultPageSize = 20
	MaxPageSize     = 500
)

// Request is a validated listing query.
type Request struct {
	query    string
	filters  []filter.Filter
	sort     *sorting.Config
	page     int
	pageSize int
}

// New validates and normalizes listing parameters.
// Defaults: page=1, pageSize=DefaultPageSize. pageSize is clamped to
// maxPageSize, or to MaxPageSize when maxPageSize is not positive.
func New(
	query string,
	filters []filter.Filter,
	sort *sorting.Config,
	page, pageSize, maxPageSize int,
) (Request, error) {
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if len(filters) > MaxFilters {
		return Request{}, fmt.Errorf("too many filters (max %d)", MaxFilters)
	}
	for _, f := range filters {
		if !f.Type().IsValid() {
			return Request{}, fmt.Errorf("invalid filter type %q for field %q", f.Type(), f.Field())
		}
	}
	if sort != nil && !sort.Direction.IsValid() {
		return Request{}, fmt.Errorf("invalid sort direction: %q", sort.Direction)
	}
	if maxPageSize <= 0 {
		maxPageSize = MaxPageSize
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = min(DefaultPageSize, maxPageSize)
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return Request{
		query:    query,
		filters:  append([]filter.Filter(nil), filters...),
		sort:     sort,
		page:     page,
		pageSize: pageSize,
	}, nil
}

// Query returns the free-text query.
func (r *Request) Query() string { return r.query }

// Filters returns the filters in registration order.
func (r *Request) Filters() []filter.Filter { return r.filters }

// Sort returns the sort, or nil when unsorted.
func (r *Request) Sort() *sorting.Config { return r.sort }

// Page returns the 1-based page number.
func (r *Request) Page() int { return r.page }

// PageSize returns the page size.
func (r *Request) PageSize() int { return r.pageSize }
