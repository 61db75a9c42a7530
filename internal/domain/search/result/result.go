package result

import "github.com/kailas-cloud/listdex/internal/domain/record"

// Result is one page of a listing together with pre- and post-filter counts.
type Result struct {
	Items         []record.Record
	TotalCount    int
	FilteredCount int
	Page          int
	PageSize      int
	TotalPages    int
}

// New builds a Result and derives TotalPages from filtered and pageSize.
func New(items []record.Record, total, filtered, page, pageSize int) Result {
	if items == nil {
		items = []record.Record{}
	}
	return Result{
		Items:         items,
		TotalCount:    total,
		FilteredCount: filtered,
		Page:          page,
		PageSize:      pageSize,
		TotalPages:    TotalPages(filtered, pageSize),
	}
}

// TotalPages returns ceil(filtered / pageSize), or 0 for a non-positive page size.
func TotalPages(filtered, pageSize int) int {
	if pageSize <= 0 || filtered <= 0 {
		return 0
	}
	pages := filtered / pageSize
	if filtered%pageSize != 0 {
		pages++
	}
	return pages
}

// Range is the numeric extent of a field.
type Range struct {
	Min float64
	Max float64
}
