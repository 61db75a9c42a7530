package engine

import (
	"math"
	"slices"

	"github.com/kailas-cloud/listdex/internal/domain/record"
	"github.com/kailas-cloud/listdex/internal/domain/search/result"
)

// UniqueValues returns the distinct non-null values of field over the whole
// snapshot in ascending order. Active filters are ignored.
func (e *Engine) UniqueValues(field string) []record.Value {
	seen := make(map[string]struct{})
	out := []record.Value{}
	for _, rec := range e.idx.Data() {
		v := rec.Get(field)
		if v.IsNull() {
			continue
		}
		k := v.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}

	coll := e.collator()
	slices.SortStableFunc(out, func(a, b record.Value) int {
		return record.Compare(a, b, coll)
	})
	return out
}

// Range returns the minimum and maximum numeric value of field over the whole
// snapshot. Non-numeric values are ignored; ok is false when none remain.
func (e *Engine) Range(field string) (result.Range, bool) {
	var (
		r     result.Range
		found bool
	)
	for _, rec := range e.idx.Data() {
		f, ok := rec.Get(field).AsNumber()
		if !ok || math.IsNaN(f) {
			continue
		}
		if !found {
			r = result.Range{Min: f, Max: f}
			found = true
			continue
		}
		r.Min = min(r.Min, f)
		r.Max = max(r.Max, f)
	}
	return r, found
}
