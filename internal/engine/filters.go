package engine

import (
	"strings"

	"github.com/kailas-cloud/listdex/internal/domain/record"
	"github.com/kailas-cloud/listdex/internal/domain/search/filter"
	"github.com/kailas-cloud/listdex/internal/domain/textnorm"
)

// predicate reports whether a record passes one filter.
type predicate func(rec record.Record) bool

// compile turns filters into predicates. Filters that constrain nothing are
// skipped.
func compile(filters []filter.Filter) []predicate {
	preds := make([]predicate, 0, len(filters))
	for _, f := range filters {
		if p := compileOne(f); p != nil {
			preds = append(preds, p)
		}
	}
	return preds
}

func matchAll(preds []predicate, rec record.Record) bool {
	for _, p := range preds {
		if !p(rec) {
			return false
		}
	}
	return true
}

func compileOne(f filter.Filter) predicate {
	field := f.Field()
	switch f.Type() {
	case filter.TypeText:
		return textPredicate(field, f.Text(), f.Operator())
	case filter.TypeRange:
		return rangePredicate(field, f)
	case filter.TypeList:
		return listPredicate(field, f.Values())
	case filter.TypeBoolean:
		return boolPredicate(field, f.Flag())
	case filter.TypeDate:
		return datePredicate(field, f)
	default:
		return nil
	}
}

func textPredicate(field, value string, op filter.Operator) predicate {
	if value == "" {
		return nil
	}
	needle := textnorm.Normalize(value)
	var match func(hay string) bool
	switch op {
	case filter.OpEquals:
		match = func(hay string) bool { return hay == needle }
	case filter.OpStartsWith:
		match = func(hay string) bool { return strings.HasPrefix(hay, needle) }
	default:
		match = func(hay string) bool { return strings.Contains(hay, needle) }
	}
	return func(rec record.Record) bool {
		return match(textnorm.Normalize(rec.Get(field).String()))
	}
}

// rangePredicate keeps values inside the inclusive bounds. Values that are not
// numeric pass.
func rangePredicate(field string, f filter.Filter) predicate {
	lo, hi := f.Min(), f.Max()
	if lo == nil && hi == nil {
		return nil
	}
	return func(rec record.Record) bool {
		x, ok := rec.Get(field).Float64()
		if !ok {
			return true
		}
		if lo != nil && x < *lo {
			return false
		}
		if hi != nil && x > *hi {
			return false
		}
		return true
	}
}

func listPredicate(field string, allowed []record.Value) predicate {
	if len(allowed) == 0 {
		return nil
	}
	keys := make(map[string]struct{}, len(allowed))
	for _, v := range allowed {
		keys[v.Key()] = struct{}{}
	}
	return func(rec record.Record) bool {
		_, ok := keys[rec.Get(field).Key()]
		return ok
	}
}

func boolPredicate(field string, want *bool) predicate {
	if want == nil {
		return nil
	}
	w := *want
	return func(rec record.Record) bool {
		b, ok := rec.Get(field).AsBool()
		return ok && b == w
	}
}

// datePredicate keeps instants inside the inclusive window. Values that do not
// parse as a time pass.
func datePredicate(field string, f filter.Filter) predicate {
	from, to := f.From(), f.To()
	if from == nil && to == nil {
		return nil
	}
	return func(rec record.Record) bool {
		t, ok := rec.Get(field).Time()
		if !ok {
			return true
		}
		if from != nil && t.Before(*from) {
			return false
		}
		if to != nil && t.After(*to) {
			return false
		}
		return true
	}
}
