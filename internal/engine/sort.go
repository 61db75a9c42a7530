package engine

import (
	"slices"

	"golang.org/x/text/collate"

	"github.com/kailas-cloud/listdex/internal/domain/record"
	"github.com/kailas-cloud/listdex/internal/domain/search/sorting"
)

// sortRecords stable-sorts recs by cfg. Nulls compare greater than any value,
// so they land last ascending and first descending.
func sortRecords(recs []record.Record, cfg sorting.Config, coll *collate.Collator) {
	field := cfg.Field
	desc := cfg.Direction == sorting.Desc
	slices.SortStableFunc(recs, func(a, b record.Record) int {
		c := record.Compare(a.Get(field), b.Get(field), coll)
		if desc {
			return -c
		}
		return c
	})
}
