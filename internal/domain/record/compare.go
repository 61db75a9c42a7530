package record

import (
	"cmp"
	"strings"

	"golang.org/x/text/collate"
)

// kindRank orders values of different kinds. Null sorts after everything.
var kindRank = [...]int{
	KindBool:   0,
	KindNumber: 1,
	KindDate:   2,
	KindText:   3,
	KindNull:   4,
}

// Compare orders two values for sorting. Null is greater than any non-null
// value. Values of the same kind compare naturally, text through coll when it
// is non-nil. Mismatched kinds order by kind: bool, number, date, text.
func Compare(a, b Value, coll *collate.Collator) int {
	if a.kind != b.kind {
		return cmp.Compare(kindRank[a.kind], kindRank[b.kind])
	}
	switch a.kind {
	case KindText:
		if coll != nil {
			return coll.CompareString(a.s, b.s)
		}
		return strings.Compare(a.s, b.s)
	case KindNumber:
		return cmp.Compare(a.f, b.f)
	case KindBool:
		switch {
		case a.b == b.b:
			return 0
		case !a.b:
			return -1
		default:
			return 1
		}
	case KindDate:
		return a.t.Compare(b.t)
	default:
		return 0
	}
}
