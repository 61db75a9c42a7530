// Package index builds the in-memory search structures over one record
// snapshot: an inverted prefix index for free-text search and an exact-value
// index per searchable field.
//
// An Index is rebuilt wholesale. Positions returned by Search and Lookup are
// valid only for the generation that produced them.
package index

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/kailas-cloud/listdex/internal/domain/record"
	"github.com/kailas-cloud/listdex/internal/domain/textnorm"
)

var (
	// ErrNilSnapshot signals a nil record slice passed to New or Rebuild.
	ErrNilSnapshot = errors.New("nil snapshot")
	// ErrNilRecord signals a nil record inside the snapshot.
	ErrNilRecord = errors.New("nil record")
	// ErrSnapshotTooLarge signals more records than uint32 positions can address.
	ErrSnapshotTooLarge = errors.New("snapshot too large")
)

// Stats describes one build.
type Stats struct {
	Records    int
	PrefixKeys int
	ExactKeys  int
	Generation uint64
}

// Index owns a snapshot and the structures derived from it.
// It is not safe for concurrent use with Rebuild.
type Index struct {
	fields     []string
	generation uint64
	state      *state
}

// state is everything a build produces. Rebuild swaps it in one assignment.
type state struct {
	data []record.Record
	all  *roaring.Bitmap
	// prefixes: normalized prefix -> positions
	prefixes map[string]*roaring.Bitmap
	// exact: field -> value key -> positions
	exact map[string]map[string]*roaring.Bitmap
}

// New builds an index over items for the given searchable fields.
func New(items []record.Record, searchable []string) (*Index, error) {
	idx := &Index{fields: slices.Clone(searchable)}
	if err := idx.Rebuild(items); err != nil {
		return nil, err
	}
	return idx, nil
}

// Rebuild discards every derived structure and rebuilds from items.
// On error the previous build stays in place.
func (i *Index) Rebuild(items []record.Record) error {
	st, err := build(items, i.fields)
	if err != nil {
		return err
	}
	i.state = st
	i.generation++
	return nil
}

func build(items []record.Record, fields []string) (*state, error) {
	if items == nil {
		return nil, ErrNilSnapshot
	}
	if uint64(len(items)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d records", ErrSnapshotTooLarge, len(items))
	}

	st := &state{
		data:     items,
		all:      roaring.New(),
		prefixes: make(map[string]*roaring.Bitmap),
		exact:    make(map[string]map[string]*roaring.Bitmap, len(fields)),
	}
	st.all.AddRange(0, uint64(len(items)))

	for pos, rec := range items {
		if rec == nil {
			return nil, fmt.Errorf("%w at position %d", ErrNilRecord, pos)
		}
		p := uint32(pos) //nolint:gosec // bounded by the MaxUint32 check above
		for _, field := range fields {
			v := rec.Get(field)
			if v.IsNull() {
				continue
			}
			st.addExact(field, v, p)
			for _, word := range textnorm.Words(v.String()) {
				st.addPrefixes(word, p)
			}
		}
	}
	return st, nil
}

func (st *state) addExact(field string, v record.Value, pos uint32) {
	values, ok := st.exact[field]
	if !ok {
		values = make(map[string]*roaring.Bitmap)
		st.exact[field] = values
	}
	key := v.Key()
	bm, ok := values[key]
	if !ok {
		bm = roaring.New()
		values[key] = bm
	}
	bm.Add(pos)
}

// addPrefixes registers every prefix of word that is at least
// MinWordLength runes long.
func (st *state) addPrefixes(word string, pos uint32) {
	n := 0
	for end := range word {
		if n >= textnorm.MinWordLength {
			st.addPrefix(word[:end], pos)
		}
		n++
	}
	if n >= textnorm.MinWordLength {
		st.addPrefix(word, pos)
	}
}

func (st *state) addPrefix(prefix string, pos uint32) {
	bm, ok := st.prefixes[prefix]
	if !ok {
		bm = roaring.New()
		st.prefixes[prefix] = bm
	}
	bm.Add(pos)
}

// Search returns the positions matching query. Every query word of at least
// MinWordLength runes must match (AND). A word matches an indexed prefix when
// either contains the other. A query without such words matches everything.
// The returned bitmap is owned by the caller.
func (i *Index) Search(query string) *roaring.Bitmap {
	st := i.state
	words := textnorm.Words(query)
	if len(words) == 0 {
		return st.all.Clone()
	}

	var out *roaring.Bitmap
	for _, w := range words {
		hits := st.matchWord(w)
		if out == nil {
			out = hits
		} else {
			out.And(hits)
		}
		if out.IsEmpty() {
			break
		}
	}
	return out
}

func (st *state) matchWord(w string) *roaring.Bitmap {
	var matched []*roaring.Bitmap
	for key, bm := range st.prefixes {
		if strings.Contains(key, w) || strings.Contains(w, key) {
			matched = append(matched, bm)
		}
	}
	switch len(matched) {
	case 0:
		return roaring.New()
	case 1:
		return matched[0].Clone()
	}
	return roaring.FastOr(matched...)
}

// Lookup returns the positions whose field holds exactly v. Only searchable
// fields are indexed. The returned bitmap is owned by the caller.
func (i *Index) Lookup(field string, v record.Value) *roaring.Bitmap {
	if bm, ok := i.state.exact[field][v.Key()]; ok {
		return bm.Clone()
	}
	return roaring.New()
}

// Records maps positions to records of the current build.
func (i *Index) Records(positions *roaring.Bitmap) []record.Record {
	data := i.state.data
	out := make([]record.Record, 0, positions.GetCardinality())
	it := positions.Iterator()
	for it.HasNext() {
		p := it.Next()
		if int(p) < len(data) {
			out = append(out, data[p])
		}
	}
	return out
}

// Data returns the snapshot backing the current build.
func (i *Index) Data() []record.Record { return i.state.data }

// Len returns the number of records in the snapshot.
func (i *Index) Len() int { return len(i.state.data) }

// Generation returns the build counter, starting at 1.
func (i *Index) Generation() uint64 { return i.generation }

// Fields returns the searchable fields.
func (i *Index) Fields() []string { return slices.Clone(i.fields) }

// Stats summarizes the current build.
func (i *Index) Stats() Stats {
	exact := 0
	for _, values := range i.state.exact {
		exact += len(values)
	}
	return Stats{
		Records:    len(i.state.data),
		PrefixKeys: len(i.state.prefixes),
		ExactKeys:  exact,
		Generation: i.generation,
	}
}
