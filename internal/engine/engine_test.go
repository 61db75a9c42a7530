package engine

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/kailas-cloud/listdex/internal/domain/record"
	"github.com/kailas-cloud/listdex/internal/domain/search/filter"
	"github.com/kailas-cloud/listdex/internal/domain/search/result"
	"github.com/kailas-cloud/listdex/internal/domain/search/sorting"
	"github.com/kailas-cloud/listdex/internal/index"
)

func floatPtr(f float64) *float64 { return &f }

func parts() []record.Record {
	return []record.Record{
		{"id": record.Number(1), "name": record.Text("قطعة أ"), "price": record.Number(100)},
		{"id": record.Number(2), "name": record.Text("قطعة ب"), "price": record.Number(200)},
		{"id": record.Number(3), "name": record.Text("غيار ج"), "price": record.Number(150)},
	}
}

func mustEngine(t *testing.T, items []record.Record, fields []string, opts ...Option) *Engine {
	t.Helper()
	e, err := New(items, fields, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func mustFilter(t *testing.T) func(filter.Filter, error) filter.Filter {
	t.Helper()
	return func(f filter.Filter, err error) filter.Filter {
		t.Helper()
		if err != nil {
			t.Fatalf("filter: %v", err)
		}
		return f
	}
}

func ids(res result.Result) []float64 {
	out := make([]float64, 0, len(res.Items))
	for _, rec := range res.Items {
		id, _ := rec.Get("id").AsNumber()
		out = append(out, id)
	}
	return out
}

func numbered(values ...record.Value) []record.Record {
	out := make([]record.Record, len(values))
	for i, v := range values {
		out[i] = record.Record{"id": record.Number(float64(i + 1)), "v": v}
	}
	return out
}

func TestScenario_Parts(t *testing.T) {
	e := mustEngine(t, parts(), []string{"name"})

	res := e.Execute("قطعة", 1, 20)
	if got := ids(res); !reflect.DeepEqual(got, []float64{1, 2}) {
		t.Errorf("search ids = %v, want [1 2]", got)
	}
	if res.FilteredCount != 2 || res.TotalCount != 3 {
		t.Errorf("counts = %d/%d, want 2/3", res.FilteredCount, res.TotalCount)
	}

	e.AddFilter(mustFilter(t)(filter.NewRange("price", floatPtr(120), floatPtr(300))))
	res = e.Execute("", 1, 20)
	if got := ids(res); !reflect.DeepEqual(got, []float64{2, 3}) {
		t.Errorf("range ids = %v, want [2 3]", got)
	}
	if res.FilteredCount != 2 {
		t.Errorf("FilteredCount = %d, want 2", res.FilteredCount)
	}

	e.ClearFilters()
	e.SetSort(&sorting.Config{Field: "price", Direction: sorting.Desc})
	if got := ids(e.Execute("", 1, 20)); !reflect.DeepEqual(got, []float64{2, 3, 1}) {
		t.Errorf("sorted ids = %v, want [2 3 1]", got)
	}

	r, ok := e.Range("price")
	if !ok || r.Min != 100 || r.Max != 200 {
		t.Errorf("Range(price) = %+v, %v; want 100..200", r, ok)
	}

	var names []string
	for _, v := range e.UniqueValues("name") {
		s, _ := v.AsText()
		names = append(names, s)
	}
	want := []string{"غيار ج", "قطعة أ", "قطعة ب"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("UniqueValues(name) = %v, want %v", names, want)
	}
}

func TestAddFilter_ReplacesSameField(t *testing.T) {
	e := mustEngine(t, parts(), []string{"name"})
	e.AddFilter(mustFilter(t)(filter.NewRange("price", floatPtr(0), floatPtr(120))))
	e.AddFilter(mustFilter(t)(filter.NewText("name", "غيار", "")))
	e.AddFilter(mustFilter(t)(filter.NewRange("price", floatPtr(140), nil)))

	fs := e.Filters()
	if len(fs) != 2 {
		t.Fatalf("len(Filters()) = %d, want 2", len(fs))
	}
	if fs[1].Field() != "price" || *fs[1].Min() != 140 {
		t.Errorf("latest price filter not kept: %+v", fs[1])
	}
	if got := ids(e.Execute("", 1, 20)); !reflect.DeepEqual(got, []float64{3}) {
		t.Errorf("ids = %v, want [3]", got)
	}
}

func TestRemoveFilter(t *testing.T) {
	e := mustEngine(t, parts(), []string{"name"})
	e.AddFilter(mustFilter(t)(filter.NewRange("price", floatPtr(150), nil)))
	e.RemoveFilter("price")
	e.RemoveFilter("unknown")
	if res := e.Execute("", 1, 20); res.FilteredCount != 3 {
		t.Errorf("FilteredCount = %d, want 3", res.FilteredCount)
	}
}

func TestRangeFilter_InclusiveBounds(t *testing.T) {
	items := numbered(record.Number(9), record.Number(10), record.Number(20), record.Number(21))
	e := mustEngine(t, items, nil)
	e.AddFilter(mustFilter(t)(filter.NewRange("v", floatPtr(10), floatPtr(20))))
	if got := ids(e.Execute("", 1, 20)); !reflect.DeepEqual(got, []float64{2, 3}) {
		t.Errorf("ids = %v, want [2 3]", got)
	}
}

func TestRangeFilter_Edges(t *testing.T) {
	items := numbered(
		record.Number(5),
		record.Text("15"),
		record.Text("n/a"),
		record.Null(),
		record.Number(50),
	)
	tests := []struct {
		name   string
		lo, hi *float64
		want   []float64
	}{
		{"min only", floatPtr(10), nil, []float64{2, 3, 4, 5}},
		{"max only", nil, floatPtr(10), []float64{1, 3, 4}},
		{"no bounds", nil, nil, []float64{1, 2, 3, 4, 5}},
		{"inverted", floatPtr(30), floatPtr(10), []float64{3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustEngine(t, items, nil)
			e.AddFilter(mustFilter(t)(filter.NewRange("v", tt.lo, tt.hi)))
			if got := ids(e.Execute("", 1, 20)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRangeFilter_InvertedOnNumbersIsEmpty(t *testing.T) {
	e := mustEngine(t, parts(), []string{"name"})
	e.AddFilter(mustFilter(t)(filter.NewRange("price", floatPtr(300), floatPtr(120))))
	res := e.Execute("", 1, 20)
	if len(res.Items) != 0 || res.FilteredCount != 0 || res.TotalCount != 3 {
		t.Errorf("result = %+v, want empty with total 3", res)
	}
}

func TestTextFilter(t *testing.T) {
	items := []record.Record{
		{"id": record.Number(1), "name": record.Text("Oil Filter")},
		{"id": record.Number(2), "name": record.Text("فلتر زيت")},
		{"id": record.Number(3), "name": record.Text("Filter")},
		{"id": record.Number(4)},
	}
	tests := []struct {
		name  string
		value string
		op    filter.Operator
		want  []float64
	}{
		{"empty passes", "", "", []float64{1, 2, 3, 4}},
		{"contains case-insensitive", "FILTER", "", []float64{1, 3}},
		{"contains arabic", "فلتر", filter.OpContains, []float64{2}},
		{"equals", "filter", filter.OpEquals, []float64{3}},
		{"starts with", "oil", filter.OpStartsWith, []float64{1}},
		{"no match", "brake", "", []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustEngine(t, items, nil)
			e.AddFilter(mustFilter(t)(filter.NewText("name", tt.value, tt.op)))
			if got := ids(e.Execute("", 1, 20)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListFilter(t *testing.T) {
	items := numbered(record.Text("a"), record.Text("b"), record.Number(1), record.Text("1"), record.Null())
	tests := []struct {
		name    string
		allowed []record.Value
		want    []float64
	}{
		{"empty passes", nil, []float64{1, 2, 3, 4, 5}},
		{"text members", []record.Value{record.Text("a"), record.Text("b")}, []float64{1, 2}},
		{"raw number only", []record.Value{record.Number(1)}, []float64{3}},
		{"raw text only", []record.Value{record.Text("1")}, []float64{4}},
		{"no member", []record.Value{record.Text("z")}, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustEngine(t, items, nil)
			e.AddFilter(mustFilter(t)(filter.NewList("v", tt.allowed)))
			if got := ids(e.Execute("", 1, 20)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBooleanFilter(t *testing.T) {
	items := numbered(record.Bool(true), record.Bool(false), record.Text("true"), record.Null())
	yes, no := true, false
	tests := []struct {
		name string
		flag *bool
		want []float64
	}{
		{"nil passes", nil, []float64{1, 2, 3, 4}},
		{"true strict", &yes, []float64{1}},
		{"false strict", &no, []float64{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustEngine(t, items, nil)
			e.AddFilter(mustFilter(t)(filter.NewBoolean("v", tt.flag)))
			if got := ids(e.Execute("", 1, 20)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDateFilter(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	items := numbered(
		record.Date(day(1)),
		record.Text("2024-01-05"),
		record.Date(day(10)),
		record.Text("soon"),
		record.Number(float64(day(20).UnixMilli())),
	)
	from, to := day(5), day(10)
	tests := []struct {
		name     string
		from, to *time.Time
		want     []float64
	}{
		{"window inclusive", &from, &to, []float64{2, 3, 4}},
		{"from only", &from, nil, []float64{2, 3, 4, 5}},
		{"to only", nil, &to, []float64{1, 2, 3, 4}},
		{"no bounds", nil, nil, []float64{1, 2, 3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustEngine(t, items, nil)
			e.AddFilter(mustFilter(t)(filter.NewDate("v", tt.from, tt.to)))
			if got := ids(e.Execute("", 1, 20)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilters_AreANDed(t *testing.T) {
	e := mustEngine(t, parts(), []string{"name"})
	e.AddFilter(mustFilter(t)(filter.NewText("name", "قطعه", "")))
	e.AddFilter(mustFilter(t)(filter.NewRange("price", floatPtr(150), nil)))
	if got := ids(e.Execute("", 1, 20)); !reflect.DeepEqual(got, []float64{2}) {
		t.Errorf("ids = %v, want [2]", got)
	}
	if got := ids(e.Execute("غيار", 1, 20)); len(got) != 0 {
		t.Errorf("search+filters ids = %v, want none", got)
	}
}

func TestSort_NullsAndStability(t *testing.T) {
	items := numbered(
		record.Number(2),
		record.Null(),
		record.Number(1),
		record.Number(2),
		record.Null(),
		record.Number(3),
	)
	e := mustEngine(t, items, nil)

	e.SetSort(&sorting.Config{Field: "v", Direction: sorting.Asc})
	if got := ids(e.Execute("", 1, 20)); !reflect.DeepEqual(got, []float64{3, 1, 4, 6, 2, 5}) {
		t.Errorf("asc ids = %v", got)
	}

	e.SetSort(&sorting.Config{Field: "v", Direction: sorting.Desc})
	if got := ids(e.Execute("", 1, 20)); !reflect.DeepEqual(got, []float64{2, 5, 6, 1, 4, 3}) {
		t.Errorf("desc ids = %v", got)
	}

	e.SetSort(nil)
	if got := ids(e.Execute("", 1, 20)); !reflect.DeepEqual(got, []float64{1, 2, 3, 4, 5, 6}) {
		t.Errorf("unsorted ids = %v", got)
	}
}

func TestSort_Kinds(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 2, d, 0, 0, 0, 0, time.UTC) }
	tests := []struct {
		name  string
		items []record.Record
		want  []float64
	}{
		{"dates by instant", numbered(record.Date(day(3)), record.Date(day(1)), record.Date(day(2))), []float64{2, 3, 1}},
		{"bools false first", numbered(record.Bool(true), record.Bool(false)), []float64{2, 1}},
		{"numbers by magnitude", numbered(record.Number(10), record.Number(9), record.Number(-1)), []float64{3, 2, 1}},
		{"mixed kinds", numbered(record.Text("a"), record.Number(5), record.Bool(true)), []float64{3, 2, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustEngine(t, tt.items, nil)
			e.SetSort(&sorting.Config{Field: "v", Direction: sorting.Asc})
			if got := ids(e.Execute("", 1, 20)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSort_Collation(t *testing.T) {
	items := numbered(record.Text("b"), record.Text("B"), record.Text("a"))
	e := mustEngine(t, items, nil, WithCollation(language.English))
	e.SetSort(&sorting.Config{Field: "v", Direction: sorting.Asc})
	got := ids(e.Execute("", 1, 20))
	if got[0] != 3 {
		t.Errorf("ids = %v, want a first", got)
	}
}

func TestPagination(t *testing.T) {
	items := numbered(record.Number(1), record.Number(2), record.Number(3), record.Number(4), record.Number(5))
	e := mustEngine(t, items, nil)

	tests := []struct {
		name       string
		page, size int
		wantIDs    []float64
		wantPage   int
		wantSize   int
		wantPages  int
	}{
		{"first page", 1, 2, []float64{1, 2}, 1, 2, 3},
		{"last partial page", 3, 2, []float64{5}, 3, 2, 3},
		{"past the end", 4, 2, []float64{}, 4, 2, 3},
		{"far past the end", 1 << 30, 2, []float64{}, 1 << 30, 2, 3},
		{"page below one", 0, 2, []float64{1, 2}, 1, 2, 3},
		{"default size", 1, 0, []float64{1, 2, 3, 4, 5}, 1, DefaultPageSize, 1},
		{"huge size", 1, math.MaxInt, []float64{1, 2, 3, 4, 5}, 1, math.MaxInt, 1},
		{"huge size past the end", 2, math.MaxInt, []float64{}, 2, math.MaxInt, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Execute("", tt.page, tt.size)
			if got := ids(res); !reflect.DeepEqual(got, tt.wantIDs) {
				t.Errorf("ids = %v, want %v", got, tt.wantIDs)
			}
			if res.Page != tt.wantPage || res.PageSize != tt.wantSize || res.TotalPages != tt.wantPages {
				t.Errorf("page=%d size=%d pages=%d", res.Page, res.PageSize, res.TotalPages)
			}
			if res.TotalCount != 5 || res.FilteredCount != 5 {
				t.Errorf("counts = %d/%d, want 5/5", res.TotalCount, res.FilteredCount)
			}
		})
	}
}

func TestPagination_EmptyResult(t *testing.T) {
	e := mustEngine(t, parts(), []string{"name"})
	res := e.Execute("zzzz", 1, 20)
	if res.Items == nil || len(res.Items) != 0 {
		t.Errorf("Items = %v, want empty slice", res.Items)
	}
	if res.TotalPages != 0 || res.FilteredCount != 0 || res.TotalCount != 3 {
		t.Errorf("result = %+v", res)
	}
}

func TestWithDefaultPageSize(t *testing.T) {
	e := mustEngine(t, parts(), []string{"name"}, WithDefaultPageSize(2), WithDefaultPageSize(-1))
	res := e.Execute("", 1, 0)
	if res.PageSize != 2 || len(res.Items) != 2 || res.TotalPages != 2 {
		t.Errorf("result = %+v", res)
	}
}

func TestExecute_Idempotent(t *testing.T) {
	e := mustEngine(t, parts(), []string{"name"})
	e.AddFilter(mustFilter(t)(filter.NewRange("price", floatPtr(100), nil)))
	e.SetSort(&sorting.Config{Field: "price", Direction: sorting.Asc})

	first := e.Execute("قطعة", 1, 1)
	second := e.Execute("قطعة", 1, 1)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ:\n%+v\n%+v", first, second)
	}
	if len(e.Filters()) != 1 || e.Sort() == nil {
		t.Error("Execute mutated query state")
	}
}

func TestSetData_KeepsQueryStateAndReplacesData(t *testing.T) {
	e := mustEngine(t, parts(), []string{"name"})
	e.AddFilter(mustFilter(t)(filter.NewRange("price", floatPtr(500), nil)))
	e.SetSort(&sorting.Config{Field: "price", Direction: sorting.Desc})

	fresh := []record.Record{
		{"id": record.Number(10), "name": record.Text("فلتر"), "price": record.Number(600)},
		{"id": record.Number(11), "name": record.Text("فلتر"), "price": record.Number(900)},
	}
	if err := e.SetData(fresh, []string{"name"}); err != nil {
		t.Fatalf("SetData: %v", err)
	}
	if len(e.Filters()) != 1 || e.Sort() == nil {
		t.Fatal("SetData cleared query state")
	}
	if got := ids(e.Execute("", 1, 20)); !reflect.DeepEqual(got, []float64{11, 10}) {
		t.Errorf("ids = %v, want [11 10]", got)
	}

	values := e.UniqueValues("name")
	if len(values) != 1 {
		t.Errorf("UniqueValues(name) = %v, want only the new name", values)
	}
	r, ok := e.Range("price")
	if !ok || r.Min != 600 || r.Max != 900 {
		t.Errorf("Range(price) = %+v, %v", r, ok)
	}
}

func TestSetData_ErrorKeepsIndex(t *testing.T) {
	e := mustEngine(t, parts(), []string{"name"})
	if err := e.SetData(nil, []string{"name"}); !errors.Is(err, index.ErrNilSnapshot) {
		t.Fatalf("err = %v, want ErrNilSnapshot", err)
	}
	if res := e.Execute("", 1, 20); res.TotalCount != 3 {
		t.Errorf("TotalCount = %d, want 3", res.TotalCount)
	}
}

func TestFromIndex_SharesIndex(t *testing.T) {
	idx, err := index.New(parts(), []string{"name"})
	if err != nil {
		t.Fatal(err)
	}
	a := FromIndex(idx)
	b := FromIndex(idx)
	a.AddFilter(mustFilter(t)(filter.NewRange("price", floatPtr(150), nil)))

	if got := a.Execute("", 1, 20).FilteredCount; got != 2 {
		t.Errorf("a FilteredCount = %d, want 2", got)
	}
	if got := b.Execute("", 1, 20).FilteredCount; got != 3 {
		t.Errorf("b FilteredCount = %d, want 3", got)
	}
	if a.Index() != idx {
		t.Error("Index() should return the shared index")
	}
}

func TestSortAndFilters_ReturnCopies(t *testing.T) {
	e := mustEngine(t, parts(), []string{"name"})
	cfg := &sorting.Config{Field: "price", Direction: sorting.Asc}
	e.SetSort(cfg)
	cfg.Direction = sorting.Desc
	e.Sort().Field = "other"
	if s := e.Sort(); s.Field != "price" || s.Direction != sorting.Asc {
		t.Errorf("Sort() = %+v", s)
	}
}

func TestUniqueValues(t *testing.T) {
	items := numbered(record.Number(3), record.Number(1), record.Null(), record.Number(3), record.Text("x"))
	e := mustEngine(t, items, nil)
	e.AddFilter(mustFilter(t)(filter.NewRange("v", floatPtr(100), nil)))

	got := e.UniqueValues("v")
	want := []record.Value{record.Number(1), record.Number(3), record.Text("x")}
	if len(got) != len(want) {
		t.Fatalf("UniqueValues = %v, want %v", got, want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("UniqueValues[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if vals := e.UniqueValues("missing"); vals == nil || len(vals) != 0 {
		t.Errorf("UniqueValues(missing) = %v, want empty", vals)
	}
}

func TestRange_NumericOnly(t *testing.T) {
	items := numbered(record.Text("5"), record.Number(7), record.Null(), record.Number(-2), record.Bool(true))
	e := mustEngine(t, items, nil)
	r, ok := e.Range("v")
	if !ok || r.Min != -2 || r.Max != 7 {
		t.Errorf("Range = %+v, %v; want -2..7", r, ok)
	}

	e2 := mustEngine(t, numbered(record.Text("5"), record.Null()), nil)
	if _, ok := e2.Range("v"); ok {
		t.Error("Range over non-numeric values should report false")
	}
}
