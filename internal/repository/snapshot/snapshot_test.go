package snapshot

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kailas-cloud/listdex/internal/domain/record"
)

func mustSchema(t *testing.T, raw map[string]string) record.Schema {
	t.Helper()
	s, err := record.ParseSchema(raw)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestFileLoader_JSON(t *testing.T) {
	path := writeFile(t, "parts.json", `[
		{"id": 1, "name": "قطعة أ", "price": 100, "tags": ["a", "b"], "created_at": "2024-01-05"},
		{"id": 2, "name": "قطعة ب", "price": null, "in_stock": "true"}
	]`)
	schema := mustSchema(t, map[string]string{"created_at": "date", "in_stock": "bool"})

	recs, err := NewFileLoader(path, schema).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}

	if f, ok := recs[0].Get("price").AsNumber(); !ok || f != 100 {
		t.Errorf("price = %v", recs[0].Get("price"))
	}
	if s, ok := recs[0].Get("tags").AsText(); !ok || s != `["a","b"]` {
		t.Errorf("tags = %v, want compact JSON text", recs[0].Get("tags"))
	}
	if d, ok := recs[0].Get("created_at").AsDate(); !ok || !d.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("created_at = %v", recs[0].Get("created_at"))
	}
	if !recs[1].Get("price").IsNull() {
		t.Errorf("price = %v, want null", recs[1].Get("price"))
	}
	if b, ok := recs[1].Get("in_stock").AsBool(); !ok || !b {
		t.Errorf("in_stock = %v", recs[1].Get("in_stock"))
	}
}

func TestFileLoader_YAML(t *testing.T) {
	path := writeFile(t, "parts.yaml", `
- id: 1
  name: Oil Filter
  price: 45.5
  in_stock: true
- id: 2
  name: فلتر هواء
`)
	recs, err := NewFileLoader(path, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if f, ok := recs[0].Get("price").AsNumber(); !ok || f != 45.5 {
		t.Errorf("price = %v", recs[0].Get("price"))
	}
	if b, ok := recs[0].Get("in_stock").AsBool(); !ok || !b {
		t.Errorf("in_stock = %v", recs[0].Get("in_stock"))
	}
	if s, _ := recs[1].Get("name").AsText(); s != "فلتر هواء" {
		t.Errorf("name = %q", s)
	}
}

func TestFileLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"malformed json", "bad.json", `[{"id": 1`},
		{"not an array", "obj.json", `{"id": 1}`},
		{"null item", "null.json", `[{"id": 1}, null]`},
		{"malformed yaml", "bad.yml", "- id: [1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			if _, err := NewFileLoader(path, nil).Load(context.Background()); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	if _, err := NewFileLoader("/nonexistent/parts.json", nil).Load(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFileLoader_CanceledContext(t *testing.T) {
	path := writeFile(t, "parts.json", `[]`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewFileLoader(path, nil).Load(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestHashLoader(t *testing.T) {
	store := &fakeHashes{data: map[string]map[string]string{
		"part:2": {"name": "قطعة ب", "price": "200", "in_stock": "false"},
		"part:1": {"name": "قطعة أ", "price": "100", "in_stock": "1"},
		"part:3": nil, // expired between SCAN and HGETALL
	}}
	schema := mustSchema(t, map[string]string{"price": "number", "in_stock": "bool"})

	recs, err := NewHashLoader(store, "part:*", schema).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if k, _ := recs[0].Get(KeyField).AsText(); k != "part:1" {
		t.Errorf("first key = %q, want part:1", k)
	}
	if f, ok := recs[1].Get("price").AsNumber(); !ok || f != 200 {
		t.Errorf("price = %v", recs[1].Get("price"))
	}
	if b, ok := recs[0].Get("in_stock").AsBool(); !ok || !b {
		t.Errorf("in_stock = %v", recs[0].Get("in_stock"))
	}
}

func TestHashLoader_Batches(t *testing.T) {
	data := make(map[string]map[string]string, pipelineBatch+1)
	for i := range pipelineBatch + 1 {
		data[fmt.Sprintf("k:%04d", i)] = map[string]string{"n": "x"}
	}
	store := &fakeHashes{data: data}

	recs, err := NewHashLoader(store, "k:*", nil).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(recs) != pipelineBatch+1 {
		t.Fatalf("expected %d records, got %d", pipelineBatch+1, len(recs))
	}
	if len(store.batchLens) != 2 || store.batchLens[0] != pipelineBatch || store.batchLens[1] != 1 {
		t.Errorf("batch sizes = %v", store.batchLens)
	}
}

func TestHashLoader_Errors(t *testing.T) {
	boom := errors.New("boom")

	_, err := NewHashLoader(&fakeHashes{scanErr: boom}, "p:*", nil).Load(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("scan error = %v", err)
	}

	store := &fakeHashes{data: map[string]map[string]string{"p:1": {}}, fetchErr: boom}
	_, err = NewHashLoader(store, "p:*", nil).Load(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("fetch error = %v", err)
	}
}

func TestSQLLoader(t *testing.T) {
	store := &fakeRows{rows: []map[string]any{
		{"id": int64(1), "name": "مورد أ", "rating": 4.5, "active": int64(1)},
		{"id": int64(2), "name": "Supplier B", "rating": nil, "active": int64(0)},
	}}
	schema := mustSchema(t, map[string]string{"active": "bool"})

	recs, err := NewSQLLoader(store, "SELECT * FROM suppliers", schema).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if store.lastQuery != "SELECT * FROM suppliers" {
		t.Errorf("query = %q", store.lastQuery)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if f, ok := recs[0].Get("id").AsNumber(); !ok || f != 1 {
		t.Errorf("id = %v", recs[0].Get("id"))
	}
	if b, ok := recs[1].Get("active").AsBool(); !ok || b {
		t.Errorf("active = %v, want false", recs[1].Get("active"))
	}
	if !recs[1].Get("rating").IsNull() {
		t.Errorf("rating = %v, want null", recs[1].Get("rating"))
	}
}

func TestSQLLoader_Error(t *testing.T) {
	boom := errors.New("no such table")
	_, err := NewSQLLoader(&fakeRows{err: boom}, "SELECT 1", nil).Load(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestFuncLoader(t *testing.T) {
	fetch := func(context.Context) ([]map[string]any, error) {
		return []map[string]any{
			{"id": 1, "price": "12.5", "meta": map[string]any{"k": "v"}},
		}, nil
	}
	schema := mustSchema(t, map[string]string{"price": "number"})

	recs, err := NewFuncLoader(fetch, schema).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if f, ok := recs[0].Get("price").AsNumber(); !ok || f != 12.5 {
		t.Errorf("price = %v", recs[0].Get("price"))
	}
	if s, ok := recs[0].Get("meta").AsText(); !ok || s != `{"k":"v"}` {
		t.Errorf("meta = %v", recs[0].Get("meta"))
	}
}

func TestFuncLoader_Errors(t *testing.T) {
	boom := errors.New("upstream down")
	tests := []struct {
		name  string
		fetch FetchFunc
	}{
		{"nil fetch", nil},
		{"fetch error", func(context.Context) ([]map[string]any, error) { return nil, boom }},
		{"nil row", func(context.Context) ([]map[string]any, error) { return []map[string]any{nil}, nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewFuncLoader(tt.fetch, nil).Load(context.Background()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
