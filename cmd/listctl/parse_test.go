package main

import (
	"testing"

	"github.com/kailas-cloud/listdex/internal/domain/record"
	"github.com/kailas-cloud/listdex/internal/domain/search/filter"
	"github.com/kailas-cloud/listdex/internal/domain/search/sorting"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		typ     filter.Type
		wantErr bool
	}{
		{"text contains", "name:text:فلتر", filter.TypeText, false},
		{"text equals", "name:text/equals:Air Filter", filter.TypeText, false},
		{"text bad operator", "name:text/like:x", "", true},
		{"range closed", "price:range:10..100", filter.TypeRange, false},
		{"range open low", "price:range:..100", filter.TypeRange, false},
		{"range open high", "price:range:10..", filter.TypeRange, false},
		{"range no separator", "price:range:10", "", true},
		{"range not a number", "price:range:a..b", "", true},
		{"list", "brand:list:ZF,Bosch", filter.TypeList, false},
		{"boolean", "in_stock:boolean:true", filter.TypeBoolean, false},
		{"boolean invalid", "in_stock:boolean:maybe", "", true},
		{"date", "created_at:date:2024-01-01..2024-03-31", filter.TypeDate, false},
		{"date invalid", "created_at:date:yesterday..", "", true},
		{"unknown type", "x:geo:1", "", true},
		{"missing args", "x:text", "", true},
		{"empty field", ":text:x", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := parseFilter(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.Type() != tt.typ {
				t.Errorf("type = %q, want %q", f.Type(), tt.typ)
			}
		})
	}
}

func TestParseFilter_TextKeepsColons(t *testing.T) {
	f, err := parseFilter("sku:text/equals:A:B")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Text() != "A:B" || f.Operator() != filter.OpEquals {
		t.Errorf("got text=%q op=%q", f.Text(), f.Operator())
	}
}

func TestParseFilter_RangeBounds(t *testing.T) {
	f, err := parseFilter("price:range:..45.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Min() != nil {
		t.Errorf("min = %v, want nil", *f.Min())
	}
	if f.Max() == nil || *f.Max() != 45.5 {
		t.Errorf("max = %v, want 45.5", f.Max())
	}
}

func TestParseFilter_ListKinds(t *testing.T) {
	f, err := parseFilter("x:list:7, true ,ZF")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []record.Value{record.Number(7), record.Bool(true), record.Text("ZF")}
	got := f.Values()
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("values[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		in      string
		want    *sorting.Config
		wantErr bool
	}{
		{"", nil, false},
		{"price", &sorting.Config{Field: "price", Direction: sorting.Asc}, false},
		{"price:DESC", &sorting.Config{Field: "price", Direction: sorting.Desc}, false},
		{"price:sideways", nil, true},
		{":asc", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSort(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("got %+v, want %+v", *got, *tt.want)
			}
		})
	}
}

func TestParseSchema(t *testing.T) {
	s, err := parseSchema([]string{"price:number", "created_at:date"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s["price"] != record.KindNumber || s["created_at"] != record.KindDate {
		t.Errorf("schema = %v", s)
	}

	if _, err := parseSchema([]string{"price"}); err == nil {
		t.Error("expected error for entry without kind")
	}
	if _, err := parseSchema([]string{"price:money"}); err == nil {
		t.Error("expected error for unknown kind")
	}
}
