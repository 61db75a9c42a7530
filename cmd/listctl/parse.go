package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/listdex/internal/domain/record"
	"github.com/kailas-cloud/listdex/internal/domain/search/filter"
	"github.com/kailas-cloud/listdex/internal/domain/search/sorting"
)

// parseFilters parses --filter flags of the form field:type:args.
//
//	name:text:قطعة             contains
//	name:text/equals:قطعة أ    equals (also text/starts_with)
//	price:range:10..100        inclusive; either side may be empty
//	brand:list:ZF,Bosch        numbers and true/false keep their kind
//	in_stock:boolean:true
//	created_at:date:2024-01-01..2024-03-31
func parseFilters(raw []string) ([]filter.Filter, error) {
	out := make([]filter.Filter, 0, len(raw))
	for _, s := range raw {
		f, err := parseFilter(s)
		if err != nil {
			return nil, fmt.Errorf("invalid filter %q: %w", s, err)
		}
		out = append(out, f)
	}
	return out, nil
}

func parseFilter(s string) (filter.Filter, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return filter.Filter{}, fmt.Errorf("want field:type:args")
	}
	field, typ, args := parts[0], parts[1], parts[2]
	typ, op, _ := strings.Cut(typ, "/")

	switch filter.Type(typ) {
	case filter.TypeText:
		return filter.NewText(field, args, filter.Operator(op))
	case filter.TypeRange:
		lo, hi, err := splitBounds(args)
		if err != nil {
			return filter.Filter{}, err
		}
		minV, err := parseFloatPtr(lo)
		if err != nil {
			return filter.Filter{}, err
		}
		maxV, err := parseFloatPtr(hi)
		if err != nil {
			return filter.Filter{}, err
		}
		return filter.NewRange(field, minV, maxV)
	case filter.TypeList:
		var values []record.Value
		for _, v := range strings.Split(args, ",") {
			values = append(values, parseScalar(strings.TrimSpace(v)))
		}
		return filter.NewList(field, values)
	case filter.TypeBoolean:
		b, err := strconv.ParseBool(args)
		if err != nil {
			return filter.Filter{}, fmt.Errorf("boolean: %w", err)
		}
		return filter.NewBoolean(field, &b)
	case filter.TypeDate:
		lo, hi, err := splitBounds(args)
		if err != nil {
			return filter.Filter{}, err
		}
		from, err := parseTimePtr(lo)
		if err != nil {
			return filter.Filter{}, err
		}
		to, err := parseTimePtr(hi)
		if err != nil {
			return filter.Filter{}, err
		}
		return filter.NewDate(field, from, to)
	default:
		return filter.Filter{}, fmt.Errorf("unknown filter type %q", typ)
	}
}

// parseSort parses field[:asc|desc]. Empty input means no sort.
func parseSort(s string) (*sorting.Config, error) {
	if s == "" {
		return nil, nil
	}
	field, dir, _ := strings.Cut(s, ":")
	cfg, err := sorting.New(field, sorting.Direction(strings.ToLower(dir)))
	if err != nil {
		return nil, fmt.Errorf("invalid sort %q: %w", s, err)
	}
	return &cfg, nil
}

func splitBounds(s string) (string, string, error) {
	lo, hi, ok := strings.Cut(s, "..")
	if !ok {
		return "", "", fmt.Errorf("want lo..hi, got %q", s)
	}
	return strings.TrimSpace(lo), strings.TrimSpace(hi), nil
}

func parseFloatPtr(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("bound %q is not a number", s)
	}
	return &f, nil
}

func parseTimePtr(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, ok := record.ParseTime(s)
	if !ok {
		return nil, fmt.Errorf("bound %q is not a date", s)
	}
	return &t, nil
}

func parseScalar(s string) record.Value {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return record.Number(f)
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return record.Bool(b)
	}
	return record.Text(s)
}
