package filter

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/listdex/internal/domain/record"
)

// Type is the predicate family of a filter.
type Type string

// Filter types.
const (
	TypeText    Type = "text"
	TypeRange   Type = "range"
	TypeList    Type = "list"
	TypeBoolean Type = "boolean"
	TypeDate    Type = "date"
)

// IsValid checks if the type is one of the supported values.
func (t Type) IsValid() bool {
	return t == TypeText || t == TypeRange || t == TypeList || t == TypeBoolean || t == TypeDate
}

// Operator refines how a text filter matches.
type Operator string

// Text operators. All compare normalized text.
const (
	OpContains   Operator = "contains"
	OpEquals     Operator = "equals"
	OpStartsWith Operator = "starts_with"
)

// IsValid checks if the operator is one of the supported values.
func (o Operator) IsValid() bool {
	return o == OpContains || o == OpEquals || o == OpStartsWith
}

// MaxListValues caps the allowed-value set of a list filter.
const MaxListValues = 256

// Filter is a single per-field predicate. Only the payload matching its type
// is populated.
type Filter struct {
	field    string
	typ      Type
	operator Operator
	text     string
	min, max *float64
	from, to *time.Time
	values   []record.Value
	flag     *bool
}

func newFilter(field string, typ Type) (Filter, error) {
	if field == "" {
		return Filter{}, fmt.Errorf("filter field is required")
	}
	return Filter{field: field, typ: typ}, nil
}

// NewText creates a text filter. An empty value matches everything.
// An empty operator means contains.
func NewText(field, value string, op Operator) (Filter, error) {
	f, err := newFilter(field, TypeText)
	if err != nil {
		return Filter{}, err
	}
	if op == "" {
		op = OpContains
	}
	if !op.IsValid() {
		return Filter{}, fmt.Errorf("invalid text operator %q for field %q", op, field)
	}
	f.text = value
	f.operator = op
	return f, nil
}

// NewRange creates an inclusive numeric range filter. Either bound may be nil.
// An inverted range is accepted and matches nothing.
func NewRange(field string, lo, hi *float64) (Filter, error) {
	f, err := newFilter(field, TypeRange)
	if err != nil {
		return Filter{}, err
	}
	f.min, f.max = lo, hi
	return f, nil
}

// NewList creates a membership filter. An empty set matches everything.
func NewList(field string, values []record.Value) (Filter, error) {
	f, err := newFilter(field, TypeList)
	if err != nil {
		return Filter{}, err
	}
	if len(values) > MaxListValues {
		return Filter{}, fmt.Errorf("too many list values for field %q (max %d)", field, MaxListValues)
	}
	f.values = append([]record.Value(nil), values...)
	return f, nil
}

// NewBoolean creates an equality filter on a bool. A nil value matches everything.
func NewBoolean(field string, value *bool) (Filter, error) {
	f, err := newFilter(field, TypeBoolean)
	if err != nil {
		return Filter{}, err
	}
	f.flag = value
	return f, nil
}

// NewDate creates an inclusive date window filter. Either bound may be nil.
func NewDate(field string, from, to *time.Time) (Filter, error) {
	f, err := newFilter(field, TypeDate)
	if err != nil {
		return Filter{}, err
	}
	f.from, f.to = from, to
	return f, nil
}

// Field returns the filtered field.
func (f Filter) Field() string { return f.field }

// Type returns the predicate family.
func (f Filter) Type() Type { return f.typ }

// Operator returns the text operator (empty for non-text filters).
func (f Filter) Operator() Operator { return f.operator }

// Text returns the text filter value.
func (f Filter) Text() string { return f.text }

// Min returns the lower range bound.
func (f Filter) Min() *float64 { return f.min }

// Max returns the upper range bound.
func (f Filter) Max() *float64 { return f.max }

// From returns the lower date bound.
func (f Filter) From() *time.Time { return f.from }

// To returns the upper date bound.
func (f Filter) To() *time.Time { return f.to }

// Values returns the allowed values of a list filter.
func (f Filter) Values() []record.Value { return f.values }

// Flag returns the expected bool of a boolean filter.
func (f Filter) Flag() *bool { return f.flag }
