// Package record defines the loosely-typed records the engine lists over.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the concrete type stored in a Value.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindText
	KindNumber
	KindBool
	KindDate
)

var kindNames = map[Kind]string{
	KindNull:   "null",
	KindText:   "text",
	KindNumber: "number",
	KindBool:   "bool",
	KindDate:   "date",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "invalid"
}

// ParseKind parses a declared field kind. Null is not a declarable kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "string":
		return KindText, nil
	case "number", "float", "int":
		return KindNumber, nil
	case "bool", "boolean":
		return KindBool, nil
	case "date", "time", "timestamp":
		return KindDate, nil
	}
	return KindNull, fmt.Errorf("unknown field kind %q", s)
}

// Value is a tagged union of text, number, bool, date or null.
// The zero Value is null.
type Value struct {
	kind Kind
	s    string
	f    float64
	b    bool
	t    time.Time
}

// Null returns the null value.
func Null() Value { return Value{} }

// Text wraps a string.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Number wraps a float64.
func Number(f float64) Value { return Value{kind: KindNumber, f: f} }

// Bool wraps a bool.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Date wraps a time.Time.
func Date(t time.Time) Value { return Value{kind: KindDate, t: t} }

// Kind returns the stored kind.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v holds no value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsText returns the string if v is text.
func (v Value) AsText() (string, bool) { return v.s, v.kind == KindText }

// AsNumber returns the number if v is a number.
func (v Value) AsNumber() (float64, bool) { return v.f, v.kind == KindNumber }

// AsBool returns the bool if v is a bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsDate returns the time if v is a date.
func (v Value) AsDate() (time.Time, bool) { return v.t, v.kind == KindDate }

// Interface returns the plain Go value: string, float64, bool, time.Time
// or nil.
func (v Value) Interface() any {
	switch v.kind {
	case KindText:
		return v.s
	case KindNumber:
		return v.f
	case KindBool:
		return v.b
	case KindDate:
		return v.t
	default:
		return nil
	}
}

// String returns the text form used for searching and text filters.
// Null renders as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.s
	case KindNumber:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDate:
		return v.t.Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// Float64 coerces v to a number: numbers as is, numeric text parsed,
// dates as Unix milliseconds.
func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.f, true
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	case KindDate:
		return float64(v.t.UnixMilli()), true
	default:
		return 0, false
	}
}

// Time coerces v to an instant: dates as is, text parsed with ParseTime,
// numbers as Unix milliseconds.
func (v Value) Time() (time.Time, bool) {
	switch v.kind {
	case KindDate:
		return v.t, true
	case KindText:
		return ParseTime(v.s)
	case KindNumber:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(v.f)).UTC(), true
	default:
		return time.Time{}, false
	}
}

// Equal reports whether both values have the same kind and the same raw value.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.s == o.s
	case KindNumber:
		return v.f == o.f
	case KindBool:
		return v.b == o.b
	case KindDate:
		return v.t.Equal(o.t)
	default:
		return true
	}
}

// Key returns a stable map key. Equal values share a key.
func (v Value) Key() string {
	switch v.kind {
	case KindText:
		return "s:" + v.s
	case KindNumber:
		if v.f == 0 {
			return "f:0"
		}
		return "f:" + strconv.FormatUint(math.Float64bits(v.f), 16)
	case KindBool:
		if v.b {
			return "b:1"
		}
		return "b:0"
	case KindDate:
		return "d:" + strconv.FormatInt(v.t.UnixNano(), 10)
	default:
		return "null"
	}
}

// MarshalJSON renders the value as its natural JSON form. Dates use RFC 3339.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindText:
		return json.Marshal(v.s)
	case KindNumber:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.f)
	case KindBool:
		return json.Marshal(v.b)
	case KindDate:
		return json.Marshal(v.t.Format(time.RFC3339Nano))
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes any JSON scalar. Strings stay text.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	*v = FromAny(raw)
	return nil
}

// FromAny converts a decoded JSON, YAML or SQL value into a Value.
// Types without a natural kind become text via their fmt form.
func FromAny(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case string:
		return Text(t)
	case []byte:
		return Text(string(t))
	case bool:
		return Bool(t)
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int8:
		return Number(float64(t))
	case int16:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case uint:
		return Number(float64(t))
	case uint8:
		return Number(float64(t))
	case uint16:
		return Number(float64(t))
	case uint32:
		return Number(float64(t))
	case uint64:
		return Number(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Text(t.String())
		}
		return Number(f)
	case time.Time:
		return Date(t)
	case *time.Time:
		if t == nil {
			return Null()
		}
		return Date(*t)
	default:
		return Text(fmt.Sprint(t))
	}
}

// timeLayouts are tried in order by ParseTime.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
}

// ParseTime parses common timestamp layouts. An all-digit string is read as
// Unix milliseconds. Layouts without a zone are read as UTC.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), true
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
