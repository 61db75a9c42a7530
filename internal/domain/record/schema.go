package record

import (
	"fmt"
	"strconv"
	"strings"
)

// Schema declares the kind of selected fields. Fields it does not name keep
// whatever kind their source produced.
type Schema map[string]Kind

// ParseSchema converts a field → kind-name mapping (as found in config).
func ParseSchema(raw map[string]string) (Schema, error) {
	s := make(Schema, len(raw))
	for field, name := range raw {
		if field == "" {
			return nil, fmt.Errorf("schema field name is empty")
		}
		k, err := ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field, err)
		}
		s[field] = k
	}
	return s, nil
}

// Coerce converts v to the declared kind of field. Values that cannot be
// converted become null.
func (s Schema) Coerce(field string, v Value) Value {
	want, ok := s[field]
	if !ok || v.IsNull() || v.kind == want {
		return v
	}
	switch want {
	case KindText:
		return Text(v.String())
	case KindNumber:
		if v.kind == KindBool {
			return Null()
		}
		if f, ok := v.Float64(); ok {
			return Number(f)
		}
	case KindBool:
		switch v.kind {
		case KindText:
			if b, err := strconv.ParseBool(strings.TrimSpace(v.s)); err == nil {
				return Bool(b)
			}
		case KindNumber:
			return Bool(v.f != 0)
		}
	case KindDate:
		if t, ok := v.Time(); ok {
			return Date(t)
		}
	}
	return Null()
}

// Apply coerces every declared field of rec in place and returns it.
func (s Schema) Apply(rec Record) Record {
	if len(s) == 0 {
		return rec
	}
	for field, v := range rec {
		rec[field] = s.Coerce(field, v)
	}
	return rec
}
