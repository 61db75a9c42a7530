package record

// Record maps field identifiers to values. A missing field reads as null.
type Record map[string]Value

// Get returns the value of field, or null when absent.
func (r Record) Get(field string) Value {
	return r[field]
}

// FromMap converts a decoded map into a Record.
func FromMap(m map[string]any) Record {
	if m == nil {
		return nil
	}
	rec := make(Record, len(m))
	for k, v := range m {
		rec[k] = FromAny(v)
	}
	return rec
}

// ToMap converts the record back to plain Go values for encoders that do not
// know about Value.
func (r Record) ToMap() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = v.Interface()
	}
	return out
}
