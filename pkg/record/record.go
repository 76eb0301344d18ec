package record

import (
	"strings"

	"blockstore/pkg/primitives"
)

// Record is one row: field values in schema order, as text without padding.
// Field 0 is the primary key.
type Record []string

// Parse splits a comma-delimited line into a Record, trimming surrounding
// whitespace from the line and from each field.
func Parse(line string) Record {
	line = strings.TrimSpace(line)
	parts := strings.Split(line, string(primitives.Separator))
	rec := make(Record, len(parts))
	for i, p := range parts {
		rec[i] = strings.TrimSpace(p)
	}
	return rec
}

// Key returns the primary key value.
func (r Record) Key() string {
	if len(r) == 0 {
		return ""
	}
	return r[0]
}

// Field returns field i, or "" when i is out of range.
func (r Record) Field(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

// String renders the record as a comma-delimited line.
func (r Record) String() string {
	return strings.Join(r, string(primitives.Separator))
}

// Equal reports whether two records hold the same values.
func (r Record) Equal(other Record) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if r[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	copy(out, r)
	return out
}
