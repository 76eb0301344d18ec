package record

import (
	"bytes"
	"strings"

	"blockstore/pkg/catalog/schema"
	"blockstore/pkg/dberror"
	"blockstore/pkg/primitives"
	"blockstore/pkg/types"
)

// Validate checks rec against sch in order: field count, inferred type of
// each field, declared width (when fixed is set), then reserved characters.
// The first violation is returned.
func Validate(rec Record, sch *schema.Schema, fixed bool) error {
	if len(rec) != sch.NumFields() {
		return dberror.SchemaMismatch("record has %d fields, schema has %d", len(rec), sch.NumFields())
	}

	for i, col := range sch.Columns {
		if got := types.Infer(rec[i]); got != col.Type {
			return dberror.TypeMismatch("field %s: %q is %s, schema declares %s", col.Name, rec[i], got, col.Type)
		}
	}

	if fixed {
		for i, col := range sch.Columns {
			if len(rec[i]) > col.Width {
				return dberror.FieldTooLarge("field %s: %q is %d bytes, width is %d", col.Name, rec[i], len(rec[i]), col.Width)
			}
		}
	}

	for i, col := range sch.Columns {
		if primitives.ContainsReserved(rec[i]) {
			return dberror.ReservedCharacter("field %s: %q", col.Name, rec[i])
		}
	}
	return nil
}

// PackFixed renders rec in fixed-width form: every field padded with spaces
// to its declared width and followed by the field separator.
func PackFixed(rec Record, sch *schema.Schema) ([]byte, error) {
	if len(rec) != sch.NumFields() {
		return nil, dberror.SchemaMismatch("record has %d fields, schema has %d", len(rec), sch.NumFields())
	}

	buf := make([]byte, 0, sch.RecordSize())
	for i, col := range sch.Columns {
		v := rec[i]
		if len(v) > col.Width {
			return nil, dberror.FieldTooLarge("field %s: %q is %d bytes, width is %d", col.Name, v, len(v), col.Width)
		}
		buf = append(buf, v...)
		for pad := len(v); pad < col.Width; pad++ {
			buf = append(buf, ' ')
		}
		buf = append(buf, primitives.Separator)
	}
	return buf, nil
}

// PackDelimited renders rec as its comma-joined fields terminated by the sentinel.
func PackDelimited(rec Record) []byte {
	s := rec.String()
	buf := make([]byte, 0, len(s)+1)
	buf = append(buf, s...)
	return append(buf, primitives.Sentinel)
}

// IsEmptySlot reports whether a slot holds only filler.
func IsEmptySlot(slot []byte) bool {
	for _, b := range slot {
		if b != primitives.Filler {
			return false
		}
	}
	return true
}

// UnpackFixed reverses PackFixed for one slot's bytes.
func UnpackFixed(slot []byte) Record {
	s := strings.TrimSuffix(string(slot), string(primitives.Separator))
	return Parse(s)
}

// UnpackSlot extracts the record in slot slotIndex of a fixed-slot block.
// It reports false for a slot that is empty or lies past the block.
func UnpackSlot(block []byte, slotIndex, recordSize int) (Record, bool) {
	start := slotIndex * recordSize
	end := start + recordSize
	if slotIndex < 0 || end > len(block) {
		return nil, false
	}
	slot := block[start:end]
	if IsEmptySlot(slot) {
		return nil, false
	}
	return UnpackFixed(slot), true
}

// UnpackDelimited splits a delimited block into its records. The fragment
// after the final sentinel is filler and is discarded, as is any fragment
// made only of filler.
func UnpackDelimited(block []byte) []Record {
	fragments := bytes.Split(block, []byte{primitives.Sentinel})
	if len(fragments) > 0 {
		fragments = fragments[:len(fragments)-1]
	}

	records := make([]Record, 0, len(fragments))
	for _, frag := range fragments {
		frag = bytes.TrimLeft(frag, string(primitives.Filler))
		if len(frag) == 0 {
			continue
		}
		records = append(records, Parse(string(frag)))
	}
	return records
}
