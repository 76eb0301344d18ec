package storage

import (
	"cmp"
	"slices"
	"strings"

	"blockstore/pkg/catalog/schema"
	"blockstore/pkg/dberror"
	"blockstore/pkg/record"
	"blockstore/pkg/types"
)

// Collector searches an open store for records whose field fieldID equals
// value. A search on field 0 stops at the first match; any other field is
// searched exhaustively. An empty result is not an error.
type Collector func(fieldID int, value string) ([]Match, error)

// FieldIndex resolves a field name, failing with UNSUPPORTED_FIELD when the
// schema does not have it.
func FieldIndex(sch *schema.Schema, field string) (int, error) {
	idx := sch.GetFieldIndex(strings.TrimSpace(field))
	if idx < 0 {
		return -1, dberror.UnsupportedField("field %q; schema has %s", field, strings.Join(sch.FieldNames(), ","))
	}
	return idx, nil
}

// SelectByKey returns the single record with primary key key.
func SelectByKey(collect Collector, key string) (record.Record, error) {
	matches, err := collect(0, strings.TrimSpace(key))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, dberror.NotFound("key %s", key)
	}
	return matches[0].Record, nil
}

// SelectByKeys runs one key search per requested key and returns the
// records found, in request order. It fails only when every key misses.
func SelectByKeys(collect Collector, keys []string) ([]record.Record, error) {
	var out []record.Record
	for _, key := range keys {
		matches, err := collect(0, strings.TrimSpace(key))
		if err != nil {
			return nil, err
		}
		out = appendRecords(out, matches)
	}
	if len(out) == 0 {
		return nil, dberror.NotFound("none of keys %s", strings.Join(keys, ","))
	}
	return out, nil
}

// SelectByField returns every record whose field equals value.
func SelectByField(sch *schema.Schema, collect Collector, field, value string) ([]record.Record, error) {
	idx, err := FieldIndex(sch, field)
	if err != nil {
		return nil, err
	}
	matches, err := collect(idx, strings.TrimSpace(value))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, dberror.NotFound("%s = %s", field, value)
	}
	return appendRecords(nil, matches), nil
}

// Scanner returns every live record of an open store in storage order.
type Scanner func() ([]Match, error)

// SelectByRange checks the interval against the field's type, then scans the
// store once for values inside it. Matches come back in value order, ties in
// storage order. It fails only when no value matches.
func SelectByRange(sch *schema.Schema, scan Scanner, field, start, end string) ([]record.Record, error) {
	idx, err := FieldIndex(sch, field)
	if err != nil {
		return nil, err
	}

	iv, err := types.ParseInterval(sch.Columns[idx].Type, start, end)
	if err != nil {
		return nil, err
	}

	matches, err := scan()
	if err != nil {
		return nil, err
	}

	type hit struct {
		ord int64
		rec record.Record
	}
	var hits []hit
	for _, m := range matches {
		v := m.Record.Field(idx)
		if !iv.Contains(v) {
			continue
		}
		ord, _ := iv.Ordinal(v)
		hits = append(hits, hit{ord, m.Record})
	}
	if len(hits) == 0 {
		return nil, dberror.NotFound("%s in %s..%s", field, start, end)
	}

	slices.SortStableFunc(hits, func(a, b hit) int { return cmp.Compare(a.ord, b.ord) })
	out := make([]record.Record, len(hits))
	for i, h := range hits {
		out[i] = h.rec
	}
	return out, nil
}

// MatchesField reports whether rec's field fieldID equals value.
func MatchesField(rec record.Record, fieldID int, value string) bool {
	return rec.Field(fieldID) == value
}

// CheckBatch validates every record of a batch and rejects primary keys that
// repeat within it. exists reports whether a key is already stored.
func CheckBatch(sch *schema.Schema, recs []record.Record, fixed bool, exists func(key string) (bool, error)) error {
	seen := make(map[string]struct{}, len(recs))
	for _, rec := range recs {
		if err := record.Validate(rec, sch, fixed); err != nil {
			return err
		}
		if _, dup := seen[rec.Key()]; dup {
			return dberror.DuplicateKey("key %s appears twice in the batch", rec.Key())
		}
		seen[rec.Key()] = struct{}{}

		found, err := exists(rec.Key())
		if err != nil {
			return err
		}
		if found {
			return dberror.DuplicateKey("key %s", rec.Key())
		}
	}
	return nil
}

// CanonicalKeys copies recs with every primary key rewritten by
// types.CanonicalKey. Stores that place records by the integer value of the
// key use it so uniqueness and ordering agree with placement.
func CanonicalKeys(recs []record.Record) ([]record.Record, error) {
	out := make([]record.Record, len(recs))
	for i, rec := range recs {
		if len(rec) == 0 {
			out[i] = rec
			continue
		}
		key, err := types.CanonicalKey(rec[0])
		if err != nil {
			return nil, err
		}
		out[i] = rec.Clone()
		out[i][0] = key
	}
	return out, nil
}

func appendRecords(out []record.Record, matches []Match) []record.Record {
	for _, m := range matches {
		out = append(out, m.Record)
	}
	return out
}

// FieldResolver picks the field a delete or search runs on once the schema
// is known.
type FieldResolver func(sch *schema.Schema) (int, error)

// KeyField resolves to the primary key.
func KeyField(*schema.Schema) (int, error) { return 0, nil }

// NamedField resolves a field by name.
func NamedField(name string) FieldResolver {
	return func(sch *schema.Schema) (int, error) {
		return FieldIndex(sch, name)
	}
}

// NoneExist is the existence check used while bulk loading an empty store.
func NoneExist(string) (bool, error) { return false, nil }
