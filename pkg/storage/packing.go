package storage

import (
	"blockstore/pkg/catalog/schema"
	"blockstore/pkg/dberror"
	"blockstore/pkg/record"
)

// FixedBlockingFactor returns how many records of sch fit a block, failing
// when the schema has no widths or a single record is larger than a block.
func FixedBlockingFactor(sch *schema.Schema, blockSize int) (int, error) {
	if !sch.IsFixedWidth() {
		return 0, dberror.SchemaMismatch("every field needs a positive width for fixed-size records")
	}
	bf := sch.BlockingFactor(blockSize)
	if bf == 0 {
		return 0, dberror.FieldTooLarge("record of %d bytes does not fit a block of %d bytes", sch.RecordSize(), blockSize)
	}
	return bf, nil
}

// PackAllFixed renders every record in fixed-width form.
func PackAllFixed(records []record.Record, sch *schema.Schema) ([][]byte, error) {
	packed := make([][]byte, len(records))
	for i, rec := range records {
		p, err := record.PackFixed(rec, sch)
		if err != nil {
			return nil, err
		}
		packed[i] = p
	}
	return packed, nil
}

// PackAllDelimited renders every record in sentinel-terminated form.
func PackAllDelimited(records []record.Record) [][]byte {
	packed := make([][]byte, len(records))
	for i, rec := range records {
		packed[i] = record.PackDelimited(rec)
	}
	return packed
}

// Records strips positions from matches.
func Records(matches []Match) []record.Record {
	return appendRecords(nil, matches)
}
