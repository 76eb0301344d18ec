package storage

import (
	"blockstore/pkg/catalog"
	"blockstore/pkg/catalog/schema"
	"blockstore/pkg/primitives"
	"blockstore/pkg/record"
)

// AccessMethod is the operation surface shared by every record organization.
type AccessMethod interface {
	// Path returns the store file the method operates on.
	Path() primitives.Filepath

	// Kind identifies the record organization.
	Kind() catalog.Kind

	// Load builds a fresh store from records, replacing any existing file.
	Load(sch *schema.Schema, records []record.Record) error

	// Insert validates rec and adds it to the store.
	Insert(rec record.Record) error

	// InsertMany validates every record before writing any of them.
	InsertMany(recs []record.Record) error

	// SelectByKey returns the record whose primary key equals key.
	SelectByKey(key string) (record.Record, error)

	// SelectByKeys returns the records for every key that exists. It fails
	// only when none of the keys exist.
	SelectByKeys(keys []string) ([]record.Record, error)

	// SelectByRange returns the records whose field value lies in the
	// interval. It fails only when no value of the interval matches.
	SelectByRange(field, start, end string) ([]record.Record, error)

	// SelectByField returns every record whose field equals value.
	SelectByField(field, value string) ([]record.Record, error)

	// DeleteByKey removes the record whose primary key equals key.
	DeleteByKey(key string) error

	// DeleteByCriterion removes every record whose field equals value and
	// returns how many were removed.
	DeleteByCriterion(field, value string) (int, error)

	// Catalog decodes and returns the store's current catalog.
	Catalog() (*catalog.Catalog, error)

	// Scan returns every live record with its position, in storage order.
	Scan() ([]Match, error)
}

// Match is a record found by a search together with where it is stored.
type Match struct {
	Pos    primitives.Position
	Record record.Record
}

// Options carries the engine parameters every access method needs.
type Options struct {
	// BlockSize is the byte length of a block, excluding its newline.
	BlockSize int

	// CompactionThreshold is the deleted-record count at which the
	// variable heap compacts and the ordered file reorders.
	CompactionThreshold int

	// LoadFactor is the target fill ratio used to size hash buckets.
	LoadFactor float64

	// OverflowRatio sizes the hash overflow pool relative to the bucket count.
	OverflowRatio float64
}

// DefaultOptions returns the parameters the engine was designed around.
func DefaultOptions() Options {
	return Options{
		BlockSize:           512,
		CompactionThreshold: 50,
		LoadFactor:          0.7,
		OverflowRatio:       0.3,
	}
}
