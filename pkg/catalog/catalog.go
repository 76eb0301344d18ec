package catalog

import (
	"blockstore/pkg/catalog/schema"
	"time"
)

// TimestampLayout is the format of the creation and modification lines.
const TimestampLayout = "2006-01-02 15:04:05"

var timeNow = time.Now

// Catalog is the decoded store header: schema plus the bookkeeping counters
// of one access method. Operations receive it from the decoder, mutate it
// alongside their block writes and hand it back to the encoder.
type Catalog struct {
	Kind      Kind
	TableName string
	Schema    *schema.Schema

	RecordCount    int
	BlockingFactor int // fixed-slot kinds only

	// BlockCount is the number of blocks in the main region (variable heap,
	// ordered file) or the number of primary buckets (static hash). The
	// fixed heap does not store it; its region length is measured instead.
	BlockCount int

	OverflowCount int       // static hash only
	Reclaimed     SlotQueue // fixed heap only
	DeletedCount  int       // variable heap and ordered file

	Created  time.Time
	Modified time.Time
}

// New returns an empty catalog for kind. Sizing fields are left for the
// caller; timestamps are set on first Encode.
func New(kind Kind, tableName string, sch *schema.Schema) *Catalog {
	return &Catalog{
		Kind:      kind,
		TableName: tableName,
		Schema:    sch,
	}
}

// RecordSize is the fixed-slot record length, or 0 for the variable heap.
func (c *Catalog) RecordSize() int {
	if !c.Kind.HasWidths() {
		return 0
	}
	return c.Schema.RecordSize()
}

// TotalBuckets is the primary plus overflow bucket count of a static hash.
func (c *Catalog) TotalBuckets() int {
	return c.BlockCount + c.OverflowCount
}
