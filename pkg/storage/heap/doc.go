// Package heap implements the two unordered record organizations.
//
// FixedHeap stores fixed-width records in equal slots. A deleted record's
// slot is overwritten with filler and queued for reuse, oldest first.
//
// VariableHeap stores sentinel-terminated records packed greedily into
// blocks. A delete rewrites only the owning block; once enough records have
// been deleted the whole store is compacted into fresh blocks.
//
// Both search linearly: blocks in order, records in order within a block.
package heap
