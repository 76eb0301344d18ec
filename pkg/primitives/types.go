package primitives

// BlockNumber is the zero-based index of a block within a store's block region.
type BlockNumber int

// SlotID is the zero-based index of a fixed-size slot within a block.
type SlotID int

// Offset represents a byte offset within a file.
type Offset int64

// Position locates a record inside a block region: the block that holds it
// and, for fixed-size layouts, the slot within that block.
type Position struct {
	Block BlockNumber
	Slot  SlotID
}

// InvalidPosition is returned by lookups that found nothing.
var InvalidPosition = Position{Block: -1, Slot: -1}

// IsValid reports whether p points at a real block.
func (p Position) IsValid() bool {
	return p.Block >= 0 && p.Slot >= 0
}
