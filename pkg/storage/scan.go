package storage

import (
	"blockstore/pkg/primitives"
	"blockstore/pkg/record"
	"blockstore/pkg/storage/block"
)

// FixedRegion describes a run of Blocks fixed-slot blocks inside a block
// file, starting at block First. Base is added to block numbers when
// reporting positions, which lets a caller number several files (main and
// extension) as one sequence.
type FixedRegion struct {
	File           *block.File
	First          primitives.BlockNumber
	Blocks         int
	RecordSize     int
	BlockingFactor int
	Base           primitives.BlockNumber
}

// Visit calls fn for every occupied slot, blocks in order and slots in order
// within a block, until fn returns false. Filler slots are skipped.
func (r FixedRegion) Visit(fn func(Match) bool) (bool, error) {
	for b := 0; b < r.Blocks; b++ {
		n := r.First + primitives.BlockNumber(b)
		data, err := r.File.ReadBlock(n)
		if err != nil {
			return false, err
		}
		for s := 0; s < r.BlockingFactor; s++ {
			rec, ok := record.UnpackSlot(data, s, r.RecordSize)
			if !ok {
				continue
			}
			m := Match{
				Pos:    primitives.Position{Block: r.Base + n, Slot: primitives.SlotID(s)},
				Record: rec,
			}
			if !fn(m) {
				return false, nil
			}
		}
	}
	return true, nil
}

// SearchFixed scans regions in order for records whose field fieldID equals
// value. A primary key search (fieldID 0) stops at the first match.
func SearchFixed(fieldID int, value string, regions ...FixedRegion) ([]Match, error) {
	var out []Match
	for _, r := range regions {
		more, err := r.Visit(func(m Match) bool {
			if !MatchesField(m.Record, fieldID, value) {
				return true
			}
			out = append(out, m)
			return fieldID != 0
		})
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
	}
	return out, nil
}

// ScanFixed returns every occupied slot of regions in order.
func ScanFixed(regions ...FixedRegion) ([]Match, error) {
	var out []Match
	for _, r := range regions {
		if _, err := r.Visit(func(m Match) bool {
			out = append(out, m)
			return true
		}); err != nil {
			return nil, err
		}
	}
	return out, nil
}
