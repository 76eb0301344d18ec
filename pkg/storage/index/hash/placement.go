package hash

import (
	"bytes"

	"blockstore/pkg/catalog"
	"blockstore/pkg/dberror"
	"blockstore/pkg/primitives"
	"blockstore/pkg/record"
	"blockstore/pkg/storage/block"
	"blockstore/pkg/types"
)

// placement assigns records to buckets in memory before anything is written.
// Buckets are read from file on first use; with a nil file every bucket
// starts empty, as during a bulk load.
type placement struct {
	cat          *catalog.Catalog
	file         *block.File
	buckets      map[int][][]byte
	touched      []int
	overflowUsed int
}

func newPlacement(cat *catalog.Catalog, file *block.File) *placement {
	return &placement{
		cat:     cat,
		file:    file,
		buckets: make(map[int][][]byte),
	}
}

// bucket returns the packed records of bucket b.
func (p *placement) bucket(b int) ([][]byte, error) {
	if slots, ok := p.buckets[b]; ok {
		return slots, nil
	}

	var slots [][]byte
	if p.file != nil {
		data, err := p.file.ReadBlock(primitives.BlockNumber(b))
		if err != nil {
			return nil, err
		}
		rs := p.cat.RecordSize()
		for s := 0; s < p.cat.BlockingFactor; s++ {
			if _, ok := record.UnpackSlot(data, s, rs); ok {
				slots = append(slots, data[s*rs:(s+1)*rs])
			}
		}
	}
	p.buckets[b] = slots
	return slots, nil
}

// place puts rec in its home bucket, or in the first overflow bucket with
// room, and returns its position.
func (p *placement) place(rec record.Record) (primitives.Position, error) {
	k, err := types.ParseKey(rec.Key())
	if err != nil {
		return primitives.InvalidPosition, err
	}
	packed, err := record.PackFixed(rec, p.cat.Schema)
	if err != nil {
		return primitives.InvalidPosition, err
	}

	home := Bucket(k, p.cat.BlockCount)
	if pos, ok, err := p.tryAppend(home, packed); err != nil || ok {
		return pos, err
	}

	for b := p.cat.BlockCount; b < p.cat.TotalBuckets(); b++ {
		pos, ok, err := p.tryAppend(b, packed)
		if err != nil {
			return pos, err
		}
		if ok {
			p.overflowUsed++
			return pos, nil
		}
	}

	return primitives.InvalidPosition, dberror.BucketsFull("key %d: bucket %d and all %d overflow buckets are full",
		k, home, p.cat.OverflowCount)
}

func (p *placement) tryAppend(b int, packed []byte) (primitives.Position, bool, error) {
	slots, err := p.bucket(b)
	if err != nil {
		return primitives.InvalidPosition, false, err
	}
	if len(slots) >= p.cat.BlockingFactor {
		return primitives.InvalidPosition, false, nil
	}

	p.buckets[b] = append(slots, packed)
	p.touch(b)
	return primitives.Position{Block: primitives.BlockNumber(b), Slot: primitives.SlotID(len(slots))}, true, nil
}

func (p *placement) touch(b int) {
	for _, t := range p.touched {
		if t == b {
			return
		}
	}
	p.touched = append(p.touched, b)
}

// render returns bucket b as a full block.
func (p *placement) render(b, blockSize int) ([]byte, error) {
	slots, err := p.bucket(b)
	if err != nil {
		return nil, err
	}
	return block.Fill(bytes.Join(slots, nil), blockSize), nil
}
