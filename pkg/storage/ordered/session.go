package ordered

import (
	"blockstore/pkg/catalog"
	"blockstore/pkg/primitives"
	"blockstore/pkg/storage"
	"blockstore/pkg/storage/block"
	"blockstore/pkg/types"
)

// session holds the main store and, when it exists, the extension region
// for the duration of one operation.
type session struct {
	f         *File
	t         *storage.Table
	ext       *block.File
	extBlocks int
}

func (f *File) open(op string) (*session, error) {
	t, err := storage.OpenTable(f.path, catalog.OrderedFile, f.opts.BlockSize, op)
	if err != nil {
		return nil, err
	}

	s := &session{f: f, t: t}
	if f.ExtensionPath().Exists() {
		if err := s.openExtension(); err != nil {
			t.Close()
			return nil, err
		}
	}
	return s, nil
}

// openExtension opens the extension file, creating it if needed.
func (s *session) openExtension() error {
	if s.ext != nil {
		return nil
	}
	ext, err := block.Open(s.f.ExtensionPath(), s.f.opts.BlockSize, 0)
	if err != nil {
		return err
	}
	n, err := ext.NumBlocks()
	if err != nil {
		ext.Close()
		return err
	}
	s.ext, s.extBlocks = ext, n
	return nil
}

func (s *session) regions() []storage.FixedRegion {
	cat := s.t.Catalog
	regions := []storage.FixedRegion{{
		File:           s.t.File,
		Blocks:         cat.BlockCount,
		RecordSize:     cat.RecordSize(),
		BlockingFactor: cat.BlockingFactor,
	}}
	if s.ext != nil {
		regions = append(regions, storage.FixedRegion{
			File:           s.ext,
			Blocks:         s.extBlocks,
			RecordSize:     cat.RecordSize(),
			BlockingFactor: cat.BlockingFactor,
			Base:           primitives.BlockNumber(cat.BlockCount),
		})
	}
	return regions
}

// appendExtension writes packed after the last used slot of the last
// extension block, or into a new extension block when that slot is the last.
func (s *session) appendExtension(packed []byte) (primitives.Position, error) {
	cat := s.t.Catalog
	base := primitives.BlockNumber(cat.BlockCount)

	if s.extBlocks > 0 {
		last := primitives.BlockNumber(s.extBlocks - 1)
		data, err := s.ext.ReadBlock(last)
		if err != nil {
			return primitives.InvalidPosition, err
		}
		if slot := block.FreeSlotAfterLast(data, len(packed), cat.BlockingFactor); slot >= 0 {
			return primitives.Position{Block: base + last, Slot: slot}, s.ext.WriteSlot(last, slot, packed)
		}
	}

	n, err := s.ext.AppendBlock(block.Fill(packed, s.f.opts.BlockSize))
	if err != nil {
		return primitives.InvalidPosition, err
	}
	s.extBlocks++
	return primitives.Position{Block: base + n, Slot: 0}, nil
}

func (s *session) scan() ([]storage.Match, error) {
	return storage.ScanFixed(s.regions()...)
}

func (s *session) collector() storage.Collector {
	return func(fieldID int, value string) ([]storage.Match, error) {
		if fieldID == 0 {
			key, err := types.CanonicalKey(value)
			if err != nil {
				return nil, err
			}
			value = key
		}
		return storage.SearchFixed(fieldID, value, s.regions()...)
	}
}

func (s *session) close() {
	if s.ext != nil {
		s.ext.Close()
	}
	s.t.Close()
}
