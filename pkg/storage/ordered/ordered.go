// Package ordered implements a sorted file with an unsorted extension region.
//
// Bulk load writes every record into the main region in primary key order.
// Later inserts go to the extension region, a header-less sibling file named
// <name>_ext<ext>, appended after the last used slot of its last block.
// Deletes tombstone a slot in either region. When the deleted counter
// reaches the compaction threshold the store is reordered: both regions are
// merged, sorted and rewritten as a single main region, and the extension
// file is removed.
//
// Search is linear over the main region and then the extension region, even
// though the main region is sorted.
package ordered

import (
	"strings"

	"blockstore/pkg/catalog"
	"blockstore/pkg/catalog/schema"
	"blockstore/pkg/dberror"
	"blockstore/pkg/logging"
	"blockstore/pkg/primitives"
	"blockstore/pkg/record"
	"blockstore/pkg/storage"
	"blockstore/pkg/storage/block"
)

const component = "OrderedFile"

// ExtensionSuffix is inserted before the store's extension to name the
// extension region file.
const ExtensionSuffix = "_ext"

// File is an ordered file access method. Positions in the extension region
// are numbered after the main region: block BlockCount is extension block 0.
type File struct {
	path primitives.Filepath
	opts storage.Options
}

func New(path primitives.Filepath, opts storage.Options) *File {
	return &File{path: path, opts: opts}
}

func (f *File) Path() primitives.Filepath { return f.path }

// ExtensionPath returns the path of the extension region file.
func (f *File) ExtensionPath() primitives.Filepath { return f.path.WithSuffix(ExtensionSuffix) }

func (f *File) Kind() catalog.Kind { return catalog.OrderedFile }

// Load sorts records by primary key and packs them into the main region.
// Any previous extension region is discarded.
func (f *File) Load(sch *schema.Schema, records []record.Record) error {
	bf, err := storage.FixedBlockingFactor(sch, f.opts.BlockSize)
	if err != nil {
		return err
	}

	records, err = storage.CanonicalKeys(records)
	if err != nil {
		return dberror.Wrap(err, dberror.CodeIO, "Load", component)
	}
	if err := storage.CheckBatch(sch, records, true, storage.NoneExist); err != nil {
		return dberror.Wrap(err, dberror.CodeIO, "Load", component)
	}

	sorted, err := sortByKey(records)
	if err != nil {
		return dberror.Wrap(err, dberror.CodeIO, "Load", component)
	}

	packed, err := storage.PackAllFixed(sorted, sch)
	if err != nil {
		return err
	}
	blocks := block.PackFixed(packed, bf, f.opts.BlockSize)

	cat := catalog.New(catalog.OrderedFile, f.path.TableName(), sch)
	cat.RecordCount = len(sorted)
	cat.BlockingFactor = bf
	cat.BlockCount = len(blocks)

	if err := storage.WriteStore(f.path, cat, blocks, f.opts.BlockSize); err != nil {
		return err
	}
	if err := f.ExtensionPath().Remove(); err != nil {
		return dberror.Wrap(err, dberror.CodeIO, "Load", component)
	}

	logging.WithStoreOp(f.path.String(), "Load").Info("store loaded",
		"method", catalog.OrderedFile.String(), "records", len(sorted), "blocks", len(blocks), "blocking_factor", bf)
	return nil
}

func (f *File) Insert(rec record.Record) error {
	return f.insert("Insert", []record.Record{rec})
}

// InsertMany validates every record before writing any of them.
func (f *File) InsertMany(recs []record.Record) error {
	return f.insert("InsertMany", recs)
}

func (f *File) insert(op string, recs []record.Record) error {
	s, err := f.open(op)
	if err != nil {
		return err
	}
	defer s.close()

	sch := s.t.Catalog.Schema
	recs, err = storage.CanonicalKeys(recs)
	if err != nil {
		return dberror.Wrap(err, dberror.CodeIO, op, component)
	}
	err = storage.CheckBatch(sch, recs, true, func(key string) (bool, error) {
		m, err := s.collector()(0, key)
		return len(m) > 0, err
	})
	if err != nil {
		return dberror.Wrap(err, dberror.CodeIO, op, component)
	}

	if err := s.openExtension(); err != nil {
		return err
	}

	for _, rec := range recs {
		packed, err := record.PackFixed(rec, sch)
		if err != nil {
			return err
		}
		pos, err := s.appendExtension(packed)
		if err != nil {
			return err
		}
		s.t.Catalog.RecordCount++
		s.t.Log.Debug("record placed in extension", "key", rec.Key(), "block", pos.Block, "slot", pos.Slot)
	}

	if err := s.ext.Sync(); err != nil {
		return err
	}
	return s.t.Commit()
}

func (f *File) SelectByKey(key string) (record.Record, error) {
	var rec record.Record
	err := f.read("SelectByKey", func(s *session) (err error) {
		rec, err = storage.SelectByKey(s.collector(), key)
		return err
	})
	return rec, err
}

func (f *File) SelectByKeys(keys []string) ([]record.Record, error) {
	var recs []record.Record
	err := f.read("SelectByKeys", func(s *session) (err error) {
		recs, err = storage.SelectByKeys(s.collector(), keys)
		return err
	})
	return recs, err
}

func (f *File) SelectByRange(field, start, end string) ([]record.Record, error) {
	var recs []record.Record
	err := f.read("SelectByRange", func(s *session) (err error) {
		recs, err = storage.SelectByRange(s.t.Catalog.Schema, s.scan, field, start, end)
		return err
	})
	return recs, err
}

func (f *File) SelectByField(field, value string) ([]record.Record, error) {
	var recs []record.Record
	err := f.read("SelectByField", func(s *session) (err error) {
		recs, err = storage.SelectByField(s.t.Catalog.Schema, s.collector(), field, value)
		return err
	})
	return recs, err
}

func (f *File) DeleteByKey(key string) error {
	_, err := f.delete("DeleteByKey", storage.KeyField, key)
	return err
}

func (f *File) DeleteByCriterion(field, value string) (int, error) {
	return f.delete("DeleteByCriterion", storage.NamedField(field), value)
}

// delete tombstones matching slots in place, in whichever region holds them.
func (f *File) delete(op string, resolve storage.FieldResolver, value string) (int, error) {
	s, err := f.open(op)
	if err != nil {
		return 0, err
	}
	defer s.close()

	cat := s.t.Catalog
	fieldID, err := resolve(cat.Schema)
	if err != nil {
		return 0, err
	}
	value = strings.TrimSpace(value)

	matches, err := s.collector()(fieldID, value)
	if err != nil {
		return 0, err
	}
	if len(matches) == 0 {
		return 0, dberror.NotFound("%s = %s", cat.Schema.Columns[fieldID].Name, value).In(op, component)
	}

	tombstone := block.Empty(cat.RecordSize())
	for _, m := range matches {
		file, b := s.t.File, m.Pos.Block
		if int(b) >= cat.BlockCount {
			file, b = s.ext, b-primitives.BlockNumber(cat.BlockCount)
		}
		if err := file.WriteSlot(b, m.Pos.Slot, tombstone); err != nil {
			return 0, err
		}
		s.t.Log.Debug("record deleted", "key", m.Record.Key(), "block", m.Pos.Block, "slot", m.Pos.Slot)
	}

	cat.RecordCount -= len(matches)
	cat.DeletedCount += len(matches)

	if f.opts.CompactionThreshold > 0 && cat.DeletedCount >= f.opts.CompactionThreshold {
		if err := f.reorder(s); err != nil {
			return 0, err
		}
		return len(matches), nil
	}

	if s.ext != nil {
		if err := s.ext.Sync(); err != nil {
			return 0, err
		}
	}
	if err := s.t.Commit(); err != nil {
		return 0, err
	}
	return len(matches), nil
}

// Reorder merges both regions into one sorted main region and removes the
// extension file.
func (f *File) Reorder() error {
	s, err := f.open("Reorder")
	if err != nil {
		return err
	}
	defer s.close()
	return f.reorder(s)
}

func (f *File) reorder(s *session) error {
	matches, err := s.scan()
	if err != nil {
		return err
	}

	sorted, err := sortByKey(storage.Records(matches))
	if err != nil {
		return err
	}

	cat := *s.t.Catalog
	packed, err := storage.PackAllFixed(sorted, cat.Schema)
	if err != nil {
		return err
	}
	blocks := block.PackFixed(packed, cat.BlockingFactor, f.opts.BlockSize)

	before := cat.BlockCount + s.extBlocks
	cat.RecordCount = len(sorted)
	cat.BlockCount = len(blocks)
	cat.DeletedCount = 0

	s.close()
	if err := storage.WriteStore(f.path, &cat, blocks, f.opts.BlockSize); err != nil {
		return err
	}
	if err := f.ExtensionPath().Remove(); err != nil {
		s.t.Log.Warn("extension region left behind after reorder", "path", f.ExtensionPath(), "error", err)
		return dberror.Wrap(err, dberror.CodeIO, "Reorder", component)
	}

	s.t.Log.Info("store reordered", "records", len(sorted), "blocks_before", before, "blocks_after", len(blocks))
	return nil
}

func (f *File) Catalog() (*catalog.Catalog, error) {
	var cat *catalog.Catalog
	err := f.read("Catalog", func(s *session) error {
		cat = s.t.Catalog
		return nil
	})
	return cat, err
}

// ExtensionBlocks returns the number of blocks in the extension region.
func (f *File) ExtensionBlocks() (int, error) {
	var n int
	err := f.read("ExtensionBlocks", func(s *session) error {
		n = s.extBlocks
		return nil
	})
	return n, err
}

// Scan returns every live record: main region first, then the extension region.
func (f *File) Scan() ([]storage.Match, error) {
	var matches []storage.Match
	err := f.read("Scan", func(s *session) (err error) {
		matches, err = s.scan()
		return err
	})
	return matches, err
}

func (f *File) read(op string, fn func(s *session) error) error {
	s, err := f.open(op)
	if err != nil {
		return err
	}
	defer s.close()
	return fn(s)
}
