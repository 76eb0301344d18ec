package heap

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

const fixedComponent = "FixedHeap"

// FixedHeap is a heap of fixed-width records. Records have no order; every
// search is a linear scan of the block region.
type FixedHeap struct {
	path primitives.Filepath
	opts storage.Options
}

// NewFixedHeap returns a fixed heap over the store at path. Nothing is read
// until an operation runs.
func NewFixedHeap(path primitives.Filepath, opts storage.Options) *FixedHeap {
	return &FixedHeap{path: path, opts: opts}
}

func (h *FixedHeap) Path() primitives.Filepath { return h.path }

func (h *FixedHeap) Kind() catalog.Kind { return catalog.FixedHeap }

// Load writes records into consecutive slots, blocking factor records per block.
func (h *FixedHeap) Load(sch *schema.Schema, records []record.Record) error {
	bf, err := storage.FixedBlockingFactor(sch, h.opts.BlockSize)
	if err != nil {
		return err
	}

	if err := storage.CheckBatch(sch, records, true, storage.NoneExist); err != nil {
		return dberror.Wrap(err, dberror.CodeIO, "Load", fixedComponent)
	}

	packed, err := storage.PackAllFixed(records, sch)
	if err != nil {
		return err
	}

	cat := catalog.New(catalog.FixedHeap, h.path.TableName(), sch)
	cat.RecordCount = len(records)
	cat.BlockingFactor = bf

	blocks := block.PackFixed(packed, bf, h.opts.BlockSize)
	if err := storage.WriteStore(h.path, cat, blocks, h.opts.BlockSize); err != nil {
		return err
	}

	logging.WithStoreOp(h.path.String(), "Load").Info("store loaded",
		"method", catalog.FixedHeap.String(), "records", len(records), "blocks", len(blocks), "blocking_factor", bf)
	return nil
}

// Insert validates rec, rejects a duplicate primary key and stores it.
func (h *FixedHeap) Insert(rec record.Record) error {
	return h.insert("Insert", []record.Record{rec})
}

// InsertMany validates every record before writing any of them.
func (h *FixedHeap) InsertMany(recs []record.Record) error {
	return h.insert("InsertMany", recs)
}

func (h *FixedHeap) insert(op string, recs []record.Record) error {
	t, err := h.open(op)
	if err != nil {
		return err
	}
	defer t.Close()

	sch := t.Catalog.Schema
	err = storage.CheckBatch(sch, recs, true, func(key string) (bool, error) {
		m, err := h.search(t, 0, key)
		return len(m) > 0, err
	})
	if err != nil {
		return dberror.Wrap(err, dberror.CodeIO, op, fixedComponent)
	}

	for _, rec := range recs {
		packed, err := record.PackFixed(rec, sch)
		if err != nil {
			return err
		}
		pos, err := h.place(t, packed)
		if err != nil {
			return err
		}
		t.Catalog.RecordCount++
		t.Log.Debug("record placed", "key", rec.Key(), "block", pos.Block, "slot", pos.Slot)
	}

	return t.Commit()
}

// place chooses the slot for a new record: the oldest reclaimed slot, else
// the first free slot of the last block, else slot 0 of a new block.
func (h *FixedHeap) place(t *storage.Table, packed []byte) (primitives.Position, error) {
	cat := t.Catalog

	if pos, ok := cat.Reclaimed.PopFront(); ok {
		return pos, t.File.WriteSlot(pos.Block, pos.Slot, packed)
	}

	if cat.BlockCount > 0 {
		last := primitives.BlockNumber(cat.BlockCount - 1)
		data, err := t.File.ReadBlock(last)
		if err != nil {
			return primitives.InvalidPosition, err
		}
		if s := block.FirstFreeSlot(data, len(packed), cat.BlockingFactor); s >= 0 {
			pos := primitives.Position{Block: last, Slot: s}
			return pos, t.File.WriteSlot(pos.Block, pos.Slot, packed)
		}
	}

	n, err := t.File.AppendBlock(block.Fill(packed, h.opts.BlockSize))
	if err != nil {
		return primitives.InvalidPosition, err
	}
	cat.BlockCount++
	return primitives.Position{Block: n, Slot: 0}, nil
}

func (h *FixedHeap) SelectByKey(key string) (record.Record, error) {
	var rec record.Record
	err := h.read("SelectByKey", func(t *storage.Table) (err error) {
		rec, err = storage.SelectByKey(h.collector(t), key)
		return err
	})
	return rec, err
}

func (h *FixedHeap) SelectByKeys(keys []string) ([]record.Record, error) {
	var recs []record.Record
	err := h.read("SelectByKeys", func(t *storage.Table) (err error) {
		recs, err = storage.SelectByKeys(h.collector(t), keys)
		return err
	})
	return recs, err
}

func (h *FixedHeap) SelectByRange(field, start, end string) ([]record.Record, error) {
	var recs []record.Record
	err := h.read("SelectByRange", func(t *storage.Table) (err error) {
		recs, err = storage.SelectByRange(t.Catalog.Schema, h.scanner(t), field, start, end)
		return err
	})
	return recs, err
}

func (h *FixedHeap) SelectByField(field, value string) ([]record.Record, error) {
	var recs []record.Record
	err := h.read("SelectByField", func(t *storage.Table) (err error) {
		recs, err = storage.SelectByField(t.Catalog.Schema, h.collector(t), field, value)
		return err
	})
	return recs, err
}

// DeleteByKey tombstones the record's slot and queues it for reuse.
func (h *FixedHeap) DeleteByKey(key string) error {
	_, err := h.delete("DeleteByKey", storage.KeyField, key)
	return err
}

// DeleteByCriterion tombstones every record whose field equals value.
func (h *FixedHeap) DeleteByCriterion(field, value string) (int, error) {
	return h.delete("DeleteByCriterion", storage.NamedField(field), value)
}

func (h *FixedHeap) delete(op string, resolve storage.FieldResolver, value string) (int, error) {
	t, err := h.open(op)
	if err != nil {
		return 0, err
	}
	defer t.Close()

	fieldID, err := resolve(t.Catalog.Schema)
	if err != nil {
		return 0, err
	}
	value = strings.TrimSpace(value)

	matches, err := h.search(t, fieldID, value)
	if err != nil {
		return 0, err
	}
	if len(matches) == 0 {
		return 0, dberror.NotFound("%s = %s", t.Catalog.Schema.Columns[fieldID].Name, value).In(op, fixedComponent)
	}

	tombstone := block.Empty(t.Catalog.RecordSize())
	for _, m := range matches {
		if err := t.File.WriteSlot(m.Pos.Block, m.Pos.Slot, tombstone); err != nil {
			return 0, err
		}
		t.Catalog.Reclaimed.Push(m.Pos)
		t.Catalog.RecordCount--
		t.Log.Debug("record deleted", "key", m.Record.Key(), "block", m.Pos.Block, "slot", m.Pos.Slot)
	}

	if err := t.Commit(); err != nil {
		return 0, err
	}
	return len(matches), nil
}

func (h *FixedHeap) Catalog() (*catalog.Catalog, error) {
	var cat *catalog.Catalog
	err := h.read("Catalog", func(t *storage.Table) error {
		cat = t.Catalog
		return nil
	})
	return cat, err
}

// Scan returns every live record with its slot position.
func (h *FixedHeap) Scan() ([]storage.Match, error) {
	var matches []storage.Match
	err := h.read("Scan", func(t *storage.Table) (err error) {
		matches, err = storage.ScanFixed(h.region(t))
		return err
	})
	return matches, err
}

func (h *FixedHeap) open(op string) (*storage.Table, error) {
	return storage.OpenTable(h.path, catalog.FixedHeap, h.opts.BlockSize, op)
}

func (h *FixedHeap) read(op string, fn func(t *storage.Table) error) error {
	t, err := h.open(op)
	if err != nil {
		return err
	}
	defer t.Close()
	return fn(t)
}

func (h *FixedHeap) region(t *storage.Table) storage.FixedRegion {
	return storage.FixedRegion{
		File:           t.File,
		Blocks:         t.Catalog.BlockCount,
		RecordSize:     t.Catalog.RecordSize(),
		BlockingFactor: t.Catalog.BlockingFactor,
	}
}

func (h *FixedHeap) search(t *storage.Table, fieldID int, value string) ([]storage.Match, error) {
	return storage.SearchFixed(fieldID, value, h.region(t))
}

func (h *FixedHeap) scanner(t *storage.Table) storage.Scanner {
	return func() ([]storage.Match, error) { return storage.ScanFixed(h.region(t)) }
}

func (h *FixedHeap) collector(t *storage.Table) storage.Collector {
	return func(fieldID int, value string) ([]storage.Match, error) {
		return h.search(t, fieldID, value)
	}
}
