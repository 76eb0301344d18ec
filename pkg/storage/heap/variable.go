package heap

import (
	"bytes"
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

const variableComponent = "VariableHeap"

// VariableHeap is a heap of sentinel-terminated records of any length. A
// match's Pos.Slot is the record's index within its block.
type VariableHeap struct {
	path primitives.Filepath
	opts storage.Options
}

func NewVariableHeap(path primitives.Filepath, opts storage.Options) *VariableHeap {
	return &VariableHeap{path: path, opts: opts}
}

func (h *VariableHeap) Path() primitives.Filepath { return h.path }

func (h *VariableHeap) Kind() catalog.Kind { return catalog.VariableHeap }

// Load packs records greedily into blocks in their given order.
func (h *VariableHeap) Load(sch *schema.Schema, records []record.Record) error {
	if err := storage.CheckBatch(sch, records, false, storage.NoneExist); err != nil {
		return dberror.Wrap(err, dberror.CodeIO, "Load", variableComponent)
	}

	blocks, err := block.PackDelimited(storage.PackAllDelimited(records), h.opts.BlockSize)
	if err != nil {
		return err
	}

	cat := catalog.New(catalog.VariableHeap, h.path.TableName(), sch)
	cat.RecordCount = len(records)
	cat.BlockCount = len(blocks)

	if err := storage.WriteStore(h.path, cat, blocks, h.opts.BlockSize); err != nil {
		return err
	}

	logging.WithStoreOp(h.path.String(), "Load").Info("store loaded",
		"method", catalog.VariableHeap.String(), "records", len(records), "blocks", len(blocks))
	return nil
}

func (h *VariableHeap) Insert(rec record.Record) error {
	return h.insert("Insert", []record.Record{rec})
}

// InsertMany validates every record before writing any of them.
func (h *VariableHeap) InsertMany(recs []record.Record) error {
	return h.insert("InsertMany", recs)
}

func (h *VariableHeap) insert(op string, recs []record.Record) error {
	t, err := h.open(op)
	if err != nil {
		return err
	}
	defer t.Close()

	err = storage.CheckBatch(t.Catalog.Schema, recs, false, func(key string) (bool, error) {
		m, err := h.search(t, 0, key)
		return len(m) > 0, err
	})
	if err != nil {
		return dberror.Wrap(err, dberror.CodeIO, op, variableComponent)
	}

	packed := storage.PackAllDelimited(recs)
	for i, p := range packed {
		if len(p) > h.opts.BlockSize {
			return dberror.FieldTooLarge("record %s is %d bytes, block size is %d", recs[i].Key(), len(p), h.opts.BlockSize).
				In(op, variableComponent)
		}
	}

	for i, p := range packed {
		n, err := h.place(t, p)
		if err != nil {
			return err
		}
		t.Catalog.RecordCount++
		t.Log.Debug("record placed", "key", recs[i].Key(), "block", n)
	}

	return t.Commit()
}

// place appends p to the last block when its filler tail can hold it, and
// to a new block otherwise.
func (h *VariableHeap) place(t *storage.Table, p []byte) (primitives.BlockNumber, error) {
	cat := t.Catalog

	if cat.BlockCount > 0 {
		last := primitives.BlockNumber(cat.BlockCount - 1)
		data, err := t.File.ReadBlock(last)
		if err != nil {
			return -1, err
		}
		if block.FreeSpace(data) >= len(p) {
			copy(data[block.Used(data):], p)
			return last, t.File.WriteBlock(last, data)
		}
	}

	n, err := t.File.AppendBlock(block.Fill(p, h.opts.BlockSize))
	if err != nil {
		return -1, err
	}
	cat.BlockCount++
	return n, nil
}

func (h *VariableHeap) SelectByKey(key string) (record.Record, error) {
	var rec record.Record
	err := h.read("SelectByKey", func(t *storage.Table) (err error) {
		rec, err = storage.SelectByKey(h.collector(t), key)
		return err
	})
	return rec, err
}

func (h *VariableHeap) SelectByKeys(keys []string) ([]record.Record, error) {
	var recs []record.Record
	err := h.read("SelectByKeys", func(t *storage.Table) (err error) {
		recs, err = storage.SelectByKeys(h.collector(t), keys)
		return err
	})
	return recs, err
}

func (h *VariableHeap) SelectByRange(field, start, end string) ([]record.Record, error) {
	var recs []record.Record
	err := h.read("SelectByRange", func(t *storage.Table) (err error) {
		recs, err = storage.SelectByRange(t.Catalog.Schema, h.scanner(t), field, start, end)
		return err
	})
	return recs, err
}

func (h *VariableHeap) SelectByField(field, value string) ([]record.Record, error) {
	var recs []record.Record
	err := h.read("SelectByField", func(t *storage.Table) (err error) {
		recs, err = storage.SelectByField(t.Catalog.Schema, h.collector(t), field, value)
		return err
	})
	return recs, err
}

func (h *VariableHeap) DeleteByKey(key string) error {
	_, err := h.delete("DeleteByKey", storage.KeyField, key)
	return err
}

func (h *VariableHeap) DeleteByCriterion(field, value string) (int, error) {
	return h.delete("DeleteByCriterion", storage.NamedField(field), value)
}

// delete rewrites each block that owns a match with its surviving records
// followed by filler. The block count never shrinks here; compaction runs
// once the deleted counter reaches the threshold.
func (h *VariableHeap) delete(op string, resolve storage.FieldResolver, value string) (int, error) {
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
		return 0, dberror.NotFound("%s = %s", t.Catalog.Schema.Columns[fieldID].Name, value).In(op, variableComponent)
	}

	doomed := make(map[primitives.BlockNumber]map[primitives.SlotID]bool)
	var order []primitives.BlockNumber
	for _, m := range matches {
		if doomed[m.Pos.Block] == nil {
			doomed[m.Pos.Block] = make(map[primitives.SlotID]bool)
			order = append(order, m.Pos.Block)
		}
		doomed[m.Pos.Block][m.Pos.Slot] = true
	}

	for _, b := range order {
		data, err := t.File.ReadBlock(b)
		if err != nil {
			return 0, err
		}

		var kept bytes.Buffer
		for i, rec := range record.UnpackDelimited(data) {
			if !doomed[b][primitives.SlotID(i)] {
				kept.Write(record.PackDelimited(rec))
			}
		}
		if err := t.File.WriteBlock(b, block.Fill(kept.Bytes(), h.opts.BlockSize)); err != nil {
			return 0, err
		}
		t.Log.Debug("block rewritten", "block", b, "removed", len(doomed[b]))
	}

	t.Catalog.RecordCount -= len(matches)
	t.Catalog.DeletedCount += len(matches)

	if h.opts.CompactionThreshold > 0 && t.Catalog.DeletedCount >= h.opts.CompactionThreshold {
		if err := h.compact(t); err != nil {
			return 0, err
		}
		return len(matches), nil
	}

	if err := t.Commit(); err != nil {
		return 0, err
	}
	return len(matches), nil
}

// Compact rewrites the store with every surviving record repacked into fresh
// blocks and resets the deleted counter.
func (h *VariableHeap) Compact() error {
	t, err := h.open("Compact")
	if err != nil {
		return err
	}
	defer t.Close()
	return h.compact(t)
}

func (h *VariableHeap) compact(t *storage.Table) error {
	matches, err := h.scan(t)
	if err != nil {
		return err
	}

	blocks, err := block.PackDelimited(storage.PackAllDelimited(storage.Records(matches)), h.opts.BlockSize)
	if err != nil {
		return err
	}

	cat := *t.Catalog
	before := cat.BlockCount
	cat.RecordCount = len(matches)
	cat.BlockCount = len(blocks)
	cat.DeletedCount = 0

	if err := t.Close(); err != nil {
		return dberror.Wrap(err, dberror.CodeIO, "Compact", variableComponent)
	}
	if err := storage.WriteStore(h.path, &cat, blocks, h.opts.BlockSize); err != nil {
		return err
	}

	t.Log.Info("store compacted", "records", len(matches), "blocks_before", before, "blocks_after", len(blocks))
	return nil
}

func (h *VariableHeap) Catalog() (*catalog.Catalog, error) {
	var cat *catalog.Catalog
	err := h.read("Catalog", func(t *storage.Table) error {
		cat = t.Catalog
		return nil
	})
	return cat, err
}

func (h *VariableHeap) Scan() ([]storage.Match, error) {
	var matches []storage.Match
	err := h.read("Scan", func(t *storage.Table) (err error) {
		matches, err = h.scan(t)
		return err
	})
	return matches, err
}

func (h *VariableHeap) open(op string) (*storage.Table, error) {
	return storage.OpenTable(h.path, catalog.VariableHeap, h.opts.BlockSize, op)
}

func (h *VariableHeap) read(op string, fn func(t *storage.Table) error) error {
	t, err := h.open(op)
	if err != nil {
		return err
	}
	defer t.Close()
	return fn(t)
}

// visit walks blocks in order and records in order within each block until
// fn returns false.
func (h *VariableHeap) visit(t *storage.Table, fn func(storage.Match) bool) error {
	for b := 0; b < t.Catalog.BlockCount; b++ {
		data, err := t.File.ReadBlock(primitives.BlockNumber(b))
		if err != nil {
			return err
		}
		for i, rec := range record.UnpackDelimited(data) {
			m := storage.Match{
				Pos:    primitives.Position{Block: primitives.BlockNumber(b), Slot: primitives.SlotID(i)},
				Record: rec,
			}
			if !fn(m) {
				return nil
			}
		}
	}
	return nil
}

func (h *VariableHeap) scan(t *storage.Table) ([]storage.Match, error) {
	var out []storage.Match
	err := h.visit(t, func(m storage.Match) bool {
		out = append(out, m)
		return true
	})
	return out, err
}

func (h *VariableHeap) search(t *storage.Table, fieldID int, value string) ([]storage.Match, error) {
	var out []storage.Match
	err := h.visit(t, func(m storage.Match) bool {
		if !storage.MatchesField(m.Record, fieldID, value) {
			return true
		}
		out = append(out, m)
		return fieldID != 0
	})
	return out, err
}

func (h *VariableHeap) scanner(t *storage.Table) storage.Scanner {
	return func() ([]storage.Match, error) { return h.scan(t) }
}

func (h *VariableHeap) collector(t *storage.Table) storage.Collector {
	return func(fieldID int, value string) ([]storage.Match, error) {
		return h.search(t, fieldID, value)
	}
}
