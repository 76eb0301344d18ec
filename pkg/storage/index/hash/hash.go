// Package hash implements a static external hash over fixed-slot buckets.
//
// A store has M primary buckets, M the largest prime not exceeding
// records/loadFactor, and floor(overflowRatio*M) overflow buckets that
// follow them in the block region. A record lives in bucket key mod M when
// that bucket has room, otherwise in the first overflow bucket with room.
// The bucket pools never grow: when every candidate is full the insert
// fails with BUCKETS_FULL. Records are packed from the start of a bucket
// and a delete compacts its bucket in place.
package hash

import (
	"bytes"
	"strconv"
	"strings"

	"blockstore/pkg/catalog"
	"blockstore/pkg/catalog/schema"
	"blockstore/pkg/dberror"
	"blockstore/pkg/logging"
	"blockstore/pkg/primitives"
	"blockstore/pkg/record"
	"blockstore/pkg/storage"
	"blockstore/pkg/storage/block"
	"blockstore/pkg/types"
)

const component = "StaticHash"

// HashFile is the static hash access method.
type HashFile struct {
	path primitives.Filepath
	opts storage.Options
}

func NewHashFile(path primitives.Filepath, opts storage.Options) *HashFile {
	return &HashFile{path: path, opts: opts}
}

func (hf *HashFile) Path() primitives.Filepath { return hf.path }

func (hf *HashFile) Kind() catalog.Kind { return catalog.StaticHash }

// Load sizes the bucket pools for len(records) and distributes the records.
func (hf *HashFile) Load(sch *schema.Schema, records []record.Record) error {
	bf, err := storage.FixedBlockingFactor(sch, hf.opts.BlockSize)
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

	m := BucketCount(len(records), hf.opts.LoadFactor)
	over := OverflowCount(m, hf.opts.OverflowRatio)

	cat := catalog.New(catalog.StaticHash, hf.path.TableName(), sch)
	cat.BlockingFactor = bf
	cat.BlockCount = m
	cat.OverflowCount = over

	p := newPlacement(cat, nil)
	for _, rec := range records {
		if _, err := p.place(rec); err != nil {
			return dberror.Wrap(err, dberror.CodeIO, "Load", component)
		}
	}
	cat.RecordCount = len(records)

	blocks := make([][]byte, cat.TotalBuckets())
	for b := range blocks {
		if blocks[b], err = p.render(b, hf.opts.BlockSize); err != nil {
			return err
		}
	}

	if err := storage.WriteStore(hf.path, cat, blocks, hf.opts.BlockSize); err != nil {
		return err
	}

	logging.WithStoreOp(hf.path.String(), "Load").Info("store loaded",
		"method", catalog.StaticHash.String(), "records", len(records), "buckets", m, "overflow_buckets", over,
		"overflow_used", p.overflowUsed)
	return nil
}

func (hf *HashFile) Insert(rec record.Record) error {
	return hf.insert("Insert", []record.Record{rec})
}

// InsertMany places every record in memory first, so a batch that would
// overrun the bucket pools writes nothing.
func (hf *HashFile) InsertMany(recs []record.Record) error {
	return hf.insert("InsertMany", recs)
}

func (hf *HashFile) insert(op string, recs []record.Record) error {
	t, err := hf.open(op)
	if err != nil {
		return err
	}
	defer t.Close()

	recs, err = storage.CanonicalKeys(recs)
	if err != nil {
		return dberror.Wrap(err, dberror.CodeIO, op, component)
	}
	err = storage.CheckBatch(t.Catalog.Schema, recs, true, func(key string) (bool, error) {
		m, err := hf.searchKey(t, key)
		return len(m) > 0, err
	})
	if err != nil {
		return dberror.Wrap(err, dberror.CodeIO, op, component)
	}

	p := newPlacement(t.Catalog, t.File)
	for _, rec := range recs {
		pos, err := p.place(rec)
		if err != nil {
			return dberror.Wrap(err, dberror.CodeIO, op, component)
		}
		t.Log.Debug("record placed", "key", rec.Key(), "bucket", pos.Block, "slot", pos.Slot)
	}

	for _, b := range p.touched {
		data, err := p.render(b, hf.opts.BlockSize)
		if err != nil {
			return err
		}
		if err := t.File.WriteBlock(primitives.BlockNumber(b), data); err != nil {
			return err
		}
	}

	t.Catalog.RecordCount += len(recs)
	return t.Commit()
}

func (hf *HashFile) SelectByKey(key string) (record.Record, error) {
	var rec record.Record
	err := hf.read("SelectByKey", func(t *storage.Table) (err error) {
		rec, err = storage.SelectByKey(hf.collector(t), key)
		return err
	})
	return rec, err
}

func (hf *HashFile) SelectByKeys(keys []string) ([]record.Record, error) {
	var recs []record.Record
	err := hf.read("SelectByKeys", func(t *storage.Table) (err error) {
		recs, err = storage.SelectByKeys(hf.collector(t), keys)
		return err
	})
	return recs, err
}

func (hf *HashFile) SelectByRange(field, start, end string) ([]record.Record, error) {
	var recs []record.Record
	err := hf.read("SelectByRange", func(t *storage.Table) (err error) {
		recs, err = storage.SelectByRange(t.Catalog.Schema, hf.scanner(t), field, start, end)
		return err
	})
	return recs, err
}

func (hf *HashFile) SelectByField(field, value string) ([]record.Record, error) {
	var recs []record.Record
	err := hf.read("SelectByField", func(t *storage.Table) (err error) {
		recs, err = storage.SelectByField(t.Catalog.Schema, hf.collector(t), field, value)
		return err
	})
	return recs, err
}

func (hf *HashFile) DeleteByKey(key string) error {
	_, err := hf.delete("DeleteByKey", storage.KeyField, key)
	return err
}

func (hf *HashFile) DeleteByCriterion(field, value string) (int, error) {
	return hf.delete("DeleteByCriterion", storage.NamedField(field), value)
}

// delete removes matches and compacts each affected bucket so its records
// stay packed from slot 0.
func (hf *HashFile) delete(op string, resolve storage.FieldResolver, value string) (int, error) {
	t, err := hf.open(op)
	if err != nil {
		return 0, err
	}
	defer t.Close()

	cat := t.Catalog
	fieldID, err := resolve(cat.Schema)
	if err != nil {
		return 0, err
	}
	value = strings.TrimSpace(value)

	matches, err := hf.collector(t)(fieldID, value)
	if err != nil {
		return 0, err
	}
	if len(matches) == 0 {
		return 0, dberror.NotFound("%s = %s", cat.Schema.Columns[fieldID].Name, value).In(op, component)
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

	rs := cat.RecordSize()
	for _, b := range order {
		data, err := t.File.ReadBlock(b)
		if err != nil {
			return 0, err
		}
		var kept bytes.Buffer
		for s := 0; s < cat.BlockingFactor; s++ {
			if doomed[b][primitives.SlotID(s)] {
				continue
			}
			if _, ok := record.UnpackSlot(data, s, rs); ok {
				kept.Write(data[s*rs : (s+1)*rs])
			}
		}
		if err := t.File.WriteBlock(b, block.Fill(kept.Bytes(), hf.opts.BlockSize)); err != nil {
			return 0, err
		}
		t.Log.Debug("bucket compacted", "bucket", b, "removed", len(doomed[b]))
	}

	cat.RecordCount -= len(matches)
	if err := t.Commit(); err != nil {
		return 0, err
	}
	return len(matches), nil
}

func (hf *HashFile) Catalog() (*catalog.Catalog, error) {
	var cat *catalog.Catalog
	err := hf.read("Catalog", func(t *storage.Table) error {
		cat = t.Catalog
		return nil
	})
	return cat, err
}

// Scan returns every live record, primary buckets first, then overflow buckets.
func (hf *HashFile) Scan() ([]storage.Match, error) {
	var matches []storage.Match
	err := hf.read("Scan", func(t *storage.Table) (err error) {
		matches, err = storage.ScanFixed(hf.region(t, 0, t.Catalog.TotalBuckets()))
		return err
	})
	return matches, err
}

func (hf *HashFile) open(op string) (*storage.Table, error) {
	return storage.OpenTable(hf.path, catalog.StaticHash, hf.opts.BlockSize, op)
}

func (hf *HashFile) read(op string, fn func(t *storage.Table) error) error {
	t, err := hf.open(op)
	if err != nil {
		return err
	}
	defer t.Close()
	return fn(t)
}

// region covers count buckets starting at bucket first.
func (hf *HashFile) region(t *storage.Table, first, count int) storage.FixedRegion {
	return storage.FixedRegion{
		File:           t.File,
		First:          primitives.BlockNumber(first),
		Blocks:         count,
		RecordSize:     t.Catalog.RecordSize(),
		BlockingFactor: t.Catalog.BlockingFactor,
	}
}

// searchKey probes the home bucket and then the overflow buckets in order.
func (hf *HashFile) searchKey(t *storage.Table, key string) ([]storage.Match, error) {
	k, err := types.ParseKey(key)
	if err != nil {
		return nil, err
	}

	key = strconv.FormatInt(k, 10)

	cat := t.Catalog
	home := Bucket(k, cat.BlockCount)
	matches, err := storage.SearchFixed(0, key, hf.region(t, home, 1))
	if err != nil || len(matches) > 0 {
		return matches, err
	}
	return storage.SearchFixed(0, key, hf.region(t, cat.BlockCount, cat.OverflowCount))
}

func (hf *HashFile) scanner(t *storage.Table) storage.Scanner {
	return func() ([]storage.Match, error) {
		return storage.ScanFixed(hf.region(t, 0, t.Catalog.TotalBuckets()))
	}
}

func (hf *HashFile) collector(t *storage.Table) storage.Collector {
	return func(fieldID int, value string) ([]storage.Match, error) {
		if fieldID == 0 {
			return hf.searchKey(t, value)
		}
		return storage.SearchFixed(fieldID, value, hf.region(t, 0, t.Catalog.TotalBuckets()))
	}
}
