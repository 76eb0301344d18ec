package hash

import (
	"errors"
	"path/filepath"
	"reflect"
	"strconv"
	"testing"

	"blockstore/pkg/catalog/schema"
	"blockstore/pkg/dberror"
	"blockstore/pkg/primitives"
	"blockstore/pkg/record"
	"blockstore/pkg/storage"
	"blockstore/pkg/types"
)

func createTestSchema(t *testing.T) *schema.Schema {
	t.Helper()
	sch, err := schema.NewSchemaBuilder().
		AddColumn("id", types.IntegerType, 4).
		AddColumn("tag", types.TextType, 4).
		Build()
	if err != nil {
		t.Fatalf("failed to build schema: %v", err)
	}
	return sch
}

// testOptions gives 20-byte blocks: two 10-byte records per bucket.
func testOptions() storage.Options {
	opts := storage.DefaultOptions()
	opts.BlockSize = 20
	return opts
}

func newLoadedHashFile(t *testing.T, recs ...record.Record) *HashFile {
	t.Helper()
	hf := NewHashFile(primitives.Filepath(filepath.Join(t.TempDir(), "tags.txt")), testOptions())
	if err := hf.Load(createTestSchema(t), recs); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return hf
}

func keyedRecords(keys ...int) []record.Record {
	recs := make([]record.Record, len(keys))
	for i, k := range keys {
		recs[i] = record.Record{strconv.Itoa(k), "t"}
	}
	return recs
}

func TestLargestPrime(t *testing.T) {
	tests := map[int]int{0: 2, 1: 2, 2: 2, 3: 3, 10: 7, 14: 13, 100: 97, 142: 139}
	for n, want := range tests {
		if got := LargestPrime(n); got != want {
			t.Errorf("LargestPrime(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestSizing(t *testing.T) {
	if m := BucketCount(10, 0.7); m != 13 {
		t.Errorf("BucketCount(10, 0.7) = %d, want 13", m)
	}
	if o := OverflowCount(13, 0.3); o != 3 {
		t.Errorf("OverflowCount(13, 0.3) = %d, want 3", o)
	}
	if b := Bucket(-3, 13); b != 10 {
		t.Errorf("Bucket(-3, 13) = %d, want 10", b)
	}
}

func TestHashFile_LoadSizesBuckets(t *testing.T) {
	hf := newLoadedHashFile(t, keyedRecords(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)...)

	cat, err := hf.Catalog()
	if err != nil {
		t.Fatalf("Catalog failed: %v", err)
	}
	if cat.BlockCount != 13 || cat.OverflowCount != 3 {
		t.Errorf("expected 13 buckets and 3 overflow buckets, got %d and %d", cat.BlockCount, cat.OverflowCount)
	}

	matches, err := hf.Scan()
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	for _, m := range matches {
		k, _ := strconv.Atoi(m.Record.Key())
		if int(m.Pos.Block) != k%13 {
			t.Errorf("key %d stored in bucket %d, want home bucket %d", k, m.Pos.Block, k%13)
		}
	}
}

func TestHashFile_OverflowAndFull(t *testing.T) {
	// Ten records size the store to 13 buckets of 2 slots plus 3 overflow buckets.
	hf := newLoadedHashFile(t, keyedRecords(100, 101, 102, 103, 104, 105, 106, 107, 108, 109)...)

	// Bucket 0 already holds 104; keys 0, 13, 26, ... all hash to it.
	colliding := []int{0, 13, 26, 39, 52, 65, 78}
	for _, k := range colliding {
		if err := hf.Insert(record.Record{strconv.Itoa(k), "c"}); err != nil {
			t.Fatalf("Insert(%d) failed: %v", k, err)
		}
	}

	matches, _ := hf.Scan()
	overflow := 0
	for _, m := range matches {
		if int(m.Pos.Block) >= 13 {
			overflow++
		}
	}
	if overflow != 6 {
		t.Errorf("expected 6 records in overflow buckets, got %d", overflow)
	}

	if err := hf.Insert(record.Record{"104000", "c"}); !errors.Is(err, dberror.ErrFieldTooLarge) {
		t.Errorf("expected FIELD_TOO_LARGE, got %v", err)
	}
	if err := hf.Insert(record.Record{"91", "c"}); !errors.Is(err, dberror.ErrBucketsFull) {
		t.Errorf("expected BUCKETS_FULL, got %v", err)
	}

	rec, err := hf.SelectByKey("78")
	if err != nil || rec.Key() != "78" {
		t.Errorf("SelectByKey(78) from overflow = %v, %v", rec, err)
	}
}

func TestHashFile_InsertManyAllOrNothing(t *testing.T) {
	hf := newLoadedHashFile(t, keyedRecords(1, 2)...)

	cat, _ := hf.Catalog()
	capacity := cat.TotalBuckets() * cat.BlockingFactor

	var batch []record.Record
	for k := 10; len(batch) < capacity; k++ {
		batch = append(batch, record.Record{strconv.Itoa(k), "b"})
	}
	if err := hf.InsertMany(batch); !errors.Is(err, dberror.ErrBucketsFull) {
		t.Fatalf("expected BUCKETS_FULL for over-capacity batch, got %v", err)
	}

	after, _ := hf.Catalog()
	if after.RecordCount != 2 {
		t.Errorf("failed batch changed record count to %d", after.RecordCount)
	}
	if _, err := hf.SelectByKey("10"); !errors.Is(err, dberror.ErrNotFound) {
		t.Errorf("failed batch left record 10 behind: %v", err)
	}
}

func TestHashFile_DistributionWithoutOverflow(t *testing.T) {
	// Nine records at load factor 0.7 size the store to 11 buckets.
	hf := newLoadedHashFile(t, keyedRecords(0, 1, 2, 3, 4, 5, 6, 7, 8)...)

	cat, _ := hf.Catalog()
	if cat.BlockCount != 11 {
		t.Fatalf("expected 11 buckets, got %d", cat.BlockCount)
	}
	matches, _ := hf.Scan()
	for _, m := range matches {
		if int(m.Pos.Block) >= cat.BlockCount {
			t.Errorf("record %s spilled into overflow bucket %d", m.Record.Key(), m.Pos.Block)
		}
	}
}

func TestHashFile_DeleteCompactsBucket(t *testing.T) {
	hf := newLoadedHashFile(t, keyedRecords(1, 14, 2, 3, 4, 5, 6, 7, 8, 9)...)

	if err := hf.DeleteByKey("1"); err != nil {
		t.Fatalf("DeleteByKey failed: %v", err)
	}

	matches, _ := hf.Scan()
	for _, m := range matches {
		if m.Record.Key() == "14" && m.Pos != (primitives.Position{Block: 1, Slot: 0}) {
			t.Errorf("key 14 should shift to slot 0 of bucket 1, found at %v", m.Pos)
		}
	}

	if _, err := hf.SelectByKey("1"); !errors.Is(err, dberror.ErrNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
	cat, _ := hf.Catalog()
	if cat.RecordCount != 9 {
		t.Errorf("expected 9 records, got %d", cat.RecordCount)
	}
}

func TestHashFile_NonIntegerKey(t *testing.T) {
	hf := newLoadedHashFile(t, keyedRecords(1)...)
	if _, err := hf.SelectByKey("abc"); !errors.Is(err, dberror.ErrInvalidKey) {
		t.Errorf("expected INVALID_KEY, got %v", err)
	}
}

func TestHashFile_SelectByField(t *testing.T) {
	recs := keyedRecords(1, 2, 3)
	recs[1][1] = "odd"
	hf := newLoadedHashFile(t, recs...)

	got, err := hf.SelectByField("tag", "t")
	if err != nil {
		t.Fatalf("SelectByField failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 matches, got %v", got)
	}
}

func TestHashFile_DuplicateKey(t *testing.T) {
	hf := newLoadedHashFile(t, keyedRecords(1, 2, 3)...)

	for _, key := range []string{"1", "01", "+1"} {
		if err := hf.Insert(record.Record{key, "dup"}); !errors.Is(err, dberror.ErrDuplicateKey) {
			t.Errorf("Insert(%s): expected DUPLICATE_KEY, got %v", key, err)
		}
	}
	cat, _ := hf.Catalog()
	if cat.RecordCount != 3 {
		t.Errorf("rejected inserts changed record count to %d", cat.RecordCount)
	}

	rec, err := hf.SelectByKey("001")
	if err != nil || rec.Key() != "1" {
		t.Errorf("SelectByKey(001) = %v, %v", rec, err)
	}
}

func TestHashFile_DuplicateKeyInOverflow(t *testing.T) {
	// Bucket 0 of 13 holds 104 and 0, so 13 lands in the first overflow bucket.
	hf := newLoadedHashFile(t, keyedRecords(100, 101, 102, 103, 104, 105, 106, 107, 108, 109)...)
	for _, k := range []string{"0", "13"} {
		if err := hf.Insert(record.Record{k, "c"}); err != nil {
			t.Fatalf("Insert(%s) failed: %v", k, err)
		}
	}

	matches, _ := hf.Scan()
	for _, m := range matches {
		if m.Record.Key() == "13" && int(m.Pos.Block) != 13 {
			t.Fatalf("expected 13 in overflow bucket 13, found at %v", m.Pos)
		}
	}

	for _, key := range []string{"13", "013"} {
		if err := hf.Insert(record.Record{key, "dup"}); !errors.Is(err, dberror.ErrDuplicateKey) {
			t.Errorf("Insert(%s): expected DUPLICATE_KEY, got %v", key, err)
		}
	}
	cat, _ := hf.Catalog()
	if cat.RecordCount != 12 {
		t.Errorf("expected 12 records, got %d", cat.RecordCount)
	}
}

func TestHashFile_LoadRejectsEquivalentKeys(t *testing.T) {
	hf := NewHashFile(primitives.Filepath(filepath.Join(t.TempDir(), "tags.txt")), testOptions())
	err := hf.Load(createTestSchema(t), []record.Record{{"1", "a"}, {"01", "b"}})
	if !errors.Is(err, dberror.ErrDuplicateKey) {
		t.Errorf("expected DUPLICATE_KEY, got %v", err)
	}
}

func TestHashFile_HugeRange(t *testing.T) {
	hf := newLoadedHashFile(t, keyedRecords(5, 1, 3, 900)...)

	recs, err := hf.SelectByRange("id", "0", "1000000000000000000")
	if err != nil {
		t.Fatalf("SelectByRange failed: %v", err)
	}
	var keys []string
	for _, r := range recs {
		keys = append(keys, r.Key())
	}
	if want := []string{"1", "3", "5", "900"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("got keys %v, want %v", keys, want)
	}

	if _, err := hf.SelectByRange("id", "-9223372036854775808", "0"); !errors.Is(err, dberror.ErrNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}
