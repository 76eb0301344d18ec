package heap

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"blockstore/pkg/catalog/schema"
	"blockstore/pkg/dberror"
	"blockstore/pkg/record"
	"blockstore/pkg/storage"
	"blockstore/pkg/types"
)

func createVariableSchema(t *testing.T) *schema.Schema {
	t.Helper()
	sch, err := schema.NewSchemaBuilder().
		AddVariableColumn("id", types.IntegerType).
		AddVariableColumn("note", types.TextType).
		Build()
	if err != nil {
		t.Fatalf("failed to build schema: %v", err)
	}
	return sch
}

func newLoadedVariableHeap(t *testing.T, opts storage.Options, recs ...record.Record) *VariableHeap {
	t.Helper()
	h := NewVariableHeap(createTempFile(t, "notes.txt"), opts)
	if err := h.Load(createVariableSchema(t), recs); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return h
}

func numberedNotes(n int) []record.Record {
	recs := make([]record.Record, n)
	for i := range recs {
		recs[i] = record.Record{fmt.Sprint(i + 1), strings.Repeat("x", i%7+1)}
	}
	return recs
}

func TestVariableHeap_LoadAndSelect(t *testing.T) {
	recs := numberedNotes(30)
	h := newLoadedVariableHeap(t, smallOptions(), recs...)

	for _, want := range recs {
		got, err := h.SelectByKey(want.Key())
		if err != nil {
			t.Fatalf("SelectByKey(%s) failed: %v", want.Key(), err)
		}
		if !got.Equal(want) {
			t.Errorf("SelectByKey(%s) = %v, want %v", want.Key(), got, want)
		}
	}

	cat, err := h.Catalog()
	if err != nil {
		t.Fatalf("Catalog failed: %v", err)
	}
	if cat.RecordCount != 30 {
		t.Errorf("expected 30 records, got %d", cat.RecordCount)
	}

	matches, err := h.Scan()
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(matches) != 30 {
		t.Fatalf("scan found %d records, want 30", len(matches))
	}
	for i, m := range matches {
		if !m.Record.Equal(recs[i]) {
			t.Fatalf("greedy packing reordered records: position %d holds %v", i, m.Record)
		}
	}
}

func TestVariableHeap_StoreLayout(t *testing.T) {
	h := newLoadedVariableHeap(t, smallOptions(), numberedNotes(20)...)

	raw, err := os.ReadFile(h.Path().String())
	if err != nil {
		t.Fatalf("failed to read store: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(raw), "\n"), "\n")

	cat, _ := h.Catalog()
	blocks := lines[8:]
	if len(blocks) != cat.BlockCount {
		t.Fatalf("expected %d blocks after the 8-line header, got %d", cat.BlockCount, len(blocks))
	}
	for i, b := range blocks {
		if len(b) != 64 {
			t.Errorf("block %d is %d bytes, want 64", i, len(b))
		}
		if !strings.HasSuffix(strings.TrimRight(b, "#"), "$") {
			t.Errorf("block %d does not end its last record with the sentinel: %q", i, b)
		}
	}
}

func TestVariableHeap_InsertFillsLastBlock(t *testing.T) {
	h := newLoadedVariableHeap(t, smallOptions(), record.Record{"1", "a"})

	if err := h.Insert(record.Record{"2", "b"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	cat, _ := h.Catalog()
	if cat.BlockCount != 1 {
		t.Errorf("small insert should share the last block, got %d blocks", cat.BlockCount)
	}

	long := record.Record{"3", strings.Repeat("z", 58)}
	if err := h.Insert(long); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	cat, _ = h.Catalog()
	if cat.BlockCount != 2 {
		t.Errorf("record without room should open a new block, got %d blocks", cat.BlockCount)
	}

	tooLong := record.Record{"4", strings.Repeat("z", 70)}
	if err := h.Insert(tooLong); !errors.Is(err, dberror.ErrFieldTooLarge) {
		t.Errorf("expected FIELD_TOO_LARGE for record longer than a block, got %v", err)
	}
}

func TestVariableHeap_DeleteRewritesBlock(t *testing.T) {
	h := newLoadedVariableHeap(t, smallOptions(), numberedNotes(10)...)
	before, _ := h.Catalog()

	if err := h.DeleteByKey("2"); err != nil {
		t.Fatalf("DeleteByKey failed: %v", err)
	}
	if _, err := h.SelectByKey("2"); !errors.Is(err, dberror.ErrNotFound) {
		t.Errorf("expected NOT_FOUND after delete, got %v", err)
	}
	if _, err := h.SelectByKey("3"); err != nil {
		t.Errorf("neighbour of deleted record lost: %v", err)
	}

	after, _ := h.Catalog()
	if after.RecordCount != before.RecordCount-1 {
		t.Errorf("record count %d, want %d", after.RecordCount, before.RecordCount-1)
	}
	if after.DeletedCount != 1 {
		t.Errorf("deleted count %d, want 1", after.DeletedCount)
	}
	if after.BlockCount != before.BlockCount {
		t.Errorf("block count changed from %d to %d", before.BlockCount, after.BlockCount)
	}
}

func TestVariableHeap_CompactionAtThreshold(t *testing.T) {
	opts := smallOptions()
	opts.CompactionThreshold = 5
	h := newLoadedVariableHeap(t, opts, numberedNotes(40)...)
	before, _ := h.Catalog()

	n, err := h.DeleteByCriterion("note", "x")
	if err != nil {
		t.Fatalf("DeleteByCriterion failed: %v", err)
	}
	if n != 6 {
		t.Fatalf("expected 6 deletions, got %d", n)
	}

	after, err := h.Catalog()
	if err != nil {
		t.Fatalf("Catalog failed: %v", err)
	}
	if after.DeletedCount != 0 {
		t.Errorf("deleted count should reset after compaction, got %d", after.DeletedCount)
	}
	if after.RecordCount != 34 {
		t.Errorf("expected 34 records, got %d", after.RecordCount)
	}
	if after.BlockCount >= before.BlockCount {
		t.Errorf("compaction should shrink %d blocks, got %d", before.BlockCount, after.BlockCount)
	}
	if !after.Created.Equal(before.Created) {
		t.Errorf("creation timestamp changed from %v to %v", before.Created, after.Created)
	}

	entries, _ := os.ReadDir(h.Path().Dir())
	if len(entries) != 1 {
		t.Errorf("expected only the store file to remain, found %d entries", len(entries))
	}
}

func TestVariableHeap_CompactionIdempotent(t *testing.T) {
	h := newLoadedVariableHeap(t, smallOptions(), numberedNotes(25)...)
	if _, err := h.DeleteByCriterion("note", "xx"); err != nil {
		t.Fatalf("DeleteByCriterion failed: %v", err)
	}

	if err := h.Compact(); err != nil {
		t.Fatalf("first Compact failed: %v", err)
	}
	first, _ := h.Scan()
	firstBytes, _ := os.ReadFile(h.Path().String())

	if err := h.Compact(); err != nil {
		t.Fatalf("second Compact failed: %v", err)
	}
	second, _ := h.Scan()
	secondBytes, _ := os.ReadFile(h.Path().String())

	if record.Digest(storage.Records(first)) != record.Digest(storage.Records(second)) {
		t.Errorf("second compaction changed the surviving record set")
	}
	// Only the modification timestamp line may differ.
	firstLines := strings.Split(string(firstBytes), "\n")
	secondLines := strings.Split(string(secondBytes), "\n")
	firstLines[7], secondLines[7] = "", ""
	if strings.Join(firstLines, "\n") != strings.Join(secondLines, "\n") {
		t.Errorf("second compaction rewrote the block region differently")
	}
}

func TestVariableHeap_DuplicateKey(t *testing.T) {
	h := newLoadedVariableHeap(t, smallOptions(), numberedNotes(10)...)

	if err := h.Insert(record.Record{"3", "dup"}); !errors.Is(err, dberror.ErrDuplicateKey) {
		t.Errorf("expected DUPLICATE_KEY, got %v", err)
	}
	if err := h.InsertMany([]record.Record{{"11", "new"}, {"10", "dup"}}); !errors.Is(err, dberror.ErrDuplicateKey) {
		t.Errorf("expected DUPLICATE_KEY for batch, got %v", err)
	}

	cat, err := h.Catalog()
	if err != nil {
		t.Fatalf("Catalog failed: %v", err)
	}
	if cat.RecordCount != 10 {
		t.Errorf("rejected inserts changed record count to %d", cat.RecordCount)
	}
	if _, err := h.SelectByKey("11"); !errors.Is(err, dberror.ErrNotFound) {
		t.Errorf("rejected batch left record 11 behind: %v", err)
	}
}
