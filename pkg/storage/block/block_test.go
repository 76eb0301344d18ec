package block

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"blockstore/pkg/dberror"
	"blockstore/pkg/primitives"
)

func createTempFile(t *testing.T, name string, header []byte, blockSize int) *File {
	t.Helper()
	path := primitives.Filepath(filepath.Join(t.TempDir(), name))
	bf, err := Create(path, blockSize, header)
	if err != nil {
		t.Fatalf("failed to create block file: %v", err)
	}
	t.Cleanup(func() { bf.Close() })
	return bf
}

func TestFile_AppendReadWrite(t *testing.T) {
	header := []byte("hdr\n")
	bf := createTempFile(t, "store.txt", header, 8)

	n, err := bf.AppendBlock([]byte("AAAA####"))
	if err != nil || n != 0 {
		t.Fatalf("AppendBlock = %d, %v", n, err)
	}
	n, err = bf.AppendBlock([]byte("BBBBBBBB"))
	if err != nil || n != 1 {
		t.Fatalf("AppendBlock = %d, %v", n, err)
	}

	if got, _ := bf.NumBlocks(); got != 2 {
		t.Errorf("expected 2 blocks, got %d", got)
	}
	if off := bf.Offset(1); off != int64(len(header))+9 {
		t.Errorf("block 1 offset %d", off)
	}

	if err := bf.WriteBlock(0, []byte("CCCCCCCC")); err != nil {
		t.Fatalf("WriteBlock failed: %v", err)
	}
	if err := bf.WriteSlot(1, 1, []byte("xy")); err != nil {
		t.Fatalf("WriteSlot failed: %v", err)
	}

	raw, err := os.ReadFile(bf.FilePath().String())
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if want := "hdr\nCCCCCCCC\nBBxyBBBB\n"; string(raw) != want {
		t.Errorf("file content %q, want %q", raw, want)
	}

	slot, err := bf.ReadSlot(1, 1, 2)
	if err != nil || string(slot) != "xy" {
		t.Errorf("ReadSlot = %q, %v", slot, err)
	}
}

func TestFile_WriteBlockWrongSize(t *testing.T) {
	bf := createTempFile(t, "store.txt", nil, 8)
	if err := bf.WriteBlock(0, []byte("short")); !errors.Is(err, dberror.ErrIO) {
		t.Errorf("expected IO_ERROR, got %v", err)
	}
}

func TestFile_BlockSizeMismatch(t *testing.T) {
	path := primitives.Filepath(filepath.Join(t.TempDir(), "store.txt"))
	if err := os.WriteFile(path.String(), []byte("h\n0123456789\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	bf, err := Open(path, 8, 2)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer bf.Close()

	if _, err := bf.NumBlocks(); !errors.Is(err, dberror.ErrCorruptCatalog) {
		t.Errorf("expected CORRUPT_CATALOG from NumBlocks, got %v", err)
	}
	if _, err := bf.ReadBlock(0); !errors.Is(err, dberror.ErrCorruptCatalog) {
		t.Errorf("expected CORRUPT_CATALOG from ReadBlock, got %v", err)
	}
}

func TestFile_RewriteHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"same length", "HDR\n"},
		{"longer", "HEADER-LONGER\n"},
		{"shorter", "H\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bf := createTempFile(t, "store.txt", []byte("hdr\n"), 4)
			bf.AppendBlock([]byte("aaaa"))
			bf.AppendBlock([]byte("bbbb"))

			if err := bf.RewriteHeader([]byte(tt.header)); err != nil {
				t.Fatalf("RewriteHeader failed: %v", err)
			}
			if bf.RegionStart() != int64(len(tt.header)) {
				t.Errorf("region start %d, want %d", bf.RegionStart(), len(tt.header))
			}

			raw, _ := os.ReadFile(bf.FilePath().String())
			if want := tt.header + "aaaa\nbbbb\n"; string(raw) != want {
				t.Errorf("file content %q, want %q", raw, want)
			}

			block, err := bf.ReadBlock(1)
			if err != nil || string(block) != "bbbb" {
				t.Errorf("ReadBlock(1) = %q, %v", block, err)
			}
		})
	}
}

func TestPackFixed(t *testing.T) {
	records := [][]byte{[]byte("aa,"), []byte("bb,"), []byte("cc,")}
	blocks := PackFixed(records, 2, 7)

	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if string(blocks[0]) != "aa,bb,#" {
		t.Errorf("block 0 = %q", blocks[0])
	}
	if string(blocks[1]) != "cc,####" {
		t.Errorf("block 1 = %q", blocks[1])
	}
}

func TestPackDelimited(t *testing.T) {
	records := [][]byte{[]byte("1,a$"), []byte("2,bbb$"), []byte("3,c$"), []byte("4,dddddd$")}
	blocks, err := PackDelimited(records, 10)
	if err != nil {
		t.Fatalf("PackDelimited failed: %v", err)
	}

	want := []string{"1,a$2,bbb$", "3,c$######", "4,dddddd$#"}
	if len(blocks) != len(want) {
		t.Fatalf("expected %d blocks, got %d: %q", len(want), len(blocks), blocks)
	}
	for i := range want {
		if string(blocks[i]) != want[i] {
			t.Errorf("block %d = %q, want %q", i, blocks[i], want[i])
		}
	}

	if _, err := PackDelimited([][]byte{bytes.Repeat([]byte("x"), 11)}, 10); !errors.Is(err, dberror.ErrFieldTooLarge) {
		t.Errorf("expected FIELD_TOO_LARGE for oversize record, got %v", err)
	}
}

func TestFreeSpace(t *testing.T) {
	if got := FreeSpace([]byte("1,a$2,b$##")); got != 2 {
		t.Errorf("FreeSpace = %d, want 2", got)
	}
	if got := FreeSpace(Empty(6)); got != 6 {
		t.Errorf("FreeSpace of empty block = %d, want 6", got)
	}
}

func TestFreeSlots(t *testing.T) {
	block := []byte("aa,###cc,######")

	if s := FirstFreeSlot(block, 3, 5); s != 1 {
		t.Errorf("FirstFreeSlot = %d, want 1", s)
	}
	if s := FreeSlotAfterLast(block, 3, 5); s != 3 {
		t.Errorf("FreeSlotAfterLast = %d, want 3", s)
	}
	if s := FreeSlotAfterLast([]byte("aa,bb,"), 3, 2); s != -1 {
		t.Errorf("FreeSlotAfterLast on full block = %d, want -1", s)
	}
	if s := FreeSlotAfterLast(Empty(6), 3, 2); s != 0 {
		t.Errorf("FreeSlotAfterLast on empty block = %d, want 0", s)
	}
	if s := FirstFreeSlot([]byte("aa,bb,#"), 3, 2); s != -1 {
		t.Errorf("FirstFreeSlot on full block = %d, want -1", s)
	}
}
