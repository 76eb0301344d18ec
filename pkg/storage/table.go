package storage

import (
	"bufio"
	"bytes"
	"log/slog"
	"os"

	"blockstore/pkg/catalog"
	"blockstore/pkg/dberror"
	"blockstore/pkg/logging"
	"blockstore/pkg/primitives"
	"blockstore/pkg/storage/block"
)

// Table is one operation's handle on a store: the decoded catalog and the
// open block file. It lives only for the duration of a public operation.
type Table struct {
	Catalog *catalog.Catalog
	File    *block.File
	Log     *slog.Logger
}

// OpenTable opens the store at path, decodes its catalog and positions the
// block file after the header.
func OpenTable(path primitives.Filepath, kind catalog.Kind, blockSize int, op string) (*Table, error) {
	if !path.Exists() {
		return nil, dberror.Wrap(&os.PathError{Op: "open", Path: path.String(), Err: os.ErrNotExist},
			dberror.CodeIO, op, kind.String())
	}

	f, err := os.Open(path.String())
	if err != nil {
		return nil, dberror.Wrap(err, dberror.CodeIO, op, kind.String())
	}
	cat, headerLen, err := catalog.Decode(bufio.NewReader(f), kind)
	f.Close()
	if err != nil {
		return nil, err
	}

	bf, err := block.Open(path, blockSize, headerLen)
	if err != nil {
		return nil, err
	}

	if kind == catalog.FixedHeap {
		n, err := bf.NumBlocks()
		if err != nil {
			bf.Close()
			return nil, err
		}
		cat.BlockCount = n
	}

	return &Table{
		Catalog: cat,
		File:    bf,
		Log:     logging.WithStoreOp(path.String(), op),
	}, nil
}

// Commit re-encodes the catalog, refreshing its modification timestamp, and
// writes it over the header.
func (t *Table) Commit() error {
	var buf bytes.Buffer
	if err := catalog.Encode(&buf, t.Catalog); err != nil {
		return dberror.Wrap(err, dberror.CodeIO, "Commit", t.Catalog.Kind.String())
	}
	if err := t.File.RewriteHeader(buf.Bytes()); err != nil {
		return err
	}
	return t.File.Sync()
}

// Close releases the block file.
func (t *Table) Close() error {
	return t.File.Close()
}

// Blocks reads every block of the region in order.
func (t *Table) Blocks() ([][]byte, error) {
	n, err := t.File.NumBlocks()
	if err != nil {
		return nil, err
	}
	blocks := make([][]byte, n)
	for i := 0; i < n; i++ {
		if blocks[i], err = t.File.ReadBlock(primitives.BlockNumber(i)); err != nil {
			return nil, err
		}
	}
	return blocks, nil
}

// WriteStore writes cat and blocks as a complete store at path. The content
// goes to a temporary sibling first and is renamed over path, so a reader
// never sees a half-written store.
func WriteStore(path primitives.Filepath, cat *catalog.Catalog, blocks [][]byte, blockSize int) error {
	var buf bytes.Buffer
	if err := catalog.Encode(&buf, cat); err != nil {
		return dberror.Wrap(err, dberror.CodeIO, "WriteStore", cat.Kind.String())
	}
	return WriteRegion(path, buf.Bytes(), blocks, blockSize)
}

// WriteRegion writes header followed by blocks to path via a temporary sibling.
func WriteRegion(path primitives.Filepath, header []byte, blocks [][]byte, blockSize int) error {
	tmp := path.TempSibling()
	bf, err := block.Create(tmp, blockSize, header)
	if err != nil {
		return err
	}

	for i, b := range blocks {
		if err := bf.WriteBlock(primitives.BlockNumber(i), b); err != nil {
			bf.Close()
			tmp.Remove()
			return err
		}
	}

	if err := bf.Sync(); err != nil {
		bf.Close()
		tmp.Remove()
		return err
	}
	if err := bf.Close(); err != nil {
		tmp.Remove()
		return dberror.Wrap(err, dberror.CodeIO, "WriteRegion", "Store")
	}

	if err := tmp.RenameTo(path); err != nil {
		tmp.Remove()
		return dberror.Wrap(err, dberror.CodeIO, "WriteRegion", "Store")
	}
	return nil
}
