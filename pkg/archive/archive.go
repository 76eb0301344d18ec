// Package archive compresses store files with xz and restores them.
//
// Every archive <store>.xz is written with a checksum sidecar <store>.xz.b3
// holding the hex BLAKE3 digest of the uncompressed store. Restore refuses an
// archive whose contents do not match its sidecar.
package archive

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"blockstore/pkg/dberror"
	"blockstore/pkg/logging"
	"blockstore/pkg/primitives"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"
)

const (
	// Extension is appended to a store path to name its archive.
	Extension = ".xz"

	// ChecksumExtension is appended to an archive path to name its sidecar.
	ChecksumExtension = ".b3"

	component = "Archive"
)

var (
	xzNewWriter = xz.NewWriter
	xzNewReader = xz.NewReader
)

// Result describes a written archive.
type Result struct {
	Archive  primitives.Filepath
	Checksum string
	Original int64
	Packed   int64
}

// PathFor returns the archive path of a store.
func PathFor(store primitives.Filepath) primitives.Filepath {
	return primitives.Filepath(store.String() + Extension)
}

func checksumPath(archive primitives.Filepath) primitives.Filepath {
	return primitives.Filepath(archive.String() + ChecksumExtension)
}

// Checksum returns the hex BLAKE3 digest of data.
func Checksum(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Compress writes an xz archive of the store next to it, plus its checksum
// sidecar. An existing archive is replaced.
func Compress(store primitives.Filepath) (*Result, error) {
	data, err := os.ReadFile(store.String())
	if err != nil {
		return nil, dberror.Wrap(err, dberror.CodeIO, "Compress", component)
	}

	var buf bytes.Buffer
	w, err := xzNewWriter(&buf)
	if err != nil {
		return nil, dberror.Wrap(fmt.Errorf("failed to create xz writer: %w", err), dberror.CodeIO, "Compress", component)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, dberror.Wrap(err, dberror.CodeIO, "Compress", component)
	}
	if err := w.Close(); err != nil {
		return nil, dberror.Wrap(err, dberror.CodeIO, "Compress", component)
	}

	target := PathFor(store)
	sum := Checksum(data)
	if err := writeAtomic(target, buf.Bytes()); err != nil {
		return nil, err
	}
	if err := writeAtomic(checksumPath(target), []byte(sum+"\n")); err != nil {
		return nil, err
	}

	res := &Result{
		Archive:  target,
		Checksum: sum,
		Original: int64(len(data)),
		Packed:   int64(buf.Len()),
	}
	logging.WithStoreOp(store.String(), "Compress").Info("store archived",
		"archive", target.String(), "original_bytes", res.Original, "packed_bytes", res.Packed)
	return res, nil
}

// Decompress reads an archive, checks it against its sidecar and returns the
// store contents.
func Decompress(archive primitives.Filepath) ([]byte, error) {
	f, err := os.Open(archive.String())
	if err != nil {
		return nil, dberror.Wrap(err, dberror.CodeIO, "Decompress", component)
	}
	defer f.Close()

	r, err := xzNewReader(f)
	if err != nil {
		return nil, dberror.Wrap(fmt.Errorf("failed to create xz reader: %w", err), dberror.CodeIO, "Decompress", component)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, dberror.Wrap(err, dberror.CodeIO, "Decompress", component)
	}

	want, err := os.ReadFile(checksumPath(archive).String())
	if err != nil {
		return nil, dberror.Wrap(err, dberror.CodeIO, "Decompress", component)
	}
	if got := Checksum(data); got != strings.TrimSpace(string(want)) {
		return nil, dberror.CorruptCatalog("archive %s checksum %s does not match sidecar", archive, got).
			In("Decompress", component).
			WithHint("the archive or its .b3 sidecar was modified after it was written")
	}
	return data, nil
}

// Restore decompresses an archive over dest, replacing any existing store.
func Restore(archive, dest primitives.Filepath) error {
	data, err := Decompress(archive)
	if err != nil {
		return err
	}
	if err := writeAtomic(dest, data); err != nil {
		return err
	}
	logging.WithStoreOp(dest.String(), "Restore").Info("store restored",
		"archive", archive.String(), "bytes", len(data))
	return nil
}

func writeAtomic(path primitives.Filepath, data []byte) error {
	tmp := path.TempSibling()
	if err := os.WriteFile(tmp.String(), data, 0o600); err != nil {
		return dberror.Wrap(err, dberror.CodeIO, "Write", component)
	}
	if err := tmp.RenameTo(path); err != nil {
		_ = tmp.Remove()
		return dberror.Wrap(err, dberror.CodeIO, "Write", component)
	}
	return nil
}
