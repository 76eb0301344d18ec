package block

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"blockstore/pkg/dberror"
	"blockstore/pkg/primitives"
)

const component = "BlockFile"

// File is a store file viewed as a header followed by a region of
// fixed-size blocks. Block i occupies blockSize bytes plus one newline and
// starts at regionStart + i*(blockSize+1).
//
// Key responsibilities:
//   - Managing the underlying OS file handle
//   - Offset arithmetic for blocks and fixed-size slots
//   - Verifying that every block is terminated where the block size says it is
//   - Rewriting the header, shifting the block region when its length changes
type File struct {
	file        *os.File
	filePath    primitives.Filepath
	blockSize   int
	regionStart int64
	mutex       sync.RWMutex
}

// Open opens (or creates) the file at filePath. regionStart is the byte
// offset where the block region begins; pass 0 for header-less files such
// as an ordered file's extension region.
//
// Parameters:
//   - filePath: Path to the store file
//   - blockSize: Size of each block excluding its trailing newline
//   - regionStart: Length of the header preceding the first block
//
// Returns:
//   - *File: The opened block file
//   - error: INVALID_CONFIG for a non-positive block size, IO_ERROR if the file cannot be opened
func Open(filePath primitives.Filepath, blockSize int, regionStart int64) (*File, error) {
	if filePath == "" {
		return nil, dberror.InvalidConfig("filePath cannot be empty")
	}
	if blockSize <= 0 {
		return nil, dberror.InvalidConfig("block size must be positive, got %d", blockSize)
	}

	file, err := os.OpenFile(string(filePath), os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, dberror.Wrap(err, dberror.CodeIO, "Open", component)
	}

	return &File{
		file:        file,
		filePath:    filePath,
		blockSize:   blockSize,
		regionStart: regionStart,
	}, nil
}

// Create truncates filePath and writes header as its only content.
func Create(filePath primitives.Filepath, blockSize int, header []byte) (*File, error) {
	if err := filePath.MkdirAll(0755); err != nil {
		return nil, dberror.Wrap(err, dberror.CodeIO, "Create", component)
	}
	if err := os.WriteFile(string(filePath), header, 0644); err != nil {
		return nil, dberror.Wrap(err, dberror.CodeIO, "Create", component)
	}
	return Open(filePath, blockSize, int64(len(header)))
}

func (bf *File) FilePath() primitives.Filepath {
	return bf.filePath
}

func (bf *File) BlockSize() int {
	return bf.blockSize
}

// RegionStart returns the offset of block 0.
func (bf *File) RegionStart() int64 {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()
	return bf.regionStart
}

// Offset returns the byte offset of block n.
func (bf *File) Offset(n primitives.BlockNumber) int64 {
	return bf.regionStart + int64(n)*int64(bf.blockSize+1)
}

// NumBlocks measures the block region. A region whose length is not a whole
// number of blocks means the configured block size does not match the one
// the store was built with.
func (bf *File) NumBlocks() (int, error) {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()

	if bf.file == nil {
		return 0, dberror.Wrap(os.ErrClosed, dberror.CodeIO, "NumBlocks", component)
	}

	info, err := bf.file.Stat()
	if err != nil {
		return 0, dberror.Wrap(err, dberror.CodeIO, "NumBlocks", component)
	}

	region := info.Size() - bf.regionStart
	stride := int64(bf.blockSize + 1)
	if region < 0 || region%stride != 0 {
		return 0, dberror.CorruptCatalog("%s: block region of %d bytes is not a multiple of %d", bf.filePath, region, stride).
			WithHint("check that the configured block size matches the one the store was loaded with")
	}
	return int(region / stride), nil
}

// ReadBlock reads block n without its trailing newline.
func (bf *File) ReadBlock(n primitives.BlockNumber) ([]byte, error) {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()

	if bf.file == nil {
		return nil, dberror.Wrap(os.ErrClosed, dberror.CodeIO, "ReadBlock", component)
	}

	buf := make([]byte, bf.blockSize+1)
	if _, err := bf.file.ReadAt(buf, bf.Offset(n)); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, dberror.CorruptCatalog("%s: block %d is past the end of the file", bf.filePath, n)
		}
		return nil, dberror.Wrap(err, dberror.CodeIO, "ReadBlock", component)
	}

	if buf[bf.blockSize] != primitives.Terminator {
		return nil, dberror.CorruptCatalog("%s: block %d is not terminated after %d bytes", bf.filePath, n, bf.blockSize).
			WithHint("check that the configured block size matches the one the store was loaded with")
	}
	return buf[:bf.blockSize], nil
}

// WriteBlock overwrites block n. data must be exactly one block long.
func (bf *File) WriteBlock(n primitives.BlockNumber, data []byte) error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()
	return bf.writeBlock(n, data)
}

func (bf *File) writeBlock(n primitives.BlockNumber, data []byte) error {
	if bf.file == nil {
		return dberror.Wrap(os.ErrClosed, dberror.CodeIO, "WriteBlock", component)
	}

	if len(data) != bf.blockSize {
		return dberror.Wrap(fmt.Errorf("invalid block size: expected %d, got %d", bf.blockSize, len(data)),
			dberror.CodeIO, "WriteBlock", component)
	}

	buf := make([]byte, 0, bf.blockSize+1)
	buf = append(buf, data...)
	buf = append(buf, primitives.Terminator)

	if _, err := bf.file.WriteAt(buf, bf.Offset(n)); err != nil {
		return dberror.Wrap(err, dberror.CodeIO, "WriteBlock", component)
	}
	return nil
}

// AppendBlock writes data as a new block after the last one and returns its number.
func (bf *File) AppendBlock(data []byte) (primitives.BlockNumber, error) {
	n, err := bf.NumBlocks()
	if err != nil {
		return 0, err
	}

	bf.mutex.Lock()
	defer bf.mutex.Unlock()
	if err := bf.writeBlock(primitives.BlockNumber(n), data); err != nil {
		return 0, err
	}
	return primitives.BlockNumber(n), nil
}

// ReadSlot reads the recordSize bytes of slot s in block n.
func (bf *File) ReadSlot(n primitives.BlockNumber, s primitives.SlotID, recordSize int) ([]byte, error) {
	block, err := bf.ReadBlock(n)
	if err != nil {
		return nil, err
	}

	start := int(s) * recordSize
	if s < 0 || start+recordSize > len(block) {
		return nil, dberror.Wrap(fmt.Errorf("slot %d of size %d exceeds block of %d bytes", s, recordSize, len(block)),
			dberror.CodeIO, "ReadSlot", component)
	}
	return block[start : start+recordSize], nil
}

// WriteSlot overwrites slot s of block n in place.
func (bf *File) WriteSlot(n primitives.BlockNumber, s primitives.SlotID, data []byte) error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file == nil {
		return dberror.Wrap(os.ErrClosed, dberror.CodeIO, "WriteSlot", component)
	}

	start := int(s) * len(data)
	if s < 0 || start+len(data) > bf.blockSize {
		return dberror.Wrap(fmt.Errorf("slot %d of size %d exceeds block of %d bytes", s, len(data), bf.blockSize),
			dberror.CodeIO, "WriteSlot", component)
	}

	if _, err := bf.file.WriteAt(data, bf.Offset(n)+int64(start)); err != nil {
		return dberror.Wrap(err, dberror.CodeIO, "WriteSlot", component)
	}
	return nil
}

// RewriteHeader replaces the bytes before the block region with header.
// Header lines are not fixed width, so when the new header is longer or
// shorter than the old one the whole block region is moved to start right
// after it.
func (bf *File) RewriteHeader(header []byte) error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file == nil {
		return dberror.Wrap(os.ErrClosed, dberror.CodeIO, "RewriteHeader", component)
	}

	newStart := int64(len(header))
	if newStart == bf.regionStart {
		if _, err := bf.file.WriteAt(header, 0); err != nil {
			return dberror.Wrap(err, dberror.CodeIO, "RewriteHeader", component)
		}
		return nil
	}

	info, err := bf.file.Stat()
	if err != nil {
		return dberror.Wrap(err, dberror.CodeIO, "RewriteHeader", component)
	}

	region := make([]byte, info.Size()-bf.regionStart)
	if _, err := bf.file.ReadAt(region, bf.regionStart); err != nil && !errors.Is(err, io.EOF) {
		return dberror.Wrap(err, dberror.CodeIO, "RewriteHeader", component)
	}

	content := make([]byte, 0, len(header)+len(region))
	content = append(content, header...)
	content = append(content, region...)

	if _, err := bf.file.WriteAt(content, 0); err != nil {
		return dberror.Wrap(err, dberror.CodeIO, "RewriteHeader", component)
	}
	if err := bf.file.Truncate(int64(len(content))); err != nil {
		return dberror.Wrap(err, dberror.CodeIO, "RewriteHeader", component)
	}

	bf.regionStart = newStart
	return nil
}

// Sync flushes the file to stable storage.
func (bf *File) Sync() error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file == nil {
		return nil
	}
	if err := bf.file.Sync(); err != nil {
		return dberror.Wrap(err, dberror.CodeIO, "Sync", component)
	}
	return nil
}

// Close closes the underlying file handle.
//
// After calling Close, all other methods will return errors.
func (bf *File) Close() error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file != nil {
		err := bf.file.Close()
		bf.file = nil
		return err
	}

	return nil
}
