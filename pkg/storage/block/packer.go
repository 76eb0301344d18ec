package block

import (
	"bytes"

	"blockstore/pkg/dberror"
	"blockstore/pkg/primitives"
)

// Empty returns a block made entirely of filler.
func Empty(blockSize int) []byte {
	return bytes.Repeat([]byte{primitives.Filler}, blockSize)
}

// Fill pads content with filler up to blockSize.
func Fill(content []byte, blockSize int) []byte {
	out := make([]byte, blockSize)
	n := copy(out, content)
	for i := n; i < blockSize; i++ {
		out[i] = primitives.Filler
	}
	return out
}

// PackFixed lays packed fixed-width records into blocks of blockingFactor
// slots each. The tail of every block, and the unused slots of the last one,
// hold filler.
func PackFixed(records [][]byte, blockingFactor, blockSize int) [][]byte {
	if blockingFactor <= 0 {
		return nil
	}

	var blocks [][]byte
	for start := 0; start < len(records); start += blockingFactor {
		end := min(start+blockingFactor, len(records))
		blocks = append(blocks, Fill(bytes.Join(records[start:end], nil), blockSize))
	}
	return blocks
}

// PackDelimited lays sentinel-terminated records into blocks greedily: each
// record goes into the current block if it fits, otherwise the current block
// is closed with filler and a new one is started. Record order is kept.
func PackDelimited(records [][]byte, blockSize int) ([][]byte, error) {
	var blocks [][]byte
	var current []byte

	for _, rec := range records {
		if len(rec) > blockSize {
			return nil, dberror.FieldTooLarge("record of %d bytes does not fit a block of %d bytes", len(rec), blockSize)
		}
		if len(current)+len(rec) > blockSize {
			blocks = append(blocks, Fill(current, blockSize))
			current = nil
		}
		current = append(current, rec...)
	}

	if len(current) > 0 {
		blocks = append(blocks, Fill(current, blockSize))
	}
	return blocks, nil
}

// Used returns the number of bytes of a delimited block holding records,
// i.e. everything up to and including the last sentinel.
func Used(block []byte) int {
	return bytes.LastIndexByte(block, primitives.Sentinel) + 1
}

// FreeSpace returns the filler bytes at the tail of a delimited block.
func FreeSpace(block []byte) int {
	return len(block) - Used(block)
}

// FirstFreeSlot returns the first slot of a fixed-slot block that holds only
// filler, or -1 when every slot is occupied.
func FirstFreeSlot(block []byte, recordSize, blockingFactor int) primitives.SlotID {
	for s := 0; s < blockingFactor; s++ {
		start := s * recordSize
		if start+recordSize > len(block) {
			break
		}
		if isFiller(block[start : start+recordSize]) {
			return primitives.SlotID(s)
		}
	}
	return -1
}

// FreeSlotAfterLast returns the slot just after the last occupied slot of a
// fixed-slot block, or -1 when the last slot is occupied.
func FreeSlotAfterLast(block []byte, recordSize, blockingFactor int) primitives.SlotID {
	for s := blockingFactor - 1; s >= 0; s-- {
		start := s * recordSize
		if start+recordSize > len(block) {
			continue
		}
		if !isFiller(block[start : start+recordSize]) {
			if s == blockingFactor-1 {
				return -1
			}
			return primitives.SlotID(s + 1)
		}
	}
	return 0
}

func isFiller(b []byte) bool {
	for _, c := range b {
		if c != primitives.Filler {
			return false
		}
	}
	return true
}
