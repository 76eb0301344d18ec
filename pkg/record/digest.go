package record

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Digest fingerprints a sequence of records. Two record sets with the same
// values in the same order share a digest.
func Digest(records []Record) string {
	h := blake3.New()
	for _, rec := range records {
		_, _ = h.Write(PackDelimited(rec))
	}
	return hex.EncodeToString(h.Sum(nil))
}
