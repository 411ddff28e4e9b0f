package tree

import (
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// HashText computes the BLAKE3 hash of a text and returns it as a hex
// string. Provenance payloads use it to pin down the exact text a merged
// segment inherited from each source.
func HashText(text string) string {
	h := blake3.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// NewPayload builds a provenance record for text contributed by the given
// fragment entry. entryIndex is -1 for base-text segments.
func NewPayload(fragmentKey string, entryIndex int, text string) Payload {
	return Payload{
		ID:          uuid.NewString(),
		FragmentKey: fragmentKey,
		EntryIndex:  entryIndex,
		TextHash:    HashText(text),
	}
}
