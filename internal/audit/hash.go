package audit

import (
	"fmt"
	"math"
)

// GenesisChecksum is the sentinel prevChecksum for the first entry.
const GenesisChecksum = "0000000000000000"

// Checksum computes the djb2-variant hash over the five fields in
// order, pipe-delimited. This is a public contract reproducible by
// external verifiers, so it is implemented by hand rather than via a
// general-purpose hash package: the formula itself, not just its
// output, is part of the interface.
func Checksum(seqID uint64, timestamp, eventType, payload, prevChecksum string) string {
	s := fmt.Sprintf("%d|%s|%s|%s|%s", seqID, timestamp, eventType, payload, prevChecksum)
	var hash int64 = 5381
	for _, b := range []byte(s) {
		hash = ((hash << 5) + hash) + int64(b)
	}
	if hash < 0 {
		hash = -hash
	}
	if hash == math.MinInt64 {
		hash = 0
	}
	return fmt.Sprintf("%x", hash)
}
