package key

import "fmt"

// listIndexOffset shifts the signed list index space so that "prepend"
// (negative indices) sorts lexicographically before "append" (positive
// indices) once zero-padded to 20 digits. 10^19 exceeds the int64 range,
// so the offset index is computed in uint64.
const listIndexOffset = uint64(1e19)

// ListElementSortKey encodes the monotonic list index into a sort key of
// the form "list:<name>#<20-digit-offset-index>".
func ListElementSortKey(name string, index int64) string {
	return fmt.Sprintf("list:%s#%020d", name, uint64(index)+listIndexOffset)
}

// ListIndexBounds returns the raw (offset) sort-key index range covering
// [headIdx, tailIdx].
func ListIndexBounds(headIdx, tailIdx int64) (lo, hi uint64) {
	return uint64(headIdx) + listIndexOffset, uint64(tailIdx) + listIndexOffset
}
