// Package u64 holds little-endian byte encoding helpers for uint64, split out from its one real call site
// (internal/compilationcache's key derivation) so that site reads as "encode this field" rather than a raw
// binary.LittleEndian call buried among unrelated ones.
package u64

import "encoding/binary"

// LeBytes encodes v as 8 little-endian bytes.
func LeBytes(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}
