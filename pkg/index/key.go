// Package index implements the two index shapes relstore exposes over
// a data table: an unordered, map-backed equality index and an
// ordered, btree-backed index supporting range scans.
package index

import (
	"bytes"
	"encoding/binary"
)

// Key is a comparable, byte-serializable index key. Two families
// satisfy it: CompactIntsKey, for fixed-width signed-integer keys
// packed for byte-wise comparison, and GenericKey, for keys whose
// schema includes variable-length columns.
type Key interface {
	Bytes() []byte
	Compare(other Key) int
}

// CompactIntsKey packs one or more signed 64-bit integers into a
// fixed-width, sign-flipped big-endian byte string, so that ordinary
// byte comparison produces the correct signed ordering.
type CompactIntsKey struct {
	raw []byte
}

// NewCompactIntsKey builds a CompactIntsKey over vals, most
// significant column first.
func NewCompactIntsKey(vals ...int64) CompactIntsKey {
	buf := make([]byte, 8*len(vals))
	for i, v := range vals {
		u := uint64(v) ^ (1 << 63)
		binary.BigEndian.PutUint64(buf[i*8:(i+1)*8], u)
	}
	return CompactIntsKey{raw: buf}
}

// Bytes returns the packed key representation.
func (k CompactIntsKey) Bytes() []byte { return k.raw }

// Compare orders two CompactIntsKeys by byte value, which is
// equivalent to lexicographic signed-integer-tuple order.
func (k CompactIntsKey) Compare(other Key) int {
	return bytes.Compare(k.raw, other.Bytes())
}

// GenericKey wraps a pre-serialized key whose schema may include
// variable-length columns; ordering is still byte-wise over the
// caller-supplied encoding, which must itself preserve the desired
// column order (e.g. length-prefixing each varlen column).
type GenericKey struct {
	raw []byte
}

// NewGenericKey wraps raw as a GenericKey. Callers own the encoding.
func NewGenericKey(raw []byte) GenericKey {
	return GenericKey{raw: append([]byte(nil), raw...)}
}

// Bytes returns the key's encoded representation.
func (k GenericKey) Bytes() []byte { return k.raw }

// Compare orders two GenericKeys by byte value.
func (k GenericKey) Compare(other Key) int {
	return bytes.Compare(k.raw, other.Bytes())
}
