package asm

import (
	"encoding/binary"

	"github.com/arctany/ember/vm"
)

// WordSize is the size in bytes of a machine word and of a NaN-boxed
// value stored in generated code.
const WordSize = 8

// Region is a fixed-size destination memory region: the permanent home a
// finalized buffer is copied into. Unlike the growable Buffer, a Region
// never relocates, so fixups may store resolved values into it.
type Region struct {
	data []byte
}

// NewRegion allocates a zeroed region of n bytes.
func NewRegion(n int) Region {
	return Region{data: make([]byte, n)}
}

// RegionFor wraps an existing byte slice as a region.
func RegionFor(b []byte) Region {
	return Region{data: b}
}

// Len returns the region's size in bytes.
func (r Region) Len() int {
	return len(r.data)
}

// Bytes returns the region's backing bytes.
func (r Region) Bytes() []byte {
	return r.data
}

// CopyFrom copies the whole source region into this region starting at
// offset. Panics if the destination is too small; the caller sizes the
// region from Buffer.Size beforehand.
func (r Region) CopyFrom(offset int, from Region) {
	if offset < 0 || offset+len(from.data) > len(r.data) {
		panic("Region.CopyFrom: source does not fit")
	}
	copy(r.data[offset:], from.data)
}

// Load64 reads a little-endian word at position.
func (r Region) Load64(position int) uint64 {
	return binary.LittleEndian.Uint64(r.data[position:])
}

// Store64 writes a little-endian word at position.
func (r Region) Store64(position int, value uint64) {
	binary.LittleEndian.PutUint64(r.data[position:], value)
}

// StoreValue writes a NaN-boxed value at position.
func (r Region) StoreValue(position int, v vm.Value) {
	r.Store64(position, uint64(v))
}

// LoadValue reads a NaN-boxed value at position.
func (r Region) LoadValue(position int) vm.Value {
	return vm.Value(r.Load64(position))
}
