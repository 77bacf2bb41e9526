package asm

import (
	"github.com/arctany/ember/vm"
)

// Fixup is a deferred patch recorded against a buffer offset. It runs
// exactly once, against the final memory region, never against the
// growable buffer, whose contents still relocate.
type Fixup interface {
	// Process writes the resolved patch value into region at position.
	Process(region Region, position int)

	// IsPointerOffset reports whether the patched slot holds a managed
	// reference the collector must scan.
	IsPointerOffset() bool
}

// fixupRecord pairs a fixup with the buffer offset it patches. Offsets,
// not addresses: buffer growth relocates storage without touching any
// recorded fixup.
type fixupRecord struct {
	fixup    Fixup
	position int
}

// patchCodeWithValue patches a managed value into the code at its
// position and records that the position holds a reference. The recorded
// offsets are consumed after finalization to build the code object's
// reference-scanning descriptor.
type patchCodeWithValue struct {
	pointerOffsets *[]int
	value          vm.Value
}

func (f *patchCodeWithValue) Process(region Region, position int) {
	// Once the instructions are installed and the pointer offsets are
	// set up, the reference is resolved.
	region.StoreValue(position, f.value)
	*f.pointerOffsets = append(*f.pointerOffsets, position)
}

func (f *patchCodeWithValue) IsPointerOffset() bool {
	return true
}
