package asm

import (
	"encoding/binary"

	"github.com/arctany/ember/vm"
)

// Buffer sizing constants.
const (
	// initialBufferCapacity is the capacity every fresh buffer starts
	// with.
	initialBufferCapacity = 4 * 1024

	// minimumGap is the guard band: reserved headroom at the end of the
	// buffer, sized to the largest single instruction encoding. An
	// encoder checks capacity once per instruction, then emits freely
	// within the gap.
	minimumGap = 32

	// maxCapacityStep caps geometric growth at 1 MiB per extension.
	maxCapacityStep = 1 << 20

	// breakpointByte pre-fills fresh buffer storage in debug builds, so
	// executing an uninitialized part of the code buffer traps.
	breakpointByte = 0xCC
)

// Buffer is the growable staging area for generated instructions. Bytes
// are appended at a logical cursor; deferred patches are recorded as
// fixups keyed by buffer offset. The buffer is single-use: it is consumed
// by FinalizeInstructions, which copies the bytes to their permanent
// region and replays the fixups there.
//
// All positions are offsets from the buffer start, never addresses, so
// capacity growth is a plain reallocate-and-copy with no fixup rewriting.
type Buffer struct {
	contents []byte
	cursor   int
	limit    int

	fixups         []fixupRecord
	pointerOffsets []int

	// Debug-build bookkeeping for the emission contracts.
	hasEnsuredCapacity bool
	fixupsProcessed    bool
}

// newContents allocates buffer storage. Debug builds initialize it with
// breakpoint bytes to force a trap if uninitialized code ever runs.
func newContents(capacity int) []byte {
	b := make([]byte, capacity)
	if debugAssertions {
		for i := range b {
			b[i] = breakpointByte
		}
	}
	return b
}

// computeLimit returns the cursor bound that keeps minimumGap bytes of
// headroom below the given capacity.
func computeLimit(capacity int) int {
	return capacity - minimumGap
}

// NewBuffer creates an empty buffer with the initial capacity.
func NewBuffer() *Buffer {
	b := &Buffer{
		contents:       newContents(initialBufferCapacity),
		cursor:         0,
		limit:          computeLimit(initialBufferCapacity),
		pointerOffsets: make([]int, 0, 16),
	}

	// Verify internal state.
	if b.Capacity() != initialBufferCapacity {
		panic("NewBuffer: bad capacity")
	}
	if b.Size() != 0 {
		panic("NewBuffer: bad size")
	}
	return b
}

// Size returns the number of bytes emitted so far.
func (b *Buffer) Size() int {
	return b.cursor
}

// Position is Size under the name instruction encoders use when they
// record per-offset metadata (comments, source positions).
func (b *Buffer) Position() int {
	return b.cursor
}

// Capacity returns the current storage capacity.
func (b *Buffer) Capacity() int {
	return len(b.contents)
}

// gap returns the remaining headroom between cursor and capacity.
func (b *Buffer) gap() int {
	return b.Capacity() - b.cursor
}

// emitCheck enforces the emission contracts in debug builds: no emission
// after finalize, and no emission outside an EnsureCapacity guard.
func (b *Buffer) emitCheck() {
	if debugAssertions {
		if b.fixupsProcessed {
			panic("Buffer: emit after finalize")
		}
		if !b.hasEnsuredCapacity {
			panic("Buffer: emit without EnsureCapacity")
		}
	}
}

// ---------------------------------------------------------------------------
// Emission
// ---------------------------------------------------------------------------

// EmitByte emits a single byte at the cursor.
func (b *Buffer) EmitByte(v byte) {
	b.emitCheck()
	b.contents[b.cursor] = v
	b.cursor++
}

// EmitUint16 emits a little-endian 16-bit value.
func (b *Buffer) EmitUint16(v uint16) {
	b.emitCheck()
	binary.LittleEndian.PutUint16(b.contents[b.cursor:], v)
	b.cursor += 2
}

// EmitUint32 emits a little-endian 32-bit value.
func (b *Buffer) EmitUint32(v uint32) {
	b.emitCheck()
	binary.LittleEndian.PutUint32(b.contents[b.cursor:], v)
	b.cursor += 4
}

// EmitUint64 emits a little-endian 64-bit value.
func (b *Buffer) EmitUint64(v uint64) {
	b.emitCheck()
	binary.LittleEndian.PutUint64(b.contents[b.cursor:], v)
	b.cursor += 8
}

// EmitWord emits a little-endian machine word.
func (b *Buffer) EmitWord(v uint64) {
	b.EmitUint64(v)
}

// EmitBytes emits raw bytes. The guard-band contract applies: one
// emission region must not exceed minimumGap bytes in total.
func (b *Buffer) EmitBytes(p []byte) {
	b.emitCheck()
	copy(b.contents[b.cursor:], p)
	b.cursor += len(p)
}

// EmitFixup registers a deferred patch at the current cursor position.
func (b *Buffer) EmitFixup(f Fixup) {
	if debugAssertions && b.fixupsProcessed {
		panic("Buffer: fixup after finalize")
	}
	b.fixups = append(b.fixups, fixupRecord{fixup: f, position: b.cursor})
}

// EmitObject reserves one word for a managed reference and registers a
// fixup that patches the resolved value in at finalize time, recording
// the slot's offset for the collector.
//
// The value must be scope-stable: the pool of pending fixups outlives the
// emission call, so a reference that is not adopted by a long-lived scope
// is an implementer error.
func (b *Buffer) EmitObject(v vm.Value) {
	if debugAssertions && !vm.IsScopeStable(v) {
		panic("Buffer.EmitObject: value is not scope-stable")
	}
	b.EmitFixup(&patchCodeWithValue{pointerOffsets: &b.pointerOffsets, value: v})
	// Reserve space for the reference.
	b.emitCheck()
	b.cursor += WordSize
}

// ---------------------------------------------------------------------------
// Capacity management
// ---------------------------------------------------------------------------

// CapacityGuard is the scoped guard acquired before emitting one
// logically atomic instruction. Acquisition grows the buffer if the
// cursor has reached the limit; Done re-checks the guard-band contract.
type CapacityGuard struct {
	buffer *Buffer
	gap    int
}

// EnsureCapacity makes room for at least one maximum-size instruction and
// returns the guard. Guards cannot nest. Every exit path of the caller
// must call Done.
func (b *Buffer) EnsureCapacity() *CapacityGuard {
	if b.cursor >= b.limit {
		b.ExtendCapacity()
	}
	g := &CapacityGuard{buffer: b}
	if debugAssertions {
		// Save the gap before emission starts, so Done can check that
		// the single generated instruction didn't overflow the limit
		// implied by the minimum gap.
		g.gap = b.gap()
		if g.gap < minimumGap {
			panic("Buffer.EnsureCapacity: gap below minimum after extension")
		}
		if b.hasEnsuredCapacity {
			panic("Buffer.EnsureCapacity: cannot nest")
		}
		b.hasEnsuredCapacity = true
	}
	return g
}

// Done releases the guard. In debug builds it verifies that the emitted
// instruction stayed within the guard band.
func (g *CapacityGuard) Done() {
	if debugAssertions {
		// Unmark the buffer, so we cannot emit after this.
		g.buffer.hasEnsuredCapacity = false
		delta := g.gap - g.buffer.gap()
		if delta > minimumGap {
			panic("Buffer: instruction exceeded the guard band")
		}
	}
}

// ExtendCapacity grows the buffer geometrically, capped at 1 MiB per
// step. Growth preserves contents byte-for-byte and every recorded
// offset; only the storage relocates.
func (b *Buffer) ExtendCapacity() {
	oldSize := b.Size()
	oldCapacity := b.Capacity()
	newCapacity := oldCapacity * 2
	if newCapacity > oldCapacity+maxCapacityStep {
		newCapacity = oldCapacity + maxCapacityStep
	}
	if newCapacity < oldCapacity {
		// Growth must monotonically increase or the process aborts; a
		// wrapped capacity would silently truncate the buffer.
		panic("Buffer.ExtendCapacity: unexpected overflow")
	}

	// Allocate the new data area and copy contents of the old one to it.
	contents := newContents(newCapacity)
	copy(contents, b.contents[:oldSize])
	b.contents = contents

	// Cursor and fixup positions are offsets from the buffer start, so
	// relocation leaves them untouched; only the limit is recomputed.
	b.limit = computeLimit(newCapacity)

	// Verify internal state.
	if b.Capacity() != newCapacity {
		panic("Buffer.ExtendCapacity: bad capacity")
	}
	if b.Size() != oldSize {
		panic("Buffer.ExtendCapacity: bad size")
	}
}

// ---------------------------------------------------------------------------
// Finalization
// ---------------------------------------------------------------------------

// processFixups replays every recorded fixup against the final region.
// Fixups target disjoint offsets, so replay order is immaterial; each
// applies exactly once.
func (b *Buffer) processFixups(region Region) {
	for _, rec := range b.fixups {
		rec.fixup.Process(region, rec.position)
	}
}

// FinalizeInstructions copies the buffer's bytes into their permanent
// region and replays the fixups there. The caller sizes the region from
// Size beforehand. The buffer is consumed: emitting afterwards is a
// contract violation.
func (b *Buffer) FinalizeInstructions(region Region) {
	// Copy the instructions from the buffer.
	region.CopyFrom(0, RegionFor(b.contents[:b.Size()]))

	// Process fixups in the instructions.
	b.processFixups(region)
	if debugAssertions {
		b.fixupsProcessed = true
	}
}

// CountPointerOffsets returns how many recorded fixups patch managed
// references, used to presize the finished code object's side tables.
func (b *Buffer) CountPointerOffsets() int {
	count := 0
	for _, rec := range b.fixups {
		if rec.fixup.IsPointerOffset() {
			count++
		}
	}
	return count
}

// PointerOffsets returns the final offsets of every patched reference
// slot. Only meaningful after FinalizeInstructions.
func (b *Buffer) PointerOffsets() []int {
	return b.pointerOffsets
}
