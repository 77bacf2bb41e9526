package vm

// ---------------------------------------------------------------------------
// ObjectPool: permanent constant/reference pool representation
// ---------------------------------------------------------------------------

// PoolEntryType discriminates what an object pool slot holds.
type PoolEntryType uint8

const (
	// TypeTaggedObject is a managed value, scanned by the collector.
	TypeTaggedObject PoolEntryType = iota

	// TypeImmediate is a raw machine word.
	TypeImmediate

	// TypeNativeFunction is the address of a native entry point called
	// directly.
	TypeNativeFunction

	// TypeNativeFunctionWrapper is the address of a native entry point
	// that requires a calling-convention wrapper.
	TypeNativeFunctionWrapper
)

// String returns the entry type name for diagnostics.
func (t PoolEntryType) String() string {
	switch t {
	case TypeTaggedObject:
		return "TaggedObject"
	case TypeImmediate:
		return "Immediate"
	case TypeNativeFunction:
		return "NativeFunction"
	case TypeNativeFunctionWrapper:
		return "NativeFunctionWrapper"
	default:
		return "?"
	}
}

// Patchability marks whether a pool slot's content may be rewritten after
// creation. Patchable slots (inline-cache targets) are exempt from
// deduplication: each request gets a fresh slot.
type Patchability uint8

const (
	NotPatchable Patchability = iota
	Patchable
)

// poolSlot is one materialized pool entry.
type poolSlot struct {
	typ       PoolEntryType
	patchable Patchability
	obj       Value
	raw       uint64
}

// ObjectPool is the permanent, indexable pool of constants and references
// that generated code addresses indirectly through a dedicated base
// pointer. It is materialized once from a PoolBuilder and not mutated
// afterwards except through the patchable-slot setters.
type ObjectPool struct {
	slots []poolSlot
}

// emptyObjectPool is the canonical shared empty pool. Builders with no
// entries all materialize to this one instance.
var emptyObjectPool = &ObjectPool{}

// EmptyObjectPool returns the canonical shared empty pool instance.
func EmptyObjectPool() *ObjectPool {
	return emptyObjectPool
}

// NewObjectPool creates a pool with n slots. All slots start as
// not-patchable tagged nil.
func NewObjectPool(n int) *ObjectPool {
	if n < 0 {
		panic("NewObjectPool: negative length")
	}
	slots := make([]poolSlot, n)
	for i := range slots {
		slots[i].obj = Nil
	}
	return &ObjectPool{slots: slots}
}

// Length returns the number of slots.
func (p *ObjectPool) Length() int {
	return len(p.slots)
}

// SetTypeAt sets the type and patchability of slot i.
func (p *ObjectPool) SetTypeAt(i int, typ PoolEntryType, patchable Patchability) {
	p.slots[i].typ = typ
	p.slots[i].patchable = patchable
}

// TypeAt returns the type of slot i.
func (p *ObjectPool) TypeAt(i int) PoolEntryType {
	return p.slots[i].typ
}

// PatchableAt returns the patchability of slot i.
func (p *ObjectPool) PatchableAt(i int) Patchability {
	return p.slots[i].patchable
}

// SetObjectAt stores a managed value into slot i.
// Panics if the slot is not a tagged-object slot.
func (p *ObjectPool) SetObjectAt(i int, v Value) {
	if p.slots[i].typ != TypeTaggedObject {
		panic("ObjectPool.SetObjectAt: not a tagged-object slot")
	}
	p.slots[i].obj = v
}

// ObjectAt returns the managed value in slot i.
// Panics if the slot is not a tagged-object slot.
func (p *ObjectPool) ObjectAt(i int) Value {
	if p.slots[i].typ != TypeTaggedObject {
		panic("ObjectPool.ObjectAt: not a tagged-object slot")
	}
	return p.slots[i].obj
}

// SetRawValueAt stores a raw word into slot i.
// Panics if the slot is a tagged-object slot.
func (p *ObjectPool) SetRawValueAt(i int, raw uint64) {
	if p.slots[i].typ == TypeTaggedObject {
		panic("ObjectPool.SetRawValueAt: tagged-object slot")
	}
	p.slots[i].raw = raw
}

// RawValueAt returns the raw word in slot i.
// Panics if the slot is a tagged-object slot.
func (p *ObjectPool) RawValueAt(i int) uint64 {
	if p.slots[i].typ == TypeTaggedObject {
		panic("ObjectPool.RawValueAt: tagged-object slot")
	}
	return p.slots[i].raw
}
