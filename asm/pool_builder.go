package asm

import (
	"github.com/arctany/ember/vm"
)

// ---------------------------------------------------------------------------
// PoolBuilder: deduplicating object pool accumulation
// ---------------------------------------------------------------------------

// PoolEntry is one prospective object pool slot. TaggedObject entries
// carry a managed value and an optional equivalence value used only for
// dedup comparison, never stored; the other types carry a raw word.
type PoolEntry struct {
	Type         vm.PoolEntryType
	Patchability vm.Patchability
	Object       vm.Value
	Equivalence  vm.Value
	RawValue     uint64
}

// NewTaggedEntry creates a tagged-object entry.
func NewTaggedEntry(v vm.Value, patchability vm.Patchability) PoolEntry {
	return PoolEntry{
		Type:         vm.TypeTaggedObject,
		Patchability: patchability,
		Object:       v,
		Equivalence:  vm.Empty,
	}
}

// NewTaggedEntryWithEquivalence creates a tagged-object entry that
// deduplicates on the equivalence value instead of the stored value,
// letting two interchangeable values share one slot.
func NewTaggedEntryWithEquivalence(v, equivalence vm.Value) PoolEntry {
	return PoolEntry{
		Type:         vm.TypeTaggedObject,
		Patchability: vm.NotPatchable,
		Object:       v,
		Equivalence:  equivalence,
	}
}

// NewRawEntry creates an entry carrying a raw word of the given type.
func NewRawEntry(raw uint64, typ vm.PoolEntryType, patchability vm.Patchability) PoolEntry {
	if typ == vm.TypeTaggedObject {
		panic("NewRawEntry: tagged-object entries carry values, not words")
	}
	return PoolEntry{
		Type:         typ,
		Patchability: patchability,
		Object:       vm.Empty,
		Equivalence:  vm.Empty,
		RawValue:     raw,
	}
}

// PoolBuilder accumulates a deduplicated sequence of pool entries during
// one emission pass and materializes them into a permanent ObjectPool.
//
// The builder has two states: Building (accepts Add/Find/Reset) and
// Materialized (after MakeObjectPool; further mutation is a contract
// violation). Reset returns either state to Building.
type PoolBuilder struct {
	scope        *vm.Scope
	entries      []PoolEntry
	index        map[poolKey][]int
	materialized bool
}

// NewPoolBuilder creates an empty builder. When scope is non-nil, every
// tagged value added to the pool is first adopted into it, so the entry's
// referenced value survives as long as the pool regardless of where the
// caller's reference lived.
func NewPoolBuilder(scope *vm.Scope) *PoolBuilder {
	return &PoolBuilder{
		scope: scope,
		index: make(map[poolKey][]int),
	}
}

// CurrentLength returns the number of accumulated entries.
func (pb *PoolBuilder) CurrentLength() int {
	return len(pb.entries)
}

// EntryAt returns the accumulated entry at index i.
func (pb *PoolBuilder) EntryAt(i int) PoolEntry {
	return pb.entries[i]
}

// mutationCheck enforces the Building-state contract in debug builds.
func (pb *PoolBuilder) mutationCheck() {
	if debugAssertions && pb.materialized {
		panic("PoolBuilder: mutation after MakeObjectPool")
	}
}

// AddObject unconditionally appends the entry and returns its index.
// NotPatchable entries also enter the dedup index for fast lookup; the
// index never reorders the pool, it only accelerates FindObject.
func (pb *PoolBuilder) AddObject(entry PoolEntry) int {
	pb.mutationCheck()
	if entry.Type == vm.TypeTaggedObject {
		if debugAssertions && pb.scope == nil {
			// Without a scope to adopt into, the caller must supply
			// already-stable references.
			if !vm.IsScopeStable(entry.Object) {
				panic("PoolBuilder.AddObject: value is not scope-stable")
			}
			if !entry.Equivalence.IsEmpty() && !vm.IsScopeStable(entry.Equivalence) {
				panic("PoolBuilder.AddObject: equivalence is not scope-stable")
			}
		}
		// If the owner of the pool builder specified a specific scope
		// we should use, adopt the references into it.
		if pb.scope != nil {
			entry.Object = pb.scope.Adopt(entry.Object)
			if !entry.Equivalence.IsEmpty() {
				entry.Equivalence = pb.scope.Adopt(entry.Equivalence)
			}
		}
	}

	pb.entries = append(pb.entries, entry)
	idx := len(pb.entries) - 1
	if entry.Patchability == vm.NotPatchable {
		// The entry isn't patchable. Record the index for fast lookup.
		k := keyFor(entry)
		pb.index[k] = append(pb.index[k], idx)
	}
	return idx
}

// FindObject returns the index of an existing equal NotPatchable entry,
// or appends the entry. Patchable entries are always appended fresh:
// their content may be rewritten independently after creation.
func (pb *PoolBuilder) FindObject(entry PoolEntry) int {
	if entry.Patchability == vm.NotPatchable {
		for _, idx := range pb.index[keyFor(entry)] {
			if entryEqual(pb.entries[idx], entry) {
				return idx
			}
		}
	}
	return pb.AddObject(entry)
}

// FindValue looks up or appends a tagged value with the given
// patchability.
func (pb *PoolBuilder) FindValue(v vm.Value, patchability vm.Patchability) int {
	return pb.FindObject(NewTaggedEntry(v, patchability))
}

// FindValueWithEquivalence looks up or appends a tagged value,
// deduplicating on the equivalence value's identity.
func (pb *PoolBuilder) FindValueWithEquivalence(v, equivalence vm.Value) int {
	return pb.FindObject(NewTaggedEntryWithEquivalence(v, equivalence))
}

// FindImmediate looks up or appends a raw machine word.
func (pb *PoolBuilder) FindImmediate(imm uint64) int {
	return pb.FindObject(NewRawEntry(imm, vm.TypeImmediate, vm.NotPatchable))
}

// FindNativeFunction looks up or appends a native entry point address.
func (pb *PoolBuilder) FindNativeFunction(label *ExternalLabel, patchability vm.Patchability) int {
	return pb.FindObject(NewRawEntry(label.Address(), vm.TypeNativeFunction, patchability))
}

// FindNativeFunctionWrapper looks up or appends a native entry point
// address that is called through a calling-convention wrapper.
func (pb *PoolBuilder) FindNativeFunctionWrapper(label *ExternalLabel, patchability vm.Patchability) int {
	return pb.FindObject(NewRawEntry(label.Address(), vm.TypeNativeFunctionWrapper, patchability))
}

// Reset nulls out every accumulated reference, empties the pool list and
// dedup index, and returns the builder to the Building state. Used for
// rollback after an aborted emission, so the builder retains nothing.
func (pb *PoolBuilder) Reset() {
	// Null out the references we've accumulated.
	for i := range pb.entries {
		if pb.entries[i].Type == vm.TypeTaggedObject {
			pb.entries[i].Object = vm.Nil
			pb.entries[i].Equivalence = vm.Nil
		}
	}

	pb.entries = pb.entries[:0]
	pb.index = make(map[poolKey][]int)
	pb.materialized = false
}

// InitializeFrom reconstructs the builder's entries from an already
// materialized pool, for continuing to append to a pool produced by an
// earlier emission pass. The builder must start empty.
func (pb *PoolBuilder) InitializeFrom(other *vm.ObjectPool) {
	if len(pb.entries) != 0 {
		panic("PoolBuilder.InitializeFrom: builder not empty")
	}

	for i := 0; i < other.Length(); i++ {
		typ := other.TypeAt(i)
		patchable := other.PatchableAt(i)
		switch typ {
		case vm.TypeTaggedObject:
			pb.AddObject(NewTaggedEntry(other.ObjectAt(i), patchable))
		case vm.TypeImmediate, vm.TypeNativeFunction, vm.TypeNativeFunctionWrapper:
			pb.AddObject(NewRawEntry(other.RawValueAt(i), typ, patchable))
		default:
			// The set of entry types is closed; anything else is
			// corruption upstream.
			panic("PoolBuilder.InitializeFrom: unreachable entry type")
		}
	}

	if pb.CurrentLength() != other.Length() {
		panic("PoolBuilder.InitializeFrom: length mismatch")
	}
}

// MakeObjectPool materializes the accumulated entries into the permanent
// pool representation and moves the builder to the Materialized state.
// An empty builder yields the canonical shared empty pool.
func (pb *PoolBuilder) MakeObjectPool() *vm.ObjectPool {
	pb.mutationCheck()
	pb.materialized = true

	n := len(pb.entries)
	if n == 0 {
		return vm.EmptyObjectPool()
	}
	result := vm.NewObjectPool(n)
	for i, e := range pb.entries {
		result.SetTypeAt(i, e.Type, e.Patchability)
		if e.Type == vm.TypeTaggedObject {
			result.SetObjectAt(i, e.Object)
		} else {
			result.SetRawValueAt(i, e.RawValue)
		}
	}
	return result
}
