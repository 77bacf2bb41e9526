package asm

import (
	"github.com/arctany/ember/vm"
)

// keyKind tags the variants of a dedup key. Each reference category the
// runtime proves stable gets its own derivation; the set is closed and a
// reference kind outside it is treated as corruption, never guessed at.
type keyKind uint8

const (
	keyRawWord keyKind = iota
	keyNullSentinel
	keyContentHash
	keyStableAddress
	keyStructuralHash
	keyNameHash
	keyClassDiscriminator
)

// nullKeySentinel is the fixed key word for the null reference.
const nullKeySentinel = 2011

// poolKey is the normalized dedup key derived from a pool entry. It only
// accelerates lookup: hash-equal entries are confirmed with entryEqual
// before a slot is reused.
type poolKey struct {
	kind keyKind
	word uint64
}

// dedupValue returns the value an entry deduplicates on: the equivalence
// value when the caller supplied one, the entry's own value otherwise.
func dedupValue(e PoolEntry) vm.Value {
	if !e.Equivalence.IsEmpty() {
		return e.Equivalence
	}
	return e.Object
}

// keyFor derives the dedup key for a pool entry.
//
// Content hashes are used where structural equality is wanted (repeated
// literals fold to one slot); addresses only where the referenced storage
// is proven not to move (installed code); identity everywhere else.
func keyFor(e PoolEntry) poolKey {
	if e.Type != vm.TypeTaggedObject {
		return poolKey{kind: keyRawWord, word: e.RawValue}
	}

	v := dedupValue(e)
	if v.IsNil() {
		return poolKey{kind: keyNullSentinel, word: nullKeySentinel}
	}
	if v.IsNumber() {
		// The NaN-boxed bits are already a canonical encoding of the
		// number's content.
		return poolKey{kind: keyContentHash, word: uint64(v)}
	}
	if !v.IsObject() {
		// Remaining specials (true, false) dedup by identity.
		return poolKey{kind: keyClassDiscriminator, word: uint64(v)}
	}

	obj := vm.MustObjectFromValue(v)
	switch obj.Kind() {
	case vm.KindString, vm.KindBignum:
		return poolKey{kind: keyContentHash, word: obj.CanonicalHash()}
	case vm.KindCode:
		// Installed instructions don't move during compaction.
		return poolKey{kind: keyStableAddress, word: uint64(obj.PayloadStart())}
	case vm.KindFunction:
		return poolKey{kind: keyStructuralHash, word: obj.StructuralHash()}
	case vm.KindField:
		return poolKey{kind: keyNameHash, word: obj.NameHash()}
	case vm.KindPlain:
		return poolKey{kind: keyClassDiscriminator, word: uint64(obj.ClassID())}
	default:
		panic("asm: unreachable pool entry object kind")
	}
}

// valueEqual reports whether two dedup values denote the same pool slot
// content: bit-identical values always, structural equality for string
// and bignum constants, stable identity for code, structural identity
// for function and field descriptors.
func valueEqual(a, b vm.Value) bool {
	if a == b {
		return true
	}
	if !a.IsObject() || !b.IsObject() {
		return false
	}
	oa := vm.MustObjectFromValue(a)
	ob := vm.MustObjectFromValue(b)
	if oa.Kind() != ob.Kind() {
		return false
	}
	switch oa.Kind() {
	case vm.KindString:
		return oa.StringValue() == ob.StringValue()
	case vm.KindBignum:
		wa, wb := oa.BignumWords(), ob.BignumWords()
		if len(wa) != len(wb) {
			return false
		}
		for i := range wa {
			if wa[i] != wb[i] {
				return false
			}
		}
		return true
	case vm.KindCode:
		return oa.PayloadStart() == ob.PayloadStart()
	case vm.KindFunction:
		return oa.FunctionName() == ob.FunctionName() &&
			oa.FunctionArity() == ob.FunctionArity()
	case vm.KindField:
		return oa.FieldName() == ob.FieldName()
	default:
		// Plain objects dedup by identity only, which the bit
		// comparison above already covered.
		return false
	}
}

// entryEqual confirms a dedup index hit: same slot type and patchability,
// and equal content.
func entryEqual(a, b PoolEntry) bool {
	if a.Type != b.Type || a.Patchability != b.Patchability {
		return false
	}
	if a.Type != vm.TypeTaggedObject {
		return a.RawValue == b.RawValue
	}
	return valueEqual(dedupValue(a), dedupValue(b))
}
