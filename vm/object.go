package vm

import (
	"crypto/sha256"
	"encoding/binary"
	"unsafe"
)

// ObjectKind discriminates the heap object categories the runtime knows
// about. The set is closed: code that switches on a kind treats any other
// value as corruption.
type ObjectKind uint8

const (
	// KindPlain is an ordinary instance, identified only by its class.
	KindPlain ObjectKind = iota

	// KindString is an immutable string constant.
	KindString

	// KindBignum is an integer too large for the SmallInt range,
	// stored as little-endian 64-bit digits.
	KindBignum

	// KindCode is a reference to installed generated code. Installed
	// code never moves, so its payload start address is stable.
	KindCode

	// KindFunction is a function descriptor (name + arity).
	KindFunction

	// KindField is a field descriptor, identified by its name.
	KindField
)

// String returns the kind name for diagnostics.
func (k ObjectKind) String() string {
	switch k {
	case KindPlain:
		return "Plain"
	case KindString:
		return "String"
	case KindBignum:
		return "Bignum"
	case KindCode:
		return "Code"
	case KindFunction:
		return "Function"
	case KindField:
		return "Field"
	default:
		return "?"
	}
}

// Object represents a heap-allocated managed object.
//
// Only the fields for the object's kind are meaningful; the rest stay at
// their zero values. The owner pointer is set when a Scope adopts the
// object and is what makes a reference safe to retain past the caller's
// frame (see Scope).
type Object struct {
	kind    ObjectKind
	classID uint32
	owner   *Scope

	str          string   // KindString, KindField
	words        []uint64 // KindBignum digits, little-endian
	payloadStart uintptr  // KindCode
	fnName       string   // KindFunction
	fnArity      int      // KindFunction
}

// ---------------------------------------------------------------------------
// Object creation
// ---------------------------------------------------------------------------

// Class IDs for the built-in kinds. Plain objects carry their own.
const (
	classIDString   uint32 = 1
	classIDBignum   uint32 = 2
	classIDCode     uint32 = 3
	classIDFunction uint32 = 4
	classIDField    uint32 = 5
)

// NewString creates a string constant object.
//
// The constructors below are marked go:noinline so the returned object is
// always heap-allocated: ToValue hides the pointer from escape analysis
// behind a uintptr, and an inlined constructor would let the compiler
// stack-allocate the object and leave NaN-boxed references dangling.
//
//go:noinline
func NewString(s string) *Object {
	return &Object{kind: KindString, classID: classIDString, str: s}
}

// NewBignum creates a big integer object from little-endian 64-bit digits.
//
//go:noinline
func NewBignum(words []uint64) *Object {
	cp := make([]uint64, len(words))
	copy(cp, words)
	return &Object{kind: KindBignum, classID: classIDBignum, words: cp}
}

// NewCode creates a reference to installed code starting at payloadStart.
// The address must be the final installed location: it is used as a stable
// identity for pool deduplication.
//
//go:noinline
func NewCode(payloadStart uintptr) *Object {
	return &Object{kind: KindCode, classID: classIDCode, payloadStart: payloadStart}
}

// NewFunction creates a function descriptor object.
//
//go:noinline
func NewFunction(name string, arity int) *Object {
	return &Object{kind: KindFunction, classID: classIDFunction, fnName: name, fnArity: arity}
}

// NewField creates a field descriptor object.
//
//go:noinline
func NewField(name string) *Object {
	return &Object{kind: KindField, classID: classIDField, str: name}
}

// NewPlain creates an ordinary object of the given class.
//
//go:noinline
func NewPlain(classID uint32) *Object {
	return &Object{kind: KindPlain, classID: classID}
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Kind returns the object's kind.
func (obj *Object) Kind() ObjectKind {
	return obj.kind
}

// ClassID returns the object's class discriminator.
func (obj *Object) ClassID() uint32 {
	return obj.classID
}

// StringValue returns the string payload.
// Panics if the object is not a string.
func (obj *Object) StringValue() string {
	if obj.kind != KindString {
		panic("Object.StringValue: not a string")
	}
	return obj.str
}

// BignumWords returns the big integer digits.
// Panics if the object is not a bignum.
func (obj *Object) BignumWords() []uint64 {
	if obj.kind != KindBignum {
		panic("Object.BignumWords: not a bignum")
	}
	return obj.words
}

// PayloadStart returns the installed code address.
// Panics if the object is not a code reference.
func (obj *Object) PayloadStart() uintptr {
	if obj.kind != KindCode {
		panic("Object.PayloadStart: not a code reference")
	}
	return obj.payloadStart
}

// FunctionName returns the function descriptor's name.
// Panics if the object is not a function.
func (obj *Object) FunctionName() string {
	if obj.kind != KindFunction {
		panic("Object.FunctionName: not a function")
	}
	return obj.fnName
}

// FunctionArity returns the function descriptor's arity.
// Panics if the object is not a function.
func (obj *Object) FunctionArity() int {
	if obj.kind != KindFunction {
		panic("Object.FunctionArity: not a function")
	}
	return obj.fnArity
}

// FieldName returns the field descriptor's name.
// Panics if the object is not a field.
func (obj *Object) FieldName() string {
	if obj.kind != KindField {
		panic("Object.FieldName: not a field")
	}
	return obj.str
}

// ---------------------------------------------------------------------------
// Content hashing
// ---------------------------------------------------------------------------

// hash64 computes a 64-bit digest of the given framed bytes.
func hash64(buf []byte) uint64 {
	sum := sha256.Sum256(buf)
	return binary.BigEndian.Uint64(sum[:8])
}

// frameString appends a length-prefixed string to buf.
func frameString(buf []byte, s string) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, s...)
	return buf
}

// CanonicalHash returns a content hash for string and bignum objects, so
// structurally equal constants collapse to one pool slot even when they
// are distinct instances.
// Panics for other kinds.
func (obj *Object) CanonicalHash() uint64 {
	switch obj.kind {
	case KindString:
		var buf []byte
		buf = append(buf, byte(KindString))
		buf = frameString(buf, obj.str)
		return hash64(buf)
	case KindBignum:
		buf := make([]byte, 0, 1+4+8*len(obj.words))
		buf = append(buf, byte(KindBignum))
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(obj.words)))
		buf = append(buf, lenBuf[:]...)
		for _, w := range obj.words {
			var wBuf [8]byte
			binary.LittleEndian.PutUint64(wBuf[:], w)
			buf = append(buf, wBuf[:]...)
		}
		return hash64(buf)
	default:
		panic("Object.CanonicalHash: kind has no canonical hash")
	}
}

// StructuralHash returns a hash over a function descriptor's structure.
// Panics if the object is not a function.
func (obj *Object) StructuralHash() uint64 {
	if obj.kind != KindFunction {
		panic("Object.StructuralHash: not a function")
	}
	var buf []byte
	buf = append(buf, byte(KindFunction))
	buf = frameString(buf, obj.fnName)
	var arityBuf [4]byte
	binary.BigEndian.PutUint32(arityBuf[:], uint32(obj.fnArity))
	buf = append(buf, arityBuf[:]...)
	return hash64(buf)
}

// NameHash returns a hash over a field descriptor's name.
// Panics if the object is not a field.
func (obj *Object) NameHash() uint64 {
	if obj.kind != KindField {
		panic("Object.NameHash: not a field")
	}
	var buf []byte
	buf = append(buf, byte(KindField))
	buf = frameString(buf, obj.str)
	return hash64(buf)
}

// ---------------------------------------------------------------------------
// Value conversion helpers
// ---------------------------------------------------------------------------

// ToValue converts an Object pointer to a NaN-boxed Value.
func (obj *Object) ToValue() Value {
	return FromObjectPtr(unsafe.Pointer(obj))
}

// ObjectFromValue extracts an Object pointer from a NaN-boxed Value.
// Returns nil if the value is not an object.
func ObjectFromValue(v Value) *Object {
	if !v.IsObject() {
		return nil
	}
	return (*Object)(v.ObjectPtr())
}

// MustObjectFromValue extracts an Object pointer from a NaN-boxed Value.
// Panics if the value is not an object.
func MustObjectFromValue(v Value) *Object {
	if !v.IsObject() {
		panic("MustObjectFromValue: not an object")
	}
	return (*Object)(v.ObjectPtr())
}
