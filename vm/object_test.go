package vm

import (
	"testing"
)

func TestObjectKinds(t *testing.T) {
	tests := []struct {
		obj  *Object
		kind ObjectKind
		name string
	}{
		{NewString("s"), KindString, "String"},
		{NewBignum([]uint64{1, 2}), KindBignum, "Bignum"},
		{NewCode(0x1000), KindCode, "Code"},
		{NewFunction("run", 2), KindFunction, "Function"},
		{NewField("count"), KindField, "Field"},
		{NewPlain(99), KindPlain, "Plain"},
	}
	for _, tt := range tests {
		if tt.obj.Kind() != tt.kind {
			t.Errorf("%s: Kind = %v, want %v", tt.name, tt.obj.Kind(), tt.kind)
		}
		if tt.obj.Kind().String() != tt.name {
			t.Errorf("Kind.String() = %q, want %q", tt.obj.Kind().String(), tt.name)
		}
	}
}

func TestAccessors(t *testing.T) {
	if got := NewString("hello").StringValue(); got != "hello" {
		t.Errorf("StringValue = %q, want %q", got, "hello")
	}
	if got := NewCode(0x4000).PayloadStart(); got != 0x4000 {
		t.Errorf("PayloadStart = %#x, want 0x4000", got)
	}
	fn := NewFunction("apply", 3)
	if fn.FunctionName() != "apply" || fn.FunctionArity() != 3 {
		t.Errorf("function accessors = %q/%d, want apply/3", fn.FunctionName(), fn.FunctionArity())
	}
	if got := NewField("size").FieldName(); got != "size" {
		t.Errorf("FieldName = %q, want %q", got, "size")
	}
	if got := NewPlain(7).ClassID(); got != 7 {
		t.Errorf("ClassID = %d, want 7", got)
	}
}

func TestBignumWordsCopied(t *testing.T) {
	words := []uint64{1, 2, 3}
	obj := NewBignum(words)
	words[0] = 99
	if obj.BignumWords()[0] != 1 {
		t.Error("NewBignum should copy its digits")
	}
}

func TestAccessorPanicsOnWrongKind(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("StringValue on a code object should panic")
		}
	}()
	NewCode(0x1000).StringValue()
}

// ---------------------------------------------------------------------------
// Content hashing
// ---------------------------------------------------------------------------

func TestCanonicalHashStrings(t *testing.T) {
	a := NewString("constant")
	b := NewString("constant")
	c := NewString("different")
	if a.CanonicalHash() != b.CanonicalHash() {
		t.Error("structurally equal strings must hash equal")
	}
	if a.CanonicalHash() == c.CanonicalHash() {
		t.Error("different strings should hash differently")
	}
}

func TestCanonicalHashBignums(t *testing.T) {
	a := NewBignum([]uint64{1, 2})
	b := NewBignum([]uint64{1, 2})
	c := NewBignum([]uint64{2, 1})
	if a.CanonicalHash() != b.CanonicalHash() {
		t.Error("equal bignums must hash equal")
	}
	if a.CanonicalHash() == c.CanonicalHash() {
		t.Error("different bignums should hash differently")
	}
}

func TestStructuralHash(t *testing.T) {
	a := NewFunction("run", 2)
	b := NewFunction("run", 2)
	c := NewFunction("run", 3)
	if a.StructuralHash() != b.StructuralHash() {
		t.Error("structurally equal functions must hash equal")
	}
	if a.StructuralHash() == c.StructuralHash() {
		t.Error("arity must feed the structural hash")
	}
}

func TestNameHash(t *testing.T) {
	if NewField("x").NameHash() != NewField("x").NameHash() {
		t.Error("equal field names must hash equal")
	}
	if NewField("x").NameHash() == NewField("y").NameHash() {
		t.Error("different field names should hash differently")
	}
}

func TestHashTiersDoNotCollide(t *testing.T) {
	// A string "x" and a field named "x" hash over different framings.
	if NewString("x").CanonicalHash() == NewField("x").NameHash() {
		t.Error("string content hash collided with field name hash")
	}
}

func TestCanonicalHashPanicsOnWrongKind(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("CanonicalHash on a function should panic")
		}
	}()
	NewFunction("f", 0).CanonicalHash()
}
