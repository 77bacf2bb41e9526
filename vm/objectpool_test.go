package vm

import (
	"testing"
)

func TestObjectPoolSlots(t *testing.T) {
	pool := NewObjectPool(3)
	if pool.Length() != 3 {
		t.Fatalf("Length = %d, want 3", pool.Length())
	}

	pool.SetTypeAt(0, TypeTaggedObject, NotPatchable)
	pool.SetObjectAt(0, FromSmallInt(7))
	pool.SetTypeAt(1, TypeImmediate, NotPatchable)
	pool.SetRawValueAt(1, 0xDEAD)
	pool.SetTypeAt(2, TypeNativeFunction, Patchable)
	pool.SetRawValueAt(2, 0x4000)

	if pool.TypeAt(0) != TypeTaggedObject || pool.ObjectAt(0) != FromSmallInt(7) {
		t.Error("slot 0 wrong")
	}
	if pool.TypeAt(1) != TypeImmediate || pool.RawValueAt(1) != 0xDEAD {
		t.Error("slot 1 wrong")
	}
	if pool.PatchableAt(2) != Patchable {
		t.Error("slot 2 patchability wrong")
	}
	if pool.PatchableAt(0) != NotPatchable {
		t.Error("slot 0 patchability wrong")
	}
}

func TestObjectPoolTypeMismatchPanics(t *testing.T) {
	pool := NewObjectPool(1)
	pool.SetTypeAt(0, TypeImmediate, NotPatchable)

	defer func() {
		if r := recover(); r == nil {
			t.Error("SetObjectAt on an immediate slot should panic")
		}
	}()
	pool.SetObjectAt(0, Nil)
}

func TestEmptyObjectPoolSingleton(t *testing.T) {
	if EmptyObjectPool() != EmptyObjectPool() {
		t.Error("EmptyObjectPool must return one shared instance")
	}
	if EmptyObjectPool().Length() != 0 {
		t.Error("empty pool must have length 0")
	}
}

func TestNewObjectPoolNegativePanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewObjectPool(-1) should panic")
		}
	}()
	NewObjectPool(-1)
}

func TestPoolEntryTypeString(t *testing.T) {
	tests := []struct {
		typ  PoolEntryType
		name string
	}{
		{TypeTaggedObject, "TaggedObject"},
		{TypeImmediate, "Immediate"},
		{TypeNativeFunction, "NativeFunction"},
		{TypeNativeFunctionWrapper, "NativeFunctionWrapper"},
	}
	for _, tt := range tests {
		if tt.typ.String() != tt.name {
			t.Errorf("String() = %q, want %q", tt.typ.String(), tt.name)
		}
	}
}
