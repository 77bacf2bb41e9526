package asm

import (
	"testing"

	"github.com/arctany/ember/vm"
)

func TestFindImmediateDedups(t *testing.T) {
	pb := NewPoolBuilder(nil)

	first := pb.FindImmediate(42)
	second := pb.FindImmediate(42)
	third := pb.FindImmediate(43)

	if first != second {
		t.Errorf("equal immediates got distinct slots %d and %d", first, second)
	}
	if third == first {
		t.Error("distinct immediates share a slot")
	}
	if pb.CurrentLength() != 2 {
		t.Errorf("CurrentLength = %d, want 2", pb.CurrentLength())
	}
}

func TestPatchableNeverDedups(t *testing.T) {
	scope := vm.NewScope("pool")
	pb := NewPoolBuilder(scope)
	v := vm.NewString("target").ToValue()

	first := pb.FindValue(v, vm.Patchable)
	second := pb.FindValue(v, vm.Patchable)

	if first == second {
		t.Error("patchable entries must always get fresh slots")
	}
	if pb.CurrentLength() != 2 {
		t.Errorf("CurrentLength = %d, want 2", pb.CurrentLength())
	}
}

func TestMixedRoundTrip(t *testing.T) {
	scope := vm.NewScope("pool")
	pb := NewPoolBuilder(scope)
	s := vm.NewString("greeting").ToValue()

	i0 := pb.FindImmediate(7)
	i1 := pb.FindValue(s, vm.NotPatchable)
	i2 := pb.FindImmediate(7)

	if i0 != 0 || i1 != 1 {
		t.Errorf("slots = %d, %d, want 0, 1", i0, i1)
	}
	if i2 != i0 {
		t.Errorf("repeated immediate got slot %d, want %d", i2, i0)
	}
	if pb.CurrentLength() != 2 {
		t.Fatalf("CurrentLength = %d, want 2", pb.CurrentLength())
	}

	pool := pb.MakeObjectPool()
	if pool.Length() != 2 {
		t.Fatalf("pool length = %d, want 2", pool.Length())
	}
	if pool.TypeAt(0) != vm.TypeImmediate || pool.RawValueAt(0) != 7 {
		t.Error("slot 0 does not hold the immediate")
	}
	if pool.TypeAt(1) != vm.TypeTaggedObject || pool.ObjectAt(1) != s {
		t.Error("slot 1 does not hold the tagged value")
	}
}

func TestStructurallyEqualStringsDedup(t *testing.T) {
	scope := vm.NewScope("pool")
	pb := NewPoolBuilder(scope)

	// Two distinct instances with equal content.
	a := vm.NewString("shared").ToValue()
	b := vm.NewString("shared").ToValue()

	first := pb.FindValue(a, vm.NotPatchable)
	second := pb.FindValue(b, vm.NotPatchable)

	if first != second {
		t.Errorf("equal-content strings got slots %d and %d", first, second)
	}
}

func TestSmallIntAndFloatDedup(t *testing.T) {
	pb := NewPoolBuilder(nil)

	i0 := pb.FindValue(vm.FromSmallInt(9), vm.NotPatchable)
	i1 := pb.FindValue(vm.FromSmallInt(9), vm.NotPatchable)
	f0 := pb.FindValue(vm.FromFloat64(2.5), vm.NotPatchable)
	f1 := pb.FindValue(vm.FromFloat64(2.5), vm.NotPatchable)

	if i0 != i1 {
		t.Error("equal small integers got distinct slots")
	}
	if f0 != f1 {
		t.Error("equal floats got distinct slots")
	}
	if i0 == f0 {
		t.Error("integer and float share a slot")
	}
}

func TestEquivalenceDedup(t *testing.T) {
	scope := vm.NewScope("pool")
	pb := NewPoolBuilder(scope)

	// Two different stored values that declare the same equivalence class
	// must share one slot; the first stored value wins.
	eq := vm.NewString("class").ToValue()
	a := vm.NewString("impl-a").ToValue()
	b := vm.NewString("impl-b").ToValue()

	first := pb.FindValueWithEquivalence(a, eq)
	second := pb.FindValueWithEquivalence(b, eq)

	if first != second {
		t.Errorf("same-equivalence entries got slots %d and %d", first, second)
	}
	if pb.EntryAt(first).Object != a {
		t.Error("slot does not hold the first stored value")
	}
}

func TestNativeFunctionAndWrapperDistinct(t *testing.T) {
	pb := NewPoolBuilder(nil)
	label := NewExternalLabel("runtime_alloc", 0x1000)

	fn := pb.FindNativeFunction(label, vm.NotPatchable)
	wrapper := pb.FindNativeFunctionWrapper(label, vm.NotPatchable)

	if fn == wrapper {
		t.Error("function and wrapper entries for one address share a slot")
	}
	if again := pb.FindNativeFunction(label, vm.NotPatchable); again != fn {
		t.Errorf("repeated native function got slot %d, want %d", again, fn)
	}
}

func TestNilIsPoolable(t *testing.T) {
	pb := NewPoolBuilder(nil)

	first := pb.FindValue(vm.Nil, vm.NotPatchable)
	second := pb.FindValue(vm.Nil, vm.NotPatchable)

	if first != second {
		t.Error("nil entries got distinct slots")
	}
	pool := pb.MakeObjectPool()
	if pool.ObjectAt(first) != vm.Nil {
		t.Error("slot does not hold nil")
	}
}

func TestBuilderAdoptsValues(t *testing.T) {
	scope := vm.NewScope("pool")
	pb := NewPoolBuilder(scope)
	v := vm.NewString("unowned").ToValue()

	if vm.IsScopeStable(v) {
		t.Fatal("fresh object should not be stable yet")
	}
	pb.FindValue(v, vm.NotPatchable)
	if !vm.IsScopeStable(v) {
		t.Error("builder did not adopt the value into its scope")
	}
	if !scope.Contains(v) {
		t.Error("builder scope does not contain the value")
	}
}

func TestAddUnstableWithoutScopePanics(t *testing.T) {
	pb := NewPoolBuilder(nil)
	defer func() {
		if r := recover(); r == nil {
			t.Error("adding an unowned reference without a scope should panic")
		}
	}()
	pb.FindValue(vm.NewString("unowned").ToValue(), vm.NotPatchable)
}

func TestReset(t *testing.T) {
	scope := vm.NewScope("pool")
	pb := NewPoolBuilder(scope)
	pb.FindImmediate(1)
	pb.FindValue(vm.NewString("x").ToValue(), vm.NotPatchable)

	pb.Reset()

	if pb.CurrentLength() != 0 {
		t.Errorf("CurrentLength after Reset = %d, want 0", pb.CurrentLength())
	}
	// A reset builder behaves like a fresh one.
	if idx := pb.FindImmediate(1); idx != 0 {
		t.Errorf("first slot after Reset = %d, want 0", idx)
	}
}

func TestResetAfterMaterializeAllowsBuilding(t *testing.T) {
	pb := NewPoolBuilder(nil)
	pb.FindImmediate(5)
	pb.MakeObjectPool()

	pb.Reset()
	if idx := pb.FindImmediate(6); idx != 0 {
		t.Errorf("slot after Reset = %d, want 0", idx)
	}
}

func TestEmptyPoolIsCanonical(t *testing.T) {
	a := NewPoolBuilder(nil).MakeObjectPool()
	b := NewPoolBuilder(nil).MakeObjectPool()

	if a != b {
		t.Error("empty builders produced distinct pools")
	}
	if a != vm.EmptyObjectPool() {
		t.Error("empty builder did not return the canonical empty pool")
	}
	if a.Length() != 0 {
		t.Errorf("empty pool length = %d, want 0", a.Length())
	}
}

func TestMutationAfterMaterializePanics(t *testing.T) {
	pb := NewPoolBuilder(nil)
	pb.FindImmediate(1)
	pb.MakeObjectPool()

	defer func() {
		if r := recover(); r == nil {
			t.Error("mutation after MakeObjectPool should panic")
		}
	}()
	pb.FindImmediate(2)
}

func TestInitializeFrom(t *testing.T) {
	scope := vm.NewScope("pool")
	pb := NewPoolBuilder(scope)
	s := vm.NewString("carried").ToValue()
	pb.FindValue(s, vm.NotPatchable)
	pb.FindImmediate(0xFEED)
	pb.FindNativeFunction(NewExternalLabel("stub", 0x2000), vm.Patchable)
	pool := pb.MakeObjectPool()

	fresh := NewPoolBuilder(scope)
	fresh.InitializeFrom(pool)

	if fresh.CurrentLength() != pool.Length() {
		t.Fatalf("CurrentLength = %d, want %d", fresh.CurrentLength(), pool.Length())
	}
	for i := 0; i < pool.Length(); i++ {
		e := fresh.EntryAt(i)
		if e.Type != pool.TypeAt(i) {
			t.Errorf("entry %d type = %v, want %v", i, e.Type, pool.TypeAt(i))
		}
		if e.Patchability != pool.PatchableAt(i) {
			t.Errorf("entry %d patchability mismatch", i)
		}
	}
	if fresh.EntryAt(0).Object != s {
		t.Error("tagged value not carried over")
	}
	if fresh.EntryAt(1).RawValue != 0xFEED {
		t.Error("raw word not carried over")
	}

	// Appends continue past the reconstructed entries, reusing them.
	if idx := fresh.FindImmediate(0xFEED); idx != 1 {
		t.Errorf("reconstructed immediate not deduplicated, slot %d", idx)
	}
}

func TestInitializeFromNonEmptyPanics(t *testing.T) {
	pb := NewPoolBuilder(nil)
	pb.FindImmediate(1)
	defer func() {
		if r := recover(); r == nil {
			t.Error("InitializeFrom on a non-empty builder should panic")
		}
	}()
	pb.InitializeFrom(vm.EmptyObjectPool())
}
