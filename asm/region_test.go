package asm

import (
	"testing"

	"github.com/arctany/ember/vm"
)

func TestRegionLoadStore(t *testing.T) {
	r := NewRegion(3 * WordSize)
	r.Store64(0, 0x0102030405060708)
	r.Store64(WordSize, ^uint64(0))

	if got := r.Load64(0); got != 0x0102030405060708 {
		t.Errorf("Load64(0) = %#x", got)
	}
	if got := r.Load64(WordSize); got != ^uint64(0) {
		t.Errorf("Load64(%d) = %#x", WordSize, got)
	}
	// Store is little-endian.
	if r.Bytes()[0] != 0x08 {
		t.Errorf("first byte = %#x, want 0x08", r.Bytes()[0])
	}
}

func TestRegionValueRoundTrip(t *testing.T) {
	r := NewRegion(WordSize)
	v := vm.FromSmallInt(-17)
	r.StoreValue(0, v)
	if got := r.LoadValue(0); got != v {
		t.Errorf("LoadValue = %v, want %v", got, v)
	}
}

func TestRegionCopyFrom(t *testing.T) {
	dst := NewRegion(8)
	src := RegionFor([]byte{1, 2, 3})
	dst.CopyFrom(4, src)
	if dst.Bytes()[4] != 1 || dst.Bytes()[6] != 3 {
		t.Errorf("CopyFrom wrote %v", dst.Bytes())
	}
}

func TestRegionCopyFromTooLargePanics(t *testing.T) {
	dst := NewRegion(2)
	defer func() {
		if r := recover(); r == nil {
			t.Error("oversized CopyFrom should panic")
		}
	}()
	dst.CopyFrom(0, RegionFor([]byte{1, 2, 3}))
}
