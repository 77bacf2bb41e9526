// Package blob holds the finished output of one code-generation unit:
// the finalized instruction bytes, the reference-scanning offsets, the
// materialized object pool, and the recorded comments, content-addressed
// by a SHA-256 hash.
package blob

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/arctany/ember/asm"
	"github.com/arctany/ember/vm"
)

// PoolEntry is the portable form of one object pool slot.
type PoolEntry struct {
	Type      uint8         `cbor:"type"`
	Patchable bool          `cbor:"patchable,omitempty"`
	Raw       uint64        `cbor:"raw,omitempty"`
	Value     *EncodedValue `cbor:"value,omitempty"`
}

// Comment is a recorded code annotation.
type Comment struct {
	PCOffset int    `cbor:"pc"`
	Text     string `cbor:"text"`
}

// Artifact is one finalized code-generation unit.
//
// The hash covers the semantic content: instructions, pointer offsets,
// and pool. ID, name, and comments are metadata and do not affect it.
type Artifact struct {
	ID             string      `cbor:"id"`
	Name           string      `cbor:"name"`
	Instructions   []byte      `cbor:"instructions"`
	PointerOffsets []int       `cbor:"pointer_offsets,omitempty"`
	Pool           []PoolEntry `cbor:"pool,omitempty"`
	Comments       []Comment   `cbor:"comments,omitempty"`
	Hash           []byte      `cbor:"hash"`
}

// Build finalizes the assembler's buffer into a fresh region,
// materializes its pool, and captures everything as an artifact. The
// assembler is consumed: its buffer and builder accept no further
// emission. With VerifyCodePointer set, the artifact is re-verified
// against its hash before being returned.
func Build(name string, a *asm.Assembler) (*Artifact, error) {
	buf := a.Buffer()
	region := asm.NewRegion(buf.Size())
	buf.FinalizeInstructions(region)

	pool := a.Pool().MakeObjectPool()
	encoded, err := encodePool(pool)
	if err != nil {
		return nil, fmt.Errorf("blob: build %s: %w", name, err)
	}

	var comments []Comment
	for _, c := range a.CodeComments() {
		comments = append(comments, Comment{PCOffset: c.PCOffset, Text: c.Text})
	}

	art := &Artifact{
		ID:             uuid.NewString(),
		Name:           name,
		Instructions:   region.Bytes(),
		PointerOffsets: buf.PointerOffsets(),
		Pool:           encoded,
		Comments:       comments,
	}
	art.Hash = art.computeHash()

	if a.Options().VerifyCodePointer {
		if err := art.Verify(); err != nil {
			return nil, fmt.Errorf("blob: build %s: %w", name, err)
		}
	}
	return art, nil
}

// encodePool converts a materialized pool into its portable form.
func encodePool(pool *vm.ObjectPool) ([]PoolEntry, error) {
	if pool.Length() == 0 {
		return nil, nil
	}
	entries := make([]PoolEntry, pool.Length())
	for i := 0; i < pool.Length(); i++ {
		e := PoolEntry{
			Type:      uint8(pool.TypeAt(i)),
			Patchable: pool.PatchableAt(i) == vm.Patchable,
		}
		if pool.TypeAt(i) == vm.TypeTaggedObject {
			ev, err := EncodeValue(pool.ObjectAt(i))
			if err != nil {
				return nil, fmt.Errorf("pool slot %d: %w", i, err)
			}
			e.Value = &ev
		} else {
			e.Raw = pool.RawValueAt(i)
		}
		entries[i] = e
	}
	return entries, nil
}

// DecodePool rebuilds a permanent object pool from an artifact, adopting
// tagged values into scope. The result can seed a new builder through
// InitializeFrom when a later pass continues appending.
func (a *Artifact) DecodePool(scope *vm.Scope) (*vm.ObjectPool, error) {
	if len(a.Pool) == 0 {
		return vm.EmptyObjectPool(), nil
	}
	pool := vm.NewObjectPool(len(a.Pool))
	for i, e := range a.Pool {
		typ := vm.PoolEntryType(e.Type)
		patchable := vm.NotPatchable
		if e.Patchable {
			patchable = vm.Patchable
		}
		pool.SetTypeAt(i, typ, patchable)
		switch typ {
		case vm.TypeTaggedObject:
			if e.Value == nil {
				return nil, fmt.Errorf("blob: pool slot %d: missing value", i)
			}
			v, err := DecodeValue(*e.Value, scope)
			if err != nil {
				return nil, fmt.Errorf("blob: pool slot %d: %w", i, err)
			}
			pool.SetObjectAt(i, v)
		case vm.TypeImmediate, vm.TypeNativeFunction, vm.TypeNativeFunctionWrapper:
			pool.SetRawValueAt(i, e.Raw)
		default:
			return nil, fmt.Errorf("blob: pool slot %d: unknown type %d", i, e.Type)
		}
	}
	return pool, nil
}

// ---------------------------------------------------------------------------
// Content hashing
// ---------------------------------------------------------------------------

// artifact hash format tag
const hashFormatTag = 0x01

// computeHash computes the SHA-256 over the artifact's semantic content.
func (a *Artifact) computeHash() []byte {
	var buf []byte

	writeUint32 := func(v uint32) {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], v)
		buf = append(buf, b[:]...)
	}
	writeUint64 := func(v uint64) {
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], v)
		buf = append(buf, b[:]...)
	}
	writeString := func(s string) {
		writeUint32(uint32(len(s)))
		buf = append(buf, s...)
	}

	buf = append(buf, hashFormatTag)

	writeUint32(uint32(len(a.Instructions)))
	buf = append(buf, a.Instructions...)

	writeUint32(uint32(len(a.PointerOffsets)))
	for _, off := range a.PointerOffsets {
		writeUint64(uint64(off))
	}

	writeUint32(uint32(len(a.Pool)))
	for _, e := range a.Pool {
		buf = append(buf, e.Type)
		if e.Patchable {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
		writeUint64(e.Raw)
		if e.Value != nil {
			buf = append(buf, e.Value.Tag)
			writeUint64(uint64(e.Value.Int))
			writeUint64(math.Float64bits(e.Value.Float))
			writeString(e.Value.Str)
			writeUint32(uint32(len(e.Value.Words)))
			for _, w := range e.Value.Words {
				writeUint64(w)
			}
			writeUint64(e.Value.Address)
			writeUint32(uint32(e.Value.Arity))
			writeUint32(e.Value.ClassID)
		}
	}

	sum := sha256.Sum256(buf)
	return sum[:]
}

// Verify recomputes the artifact's content hash and compares it against
// the recorded one.
func (a *Artifact) Verify() error {
	if got := a.computeHash(); !bytes.Equal(got, a.Hash) {
		return fmt.Errorf("blob: artifact %s: hash mismatch", a.Name)
	}
	return nil
}

// HashKey returns the artifact hash as a fixed array, the key shape the
// cache uses.
func (a *Artifact) HashKey() [32]byte {
	var key [32]byte
	copy(key[:], a.Hash)
	return key
}
