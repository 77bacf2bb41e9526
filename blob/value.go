package blob

import (
	"fmt"

	"github.com/arctany/ember/vm"
)

// Encoding tags for managed values carried in an artifact's pool.
const (
	valueTagFloat    byte = 0x0
	valueTagSmallInt byte = 0x1
	valueTagNil      byte = 0x2
	valueTagTrue     byte = 0x3
	valueTagFalse    byte = 0x4
	valueTagString   byte = 0x5
	valueTagBignum   byte = 0x6
	valueTagCode     byte = 0x7
	valueTagFunction byte = 0x8
	valueTagField    byte = 0x9
	valueTagPlain    byte = 0xA
)

// EncodedValue is the portable form of a managed value. Only the fields
// for the tag are set.
type EncodedValue struct {
	Tag     byte     `cbor:"tag"`
	Int     int64    `cbor:"int,omitempty"`
	Float   float64  `cbor:"float,omitempty"`
	Str     string   `cbor:"str,omitempty"`
	Words   []uint64 `cbor:"words,omitempty"`
	Address uint64   `cbor:"addr,omitempty"`
	Arity   int      `cbor:"arity,omitempty"`
	ClassID uint32   `cbor:"class,omitempty"`
}

// EncodeValue converts a managed value into its portable form.
func EncodeValue(v vm.Value) (EncodedValue, error) {
	switch {
	case v.IsNil():
		return EncodedValue{Tag: valueTagNil}, nil
	case v == vm.True:
		return EncodedValue{Tag: valueTagTrue}, nil
	case v == vm.False:
		return EncodedValue{Tag: valueTagFalse}, nil
	case v.IsSmallInt():
		return EncodedValue{Tag: valueTagSmallInt, Int: v.SmallInt()}, nil
	case v.IsFloat():
		return EncodedValue{Tag: valueTagFloat, Float: v.Float64()}, nil
	case v.IsObject():
		obj := vm.MustObjectFromValue(v)
		switch obj.Kind() {
		case vm.KindString:
			return EncodedValue{Tag: valueTagString, Str: obj.StringValue()}, nil
		case vm.KindBignum:
			return EncodedValue{Tag: valueTagBignum, Words: obj.BignumWords()}, nil
		case vm.KindCode:
			return EncodedValue{Tag: valueTagCode, Address: uint64(obj.PayloadStart())}, nil
		case vm.KindFunction:
			return EncodedValue{Tag: valueTagFunction, Str: obj.FunctionName(), Arity: obj.FunctionArity()}, nil
		case vm.KindField:
			return EncodedValue{Tag: valueTagField, Str: obj.FieldName()}, nil
		case vm.KindPlain:
			return EncodedValue{Tag: valueTagPlain, ClassID: obj.ClassID()}, nil
		default:
			return EncodedValue{}, fmt.Errorf("blob: unencodable object kind %v", obj.Kind())
		}
	default:
		return EncodedValue{}, fmt.Errorf("blob: unencodable value %#x", uint64(v))
	}
}

// DecodeValue rebuilds a managed value from its portable form. Rebuilt
// objects are adopted into scope so the result is safe to retain.
func DecodeValue(e EncodedValue, scope *vm.Scope) (vm.Value, error) {
	switch e.Tag {
	case valueTagNil:
		return vm.Nil, nil
	case valueTagTrue:
		return vm.True, nil
	case valueTagFalse:
		return vm.False, nil
	case valueTagSmallInt:
		return vm.FromSmallInt(e.Int), nil
	case valueTagFloat:
		return vm.FromFloat64(e.Float), nil
	case valueTagString:
		return scope.Adopt(vm.NewString(e.Str).ToValue()), nil
	case valueTagBignum:
		return scope.Adopt(vm.NewBignum(e.Words).ToValue()), nil
	case valueTagCode:
		return scope.Adopt(vm.NewCode(uintptr(e.Address)).ToValue()), nil
	case valueTagFunction:
		return scope.Adopt(vm.NewFunction(e.Str, e.Arity).ToValue()), nil
	case valueTagField:
		return scope.Adopt(vm.NewField(e.Str).ToValue()), nil
	case valueTagPlain:
		return scope.Adopt(vm.NewPlain(e.ClassID).ToValue()), nil
	default:
		return vm.Nil, fmt.Errorf("blob: unknown value tag %#x", e.Tag)
	}
}
