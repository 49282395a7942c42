package wasm

import (
	"fmt"
	"math"

	"github.com/wazeroc/wazeroc/api"
)

// UntypedVal is the single 64-bit word every value-stack slot, global cell, and function-local constant stores.
// It carries no in-band type tag: the opcode (or declared global/local type) at the point of use recovers the
// meaning of the bits. Floating-point values are stored by bit pattern so that NaN payloads survive a store/load
// round trip unchanged.
type UntypedVal uint64

// FromI32 encodes a signed 32-bit integer, sign bits and all, into the low 32 bits.
func FromI32(v int32) UntypedVal { return UntypedVal(uint32(v)) }

// FromI64 encodes a signed 64-bit integer.
func FromI64(v int64) UntypedVal { return UntypedVal(v) }

// FromF32 encodes a float32 by its IEEE-754 bit pattern.
func FromF32(v float32) UntypedVal { return UntypedVal(math.Float32bits(v)) }

// FromF64 encodes a float64 by its IEEE-754 bit pattern.
func FromF64(v float64) UntypedVal { return UntypedVal(math.Float64bits(v)) }

// FromRef encodes a reference handle. The zero value is the canonical null reference; every null reference,
// regardless of which nominal pointer type it stands in for, compares equal to every other.
func FromRef(v uint64) UntypedVal { return UntypedVal(v) }

// NullRef is the canonical bit pattern of every null FuncRef/ExternRef.
const NullRef UntypedVal = 0

func (v UntypedVal) I32() int32     { return int32(uint32(v)) }
func (v UntypedVal) U32() uint32    { return uint32(v) }
func (v UntypedVal) I64() int64     { return int64(v) }
func (v UntypedVal) U64() uint64    { return uint64(v) }
func (v UntypedVal) F32() float32   { return math.Float32frombits(uint32(v)) }
func (v UntypedVal) F64() float64   { return math.Float64frombits(uint64(v)) }
func (v UntypedVal) Ref() uint64    { return uint64(v) }
func (v UntypedVal) Bits() uint64   { return uint64(v) }
func (v UntypedVal) IsNull() bool   { return v == NullRef }

// WithType pairs this word with a ValueType, producing a host-inspectable TypedVal.
func (v UntypedVal) WithType(t api.ValueType) TypedVal {
	return TypedVal{Type: t, Value: v}
}

// TypedVal is an UntypedVal annotated with its ValueType, used wherever runtime code needs to print, compare, or
// re-encode a value without already knowing its type from context (host calls, debugging, conformance tests).
type TypedVal struct {
	Type  api.ValueType
	Value UntypedVal
}

func (t TypedVal) String() string {
	switch t.Type {
	case api.ValueTypeI32:
		return fmt.Sprintf("i32:%d", t.Value.I32())
	case api.ValueTypeI64:
		return fmt.Sprintf("i64:%d", t.Value.I64())
	case api.ValueTypeF32:
		return fmt.Sprintf("f32:%g", t.Value.F32())
	case api.ValueTypeF64:
		return fmt.Sprintf("f64:%g", t.Value.F64())
	case api.ValueTypeFuncref:
		if t.Value.IsNull() {
			return "funcref:null"
		}
		return fmt.Sprintf("funcref:%#x", t.Value.Ref())
	case api.ValueTypeExternref:
		if t.Value.IsNull() {
			return "externref:null"
		}
		return fmt.Sprintf("externref:%#x", t.Value.Ref())
	default:
		return fmt.Sprintf("unknown(%#x):%#x", t.Type, uint64(t.Value))
	}
}
