package api

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeI32(t *testing.T) {
	require.Equal(t, uint64(0xffffffff), EncodeI32(-1))
	require.Equal(t, uint64(42), EncodeI32(42))
}

func TestEncodeDecodeI64(t *testing.T) {
	require.Equal(t, uint64(math.MaxUint64), EncodeI64(-1))
}

func TestEncodeDecodeF32(t *testing.T) {
	v := float32(3.14)
	require.Equal(t, v, DecodeF32(EncodeF32(v)))
}

func TestEncodeDecodeF32_NaNBitsPreserved(t *testing.T) {
	nan := math.Float32frombits(0x7fc00001)
	got := DecodeF32(EncodeF32(nan))
	require.Equal(t, math.Float32bits(nan), math.Float32bits(got))
}

func TestEncodeDecodeF64(t *testing.T) {
	v := -2.5
	require.Equal(t, v, DecodeF64(EncodeF64(v)))
}

func TestEncodeDecodeExternref_NullIsZero(t *testing.T) {
	require.Equal(t, uint64(0), EncodeExternref(0))
	require.Equal(t, uintptr(0), DecodeExternref(0))
}

func TestValueTypeName(t *testing.T) {
	tests := []struct {
		vt       ValueType
		expected string
	}{
		{ValueTypeI32, "i32"},
		{ValueTypeI64, "i64"},
		{ValueTypeF32, "f32"},
		{ValueTypeF64, "f64"},
		{ValueTypeFuncref, "funcref"},
		{ValueTypeExternref, "externref"},
		{0x00, "unknown"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, ValueTypeName(tt.vt))
	}
}

func TestExternTypeName(t *testing.T) {
	require.Equal(t, "func", ExternTypeName(ExternTypeFunc))
	require.Equal(t, "table", ExternTypeName(ExternTypeTable))
	require.Equal(t, "memory", ExternTypeName(ExternTypeMemory))
	require.Equal(t, "global", ExternTypeName(ExternTypeGlobal))
	require.Equal(t, "0xff", ExternTypeName(0xff))
}
