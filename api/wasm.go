// Package api includes constants and interfaces used by both end-users and internal implementations.
package api

import (
	"context"
	"fmt"
	"math"
	"reflect"
)

// ExternType classifies imports and exports with their respective types.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#external-types%E2%91%A0
type ExternType = byte

const (
	ExternTypeFunc   ExternType = 0x00
	ExternTypeTable  ExternType = 0x01
	ExternTypeMemory ExternType = 0x02
	ExternTypeGlobal ExternType = 0x03
)

const (
	ExternTypeFuncName   = "func"
	ExternTypeTableName  = "table"
	ExternTypeMemoryName = "memory"
	ExternTypeGlobalName = "global"
)

// ExternTypeName returns the name of the WebAssembly Text Format field of the given type.
func ExternTypeName(et ExternType) string {
	switch et {
	case ExternTypeFunc:
		return ExternTypeFuncName
	case ExternTypeTable:
		return ExternTypeTableName
	case ExternTypeMemory:
		return ExternTypeMemoryName
	case ExternTypeGlobal:
		return ExternTypeGlobalName
	}
	return fmt.Sprintf("%#x", et)
}

// ValueType describes a numeric or reference type used in WebAssembly.
//
// Note: This is a type alias as it is easier to encode and decode in the binary format.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-valtype
type ValueType = byte

const (
	// ValueTypeI32 is a 32-bit integer.
	ValueTypeI32 ValueType = 0x7f
	// ValueTypeI64 is a 64-bit integer.
	ValueTypeI64 ValueType = 0x7e
	// ValueTypeF32 is a 32-bit floating point number.
	ValueTypeF32 ValueType = 0x7d
	// ValueTypeF64 is a 64-bit floating point number.
	ValueTypeF64 ValueType = 0x7c

	// ValueTypeFuncref is a nullable reference to a function.
	ValueTypeFuncref ValueType = 0x70

	// ValueTypeExternref is a nullable, opaque reference to a host-owned object.
	//
	// In wazero, externref values are raw 64-bit words. A null reference is
	// the bit pattern zero; all null references compare equal regardless of
	// the pointer type they notionally stand in for.
	ValueTypeExternref ValueType = 0x6f
)

// ValueTypeName returns the type name of the given ValueType as used in the WebAssembly text format.
func ValueTypeName(t ValueType) string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeFuncref:
		return "funcref"
	case ValueTypeExternref:
		return "externref"
	}
	return "unknown"
}

// EncodeExternref encodes the input as a ValueTypeExternref. Zero, the null reference, round-trips through
// DecodeExternref as zero regardless of which pointer type it was minted from.
func EncodeExternref(input uintptr) uint64 {
	return uint64(input)
}

// DecodeExternref decodes the input as a ValueTypeExternref.
func DecodeExternref(input uint64) uintptr {
	return uintptr(input)
}

// EncodeI32 encodes the input as a ValueTypeI32.
func EncodeI32(input int32) uint64 {
	return uint64(uint32(input))
}

// EncodeI64 encodes the input as a ValueTypeI64.
func EncodeI64(input int64) uint64 {
	return uint64(input)
}

// EncodeF32 encodes the input as a ValueTypeF32.
func EncodeF32(input float32) uint64 {
	return uint64(math.Float32bits(input))
}

// DecodeF32 decodes the input as a ValueTypeF32.
func DecodeF32(input uint64) float32 {
	return math.Float32frombits(uint32(input))
}

// EncodeF64 encodes the input as a ValueTypeF64.
func EncodeF64(input float64) uint64 {
	return math.Float64bits(input)
}

// DecodeF64 decodes the input as a ValueTypeF64.
func DecodeF64(input uint64) float64 {
	return math.Float64frombits(input)
}

// Module return functions exported in a module, post-instantiation.
type Module interface {
	fmt.Stringer

	// Name is the name this module was instantiated with.
	Name() string

	// Memory returns a memory defined in this module, or nil if there wasn't one.
	Memory() Memory

	// ExportedFunction returns a function exported from this module or nil if it wasn't.
	ExportedFunction(name string) Function

	// ExportedMemory returns a memory exported from this module or nil if it wasn't.
	ExportedMemory(name string) Memory

	// ExportedGlobal returns a global exported from this module or nil if it wasn't.
	ExportedGlobal(name string) Global

	// ExportedTable returns a table exported from this module or nil if it wasn't.
	ExportedTable(name string) Table

	// CloseWithExitCode releases resources allocated for this Module. Use a non-zero exitCode to indicate a failure
	// to ExportedFunction callers. The error returned, if any, is about resource de-allocation (such as I/O errors).
	CloseWithExitCode(ctx context.Context, exitCode uint32) error

	Closer
}

// Closer closes a resource.
type Closer interface {
	// Close closes the resource. When the context is nil, it defaults to context.Background.
	Close(context.Context) error
}

// FunctionDefinition is a WebAssembly function exported or imported by a module.
type FunctionDefinition interface {
	// ModuleName is the possibly empty name of the module defining this function.
	ModuleName() string

	// Index is the position in the module's function index namespace, imports first.
	Index() uint32

	// Name is the module-defined name of the function, which is not necessarily the same as its export name.
	Name() string

	// DebugName identifies this function based on its Index or Name in the module, for traps and stack traces.
	DebugName() string

	// Import returns true with the module and function name when this function is imported.
	Import() (moduleName, name string, isImport bool)

	// ExportNames include all exported names for the given function.
	ExportNames() []string

	// GoFunc is present when the function was implemented by the embedder instead of a wasm binary.
	GoFunc() *reflect.Value

	// ParamTypes are the possibly empty sequence of value types accepted by a function with this signature.
	ParamTypes() []ValueType

	// ParamNames are index-correlated with ParamTypes or nil if not available for one or more parameters.
	ParamNames() []string

	// ResultTypes are the results of the function.
	ResultTypes() []ValueType
}

// Function is a WebAssembly function exported from an instantiated module.
type Function interface {
	// Definition is metadata about this function from its defining module.
	Definition() FunctionDefinition

	// Call invokes the function with parameters encoded according to ParamTypes. Up to len(ResultTypes) results are
	// returned, encoded according to ResultTypes. When the context is nil, it defaults to context.Background.
	Call(ctx context.Context, params ...uint64) ([]uint64, error)

	// CallResumable behaves like Call, except that a resumable host-function trap or fuel exhaustion does not
	// return an error: it returns a non-nil ResumableTrap instead.
	CallResumable(ctx context.Context, params ...uint64) ([]uint64, ResumableTrap, error)
}

// ResumableTrap represents a suspended invocation that may be continued with Resume.
//
// A resumable host trap or an out-of-fuel break captures the current frame and returns control to
// the embedder without unwinding the Wasm call stack.
type ResumableTrap interface {
	// Error is the reason execution suspended: either the host function's error, or the out-of-fuel trap code
	// (wasmruntime.TrapCodeOutOfFuel).
	Error() error

	// Resume continues execution, writing results into the slots the suspended host call (or the fuel-exhausted
	// instruction) was expected to produce, and returns the final results once the invocation completes or
	// another ResumableTrap is produced.
	Resume(ctx context.Context, results ...uint64) ([]uint64, ResumableTrap, error)
}

// Global is a WebAssembly global exported from an instantiated module.
type Global interface {
	fmt.Stringer

	// Type describes the numeric type of the global.
	Type() ValueType

	// Get returns the last known value of this global.
	Get(context.Context) uint64
}

// MutableGlobal is a Global whose value can be updated at runtime.
type MutableGlobal interface {
	Global

	// Set updates the value of this global.
	Set(ctx context.Context, v uint64)
}

// Table allows restricted access to a module's table of function or extern references.
type Table interface {
	// Type is either ValueTypeFuncref or ValueTypeExternref.
	Type() ValueType

	// Size returns the number of elements currently in the table.
	Size(context.Context) uint32

	// Grow increases the table by the delta of elements, initializing them to init. Returns the previous size, or
	// false if the delta was refused (exceeds max, or refused by a resource limiter).
	Grow(ctx context.Context, delta uint32, init uint64) (previous uint32, ok bool)
}

// Memory allows restricted access to a module's memory, including growing it.
type Memory interface {
	// Size returns the size in bytes available. Ex. If the underlying memory has 1 page: 65536
	Size(context.Context) uint32

	// Grow increases memory by the delta in pages (65536 bytes per page, unless a custom page size was configured).
	// The return val is the previous memory size in pages, or false if the delta was ignored as it exceeds max memory
	// or was refused by a resource limiter.
	Grow(ctx context.Context, deltaPages uint32) (previousPages uint32, ok bool)

	// ReadByte reads a single byte from the underlying buffer at the offset or returns false if out of range.
	ReadByte(ctx context.Context, offset uint32) (byte, bool)

	// ReadUint16Le reads a uint16 in little-endian encoding at the offset or returns false if out of range.
	ReadUint16Le(ctx context.Context, offset uint32) (uint16, bool)

	// ReadUint32Le reads a uint32 in little-endian encoding at the offset or returns false if out of range.
	ReadUint32Le(ctx context.Context, offset uint32) (uint32, bool)

	// ReadFloat32Le reads a float32 from 32 IEEE 754 little-endian bits at the offset or returns false if out of range.
	ReadFloat32Le(ctx context.Context, offset uint32) (float32, bool)

	// ReadUint64Le reads a uint64 in little-endian encoding at the offset or returns false if out of range.
	ReadUint64Le(ctx context.Context, offset uint32) (uint64, bool)

	// ReadFloat64Le reads a float64 from 64 IEEE 754 little-endian bits at the offset or returns false if out of range.
	ReadFloat64Le(ctx context.Context, offset uint32) (float64, bool)

	// Read reads byteCount bytes at the offset or returns false if out of range. This returns a view of the
	// underlying memory: writes to the slice are visible to Wasm, and vice-versa, until the slice's capacity
	// changes (e.g. via memory.grow).
	Read(ctx context.Context, offset, byteCount uint32) ([]byte, bool)

	// WriteByte writes a single byte at the offset or returns false if out of range.
	WriteByte(ctx context.Context, offset uint32, v byte) bool

	// WriteUint16Le writes the value in little-endian encoding at the offset or returns false if out of range.
	WriteUint16Le(ctx context.Context, offset uint32, v uint16) bool

	// WriteUint32Le writes the value in little-endian encoding at the offset or returns false if out of range.
	WriteUint32Le(ctx context.Context, offset, v uint32) bool

	// WriteFloat32Le writes the value in 32 IEEE 754 little-endian bits at the offset or returns false if out of range.
	WriteFloat32Le(ctx context.Context, offset uint32, v float32) bool

	// WriteUint64Le writes the value in little-endian encoding at the offset or returns false if out of range.
	WriteUint64Le(ctx context.Context, offset uint32, v uint64) bool

	// WriteFloat64Le writes the value in 64 IEEE 754 little-endian bits at the offset or returns false if out of range.
	WriteFloat64Le(ctx context.Context, offset uint32, v float64) bool

	// Write writes the slice at the offset or returns false if out of range.
	Write(ctx context.Context, offset uint32, v []byte) bool
}

// MemorySizer determines the amount of memory pages (65536 bytes per page) to use when a memory is instantiated,
// applied after a module is loaded but before it is instantiated.
type MemorySizer func(minPages uint32, maxPages *uint32) (min, capacity, max uint32)
