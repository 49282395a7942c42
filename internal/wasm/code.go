package wasm

import "github.com/wazeroc/wazeroc/api"

// WasmOpcode is the operator set of a validated Wasm function body, as the translator (internal/wazeroir) consumes
// it. wazeroc's core assumes a validator has already produced this structured form: binary decoding and validation
// are an external collaborator.
type WasmOpcode uint16

const (
	OpUnreachable WasmOpcode = iota
	OpNop
	OpBlock
	OpLoop
	OpIf
	OpElse
	OpEnd
	OpBr
	OpBrIf
	OpBrTable
	OpReturn
	OpCall
	OpCallIndirect
	OpDrop
	OpSelect
	OpLocalGet
	OpLocalSet
	OpLocalTee
	OpGlobalGet
	OpGlobalSet
	OpTableGet
	OpTableSet
	OpI32Load
	OpI64Load
	OpF32Load
	OpF64Load
	OpI32Load8S
	OpI32Load8U
	OpI32Load16S
	OpI32Load16U
	OpI64Load8S
	OpI64Load8U
	OpI64Load16S
	OpI64Load16U
	OpI64Load32S
	OpI64Load32U
	OpI32Store
	OpI64Store
	OpF32Store
	OpF64Store
	OpI32Store8
	OpI32Store16
	OpI64Store8
	OpI64Store16
	OpI64Store32
	OpMemorySize
	OpMemoryGrow
	OpI32Const
	OpI64Const
	OpF32Const
	OpF64Const
	OpRefNull
	OpRefFunc
	OpRefIsNull
	// arithmetic/comparison family: the Arith or Cmp field of WasmInstr selects the exact operator (see ArithOp,
	// CmpOp).
	OpI32Arith
	OpI64Arith
	OpF32Arith
	OpF64Arith
	OpI32Cmp
	OpI64Cmp
	OpF32Cmp
	OpF64Cmp
	OpI32Eqz
	OpI64Eqz
	// OpUnary covers the remaining non-conversion unary operators (clz/ctz/popcnt, float abs/neg/ceil/floor/trunc/
	// nearest/sqrt); the Unary field selects the exact operator.
	OpUnary
	// OpConvert covers every numeric conversion, reinterpretation, sign-extension, and saturating-truncation
	// operator; the Convert field selects the exact operator.
	OpConvert
	OpRefEq
)

// UnaryOp selects the exact operator for an OpUnary instruction.
type UnaryOp uint8

const (
	UnaryI32Clz UnaryOp = iota
	UnaryI32Ctz
	UnaryI32Popcnt
	UnaryI64Clz
	UnaryI64Ctz
	UnaryI64Popcnt
	UnaryF32Abs
	UnaryF32Neg
	UnaryF32Ceil
	UnaryF32Floor
	UnaryF32Trunc
	UnaryF32Nearest
	UnaryF32Sqrt
	UnaryF64Abs
	UnaryF64Neg
	UnaryF64Ceil
	UnaryF64Floor
	UnaryF64Trunc
	UnaryF64Nearest
	UnaryF64Sqrt
)

// ConvertOp selects the exact operator for an OpConvert instruction.
type ConvertOp uint8

const (
	ConvertI32WrapI64 ConvertOp = iota
	ConvertI64ExtendI32S
	ConvertI64ExtendI32U
	ConvertI32TruncF32S
	ConvertI32TruncF32U
	ConvertI32TruncF64S
	ConvertI32TruncF64U
	ConvertI64TruncF32S
	ConvertI64TruncF32U
	ConvertI64TruncF64S
	ConvertI64TruncF64U
	ConvertF32ConvertI32S
	ConvertF32ConvertI32U
	ConvertF32ConvertI64S
	ConvertF32ConvertI64U
	ConvertF64ConvertI32S
	ConvertF64ConvertI32U
	ConvertF64ConvertI64S
	ConvertF64ConvertI64U
	ConvertF32DemoteF64
	ConvertF64PromoteF32
	ConvertI32ReinterpretF32
	ConvertI64ReinterpretF64
	ConvertF32ReinterpretI32
	ConvertF64ReinterpretI64
	ConvertI32Extend8S
	ConvertI32Extend16S
	ConvertI64Extend8S
	ConvertI64Extend16S
	ConvertI64Extend32S
	ConvertI32TruncSatF32S
	ConvertI32TruncSatF32U
	ConvertI32TruncSatF64S
	ConvertI32TruncSatF64U
	ConvertI64TruncSatF32S
	ConvertI64TruncSatF32U
	ConvertI64TruncSatF64S
	ConvertI64TruncSatF64U
)

// ArithOp selects the exact operator for an OpI32Arith/OpI64Arith/OpF32Arith/OpF64Arith instruction.
type ArithOp uint8

const (
	ArithAdd ArithOp = iota
	ArithSub
	ArithMul
	ArithDivS
	ArithDivU
	ArithRemS
	ArithRemU
	ArithAnd
	ArithOr
	ArithXor
	ArithShl
	ArithShrS
	ArithShrU
	ArithRotl
	ArithRotr
	ArithDiv // float-only
	ArithMin
	ArithMax
	ArithCopysign
)

// CmpOp selects the exact operator for an OpI32Cmp/OpI64Cmp/OpF32Cmp/OpF64Cmp instruction.
type CmpOp uint8

const (
	CmpEq CmpOp = iota
	CmpNe
	CmpLtS
	CmpLtU
	CmpGtS
	CmpGtU
	CmpLeS
	CmpLeU
	CmpGeS
	CmpGeU
	CmpLt // float-only
	CmpGt
	CmpLe
	CmpGe
)

// BlockKind distinguishes the three structured control shapes.
type BlockKind uint8

const (
	BlockKindBlock BlockKind = iota
	BlockKindLoop
	BlockKindIf
)

// WasmInstr is one operator of a validated function body, in the program order a binary decoder would emit.
type WasmInstr struct {
	Op WasmOpcode

	// LocalIdx / GlobalIdx / TableIdx / MemoryIdx / FuncIdx: index-space operands.
	Index uint32

	// Imm carries OpI32Const/OpI64Const raw bits, OpBr/OpBrIf branch depth, load/store OpOffset, and the
	// OpCallIndirect/OpRefFunc type/func index as needed per Op.
	Imm uint64

	// Arith/Cmp/Unary/Convert select the operator for their respective family opcodes.
	Arith   ArithOp
	Cmp     CmpOp
	Unary   UnaryOp
	Convert ConvertOp

	// Block carries the block kind and type for OpBlock/OpLoop/OpIf.
	Block     BlockKind
	BlockType FunctionType

	// BrTable carries the jump table for OpBrTable: Targets are relative block depths, Default is the
	// fallback depth.
	BrTable []uint32
	BrTableDefault uint32
}

// Code is one function body: its declared locals (beyond parameters) and its validated operator stream.
type Code struct {
	LocalTypes []api.ValueType
	Body       []WasmInstr
}
