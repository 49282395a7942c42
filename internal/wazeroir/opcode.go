package wazeroir

// Opcode is a dense, closed enumeration of every IR operator. Numbering is stable within one build: the translator
// and the executor must agree on it bit-for-bit.
type Opcode uint16

// OperandShape groups opcodes by the decoding/dispatch shape they share.
type OperandShape uint8

const (
	ShapeNone OperandShape = iota
	ShapeUnary
	ShapeBinary
	ShapeCompare
	ShapeCompareBranch
	ShapeCompareSelect
	ShapeLoad
	ShapeStore
	ShapeTableGet
	ShapeTableSet
	ShapeGeneric0
	ShapeGeneric1
	ShapeGeneric2
	ShapeGeneric3
	ShapeGeneric4
	ShapeGeneric5
	ShapeBranch
	ShapeBranchTable
	ShapeCall
)

const (
	OpUnreachable Opcode = iota
	OpNop
	OpBr
	OpBrIf
	OpBrTable
	OpBrTableDefault // follower-equivalent: see BranchTableTarget, addressed via Instruction.Aux
	OpReturn
	OpCall
	OpCallIndirect
	OpReturnCall
	OpReturnCallIndirect
	OpHostCall
	OpDrop
	OpSelect
	OpSelectTyped

	OpCopy   // Rd = Rs1
	OpCopy2  // two-element simultaneous copy: {Rd,Rd2} = {Rs1,Rs2}, back-to-front if ranges overlap
	OpCopyN  // general N-element simultaneous-update copy, operands in Aux-addressed CopySpan table

	OpGlobalGet
	OpGlobalSet

	OpTableGet
	OpTableSet
	OpTableSize
	OpTableGrow
	OpTableFill
	OpTableCopy
	OpTableInit
	OpElemDrop

	OpMemorySize
	OpMemoryGrow
	OpMemoryFill
	OpMemoryCopy
	OpMemoryInit
	OpDataDrop

	OpConstI32
	OpConstI64
	OpConstF32
	OpConstF64
	OpRefNull
	OpRefFunc
	OpRefIsNull
	OpRefEq

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

	OpI32Eqz
	OpI64Eqz
	OpI32Eq
	OpI32Ne
	OpI32LtS
	OpI32LtU
	OpI32GtS
	OpI32GtU
	OpI32LeS
	OpI32LeU
	OpI32GeS
	OpI32GeU
	OpI64Eq
	OpI64Ne
	OpI64LtS
	OpI64LtU
	OpI64GtS
	OpI64GtU
	OpI64LeS
	OpI64LeU
	OpI64GeS
	OpI64GeU
	OpF32Eq
	OpF32Ne
	OpF32Lt
	OpF32Gt
	OpF32Le
	OpF32Ge
	OpF64Eq
	OpF64Ne
	OpF64Lt
	OpF64Gt
	OpF64Le
	OpF64Ge

	OpI32Add
	OpI32Sub
	OpI32Mul
	OpI32DivS
	OpI32DivU
	OpI32RemS
	OpI32RemU
	OpI32And
	OpI32Or
	OpI32Xor
	OpI32Shl
	OpI32ShrS
	OpI32ShrU
	OpI32Rotl
	OpI32Rotr
	OpI32Clz
	OpI32Ctz
	OpI32Popcnt

	OpI64Add
	OpI64Sub
	OpI64Mul
	OpI64DivS
	OpI64DivU
	OpI64RemS
	OpI64RemU
	OpI64And
	OpI64Or
	OpI64Xor
	OpI64Shl
	OpI64ShrS
	OpI64ShrU
	OpI64Rotl
	OpI64Rotr
	OpI64Clz
	OpI64Ctz
	OpI64Popcnt

	OpF32Add
	OpF32Sub
	OpF32Mul
	OpF32Div
	OpF32Min
	OpF32Max
	OpF32Copysign
	OpF32Abs
	OpF32Neg
	OpF32Ceil
	OpF32Floor
	OpF32Trunc
	OpF32Nearest
	OpF32Sqrt

	OpF64Add
	OpF64Sub
	OpF64Mul
	OpF64Div
	OpF64Min
	OpF64Max
	OpF64Copysign
	OpF64Abs
	OpF64Neg
	OpF64Ceil
	OpF64Floor
	OpF64Trunc
	OpF64Nearest
	OpF64Sqrt

	OpI32WrapI64
	OpI64ExtendI32S
	OpI64ExtendI32U
	OpI32TruncF32S
	OpI32TruncF32U
	OpI32TruncF64S
	OpI32TruncF64U
	OpI64TruncF32S
	OpI64TruncF32U
	OpI64TruncF64S
	OpI64TruncF64U
	OpF32ConvertI32S
	OpF32ConvertI32U
	OpF32ConvertI64S
	OpF32ConvertI64U
	OpF64ConvertI32S
	OpF64ConvertI32U
	OpF64ConvertI64S
	OpF64ConvertI64U
	OpF32DemoteF64
	OpF64PromoteF32
	OpI32ReinterpretF32
	OpI64ReinterpretF64
	OpF32ReinterpretI32
	OpF64ReinterpretI64
	OpI32Extend8S
	OpI32Extend16S
	OpI64Extend8S
	OpI64Extend16S
	OpI64Extend32S
	OpI32TruncSatF32S
	OpI32TruncSatF32U
	OpI32TruncSatF64S
	OpI32TruncSatF64U
	OpI64TruncSatF32S
	OpI64TruncSatF32U
	OpI64TruncSatF64S
	OpI64TruncSatF64U

	opcodeCount
)

// Shape returns the dispatch shape of op. Unknown/unused slots default to ShapeGeneric0 (no shape-specific
// decoding needed).
func (op Opcode) Shape() OperandShape {
	switch {
	case op == OpBr:
		return ShapeBranch
	case op == OpBrIf:
		return ShapeCompareBranch
	case op == OpBrTable:
		return ShapeBranchTable
	case op == OpCall || op == OpCallIndirect || op == OpReturnCall || op == OpReturnCallIndirect || op == OpHostCall:
		return ShapeCall
	case op == OpTableGet:
		return ShapeTableGet
	case op == OpTableSet:
		return ShapeTableSet
	case isLoad(op):
		return ShapeLoad
	case isStore(op):
		return ShapeStore
	case isCompare(op):
		return ShapeCompare
	case isUnary(op):
		return ShapeUnary
	case isBinary(op):
		return ShapeBinary
	default:
		return ShapeGeneric0
	}
}

func isLoad(op Opcode) bool { return op >= OpI32Load && op <= OpI64Load32U }

func isStore(op Opcode) bool { return op >= OpI32Store && op <= OpI64Store32 }

func isCompare(op Opcode) bool { return op >= OpI32Eqz && op <= OpF64Ge }

func isUnary(op Opcode) bool {
	switch op {
	case OpI32Clz, OpI32Ctz, OpI32Popcnt, OpI64Clz, OpI64Ctz, OpI64Popcnt:
		return true
	}
	if op >= OpF32Abs && op <= OpF32Sqrt {
		return true
	}
	if op >= OpF64Abs && op <= OpF64Sqrt {
		return true
	}
	return op >= OpI32WrapI64 && op <= OpI64TruncSatF64U
}

func isBinary(op Opcode) bool {
	if op >= OpI32Add && op <= OpI32Rotr {
		return true
	}
	if op >= OpI64Add && op <= OpI64Rotr {
		return true
	}
	if op >= OpF32Add && op <= OpF32Copysign {
		return true
	}
	if op >= OpF64Add && op <= OpF64Copysign {
		return true
	}
	return false
}
