package wazeroir

import "github.com/wazeroc/wazeroc/internal/wasm"

func isLoadOpcode(op wasm.WasmOpcode) bool {
	return op >= wasm.OpI32Load && op <= wasm.OpI64Load32U
}

func isStoreOpcode(op wasm.WasmOpcode) bool {
	return op >= wasm.OpI32Store && op <= wasm.OpI64Store32
}

func isArithOpcode(op wasm.WasmOpcode) bool {
	switch op {
	case wasm.OpI32Arith, wasm.OpI64Arith, wasm.OpF32Arith, wasm.OpF64Arith:
		return true
	}
	return false
}

func isCmpOpcode(op wasm.WasmOpcode) bool {
	switch op {
	case wasm.OpI32Cmp, wasm.OpI64Cmp, wasm.OpF32Cmp, wasm.OpF64Cmp:
		return true
	}
	return false
}

var loadOpcodeTable = map[wasm.WasmOpcode]Opcode{
	wasm.OpI32Load:     OpI32Load,
	wasm.OpI64Load:     OpI64Load,
	wasm.OpF32Load:     OpF32Load,
	wasm.OpF64Load:     OpF64Load,
	wasm.OpI32Load8S:   OpI32Load8S,
	wasm.OpI32Load8U:   OpI32Load8U,
	wasm.OpI32Load16S:  OpI32Load16S,
	wasm.OpI32Load16U:  OpI32Load16U,
	wasm.OpI64Load8S:   OpI64Load8S,
	wasm.OpI64Load8U:   OpI64Load8U,
	wasm.OpI64Load16S:  OpI64Load16S,
	wasm.OpI64Load16U:  OpI64Load16U,
	wasm.OpI64Load32S:  OpI64Load32S,
	wasm.OpI64Load32U:  OpI64Load32U,
}

func loadOpcode(op wasm.WasmOpcode) Opcode { return loadOpcodeTable[op] }

var storeOpcodeTable = map[wasm.WasmOpcode]Opcode{
	wasm.OpI32Store:   OpI32Store,
	wasm.OpI64Store:   OpI64Store,
	wasm.OpF32Store:   OpF32Store,
	wasm.OpF64Store:   OpF64Store,
	wasm.OpI32Store8:  OpI32Store8,
	wasm.OpI32Store16: OpI32Store16,
	wasm.OpI64Store8:  OpI64Store8,
	wasm.OpI64Store16: OpI64Store16,
	wasm.OpI64Store32: OpI64Store32,
}

func storeOpcode(op wasm.WasmOpcode) Opcode { return storeOpcodeTable[op] }

// arithOpcode resolves an OpI32Arith/OpI64Arith/OpF32Arith/OpF64Arith pair to its concrete IR opcode.
func arithOpcode(op wasm.WasmOpcode, a wasm.ArithOp) Opcode {
	switch op {
	case wasm.OpI32Arith:
		return i32ArithTable[a]
	case wasm.OpI64Arith:
		return i64ArithTable[a]
	case wasm.OpF32Arith:
		return f32ArithTable[a]
	default: // wasm.OpF64Arith
		return f64ArithTable[a]
	}
}

var i32ArithTable = map[wasm.ArithOp]Opcode{
	wasm.ArithAdd: OpI32Add, wasm.ArithSub: OpI32Sub, wasm.ArithMul: OpI32Mul,
	wasm.ArithDivS: OpI32DivS, wasm.ArithDivU: OpI32DivU, wasm.ArithRemS: OpI32RemS, wasm.ArithRemU: OpI32RemU,
	wasm.ArithAnd: OpI32And, wasm.ArithOr: OpI32Or, wasm.ArithXor: OpI32Xor,
	wasm.ArithShl: OpI32Shl, wasm.ArithShrS: OpI32ShrS, wasm.ArithShrU: OpI32ShrU,
	wasm.ArithRotl: OpI32Rotl, wasm.ArithRotr: OpI32Rotr,
}

var i64ArithTable = map[wasm.ArithOp]Opcode{
	wasm.ArithAdd: OpI64Add, wasm.ArithSub: OpI64Sub, wasm.ArithMul: OpI64Mul,
	wasm.ArithDivS: OpI64DivS, wasm.ArithDivU: OpI64DivU, wasm.ArithRemS: OpI64RemS, wasm.ArithRemU: OpI64RemU,
	wasm.ArithAnd: OpI64And, wasm.ArithOr: OpI64Or, wasm.ArithXor: OpI64Xor,
	wasm.ArithShl: OpI64Shl, wasm.ArithShrS: OpI64ShrS, wasm.ArithShrU: OpI64ShrU,
	wasm.ArithRotl: OpI64Rotl, wasm.ArithRotr: OpI64Rotr,
}

var f32ArithTable = map[wasm.ArithOp]Opcode{
	wasm.ArithAdd: OpF32Add, wasm.ArithSub: OpF32Sub, wasm.ArithMul: OpF32Mul, wasm.ArithDiv: OpF32Div,
	wasm.ArithMin: OpF32Min, wasm.ArithMax: OpF32Max, wasm.ArithCopysign: OpF32Copysign,
}

var f64ArithTable = map[wasm.ArithOp]Opcode{
	wasm.ArithAdd: OpF64Add, wasm.ArithSub: OpF64Sub, wasm.ArithMul: OpF64Mul, wasm.ArithDiv: OpF64Div,
	wasm.ArithMin: OpF64Min, wasm.ArithMax: OpF64Max, wasm.ArithCopysign: OpF64Copysign,
}

// cmpOpcode resolves an OpI32Cmp/OpI64Cmp/OpF32Cmp/OpF64Cmp pair to its concrete IR opcode.
func cmpOpcode(op wasm.WasmOpcode, c wasm.CmpOp) Opcode {
	switch op {
	case wasm.OpI32Cmp:
		return i32CmpTable[c]
	case wasm.OpI64Cmp:
		return i64CmpTable[c]
	case wasm.OpF32Cmp:
		return f32CmpTable[c]
	default: // wasm.OpF64Cmp
		return f64CmpTable[c]
	}
}

var i32CmpTable = map[wasm.CmpOp]Opcode{
	wasm.CmpEq: OpI32Eq, wasm.CmpNe: OpI32Ne,
	wasm.CmpLtS: OpI32LtS, wasm.CmpLtU: OpI32LtU, wasm.CmpGtS: OpI32GtS, wasm.CmpGtU: OpI32GtU,
	wasm.CmpLeS: OpI32LeS, wasm.CmpLeU: OpI32LeU, wasm.CmpGeS: OpI32GeS, wasm.CmpGeU: OpI32GeU,
}

var i64CmpTable = map[wasm.CmpOp]Opcode{
	wasm.CmpEq: OpI64Eq, wasm.CmpNe: OpI64Ne,
	wasm.CmpLtS: OpI64LtS, wasm.CmpLtU: OpI64LtU, wasm.CmpGtS: OpI64GtS, wasm.CmpGtU: OpI64GtU,
	wasm.CmpLeS: OpI64LeS, wasm.CmpLeU: OpI64LeU, wasm.CmpGeS: OpI64GeS, wasm.CmpGeU: OpI64GeU,
}

var f32CmpTable = map[wasm.CmpOp]Opcode{
	wasm.CmpEq: OpF32Eq, wasm.CmpNe: OpF32Ne, wasm.CmpLt: OpF32Lt, wasm.CmpGt: OpF32Gt, wasm.CmpLe: OpF32Le, wasm.CmpGe: OpF32Ge,
}

var f64CmpTable = map[wasm.CmpOp]Opcode{
	wasm.CmpEq: OpF64Eq, wasm.CmpNe: OpF64Ne, wasm.CmpLt: OpF64Lt, wasm.CmpGt: OpF64Gt, wasm.CmpLe: OpF64Le, wasm.CmpGe: OpF64Ge,
}

var unaryOpcodeTable = map[wasm.UnaryOp]Opcode{
	wasm.UnaryI32Clz: OpI32Clz, wasm.UnaryI32Ctz: OpI32Ctz, wasm.UnaryI32Popcnt: OpI32Popcnt,
	wasm.UnaryI64Clz: OpI64Clz, wasm.UnaryI64Ctz: OpI64Ctz, wasm.UnaryI64Popcnt: OpI64Popcnt,
	wasm.UnaryF32Abs: OpF32Abs, wasm.UnaryF32Neg: OpF32Neg, wasm.UnaryF32Ceil: OpF32Ceil,
	wasm.UnaryF32Floor: OpF32Floor, wasm.UnaryF32Trunc: OpF32Trunc, wasm.UnaryF32Nearest: OpF32Nearest, wasm.UnaryF32Sqrt: OpF32Sqrt,
	wasm.UnaryF64Abs: OpF64Abs, wasm.UnaryF64Neg: OpF64Neg, wasm.UnaryF64Ceil: OpF64Ceil,
	wasm.UnaryF64Floor: OpF64Floor, wasm.UnaryF64Trunc: OpF64Trunc, wasm.UnaryF64Nearest: OpF64Nearest, wasm.UnaryF64Sqrt: OpF64Sqrt,
}

func unaryOpcode(op wasm.UnaryOp) Opcode { return unaryOpcodeTable[op] }

var convertOpcodeTable = map[wasm.ConvertOp]Opcode{
	wasm.ConvertI32WrapI64: OpI32WrapI64, wasm.ConvertI64ExtendI32S: OpI64ExtendI32S, wasm.ConvertI64ExtendI32U: OpI64ExtendI32U,
	wasm.ConvertI32TruncF32S: OpI32TruncF32S, wasm.ConvertI32TruncF32U: OpI32TruncF32U,
	wasm.ConvertI32TruncF64S: OpI32TruncF64S, wasm.ConvertI32TruncF64U: OpI32TruncF64U,
	wasm.ConvertI64TruncF32S: OpI64TruncF32S, wasm.ConvertI64TruncF32U: OpI64TruncF32U,
	wasm.ConvertI64TruncF64S: OpI64TruncF64S, wasm.ConvertI64TruncF64U: OpI64TruncF64U,
	wasm.ConvertF32ConvertI32S: OpF32ConvertI32S, wasm.ConvertF32ConvertI32U: OpF32ConvertI32U,
	wasm.ConvertF32ConvertI64S: OpF32ConvertI64S, wasm.ConvertF32ConvertI64U: OpF32ConvertI64U,
	wasm.ConvertF64ConvertI32S: OpF64ConvertI32S, wasm.ConvertF64ConvertI32U: OpF64ConvertI32U,
	wasm.ConvertF64ConvertI64S: OpF64ConvertI64S, wasm.ConvertF64ConvertI64U: OpF64ConvertI64U,
	wasm.ConvertF32DemoteF64: OpF32DemoteF64, wasm.ConvertF64PromoteF32: OpF64PromoteF32,
	wasm.ConvertI32ReinterpretF32: OpI32ReinterpretF32, wasm.ConvertI64ReinterpretF64: OpI64ReinterpretF64,
	wasm.ConvertF32ReinterpretI32: OpF32ReinterpretI32, wasm.ConvertF64ReinterpretI64: OpF64ReinterpretI64,
	wasm.ConvertI32Extend8S: OpI32Extend8S, wasm.ConvertI32Extend16S: OpI32Extend16S,
	wasm.ConvertI64Extend8S: OpI64Extend8S, wasm.ConvertI64Extend16S: OpI64Extend16S, wasm.ConvertI64Extend32S: OpI64Extend32S,
	wasm.ConvertI32TruncSatF32S: OpI32TruncSatF32S, wasm.ConvertI32TruncSatF32U: OpI32TruncSatF32U,
	wasm.ConvertI32TruncSatF64S: OpI32TruncSatF64S, wasm.ConvertI32TruncSatF64U: OpI32TruncSatF64U,
	wasm.ConvertI64TruncSatF32S: OpI64TruncSatF32S, wasm.ConvertI64TruncSatF32U: OpI64TruncSatF32U,
	wasm.ConvertI64TruncSatF64S: OpI64TruncSatF64S, wasm.ConvertI64TruncSatF64U: OpI64TruncSatF64U,
}

func convertOpcode(op wasm.ConvertOp) Opcode { return convertOpcodeTable[op] }
