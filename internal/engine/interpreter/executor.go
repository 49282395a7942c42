package interpreter

import (
	"context"
	"math"
	"math/bits"

	"github.com/wazeroc/wazeroc/internal/moremath"
	"github.com/wazeroc/wazeroc/internal/wasm"
	"github.com/wazeroc/wazeroc/internal/wasmruntime"
	"github.com/wazeroc/wazeroc/internal/wazeroir"
)

// run is the dispatch loop: it executes instructions from the top frame until that frame (and every frame pushed
// after it) returns, a trap fires, or the invocation suspends for a resumable host call or fuel exhaustion. It owns
// no Go-native recursion — a Wasm-to-Wasm call pushes a callFrame and the loop keeps going, which is what lets a
// suspended invocation be captured as a plain *callEngine value and resumed by re-entering this same loop.
func (ce *callEngine) run(ctx context.Context, resumable bool) (results []wasm.UntypedVal, trap *pendingTrap, err error) {
	defer func() {
		if r := recover(); r != nil {
			sig, ok := r.(trapSignal)
			if !ok {
				panic(r)
			}
			err = &wasmruntime.TrapError{Code: sig.code, StackTrace: sig.trace}
			results, trap = nil, nil
		}
	}()

	for {
		f := ce.topFrame()
		if f.ip >= len(f.fn.code.Instrs) {
			ce.trap(wasmruntime.TrapCodeUnreachable)
		}
		instr := f.fn.code.Instrs[f.ip]

		if ce.store.FuelEnabled() {
			if suspendErr := ce.store.DeductFuel(fuelCost(instr.Op)); suspendErr != nil {
				if resumable {
					return nil, &pendingTrap{ce: ce, cause: suspendErr}, nil
				}
				return nil, nil, wrapTrap(f.fn.def.DebugName(), suspendErr)
			}
		}

		switch instr.Op {
		case wazeroir.OpUnreachable:
			ce.trap(wasmruntime.TrapCodeUnreachable)

		case wazeroir.OpNop, wazeroir.OpDrop:
			f.ip++

		case wazeroir.OpBr:
			if instr.Rs1 == wazeroir.NoSlot || ce.local(f, instr.Rs1).I32() != 0 {
				f.ip += int(instr.BranchOffset)
			} else {
				f.ip++
			}

		case wazeroir.OpBrIf:
			if ce.local(f, instr.Rs1).I32() != 0 {
				f.ip += int(instr.BranchOffset)
			} else {
				f.ip++
			}

		case wazeroir.OpBrTable:
			targets := f.fn.code.BranchTables[instr.Aux]
			idx := int(ce.local(f, instr.Rs1).U32())
			if idx < 0 || idx >= len(targets)-1 {
				idx = len(targets) - 1
			}
			f.ip += int(targets[idx].Offset)

		case wazeroir.OpReturn:
			ce.doReturn(f, instr.Span)
			if len(ce.frames) == 0 {
				return ce.returnScratch, nil, nil
			}

		case wazeroir.OpCopy:
			ce.setLocal(f, instr.Rd, ce.local(f, instr.Rs1))
			f.ip++

		case wazeroir.OpCopyN:
			ce.execCopyN(f, instr.Aux)
			f.ip++

		case wazeroir.OpSelect, wazeroir.OpSelectTyped:
			cond := ce.local(f, instr.Rs3)
			if cond.I32() != 0 {
				ce.setLocal(f, instr.Rd, ce.local(f, instr.Rs1))
			} else {
				ce.setLocal(f, instr.Rd, ce.local(f, instr.Rs2))
			}
			f.ip++

		case wazeroir.OpConstI32, wazeroir.OpConstI64, wazeroir.OpConstF32, wazeroir.OpConstF64:
			ce.setLocal(f, instr.Rd, wasm.UntypedVal(uint64(instr.Imm)))
			f.ip++

		case wazeroir.OpGlobalGet:
			g := ce.resolveGlobal(f, instr.Aux)
			ce.setLocal(f, instr.Rd, g.Get())
			f.ip++

		case wazeroir.OpGlobalSet:
			g := ce.resolveGlobal(f, instr.Aux)
			if err := g.Set(ce.local(f, instr.Rs1)); err != nil {
				ce.trap(wasmruntime.TrapCodeUnreachable)
			}
			f.ip++

		case wazeroir.OpTableGet:
			tbl := ce.resolveTable(f, instr.Aux)
			v, ok := tbl.Get(ce.local(f, instr.Rs1).U64())
			if !ok {
				ce.trap(wasmruntime.TrapCodeTableOutOfBounds)
			}
			ce.setLocal(f, instr.Rd, v)
			f.ip++

		case wazeroir.OpTableSet:
			tbl := ce.resolveTable(f, instr.Aux)
			if !tbl.Set(ce.local(f, instr.Rs1).U64(), ce.local(f, instr.Rs2)) {
				ce.trap(wasmruntime.TrapCodeTableOutOfBounds)
			}
			f.ip++

		case wazeroir.OpTableSize:
			tbl := ce.resolveTable(f, instr.Aux)
			ce.setLocal(f, instr.Rd, wasm.FromI64(int64(tbl.Size())))
			f.ip++

		case wazeroir.OpTableGrow:
			tbl := ce.resolveTable(f, instr.Aux)
			prev, ok := tbl.Grow(ce.store, ce.local(f, instr.Rs1).U64(), ce.local(f, instr.Rs2))
			if !ok {
				ce.setLocal(f, instr.Rd, wasm.FromI64(-1))
			} else {
				ce.setLocal(f, instr.Rd, wasm.FromI64(int64(prev)))
			}
			f.ip++

		case wazeroir.OpMemorySize:
			mem := ce.resolveMemory(f, instr.Aux)
			ce.setLocal(f, instr.Rd, wasm.FromI32(int32(mem.PageCount())))
			f.ip++

		case wazeroir.OpMemoryGrow:
			mem := ce.resolveMemory(f, instr.Aux)
			prev, ok := mem.Grow(ce.store, ce.local(f, instr.Rs1).U64())
			if !ok {
				ce.setLocal(f, instr.Rd, wasm.FromI32(-1))
			} else {
				ce.setLocal(f, instr.Rd, wasm.FromI32(int32(prev)))
			}
			f.ip++

		case wazeroir.OpRefIsNull:
			ce.setLocal(f, instr.Rd, boolVal(ce.local(f, instr.Rs1).IsNull()))
			f.ip++

		case wazeroir.OpRefEq:
			ce.setLocal(f, instr.Rd, boolVal(ce.local(f, instr.Rs1) == ce.local(f, instr.Rs2)))
			f.ip++

		case wazeroir.OpCall:
			pt, callErr := ce.execCall(ctx, f, f.fn.me.funcs[instr.Aux], instr, resumable)
			if callErr != nil || pt != nil {
				return nil, pt, callErr
			}

		case wazeroir.OpCallIndirect:
			callee, sigErr := ce.resolveIndirectCallee(f, instr)
			if sigErr != nil {
				ce.trap(wasmruntime.TrapCodeBadSignature)
			}
			pt, callErr := ce.execCallIndirect(ctx, f, callee, instr, resumable)
			if callErr != nil || pt != nil {
				return nil, pt, callErr
			}

		default:
			if instr.Op >= wazeroir.OpI32Load && instr.Op <= wazeroir.OpI64Load32U {
				ce.execLoad(f, instr)
			} else if instr.Op >= wazeroir.OpI32Store && instr.Op <= wazeroir.OpI64Store32 {
				ce.execStore(f, instr)
			} else if instr.Op == wazeroir.OpI32Eqz || instr.Op == wazeroir.OpI64Eqz {
				ce.setLocal(f, instr.Rd, boolVal(ce.local(f, instr.Rs1).I64() == 0))
				f.ip++
				continue
			} else if instr.Op >= wazeroir.OpI32Eq && instr.Op <= wazeroir.OpF64Ge {
				ce.execCompare(f, instr)
			} else if isBinaryArith(instr.Op) {
				ce.execBinary(f, instr)
			} else if isUnaryArith(instr.Op) {
				ce.execUnary(f, instr)
			} else if instr.Op >= wazeroir.OpI32WrapI64 && instr.Op <= wazeroir.OpI64TruncSatF64U {
				ce.execConvert(f, instr)
			} else {
				ce.trap(wasmruntime.TrapCodeUnreachable)
			}
			f.ip++
		}
	}
}

func boolVal(b bool) wasm.UntypedVal {
	if b {
		return wasm.FromI32(1)
	}
	return wasm.FromI32(0)
}

func isBinaryArith(op wazeroir.Opcode) bool {
	return (op >= wazeroir.OpI32Add && op <= wazeroir.OpI32Rotr) ||
		(op >= wazeroir.OpI64Add && op <= wazeroir.OpI64Rotr) ||
		(op >= wazeroir.OpF32Add && op <= wazeroir.OpF32Copysign) ||
		(op >= wazeroir.OpF64Add && op <= wazeroir.OpF64Copysign) ||
		op == wazeroir.OpRefEq
}

func isUnaryArith(op wazeroir.Opcode) bool {
	switch op {
	case wazeroir.OpI32Clz, wazeroir.OpI32Ctz, wazeroir.OpI32Popcnt,
		wazeroir.OpI64Clz, wazeroir.OpI64Ctz, wazeroir.OpI64Popcnt:
		return true
	}
	return (op >= wazeroir.OpF32Abs && op <= wazeroir.OpF32Sqrt) ||
		(op >= wazeroir.OpF64Abs && op <= wazeroir.OpF64Sqrt)
}

// doReturn copies span out of f's own window, either into the parent frame's window (retBase/retSpan) or into
// ce.returnScratch for the outermost call, then pops f. The caller loop checks len(ce.frames) == 0 to tell which
// happened.
func (ce *callEngine) doReturn(f *callFrame, span wazeroir.FixedSlotSpan) {
	vals := make([]wasm.UntypedVal, span.Count)
	for i := range vals {
		vals[i] = ce.local(f, span.Base+wazeroir.Slot(i))
	}
	if f.retBase == -1 {
		ce.returnScratch = vals
		ce.frames = ce.frames[:0]
		return
	}
	for i, v := range vals {
		ce.stack[f.retBase+int(f.retSpan.Base)+i] = v
	}
	ce.stack = ce.stack[:f.base]
	ce.frames = ce.frames[:len(ce.frames)-1]
}

func (ce *callEngine) execCopyN(f *callFrame, auxIdx uint32) {
	cs := f.fn.code.CopySpans[auxIdx]
	tmp := make([]wasm.UntypedVal, len(cs.Src))
	for i, s := range cs.Src {
		tmp[i] = ce.local(f, s)
	}
	for i, d := range cs.Dst {
		ce.setLocal(f, d, tmp[i])
	}
}

func (ce *callEngine) resolveGlobal(f *callFrame, idx uint32) *wasm.GlobalInstance {
	inst, err := ce.store.ResolveInstance(f.fn.me.instance)
	if err != nil {
		ce.trap(wasmruntime.TrapCodeUnreachable)
	}
	g, err := ce.store.ResolveGlobal(inst.Globals[idx])
	if err != nil {
		ce.trap(wasmruntime.TrapCodeUnreachable)
	}
	return g
}

func (ce *callEngine) resolveTable(f *callFrame, idx uint32) *wasm.TableInstance {
	inst, err := ce.store.ResolveInstance(f.fn.me.instance)
	if err != nil {
		ce.trap(wasmruntime.TrapCodeUnreachable)
	}
	tbl, err := ce.store.ResolveTable(inst.Tables[idx])
	if err != nil {
		ce.trap(wasmruntime.TrapCodeUnreachable)
	}
	return tbl
}

func (ce *callEngine) resolveMemory(f *callFrame, idx uint32) *wasm.MemoryInstance {
	inst, err := ce.store.ResolveInstance(f.fn.me.instance)
	if err != nil {
		ce.trap(wasmruntime.TrapCodeUnreachable)
	}
	mem, err := ce.store.ResolveMemory(inst.Memories[idx])
	if err != nil {
		ce.trap(wasmruntime.TrapCodeUnreachable)
	}
	return mem
}

// resolveIndirectCallee reads a funcref out of the named table and reinterprets its bits as a function index in
// the calling frame's own ModuleEngine — the same convention ref.func uses to build the value in the first place.
// A table shared across modules with distinct index spaces is outside this simplification; see the design notes.
func (ce *callEngine) resolveIndirectCallee(f *callFrame, instr wazeroir.Instruction) (*runtimeFunction, error) {
	tbl := ce.resolveTable(f, instr.Aux)
	ref, ok := tbl.Get(ce.local(f, instr.Rs1).U64())
	if !ok {
		ce.trap(wasmruntime.TrapCodeTableOutOfBounds)
	}
	if ref.IsNull() {
		ce.trap(wasmruntime.TrapCodeIndirectCallToNull)
	}
	calleeIdx := ref.U32()
	if int(calleeIdx) >= len(f.fn.me.funcs) {
		ce.trap(wasmruntime.TrapCodeTableOutOfBounds)
	}
	callee := f.fn.me.funcs[calleeIdx]
	want := &f.fn.me.module.TypeSection[instr.Aux2]
	if !callee.typ.Equal(want) {
		return nil, errIndirectSignatureMismatch
	}
	return callee, nil
}

// execCall runs a direct call: f.ip is advanced past the call before the callee starts, so whichever frame is on
// top when OpReturn next fires always resumes exactly where it left off, whether that's f itself (host callee, or
// a Wasm callee that already unwound) or a newly pushed callee frame.
func (ce *callEngine) execCall(ctx context.Context, f *callFrame, callee *runtimeFunction, instr wazeroir.Instruction, resumable bool) (*pendingTrap, error) {
	return ce.dispatch(ctx, f, callee, instr.Rs1, instr.Span, resumable)
}

func (ce *callEngine) execCallIndirect(ctx context.Context, f *callFrame, callee *runtimeFunction, instr wazeroir.Instruction, resumable bool) (*pendingTrap, error) {
	return ce.dispatch(ctx, f, callee, instr.Rs2, instr.Span, resumable)
}

// dispatch is the shared call path for OpCall/OpCallIndirect. For a Wasm-defined callee it pushes a new callFrame
// sized to its own locals+temps window and continues the same loop — this is the "calls never recurse into Go"
// design: ip is advanced past the call in the caller's frame before the callee even starts, so whichever frame is
// on top when OpReturn unwinds it always resumes exactly after the call that pushed it.
//
// For a host-defined callee, ip is likewise advanced first, and the host function runs synchronously; if it errors
// and the invocation is resumable, the suspension names destBase/destSpan (this frame's window, at argsBase's
// call-result span) so Resume can splice substitute values in without replaying the host call.
func (ce *callEngine) dispatch(ctx context.Context, f *callFrame, callee *runtimeFunction, argsBase wazeroir.Slot, resultSpan wazeroir.FixedSlotSpan, resumable bool) (*pendingTrap, error) {
	if callee.isHost() {
		args := ce.readSpan(f, argsBase, len(callee.typ.Params))
		f.ip++
		results, err := callHostFunc(ctx, callee, args)
		if err != nil {
			if resumable {
				return &pendingTrap{
					ce: ce, cause: err,
					hasDest: true, destBase: f.base, destSpan: resultSpan,
				}, nil
			}
			return nil, wrapTrap(callee.def.DebugName(), err)
		}
		for i, v := range results {
			ce.stack[f.base+int(resultSpan.Base)+i] = v
		}
		return nil, nil
	}

	if len(ce.frames) >= maxCallDepth {
		ce.trap(wasmruntime.TrapCodeStackOverflow)
	}
	args := ce.readSpan(f, argsBase, len(callee.typ.Params))
	f.ip++

	window := int(callee.code.NumLocals + callee.code.NumTemps)
	base := len(ce.stack)
	ce.stack = append(ce.stack, make([]wasm.UntypedVal, window)...)
	copy(ce.stack[base:base+len(args)], args)
	ce.frames = append(ce.frames, callFrame{fn: callee, base: base, retBase: f.base, retSpan: resultSpan})
	return nil, nil
}

func (ce *callEngine) readSpan(f *callFrame, base wazeroir.Slot, n int) []wasm.UntypedVal {
	out := make([]wasm.UntypedVal, n)
	for i := range out {
		out[i] = ce.local(f, base+wazeroir.Slot(i))
	}
	return out
}

// --- loads / stores ---

func (ce *callEngine) effectiveAddr(f *callFrame, instr wazeroir.Instruction, addrSlot wazeroir.Slot) uint64 {
	off := uint64(instr.Offset16)
	if instr.HasWideOffset {
		off = uint64(instr.Offset64)
	}
	return ce.local(f, addrSlot).U64() + off
}

func (ce *callEngine) execLoad(f *callFrame, instr wazeroir.Instruction) {
	mem := ce.resolveMemory(f, instr.Aux)
	addr := ce.effectiveAddr(f, instr, instr.Rs1)
	if addr > math.MaxUint32 {
		ce.trap(wasmruntime.TrapCodeMemoryOutOfBounds)
	}
	off := uint32(addr)
	var v wasm.UntypedVal
	var ok bool
	switch instr.Op {
	case wazeroir.OpI32Load, wazeroir.OpF32Load:
		var u32 uint32
		u32, ok = mem.ReadUint32Le(off)
		v = wasm.UntypedVal(u32)
	case wazeroir.OpI64Load, wazeroir.OpF64Load:
		var u64 uint64
		u64, ok = mem.ReadUint64Le(off)
		v = wasm.UntypedVal(u64)
	case wazeroir.OpI32Load8S:
		var b byte
		b, ok = mem.ReadByte(off)
		v = wasm.FromI32(int32(int8(b)))
	case wazeroir.OpI32Load8U:
		var b byte
		b, ok = mem.ReadByte(off)
		v = wasm.FromI32(int32(b))
	case wazeroir.OpI32Load16S:
		var u16 uint16
		u16, ok = mem.ReadUint16Le(off)
		v = wasm.FromI32(int32(int16(u16)))
	case wazeroir.OpI32Load16U:
		var u16 uint16
		u16, ok = mem.ReadUint16Le(off)
		v = wasm.FromI32(int32(u16))
	case wazeroir.OpI64Load8S:
		var b byte
		b, ok = mem.ReadByte(off)
		v = wasm.FromI64(int64(int8(b)))
	case wazeroir.OpI64Load8U:
		var b byte
		b, ok = mem.ReadByte(off)
		v = wasm.FromI64(int64(b))
	case wazeroir.OpI64Load16S:
		var u16 uint16
		u16, ok = mem.ReadUint16Le(off)
		v = wasm.FromI64(int64(int16(u16)))
	case wazeroir.OpI64Load16U:
		var u16 uint16
		u16, ok = mem.ReadUint16Le(off)
		v = wasm.FromI64(int64(u16))
	case wazeroir.OpI64Load32S:
		var u32 uint32
		u32, ok = mem.ReadUint32Le(off)
		v = wasm.FromI64(int64(int32(u32)))
	case wazeroir.OpI64Load32U:
		var u32 uint32
		u32, ok = mem.ReadUint32Le(off)
		v = wasm.FromI64(int64(u32))
	}
	if !ok {
		ce.trap(wasmruntime.TrapCodeMemoryOutOfBounds)
	}
	ce.setLocal(f, instr.Rd, v)
}

func (ce *callEngine) execStore(f *callFrame, instr wazeroir.Instruction) {
	mem := ce.resolveMemory(f, instr.Aux)
	addr := ce.effectiveAddr(f, instr, instr.Rs1)
	if addr > math.MaxUint32 {
		ce.trap(wasmruntime.TrapCodeMemoryOutOfBounds)
	}
	off := uint32(addr)
	val := ce.local(f, instr.Rs2)
	var ok bool
	switch instr.Op {
	case wazeroir.OpI32Store, wazeroir.OpF32Store:
		ok = mem.WriteUint32Le(off, val.U32())
	case wazeroir.OpI64Store, wazeroir.OpF64Store:
		ok = mem.WriteUint64Le(off, val.U64())
	case wazeroir.OpI32Store8, wazeroir.OpI64Store8:
		ok = mem.WriteByte(off, byte(val.U64()))
	case wazeroir.OpI32Store16, wazeroir.OpI64Store16:
		ok = mem.WriteUint16Le(off, uint16(val.U64()))
	case wazeroir.OpI64Store32:
		ok = mem.WriteUint32Le(off, uint32(val.U64()))
	}
	if !ok {
		ce.trap(wasmruntime.TrapCodeMemoryOutOfBounds)
	}
}

// --- compare / arithmetic / unary / convert ---

func (ce *callEngine) execCompare(f *callFrame, instr wazeroir.Instruction) {
	lhs, rhs := ce.local(f, instr.Rs1), ce.local(f, instr.Rs2)
	var b bool
	switch instr.Op {
	case wazeroir.OpI32Eq:
		b = lhs.I32() == rhs.I32()
	case wazeroir.OpI32Ne:
		b = lhs.I32() != rhs.I32()
	case wazeroir.OpI32LtS:
		b = lhs.I32() < rhs.I32()
	case wazeroir.OpI32LtU:
		b = lhs.U32() < rhs.U32()
	case wazeroir.OpI32GtS:
		b = lhs.I32() > rhs.I32()
	case wazeroir.OpI32GtU:
		b = lhs.U32() > rhs.U32()
	case wazeroir.OpI32LeS:
		b = lhs.I32() <= rhs.I32()
	case wazeroir.OpI32LeU:
		b = lhs.U32() <= rhs.U32()
	case wazeroir.OpI32GeS:
		b = lhs.I32() >= rhs.I32()
	case wazeroir.OpI32GeU:
		b = lhs.U32() >= rhs.U32()
	case wazeroir.OpI64Eq:
		b = lhs.I64() == rhs.I64()
	case wazeroir.OpI64Ne:
		b = lhs.I64() != rhs.I64()
	case wazeroir.OpI64LtS:
		b = lhs.I64() < rhs.I64()
	case wazeroir.OpI64LtU:
		b = lhs.U64() < rhs.U64()
	case wazeroir.OpI64GtS:
		b = lhs.I64() > rhs.I64()
	case wazeroir.OpI64GtU:
		b = lhs.U64() > rhs.U64()
	case wazeroir.OpI64LeS:
		b = lhs.I64() <= rhs.I64()
	case wazeroir.OpI64LeU:
		b = lhs.U64() <= rhs.U64()
	case wazeroir.OpI64GeS:
		b = lhs.I64() >= rhs.I64()
	case wazeroir.OpI64GeU:
		b = lhs.U64() >= rhs.U64()
	case wazeroir.OpF32Eq:
		b = lhs.F32() == rhs.F32()
	case wazeroir.OpF32Ne:
		b = lhs.F32() != rhs.F32()
	case wazeroir.OpF32Lt:
		b = lhs.F32() < rhs.F32()
	case wazeroir.OpF32Gt:
		b = lhs.F32() > rhs.F32()
	case wazeroir.OpF32Le:
		b = lhs.F32() <= rhs.F32()
	case wazeroir.OpF32Ge:
		b = lhs.F32() >= rhs.F32()
	case wazeroir.OpF64Eq:
		b = lhs.F64() == rhs.F64()
	case wazeroir.OpF64Ne:
		b = lhs.F64() != rhs.F64()
	case wazeroir.OpF64Lt:
		b = lhs.F64() < rhs.F64()
	case wazeroir.OpF64Gt:
		b = lhs.F64() > rhs.F64()
	case wazeroir.OpF64Le:
		b = lhs.F64() <= rhs.F64()
	case wazeroir.OpF64Ge:
		b = lhs.F64() >= rhs.F64()
	}
	ce.setLocal(f, instr.Rd, boolVal(b))
}

func (ce *callEngine) execBinary(f *callFrame, instr wazeroir.Instruction) {
	lhs, rhs := ce.local(f, instr.Rs1), ce.local(f, instr.Rs2)
	var out wasm.UntypedVal
	switch instr.Op {
	case wazeroir.OpI32Add:
		out = wasm.FromI32(lhs.I32() + rhs.I32())
	case wazeroir.OpI32Sub:
		out = wasm.FromI32(lhs.I32() - rhs.I32())
	case wazeroir.OpI32Mul:
		out = wasm.FromI32(lhs.I32() * rhs.I32())
	case wazeroir.OpI32DivS:
		l, r := lhs.I32(), rhs.I32()
		if r == 0 {
			ce.trap(wasmruntime.TrapCodeIntegerDivisionByZero)
		}
		if l == math.MinInt32 && r == -1 {
			ce.trap(wasmruntime.TrapCodeIntegerOverflow)
		}
		out = wasm.FromI32(l / r)
	case wazeroir.OpI32DivU:
		if rhs.U32() == 0 {
			ce.trap(wasmruntime.TrapCodeIntegerDivisionByZero)
		}
		out = wasm.FromI32(int32(lhs.U32() / rhs.U32()))
	case wazeroir.OpI32RemS:
		l, r := lhs.I32(), rhs.I32()
		if r == 0 {
			ce.trap(wasmruntime.TrapCodeIntegerDivisionByZero)
		}
		if l == math.MinInt32 && r == -1 {
			out = wasm.FromI32(0)
		} else {
			out = wasm.FromI32(l % r)
		}
	case wazeroir.OpI32RemU:
		if rhs.U32() == 0 {
			ce.trap(wasmruntime.TrapCodeIntegerDivisionByZero)
		}
		out = wasm.FromI32(int32(lhs.U32() % rhs.U32()))
	case wazeroir.OpI32And:
		out = wasm.FromI32(lhs.I32() & rhs.I32())
	case wazeroir.OpI32Or:
		out = wasm.FromI32(lhs.I32() | rhs.I32())
	case wazeroir.OpI32Xor:
		out = wasm.FromI32(lhs.I32() ^ rhs.I32())
	case wazeroir.OpI32Shl:
		out = wasm.FromI32(lhs.I32() << (rhs.U32() & 31))
	case wazeroir.OpI32ShrS:
		out = wasm.FromI32(lhs.I32() >> (rhs.U32() & 31))
	case wazeroir.OpI32ShrU:
		out = wasm.FromI32(int32(lhs.U32() >> (rhs.U32() & 31)))
	case wazeroir.OpI32Rotl:
		out = wasm.FromI32(int32(bits.RotateLeft32(lhs.U32(), int(rhs.U32()&31))))
	case wazeroir.OpI32Rotr:
		out = wasm.FromI32(int32(bits.RotateLeft32(lhs.U32(), -int(rhs.U32()&31))))

	case wazeroir.OpI64Add:
		out = wasm.FromI64(lhs.I64() + rhs.I64())
	case wazeroir.OpI64Sub:
		out = wasm.FromI64(lhs.I64() - rhs.I64())
	case wazeroir.OpI64Mul:
		out = wasm.FromI64(lhs.I64() * rhs.I64())
	case wazeroir.OpI64DivS:
		l, r := lhs.I64(), rhs.I64()
		if r == 0 {
			ce.trap(wasmruntime.TrapCodeIntegerDivisionByZero)
		}
		if l == math.MinInt64 && r == -1 {
			ce.trap(wasmruntime.TrapCodeIntegerOverflow)
		}
		out = wasm.FromI64(l / r)
	case wazeroir.OpI64DivU:
		if rhs.U64() == 0 {
			ce.trap(wasmruntime.TrapCodeIntegerDivisionByZero)
		}
		out = wasm.FromI64(int64(lhs.U64() / rhs.U64()))
	case wazeroir.OpI64RemS:
		l, r := lhs.I64(), rhs.I64()
		if r == 0 {
			ce.trap(wasmruntime.TrapCodeIntegerDivisionByZero)
		}
		if l == math.MinInt64 && r == -1 {
			out = wasm.FromI64(0)
		} else {
			out = wasm.FromI64(l % r)
		}
	case wazeroir.OpI64RemU:
		if rhs.U64() == 0 {
			ce.trap(wasmruntime.TrapCodeIntegerDivisionByZero)
		}
		out = wasm.FromI64(int64(lhs.U64() % rhs.U64()))
	case wazeroir.OpI64And:
		out = wasm.FromI64(lhs.I64() & rhs.I64())
	case wazeroir.OpI64Or:
		out = wasm.FromI64(lhs.I64() | rhs.I64())
	case wazeroir.OpI64Xor:
		out = wasm.FromI64(lhs.I64() ^ rhs.I64())
	case wazeroir.OpI64Shl:
		out = wasm.FromI64(lhs.I64() << (rhs.U64() & 63))
	case wazeroir.OpI64ShrS:
		out = wasm.FromI64(lhs.I64() >> (rhs.U64() & 63))
	case wazeroir.OpI64ShrU:
		out = wasm.FromI64(int64(lhs.U64() >> (rhs.U64() & 63)))
	case wazeroir.OpI64Rotl:
		out = wasm.FromI64(int64(bits.RotateLeft64(lhs.U64(), int(rhs.U64()&63))))
	case wazeroir.OpI64Rotr:
		out = wasm.FromI64(int64(bits.RotateLeft64(lhs.U64(), -int(rhs.U64()&63))))

	case wazeroir.OpF32Add:
		out = wasm.FromF32(lhs.F32() + rhs.F32())
	case wazeroir.OpF32Sub:
		out = wasm.FromF32(lhs.F32() - rhs.F32())
	case wazeroir.OpF32Mul:
		out = wasm.FromF32(lhs.F32() * rhs.F32())
	case wazeroir.OpF32Div:
		out = wasm.FromF32(lhs.F32() / rhs.F32())
	case wazeroir.OpF32Min:
		out = wasm.FromF32(float32(moremath.WasmCompatMin(float64(lhs.F32()), float64(rhs.F32()))))
	case wazeroir.OpF32Max:
		out = wasm.FromF32(float32(moremath.WasmCompatMax(float64(lhs.F32()), float64(rhs.F32()))))
	case wazeroir.OpF32Copysign:
		out = wasm.FromF32(float32(math.Copysign(float64(lhs.F32()), float64(rhs.F32()))))

	case wazeroir.OpF64Add:
		out = wasm.FromF64(lhs.F64() + rhs.F64())
	case wazeroir.OpF64Sub:
		out = wasm.FromF64(lhs.F64() - rhs.F64())
	case wazeroir.OpF64Mul:
		out = wasm.FromF64(lhs.F64() * rhs.F64())
	case wazeroir.OpF64Div:
		out = wasm.FromF64(lhs.F64() / rhs.F64())
	case wazeroir.OpF64Min:
		out = wasm.FromF64(moremath.WasmCompatMin(lhs.F64(), rhs.F64()))
	case wazeroir.OpF64Max:
		out = wasm.FromF64(moremath.WasmCompatMax(lhs.F64(), rhs.F64()))
	case wazeroir.OpF64Copysign:
		out = wasm.FromF64(math.Copysign(lhs.F64(), rhs.F64()))

	case wazeroir.OpRefEq:
		out = boolVal(lhs == rhs)
	}
	ce.setLocal(f, instr.Rd, out)
}

func (ce *callEngine) execUnary(f *callFrame, instr wazeroir.Instruction) {
	v := ce.local(f, instr.Rs1)
	var out wasm.UntypedVal
	switch instr.Op {
	case wazeroir.OpI32Clz:
		out = wasm.FromI32(int32(bits.LeadingZeros32(v.U32())))
	case wazeroir.OpI32Ctz:
		out = wasm.FromI32(int32(bits.TrailingZeros32(v.U32())))
	case wazeroir.OpI32Popcnt:
		out = wasm.FromI32(int32(bits.OnesCount32(v.U32())))
	case wazeroir.OpI64Clz:
		out = wasm.FromI64(int64(bits.LeadingZeros64(v.U64())))
	case wazeroir.OpI64Ctz:
		out = wasm.FromI64(int64(bits.TrailingZeros64(v.U64())))
	case wazeroir.OpI64Popcnt:
		out = wasm.FromI64(int64(bits.OnesCount64(v.U64())))
	case wazeroir.OpF32Abs:
		out = wasm.FromF32(float32(math.Abs(float64(v.F32()))))
	case wazeroir.OpF32Neg:
		out = wasm.FromF32(-v.F32())
	case wazeroir.OpF32Ceil:
		out = wasm.FromF32(float32(math.Ceil(float64(v.F32()))))
	case wazeroir.OpF32Floor:
		out = wasm.FromF32(float32(math.Floor(float64(v.F32()))))
	case wazeroir.OpF32Trunc:
		out = wasm.FromF32(float32(math.Trunc(float64(v.F32()))))
	case wazeroir.OpF32Nearest:
		out = wasm.FromF32(float32(math.RoundToEven(float64(v.F32()))))
	case wazeroir.OpF32Sqrt:
		out = wasm.FromF32(float32(math.Sqrt(float64(v.F32()))))
	case wazeroir.OpF64Abs:
		out = wasm.FromF64(math.Abs(v.F64()))
	case wazeroir.OpF64Neg:
		out = wasm.FromF64(-v.F64())
	case wazeroir.OpF64Ceil:
		out = wasm.FromF64(math.Ceil(v.F64()))
	case wazeroir.OpF64Floor:
		out = wasm.FromF64(math.Floor(v.F64()))
	case wazeroir.OpF64Trunc:
		out = wasm.FromF64(math.Trunc(v.F64()))
	case wazeroir.OpF64Nearest:
		out = wasm.FromF64(math.RoundToEven(v.F64()))
	case wazeroir.OpF64Sqrt:
		out = wasm.FromF64(math.Sqrt(v.F64()))
	}
	ce.setLocal(f, instr.Rd, out)
}

func (ce *callEngine) execConvert(f *callFrame, instr wazeroir.Instruction) {
	v := ce.local(f, instr.Rs1)
	var out wasm.UntypedVal
	switch instr.Op {
	case wazeroir.OpI32WrapI64:
		out = wasm.FromI32(int32(v.I64()))
	case wazeroir.OpI64ExtendI32S:
		out = wasm.FromI64(int64(v.I32()))
	case wazeroir.OpI64ExtendI32U:
		out = wasm.FromI64(int64(v.U32()))
	case wazeroir.OpI32TruncF32S:
		out = wasm.FromI32(truncToI32(ce, float64(v.F32()), math.MinInt32, math.MaxInt32, false))
	case wazeroir.OpI32TruncF32U:
		out = wasm.FromI32(int32(truncToU32(ce, float64(v.F32()), math.MaxUint32, false)))
	case wazeroir.OpI32TruncF64S:
		out = wasm.FromI32(truncToI32(ce, v.F64(), math.MinInt32, math.MaxInt32, false))
	case wazeroir.OpI32TruncF64U:
		out = wasm.FromI32(int32(truncToU32(ce, v.F64(), math.MaxUint32, false)))
	case wazeroir.OpI64TruncF32S:
		out = wasm.FromI64(truncToI64(ce, float64(v.F32()), false))
	case wazeroir.OpI64TruncF32U:
		out = wasm.FromI64(int64(truncToU64(ce, float64(v.F32()), false)))
	case wazeroir.OpI64TruncF64S:
		out = wasm.FromI64(truncToI64(ce, v.F64(), false))
	case wazeroir.OpI64TruncF64U:
		out = wasm.FromI64(int64(truncToU64(ce, v.F64(), false)))
	case wazeroir.OpF32ConvertI32S:
		out = wasm.FromF32(float32(v.I32()))
	case wazeroir.OpF32ConvertI32U:
		out = wasm.FromF32(float32(v.U32()))
	case wazeroir.OpF32ConvertI64S:
		out = wasm.FromF32(float32(v.I64()))
	case wazeroir.OpF32ConvertI64U:
		out = wasm.FromF32(float32(v.U64()))
	case wazeroir.OpF64ConvertI32S:
		out = wasm.FromF64(float64(v.I32()))
	case wazeroir.OpF64ConvertI32U:
		out = wasm.FromF64(float64(v.U32()))
	case wazeroir.OpF64ConvertI64S:
		out = wasm.FromF64(float64(v.I64()))
	case wazeroir.OpF64ConvertI64U:
		out = wasm.FromF64(float64(v.U64()))
	case wazeroir.OpF32DemoteF64:
		out = wasm.FromF32(float32(v.F64()))
	case wazeroir.OpF64PromoteF32:
		out = wasm.FromF64(float64(v.F32()))
	case wazeroir.OpI32ReinterpretF32, wazeroir.OpF32ReinterpretI32:
		out = v
	case wazeroir.OpI64ReinterpretF64, wazeroir.OpF64ReinterpretI64:
		out = v
	case wazeroir.OpI32Extend8S:
		out = wasm.FromI32(int32(int8(v.I32())))
	case wazeroir.OpI32Extend16S:
		out = wasm.FromI32(int32(int16(v.I32())))
	case wazeroir.OpI64Extend8S:
		out = wasm.FromI64(int64(int8(v.I64())))
	case wazeroir.OpI64Extend16S:
		out = wasm.FromI64(int64(int16(v.I64())))
	case wazeroir.OpI64Extend32S:
		out = wasm.FromI64(int64(int32(v.I64())))
	case wazeroir.OpI32TruncSatF32S:
		out = wasm.FromI32(truncToI32(ce, float64(v.F32()), math.MinInt32, math.MaxInt32, true))
	case wazeroir.OpI32TruncSatF32U:
		out = wasm.FromI32(int32(truncToU32(ce, float64(v.F32()), math.MaxUint32, true)))
	case wazeroir.OpI32TruncSatF64S:
		out = wasm.FromI32(truncToI32(ce, v.F64(), math.MinInt32, math.MaxInt32, true))
	case wazeroir.OpI32TruncSatF64U:
		out = wasm.FromI32(int32(truncToU32(ce, v.F64(), math.MaxUint32, true)))
	case wazeroir.OpI64TruncSatF32S:
		out = wasm.FromI64(truncToI64(ce, float64(v.F32()), true))
	case wazeroir.OpI64TruncSatF32U:
		out = wasm.FromI64(int64(truncToU64(ce, float64(v.F32()), true)))
	case wazeroir.OpI64TruncSatF64S:
		out = wasm.FromI64(truncToI64(ce, v.F64(), true))
	case wazeroir.OpI64TruncSatF64U:
		out = wasm.FromI64(int64(truncToU64(ce, v.F64(), true)))
	}
	ce.setLocal(f, instr.Rd, out)
}

func truncToI32(ce *callEngine, f float64, lo, hi float64, sat bool) int32 {
	if math.IsNaN(f) {
		if sat {
			return 0
		}
		ce.trap(wasmruntime.TrapCodeBadConversionToInteger)
	}
	tr := math.Trunc(f)
	if tr < lo || tr >= hi+1 {
		if sat {
			if tr < lo {
				return math.MinInt32
			}
			return math.MaxInt32
		}
		ce.trap(wasmruntime.TrapCodeIntegerOverflow)
	}
	return int32(tr)
}

func truncToU32(ce *callEngine, f float64, hi float64, sat bool) uint32 {
	if math.IsNaN(f) {
		if sat {
			return 0
		}
		ce.trap(wasmruntime.TrapCodeBadConversionToInteger)
	}
	tr := math.Trunc(f)
	if tr < 0 || tr >= hi+1 {
		if sat {
			if tr < 0 {
				return 0
			}
			return math.MaxUint32
		}
		ce.trap(wasmruntime.TrapCodeIntegerOverflow)
	}
	return uint32(tr)
}

func truncToI64(ce *callEngine, f float64, sat bool) int64 {
	if math.IsNaN(f) {
		if sat {
			return 0
		}
		ce.trap(wasmruntime.TrapCodeBadConversionToInteger)
	}
	tr := math.Trunc(f)
	if tr < math.MinInt64 || tr >= math.MaxInt64 {
		if sat {
			if tr < 0 {
				return math.MinInt64
			}
			return math.MaxInt64
		}
		ce.trap(wasmruntime.TrapCodeIntegerOverflow)
	}
	return int64(tr)
}

func truncToU64(ce *callEngine, f float64, sat bool) uint64 {
	if math.IsNaN(f) {
		if sat {
			return 0
		}
		ce.trap(wasmruntime.TrapCodeBadConversionToInteger)
	}
	tr := math.Trunc(f)
	if tr < 0 || tr >= math.MaxUint64 {
		if sat {
			if tr < 0 {
				return 0
			}
			return math.MaxUint64
		}
		ce.trap(wasmruntime.TrapCodeIntegerOverflow)
	}
	return uint64(tr)
}
