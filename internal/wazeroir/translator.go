package wazeroir

import (
	"github.com/wazeroc/wazeroc/internal/wasm"
)

// Translator lowers one validated Wasm function body into a CompiledFunction. It makes a single forward pass over
// the body, emulating the Wasm operand stack with a stack of providers and allocating register slots lazily: a
// value only occupies a slot once some later instruction demands one.
//
// A Translator is single-use: construct one per function body.
type Translator struct {
	module    *wasm.Module
	fnType    wasm.FunctionType
	code      *wasm.Code
	debugName string

	instrs []Instruction
	consts *wasm.DedupArena[wasm.UntypedVal]

	providers []provider
	frames    []*controlFrame

	numLocals int
	tempTop   int
	maxTemp   int

	branchTables [][]BranchTableTarget
	copySpans    []CopySpan

	skipping bool
	skipDepth int

	// constsOverflow records that slotFor found the constant pool full; Translate reports it as an error.
	constsOverflow bool
}

// NewTranslator constructs a Translator for one function. fnType is the function's own signature; code is its
// declared locals and validated operator stream; debugName identifies it in traps and stack traces.
func NewTranslator(module *wasm.Module, fnType wasm.FunctionType, code *wasm.Code, debugName string) *Translator {
	return &Translator{
		module:    module,
		fnType:    fnType,
		code:      code,
		debugName: debugName,
		consts:    wasm.NewDedupArena[wasm.UntypedVal]("func-local-consts", MaxFuncLocalConsts),
		numLocals: len(fnType.Params) + len(code.LocalTypes),
	}
}

// Translate lowers the function body into a CompiledFunction.
func (t *Translator) Translate() (*CompiledFunction, error) {
	if t.numLocals > MaxSlots {
		return nil, errTooManySlots(t.debugName, t.numLocals)
	}

	fn := &controlFrame{
		kind:             frameFunction,
		numParams:        len(t.fnType.Params),
		numResults:       len(t.fnType.Results),
		blockType:        t.fnType,
		ifSkipInstrIdx:   -1,
		tempTopAtEntry:   0,
	}
	fn.resultSlots = make([]Slot, fn.numResults)
	for i := range fn.resultSlots {
		fn.resultSlots[i] = t.allocTemp()
	}
	t.frames = append(t.frames, fn)

	for _, instr := range t.code.Body {
		if err := t.step(instr); err != nil {
			return nil, err
		}
	}

	if len(t.frames) != 0 {
		return nil, errUnbalancedControlStack(t.debugName)
	}
	if t.maxTemp > MaxSlots-t.numLocals {
		return nil, errTooManySlots(t.debugName, t.numLocals+t.maxTemp)
	}
	if t.constsOverflow {
		return nil, errTooManyConsts(t.debugName, t.consts.Len()+1)
	}

	return &CompiledFunction{
		Instrs:       t.instrs,
		Consts:       t.consts.All(),
		NumLocals:    uint32(t.numLocals),
		NumTemps:     uint32(t.maxTemp),
		BranchTables: t.branchTables,
		CopySpans:    t.copySpans,
		Type:         t.fnType,
		DebugName:    t.debugName,
	}, nil
}

// step dispatches one source instruction, honoring dead-code skipping across nested structured control.
func (t *Translator) step(instr wasm.WasmInstr) error {
	if t.skipping {
		switch instr.Op {
		case wasm.OpBlock, wasm.OpLoop, wasm.OpIf:
			t.skipDepth++
			return nil
		case wasm.OpElse:
			if t.skipDepth == 0 {
				t.skipping = false
				return t.translateElse()
			}
			return nil
		case wasm.OpEnd:
			if t.skipDepth == 0 {
				t.skipping = false
				return t.translateEnd()
			}
			t.skipDepth--
			return nil
		default:
			return nil
		}
	}
	return t.translateInstr(instr)
}

func (t *Translator) translateInstr(instr wasm.WasmInstr) error {
	switch instr.Op {
	case wasm.OpUnreachable:
		t.emit(Instruction{Op: OpUnreachable})
		t.enterUnreachable()
		return nil
	case wasm.OpNop:
		return nil
	case wasm.OpBlock:
		return t.translateBlock(instr)
	case wasm.OpLoop:
		return t.translateLoop(instr)
	case wasm.OpIf:
		return t.translateIf(instr)
	case wasm.OpElse:
		return t.translateElse()
	case wasm.OpEnd:
		return t.translateEnd()
	case wasm.OpBr:
		return t.translateBr(uint32(instr.Imm))
	case wasm.OpBrIf:
		return t.translateBrIf(uint32(instr.Imm))
	case wasm.OpBrTable:
		return t.translateBrTable(instr)
	case wasm.OpReturn:
		return t.translateReturn()
	case wasm.OpCall:
		return t.translateCall(instr)
	case wasm.OpCallIndirect:
		return t.translateCallIndirect(instr)
	case wasm.OpDrop:
		t.pop()
		return nil
	case wasm.OpSelect:
		return t.translateSelect()
	case wasm.OpLocalGet:
		t.push(localProvider(Slot(instr.Index)))
		return nil
	case wasm.OpLocalSet:
		return t.translateLocalSetTee(instr, false)
	case wasm.OpLocalTee:
		return t.translateLocalSetTee(instr, true)
	case wasm.OpGlobalGet:
		rd := t.allocTemp()
		t.emit(Instruction{Op: OpGlobalGet, Rd: rd, Aux: instr.Index})
		t.push(tempProvider(rd))
		return nil
	case wasm.OpGlobalSet:
		v := t.slotFor(t.pop())
		t.emit(Instruction{Op: OpGlobalSet, Rs1: v, Aux: instr.Index})
		return nil
	case wasm.OpTableGet:
		idx := t.slotFor(t.pop())
		rd := t.allocTemp()
		t.emit(Instruction{Op: OpTableGet, Rd: rd, Rs1: idx, Aux: instr.Index})
		t.push(tempProvider(rd))
		return nil
	case wasm.OpTableSet:
		v := t.slotFor(t.pop())
		idx := t.slotFor(t.pop())
		t.emit(Instruction{Op: OpTableSet, Rs1: idx, Rs2: v, Aux: instr.Index})
		return nil
	case wasm.OpRefNull:
		t.push(constProvider(wasm.NullRef))
		return nil
	case wasm.OpRefFunc:
		t.push(constProvider(wasm.FromRef(instr.Imm)))
		return nil
	case wasm.OpRefIsNull:
		v := t.slotFor(t.pop())
		rd := t.allocTemp()
		t.emit(Instruction{Op: OpRefIsNull, Rd: rd, Rs1: v})
		t.push(tempProvider(rd))
		return nil
	case wasm.OpMemorySize:
		rd := t.allocTemp()
		t.emit(Instruction{Op: OpMemorySize, Rd: rd, Aux: instr.Index})
		t.push(tempProvider(rd))
		return nil
	case wasm.OpMemoryGrow:
		delta := t.slotFor(t.pop())
		rd := t.allocTemp()
		t.emit(Instruction{Op: OpMemoryGrow, Rd: rd, Rs1: delta, Aux: instr.Index})
		t.push(tempProvider(rd))
		return nil
	case wasm.OpI32Const:
		t.push(constProvider(wasm.FromI32(int32(instr.Imm))))
		return nil
	case wasm.OpI64Const:
		t.push(constProvider(wasm.FromI64(int64(instr.Imm))))
		return nil
	case wasm.OpF32Const:
		t.push(constProvider(wasm.UntypedVal(instr.Imm)))
		return nil
	case wasm.OpF64Const:
		t.push(constProvider(wasm.UntypedVal(instr.Imm)))
		return nil
	case wasm.OpI32Eqz, wasm.OpI64Eqz:
		return t.translateUnary(eqzOp(instr.Op))
	case wasm.OpUnary:
		return t.translateUnary(unaryOpcode(instr.Unary))
	case wasm.OpConvert:
		return t.translateUnary(convertOpcode(instr.Convert))
	case wasm.OpRefEq:
		return t.translateBinary(OpRefEq)
	default:
		if isLoadOpcode(instr.Op) {
			return t.translateLoad(instr)
		}
		if isStoreOpcode(instr.Op) {
			return t.translateStore(instr)
		}
		if isArithOpcode(instr.Op) {
			return t.translateArith(instr)
		}
		if isCmpOpcode(instr.Op) {
			return t.translateCmp(instr)
		}
	}
	return &TranslationError{Func: t.debugName, Reason: "unsupported source opcode"}
}

// --- structured control ---

func (t *Translator) openFrame(kind controlFrameKind, bt wasm.FunctionType) *controlFrame {
	f := &controlFrame{
		kind:                       kind,
		numParams:                  len(bt.Params),
		numResults:                 len(bt.Results),
		blockType:                  bt,
		providerStackHeightAtEntry: len(t.providers) - len(bt.Params),
		tempTopAtEntry:             t.tempTop,
		ifSkipInstrIdx:             -1,
	}
	if kind == frameLoop {
		f.paramSlots = make([]Slot, f.numParams)
		for i := range f.paramSlots {
			f.paramSlots[i] = t.allocTemp()
		}
	}
	f.resultSlots = make([]Slot, f.numResults)
	for i := range f.resultSlots {
		f.resultSlots[i] = t.allocTemp()
	}
	t.frames = append(t.frames, f)
	return f
}

func (t *Translator) translateBlock(instr wasm.WasmInstr) error {
	t.openFrame(frameBlock, instr.BlockType)
	return nil
}

func (t *Translator) translateLoop(instr wasm.WasmInstr) error {
	f := t.openFrame(frameLoop, instr.BlockType)
	if err := t.spillTop(f.numParams, f.paramSlots); err != nil {
		return err
	}
	f.loopHeadInstrIdx = len(t.instrs)
	return nil
}

func (t *Translator) translateIf(instr wasm.WasmInstr) error {
	condSlot := t.slotFor(t.pop())
	eqz := t.allocTemp()
	t.emit(Instruction{Op: OpI32Eqz, Rd: eqz, Rs1: condSlot})
	t.freeTemps(1)

	f := t.openFrame(frameIf, instr.BlockType)
	f.elseProviders = append([]provider(nil), t.providers[len(t.providers)-f.numParams:]...)
	f.ifSkipInstrIdx = len(t.instrs)
	t.emit(Instruction{Op: OpBrIf, Rs1: eqz, BranchOffset: 0})
	return nil
}

func (t *Translator) translateElse() error {
	f := t.currentFrame()
	t.closeFrameBody(f)

	skipBranchIdx := len(t.instrs)
	t.emit(Instruction{Op: OpBr, BranchOffset: 0})
	f.pendingBranches = append(f.pendingBranches, branchFixup{instrIdx: skipBranchIdx})

	if f.ifSkipInstrIdx >= 0 {
		t.instrs[f.ifSkipInstrIdx].BranchOffset = int32(len(t.instrs) - f.ifSkipInstrIdx)
		f.ifSkipInstrIdx = -1
	}

	t.providers = append(t.providers[:f.providerStackHeightAtEntry], f.elseProviders...)
	t.tempTop = f.tempTopAtEntry + len(f.resultSlots)
	f.unreachable = false
	return nil
}

func (t *Translator) translateEnd() error {
	f := t.currentFrame()
	t.closeFrameBody(f)

	if f.ifSkipInstrIdx >= 0 {
		t.instrs[f.ifSkipInstrIdx].BranchOffset = int32(len(t.instrs) - f.ifSkipInstrIdx)
	}
	for _, b := range f.pendingBranches {
		t.instrs[b.instrIdx].BranchOffset = int32(len(t.instrs) - b.instrIdx)
	}

	t.frames = t.frames[:len(t.frames)-1]

	t.providers = t.providers[:f.providerStackHeightAtEntry]
	t.tempTop = f.tempTopAtEntry + len(f.paramSlots) + len(f.resultSlots)
	for _, s := range f.resultSlots {
		t.push(tempProvider(s))
	}
	if f.kind == frameFunction {
		t.emit(Instruction{Op: OpReturn, Span: FixedSlotSpan{Base: spanBase(f.resultSlots), Count: uint16(len(f.resultSlots))}})
	}
	return nil
}

// closeFrameBody spills the frame body's current top values (its declared results) into f.resultSlots, unless the
// body ended in dead code, in which case there is nothing live to spill.
func (t *Translator) closeFrameBody(f *controlFrame) {
	if !f.unreachable {
		t.spillTopNoPush(f.numResults, f.resultSlots)
	} else {
		t.providers = t.providers[:f.providerStackHeightAtEntry]
	}
}

func (t *Translator) enterUnreachable() {
	f := t.currentFrame()
	f.unreachable = true
	t.skipping = true
	t.skipDepth = 0
}

// --- branches ---

func (t *Translator) translateBr(depth uint32) error {
	f, err := t.frameAt(depth)
	if err != nil {
		return err
	}
	if err := t.emitBranch(f, NoSlot); err != nil {
		return err
	}
	t.enterUnreachable()
	return nil
}

func (t *Translator) translateBrIf(depth uint32) error {
	f, err := t.frameAt(depth)
	if err != nil {
		return err
	}
	cond := t.slotFor(t.pop())
	return t.emitBranch(f, cond)
}

// emitBranch copies the top branchArity() values into the target frame's slots and emits the jump. If condSlot is
// NoSlot the branch is unconditional (br); otherwise it is taken when condSlot is nonzero (br_if). Because br_if
// must leave its operands on the stack when not taken, the values are peeked rather than popped.
func (t *Translator) emitBranch(f *controlFrame, condSlot Slot) error {
	arity := f.branchArity()
	var dst []Slot
	if f.isLoop() {
		dst = f.paramSlots
	} else {
		dst = f.resultSlots
	}
	if len(t.providers) < arity {
		return errInvalidBranchDepth(t.debugName, 0)
	}
	top := t.providers[len(t.providers)-arity:]
	src := make([]Slot, arity)
	for i, p := range top {
		src[i] = t.slotFor(p)
	}
	t.emitMultiCopy(dst, src)

	idx := len(t.instrs)
	if f.isLoop() {
		t.emit(Instruction{Op: OpBr, Rs1: condSlot, BranchOffset: int32(f.loopHeadInstrIdx - idx)})
	} else {
		if condSlot == NoSlot {
			t.emit(Instruction{Op: OpBr, BranchOffset: 0})
		} else {
			t.emit(Instruction{Op: OpBrIf, Rs1: condSlot, BranchOffset: 0})
		}
		f.pendingBranches = append(f.pendingBranches, branchFixup{instrIdx: idx})
	}
	return nil
}

func (t *Translator) translateBrTable(instr wasm.WasmInstr) error {
	if len(instr.BrTable)+1 > MaxBranchTableTargets {
		return errBranchTableTargetsOutOfBounds(t.debugName, len(instr.BrTable)+1)
	}
	idx := t.slotFor(t.pop())

	depths := append(append([]uint32(nil), instr.BrTable...), instr.BrTableDefault)
	trampolineStarts := make([]int, len(depths))
	dropKeeps := make([]DropKeep, len(depths))
	for i, depth := range depths {
		f, err := t.frameAt(depth)
		if err != nil {
			return err
		}
		start, dk, err := t.emitBranchTableTrampoline(f)
		if err != nil {
			return err
		}
		trampolineStarts[i] = start
		dropKeeps[i] = dk
	}

	brTableIdx := len(t.instrs)
	t.emit(Instruction{Op: OpBrTable, Rs1: idx, Aux: uint32(len(t.branchTables))})

	targets := make([]BranchTableTarget, len(depths))
	for i, start := range trampolineStarts {
		targets[i] = BranchTableTarget{Offset: int32(start - brTableIdx), DropKeep: dropKeeps[i]}
	}
	t.branchTables = append(t.branchTables, targets)
	t.enterUnreachable()
	return nil
}

// emitBranchTableTrampoline spills the shared top-of-stack values into f's target slots (every br_table arm reads
// the same source operands, since evaluating the selector does not touch the stack) and emits a tiny copy-then-br
// sequence reaching f's destination, returning that sequence's start index for the caller to compute a relative
// offset once the owning OpBrTable instruction's own index is known.
func (t *Translator) emitBranchTableTrampoline(f *controlFrame) (int, DropKeep, error) {
	arity := f.branchArity()
	var dst []Slot
	if f.isLoop() {
		dst = f.paramSlots
	} else {
		dst = f.resultSlots
	}
	if len(t.providers) < arity {
		return 0, DropKeep{}, errInvalidBranchDepth(t.debugName, 0)
	}
	top := t.providers[len(t.providers)-arity:]
	src := make([]Slot, arity)
	for i, p := range top {
		src[i] = t.slotFor(p)
	}
	start := len(t.instrs)
	t.emitMultiCopy(dst, src)
	if f.isLoop() {
		t.emit(Instruction{Op: OpBr, BranchOffset: int32(f.loopHeadInstrIdx - len(t.instrs))})
	} else {
		idx := len(t.instrs)
		t.emit(Instruction{Op: OpBr, BranchOffset: 0})
		f.pendingBranches = append(f.pendingBranches, branchFixup{instrIdx: idx})
	}
	return start, DropKeep{Keep: uint32(arity)}, nil
}

func (t *Translator) translateReturn() error {
	fn := t.frames[0]
	if err := t.emitBranch(fn, NoSlot); err != nil {
		return err
	}
	t.enterUnreachable()
	return nil
}

// --- calls ---

func (t *Translator) translateCall(instr wasm.WasmInstr) error {
	callee := t.module.TypeOfFunction(instr.Index)
	return t.emitCall(OpCall, instr.Index, callee)
}

func (t *Translator) translateCallIndirect(instr wasm.WasmInstr) error {
	typeIdx := uint32(instr.Imm)
	callee := &t.module.TypeSection[typeIdx]
	tableIdx := instr.Index
	idx := t.slotFor(t.pop())
	args := t.popArgs(len(callee.Params))
	span := t.reserveSpan(len(callee.Results))
	t.emit(Instruction{
		Op:   OpCallIndirect,
		Rs1:  idx,
		Aux:  tableIdx,
		Aux2: typeIdx,
		Span: span,
		Rs2:  t.spillArgs(args),
	})
	t.pushSpan(span)
	return nil
}

func (t *Translator) emitCall(op Opcode, funcIdx uint32, callee *wasm.FunctionType) error {
	args := t.popArgs(len(callee.Params))
	span := t.reserveSpan(len(callee.Results))
	t.emit(Instruction{
		Op:   op,
		Aux:  funcIdx,
		Span: span,
		Rs1:  t.spillArgs(args),
	})
	t.pushSpan(span)
	return nil
}

// popArgs pops n providers (call arguments) off the stack, left-to-right.
func (t *Translator) popArgs(n int) []provider {
	args := make([]provider, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = t.pop()
	}
	return args
}

// spillArgs materializes args into a freshly reserved contiguous slot span (the callee's parameter window),
// returning the span's base slot.
func (t *Translator) spillArgs(args []provider) Slot {
	if len(args) == 0 {
		return NoSlot
	}
	dst := make([]Slot, len(args))
	base := t.allocTemp()
	dst[0] = base
	for i := 1; i < len(args); i++ {
		dst[i] = t.allocTemp()
	}
	src := make([]Slot, len(args))
	for i, a := range args {
		src[i] = t.slotFor(a)
	}
	t.emitMultiCopy(dst, src)
	return base
}

// reserveSpan allocates n contiguous temp slots for a call's results.
func (t *Translator) reserveSpan(n int) FixedSlotSpan {
	if n == 0 {
		return FixedSlotSpan{Base: NoSlot}
	}
	base := t.allocTemp()
	for i := 1; i < n; i++ {
		t.allocTemp()
	}
	return FixedSlotSpan{Base: base, Count: uint16(n)}
}

func (t *Translator) pushSpan(span FixedSlotSpan) {
	for i := uint16(0); i < span.Count; i++ {
		t.push(tempProvider(span.Base + Slot(i)))
	}
}

// --- select ---

func (t *Translator) translateSelect() error {
	cond := t.slotFor(t.pop())
	v2 := t.slotFor(t.pop())
	v1 := t.slotFor(t.pop())
	rd := t.allocTemp()
	t.emit(Instruction{Op: OpSelect, Rd: rd, Rs1: v1, Rs2: v2, Rs3: cond})
	t.push(tempProvider(rd))
	return nil
}

// --- locals ---

// translateLocalSetTee handles local.set (tee=false, pops its operand) and local.tee (tee=true, leaves it on the
// stack — the local gains a copy of the same value already at the top).
func (t *Translator) translateLocalSetTee(instr wasm.WasmInstr, tee bool) error {
	var v provider
	if tee {
		v = t.peek()
	} else {
		v = t.pop()
	}
	t.emit(Instruction{Op: OpCopy, Rd: Slot(instr.Index), Rs1: t.slotFor(v)})
	return nil
}

// --- memory ---

func (t *Translator) translateLoad(instr wasm.WasmInstr) error {
	addr := t.slotFor(t.pop())
	rd := t.allocTemp()
	i := Instruction{Op: loadOpcode(instr.Op), Rd: rd, Rs1: addr, Aux: instr.Index}
	t.setOffset(&i, instr.Imm)
	t.emit(i)
	t.push(tempProvider(rd))
	return nil
}

func (t *Translator) translateStore(instr wasm.WasmInstr) error {
	val := t.slotFor(t.pop())
	addr := t.slotFor(t.pop())
	i := Instruction{Op: storeOpcode(instr.Op), Rs1: addr, Rs2: val, Aux: instr.Index}
	t.setOffset(&i, instr.Imm)
	t.emit(i)
	return nil
}

func (t *Translator) setOffset(i *Instruction, off uint64) {
	if off <= 0xffff {
		i.Offset16 = Offset16(off)
	} else {
		i.Offset64 = Offset64(off)
		i.HasWideOffset = true
	}
}

// --- arithmetic / compare / unary ---

func (t *Translator) translateArith(instr wasm.WasmInstr) error {
	rhs := t.slotFor(t.pop())
	lhs := t.slotFor(t.pop())
	rd := t.allocTemp()
	t.emit(Instruction{Op: arithOpcode(instr.Op, instr.Arith), Rd: rd, Rs1: lhs, Rs2: rhs})
	t.push(tempProvider(rd))
	return nil
}

func (t *Translator) translateCmp(instr wasm.WasmInstr) error {
	rhs := t.slotFor(t.pop())
	lhs := t.slotFor(t.pop())
	rd := t.allocTemp()
	t.emit(Instruction{Op: cmpOpcode(instr.Op, instr.Cmp), Rd: rd, Rs1: lhs, Rs2: rhs})
	t.push(tempProvider(rd))
	return nil
}

func (t *Translator) translateBinary(op Opcode) error {
	rhs := t.slotFor(t.pop())
	lhs := t.slotFor(t.pop())
	rd := t.allocTemp()
	t.emit(Instruction{Op: op, Rd: rd, Rs1: lhs, Rs2: rhs})
	t.push(tempProvider(rd))
	return nil
}

func (t *Translator) translateUnary(op Opcode) error {
	v := t.slotFor(t.pop())
	rd := t.allocTemp()
	t.emit(Instruction{Op: op, Rd: rd, Rs1: v})
	t.push(tempProvider(rd))
	return nil
}

func eqzOp(op wasm.WasmOpcode) Opcode {
	if op == wasm.OpI64Eqz {
		return OpI64Eqz
	}
	return OpI32Eqz
}

// --- provider / slot / temp bookkeeping ---

func (t *Translator) push(p provider) { t.providers = append(t.providers, p) }

func (t *Translator) peek() provider { return t.providers[len(t.providers)-1] }

func (t *Translator) pop() provider {
	p := t.providers[len(t.providers)-1]
	t.providers = t.providers[:len(t.providers)-1]
	if p.isTemp() {
		t.freeTemps(1)
	}
	return p
}

func (t *Translator) allocTemp() Slot {
	s := Slot(t.numLocals + t.tempTop)
	t.tempTop++
	if t.tempTop > t.maxTemp {
		t.maxTemp = t.tempTop
	}
	return s
}

func (t *Translator) freeTemps(n int) { t.tempTop -= n }

// slotFor resolves a provider to a Slot, interning constants into the function-local constant pool on first use.
func (t *Translator) slotFor(p provider) Slot {
	if !p.isConst() {
		return p.slot
	}
	idx, err := t.consts.Alloc(p.val)
	if err != nil {
		// MaxFuncLocalConsts exceeded; Translate's final bounds check surfaces this through constsOverflow instead of
		// threading an error through every slotFor call site.
		t.constsOverflow = true
		return ConstSlot(0)
	}
	return ConstSlot(int(idx))
}

// spillTop materializes the top n providers into dst (in original left-to-right order) and leaves them popped off
// the provider stack; the caller is responsible for re-pushing whatever the destination now represents.
func (t *Translator) spillTop(n int, dst []Slot) error {
	t.spillTopNoPush(n, dst)
	for _, s := range dst {
		t.push(tempProvider(s))
	}
	return nil
}

// spillTopNoPush is spillTop without re-pushing: used when the caller will restore the provider stack height
// itself (frame close).
func (t *Translator) spillTopNoPush(n int, dst []Slot) {
	vals := make([]provider, n)
	for i := n - 1; i >= 0; i-- {
		vals[i] = t.pop()
	}
	src := make([]Slot, n)
	for i, v := range vals {
		src[i] = t.slotFor(v)
	}
	t.emitMultiCopy(dst, src)
}

// emitMultiCopy emits the instruction(s) copying src into dst with simultaneous-update semantics: every source is
// read before any destination is written, so an overlapping dst/src pair (e.g. swapping two slots through a loop's
// backward branch) behaves like a parallel assignment rather than a sequential one.
func (t *Translator) emitMultiCopy(dst, src []Slot) {
	switch len(dst) {
	case 0:
		return
	case 1:
		t.emit(Instruction{Op: OpCopy, Rd: dst[0], Rs1: src[0]})
	default:
		spanIdx := uint32(len(t.copySpans))
		t.copySpans = append(t.copySpans, CopySpan{
			Dst: append([]Slot(nil), dst...),
			Src: append([]Slot(nil), src...),
		})
		t.emit(Instruction{Op: OpCopyN, Aux: spanIdx})
	}
}

func (t *Translator) emit(i Instruction) { t.instrs = append(t.instrs, i) }

func (t *Translator) currentFrame() *controlFrame { return t.frames[len(t.frames)-1] }

func (t *Translator) frameAt(depth uint32) (*controlFrame, error) {
	idx := len(t.frames) - 1 - int(depth)
	if idx < 0 {
		return nil, errInvalidBranchDepth(t.debugName, depth)
	}
	return t.frames[idx], nil
}

func spanBase(slots []Slot) Slot {
	if len(slots) == 0 {
		return NoSlot
	}
	return slots[0]
}
