package wazeroir

// Instruction is one IR operator: an opcode plus the small, fixed set of operand fields its shape uses. Every
// instruction that produces a value names its destination slot explicitly (Rd) — there is no implicit push, which
// is the defining departure from the Wasm stack machine this IR is lowered from.
//
// wazeroc represents the operand tail as struct fields rather than a packed word stream: both encode the same
// fixed-kind variant space a tagged union would need, but a Go struct slice decodes without bit-unpacking, which is more
// idiomatic Go than hand-rolled binary layout (see DESIGN.md for the tradeoff).
type Instruction struct {
	Op Opcode

	// Rd is the destination slot for instructions that produce one value.
	Rd Slot
	// Rs1, Rs2 are source slots for unary/binary/compare/store/table-set shapes.
	Rs1, Rs2 Slot
	// Rs3 carries OpSelect's condition operand, the one shape needing a third source slot.
	Rs3 Slot

	// Imm carries a 16-or-narrower immediate for *_imm forms (Const16 in spec terms); wider constants are
	// referenced through Rs1/Rs2 as negative (constant-pool) slots instead of through Imm.
	Imm int64

	// Offset16/Offset64 carry a load/store's static offset; Offset64 is populated only when it would not fit in
	// Offset16.
	Offset16 Offset16
	Offset64 Offset64
	HasWideOffset bool

	// Aux indexes into the owning CompiledFunction's side tables: MemoryIdx/TableIdx/GlobalIdx/FuncIdx, or the
	// BranchTables/CopySpans index for OpBrTable/OpCopyN.
	Aux uint32
	// Aux2 carries a second index where one instruction needs it: OpCallIndirect's declared function type (checked
	// against the table entry's actual type at the call site).
	Aux2 uint32

	// Span names the destination range of a call's results (for any call with at least one result) and the source
	// range of OpReturn's values; OpCopyN names its spans through Aux instead.
	Span FixedSlotSpan

	// BranchOffset is the relative instruction-index displacement for OpBr/OpBrIf, already fixed up by the time
	// translation completes.
	BranchOffset int32
	DropKeep     DropKeep
}

// CopySpan describes one OpCopyN: copy len(Src) values from Src to Dst, honoring simultaneous-update semantics
// when the ranges overlap.
type CopySpan struct {
	Dst, Src []Slot
}
