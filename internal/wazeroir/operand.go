// Package wazeroir is the register-machine intermediate representation that the translator lowers validated
// Wasm bytecode into, and that the interpreter executes.
package wazeroir

// Slot is a signed 16-bit address into the current activation's value-stack window. Non-negative indices name
// parameters/locals (first) then translator-allocated temporaries, in the order they were assigned; negative
// indices name an entry in the owning function's local constant pool. A Slot is a pure address: it carries no
// type information, which is recovered from the instruction that reads it.
type Slot int16

// NoSlot is never a valid operand; instructions that do not use one of their slot fields leave it at this value.
const NoSlot Slot = 1<<15 - 1

// ConstSlot returns the Slot addressing the constIdx'th entry of the function-local constant pool. The bitwise
// complement keeps 0 (a valid non-negative local slot) distinct from the first constant slot.
func ConstSlot(constIdx int) Slot { return ^Slot(constIdx) }

// IsConst reports whether s names a function-local constant rather than a local/temp.
func (s Slot) IsConst() bool { return s < 0 }

// ConstIndex recovers the constant-pool index from a Slot built by ConstSlot. Only valid when IsConst is true.
func (s Slot) ConstIndex() int { return int(^s) }

// Offset16 is the fast-path static memory offset: it fits in 16 bits and is embedded directly in the instruction.
type Offset16 uint16

// Offset64 is the general-form static memory offset, used when Offset16 would overflow.
type Offset64 uint64

// MemoryIdx, TableIdx, GlobalIdx, FuncIdx address their respective module-scoped index spaces.
type (
	MemoryIdx uint32
	TableIdx  uint32
	GlobalIdx uint32
	FuncIdx   uint32
)

// FixedSlotSpan names a contiguous run of Count slots starting at Base, used for the results of a call with at least
// one result and for the values OpReturn hands back.
type FixedSlotSpan struct {
	Base  Slot
	Count uint16
}

// DropKeep is the (drop, keep) pair computed when a branch leaves a block: drop intermediate values, keep the
// block's result values.
type DropKeep struct {
	Drop, Keep uint32
}

// BranchTableTarget is one entry (or the default) of a br_table: a relative branch offset plus the drop-keep to
// apply when taking it.
type BranchTableTarget struct {
	Offset   int32
	DropKeep DropKeep
}
