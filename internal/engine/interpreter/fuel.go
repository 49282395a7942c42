package interpreter

import "github.com/wazeroc/wazeroc/internal/wazeroir"

// fuelCost assigns a deduction to one instruction. The schedule is a policy choice, not a correctness requirement:
// any assignment that is monotonic in work done is a valid implementation of fuel metering. Calls cost 8; memory
// and table grow/fill/copy cost 4; every other instruction, branches included, is charged a flat unit so metering
// stays O(1) per instruction.
func fuelCost(op wazeroir.Opcode) uint64 {
	switch op {
	case wazeroir.OpCall, wazeroir.OpCallIndirect, wazeroir.OpReturnCall, wazeroir.OpReturnCallIndirect, wazeroir.OpHostCall:
		return 8
	case wazeroir.OpMemoryGrow, wazeroir.OpTableGrow, wazeroir.OpMemoryFill, wazeroir.OpMemoryCopy, wazeroir.OpTableFill, wazeroir.OpTableCopy:
		return 4
	default:
		return 1
	}
}
