package wazeroir

import "github.com/wazeroc/wazeroc/internal/wasm"

// controlFrameKind distinguishes the four shapes that can appear on the control frame stack.
type controlFrameKind uint8

const (
	frameBlock controlFrameKind = iota
	frameLoop
	frameIf
	frameFunction
)

// branchFixup records one forward branch's instruction index, pending patch once the target label is known.
type branchFixup struct {
	instrIdx int
}

// controlFrame is one entry of the translator's control frame stack: one per block|loop|if|function.
type controlFrame struct {
	kind controlFrameKind

	// numParams/numResults are the block type's arity.
	numParams, numResults int
	blockType             wasm.FunctionType

	// providerStackHeightAtEntry is the height of the provider stack when this frame was entered, used to restore
	// it (after dropping/keeping) when the frame's end/branch is processed.
	providerStackHeightAtEntry int

	// resultSlots is the contiguous slot range this frame's results are written to by any branch that targets it
	// (including falling off the end). Allocated once, at frame entry, from the temp range.
	resultSlots []Slot

	// paramSlots is the fixed slot range a backward branch refreshes before jumping to loopHeadInstrIdx; empty for
	// every kind except frameLoop, which alone accepts backward branches.
	paramSlots []Slot

	// tempTopAtEntry is the temp-allocator high-water mark when this frame was opened, before paramSlots/resultSlots
	// were reserved. Closing the frame restores the allocator to tempTopAtEntry plus the reserved slots, discarding
	// every temp the body allocated.
	tempTopAtEntry int

	// pendingBranches are forward branches (br/br_if/br_table targeting this frame) awaiting label fixup.
	pendingBranches []branchFixup

	// loopHeadInstrIdx is the instruction index a backward branch (loop) jumps to; meaningful only for frameLoop.
	loopHeadInstrIdx int

	// ifSkipInstrIdx is the instruction index of the conditional branch an `if` emits to skip to its `else` (or, in
	// the absence of one, straight to `end`); -1 once fixed up or for non-if frames.
	ifSkipInstrIdx int

	// elseProviders snapshots the providers consumed by an `if`'s condition-adjacent inputs, so `else` starts from
	// the same stack shape `if`'s body did.
	elseProviders []provider
	// unreachable is set after an unconditional transfer until the matching end|else closes this frame.
	unreachable bool
}

// isLoop reports whether branches targeting this frame go backward (to loopHeadInstrIdx) rather than needing a
// forward fixup.
func (f *controlFrame) isLoop() bool { return f.kind == frameLoop }

// branchArity is the arity of a branch landing on this frame: a loop branches to its start (its parameters), every
// other frame branches to its end (its results).
func (f *controlFrame) branchArity() int {
	if f.kind == frameLoop {
		return f.numParams
	}
	return f.numResults
}
