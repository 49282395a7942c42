package wazeroir

import (
	"github.com/wazeroc/wazeroc/internal/bitpack"
	"github.com/wazeroc/wazeroc/internal/wasm"
)

// EngineFunc addresses one compiled function body in a CodeMap. It is stable for the life of the CodeMap: the
// code map is append-only, so a handle handed out during translation never dangles.
type EngineFunc uint32

// MaxFuncLocalConsts bounds a function's local constant pool so that ConstSlot's negative encoding never overflows
// Slot's signed 16-bit range.
const MaxFuncLocalConsts = 1<<15 - 1

// CompiledFunction is one function body: its immutable IR stream, its immutable deduplicated local constant pool,
// and the side tables its instructions' Aux fields index into.
type CompiledFunction struct {
	Instrs []Instruction
	Consts []wasm.UntypedVal

	// NumLocals is the slot count occupied by parameters+declared locals; NumTemps is the high-water mark of
	// translator-allocated temporaries. The activation window size is NumLocals+NumTemps.
	NumLocals, NumTemps uint32

	BranchTables [][]BranchTableTarget
	CopySpans    []CopySpan

	Type wasm.FunctionType

	// DebugName identifies this function in traps and stack traces.
	DebugName string
}

// CodeMap owns every function body for one Module's worth of translated functions. It is append-only: once a body
// is installed it is never modified.
type CodeMap struct {
	funcs []*CompiledFunction
	// offsets is built lazily by Finalize: the cumulative instruction count up to (not including) each function,
	// letting FuncAt resolve a flat program-counter back to its owning EngineFunc in O(log n) without storing a
	// full index per instruction.
	offsets bitpack.OffsetArray
}

// NewCodeMap constructs an empty CodeMap.
func NewCodeMap() *CodeMap { return &CodeMap{} }

// Install appends fn and returns its handle.
func (c *CodeMap) Install(fn *CompiledFunction) EngineFunc {
	h := EngineFunc(len(c.funcs))
	c.funcs = append(c.funcs, fn)
	c.offsets = nil // invalidate the lazy index; rebuilt on next FuncAt
	return h
}

// Get returns the compiled function addressed by h.
func (c *CodeMap) Get(h EngineFunc) *CompiledFunction { return c.funcs[h] }

// Len returns the number of installed functions.
func (c *CodeMap) Len() int { return len(c.funcs) }

// Finalize builds the flat-PC index used by FuncAt. Call after all of a module's functions are installed.
func (c *CodeMap) Finalize() {
	offsets := make([]uint64, len(c.funcs))
	var cum uint64
	for i, fn := range c.funcs {
		offsets[i] = cum
		cum += uint64(len(fn.Instrs))
	}
	c.offsets = bitpack.NewOffsetArray(offsets)
}

// FuncAt resolves a flat instruction index (summed across every installed function, in installation order) back to
// its owning EngineFunc. Used for stack-trace/profiling display, never on the hot execution path. Finalize must
// have been called since the last Install.
func (c *CodeMap) FuncAt(flatPC uint64) EngineFunc {
	lo, hi := 0, c.offsets.Len()-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if c.offsets.Index(mid) <= flatPC {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return EngineFunc(lo)
}
