package interpreter

import (
	"context"
	"strings"

	"github.com/wazeroc/wazeroc/internal/wasm"
	"github.com/wazeroc/wazeroc/internal/wazeroir"
)

// maxCallDepth bounds Wasm-to-Wasm call nesting, independent of the Go goroutine stack: frames are heap-allocated
// slice entries, not Go stack frames, so this is the only thing standing between a runaway recursive Wasm program
// and unbounded memory growth.
const maxCallDepth = 1 << 16

// callFrame is one activation: the function running, its window base into the shared value stack, and its
// program counter. retBase/retSpan name where this frame's eventual OpReturn values are copied once it completes —
// the parent frame's window, at retBase+retSpan.Base — or retBase == -1 for the outermost call, whose results are
// the whole invocation's results.
type callFrame struct {
	fn      *runtimeFunction
	base    int
	ip      int
	retBase int
	retSpan wazeroir.FixedSlotSpan
}

// callEngine drives one Function.Call (or CallResumable): a flat value stack shared by every frame's activation
// window, and an explicit frame stack in place of Go call recursion, so a suspended invocation (resumable host trap
// or fuel exhaustion) can be captured by value and resumed later without goroutines.
type callEngine struct {
	stack  []wasm.UntypedVal
	frames []callFrame
	store  *wasm.Store

	// pool, set, if non-nil, is this invocation's borrowed scratch storage (stack/frames above alias into it); it
	// is returned to the pool once the call completes, successfully or trapped. A suspended invocation keeps it until
	// a Resume runs to completion; a suspension that is never resumed never returns it.
	pool *stackPool
	set  *stackSet

	// returnScratch holds the outermost call's results between the final OpReturn (which empties ce.frames) and
	// run's caller reading them back out.
	returnScratch []wasm.UntypedVal
}

// newPooledCallEngine returns a callEngine that borrows its stack/frame storage from pool instead of allocating
// fresh; release() must be called once the invocation is done with ce (a suspended, resumable invocation keeps
// borrowing until its ResumableTrap is finally resolved one way or another).
func newPooledCallEngine(store *wasm.Store, pool *stackPool) *callEngine {
	return &callEngine{store: store, pool: pool}
}

// release returns ce's borrowed storage to its pool, if any. Safe to call on a callEngine with no pool.
func (ce *callEngine) release() {
	if ce.pool == nil || ce.set == nil {
		return
	}
	ce.pool.put(ce.set)
	ce.set = nil
}

// invoke runs fn from a fresh stack, or — for a host-defined fn called directly rather than through a Wasm call
// site — simply marshals the call.
func (ce *callEngine) invoke(ctx context.Context, fn *runtimeFunction, args []wasm.UntypedVal, resumable bool) ([]wasm.UntypedVal, *pendingTrap, error) {
	if fn.isHost() {
		results, err := callHostFunc(ctx, fn, args)
		if err != nil {
			if resumable {
				return nil, &pendingTrap{ce: ce, cause: err, topLevelHost: fn}, nil
			}
			return nil, nil, wrapTrap(fn.def.DebugName(), err)
		}
		return results, nil, nil
	}

	window := int(fn.code.NumLocals + fn.code.NumTemps)
	if ce.pool != nil {
		ce.set = ce.pool.get(window)
		if cap(ce.set.stack) < window {
			ce.set.stack = make([]wasm.UntypedVal, window)
		} else {
			ce.set.stack = ce.set.stack[:window]
			for i := range ce.set.stack {
				ce.set.stack[i] = 0
			}
		}
		ce.stack = ce.set.stack
		ce.frames = ce.set.frames[:0]
	} else {
		ce.stack = make([]wasm.UntypedVal, window)
	}
	copy(ce.stack[:len(args)], args)
	ce.frames = append(ce.frames, callFrame{fn: fn, base: 0, retBase: -1})
	return ce.run(ctx, resumable)
}

func (ce *callEngine) topFrame() *callFrame { return &ce.frames[len(ce.frames)-1] }

func (ce *callEngine) local(f *callFrame, s wazeroir.Slot) wasm.UntypedVal {
	if s.IsConst() {
		return f.fn.code.Consts[s.ConstIndex()]
	}
	return ce.stack[f.base+int(s)]
}

func (ce *callEngine) setLocal(f *callFrame, s wazeroir.Slot, v wasm.UntypedVal) {
	ce.stack[f.base+int(s)] = v
}

// buildStackTrace walks the active frames, innermost first, into a TrapError-displayable trace.
func (ce *callEngine) buildStackTrace() string {
	lines := make([]string, 0, len(ce.frames))
	for i := len(ce.frames) - 1; i >= 0; i-- {
		lines = append(lines, "\t"+ce.frames[i].fn.def.DebugName())
	}
	return strings.Join(lines, "\n")
}
