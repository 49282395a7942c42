package interpreter

import (
	"context"

	"github.com/wazeroc/wazeroc/api"
	"github.com/wazeroc/wazeroc/internal/wasm"
	"github.com/wazeroc/wazeroc/internal/wazeroir"
)

// pendingTrap is a suspended invocation: the callEngine whose frames/stack are exactly as they stood when a
// resumable host-function error or an out-of-fuel break interrupted it, plus enough information to deliver
// Resume's substitute values to the right place before continuing the same dispatch loop.
type pendingTrap struct {
	ce    *callEngine
	cause error

	// hasDest is true for a suspended host call: destBase/destSpan name where its results belong in the caller's
	// window. False for a fuel break, which resumes by simply re-entering the same instruction.
	hasDest  bool
	destBase int
	destSpan wazeroir.FixedSlotSpan

	// topLevelHost is set only when the suspended call was a direct invocation of a host-implemented exported
	// function (no Wasm frame at all): Resume just hands back the caller-supplied values as the final result.
	topLevelHost *runtimeFunction
}

func (t *pendingTrap) Error() error { return t.cause }

func (t *pendingTrap) Resume(ctx context.Context, results ...uint64) ([]uint64, api.ResumableTrap, error) {
	if t.topLevelHost != nil {
		return results, nil, nil
	}

	vals := make([]wasm.UntypedVal, len(results))
	for i, r := range results {
		vals[i] = wasm.UntypedVal(r)
	}
	if t.hasDest {
		for i := 0; i < int(t.destSpan.Count); i++ {
			t.ce.stack[t.destBase+int(t.destSpan.Base)+i] = vals[i]
		}
	}

	out, trap, err := t.ce.run(ctx, true)
	if trap == nil {
		// run finished, successfully or with an error, so ce's borrowed storage, if any, is done being read from.
		t.ce.release()
	}
	if err != nil {
		return nil, nil, err
	}
	uresults := make([]uint64, len(out))
	for i, v := range out {
		uresults[i] = v.Bits()
	}
	if trap != nil {
		return uresults, trap, nil
	}
	return uresults, nil, nil
}

var _ api.ResumableTrap = (*pendingTrap)(nil)
