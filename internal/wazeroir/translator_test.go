package wazeroir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wazeroc/wazeroc/api"
	"github.com/wazeroc/wazeroc/internal/wasm"
)

func i32i32ToI32() wasm.FunctionType {
	return wasm.FunctionType{
		Params:  []api.ValueType{api.ValueTypeI32, api.ValueTypeI32},
		Results: []api.ValueType{api.ValueTypeI32},
	}
}

// TestTranslateSum lowers `local.get 0; local.get 1; i32.add; return` — the "sum via local variables" scenario —
// and checks the emitted add reads both locals and the function returns its result.
func TestTranslateSum(t *testing.T) {
	fnType := i32i32ToI32()
	code := &wasm.Code{
		Body: []wasm.WasmInstr{
			{Op: wasm.OpLocalGet, Index: 0},
			{Op: wasm.OpLocalGet, Index: 1},
			{Op: wasm.OpI32Arith, Arith: wasm.ArithAdd},
			{Op: wasm.OpEnd},
		},
	}
	tr := NewTranslator(&wasm.Module{}, fnType, code, "sum")
	fn, err := tr.Translate()
	require.NoError(t, err)
	require.NotEmpty(t, fn.Instrs)

	var add *Instruction
	for i := range fn.Instrs {
		if fn.Instrs[i].Op == OpI32Add {
			add = &fn.Instrs[i]
		}
	}
	require.NotNil(t, add)
	assert.Equal(t, Slot(0), add.Rs1)
	assert.Equal(t, Slot(1), add.Rs2)

	last := fn.Instrs[len(fn.Instrs)-1]
	assert.Equal(t, OpReturn, last.Op)
	assert.Equal(t, add.Rd, last.Span.Base)
	assert.EqualValues(t, 1, last.Span.Count)
}

// TestTranslateLoopBackwardBranch lowers a minimal loop with an unconditional br back to its own head, exercising
// the loop's param-slot refresh and the backward-branch fixup (resolved immediately, unlike forward branches).
func TestTranslateLoopBackwardBranch(t *testing.T) {
	fnType := wasm.FunctionType{
		Params:  []api.ValueType{api.ValueTypeI32},
		Results: []api.ValueType{api.ValueTypeI32},
	}
	loopType := wasm.FunctionType{
		Params:  []api.ValueType{api.ValueTypeI32},
		Results: []api.ValueType{api.ValueTypeI32},
	}
	code := &wasm.Code{
		Body: []wasm.WasmInstr{
			{Op: wasm.OpLocalGet, Index: 0},
			{Op: wasm.OpLoop, BlockType: loopType},
			{Op: wasm.OpI32Const, Imm: 1},
			{Op: wasm.OpBr, Imm: 0}, // depth 0, from inside the loop body, targets the loop itself
			{Op: wasm.OpEnd},        // closes loop (unreachable after the br, reached via dead-code skip)
			{Op: wasm.OpEnd},        // closes function
		},
	}
	tr := NewTranslator(&wasm.Module{}, fnType, code, "loopy")
	fn, err := tr.Translate()
	require.NoError(t, err)
	assert.NotEmpty(t, fn.Instrs)

	var foundBackwardBranch bool
	for _, i := range fn.Instrs {
		if i.Op == OpBr && i.BranchOffset < 0 {
			foundBackwardBranch = true
		}
	}
	assert.True(t, foundBackwardBranch, "expected a backward branch closing the loop body")
}

// TestTranslateUnbalancedControlStack reports a translation error rather than panicking on malformed input.
func TestTranslateUnbalancedControlStack(t *testing.T) {
	fnType := wasm.FunctionType{}
	code := &wasm.Code{Body: []wasm.WasmInstr{{Op: wasm.OpBlock, BlockType: wasm.FunctionType{}}}}
	tr := NewTranslator(&wasm.Module{}, fnType, code, "broken")
	_, err := tr.Translate()
	require.Error(t, err)
}
