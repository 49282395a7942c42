package interpreter

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wazeroc/wazeroc/api"
	"github.com/wazeroc/wazeroc/internal/u64"
	"github.com/wazeroc/wazeroc/internal/wasm"
	"github.com/wazeroc/wazeroc/internal/wasmruntime"
)

// These tests drive the executor end to end through the same public surface an embedder uses
// (Engine.CompileModule, wasm.Instantiate, Engine.BuildModuleEngine, api.Function.Call/CallResumable), with every
// module hand-built as a *wasm.Module literal rather than decoded from a binary: this package has no decoder, and
// a Code's Body is already the structured operator stream the translator consumes.

var scenarioIDSeq uint64

// nextScenarioModuleID mints a ModuleID unique within this test binary's run, reusing the same little-endian
// encoding compilationcache.NewKey uses for its own module-content hash.
func nextScenarioModuleID() (id wasm.ModuleID) {
	scenarioIDSeq++
	copy(id[:8], u64.LeBytes(scenarioIDSeq))
	return id
}

// noImports is the ImportResolver for a module that declares none.
type noImports struct{}

func (noImports) ResolveFunction(string, string) (wasm.Handle[wasm.FunctionInstance], bool) {
	return wasm.Handle[wasm.FunctionInstance]{}, false
}
func (noImports) ResolveTable(string, string) (wasm.Handle[wasm.TableInstance], bool) {
	return wasm.Handle[wasm.TableInstance]{}, false
}
func (noImports) ResolveMemory(string, string) (wasm.Handle[wasm.MemoryInstance], bool) {
	return wasm.Handle[wasm.MemoryInstance]{}, false
}
func (noImports) ResolveGlobal(string, string) (wasm.Handle[wasm.GlobalInstance], bool) {
	return wasm.Handle[wasm.GlobalInstance]{}, false
}

var _ wasm.ImportResolver = noImports{}

// exportResolver resolves every function import against one already-instantiated module's exports, regardless of
// the requested module name: enough for a two-module test fixture, not a general-purpose linker.
type exportResolver struct {
	store *wasm.Store
	inst  *wasm.ModuleInstance
}

func (r exportResolver) ResolveFunction(_, name string) (wasm.Handle[wasm.FunctionInstance], bool) {
	return r.inst.ExportedFunctionHandle(name)
}
func (exportResolver) ResolveTable(string, string) (wasm.Handle[wasm.TableInstance], bool) {
	return wasm.Handle[wasm.TableInstance]{}, false
}
func (exportResolver) ResolveMemory(string, string) (wasm.Handle[wasm.MemoryInstance], bool) {
	return wasm.Handle[wasm.MemoryInstance]{}, false
}
func (exportResolver) ResolveGlobal(string, string) (wasm.Handle[wasm.GlobalInstance], bool) {
	return wasm.Handle[wasm.GlobalInstance]{}, false
}

var _ wasm.ImportResolver = exportResolver{}

// instantiate compiles and instantiates m against e/store, returning its ModuleEngine and exported api.Module view.
func instantiate(t *testing.T, e *Engine, store *wasm.Store, m *wasm.Module, name string, resolver wasm.ImportResolver) (*ModuleEngine, api.Module) {
	t.Helper()
	if m.ID == (wasm.ModuleID{}) {
		m.ID = nextScenarioModuleID()
	}
	require.NoError(t, e.CompileModule(m))
	h, err := wasm.Instantiate(store, m, name, resolver)
	require.NoError(t, err)
	me, err := e.BuildModuleEngine(store, m, h)
	require.NoError(t, err)
	return me, wasm.NewExportedModule(store, h, e)
}

// TestSumViaLocals covers i32.add over two parameters, the simplest possible function body.
func TestSumViaLocals(t *testing.T) {
	e := NewEngine(64, 0, nil)
	store := wasm.NewStore(e.Types(), false)

	m := &wasm.Module{
		TypeSection:     []wasm.FunctionType{{Params: []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}},
		FunctionSection: []uint32{0},
		CodeSection: []wasm.Code{{
			Body: []wasm.WasmInstr{
				{Op: wasm.OpLocalGet, Index: 0},
				{Op: wasm.OpLocalGet, Index: 1},
				{Op: wasm.OpI32Arith, Arith: wasm.ArithAdd},
				{Op: wasm.OpEnd},
			},
		}},
		ExportSection: []wasm.Export{{Name: "sum", Type: api.ExternTypeFunc, Index: 0}},
	}

	_, mod := instantiate(t, e, store, m, "sum", noImports{})
	out, err := mod.ExportedFunction("sum").Call(context.Background(), 3, 4)
	require.NoError(t, err)
	require.Equal(t, []uint64{7}, out)
}

// factorialModule builds a single-function module computing n! with a structured block/loop: the loop breaks via a
// br_if guarded by i32.eqz, and continues via an unconditional br back to its own head.
func factorialModule() *wasm.Module {
	return &wasm.Module{
		TypeSection:     []wasm.FunctionType{{Params: []api.ValueType{api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}},
		FunctionSection: []uint32{0},
		CodeSection: []wasm.Code{{
			LocalTypes: []api.ValueType{api.ValueTypeI32}, // local 1: running product, starts at 1
			Body: []wasm.WasmInstr{
				{Op: wasm.OpI32Const, Imm: 1},
				{Op: wasm.OpLocalSet, Index: 1},
				{Op: wasm.OpBlock, BlockType: wasm.FunctionType{}},
				{Op: wasm.OpLoop, BlockType: wasm.FunctionType{}},
				{Op: wasm.OpLocalGet, Index: 0},
				{Op: wasm.OpI32Eqz},
				{Op: wasm.OpBrIf, Imm: 1}, // n == 0: break out of the block
				{Op: wasm.OpLocalGet, Index: 1},
				{Op: wasm.OpLocalGet, Index: 0},
				{Op: wasm.OpI32Arith, Arith: wasm.ArithMul},
				{Op: wasm.OpLocalSet, Index: 1},
				{Op: wasm.OpLocalGet, Index: 0},
				{Op: wasm.OpI32Const, Imm: 1},
				{Op: wasm.OpI32Arith, Arith: wasm.ArithSub},
				{Op: wasm.OpLocalSet, Index: 0},
				{Op: wasm.OpBr, Imm: 0}, // continue the loop
				{Op: wasm.OpEnd},        // closes loop
				{Op: wasm.OpEnd},        // closes block
				{Op: wasm.OpLocalGet, Index: 1},
				{Op: wasm.OpEnd}, // closes function: auto-emits return
			},
		}},
		ExportSection: []wasm.Export{{Name: "factorial", Type: api.ExternTypeFunc, Index: 0}},
	}
}

// TestFactorialViaLoop covers a structured loop with a br_if-guarded break and a backward br, exercising
// local.get/set across iterations.
func TestFactorialViaLoop(t *testing.T) {
	e := NewEngine(64, 0, nil)
	store := wasm.NewStore(e.Types(), false)

	_, mod := instantiate(t, e, store, factorialModule(), "factorial", noImports{})
	out, err := mod.ExportedFunction("factorial").Call(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, []uint64{120}, out)
}

// TestIndirectCallThroughTable covers call_indirect dispatch through a funcref table, and the three distinct ways
// it can trap: an out-of-range index, a null entry, and a signature mismatch against the call site's expected type.
func TestIndirectCallThroughTable(t *testing.T) {
	e := NewEngine(64, 0, nil)
	store := wasm.NewStore(e.Types(), false)

	i32i32 := wasm.FunctionType{Params: []api.ValueType{api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}
	callerType := wasm.FunctionType{Params: []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}
	i64i64 := wasm.FunctionType{Params: []api.ValueType{api.ValueTypeI64}, Results: []api.ValueType{api.ValueTypeI64}}

	m := &wasm.Module{
		TypeSection:     []wasm.FunctionType{i32i32, callerType, i64i64},
		FunctionSection: []uint32{0, 1, 2},
		CodeSection: []wasm.Code{
			{ // func 0: double(x) = x * 2
				Body: []wasm.WasmInstr{
					{Op: wasm.OpLocalGet, Index: 0},
					{Op: wasm.OpI32Const, Imm: 2},
					{Op: wasm.OpI32Arith, Arith: wasm.ArithMul},
					{Op: wasm.OpEnd},
				},
			},
			{ // func 1: caller(idx, x) = call_indirect table[idx](x), expecting an i32i32 callee
				Body: []wasm.WasmInstr{
					{Op: wasm.OpLocalGet, Index: 1}, // x: pushed first, below the index
					{Op: wasm.OpLocalGet, Index: 0}, // idx: on top, popped as the call target
					{Op: wasm.OpCallIndirect, Index: 0, Imm: 0},
					{Op: wasm.OpEnd},
				},
			},
			{ // func 2: identity(x i64) i64, wrong arity/type family for slot 2's call site
				Body: []wasm.WasmInstr{
					{Op: wasm.OpLocalGet, Index: 0},
					{Op: wasm.OpEnd},
				},
			},
		},
		TableSection: []wasm.TableType{{ElemType: api.ValueTypeFuncref, Limits: wasm.Limits{Min: 3}}},
		ElementSection: []wasm.ElementSegment{{
			Mode: wasm.SegmentModeActive, TableIdx: 0, Offset: 0, ElemType: api.ValueTypeFuncref,
			Init: []wasm.UntypedVal{wasm.FromRef(0), wasm.NullRef, wasm.FromRef(2)},
		}},
		ExportSection: []wasm.Export{{Name: "caller", Type: api.ExternTypeFunc, Index: 1}},
	}

	_, mod := instantiate(t, e, store, m, "indirect", noImports{})
	caller := mod.ExportedFunction("caller")
	ctx := context.Background()

	out, err := caller.Call(ctx, 0, 5)
	require.NoError(t, err)
	require.Equal(t, []uint64{10}, out)

	_, err = caller.Call(ctx, 1, 5)
	var trapErr *wasmruntime.TrapError
	require.True(t, errors.As(err, &trapErr))
	require.Equal(t, wasmruntime.TrapCodeIndirectCallToNull, trapErr.Code)

	_, err = caller.Call(ctx, 2, 5)
	require.True(t, errors.As(err, &trapErr))
	require.Equal(t, wasmruntime.TrapCodeBadSignature, trapErr.Code)

	_, err = caller.Call(ctx, 5, 5)
	require.True(t, errors.As(err, &trapErr))
	require.Equal(t, wasmruntime.TrapCodeTableOutOfBounds, trapErr.Code)
}

// TestMemoryGrowAndBounds covers memory.grow's previous-size return and the bounds trap a load past the grown
// memory's length raises.
func TestMemoryGrowAndBounds(t *testing.T) {
	e := NewEngine(64, 0, nil)
	store := wasm.NewStore(e.Types(), false)

	growType := wasm.FunctionType{Params: []api.ValueType{api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}
	loadType := wasm.FunctionType{Params: []api.ValueType{api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}

	m := &wasm.Module{
		TypeSection:     []wasm.FunctionType{growType, loadType},
		FunctionSection: []uint32{0, 1},
		CodeSection: []wasm.Code{
			{Body: []wasm.WasmInstr{ // grow(delta) = memory.grow delta
				{Op: wasm.OpLocalGet, Index: 0},
				{Op: wasm.OpMemoryGrow, Index: 0},
				{Op: wasm.OpEnd},
			}},
			{Body: []wasm.WasmInstr{ // loadAt(addr) = i32.load addr
				{Op: wasm.OpLocalGet, Index: 0},
				{Op: wasm.OpI32Load, Index: 0, Imm: 0},
				{Op: wasm.OpEnd},
			}},
		},
		MemorySection: []wasm.MemoryType{{Limits: wasm.Limits{Min: 1}, PageSizeLog2: 16}},
		ExportSection: []wasm.Export{
			{Name: "grow", Type: api.ExternTypeFunc, Index: 0},
			{Name: "loadAt", Type: api.ExternTypeFunc, Index: 1},
		},
	}

	_, mod := instantiate(t, e, store, m, "mem", noImports{})
	ctx := context.Background()

	prev, err := mod.ExportedFunction("grow").Call(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []uint64{1}, prev) // one page existed before growth

	const pageSize = 1 << 16
	_, err = mod.ExportedFunction("loadAt").Call(ctx, pageSize*2-4) // last 4 bytes of the 2nd page: in bounds
	require.NoError(t, err)

	_, err = mod.ExportedFunction("loadAt").Call(ctx, pageSize*2) // one byte past the grown memory
	var trapErr *wasmruntime.TrapError
	require.True(t, errors.As(err, &trapErr))
	require.Equal(t, wasmruntime.TrapCodeMemoryOutOfBounds, trapErr.Code)
}

// TestHostCallResumableTrap covers a Wasm function calling an imported host function that fails; CallResumable
// returns a ResumableTrap instead of a terminal error, and Resume splices a caller-supplied substitute result into
// the suspended call's destination slot without re-invoking the host function.
func TestHostCallResumableTrap(t *testing.T) {
	e := NewEngine(64, 0, nil)
	store := wasm.NewStore(e.Types(), false)

	fallible := func(ctx context.Context, x int32) (int32, error) {
		if x == 0 {
			return 0, errors.New("no substitute available")
		}
		return x * 2, nil
	}
	fallibleType := wasm.FunctionType{Params: []api.ValueType{api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}
	rv := reflect.ValueOf(fallible)

	hostModule := &wasm.Module{
		TypeSection:     []wasm.FunctionType{fallibleType},
		FunctionSection: []uint32{0},
		CodeSection:     []wasm.Code{{}},
		HostFunctions:   []*reflect.Value{&rv},
		ExportSection:   []wasm.Export{{Name: "fallible", Type: api.ExternTypeFunc, Index: 0}},
	}
	hostModule.ID = nextScenarioModuleID()
	require.NoError(t, e.CompileModule(hostModule))
	hostH, err := wasm.Instantiate(store, hostModule, "env", noImports{})
	require.NoError(t, err)
	_, err = e.BuildModuleEngine(store, hostModule, hostH)
	require.NoError(t, err)
	hostInst, err := store.ResolveInstance(hostH)
	require.NoError(t, err)

	callerModule := &wasm.Module{
		TypeSection:     []wasm.FunctionType{fallibleType},
		ImportSection:   []wasm.Import{{Module: "env", Name: "fallible", Type: api.ExternTypeFunc, DescFuncTypeIdx: 0}},
		FunctionSection: []uint32{0},
		CodeSection: []wasm.Code{{
			Body: []wasm.WasmInstr{
				{Op: wasm.OpLocalGet, Index: 0},
				{Op: wasm.OpCall, Index: 0}, // imports occupy the low end of the function index space
				{Op: wasm.OpEnd},
			},
		}},
		ExportSection: []wasm.Export{{Name: "call", Type: api.ExternTypeFunc, Index: 1}},
	}
	_, mod := instantiate(t, e, store, callerModule, "caller", exportResolver{store: store, inst: hostInst})

	ctx := context.Background()
	callFn := mod.ExportedFunction("call")
	res, trap, err := callFn.CallResumable(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, res)
	require.NotNil(t, trap)

	out, nextTrap, err := trap.Resume(ctx, 84)
	require.NoError(t, err)
	require.Nil(t, nextTrap)
	require.Equal(t, []uint64{84}, out)
}

// TestFuelExhaustionAndResume covers metered execution suspending mid-function when fuel runs out, and resuming
// deterministically once the embedder tops it up: the same instruction that failed to deduct fuel re-executes and
// succeeds, rather than restarting the function.
func TestFuelExhaustionAndResume(t *testing.T) {
	e := NewEngine(64, 0, nil)
	store := wasm.NewStore(e.Types(), true)

	m := &wasm.Module{
		TypeSection:     []wasm.FunctionType{{Params: []api.ValueType{api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}},
		FunctionSection: []uint32{0},
		CodeSection: []wasm.Code{{
			LocalTypes: []api.ValueType{api.ValueTypeI32},
			Body: []wasm.WasmInstr{
				{Op: wasm.OpI32Const, Imm: 1},
				{Op: wasm.OpLocalSet, Index: 1},
				{Op: wasm.OpBlock, BlockType: wasm.FunctionType{}},
				{Op: wasm.OpLoop, BlockType: wasm.FunctionType{}},
				{Op: wasm.OpLocalGet, Index: 0},
				{Op: wasm.OpI32Eqz},
				{Op: wasm.OpBrIf, Imm: 1},
				{Op: wasm.OpLocalGet, Index: 1},
				{Op: wasm.OpLocalGet, Index: 0},
				{Op: wasm.OpI32Arith, Arith: wasm.ArithMul},
				{Op: wasm.OpLocalSet, Index: 1},
				{Op: wasm.OpLocalGet, Index: 0},
				{Op: wasm.OpI32Const, Imm: 1},
				{Op: wasm.OpI32Arith, Arith: wasm.ArithSub},
				{Op: wasm.OpLocalSet, Index: 0},
				{Op: wasm.OpBr, Imm: 0},
				{Op: wasm.OpEnd},
				{Op: wasm.OpEnd},
				{Op: wasm.OpLocalGet, Index: 1},
				{Op: wasm.OpEnd},
			},
		}},
		ExportSection: []wasm.Export{{Name: "factorial", Type: api.ExternTypeFunc, Index: 0}},
	}

	_, mod := instantiate(t, e, store, m, "fuel", noImports{})
	store.SetFuel(5) // enough for a few instructions, not enough to finish one loop iteration

	ctx := context.Background()
	callFn := mod.ExportedFunction("factorial")
	out, trap, err := callFn.CallResumable(ctx, 5)
	require.NoError(t, err)
	require.Empty(t, out)
	require.NotNil(t, trap)
	require.ErrorIs(t, trap.Error(), wasmruntime.TrapCodeOutOfFuel)

	store.SetFuel(1000)
	out, trap, err = trap.Resume(ctx)
	require.NoError(t, err)
	require.Nil(t, trap)
	require.Equal(t, []uint64{120}, out)
}
