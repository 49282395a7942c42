package interpreter

import (
	"context"
	"fmt"
	"reflect"

	"github.com/wazeroc/wazeroc/api"
	"github.com/wazeroc/wazeroc/internal/logging"
	"github.com/wazeroc/wazeroc/internal/wasm"
	"github.com/wazeroc/wazeroc/internal/wazeroir"
)

// runtimeFunction is the engine-side executable counterpart of a wasm.FunctionInstance: the translated IR for a
// Wasm-defined function, or the reflected Go closure for a host-defined one. Exactly one of code/hostFn is set.
type runtimeFunction struct {
	me     *ModuleEngine
	typ    wasm.FunctionType
	code   *wazeroir.CompiledFunction
	hostFn *reflect.Value
	def    api.FunctionDefinition
}

func (f *runtimeFunction) isHost() bool { return f.hostFn != nil }

// ModuleEngine is the per-instantiation runtime function table: index-correlated with the owning
// wasm.ModuleInstance's combined (imports-first) function index space, so OpCall's Aux field addresses this slice
// directly.
type ModuleEngine struct {
	parent   *Engine
	store    *wasm.Store
	module   *wasm.Module
	instance wasm.Handle[wasm.ModuleInstance]
	funcs    []*runtimeFunction
	listener logging.FunctionListenerFactory
}

// NewModuleEngine builds the runtime function table for one instantiation. imports supplies the already-built
// runtimeFunction for every imported function, in index order (each one belongs to whatever ModuleEngine actually
// defines it — a cross-module call simply invokes that function's own runtimeFunction, unchanged); cm is the
// compiled module produced by Engine.CompileModule for the same wasm.Module backing instance.
func NewModuleEngine(e *Engine, store *wasm.Store, module *wasm.Module, cm *compiledModule, instance wasm.Handle[wasm.ModuleInstance], imports []*runtimeFunction) (*ModuleEngine, error) {
	me := &ModuleEngine{parent: e, store: store, module: module, instance: instance, listener: e.listenerFactory}
	me.funcs = make([]*runtimeFunction, 0, len(imports)+len(cm.handles))
	me.funcs = append(me.funcs, imports...)

	inst, err := store.ResolveInstance(instance)
	if err != nil {
		return nil, err
	}
	imported := uint32(len(imports))
	for i, h := range cm.handles {
		fnHandle := inst.Funcs[imported+uint32(i)]
		fn, err := store.ResolveFunction(fnHandle)
		if err != nil {
			return nil, err
		}
		def := wasm.NewFunctionDefinition(fn, inst.ModuleName)
		if fn.IsHost() {
			me.funcs = append(me.funcs, &runtimeFunction{me: me, typ: fn.Type, hostFn: fn.HostFn, def: def})
			continue
		}
		cf := e.code.Get(h)
		me.funcs = append(me.funcs, &runtimeFunction{me: me, typ: cf.Type, code: cf, def: def})
	}

	e.registerInstance(instance, me)
	return me, nil
}

// BuildModuleEngine is the embedder-facing counterpart of NewModuleEngine: it derives the imported functions'
// runtimeFunctions itself, by asking whichever ModuleEngine already owns each import's defining instance, so a
// caller outside this package (which cannot name the unexported runtimeFunction type) can still drive
// instantiation end to end. module must already be compiled (see CompileModule), and instHandle's ModuleInstance
// must already have its Funcs populated (see wasm.Instantiate).
func (e *Engine) BuildModuleEngine(store *wasm.Store, module *wasm.Module, instHandle wasm.Handle[wasm.ModuleInstance]) (*ModuleEngine, error) {
	cm, ok := e.compiledFor(module.ID)
	if !ok {
		return nil, fmt.Errorf("wazeroc/interpreter: module not compiled")
	}

	inst, err := store.ResolveInstance(instHandle)
	if err != nil {
		return nil, err
	}

	imported := module.ImportedFunctionCount()
	imports := make([]*runtimeFunction, imported)
	for i := uint32(0); i < imported; i++ {
		fn, err := store.ResolveFunction(inst.Funcs[i])
		if err != nil {
			return nil, err
		}
		definer := e.moduleEngineFor(fn.Instance)
		if definer == nil {
			return nil, fmt.Errorf("wazeroc/interpreter: import %d's defining module is not yet instantiated", i)
		}
		imports[i] = definer.funcs[fn.Index]
	}

	return NewModuleEngine(e, store, module, cm, instHandle, imports)
}

// Close releases the engine-side bookkeeping for this instance. Safe to call once the owning ModuleInstance closes.
func (me *ModuleEngine) Close() { me.parent.forgetInstance(me.instance) }

// Func implements wasm.FunctionCaller: it resolves a store handle to the owning ModuleEngine's runtime function
// table and returns the callable api.Function view.
func (e *Engine) Func(store *wasm.Store, h wasm.Handle[wasm.FunctionInstance]) api.Function {
	fn, err := store.ResolveFunction(h)
	if err != nil {
		return nil
	}
	me := e.moduleEngineFor(fn.Instance)
	if me == nil {
		return nil
	}
	return &callableFunction{me: me, fn: me.funcs[fn.Index]}
}

// callableFunction adapts a runtimeFunction, together with the ModuleEngine that owns the caller's view of it
// (always the defining module, since imports are resolved to the exporter's own runtimeFunction at link time), to
// api.Function.
type callableFunction struct {
	me *ModuleEngine
	fn *runtimeFunction
}

func (c *callableFunction) Definition() api.FunctionDefinition { return c.fn.def }

func (c *callableFunction) Call(ctx context.Context, params ...uint64) ([]uint64, error) {
	results, _, err := c.call(ctx, params, false)
	return results, err
}

func (c *callableFunction) CallResumable(ctx context.Context, params ...uint64) ([]uint64, api.ResumableTrap, error) {
	results, trap, err := c.call(ctx, params, true)
	return results, trap, err
}

func (c *callableFunction) call(ctx context.Context, params []uint64, resumable bool) ([]uint64, api.ResumableTrap, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	args := make([]wasm.UntypedVal, len(params))
	for i, p := range params {
		args[i] = wasm.UntypedVal(p)
	}
	ce := newPooledCallEngine(c.me.store, c.me.parent.stacks)
	results, trap, err := ce.invoke(ctx, c.fn, args, resumable)
	if trap == nil {
		// A resumable trap keeps ce's borrowed storage alive until Resume (or abandonment); otherwise it's safe to
		// return to the pool immediately, whether invoke succeeded or raised a non-resumable error.
		ce.release()
	}
	if err != nil {
		return nil, nil, err
	}
	out := make([]uint64, len(results))
	for i, r := range results {
		out[i] = r.Bits()
	}
	if trap != nil {
		return out, trap, nil
	}
	return out, nil, nil
}

var _ api.Function = (*callableFunction)(nil)
