// Package wazeroc is the embedder-facing API: it fronts internal/wasm and internal/engine/interpreter with the
// Engine/Store/Module/Linker/Instance/Func shape described in spec.md §6, named after the wasmtime API most
// embedders coming from Wasm already know.
package wazeroc

import (
	"context"

	"github.com/wazeroc/wazeroc/api"
	"github.com/wazeroc/wazeroc/internal/engine/interpreter"
	"github.com/wazeroc/wazeroc/internal/wasm"
)

// Runtime is one embedding's Wasm environment: a single interpreter.Engine (shared translated-code cache and type
// registry) plus a single wasm.Store (every entity instantiated through this Runtime lives here, and is freed when
// it is). Most embedders want exactly one Runtime per process; create more only to isolate entities that must
// never alias each other's handles (a Handle minted by one Runtime's Store is never valid against another's).
type Runtime struct {
	config *RuntimeConfig
	engine *interpreter.Engine
	store  *wasm.Store
	cache  *cache
}

// NewRuntime constructs a Runtime from config. A nil config is equivalent to NewRuntimeConfig().
func NewRuntime(config *RuntimeConfig) *Runtime {
	if config == nil {
		config = NewRuntimeConfig()
	}
	engine := interpreter.NewEngine(config.maxTypes, config.stackLimits.PoolSizePerClass, config.listenerFactory)
	store := wasm.NewStore(engine.Types(), config.consumeFuel)
	return &Runtime{config: config, engine: engine, store: store}
}

// WithCache stores c on the Runtime. CompileModule does not read or write it: translated code is kept only in the
// engine's memory. Returns r for chaining.
func (r *Runtime) WithCache(c Cache) *Runtime {
	if fc, ok := c.(*cache); ok {
		r.cache = fc
	}
	return r
}

// WithResourceLimiter installs a limiter consulted before every memory.grow and table.grow. Returns r for chaining.
func (r *Runtime) WithResourceLimiter(l wasm.ResourceLimiter) *Runtime {
	r.store.SetLimiter(l)
	return r
}

// SetFuel replaces the store's remaining fuel. Only meaningful when the RuntimeConfig enabled WithConsumeFuel.
func (r *Runtime) SetFuel(fuel uint64) { r.store.SetFuel(fuel) }

// Fuel returns the store's remaining fuel.
func (r *Runtime) Fuel() uint64 { return r.store.GetFuel() }

// CompileModule translates every locally-defined function body in m and installs the result into the engine's
// shared code map, so every subsequent Instantiate of this same *wasm.Module (by m.ID) reuses the translation.
//
// m is expected to already be decoded and validated: producing a *wasm.Module from a Wasm binary is an external
// collaborator's job (see wasm.Module's doc comment); this core never parses the wire format itself.
//
// CompileModule does not consult a Cache attached via WithCache: the translation lives only in the engine's
// in-memory state for the lifetime of this process, same as an embedding with no Cache at all.
func (r *Runtime) CompileModule(m *wasm.Module) error {
	return r.engine.CompileModule(m)
}

// DeleteCompiledModule drops the engine's reference to m's translated code; see interpreter.Engine.DeleteCompiledModule.
func (r *Runtime) DeleteCompiledModule(m *wasm.Module) { r.engine.DeleteCompiledModule(m.ID) }

// Func implements wasm.FunctionCaller, so internal/wasm.RunStartFunction can invoke a module's start function
// without internal/wasm importing the engine.
func (r *Runtime) Func(store *wasm.Store, h wasm.Handle[wasm.FunctionInstance]) api.Function {
	return r.engine.Func(store, h)
}

// instantiate is the shared implementation behind Linker.Instantiate and HostModuleBuilder.Instantiate: it
// allocates every entity m declares against r.store, wires the engine's runtime function table, runs the start
// function if any, and returns both the api.Module view and the raw instance handle (the latter is what lets a
// Linker register the new instance's own exports for a module instantiated afterward).
func (r *Runtime) instantiate(ctx context.Context, m *wasm.Module, moduleName string, resolver wasm.ImportResolver) (api.Module, wasm.Handle[wasm.ModuleInstance], error) {
	if err := r.CompileModule(m); err != nil {
		return nil, wasm.Handle[wasm.ModuleInstance]{}, err
	}

	// Applied here rather than inside internal/wasm.Instantiate because MemoryMaxPages is a RuntimeConfig (embedder)
	// concern, not a module-intrinsic one; idempotent, so re-instantiating the same *wasm.Module is harmless.
	for i, mt := range m.MemorySection {
		m.MemorySection[i] = r.config.clampMemory(mt)
	}

	instHandle, err := wasm.Instantiate(r.store, m, moduleName, resolver)
	if err != nil {
		return nil, wasm.Handle[wasm.ModuleInstance]{}, err
	}

	if _, err := r.engine.BuildModuleEngine(r.store, m, instHandle); err != nil {
		return nil, wasm.Handle[wasm.ModuleInstance]{}, err
	}

	if err := wasm.RunStartFunction(ctx, r.store, m, instHandle, r); err != nil {
		return nil, wasm.Handle[wasm.ModuleInstance]{}, err
	}

	return wasm.NewExportedModule(r.store, instHandle, r), instHandle, nil
}
