// Package interpreter is the register-machine executor: it takes the IR a wazeroir.Translator produced and runs it
// directly, without ever emitting native code.
package interpreter

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/wazeroc/wazeroc/internal/logging"
	"github.com/wazeroc/wazeroc/internal/wasm"
	"github.com/wazeroc/wazeroc/internal/wazeroir"
)

// Engine owns one shared type registry and code map across every module compiled against it, plus the bookkeeping
// needed to find a function's compiled body, or its owning ModuleEngine, from a store handle. One Engine is
// typically shared by every Store an embedder creates from the same runtime configuration.
type Engine struct {
	// ID distinguishes this Engine instance from any other created with a possibly different configuration, so an
	// on-disk compilation cache populated by one never answers a lookup from another (see compilationcache.NewKey).
	ID uuid.UUID

	types *wasm.TypeRegistry
	code  *wazeroir.CodeMap

	listenerFactory logging.FunctionListenerFactory

	// stacks pools drained value-stack/frame-stack storage across invocations of similarly-sized functions, so a
	// program making many short-lived calls doesn't reallocate on every one.
	stacks *stackPool

	mux     sync.RWMutex
	modules map[wasm.ModuleID]*compiledModule
	// instances maps a live module instance back to the ModuleEngine holding its runtime function table. Entries
	// are removed by ModuleEngine.Close; closing the instance's api.Module does not call it.
	instances map[wasm.Handle[wasm.ModuleInstance]]*ModuleEngine
}

// compiledModule is the translated form of a Module, shared by every instance of that module: translation runs
// once per distinct Module, not once per Instantiate call.
type compiledModule struct {
	module   *wasm.Module
	handles  []wazeroir.EngineFunc // index-correlated with module.CodeSection (local functions only)
	refCount int
}

// NewEngine constructs an Engine with its own type registry and code map. maxTypes bounds the number of distinct
// function signatures the registry will intern. stackPoolSize bounds how many drained stackSets are retained per
// call-window size class (0 selects defaultStackPoolSizePerClass).
func NewEngine(maxTypes uint64, stackPoolSize int, listenerFactory logging.FunctionListenerFactory) *Engine {
	if listenerFactory == nil {
		listenerFactory = nopListenerFactory{}
	}
	return &Engine{
		ID:              uuid.New(),
		types:           wasm.NewTypeRegistry(maxTypes),
		code:            wazeroir.NewCodeMap(),
		listenerFactory: listenerFactory,
		stacks:          newStackPool(256, stackPoolSize),
		modules:         map[wasm.ModuleID]*compiledModule{},
		instances:       map[wasm.Handle[wasm.ModuleInstance]]*ModuleEngine{},
	}
}

// Types returns the engine-wide function-signature registry, shared by every Store built against this Engine.
func (e *Engine) Types() *wasm.TypeRegistry { return e.types }

type nopListenerFactory struct{}

func (nopListenerFactory) NewListener(logging.FunctionListener) logging.FunctionListener { return logging.Nop }

// CompileModule translates every locally-defined function body in module and installs the results into the shared
// code map, keyed by module.ID so a second Instantiate of the same Module reuses the translation. Returns nil
// without retranslating if module.ID was already compiled.
func (e *Engine) CompileModule(module *wasm.Module) error {
	e.mux.Lock()
	defer e.mux.Unlock()

	if cm, ok := e.modules[module.ID]; ok {
		cm.refCount++
		return nil
	}

	imported := module.ImportedFunctionCount()
	handles := make([]wazeroir.EngineFunc, len(module.CodeSection))
	for i := range module.CodeSection {
		if module.HostFunctions != nil && module.HostFunctions[i] != nil {
			continue // host-defined: no Wasm body to translate, runtime dispatch goes through reflection instead.
		}
		funcIdx := imported + uint32(i)
		fnType := module.TypeOfFunction(funcIdx)
		debugName := fmt.Sprintf("$%d", funcIdx)
		if module.NameSection != nil {
			if n, ok := module.NameSection.FunctionNames[funcIdx]; ok {
				debugName = n
			}
		}
		tr := wazeroir.NewTranslator(module, *fnType, &module.CodeSection[i], debugName)
		cf, err := tr.Translate()
		if err != nil {
			return err
		}
		handles[i] = e.code.Install(cf)
	}
	e.code.Finalize()

	e.modules[module.ID] = &compiledModule{module: module, handles: handles, refCount: 1}
	return nil
}

// CompiledModuleCount reports how many distinct Modules currently have translated code installed.
func (e *Engine) CompiledModuleCount() int {
	e.mux.RLock()
	defer e.mux.RUnlock()
	return len(e.modules)
}

// DeleteCompiledModule drops the engine's reference to module's translated code. The underlying CompiledFunction
// entries stay in the append-only code map (already-running instances may still address them by EngineFunc). The
// module's entry is removed only once its reference count reaches zero, i.e. every CompileModule of the ID has had a
// matching delete; until then a later CompileModule of the same ID reuses it, and after that it retranslates.
func (e *Engine) DeleteCompiledModule(id wasm.ModuleID) {
	e.mux.Lock()
	defer e.mux.Unlock()
	if cm, ok := e.modules[id]; ok {
		cm.refCount--
		if cm.refCount <= 0 {
			delete(e.modules, id)
		}
	}
}

func (e *Engine) compiledFor(id wasm.ModuleID) (*compiledModule, bool) {
	e.mux.RLock()
	defer e.mux.RUnlock()
	cm, ok := e.modules[id]
	return cm, ok
}

func (e *Engine) registerInstance(h wasm.Handle[wasm.ModuleInstance], me *ModuleEngine) {
	e.mux.Lock()
	defer e.mux.Unlock()
	e.instances[h] = me
}

func (e *Engine) forgetInstance(h wasm.Handle[wasm.ModuleInstance]) {
	e.mux.Lock()
	defer e.mux.Unlock()
	delete(e.instances, h)
}

func (e *Engine) moduleEngineFor(h wasm.Handle[wasm.ModuleInstance]) *ModuleEngine {
	e.mux.RLock()
	defer e.mux.RUnlock()
	return e.instances[h]
}
