package wasm

import (
	"context"
	"fmt"

	"github.com/wazeroc/wazeroc/api"
	"github.com/wazeroc/wazeroc/internal/close"
)

// ModuleInstance is one instantiation's record of the entities it exports, plus its internal index spaces in
// canonical Wasm order. It does not own its entities: the Store does. Dropping the store drops
// every entity; a ModuleInstance surviving past that point is a dangling handle, same as any other.
type ModuleInstance struct {
	ModuleName string

	Funcs     []Handle[FunctionInstance]
	Tables    []Handle[TableInstance]
	Memories  []Handle[MemoryInstance]
	Globals   []Handle[GlobalInstance]
	DataSegs  []Handle[DataSegmentInstance]
	ElemSegs  []Handle[ElemSegmentInstance]

	Exports []Export

	// CloseHook, if set, is invoked once by CloseWithExitCode (idempotent beyond the first call).
	CloseHook func(ctx context.Context, exitCode uint32) error
	closed    bool
}

// ExportedFunctionHandle resolves an export by name to a function handle, or the zero handle if none matches.
func (m *ModuleInstance) ExportedFunctionHandle(name string) (Handle[FunctionInstance], bool) {
	for _, e := range m.Exports {
		if e.Type == api.ExternTypeFunc && e.Name == name {
			return m.Funcs[e.Index], true
		}
	}
	return Handle[FunctionInstance]{}, false
}

func (m *ModuleInstance) ExportedMemoryHandle(name string) (Handle[MemoryInstance], bool) {
	for _, e := range m.Exports {
		if e.Type == api.ExternTypeMemory && e.Name == name {
			return m.Memories[e.Index], true
		}
	}
	return Handle[MemoryInstance]{}, false
}

func (m *ModuleInstance) ExportedTableHandle(name string) (Handle[TableInstance], bool) {
	for _, e := range m.Exports {
		if e.Type == api.ExternTypeTable && e.Name == name {
			return m.Tables[e.Index], true
		}
	}
	return Handle[TableInstance]{}, false
}

func (m *ModuleInstance) ExportedGlobalHandle(name string) (Handle[GlobalInstance], bool) {
	for _, e := range m.Exports {
		if e.Type == api.ExternTypeGlobal && e.Name == name {
			return m.Globals[e.Index], true
		}
	}
	return Handle[GlobalInstance]{}, false
}

// exportedModule adapts a ModuleInstance, resolved through its owning store, to api.Module. FunctionCaller supplies
// the engine-specific invocation behind api.Function, since wasm cannot import the engine (would cycle).
type exportedModule struct {
	store  *Store
	h      Handle[ModuleInstance]
	caller FunctionCaller
}

// FunctionCaller is implemented by the engine: given a function handle, it returns the callable api.Function view.
// This indirection is what lets ModuleInstance.exportedModule live in internal/wasm without importing the engine.
type FunctionCaller interface {
	Func(store *Store, fn Handle[FunctionInstance]) api.Function
}

// NewExportedModule returns the api.Module view of a module instance owned by store, delegating function calls to
// caller.
func NewExportedModule(store *Store, h Handle[ModuleInstance], caller FunctionCaller) api.Module {
	return &exportedModule{store: store, h: h, caller: caller}
}

func (m *exportedModule) instance() *ModuleInstance {
	inst, err := m.store.ResolveInstance(m.h)
	if err != nil {
		panic(err)
	}
	return inst
}

func (m *exportedModule) String() string { return fmt.Sprintf("Module[%s]", m.instance().ModuleName) }

func (m *exportedModule) Name() string { return m.instance().ModuleName }

func (m *exportedModule) Memory() api.Memory {
	inst := m.instance()
	if len(inst.Memories) == 0 {
		return nil
	}
	return NewExportedMemory(m.store, inst.Memories[0])
}

func (m *exportedModule) ExportedFunction(name string) api.Function {
	h, ok := m.instance().ExportedFunctionHandle(name)
	if !ok {
		return nil
	}
	return m.caller.Func(m.store, h)
}

func (m *exportedModule) ExportedMemory(name string) api.Memory {
	h, ok := m.instance().ExportedMemoryHandle(name)
	if !ok {
		return nil
	}
	return NewExportedMemory(m.store, h)
}

func (m *exportedModule) ExportedGlobal(name string) api.Global {
	h, ok := m.instance().ExportedGlobalHandle(name)
	if !ok {
		return nil
	}
	g, err := m.store.ResolveGlobal(h)
	if err != nil {
		panic(err) // a Handle outliving its store is an embedder bug
	}
	return NewExportedGlobal(m.store, h, g.Type.Mutable)
}

func (m *exportedModule) ExportedTable(name string) api.Table {
	h, ok := m.instance().ExportedTableHandle(name)
	if !ok {
		return nil
	}
	return NewExportedTable(m.store, h)
}

func (m *exportedModule) CloseWithExitCode(ctx context.Context, exitCode uint32) error {
	inst := m.instance()
	if inst.closed {
		return nil
	}
	inst.closed = true
	if n, ok := ctx.Value(close.NotificationKey{}).(close.Notification); ok {
		n.OnClose(ctx, exitCode)
	}
	if inst.CloseHook != nil {
		return inst.CloseHook(ctx, exitCode)
	}
	return nil
}

func (m *exportedModule) Close(ctx context.Context) error { return m.CloseWithExitCode(ctx, 0) }

var _ api.Module = (*exportedModule)(nil)
