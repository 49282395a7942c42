package wazeroc

import (
	"context"

	"github.com/wazeroc/wazeroc/api"
	"github.com/wazeroc/wazeroc/internal/wasm"
)

// externKey identifies one entry in a Linker's namespace/name table. A NUL byte can't appear in either half since
// both are UTF-8 module/export names, so a plain two-field struct (rather than a delimited string) is both simpler
// and avoids the delimiter-collision risk the teacher's own WithImport string-concatenation trick has to guard
// against.
type externKey struct{ namespace, name string }

// Linker resolves a Module's imports by namespace and name against externs it was told about ahead of time, either
// individually (DefineFunc et al.) or in bulk, by remembering every export of a module it previously instantiated
// (DefineInstance, which Instantiate calls automatically). This is spec.md §6's Linker::{new, define, instantiate}.
type Linker struct {
	funcs   map[externKey]wasm.Handle[wasm.FunctionInstance]
	tables  map[externKey]wasm.Handle[wasm.TableInstance]
	mems    map[externKey]wasm.Handle[wasm.MemoryInstance]
	globals map[externKey]wasm.Handle[wasm.GlobalInstance]
}

// NewLinker returns an empty Linker.
func NewLinker() *Linker {
	return &Linker{
		funcs:   map[externKey]wasm.Handle[wasm.FunctionInstance]{},
		tables:  map[externKey]wasm.Handle[wasm.TableInstance]{},
		mems:    map[externKey]wasm.Handle[wasm.MemoryInstance]{},
		globals: map[externKey]wasm.Handle[wasm.GlobalInstance]{},
	}
}

// DefineFunc registers a function as importable under namespace/name. Returns l for chaining.
func (l *Linker) DefineFunc(namespace, name string, h wasm.Handle[wasm.FunctionInstance]) *Linker {
	l.funcs[externKey{namespace, name}] = h
	return l
}

// DefineTable registers a table as importable under namespace/name. Returns l for chaining.
func (l *Linker) DefineTable(namespace, name string, h wasm.Handle[wasm.TableInstance]) *Linker {
	l.tables[externKey{namespace, name}] = h
	return l
}

// DefineMemory registers a memory as importable under namespace/name. Returns l for chaining.
func (l *Linker) DefineMemory(namespace, name string, h wasm.Handle[wasm.MemoryInstance]) *Linker {
	l.mems[externKey{namespace, name}] = h
	return l
}

// DefineGlobal registers a global as importable under namespace/name. Returns l for chaining.
func (l *Linker) DefineGlobal(namespace, name string, h wasm.Handle[wasm.GlobalInstance]) *Linker {
	l.globals[externKey{namespace, name}] = h
	return l
}

// DefineInstance registers every export of an already-instantiated module under namespace, so a module instantiated
// afterward can import from it by name. Instantiate calls this automatically for the module it just built, under
// its own moduleName, which is what makes the common "module B imports from module A" pattern work without the
// embedder repeating each export by hand.
func (l *Linker) DefineInstance(store *wasm.Store, namespace string, h wasm.Handle[wasm.ModuleInstance]) error {
	inst, err := store.ResolveInstance(h)
	if err != nil {
		return err
	}
	for _, e := range inst.Exports {
		switch e.Type {
		case api.ExternTypeFunc:
			l.DefineFunc(namespace, e.Name, inst.Funcs[e.Index])
		case api.ExternTypeTable:
			l.DefineTable(namespace, e.Name, inst.Tables[e.Index])
		case api.ExternTypeMemory:
			l.DefineMemory(namespace, e.Name, inst.Memories[e.Index])
		case api.ExternTypeGlobal:
			l.DefineGlobal(namespace, e.Name, inst.Globals[e.Index])
		}
	}
	return nil
}

func (l *Linker) ResolveFunction(namespace, name string) (wasm.Handle[wasm.FunctionInstance], bool) {
	h, ok := l.funcs[externKey{namespace, name}]
	return h, ok
}

func (l *Linker) ResolveTable(namespace, name string) (wasm.Handle[wasm.TableInstance], bool) {
	h, ok := l.tables[externKey{namespace, name}]
	return h, ok
}

func (l *Linker) ResolveMemory(namespace, name string) (wasm.Handle[wasm.MemoryInstance], bool) {
	h, ok := l.mems[externKey{namespace, name}]
	return h, ok
}

func (l *Linker) ResolveGlobal(namespace, name string) (wasm.Handle[wasm.GlobalInstance], bool) {
	h, ok := l.globals[externKey{namespace, name}]
	return h, ok
}

var _ wasm.ImportResolver = (*Linker)(nil)

// Instantiate allocates every entity m declares against r's store, resolving its imports against l, runs its start
// function if any, and finally registers m's own exports under moduleName so a module instantiated afterward
// through the same Linker can import from it by name.
func (l *Linker) Instantiate(ctx context.Context, r *Runtime, m *wasm.Module, moduleName string) (api.Module, error) {
	mod, instHandle, err := r.instantiate(ctx, m, moduleName, l)
	if err != nil {
		return nil, err
	}
	if err := l.DefineInstance(r.store, moduleName, instHandle); err != nil {
		return nil, err
	}
	return mod, nil
}
