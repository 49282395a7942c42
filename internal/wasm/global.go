package wasm

import (
	"context"

	"github.com/wazeroc/wazeroc/api"
)

// GlobalInstance is a global cell's runtime state: its declared type and its current value.
// A Const global's Val is fixed at instantiation and never mutated again.
type GlobalInstance struct {
	Type GlobalType
	Val  UntypedVal
}

// Get reads the current value.
func (g *GlobalInstance) Get() UntypedVal { return g.Val }

// Set writes v, failing if the global is immutable.
func (g *GlobalInstance) Set(v UntypedVal) error {
	if !g.Type.Mutable {
		return errGlobalImmutable
	}
	g.Val = v
	return nil
}

var errGlobalImmutable = globalImmutableError{}

type globalImmutableError struct{}

func (globalImmutableError) Error() string { return "global is immutable" }

// exportedGlobal adapts a GlobalInstance, resolved through its owning store on every access, to
// api.Global/api.MutableGlobal. Re-resolving rather than caching a *GlobalInstance keeps this safe to hold past a
// memory.grow-style relocation elsewhere in the store (globals never relocate, but the pattern matches Memory/Table).
type exportedGlobal struct {
	store *Store
	h     Handle[GlobalInstance]
}

func newExportedGlobal(store *Store, h Handle[GlobalInstance]) *exportedGlobal {
	return &exportedGlobal{store: store, h: h}
}

func (g *exportedGlobal) instance() *GlobalInstance {
	inst, err := g.store.ResolveGlobal(g.h)
	if err != nil {
		panic(err) // a Handle outliving its store is an embedder bug
	}
	return inst
}

func (g *exportedGlobal) Type() api.ValueType { return g.instance().Type.ValType }

func (g *exportedGlobal) Get(context.Context) uint64 { return g.instance().Get().Bits() }

func (g *exportedGlobal) Set(_ context.Context, v uint64) { _ = g.instance().Set(UntypedVal(v)) }

func (g *exportedGlobal) String() string {
	inst := g.instance()
	return inst.Val.WithType(inst.Type.ValType).String()
}

// NewExportedGlobal returns the api.Global view of a global owned by store. The caller supplies mutable=true only
// when the global's mutability was already established (e.g. from ExportSection resolution), to decide whether to
// hand back an api.MutableGlobal.
func NewExportedGlobal(store *Store, h Handle[GlobalInstance], mutable bool) api.Global {
	g := newExportedGlobal(store, h)
	if mutable {
		return mutableGlobalView{g}
	}
	return g
}

type mutableGlobalView struct{ *exportedGlobal }

var (
	_ api.Global        = (*exportedGlobal)(nil)
	_ api.MutableGlobal = mutableGlobalView{}
)
