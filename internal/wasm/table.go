package wasm

import (
	"context"

	"github.com/wazeroc/wazeroc/api"
)

// TableInstance is a table's runtime state: a vector of reference words bounded by the declared limits. Element
// type and index-type width are immutable after creation; only the length changes, via Grow.
type TableInstance struct {
	Type Type
	Refs []UntypedVal
}

// Type mirrors TableType; split out so TableInstance can embed it without import-cycle concerns in callers that
// only need the element type.
type Type = TableType

// Min/Max helpers read the declared limits.
func (t *TableInstance) Min() uint64  { return t.Type.Limits.Min }
func (t *TableInstance) HasMax() bool { return t.Type.Limits.Max != nil }
func (t *TableInstance) Max() uint64 {
	if t.Type.Limits.Max != nil {
		return *t.Type.Limits.Max
	}
	return 1<<32 - 1
}

// Size returns the current element count.
func (t *TableInstance) Size() uint64 { return uint64(len(t.Refs)) }

// Get reads the reference at i, or reports false if i is out of bounds.
func (t *TableInstance) Get(i uint64) (UntypedVal, bool) {
	if i >= uint64(len(t.Refs)) {
		return 0, false
	}
	return t.Refs[i], true
}

// Set writes ref at i, or reports false if i is out of bounds.
func (t *TableInstance) Set(i uint64, ref UntypedVal) bool {
	if i >= uint64(len(t.Refs)) {
		return false
	}
	t.Refs[i] = ref
	return true
}

// Grow appends delta elements initialized to init, refusing (returning false) if the limiter vetoes the growth or
// the result would exceed the declared maximum. On success previous is the pre-growth size.
func (t *TableInstance) Grow(store *Store, delta uint64, init UntypedVal) (previous uint64, ok bool) {
	previous = t.Size()
	desired := previous + delta
	if delta == 0 {
		return previous, true
	}
	if desired > t.Max() || desired < previous /* overflow */ {
		return previous, false
	}
	if !store.CheckTableGrowth(previous, desired) {
		return previous, false
	}
	grown := make([]UntypedVal, desired)
	copy(grown, t.Refs)
	for i := previous; i < desired; i++ {
		grown[i] = init
	}
	t.Refs = grown
	return previous, true
}

// exportedTable adapts a TableInstance to api.Table, re-resolving through the store on every access since Grow
// reallocates Refs.
type exportedTable struct {
	store *Store
	h     Handle[TableInstance]
}

// NewExportedTable returns the api.Table view of a table owned by store.
func NewExportedTable(store *Store, h Handle[TableInstance]) api.Table {
	return &exportedTable{store: store, h: h}
}

func (t *exportedTable) instance() *TableInstance {
	inst, err := t.store.ResolveTable(t.h)
	if err != nil {
		panic(err)
	}
	return inst
}

func (t *exportedTable) Type() api.ValueType { return t.instance().Type.ElemType }

func (t *exportedTable) Size(context.Context) uint32 { return uint32(t.instance().Size()) }

func (t *exportedTable) Grow(_ context.Context, delta uint32, init uint64) (previous uint32, ok bool) {
	p, ok := t.instance().Grow(t.store, uint64(delta), UntypedVal(init))
	return uint32(p), ok
}

var _ api.Table = (*exportedTable)(nil)
