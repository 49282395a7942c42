package wasm

import (
	"fmt"
	"sync/atomic"

	"github.com/wazeroc/wazeroc/internal/wasmruntime"
)

// maxStoreEntities bounds every per-store arena. It is generous enough that no real embedding hits it; it exists
// so a Handle's 32-bit index never silently wraps.
const maxStoreEntities = 1 << 28

var storeIDSeq uint64

// Handle is a branded reference to an entity owned by a Store: the store's identity plus an arena index. The type
// parameter pins a Handle to one entity kind at compile time, so e.g. a
// Handle[TableInstance] can never be passed where a Handle[MemoryInstance] is expected — the store-mismatch check
// below only has to compare identities, not kinds.
type Handle[T any] struct {
	storeID uint64
	idx     uint32
}

// Index returns the arena index this handle addresses. Only meaningful once the handle has been validated against
// the store that minted it.
func (h Handle[T]) Index() uint32 { return h.idx }

// IsZero reports whether h is the unset zero value (never returned by Store.alloc*).
func (h Handle[T]) IsZero() bool { return h.storeID == 0 && h.idx == 0 }

// StoreMismatchError reports a handle resolved against a store other than the one that minted it.
type StoreMismatchError struct {
	Entity string
}

func (e *StoreMismatchError) Error() string {
	return fmt.Sprintf("%s handle belongs to a different store", e.Entity)
}

// EntityNotFoundError reports an index with no corresponding arena entry, which (given append-only arenas and
// store branding) can only happen from a corrupted handle.
type EntityNotFoundError struct {
	Entity string
	Index  uint32
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.Index)
}

// ResourceLimiter is consulted before memory.grow and table.grow are allowed to proceed. Either method returning
// false vetoes the growth without touching any store state.
type ResourceLimiter interface {
	// LimitMemory is asked whether a memory may grow from current to desired bytes.
	LimitMemory(current, desired uint64) bool
	// LimitTable is asked whether a table may grow from current to desired elements.
	LimitTable(current, desired uint64) bool
}

// Store owns every runtime entity instantiated against one engine: functions, tables, memories, globals, data and
// element segments, host extern objects, and module instances. A Store is not safe for
// concurrent use by more than one goroutine at a time.
type Store struct {
	id uint64

	Types *TypeRegistry

	funcs     *Arena[FunctionInstance]
	tables    *Arena[TableInstance]
	memories  *Arena[MemoryInstance]
	globals   *Arena[GlobalInstance]
	data      *Arena[DataSegmentInstance]
	elems     *Arena[ElemSegmentInstance]
	externs   *Arena[ExternObject]
	instances *Arena[ModuleInstance]

	fuelEnabled bool
	fuel        uint64

	limiter ResourceLimiter

	// UserData is the embedder's opaque value, reachable from a Caller view during a host call.
	UserData interface{}
}

// NewStore constructs an empty Store sharing the given engine-wide type registry. fuelEnabled fixes whether
// DeductFuel ever does anything for the lifetime of this store (fuel metering is a per-store,
// not per-call, configuration).
func NewStore(types *TypeRegistry, fuelEnabled bool) *Store {
	return &Store{
		id:          atomic.AddUint64(&storeIDSeq, 1),
		Types:       types,
		funcs:       NewArena[FunctionInstance]("functions", maxStoreEntities),
		tables:      NewArena[TableInstance]("tables", maxStoreEntities),
		memories:    NewArena[MemoryInstance]("memories", maxStoreEntities),
		globals:     NewArena[GlobalInstance]("globals", maxStoreEntities),
		data:        NewArena[DataSegmentInstance]("data segments", maxStoreEntities),
		elems:       NewArena[ElemSegmentInstance]("element segments", maxStoreEntities),
		externs:     NewArena[ExternObject]("extern objects", maxStoreEntities),
		instances:   NewArena[ModuleInstance]("instances", maxStoreEntities),
		fuelEnabled: fuelEnabled,
	}
}

// SetLimiter installs (or clears, with nil) the resource limiter consulted by memory/table growth.
func (s *Store) SetLimiter(l ResourceLimiter) { s.limiter = l }

func brand[T any](s *Store, idx uint32) Handle[T] { return Handle[T]{storeID: s.id, idx: idx} }

func resolve[T any](s *Store, h Handle[T], entity string, a *Arena[T]) (*T, error) {
	if h.storeID != s.id {
		return nil, &StoreMismatchError{Entity: entity}
	}
	if int(h.idx) >= a.Len() {
		return nil, &EntityNotFoundError{Entity: entity, Index: h.idx}
	}
	return a.Get(h.idx), nil
}

// AllocFunction installs fn and returns a branded handle to it.
func (s *Store) AllocFunction(fn FunctionInstance) (Handle[FunctionInstance], error) {
	idx, err := s.funcs.Alloc(fn)
	return brand[FunctionInstance](s, idx), err
}

// ResolveFunction dereferences h, failing with StoreMismatchError if h was minted by a different store.
func (s *Store) ResolveFunction(h Handle[FunctionInstance]) (*FunctionInstance, error) {
	return resolve(s, h, "function", s.funcs)
}

func (s *Store) AllocTable(t TableInstance) (Handle[TableInstance], error) {
	idx, err := s.tables.Alloc(t)
	return brand[TableInstance](s, idx), err
}

func (s *Store) ResolveTable(h Handle[TableInstance]) (*TableInstance, error) {
	return resolve(s, h, "table", s.tables)
}

func (s *Store) AllocMemory(m MemoryInstance) (Handle[MemoryInstance], error) {
	idx, err := s.memories.Alloc(m)
	return brand[MemoryInstance](s, idx), err
}

func (s *Store) ResolveMemory(h Handle[MemoryInstance]) (*MemoryInstance, error) {
	return resolve(s, h, "memory", s.memories)
}

func (s *Store) AllocGlobal(g GlobalInstance) (Handle[GlobalInstance], error) {
	idx, err := s.globals.Alloc(g)
	return brand[GlobalInstance](s, idx), err
}

func (s *Store) ResolveGlobal(h Handle[GlobalInstance]) (*GlobalInstance, error) {
	return resolve(s, h, "global", s.globals)
}

func (s *Store) AllocDataSegment(d DataSegmentInstance) (Handle[DataSegmentInstance], error) {
	idx, err := s.data.Alloc(d)
	return brand[DataSegmentInstance](s, idx), err
}

func (s *Store) ResolveDataSegment(h Handle[DataSegmentInstance]) (*DataSegmentInstance, error) {
	return resolve(s, h, "data segment", s.data)
}

func (s *Store) AllocElemSegment(e ElemSegmentInstance) (Handle[ElemSegmentInstance], error) {
	idx, err := s.elems.Alloc(e)
	return brand[ElemSegmentInstance](s, idx), err
}

func (s *Store) ResolveElemSegment(h Handle[ElemSegmentInstance]) (*ElemSegmentInstance, error) {
	return resolve(s, h, "element segment", s.elems)
}

// AllocExtern adopts a host-owned value into the store, returning the handle an ExternRef's bits encode.
func (s *Store) AllocExtern(e ExternObject) (Handle[ExternObject], error) {
	idx, err := s.externs.Alloc(e)
	return brand[ExternObject](s, idx), err
}

func (s *Store) ResolveExtern(h Handle[ExternObject]) (*ExternObject, error) {
	return resolve(s, h, "extern object", s.externs)
}

func (s *Store) AllocInstance(m ModuleInstance) (Handle[ModuleInstance], error) {
	idx, err := s.instances.Alloc(m)
	return brand[ModuleInstance](s, idx), err
}

func (s *Store) ResolveInstance(h Handle[ModuleInstance]) (*ModuleInstance, error) {
	return resolve(s, h, "instance", s.instances)
}

// FuelEnabled reports whether this store deducts fuel at all.
func (s *Store) FuelEnabled() bool { return s.fuelEnabled }

// GetFuel returns the remaining fuel. Meaningless (and always zero) when fuel metering is disabled.
func (s *Store) GetFuel() uint64 { return s.fuel }

// SetFuel replaces the remaining fuel, e.g. when an embedder resumes a ResumableTrap carrying
// wasmruntime.TrapCodeOutOfFuel.
func (s *Store) SetFuel(f uint64) { s.fuel = f }

// DeductFuel subtracts cost from the remaining fuel. When fuel metering is disabled this always succeeds without
// touching state. Underflow raises wasmruntime.TrapCodeOutOfFuel without mutating the remaining fuel, so a retried
// instruction (after the embedder adds fuel and resumes) sees a consistent balance.
func (s *Store) DeductFuel(cost uint64) error {
	if !s.fuelEnabled {
		return nil
	}
	if cost > s.fuel {
		return wasmruntime.TrapCodeOutOfFuel
	}
	s.fuel -= cost
	return nil
}

// CheckMemoryGrowth consults the resource limiter, if any, before a memory.grow is attempted.
func (s *Store) CheckMemoryGrowth(current, desired uint64) bool {
	return s.limiter == nil || s.limiter.LimitMemory(current, desired)
}

// CheckTableGrowth consults the resource limiter, if any, before a table.grow is attempted.
func (s *Store) CheckTableGrowth(current, desired uint64) bool {
	return s.limiter == nil || s.limiter.LimitTable(current, desired)
}

// ExternObject is a host-owned value reachable from Wasm as an ExternRef. The store never interprets Value; it is
// opaque to everything except the host code that created and later type-asserts it.
type ExternObject struct {
	Value interface{}
}

// DataSegmentInstance is a data segment's runtime state: its bytes, or none once dropped by data.drop.
type DataSegmentInstance struct {
	Bytes   []byte
	Dropped bool
}

// Drop empties the segment in place; the handle remains valid.
func (d *DataSegmentInstance) Drop() { d.Bytes = nil; d.Dropped = true }

// ElemSegmentInstance is an element segment's runtime state: its reference values, or none once dropped.
type ElemSegmentInstance struct {
	Refs    []UntypedVal
	Dropped bool
}

func (e *ElemSegmentInstance) Drop() { e.Refs = nil; e.Dropped = true }
