package wasm

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// DedupFuncType is a branded handle into an engine's TypeRegistry. Equality of two handles is integer equality,
// and integer equality is sufficient to decide type equality everywhere a DedupFuncType is compared (indirect-call
// type checks resolve both the callee and the call-site type through the same registry).
type DedupFuncType uint32

// TypeRegistry is the engine-wide deduplicating arena of function types. Interning hashes the type's encoded
// signature with xxhash for an O(1) fast path; a collision on the hash bucket falls back to structural equality, so
// two distinct signatures are never merged even if their hashes collide.
type TypeRegistry struct {
	mux     sync.RWMutex
	types   []*FunctionType
	buckets map[uint64][]uint32
	max     uint64
}

// NewTypeRegistry constructs a TypeRegistry that refuses to intern more than max distinct signatures.
func NewTypeRegistry(max uint64) *TypeRegistry {
	return &TypeRegistry{buckets: map[uint64][]uint32{}, max: max}
}

// Intern returns the DedupFuncType for ft, allocating a new entry only if no structurally-equal type was already
// registered.
func (r *TypeRegistry) Intern(ft *FunctionType) (DedupFuncType, error) {
	h := xxhash.Sum64String(ft.key())

	r.mux.Lock()
	defer r.mux.Unlock()

	for _, idx := range r.buckets[h] {
		if r.types[idx].Equal(ft) {
			return DedupFuncType(idx), nil
		}
	}
	if uint64(len(r.types)) >= r.max {
		return 0, &AllocatedTooManyError{Arena: "TypeRegistry", Max: r.max}
	}
	idx := uint32(len(r.types))
	r.types = append(r.types, ft)
	r.buckets[h] = append(r.buckets[h], idx)
	return DedupFuncType(idx), nil
}

// Type resolves a handle back to its FunctionType. Panics if h was not produced by this registry: that is a
// programming error in the embedder, not a runtime condition.
func (r *TypeRegistry) Type(h DedupFuncType) *FunctionType {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return r.types[h]
}

// Len returns the number of distinct interned types.
func (r *TypeRegistry) Len() int {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return len(r.types)
}
