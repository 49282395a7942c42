package wasm

import "fmt"

// AllocatedTooManyError is returned by an arena when allocating another entry would overflow its index type or a
// caller-supplied cap.
type AllocatedTooManyError struct {
	// Arena names which arena refused the allocation, for diagnostics.
	Arena string
	// Max is the bound that was hit.
	Max uint64
}

func (e *AllocatedTooManyError) Error() string {
	return fmt.Sprintf("%s: allocated too many entries (max %d)", e.Arena, e.Max)
}

// Arena is an append-only, index-keyed container. It never reorders or removes entries: index K, once handed out by
// Alloc, addresses the same entry for the arena's lifetime.
type Arena[V any] struct {
	name  string
	items []V
	max   uint64
}

// NewArena constructs an Arena that refuses to grow past max entries.
func NewArena[V any](name string, max uint64) *Arena[V] {
	return &Arena[V]{name: name, max: max}
}

// NextKey previews the index the next Alloc call will return, letting a caller mint a handle before the entity it
// names is fully constructed (e.g. a function that needs to know its own EngineFunc while being translated).
func (a *Arena[V]) NextKey() uint32 { return uint32(len(a.items)) }

// Alloc appends v and returns its index.
func (a *Arena[V]) Alloc(v V) (uint32, error) {
	if uint64(len(a.items)) >= a.max {
		return 0, &AllocatedTooManyError{Arena: a.name, Max: a.max}
	}
	k := uint32(len(a.items))
	a.items = append(a.items, v)
	return k, nil
}

// Get returns a pointer to the entry at k, for in-place mutation.
func (a *Arena[V]) Get(k uint32) *V { return &a.items[k] }

// Len returns the number of allocated entries.
func (a *Arena[V]) Len() int { return len(a.items) }

// All returns every entry in insertion order. The caller must not retain it past the next Alloc, which may
// reallocate the backing array.
func (a *Arena[V]) All() []V { return a.items }

// DedupArena is a deduplicating arena for comparable entities: Alloc returns the existing index when the value was
// already interned, so index equality is equivalent to value equality. This is what makes function-local constant
// pools and any other small-value interning O(1) to compare.
type DedupArena[V comparable] struct {
	name   string
	items  []V
	byItem map[V]uint32
	max    uint64
}

// NewDedupArena constructs a DedupArena that refuses to grow past max distinct entries.
func NewDedupArena[V comparable](name string, max uint64) *DedupArena[V] {
	return &DedupArena[V]{name: name, byItem: map[V]uint32{}, max: max}
}

// Alloc interns v, returning its (possibly pre-existing) index.
func (a *DedupArena[V]) Alloc(v V) (uint32, error) {
	if k, ok := a.byItem[v]; ok {
		return k, nil
	}
	if uint64(len(a.items)) >= a.max {
		return 0, &AllocatedTooManyError{Arena: a.name, Max: a.max}
	}
	k := uint32(len(a.items))
	a.items = append(a.items, v)
	a.byItem[v] = k
	return k, nil
}

// Get returns the interned value at k.
func (a *DedupArena[V]) Get(k uint32) V { return a.items[k] }

// Len returns the number of distinct interned entries.
func (a *DedupArena[V]) Len() int { return len(a.items) }

// All returns every distinct entry in allocation order.
func (a *DedupArena[V]) All() []V { return a.items }
