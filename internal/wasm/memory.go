package wasm

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/wazeroc/wazeroc/api"
	"github.com/wazeroc/wazeroc/internal/features"
)

// memoryBuffer is the growable byte store behind a MemoryInstance. Two implementations coexist. Two implementations coexist
// allocation strategy"): a reallocating buffer that may relocate on growth, and a virtual-memory-style buffer that
// reserves its maximum size up front so growth never relocates.
type memoryBuffer interface {
	// data returns the buffer sliced to its current length.
	data() []byte
	// growTo extends (never shrinks) the buffer to newLen bytes and returns the new data() view.
	growTo(newLen uint64) []byte
}

// reallocBuffer grows by reallocating, like a plain append-only byte vector. Selected when the memory declares no
// maximum, or when the vmem-memory feature is not enabled.
type reallocBuffer struct{ buf []byte }

func (b *reallocBuffer) data() []byte { return b.buf }

func (b *reallocBuffer) growTo(newLen uint64) []byte {
	if newLen <= uint64(cap(b.buf)) {
		b.buf = b.buf[:newLen]
		return b.buf
	}
	grown := make([]byte, newLen)
	copy(grown, b.buf)
	b.buf = grown
	return b.buf
}

// vmemBuffer reserves its declared maximum up front, so growTo only ever re-slices: the backing array's address
// never changes, meaning an executor's cached default-memory pointer stays valid across memory.grow without needing
// the invalidate-and-refetch path. This is the Go-idiomatic approximation of an OS-backed
// reserve-then-commit virtual memory region (no actual mmap/VirtualAlloc call; see DESIGN.md).
type vmemBuffer struct {
	buf []byte
	len uint64
}

func newVmemBuffer(maxBytes uint64) *vmemBuffer { return &vmemBuffer{buf: make([]byte, maxBytes)} }

func (b *vmemBuffer) data() []byte { return b.buf[:b.len] }

func (b *vmemBuffer) growTo(newLen uint64) []byte {
	b.len = newLen
	return b.buf[:newLen]
}

// MemoryInstance is a linear memory's runtime state.
type MemoryInstance struct {
	Type MemoryType
	buf  memoryBuffer
}

// NewMemoryInstance allocates a memory of type t, already grown to its declared minimum.
func NewMemoryInstance(t MemoryType) *MemoryInstance {
	var buf memoryBuffer
	if t.Limits.Max != nil && features.Have("vmem-memory") {
		buf = newVmemBuffer(*t.Limits.Max * t.PageSize())
	} else {
		buf = &reallocBuffer{}
	}
	m := &MemoryInstance{Type: t, buf: buf}
	m.buf.growTo(t.Limits.Min * t.PageSize())
	return m
}

// ByteLength returns the current size in bytes.
func (m *MemoryInstance) ByteLength() uint64 { return uint64(len(m.buf.data())) }

// PageCount returns the current size in pages.
func (m *MemoryInstance) PageCount() uint64 { return m.ByteLength() / m.Type.PageSize() }

func (m *MemoryInstance) maxPages() uint64 {
	if m.Type.Limits.Max != nil {
		return *m.Type.Limits.Max
	}
	if m.Type.Is64 {
		return 1 << 48
	}
	return (uint64(1) << 32) / m.Type.PageSize()
}

// Grow extends the memory by deltaPages, refusing (returning ok=false, no trap) if
// that would exceed the declared maximum or the configured resource limiter vetoes it.
func (m *MemoryInstance) Grow(store *Store, deltaPages uint64) (previous uint64, ok bool) {
	previous = m.PageCount()
	if deltaPages == 0 {
		return previous, true
	}
	desired := previous + deltaPages
	if desired > m.maxPages() || desired < previous {
		return previous, false
	}
	if !store.CheckMemoryGrowth(previous*m.Type.PageSize(), desired*m.Type.PageSize()) {
		return previous, false
	}
	m.buf.growTo(desired * m.Type.PageSize())
	return previous, true
}

// Bytes returns the current backing slice. A caller holding on to it must re-fetch it after any operation that may
// have grown the memory; the accessors below fetch it afresh on every call.
func (m *MemoryInstance) Bytes() []byte { return m.buf.data() }

func (m *MemoryInstance) inBounds(offset, size uint64) bool {
	return offset+size <= m.ByteLength() && offset+size >= offset // overflow guard
}

func (m *MemoryInstance) ReadByte(offset uint32) (byte, bool) {
	if !m.inBounds(uint64(offset), 1) {
		return 0, false
	}
	return m.Bytes()[offset], true
}

func (m *MemoryInstance) ReadUint16Le(offset uint32) (uint16, bool) {
	if !m.inBounds(uint64(offset), 2) {
		return 0, false
	}
	return binary.LittleEndian.Uint16(m.Bytes()[offset:]), true
}

func (m *MemoryInstance) ReadUint32Le(offset uint32) (uint32, bool) {
	if !m.inBounds(uint64(offset), 4) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(m.Bytes()[offset:]), true
}

func (m *MemoryInstance) ReadUint64Le(offset uint32) (uint64, bool) {
	if !m.inBounds(uint64(offset), 8) {
		return 0, false
	}
	return binary.LittleEndian.Uint64(m.Bytes()[offset:]), true
}

func (m *MemoryInstance) ReadFloat32Le(offset uint32) (float32, bool) {
	v, ok := m.ReadUint32Le(offset)
	return math.Float32frombits(v), ok
}

func (m *MemoryInstance) ReadFloat64Le(offset uint32) (float64, bool) {
	v, ok := m.ReadUint64Le(offset)
	return math.Float64frombits(v), ok
}

// Read returns a live view of byteCount bytes at offset: writes through it are visible to Wasm and vice versa,
// until a grow relocates the buffer (only possible with the realloc buffer).
func (m *MemoryInstance) Read(offset, byteCount uint32) ([]byte, bool) {
	if !m.inBounds(uint64(offset), uint64(byteCount)) {
		return nil, false
	}
	return m.Bytes()[offset : offset+byteCount : offset+byteCount], true
}

func (m *MemoryInstance) WriteByte(offset uint32, v byte) bool {
	if !m.inBounds(uint64(offset), 1) {
		return false
	}
	m.Bytes()[offset] = v
	return true
}

func (m *MemoryInstance) WriteUint16Le(offset uint32, v uint16) bool {
	if !m.inBounds(uint64(offset), 2) {
		return false
	}
	binary.LittleEndian.PutUint16(m.Bytes()[offset:], v)
	return true
}

func (m *MemoryInstance) WriteUint32Le(offset uint32, v uint32) bool {
	if !m.inBounds(uint64(offset), 4) {
		return false
	}
	binary.LittleEndian.PutUint32(m.Bytes()[offset:], v)
	return true
}

func (m *MemoryInstance) WriteUint64Le(offset uint32, v uint64) bool {
	if !m.inBounds(uint64(offset), 8) {
		return false
	}
	binary.LittleEndian.PutUint64(m.Bytes()[offset:], v)
	return true
}

func (m *MemoryInstance) WriteFloat32Le(offset uint32, v float32) bool {
	return m.WriteUint32Le(offset, math.Float32bits(v))
}

func (m *MemoryInstance) WriteFloat64Le(offset uint32, v float64) bool {
	return m.WriteUint64Le(offset, math.Float64bits(v))
}

func (m *MemoryInstance) Write(offset uint32, v []byte) bool {
	if !m.inBounds(uint64(offset), uint64(len(v))) {
		return false
	}
	copy(m.Bytes()[offset:], v)
	return true
}

// exportedMemory adapts a MemoryInstance, resolved through its owning store on every access, to api.Memory.
type exportedMemory struct {
	store *Store
	h     Handle[MemoryInstance]
}

// NewExportedMemory returns the api.Memory view of a memory owned by store.
func NewExportedMemory(store *Store, h Handle[MemoryInstance]) api.Memory {
	return &exportedMemory{store: store, h: h}
}

func (m *exportedMemory) instance() *MemoryInstance {
	inst, err := m.store.ResolveMemory(m.h)
	if err != nil {
		panic(err)
	}
	return inst
}

func (m *exportedMemory) Size(context.Context) uint32 { return uint32(m.instance().ByteLength()) }

func (m *exportedMemory) Grow(_ context.Context, deltaPages uint32) (previousPages uint32, ok bool) {
	p, ok := m.instance().Grow(m.store, uint64(deltaPages))
	return uint32(p), ok
}

func (m *exportedMemory) ReadByte(_ context.Context, offset uint32) (byte, bool) {
	return m.instance().ReadByte(offset)
}

func (m *exportedMemory) ReadUint16Le(_ context.Context, offset uint32) (uint16, bool) {
	return m.instance().ReadUint16Le(offset)
}

func (m *exportedMemory) ReadUint32Le(_ context.Context, offset uint32) (uint32, bool) {
	return m.instance().ReadUint32Le(offset)
}

func (m *exportedMemory) ReadFloat32Le(_ context.Context, offset uint32) (float32, bool) {
	return m.instance().ReadFloat32Le(offset)
}

func (m *exportedMemory) ReadUint64Le(_ context.Context, offset uint32) (uint64, bool) {
	return m.instance().ReadUint64Le(offset)
}

func (m *exportedMemory) ReadFloat64Le(_ context.Context, offset uint32) (float64, bool) {
	return m.instance().ReadFloat64Le(offset)
}

func (m *exportedMemory) Read(_ context.Context, offset, byteCount uint32) ([]byte, bool) {
	return m.instance().Read(offset, byteCount)
}

func (m *exportedMemory) WriteByte(_ context.Context, offset uint32, v byte) bool {
	return m.instance().WriteByte(offset, v)
}

func (m *exportedMemory) WriteUint16Le(_ context.Context, offset uint32, v uint16) bool {
	return m.instance().WriteUint16Le(offset, v)
}

func (m *exportedMemory) WriteUint32Le(_ context.Context, offset, v uint32) bool {
	return m.instance().WriteUint32Le(offset, v)
}

func (m *exportedMemory) WriteFloat32Le(_ context.Context, offset uint32, v float32) bool {
	return m.instance().WriteFloat32Le(offset, v)
}

func (m *exportedMemory) WriteUint64Le(_ context.Context, offset uint32, v uint64) bool {
	return m.instance().WriteUint64Le(offset, v)
}

func (m *exportedMemory) WriteFloat64Le(_ context.Context, offset uint32, v float64) bool {
	return m.instance().WriteFloat64Le(offset, v)
}

func (m *exportedMemory) Write(_ context.Context, offset uint32, v []byte) bool {
	return m.instance().Write(offset, v)
}

var _ api.Memory = (*exportedMemory)(nil)
