package wasm

import (
	"reflect"

	"github.com/wazeroc/wazeroc/api"
)

// Limits bounds a table or memory: Min is required, Max is optional (nil means unbounded by this declaration,
// though an enforced engine limit may still apply).
type Limits struct {
	Min uint64
	Max *uint64
}

// MemoryType declares a linear memory: its limits (in pages), its index type width, and its page size.
type MemoryType struct {
	Limits Limits
	// Is64 selects a 64-bit index type (the "memory64" proposal); otherwise the index type is 32-bit.
	Is64 bool
	// PageSizeLog2 is the log2 of the page size in bytes. 16 means the default 64KiB page; 0 means a page of 1
	// byte. Only {0, 16} are accepted until the custom-page-sizes proposal stabilizes.
	PageSizeLog2 uint8
}

// PageSize returns the number of bytes per page for this memory.
func (m MemoryType) PageSize() uint64 { return uint64(1) << m.PageSizeLog2 }

// TableType declares a table: its element type (Funcref or Externref) and its limits.
type TableType struct {
	ElemType api.ValueType
	Limits   Limits
	Is64     bool
}

// GlobalType declares a global cell: its value type and its mutability.
type GlobalType struct {
	ValType api.ValueType
	Mutable bool
}

// Import names one imported entity and the module/name pair it must be resolved against.
type Import struct {
	Module, Name string
	Type         api.ExternType
	// DescFuncTypeIdx, DescTable, DescMemory, DescGlobal: exactly one is meaningful, selected by Type.
	DescFuncTypeIdx uint32
	DescTable       TableType
	DescMemory      MemoryType
	DescGlobal      GlobalType
}

// Export names one locally-defined or re-exported entity.
type Export struct {
	Name  string
	Type  api.ExternType
	Index uint32
}

// GlobalDef is a module-defined (non-imported) global: its type and its constant initializer expression, already
// evaluated by the validator into a single value (extended-const expressions are evaluated ahead of time too; see
// the wasm_extended_const proposal).
type GlobalDef struct {
	Type GlobalType
	Init UntypedVal
}

// ElementSegment initializes a range of a table, or stands alone as a "passive" segment consumable only by
// table.init, until dropped by elem.drop.
type ElementSegment struct {
	Mode     SegmentMode
	TableIdx uint32
	Offset   uint64 // meaningful when Mode == SegmentModeActive
	ElemType api.ValueType
	Init     []UntypedVal // FuncRef/ExternRef values, already resolved by the validator
}

// DataSegment initializes a range of memory 0, or stands alone as "passive" until dropped by data.drop.
type DataSegment struct {
	Mode   SegmentMode
	MemIdx uint32
	Offset uint64
	Init   []byte
}

// SegmentMode distinguishes active (applied at instantiation), passive (only via *.init), and declared
// (ref.func validation only, element.drop is a no-op) segments.
type SegmentMode uint8

const (
	SegmentModeActive SegmentMode = iota
	SegmentModePassive
	SegmentModeDeclared
)

// ModuleID uniquely identifies a Module for engine-side code caching.
type ModuleID [32]byte

// Module is a validated WebAssembly module: the structured representation the translator consumes. Producing one
// from a Wasm binary is an external collaborator's job; the core only ever sees validated modules.
type Module struct {
	ID ModuleID

	TypeSection []FunctionType

	ImportSection []Import

	// FunctionSection indexes TypeSection for each module-defined (non-imported) function, in order.
	FunctionSection []uint32
	CodeSection     []Code

	// HostFunctions, if non-nil, is index-correlated with FunctionSection: a non-nil entry marks that function as
	// embedder-defined rather than Wasm bytecode, and its CodeSection entry is an unused placeholder. A module
	// built by NewHostModule sets every entry; a module decoded from a Wasm binary leaves this nil.
	HostFunctions []*reflect.Value

	TableSection  []TableType
	MemorySection []MemoryType
	GlobalSection []GlobalDef

	ExportSection []Export

	// StartSection is the function index space index of the start function, or nil if absent.
	StartSection *uint32

	ElementSection []ElementSegment
	DataSection    []DataSegment

	// NameSection, if present, supplies debug names correlated with the various index spaces. Optional.
	NameSection *NameSection
}

// NameSection carries optional debug names, independent of validation.
type NameSection struct {
	ModuleName    string
	FunctionNames map[uint32]string
	LocalNames    map[uint32]map[uint32]string
}

// ImportedFunctionCount returns how many entries of FunctionSection's combined index space are imports.
func (m *Module) ImportedFunctionCount() (n uint32) {
	for _, i := range m.ImportSection {
		if i.Type == api.ExternTypeFunc {
			n++
		}
	}
	return
}

// ImportedTableCount, ImportedMemoryCount, ImportedGlobalCount mirror ImportedFunctionCount for the other spaces.
func (m *Module) ImportedTableCount() (n uint32) {
	for _, i := range m.ImportSection {
		if i.Type == api.ExternTypeTable {
			n++
		}
	}
	return
}

func (m *Module) ImportedMemoryCount() (n uint32) {
	for _, i := range m.ImportSection {
		if i.Type == api.ExternTypeMemory {
			n++
		}
	}
	return
}

func (m *Module) ImportedGlobalCount() (n uint32) {
	for _, i := range m.ImportSection {
		if i.Type == api.ExternTypeGlobal {
			n++
		}
	}
	return
}

// TypeOfFunction resolves the FunctionType of the funcIdx'th function in the combined (imports-first) index space.
func (m *Module) TypeOfFunction(funcIdx uint32) *FunctionType {
	imported := m.ImportedFunctionCount()
	if funcIdx < imported {
		var i uint32
		for _, imp := range m.ImportSection {
			if imp.Type != api.ExternTypeFunc {
				continue
			}
			if i == funcIdx {
				return &m.TypeSection[imp.DescFuncTypeIdx]
			}
			i++
		}
	}
	return &m.TypeSection[m.FunctionSection[funcIdx-imported]]
}
