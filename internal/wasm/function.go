package wasm

import (
	"reflect"

	"github.com/wazeroc/wazeroc/api"
	"github.com/wazeroc/wazeroc/internal/wasmdebug"
)

// FunctionInstance is a function's instantiation-level metadata: its signature, its defining instance, its names,
// and, for host-defined functions, the reflected Go closure (HostFn). It carries no compiled IR: that lives in the
// engine's own per-module table, indexed in lockstep with this instance's position in the combined function index
// space, so that `internal/wasm` never imports the engine or translator packages.
type FunctionInstance struct {
	Type FunctionType

	// Instance is the module instance that defines this function and owns its tables/memories/globals. An importing
	// module reuses the exporter's entry, so Instance is the defining instance there too.
	Instance Handle[ModuleInstance]

	// Index is this function's position in the combined (imports-first) function index space of its Instance.
	Index uint32

	// ModuleName is the module an imported function was imported from, empty for locally-defined ones. Name is the
	// imported name for an import, or the name-section name (if any) for a locally-defined function.
	ModuleName, Name string

	// ExportNames lists every name this function is exported under, in declaration order.
	ExportNames []string

	// ParamNames is index-correlated with Type.Params, or nil when the name section carries none.
	ParamNames []string

	// HostFn is set for host-defined functions: an embedder-supplied Go function reflected so the executor's host
	// call trampoline can marshal arguments/results generically. Nil for Wasm-defined functions.
	HostFn *reflect.Value
}

// IsHost reports whether this function is implemented by the embedder rather than by compiled Wasm.
func (f *FunctionInstance) IsHost() bool { return f.HostFn != nil }

// IsImport reports whether this function entry represents an import rather than a local definition.
func (f *FunctionInstance) IsImport() bool { return f.ModuleName != "" }

// DebugName formats a human-readable identifier for traps and stack traces
// `internal/wasmdebug`-equivalent naming).
func (f *FunctionInstance) DebugName(definingModuleName string) string {
	name := f.Name
	if !f.IsImport() {
		if len(f.ExportNames) > 0 {
			name = f.ExportNames[0]
		}
	}
	return wasmdebug.FuncName(definingModuleName, name, f.Index)
}

// funcDefinition adapts a FunctionInstance (plus the defining module's name, resolved by its owner) to
// api.FunctionDefinition.
type funcDefinition struct {
	fn                  *FunctionInstance
	definingModuleName  string
}

// NewFunctionDefinition returns the api.FunctionDefinition view of fn, as exported/imported by the module named
// definingModuleName.
func NewFunctionDefinition(fn *FunctionInstance, definingModuleName string) api.FunctionDefinition {
	return &funcDefinition{fn: fn, definingModuleName: definingModuleName}
}

func (d *funcDefinition) ModuleName() string {
	if d.fn.IsImport() {
		return d.fn.ModuleName
	}
	return d.definingModuleName
}

func (d *funcDefinition) Index() uint32 { return d.fn.Index }

func (d *funcDefinition) Name() string { return d.fn.Name }

func (d *funcDefinition) DebugName() string { return d.fn.DebugName(d.definingModuleName) }

func (d *funcDefinition) Import() (moduleName, name string, isImport bool) {
	if !d.fn.IsImport() {
		return "", "", false
	}
	return d.fn.ModuleName, d.fn.Name, true
}

func (d *funcDefinition) ExportNames() []string { return d.fn.ExportNames }

func (d *funcDefinition) GoFunc() *reflect.Value { return d.fn.HostFn }

func (d *funcDefinition) ParamTypes() []api.ValueType { return d.fn.Type.Params }

func (d *funcDefinition) ParamNames() []string { return d.fn.ParamNames }

func (d *funcDefinition) ResultTypes() []api.ValueType { return d.fn.Type.Results }

var _ api.FunctionDefinition = (*funcDefinition)(nil)
