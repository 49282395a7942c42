package wazeroc

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/wazeroc/wazeroc/api"
	"github.com/wazeroc/wazeroc/internal/wasm"
)

// HostFunctionBuilder defines one embedder-implemented function for a HostModuleBuilder, following the reflect-based
// calling convention the interpreter's host-call trampoline understands (see internal/engine/interpreter/hostfunc.go):
// an optional leading context.Context parameter, followed by zero or more of
// int32/uint32/int64/uint64/float32/float64, each mapped one for one onto a WebAssembly numeric value type.
//
// Here's an example of an addition function:
//
//	builder.NewFunctionBuilder().
//		WithFunc(func(ctx context.Context, x, y uint32) uint32 {
//			return x + y
//		}).
//		Export("add")
type HostFunctionBuilder interface {
	// WithFunc sets the Go function implementing this host function. A value that isn't a func fails Export's
	// eventual Instantiate/signatureOf call.
	WithFunc(fn interface{}) HostFunctionBuilder

	// WithName sets the optional module-local name of the function, e.g. for stack traces. Not required to match
	// the export name.
	WithName(name string) HostFunctionBuilder

	// WithParameterNames sets optional parameter names, index-correlated with the Go function's non-context
	// parameters.
	WithParameterNames(names ...string) HostFunctionBuilder

	// WithResultNames sets optional result names, index-correlated with the Go function's return values.
	WithResultNames(names ...string) HostFunctionBuilder

	// Export registers the function under name and returns the HostModuleBuilder it was defined on, for chaining.
	Export(name string) HostModuleBuilder
}

// HostModuleBuilder defines a module made entirely of embedder-implemented functions, so a Wasm-defined module can
// import it by namespace and name (usually through a Linker). This is spec.md §6's non-Wasm counterpart to a
// compiled module: the same allocate-then-run-start-function pipeline Runtime.instantiate implements, minus the
// translator, since a host function has no Wasm body to translate in the first place.
//
// For example, this defines and instantiates a module named "env" with one function:
//
//	env, err := runtime.NewHostModuleBuilder("env").
//		NewFunctionBuilder().WithFunc(func() { println("hello!") }).Export("hello").
//		Instantiate(ctx)
type HostModuleBuilder interface {
	// ExportMemory adds linear memory a Wasm-defined module can import. If a memory is already exported under name,
	// this overwrites it.
	ExportMemory(name string, minPages uint32) HostModuleBuilder

	// ExportMemoryWithMax is like ExportMemory, but bounds how far the memory may later grow.
	ExportMemoryWithMax(name string, minPages, maxPages uint32) HostModuleBuilder

	// NewFunctionBuilder begins the definition of one host function.
	NewFunctionBuilder() HostFunctionBuilder

	// Instantiate builds the module and instantiates it against the Runtime that created this builder.
	Instantiate(ctx context.Context) (api.Module, error)
}

// NewHostModuleBuilder starts the definition of a module implemented in Go, to be instantiated under moduleName.
func (r *Runtime) NewHostModuleBuilder(moduleName string) HostModuleBuilder {
	return &hostModuleBuilder{r: r, moduleName: moduleName}
}

type hostFuncSpec struct {
	fn          interface{}
	name        string
	paramNames  []string
	resultNames []string
	exportName  string
}

type hostModuleBuilder struct {
	r           *Runtime
	moduleName  string
	funcs       []*hostFuncSpec
	memories    []wasm.MemoryType
	memoryNames []string
}

func (b *hostModuleBuilder) ExportMemory(name string, minPages uint32) HostModuleBuilder {
	return b.ExportMemoryWithMax(name, minPages, 0)
}

func (b *hostModuleBuilder) ExportMemoryWithMax(name string, minPages, maxPages uint32) HostModuleBuilder {
	mt := wasm.MemoryType{Limits: wasm.Limits{Min: uint64(minPages)}, PageSizeLog2: 16}
	if maxPages > 0 {
		max := uint64(maxPages)
		mt.Limits.Max = &max
	}
	mt = b.r.config.clampMemory(mt)
	for i, n := range b.memoryNames {
		if n == name {
			b.memories[i] = mt
			return b
		}
	}
	b.memories = append(b.memories, mt)
	b.memoryNames = append(b.memoryNames, name)
	return b
}

func (b *hostModuleBuilder) NewFunctionBuilder() HostFunctionBuilder {
	return &hostFunctionBuilder{b: b}
}

func (b *hostModuleBuilder) Instantiate(ctx context.Context) (api.Module, error) {
	m, err := b.build()
	if err != nil {
		return nil, err
	}
	mod, _, err := b.r.instantiate(ctx, m, b.moduleName, noImportResolver{})
	return mod, err
}

// build compiles the accumulated function/memory definitions into a *wasm.Module ready for Runtime.instantiate.
// Every function type is interned by structural equality, same as a decoded binary's TypeSection would be.
func (b *hostModuleBuilder) build() (*wasm.Module, error) {
	m := &wasm.Module{ID: newHostModuleID()}

	hostFns := make([]*reflect.Value, len(b.funcs))
	for i, spec := range b.funcs {
		ft, err := signatureOf(spec.fn)
		if err != nil {
			return nil, fmt.Errorf("wazeroc: function %q: %w", spec.exportName, err)
		}
		m.FunctionSection = append(m.FunctionSection, internType(m, ft))
		m.CodeSection = append(m.CodeSection, wasm.Code{}) // unused: see Module.HostFunctions

		rv := reflect.ValueOf(spec.fn)
		hostFns[i] = &rv

		m.ExportSection = append(m.ExportSection, wasm.Export{
			Name: spec.exportName, Type: api.ExternTypeFunc, Index: uint32(i),
		})

		name := spec.name
		if name == "" {
			name = spec.exportName
		}
		if m.NameSection == nil {
			m.NameSection = &wasm.NameSection{
				ModuleName:    b.moduleName,
				FunctionNames: map[uint32]string{},
				LocalNames:    map[uint32]map[uint32]string{},
			}
		}
		m.NameSection.FunctionNames[uint32(i)] = name
		if len(spec.paramNames) > 0 {
			locals := make(map[uint32]string, len(spec.paramNames))
			for j, n := range spec.paramNames {
				locals[uint32(j)] = n
			}
			m.NameSection.LocalNames[uint32(i)] = locals
		}
	}
	m.HostFunctions = hostFns

	for i, mt := range b.memories {
		m.MemorySection = append(m.MemorySection, mt)
		m.ExportSection = append(m.ExportSection, wasm.Export{
			Name: b.memoryNames[i], Type: api.ExternTypeMemory, Index: uint32(i),
		})
	}

	return m, nil
}

// internType returns ft's index in m.TypeSection, appending it if no structurally equal entry exists yet.
func internType(m *wasm.Module, ft wasm.FunctionType) uint32 {
	for i := range m.TypeSection {
		if m.TypeSection[i].Equal(&ft) {
			return uint32(i)
		}
	}
	m.TypeSection = append(m.TypeSection, ft)
	return uint32(len(m.TypeSection) - 1)
}

// newHostModuleID mints an identifier for a module built by HostModuleBuilder. Unlike a module decoded from a Wasm
// binary, a host module has no wire bytes to content-hash, so this is simply unique per build rather than stable
// across builds with identical definitions: the engine's compiled-function cache buys nothing for host functions
// anyway (CompileModule skips translating them entirely), so nothing is lost by not deduplicating here.
func newHostModuleID() (id wasm.ModuleID) {
	a, b := uuid.New(), uuid.New()
	copy(id[:16], a[:])
	copy(id[16:], b[:])
	return id
}

var ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
var errType = reflect.TypeOf((*error)(nil)).Elem()

// signatureOf infers a WebAssembly function type from a Go func's signature: a leading context.Context parameter, if
// present, is dropped; every remaining parameter and result must be one of the six numeric kinds the host-call
// trampoline understands, except a trailing error result, which is dropped from the signature and instead turns
// into a trap (resumable, if the call itself was made through CallResumable) whenever the host function returns one
// — see internal/engine/interpreter/hostfunc.go's callHostFunc.
func signatureOf(fn interface{}) (wasm.FunctionType, error) {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return wasm.FunctionType{}, fmt.Errorf("not a function: %T", fn)
	}
	rt := rv.Type()

	start := 0
	if rt.NumIn() > 0 && rt.In(0) == ctxType {
		start = 1
	}

	params := make([]api.ValueType, 0, rt.NumIn()-start)
	for i := start; i < rt.NumIn(); i++ {
		vt, err := valueTypeOf(rt.In(i))
		if err != nil {
			return wasm.FunctionType{}, fmt.Errorf("parameter %d: %w", i-start, err)
		}
		params = append(params, vt)
	}

	numOut := rt.NumOut()
	if numOut > 0 && rt.Out(numOut-1) == errType {
		numOut--
	}
	results := make([]api.ValueType, 0, numOut)
	for i := 0; i < numOut; i++ {
		vt, err := valueTypeOf(rt.Out(i))
		if err != nil {
			return wasm.FunctionType{}, fmt.Errorf("result %d: %w", i, err)
		}
		results = append(results, vt)
	}

	return wasm.FunctionType{Params: params, Results: results}, nil
}

func valueTypeOf(t reflect.Type) (api.ValueType, error) {
	switch t.Kind() {
	case reflect.Int32, reflect.Uint32:
		return api.ValueTypeI32, nil
	case reflect.Int64, reflect.Uint64:
		return api.ValueTypeI64, nil
	case reflect.Float32:
		return api.ValueTypeF32, nil
	case reflect.Float64:
		return api.ValueTypeF64, nil
	default:
		return 0, fmt.Errorf("unsupported host function type %s", t)
	}
}

// hostFunctionBuilder implements HostFunctionBuilder.
type hostFunctionBuilder struct {
	b           *hostModuleBuilder
	fn          interface{}
	name        string
	paramNames  []string
	resultNames []string
}

func (h *hostFunctionBuilder) WithFunc(fn interface{}) HostFunctionBuilder {
	h.fn = fn
	return h
}

func (h *hostFunctionBuilder) WithName(name string) HostFunctionBuilder {
	h.name = name
	return h
}

func (h *hostFunctionBuilder) WithParameterNames(names ...string) HostFunctionBuilder {
	h.paramNames = names
	return h
}

func (h *hostFunctionBuilder) WithResultNames(names ...string) HostFunctionBuilder {
	h.resultNames = names
	return h
}

func (h *hostFunctionBuilder) Export(exportName string) HostModuleBuilder {
	h.b.funcs = append(h.b.funcs, &hostFuncSpec{
		fn: h.fn, name: h.name, paramNames: h.paramNames, resultNames: h.resultNames, exportName: exportName,
	})
	return h.b
}

// noImportResolver is the ImportResolver passed to a host module's instantiation: a HostModuleBuilder never declares
// imports of its own, so every lookup legitimately fails.
type noImportResolver struct{}

func (noImportResolver) ResolveFunction(string, string) (wasm.Handle[wasm.FunctionInstance], bool) {
	return wasm.Handle[wasm.FunctionInstance]{}, false
}

func (noImportResolver) ResolveTable(string, string) (wasm.Handle[wasm.TableInstance], bool) {
	return wasm.Handle[wasm.TableInstance]{}, false
}

func (noImportResolver) ResolveMemory(string, string) (wasm.Handle[wasm.MemoryInstance], bool) {
	return wasm.Handle[wasm.MemoryInstance]{}, false
}

func (noImportResolver) ResolveGlobal(string, string) (wasm.Handle[wasm.GlobalInstance], bool) {
	return wasm.Handle[wasm.GlobalInstance]{}, false
}

var _ wasm.ImportResolver = noImportResolver{}
