package wasm

import (
	"context"

	"github.com/wazeroc/wazeroc/api"
)

// ImportResolver supplies the concrete entity behind each of a Module's imports, keyed by the module/name pair the
// import declares. A Linker (built by a higher-level orchestrator) is the usual implementation: it remembers every
// previously instantiated module's exports, and every registered host module, by name.
type ImportResolver interface {
	ResolveFunction(moduleName, name string) (Handle[FunctionInstance], bool)
	ResolveTable(moduleName, name string) (Handle[TableInstance], bool)
	ResolveMemory(moduleName, name string) (Handle[MemoryInstance], bool)
	ResolveGlobal(moduleName, name string) (Handle[GlobalInstance], bool)
}

// Instantiate allocates every entity m declares — its imports resolved against resolver, its locally-defined
// tables/memories/globals/functions allocated fresh, its element and data segments applied — into store, under the
// name moduleName. The returned handle's ModuleInstance has no executable code of its own yet: wiring a
// runtimeFunction table to each FunctionInstance is the engine's job, done once this call returns
// (internal/wasm must not import the engine, on pain of an import cycle). The start function, if any, is likewise
// left unrun: see RunStartFunction.
func Instantiate(store *Store, m *Module, moduleName string, resolver ImportResolver) (Handle[ModuleInstance], error) {
	instHandle, err := store.AllocInstance(ModuleInstance{ModuleName: moduleName})
	if err != nil {
		return Handle[ModuleInstance]{}, err
	}

	importedFuncs, importedTables, importedMems, importedGlobals, err := resolveImports(store, m, resolver)
	if err != nil {
		return Handle[ModuleInstance]{}, err
	}

	funcs := append([]Handle[FunctionInstance]{}, importedFuncs...)
	for i := range m.FunctionSection {
		funcIdx := uint32(len(importedFuncs) + i)
		fi := FunctionInstance{Type: *m.TypeOfFunction(funcIdx), Instance: instHandle, Index: funcIdx}
		if m.HostFunctions != nil {
			fi.HostFn = m.HostFunctions[i]
		}
		if m.NameSection != nil {
			fi.Name = m.NameSection.FunctionNames[funcIdx]
			if locals, ok := m.NameSection.LocalNames[funcIdx]; ok {
				fi.ParamNames = make([]string, len(fi.Type.Params))
				for i := range fi.ParamNames {
					fi.ParamNames[i] = locals[uint32(i)]
				}
			}
		}
		for _, e := range m.ExportSection {
			if e.Type == api.ExternTypeFunc && e.Index == funcIdx {
				fi.ExportNames = append(fi.ExportNames, e.Name)
			}
		}
		h, err := store.AllocFunction(fi)
		if err != nil {
			return Handle[ModuleInstance]{}, err
		}
		funcs = append(funcs, h)
	}

	tables := append([]Handle[TableInstance]{}, importedTables...)
	for _, tt := range m.TableSection {
		refs := make([]UntypedVal, tt.Limits.Min)
		h, err := store.AllocTable(TableInstance{Type: tt, Refs: refs})
		if err != nil {
			return Handle[ModuleInstance]{}, err
		}
		tables = append(tables, h)
	}

	mems := append([]Handle[MemoryInstance]{}, importedMems...)
	for _, mt := range m.MemorySection {
		if mt.PageSizeLog2 != 0 && mt.PageSizeLog2 != 16 {
			return Handle[ModuleInstance]{}, ErrUnsupportedPageSize
		}
		h, err := store.AllocMemory(*NewMemoryInstance(mt))
		if err != nil {
			return Handle[ModuleInstance]{}, err
		}
		mems = append(mems, h)
	}

	globals := append([]Handle[GlobalInstance]{}, importedGlobals...)
	for _, gd := range m.GlobalSection {
		h, err := store.AllocGlobal(GlobalInstance{Type: gd.Type, Val: gd.Init})
		if err != nil {
			return Handle[ModuleInstance]{}, err
		}
		globals = append(globals, h)
	}

	inst, err := store.ResolveInstance(instHandle)
	if err != nil {
		return Handle[ModuleInstance]{}, err
	}
	inst.Funcs, inst.Tables, inst.Memories, inst.Globals = funcs, tables, mems, globals
	inst.Exports = m.ExportSection

	elemSegs, err := applyElementSegments(store, m, inst, tables)
	if err != nil {
		return Handle[ModuleInstance]{}, err
	}
	inst.ElemSegs = elemSegs

	dataSegs, err := applyDataSegments(store, m, mems)
	if err != nil {
		return Handle[ModuleInstance]{}, err
	}
	inst.DataSegs = dataSegs

	return instHandle, nil
}

// resolveImports walks m.ImportSection in order, returning one handle slice per extern kind, index-correlated with
// that kind's share of the combined (imports-first) index space.
func resolveImports(store *Store, m *Module, resolver ImportResolver) (
	funcs []Handle[FunctionInstance], tables []Handle[TableInstance], mems []Handle[MemoryInstance], globals []Handle[GlobalInstance], err error,
) {
	for _, imp := range m.ImportSection {
		switch imp.Type {
		case api.ExternTypeFunc:
			h, ok := resolver.ResolveFunction(imp.Module, imp.Name)
			if !ok {
				return nil, nil, nil, nil, errImportNotFound(imp.Module, imp.Name)
			}
			fn, rerr := store.ResolveFunction(h)
			if rerr != nil {
				return nil, nil, nil, nil, rerr
			}
			want := &m.TypeSection[imp.DescFuncTypeIdx]
			if !want.Equal(&fn.Type) {
				return nil, nil, nil, nil, errSignatureMismatch(imp.Module, imp.Name, want, &fn.Type)
			}
			funcs = append(funcs, h)

		case api.ExternTypeTable:
			h, ok := resolver.ResolveTable(imp.Module, imp.Name)
			if !ok {
				return nil, nil, nil, nil, errImportNotFound(imp.Module, imp.Name)
			}
			t, rerr := store.ResolveTable(h)
			if rerr != nil {
				return nil, nil, nil, nil, rerr
			}
			if t.Type.ElemType != imp.DescTable.ElemType || !limitsSatisfy(imp.DescTable.Limits, t.Type.Limits) {
				return nil, nil, nil, nil, errTableTypeMismatch(imp.Module, imp.Name)
			}
			tables = append(tables, h)

		case api.ExternTypeMemory:
			h, ok := resolver.ResolveMemory(imp.Module, imp.Name)
			if !ok {
				return nil, nil, nil, nil, errImportNotFound(imp.Module, imp.Name)
			}
			mem, rerr := store.ResolveMemory(h)
			if rerr != nil {
				return nil, nil, nil, nil, rerr
			}
			if mem.Type.Is64 != imp.DescMemory.Is64 || !limitsSatisfy(imp.DescMemory.Limits, mem.Type.Limits) {
				return nil, nil, nil, nil, errMemoryTypeMismatch(imp.Module, imp.Name)
			}
			mems = append(mems, h)

		case api.ExternTypeGlobal:
			h, ok := resolver.ResolveGlobal(imp.Module, imp.Name)
			if !ok {
				return nil, nil, nil, nil, errImportNotFound(imp.Module, imp.Name)
			}
			g, rerr := store.ResolveGlobal(h)
			if rerr != nil {
				return nil, nil, nil, nil, rerr
			}
			if g.Type.ValType != imp.DescGlobal.ValType || g.Type.Mutable != imp.DescGlobal.Mutable {
				return nil, nil, nil, nil, errGlobalTypeMismatch(imp.Module, imp.Name)
			}
			globals = append(globals, h)

		default:
			return nil, nil, nil, nil, errImportKindMismatch(imp.Module, imp.Name, imp.Type, imp.Type)
		}
	}
	return funcs, tables, mems, globals, nil
}

// limitsSatisfy reports whether an actual (table/memory) limit pair satisfies what an import declaration requires:
// at least as large a minimum, and — if the import requires a maximum — an actual maximum no larger than it.
func limitsSatisfy(required, actual Limits) bool {
	if actual.Min < required.Min {
		return false
	}
	if required.Max == nil {
		return true
	}
	return actual.Max != nil && *actual.Max <= *required.Max
}

// applyElementSegments copies each active element segment's refs into its target table, and allocates every
// segment (active or passive) as a store entity so table.init/elem.drop can address it later by index.
func applyElementSegments(store *Store, m *Module, inst *ModuleInstance, tables []Handle[TableInstance]) ([]Handle[ElemSegmentInstance], error) {
	segs := make([]Handle[ElemSegmentInstance], 0, len(m.ElementSection))
	for _, es := range m.ElementSection {
		h, err := store.AllocElemSegment(ElemSegmentInstance{Refs: append([]UntypedVal{}, es.Init...)})
		if err != nil {
			return nil, err
		}
		segs = append(segs, h)

		if es.Mode != SegmentModeActive {
			continue
		}
		table, err := store.ResolveTable(tables[es.TableIdx])
		if err != nil {
			return nil, err
		}
		if es.Offset+uint64(len(es.Init)) > table.Size() {
			return nil, errElementSegmentDoesNotFit(es.TableIdx, es.Offset, uint64(len(es.Init)), table.Size())
		}
		copy(table.Refs[es.Offset:], es.Init)
	}
	return segs, nil
}

// applyDataSegments copies each active data segment's bytes into its target memory, and allocates every segment
// (active or passive) as a store entity so memory.init/data.drop can address it later by index.
func applyDataSegments(store *Store, m *Module, mems []Handle[MemoryInstance]) ([]Handle[DataSegmentInstance], error) {
	segs := make([]Handle[DataSegmentInstance], 0, len(m.DataSection))
	for _, ds := range m.DataSection {
		h, err := store.AllocDataSegment(DataSegmentInstance{Bytes: append([]byte{}, ds.Init...)})
		if err != nil {
			return nil, err
		}
		segs = append(segs, h)

		if ds.Mode != SegmentModeActive {
			continue
		}
		mem, err := store.ResolveMemory(mems[ds.MemIdx])
		if err != nil {
			return nil, err
		}
		if ds.Offset+uint64(len(ds.Init)) > mem.ByteLength() {
			return nil, errDataSegmentDoesNotFit(ds.MemIdx, ds.Offset, uint64(len(ds.Init)), mem.ByteLength())
		}
		copy(mem.Bytes()[ds.Offset:], ds.Init)
	}
	return segs, nil
}

// RunStartFunction invokes m's start function, if it declares one, through caller (the engine's FunctionCaller view
// of instHandle's function table). A trap or host error is wrapped so it identifies the start function by name.
func RunStartFunction(ctx context.Context, store *Store, m *Module, instHandle Handle[ModuleInstance], caller FunctionCaller) error {
	if m.StartSection == nil {
		return nil
	}
	inst, err := store.ResolveInstance(instHandle)
	if err != nil {
		return err
	}
	fn := caller.Func(store, inst.Funcs[*m.StartSection])
	if _, err := fn.Call(ctx); err != nil {
		return errStartFunctionTrapped(fn.Definition().DebugName(), err)
	}
	return nil
}
