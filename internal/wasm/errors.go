package wasm

import (
	"fmt"

	"github.com/wazeroc/wazeroc/api"
)

// InstantiationError is the taxonomy of failures that can occur while wiring a validated Module's imports/exports
// into a Store. All are terminal to the attempted instantiation; none leave
// partially-constructed entities reachable from the store (the caller discards everything on error).
type InstantiationError struct {
	Reason string
}

func (e *InstantiationError) Error() string { return "instantiation error: " + e.Reason }

func errImportsLenMismatch(want, got int) error {
	return &InstantiationError{Reason: fmt.Sprintf("expected %d imports, got %d", want, got)}
}

func errImportNotFound(moduleName, name string) error {
	return &InstantiationError{Reason: fmt.Sprintf("%q.%q not found among provided imports", moduleName, name)}
}

func errImportKindMismatch(moduleName, name string, want, got api.ExternType) error {
	return &InstantiationError{
		Reason: fmt.Sprintf("import %q.%q: expected %s, got %s", moduleName, name, api.ExternTypeName(want), api.ExternTypeName(got)),
	}
}

func errSignatureMismatch(moduleName, name string, want, got *FunctionType) error {
	return &InstantiationError{
		Reason: fmt.Sprintf("import %q.%q: signature mismatch, want %s got %s", moduleName, name, want.String(), got.String()),
	}
}

func errTableTypeMismatch(moduleName, name string) error {
	return &InstantiationError{Reason: fmt.Sprintf("import %q.%q: table type mismatch", moduleName, name)}
}

func errMemoryTypeMismatch(moduleName, name string) error {
	return &InstantiationError{Reason: fmt.Sprintf("import %q.%q: memory type mismatch", moduleName, name)}
}

func errGlobalTypeMismatch(moduleName, name string) error {
	return &InstantiationError{Reason: fmt.Sprintf("import %q.%q: global type mismatch", moduleName, name)}
}

func errElementSegmentDoesNotFit(tableIdx uint32, offset, segLen, tableSize uint64) error {
	return &InstantiationError{
		Reason: fmt.Sprintf("element segment at table %d offset %d (len %d) overflows table of size %d", tableIdx, offset, segLen, tableSize),
	}
}

func errDataSegmentDoesNotFit(memIdx uint32, offset, segLen, memSize uint64) error {
	return &InstantiationError{
		Reason: fmt.Sprintf("data segment at memory %d offset %d (len %d) overflows memory of size %d", memIdx, offset, segLen, memSize),
	}
}

func errStartFunctionTrapped(name string, cause error) error {
	return &InstantiationError{Reason: fmt.Sprintf("start function %q trapped: %v", name, cause)}
}

// ConfigurationError reports an invalid Store/Engine configuration detected at construction (invalid Store/Engine configuration
// errors"), e.g. an unsupported memory page size.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string { return "configuration error: " + e.Reason }

// ErrUnsupportedPageSize is returned when a MemoryType declares a PageSizeLog2 outside {0, 16}, the only two
// values accepted pending stabilization of the custom-page-sizes proposal.
var ErrUnsupportedPageSize = &ConfigurationError{Reason: "page size log2 must be 0 or 16"}
