package wazeroc

import (
	"context"

	"github.com/wazeroc/wazeroc/internal/logging"
	"github.com/wazeroc/wazeroc/internal/wasm"
)

// CompilationMode selects when a module's functions are translated into executable form.
type CompilationMode int

const (
	// CompilationModeEager translates every function at CompileModule time. The only mode this core implements;
	// Lazy and LazyTranslation are accepted for API compatibility and behave identically to Eager (see DESIGN.md).
	CompilationModeEager CompilationMode = iota
	CompilationModeLazyTranslation
	CompilationModeLazy
)

// StackLimits bounds the value-stack/frame-stack storage a single invocation may use, and how much of it the
// engine retains between calls for reuse (see internal/engine/interpreter/stackpool.go).
type StackLimits struct {
	// PoolSizePerClass bounds how many drained stackSets the reusable pool retains per call-window size class.
	// Zero selects the engine's built-in default.
	PoolSizePerClass int
}

// RuntimeConfig controls the behavior of a Runtime, with the default implementation as NewRuntimeConfig. Every
// With* method returns a cloned copy; the receiver is never mutated, so a shared base config can be specialized
// per embedder without aliasing surprises.
type RuntimeConfig struct {
	ctx context.Context

	consumeFuel bool

	// wasmMutableGlobal, ..., wasmExtendedConst mirror the proposal toggles an external decoder/validator consults
	// before handing this core a wasm.Module (this core's own contract, per wasm.Module's doc comment, is that it
	// only ever sees already-validated modules: these fields are carried through so that contract can be honored
	// consistently, not enforced a second time here).
	floats                   bool
	wasmMutableGlobal        bool
	wasmMultiValue           bool
	wasmSignExtension        bool
	wasmSaturatingFloatToInt bool
	wasmBulkMemory           bool
	wasmReferenceTypes       bool
	wasmTailCall             bool
	wasmExtendedConst        bool

	compilationMode CompilationMode
	stackLimits     StackLimits

	memoryMaxPages uint32

	maxTypes uint64

	listenerFactory logging.FunctionListenerFactory
}

// NewRuntimeConfig returns a RuntimeConfig with every option at its documented default.
func NewRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		ctx:                      context.Background(),
		floats:                   true,
		wasmMutableGlobal:        true,
		wasmMultiValue:           true,
		wasmSignExtension:        true,
		wasmSaturatingFloatToInt: true,
		wasmBulkMemory:           true,
		wasmReferenceTypes:       true,
		compilationMode:          CompilationModeEager,
		memoryMaxPages:           1 << 16, // 4GiB, the Wasm spec maximum.
		maxTypes:                 1 << 20,
	}
}

func (c *RuntimeConfig) clone() *RuntimeConfig {
	ret := *c
	return &ret
}

// WithContext sets the default context used when invoking a module's start function and as the fallback passed to
// api.Function.Call when the caller supplies nil. Defaults to context.Background.
func (c *RuntimeConfig) WithContext(ctx context.Context) *RuntimeConfig {
	if ctx == nil {
		ctx = context.Background()
	}
	ret := c.clone()
	ret.ctx = ctx
	return ret
}

// WithConsumeFuel enables fuel metering: every instruction DeductFuel's the store's remaining balance, and
// execution traps with wasmruntime.TrapCodeOutOfFuel once it's exhausted. Defaults to false.
func (c *RuntimeConfig) WithConsumeFuel(enabled bool) *RuntimeConfig {
	ret := c.clone()
	ret.consumeFuel = enabled
	return ret
}

// WithFloats toggles floating-point instructions and value types. Defaults to true; disabling targets embedders
// needing bit-exact determinism across hosts with differing floating-point rounding behavior.
func (c *RuntimeConfig) WithFloats(enabled bool) *RuntimeConfig {
	ret := c.clone()
	ret.floats = enabled
	return ret
}

// WithWasmMutableGlobal toggles whether a decoder/validator may accept mutable globals. Defaults to true.
func (c *RuntimeConfig) WithWasmMutableGlobal(enabled bool) *RuntimeConfig {
	ret := c.clone()
	ret.wasmMutableGlobal = enabled
	return ret
}

// WithWasmSignExtensionOps toggles the sign-extension instruction set. Defaults to true.
func (c *RuntimeConfig) WithWasmSignExtensionOps(enabled bool) *RuntimeConfig {
	ret := c.clone()
	ret.wasmSignExtension = enabled
	return ret
}

// WithWasmMultiValue toggles multi-result function types and block types. Defaults to true.
func (c *RuntimeConfig) WithWasmMultiValue(enabled bool) *RuntimeConfig {
	ret := c.clone()
	ret.wasmMultiValue = enabled
	return ret
}

// WithWasmSaturatingFloatToInt toggles the non-trapping float-to-int conversion instruction set. Defaults to true.
func (c *RuntimeConfig) WithWasmSaturatingFloatToInt(enabled bool) *RuntimeConfig {
	ret := c.clone()
	ret.wasmSaturatingFloatToInt = enabled
	return ret
}

// WithWasmBulkMemory toggles the bulk memory/table instruction set (memory.copy, table.init, etc). Defaults to true.
func (c *RuntimeConfig) WithWasmBulkMemory(enabled bool) *RuntimeConfig {
	ret := c.clone()
	ret.wasmBulkMemory = enabled
	return ret
}

// WithWasmReferenceTypes toggles externref and the reference-type instruction set. Defaults to true.
func (c *RuntimeConfig) WithWasmReferenceTypes(enabled bool) *RuntimeConfig {
	ret := c.clone()
	ret.wasmReferenceTypes = enabled
	return ret
}

// WithWasmTailCall toggles the tail-call instruction set. Defaults to false.
func (c *RuntimeConfig) WithWasmTailCall(enabled bool) *RuntimeConfig {
	ret := c.clone()
	ret.wasmTailCall = enabled
	return ret
}

// WithWasmExtendedConst toggles arithmetic in constant expressions. Defaults to false.
func (c *RuntimeConfig) WithWasmExtendedConst(enabled bool) *RuntimeConfig {
	ret := c.clone()
	ret.wasmExtendedConst = enabled
	return ret
}

// WithCompilationMode selects when functions are translated. Defaults to CompilationModeEager.
func (c *RuntimeConfig) WithCompilationMode(mode CompilationMode) *RuntimeConfig {
	ret := c.clone()
	ret.compilationMode = mode
	return ret
}

// WithStackLimits configures the reusable call-stack pool.
func (c *RuntimeConfig) WithStackLimits(limits StackLimits) *RuntimeConfig {
	ret := c.clone()
	ret.stackLimits = limits
	return ret
}

// WithMemoryMaxPages bounds the number of pages (65536 bytes per page) a memory may grow to, applied as the maximum
// of any memory that declares none; a declared maximum is kept as is, even when larger. Defaults to the Wasm spec
// maximum, 65536 pages (4GiB).
func (c *RuntimeConfig) WithMemoryMaxPages(memoryMaxPages uint32) *RuntimeConfig {
	ret := c.clone()
	ret.memoryMaxPages = memoryMaxPages
	return ret
}

// WithMaxTypeCount bounds the number of distinct function signatures the engine's shared type registry interns.
func (c *RuntimeConfig) WithMaxTypeCount(maxTypes uint64) *RuntimeConfig {
	ret := c.clone()
	ret.maxTypes = maxTypes
	return ret
}

// WithFunctionListenerFactory sets the listener factory handed to the engine, which stores it on itself and on every
// ModuleEngine it builds. Defaults to none, in which case the engine substitutes a no-op factory. The executor does
// not call NewListener, Before or After, so no function entry or exit is reported to the factory's listeners.
func (c *RuntimeConfig) WithFunctionListenerFactory(f logging.FunctionListenerFactory) *RuntimeConfig {
	ret := c.clone()
	ret.listenerFactory = f
	return ret
}

// clampMemory applies memoryMaxPages to a memory type that declares no maximum of its own.
func (c *RuntimeConfig) clampMemory(t wasm.MemoryType) wasm.MemoryType {
	if t.Limits.Max == nil {
		max := uint64(c.memoryMaxPages)
		t.Limits.Max = &max
	}
	return t
}
