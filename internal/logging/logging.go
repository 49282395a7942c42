// Package logging provides an optional instrumentation hook for function calls, independent of the core engine so
// that embedders who never configure one pay nothing (restoring the
// teacher's experimental.FunctionListener concept without its wider filesystem/process surface).
package logging

import (
	"context"

	"github.com/wazeroc/wazeroc/api"
)

// FunctionListener receives a function's entry and exit through Before and After. The interpreter engine stores a
// FunctionListenerFactory on itself and on each ModuleEngine, but its executor calls neither method.
type FunctionListener interface {
	// Before is invoked before a function call, with its arguments encoded per api.FunctionDefinition.ParamTypes.
	Before(ctx context.Context, mod api.Module, def api.FunctionDefinition, params []uint64)

	// After is invoked after a function call completes, successfully or not. err is non-nil on a trap or host
	// error; results is only meaningful when err is nil.
	After(ctx context.Context, mod api.Module, def api.FunctionDefinition, results []uint64, err error)
}

// FunctionListenerFactory builds a FunctionListener per function, letting an embedder filter which functions it
// wants notified of (e.g. only exported ones) without the executor needing to know the policy.
type FunctionListenerFactory interface {
	NewListener(def api.FunctionDefinition) FunctionListener
}

// nopListener implements FunctionListener by doing nothing; it is what the interpreter engine's default
// (no-op) factory hands out when no factory is configured.
type nopListener struct{}

func (nopListener) Before(context.Context, api.Module, api.FunctionDefinition, []uint64)            {}
func (nopListener) After(context.Context, api.Module, api.FunctionDefinition, []uint64, error) {}

// Nop is the shared no-op FunctionListener.
var Nop FunctionListener = nopListener{}
