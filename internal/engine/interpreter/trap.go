package interpreter

import (
	"errors"

	"github.com/wazeroc/wazeroc/internal/wasmruntime"
)

// errIndirectSignatureMismatch is returned internally by resolveIndirectCallee; the dispatch loop immediately
// converts it into a TrapCodeBadSignature trap carrying a stack trace, so it never escapes the package.
var errIndirectSignatureMismatch = errors.New("call_indirect: callee signature does not match declared type")

// trap raises code as the active call's failure, carrying the stack trace captured from ce at the point of the
// fault. It is always recovered by callEngine.run's deferred handler, never allowed to escape as a bare panic.
type trapSignal struct {
	code  wasmruntime.TrapCode
	trace string
}

func (ce *callEngine) trap(code wasmruntime.TrapCode) {
	panic(trapSignal{code: code, trace: ce.buildStackTrace()})
}

// wrapTrap converts an error that is, or wraps, a wasmruntime.TrapCode (e.g. an out-of-fuel break bubbling straight
// out of the callEngine with no frames left to attribute it to) into a TrapError carrying that code and no stack
// trace; any other error, such as a host function's, is returned unchanged. name is not attached to either.
func wrapTrap(name string, err error) error {
	var code wasmruntime.TrapCode
	if errors.As(err, &code) {
		return &wasmruntime.TrapError{Code: code}
	}
	return err
}
