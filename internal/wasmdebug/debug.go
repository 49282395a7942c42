// Package wasmdebug formats human-readable identifiers and stack traces for traps and panics.
package wasmdebug

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wazeroc/wazeroc/api"
)

// FuncName builds a dot-delimited "module.function" identifier, substituting "$<index>" when funcName is empty.
// This is used for DebugName, errors, and stack traces rather than the raw export name, which may not exist.
func FuncName(moduleName, funcName string, funcIdx uint32) string {
	if funcName == "" {
		funcName = "$" + strconv.FormatUint(uint64(funcIdx), 10)
	}
	return moduleName + "." + funcName
}

// signature appends a parenthesized parameter list, and a result list when non-empty, to name.
func signature(name string, paramTypes, resultTypes []api.ValueType) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	writeTypes(&b, paramTypes)
	b.WriteByte(')')
	switch len(resultTypes) {
	case 0:
	case 1:
		b.WriteByte(' ')
		b.WriteString(api.ValueTypeName(resultTypes[0]))
	default:
		b.WriteString(" (")
		writeTypes(&b, resultTypes)
		b.WriteByte(')')
	}
	return b.String()
}

func writeTypes(b *strings.Builder, types []api.ValueType) {
	for i, t := range types {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(api.ValueTypeName(t))
	}
}

// ErrorBuilder accumulates a wasm call stack, innermost frame first, and wraps a recovered error with it.
type ErrorBuilder interface {
	// AddFrame records one activation, innermost call added first.
	AddFrame(name string, paramTypes, resultTypes []api.ValueType)
	// FromRecovered wraps a value caught by recover() (an error, a runtime.Error, or anything else) with the
	// accumulated stack trace.
	FromRecovered(recovered interface{}) error
}

// NewErrorBuilder returns an empty ErrorBuilder.
func NewErrorBuilder() ErrorBuilder { return &errorBuilder{} }

type errorBuilder struct {
	frames []string
}

func (b *errorBuilder) AddFrame(name string, paramTypes, resultTypes []api.ValueType) {
	b.frames = append(b.frames, "\t"+signature(name, paramTypes, resultTypes))
}

func (b *errorBuilder) FromRecovered(recovered interface{}) error {
	var cause error
	switch v := recovered.(type) {
	case error:
		cause = v
	default:
		cause = fmt.Errorf("%v", v)
	}
	return &recoveredError{cause: cause, stack: strings.Join(b.frames, "\n")}
}

// recoveredError wraps cause with the wasm stack trace captured at the moment it was recovered.
type recoveredError struct {
	cause error
	stack string
}

func (e *recoveredError) Error() string {
	return fmt.Sprintf("%s (recovered by wazeroc)\nwasm stack trace:\n%s", e.cause.Error(), e.stack)
}

func (e *recoveredError) Unwrap() error { return e.cause }
