package wasm

import (
	"strings"

	"github.com/wazeroc/wazeroc/api"
)

// FunctionType is an ordered parameter list and an ordered result list of value types.
type FunctionType struct {
	Params  []api.ValueType
	Results []api.ValueType
}

// Equal reports structural equality: same params, same results, in order.
func (t *FunctionType) Equal(o *FunctionType) bool {
	if t == o {
		return true
	}
	if len(t.Params) != len(o.Params) || len(t.Results) != len(o.Results) {
		return false
	}
	for i, p := range t.Params {
		if o.Params[i] != p {
			return false
		}
	}
	for i, r := range t.Results {
		if o.Results[i] != r {
			return false
		}
	}
	return true
}

// key renders a byte string suitable for hashing: each value type is one byte, params and results are separated by
// a sentinel that cannot appear in api.ValueType (all defined value types have the high bit set).
func (t *FunctionType) key() string {
	var b strings.Builder
	b.Grow(len(t.Params) + len(t.Results) + 1)
	b.Write(t.Params)
	b.WriteByte(0)
	b.Write(t.Results)
	return b.String()
}

// String renders the WebAssembly text format function type signature, e.g. "(i32,i32)->(i32)".
func (t *FunctionType) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range t.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(api.ValueTypeName(p))
	}
	b.WriteString(")->(")
	for i, r := range t.Results {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(api.ValueTypeName(r))
	}
	b.WriteByte(')')
	return b.String()
}
