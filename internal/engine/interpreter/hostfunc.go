package interpreter

import (
	"context"
	"reflect"

	"github.com/wazeroc/wazeroc/internal/wasm"
)

var ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
var errType = reflect.TypeOf((*error)(nil)).Elem()

// callHostFunc invokes fn's reflected Go closure. The closure may take a context.Context as its first parameter,
// which receives ctx; the remaining parameters, and its non-error return values, are native Go numeric types matching fn.typ.Params/Results
// one-for-one. A trailing error return, if fn declares one, is not part of fn.typ.Results (see signatureOf); a
// non-nil value here becomes the call's error, which dispatch turns into a trap — resumable, if the invocation
// itself is.
func callHostFunc(ctx context.Context, fn *runtimeFunction, args []wasm.UntypedVal) ([]wasm.UntypedVal, error) {
	rv := *fn.hostFn
	rt := rv.Type()

	in := make([]reflect.Value, rt.NumIn())
	argOffset := 0
	if rt.NumIn() > 0 && rt.In(0) == ctxType {
		in[0] = reflect.ValueOf(ctx)
		argOffset = 1
	}
	for i := argOffset; i < rt.NumIn(); i++ {
		in[i] = nativeArg(rt.In(i), args[i-argOffset])
	}

	out := rv.Call(in)
	numOut := len(out)
	if numOut > 0 && rt.Out(numOut-1) == errType {
		numOut--
		if errVal := out[len(out)-1].Interface(); errVal != nil {
			return nil, errVal.(error)
		}
	}
	results := make([]wasm.UntypedVal, numOut)
	for i := 0; i < numOut; i++ {
		results[i] = nativeResult(out[i])
	}
	return results, nil
}

func nativeArg(t reflect.Type, v wasm.UntypedVal) reflect.Value {
	switch t.Kind() {
	case reflect.Int32:
		return reflect.ValueOf(v.I32())
	case reflect.Uint32:
		return reflect.ValueOf(v.U32())
	case reflect.Int64:
		return reflect.ValueOf(v.I64())
	case reflect.Uint64:
		return reflect.ValueOf(v.U64())
	case reflect.Float32:
		return reflect.ValueOf(v.F32())
	case reflect.Float64:
		return reflect.ValueOf(v.F64())
	default:
		return reflect.ValueOf(v.U64())
	}
}

func nativeResult(v reflect.Value) wasm.UntypedVal {
	switch v.Kind() {
	case reflect.Int32:
		return wasm.FromI32(int32(v.Int()))
	case reflect.Uint32:
		return wasm.FromI32(int32(uint32(v.Uint())))
	case reflect.Int64:
		return wasm.FromI64(v.Int())
	case reflect.Uint64:
		return wasm.FromI64(int64(v.Uint()))
	case reflect.Float32:
		return wasm.FromF32(float32(v.Float()))
	case reflect.Float64:
		return wasm.FromF64(v.Float())
	default:
		return wasm.UntypedVal(v.Uint())
	}
}
