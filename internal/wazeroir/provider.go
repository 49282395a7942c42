package wazeroir

import "github.com/wazeroc/wazeroc/internal/wasm"

// providerKind discriminates the three ways a translation-time Wasm stack entry can be realized.
type providerKind uint8

const (
	providerLocal providerKind = iota
	providerTemp
	providerConst
)

// provider is the translation-time abstraction for one entry of the Wasm operand stack being emulated: either a
// reference to a local variable's slot, a reference to a previously emitted temporary's slot, or an immediate
// constant that has not yet been materialized into a slot. Constants remain providers
// — never written to a slot — until an instruction demands a slot operand it cannot embed as an immediate.
type provider struct {
	kind providerKind
	slot Slot       // valid when kind is providerLocal or providerTemp
	val  wasm.UntypedVal // valid when kind is providerConst
}

func localProvider(slot Slot) provider { return provider{kind: providerLocal, slot: slot} }
func tempProvider(slot Slot) provider  { return provider{kind: providerTemp, slot: slot} }
func constProvider(v wasm.UntypedVal) provider { return provider{kind: providerConst, val: v} }

func (p provider) isConst() bool { return p.kind == providerConst }
func (p provider) isTemp() bool  { return p.kind == providerTemp }

// fitsImm16 reports whether a constant provider's low bits fit the signed 16-bit *_imm instruction forms. Only
// i32/i64 constants are ever embedded this way; floats always materialize through the constant pool instead.
func (p provider) fitsImm16() (int16, bool) {
	if p.kind != providerConst {
		return 0, false
	}
	v := int64(p.val.I64())
	if v >= -1<<15 && v < 1<<15 {
		return int16(v), true
	}
	return 0, false
}
