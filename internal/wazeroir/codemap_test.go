package wazeroir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeMapInstallAndGet(t *testing.T) {
	cm := NewCodeMap()
	fn := &CompiledFunction{Instrs: []Instruction{{Op: OpNop}, {Op: OpReturn}}, DebugName: "f0"}
	h := cm.Install(fn)
	assert.Equal(t, EngineFunc(0), h)
	assert.Equal(t, fn, cm.Get(h))
	assert.Equal(t, 1, cm.Len())
}

func TestCodeMapFuncAt(t *testing.T) {
	cm := NewCodeMap()
	cm.Install(&CompiledFunction{Instrs: make([]Instruction, 3), DebugName: "f0"})
	cm.Install(&CompiledFunction{Instrs: make([]Instruction, 5), DebugName: "f1"})
	cm.Install(&CompiledFunction{Instrs: make([]Instruction, 2), DebugName: "f2"})
	cm.Finalize()

	require.Equal(t, EngineFunc(0), cm.FuncAt(0))
	require.Equal(t, EngineFunc(0), cm.FuncAt(2))
	require.Equal(t, EngineFunc(1), cm.FuncAt(3))
	require.Equal(t, EngineFunc(1), cm.FuncAt(7))
	require.Equal(t, EngineFunc(2), cm.FuncAt(8))
	require.Equal(t, EngineFunc(2), cm.FuncAt(9))
}
