package middleware

import (
	"testing"

	"github.com/inkvm/ink/internal/wasm"
	"github.com/stretchr/testify/require"
)

func TestRelocateStartExportsUnderReservedName(t *testing.T) {
	idx := uint32(3)
	m := &wasm.Module{StartFunction: &idx}

	relocateStart(m)

	require.Nil(t, m.StartFunction)
	require.Len(t, m.Exports, 1)
	require.Equal(t, "stylus_start", m.Exports[0].Name)
	require.Equal(t, idx, m.Exports[0].Index)
	require.Equal(t, "stylus_start", m.Names.FunctionNames[idx])
}

func TestRelocateStartNoopWithoutStartFunction(t *testing.T) {
	m := &wasm.Module{}
	relocateStart(m)
	require.Nil(t, m.StartFunction)
	require.Empty(t, m.Exports)
}

func TestApplyHeapBoundClampsUnboundedMaximum(t *testing.T) {
	m := &wasm.Module{Memories: []wasm.Memory{{Minimum: 1}}}

	err := applyHeapBound(m, 2)

	require.NoError(t, err)
	require.NotNil(t, m.Memories[0].Maximum)
	require.Equal(t, uint32(2), *m.Memories[0].Maximum)
}

func TestApplyHeapBoundTightensExistingMaximum(t *testing.T) {
	existing := uint32(100)
	m := &wasm.Module{Memories: []wasm.Memory{{Minimum: 1, Maximum: &existing}}}

	err := applyHeapBound(m, 2)

	require.NoError(t, err)
	require.Equal(t, uint32(2), *m.Memories[0].Maximum)
}

func TestApplyHeapBoundRejectsMinimumExceedingBudget(t *testing.T) {
	m := &wasm.Module{Memories: []wasm.Memory{{Minimum: 10}}}

	err := applyHeapBound(m, 2)

	require.Error(t, err)
}

func TestAddCounterGlobalsCoversEveryCountedOpcode(t *testing.T) {
	m := &wasm.Module{}
	idx := addCounterGlobals(m)

	require.Len(t, idx, len(CountedOpcodes))
	require.Len(t, m.Globals, len(CountedOpcodes))
	for i, op := range CountedOpcodes {
		g, ok := idx[op]
		require.True(t, ok)
		require.Equal(t, CounterGlobalName(i), m.Exports[g].Name)
	}
}

func TestInstrumentCounterIncrementsOncePerBlock(t *testing.T) {
	m := &wasm.Module{}
	idx := addCounterGlobals(m)

	body := []wasm.Operator{
		{Opcode: wasm.OpI32Const, I32: 1},
		{Opcode: wasm.OpI32Const, I32: 2},
		{Opcode: wasm.OpEnd},
	}
	out := instrumentCounter(body, idx)

	// Two distinct tracked opcodes in the block (i32.const, end) plus
	// the four increment-sequence opcodes folded in for self-accounting
	// means one read-add-write quadruple per kind prepended before the
	// original three operators survive untouched at the tail.
	require.Len(t, out, 4*6+3)
	require.Equal(t, body, out[len(out)-3:])
}

func TestWorstCaseDepthAccountsForLocalsAndFixedOverhead(t *testing.T) {
	m := &wasm.Module{
		Types:               []wasm.FunctionType{{}},
		FunctionTypeIndexes: []uint32{0},
	}
	// Two pushes with nothing popped: worst height 2, plus 3 locals,
	// plus the fixed 4-word frame overhead.
	body := []wasm.Operator{
		{Opcode: wasm.OpI32Const, I32: 1},
		{Opcode: wasm.OpI32Const, I32: 2},
		{Opcode: wasm.OpDrop},
		{Opcode: wasm.OpDrop},
		{Opcode: wasm.OpEnd},
	}
	got, err := worstCaseDepth(m, body, 3)
	require.NoError(t, err)
	require.Equal(t, uint32(2+3+4), got)
}
