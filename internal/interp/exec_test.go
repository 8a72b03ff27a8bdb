package interp_test

import (
	"testing"

	"github.com/inkvm/ink/hostapi"
	"github.com/inkvm/ink/internal/interp"
	"github.com/inkvm/ink/internal/wasm"
	"github.com/stretchr/testify/require"
)

// fn1 builds a single-function module whose one function has signature
// (params...) -> results and body ops, exported as "user_entrypoint".
func fn1(params, results []wasm.ValueType, locals []wasm.Local, ops []wasm.Operator) *wasm.Module {
	return &wasm.Module{
		Types:               []wasm.FunctionType{{Params: params, Results: results}},
		FunctionTypeIndexes: []uint32{0},
		Code:                []wasm.Code{{Locals: locals, Body: ops}},
		Exports:             []wasm.Export{{Name: "user_entrypoint", Kind: wasm.ExternKindFunc, Index: 0}},
	}
}

func mustLink(t *testing.T, m *wasm.Module) *interp.Instance {
	t.Helper()
	compiled, err := interp.Compile(m)
	require.NoError(t, err)
	in, err := interp.Link(compiled, &hostapi.Context{})
	require.NoError(t, err)
	return in
}

func TestInvokeAddsTwoLocals(t *testing.T) {
	m := fn1(
		[]wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32},
		[]wasm.ValueType{wasm.ValueTypeI32},
		nil,
		[]wasm.Operator{
			{Opcode: wasm.OpLocalGet, Index: 0},
			{Opcode: wasm.OpLocalGet, Index: 1},
			{Opcode: 0x6a}, // i32.add
			{Opcode: wasm.OpEnd},
		},
	)
	in := mustLink(t, m)

	results, err := in.Invoke(0, []uint64{7, 35})
	require.NoError(t, err)
	require.Equal(t, []uint64{42}, results)
}

func TestInvokeUnreachableTraps(t *testing.T) {
	m := fn1(nil, nil, nil, []wasm.Operator{
		{Opcode: wasm.OpUnreachable},
		{Opcode: wasm.OpEnd},
	})
	in := mustLink(t, m)

	_, err := in.Invoke(0, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unreachable")
}

func TestInvokeDivByZeroTraps(t *testing.T) {
	m := fn1(
		[]wasm.ValueType{wasm.ValueTypeI32},
		[]wasm.ValueType{wasm.ValueTypeI32},
		nil,
		[]wasm.Operator{
			{Opcode: wasm.OpLocalGet, Index: 0},
			{Opcode: wasm.OpI32Const, I32: 0},
			{Opcode: 0x6d}, // i32.div_s
			{Opcode: wasm.OpEnd},
		},
	)
	in := mustLink(t, m)

	_, err := in.Invoke(0, []uint64{10})
	require.Error(t, err)
	require.Contains(t, err.Error(), "divide by zero")
}

// TestInvokeLoopSum computes the triangular sum 1+2+...+n via a loop with
// br_if, exercising branchTo's loop-continue path and its block-exit path
// when the loop condition finally fails.
func TestInvokeLoopSum(t *testing.T) {
	// locals: 0 = n (param), 1 = acc, 2 = i
	m := fn1(
		[]wasm.ValueType{wasm.ValueTypeI32},
		[]wasm.ValueType{wasm.ValueTypeI32},
		[]wasm.Local{{Count: 2, Type: wasm.ValueTypeI32}},
		[]wasm.Operator{
			{Opcode: wasm.OpI32Const, I32: 1},           // 0: i = 1
			{Opcode: wasm.OpLocalSet, Index: 2},          // 1
			{Opcode: wasm.OpBlock, Block: wasm.BlockTypeEmpty}, // 2
			{Opcode: wasm.OpLoop, Block: wasm.BlockTypeEmpty},  // 3
			{Opcode: wasm.OpLocalGet, Index: 2},          // 4: i
			{Opcode: wasm.OpLocalGet, Index: 0},          // 5: n
			{Opcode: 0x4a},                               // 6: i32.gt_s -> i > n
			{Opcode: wasm.OpBrIf, Index: 1},              // 7: br to block exit (depth 1)
			{Opcode: wasm.OpLocalGet, Index: 1},          // 8: acc
			{Opcode: wasm.OpLocalGet, Index: 2},          // 9: i
			{Opcode: 0x6a},                               // 10: i32.add
			{Opcode: wasm.OpLocalSet, Index: 1},          // 11: acc = acc + i
			{Opcode: wasm.OpLocalGet, Index: 2},          // 12: i
			{Opcode: wasm.OpI32Const, I32: 1},            // 13
			{Opcode: 0x6a},                               // 14: i32.add
			{Opcode: wasm.OpLocalSet, Index: 2},          // 15: i = i + 1
			{Opcode: wasm.OpBr, Index: 0},                // 16: continue loop
			{Opcode: wasm.OpEnd},                         // 17: end loop
			{Opcode: wasm.OpEnd},                         // 18: end block
			{Opcode: wasm.OpLocalGet, Index: 1},          // 19: acc
			{Opcode: wasm.OpEnd},                         // 20: end func
		},
	)
	in := mustLink(t, m)

	results, err := in.Invoke(0, []uint64{5})
	require.NoError(t, err)
	require.Equal(t, []uint64{15}, results) // 1+2+3+4+5
}

func TestMemoryLoadStoreRoundtrip(t *testing.T) {
	m := fn1(
		[]wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32},
		[]wasm.ValueType{wasm.ValueTypeI32},
		nil,
		[]wasm.Operator{
			{Opcode: wasm.OpLocalGet, Index: 0}, // addr
			{Opcode: wasm.OpLocalGet, Index: 1}, // value
			{Opcode: wasm.OpI32Store},
			{Opcode: wasm.OpLocalGet, Index: 0},
			{Opcode: wasm.OpI32Load},
			{Opcode: wasm.OpEnd},
		},
	)
	m.Memories = []wasm.Memory{{Minimum: 1}}
	in := mustLink(t, m)

	results, err := in.Invoke(0, []uint64{256, 0xdeadbeef})
	require.NoError(t, err)
	require.Equal(t, []uint64{0xdeadbeef}, results)
}

func TestMemoryLoadOutOfBoundsTraps(t *testing.T) {
	m := fn1(
		[]wasm.ValueType{wasm.ValueTypeI32},
		[]wasm.ValueType{wasm.ValueTypeI32},
		nil,
		[]wasm.Operator{
			{Opcode: wasm.OpLocalGet, Index: 0},
			{Opcode: wasm.OpI32Load},
			{Opcode: wasm.OpEnd},
		},
	)
	m.Memories = []wasm.Memory{{Minimum: 1}}
	in := mustLink(t, m)

	_, err := in.Invoke(0, []uint64{65536}) // one byte past the single page
	require.Error(t, err)
	require.Contains(t, err.Error(), "out of bounds")
}

func TestCallBetweenFunctions(t *testing.T) {
	// Function 0: user_entrypoint(x) = callee(x) + 1.
	// Function 1: callee(x) = x * 2.
	m := &wasm.Module{
		Types: []wasm.FunctionType{
			{Params: []wasm.ValueType{wasm.ValueTypeI32}, Results: []wasm.ValueType{wasm.ValueTypeI32}},
		},
		FunctionTypeIndexes: []uint32{0, 0},
		Code: []wasm.Code{
			{Body: []wasm.Operator{
				{Opcode: wasm.OpLocalGet, Index: 0},
				{Opcode: wasm.OpCall, FuncIndex: 1},
				{Opcode: wasm.OpI32Const, I32: 1},
				{Opcode: 0x6a}, // i32.add
				{Opcode: wasm.OpEnd},
			}},
			{Body: []wasm.Operator{
				{Opcode: wasm.OpLocalGet, Index: 0},
				{Opcode: wasm.OpI32Const, I32: 2},
				{Opcode: 0x6c}, // i32.mul
				{Opcode: wasm.OpEnd},
			}},
		},
		Exports: []wasm.Export{{Name: "user_entrypoint", Kind: wasm.ExternKindFunc, Index: 0}},
	}
	in := mustLink(t, m)

	results, err := in.Invoke(0, []uint64{10})
	require.NoError(t, err)
	require.Equal(t, []uint64{21}, results)
}

func TestGlobalGetSetRoundtrip(t *testing.T) {
	m := fn1(nil, []wasm.ValueType{wasm.ValueTypeI32}, nil, []wasm.Operator{
		{Opcode: wasm.OpI32Const, I32: 99},
		{Opcode: wasm.OpGlobalSet, Index: 0},
		{Opcode: wasm.OpGlobalGet, Index: 0},
		{Opcode: wasm.OpEnd},
	})
	m.Globals = []wasm.Global{{
		Type: wasm.GlobalType{ValType: wasm.ValueTypeI32, Mutable: true},
		Init: wasm.ConstExpr{Opcode: wasm.OpI32Const, Data: []byte{0}},
	}}
	in := mustLink(t, m)

	results, err := in.Invoke(0, nil)
	require.NoError(t, err)
	require.Equal(t, []uint64{99}, results)
}
