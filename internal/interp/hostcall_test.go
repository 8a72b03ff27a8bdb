package interp_test

import (
	"testing"

	"github.com/inkvm/ink/api"
	"github.com/inkvm/ink/hostapi"
	"github.com/inkvm/ink/internal/interp"
	"github.com/inkvm/ink/internal/wasm"
	"github.com/stretchr/testify/require"
)

// keccakEchoModule imports read_args, native_keccak256, and write_result
// from vm_hooks, and its entrypoint hashes the calldata and stages the
// 32-byte digest as its output.
//
// Function index space: 0..2 are the imports, 3 is the local entrypoint.
func keccakEchoModule() *wasm.Module {
	return &wasm.Module{
		Types: []wasm.FunctionType{
			{Params: []wasm.ValueType{wasm.ValueTypeI32}},                                         // 0: read_args(ptr)
			{Params: []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32, wasm.ValueTypeI32}},   // 1: native_keccak256(ptr, len, out)
			{Params: []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}},                      // 2: write_result(ptr, len)
			{Params: []wasm.ValueType{wasm.ValueTypeI32}, Results: []wasm.ValueType{wasm.ValueTypeI32}}, // 3: entrypoint
		},
		Imports: []wasm.Import{
			{Module: "vm_hooks", Name: "read_args", Kind: wasm.ExternKindFunc, TypeIndex: 0},
			{Module: "vm_hooks", Name: "native_keccak256", Kind: wasm.ExternKindFunc, TypeIndex: 1},
			{Module: "vm_hooks", Name: "write_result", Kind: wasm.ExternKindFunc, TypeIndex: 2},
		},
		NumImportedFunc:     3,
		FunctionTypeIndexes: []uint32{3},
		Code: []wasm.Code{{Body: []wasm.Operator{
			{Opcode: wasm.OpI32Const, I32: 0},
			{Opcode: wasm.OpCall, FuncIndex: 0}, // read_args(0)
			{Opcode: wasm.OpI32Const, I32: 0},
			{Opcode: wasm.OpLocalGet, Index: 0},
			{Opcode: wasm.OpI32Const, I32: 1024},
			{Opcode: wasm.OpCall, FuncIndex: 1}, // native_keccak256(0, args_len, 1024)
			{Opcode: wasm.OpI32Const, I32: 1024},
			{Opcode: wasm.OpI32Const, I32: 32},
			{Opcode: wasm.OpCall, FuncIndex: 2}, // write_result(1024, 32)
			{Opcode: wasm.OpI32Const, I32: 0},
			{Opcode: wasm.OpEnd},
		}}},
		Memories: []wasm.Memory{{Minimum: 1}},
		Exports:  []wasm.Export{{Name: "user_entrypoint", Kind: wasm.ExternKindFunc, Index: 3}},
	}
}

func linkWithHost(t *testing.T, m *wasm.Module, input []byte) (*interp.Instance, *hostapi.Context) {
	t.Helper()
	compiled, err := interp.Compile(m)
	require.NoError(t, err)

	ctx := &hostapi.Context{
		Evm:      hostapi.NewStubEvmApi(),
		Data:     &hostapi.EvmData{},
		InkPrice: 1,
		Tracer:   hostapi.NopTracer{},
		Input:    input,
	}
	in, err := interp.Link(compiled, ctx)
	require.NoError(t, err)
	ctx.Memory = in.Memory()
	ctx.Resources = in
	return in, ctx
}

func TestKeccakEchoThroughHostCalls(t *testing.T) {
	input := []byte("nyan nyan ~=[,,_,,]:3 nyan nyan")
	in, ctx := linkWithHost(t, keccakEchoModule(), input)

	outcome, err := in.Outcome("user_entrypoint", uint32(len(input)))
	require.NoError(t, err)
	require.Equal(t, api.StatusSuccess, outcome.Status)

	want := hostapi.Keccak256(input)
	require.Equal(t, want[:], ctx.Output)
}

func TestLinkRejectsNonVmHooksImport(t *testing.T) {
	m := keccakEchoModule()
	m.Imports[0].Module = "wasi_snapshot_preview1"

	compiled, err := interp.Compile(m)
	require.NoError(t, err)
	_, err = interp.Link(compiled, &hostapi.Context{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unresolved import")
}

func TestLinkRejectsUnknownVmHooksName(t *testing.T) {
	m := keccakEchoModule()
	m.Imports[0].Name = "read_everything"

	compiled, err := interp.Compile(m)
	require.NoError(t, err)
	_, err = interp.Link(compiled, &hostapi.Context{})
	require.Error(t, err)
}

func TestLinkRejectsMismatchedHostSignature(t *testing.T) {
	m := keccakEchoModule()
	m.Imports[0].TypeIndex = 2 // read_args redeclared as (i32, i32) -> ()

	compiled, err := interp.Compile(m)
	require.NoError(t, err)
	_, err = interp.Link(compiled, &hostapi.Context{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "signature")
}

// TestMemoryFillOutOfBoundsLeavesMemoryUntouched confirms the trap
// fires before any byte of an out-of-bounds fill is written: the two
// in-bounds bytes at the tail of the page stay zero.
func TestMemoryFillOutOfBoundsLeavesMemoryUntouched(t *testing.T) {
	m := fn1(nil, nil, nil, []wasm.Operator{
		{Opcode: wasm.OpI32Const, I32: 0xFFFE},
		{Opcode: wasm.OpI32Const, I32: 1},
		{Opcode: wasm.OpI32Const, I32: 4},
		{Opcode: wasm.OpMemoryFill},
		{Opcode: wasm.OpEnd},
	})
	m.Memories = []wasm.Memory{{Minimum: 1}}
	in := mustLink(t, m)

	_, err := in.Invoke(0, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "out of bounds")

	got, ok := in.Memory().Read(0xFFFE, 2)
	require.True(t, ok)
	require.Equal(t, []byte{0, 0}, got)
}
