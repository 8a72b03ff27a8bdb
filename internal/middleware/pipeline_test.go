package middleware_test

import (
	"testing"

	"github.com/inkvm/ink/hostapi"
	"github.com/inkvm/ink/internal/interp"
	"github.com/inkvm/ink/internal/middleware"
	"github.com/inkvm/ink/internal/wasm"
	"github.com/stretchr/testify/require"
)

// addFn builds a single-function module with signature
// (i32, i32) -> i32 computing a + b, exported as user_entrypoint. It has
// no block boundaries until its trailing end, so the static meter
// charges its whole cost in one guard.
func addFn() *wasm.Module {
	return &wasm.Module{
		Types:               []wasm.FunctionType{{Params: []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, Results: []wasm.ValueType{wasm.ValueTypeI32}}},
		FunctionTypeIndexes: []uint32{0},
		Code: []wasm.Code{{Body: []wasm.Operator{
			{Opcode: wasm.OpLocalGet, Index: 0},
			{Opcode: wasm.OpLocalGet, Index: 1},
			{Opcode: 0x6a}, // i32.add
			{Opcode: wasm.OpEnd},
		}}},
		Exports: []wasm.Export{{Name: "user_entrypoint", Kind: wasm.ExternKindFunc, Index: 0}},
	}
}

func uniformProfile() middleware.Profile {
	return middleware.Profile{
		Pricing: middleware.PricingTable{
			Cost:          func(wasm.Opcode) uint64 { return 1 },
			MemoryFillInk: 1,
			MemoryCopyInk: 1,
		},
		MaxFrameSizeWords: 1024 * 1024,
		HeapBoundPages:    2 * 1024,
	}
}

// memoryFillFn builds user_entrypoint(dst, val, len) calling
// memory.fill(dst, val, len) against a one-page memory.
func memoryFillFn() *wasm.Module {
	return &wasm.Module{
		Types: []wasm.FunctionType{{Params: []wasm.ValueType{
			wasm.ValueTypeI32, wasm.ValueTypeI32, wasm.ValueTypeI32,
		}}},
		FunctionTypeIndexes: []uint32{0},
		Code: []wasm.Code{{Body: []wasm.Operator{
			{Opcode: wasm.OpLocalGet, Index: 0},
			{Opcode: wasm.OpLocalGet, Index: 1},
			{Opcode: wasm.OpLocalGet, Index: 2},
			{Opcode: wasm.OpMemoryFill},
			{Opcode: wasm.OpEnd},
		}}},
		Memories: []wasm.Memory{{Minimum: 1}},
		Exports:  []wasm.Export{{Name: "user_entrypoint", Kind: wasm.ExternKindFunc, Index: 0}},
	}
}

// TestDynamicMeterGuardTrapsBeforeBulkWrite confirms the rewritten
// memory.fill debits ink priced by its length operand, read back out of
// a local rather than duplicated on the stack, and traps before the
// bulk write executes when the budget is short.
func TestDynamicMeterGuardTrapsBeforeBulkWrite(t *testing.T) {
	in := linkInstrumented(t, memoryFillFn(), 1024)

	in.SetInkLeft(99) // the static guard takes 5, leaving 94 for a 100-ink fill
	in.SetDepthLeft(1024)
	_, err := in.Invoke(0, []uint64{0, 0xff, 100})
	require.Error(t, err)
	require.Equal(t, int32(1), in.InkStatus())

	mem := in.Memory()
	got, ok := mem.Read(0, 4)
	require.True(t, ok)
	require.Equal(t, []byte{0, 0, 0, 0}, got, "the bulk write must not have run before the guard trapped")
}

// TestDynamicMeterGuardAllowsBulkWriteWithinBudget is the control case.
func TestDynamicMeterGuardAllowsBulkWriteWithinBudget(t *testing.T) {
	in := linkInstrumented(t, memoryFillFn(), 1024)

	in.SetInkLeft(1000)
	in.SetDepthLeft(1024)
	_, err := in.Invoke(0, []uint64{0, 0xff, 100})
	require.NoError(t, err)
	// 5 static ink (three local.get, memory.fill, end) plus 100 ink for
	// the 100 filled bytes.
	require.Equal(t, int64(895), in.InkLeft())

	mem := in.Memory()
	got, ok := mem.Read(0, 100)
	require.True(t, ok)
	for _, b := range got {
		require.Equal(t, byte(0xff), b)
	}
}

func linkInstrumented(t *testing.T, m *wasm.Module, maxDepth uint32) *interp.Instance {
	t.Helper()
	_, err := middleware.Run(m, uniformProfile(), maxDepth, false)
	require.NoError(t, err)

	compiled, err := interp.Compile(m)
	require.NoError(t, err)
	in, err := interp.Link(compiled, &hostapi.Context{})
	require.NoError(t, err)
	return in
}

// TestMeterGuardTrapsOnInsufficientInk runs the real injected guard
// bytecode, not a direct State manipulation: the four-operator add
// function costs 4 ink under the uniform cost table (three ops plus the
// trailing end), so a budget of 3 must trap before producing a result.
func TestMeterGuardTrapsOnInsufficientInk(t *testing.T) {
	in := linkInstrumented(t, addFn(), 1024)

	in.SetInkLeft(3)
	in.SetDepthLeft(1024)
	_, err := in.Invoke(0, []uint64{7, 35})
	require.Error(t, err)
	require.Equal(t, int32(1), in.InkStatus())
}

// TestMeterGuardChargesExactCostOnSuccess mirrors the trap case with a
// budget exactly equal to cost, confirming the guard both allows the
// call through and debits ink_left down to zero rather than over- or
// under-charging.
func TestMeterGuardChargesExactCostOnSuccess(t *testing.T) {
	in := linkInstrumented(t, addFn(), 1024)

	in.SetInkLeft(4)
	in.SetDepthLeft(1024)
	results, err := in.Invoke(0, []uint64{7, 35})
	require.NoError(t, err)
	require.Equal(t, []uint64{42}, results)
	require.Equal(t, int64(0), in.InkLeft())
	require.Equal(t, int32(0), in.InkStatus())
}

// recursiveCountdown builds countdown(n) = n == 0 ? 0 : countdown(n-1) + 1,
// a self-recursive function whose call depth equals its argument. Each
// live call holds the entry guard's depth_left debit until it returns,
// so driving n high enough against a small maxDepth exercises the depth
// guard's runtime trap rather than instrumentDepth's compile-time
// rejection (which only fires when a single frame already exceeds the
// budget).
func recursiveCountdown() *wasm.Module {
	return &wasm.Module{
		Types:               []wasm.FunctionType{{Params: []wasm.ValueType{wasm.ValueTypeI32}, Results: []wasm.ValueType{wasm.ValueTypeI32}}},
		FunctionTypeIndexes: []uint32{0},
		Code: []wasm.Code{{Body: []wasm.Operator{
			{Opcode: wasm.OpLocalGet, Index: 0},
			{Opcode: 0x45}, // i32.eqz
			{Opcode: wasm.OpIf, Block: wasm.BlockTypeValue, ValueType: wasm.ValueTypeI32},
			{Opcode: wasm.OpI32Const, I32: 0},
			{Opcode: wasm.OpElse},
			{Opcode: wasm.OpLocalGet, Index: 0},
			{Opcode: wasm.OpI32Const, I32: 1},
			{Opcode: 0x6b}, // i32.sub
			{Opcode: wasm.OpCall, FuncIndex: 0},
			{Opcode: wasm.OpI32Const, I32: 1},
			{Opcode: 0x6a}, // i32.add
			{Opcode: wasm.OpEnd},
			{Opcode: wasm.OpEnd},
		}}},
		Exports: []wasm.Export{{Name: "user_entrypoint", Kind: wasm.ExternKindFunc, Index: 0}},
	}
}

// TestDepthGuardTrapsOnDeepRecursion confirms the fixed wiring: Run now
// derives the per-call frame budget from the caller-supplied maxDepth
// rather than the profile's fixed ceiling, so a small maxDepth rejects
// deep recursion at runtime through the injected entry guard.
func TestDepthGuardTrapsOnDeepRecursion(t *testing.T) {
	m := recursiveCountdown()
	// One frame costs (worst operand height + 0 locals + 4) words; pick
	// a maxDepth that admits a handful of recursive calls but not 50.
	in := linkInstrumented(t, m, 40)

	in.SetInkLeft(1 << 30)
	in.SetDepthLeft(40)
	_, err := in.Invoke(0, []uint64{50})
	require.Error(t, err)
}

// TestDepthGuardAllowsShallowRecursion is the control case: the same
// function with a maxDepth wide enough for the full recursion succeeds
// and reclaims its depth budget back to the starting value, proving the
// entry/reclaim pairing nets to zero rather than leaking.
func TestDepthGuardAllowsShallowRecursion(t *testing.T) {
	m := recursiveCountdown()
	in := linkInstrumented(t, m, 4096)

	in.SetInkLeft(1 << 30)
	in.SetDepthLeft(4096)
	results, err := in.Invoke(0, []uint64{5})
	require.NoError(t, err)
	require.Equal(t, []uint64{5}, results)
	require.Equal(t, int32(4096), in.DepthLeft())
}

// TestCounterCountsStraightLineAdds runs a 100-add straight-line body
// with opcode counting enabled and reads the i32.add counter back
// through the instance's exported globals: 100 guest adds plus the one
// i32.add the depth pass's reclaim sequence executes on return.
func TestCounterCountsStraightLineAdds(t *testing.T) {
	body := []wasm.Operator{{Opcode: wasm.OpI32Const, I32: 0}}
	for i := 0; i < 100; i++ {
		body = append(body,
			wasm.Operator{Opcode: wasm.OpI32Const, I32: 1},
			wasm.Operator{Opcode: 0x6a}, // i32.add
		)
	}
	body = append(body, wasm.Operator{Opcode: wasm.OpEnd})
	m := &wasm.Module{
		Types:               []wasm.FunctionType{{Results: []wasm.ValueType{wasm.ValueTypeI32}}},
		FunctionTypeIndexes: []uint32{0},
		Code:                []wasm.Code{{Body: body}},
		Exports:             []wasm.Export{{Name: "user_entrypoint", Kind: wasm.ExternKindFunc, Index: 0}},
	}

	_, err := middleware.Run(m, uniformProfile(), 1024, true)
	require.NoError(t, err)
	compiled, err := interp.Compile(m)
	require.NoError(t, err)
	in, err := interp.Link(compiled, &hostapi.Context{})
	require.NoError(t, err)

	in.SetInkLeft(1 << 30)
	in.SetDepthLeft(1024)
	results, err := in.Invoke(0, nil)
	require.NoError(t, err)
	require.Equal(t, []uint64{100}, results)

	counts, ok := in.OpcodeCounts()
	require.True(t, ok)
	addIdx := -1
	for i, op := range middleware.CountedOpcodes {
		if op == wasm.Opcode(0x6a) {
			addIdx = i
			break
		}
	}
	require.GreaterOrEqual(t, addIdx, 0)
	require.Equal(t, uint64(101), counts[middleware.CounterGlobalName(addIdx)])
}

// TestRunRejectsFrameExceedingMaxDepth exercises the compile-time path:
// instrumentDepth must reject outright when a single function's
// worst-case frame already meets or exceeds half the configured maxDepth,
// rather than silently admitting it and deferring to a runtime trap
// that would never fire for a non-recursive function.
func TestRunRejectsFrameExceedingMaxDepth(t *testing.T) {
	_, err := middleware.Run(addFn(), uniformProfile(), 1, false)
	require.Error(t, err)
}
