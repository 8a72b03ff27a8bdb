package middleware

import (
	"github.com/inkvm/ink/internal/leb128"
	"github.com/inkvm/ink/internal/wasm"
)

// addMeterGlobals injects the two reserved resource-state globals the
// static meter reads and writes. Their compile-time initializers are
// zero; the executor overwrites both at Initialize before every run.
func addMeterGlobals(m *wasm.Module) (inkLeft, inkStatus uint32) {
	zero64 := wasm.ConstExpr{Opcode: wasm.OpI64Const, Data: leb128.EncodeInt64(0)}
	zero32 := wasm.ConstExpr{Opcode: wasm.OpI32Const, Data: leb128.EncodeInt32(0)}
	inkLeft = m.AddGlobal("stylus_ink_left", wasm.ValueTypeI64, zero64)
	inkStatus = m.AddGlobal("stylus_ink_status", wasm.ValueTypeI32, zero32)
	return
}

// instrumentMeter splits body into basic blocks at IsBlockBoundary and
// prepends each block with a guard that traps with ink_status=1 if
// ink_left is below the block's total cost, else debits it.
func instrumentMeter(body []wasm.Operator, cost func(wasm.Opcode) uint64, inkLeft, inkStatus uint32) []wasm.Operator {
	out := make([]wasm.Operator, 0, len(body)+len(body)/4)
	var block []wasm.Operator
	var blockCost uint64

	flush := func() {
		if len(block) == 0 {
			return
		}
		out = append(out, meterGuard(inkLeft, inkStatus, blockCost)...)
		out = append(out, block...)
		block = block[:0]
		blockCost = 0
	}

	for _, op := range body {
		blockCost = satAdd(blockCost, cost(op.Opcode))
		block = append(block, op)
		if op.Opcode.IsBlockBoundary() {
			flush()
		}
	}
	flush()
	return out
}

func meterGuard(inkLeft, inkStatus uint32, cost uint64) []wasm.Operator {
	return []wasm.Operator{
		{Opcode: wasm.OpGlobalGet, Index: inkLeft},
		{Opcode: wasm.OpI64Const, I64: int64(cost)},
		{Opcode: opI64LtU},
		{Opcode: wasm.OpIf, Block: wasm.BlockTypeEmpty},
		{Opcode: wasm.OpI32Const, I32: 1},
		{Opcode: wasm.OpGlobalSet, Index: inkStatus},
		{Opcode: wasm.OpUnreachable},
		{Opcode: wasm.OpEnd},
		{Opcode: wasm.OpGlobalGet, Index: inkLeft},
		{Opcode: wasm.OpI64Const, I64: int64(cost)},
		{Opcode: opI64Sub},
		{Opcode: wasm.OpGlobalSet, Index: inkLeft},
	}
}

func satAdd(a, b uint64) uint64 {
	s := a + b
	if s < a {
		return ^uint64(0)
	}
	return s
}
