package middleware

import "github.com/inkvm/ink/internal/wasm"

// instrumentDynamicMeter rewrites every memory.fill/memory.copy into a
// charge-then-execute sequence: the byte count is captured into fresh
// locals, ink is debited (and the same trap-on-exhaustion guard as the
// static meter fires) before the original bulk operation runs.
func instrumentDynamicMeter(code *wasm.Code, paramCount uint32, body []wasm.Operator, inkLeft, inkStatus uint32, pricing PricingTable) []wasm.Operator {
	out := make([]wasm.Operator, 0, len(body))
	for _, op := range body {
		switch op.Opcode {
		case wasm.OpMemoryFill:
			out = append(out, rewriteMemoryFill(code, paramCount, inkLeft, inkStatus, pricing.MemoryFillInk)...)
		case wasm.OpMemoryCopy:
			out = append(out, rewriteMemoryCopy(code, paramCount, inkLeft, inkStatus, pricing.MemoryCopyInk)...)
		default:
			out = append(out, op)
		}
	}
	return out
}

func addLocal(code *wasm.Code, paramCount uint32, vt wasm.ValueType) uint32 {
	idx := paramCount + code.NumLocals()
	code.Locals = append(code.Locals, wasm.Local{Count: 1, Type: vt})
	return idx
}

// dynamicGuard emits: debit cost = len * perByte from ink_left,
// trapping first if insufficient. The length operand is read from a
// local rather than duplicated on the stack (WASM has no stack-dup).
func dynamicGuard(inkLeft, inkStatus, lenLocal uint32, perByte uint64) []wasm.Operator {
	costExpr := func() []wasm.Operator {
		return []wasm.Operator{
			{Opcode: wasm.OpLocalGet, Index: lenLocal},
			{Opcode: opI64ExtendI32U},
			{Opcode: wasm.OpI64Const, I64: int64(perByte)},
			{Opcode: opI64Mul},
		}
	}
	ops := []wasm.Operator{{Opcode: wasm.OpGlobalGet, Index: inkLeft}}
	ops = append(ops, costExpr()...)
	ops = append(ops,
		wasm.Operator{Opcode: opI64LtU},
		wasm.Operator{Opcode: wasm.OpIf, Block: wasm.BlockTypeEmpty},
		wasm.Operator{Opcode: wasm.OpI32Const, I32: 1},
		wasm.Operator{Opcode: wasm.OpGlobalSet, Index: inkStatus},
		wasm.Operator{Opcode: wasm.OpUnreachable},
		wasm.Operator{Opcode: wasm.OpEnd},
		wasm.Operator{Opcode: wasm.OpGlobalGet, Index: inkLeft},
	)
	ops = append(ops, costExpr()...)
	ops = append(ops,
		wasm.Operator{Opcode: opI64Sub},
		wasm.Operator{Opcode: wasm.OpGlobalSet, Index: inkLeft},
	)
	return ops
}

func rewriteMemoryFill(code *wasm.Code, paramCount, inkLeft, inkStatus uint32, perByte uint64) []wasm.Operator {
	lenL := addLocal(code, paramCount, wasm.ValueTypeI32)
	valL := addLocal(code, paramCount, wasm.ValueTypeI32)
	dstL := addLocal(code, paramCount, wasm.ValueTypeI32)

	out := []wasm.Operator{
		{Opcode: wasm.OpLocalSet, Index: lenL},
		{Opcode: wasm.OpLocalSet, Index: valL},
		{Opcode: wasm.OpLocalSet, Index: dstL},
	}
	out = append(out, dynamicGuard(inkLeft, inkStatus, lenL, perByte)...)
	out = append(out,
		wasm.Operator{Opcode: wasm.OpLocalGet, Index: dstL},
		wasm.Operator{Opcode: wasm.OpLocalGet, Index: valL},
		wasm.Operator{Opcode: wasm.OpLocalGet, Index: lenL},
		wasm.Operator{Opcode: wasm.OpMemoryFill},
	)
	return out
}

func rewriteMemoryCopy(code *wasm.Code, paramCount, inkLeft, inkStatus uint32, perByte uint64) []wasm.Operator {
	lenL := addLocal(code, paramCount, wasm.ValueTypeI32)
	srcL := addLocal(code, paramCount, wasm.ValueTypeI32)
	dstL := addLocal(code, paramCount, wasm.ValueTypeI32)

	out := []wasm.Operator{
		{Opcode: wasm.OpLocalSet, Index: lenL},
		{Opcode: wasm.OpLocalSet, Index: srcL},
		{Opcode: wasm.OpLocalSet, Index: dstL},
	}
	out = append(out, dynamicGuard(inkLeft, inkStatus, lenL, perByte)...)
	out = append(out,
		wasm.Operator{Opcode: wasm.OpLocalGet, Index: dstL},
		wasm.Operator{Opcode: wasm.OpLocalGet, Index: srcL},
		wasm.Operator{Opcode: wasm.OpLocalGet, Index: lenL},
		wasm.Operator{Opcode: wasm.OpMemoryCopy},
	)
	return out
}
