package middleware

import (
	"fmt"

	"github.com/inkvm/ink/internal/leb128"
	"github.com/inkvm/ink/internal/wasm"
)

// CountedOpcodes is the fixed, stable-ordered vocabulary of opcodes the
// optional debug counter tracks, one reserved i64 global per entry.
var CountedOpcodes = buildCountedOpcodes()

func buildCountedOpcodes() []wasm.Opcode {
	ops := []wasm.Opcode{
		wasm.OpUnreachable, wasm.OpNop, wasm.OpBlock, wasm.OpLoop, wasm.OpIf, wasm.OpElse, wasm.OpEnd,
		wasm.OpBr, wasm.OpBrIf, wasm.OpBrTable, wasm.OpReturn, wasm.OpCall, wasm.OpCallIndirect,
		wasm.OpDrop, wasm.OpSelect,
		wasm.OpLocalGet, wasm.OpLocalSet, wasm.OpLocalTee, wasm.OpGlobalGet, wasm.OpGlobalSet,
		wasm.OpMemorySize, wasm.OpMemoryGrow,
		wasm.OpI32Const, wasm.OpI64Const, wasm.OpF32Const, wasm.OpF64Const,
	}
	for b := wasm.OpI32Load; b <= wasm.OpI64Store32; b++ {
		ops = append(ops, b)
	}
	for b := wasm.Opcode(0x45); b <= wasm.Opcode(0xc4); b++ {
		if _, ok := wasm.Effect(b); ok {
			ops = append(ops, b)
		}
	}
	ops = append(ops,
		wasm.OpI32TruncSatF32S, wasm.OpI32TruncSatF32U, wasm.OpI32TruncSatF64S, wasm.OpI32TruncSatF64U,
		wasm.OpI64TruncSatF32S, wasm.OpI64TruncSatF32U, wasm.OpI64TruncSatF64S, wasm.OpI64TruncSatF64U,
		wasm.OpMemoryFill, wasm.OpMemoryCopy,
	)
	return ops
}

// CounterGlobalName returns the reserved export name for the i-th
// entry of CountedOpcodes.
func CounterGlobalName(i int) string {
	return fmt.Sprintf("stylus_opcode%d_count", i)
}

func addCounterGlobals(m *wasm.Module) map[wasm.Opcode]uint32 {
	idx := make(map[wasm.Opcode]uint32, len(CountedOpcodes))
	zero := wasm.ConstExpr{Opcode: wasm.OpI64Const, Data: leb128.EncodeInt64(0)}
	for i, op := range CountedOpcodes {
		idx[op] = m.AddGlobal(CounterGlobalName(i), wasm.ValueTypeI64, zero)
	}
	return idx
}

// instrumentCounter splits body into basic blocks identically to the
// static meter and, at the start of each block, emits one
// read-add-write sequence per distinct tracked opcode that appears in
// it, incrementing by its occurrence count in that block. Because this
// pass runs last, it counts the meter/depth/dynamic-meter
// instrumentation's own opcodes along with the guest's, so the sum of
// every counter equals the total number of instructions the
// instrumented module executes, not just the ones the guest wrote.
func instrumentCounter(body []wasm.Operator, counters map[wasm.Opcode]uint32) []wasm.Operator {
	out := make([]wasm.Operator, 0, len(body)+len(body)/4)
	var block []wasm.Operator
	counts := make(map[wasm.Opcode]int64)

	incOps := []wasm.Opcode{wasm.OpGlobalGet, wasm.OpI64Const, opI64Add, wasm.OpGlobalSet}

	flush := func() {
		if len(block) == 0 {
			return
		}
		// Fold the increment sequences themselves into the counts: one
		// quadruple is emitted per distinct kind (the increment ops'
		// own kinds included), so each increment op runs once per kind.
		for _, op := range incOps {
			if _, ok := counts[op]; !ok {
				counts[op] = 0
			}
		}
		kinds := int64(len(counts))
		for _, op := range incOps {
			counts[op] += kinds
		}
		for op, n := range counts {
			g, ok := counters[op]
			if !ok {
				continue
			}
			out = append(out,
				wasm.Operator{Opcode: wasm.OpGlobalGet, Index: g},
				wasm.Operator{Opcode: wasm.OpI64Const, I64: n},
				wasm.Operator{Opcode: opI64Add},
				wasm.Operator{Opcode: wasm.OpGlobalSet, Index: g},
			)
		}
		out = append(out, block...)
		block = block[:0]
		for k := range counts {
			delete(counts, k)
		}
	}

	for _, op := range body {
		counts[op.Opcode]++
		block = append(block, op)
		if op.Opcode.IsBlockBoundary() {
			flush()
		}
	}
	flush()
	return out
}
