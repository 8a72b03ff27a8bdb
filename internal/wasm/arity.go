package wasm

// StackEffect describes how many operand-stack slots an operator
// consumes and produces, for the depth checker's static worst-case
// frame analysis. Control-flow operators (block, loop, if, else, end,
// br, br_if, br_table, return, call, call_indirect) are handled
// specially by the depth checker and are not classified here.
type StackEffect struct {
	Pop  int
	Push int
}

// Effect returns the stack effect of a non-control-flow operator, and
// false if the opcode is outside the supported feature subset (in
// which case the caller must reject the module with
// FeatureUnsupportedError).
func Effect(op Opcode) (StackEffect, bool) {
	switch op {
	case OpUnreachable, OpNop:
		return StackEffect{0, 0}, true
	case OpDrop:
		return StackEffect{1, 0}, true
	case OpSelect:
		return StackEffect{3, 1}, true
	case OpLocalGet, OpGlobalGet:
		return StackEffect{0, 1}, true
	case OpLocalSet, OpGlobalSet:
		return StackEffect{1, 0}, true
	case OpLocalTee:
		return StackEffect{1, 1}, true
	case OpI32Const, OpI64Const, OpF32Const, OpF64Const, OpMemorySize:
		return StackEffect{0, 1}, true
	case OpMemoryGrow:
		return StackEffect{1, 1}, true
	case OpMemoryFill:
		// dst, val, len -> (nothing); the dynamic-memory meter (C2
		// §4.2.2) reads the length operand before the charge-then-op
		// rewrite runs, but by the time the depth checker walks the
		// stream the operator's declared arity is unchanged: 3 pops.
		return StackEffect{3, 0}, true
	case OpMemoryCopy:
		// dst, src, len -> (nothing).
		return StackEffect{3, 0}, true
	}

	switch op {
	case OpI32TruncSatF32S, OpI32TruncSatF32U, OpI32TruncSatF64S, OpI32TruncSatF64U,
		OpI64TruncSatF32S, OpI64TruncSatF32U, OpI64TruncSatF64S, OpI64TruncSatF64U:
		return StackEffect{1, 1}, true
	}

	switch {
	case isLoad(op):
		return StackEffect{1, 1}, true
	case isStore(op):
		return StackEffect{2, 0}, true
	case isUnary(op):
		return StackEffect{1, 1}, true
	case isBinary(op):
		return StackEffect{2, 1}, true
	case isCompare(op):
		return StackEffect{2, 1}, true
	case isConversion(op):
		return StackEffect{1, 1}, true
	case isRejectedBulkOrTable(op):
		return StackEffect{}, false
	}
	return StackEffect{}, false
}

func isLoad(op Opcode) bool {
	return op >= OpI32Load && op <= OpI64Load32U
}

func isStore(op Opcode) bool {
	return op >= OpI32Store && op <= OpI64Store32
}

// Numeric comparisons, 0x45-0x4f (i32.eqz .. i32 comparisons) and
// similarly for i64/f32/f64, per the WASM core spec opcode table.
func isCompare(op Opcode) bool {
	switch {
	case op == 0x45: // i32.eqz
		return false // classified as unary below
	case op >= 0x46 && op <= 0x4f: // i32 comparisons
		return true
	case op == 0x50: // i64.eqz
		return false
	case op >= 0x51 && op <= 0x5a: // i64 comparisons
		return true
	case op >= 0x5b && op <= 0x60: // f32 comparisons
		return true
	case op >= 0x61 && op <= 0x66: // f64 comparisons
		return true
	}
	return false
}

func isUnary(op Opcode) bool {
	switch op {
	case 0x45, 0x50: // i32.eqz, i64.eqz
		return true
	case 0x67, 0x68, 0x69: // i32.clz/ctz/popcnt
		return true
	case 0x79, 0x7a, 0x7b: // i64.clz/ctz/popcnt
		return true
	case 0x8b, 0x8c, 0x8d, 0x8e: // f32.abs/neg/ceil/floor
		return true
	case 0x8f, 0x90, 0x91: // f32.trunc/nearest/sqrt
		return true
	case 0x99, 0x9a, 0x9b, 0x9c: // f64.abs/neg/ceil/floor
		return true
	case 0x9d, 0x9e, 0x9f: // f64.trunc/nearest/sqrt
		return true
	case 0xc0, 0xc1: // i32.extend8_s, i32.extend16_s
		return true
	case 0xc2, 0xc3, 0xc4: // i64.extend8_s/16_s/32_s
		return true
	}
	return false
}

func isBinary(op Opcode) bool {
	switch {
	case op >= 0x6a && op <= 0x78: // i32 arithmetic/bitwise/shift/rotate
		return true
	case op >= 0x7c && op <= 0x8a: // i64 arithmetic/bitwise/shift/rotate
		return true
	case op >= 0x92 && op <= 0x98: // f32 arithmetic/min/max/copysign
		return true
	case op >= 0xa0 && op <= 0xa6: // f64 arithmetic/min/max/copysign
		return true
	}
	return false
}

func isConversion(op Opcode) bool {
	return op >= 0xa7 && op <= 0xbf // wrap/trunc/convert/demote/promote/reinterpret
}

func isRejectedBulkOrTable(op Opcode) bool {
	switch op {
	case OpMemoryInit, OpDataDrop, OpTableInit, OpElemDrop, OpTableCopy,
		OpTableGrow, OpTableSize, OpTableFill:
		return true
	}
	return false
}
