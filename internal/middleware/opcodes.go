package middleware

import "github.com/inkvm/ink/internal/wasm"

// Numeric opcodes the instrumentation passes emit directly in guard
// sequences. internal/wasm deliberately does not name every byte in
// the 0x45-0xc4 numeric span (see opcode.go); these are the handful
// this package needs to splice into guest bytecode.
const (
	opI32LtU        = wasm.Opcode(0x49)
	opI32Add        = wasm.Opcode(0x6a)
	opI32Sub        = wasm.Opcode(0x6b)
	opI64LtU        = wasm.Opcode(0x54)
	opI64Add        = wasm.Opcode(0x7c)
	opI64Sub        = wasm.Opcode(0x7d)
	opI64Mul        = wasm.Opcode(0x7e)
	opI64ExtendI32U = wasm.Opcode(0xad)
)
