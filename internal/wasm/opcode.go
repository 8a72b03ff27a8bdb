package wasm

// Opcode is a single WASM instruction opcode. Multi-byte (0xFC-, 0xFD-
// prefixed) opcodes are folded into this space at offsets above 0x100
// so that the whole supported vocabulary fits in one enum, matching
// how the teacher lineage's own opcode tables are laid out.
type Opcode uint16

const (
	OpUnreachable Opcode = 0x00
	OpNop         Opcode = 0x01
	OpBlock       Opcode = 0x02
	OpLoop        Opcode = 0x03
	OpIf          Opcode = 0x04
	OpElse        Opcode = 0x05
	OpEnd         Opcode = 0x0b
	OpBr          Opcode = 0x0c
	OpBrIf        Opcode = 0x0d
	OpBrTable     Opcode = 0x0e
	OpReturn      Opcode = 0x0f
	OpCall        Opcode = 0x10
	OpCallIndirect Opcode = 0x11

	OpDrop   Opcode = 0x1a
	OpSelect Opcode = 0x1b

	OpLocalGet  Opcode = 0x20
	OpLocalSet  Opcode = 0x21
	OpLocalTee  Opcode = 0x22
	OpGlobalGet Opcode = 0x23
	OpGlobalSet Opcode = 0x24

	OpI32Load    Opcode = 0x28
	OpI64Load    Opcode = 0x29
	OpF32Load    Opcode = 0x2a
	OpF64Load    Opcode = 0x2b
	OpI32Load8S  Opcode = 0x2c
	OpI32Load8U  Opcode = 0x2d
	OpI32Load16S Opcode = 0x2e
	OpI32Load16U Opcode = 0x2f
	OpI64Load8S  Opcode = 0x30
	OpI64Load8U  Opcode = 0x31
	OpI64Load16S Opcode = 0x32
	OpI64Load16U Opcode = 0x33
	OpI64Load32S Opcode = 0x34
	OpI64Load32U Opcode = 0x35
	OpI32Store   Opcode = 0x36
	OpI64Store   Opcode = 0x37
	OpF32Store   Opcode = 0x38
	OpF64Store   Opcode = 0x39
	OpI32Store8  Opcode = 0x3a
	OpI32Store16 Opcode = 0x3b
	OpI64Store8  Opcode = 0x3c
	OpI64Store16 Opcode = 0x3d
	OpI64Store32 Opcode = 0x3e
	OpMemorySize Opcode = 0x3f
	OpMemoryGrow Opcode = 0x40

	OpI32Const Opcode = 0x41
	OpI64Const Opcode = 0x42
	OpF32Const Opcode = 0x43
	OpF64Const Opcode = 0x44

	// 0x45-0xc4: comparison, arithmetic, and conversion operators. The
	// interpreter and depth checker use the numeric ranges directly
	// rather than one named constant per opcode (there are over 150 of
	// them in this span), consulting the arity/classification tables
	// in internal/wasm/arity.go.
	opNumericRangeStart Opcode = 0x45
	opNumericRangeEnd   Opcode = 0xc4

	// Bulk memory operators (0xFC-prefixed). Folded at 0x100+subopcode.
	// Only Fill and Copy are part of the supported subset; the rest are
	// recognized so the validator can reject them by name rather than
	// by generic "unknown opcode".
	// Saturating float-to-int truncation (0xFC 0x00-0x07) is part of
	// the supported feature subset.
	OpI32TruncSatF32S Opcode = 0x100 + 0
	OpI32TruncSatF32U Opcode = 0x100 + 1
	OpI32TruncSatF64S Opcode = 0x100 + 2
	OpI32TruncSatF64U Opcode = 0x100 + 3
	OpI64TruncSatF32S Opcode = 0x100 + 4
	OpI64TruncSatF32U Opcode = 0x100 + 5
	OpI64TruncSatF64S Opcode = 0x100 + 6
	OpI64TruncSatF64U Opcode = 0x100 + 7

	OpMemoryInit Opcode = 0x100 + 8
	OpDataDrop   Opcode = 0x100 + 9
	OpMemoryCopy Opcode = 0x100 + 10
	OpMemoryFill Opcode = 0x100 + 11
	OpTableInit  Opcode = 0x100 + 12
	OpElemDrop   Opcode = 0x100 + 13
	OpTableCopy  Opcode = 0x100 + 14
	OpTableGrow  Opcode = 0x100 + 15
	OpTableSize  Opcode = 0x100 + 16
	OpTableFill  Opcode = 0x100 + 17
)

// BlockType tags how an `if`/`block`/`loop` reports its arity.
type BlockType byte

const (
	// BlockTypeEmpty has no result value.
	BlockTypeEmpty BlockType = iota
	// BlockTypeValue carries a single ValueType result.
	BlockTypeValue
	// BlockTypeFuncType references a signature in the type section by
	// index, giving both parameter and result arities.
	BlockTypeFuncType
)

// Operator is one instruction in a function body, together with the
// immediates relevant to instrumentation and execution.
type Operator struct {
	Opcode Opcode

	// Block-structured operators (block/loop/if).
	Block BlockType
	ValueType
	TypeIndex uint32

	// local.get/set/tee, global.get/set.
	Index uint32

	// br/br_if target a relative label depth; br_table carries a list
	// plus a default.
	Targets []uint32
	Default uint32

	// call / call_indirect.
	FuncIndex  uint32
	TableIndex uint32

	// memory.{load,store}* alignment/offset immediates.
	Align  uint32
	Offset uint32

	// const immediates.
	I32 int32
	I64 int64
	F32 uint32 // raw IEEE-754 bits
	F64 uint64 // raw IEEE-754 bits
}

// IsBlockBoundary reports whether this operator ends a basic block for
// the purposes of the static gas meter: immediately after end, else,
// return, loop, br, br_table, br_if, call, or call_indirect.
func (op Opcode) IsBlockBoundary() bool {
	switch op {
	case OpEnd, OpElse, OpReturn, OpLoop, OpBr, OpBrTable, OpBrIf, OpCall, OpCallIndirect:
		return true
	default:
		return false
	}
}
