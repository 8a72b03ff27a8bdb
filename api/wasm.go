// Package api includes the public value types and interfaces shared by
// the engine's embedders: the numeric/extern type vocabulary inherited
// from the WASM binary format, and the Memory/Global/Instance surface
// an embedder uses to drive a compiled program after linking.
package api

import "fmt"

// ExternType classifies imports and exports with their respective types.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#external-types%E2%91%A0
type ExternType = byte

const (
	ExternTypeFunc   ExternType = 0x00
	ExternTypeTable  ExternType = 0x01
	ExternTypeMemory ExternType = 0x02
	ExternTypeGlobal ExternType = 0x03
)

const (
	ExternTypeFuncName   = "func"
	ExternTypeTableName  = "table"
	ExternTypeMemoryName = "memory"
	ExternTypeGlobalName = "global"
)

// ExternTypeName returns the name of the WebAssembly 1.0 (20191205) Text
// Format field of the given type.
func ExternTypeName(et ExternType) string {
	switch et {
	case ExternTypeFunc:
		return ExternTypeFuncName
	case ExternTypeTable:
		return ExternTypeTableName
	case ExternTypeMemory:
		return ExternTypeMemoryName
	case ExternTypeGlobal:
		return ExternTypeGlobalName
	}
	return fmt.Sprintf("%#x", et)
}

// ValueType is a WASM 1.0 numeric value type. This engine's feature subset
// (spec §4.1) has no reference types, so unlike the teacher lineage this
// vocabulary carries only the four numeric kinds.
type ValueType = byte

const (
	ValueTypeI32 ValueType = 0x7f
	ValueTypeI64 ValueType = 0x7e
	ValueTypeF32 ValueType = 0x7d
	ValueTypeF64 ValueType = 0x7c
)

// ValueTypeName returns the WASM text-format name of t, or "unknown".
func ValueTypeName(t ValueType) string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	}
	return "unknown"
}

// Global is a WASM global exported from an instantiated module, read
// through the instance's export table. Resource-state globals (ink_left,
// ink_status, depth_left, opcode counters) are ordinary instances of this
// interface; there is no separate process-global state (spec §9).
type Global interface {
	fmt.Stringer

	// Type is the global's numeric type.
	Type() ValueType

	// Get returns the global's current raw value, bit-reinterpreted
	// according to Type (i32/i64 as their two's-complement bits zero-
	// extended into a uint64, f32/f64 as their IEEE-754 bits).
	Get() uint64
}

// MutableGlobal is a Global an embedder may also write. Every reserved
// resource-state global is mutable; user-declared globals may or may not
// be, per their declared mutability.
type MutableGlobal interface {
	Global

	// Set overwrites the global's raw value.
	Set(uint64)
}

// Memory gives bounds-checked access to one instance's linear memory, the
// only memory a host function or embedder may touch directly (spec §4.5
// guest-visible host calls take pointers into exactly this memory).
type Memory interface {
	// Size returns the current size in bytes (a multiple of 65536).
	Size() uint32

	// Grow increases memory by deltaPages pages, returning the previous
	// size in pages and whether the growth was permitted. Growth beyond
	// the heap-bound middleware's configured maximum always fails.
	Grow(deltaPages uint32) (previousPages uint32, ok bool)

	// Read returns a byte slice reading through instance memory at
	// [offset, offset+byteCount), or false if that range is out of
	// bounds. The slice is a view, not a copy: writes through it are
	// visible to the guest.
	Read(offset, byteCount uint32) ([]byte, bool)

	// Write copies data into instance memory at offset, or returns false
	// without copying anything if the range is out of bounds.
	Write(offset uint32, data []byte) bool

	// ReadUint32Le reads a little-endian uint32 at offset.
	ReadUint32Le(offset uint32) (uint32, bool)

	// WriteUint32Le writes a little-endian uint32 at offset.
	WriteUint32Le(offset uint32, v uint32) bool
}

// Status classifies how a program invocation ended (spec §7 tier 2).
type Status int

const (
	// StatusSuccess means the entrypoint returned 0.
	StatusSuccess Status = iota
	// StatusRevert means the entrypoint returned non-zero.
	StatusRevert
	// StatusOutOfInk means ink_status was nonzero, or the raw ink value
	// went non-positive, at or before termination.
	StatusOutOfInk
	// StatusOutOfStack means depth_left reached zero.
	StatusOutOfStack
	// StatusFailure covers unreachable, integer overflow, OOB access,
	// and any other trap not attributable to ink or stack exhaustion.
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusRevert:
		return "revert"
	case StatusOutOfInk:
		return "out-of-ink"
	case StatusOutOfStack:
		return "out-of-stack"
	case StatusFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Outcome is the result of one program invocation. It is a plain value,
// not an error: a reverted or out-of-ink program is an expected result of
// running untrusted code, not a Go-level failure (spec §1.3).
type Outcome struct {
	Status Status

	// Output is the data staged via write_result, present for
	// StatusSuccess and StatusRevert.
	Output []byte

	// FailureReason is set only for StatusFailure: a short machine
	// description of the trap ("unreachable", "out of bounds memory
	// access", "integer divide by zero", ...).
	FailureReason string

	// InkConsumed and GasConsumed report resource usage at termination,
	// useful even on failure paths for chain-side accounting.
	InkConsumed uint64
	GasConsumed uint64
}

func (o Outcome) String() string {
	switch o.Status {
	case StatusSuccess, StatusRevert:
		return fmt.Sprintf("%s(%d bytes)", o.Status, len(o.Output))
	case StatusFailure:
		return fmt.Sprintf("%s(%s)", o.Status, o.FailureReason)
	default:
		return o.Status.String()
	}
}

// Instance is a program loaded and linked against a host-call
// implementation, ready to be invoked (spec §4.4). Its lifetime spans
// exactly one invocation of user_entrypoint.
type Instance interface {
	// Memory returns the instance's linear memory, or nil if the module
	// declared none.
	Memory() Memory

	// Global looks up an exported global by name — used by embedders to
	// read the reserved resource-state globals for diagnostics, and by
	// tests to inspect opcode counters directly.
	Global(name string) (Global, bool)

	// Footprint is the module's initial memory page count (u16 in the
	// wire format; widened here for convenience).
	Footprint() uint32

	// OpcodeCounts returns the debug opcode-counter readback keyed by a
	// human-readable mnemonic, and false if opcode counting was not
	// enabled at compile time.
	OpcodeCounts() (map[string]uint64, bool)
}
