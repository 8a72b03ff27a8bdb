package binary

import (
	"bytes"
	"fmt"
	"io"

	"github.com/inkvm/ink/internal/leb128"
	"github.com/inkvm/ink/internal/wasm"
)

// decodeFunctionBody decodes one entry of the code section: its locals
// declarations followed by its operator stream, up to and including the
// function-closing `end`.
func decodeFunctionBody(r *bytes.Reader) (wasm.Code, error) {
	localDeclCount, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return wasm.Code{}, err
	}
	locals := make([]wasm.Local, 0, localDeclCount)
	var total uint64
	for i := uint32(0); i < localDeclCount; i++ {
		count, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return wasm.Code{}, err
		}
		vt, err := readValueType(r)
		if err != nil {
			return wasm.Code{}, err
		}
		total += uint64(count)
		if total > maxLocals {
			return wasm.Code{}, &wasm.LimitExceededError{What: "locals", Value: total, Max: maxLocals}
		}
		locals = append(locals, wasm.Local{Count: count, Type: vt})
	}

	body, err := decodeOperators(r)
	if err != nil {
		return wasm.Code{}, err
	}
	return wasm.Code{Locals: locals, Body: body}, nil
}

// decodeOperators decodes the operator stream of a function body, which
// is terminated by the `end` that closes the function's implicit
// top-level block (depth returns to zero).
func decodeOperators(r *bytes.Reader) ([]wasm.Operator, error) {
	var ops []wasm.Operator
	depth := 1
	for {
		op, err := decodeOperator(r)
		if err != nil {
			return nil, err
		}
		switch op.Opcode {
		case wasm.OpBlock, wasm.OpLoop, wasm.OpIf:
			depth++
		case wasm.OpEnd:
			depth--
		}
		ops = append(ops, op)
		if depth == 0 {
			if op.Opcode != wasm.OpEnd {
				return nil, &wasm.MalformedSectionError{Section: wasm.SectionIDCode, Reason: "function body did not end with `end`"}
			}
			return ops, nil
		}
		if depth < 0 {
			return nil, &wasm.MalformedSectionError{Section: wasm.SectionIDCode, Reason: "unbalanced block/end nesting"}
		}
	}
}

// decodeBlockType decodes the signed-LEB133 encoded block type immediate
// shared by block/loop/if.
func decodeBlockType(r *bytes.Reader) (wasm.BlockType, wasm.ValueType, uint32, error) {
	s, _, err := leb128.DecodeInt33AsInt64(r)
	if err != nil {
		return 0, 0, 0, err
	}
	switch s {
	case -0x40:
		return wasm.BlockTypeEmpty, 0, 0, nil
	case -0x01:
		return wasm.BlockTypeValue, wasm.ValueTypeI32, 0, nil
	case -0x02:
		return wasm.BlockTypeValue, wasm.ValueTypeI64, 0, nil
	case -0x03:
		return wasm.BlockTypeValue, wasm.ValueTypeF32, 0, nil
	case -0x04:
		return wasm.BlockTypeValue, wasm.ValueTypeF64, 0, nil
	case -0x11, -0x10:
		return 0, 0, 0, &wasm.FeatureUnsupportedError{Kind: "reference-types"}
	}
	if s < 0 {
		return 0, 0, 0, &wasm.MalformedSectionError{Reason: "invalid block type"}
	}
	return wasm.BlockTypeFuncType, 0, uint32(s), nil
}

func readMemArg(r *bytes.Reader) (align, offset uint32, err error) {
	align, _, err = leb128.DecodeUint32(r)
	if err != nil {
		return
	}
	offset, _, err = leb128.DecodeUint32(r)
	return
}

func readReservedByte(r *bytes.Reader, context string) error {
	b, err := r.ReadByte()
	if err != nil {
		return err
	}
	if b != 0x00 {
		return &wasm.MalformedSectionError{Reason: fmt.Sprintf("%s: reserved byte must be 0", context)}
	}
	return nil
}

// decodeOperator decodes a single instruction, rejecting anything
// outside this engine's supported feature subset.
func decodeOperator(r *bytes.Reader) (wasm.Operator, error) {
	b, err := r.ReadByte()
	if err != nil {
		return wasm.Operator{}, err
	}
	op := wasm.Opcode(b)

	switch op {
	case wasm.OpUnreachable, wasm.OpNop, wasm.OpEnd, wasm.OpElse, wasm.OpReturn,
		wasm.OpDrop, wasm.OpSelect:
		return wasm.Operator{Opcode: op}, nil

	case wasm.OpBlock, wasm.OpLoop, wasm.OpIf:
		bt, vt, typeIdx, err := decodeBlockType(r)
		if err != nil {
			return wasm.Operator{}, err
		}
		return wasm.Operator{Opcode: op, Block: bt, ValueType: vt, TypeIndex: typeIdx}, nil

	case wasm.OpBr, wasm.OpBrIf:
		idx, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return wasm.Operator{}, err
		}
		return wasm.Operator{Opcode: op, Index: idx}, nil

	case wasm.OpBrTable:
		n, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return wasm.Operator{}, err
		}
		targets := make([]uint32, n)
		for i := range targets {
			if targets[i], _, err = leb128.DecodeUint32(r); err != nil {
				return wasm.Operator{}, err
			}
		}
		def, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return wasm.Operator{}, err
		}
		return wasm.Operator{Opcode: op, Targets: targets, Default: def}, nil

	case wasm.OpCall:
		idx, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return wasm.Operator{}, err
		}
		return wasm.Operator{Opcode: op, FuncIndex: idx}, nil

	case wasm.OpCallIndirect:
		typeIdx, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return wasm.Operator{}, err
		}
		tableIdx, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return wasm.Operator{}, err
		}
		return wasm.Operator{Opcode: op, TypeIndex: typeIdx, TableIndex: tableIdx}, nil

	case wasm.OpLocalGet, wasm.OpLocalSet, wasm.OpLocalTee,
		wasm.OpGlobalGet, wasm.OpGlobalSet:
		idx, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return wasm.Operator{}, err
		}
		return wasm.Operator{Opcode: op, Index: idx}, nil

	case wasm.OpMemorySize, wasm.OpMemoryGrow:
		if err := readReservedByte(r, "memory.size/grow"); err != nil {
			return wasm.Operator{}, err
		}
		return wasm.Operator{Opcode: op}, nil

	case wasm.OpI32Const:
		v, _, err := leb128.DecodeInt32(r)
		if err != nil {
			return wasm.Operator{}, err
		}
		return wasm.Operator{Opcode: op, I32: v}, nil

	case wasm.OpI64Const:
		v, _, err := leb128.DecodeInt64(r)
		if err != nil {
			return wasm.Operator{}, err
		}
		return wasm.Operator{Opcode: op, I64: v}, nil

	case wasm.OpF32Const:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return wasm.Operator{}, err
		}
		return wasm.Operator{Opcode: op, F32: leUint32(buf[:])}, nil

	case wasm.OpF64Const:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return wasm.Operator{}, err
		}
		return wasm.Operator{Opcode: op, F64: leUint64(buf[:])}, nil

	case 0xFC: // bulk-memory / sat-trunc prefix
		return decodeFCOperator(r)

	case 0xFD:
		return wasm.Operator{}, &wasm.FeatureUnsupportedError{Kind: "simd"}

	case 0xFE:
		return wasm.Operator{}, &wasm.FeatureUnsupportedError{Kind: "threads"}

	case 0x06, 0x07, 0x08, 0x09, 0x18, 0x19:
		return wasm.Operator{}, &wasm.FeatureUnsupportedError{Kind: "exception-handling"}

	case 0x12, 0x13:
		return wasm.Operator{}, &wasm.FeatureUnsupportedError{Kind: "tail-call"}

	case 0xd0, 0xd1, 0xd2:
		return wasm.Operator{}, &wasm.FeatureUnsupportedError{Kind: "reference-types"}
	}

	// Loads/stores carry align+offset immediates; everything else in the
	// 0x28-0xc4 numeric span carries none.
	switch {
	case op >= wasm.OpI32Load && op <= wasm.OpI64Store32:
		align, offset, err := readMemArg(r)
		if err != nil {
			return wasm.Operator{}, err
		}
		return wasm.Operator{Opcode: op, Align: align, Offset: offset}, nil
	case op >= 0x45 && op <= 0xc4:
		if _, ok := wasm.Effect(op); !ok {
			return wasm.Operator{}, &wasm.FeatureUnsupportedError{Kind: "unknown-numeric-opcode", Op: fmt.Sprintf("0x%x", byte(op))}
		}
		return wasm.Operator{Opcode: op}, nil
	}

	return wasm.Operator{}, &wasm.MalformedSectionError{Reason: fmt.Sprintf("unknown opcode 0x%x", byte(op))}
}

func decodeFCOperator(r *bytes.Reader) (wasm.Operator, error) {
	sub, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return wasm.Operator{}, err
	}
	op := wasm.Opcode(0x100 + sub)
	switch op {
	case wasm.OpI32TruncSatF32S, wasm.OpI32TruncSatF32U, wasm.OpI32TruncSatF64S, wasm.OpI32TruncSatF64U,
		wasm.OpI64TruncSatF32S, wasm.OpI64TruncSatF32U, wasm.OpI64TruncSatF64S, wasm.OpI64TruncSatF64U:
		return wasm.Operator{Opcode: op}, nil

	case wasm.OpMemoryFill:
		if err := readReservedByte(r, "memory.fill"); err != nil {
			return wasm.Operator{}, err
		}
		return wasm.Operator{Opcode: op}, nil

	case wasm.OpMemoryCopy:
		if err := readReservedByte(r, "memory.copy dst"); err != nil {
			return wasm.Operator{}, err
		}
		if err := readReservedByte(r, "memory.copy src"); err != nil {
			return wasm.Operator{}, err
		}
		return wasm.Operator{Opcode: op}, nil

	case wasm.OpMemoryInit, wasm.OpDataDrop, wasm.OpTableInit, wasm.OpElemDrop,
		wasm.OpTableCopy, wasm.OpTableGrow, wasm.OpTableSize, wasm.OpTableFill:
		return wasm.Operator{}, &wasm.FeatureUnsupportedError{Kind: "bulk-memory", Op: fmt.Sprintf("0xfc 0x%x", sub)}
	}
	return wasm.Operator{}, &wasm.FeatureUnsupportedError{Kind: "bulk-memory", Op: fmt.Sprintf("0xfc 0x%x", sub)}
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
