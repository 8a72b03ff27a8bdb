// Package binary decodes and validates the WASM binary format into an
// internal/wasm.Module, enforcing the structural rules and reserved
// feature subset of this engine.
package binary

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"path/filepath"

	"github.com/inkvm/ink/internal/leb128"
	"github.com/inkvm/ink/internal/wasm"
)

const (
	magic   = 0x6d736100 // "\0asm"
	version = 1

	// ReservedPrefix is the engine-reserved import/export name prefix.
	// No user-supplied import or export name may start with it.
	ReservedPrefix = "stylus"

	maxNameBytes     = 500
	maxLocals        = 4096
	maxMemories      = 1
	maxDataSegments  = 100
	maxElemSegments  = 100
	maxExports       = 1000
	maxTables        = 1000
	maxFunctions     = 10000
	maxGlobals       = 50000
	maxTableEntries  = 10000
)

// Limits bounds the structural counters enforced while decoding. Page
// limits are embedder-supplied (the page budget of the target chain);
// everything else is a fixed structural ceiling.
type Limits struct {
	PageLimit uint32
}

// DecodeModule parses a complete WASM binary. path is used only for
// diagnostics and as the module-name fallback when the name section is
// absent or empty.
func DecodeModule(data []byte, path string, limits Limits) (*wasm.Module, error) {
	r := bytes.NewReader(data)

	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, &wasm.MalformedSectionError{Reason: "missing module header"}
	}
	if binary.LittleEndian.Uint32(hdr[0:4]) != magic {
		return nil, &wasm.MalformedSectionError{Reason: "bad magic number"}
	}
	if binary.LittleEndian.Uint32(hdr[4:8]) != version {
		return nil, &wasm.MalformedSectionError{Reason: "unsupported binary version"}
	}

	m := &wasm.Module{}
	d := &decoder{r: r, m: m}

	var lastID wasm.SectionID = wasm.SectionIDCustom
	sawNonCustom := false
	for r.Len() > 0 {
		idByte, err := r.ReadByte()
		if err != nil {
			return nil, &wasm.MalformedSectionError{Reason: "truncated section header"}
		}
		id := wasm.SectionID(idByte)
		size, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil, &wasm.MalformedSectionError{Section: id, Reason: "bad section size"}
		}
		body := make([]byte, size)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, &wasm.MalformedSectionError{Section: id, Reason: "truncated section body"}
		}

		if id != wasm.SectionIDCustom {
			if sawNonCustom && id <= lastID && id != wasm.SectionIDCustom {
				return nil, &wasm.MalformedSectionError{Section: id, Reason: "sections out of order"}
			}
			lastID = id
			sawNonCustom = true
		}

		sr := bytes.NewReader(body)
		switch id {
		case wasm.SectionIDCustom:
			if err := d.decodeCustomSection(sr, uint32(len(body))); err != nil {
				return nil, err
			}
		case wasm.SectionIDType:
			if err := d.decodeTypeSection(sr); err != nil {
				return nil, err
			}
		case wasm.SectionIDImport:
			if err := d.decodeImportSection(sr); err != nil {
				return nil, err
			}
		case wasm.SectionIDFunction:
			if err := d.decodeFunctionSection(sr); err != nil {
				return nil, err
			}
		case wasm.SectionIDTable:
			if err := d.decodeTableSection(sr); err != nil {
				return nil, err
			}
		case wasm.SectionIDMemory:
			if err := d.decodeMemorySection(sr, limits); err != nil {
				return nil, err
			}
		case wasm.SectionIDGlobal:
			if err := d.decodeGlobalSection(sr); err != nil {
				return nil, err
			}
		case wasm.SectionIDExport:
			if err := d.decodeExportSection(sr); err != nil {
				return nil, err
			}
		case wasm.SectionIDStart:
			// User input must never declare a start function; the
			// start-relocation middleware pass re-introduces one
			// internally, under metering, after instrumentation.
			return nil, &wasm.StartFunctionForbiddenError{}
		case wasm.SectionIDElement:
			if err := d.decodeElementSection(sr); err != nil {
				return nil, err
			}
		case wasm.SectionIDCode:
			if err := d.decodeCodeSection(sr); err != nil {
				return nil, err
			}
		case wasm.SectionIDData:
			if err := d.decodeDataSection(sr); err != nil {
				return nil, err
			}
		default:
			return nil, &wasm.MalformedSectionError{Section: id, Reason: "unknown section id"}
		}
	}

	if len(m.FunctionTypeIndexes) != len(m.Code) {
		return nil, &wasm.MalformedSectionError{Reason: "function and code section counts differ"}
	}

	if m.Names.ModuleName == "" {
		m.Names.ModuleName = filepath.Base(path)
	}

	if err := validateModule(m); err != nil {
		return nil, err
	}

	return m, nil
}

type decoder struct {
	r *bytes.Reader
	m *wasm.Module
}

func readName(r *bytes.Reader) (string, error) {
	n, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return "", fmt.Errorf("wasm: bad name length: %w", err)
	}
	if n > maxNameBytes {
		return "", &wasm.LimitExceededError{What: "name length", Value: uint64(n), Max: maxNameBytes}
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("wasm: truncated name: %w", err)
	}
	return string(buf), nil
}

func readValueType(r *bytes.Reader) (wasm.ValueType, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	switch wasm.ValueType(b) {
	case wasm.ValueTypeI32, wasm.ValueTypeI64, wasm.ValueTypeF32, wasm.ValueTypeF64:
		return wasm.ValueType(b), nil
	case 0x6f, 0x70: // externref, funcref
		return 0, &wasm.FeatureUnsupportedError{Kind: "reference-types"}
	default:
		return 0, &wasm.MalformedSectionError{Reason: fmt.Sprintf("unknown value type 0x%x", b)}
	}
}

func (d *decoder) decodeCustomSection(r *bytes.Reader, size uint32) error {
	name, err := readName(r)
	if err != nil {
		return err
	}
	if name != "name" {
		return nil // unknown custom sections are ignored.
	}
	return d.decodeNameSection(r)
}

func (d *decoder) decodeNameSection(r *bytes.Reader) error {
	d.m.Names.FunctionNames = map[uint32]string{}
	for r.Len() > 0 {
		subID, err := r.ReadByte()
		if err != nil {
			return nil // best-effort: stop on any malformed subsection.
		}
		size, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil
		}
		body := make([]byte, size)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil
		}
		sr := bytes.NewReader(body)
		switch subID {
		case 0: // module name
			if n, err := readName(sr); err == nil {
				d.m.Names.ModuleName = n
			}
		case 1: // function names
			count, _, err := leb128.DecodeUint32(sr)
			if err != nil {
				continue
			}
			for i := uint32(0); i < count; i++ {
				idx, _, err := leb128.DecodeUint32(sr)
				if err != nil {
					break
				}
				n, err := readName(sr)
				if err != nil {
					break
				}
				d.m.Names.FunctionNames[idx] = n
			}
		}
	}
	return nil
}

func (d *decoder) decodeFunctionType(r *bytes.Reader) (wasm.FunctionType, error) {
	tag, err := r.ReadByte()
	if err != nil || tag != 0x60 {
		return wasm.FunctionType{}, &wasm.MalformedSectionError{Section: wasm.SectionIDType, Reason: "bad function type tag"}
	}
	pc, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return wasm.FunctionType{}, err
	}
	params := make([]wasm.ValueType, pc)
	for i := range params {
		if params[i], err = readValueType(r); err != nil {
			return wasm.FunctionType{}, err
		}
	}
	rc, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return wasm.FunctionType{}, err
	}
	results := make([]wasm.ValueType, rc)
	for i := range results {
		if results[i], err = readValueType(r); err != nil {
			return wasm.FunctionType{}, err
		}
	}
	return wasm.FunctionType{Params: params, Results: results}, nil
}

func (d *decoder) decodeTypeSection(r *bytes.Reader) error {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		ft, err := d.decodeFunctionType(r)
		if err != nil {
			return err
		}
		d.m.Types = append(d.m.Types, ft)
	}
	return nil
}

func (d *decoder) decodeLimits(r *bytes.Reader) (min uint32, max *uint32, err error) {
	flag, err := r.ReadByte()
	if err != nil {
		return 0, nil, err
	}
	min, _, err = leb128.DecodeUint32(r)
	if err != nil {
		return 0, nil, err
	}
	if flag == 1 {
		mx, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return 0, nil, err
		}
		max = &mx
	}
	return min, max, nil
}

func (d *decoder) decodeImportSection(r *bytes.Reader) error {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return err
	}
	type key struct{ mod, name string }
	seen := map[key]uint32{}
	for i := uint32(0); i < count; i++ {
		mod, err := readName(r)
		if err != nil {
			return err
		}
		name, err := readName(r)
		if err != nil {
			return err
		}
		if err := checkReservedName(mod); err != nil {
			return err
		}
		if err := checkReservedName(name); err != nil {
			return err
		}
		kindByte, err := r.ReadByte()
		if err != nil {
			return err
		}
		imp := wasm.Import{Module: mod, Name: name}
		switch kindByte {
		case 0x00:
			imp.Kind = wasm.ExternKindFunc
			idx, _, err := leb128.DecodeUint32(r)
			if err != nil {
				return err
			}
			imp.TypeIndex = idx
			d.m.NumImportedFunc++
		case 0x01:
			imp.Kind = wasm.ExternKindTable
			if _, err := r.ReadByte(); err != nil { // elemtype (funcref only)
				return err
			}
			min, max, err := d.decodeLimits(r)
			if err != nil {
				return err
			}
			imp.Table = &wasm.Table{Minimum: min, Maximum: max}
		case 0x02:
			imp.Kind = wasm.ExternKindMemory
			min, max, err := d.decodeLimits(r)
			if err != nil {
				return err
			}
			imp.Memory = &wasm.Memory{Minimum: min, Maximum: max}
		case 0x03:
			imp.Kind = wasm.ExternKindGlobal
			vt, err := readValueType(r)
			if err != nil {
				return err
			}
			mutByte, err := r.ReadByte()
			if err != nil {
				return err
			}
			imp.GlobalType = &wasm.GlobalType{ValType: vt, Mutable: mutByte == 1}
		default:
			return &wasm.MalformedSectionError{Section: wasm.SectionIDImport, Reason: "unknown import kind"}
		}

		k := key{mod, name}
		if prevIdx, ok := seen[k]; ok {
			if !importsConsistent(d.m.Imports[prevIdx], imp) {
				return &wasm.DuplicateInconsistentImportError{Module: mod, Name: name}
			}
		} else {
			seen[k] = uint32(len(d.m.Imports))
		}
		d.m.Imports = append(d.m.Imports, imp)
	}
	return nil
}

func importsConsistent(a, b wasm.Import) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case wasm.ExternKindFunc:
		return a.TypeIndex == b.TypeIndex
	default:
		return true
	}
}

func checkReservedName(name string) error {
	if len(name) >= len(ReservedPrefix) && name[:len(ReservedPrefix)] == ReservedPrefix {
		return &wasm.ReservedNameError{Name: name}
	}
	return nil
}

func (d *decoder) decodeFunctionSection(r *bytes.Reader) error {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return err
	}
	if count > maxFunctions {
		return &wasm.LimitExceededError{What: "functions", Value: uint64(count), Max: maxFunctions}
	}
	for i := uint32(0); i < count; i++ {
		idx, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return err
		}
		d.m.FunctionTypeIndexes = append(d.m.FunctionTypeIndexes, idx)
	}
	return nil
}

func (d *decoder) decodeTableSection(r *bytes.Reader) error {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return err
	}
	if count > maxTables {
		return &wasm.LimitExceededError{What: "tables", Value: uint64(count), Max: maxTables}
	}
	// The entry ceiling is module-wide, summed over every declared table
	// (imported ones included), not per table.
	var totalEntries uint64
	for i := range d.m.Imports {
		if t := d.m.Imports[i].Table; t != nil {
			totalEntries += uint64(t.Minimum)
		}
	}
	for _, t := range d.m.Tables {
		totalEntries += uint64(t.Minimum)
	}
	for i := uint32(0); i < count; i++ {
		elemType, err := r.ReadByte()
		if err != nil {
			return err
		}
		if elemType != 0x70 {
			return &wasm.FeatureUnsupportedError{Kind: "reference-types"}
		}
		min, max, err := d.decodeLimits(r)
		if err != nil {
			return err
		}
		totalEntries += uint64(min)
		if totalEntries > maxTableEntries {
			return &wasm.LimitExceededError{What: "table entries", Value: totalEntries, Max: maxTableEntries}
		}
		d.m.Tables = append(d.m.Tables, wasm.Table{Minimum: min, Maximum: max})
	}
	return nil
}

func (d *decoder) decodeMemorySection(r *bytes.Reader, limits Limits) error {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return err
	}
	if uint64(count)+uint64(numImportedMemories(d.m)) > maxMemories {
		return &wasm.LimitExceededError{What: "memories", Value: uint64(count), Max: maxMemories}
	}
	for i := uint32(0); i < count; i++ {
		min, max, err := d.decodeLimits(r)
		if err != nil {
			return err
		}
		if min > limits.PageLimit {
			return &wasm.MemoryTooLargeError{Initial: min, Limit: limits.PageLimit}
		}
		d.m.Memories = append(d.m.Memories, wasm.Memory{Minimum: min, Maximum: max})
	}
	return nil
}

func (d *decoder) decodeConstExpr(r *bytes.Reader) (wasm.ConstExpr, error) {
	opByte, err := r.ReadByte()
	if err != nil {
		return wasm.ConstExpr{}, err
	}
	var buf bytes.Buffer
	switch wasm.Opcode(opByte) {
	case wasm.OpI32Const:
		_, n, err := leb128.DecodeInt32(r)
		if err != nil {
			return wasm.ConstExpr{}, err
		}
		buf.Write(mustPeekBack(r, int(n)))
	case wasm.OpI64Const:
		_, n, err := leb128.DecodeInt64(r)
		if err != nil {
			return wasm.ConstExpr{}, err
		}
		buf.Write(mustPeekBack(r, int(n)))
	case wasm.OpF32Const:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return wasm.ConstExpr{}, err
		}
		buf.Write(b[:])
	case wasm.OpF64Const:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return wasm.ConstExpr{}, err
		}
		buf.Write(b[:])
	default:
		return wasm.ConstExpr{}, &wasm.NonConstantInitializerError{}
	}
	endByte, err := r.ReadByte()
	if err != nil || wasm.Opcode(endByte) != wasm.OpEnd {
		return wasm.ConstExpr{}, &wasm.NonConstantInitializerError{}
	}
	return wasm.ConstExpr{Opcode: wasm.Opcode(opByte), Data: buf.Bytes()}, nil
}

// mustPeekBack re-reads the n bytes of LEB128 payload just consumed
// from r so ConstExpr can retain the raw encoding without a second
// decode pass at evaluation time.
func mustPeekBack(r *bytes.Reader, n int) []byte {
	pos, _ := r.Seek(0, io.SeekCurrent)
	start := pos - int64(n)
	out := make([]byte, n)
	r.ReadAt(out, start)
	return out
}

func (d *decoder) decodeGlobalSection(r *bytes.Reader) error {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return err
	}
	if uint64(count)+uint64(len(d.m.Globals)) > maxGlobals {
		return &wasm.LimitExceededError{What: "globals", Value: uint64(count), Max: maxGlobals}
	}
	for i := uint32(0); i < count; i++ {
		vt, err := readValueType(r)
		if err != nil {
			return err
		}
		mutByte, err := r.ReadByte()
		if err != nil {
			return err
		}
		init, err := d.decodeConstExpr(r)
		if err != nil {
			return err
		}
		d.m.Globals = append(d.m.Globals, wasm.Global{
			Type: wasm.GlobalType{ValType: vt, Mutable: mutByte == 1},
			Init: init,
		})
	}
	return nil
}

func (d *decoder) decodeExportSection(r *bytes.Reader) error {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return err
	}
	if count > maxExports {
		return &wasm.LimitExceededError{What: "exports", Value: uint64(count), Max: maxExports}
	}
	seen := map[string]bool{}
	for i := uint32(0); i < count; i++ {
		name, err := readName(r)
		if err != nil {
			return err
		}
		if err := checkReservedName(name); err != nil {
			return err
		}
		if seen[name] {
			return &wasm.MalformedSectionError{Section: wasm.SectionIDExport, Reason: "duplicate export name " + name}
		}
		seen[name] = true
		kindByte, err := r.ReadByte()
		if err != nil {
			return err
		}
		idx, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return err
		}
		d.m.Exports = append(d.m.Exports, wasm.Export{
			Name:  name,
			Kind:  wasm.ExternKind(kindByte),
			Index: idx,
		})
	}
	return nil
}

func (d *decoder) decodeElementSection(r *bytes.Reader) error {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return err
	}
	if count > maxElemSegments {
		return &wasm.LimitExceededError{What: "element segments", Value: uint64(count), Max: maxElemSegments}
	}
	for i := uint32(0); i < count; i++ {
		tableIdx, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return err
		}
		offset, err := d.decodeConstExpr(r)
		if err != nil {
			return err
		}
		n, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return err
		}
		init := make([]uint32, n)
		for j := range init {
			if init[j], _, err = leb128.DecodeUint32(r); err != nil {
				return err
			}
		}
		d.m.ElementSegments = append(d.m.ElementSegments, wasm.ElementSegment{
			TableIndex: tableIdx,
			Offset:     offset,
			Init:       init,
		})
	}
	return nil
}

func (d *decoder) decodeDataSection(r *bytes.Reader) error {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return err
	}
	if count > maxDataSegments {
		return &wasm.LimitExceededError{What: "data segments", Value: uint64(count), Max: maxDataSegments}
	}
	for i := uint32(0); i < count; i++ {
		memIdx, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return err
		}
		offset, err := d.decodeConstExpr(r)
		if err != nil {
			return err
		}
		n, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return err
		}
		init := make([]byte, n)
		if _, err := io.ReadFull(r, init); err != nil {
			return err
		}
		d.m.DataSegments = append(d.m.DataSegments, wasm.DataSegment{
			MemoryIndex: memIdx,
			Offset:      offset,
			Init:        init,
		})
	}
	return nil
}

func (d *decoder) decodeCodeSection(r *bytes.Reader) error {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		size, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return err
		}
		body := make([]byte, size)
		if _, err := io.ReadFull(r, body); err != nil {
			return err
		}
		code, err := decodeFunctionBody(bytes.NewReader(body))
		if err != nil {
			return err
		}
		d.m.Code = append(d.m.Code, code)
	}
	return nil
}
