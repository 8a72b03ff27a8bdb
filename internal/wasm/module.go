// Package wasm holds the structural representation of a parsed WASM
// module and the vocabulary of operators understood by the engine.
package wasm

// ValueType is a WASM value type.
type ValueType byte

const (
	ValueTypeI32 ValueType = 0x7f
	ValueTypeI64 ValueType = 0x7e
	ValueTypeF32 ValueType = 0x7d
	ValueTypeF64 ValueType = 0x7c
)

func (v ValueType) String() string {
	switch v {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	default:
		return "unknown"
	}
}

// Size returns the number of bytes a value of this type occupies.
func (v ValueType) Size() uint32 {
	switch v {
	case ValueTypeI32, ValueTypeF32:
		return 4
	case ValueTypeI64, ValueTypeF64:
		return 8
	default:
		return 0
	}
}

// ExternKind classifies an import or export.
type ExternKind byte

const (
	ExternKindFunc ExternKind = iota
	ExternKindTable
	ExternKindMemory
	ExternKindGlobal
)

func (k ExternKind) String() string {
	switch k {
	case ExternKindFunc:
		return "func"
	case ExternKindTable:
		return "table"
	case ExternKindMemory:
		return "memory"
	case ExternKindGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// SectionID identifies a WASM binary section.
type SectionID byte

const (
	SectionIDCustom SectionID = iota
	SectionIDType
	SectionIDImport
	SectionIDFunction
	SectionIDTable
	SectionIDMemory
	SectionIDGlobal
	SectionIDExport
	SectionIDStart
	SectionIDElement
	SectionIDCode
	SectionIDData
)

func (s SectionID) String() string {
	names := [...]string{
		"custom", "type", "import", "function", "table", "memory",
		"global", "export", "start", "element", "code", "data",
	}
	if int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

// FunctionType is a function signature: a list of parameter and result
// value types.
type FunctionType struct {
	Params  []ValueType
	Results []ValueType
}

// String renders a compact signature, e.g. "i32i64_f64" for
// (i32, i64) -> (f64), matching the teacher lineage's debug format.
func (t *FunctionType) String() string {
	b := make([]byte, 0, 16)
	for _, p := range t.Params {
		b = append(b, p.String()...)
	}
	b = append(b, '_')
	if len(t.Results) == 0 {
		b = append(b, "null"...)
	}
	for _, r := range t.Results {
		b = append(b, r.String()...)
	}
	return string(b)
}

// Import describes one imported function, table, memory, or global.
type Import struct {
	Module     string
	Name       string
	Kind       ExternKind
	TypeIndex  uint32 // valid when Kind == ExternKindFunc
	Table      *Table
	Memory     *Memory
	GlobalType *GlobalType
}

// Export maps a name to an index within the kind's index space.
type Export struct {
	Name  string
	Kind  ExternKind
	Index uint32
}

// GlobalType describes a global's value type and mutability.
type GlobalType struct {
	ValType ValueType
	Mutable bool
}

// ConstExpr is a constant initializer: exactly one of i32/i64/f32/f64
// const. global.get initializers are outside the supported subset and
// are rejected at parse time.
type ConstExpr struct {
	Opcode Opcode
	// Data holds the LEB128/IEEE754 payload bytes immediately following
	// the opcode, not including the trailing `end`.
	Data []byte
}

// Global is a module-defined global.
type Global struct {
	Type GlobalType
	Init ConstExpr
}

// Table is a table section entry. Only funcref tables with no
// TableGrow/TableInit support are modeled, matching the feature
// subset.
type Table struct {
	Minimum uint32
	Maximum *uint32
}

// Memory is a memory section entry.
type Memory struct {
	Minimum uint32
	Maximum *uint32
}

// Local is a run of locals of one type within a function body, as
// encoded on the wire (count, type) rather than expanded per-slot.
type Local struct {
	Count uint32
	Type  ValueType
}

// Code is the locally-defined body of one function.
type Code struct {
	Locals []Local
	Body   []Operator
}

// NumLocals returns the total number of local variable slots declared
// by Locals (not counting parameters).
func (c *Code) NumLocals() uint32 {
	var n uint32
	for _, l := range c.Locals {
		n += l.Count
	}
	return n
}

// ElementSegment initializes a range of a table with function indices.
type ElementSegment struct {
	TableIndex uint32
	Offset     ConstExpr
	Init       []uint32
}

// DataSegment initializes a range of linear memory with bytes.
type DataSegment struct {
	MemoryIndex uint32
	Offset      ConstExpr
	Init        []byte
}

// NameSection holds the best-effort debug names recorded in the
// module's custom "name" section.
type NameSection struct {
	ModuleName    string
	FunctionNames map[uint32]string
}

// Module is the structural, in-memory representation of a decoded WASM
// binary. It is built exclusively by the parser (internal/wasm/binary)
// and mutated exclusively by the middleware pipeline
// (internal/middleware); once handed to the linker it is treated as
// immutable.
type Module struct {
	Types           []FunctionType
	Imports         []Import
	NumImportedFunc uint32

	// FunctionTypeIndexes are the signature indexes of every
	// locally-defined function, in declaration order.
	FunctionTypeIndexes []uint32
	Code                []Code

	Tables   []Table
	Memories []Memory
	Globals  []Global

	Exports []Export

	ElementSegments []ElementSegment
	DataSegments    []DataSegment

	// StartFunction is the index of the module's start function, or nil
	// if none was declared. The parser (C1) rejects any input module
	// that sets this; the start-relocation middleware pass (C2 §4.2.5)
	// is the only component permitted to populate it internally before
	// immediately consuming it.
	StartFunction *uint32

	Names NameSection
}

// FunctionCount returns the number of functions in the combined
// imported+local function index space.
func (m *Module) FunctionCount() uint32 {
	return m.NumImportedFunc + uint32(len(m.Code))
}

// TypeOfFunction returns the signature of the function at the given
// index in the combined function index space.
func (m *Module) TypeOfFunction(index uint32) *FunctionType {
	if index < m.NumImportedFunc {
		for i := range m.Imports {
			imp := &m.Imports[i]
			if imp.Kind != ExternKindFunc {
				continue
			}
			if index == 0 {
				return &m.Types[imp.TypeIndex]
			}
			index--
		}
		return nil
	}
	localIdx := index - m.NumImportedFunc
	if int(localIdx) >= len(m.FunctionTypeIndexes) {
		return nil
	}
	return &m.Types[m.FunctionTypeIndexes[localIdx]]
}

// ExportByName returns the export with the given name, if any.
func (m *Module) ExportByName(name string) (*Export, bool) {
	for i := range m.Exports {
		if m.Exports[i].Name == name {
			return &m.Exports[i], true
		}
	}
	return nil, false
}

// AddGlobal appends a new module-defined global and an export for it,
// returning the global's index in the global index space. Used by the
// middleware pipeline to inject resource-state globals (C3).
func (m *Module) AddGlobal(exportName string, valType ValueType, init ConstExpr) uint32 {
	idx := uint32(len(m.Globals))
	m.Globals = append(m.Globals, Global{
		Type: GlobalType{ValType: valType, Mutable: true},
		Init: init,
	})
	m.Exports = append(m.Exports, Export{
		Name:  exportName,
		Kind:  ExternKindGlobal,
		Index: m.numImportedGlobals() + idx,
	})
	return m.numImportedGlobals() + idx
}

func (m *Module) numImportedGlobals() uint32 {
	var n uint32
	for i := range m.Imports {
		if m.Imports[i].Kind == ExternKindGlobal {
			n++
		}
	}
	return n
}

// TableBytes computes the saturating byte footprint of all declared
// tables (each entry costed at 8 bytes, the maximum representable
// reference size in this engine's feature subset, since 128-bit
// references are unsupported and TableGrow is unsupported so Minimum
// is the table's permanent size).
func (m *Module) TableBytes() uint64 {
	var total uint64
	for _, t := range m.Tables {
		n := uint64(t.Minimum) * 8
		if n < uint64(t.Minimum) { // overflow
			return ^uint64(0)
		}
		sum := total + n
		if sum < total { // saturate
			return ^uint64(0)
		}
		total = sum
	}
	return total
}
