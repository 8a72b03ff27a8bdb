package binary

import "github.com/inkvm/ink/internal/wasm"

// EntrypointName is the required guest export the linker invokes
// (the only callable entrypoint the linker ever invokes).
const EntrypointName = "user_entrypoint"

// validateModule enforces the structural rules that span more than one
// section and so cannot be checked while a single section is still
// being decoded: index-range validity and the required entrypoint
// signature.
func validateModule(m *wasm.Module) error {
	if err := validateIndices(m); err != nil {
		return err
	}
	return validateEntrypoint(m)
}

func validateEntrypoint(m *wasm.Module) error {
	exp, ok := m.ExportByName(EntrypointName)
	if !ok || exp.Kind != wasm.ExternKindFunc {
		return &wasm.MissingEntrypointError{}
	}
	ft := m.TypeOfFunction(exp.Index)
	if ft == nil || !isI32ToI32(ft) {
		return &wasm.BadSignatureError{
			Name:     EntrypointName,
			Expected: "(i32) -> (i32)",
			Got:      signatureString(ft),
		}
	}
	return nil
}

func isI32ToI32(ft *wasm.FunctionType) bool {
	return len(ft.Params) == 1 && ft.Params[0] == wasm.ValueTypeI32 &&
		len(ft.Results) == 1 && ft.Results[0] == wasm.ValueTypeI32
}

func signatureString(ft *wasm.FunctionType) string {
	if ft == nil {
		return "<unknown>"
	}
	return ft.String()
}

// validateIndices checks that every type/function/table/memory/global
// index referenced anywhere in the module is within range.
func validateIndices(m *wasm.Module) error {
	numFuncs := m.FunctionCount()
	numTypes := uint32(len(m.Types))
	numTables := numImportedTables(m) + uint32(len(m.Tables))
	numMemories := numImportedMemories(m) + uint32(len(m.Memories))
	numGlobals := numImportedGlobalsPublic(m) + uint32(len(m.Globals))

	for _, imp := range m.Imports {
		if imp.Kind == wasm.ExternKindFunc && imp.TypeIndex >= numTypes {
			return &wasm.MalformedSectionError{Section: wasm.SectionIDImport, Reason: "type index out of range"}
		}
	}
	for i := range m.FunctionTypeIndexes {
		if m.FunctionTypeIndexes[i] >= numTypes {
			return &wasm.MalformedSectionError{Section: wasm.SectionIDFunction, Reason: "type index out of range"}
		}
	}
	for _, exp := range m.Exports {
		var max uint32
		switch exp.Kind {
		case wasm.ExternKindFunc:
			max = numFuncs
		case wasm.ExternKindTable:
			max = numTables
		case wasm.ExternKindMemory:
			max = numMemories
		case wasm.ExternKindGlobal:
			max = numGlobals
		}
		if exp.Index >= max {
			return &wasm.MalformedSectionError{Section: wasm.SectionIDExport, Reason: "export index out of range: " + exp.Name}
		}
	}
	for _, es := range m.ElementSegments {
		if es.TableIndex >= numTables {
			return &wasm.MalformedSectionError{Section: wasm.SectionIDElement, Reason: "table index out of range"}
		}
		for _, fi := range es.Init {
			if fi >= numFuncs {
				return &wasm.MalformedSectionError{Section: wasm.SectionIDElement, Reason: "function index out of range"}
			}
		}
	}
	for _, ds := range m.DataSegments {
		if ds.MemoryIndex >= numMemories {
			return &wasm.MalformedSectionError{Section: wasm.SectionIDData, Reason: "memory index out of range"}
		}
	}
	for _, code := range m.Code {
		if err := validateOperatorIndices(code.Body, numFuncs, numTypes, numTables, numGlobals); err != nil {
			return err
		}
	}
	return nil
}

func validateOperatorIndices(body []wasm.Operator, numFuncs, numTypes, numTables, numGlobals uint32) error {
	for _, op := range body {
		switch op.Opcode {
		case wasm.OpCall:
			if op.FuncIndex >= numFuncs {
				return &wasm.MalformedSectionError{Section: wasm.SectionIDCode, Reason: "call: function index out of range"}
			}
		case wasm.OpCallIndirect:
			if op.TypeIndex >= numTypes || op.TableIndex >= numTables {
				return &wasm.MalformedSectionError{Section: wasm.SectionIDCode, Reason: "call_indirect: index out of range"}
			}
		case wasm.OpGlobalGet, wasm.OpGlobalSet:
			if op.Index >= numGlobals {
				return &wasm.MalformedSectionError{Section: wasm.SectionIDCode, Reason: "global index out of range"}
			}
		case wasm.OpBlock, wasm.OpLoop, wasm.OpIf:
			if op.Block == wasm.BlockTypeFuncType && op.TypeIndex >= numTypes {
				return &wasm.MalformedSectionError{Section: wasm.SectionIDCode, Reason: "block type index out of range"}
			}
		}
	}
	return nil
}

func numImportedTables(m *wasm.Module) uint32 {
	var n uint32
	for _, imp := range m.Imports {
		if imp.Kind == wasm.ExternKindTable {
			n++
		}
	}
	return n
}

func numImportedMemories(m *wasm.Module) uint32 {
	var n uint32
	for _, imp := range m.Imports {
		if imp.Kind == wasm.ExternKindMemory {
			n++
		}
	}
	return n
}

func numImportedGlobalsPublic(m *wasm.Module) uint32 {
	var n uint32
	for _, imp := range m.Imports {
		if imp.Kind == wasm.ExternKindGlobal {
			n++
		}
	}
	return n
}
