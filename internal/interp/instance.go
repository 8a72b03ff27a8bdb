package interp

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/inkvm/ink/hostapi"
	"github.com/inkvm/ink/internal/ink"
	"github.com/inkvm/ink/internal/leb128"
	"github.com/inkvm/ink/internal/wasm"
)

// status mirrors Instance lifecycle states (spec §4.4).
type status int

const (
	statusCreated status = iota
	statusInitialized
	statusRunning
	statusSuspended
	statusTerminated
	statusTrapped
)

// funcInstance is one entry of the combined imported+local function
// index space, resolved once at link time.
type funcInstance struct {
	typ       *wasm.FunctionType
	host      *hostapi.HostFunc // non-nil for an imported vm_hooks function
	codeIndex int               // valid when host == nil
}

// Instance is one linked, runnable activation of a CompiledModule. Its
// lifetime spans exactly one program invocation; the linker allocates a
// fresh Instance (fresh linear memory, fresh globals) per Link call,
// matching the spec's "no persistent process-global state" rule (§9).
type Instance struct {
	compiled *CompiledModule

	memory     []byte
	memoryMax  uint32 // pages; 0 means no declared memory
	table      []uint32
	globals    []uint64
	globalType []wasm.GlobalType
	globalName map[string]int
	funcs      []funcInstance

	status status

	inkLeftIdx, inkStatusIdx, stackLeftIdx int
	opcodeCounterIdx                        map[string]int

	hostCtx *hostapi.Context
}

const pageSize = 65536

// Link allocates and initializes an Instance for m: linear memory,
// tables, globals (running their const-expr initializers), data and
// element segments, and the vm_hooks import resolution. It does not run
// the guest's entrypoint; call Invoke for that (spec §4.4 Created ->
// Initialized transition).
func Link(compiled *CompiledModule, hostCtx *hostapi.Context) (*Instance, error) {
	m := compiled.Module

	in := &Instance{
		compiled:          compiled,
		globalName:        make(map[string]int),
		opcodeCounterIdx:  make(map[string]int),
		hostCtx:           hostCtx,
		inkLeftIdx:        -1,
		inkStatusIdx:      -1,
		stackLeftIdx:      -1,
	}

	if err := in.linkFunctions(m); err != nil {
		return nil, err
	}
	if err := in.linkMemory(m); err != nil {
		return nil, err
	}
	in.linkTable(m)
	if err := in.linkGlobals(m); err != nil {
		return nil, err
	}
	if err := in.linkElements(m); err != nil {
		return nil, err
	}
	if err := in.linkData(m); err != nil {
		return nil, err
	}
	in.resolveResourceGlobals(m)

	in.status = statusInitialized
	return in, nil
}

func (in *Instance) linkFunctions(m *wasm.Module) error {
	in.funcs = make([]funcInstance, m.FunctionCount())
	hostByName := make(map[string]*hostapi.HostFunc, len(hostapi.VMHooks))
	for i := range hostapi.VMHooks {
		hostByName[hostapi.VMHooks[i].Name] = &hostapi.VMHooks[i]
	}

	funcIdx := uint32(0)
	for i := range m.Imports {
		imp := &m.Imports[i]
		if imp.Kind != wasm.ExternKindFunc {
			continue
		}
		if imp.Module != "vm_hooks" {
			return fmt.Errorf("interp: unresolved import %s.%s", imp.Module, imp.Name)
		}
		hf, ok := hostByName[imp.Name]
		if !ok {
			return fmt.Errorf("interp: unknown vm_hooks function %q", imp.Name)
		}
		ft := &m.Types[imp.TypeIndex]
		if !hostSignatureMatches(ft, hf) {
			return fmt.Errorf("interp: vm_hooks.%s: import signature %s does not match the host's", imp.Name, ft.String())
		}
		in.funcs[funcIdx] = funcInstance{typ: ft, host: hf}
		funcIdx++
	}
	for i := range m.Code {
		in.funcs[funcIdx] = funcInstance{typ: m.TypeOfFunction(funcIdx), codeIndex: i}
		funcIdx++
	}
	return nil
}

func hostSignatureMatches(ft *wasm.FunctionType, hf *hostapi.HostFunc) bool {
	if len(ft.Params) != len(hf.Params) || len(ft.Results) != len(hf.Results) {
		return false
	}
	for i := range ft.Params {
		if byte(ft.Params[i]) != hf.Params[i] {
			return false
		}
	}
	for i := range ft.Results {
		if byte(ft.Results[i]) != hf.Results[i] {
			return false
		}
	}
	return true
}

func (in *Instance) linkMemory(m *wasm.Module) error {
	if len(m.Memories) == 0 {
		return nil
	}
	if len(m.Memories) > 1 {
		return fmt.Errorf("interp: multiple memories unsupported")
	}
	mem := m.Memories[0]
	in.memory = make([]byte, uint64(mem.Minimum)*pageSize)
	if mem.Maximum != nil {
		in.memoryMax = *mem.Maximum
	} else {
		in.memoryMax = mem.Minimum
	}
	return nil
}

func (in *Instance) linkTable(m *wasm.Module) {
	if len(m.Tables) == 0 {
		return
	}
	in.table = make([]uint32, m.Tables[0].Minimum)
	for i := range in.table {
		in.table[i] = ^uint32(0) // null funcref sentinel
	}
}

func (in *Instance) linkGlobals(m *wasm.Module) error {
	numImported := 0
	for i := range m.Imports {
		if m.Imports[i].Kind == wasm.ExternKindGlobal {
			numImported++
		}
	}
	if numImported > 0 {
		return fmt.Errorf("interp: imported globals unsupported")
	}
	in.globals = make([]uint64, len(m.Globals))
	in.globalType = make([]wasm.GlobalType, len(m.Globals))
	for i := range m.Globals {
		g := &m.Globals[i]
		in.globalType[i] = g.Type
		v, err := evalConstExpr(&g.Init)
		if err != nil {
			return fmt.Errorf("interp: global %d: %w", i, err)
		}
		in.globals[i] = v
	}
	for i := range m.Exports {
		e := &m.Exports[i]
		if e.Kind == wasm.ExternKindGlobal {
			in.globalName[e.Name] = int(e.Index)
		}
	}
	return nil
}

func (in *Instance) linkElements(m *wasm.Module) error {
	for i := range m.ElementSegments {
		seg := &m.ElementSegments[i]
		off, err := evalConstExpr(&seg.Offset)
		if err != nil {
			return fmt.Errorf("interp: element segment %d: %w", i, err)
		}
		base := uint32(off)
		if int(base)+len(seg.Init) > len(in.table) {
			return fmt.Errorf("interp: element segment %d out of table bounds", i)
		}
		copy(in.table[base:], seg.Init)
	}
	return nil
}

func (in *Instance) linkData(m *wasm.Module) error {
	for i := range m.DataSegments {
		seg := &m.DataSegments[i]
		off, err := evalConstExpr(&seg.Offset)
		if err != nil {
			return fmt.Errorf("interp: data segment %d: %w", i, err)
		}
		base := uint32(off)
		if int(base)+len(seg.Init) > len(in.memory) {
			return fmt.Errorf("interp: data segment %d out of memory bounds", i)
		}
		copy(in.memory[base:], seg.Init)
	}
	return nil
}

func (in *Instance) resolveResourceGlobals(m *wasm.Module) {
	if idx, ok := in.globalName["stylus_ink_left"]; ok {
		in.inkLeftIdx = idx
	}
	if idx, ok := in.globalName["stylus_ink_status"]; ok {
		in.inkStatusIdx = idx
	}
	if idx, ok := in.globalName["stylus_stack_left"]; ok {
		in.stackLeftIdx = idx
	}
	for name, idx := range in.globalName {
		if strings.HasPrefix(name, "stylus_opcode") && strings.HasSuffix(name, "_count") {
			in.opcodeCounterIdx[name] = idx
		}
	}
}

// evalConstExpr evaluates a global/element/data offset initializer.
// The feature subset admits only i32/i64/f32/f64 const (a global.get
// initializer is rejected by the decoder at parse time with
// NonConstantInitializerError).
func evalConstExpr(e *wasm.ConstExpr) (uint64, error) {
	r := bytes.NewReader(e.Data)
	switch e.Opcode {
	case wasm.OpI32Const:
		v, _, err := leb128.DecodeInt32(r)
		return uint64(uint32(v)), err
	case wasm.OpI64Const:
		v, _, err := leb128.DecodeInt64(r)
		return uint64(v), err
	case wasm.OpF32Const:
		if len(e.Data) < 4 {
			return 0, fmt.Errorf("f32 const: short payload")
		}
		return uint64(leUint32(e.Data)), nil
	case wasm.OpF64Const:
		if len(e.Data) < 8 {
			return 0, fmt.Errorf("f64 const: short payload")
		}
		return leUint64(e.Data), nil
	default:
		return 0, fmt.Errorf("unsupported const expr opcode 0x%x", byte(e.Opcode))
	}
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

// ink.State implementation, the shared contract with internal/ink and
// hostapi so neither package needs to import this one.

func (in *Instance) InkLeft() int64 {
	if in.inkLeftIdx < 0 {
		return 1<<63 - 1
	}
	return int64(in.globals[in.inkLeftIdx])
}

func (in *Instance) SetInkLeft(v int64) {
	if in.inkLeftIdx < 0 {
		return
	}
	in.globals[in.inkLeftIdx] = uint64(v)
}

func (in *Instance) InkStatus() int32 {
	if in.inkStatusIdx < 0 {
		return 0
	}
	return int32(uint32(in.globals[in.inkStatusIdx]))
}

func (in *Instance) SetInkStatus(v int32) {
	if in.inkStatusIdx < 0 {
		return
	}
	in.globals[in.inkStatusIdx] = uint64(uint32(v))
}

func (in *Instance) DepthLeft() int32 {
	if in.stackLeftIdx < 0 {
		return 1<<31 - 1
	}
	return int32(uint32(in.globals[in.stackLeftIdx]))
}

func (in *Instance) SetDepthLeft(v int32) {
	if in.stackLeftIdx < 0 {
		return
	}
	in.globals[in.stackLeftIdx] = uint64(uint32(v))
}

var _ ink.State = (*Instance)(nil)
