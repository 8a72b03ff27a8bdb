package interp

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/inkvm/ink/hostapi"
	"github.com/inkvm/ink/internal/moremath"
	"github.com/inkvm/ink/internal/wasm"
)

// trapError is a normal, expected termination of an activation: a guest
// program hit `unreachable`, an out-of-bounds memory access, an integer
// divide by zero, or similar (spec §7 tier "Failure"). It is distinct
// from an *hostapi.Escape, which is a fatal host-side fault.
type trapError struct{ reason string }

func (t *trapError) Error() string { return t.reason }

func trap(format string, args ...interface{}) *trapError {
	return &trapError{reason: fmt.Sprintf(format, args...)}
}

const (
	blockKindBlock = iota
	blockKindLoop
	blockKindIf
)

type controlFrame struct {
	kind      int
	startPC   int
	endPC     int
	stackBase int
	arity     int
}

// Invoke calls the exported function funcIdx with args, returning its
// results or a *trapError / *hostapi.Escape on abnormal termination.
// Callers outside this package go through runtime.go's Invoke, which
// wraps this in outcome classification.
func (in *Instance) Invoke(funcIdx uint32, args []uint64) (results []uint64, err error) {
	in.status = statusRunning
	defer func() {
		if err == nil {
			in.status = statusSuspended
		}
	}()
	return in.callFunction(funcIdx, args)
}

func (in *Instance) callFunction(funcIdx uint32, args []uint64) ([]uint64, error) {
	if int(funcIdx) >= len(in.funcs) {
		return nil, trap("call to undefined function %d", funcIdx)
	}
	fn := &in.funcs[funcIdx]

	if fn.host != nil {
		return in.callHost(fn, args)
	}

	// Call-depth exhaustion is enforced by the entry guard the depth
	// middleware already spliced into every function body (global.get
	// stylus_stack_left; underflow check; unreachable), not by this
	// executor — there is nothing left for callFunction itself to check.
	code := &in.compiled.Module.Code[fn.codeIndex]
	numLocals := len(fn.typ.Params) + int(code.NumLocals())
	locals := make([]uint64, numLocals)
	copy(locals, args)

	stack := make([]uint64, 0, 32)
	stack, err := in.run(code, fn.codeIndex, locals, stack)
	if err != nil {
		return nil, err
	}
	nres := len(fn.typ.Results)
	if len(stack) < nres {
		return nil, trap("function %d: stack underflow at return", funcIdx)
	}
	return stack[len(stack)-nres:], nil
}

func (in *Instance) callHost(fn *funcInstance, args []uint64) ([]uint64, error) {
	nres := len(fn.typ.Results)
	// The shared stack must have room for whichever of params/results is
	// wider: a no-arg hook still writes its result at stack[0].
	width := len(args)
	if nres > width {
		width = nres
	}
	stack := make([]uint64, width)
	copy(stack, args)
	if err := fn.host.Invoke(in.hostCtx, stack); err != nil {
		if esc, ok := err.(*hostapi.Escape); ok {
			return nil, esc
		}
		return nil, trap("%s: %v", fn.host.Name, err)
	}
	if nres == 0 {
		return nil, nil
	}
	return stack[:nres], nil
}

// run interprets one function activation's operator stream, starting
// with an empty operand stack and the given locals, returning the final
// operand stack (whose top nres values are the function's results).
func (in *Instance) run(code *wasm.Code, codeIdx int, locals []uint64, stack []uint64) ([]uint64, error) {
	body := code.Body
	jt := in.compiled.jumps[codeIdx]
	var controls []controlFrame
	pc := 0

	for pc < len(body) {
		op := &body[pc]
		switch {
		case op.Opcode == wasm.OpUnreachable:
			return nil, trap("unreachable")

		case op.Opcode == wasm.OpNop:
			pc++

		case op.Opcode == wasm.OpBlock:
			ar := resolveBlockArity(in.compiled.Module, op)
			controls = append(controls, controlFrame{kind: blockKindBlock, startPC: pc, endPC: jt.matchEnd[pc], stackBase: len(stack) - ar.params, arity: ar.results})
			pc++

		case op.Opcode == wasm.OpLoop:
			ar := resolveBlockArity(in.compiled.Module, op)
			controls = append(controls, controlFrame{kind: blockKindLoop, startPC: pc, endPC: jt.matchEnd[pc], stackBase: len(stack) - ar.params, arity: ar.params})
			pc++

		case op.Opcode == wasm.OpIf:
			cond := pop(&stack)
			ar := resolveBlockArity(in.compiled.Module, op)
			cf := controlFrame{kind: blockKindIf, startPC: pc, endPC: jt.matchEnd[pc], stackBase: len(stack) - ar.params, arity: ar.results}
			if cond != 0 {
				controls = append(controls, cf)
				pc++
			} else if jt.matchElse[pc] >= 0 {
				controls = append(controls, cf)
				pc = jt.matchElse[pc] + 1
			} else {
				pc = jt.matchEnd[pc] + 1
			}

		case op.Opcode == wasm.OpElse:
			cf := controls[len(controls)-1]
			controls = controls[:len(controls)-1]
			pc = jt.matchEnd[cf.startPC] + 1

		case op.Opcode == wasm.OpEnd:
			if len(controls) == 0 {
				pc = len(body)
				continue
			}
			controls = controls[:len(controls)-1]
			pc++

		case op.Opcode == wasm.OpBr:
			var target int
			controls, stack, target = in.branchTo(controls, stack, op.Index)
			pc = target

		case op.Opcode == wasm.OpBrIf:
			cond := pop(&stack)
			if cond != 0 {
				var target int
				controls, stack, target = in.branchTo(controls, stack, op.Index)
				pc = target
			} else {
				pc++
			}

		case op.Opcode == wasm.OpBrTable:
			idx := uint32(pop(&stack))
			depth := op.Default
			if idx < uint32(len(op.Targets)) {
				depth = op.Targets[idx]
			}
			var target int
			controls, stack, target = in.branchTo(controls, stack, depth)
			pc = target

		case op.Opcode == wasm.OpReturn:
			pc = len(body)

		case op.Opcode == wasm.OpCall:
			results, err := in.callFunction(op.FuncIndex, argsFor(in, op.FuncIndex, &stack))
			if err != nil {
				return nil, err
			}
			stack = append(stack, results...)
			pc++

		case op.Opcode == wasm.OpCallIndirect:
			tableIdx := pop(&stack)
			if int(tableIdx) >= len(in.table) {
				return nil, trap("undefined element %d", tableIdx)
			}
			funcIdx := in.table[tableIdx]
			if funcIdx == ^uint32(0) {
				return nil, trap("uninitialized element %d", tableIdx)
			}
			expected := &in.compiled.Module.Types[op.TypeIndex]
			actual := in.funcs[funcIdx].typ
			if !sameSignature(expected, actual) {
				return nil, trap("indirect call type mismatch")
			}
			results, err := in.callFunction(funcIdx, argsFor(in, funcIdx, &stack))
			if err != nil {
				return nil, err
			}
			stack = append(stack, results...)
			pc++

		case op.Opcode == wasm.OpDrop:
			pop(&stack)
			pc++

		case op.Opcode == wasm.OpSelect:
			cond := pop(&stack)
			b := pop(&stack)
			a := pop(&stack)
			if cond != 0 {
				stack = append(stack, a)
			} else {
				stack = append(stack, b)
			}
			pc++

		case op.Opcode == wasm.OpLocalGet:
			stack = append(stack, locals[op.Index])
			pc++
		case op.Opcode == wasm.OpLocalSet:
			locals[op.Index] = pop(&stack)
			pc++
		case op.Opcode == wasm.OpLocalTee:
			locals[op.Index] = stack[len(stack)-1]
			pc++

		case op.Opcode == wasm.OpGlobalGet:
			stack = append(stack, in.globals[op.Index])
			pc++
		case op.Opcode == wasm.OpGlobalSet:
			in.globals[op.Index] = pop(&stack)
			pc++

		case op.Opcode == wasm.OpI32Const:
			stack = append(stack, uint64(uint32(op.I32)))
			pc++
		case op.Opcode == wasm.OpI64Const:
			stack = append(stack, uint64(op.I64))
			pc++
		case op.Opcode == wasm.OpF32Const:
			stack = append(stack, uint64(op.F32))
			pc++
		case op.Opcode == wasm.OpF64Const:
			stack = append(stack, op.F64)
			pc++

		case op.Opcode == wasm.OpMemorySize:
			stack = append(stack, uint64(uint32(len(in.memory)/pageSize)))
			pc++
		case op.Opcode == wasm.OpMemoryGrow:
			delta := uint32(pop(&stack))
			prev, ok := in.growMemory(delta)
			if !ok {
				stack = append(stack, uint64(uint32(0xffffffff)))
			} else {
				stack = append(stack, uint64(prev))
			}
			pc++

		case isLoadOp(op.Opcode):
			v, err := in.execLoad(op, &stack)
			if err != nil {
				return nil, err
			}
			stack = append(stack, v)
			pc++

		case isStoreOp(op.Opcode):
			if err := in.execStore(op, &stack); err != nil {
				return nil, err
			}
			pc++

		case op.Opcode == wasm.OpMemoryFill:
			n := uint32(pop(&stack))
			val := byte(pop(&stack))
			dst := uint32(pop(&stack))
			if !in.memFill(dst, val, n) {
				return nil, trap("out of bounds memory.fill")
			}
			pc++

		case op.Opcode == wasm.OpMemoryCopy:
			n := uint32(pop(&stack))
			src := uint32(pop(&stack))
			dst := uint32(pop(&stack))
			if !in.memCopy(dst, src, n) {
				return nil, trap("out of bounds memory.copy")
			}
			pc++

		default:
			v, err := in.execNumeric(op.Opcode, &stack)
			if err != nil {
				return nil, err
			}
			_ = v
			pc++
		}
	}
	return stack, nil
}

// argsFor pops a callee's parameter count off stack in argument order.
func argsFor(in *Instance, funcIdx uint32, stack *[]uint64) []uint64 {
	n := len(in.funcs[funcIdx].typ.Params)
	s := *stack
	args := append([]uint64(nil), s[len(s)-n:]...)
	*stack = s[:len(s)-n]
	return args
}

func sameSignature(a, b *wasm.FunctionType) bool {
	if len(a.Params) != len(b.Params) || len(a.Results) != len(b.Results) {
		return false
	}
	for i := range a.Params {
		if a.Params[i] != b.Params[i] {
			return false
		}
	}
	for i := range a.Results {
		if a.Results[i] != b.Results[i] {
			return false
		}
	}
	return true
}

// branchTo resolves a branch of relative depth from the innermost
// control frame: it truncates the operand stack back to the target
// frame's entry height, preserving exactly the values the target label
// carries (its result arity for block/if, its parameter arity for a
// loop continue), and returns the control stack and pc to resume at.
func (in *Instance) branchTo(controls []controlFrame, stack []uint64, depth uint32) ([]controlFrame, []uint64, int) {
	idx := len(controls) - 1 - int(depth)
	cf := controls[idx]
	kept := append([]uint64(nil), stack[len(stack)-cf.arity:]...)
	newStack := append(append([]uint64{}, stack[:cf.stackBase]...), kept...)
	if cf.kind == blockKindLoop {
		return controls[:idx+1], newStack, cf.startPC + 1
	}
	return controls[:idx], newStack, cf.endPC + 1
}

func pop(stack *[]uint64) uint64 {
	s := *stack
	v := s[len(s)-1]
	*stack = s[:len(s)-1]
	return v
}

func isLoadOp(op wasm.Opcode) bool {
	return op >= wasm.OpI32Load && op <= wasm.OpI64Load32U
}

func isStoreOp(op wasm.Opcode) bool {
	return op >= wasm.OpI32Store && op <= wasm.OpI64Store32
}

func (in *Instance) effectiveAddr(op *wasm.Operator, stack *[]uint64) (uint32, bool) {
	base := uint32(pop(stack))
	addr := base + op.Offset
	return addr, addr >= base // overflow check
}

func (in *Instance) execLoad(op *wasm.Operator, stack *[]uint64) (uint64, error) {
	addr, ok := in.effectiveAddr(op, stack)
	if !ok {
		return 0, trap("out of bounds memory access")
	}
	read := func(n uint32) ([]byte, bool) {
		if uint64(addr)+uint64(n) > uint64(len(in.memory)) {
			return nil, false
		}
		return in.memory[addr : addr+n], true
	}
	switch op.Opcode {
	case wasm.OpI32Load:
		b, ok := read(4)
		if !ok {
			return 0, trap("out of bounds i32.load")
		}
		return uint64(leUint32(b)), nil
	case wasm.OpI64Load:
		b, ok := read(8)
		if !ok {
			return 0, trap("out of bounds i64.load")
		}
		return leUint64(b), nil
	case wasm.OpF32Load:
		b, ok := read(4)
		if !ok {
			return 0, trap("out of bounds f32.load")
		}
		return uint64(leUint32(b)), nil
	case wasm.OpF64Load:
		b, ok := read(8)
		if !ok {
			return 0, trap("out of bounds f64.load")
		}
		return leUint64(b), nil
	case wasm.OpI32Load8S:
		b, ok := read(1)
		if !ok {
			return 0, trap("out of bounds i32.load8_s")
		}
		return uint64(uint32(int32(int8(b[0])))), nil
	case wasm.OpI32Load8U:
		b, ok := read(1)
		if !ok {
			return 0, trap("out of bounds i32.load8_u")
		}
		return uint64(b[0]), nil
	case wasm.OpI32Load16S:
		b, ok := read(2)
		if !ok {
			return 0, trap("out of bounds i32.load16_s")
		}
		return uint64(uint32(int32(int16(uint16(b[0]) | uint16(b[1])<<8)))), nil
	case wasm.OpI32Load16U:
		b, ok := read(2)
		if !ok {
			return 0, trap("out of bounds i32.load16_u")
		}
		return uint64(uint16(b[0]) | uint16(b[1])<<8), nil
	case wasm.OpI64Load8S:
		b, ok := read(1)
		if !ok {
			return 0, trap("out of bounds i64.load8_s")
		}
		return uint64(int64(int8(b[0]))), nil
	case wasm.OpI64Load8U:
		b, ok := read(1)
		if !ok {
			return 0, trap("out of bounds i64.load8_u")
		}
		return uint64(b[0]), nil
	case wasm.OpI64Load16S:
		b, ok := read(2)
		if !ok {
			return 0, trap("out of bounds i64.load16_s")
		}
		return uint64(int64(int16(uint16(b[0]) | uint16(b[1])<<8))), nil
	case wasm.OpI64Load16U:
		b, ok := read(2)
		if !ok {
			return 0, trap("out of bounds i64.load16_u")
		}
		return uint64(uint16(b[0]) | uint16(b[1])<<8), nil
	case wasm.OpI64Load32S:
		b, ok := read(4)
		if !ok {
			return 0, trap("out of bounds i64.load32_s")
		}
		return uint64(int64(int32(leUint32(b)))), nil
	case wasm.OpI64Load32U:
		b, ok := read(4)
		if !ok {
			return 0, trap("out of bounds i64.load32_u")
		}
		return uint64(leUint32(b)), nil
	}
	return 0, trap("unimplemented load opcode 0x%x", byte(op.Opcode))
}

func (in *Instance) execStore(op *wasm.Operator, stack *[]uint64) error {
	var value uint64
	switch op.Opcode {
	case wasm.OpI32Store, wasm.OpI32Store8, wasm.OpI32Store16,
		wasm.OpI64Store, wasm.OpI64Store8, wasm.OpI64Store16, wasm.OpI64Store32,
		wasm.OpF32Store, wasm.OpF64Store:
		value = pop(stack)
	}
	addr, ok := in.effectiveAddr(op, stack)
	if !ok {
		return trap("out of bounds memory access")
	}
	write := func(b []byte) bool {
		if uint64(addr)+uint64(len(b)) > uint64(len(in.memory)) {
			return false
		}
		copy(in.memory[addr:], b)
		return true
	}
	switch op.Opcode {
	case wasm.OpI32Store, wasm.OpF32Store:
		if !write(le32(uint32(value))) {
			return trap("out of bounds i32/f32.store")
		}
	case wasm.OpI64Store, wasm.OpF64Store:
		if !write(le64(value)) {
			return trap("out of bounds i64/f64.store")
		}
	case wasm.OpI32Store8, wasm.OpI64Store8:
		if !write([]byte{byte(value)}) {
			return trap("out of bounds store8")
		}
	case wasm.OpI32Store16, wasm.OpI64Store16:
		if !write(le32(uint32(value))[:2]) {
			return trap("out of bounds store16")
		}
	case wasm.OpI64Store32:
		if !write(le32(uint32(value))) {
			return trap("out of bounds i64.store32")
		}
	default:
		return trap("unimplemented store opcode 0x%x", byte(op.Opcode))
	}
	return nil
}

func le32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func le64(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

func (in *Instance) growMemory(deltaPages uint32) (uint32, bool) {
	prevPages := uint32(len(in.memory) / pageSize)
	newPages := prevPages + deltaPages
	if newPages < prevPages || newPages > in.memoryMax {
		return 0, false
	}
	in.memory = append(in.memory, make([]byte, uint64(deltaPages)*pageSize)...)
	return prevPages, true
}

func (in *Instance) memFill(dst uint32, val byte, n uint32) bool {
	if uint64(dst)+uint64(n) > uint64(len(in.memory)) {
		return false
	}
	region := in.memory[dst : dst+n]
	for i := range region {
		region[i] = val
	}
	return true
}

func (in *Instance) memCopy(dst, src, n uint32) bool {
	if uint64(dst)+uint64(n) > uint64(len(in.memory)) || uint64(src)+uint64(n) > uint64(len(in.memory)) {
		return false
	}
	copy(in.memory[dst:dst+n], in.memory[src:src+n])
	return true
}

// execNumeric dispatches the comparison/arithmetic/conversion operators
// in the 0x45-0xc4 numeric span. The opcode values follow the WASM core
// spec's own numbering, consulted directly rather than through named
// constants (internal/wasm/arity.go classifies them by the same ranges
// for the static depth checker).
func (in *Instance) execNumeric(op wasm.Opcode, stack *[]uint64) (uint64, error) {
	switch op {
	// i32 comparisons
	case 0x45: // i32.eqz
		v := uint32(pop(stack))
		*stack = append(*stack, b2u(v == 0))
		return 0, nil
	case 0x46, 0x47, 0x48, 0x49, 0x4a, 0x4b, 0x4c, 0x4d, 0x4e, 0x4f:
		b := uint32(pop(stack))
		a := uint32(pop(stack))
		*stack = append(*stack, i32Compare(op, a, b))
		return 0, nil

	case 0x50: // i64.eqz
		v := pop(stack)
		*stack = append(*stack, b2u(v == 0))
		return 0, nil
	case 0x51, 0x52, 0x53, 0x54, 0x55, 0x56, 0x57, 0x58, 0x59, 0x5a:
		b := pop(stack)
		a := pop(stack)
		*stack = append(*stack, i64Compare(op, a, b))
		return 0, nil

	case 0x5b, 0x5c, 0x5d, 0x5e, 0x5f, 0x60:
		b := math.Float32frombits(uint32(pop(stack)))
		a := math.Float32frombits(uint32(pop(stack)))
		*stack = append(*stack, f32Compare(op, a, b))
		return 0, nil
	case 0x61, 0x62, 0x63, 0x64, 0x65, 0x66:
		b := math.Float64frombits(pop(stack))
		a := math.Float64frombits(pop(stack))
		*stack = append(*stack, f64Compare(op, a, b))
		return 0, nil

	case 0x67: // i32.clz
		v := uint32(pop(stack))
		*stack = append(*stack, uint64(bits.LeadingZeros32(v)))
		return 0, nil
	case 0x68: // i32.ctz
		v := uint32(pop(stack))
		*stack = append(*stack, uint64(bits.TrailingZeros32(v)))
		return 0, nil
	case 0x69: // i32.popcnt
		v := uint32(pop(stack))
		*stack = append(*stack, uint64(bits.OnesCount32(v)))
		return 0, nil

	case 0x6a, 0x6b, 0x6c, 0x6d, 0x6e, 0x6f, 0x70, 0x71, 0x72, 0x73, 0x74, 0x75, 0x76, 0x77, 0x78:
		b := uint32(pop(stack))
		a := uint32(pop(stack))
		v, err := i32Binary(op, a, b)
		if err != nil {
			return 0, err
		}
		*stack = append(*stack, uint64(v))
		return 0, nil

	case 0x79: // i64.clz
		v := pop(stack)
		*stack = append(*stack, uint64(bits.LeadingZeros64(v)))
		return 0, nil
	case 0x7a: // i64.ctz
		v := pop(stack)
		*stack = append(*stack, uint64(bits.TrailingZeros64(v)))
		return 0, nil
	case 0x7b: // i64.popcnt
		v := pop(stack)
		*stack = append(*stack, uint64(bits.OnesCount64(v)))
		return 0, nil

	case 0x7c, 0x7d, 0x7e, 0x7f, 0x80, 0x81, 0x82, 0x83, 0x84, 0x85, 0x86, 0x87, 0x88, 0x89, 0x8a:
		b := pop(stack)
		a := pop(stack)
		v, err := i64Binary(op, a, b)
		if err != nil {
			return 0, err
		}
		*stack = append(*stack, v)
		return 0, nil

	case 0x8b, 0x8c, 0x8d, 0x8e, 0x8f, 0x90, 0x91:
		a := math.Float32frombits(uint32(pop(stack)))
		*stack = append(*stack, uint64(math.Float32bits(f32Unary(op, a))))
		return 0, nil
	case 0x92, 0x93, 0x94, 0x95, 0x96, 0x97, 0x98:
		b := math.Float32frombits(uint32(pop(stack)))
		a := math.Float32frombits(uint32(pop(stack)))
		*stack = append(*stack, uint64(math.Float32bits(f32Binary(op, a, b))))
		return 0, nil

	case 0x99, 0x9a, 0x9b, 0x9c, 0x9d, 0x9e, 0x9f:
		a := math.Float64frombits(pop(stack))
		*stack = append(*stack, math.Float64bits(f64Unary(op, a)))
		return 0, nil
	case 0xa0, 0xa1, 0xa2, 0xa3, 0xa4, 0xa5, 0xa6:
		b := math.Float64frombits(pop(stack))
		a := math.Float64frombits(pop(stack))
		*stack = append(*stack, math.Float64bits(f64Binary(op, a, b)))
		return 0, nil

	case 0xa7: // i32.wrap_i64
		v := pop(stack)
		*stack = append(*stack, uint64(uint32(v)))
		return 0, nil

	case 0xa8, 0xa9, 0xaa, 0xab: // i32.trunc_f32_s/u, i32.trunc_f64_s/u
		v, err := truncToI32(op, stack)
		if err != nil {
			return 0, err
		}
		*stack = append(*stack, uint64(uint32(v)))
		return 0, nil

	case 0xac: // i64.extend_i32_s
		v := int32(uint32(pop(stack)))
		*stack = append(*stack, uint64(int64(v)))
		return 0, nil
	case 0xad: // i64.extend_i32_u
		v := uint32(pop(stack))
		*stack = append(*stack, uint64(v))
		return 0, nil

	case 0xae, 0xaf, 0xb0, 0xb1: // i64.trunc_f32_s/u, i64.trunc_f64_s/u
		v, err := truncToI64(op, stack)
		if err != nil {
			return 0, err
		}
		*stack = append(*stack, v)
		return 0, nil

	case 0xb2: // f32.convert_i32_s
		v := int32(uint32(pop(stack)))
		*stack = append(*stack, uint64(math.Float32bits(float32(v))))
		return 0, nil
	case 0xb3: // f32.convert_i32_u
		v := uint32(pop(stack))
		*stack = append(*stack, uint64(math.Float32bits(float32(v))))
		return 0, nil
	case 0xb4: // f32.convert_i64_s
		v := int64(pop(stack))
		*stack = append(*stack, uint64(math.Float32bits(float32(v))))
		return 0, nil
	case 0xb5: // f32.convert_i64_u
		v := pop(stack)
		*stack = append(*stack, uint64(math.Float32bits(float32(v))))
		return 0, nil
	case 0xb6: // f32.demote_f64
		v := math.Float64frombits(pop(stack))
		*stack = append(*stack, uint64(math.Float32bits(float32(v))))
		return 0, nil

	case 0xb7: // f64.convert_i32_s
		v := int32(uint32(pop(stack)))
		*stack = append(*stack, math.Float64bits(float64(v)))
		return 0, nil
	case 0xb8: // f64.convert_i32_u
		v := uint32(pop(stack))
		*stack = append(*stack, math.Float64bits(float64(v)))
		return 0, nil
	case 0xb9: // f64.convert_i64_s
		v := int64(pop(stack))
		*stack = append(*stack, math.Float64bits(float64(v)))
		return 0, nil
	case 0xba: // f64.convert_i64_u
		v := pop(stack)
		*stack = append(*stack, math.Float64bits(float64(v)))
		return 0, nil
	case 0xbb: // f64.promote_f32
		v := math.Float32frombits(uint32(pop(stack)))
		*stack = append(*stack, math.Float64bits(float64(v)))
		return 0, nil

	case 0xbc, 0xbd, 0xbe, 0xbf: // reinterpret; bit pattern is already the stack representation
		return 0, nil

	case 0xc0: // i32.extend8_s
		v := int8(uint8(pop(stack)))
		*stack = append(*stack, uint64(uint32(int32(v))))
		return 0, nil
	case 0xc1: // i32.extend16_s
		v := int16(uint16(pop(stack)))
		*stack = append(*stack, uint64(uint32(int32(v))))
		return 0, nil
	case 0xc2: // i64.extend8_s
		v := int8(uint8(pop(stack)))
		*stack = append(*stack, uint64(int64(v)))
		return 0, nil
	case 0xc3: // i64.extend16_s
		v := int16(uint16(pop(stack)))
		*stack = append(*stack, uint64(int64(v)))
		return 0, nil
	case 0xc4: // i64.extend32_s
		v := int32(uint32(pop(stack)))
		*stack = append(*stack, uint64(int64(v)))
		return 0, nil

	case wasm.OpI32TruncSatF32S, wasm.OpI32TruncSatF32U, wasm.OpI32TruncSatF64S, wasm.OpI32TruncSatF64U,
		wasm.OpI64TruncSatF32S, wasm.OpI64TruncSatF32U, wasm.OpI64TruncSatF64S, wasm.OpI64TruncSatF64U:
		*stack = append(*stack, truncSat(op, stack))
		return 0, nil
	}
	return 0, trap("unimplemented opcode 0x%x", uint16(op))
}

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func i32Compare(op wasm.Opcode, a, b uint32) uint64 {
	switch op {
	case 0x46:
		return b2u(a == b)
	case 0x47:
		return b2u(a != b)
	case 0x48:
		return b2u(int32(a) < int32(b))
	case 0x49:
		return b2u(a < b)
	case 0x4a:
		return b2u(int32(a) > int32(b))
	case 0x4b:
		return b2u(a > b)
	case 0x4c:
		return b2u(int32(a) <= int32(b))
	case 0x4d:
		return b2u(a <= b)
	case 0x4e:
		return b2u(int32(a) >= int32(b))
	case 0x4f:
		return b2u(a >= b)
	}
	return 0
}

func i64Compare(op wasm.Opcode, a, b uint64) uint64 {
	switch op {
	case 0x51:
		return b2u(a == b)
	case 0x52:
		return b2u(a != b)
	case 0x53:
		return b2u(int64(a) < int64(b))
	case 0x54:
		return b2u(a < b)
	case 0x55:
		return b2u(int64(a) > int64(b))
	case 0x56:
		return b2u(a > b)
	case 0x57:
		return b2u(int64(a) <= int64(b))
	case 0x58:
		return b2u(a <= b)
	case 0x59:
		return b2u(int64(a) >= int64(b))
	case 0x5a:
		return b2u(a >= b)
	}
	return 0
}

func f32Compare(op wasm.Opcode, a, b float32) uint64 {
	switch op {
	case 0x5b:
		return b2u(a == b)
	case 0x5c:
		return b2u(a != b)
	case 0x5d:
		return b2u(a < b)
	case 0x5e:
		return b2u(a > b)
	case 0x5f:
		return b2u(a <= b)
	case 0x60:
		return b2u(a >= b)
	}
	return 0
}

func f64Compare(op wasm.Opcode, a, b float64) uint64 {
	switch op {
	case 0x61:
		return b2u(a == b)
	case 0x62:
		return b2u(a != b)
	case 0x63:
		return b2u(a < b)
	case 0x64:
		return b2u(a > b)
	case 0x65:
		return b2u(a <= b)
	case 0x66:
		return b2u(a >= b)
	}
	return 0
}

func i32Binary(op wasm.Opcode, a, b uint32) (uint32, error) {
	switch op {
	case 0x6a:
		return a + b, nil
	case 0x6b:
		return a - b, nil
	case 0x6c:
		return a * b, nil
	case 0x6d:
		if b == 0 {
			return 0, trap("integer divide by zero")
		}
		if int32(a) == math.MinInt32 && int32(b) == -1 {
			return 0, trap("integer overflow")
		}
		return uint32(int32(a) / int32(b)), nil
	case 0x6e:
		if b == 0 {
			return 0, trap("integer divide by zero")
		}
		return a / b, nil
	case 0x6f:
		if b == 0 {
			return 0, trap("integer divide by zero")
		}
		if int32(a) == math.MinInt32 && int32(b) == -1 {
			return 0, nil
		}
		return uint32(int32(a) % int32(b)), nil
	case 0x70:
		if b == 0 {
			return 0, trap("integer divide by zero")
		}
		return a % b, nil
	case 0x71:
		return a & b, nil
	case 0x72:
		return a | b, nil
	case 0x73:
		return a ^ b, nil
	case 0x74:
		return a << (b & 31), nil
	case 0x75:
		return uint32(int32(a) >> (b & 31)), nil
	case 0x76:
		return a >> (b & 31), nil
	case 0x77:
		return bits.RotateLeft32(a, int(b&31)), nil
	case 0x78:
		return bits.RotateLeft32(a, -int(b&31)), nil
	}
	return 0, trap("unimplemented i32 binary opcode 0x%x", byte(op))
}

func i64Binary(op wasm.Opcode, a, b uint64) (uint64, error) {
	switch op {
	case 0x7c:
		return a + b, nil
	case 0x7d:
		return a - b, nil
	case 0x7e:
		return a * b, nil
	case 0x7f:
		if b == 0 {
			return 0, trap("integer divide by zero")
		}
		if int64(a) == math.MinInt64 && int64(b) == -1 {
			return 0, trap("integer overflow")
		}
		return uint64(int64(a) / int64(b)), nil
	case 0x80:
		if b == 0 {
			return 0, trap("integer divide by zero")
		}
		return a / b, nil
	case 0x81:
		if b == 0 {
			return 0, trap("integer divide by zero")
		}
		if int64(a) == math.MinInt64 && int64(b) == -1 {
			return 0, nil
		}
		return uint64(int64(a) % int64(b)), nil
	case 0x82:
		if b == 0 {
			return 0, trap("integer divide by zero")
		}
		return a % b, nil
	case 0x83:
		return a & b, nil
	case 0x84:
		return a | b, nil
	case 0x85:
		return a ^ b, nil
	case 0x86:
		return a << (b & 63), nil
	case 0x87:
		return uint64(int64(a) >> (b & 63)), nil
	case 0x88:
		return a >> (b & 63), nil
	case 0x89:
		return bits.RotateLeft64(a, int(b&63)), nil
	case 0x8a:
		return bits.RotateLeft64(a, -int(b&63)), nil
	}
	return 0, trap("unimplemented i64 binary opcode 0x%x", byte(op))
}

func f32Unary(op wasm.Opcode, a float32) float32 {
	switch op {
	case 0x8b:
		return float32(math.Abs(float64(a)))
	case 0x8c:
		return -a
	case 0x8d:
		return float32(math.Ceil(float64(a)))
	case 0x8e:
		return float32(math.Floor(float64(a)))
	case 0x8f:
		return float32(math.Trunc(float64(a)))
	case 0x90:
		return float32(math.RoundToEven(float64(a)))
	case 0x91:
		return float32(math.Sqrt(float64(a)))
	}
	return a
}

func f32Binary(op wasm.Opcode, a, b float32) float32 {
	switch op {
	case 0x92:
		return a + b
	case 0x93:
		return a - b
	case 0x94:
		return a * b
	case 0x95:
		return a / b
	case 0x96:
		return float32(moremath.WasmCompatMin(float64(a), float64(b)))
	case 0x97:
		return float32(moremath.WasmCompatMax(float64(a), float64(b)))
	case 0x98:
		return float32(math.Copysign(float64(a), float64(b)))
	}
	return a
}

func f64Unary(op wasm.Opcode, a float64) float64 {
	switch op {
	case 0x99:
		return math.Abs(a)
	case 0x9a:
		return -a
	case 0x9b:
		return math.Ceil(a)
	case 0x9c:
		return math.Floor(a)
	case 0x9d:
		return math.Trunc(a)
	case 0x9e:
		return math.RoundToEven(a)
	case 0x9f:
		return math.Sqrt(a)
	}
	return a
}

func f64Binary(op wasm.Opcode, a, b float64) float64 {
	switch op {
	case 0xa0:
		return a + b
	case 0xa1:
		return a - b
	case 0xa2:
		return a * b
	case 0xa3:
		return a / b
	case 0xa4:
		return moremath.WasmCompatMin(a, b)
	case 0xa5:
		return moremath.WasmCompatMax(a, b)
	case 0xa6:
		return math.Copysign(a, b)
	}
	return a
}

func truncToI32(op wasm.Opcode, stack *[]uint64) (int32, error) {
	switch op {
	case 0xa8:
		v := math.Float32frombits(uint32(pop(stack)))
		return truncF64ToI32(float64(v), true)
	case 0xa9:
		v := math.Float32frombits(uint32(pop(stack)))
		return truncF64ToI32(float64(v), false)
	case 0xaa:
		v := math.Float64frombits(pop(stack))
		return truncF64ToI32(v, true)
	case 0xab:
		v := math.Float64frombits(pop(stack))
		return truncF64ToI32(v, false)
	}
	return 0, trap("unreachable trunc opcode")
}

func truncF64ToI32(v float64, signed bool) (int32, error) {
	if math.IsNaN(v) {
		return 0, trap("invalid conversion to integer")
	}
	t := math.Trunc(v)
	if signed {
		if t < math.MinInt32 || t > math.MaxInt32 {
			return 0, trap("integer overflow")
		}
		return int32(t), nil
	}
	if t < 0 || t > math.MaxUint32 {
		return 0, trap("integer overflow")
	}
	return int32(uint32(t)), nil
}

func truncToI64(op wasm.Opcode, stack *[]uint64) (uint64, error) {
	switch op {
	case 0xae:
		v := math.Float32frombits(uint32(pop(stack)))
		return truncF64ToI64(float64(v), true)
	case 0xaf:
		v := math.Float32frombits(uint32(pop(stack)))
		return truncF64ToI64(float64(v), false)
	case 0xb0:
		v := math.Float64frombits(pop(stack))
		return truncF64ToI64(v, true)
	case 0xb1:
		v := math.Float64frombits(pop(stack))
		return truncF64ToI64(v, false)
	}
	return 0, trap("unreachable trunc opcode")
}

func truncF64ToI64(v float64, signed bool) (uint64, error) {
	if math.IsNaN(v) {
		return 0, trap("invalid conversion to integer")
	}
	t := math.Trunc(v)
	if signed {
		if t < math.MinInt64 || t >= math.MaxInt64 {
			return 0, trap("integer overflow")
		}
		return uint64(int64(t)), nil
	}
	if t < 0 || t >= math.MaxUint64 {
		return 0, trap("integer overflow")
	}
	return uint64(t), nil
}

// truncSat implements the eight saturating truncation opcodes (spec
// feature subset): out-of-range and NaN inputs clamp instead of trapping.
func truncSat(op wasm.Opcode, stack *[]uint64) uint64 {
	switch op {
	case wasm.OpI32TruncSatF32S:
		return uint64(uint32(satF64ToI32(float64(math.Float32frombits(uint32(pop(stack)))), true)))
	case wasm.OpI32TruncSatF32U:
		return uint64(uint32(satF64ToI32(float64(math.Float32frombits(uint32(pop(stack)))), false)))
	case wasm.OpI32TruncSatF64S:
		return uint64(uint32(satF64ToI32(math.Float64frombits(pop(stack)), true)))
	case wasm.OpI32TruncSatF64U:
		return uint64(uint32(satF64ToI32(math.Float64frombits(pop(stack)), false)))
	case wasm.OpI64TruncSatF32S:
		return satF64ToI64(float64(math.Float32frombits(uint32(pop(stack)))), true)
	case wasm.OpI64TruncSatF32U:
		return satF64ToI64(float64(math.Float32frombits(uint32(pop(stack)))), false)
	case wasm.OpI64TruncSatF64S:
		return satF64ToI64(math.Float64frombits(pop(stack)), true)
	case wasm.OpI64TruncSatF64U:
		return satF64ToI64(math.Float64frombits(pop(stack)), false)
	}
	return 0
}

func satF64ToI32(v float64, signed bool) int32 {
	if math.IsNaN(v) {
		return 0
	}
	t := math.Trunc(v)
	if signed {
		if t < math.MinInt32 {
			return math.MinInt32
		}
		if t > math.MaxInt32 {
			return math.MaxInt32
		}
		return int32(t)
	}
	if t < 0 {
		return 0
	}
	if t > math.MaxUint32 {
		maxU32 := uint32(math.MaxUint32)
		return int32(maxU32)
	}
	return int32(uint32(t))
}

func satF64ToI64(v float64, signed bool) uint64 {
	if math.IsNaN(v) {
		return 0
	}
	t := math.Trunc(v)
	if signed {
		if t < math.MinInt64 {
			minI64 := int64(math.MinInt64)
			return uint64(minI64)
		}
		if t >= math.MaxInt64 {
			return uint64(int64(math.MaxInt64))
		}
		return uint64(int64(t))
	}
	if t < 0 {
		return 0
	}
	if t >= math.MaxUint64 {
		return math.MaxUint64
	}
	return uint64(t)
}
