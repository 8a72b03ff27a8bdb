package middleware

import (
	"github.com/inkvm/ink/internal/leb128"
	"github.com/inkvm/ink/internal/wasm"
)

func addDepthGlobal(m *wasm.Module, maxDepth uint32) uint32 {
	// The compile-time initializer is the configured max_depth; the
	// executor writes the same value again before every run
	// (Program.Invoke's SetDepthLeft).
	initial := int32(maxDepth)
	init := wasm.ConstExpr{Opcode: wasm.OpI32Const, Data: leb128.EncodeInt32(initial)}
	return m.AddGlobal("stylus_stack_left", wasm.ValueTypeI32, init)
}

// worstCaseDepth walks a function body tracking the operand stack's
// net height and returns the worst height ever reached, plus the
// function's local count and a fixed frame overhead of 4 words.
//
// Most operators contribute their net push-minus-pop delta in one
// step. call, call_indirect, and block/loop/if with a function-type
// signature instead push their full result arity and then pop their
// full parameter arity as two separate steps, which can transiently
// read a higher worst-case height than the net delta would -- this is
// intentional: a callee's own frame can coexist with the caller's
// still-live arguments.
func worstCaseDepth(m *wasm.Module, body []wasm.Operator, numLocals uint32) (uint32, error) {
	var height, worst int64
	push := func(n int64) {
		height += n
		if height > worst {
			worst = height
		}
	}
	pop := func(n int64) {
		height -= n
		if height < 0 {
			height = 0
		}
	}
	applyNet := func(eff wasm.StackEffect) {
		net := int64(eff.Push) - int64(eff.Pop)
		switch {
		case net > 0:
			push(net)
		case net < 0:
			pop(-net)
		}
	}
	applyInsAndOuts := func(ins, outs int) {
		push(int64(outs))
		pop(int64(ins))
	}

	scopes := []int64{height}

	for _, op := range body {
		switch op.Opcode {
		case wasm.OpBlock, wasm.OpLoop:
			applyBlockType(m, op, applyInsAndOuts)
			scopes = append(scopes, height)
		case wasm.OpIf:
			pop(1)
			applyBlockType(m, op, applyInsAndOuts)
			scopes = append(scopes, height)
		case wasm.OpElse:
			if len(scopes) == 0 {
				return 0, &wasm.MalformedSectionError{Section: wasm.SectionIDCode, Reason: "else without matching if"}
			}
			height = scopes[len(scopes)-1]
		case wasm.OpEnd:
			if len(scopes) == 0 {
				return 0, &wasm.MalformedSectionError{Section: wasm.SectionIDCode, Reason: "end without matching block"}
			}
			height = scopes[len(scopes)-1]
			scopes = scopes[:len(scopes)-1]
		case wasm.OpBr, wasm.OpReturn:
			// control transfer only; no operand-stack effect in this
			// model.
		case wasm.OpBrIf, wasm.OpBrTable:
			pop(1)
		case wasm.OpCall:
			ft := m.TypeOfFunction(op.FuncIndex)
			if ft == nil {
				return 0, &wasm.MalformedSectionError{Section: wasm.SectionIDCode, Reason: "call: function index out of range"}
			}
			applyInsAndOuts(len(ft.Params), len(ft.Results))
		case wasm.OpCallIndirect:
			if int(op.TypeIndex) >= len(m.Types) {
				return 0, &wasm.MalformedSectionError{Section: wasm.SectionIDCode, Reason: "call_indirect: type index out of range"}
			}
			ft := &m.Types[op.TypeIndex]
			applyInsAndOuts(len(ft.Params), len(ft.Results))
		default:
			eff, ok := wasm.Effect(op.Opcode)
			if !ok {
				return 0, &wasm.FeatureUnsupportedError{Kind: "unsupported-op"}
			}
			applyNet(eff)
		}
	}

	return uint32(worst) + numLocals + 4, nil
}

func applyBlockType(m *wasm.Module, op wasm.Operator, insAndOuts func(ins, outs int)) {
	switch op.Block {
	case wasm.BlockTypeEmpty:
	case wasm.BlockTypeValue:
		insAndOuts(0, 1)
	case wasm.BlockTypeFuncType:
		if int(op.TypeIndex) < len(m.Types) {
			ft := &m.Types[op.TypeIndex]
			insAndOuts(len(ft.Params), len(ft.Results))
		}
	}
}

// instrumentDepth rejects the function if its worst-case frame size
// meets or exceeds maxFrameSizeWords, else wraps it with an entry guard
// that debits depth_left (trapping on underflow) and a credit-back
// before every return, including a synthetic one spliced in before the
// function's trailing end so every exit path is covered uniformly.
func instrumentDepth(m *wasm.Module, code *wasm.Code, depthLeft uint32, maxFrameSizeWords uint32) ([]wasm.Operator, error) {
	body := code.Body
	numLocals := code.NumLocals()

	frameSize, err := worstCaseDepth(m, body, numLocals)
	if err != nil {
		return nil, err
	}
	if frameSize >= maxFrameSizeWords {
		return nil, &wasm.LimitExceededError{What: "stack frame size", Value: uint64(frameSize), Max: uint64(maxFrameSizeWords)}
	}

	if len(body) == 0 || body[len(body)-1].Opcode != wasm.OpEnd {
		return nil, &wasm.MalformedSectionError{Section: wasm.SectionIDCode, Reason: "function body missing trailing end"}
	}

	entryGuard := []wasm.Operator{
		{Opcode: wasm.OpGlobalGet, Index: depthLeft},
		{Opcode: wasm.OpI32Const, I32: int32(frameSize)},
		{Opcode: opI32LtU},
		{Opcode: wasm.OpIf, Block: wasm.BlockTypeEmpty},
		{Opcode: wasm.OpI32Const, I32: 0},
		{Opcode: wasm.OpGlobalSet, Index: depthLeft},
		{Opcode: wasm.OpUnreachable},
		{Opcode: wasm.OpEnd},
		{Opcode: wasm.OpGlobalGet, Index: depthLeft},
		{Opcode: wasm.OpI32Const, I32: int32(frameSize)},
		{Opcode: opI32Sub},
		{Opcode: wasm.OpGlobalSet, Index: depthLeft},
	}
	reclaim := []wasm.Operator{
		{Opcode: wasm.OpGlobalGet, Index: depthLeft},
		{Opcode: wasm.OpI32Const, I32: int32(frameSize)},
		{Opcode: opI32Add},
		{Opcode: wasm.OpGlobalSet, Index: depthLeft},
	}

	last := body[len(body)-1]
	withReturn := make([]wasm.Operator, 0, len(body)+1)
	withReturn = append(withReturn, body[:len(body)-1]...)
	withReturn = append(withReturn, wasm.Operator{Opcode: wasm.OpReturn})
	withReturn = append(withReturn, last)

	out := make([]wasm.Operator, 0, len(withReturn)+len(entryGuard)+len(reclaim)*2)
	out = append(out, entryGuard...)
	for _, op := range withReturn {
		if op.Opcode == wasm.OpReturn {
			out = append(out, reclaim...)
		}
		out = append(out, op)
	}
	return out, nil
}
