// Package interp is the linker and executor (C4): it turns an
// instrumented wasm.Module into a runnable Instance, resolves its
// vm_hooks imports against hostapi.VMHooks, and interprets its operator
// stream to invoke the single "user_entrypoint" symbol per call.
package interp

import (
	"fmt"

	"github.com/inkvm/ink/internal/wasm"
)

// CompiledModule is a wasm.Module plus the static control-flow analysis
// every activation of its functions reuses: for each function body, the
// pc of the `end` (and, for `if`, the `else`) matching every
// block/loop/if in that body. Computing this once at compile time rather
// than re-scanning on every branch is what makes the interpreter's
// branch dispatch O(1) instead of O(body length).
type CompiledModule struct {
	Module *wasm.Module

	// jumps[i] is the resolved bracket table for Module.Code[i].Body.
	jumps []jumpTable
}

type jumpTable struct {
	matchEnd  []int
	matchElse []int
}

// Compile resolves the control-flow brackets of every function body in m.
// m must already have passed validation (internal/wasm/binary.DecodeModule);
// this pass assumes balanced block/loop/if/else/end nesting and does not
// re-check it.
func Compile(m *wasm.Module) (*CompiledModule, error) {
	jumps := make([]jumpTable, len(m.Code))
	for i := range m.Code {
		jt, err := resolveJumps(m.Code[i].Body)
		if err != nil {
			return nil, fmt.Errorf("interp: function %d: %w", i, err)
		}
		jumps[i] = jt
	}
	return &CompiledModule{Module: m, jumps: jumps}, nil
}

func resolveJumps(body []wasm.Operator) (jumpTable, error) {
	n := len(body)
	jt := jumpTable{matchEnd: make([]int, n), matchElse: make([]int, n)}
	for i := range jt.matchElse {
		jt.matchElse[i] = -1
	}
	var stack []int
	for pc := range body {
		switch body[pc].Opcode {
		case wasm.OpBlock, wasm.OpLoop, wasm.OpIf:
			stack = append(stack, pc)
		case wasm.OpElse:
			if len(stack) == 0 {
				return jumpTable{}, fmt.Errorf("else without matching if at pc %d", pc)
			}
			jt.matchElse[stack[len(stack)-1]] = pc
		case wasm.OpEnd:
			if len(stack) == 0 {
				// Closes the function's implicit top-level block; no
				// enclosing block/loop/if to record a target for.
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			jt.matchEnd[top] = pc
		}
	}
	if len(stack) != 0 {
		return jumpTable{}, fmt.Errorf("unclosed block/loop/if at pc %d", stack[len(stack)-1])
	}
	return jt, nil
}

// blockArity is the parameter and result count of a block/loop/if
// immediate, resolved against the module's type section for
// BlockTypeFuncType.
type blockArity struct {
	params  int
	results int
}

func resolveBlockArity(m *wasm.Module, op *wasm.Operator) blockArity {
	switch op.Block {
	case wasm.BlockTypeEmpty:
		return blockArity{0, 0}
	case wasm.BlockTypeValue:
		return blockArity{0, 1}
	case wasm.BlockTypeFuncType:
		ft := &m.Types[op.TypeIndex]
		return blockArity{len(ft.Params), len(ft.Results)}
	}
	return blockArity{}
}
