package ink

import (
	"github.com/inkvm/ink/api"
	"github.com/inkvm/ink/hostapi"
	"github.com/inkvm/ink/internal/interp"
)

// Program is a linked, runnable instance of a CompiledModule (spec C4
// Instance, wrapped with the pieces an embedder actually calls). Create
// one per invocation: it carries no state an embedder should reuse
// across calls, matching the engine's no-persistent-globals rule.
type Program struct {
	compiled *CompiledModule
	instance *interp.Instance
	ctx      *hostapi.Context
}

// Link allocates a fresh instance of compiled against evmApi and data:
// linear memory, globals (ink/depth/opcode counters reset to their
// compile-time initializers), table, and vm_hooks import resolution.
func Link(compiled *CompiledModule, evmApi hostapi.EvmApi, data *hostapi.EvmData, tracer hostapi.Tracer) (*Program, error) {
	if tracer == nil {
		tracer = hostapi.NopTracer{}
	}
	ctx := &hostapi.Context{
		Evm:       evmApi,
		Data:      data,
		InkPrice:  compiled.cfg.inkPrice,
		HostioInk: compiled.cfg.hostioInk,
		Tracer:    tracer,
	}
	instance, err := interp.Link(compiled.compiled, ctx)
	if err != nil {
		return nil, err
	}
	ctx.Memory = instance.Memory()
	ctx.Resources = instance
	return &Program{compiled: compiled, instance: instance, ctx: ctx}, nil
}

// Invoke sets the guest's ink budget and calldata, then runs
// "user_entrypoint", returning the classified outcome (spec §7). Input
// is staged for read_args and is not copied into guest memory until the
// guest calls it.
func (p *Program) Invoke(inkBudget uint64, input []byte) (api.Outcome, error) {
	p.instance.SetInkLeft(int64(inkBudget))
	p.instance.SetInkStatus(0)
	p.instance.SetDepthLeft(int32(p.compiled.cfg.maxDepth))
	p.instance.ResetOpcodeCounts()
	p.ctx.Input = input
	p.ctx.Output = nil
	p.ctx.ReturnDataLen = 0
	return p.instance.Outcome("user_entrypoint", uint32(len(input)))
}

// Instance exposes the underlying api.Instance for diagnostics: reading
// exported globals directly, inspecting memory, or reading back opcode
// counters.
func (p *Program) Instance() api.Instance { return p.instance }
