package interp

import (
	"github.com/inkvm/ink/api"
	"github.com/inkvm/ink/hostapi"
	"github.com/inkvm/ink/internal/ink"
)

// Outcome runs the entrypoint and classifies the result into an
// api.Outcome, the tier-2 result shape spec §7 defines: success,
// revert, the two resource-exhaustion statuses, or failure. A fatal
// *hostapi.Escape is never classified here — Outcome returns it
// unchanged as its error, since it represents a tier-3 host fault
// rather than a guest-observable result.
func (in *Instance) Outcome(entrypoint string, inputLen uint32) (api.Outcome, error) {
	export, ok := in.compiled.Module.ExportByName(entrypoint)
	if !ok {
		return api.Outcome{}, trap("no export named %q", entrypoint)
	}

	startInk := in.InkLeft()

	results, err := in.Invoke(export.Index, []uint64{uint64(inputLen)})
	consumedInk := consumed(startInk, in.InkLeft())
	gasConsumed := ink.InkToGas(consumedInk, uint64(in.hostCtx.InkPrice))

	if err != nil {
		if esc, escaped := err.(*hostapi.Escape); escaped {
			return api.Outcome{}, esc
		}
		in.status = statusTrapped

		// The injected meter/depth guards signal exhaustion by trapping
		// with OpUnreachable, so exhaustion surfaces here, not in the
		// err == nil path below.
		if ink.Exhausted(in) {
			return api.Outcome{Status: api.StatusOutOfInk, InkConsumed: consumedInk, GasConsumed: gasConsumed}, nil
		}
		if in.stackLeftIdx >= 0 && in.DepthLeft() <= 0 {
			return api.Outcome{Status: api.StatusOutOfStack, InkConsumed: consumedInk, GasConsumed: gasConsumed}, nil
		}

		return api.Outcome{
			Status:        api.StatusFailure,
			FailureReason: err.Error(),
			InkConsumed:   consumedInk,
			GasConsumed:   gasConsumed,
		}, nil
	}

	if ink.Exhausted(in) {
		return api.Outcome{Status: api.StatusOutOfInk, InkConsumed: consumedInk, GasConsumed: gasConsumed}, nil
	}
	if in.stackLeftIdx >= 0 && in.DepthLeft() <= 0 {
		return api.Outcome{Status: api.StatusOutOfStack, InkConsumed: consumedInk, GasConsumed: gasConsumed}, nil
	}

	var status uint32
	if len(results) > 0 {
		status = uint32(results[0])
	}
	if status == 0 {
		return api.Outcome{Status: api.StatusSuccess, Output: in.hostCtx.Output, InkConsumed: consumedInk, GasConsumed: gasConsumed}, nil
	}
	return api.Outcome{Status: api.StatusRevert, Output: in.hostCtx.Output, InkConsumed: consumedInk, GasConsumed: gasConsumed}, nil
}

func consumed(start, end int64) uint64 {
	if end >= start {
		return 0
	}
	return uint64(start - end)
}

