package middleware

import "github.com/inkvm/ink/internal/wasm"

// Result carries everything the compiled-module record (outside this
// package) needs to remember about what the pipeline injected: the
// globals it added and the entrypoint it resolved.
type Result struct {
	InkLeftGlobal    uint32
	InkStatusGlobal  uint32
	DepthLeftGlobal  uint32
	CounterGlobals   map[wasm.Opcode]uint32 // nil unless counting was enabled
	CounterOrder     []wasm.Opcode          // stable iteration order matching CountedOpcodes
	EntrypointIndex  uint32
	MemoryPageLimit  uint32
}

// Run applies the instrumentation pipeline to m in place, in the fixed
// order: static meter, dynamic memory meter, depth checker, heap-bound
// limiter, start-function relocator, and (if countOps) opcode counter.
// maxDepth is the embedder-configured call-stack budget in words
// (RuntimeConfig.WithMaxDepth); a function's worst-case frame may use at
// most half of it, since the depth global is walked down by frame size
// on every call and the stack can nest arbitrarily deep, so the per-frame
// ceiling is maxDepth/2. profile.MaxFrameSizeWords is a version-pinned
// ceiling no single function's worst-case frame may reach regardless of
// what an embedder configures, so the depth checker rejects against
// whichever of the two is smaller.
func Run(m *wasm.Module, profile Profile, maxDepth uint32, countOps bool) (*Result, error) {
	res := &Result{}

	res.InkLeftGlobal, res.InkStatusGlobal = addMeterGlobals(m)
	for i := range m.Code {
		m.Code[i].Body = instrumentMeter(m.Code[i].Body, profile.Pricing.Cost, res.InkLeftGlobal, res.InkStatusGlobal)
	}

	for i := range m.Code {
		paramCount := uint32(len(m.TypeOfFunction(m.NumImportedFunc + uint32(i)).Params))
		m.Code[i].Body = instrumentDynamicMeter(&m.Code[i], paramCount, m.Code[i].Body, res.InkLeftGlobal, res.InkStatusGlobal, profile.Pricing)
	}

	frameLimit := maxDepth / 2
	if profile.MaxFrameSizeWords < frameLimit {
		frameLimit = profile.MaxFrameSizeWords
	}
	res.DepthLeftGlobal = addDepthGlobal(m, maxDepth)
	for i := range m.Code {
		body, err := instrumentDepth(m, &m.Code[i], res.DepthLeftGlobal, frameLimit)
		if err != nil {
			return nil, err
		}
		m.Code[i].Body = body
	}

	if err := applyHeapBound(m, profile.HeapBoundPages); err != nil {
		return nil, err
	}
	res.MemoryPageLimit = profile.HeapBoundPages

	relocateStart(m)

	if countOps {
		counters := addCounterGlobals(m)
		res.CounterGlobals = counters
		res.CounterOrder = CountedOpcodes
		for i := range m.Code {
			m.Code[i].Body = instrumentCounter(m.Code[i].Body, counters)
		}
	}

	exp, ok := m.ExportByName(entrypointName)
	if !ok {
		return nil, &wasm.MissingEntrypointError{}
	}
	res.EntrypointIndex = exp.Index

	return res, nil
}

// entrypointName mirrors internal/wasm/binary.EntrypointName; this
// package does not import binary (which imports wasm and sits above
// it), so the constant is repeated rather than pulled in, matching the
// call graph's existing layering.
const entrypointName = "user_entrypoint"
