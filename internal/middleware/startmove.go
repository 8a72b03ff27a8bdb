package middleware

import "github.com/inkvm/ink/internal/wasm"

// relocateStart removes any declared start function and re-exports it
// under the reserved name stylus_start so the runtime can invoke it
// explicitly, under metering, instead of via the implicit WASM start
// mechanism. The binary parser already rejects start sections in
// user-supplied input, so in practice this is a no-op; it exists so the
// pipeline's invariants hold for any module, not just externally parsed
// ones.
func relocateStart(m *wasm.Module) {
	if m.StartFunction == nil {
		return
	}
	idx := *m.StartFunction
	m.StartFunction = nil
	m.Exports = append(m.Exports, wasm.Export{Name: "stylus_start", Kind: wasm.ExternKindFunc, Index: idx})
	if m.Names.FunctionNames == nil {
		m.Names.FunctionNames = make(map[uint32]string)
	}
	m.Names.FunctionNames[idx] = "stylus_start"
}
