package middleware

import "github.com/inkvm/ink/internal/wasm"

const wasmPageSize = 65536

// applyHeapBound clamps every memory's maximum to the smaller of its
// own declared maximum and the budget left over after tables have
// claimed their share of the page budget (tables and linear memory
// share one byte ceiling so a module cannot evade the heap bound by
// inflating tables instead).
func applyHeapBound(m *wasm.Module, heapBoundPages uint32) error {
	budget := uint64(heapBoundPages) * wasmPageSize
	tableBytes := m.TableBytes()
	if tableBytes > budget {
		return &wasm.LimitExceededError{What: "table footprint", Value: tableBytes, Max: budget}
	}
	boundPages := uint32((budget - tableBytes) / wasmPageSize)

	for i := range m.Memories {
		mem := &m.Memories[i]
		if mem.Minimum > boundPages {
			return &wasm.LimitExceededError{What: "memory minimum pages", Value: uint64(mem.Minimum), Max: uint64(boundPages)}
		}
		if mem.Maximum == nil || *mem.Maximum > boundPages {
			bound := boundPages
			mem.Maximum = &bound
		}
	}
	return nil
}
