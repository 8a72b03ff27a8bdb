// Package middleware implements the fixed five-pass (plus optional
// sixth) instrumentation pipeline that turns a validated WASM module
// into a metered, depth-bounded, heap-bounded one: static gas metering,
// dynamic bulk-memory metering, call-depth bounding, heap-page
// bounding, start-function relocation, and optional opcode counting.
//
// Pass order is contractual, not incidental: each pass sees the
// operator stream as the previous pass left it, and later passes
// (depth, counter) account for the instrumentation earlier passes
// already spliced in.
package middleware

import (
	"fmt"

	"github.com/inkvm/ink/internal/wasm"
)

// PricingTable supplies the per-operator ink cost function used by the
// static meter, and the per-byte rates used by the dynamic meter.
type PricingTable struct {
	Cost          func(op wasm.Opcode) uint64
	MemoryFillInk uint64
	MemoryCopyInk uint64
}

// Profile bundles every pipeline knob that is fixed per compiled
// module version rather than chosen per run (those live in a separate
// run-time configuration, outside this package).
type Profile struct {
	Version           uint16
	Pricing           PricingTable
	HeapBoundPages    uint32
	MaxFrameSizeWords uint32
}

// ProfileForVersion returns the fixed instrumentation profile for a
// compile-time format version. Only version 1 is defined; unknown
// versions are rejected rather than defaulted, so a version bump always
// requires an explicit profile.
func ProfileForVersion(version uint16) (Profile, error) {
	switch version {
	case 1:
		return Profile{
			Version: 1,
			Pricing: PricingTable{
				Cost:          uniformCost1,
				MemoryFillInk: 1,
				MemoryCopyInk: 1,
			},
			HeapBoundPages:    128,
			MaxFrameSizeWords: 1024 * 1024,
		}, nil
	default:
		return Profile{}, fmt.Errorf("middleware: no instrumentation profile for version %d", version)
	}
}

func uniformCost1(wasm.Opcode) uint64 { return 1 }
