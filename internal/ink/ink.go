// Package ink implements the ink/gas conversion arithmetic and the
// resource-state bookkeeping contract: the set of
// module globals that carry the guest's remaining ink, exhaustion
// status, and remaining call-stack depth.
package ink

// PriceScale is the fixed-point denominator relating external gas to
// internal ink: 1 gas = 100,000 ink at rate 1.
const PriceScale = 100_000

// GasToInk converts a quantity of external gas to ink at the given
// price, saturating on multiply and flooring on divide. A zero price
// is treated as 1 (the original source's own `PricingParams` default).
func GasToInk(gas, inkPrice uint64) uint64 {
	if inkPrice == 0 {
		inkPrice = 1
	}
	return satMul(gas, PriceScale) / inkPrice
}

// InkToGas converts a quantity of ink back to external gas, saturating
// on multiply and flooring on divide.
func InkToGas(ink, inkPrice uint64) uint64 {
	if inkPrice == 0 {
		inkPrice = 1
	}
	return satMul(ink, inkPrice) / PriceScale
}

func satMul(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	p := a * b
	if p/a != b {
		return ^uint64(0)
	}
	return p
}

// EvmWords returns ceil(b/32), the EVM word-count of a byte length.
func EvmWords(b uint32) uint32 {
	return (b + 31) / 32
}

// SstoreSentryGas is the gas floor an SSTORE must retain before
// attempting a cold storage write, mirroring EIP-2200's reserve.
const SstoreSentryGas = 2300

// Keccak256WordGas is the per-32-byte-chunk gas surcharge charged by
// native_keccak256, matching the EVM's own SHA3 word price.
const Keccak256WordGas = 6

// State is the in-guest resource bookkeeping surface exposed through
// the instrumented module's reserved globals (ink_left, ink_status,
// depth_left). It is implemented by internal/interp's global-access
// adapter; this package only defines the read/write contract so
// internal/middleware and internal/interp agree on semantics without
// either importing the other.
type State interface {
	InkLeft() int64
	SetInkLeft(int64)
	InkStatus() int32
	SetInkStatus(int32)
	DepthLeft() int32
	SetDepthLeft(int32)
}

// Exhausted reports whether the guest's ink is exhausted: either the
// status flag is set, or the raw value has gone non-positive. A
// nonzero ink_status always wins, even over a positive ink_left.
func Exhausted(s State) bool {
	return s.InkStatus() != 0 || s.InkLeft() <= 0
}

// SetInk writes a fresh ink value and resets the exhaustion flag iff
// the new value is non-zero; setting ink to exactly zero leaves any
// existing exhaustion flag in place.
func SetInk(s State, value int64) {
	s.SetInkLeft(value)
	if value != 0 {
		s.SetInkStatus(0)
	}
}
