package ink

import resource "github.com/inkvm/ink/internal/ink"

// GasToInk converts external gas into the engine's fine-grained ink at
// the given price: ink = gas * 100_000 / price, saturating on multiply
// and flooring on divide. Use it to turn a transaction's gas allowance
// into the ink budget Program.Invoke takes.
func GasToInk(gas uint64, inkPrice uint32) uint64 {
	return resource.GasToInk(gas, uint64(inkPrice))
}

// InkToGas converts ink back into external gas at the given price, the
// inverse of GasToInk up to flooring.
func InkToGas(ink uint64, inkPrice uint32) uint64 {
	return resource.InkToGas(ink, uint64(inkPrice))
}
