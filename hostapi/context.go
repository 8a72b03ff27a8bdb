package hostapi

import "github.com/inkvm/ink/internal/ink"

// Context bundles everything a guest-visible host call needs to do its
// job: memory to read/write pointers against, the resource-state ledger
// to charge ink against, the embedder's EvmApi, the block/tx/msg data for
// this invocation, and the pricing constants fixed at compile time
// (spec §4.5, §6). internal/interp constructs one Context per Instance and
// hands it to every vmHook invocation.
type Context struct {
	Memory Memory

	Evm  EvmApi
	Data *EvmData

	Resources ink.State

	// InkPrice is the ink-per-gas conversion rate (spec §6 formula inputs).
	InkPrice uint32
	// HostioInk is the flat ink cost charged for every host call before
	// any operation-specific cost (spec §4.5).
	HostioInk uint64

	Tracer Tracer

	// Input is the calldata staged before invocation, returned verbatim
	// by read_args.
	Input []byte

	// Output accumulates the bytes staged by write_result.
	Output []byte

	// ReturnDataLen is the length of the most recent sub-call's return
	// data, reported by return_data_size and refreshed by every
	// call_contract/create family hook.
	ReturnDataLen uint32
}

// Memory is the subset of api.Memory the host-call table needs; declared
// locally to avoid an import cycle back through api at call sites that
// only ever see *Context.
type Memory interface {
	Size() uint32
	Grow(deltaPages uint32) (previousPages uint32, ok bool)
	Read(offset, byteCount uint32) ([]byte, bool)
	Write(offset uint32, data []byte) bool
	ReadUint32Le(offset uint32) (uint32, bool)
	WriteUint32Le(offset uint32, v uint32) bool
}

// chargeHostio debits the flat per-call ink cost every vm_hooks entry
// pays up front, before it reads a single byte of guest memory or calls
// into Evm. It returns false, leaving the guest marked out-of-ink, if the
// charge could not be fully paid.
func (c *Context) chargeHostio() bool {
	return c.chargeInk(c.HostioInk)
}

// chargeGas debits gasCost, converted through InkPrice, from Resources.
// Operation-specific costs (storage access, calls, account reads) are
// only known once Evm has already answered, so they are charged in a
// second pass after chargeHostio's flat fee has already gated entry.
func (c *Context) chargeGas(gasCost uint64) bool {
	return c.chargeInk(ink.GasToInk(gasCost, uint64(c.InkPrice)))
}

// requireGas reports whether ink_left covers gasCost without charging
// anything, for sentries that must refuse an operation before it can
// have any side effect (EIP-2200's SSTORE reserve).
func (c *Context) requireGas(gasCost uint64) bool {
	due := ink.GasToInk(gasCost, uint64(c.InkPrice))
	return !ink.Exhausted(c.Resources) && c.Resources.InkLeft() >= int64(due)
}

// gasLeft converts the remaining raw ink back into an external gas
// figure, the inverse of the conversion applied when charging.
func (c *Context) gasLeft() uint64 {
	remaining := c.Resources.InkLeft()
	if remaining <= 0 {
		return 0
	}
	return ink.InkToGas(uint64(remaining), uint64(c.InkPrice))
}

// report fires the tracing hooks exactly once per guest host call,
// after all ink bookkeeping and after the EvmApi operation completed.
func (c *Context) report(op string, gasCost uint64) {
	c.Evm.ReportHostio(op, c.gasLeft(), gasCost)
	c.Tracer.OnHostio(op, gasCost)
}

// reportAdvanced is report for host calls whose tracing carries the
// wire-level data the guest passed.
func (c *Context) reportAdvanced(op string, data []byte, offset, size uint32, gasCost uint64) {
	c.Evm.ReportHostioAdvanced(op, data, offset, size, c.gasLeft(), gasCost)
	c.Tracer.OnHostio(op, gasCost)
}

func (c *Context) chargeInk(due uint64) bool {
	remaining := c.Resources.InkLeft()
	if ink.Exhausted(c.Resources) || remaining < int64(due) {
		ink.SetInk(c.Resources, 0)
		c.Resources.SetInkStatus(1)
		return false
	}
	ink.SetInk(c.Resources, remaining-int64(due))
	return true
}
