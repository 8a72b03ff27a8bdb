package hostapi

// EvmApi is the callback interface through which a program reaches the
// surrounding chain state (spec §4.5, GLOSSARY). An embedder supplies one
// implementation per Instance; every guest-visible host call in this
// package is built on top of exactly these operations. Any operation may
// return an Escape instead of completing normally, which terminates the
// instance without going through guest revert handling.
//
// A method's recoverable failure (a Result with Failed set) never becomes
// a Go error, and no vm_hooks entry turns it into a guest revert:
// create1/create2 report it to the guest as a non-zero i32 result, while
// storage_store_bytes32 and emit_log ignore it.
type EvmApi interface {
	// GetBytes32 reads durable storage at key.
	GetBytes32(key Bytes32) (value Bytes32, gasCost uint64, escape *Escape)

	// SetBytes32 writes durable storage. On success it returns the access
	// gas cost charged by the backing state implementation.
	SetBytes32(key, value Bytes32) (gasCost uint64, result Result[struct{}], escape *Escape)

	// ContractCall performs a synchronous cross-contract call.
	ContractCall(contract Address, calldata []byte, gas uint64, value Bytes32) (retLen uint32, gasCost uint64, outcome CallOutcome, escape *Escape)

	// DelegateCall performs a cross-contract call that runs in the
	// caller's own storage/address context.
	DelegateCall(contract Address, calldata []byte, gas uint64) (retLen uint32, gasCost uint64, outcome CallOutcome, escape *Escape)

	// StaticCall performs a cross-contract call that forbids state
	// mutation in the callee.
	StaticCall(contract Address, calldata []byte, gas uint64) (retLen uint32, gasCost uint64, outcome CallOutcome, escape *Escape)

	// Create1 deploys new code at the legacy CREATE address.
	Create1(code []byte, endowment Bytes32, gas uint64) (addr Result[Address], retLen uint32, gasCost uint64, escape *Escape)

	// Create2 deploys new code at a salted CREATE2 address.
	Create2(code []byte, endowment, salt Bytes32, gas uint64) (addr Result[Address], retLen uint32, gasCost uint64, escape *Escape)

	// GetReturnData returns up to size bytes of the most recent sub-call's
	// return data, starting at offset.
	GetReturnData(offset, size uint32) []byte

	// EmitLog records an EVM log event. topicCount*32 of data's prefix are
	// the log's indexed topics; the remainder is unindexed data.
	EmitLog(data []byte, topicCount uint32) (result Result[struct{}], escape *Escape)

	// AccountBalance reads an account's native-token balance.
	AccountBalance(addr Address) (balance Bytes32, gasCost uint64, escape *Escape)

	// AccountCodehash reads an account's code hash.
	AccountCodehash(addr Address) (hash Bytes32, gasCost uint64, escape *Escape)

	// AddPages notifies the host that the guest's linear memory grew by
	// pages pages, returning the gas cost to charge for it.
	AddPages(pages uint16) (gasCost uint64)

	// ReportHostio is a tracing hook called exactly once per guest host
	// call, after ink bookkeeping and after the EvmApi operation
	// completes (spec §5 ordering guarantee).
	ReportHostio(op string, gas, cost uint64)

	// ReportHostioAdvanced is like ReportHostio but carries the raw
	// wire-level data/offset/size for host calls whose tracing needs
	// finer detail (e.g. storage keys, call targets).
	ReportHostioAdvanced(op string, data []byte, offset, size uint32, gas, cost uint64)
}
