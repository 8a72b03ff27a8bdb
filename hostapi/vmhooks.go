package hostapi

import (
	"fmt"

	"github.com/inkvm/ink/internal/ink"
)

// ValueType mirrors api.ValueType without importing the api package,
// which this package must not depend on (internal/interp depends on both
// hostapi and api; hostapi stays below both).
type ValueType = byte

const (
	valueTypeI32 ValueType = 0x7f
	valueTypeI64 ValueType = 0x7e
)

// HostFunc is one entry of the fixed vm_hooks import module: a name, its
// declared signature, and a Go implementation operating directly on the
// guest's operand stack. This is the guest-visible counterpart to
// EvmApi — where EvmApi is the interface an embedder implements, HostFunc
// is how internal/interp exposes that interface to the running program.
//
// The stack-of-uint64 calling convention (params read in order from
// stack[0:], results written back starting at stack[0]) is the same
// convention the teacher lineage's WithGoFunction host functions use;
// there the set of functions is user-defined and open-ended, where here
// it is exactly the list in VMHooks.
type HostFunc struct {
	Name    string
	Params  []ValueType
	Results []ValueType
	Invoke  func(c *Context, stack []uint64) error
}

// u32 reads a stack slot using the same bit-reinterpretation every
// numeric value uses on the operand stack (spec: "raw uint64 values are
// the stack's only currency").
func u32(v uint64) uint32 { return uint32(v) }

var errOutOfInk = fmt.Errorf("vm_hooks: out of ink")

// VMHooks is the complete vm_hooks import module (spec §4.5). Every
// program compiled by this engine that imports from "vm_hooks" resolves
// its imports against exactly this table; there is no user-extensible
// host module surface.
//
// Every entry except the free console_log_* ones charges chargeHostio's
// flat fee before it touches guest
// memory or calls into Evm; entries whose cost depends on what Evm
// reports (storage access, account reads, calls) charge that remainder
// with chargeGas only after Evm has answered, since the amount isn't
// knowable any earlier. A failed charge returns an error instead of nil
// so the call traps immediately rather than limping along exhausted
// until the next meter guard happens to fire.
var VMHooks = []HostFunc{
	{
		Name:    "read_args",
		Params:  []ValueType{valueTypeI32},
		Results: nil,
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			ptr := u32(stack[0])
			if !c.Memory.Write(ptr, c.Input) {
				return fmt.Errorf("vm_hooks: read_args: out of bounds write at %d", ptr)
			}
			c.reportAdvanced("read_args", c.Input, ptr, uint32(len(c.Input)), 0)
			return nil
		},
	},
	{
		Name:    "write_result",
		Params:  []ValueType{valueTypeI32, valueTypeI32},
		Results: nil,
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			ptr, length := u32(stack[0]), u32(stack[1])
			data, ok := c.Memory.Read(ptr, length)
			if !ok {
				return fmt.Errorf("vm_hooks: write_result: out of bounds read at %d len %d", ptr, length)
			}
			c.Output = append([]byte(nil), data...)
			c.reportAdvanced("write_result", c.Output, ptr, length, 0)
			return nil
		},
	},
	{
		Name:    "storage_load_bytes32",
		Params:  []ValueType{valueTypeI32, valueTypeI32},
		Results: nil,
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			keyPtr, outPtr := u32(stack[0]), u32(stack[1])
			keyBytes, ok := c.Memory.Read(keyPtr, 32)
			if !ok {
				return fmt.Errorf("vm_hooks: storage_load_bytes32: bad key pointer %d", keyPtr)
			}
			var key Bytes32
			copy(key[:], keyBytes)
			value, gasCost, escape := c.Evm.GetBytes32(key)
			if escape != nil {
				c.Tracer.OnEscape("storage_load_bytes32", escape)
				return escape
			}
			if !c.chargeGas(gasCost) {
				return errOutOfInk
			}
			c.Memory.Write(outPtr, value[:])
			c.reportAdvanced("storage_load_bytes32", key[:], keyPtr, 32, gasCost)
			return nil
		},
	},
	{
		Name:    "storage_store_bytes32",
		Params:  []ValueType{valueTypeI32, valueTypeI32},
		Results: nil,
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			// EIP-2200's SSTORE sentry: refuse a cold write outright
			// rather than let it run the caller out of gas before it can
			// report the refund a later SSTORE might need.
			if !c.requireGas(ink.SstoreSentryGas) {
				return errOutOfInk
			}
			keyPtr, valuePtr := u32(stack[0]), u32(stack[1])
			keyBytes, ok1 := c.Memory.Read(keyPtr, 32)
			valueBytes, ok2 := c.Memory.Read(valuePtr, 32)
			if !ok1 || !ok2 {
				return fmt.Errorf("vm_hooks: storage_store_bytes32: bad pointer")
			}
			var key, value Bytes32
			copy(key[:], keyBytes)
			copy(value[:], valueBytes)
			gasCost, result, escape := c.Evm.SetBytes32(key, value)
			if escape != nil {
				c.Tracer.OnEscape("storage_store_bytes32", escape)
				return escape
			}
			if !c.chargeGas(gasCost) {
				return errOutOfInk
			}
			_ = result
			c.reportAdvanced("storage_store_bytes32", key[:], keyPtr, 32, gasCost)
			return nil
		},
	},
	{
		Name:    "native_keccak256",
		Params:  []ValueType{valueTypeI32, valueTypeI32, valueTypeI32},
		Results: nil,
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			ptr, length, outPtr := u32(stack[0]), u32(stack[1]), u32(stack[2])
			wordCost := uint64(ink.EvmWords(length)) * ink.Keccak256WordGas
			if !c.chargeGas(wordCost) {
				return errOutOfInk
			}
			data, ok := c.Memory.Read(ptr, length)
			if !ok {
				return fmt.Errorf("vm_hooks: native_keccak256: out of bounds read at %d len %d", ptr, length)
			}
			hash := Keccak256(data)
			if !c.Memory.Write(outPtr, hash[:]) {
				return fmt.Errorf("vm_hooks: native_keccak256: out of bounds write at %d", outPtr)
			}
			c.reportAdvanced("native_keccak256", data, ptr, length, wordCost)
			return nil
		},
	},
	{
		Name:    "emit_log",
		Params:  []ValueType{valueTypeI32, valueTypeI32, valueTypeI32},
		Results: nil,
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			ptr, length, topics := u32(stack[0]), u32(stack[1]), u32(stack[2])
			if topics > 4 || length < topics*32 {
				return fmt.Errorf("vm_hooks: emit_log: bad topic data")
			}
			data, ok := c.Memory.Read(ptr, length)
			if !ok {
				return fmt.Errorf("vm_hooks: emit_log: out of bounds read at %d len %d", ptr, length)
			}
			result, escape := c.Evm.EmitLog(data, topics)
			if escape != nil {
				c.Tracer.OnEscape("emit_log", escape)
				return escape
			}
			_ = result
			c.reportAdvanced("emit_log", data, ptr, length, 0)
			return nil
		},
	},
	{
		Name:    "read_return_data",
		Params:  []ValueType{valueTypeI32, valueTypeI32, valueTypeI32},
		Results: []ValueType{valueTypeI32},
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			ptr, offset, size := u32(stack[0]), u32(stack[1]), u32(stack[2])
			data := c.Evm.GetReturnData(offset, size)
			if !c.Memory.Write(ptr, data) {
				return fmt.Errorf("vm_hooks: read_return_data: out of bounds write at %d", ptr)
			}
			stack[0] = uint64(len(data))
			c.reportAdvanced("read_return_data", data, offset, size, 0)
			return nil
		},
	},
	{
		Name:    "return_data_size",
		Params:  nil,
		Results: []ValueType{valueTypeI32},
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			stack[0] = uint64(c.ReturnDataLen)
			c.report("return_data_size", 0)
			return nil
		},
	},
	{
		Name:    "account_balance",
		Params:  []ValueType{valueTypeI32, valueTypeI32},
		Results: nil,
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			addrPtr, outPtr := u32(stack[0]), u32(stack[1])
			addrBytes, ok := c.Memory.Read(addrPtr, 20)
			if !ok {
				return fmt.Errorf("vm_hooks: account_balance: bad address pointer %d", addrPtr)
			}
			var addr Address
			copy(addr[:], addrBytes)
			balance, gasCost, escape := c.Evm.AccountBalance(addr)
			if escape != nil {
				c.Tracer.OnEscape("account_balance", escape)
				return escape
			}
			if !c.chargeGas(gasCost) {
				return errOutOfInk
			}
			c.Memory.Write(outPtr, balance[:])
			c.report("account_balance", gasCost)
			return nil
		},
	},
	{
		Name:    "account_codehash",
		Params:  []ValueType{valueTypeI32, valueTypeI32},
		Results: nil,
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			addrPtr, outPtr := u32(stack[0]), u32(stack[1])
			addrBytes, ok := c.Memory.Read(addrPtr, 20)
			if !ok {
				return fmt.Errorf("vm_hooks: account_codehash: bad address pointer %d", addrPtr)
			}
			var addr Address
			copy(addr[:], addrBytes)
			hash, gasCost, escape := c.Evm.AccountCodehash(addr)
			if escape != nil {
				c.Tracer.OnEscape("account_codehash", escape)
				return escape
			}
			if !c.chargeGas(gasCost) {
				return errOutOfInk
			}
			c.Memory.Write(outPtr, hash[:])
			c.report("account_codehash", gasCost)
			return nil
		},
	},
	{
		Name:    "evm_ink_left",
		Params:  nil,
		Results: []ValueType{valueTypeI64},
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			stack[0] = uint64(c.Resources.InkLeft())
			c.report("evm_ink_left", 0)
			return nil
		},
	},
	{
		Name:    "evm_gas_left",
		Params:  nil,
		Results: []ValueType{valueTypeI64},
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			stack[0] = c.gasLeft()
			c.report("evm_gas_left", 0)
			return nil
		},
	},
	{
		Name:    "msg_value",
		Params:  []ValueType{valueTypeI32},
		Results: nil,
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			ptr := u32(stack[0])
			c.Memory.Write(ptr, c.Data.MsgValue[:])
			c.report("msg_value", 0)
			return nil
		},
	},
	{
		Name:    "msg_sender",
		Params:  []ValueType{valueTypeI32},
		Results: nil,
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			ptr := u32(stack[0])
			c.Memory.Write(ptr, c.Data.MsgSender[:])
			c.report("msg_sender", 0)
			return nil
		},
	},
	{
		Name:    "contract_address",
		Params:  []ValueType{valueTypeI32},
		Results: nil,
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			ptr := u32(stack[0])
			c.Memory.Write(ptr, c.Data.ContractAddress[:])
			c.report("contract_address", 0)
			return nil
		},
	},
	{
		Name:    "tx_origin",
		Params:  []ValueType{valueTypeI32},
		Results: nil,
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			ptr := u32(stack[0])
			c.Memory.Write(ptr, c.Data.TxOrigin[:])
			c.report("tx_origin", 0)
			return nil
		},
	},
	{
		Name:    "tx_gas_price",
		Params:  []ValueType{valueTypeI32},
		Results: nil,
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			ptr := u32(stack[0])
			c.Memory.Write(ptr, c.Data.TxGasPrice[:])
			c.report("tx_gas_price", 0)
			return nil
		},
	},
	{
		Name:    "tx_ink_price",
		Params:  nil,
		Results: []ValueType{valueTypeI32},
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			stack[0] = uint64(c.Data.TxInkPrice)
			c.report("tx_ink_price", 0)
			return nil
		},
	},
	{
		Name:    "block_number",
		Params:  nil,
		Results: []ValueType{valueTypeI64},
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			stack[0] = c.Data.BlockNumber
			c.report("block_number", 0)
			return nil
		},
	},
	{
		Name:    "block_timestamp",
		Params:  nil,
		Results: []ValueType{valueTypeI64},
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			stack[0] = c.Data.BlockTimestamp
			c.report("block_timestamp", 0)
			return nil
		},
	},
	{
		Name:    "block_gas_limit",
		Params:  nil,
		Results: []ValueType{valueTypeI64},
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			stack[0] = c.Data.BlockGasLimit
			c.report("block_gas_limit", 0)
			return nil
		},
	},
	{
		Name:    "block_basefee",
		Params:  []ValueType{valueTypeI32},
		Results: nil,
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			ptr := u32(stack[0])
			c.Memory.Write(ptr, c.Data.BlockBasefee[:])
			c.report("block_basefee", 0)
			return nil
		},
	},
	{
		Name:    "block_coinbase",
		Params:  []ValueType{valueTypeI32},
		Results: nil,
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			ptr := u32(stack[0])
			c.Memory.Write(ptr, c.Data.BlockCoinbase[:])
			c.report("block_coinbase", 0)
			return nil
		},
	},
	{
		Name:    "chainid",
		Params:  nil,
		Results: []ValueType{valueTypeI64},
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			stack[0] = c.Data.ChainID
			c.report("chainid", 0)
			return nil
		},
	},
	{
		Name:    "memory_grow",
		Params:  []ValueType{valueTypeI32},
		Results: nil,
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			pages := u32(stack[0])
			if pages == 0 {
				c.report("memory_grow", 0)
				return nil
			}
			gasCost := c.Evm.AddPages(uint16(pages))
			if !c.chargeGas(gasCost) {
				return errOutOfInk
			}
			if _, ok := c.Memory.Grow(pages); !ok {
				return fmt.Errorf("vm_hooks: memory_grow: growth by %d pages rejected", pages)
			}
			c.report("memory_grow", gasCost)
			return nil
		},
	},
	{
		Name:    "call_contract",
		Params:  []ValueType{valueTypeI32, valueTypeI32, valueTypeI32, valueTypeI32, valueTypeI64, valueTypeI32},
		Results: []ValueType{valueTypeI32},
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			addrPtr, dataPtr, dataLen, valuePtr, gas, retLenPtr :=
				u32(stack[0]), u32(stack[1]), u32(stack[2]), u32(stack[3]), stack[4], u32(stack[5])
			addrBytes, ok1 := c.Memory.Read(addrPtr, 20)
			data, ok2 := c.Memory.Read(dataPtr, dataLen)
			valueBytes, ok3 := c.Memory.Read(valuePtr, 32)
			if !ok1 || !ok2 || !ok3 {
				return fmt.Errorf("vm_hooks: call_contract: bad pointer")
			}
			var addr Address
			var value Bytes32
			copy(addr[:], addrBytes)
			copy(value[:], valueBytes)
			retLen, gasCost, outcome, escape := c.Evm.ContractCall(addr, data, gas, value)
			if escape != nil {
				c.Tracer.OnEscape("call_contract", escape)
				return escape
			}
			if !c.chargeGas(gasCost) {
				return errOutOfInk
			}
			c.ReturnDataLen = retLen
			c.Memory.WriteUint32Le(retLenPtr, retLen)
			c.reportAdvanced("call_contract", data, dataPtr, dataLen, gasCost)
			stack[0] = uint64(outcome)
			return nil
		},
	},
	{
		Name:    "delegate_call_contract",
		Params:  []ValueType{valueTypeI32, valueTypeI32, valueTypeI32, valueTypeI64, valueTypeI32},
		Results: []ValueType{valueTypeI32},
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			addrPtr, dataPtr, dataLen, gas, retLenPtr :=
				u32(stack[0]), u32(stack[1]), u32(stack[2]), stack[3], u32(stack[4])
			addrBytes, ok1 := c.Memory.Read(addrPtr, 20)
			data, ok2 := c.Memory.Read(dataPtr, dataLen)
			if !ok1 || !ok2 {
				return fmt.Errorf("vm_hooks: delegate_call_contract: bad pointer")
			}
			var addr Address
			copy(addr[:], addrBytes)
			retLen, gasCost, outcome, escape := c.Evm.DelegateCall(addr, data, gas)
			if escape != nil {
				c.Tracer.OnEscape("delegate_call_contract", escape)
				return escape
			}
			if !c.chargeGas(gasCost) {
				return errOutOfInk
			}
			c.ReturnDataLen = retLen
			c.Memory.WriteUint32Le(retLenPtr, retLen)
			c.reportAdvanced("delegate_call_contract", data, dataPtr, dataLen, gasCost)
			stack[0] = uint64(outcome)
			return nil
		},
	},
	{
		Name:    "static_call_contract",
		Params:  []ValueType{valueTypeI32, valueTypeI32, valueTypeI32, valueTypeI64, valueTypeI32},
		Results: []ValueType{valueTypeI32},
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			addrPtr, dataPtr, dataLen, gas, retLenPtr :=
				u32(stack[0]), u32(stack[1]), u32(stack[2]), stack[3], u32(stack[4])
			addrBytes, ok1 := c.Memory.Read(addrPtr, 20)
			data, ok2 := c.Memory.Read(dataPtr, dataLen)
			if !ok1 || !ok2 {
				return fmt.Errorf("vm_hooks: static_call_contract: bad pointer")
			}
			var addr Address
			copy(addr[:], addrBytes)
			retLen, gasCost, outcome, escape := c.Evm.StaticCall(addr, data, gas)
			if escape != nil {
				c.Tracer.OnEscape("static_call_contract", escape)
				return escape
			}
			if !c.chargeGas(gasCost) {
				return errOutOfInk
			}
			c.ReturnDataLen = retLen
			c.Memory.WriteUint32Le(retLenPtr, retLen)
			c.reportAdvanced("static_call_contract", data, dataPtr, dataLen, gasCost)
			stack[0] = uint64(outcome)
			return nil
		},
	},
	{
		Name:    "create1",
		Params:  []ValueType{valueTypeI32, valueTypeI32, valueTypeI32, valueTypeI32, valueTypeI32},
		Results: []ValueType{valueTypeI32},
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			codePtr, codeLen, endowmentPtr, contractPtr, retLenPtr :=
				u32(stack[0]), u32(stack[1]), u32(stack[2]), u32(stack[3]), u32(stack[4])
			code, ok1 := c.Memory.Read(codePtr, codeLen)
			endowmentBytes, ok2 := c.Memory.Read(endowmentPtr, 32)
			if !ok1 || !ok2 {
				return fmt.Errorf("vm_hooks: create1: bad pointer")
			}
			var endowment Bytes32
			copy(endowment[:], endowmentBytes)
			addr, retLen, gasCost, escape := c.Evm.Create1(code, endowment, c.gasLeft())
			if escape != nil {
				c.Tracer.OnEscape("create1", escape)
				return escape
			}
			if !c.chargeGas(gasCost) {
				return errOutOfInk
			}
			c.ReturnDataLen = retLen
			c.Memory.WriteUint32Le(retLenPtr, retLen)
			c.reportAdvanced("create1", code, codePtr, codeLen, gasCost)
			if addr.Failed {
				stack[0] = 1
				return nil
			}
			c.Memory.Write(contractPtr, addr.Value[:])
			stack[0] = 0
			return nil
		},
	},
	{
		Name:    "create2",
		Params:  []ValueType{valueTypeI32, valueTypeI32, valueTypeI32, valueTypeI32, valueTypeI32, valueTypeI32},
		Results: []ValueType{valueTypeI32},
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			codePtr, codeLen, endowmentPtr, saltPtr, contractPtr, retLenPtr :=
				u32(stack[0]), u32(stack[1]), u32(stack[2]), u32(stack[3]), u32(stack[4]), u32(stack[5])
			code, ok1 := c.Memory.Read(codePtr, codeLen)
			endowmentBytes, ok2 := c.Memory.Read(endowmentPtr, 32)
			saltBytes, ok3 := c.Memory.Read(saltPtr, 32)
			if !ok1 || !ok2 || !ok3 {
				return fmt.Errorf("vm_hooks: create2: bad pointer")
			}
			var endowment, salt Bytes32
			copy(endowment[:], endowmentBytes)
			copy(salt[:], saltBytes)
			addr, retLen, gasCost, escape := c.Evm.Create2(code, endowment, salt, c.gasLeft())
			if escape != nil {
				c.Tracer.OnEscape("create2", escape)
				return escape
			}
			if !c.chargeGas(gasCost) {
				return errOutOfInk
			}
			c.ReturnDataLen = retLen
			c.Memory.WriteUint32Le(retLenPtr, retLen)
			c.reportAdvanced("create2", code, codePtr, codeLen, gasCost)
			if addr.Failed {
				stack[0] = 1
				return nil
			}
			c.Memory.Write(contractPtr, addr.Value[:])
			stack[0] = 0
			return nil
		},
	},
	{
		Name:    "msg_reentrant",
		Params:  nil,
		Results: []ValueType{valueTypeI32},
		Invoke: func(c *Context, stack []uint64) error {
			if !c.chargeHostio() {
				return errOutOfInk
			}
			if c.Data.Reentrant {
				stack[0] = 1
			} else {
				stack[0] = 0
			}
			c.report("msg_reentrant", 0)
			return nil
		},
	},
	{
		Name:    "console_log_text",
		Params:  []ValueType{valueTypeI32, valueTypeI32},
		Results: nil,
		Invoke: func(c *Context, stack []uint64) error {
			ptr, length := u32(stack[0]), u32(stack[1])
			data, ok := c.Memory.Read(ptr, length)
			if !ok {
				return fmt.Errorf("vm_hooks: console_log_text: out of bounds read at %d len %d", ptr, length)
			}
			c.Tracer.OnConsoleLog(string(data))
			return nil
		},
	},
	{
		Name:    "console_log_i32",
		Params:  []ValueType{valueTypeI32},
		Results: nil,
		Invoke: func(c *Context, stack []uint64) error {
			c.Tracer.OnConsoleLog(fmt.Sprintf("%d", u32(stack[0])))
			return nil
		},
	},
	{
		Name:    "console_log_i64",
		Params:  []ValueType{valueTypeI64},
		Results: nil,
		Invoke: func(c *Context, stack []uint64) error {
			c.Tracer.OnConsoleLog(fmt.Sprintf("%d", stack[0]))
			return nil
		},
	},
}
