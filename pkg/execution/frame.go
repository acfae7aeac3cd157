package execution

import (
	"context"
	"math/big"

	"github.com/Layr-Labs/multisig-account-go/pkg/state"
	"github.com/Layr-Labs/multisig-account-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
)

// environment is shared by every frame of one top-level message
type environment struct {
	ctx    context.Context
	state  *state.StateDB
	origin common.Address

	// fatal is the first non-revert failure; it aborts the whole message
	fatal error
}

func (e *environment) setFatal(err error) {
	if e.fatal == nil {
		e.fatal = err
	}
}

type writeProtection struct{}

// Frame is the execution context of one contract invocation. Storage reads
// and writes act on Address(), which for a delegated frame is the storage
// identity of the delegating caller rather than the code being run.
type Frame struct {
	host *Host
	env  *environment

	self     common.Address
	code     common.Address
	caller   common.Address
	value    *big.Int
	gas      *GasMeter
	depth    int
	readOnly bool
	delegate bool
}

// Context returns the context of the top-level message
func (f *Frame) Context() context.Context { return f.env.ctx }

// Address is the storage identity of the frame
func (f *Frame) Address() common.Address { return f.self }

// CodeAddress is the address whose code is running
func (f *Frame) CodeAddress() common.Address { return f.code }

// Caller is the immediate caller; preserved across delegation
func (f *Frame) Caller() common.Address { return f.caller }

// Origin is the sender of the top-level message
func (f *Frame) Origin() common.Address { return f.env.origin }

// Value is the amount transferred into the frame; preserved across delegation
func (f *Frame) Value() *big.Int { return new(big.Int).Set(f.value) }

// IsDelegated reports whether the frame runs foreign code in the caller's storage
func (f *Frame) IsDelegated() bool { return f.delegate }

// IsReadOnly reports whether state writes are forbidden
func (f *Frame) IsReadOnly() bool { return f.readOnly }

// Depth is the call depth, 1 for the frame entered by a top-level message
func (f *Frame) Depth() int { return f.depth }

// Gas returns the frame's gas meter
func (f *Frame) Gas() *GasMeter { return f.gas }

// ChainID of the host
func (f *Frame) ChainID() *big.Int { return f.host.ChainID() }

// UseGas charges amount for work done natively by the contract
func (f *Frame) UseGas(amount uint64, descriptor string) {
	f.gas.ConsumeGas(amount, descriptor)
}

// GetState reads a slot of the frame's storage identity
func (f *Frame) GetState(slot common.Hash) common.Hash {
	cold := !f.env.state.SlotWarm(f.self, slot)
	f.gas.ConsumeGas(sloadGas(cold), "sload")
	return f.env.state.GetState(f.self, slot)
}

// SetState writes a slot of the frame's storage identity
func (f *Frame) SetState(slot, value common.Hash) {
	if f.readOnly {
		panic(writeProtection{})
	}
	cold := !f.env.state.SlotWarm(f.self, slot)
	current := f.env.state.GetState(f.self, slot)
	f.gas.ConsumeGas(sstoreGas(current, value, cold), "sstore")
	f.env.state.SetState(f.self, slot, value)
}

// Balance returns the balance of account
func (f *Frame) Balance(account common.Address) *big.Int {
	f.touch(account)
	return new(big.Int).Set(f.env.state.GetBalance(account))
}

// HasCode reports whether a contract is registered at account
func (f *Frame) HasCode(account common.Address) bool {
	f.touch(account)
	return f.host.HasCode(account)
}

func (f *Frame) touch(account common.Address) {
	if f.env.state.AddressWarm(account) {
		f.gas.ConsumeGas(params.WarmStorageReadCostEIP2929, "account access")
		return
	}
	f.gas.ConsumeGas(params.ColdAccountAccessCostEIP2929, "account access")
}

// Call runs to's code in to's storage with value transferred from this frame.
// gas 0 forwards everything allowed.
func (f *Frame) Call(to common.Address, value *big.Int, input []byte, gas uint64) ([]byte, error) {
	if value == nil {
		value = new(big.Int)
	}
	if f.readOnly && value.Sign() != 0 {
		panic(writeProtection{})
	}
	return f.call(to, value, input, gas, types.CallKindCall, f.readOnly)
}

// DelegateCall runs to's code in this frame's storage, keeping caller and value
func (f *Frame) DelegateCall(to common.Address, input []byte, gas uint64) ([]byte, error) {
	return f.call(to, f.value, input, gas, types.CallKindDelegateCall, f.readOnly)
}

// StaticCall is Call without value in which every state write reverts
func (f *Frame) StaticCall(to common.Address, input []byte, gas uint64) ([]byte, error) {
	return f.call(to, new(big.Int), input, gas, types.CallKindCall, true)
}

// Invoke dispatches on an account operation kind
func (f *Frame) Invoke(kind types.CallKind, to common.Address, value *big.Int, input []byte, gas uint64) ([]byte, error) {
	switch kind {
	case types.CallKindDelegateCall:
		return f.DelegateCall(to, input, gas)
	case types.CallKindCall:
		return f.Call(to, value, input, gas)
	default:
		return nil, Revertf("unsupported operation %d", kind)
	}
}

func (f *Frame) call(to common.Address, value *big.Int, input []byte, gas uint64, kind types.CallKind, readOnly bool) ([]byte, error) {
	if f.env.fatal != nil {
		return nil, f.env.fatal
	}
	if f.depth >= int(params.CallCreateDepth) {
		return nil, &RevertError{}
	}

	f.touch(to)
	transfersValue := kind == types.CallKindCall && value.Sign() != 0
	if transfersValue {
		f.gas.ConsumeGas(params.CallValueTransferGas, "value transfer")
	}

	childGas := callGasCap(f.gas.Remaining(), gas)
	stipend := uint64(0)
	if transfersValue {
		stipend = params.CallStipend
	}

	child := &Frame{
		host:     f.host,
		env:      f.env,
		gas:      NewGasMeter(childGas + stipend),
		depth:    f.depth + 1,
		readOnly: readOnly,
	}
	if kind == types.CallKindDelegateCall {
		child.self = f.self
		child.code = to
		child.caller = f.caller
		child.value = f.value
		child.delegate = true
	} else {
		child.self = to
		child.code = to
		child.caller = f.self
		child.value = value
	}

	ret, err := f.host.enter(child, input, transfersValue)

	used := child.gas.Used()
	if used > stipend {
		f.gas.ConsumeGas(used-stipend, "call")
	}
	return ret, err
}
