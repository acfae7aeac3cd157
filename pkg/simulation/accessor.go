// Package simulation implements the helper contract behind the account's
// isolated simulation. The helper only runs inside a delegated frame; it
// performs the requested call, measures its gas and then always aborts with a
// SimulationResult error so that nothing it did survives.
package simulation

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/Layr-Labs/multisig-account-go/pkg/execution"
	"github.com/Layr-Labs/multisig-account-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// NotDelegatedReason is the revert reason of a direct invocation
const NotDelegatedReason = "SimulateTxAccessor should only be called via delegatecall"

// ErrNotDelegated is returned by DecodeResult when the helper refused to run
var ErrNotDelegated = errors.New(NotDelegatedReason)

// ErrNoResult is returned by DecodeResult for abort data that is not a SimulationResult
var ErrNoResult = errors.New("simulation did not produce a result")

// ABI of the helper, including the custom error carrying the result
const ABI = `[
	{"type":"function","name":"simulate","stateMutability":"nonpayable",
	 "inputs":[
		{"name":"to","type":"address"},
		{"name":"value","type":"uint256"},
		{"name":"data","type":"bytes"},
		{"name":"operation","type":"uint8"}],
	 "outputs":[]},
	{"type":"error","name":"SimulationResult","inputs":[
		{"name":"success","type":"bool"},
		{"name":"gasUsed","type":"uint256"},
		{"name":"returnData","type":"bytes"}]}
]`

var dispatcherABI = execution.MustNewDispatcher(ABI).ABI()

// Accessor is the simulation helper contract
type Accessor struct {
	address    common.Address
	logger     *zap.Logger
	dispatcher *execution.Dispatcher
}

// NewAccessor creates the helper that will be registered at address
func NewAccessor(address common.Address, logger *zap.Logger) *Accessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Accessor{address: address, logger: logger}
	a.dispatcher = execution.MustNewDispatcher(ABI).
		Handle("simulate", a.simulate)
	return a
}

// Address is where the helper lives
func (a *Accessor) Address() common.Address {
	return a.address
}

// Run implements execution.Contract
func (a *Accessor) Run(frame *execution.Frame, input []byte) ([]byte, error) {
	return a.dispatcher.Run(frame, input)
}

func (a *Accessor) simulate(f *execution.Frame, args []interface{}) ([]interface{}, error) {
	// Only a delegated frame borrowing another contract's storage may run this.
	if !f.IsDelegated() || f.Address() == a.address {
		return nil, execution.Revert(NotDelegatedReason)
	}

	to := args[0].(common.Address)
	value := args[1].(*big.Int)
	data := args[2].([]byte)
	kind := types.CallKind(args[3].(uint8))
	if !kind.Valid() {
		return nil, execution.Revertf("Invalid operation %d", args[3].(uint8))
	}

	startGas := f.Gas().Remaining()
	ret, err := f.Invoke(kind, to, value, data, 0)
	gasUsed := startGas - f.Gas().Remaining()

	success := true
	if err != nil {
		re, ok := execution.AsRevert(err)
		if !ok {
			return nil, err
		}
		success = false
		ret = re.Data
	}

	a.logger.Sugar().Debugw("Simulated call",
		"account", f.Address().Hex(),
		"origin", f.Origin().Hex(),
		"depth", f.Depth(),
		"readOnly", f.IsReadOnly(),
		"to", to.Hex(),
		"operation", kind.String(),
		"success", success,
		"gasUsed", gasUsed,
	)

	payload, err := EncodeResult(&types.SimulationResult{Success: success, GasUsed: gasUsed, ReturnData: ret})
	if err != nil {
		return nil, fmt.Errorf("failed to encode simulation result: %w", err)
	}
	return nil, execution.RevertWithData(payload)
}

// EncodeCall builds the calldata of simulate(to, value, data, operation)
func EncodeCall(to common.Address, value *big.Int, data []byte, kind types.CallKind) ([]byte, error) {
	if value == nil {
		value = new(big.Int)
	}
	if data == nil {
		data = []byte{}
	}
	return dispatcherABI.Pack("simulate", to, value, data, uint8(kind))
}

// DecodeResult turns the helper's abort data into a SimulationResult
func DecodeResult(abort []byte) (*types.SimulationResult, error) {
	values, err := execution.UnpackCustomError(dispatcherABI.Errors["SimulationResult"], abort)
	if err != nil {
		if reason := execution.RevertReason(execution.RevertWithData(abort)); reason == NotDelegatedReason {
			return nil, ErrNotDelegated
		}
		return nil, fmt.Errorf("%w: %v", ErrNoResult, err)
	}

	gasUsed := values[1].(*big.Int)
	if !gasUsed.IsUint64() {
		return nil, fmt.Errorf("%w: gas used overflows", ErrNoResult)
	}
	return &types.SimulationResult{
		Success:    values[0].(bool),
		GasUsed:    gasUsed.Uint64(),
		ReturnData: values[2].([]byte),
	}, nil
}

// EncodeResult is the payload the helper aborts with
func EncodeResult(res *types.SimulationResult) ([]byte, error) {
	data := res.ReturnData
	if data == nil {
		data = []byte{}
	}
	return execution.PackCustomError(dispatcherABI.Errors["SimulationResult"], res.Success, new(big.Int).SetUint64(res.GasUsed), data)
}
