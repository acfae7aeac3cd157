package account

import (
	"math/big"

	"github.com/Layr-Labs/multisig-account-go/pkg/execution"
	"github.com/Layr-Labs/multisig-account-go/pkg/simulation"
	"github.com/Layr-Labs/multisig-account-go/pkg/types"
	"github.com/Layr-Labs/multisig-account-go/pkg/util"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const (
	ReasonNoAccessor = "Simulation accessor not configured"
	ReasonNoResult   = "Simulation did not abort with a result"
)

var simulateAndRevertResult = abi.Arguments{
	{Type: util.BoolType},
	{Type: util.BytesType},
}

// simulate delegates to the accessor, which always aborts. The abort payload
// is decoded into a normal return value; any other outcome reverts.
func (a *Account) simulate(f *execution.Frame, args []interface{}) ([]interface{}, error) {
	if a.accessor == (common.Address{}) {
		return nil, execution.Revert(ReasonNoAccessor)
	}

	input, err := simulation.EncodeCall(
		args[0].(common.Address),
		args[1].(*big.Int),
		args[2].([]byte),
		types.CallKind(args[3].(uint8)),
	)
	if err != nil {
		return nil, execution.Revert(err.Error())
	}

	_, err = f.DelegateCall(a.accessor, input, 0)
	if err == nil {
		return nil, execution.Revert(ReasonNoResult)
	}
	abort, ok := execution.AsRevert(err)
	if !ok {
		return nil, err
	}

	res, decodeErr := simulation.DecodeResult(abort.Data)
	if decodeErr != nil {
		if len(abort.Data) == 0 {
			return nil, execution.Revert(ReasonNoResult)
		}
		// The helper refused to run or failed before producing a result.
		return nil, execution.RevertWithData(abort.Data)
	}

	return []interface{}{res.Success, new(big.Int).SetUint64(res.GasUsed), res.ReturnData}, nil
}

// simulateAndRevert delegates to targetContract and always reverts with
// abi.encode(success, returnData), leaving no trace in storage.
func (a *Account) simulateAndRevert(f *execution.Frame, args []interface{}) ([]interface{}, error) {
	target := args[0].(common.Address)
	payload := args[1].([]byte)

	ret, err := f.DelegateCall(target, payload, 0)
	success := err == nil
	if err != nil {
		abort, ok := execution.AsRevert(err)
		if !ok {
			return nil, err
		}
		ret = abort.Data
	}

	encoded, err := simulateAndRevertResult.Pack(success, nonNil(ret))
	if err != nil {
		return nil, err
	}
	return nil, execution.RevertWithData(encoded)
}

// DecodeSimulateAndRevert reads the revert payload of simulateAndRevert
func DecodeSimulateAndRevert(data []byte) (bool, []byte, error) {
	values, err := simulateAndRevertResult.Unpack(data)
	if err != nil {
		return false, nil, err
	}
	return values[0].(bool), values[1].([]byte), nil
}
