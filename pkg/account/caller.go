package account

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Layr-Labs/multisig-account-go/pkg/execution"
	"github.com/Layr-Labs/multisig-account-go/pkg/simulation"
	"github.com/Layr-Labs/multisig-account-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
)

// Caller is a typed view of an account on a host. Read methods run as
// discarded calls; a reverted read is returned as its *execution.RevertError.
type Caller struct {
	host    *execution.Host
	address common.Address
}

// NewCaller binds to the account at address
func NewCaller(host *execution.Host, address common.Address) *Caller {
	return &Caller{host: host, address: address}
}

// Address is the bound account
func (c *Caller) Address() common.Address {
	return c.address
}

// Host is the host the account runs on
func (c *Caller) Host() *execution.Host {
	return c.host
}

func (c *Caller) message(from common.Address, value *big.Int, method string, args ...interface{}) (*execution.Message, error) {
	data, err := accountABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", method, err)
	}
	return &execution.Message{From: from, To: c.address, Value: value, Data: data}, nil
}

// Call runs method without committing and decodes its outputs
func (c *Caller) Call(ctx context.Context, from common.Address, method string, args ...interface{}) ([]interface{}, error) {
	msg, err := c.message(from, nil, method, args...)
	if err != nil {
		return nil, err
	}
	receipt, err := c.host.Call(ctx, msg)
	if err != nil {
		return nil, err
	}
	if !receipt.Success {
		return nil, receipt.Err
	}
	out, err := accountABI.Unpack(method, receipt.ReturnData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", method, err)
	}
	return out, nil
}

// Transact runs method and commits its effects unless it reverted. A revert is
// reported in the receipt, not as an error.
func (c *Caller) Transact(ctx context.Context, from common.Address, value *big.Int, method string, args ...interface{}) (*execution.Receipt, error) {
	msg, err := c.message(from, value, method, args...)
	if err != nil {
		return nil, err
	}
	return c.host.Transact(ctx, msg)
}

func (c *Caller) GetOwners(ctx context.Context) ([]common.Address, error) {
	out, err := c.Call(ctx, common.Address{}, "getOwners")
	if err != nil {
		return nil, err
	}
	return out[0].([]common.Address), nil
}

func (c *Caller) GetThreshold(ctx context.Context) (uint64, error) {
	out, err := c.Call(ctx, common.Address{}, "getThreshold")
	if err != nil {
		return 0, err
	}
	return out[0].(*big.Int).Uint64(), nil
}

func (c *Caller) IsOwner(ctx context.Context, owner common.Address) (bool, error) {
	out, err := c.Call(ctx, common.Address{}, "isOwner", owner)
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

func (c *Caller) GetModules(ctx context.Context) ([]common.Address, error) {
	out, err := c.Call(ctx, common.Address{}, "getModules")
	if err != nil {
		return nil, err
	}
	return out[0].([]common.Address), nil
}

func (c *Caller) Nonce(ctx context.Context) (*big.Int, error) {
	out, err := c.Call(ctx, common.Address{}, "nonce")
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (c *Caller) DomainSeparator(ctx context.Context) (common.Hash, error) {
	out, err := c.Call(ctx, common.Address{}, "domainSeparator")
	if err != nil {
		return common.Hash{}, err
	}
	return common.Hash(out[0].([32]byte)), nil
}

// GetTransactionHash hashes tx with its own nonce field
func (c *Caller) GetTransactionHash(ctx context.Context, tx *types.AccountTransaction) (common.Hash, error) {
	n := *tx
	n.Normalize()
	out, err := c.Call(ctx, common.Address{}, "getTransactionHash",
		n.To, n.Value, nonNil(n.Data), uint8(n.Operation), n.SafeTxGas, n.BaseGas, n.GasPrice, n.GasToken, n.RefundReceiver, n.Nonce)
	if err != nil {
		return common.Hash{}, err
	}
	return common.Hash(out[0].([32]byte)), nil
}

func (c *Caller) GetMessageHash(ctx context.Context, message []byte) (common.Hash, error) {
	out, err := c.Call(ctx, common.Address{}, "getMessageHash", nonNil(message))
	if err != nil {
		return common.Hash{}, err
	}
	return common.Hash(out[0].([32]byte)), nil
}

// IsHashApproved reads approvedHashes[owner][hash]
func (c *Caller) IsHashApproved(ctx context.Context, owner common.Address, hash common.Hash) (bool, error) {
	out, err := c.Call(ctx, common.Address{}, "approvedHashes", owner, [32]byte(hash))
	if err != nil {
		return false, err
	}
	return out[0].(*big.Int).Sign() != 0, nil
}

// IsMessageSigned reads signedMessages[hash]
func (c *Caller) IsMessageSigned(ctx context.Context, hash common.Hash) (bool, error) {
	out, err := c.Call(ctx, common.Address{}, "signedMessages", [32]byte(hash))
	if err != nil {
		return false, err
	}
	return out[0].(*big.Int).Sign() != 0, nil
}

// IsValidSignature runs the legacy EIP-1271 check. A revert means the
// signature was rejected and is reported as false with its reason.
func (c *Caller) IsValidSignature(ctx context.Context, message, sig []byte) (bool, string, error) {
	out, err := c.Call(ctx, common.Address{}, "isValidSignature", nonNil(message), nonNil(sig))
	if err != nil {
		if execution.IsRevert(err) {
			return false, execution.RevertReason(err), nil
		}
		return false, "", err
	}
	return out[0].([4]byte) == types.LegacyEIP1271MagicValue, "", nil
}

// IsValidSignatureHash runs the bytes32 EIP-1271 check
func (c *Caller) IsValidSignatureHash(ctx context.Context, hash common.Hash, sig []byte) (bool, string, error) {
	out, err := c.Call(ctx, common.Address{}, "isValidSignature0", [32]byte(hash), nonNil(sig))
	if err != nil {
		if execution.IsRevert(err) {
			return false, execution.RevertReason(err), nil
		}
		return false, "", err
	}
	return out[0].([4]byte) == types.EIP1271MagicValue, "", nil
}

// CheckSignatures validates sigs over dataHash against the stored threshold.
// It returns the revert of a failed check.
func (c *Caller) CheckSignatures(ctx context.Context, executor common.Address, dataHash common.Hash, data, sigs []byte) error {
	_, err := c.Call(ctx, executor, "checkSignatures", [32]byte(dataHash), nonNil(data), nonNil(sigs))
	return err
}

// Simulate runs the call in isolation and reports what it would have done
func (c *Caller) Simulate(ctx context.Context, from, to common.Address, value *big.Int, data []byte, kind types.CallKind) (*types.SimulationResult, error) {
	if value == nil {
		value = new(big.Int)
	}
	out, err := c.Call(ctx, from, "simulate", to, value, nonNil(data), uint8(kind))
	if err != nil {
		if reason := execution.RevertReason(err); reason == simulation.NotDelegatedReason {
			return nil, simulation.ErrNotDelegated
		}
		return nil, err
	}
	gasUsed := out[1].(*big.Int)
	if !gasUsed.IsUint64() {
		return nil, fmt.Errorf("simulated gas overflows: %s", gasUsed)
	}
	return &types.SimulationResult{
		Success:    out[0].(bool),
		GasUsed:    gasUsed.Uint64(),
		ReturnData: out[2].([]byte),
	}, nil
}

// ExecTransaction submits tx with sigs from executor. The nonce field of tx
// is ignored; the account always uses its current nonce.
func (c *Caller) ExecTransaction(ctx context.Context, executor common.Address, tx *types.AccountTransaction, sigs []byte) (*execution.Receipt, error) {
	n := *tx
	n.Normalize()
	return c.Transact(ctx, executor, nil, "execTransaction",
		n.To, n.Value, nonNil(n.Data), uint8(n.Operation), n.SafeTxGas, n.BaseGas, n.GasPrice, n.GasToken, n.RefundReceiver, nonNil(sigs))
}

// ApproveHash records owner's on-chain approval of hash
func (c *Caller) ApproveHash(ctx context.Context, owner common.Address, hash common.Hash) (*execution.Receipt, error) {
	return c.Transact(ctx, owner, nil, "approveHash", [32]byte(hash))
}

// ExecSuccess decodes execTransaction's boolean result
func ExecSuccess(receipt *execution.Receipt) (bool, error) {
	if receipt == nil || !receipt.Success {
		return false, nil
	}
	out, err := accountABI.Unpack("execTransaction", receipt.ReturnData)
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}
