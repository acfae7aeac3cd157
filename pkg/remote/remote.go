// Package remote reads an account deployed on a chain through a JSON-RPC
// endpoint and serves it to the signature validator.
package remote

import (
	"context"
	stderrors "errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/Layr-Labs/multisig-account-go/pkg/account"
	"github.com/Layr-Labs/multisig-account-go/pkg/types"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ChainReader is the part of ethclient.Client the reader needs
type ChainReader interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error)
}

// Reader implements signatures.OwnerRegistry, signatures.ApprovedHashStore and
// signatures.ContractVerifier against a deployed account.
type Reader struct {
	client  ChainReader
	account common.Address
	abi     abi.ABI
	logger  *zap.Logger

	// BlockNumber pins reads to a block; nil reads latest
	BlockNumber *big.Int
}

// NewReader binds to the account at address
func NewReader(client ChainReader, address common.Address, logger *zap.Logger) (*Reader, error) {
	if client == nil {
		return nil, fmt.Errorf("chain client cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	parsed, err := abi.JSON(strings.NewReader(account.ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse account ABI: %w", err)
	}
	return &Reader{client: client, account: address, abi: parsed, logger: logger}, nil
}

// Dial connects to rpcURL and binds to the account at address
func Dial(ctx context.Context, rpcURL string, address common.Address, logger *zap.Logger) (*Reader, *ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to dial %s", rpcURL)
	}
	r, err := NewReader(client, address, logger)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return r, client, nil
}

func (r *Reader) call(ctx context.Context, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := r.abi.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s", method)
	}
	ret, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, r.BlockNumber)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to call %s on %s", method, to.Hex())
	}
	out, err := r.abi.Unpack(method, ret)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s from %s", method, to.Hex())
	}
	return out, nil
}

// GetOwners lists the account's owners
func (r *Reader) GetOwners(ctx context.Context) ([]common.Address, error) {
	out, err := r.call(ctx, r.account, "getOwners")
	if err != nil {
		return nil, err
	}
	return out[0].([]common.Address), nil
}

// IsOwner implements signatures.OwnerRegistry
func (r *Reader) IsOwner(ctx context.Context, owner common.Address) (bool, error) {
	out, err := r.call(ctx, r.account, "isOwner", owner)
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

// GetThreshold implements signatures.OwnerRegistry
func (r *Reader) GetThreshold(ctx context.Context) (uint64, error) {
	out, err := r.call(ctx, r.account, "getThreshold")
	if err != nil {
		return 0, err
	}
	t := out[0].(*big.Int)
	if !t.IsUint64() {
		return 0, fmt.Errorf("threshold %s out of range", t)
	}
	return t.Uint64(), nil
}

// IsHashApproved implements signatures.ApprovedHashStore
func (r *Reader) IsHashApproved(ctx context.Context, owner common.Address, hash common.Hash) (bool, error) {
	out, err := r.call(ctx, r.account, "approvedHashes", owner, [32]byte(hash))
	if err != nil {
		return false, err
	}
	return out[0].(*big.Int).Sign() != 0, nil
}

// IsValidSignature implements signatures.ContractVerifier with the legacy
// isValidSignature(bytes,bytes) of signer. A signer without code or one whose
// call reverts rejects the signature.
func (r *Reader) IsValidSignature(ctx context.Context, signer common.Address, data, sig []byte) (bool, error) {
	code, err := r.client.CodeAt(ctx, signer, r.BlockNumber)
	if err != nil {
		return false, errors.Wrapf(err, "failed to read code of %s", signer.Hex())
	}
	if len(code) == 0 {
		return false, nil
	}

	input, err := r.abi.Pack("isValidSignature", nonNil(data), nonNil(sig))
	if err != nil {
		return false, errors.Wrap(err, "failed to encode isValidSignature")
	}
	ret, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &signer, Data: input}, r.BlockNumber)
	if err != nil {
		if !isRevert(err) {
			return false, errors.Wrapf(err, "failed to call isValidSignature on %s", signer.Hex())
		}
		r.logger.Sugar().Debugw("Contract signer rejected signature", "signer", signer.Hex(), "error", err)
		return false, nil
	}
	if len(ret) < 4 {
		return false, nil
	}
	var magic [4]byte
	copy(magic[:], ret[:4])
	return magic == types.LegacyEIP1271MagicValue, nil
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

// isRevert recognizes execution reverts, which JSON-RPC reports with error data
func isRevert(err error) bool {
	var de rpc.DataError
	return stderrors.As(err, &de)
}
