package account

import (
	"math/big"

	"github.com/Layr-Labs/multisig-account-go/pkg/execution"
	"github.com/Layr-Labs/multisig-account-go/pkg/hashing"
	"github.com/Layr-Labs/multisig-account-go/pkg/signatures"
	"github.com/Layr-Labs/multisig-account-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	ReasonOnlyOwnersApprove = "Only owners can approve a hash"
	ReasonRefundUnsupported = "Gas refunds are not supported"
	ReasonNotEnoughGas      = "Not enough gas to execute Safe transaction"
	ReasonTransactionFailed = "Transaction failed"
)

// transactionFromArgs reads the ten transaction fields shared by
// getTransactionHash, encodeTransactionData and execTransaction. The last
// field is the nonce for the first two.
func transactionFromArgs(args []interface{}) (*types.AccountTransaction, error) {
	op := types.CallKind(args[3].(uint8))
	if !op.Valid() {
		return nil, execution.Revertf("Invalid operation %d", args[3].(uint8))
	}
	tx := &types.AccountTransaction{
		To:             args[0].(common.Address),
		Value:          args[1].(*big.Int),
		Data:           args[2].([]byte),
		Operation:      op,
		SafeTxGas:      args[4].(*big.Int),
		BaseGas:        args[5].(*big.Int),
		GasPrice:       args[6].(*big.Int),
		GasToken:       args[7].(common.Address),
		RefundReceiver: args[8].(common.Address),
	}
	if nonce, ok := args[9].(*big.Int); ok {
		tx.Nonce = nonce
	}
	return tx, nil
}

func (a *Account) nonce(f *execution.Frame, _ []interface{}) ([]interface{}, error) {
	return []interface{}{store{f}.uint(SlotNonce)}, nil
}

func (a *Account) approveHash(f *execution.Frame, args []interface{}) ([]interface{}, error) {
	hash := common.Hash(args[0].([32]byte))
	s := store{f}
	if !s.isOwner(f.Caller()) {
		return nil, execution.Revert(ReasonOnlyOwnersApprove)
	}
	s.setUint(ApprovedHashSlot(f.Caller(), hash), big.NewInt(1))

	a.logger.Sugar().Infow("Approved hash", "account", f.Address().Hex(), "owner", f.Caller().Hex(), "hash", hash.Hex())
	return nil, nil
}

func (a *Account) approvedHashes(f *execution.Frame, args []interface{}) ([]interface{}, error) {
	owner := args[0].(common.Address)
	hash := common.Hash(args[1].([32]byte))
	return []interface{}{store{f}.uint(ApprovedHashSlot(owner, hash))}, nil
}

func (a *Account) signedMessages(f *execution.Frame, args []interface{}) ([]interface{}, error) {
	hash := common.Hash(args[0].([32]byte))
	return []interface{}{store{f}.uint(SignedMessageSlot(hash))}, nil
}

func (a *Account) getTransactionHash(f *execution.Frame, args []interface{}) ([]interface{}, error) {
	tx, err := transactionFromArgs(args)
	if err != nil {
		return nil, err
	}
	hash, err := hashing.TransactionHash(tx, f.Address(), f.ChainID())
	if err != nil {
		return nil, execution.Revert(err.Error())
	}
	return []interface{}{[32]byte(hash)}, nil
}

func (a *Account) encodeTransactionData(f *execution.Frame, args []interface{}) ([]interface{}, error) {
	tx, err := transactionFromArgs(args)
	if err != nil {
		return nil, err
	}
	data, err := hashing.EncodeTransactionData(tx, f.Address(), f.ChainID())
	if err != nil {
		return nil, execution.Revert(err.Error())
	}
	return []interface{}{data}, nil
}

func (a *Account) execTransaction(f *execution.Frame, args []interface{}) ([]interface{}, error) {
	tx, err := transactionFromArgs(args)
	if err != nil {
		return nil, err
	}
	sigs := args[9].([]byte)

	if tx.GasPrice.Sign() != 0 {
		return nil, execution.Revert(ReasonRefundUnsupported)
	}

	s := store{f}
	tx.Nonce = s.uint(SlotNonce)
	txData, err := hashing.EncodeTransactionData(tx, f.Address(), f.ChainID())
	if err != nil {
		return nil, execution.Revert(err.Error())
	}
	f.UseGas(execution.KeccakGas(len(txData)), "transaction hash")
	txHash := crypto.Keccak256Hash(txData)
	s.setUint(SlotNonce, new(big.Int).Add(tx.Nonce, big.NewInt(1)))

	req := &signatures.Request{
		DataHash:   txHash,
		Data:       txData,
		Signatures: sigs,
		Executor:   f.Caller(),
	}
	if err := a.verify(f, req, nil); err != nil {
		return nil, err
	}

	safeTxGas, err := toUint64(tx.SafeTxGas, "safeTxGas")
	if err != nil {
		return nil, err
	}
	remaining := f.Gas().Remaining()
	if safeTxGas > remaining || remaining < max(safeTxGas*64/63, safeTxGas+2500)+500 {
		return nil, execution.Revert(ReasonNotEnoughGas)
	}

	_, callErr := f.Invoke(tx.Operation, tx.To, tx.Value, tx.Data, safeTxGas)
	if callErr != nil && !execution.IsRevert(callErr) {
		return nil, callErr
	}
	success := callErr == nil

	if !success && safeTxGas == 0 {
		return nil, execution.Revert(ReasonTransactionFailed)
	}

	a.logger.Sugar().Infow("Executed transaction",
		"account", f.Address().Hex(),
		"txHash", txHash.Hex(),
		"nonce", tx.Nonce.String(),
		"to", tx.To.Hex(),
		"operation", tx.Operation.String(),
		"success", success,
	)
	return []interface{}{success}, nil
}
