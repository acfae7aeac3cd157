// Package account implements the multi-owner account as a native contract on
// the execution host: an owner linked list with a signature threshold,
// transaction execution authorized by packed owner signatures, message
// signing, EIP-1271 validation and isolated simulation.
package account

import (
	"fmt"
	"math/big"

	"github.com/Layr-Labs/multisig-account-go/pkg/execution"
	"github.com/Layr-Labs/multisig-account-go/pkg/hashing"
	"github.com/Layr-Labs/multisig-account-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Account is the account contract registered at a fixed address
type Account struct {
	address    common.Address
	accessor   common.Address
	logger     *zap.Logger
	dispatcher *execution.Dispatcher
}

// New creates the account code for address. accessor is the simulation
// helper the account delegates to from simulate.
func New(address, accessor common.Address, logger *zap.Logger) *Account {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Account{
		address:  address,
		accessor: accessor,
		logger:   logger,
	}

	a.dispatcher = execution.MustNewDispatcher(ABI).
		Handle("setup", a.setup).
		Handle("getOwners", a.getOwners).
		Handle("getThreshold", a.getThreshold).
		Handle("isOwner", a.isOwner).
		Handle("addOwnerWithThreshold", a.addOwnerWithThreshold).
		Handle("removeOwner", a.removeOwner).
		Handle("changeThreshold", a.changeThreshold).
		Handle("enableModule", a.enableModule).
		Handle("disableModule", a.disableModule).
		Handle("isModuleEnabled", a.isModuleEnabled).
		Handle("getModules", a.getModules).
		Handle("nonce", a.nonce).
		Handle("domainSeparator", a.domainSeparator).
		Handle("getChainId", a.getChainID).
		Handle("approveHash", a.approveHash).
		Handle("approvedHashes", a.approvedHashes).
		Handle("signedMessages", a.signedMessages).
		Handle("getTransactionHash", a.getTransactionHash).
		Handle("encodeTransactionData", a.encodeTransactionData).
		Handle("execTransaction", a.execTransaction).
		Handle("checkSignatures", a.checkSignatures).
		Handle("checkNSignatures", a.checkNSignatures).
		Handle("getMessageHash", a.getMessageHash).
		Handle("signMessage", a.signMessage).
		Handle("isValidSignature", a.isValidSignature).
		Handle("isValidSignature0", a.isValidSignatureHash).
		Handle("onERC721Received", a.onERC721Received).
		Handle("onERC1155Received", a.onERC1155Received).
		Handle("onERC1155BatchReceived", a.onERC1155BatchReceived).
		Handle("tokensReceived", a.tokensReceived).
		Handle("simulate", a.simulate).
		Handle("simulateAndRevert", a.simulateAndRevert).
		Handle("getStorageAt", a.getStorageAt).
		Fallback(a.receive)

	return a
}

// Address is where the account lives
func (a *Account) Address() common.Address {
	return a.address
}

// Accessor is the simulation helper used by simulate
func (a *Account) Accessor() common.Address {
	return a.accessor
}

// Run implements execution.Contract
func (a *Account) Run(frame *execution.Frame, input []byte) ([]byte, error) {
	return a.dispatcher.Run(frame, input)
}

// receive accepts plain value transfers
func (a *Account) receive(f *execution.Frame, input []byte) ([]byte, error) {
	if len(input) != 0 {
		return nil, &execution.RevertError{}
	}
	if f.Value().Sign() > 0 {
		a.logger.Sugar().Debugw("Received value", "account", f.Address().Hex(), "from", f.Caller().Hex(), "value", f.Value().String())
	}
	return nil, nil
}

// authorized restricts owner and module management to calls the account
// makes to itself, i.e. through an executed transaction.
func authorized(f *execution.Frame) error {
	if f.Caller() != f.Address() {
		return execution.Revert("Method can only be called from this contract")
	}
	return nil
}

func (a *Account) domainSeparator(f *execution.Frame, _ []interface{}) ([]interface{}, error) {
	return []interface{}{[32]byte(hashing.DomainSeparator(f.ChainID(), f.Address()))}, nil
}

func (a *Account) getChainID(f *execution.Frame, _ []interface{}) ([]interface{}, error) {
	return []interface{}{f.ChainID()}, nil
}

func (a *Account) getStorageAt(f *execution.Frame, args []interface{}) ([]interface{}, error) {
	offset := args[0].(*big.Int)
	length := args[1].(*big.Int)
	if !length.IsUint64() {
		return nil, execution.Revert("Invalid storage length")
	}

	n := length.Uint64()
	out := make([]byte, 0, 32*min(n, 1024))
	slot := new(big.Int).Set(offset)
	for i := uint64(0); i < n; i++ {
		out = append(out, f.GetState(common.BigToHash(slot)).Bytes()...)
		slot.Add(slot, big.NewInt(1))
	}
	return []interface{}{out}, nil
}

func (a *Account) onERC721Received(_ *execution.Frame, _ []interface{}) ([]interface{}, error) {
	return []interface{}{types.ERC721ReceivedValue}, nil
}

func (a *Account) onERC1155Received(_ *execution.Frame, _ []interface{}) ([]interface{}, error) {
	return []interface{}{types.ERC1155ReceivedValue}, nil
}

func (a *Account) onERC1155BatchReceived(_ *execution.Frame, _ []interface{}) ([]interface{}, error) {
	return []interface{}{types.ERC1155BatchReceivedValue}, nil
}

// tokensReceived accepts ERC777 transfers without bookkeeping
func (a *Account) tokensReceived(_ *execution.Frame, _ []interface{}) ([]interface{}, error) {
	return nil, nil
}

func toUint64(v *big.Int, what string) (uint64, error) {
	if v.Sign() < 0 || !v.IsUint64() {
		return 0, execution.Revert(fmt.Sprintf("%s out of range", what))
	}
	return v.Uint64(), nil
}
