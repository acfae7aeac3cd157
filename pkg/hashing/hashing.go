// Package hashing builds the canonical digests owners sign. Every digest is
// bound to a chain id and a verifying account address so a signature made
// for one context never recovers to an owner in another.
package hashing

import (
	"fmt"
	"math/big"

	"github.com/Layr-Labs/multisig-account-go/pkg/types"
	"github.com/Layr-Labs/multisig-account-go/pkg/util"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// DomainSeparatorTypeHash is keccak256("EIP712Domain(uint256 chainId,address verifyingContract)")
	DomainSeparatorTypeHash = crypto.Keccak256Hash([]byte("EIP712Domain(uint256 chainId,address verifyingContract)"))

	// MessageTypeHash is keccak256("SafeMessage(bytes message)")
	MessageTypeHash = crypto.Keccak256Hash([]byte("SafeMessage(bytes message)"))

	// TransactionTypeHash covers every field of an AccountTransaction
	TransactionTypeHash = crypto.Keccak256Hash([]byte(
		"SafeTx(address to,uint256 value,bytes data,uint8 operation,uint256 safeTxGas,uint256 baseGas,uint256 gasPrice,address gasToken,address refundReceiver,uint256 nonce)",
	))
)

var (
	domainArgs = abi.Arguments{
		{Type: util.Bytes32Type},
		{Type: util.Uint256Type},
		{Type: util.AddressType},
	}
	messageArgs = abi.Arguments{
		{Type: util.Bytes32Type},
		{Type: util.Bytes32Type},
	}
	transactionArgs = abi.Arguments{
		{Type: util.Bytes32Type},
		{Type: util.AddressType},
		{Type: util.Uint256Type},
		{Type: util.Bytes32Type},
		{Type: util.Uint8Type},
		{Type: util.Uint256Type},
		{Type: util.Uint256Type},
		{Type: util.Uint256Type},
		{Type: util.AddressType},
		{Type: util.AddressType},
		{Type: util.Uint256Type},
	}
)

// DomainSeparator binds digests to a chain and a verifying account
func DomainSeparator(chainID *big.Int, verifyingContract common.Address) common.Hash {
	if chainID == nil {
		chainID = new(big.Int)
	}
	encoded, err := domainArgs.Pack([32]byte(DomainSeparatorTypeHash), chainID, verifyingContract)
	if err != nil {
		panic(fmt.Sprintf("failed to encode domain separator: %v", err))
	}
	return crypto.Keccak256Hash(encoded)
}

// MessageStructHash hashes the typed message payload
func MessageStructHash(message []byte) common.Hash {
	encoded, err := messageArgs.Pack([32]byte(MessageTypeHash), [32]byte(crypto.Keccak256Hash(message)))
	if err != nil {
		panic(fmt.Sprintf("failed to encode message struct: %v", err))
	}
	return crypto.Keccak256Hash(encoded)
}

// TypedDataHash returns keccak256(0x19 ‖ 0x01 ‖ domainSeparator ‖ structHash)
func TypedDataHash(domainSeparator, structHash common.Hash) common.Hash {
	return crypto.Keccak256Hash([]byte{0x19, 0x01}, domainSeparator.Bytes(), structHash.Bytes())
}

// MessageHash is the digest owners sign to approve a raw message for the
// given account on the given chain.
func MessageHash(message []byte, verifyingContract common.Address, chainID *big.Int) common.Hash {
	return TypedDataHash(DomainSeparator(chainID, verifyingContract), MessageStructHash(message))
}

// EncodeMessageData returns the pre-image of MessageHash, the bytes handed to
// contract signers when a message signature is checked.
func EncodeMessageData(message []byte, verifyingContract common.Address, chainID *big.Int) []byte {
	domain := DomainSeparator(chainID, verifyingContract)
	structHash := MessageStructHash(message)

	out := make([]byte, 0, 66)
	out = append(out, 0x19, 0x01)
	out = append(out, domain.Bytes()...)
	return append(out, structHash.Bytes()...)
}

// EncodeTransactionData returns the pre-image of TransactionHash
func EncodeTransactionData(tx *types.AccountTransaction, verifyingContract common.Address, chainID *big.Int) ([]byte, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction cannot be nil")
	}
	normalized := *tx
	normalized.Normalize()

	encoded, err := transactionArgs.Pack(
		[32]byte(TransactionTypeHash),
		normalized.To,
		normalized.Value,
		[32]byte(crypto.Keccak256Hash(normalized.Data)),
		uint8(normalized.Operation),
		normalized.SafeTxGas,
		normalized.BaseGas,
		normalized.GasPrice,
		normalized.GasToken,
		normalized.RefundReceiver,
		normalized.Nonce,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction: %w", err)
	}

	structHash := crypto.Keccak256Hash(encoded)
	domain := DomainSeparator(chainID, verifyingContract)

	out := make([]byte, 0, 66)
	out = append(out, 0x19, 0x01)
	out = append(out, domain.Bytes()...)
	out = append(out, structHash.Bytes()...)
	return out, nil
}

// TransactionHash is the digest owners sign to authorize an account transaction
func TransactionHash(tx *types.AccountTransaction, verifyingContract common.Address, chainID *big.Int) (common.Hash, error) {
	data, err := EncodeTransactionData(tx, verifyingContract, chainID)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(data), nil
}

// EthSignedHash wraps a digest with the personal-sign prefix:
// keccak256("\x19Ethereum Signed Message:\n32" ‖ digest)
func EthSignedHash(digest common.Hash) common.Hash {
	return common.BytesToHash(accounts.TextHash(digest.Bytes()))
}
