package hashing

import (
	"math/big"
	"testing"

	"github.com/Layr-Labs/multisig-account-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeHashes(t *testing.T) {
	assert.Equal(t,
		common.HexToHash("0x47e79534a245952e8b16893a336b85a3d9ea9fa8c573f3d803afb92a79469218"),
		DomainSeparatorTypeHash)
	assert.Equal(t,
		common.HexToHash("0x60b3cbf8b4a223d68d641b3b6ddf9a298e7f33710cf3d3a9d1146b5a6150fbca"),
		MessageTypeHash)
	assert.Equal(t,
		common.HexToHash("0xbb8310d486368db6bd6f849402fdd73ad53d316b5a4b2644ad6efe0f941286d8"),
		TransactionTypeHash)
}

func TestDomainSeparator_Layout(t *testing.T) {
	account := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	chainID := big.NewInt(31337)

	// keccak256(typeHash ‖ uint256(chainId) ‖ address padded to 32 bytes)
	expected := crypto.Keccak256Hash(
		DomainSeparatorTypeHash.Bytes(),
		common.BigToHash(chainID).Bytes(),
		common.BytesToHash(account.Bytes()).Bytes(),
	)
	assert.Equal(t, expected, DomainSeparator(chainID, account))
}

func TestMessageHash_Layout(t *testing.T) {
	account := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	chainID := big.NewInt(1)
	message := []byte("hello owners")

	structHash := crypto.Keccak256Hash(MessageTypeHash.Bytes(), crypto.Keccak256(message))
	expected := crypto.Keccak256Hash([]byte{0x19, 0x01}, DomainSeparator(chainID, account).Bytes(), structHash.Bytes())

	assert.Equal(t, structHash, MessageStructHash(message))
	assert.Equal(t, expected, MessageHash(message, account, chainID))
}

func TestMessageHash_Deterministic(t *testing.T) {
	account := common.HexToAddress("0x1234567890123456789012345678901234567890")
	message := []byte{0xde, 0xad, 0xbe, 0xef}

	first := MessageHash(message, account, big.NewInt(1))
	second := MessageHash(message, account, big.NewInt(1))
	assert.Equal(t, first, second)
}

func TestMessageHash_BindsContext(t *testing.T) {
	accountA := common.HexToAddress("0x1234567890123456789012345678901234567890")
	accountB := common.HexToAddress("0x1234567890123456789012345678901234567891")
	message := []byte("payload")

	base := MessageHash(message, accountA, big.NewInt(1))

	tests := []struct {
		name    string
		account common.Address
		chainID *big.Int
		message []byte
	}{
		{"different chain", accountA, big.NewInt(11155111), message},
		{"different account", accountB, big.NewInt(1), message},
		{"different message", accountA, big.NewInt(1), []byte("payload!")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, MessageHash(tt.message, tt.account, tt.chainID))
		})
	}
}

func TestTransactionHash_NonceAndFields(t *testing.T) {
	account := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	chainID := big.NewInt(31337)

	tx := &types.AccountTransaction{
		To:    common.HexToAddress("0x00000000000000000000000000000000000000bb"),
		Value: big.NewInt(1),
		Data:  []byte{0x01},
		Nonce: big.NewInt(0),
	}

	h0, err := TransactionHash(tx, account, chainID)
	require.NoError(t, err)

	bumped := *tx
	bumped.Nonce = big.NewInt(1)
	h1, err := TransactionHash(&bumped, account, chainID)
	require.NoError(t, err)
	assert.NotEqual(t, h0, h1)

	delegated := *tx
	delegated.Operation = types.CallKindDelegateCall
	h2, err := TransactionHash(&delegated, account, chainID)
	require.NoError(t, err)
	assert.NotEqual(t, h0, h2)

	// nil numeric fields hash like zeros
	sparse := &types.AccountTransaction{To: tx.To, Value: big.NewInt(1), Data: []byte{0x01}}
	h3, err := TransactionHash(sparse, account, chainID)
	require.NoError(t, err)
	assert.Equal(t, h0, h3)

	data, err := EncodeTransactionData(tx, account, chainID)
	require.NoError(t, err)
	require.Len(t, data, 66)
	assert.Equal(t, []byte{0x19, 0x01}, data[:2])
	assert.Equal(t, DomainSeparator(chainID, account).Bytes(), data[2:34])

	_, err = TransactionHash(nil, account, chainID)
	assert.Error(t, err)
}

func TestEthSignedHash(t *testing.T) {
	digest := crypto.Keccak256Hash([]byte("digest"))
	expected := crypto.Keccak256Hash([]byte("\x19Ethereum Signed Message:\n32"), digest.Bytes())
	assert.Equal(t, expected, EthSignedHash(digest))
}

func TestEncodeMessageData_IsPreImage(t *testing.T) {
	account := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	message := []byte("pre-image")

	data := EncodeMessageData(message, account, big.NewInt(5))
	require.Len(t, data, 66)
	assert.Equal(t, []byte{0x19, 0x01}, data[:2])
	assert.Equal(t, MessageHash(message, account, big.NewInt(5)), crypto.Keccak256Hash(data))
}
