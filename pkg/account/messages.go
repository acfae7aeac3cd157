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

func (a *Account) getMessageHash(f *execution.Frame, args []interface{}) ([]interface{}, error) {
	message := args[0].([]byte)
	f.UseGas(execution.KeccakGas(len(message)), "message hash")
	return []interface{}{[32]byte(hashing.MessageHash(message, f.Address(), f.ChainID()))}, nil
}

// signMessage marks a message as signed by the account itself, after which
// isValidSignature accepts it with an empty signature.
func (a *Account) signMessage(f *execution.Frame, args []interface{}) ([]interface{}, error) {
	if err := authorized(f); err != nil {
		return nil, err
	}
	message := args[0].([]byte)
	hash := hashing.MessageHash(message, f.Address(), f.ChainID())
	store{f}.setUint(SignedMessageSlot(hash), big.NewInt(1))

	a.logger.Sugar().Infow("Signed message", "account", f.Address().Hex(), "messageHash", hash.Hex())
	return nil, nil
}

// validateMessage checks sig over message: an empty signature requires the
// message to be signed on record, anything else must meet the threshold.
func (a *Account) validateMessage(f *execution.Frame, message, sig []byte) error {
	f.UseGas(execution.KeccakGas(len(message)), "message hash")
	messageData := hashing.EncodeMessageData(message, f.Address(), f.ChainID())
	messageHash := crypto.Keccak256Hash(messageData)

	if len(sig) == 0 {
		if !(store{f}).messageSigned(messageHash) {
			return execution.Revert(signatures.ErrHashNotApproved.Error())
		}
		return nil
	}

	return a.verify(f, &signatures.Request{
		DataHash:   messageHash,
		Data:       messageData,
		Signatures: sig,
	}, nil)
}

// isValidSignature is the legacy EIP-1271 form over raw message bytes
func (a *Account) isValidSignature(f *execution.Frame, args []interface{}) ([]interface{}, error) {
	if err := a.validateMessage(f, args[0].([]byte), args[1].([]byte)); err != nil {
		return nil, err
	}
	return []interface{}{types.LegacyEIP1271MagicValue}, nil
}

// isValidSignatureHash is the EIP-1271 form over a 32-byte hash, which is
// validated as the message abi.encode(hash).
func (a *Account) isValidSignatureHash(f *execution.Frame, args []interface{}) ([]interface{}, error) {
	hash := common.Hash(args[0].([32]byte))
	if err := a.validateMessage(f, hash.Bytes(), args[1].([]byte)); err != nil {
		return nil, err
	}
	return []interface{}{types.EIP1271MagicValue}, nil
}
