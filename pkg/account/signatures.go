package account

import (
	"context"
	"errors"
	"math/big"

	"github.com/Layr-Labs/multisig-account-go/pkg/execution"
	"github.com/Layr-Labs/multisig-account-go/pkg/signatures"
	"github.com/Layr-Labs/multisig-account-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
)

var accountABI = execution.MustNewDispatcher(ABI).ABI()

// frameBackend serves the validator from the account's own storage and
// reaches contract signers through static calls.
type frameBackend struct {
	f *execution.Frame
}

func (b frameBackend) IsOwner(_ context.Context, owner common.Address) (bool, error) {
	return store{b.f}.isOwner(owner), nil
}

func (b frameBackend) GetThreshold(_ context.Context) (uint64, error) {
	t := store{b.f}.threshold()
	if !t.IsUint64() {
		return 0, execution.Revert(ReasonThresholdTooHigh)
	}
	return t.Uint64(), nil
}

func (b frameBackend) IsHashApproved(_ context.Context, owner common.Address, hash common.Hash) (bool, error) {
	return store{b.f}.hashApproved(owner, hash), nil
}

// IsValidSignature asks signer's legacy isValidSignature(bytes,bytes). A
// signer without code, a revert or a wrong answer is a rejection.
func (b frameBackend) IsValidSignature(_ context.Context, signer common.Address, data, sig []byte) (bool, error) {
	if !b.f.HasCode(signer) {
		return false, nil
	}
	input, err := accountABI.Pack("isValidSignature", nonNil(data), nonNil(sig))
	if err != nil {
		return false, err
	}

	ret, err := b.f.StaticCall(signer, input, 0)
	if err != nil {
		if execution.IsRevert(err) {
			return false, nil
		}
		return false, err
	}
	if len(ret) < 32 {
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

func (a *Account) validator(f *execution.Frame) *signatures.Validator {
	backend := frameBackend{f}
	return signatures.NewValidator(backend, backend, backend, a.logger)
}

// verify runs the validator and converts its verdict into a revert carrying
// the stable reason. Host failures pass through untouched.
func (a *Account) verify(f *execution.Frame, req *signatures.Request, required *big.Int) error {
	f.UseGas(params.EcrecoverGas*uint64(len(req.Signatures)/signatures.RecordLength), "signature recovery")

	var err error
	if required == nil {
		err = a.validator(f).CheckSignatures(f.Context(), req)
	} else {
		n, convErr := toUint64(required, "required signatures")
		if convErr != nil {
			return convErr
		}
		err = a.validator(f).CheckNSignatures(f.Context(), req, n)
	}
	if err == nil {
		return nil
	}
	if isValidationFailure(err) {
		a.logger.Sugar().Debugw("Signature check failed",
			"account", f.Address().Hex(),
			"dataHash", req.DataHash.Hex(),
			"error", err,
		)
		return execution.Revert(signatures.Reason(err))
	}
	return err
}

func isValidationFailure(err error) bool {
	var te *signatures.ThresholdError
	if errors.As(err, &te) {
		return true
	}
	for _, sentinel := range []error{
		signatures.ErrSignaturesTooShort,
		signatures.ErrMalformedSignatures,
		signatures.ErrSignerOrder,
		signatures.ErrThresholdNotSet,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return execution.IsRevert(err)
}

func (a *Account) checkSignatures(f *execution.Frame, args []interface{}) ([]interface{}, error) {
	req := &signatures.Request{
		DataHash:   common.Hash(args[0].([32]byte)),
		Data:       args[1].([]byte),
		Signatures: args[2].([]byte),
		Executor:   f.Caller(),
	}
	return nil, a.verify(f, req, nil)
}

func (a *Account) checkNSignatures(f *execution.Frame, args []interface{}) ([]interface{}, error) {
	req := &signatures.Request{
		DataHash:   common.Hash(args[0].([32]byte)),
		Data:       args[1].([]byte),
		Signatures: args[2].([]byte),
		Executor:   f.Caller(),
	}
	return nil, a.verify(f, req, args[3].(*big.Int))
}
