package signatures

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// OwnerRegistry exposes the current owner set and threshold
type OwnerRegistry interface {
	IsOwner(ctx context.Context, owner common.Address) (bool, error)
	GetThreshold(ctx context.Context) (uint64, error)
}

// ApprovedHashStore reports whether an owner approved a digest on record
type ApprovedHashStore interface {
	IsHashApproved(ctx context.Context, owner common.Address, hash common.Hash) (bool, error)
}

// ContractVerifier asks a signer contract whether it accepts a signature.
// A rejection, revert or missing contract is (false, nil); errors are
// reserved for infrastructure failures.
type ContractVerifier interface {
	IsValidSignature(ctx context.Context, signer common.Address, data []byte, signature []byte) (bool, error)
}

// Request is one validation input
type Request struct {
	// DataHash is the digest the owners signed
	DataHash common.Hash
	// Data is the pre-image handed to contract signers
	Data []byte
	// Signatures is the packed signature blob
	Signatures []byte
	// Executor may use an approved-hash record for itself without a stored approval
	Executor common.Address
}

// Validator decides whether enough distinct owners authorized a digest
type Validator struct {
	owners    OwnerRegistry
	approvals ApprovedHashStore
	contracts ContractVerifier
	logger    *zap.Logger
}

// NewValidator wires a validator to its collaborators
func NewValidator(owners OwnerRegistry, approvals ApprovedHashStore, contracts ContractVerifier, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		owners:    owners,
		approvals: approvals,
		contracts: contracts,
		logger:    logger,
	}
}

// Validate reports whether blob carries at least threshold valid owner
// signatures over digest. It fails closed on any error.
func (v *Validator) Validate(ctx context.Context, digest common.Hash, blob []byte) bool {
	err := v.CheckSignatures(ctx, &Request{
		DataHash:   digest,
		Data:       digest.Bytes(),
		Signatures: blob,
	})
	if err != nil {
		v.logger.Sugar().Debugw("Signature validation failed", "digest", digest.Hex(), "error", err)
		return false
	}
	return true
}

// CheckSignatures validates req against the registry's current threshold
func (v *Validator) CheckSignatures(ctx context.Context, req *Request) error {
	threshold, err := v.owners.GetThreshold(ctx)
	if err != nil {
		return fmt.Errorf("failed to read threshold: %w", err)
	}
	if threshold == 0 {
		return ErrThresholdNotSet
	}
	return v.CheckNSignatures(ctx, req, threshold)
}

// CheckNSignatures validates that at least required records are valid
func (v *Validator) CheckNSignatures(ctx context.Context, req *Request, required uint64) error {
	if req == nil {
		return fmt.Errorf("validation request cannot be nil")
	}
	if required == 0 {
		return ErrThresholdNotSet
	}

	records, err := Parse(req.Signatures, required)
	if err != nil {
		return err
	}

	var (
		lastOwner common.Address
		valid     uint64
		failures  []RecordFailure
	)

	for i := range records {
		rec := &records[i]

		signer, err := v.resolveSigner(rec, req.DataHash)
		if err != nil {
			failures = append(failures, RecordFailure{Index: rec.Index, Kind: rec.Kind, Err: ErrInvalidSignature})
			v.logger.Sugar().Debugw("Signature record not recoverable", "index", rec.Index, "kind", rec.Kind.String(), "error", err)
			continue
		}

		isOwner, err := v.owners.IsOwner(ctx, signer)
		if err != nil {
			return fmt.Errorf("failed to read owner %s: %w", signer.Hex(), err)
		}
		if !isOwner {
			failures = append(failures, RecordFailure{Index: rec.Index, Kind: rec.Kind, Signer: signer.Hex(), Err: unknownSignerError(rec.Kind)})
			continue
		}

		if bytes.Compare(signer.Bytes(), lastOwner.Bytes()) <= 0 {
			return fmt.Errorf("%w: record %d signer %s does not follow %s", ErrSignerOrder, rec.Index, signer.Hex(), lastOwner.Hex())
		}
		lastOwner = signer

		reason, err := v.verifyRecord(ctx, rec, signer, req)
		if err != nil {
			return err
		}
		if reason != nil {
			failures = append(failures, RecordFailure{Index: rec.Index, Kind: rec.Kind, Signer: signer.Hex(), Err: reason})
			continue
		}
		valid++
	}

	if valid >= required {
		v.logger.Sugar().Debugw("Signatures valid", "digest", req.DataHash.Hex(), "valid", valid, "required", required)
		return nil
	}

	return &ThresholdError{Valid: valid, Required: required, Failures: failures}
}

func (v *Validator) resolveSigner(rec *Record, digest common.Hash) (common.Address, error) {
	switch rec.Kind {
	case KindECDSA, KindEthSign:
		return rec.RecoverSigner(digest)
	default:
		return rec.ClaimedSigner(), nil
	}
}

// verifyRecord returns a non-nil reason when the record does not count and a
// non-nil error when a collaborator failed.
func (v *Validator) verifyRecord(ctx context.Context, rec *Record, signer common.Address, req *Request) (error, error) {
	switch rec.Kind {
	case KindECDSA, KindEthSign:
		// recovery already proved the signature
		return nil, nil

	case KindApprovedHash:
		if req.Executor == signer {
			return nil, nil
		}
		approved, err := v.approvals.IsHashApproved(ctx, signer, req.DataHash)
		if err != nil {
			return nil, fmt.Errorf("failed to read approval of %s: %w", signer.Hex(), err)
		}
		if !approved {
			return ErrHashNotApproved, nil
		}
		return nil, nil

	case KindContract:
		ok, err := v.contracts.IsValidSignature(ctx, signer, req.Data, rec.ContractSignature)
		if err != nil {
			return nil, fmt.Errorf("failed to verify contract signature of %s: %w", signer.Hex(), err)
		}
		if !ok {
			return ErrInvalidContractSignature, nil
		}
		return nil, nil

	default:
		return ErrInvalidSignature, nil
	}
}

func unknownSignerError(kind Kind) error {
	if kind == KindECDSA || kind == KindEthSign {
		return ErrInvalidSignature
	}
	return ErrInvalidOwner
}
