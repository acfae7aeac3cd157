// Package ownerset holds an owner set and hash approvals in memory so
// signatures can be validated without an execution host.
package ownerset

import (
	"context"
	"fmt"
	"sync"

	"github.com/Layr-Labs/multisig-account-go/pkg/signatures"
	"github.com/Layr-Labs/multisig-account-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

type approval struct {
	owner common.Address
	hash  common.Hash
}

// OwnerSet is a thread-safe owner registry and approval store
type OwnerSet struct {
	mu sync.RWMutex

	owners    []common.Address
	index     map[common.Address]struct{}
	threshold uint64
	approvals map[approval]struct{}
}

// New creates an owner set. The owners and threshold follow the same rules
// as account setup.
func New(owners []common.Address, threshold uint64) (*OwnerSet, error) {
	s := &OwnerSet{approvals: make(map[approval]struct{})}
	if err := s.Replace(owners, threshold); err != nil {
		return nil, err
	}
	return s, nil
}

// Replace swaps in a new owner list and threshold. Approvals by owners that
// are no longer present are dropped.
func (s *OwnerSet) Replace(owners []common.Address, threshold uint64) error {
	if threshold == 0 {
		return fmt.Errorf("threshold needs to be higher than 0")
	}
	if threshold > uint64(len(owners)) {
		return fmt.Errorf("threshold %d exceeds owner count %d", threshold, len(owners))
	}

	index := make(map[common.Address]struct{}, len(owners))
	for _, o := range owners {
		if o == (common.Address{}) || o == types.SentinelAddress {
			return fmt.Errorf("invalid owner address %s", o.Hex())
		}
		if _, dup := index[o]; dup {
			return fmt.Errorf("duplicate owner %s", o.Hex())
		}
		index[o] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.owners = append([]common.Address(nil), owners...)
	s.index = index
	s.threshold = threshold
	for a := range s.approvals {
		if _, ok := index[a.owner]; !ok {
			delete(s.approvals, a)
		}
	}
	return nil
}

// Owners returns a copy of the owner list
func (s *OwnerSet) Owners() []common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]common.Address(nil), s.owners...)
}

// Threshold returns the current threshold
func (s *OwnerSet) Threshold() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.threshold
}

// Approve records owner's approval of hash
func (s *OwnerSet) Approve(owner common.Address, hash common.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[owner]; !ok {
		return fmt.Errorf("%s is not an owner", owner.Hex())
	}
	s.approvals[approval{owner, hash}] = struct{}{}
	return nil
}

// IsOwner implements signatures.OwnerRegistry
func (s *OwnerSet) IsOwner(_ context.Context, owner common.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.index[owner]
	return ok, nil
}

// GetThreshold implements signatures.OwnerRegistry
func (s *OwnerSet) GetThreshold(_ context.Context) (uint64, error) {
	return s.Threshold(), nil
}

// IsHashApproved implements signatures.ApprovedHashStore
func (s *OwnerSet) IsHashApproved(_ context.Context, owner common.Address, hash common.Hash) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.approvals[approval{owner, hash}]
	return ok, nil
}

// Validator returns a signature validator backed by the set. Contract
// signatures are rejected.
func (s *OwnerSet) Validator(logger *zap.Logger) *signatures.Validator {
	return signatures.NewValidator(s, s, RejectContracts{}, logger)
}

// Verify checks blob over digest against the current owners and threshold
func (s *OwnerSet) Verify(ctx context.Context, digest common.Hash, blob []byte, logger *zap.Logger) error {
	return s.Validator(logger).CheckSignatures(ctx, &signatures.Request{
		DataHash:   digest,
		Data:       digest.Bytes(),
		Signatures: blob,
	})
}

// RejectContracts is a ContractVerifier for deployments without contract owners
type RejectContracts struct{}

// IsValidSignature always rejects
func (RejectContracts) IsValidSignature(context.Context, common.Address, []byte, []byte) (bool, error) {
	return false, nil
}
