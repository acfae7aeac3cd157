// Package ownerSigner produces owner signatures in the packed record format.
package ownerSigner

import (
	"context"

	"github.com/Layr-Labs/multisig-account-go/pkg/signatures"
	"github.com/ethereum/go-ethereum/common"
)

// IOwnerSigner signs digests on behalf of one owner
type IOwnerSigner interface {
	// Address is the owner the signatures recover to
	Address() common.Address

	// SignDigest signs digest directly (v = 27/28)
	SignDigest(ctx context.Context, digest common.Hash) (signatures.Entry, error)

	// EthSignDigest signs the personal-sign prefixed digest (v = 31/32)
	EthSignDigest(ctx context.Context, digest common.Hash) (signatures.Entry, error)
}

// SignAll collects one ECDSA entry per signer and packs them in signer order
func SignAll(ctx context.Context, digest common.Hash, signers ...IOwnerSigner) ([]byte, error) {
	entries := make([]signatures.Entry, 0, len(signers))
	for _, s := range signers {
		e, err := s.SignDigest(ctx, digest)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return signatures.Pack(entries)
}
