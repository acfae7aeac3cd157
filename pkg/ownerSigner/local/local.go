package local

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/Layr-Labs/multisig-account-go/pkg/signatures"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// LocalSigner holds an owner's secp256k1 key in process memory
type LocalSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewLocalSigner wraps key
func NewLocalSigner(key *ecdsa.PrivateKey) (*LocalSigner, error) {
	if key == nil {
		return nil, fmt.Errorf("private key cannot be nil")
	}
	return &LocalSigner{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// NewLocalSignerFromHex parses a hex private key, with or without 0x
func NewLocalSignerFromHex(hexKey string) (*LocalSigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return NewLocalSigner(key)
}

func (s *LocalSigner) Address() common.Address {
	return s.address
}

func (s *LocalSigner) SignDigest(_ context.Context, digest common.Hash) (signatures.Entry, error) {
	return signatures.SignDigest(s.key, digest)
}

func (s *LocalSigner) EthSignDigest(_ context.Context, digest common.Hash) (signatures.Entry, error) {
	return signatures.EthSignDigest(s.key, digest)
}
